package fetcher

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/chromedp/chromedp"
)

// WaitKind identifies how a dynamic fetch waits after navigation.
type WaitKind int

const (
	WaitNone WaitKind = iota
	WaitDuration
	WaitSelector
	WaitScript
)

// WaitCondition is a parsed wait-for expression.
type WaitCondition struct {
	Kind     WaitKind
	Duration time.Duration
	Selector string
	Script   string
}

// ParseWaitFor parses a wait-for expression:
//
//	"5"            sleep five seconds (fractions allowed)
//	"css:main"     wait until the selector is ready
//	"js:() => ok"  poll the expression or function until it is truthy
//	"main"         a bare CSS selector
func ParseWaitFor(s string) (WaitCondition, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return WaitCondition{}, nil
	}

	if prefix, rest, ok := strings.Cut(s, ":"); ok {
		rest = strings.TrimSpace(rest)
		switch strings.ToLower(prefix) {
		case "css":
			if rest == "" {
				return WaitCondition{}, fmt.Errorf("wait-for %q: empty selector", s)
			}
			return WaitCondition{Kind: WaitSelector, Selector: rest}, nil
		case "js":
			if rest == "" {
				return WaitCondition{}, fmt.Errorf("wait-for %q: empty script", s)
			}
			return WaitCondition{Kind: WaitScript, Script: rest}, nil
		}
	}

	if secs, err := strconv.ParseFloat(s, 64); err == nil {
		if secs < 0 {
			return WaitCondition{}, fmt.Errorf("wait-for %q: negative duration", s)
		}
		return WaitCondition{Kind: WaitDuration, Duration: time.Duration(secs * float64(time.Second))}, nil
	}

	return WaitCondition{Kind: WaitSelector, Selector: s}, nil
}

// Action returns the chromedp action for the condition. WaitNone waits for
// the body to be ready.
func (w WaitCondition) Action() chromedp.Action {
	switch w.Kind {
	case WaitDuration:
		return chromedp.Tasks{chromedp.WaitReady("body"), chromedp.Sleep(w.Duration)}
	case WaitSelector:
		return chromedp.WaitReady(w.Selector)
	case WaitScript:
		if isFunctionExpr(w.Script) {
			return chromedp.PollFunction(w.Script, nil, chromedp.WithPollingInterval(100*time.Millisecond))
		}
		return chromedp.Poll(w.Script, nil, chromedp.WithPollingInterval(100*time.Millisecond))
	default:
		// WaitVisible has a bug causing infinite polling
		return chromedp.WaitReady("body")
	}
}

func isFunctionExpr(script string) bool {
	return strings.HasPrefix(script, "function") ||
		(strings.HasPrefix(script, "(") && strings.Contains(script, "=>")) ||
		(strings.HasPrefix(script, "async") && strings.Contains(script, "=>"))
}

func (k WaitKind) String() string {
	switch k {
	case WaitDuration:
		return "duration"
	case WaitSelector:
		return "selector"
	case WaitScript:
		return "script"
	default:
		return "none"
	}
}
