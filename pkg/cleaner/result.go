package cleaner

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
)

// Stats captures what a sanitizing pass removed.
type Stats struct {
	InputBytes  int `json:"input_bytes"`
	OutputBytes int `json:"output_bytes"`

	// ElementsRemoved maps tag name to the number of elements removed.
	ElementsRemoved map[string]int `json:"elements_removed"`

	// ConditionalRemovals counts header/footer style elements removed
	// because an indicator matched their class or id.
	ConditionalRemovals int `json:"conditional_removals"`
	EmptyItemRemovals   int `json:"empty_item_removals"`
	HiddenRemovals      int `json:"hidden_removals"`
	LinksUnwrapped      int `json:"links_unwrapped"`
	AttributesRemoved   int `json:"attributes_removed"`

	Duration time.Duration `json:"duration_ms"`
}

// NewStats creates a new Stats instance with initialized maps.
func NewStats() *Stats {
	return &Stats{
		ElementsRemoved: make(map[string]int),
	}
}

// RecordRemoval records that an element was removed.
func (s *Stats) RecordRemoval(tag string) {
	s.ElementsRemoved[strings.ToLower(tag)]++
}

// TotalElementsRemoved returns the sum of all removed elements.
func (s *Stats) TotalElementsRemoved() int {
	total := 0
	for _, count := range s.ElementsRemoved {
		total += count
	}
	return total
}

// ReductionPercent returns the percentage reduction in size.
func (s *Stats) ReductionPercent() float64 {
	if s.InputBytes == 0 {
		return 0
	}
	return float64(s.InputBytes-s.OutputBytes) / float64(s.InputBytes) * 100
}

// String returns a human-readable summary of the stats.
func (s *Stats) String() string {
	var sb strings.Builder

	sb.WriteString(fmt.Sprintf("Size: %s -> %s (%.1f%% reduction)\n",
		humanize.Bytes(uint64(s.InputBytes)), humanize.Bytes(uint64(s.OutputBytes)), s.ReductionPercent()))
	sb.WriteString(fmt.Sprintf("Elements removed: %d\n", s.TotalElementsRemoved()))

	if len(s.ElementsRemoved) > 0 {
		tags := make([]string, 0, len(s.ElementsRemoved))
		for tag := range s.ElementsRemoved {
			tags = append(tags, tag)
		}
		sort.Strings(tags)
		parts := make([]string, len(tags))
		for i, tag := range tags {
			parts[i] = fmt.Sprintf("%s=%d", tag, s.ElementsRemoved[tag])
		}
		sb.WriteString("Removed by tag: " + strings.Join(parts, ", ") + "\n")
	}
	if s.LinksUnwrapped > 0 {
		sb.WriteString(fmt.Sprintf("Links unwrapped: %d\n", s.LinksUnwrapped))
	}

	sb.WriteString(fmt.Sprintf("Duration: %v\n", s.Duration.Round(time.Microsecond)))
	return sb.String()
}

// Warning represents a non-fatal issue encountered during cleaning.
type Warning struct {
	Phase   string `json:"phase"` // "parse", "transform", "output"
	Message string `json:"message"`
	Context string `json:"context"`
}

// String returns a formatted warning message.
func (w Warning) String() string {
	if w.Context != "" {
		return fmt.Sprintf("[%s] %s (context: %s)", w.Phase, w.Message, w.Context)
	}
	return fmt.Sprintf("[%s] %s", w.Phase, w.Message)
}

// Result contains the output of a cleaning operation.
type Result struct {
	// Content is the cleaned output. On parse or render errors this is the original input.
	Content string `json:"content"`

	Stats    *Stats    `json:"stats"`
	Warnings []Warning `json:"warnings,omitempty"`
}

func newResult(input string) *Result {
	r := &Result{Stats: NewStats()}
	r.Stats.InputBytes = len(input)
	return r
}

// AddWarning adds a warning to the result.
func (r *Result) AddWarning(phase, message, context string) {
	r.Warnings = append(r.Warnings, Warning{
		Phase:   phase,
		Message: message,
		Context: context,
	})
}

// HasWarnings returns true if any warnings were recorded.
func (r *Result) HasWarnings() bool {
	return len(r.Warnings) > 0
}

// degrade sets the result content to the original input.
func (r *Result) degrade(input, phase string, err error) *Result {
	r.Content = input
	r.Stats.OutputBytes = len(input)
	r.AddWarning(phase, "returning original content", err.Error())
	return r
}

func (r *Result) finish(content string, start time.Time) *Result {
	r.Content = content
	r.Stats.OutputBytes = len(content)
	r.Stats.Duration = time.Since(start)
	return r
}
