// Package cache stores fetched pages in SQLite so repeated crawls can skip
// the network.
package cache

import (
	"fmt"
	"strings"
)

// Mode controls how the page cache is consulted.
type Mode string

const (
	ModeEnabled   Mode = "enabled"
	ModeDisabled  Mode = "disabled"
	ModeReadOnly  Mode = "read_only"
	ModeWriteOnly Mode = "write_only"
	ModeBypass    Mode = "bypass"
)

// Modes lists every valid mode in display order.
var Modes = []Mode{ModeEnabled, ModeDisabled, ModeReadOnly, ModeWriteOnly, ModeBypass}

// ParseMode parses a mode name case-insensitively.
func ParseMode(name string) (Mode, error) {
	normalized := strings.ToLower(strings.TrimSpace(name))
	for _, m := range Modes {
		if string(m) == normalized {
			return m, nil
		}
	}
	names := make([]string, len(Modes))
	for i, m := range Modes {
		names[i] = string(m)
	}
	return "", fmt.Errorf("invalid cache mode: %q. Valid choices (case-insensitive): %s", name, strings.Join(names, ", "))
}

// CanRead reports whether cached pages may be served.
func (m Mode) CanRead() bool {
	return m == ModeEnabled || m == ModeReadOnly
}

// CanWrite reports whether fetched pages are stored.
func (m Mode) CanWrite() bool {
	return m == ModeEnabled || m == ModeWriteOnly
}

// Active reports whether the mode needs a store at all.
func (m Mode) Active() bool {
	return m.CanRead() || m.CanWrite()
}

func (m Mode) String() string {
	return string(m)
}
