// Package security models the read-only / full-access switch of the
// application as an explicit capability value instead of a process-wide
// singleton. Mutating store operations take a Permissions value and refuse
// to run without the edit capability.
package security

import (
	"fmt"
	"sync"
)

// Mode is the access mode of the application.
type Mode string

const (
	ModeReadOnly   Mode = "read_only"
	ModeFullAccess Mode = "full_access"
)

// ParseMode validates a mode string from config or API input.
func ParseMode(s string) (Mode, error) {
	switch Mode(s) {
	case ModeReadOnly, ModeFullAccess:
		return Mode(s), nil
	case "":
		return ModeReadOnly, nil
	default:
		return "", fmt.Errorf("unknown security mode %q (expected %q or %q)", s, ModeReadOnly, ModeFullAccess)
	}
}

// Permissions is the capability value threaded into mutating service calls.
type Permissions struct {
	CanEdit bool
}

// Permissions derives the capabilities granted by a mode.
func (m Mode) Permissions() Permissions {
	return Permissions{CanEdit: m == ModeFullAccess}
}

// Guard holds the current mode and notifies its owner on changes. The
// change callback is supplied by whoever composes the services; the guard
// itself knows nothing about dispatch mechanics.
type Guard struct {
	mu       sync.RWMutex
	mode     Mode
	onChange func(Mode)
}

// NewGuard creates a guard starting in the given mode. onChange may be nil.
func NewGuard(mode Mode, onChange func(Mode)) *Guard {
	return &Guard{mode: mode, onChange: onChange}
}

// Mode returns the current access mode.
func (g *Guard) Mode() Mode {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.mode
}

// Permissions returns the capabilities of the current mode.
func (g *Guard) Permissions() Permissions {
	return g.Mode().Permissions()
}

// SetMode switches the access mode and fires the change callback when the
// mode actually changed.
func (g *Guard) SetMode(mode Mode) error {
	if mode != ModeReadOnly && mode != ModeFullAccess {
		return fmt.Errorf("unknown security mode %q", mode)
	}

	g.mu.Lock()
	changed := g.mode != mode
	g.mode = mode
	onChange := g.onChange
	g.mu.Unlock()

	if changed && onChange != nil {
		onChange(mode)
	}
	return nil
}
