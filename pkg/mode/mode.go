// Package mode is the single source of truth for which experience mode is active.
//
// Exactly one of Welcome, Explore or Tour is active at a time. A modal menu overlay
// can sit on top of Explore or Tour; while it is open (or while Welcome is shown)
// movement and look input are disabled. Components read the gates here instead of
// keeping their own copy of the mode.
package mode

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"strings"

	"github.com/teslashibe/go-museum/internal/log"
)

// Mode is one of the exclusive experience modes.
type Mode int

const (
	// Welcome is the landing screen. Initial mode.
	Welcome Mode = iota
	// Explore is free roaming with keyboard and joystick.
	Explore
	// Tour is guided playback driven by the tour sequencer.
	Tour
)

// String returns the lower-case mode name.
func (m Mode) String() string {
	switch m {
	case Welcome:
		return "welcome"
	case Explore:
		return "explore"
	case Tour:
		return "tour"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// Parse converts a mode name to a Mode.
func Parse(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "welcome":
		return Welcome, nil
	case "explore":
		return Explore, nil
	case "tour":
		return Tour, nil
	}
	return Welcome, fmt.Errorf("mode: unknown mode %q", s)
}

// MarshalJSON encodes the mode by name.
func (m Mode) MarshalJSON() ([]byte, error) {
	return json.Marshal(m.String())
}

// UnmarshalJSON decodes a mode name.
func (m *Mode) UnmarshalJSON(b []byte) error {
	var name string
	if err := json.Unmarshal(b, &name); err != nil {
		return err
	}
	v, err := Parse(name)
	if err != nil {
		return err
	}
	*m = v
	return nil
}

// Change describes a mode or overlay change delivered to hooks.
type Change struct {
	From     Mode
	To       Mode
	MenuOpen bool
}

// Gated reports whether movement and look input are disabled after the change.
func (c Change) Gated() bool {
	return c.To == Welcome || c.MenuOpen
}

// Arbiter holds the current mode and the menu overlay flag. It is owned by the
// session goroutine and is not safe for concurrent use.
type Arbiter struct {
	mode     Mode
	menuOpen bool
	hooks    []func(Change)
	logger   *slog.Logger
}

// NewArbiter creates an arbiter in Welcome with the menu closed.
func NewArbiter(logger *slog.Logger) *Arbiter {
	if logger == nil {
		logger = log.L()
	}
	return &Arbiter{mode: Welcome, logger: logger}
}

// Mode returns the active mode.
func (a *Arbiter) Mode() Mode {
	return a.mode
}

// Is reports whether m is the active mode.
func (a *Arbiter) Is(m Mode) bool {
	return a.mode == m
}

// Allowed reports whether from -> to is a legal edge. Re-entering the current mode
// is allowed and is a no-op.
func Allowed(from, to Mode) bool {
	if from == to || to == Welcome {
		return true
	}
	switch from {
	case Welcome:
		return to == Explore || to == Tour
	case Explore:
		return to == Tour
	case Tour:
		return to == Explore
	}
	return false
}

// Transition switches to the given mode. Entering Welcome also closes the menu.
func (a *Arbiter) Transition(to Mode) error {
	from := a.mode
	if !Allowed(from, to) {
		return &TransitionError{From: from, To: to}
	}
	if from == to {
		return nil
	}
	a.mode = to
	if to == Welcome {
		a.menuOpen = false
	}
	a.logger.Debug("mode changed", "from", from.String(), "to", to.String())
	a.notify(Change{From: from, To: to, MenuOpen: a.menuOpen})
	return nil
}

// MenuOpen reports whether the modal menu overlay is visible.
func (a *Arbiter) MenuOpen() bool {
	return a.menuOpen
}

// SetMenuOpen shows or hides the menu overlay. The menu cannot open over Welcome.
func (a *Arbiter) SetMenuOpen(open bool) {
	if open && a.mode == Welcome {
		return
	}
	if a.menuOpen == open {
		return
	}
	a.menuOpen = open
	a.notify(Change{From: a.mode, To: a.mode, MenuOpen: open})
}

// ToggleMenu flips the menu overlay and returns the new state.
func (a *Arbiter) ToggleMenu() bool {
	a.SetMenuOpen(!a.menuOpen)
	return a.menuOpen
}

// MovementAllowed reports whether free movement input may move the rig.
func (a *Arbiter) MovementAllowed() bool {
	return a.mode == Explore && !a.menuOpen
}

// LookAllowed reports whether free-look input is live.
func (a *Arbiter) LookAllowed() bool {
	return a.mode != Welcome && !a.menuOpen
}

// OnChange registers fn to run after every mode or overlay change, in
// registration order.
func (a *Arbiter) OnChange(fn func(Change)) {
	a.hooks = append(a.hooks, fn)
}

func (a *Arbiter) notify(c Change) {
	for _, fn := range a.hooks {
		fn(c)
	}
}
