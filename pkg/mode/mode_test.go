package mode

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/teslashibe/go-museum/internal/log"
)

func TestTransitions(t *testing.T) {
	tests := []struct {
		from, to Mode
		ok       bool
	}{
		{Welcome, Explore, true},
		{Welcome, Tour, true},
		{Explore, Tour, true},
		{Tour, Explore, true},
		{Explore, Welcome, true},
		{Tour, Welcome, true},
		{Welcome, Welcome, true},
	}
	for _, tt := range tests {
		t.Run(tt.from.String()+"->"+tt.to.String(), func(t *testing.T) {
			if got := Allowed(tt.from, tt.to); got != tt.ok {
				t.Errorf("Allowed(%s, %s) = %v, want %v", tt.from, tt.to, got, tt.ok)
			}
		})
	}

	if Allowed(Mode(7), Explore) {
		t.Error("unknown source mode should not be allowed")
	}
}

func TestTransitionRejected(t *testing.T) {
	a := NewArbiter(log.Discard())
	err := a.Transition(Mode(9))
	if err == nil {
		t.Fatal("expected error")
	}
	if !errors.Is(err, ErrInvalidTransition) {
		t.Errorf("error = %v, want ErrInvalidTransition", err)
	}

	var te *TransitionError
	if !errors.As(err, &te) {
		t.Fatalf("error %T is not a *TransitionError", err)
	}
	if te.From != Welcome {
		t.Errorf("From = %s, want welcome", te.From)
	}
	if a.Mode() != Welcome {
		t.Errorf("mode = %s, want welcome", a.Mode())
	}
}

// Exactly one mode is active, and movement is allowed only in Explore with the
// menu closed.
func TestMovementGate(t *testing.T) {
	a := NewArbiter(log.Discard())
	seq := []func(){
		func() { _ = a.Transition(Explore) },
		func() { a.ToggleMenu() },
		func() { a.ToggleMenu() },
		func() { _ = a.Transition(Tour) },
		func() { a.SetMenuOpen(true) },
		func() { _ = a.Transition(Explore) },
		func() { _ = a.Transition(Welcome) },
		func() { a.SetMenuOpen(true) },
		func() { _ = a.Transition(Tour) },
	}

	check := func(step int) {
		active := 0
		for _, m := range []Mode{Welcome, Explore, Tour} {
			if a.Is(m) {
				active++
			}
		}
		if active != 1 {
			t.Fatalf("step %d: %d active modes", step, active)
		}
		want := a.Mode() == Explore && !a.MenuOpen()
		if got := a.MovementAllowed(); got != want {
			t.Fatalf("step %d: MovementAllowed() = %v with mode=%s menu=%v", step, got, a.Mode(), a.MenuOpen())
		}
	}

	check(0)
	for i, step := range seq {
		step()
		check(i + 1)
	}
}

func TestWelcomeClosesMenuAndBlocksIt(t *testing.T) {
	a := NewArbiter(log.Discard())
	a.SetMenuOpen(true)
	if a.MenuOpen() {
		t.Error("menu cannot open over welcome")
	}
	if a.LookAllowed() {
		t.Error("look should be gated in welcome")
	}

	if err := a.Transition(Explore); err != nil {
		t.Fatal(err)
	}
	a.SetMenuOpen(true)
	if !a.MenuOpen() {
		t.Error("menu should open in explore")
	}
	if a.LookAllowed() {
		t.Error("look should be gated with the menu open")
	}

	if err := a.Transition(Welcome); err != nil {
		t.Fatal(err)
	}
	if a.MenuOpen() {
		t.Error("welcome should close the menu")
	}
}

func TestOnChangeHooks(t *testing.T) {
	a := NewArbiter(log.Discard())
	var changes []Change
	a.OnChange(func(c Change) { changes = append(changes, c) })

	for _, m := range []Mode{Explore, Explore} {
		if err := a.Transition(m); err != nil {
			t.Fatal(err)
		}
	}
	a.ToggleMenu()
	if err := a.Transition(Welcome); err != nil {
		t.Fatal(err)
	}

	want := []struct {
		change Change
		gated  bool
	}{
		{Change{From: Welcome, To: Explore}, false},
		{Change{From: Explore, To: Explore, MenuOpen: true}, true},
		{Change{From: Explore, To: Welcome}, true},
	}
	if len(changes) != len(want) {
		t.Fatalf("got %d changes, want %d: %+v", len(changes), len(want), changes)
	}
	for i, w := range want {
		if changes[i] != w.change {
			t.Errorf("change %d = %+v, want %+v", i, changes[i], w.change)
		}
		if changes[i].Gated() != w.gated {
			t.Errorf("change %d Gated() = %v, want %v", i, changes[i].Gated(), w.gated)
		}
	}
}

func TestParse(t *testing.T) {
	m, err := Parse(" Tour ")
	if err != nil {
		t.Fatal(err)
	}
	if m != Tour {
		t.Errorf("Parse = %s, want tour", m)
	}

	if _, err := Parse("gallery"); err == nil {
		t.Error("expected error for unknown mode")
	}
}

func TestModeJSON(t *testing.T) {
	b, err := json.Marshal(struct{ M Mode }{Tour})
	if err != nil {
		t.Fatal(err)
	}
	if string(b) != `{"M":"tour"}` {
		t.Errorf("marshal = %s", b)
	}

	var out struct{ M Mode }
	if err := json.Unmarshal(b, &out); err != nil {
		t.Fatal(err)
	}
	if out.M != Tour {
		t.Errorf("unmarshal = %s, want tour", out.M)
	}
	if err := json.Unmarshal([]byte(`{"M":"gallery"}`), &out); err == nil {
		t.Error("expected error for unknown mode")
	}
}
