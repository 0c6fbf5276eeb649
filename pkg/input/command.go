// Package input turns raw visitor events (keys, joystick, voice, UI buttons)
// into a small closed set of commands that the session dispatches in order.
package input

import (
	"fmt"

	"github.com/teslashibe/go-museum/pkg/pose"
)

// Kind identifies a command.
type Kind int

const (
	KindNone Kind = iota
	KindMove
	KindJoystick
	KindEnterExplore
	KindEnterTour
	KindWelcome
	KindStartTour
	KindNext
	KindPrev
	KindPauseToggle
	KindPause
	KindResume
	KindStopTour
	KindToggleMenu
	KindHelp
	KindToggleHUD
	KindSnapTurn
	KindWaypoint
	KindJump
	KindTeleportPoint
	KindRevealDescription
)

var kindNames = map[Kind]string{
	KindNone:              "none",
	KindMove:              "move",
	KindJoystick:          "joystick",
	KindEnterExplore:      "enter_explore",
	KindEnterTour:         "enter_tour",
	KindWelcome:           "welcome",
	KindStartTour:         "start_tour",
	KindNext:              "next",
	KindPrev:              "prev",
	KindPauseToggle:       "pause_toggle",
	KindPause:             "pause",
	KindResume:            "resume",
	KindStopTour:          "stop_tour",
	KindToggleMenu:        "toggle_menu",
	KindHelp:              "help",
	KindToggleHUD:         "toggle_hud",
	KindSnapTurn:          "snap_turn",
	KindWaypoint:          "waypoint",
	KindJump:              "jump",
	KindTeleportPoint:     "teleport_point",
	KindRevealDescription: "reveal_description",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Command is one normalised input. Only the fields relevant to Kind are set:
// Dir and Down for Move; X, Y and Engaged for Joystick; X and Y (as x, z) for
// TeleportPoint; Degrees for SnapTurn; Index for Waypoint and Jump.
type Command struct {
	Kind    Kind
	Dir     pose.Direction
	Down    bool
	X, Y    float64
	Engaged bool
	Degrees float64
	Index   int
}

func (c Command) String() string {
	switch c.Kind {
	case KindMove:
		return fmt.Sprintf("move(%d,%t)", c.Dir, c.Down)
	case KindJoystick:
		return fmt.Sprintf("joystick(%.2f,%.2f,%t)", c.X, c.Y, c.Engaged)
	case KindSnapTurn:
		return fmt.Sprintf("snap_turn(%g)", c.Degrees)
	case KindWaypoint, KindJump:
		return fmt.Sprintf("%s(%d)", c.Kind, c.Index)
	case KindTeleportPoint:
		return fmt.Sprintf("teleport_point(%.2f,%.2f)", c.X, c.Y)
	}
	return c.Kind.String()
}

// Simple returns a command that carries no arguments.
func Simple(k Kind) Command { return Command{Kind: k} }
