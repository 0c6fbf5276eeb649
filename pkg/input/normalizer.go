package input

import (
	"log/slog"
	"math"
	"strconv"
	"strings"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/mode"
	"github.com/teslashibe/go-museum/pkg/pose"
	"github.com/teslashibe/go-museum/pkg/speech"
)

// DefaultSnapDegrees is the Q/E comfort turn.
const DefaultSnapDegrees = 30

// Option configures a Normalizer.
type Option func(*Normalizer)

// WithSnapDegrees sets the snap-turn angle.
func WithSnapDegrees(deg float64) Option {
	return func(n *Normalizer) {
		if deg > 0 {
			n.snap = deg
		}
	}
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(n *Normalizer) { n.logger = l }
}

// Normalizer maps raw events to commands. It is stateless apart from its
// settings and safe for concurrent use.
type Normalizer struct {
	snap   float64
	logger *slog.Logger
}

// NewNormalizer creates a normalizer.
func NewNormalizer(opts ...Option) *Normalizer {
	n := &Normalizer{snap: DefaultSnapDegrees}
	for _, opt := range opts {
		opt(n)
	}
	n.logger = log.For(n.logger, "input")
	return n
}

var wasd = map[string]pose.Direction{
	"w": pose.Forward,
	"s": pose.Back,
	"a": pose.Left,
	"d": pose.Right,
}

var arrows = map[string]pose.Direction{
	"arrowup":    pose.Forward,
	"arrowdown":  pose.Back,
	"arrowleft":  pose.Left,
	"arrowright": pose.Right,
}

// Key maps a key event, named as in the DOM KeyboardEvent.key, in the given mode.
//
// Tour mode swallows WASD and the up/down arrows while left/right step through
// the tour. Elsewhere the arrows alias WASD. Releases of movement keys always
// pass through so held input never sticks. Shortcuts fire on key down only.
func (n *Normalizer) Key(key string, down bool, m mode.Mode) []Command {
	k := strings.ToLower(key)

	if dir, ok := wasd[k]; ok {
		if m == mode.Tour && down {
			return nil
		}
		return []Command{{Kind: KindMove, Dir: dir, Down: down}}
	}
	if dir, ok := arrows[k]; ok {
		if m != mode.Tour {
			return []Command{{Kind: KindMove, Dir: dir, Down: down}}
		}
		if !down {
			return []Command{{Kind: KindMove, Dir: dir, Down: false}}
		}
		switch k {
		case "arrowright":
			return []Command{Simple(KindNext)}
		case "arrowleft":
			return []Command{Simple(KindPrev)}
		}
		return nil
	}

	if !down {
		return nil
	}
	switch k {
	case "escape":
		return []Command{Simple(KindStopTour)}
	case "m":
		return []Command{Simple(KindToggleMenu)}
	case "h":
		return []Command{Simple(KindToggleHUD)}
	case "?", "f1":
		return []Command{Simple(KindHelp)}
	case "q":
		return []Command{{Kind: KindSnapTurn, Degrees: -n.snap}}
	case "e":
		return []Command{{Kind: KindSnapTurn, Degrees: n.snap}}
	case " ", "spacebar":
		if m == mode.Tour {
			return []Command{Simple(KindPauseToggle)}
		}
	case "enter":
		if m == mode.Welcome {
			return []Command{Simple(KindEnterExplore)}
		}
	}
	return nil
}

// Joystick maps a virtual joystick sample, clamping it to the unit disk.
// A released stick reports zero.
func (n *Normalizer) Joystick(x, y float64, engaged bool) Command {
	if !engaged || math.IsNaN(x) || math.IsNaN(y) {
		return Command{Kind: KindJoystick}
	}
	if l := math.Hypot(x, y); l > 1 {
		x /= l
		y /= l
	}
	return Command{Kind: KindJoystick, X: x, Y: y, Engaged: true}
}

// Floor maps a click on the floor to a teleport.
func (n *Normalizer) Floor(x, z float64) Command {
	return Command{Kind: KindTeleportPoint, X: x, Y: z}
}

type voiceRule struct {
	phrases []string
	kind    Kind
}

// Checked in order; the first rule with a matching phrase wins.
var voiceRules = []voiceRule{
	{[]string{"iniciar", "comecar", "start tour", "start"}, KindStartTour},
	{[]string{"pausar", "pausa", "pause"}, KindPause},
	{[]string{"retomar", "continuar", "resume", "continue"}, KindResume},
	{[]string{"proxima", "seguinte", "avancar", "next"}, KindNext},
	{[]string{"anterior", "recuar", "previous"}, KindPrev},
	{[]string{"parar", "sair", "terminar", "stop"}, KindStopTour},
	{[]string{"saber mais", "descricao", "tell me more"}, KindRevealDescription},
	{[]string{"explorar", "explore"}, KindEnterExplore},
	{[]string{"visita guiada", "guided tour"}, KindEnterTour},
	{[]string{"menu"}, KindToggleMenu},
	{[]string{"ajuda", "help"}, KindHelp},
	{[]string{"inicio", "bem vindo", "welcome"}, KindWelcome},
}

var stopNouns = []string{"paragem", "obra", "stop", "number", "numero"}

// Voice maps a recognised utterance. Matching ignores case, accents and
// punctuation. "paragem 3" (or "stop 3") selects a waypoint.
func (n *Normalizer) Voice(text string) (Command, bool) {
	folded := speech.Fold(text)
	if folded == "" {
		return Command{}, false
	}
	if i, ok := spokenIndex(folded); ok {
		return Command{Kind: KindWaypoint, Index: i}, true
	}
	for _, r := range voiceRules {
		for _, p := range r.phrases {
			if speech.HasPhrase(folded, p) {
				return Simple(r.kind), true
			}
		}
	}
	n.logger.Debug("unrecognised voice command", "text", folded)
	return Command{}, false
}

// spokenIndex finds "<noun> <n>" and returns the zero-based index.
func spokenIndex(folded string) (int, bool) {
	words := strings.Fields(folded)
	for i := 0; i+1 < len(words); i++ {
		for _, noun := range stopNouns {
			if words[i] != noun {
				continue
			}
			if v, err := strconv.Atoi(words[i+1]); err == nil && v >= 1 {
				return v - 1, true
			}
		}
	}
	return 0, false
}

var uiActions = map[string]Kind{
	"explore":      KindEnterExplore,
	"tour":         KindEnterTour,
	"welcome":      KindWelcome,
	"start":        KindStartTour,
	"next":         KindNext,
	"prev":         KindPrev,
	"pause_toggle": KindPauseToggle,
	"pause":        KindPause,
	"resume":       KindResume,
	"stop":         KindStopTour,
	"menu":         KindToggleMenu,
	"help":         KindHelp,
	"hud":          KindToggleHUD,
	"reveal":       KindRevealDescription,
}

// UI maps an overlay button. index is only read by "waypoint" and "jump".
func (n *Normalizer) UI(action string, index int) (Command, bool) {
	a := strings.ToLower(strings.TrimSpace(action))
	switch a {
	case "waypoint":
		return Command{Kind: KindWaypoint, Index: index}, index >= 0
	case "jump":
		return Command{Kind: KindJump, Index: index}, index >= 0
	case "snap_left":
		return Command{Kind: KindSnapTurn, Degrees: -n.snap}, true
	case "snap_right":
		return Command{Kind: KindSnapTurn, Degrees: n.snap}, true
	}
	k, ok := uiActions[a]
	if !ok {
		n.logger.Debug("unknown ui action", "action", action)
		return Command{}, false
	}
	return Simple(k), true
}
