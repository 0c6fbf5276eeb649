package tour

import (
	"fmt"
	"path"
	"strings"
	"time"

	"github.com/teslashibe/go-museum/pkg/geom"
)

// Default per-stop timings, used when a stop leaves them out.
const (
	DefaultMoveDuration = 1500 * time.Millisecond
	DefaultLookDuration = 600 * time.Millisecond
	DefaultWait         = 1200 * time.Millisecond
)

// Stop is one guided-tour waypoint as stored in stop files. Durations are
// milliseconds; a nil duration means "use the default", zero is honoured.
type Stop struct {
	Index       int      `json:"-" yaml:"-"`
	Title       string   `json:"title" yaml:"title"`
	Description string   `json:"desc,omitempty" yaml:"desc,omitempty"`
	Position    string   `json:"pos,omitempty" yaml:"pos,omitempty"`
	Target      string   `json:"target,omitempty" yaml:"target,omitempty"`
	Rotation    string   `json:"rot,omitempty" yaml:"rot,omitempty"`
	MoveDurMs   *float64 `json:"moveDur,omitempty" yaml:"moveDur,omitempty"`
	LookDurMs   *float64 `json:"lookDur,omitempty" yaml:"lookDur,omitempty"`
	WaitMs      *float64 `json:"wait,omitempty" yaml:"wait,omitempty"`
	AudioRef    string   `json:"audio,omitempty" yaml:"audio,omitempty"`
	ImageRef    string   `json:"image,omitempty" yaml:"image,omitempty"`
	Code        string   `json:"code,omitempty" yaml:"code,omitempty"`
}

// Location parses the stop position. It returns ErrNoPosition when the stop has
// none and a *WaypointError when it cannot be parsed.
func (s Stop) Location() (geom.Vec3, error) {
	if strings.TrimSpace(s.Position) == "" {
		return geom.Vec3{}, ErrNoPosition
	}
	p, err := geom.ParseVec3(s.Position)
	if err != nil {
		return geom.Vec3{}, &WaypointError{Index: s.Index, Field: "pos", Err: err}
	}
	return p, nil
}

// ExplicitRotation parses the "pitch yaw roll" rotation. ok is false when absent.
func (s Stop) ExplicitRotation() (pitch, yaw float64, ok bool, err error) {
	if strings.TrimSpace(s.Rotation) == "" {
		return 0, 0, false, nil
	}
	r, err := geom.ParseVec3(s.Rotation)
	if err != nil {
		return 0, 0, false, &WaypointError{Index: s.Index, Field: "rot", Err: err}
	}
	return r.X(), r.Y(), true, nil
}

// MoveDuration returns the move leg duration at speed 1.
func (s Stop) MoveDuration() time.Duration {
	return msOr(s.MoveDurMs, DefaultMoveDuration)
}

// LookDuration returns the look leg duration at speed 1.
func (s Stop) LookDuration() time.Duration {
	return msOr(s.LookDurMs, DefaultLookDuration)
}

// WaitDuration returns the dwell time before auto-advance at speed 1.
func (s Stop) WaitDuration() time.Duration {
	return msOr(s.WaitMs, DefaultWait)
}

func msOr(ms *float64, def time.Duration) time.Duration {
	if ms == nil {
		return def
	}
	if *ms <= 0 {
		return 0
	}
	return time.Duration(*ms * float64(time.Millisecond))
}

// Label is the title shown in waypoint lists.
func (s Stop) Label() string {
	title := s.Title
	if title == "" {
		title = "Paragem"
	}
	return fmt.Sprintf("%d. %s", s.Index+1, title)
}

// SpokenText is what text-to-speech reads on arrival.
func (s Stop) SpokenText() string {
	if s.Description == "" {
		return s.Title
	}
	return s.Title + ". " + s.Description
}

// DeriveCode returns the key used to look up painting metadata: the explicit code
// if set, else the image file name without extension, else the look-at target
// without its selector prefix, else "stop-NN". Codes are lower case.
func DeriveCode(s Stop) string {
	if c := strings.TrimSpace(s.Code); c != "" {
		return strings.ToLower(c)
	}
	if s.ImageRef != "" {
		base := path.Base(strings.ReplaceAll(s.ImageRef, "\\", "/"))
		if name := strings.TrimSuffix(base, path.Ext(base)); name != "" && name != "." && name != "/" {
			return strings.ToLower(name)
		}
	}
	if t := strings.TrimLeft(strings.TrimSpace(s.Target), "#."); t != "" {
		return strings.ToLower(t)
	}
	return fmt.Sprintf("stop-%02d", s.Index+1)
}

// Indexed returns a copy of stops with Index set to each stop's position.
func Indexed(stops []Stop) []Stop {
	out := make([]Stop, len(stops))
	for i, s := range stops {
		s.Index = i
		out[i] = s
	}
	return out
}

// Ms is a helper for building stops in code.
func Ms(v float64) *float64 {
	return &v
}
