package tween

import (
	"time"

	"github.com/teslashibe/go-museum/pkg/geom"
)

// Track identifies one animated pose channel.
type Track int

const (
	// TrackPosition animates the rig position.
	TrackPosition Track = iota
	// TrackYaw animates the rig yaw.
	TrackYaw
	// TrackPitch animates the camera pitch.
	TrackPitch
)

// String returns the track name (for logging).
func (t Track) String() string {
	switch t {
	case TrackPosition:
		return "position"
	case TrackYaw:
		return "yaw"
	case TrackPitch:
		return "pitch"
	default:
		return "unknown"
	}
}

// Frame is the result of sampling the animator. Nil fields were not animated.
type Frame struct {
	Position *geom.Vec3
	Yaw      *float64
	Pitch    *float64
}

// Empty reports whether nothing was sampled.
func (f Frame) Empty() bool {
	return f.Position == nil && f.Yaw == nil && f.Pitch == nil
}

// Animator holds at most one in-flight tween per track. Starting a tween on a
// track replaces the previous one. Not safe for concurrent use; it belongs to the
// goroutine that owns the pose.
type Animator struct {
	position *Tween[geom.Vec3]
	yaw      *Tween[float64]
	pitch    *Tween[float64]
}

// NewAnimator creates an idle animator.
func NewAnimator() *Animator {
	return &Animator{}
}

// AnimatePosition starts (or replaces) the position tween.
func (a *Animator) AnimatePosition(tw Tween[geom.Vec3]) {
	a.position = &tw
}

// AnimateYaw starts (or replaces) the yaw tween.
func (a *Animator) AnimateYaw(tw Tween[float64]) {
	a.yaw = &tw
}

// AnimatePitch starts (or replaces) the pitch tween.
func (a *Animator) AnimatePitch(tw Tween[float64]) {
	a.pitch = &tw
}

// Cancel removes the tween on one track, freezing that channel where it is.
func (a *Animator) Cancel(track Track) {
	switch track {
	case TrackPosition:
		a.position = nil
	case TrackYaw:
		a.yaw = nil
	case TrackPitch:
		a.pitch = nil
	}
}

// CancelAll removes every in-flight tween.
func (a *Animator) CancelAll() {
	a.position, a.yaw, a.pitch = nil, nil, nil
}

// Active reports whether the track has an in-flight tween.
func (a *Animator) Active(track Track) bool {
	switch track {
	case TrackPosition:
		return a.position != nil
	case TrackYaw:
		return a.yaw != nil
	case TrackPitch:
		return a.pitch != nil
	}
	return false
}

// Busy reports whether any track is animating.
func (a *Animator) Busy() bool {
	return a.position != nil || a.yaw != nil || a.pitch != nil
}

// Step samples every active track at now. Tracks that reach their end value are
// returned one last time and then dropped.
func (a *Animator) Step(now time.Time) Frame {
	var f Frame
	if a.position != nil {
		v := a.position.Sample(now)
		f.Position = &v
		if a.position.Done(now) {
			a.position = nil
		}
	}
	if a.yaw != nil {
		v := a.yaw.Sample(now)
		f.Yaw = &v
		if a.yaw.Done(now) {
			a.yaw = nil
		}
	}
	if a.pitch != nil {
		v := a.pitch.Sample(now)
		f.Pitch = &v
		if a.pitch.Done(now) {
			a.pitch = nil
		}
	}
	return f
}
