// Package tween provides time-based interpolation for the rig pose.
// One primitive drives position, yaw and pitch alike: given a start value, end value,
// duration and easing curve it yields the sampled value for any instant.
package tween

import (
	"time"

	"github.com/teslashibe/go-museum/pkg/geom"
)

// Easing maps linear progress in [0,1] to eased progress in [0,1].
type Easing func(t float64) float64

// Linear is the identity curve.
func Linear(t float64) float64 { return clamp01(t) }

// Smoothstep provides smooth easing (slow start/end).
func Smoothstep(t float64) float64 {
	t = clamp01(t)
	return t * t * (3 - 2*t)
}

// EaseInOutQuad accelerates through the first half and decelerates through the second.
func EaseInOutQuad(t float64) float64 {
	t = clamp01(t)
	if t < 0.5 {
		return 2 * t * t
	}
	return 1 - (-2*t+2)*(-2*t+2)/2
}

// Tween interpolates between two values of T over Duration starting at Start.
type Tween[T any] struct {
	From     T
	To       T
	Start    time.Time
	Duration time.Duration
	Ease     Easing
	Lerp     func(a, b T, t float64) T
}

// Progress returns eased progress in [0,1] at now.
func (tw Tween[T]) Progress(now time.Time) float64 {
	if tw.Duration <= 0 {
		return 1
	}
	raw := float64(now.Sub(tw.Start)) / float64(tw.Duration)
	ease := tw.Ease
	if ease == nil {
		ease = Linear
	}
	return ease(clamp01(raw))
}

// Sample returns the interpolated value at now.
func (tw Tween[T]) Sample(now time.Time) T {
	if tw.Done(now) {
		return tw.To
	}
	return tw.Lerp(tw.From, tw.To, tw.Progress(now))
}

// Done reports whether the tween has reached its end value.
func (tw Tween[T]) Done(now time.Time) bool {
	return tw.Duration <= 0 || !now.Before(tw.Start.Add(tw.Duration))
}

// Scalar builds a float tween.
func Scalar(from, to float64, start time.Time, d time.Duration, ease Easing) Tween[float64] {
	return Tween[float64]{From: from, To: to, Start: start, Duration: d, Ease: ease, Lerp: lerp}
}

// Vector builds a position tween.
func Vector(from, to geom.Vec3, start time.Time, d time.Duration, ease Easing) Tween[geom.Vec3] {
	return Tween[geom.Vec3]{From: from, To: to, Start: start, Duration: d, Ease: ease, Lerp: lerpVec3}
}

// lerp performs linear interpolation.
func lerp(a, b, t float64) float64 {
	return a + (b-a)*t
}

func lerpVec3(a, b geom.Vec3, t float64) geom.Vec3 {
	return geom.Vec3{lerp(a[0], b[0], t), lerp(a[1], b[1], t), lerp(a[2], b[2], t)}
}

func clamp01(t float64) float64 {
	if t < 0 {
		return 0
	}
	if t > 1 {
		return 1
	}
	return t
}
