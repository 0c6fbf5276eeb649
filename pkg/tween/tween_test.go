package tween

import (
	"math"
	"testing"
	"time"

	"github.com/teslashibe/go-museum/pkg/geom"
)

func TestEasingEndpoints(t *testing.T) {
	curves := map[string]Easing{
		"linear":     Linear,
		"smoothstep": Smoothstep,
		"quad":       EaseInOutQuad,
	}
	for name, ease := range curves {
		t.Run(name, func(t *testing.T) {
			if ease(0) != 0 {
				t.Errorf("ease(0) = %v", ease(0))
			}
			if ease(1) != 1 {
				t.Errorf("ease(1) = %v", ease(1))
			}
			if math.Abs(ease(0.5)-0.5) > 1e-9 {
				t.Errorf("ease(0.5) = %v, want 0.5", ease(0.5))
			}
			if ease(-1) != 0 || ease(2) != 1 {
				t.Error("ease should clamp out-of-range input")
			}
		})
	}
}

func TestScalarSample(t *testing.T) {
	start := time.Unix(100, 0)
	tw := Scalar(0, 10, start, time.Second, Linear)

	if got := tw.Sample(start); got != 0 {
		t.Errorf("at start: %v", got)
	}
	if got := tw.Sample(start.Add(250 * time.Millisecond)); math.Abs(got-2.5) > 1e-9 {
		t.Errorf("at 25%%: %v", got)
	}
	if got := tw.Sample(start.Add(2 * time.Second)); got != 10 {
		t.Errorf("after end: %v", got)
	}
	if !tw.Done(start.Add(time.Second)) {
		t.Error("expected done at end")
	}
}

func TestZeroDurationIsInstant(t *testing.T) {
	start := time.Unix(0, 0)
	tw := Vector(geom.Vec3{0, 0, 0}, geom.Vec3{5, 0, 5}, start, 0, EaseInOutQuad)
	if !tw.Done(start) {
		t.Fatal("zero duration tween should be done immediately")
	}
	if got := tw.Sample(start); got != (geom.Vec3{5, 0, 5}) {
		t.Errorf("got %v", got)
	}
}

func TestAnimatorStep(t *testing.T) {
	start := time.Unix(0, 0)
	a := NewAnimator()
	a.AnimatePosition(Vector(geom.Vec3{}, geom.Vec3{4, 0, 0}, start, time.Second, Linear))
	a.AnimateYaw(Scalar(0, 90, start, 500*time.Millisecond, Linear))

	f := a.Step(start.Add(500 * time.Millisecond))
	if f.Position == nil || math.Abs(f.Position.X()-2) > 1e-9 {
		t.Fatalf("position at half: %v", f.Position)
	}
	if f.Yaw == nil || *f.Yaw != 90 {
		t.Fatalf("yaw at end: %v", f.Yaw)
	}
	if f.Pitch != nil {
		t.Error("pitch was never animated")
	}
	if a.Active(TrackYaw) {
		t.Error("finished yaw track should be dropped")
	}
	if !a.Active(TrackPosition) {
		t.Error("position track should still be running")
	}

	a.CancelAll()
	if a.Busy() {
		t.Error("expected idle after CancelAll")
	}
	if !a.Step(start.Add(time.Second)).Empty() {
		t.Error("expected empty frame after cancel")
	}
}
