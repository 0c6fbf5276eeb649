// Package bounds models the axis-aligned walkable rectangle that constrains the rig.
//
// Bounds are derived from the tour's stop positions (padded) or, when no stop has a
// usable position, from a fallback rectangle or the museum model itself. Hand-tuned
// per-edge tweaks pull individual walls in or push them out afterwards.
package bounds

import (
	"errors"
	"fmt"

	"github.com/teslashibe/go-museum/pkg/geom"
)

var (
	// ErrNoPositions is returned when no stop carries a parsable position.
	ErrNoPositions = errors.New("bounds: no usable stop positions")

	// ErrNoGeometry is returned when a model has no position data to measure.
	ErrNoGeometry = errors.New("bounds: model has no position accessors")
)

// MinSpan is the smallest allowed extent of either axis after adjustment.
const MinSpan = 0.5

// DefaultPadding is added on every edge around the stop positions.
const DefaultPadding = 2.0

// Bounds is an axis-aligned rectangle on the floor plane.
type Bounds struct {
	MinX   float64 `json:"min_x" mapstructure:"min_x"`
	MaxX   float64 `json:"max_x" mapstructure:"max_x"`
	MinZ   float64 `json:"min_z" mapstructure:"min_z"`
	MaxZ   float64 `json:"max_z" mapstructure:"max_z"`
	FloorY float64 `json:"floor_y" mapstructure:"floor_y"`
}

// Tweaks are per-edge inward offsets. A positive value pulls that wall towards the
// centre, a negative value pushes it outwards. North is max Z, east is max X.
type Tweaks struct {
	North float64 `json:"north" mapstructure:"north"`
	South float64 `json:"south" mapstructure:"south"`
	East  float64 `json:"east" mapstructure:"east"`
	West  float64 `json:"west" mapstructure:"west"`
}

// Locatable is anything with an optional world position, typically a tour stop.
type Locatable interface {
	Location() (geom.Vec3, error)
}

// Fallback returns the constant rectangle used before any stop list loads.
func Fallback() Bounds {
	return Bounds{MinX: -60, MaxX: 60, MinZ: -80, MaxZ: 80, FloorY: 0}
}

// String formats the rectangle for logs.
func (b Bounds) String() string {
	return fmt.Sprintf("x[%.2f, %.2f] z[%.2f, %.2f] y=%.2f", b.MinX, b.MaxX, b.MinZ, b.MaxZ, b.FloorY)
}

// Width is the X extent.
func (b Bounds) Width() float64 { return b.MaxX - b.MinX }

// Depth is the Z extent.
func (b Bounds) Depth() float64 { return b.MaxZ - b.MinZ }

// Center is the midpoint on the floor.
func (b Bounds) Center() geom.Vec3 {
	return geom.Vec3{(b.MinX + b.MaxX) / 2, b.FloorY, (b.MinZ + b.MaxZ) / 2}
}

// Contains reports whether p lies inside the rectangle (Y ignored).
func (b Bounds) Contains(p geom.Vec3) bool {
	return p.X() >= b.MinX && p.X() <= b.MaxX && p.Z() >= b.MinZ && p.Z() <= b.MaxZ
}

// ComputeFromStops scans every stop with a parsable position, takes min/max X and Z
// and expands by padding on every edge. ok is false when no stop has a usable
// position; callers keep their previous bounds in that case.
func ComputeFromStops[S Locatable](stops []S, padding, floorY float64) (Bounds, bool) {
	var (
		b     Bounds
		found bool
	)
	for _, s := range stops {
		p, err := s.Location()
		if err != nil {
			continue
		}
		if !found {
			b = Bounds{MinX: p.X(), MaxX: p.X(), MinZ: p.Z(), MaxZ: p.Z()}
			found = true
			continue
		}
		b.MinX = min(b.MinX, p.X())
		b.MaxX = max(b.MaxX, p.X())
		b.MinZ = min(b.MinZ, p.Z())
		b.MaxZ = max(b.MaxZ, p.Z())
	}
	if !found {
		return Bounds{}, false
	}
	b.MinX -= padding
	b.MaxX += padding
	b.MinZ -= padding
	b.MaxZ += padding
	b.FloorY = floorY
	return b.Validate(), true
}

// ApplyEdgeTweaks pulls or pushes each wall by its tweak and re-validates.
func ApplyEdgeTweaks(b Bounds, t Tweaks) Bounds {
	b.MaxZ -= t.North
	b.MinZ += t.South
	b.MaxX -= t.East
	b.MinX += t.West
	return b.Validate()
}

// Validate guarantees max > min on both axes, widening a degenerate or inverted
// axis to MinSpan around its midpoint.
func (b Bounds) Validate() Bounds {
	b.MinX, b.MaxX = widen(b.MinX, b.MaxX)
	b.MinZ, b.MaxZ = widen(b.MinZ, b.MaxZ)
	return b
}

func widen(lo, hi float64) (float64, float64) {
	if hi-lo >= MinSpan {
		return lo, hi
	}
	mid := (lo + hi) / 2
	return mid - MinSpan/2, mid + MinSpan/2
}

// Clamp restricts X and Z to the rectangle and pins Y to the floor.
func Clamp(p geom.Vec3, b Bounds) geom.Vec3 {
	return geom.Vec3{
		geom.Clamp(p.X(), b.MinX, b.MaxX),
		b.FloorY,
		geom.Clamp(p.Z(), b.MinZ, b.MaxZ),
	}
}
