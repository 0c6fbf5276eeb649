// Package geom holds the small amount of 3D math the museum core needs.
// Vectors are mgl64 values; angles on the wire are degrees.
package geom

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/go-gl/mathgl/mgl64"
)

// ErrInvalidVec3 is returned when a "x y z" string cannot be parsed.
var ErrInvalidVec3 = errors.New("geom: invalid vec3")

// Vec3 is a world-space vector (x right, y up, z towards the viewer).
type Vec3 = mgl64.Vec3

// Up is the world up axis.
var Up = Vec3{0, 1, 0}

// ParseVec3 parses "x y z" (spaces and/or commas) into a vector.
func ParseVec3(s string) (Vec3, error) {
	fields := strings.FieldsFunc(strings.TrimSpace(s), func(r rune) bool {
		return r == ' ' || r == ',' || r == '\t'
	})
	if len(fields) != 3 {
		return Vec3{}, fmt.Errorf("%w: %q", ErrInvalidVec3, s)
	}
	var v Vec3
	for i, f := range fields {
		n, err := strconv.ParseFloat(f, 64)
		if err != nil || math.IsNaN(n) || math.IsInf(n, 0) {
			return Vec3{}, fmt.Errorf("%w: %q", ErrInvalidVec3, s)
		}
		v[i] = n
	}
	return v, nil
}

// FormatVec3 renders v the way stop files store positions.
func FormatVec3(v Vec3) string {
	return fmt.Sprintf("%.3f %.3f %.3f", v.X(), v.Y(), v.Z())
}

// Flatten zeroes the Y component and renormalizes. ok is false for vertical or zero input.
func Flatten(v Vec3) (Vec3, bool) {
	flat := Vec3{v.X(), 0, v.Z()}
	if flat.Len() < 1e-9 {
		return Vec3{}, false
	}
	return flat.Normalize(), true
}

// ForwardFromYaw returns the horizontal look direction for a rig yaw in degrees.
// Yaw 0 faces +Z and yaw 90 faces +X, which keeps it the inverse of YawTowards.
func ForwardFromYaw(yawDeg float64) Vec3 {
	r := mgl64.DegToRad(yawDeg)
	return Vec3{math.Sin(r), 0, math.Cos(r)}
}

// Direction returns the unit look vector for a yaw and pitch in degrees (pitch positive up).
func Direction(yawDeg, pitchDeg float64) Vec3 {
	y := mgl64.DegToRad(yawDeg)
	p := mgl64.DegToRad(pitchDeg)
	return Vec3{math.Sin(y) * math.Cos(p), math.Sin(p), math.Cos(y) * math.Cos(p)}
}

// YawTowards returns atan2(dx, dz) in degrees from `from` to `to`, horizontal only.
func YawTowards(from, to Vec3) float64 {
	return mgl64.RadToDeg(math.Atan2(to.X()-from.X(), to.Z()-from.Z()))
}

// PitchTowards returns atan2(dy, horizontal distance) in degrees from `from` to `to`.
func PitchTowards(from, to Vec3) float64 {
	dx := to.X() - from.X()
	dz := to.Z() - from.Z()
	return mgl64.RadToDeg(math.Atan2(to.Y()-from.Y(), math.Hypot(dx, dz)))
}

// NormalizeDegrees wraps an angle into (-180, 180].
func NormalizeDegrees(deg float64) float64 {
	d := math.Mod(deg, 360)
	if d > 180 {
		d -= 360
	} else if d <= -180 {
		d += 360
	}
	return d
}

// ShortestYaw returns the target angle equivalent to `to` that lies closest to `from`,
// so that interpolating from→result never spins the long way round.
func ShortestYaw(from, to float64) float64 {
	return from + NormalizeDegrees(to-from)
}

// Clamp restricts v to [lo, hi].
func Clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
