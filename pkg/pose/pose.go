// Package pose owns the authoritative rig position and orientation.
//
// The Store is the only place the pose lives. The movement engine (free exploration)
// and the tour sequencer (guided tour) both write through it, the mode arbiter makes
// sure they never write in the same mode, and every write is pushed to the scene
// binding so the renderer mirrors it.
package pose

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/clock"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/scene"
	"github.com/teslashibe/go-museum/pkg/tween"
)

// Pose is the rig position plus rig yaw and camera pitch in degrees.
type Pose struct {
	Position    geom.Vec3 `json:"position"`
	RigYaw      float64   `json:"rig_yaw"`
	CameraPitch float64   `json:"camera_pitch"`
}

// String formats the pose in the form curators paste into stop files.
func (p Pose) String() string {
	return fmt.Sprintf("POS: %q YAW: %.2f PITCH: %.2f", geom.FormatVec3(p.Position), p.RigYaw, p.CameraPitch)
}

// Direction is one held movement key.
type Direction int

const (
	Forward Direction = iota
	Back
	Left
	Right
)

// Store holds the pose, the captured spawn pose, in-flight animations and the
// accumulated keyboard/joystick input. It is owned by a single goroutine.
type Store struct {
	scene  scene.Binding
	clock  clock.Clock
	logger *slog.Logger

	pose   Pose
	bounds bounds.Bounds

	spawn    Pose
	hasSpawn bool

	anim *tween.Animator

	keys    [4]bool
	joyX    float64
	joyY    float64
	joyGrab bool
}

// Option configures a Store.
type Option func(*Store)

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) Option {
	return func(s *Store) {
		s.logger = l
	}
}

// NewStore creates a store mirroring binding, constrained to b.
func NewStore(binding scene.Binding, clk clock.Clock, b bounds.Bounds, opts ...Option) *Store {
	s := &Store{
		scene:  binding,
		clock:  clk,
		bounds: b,
		anim:   tween.NewAnimator(),
		logger: log.L(),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.pose = Pose{
		Position:    binding.RigPosition(),
		RigYaw:      binding.RigYaw(),
		CameraPitch: binding.CameraPitch(),
	}
	return s
}

// Pose returns the current pose.
func (s *Store) Pose() Pose {
	return s.pose
}

// Bounds returns the active bounds.
func (s *Store) Bounds() bounds.Bounds {
	return s.bounds
}

// SetBounds replaces the active bounds, rebuilds the wall markers and re-pins the
// rig to the new floor inside the new rectangle.
func (s *Store) SetBounds(b bounds.Bounds) {
	s.bounds = b
	s.scene.SetWalls(bounds.Walls(b, bounds.DefaultWallThickness, bounds.DefaultWallHeight))
	clamped := bounds.Clamp(s.pose.Position, b)
	s.SetPose(&clamped, nil, nil)
	s.logger.Debug("bounds updated", "bounds", b.String())
}

// CaptureSpawnPose records the scene's current rig/camera pose as the reset target.
// Only the first call has an effect; it returns true if this call captured it.
func (s *Store) CaptureSpawnPose() bool {
	if s.hasSpawn {
		return false
	}
	s.spawn = Pose{
		Position:    s.scene.RigPosition(),
		RigYaw:      s.scene.RigYaw(),
		CameraPitch: s.scene.CameraPitch(),
	}
	s.hasSpawn = true
	s.logger.Debug("spawn pose captured", "pose", s.spawn.String())
	return true
}

// SpawnPose returns the captured spawn pose.
func (s *Store) SpawnPose() (Pose, bool) {
	return s.spawn, s.hasSpawn
}

// ResetToSpawn force-writes the spawn pose, clamped into the active bounds,
// drops animations, zeroes accumulated input and the look controller. Calling it again in the next frame is harmless
// and defeats renderers that apply transform overrides one frame late.
func (s *Store) ResetToSpawn() {
	s.anim.CancelAll()
	s.ClearInput()
	s.scene.ResetLook()
	if !s.hasSpawn {
		s.logger.Warn("reset requested before spawn pose capture")
		return
	}
	p := s.spawn
	pos := bounds.Clamp(p.Position, s.bounds)
	s.SetPose(&pos, &p.RigYaw, &p.CameraPitch)
}

// SetPose is a partial update: nil fields are left unchanged. Y is always pinned
// to the active floor.
func (s *Store) SetPose(pos *geom.Vec3, yaw, pitch *float64) {
	if pos != nil {
		p := geom.Vec3{pos.X(), s.bounds.FloorY, pos.Z()}
		s.pose.Position = p
		s.scene.SetRigPosition(p)
	}
	if yaw != nil {
		s.pose.RigYaw = *yaw
		s.scene.SetRigYaw(*yaw)
	}
	if pitch != nil {
		s.pose.CameraPitch = *pitch
		s.scene.SetCameraPitch(*pitch)
	}
}

// AnimatePosition eases the rig to `to` over d.
func (s *Store) AnimatePosition(to geom.Vec3, d time.Duration, ease tween.Easing) {
	to = geom.Vec3{to.X(), s.bounds.FloorY, to.Z()}
	s.anim.AnimatePosition(tween.Vector(s.pose.Position, to, s.clock.Now(), d, ease))
}

// AnimateYaw eases the rig yaw to `to` over d, turning the short way round.
func (s *Store) AnimateYaw(to float64, d time.Duration, ease tween.Easing) {
	target := geom.ShortestYaw(s.pose.RigYaw, to)
	s.anim.AnimateYaw(tween.Scalar(s.pose.RigYaw, target, s.clock.Now(), d, ease))
}

// AnimatePitch eases the camera pitch to `to` over d. Pitch is a camera-local
// channel, so animating it never disturbs the rig's world orientation.
func (s *Store) AnimatePitch(to float64, d time.Duration, ease tween.Easing) {
	s.anim.AnimatePitch(tween.Scalar(s.pose.CameraPitch, to, s.clock.Now(), d, ease))
}

// CancelAnimations freezes every channel at its last sampled value.
func (s *Store) CancelAnimations() {
	s.anim.CancelAll()
}

// Animating reports whether any channel is mid-tween.
func (s *Store) Animating() bool {
	return s.anim.Busy()
}

// Advance samples in-flight animations at now and writes the result.
func (s *Store) Advance(now time.Time) {
	f := s.anim.Step(now)
	if f.Empty() {
		return
	}
	s.SetPose(f.Position, f.Yaw, f.Pitch)
}

// Sync samples in-flight animations at the store clock's current time.
func (s *Store) Sync() {
	s.Advance(s.clock.Now())
}

// SetKey records a held or released movement key.
func (s *Store) SetKey(d Direction, down bool) {
	if d < Forward || d > Right {
		return
	}
	s.keys[d] = down
}

// SetJoystick records the virtual joystick sample. The vector is clamped to the
// unit disk and only counts while engaged.
func (s *Store) SetJoystick(x, y float64, engaged bool) {
	if !engaged {
		s.joyX, s.joyY, s.joyGrab = 0, 0, false
		return
	}
	x = geom.Clamp(x, -1, 1)
	y = geom.Clamp(y, -1, 1)
	if l := math.Hypot(x, y); l > 1 {
		x, y = x/l, y/l
	}
	s.joyX, s.joyY, s.joyGrab = x, y, true
}

// ClearInput releases every key and the joystick.
func (s *Store) ClearInput() {
	s.keys = [4]bool{}
	s.joyX, s.joyY, s.joyGrab = 0, 0, false
}

// KeyboardVector returns the held-key vector (x right, y forward), normalized to
// unit length when diagonal so diagonals are not faster.
func (s *Store) KeyboardVector() (x, y float64) {
	if s.keys[Right] {
		x++
	}
	if s.keys[Left] {
		x--
	}
	if s.keys[Forward] {
		y++
	}
	if s.keys[Back] {
		y--
	}
	if l := math.Hypot(x, y); l > 1 {
		x, y = x/l, y/l
	}
	return x, y
}

// JoystickVector returns the joystick sample, zero unless engaged.
func (s *Store) JoystickVector() (x, y float64) {
	if !s.joyGrab {
		return 0, 0
	}
	return s.joyX, s.joyY
}

// HasInput reports whether any key or the joystick is active.
func (s *Store) HasInput() bool {
	return s.keys != [4]bool{} || s.joyGrab
}
