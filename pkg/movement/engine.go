// Package movement integrates keyboard and joystick input into rig motion.
//
// The engine runs once per frame whatever the mode; it gates itself. When free
// movement is not permitted the frame's input is dropped. Otherwise the combined
// input is turned into a world-space delta along the camera's flattened forward and
// right axes, applied, clamped to the active bounds and written back to the pose
// store. Clamping that actually bites raises a rate-limited wall-hit notice.
package movement

import (
	"log/slog"
	"math"
	"time"

	"github.com/teslashibe/go-museum/internal/log"
	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/clock"
	"github.com/teslashibe/go-museum/pkg/geom"
	"github.com/teslashibe/go-museum/pkg/pose"
	"github.com/teslashibe/go-museum/pkg/scene"
)

// Gate reports whether free movement is currently permitted (Explore, no overlay).
type Gate interface {
	MovementAllowed() bool
}

// WallNotifier is told when movement was clamped at the bounds.
type WallNotifier interface {
	WallHit(at geom.Vec3)
}

// WallNotifierFunc adapts a function to WallNotifier.
type WallNotifierFunc func(at geom.Vec3)

// WallHit implements WallNotifier.
func (f WallNotifierFunc) WallHit(at geom.Vec3) { f(at) }

// Stats are engine counters for monitoring.
type Stats struct {
	Steps    uint64  `json:"steps"`
	Moves    uint64  `json:"moves"`
	Gated    uint64  `json:"gated"`
	WallHits uint64  `json:"wall_hits"`
	Speed    float64 `json:"speed"`
	Level    int     `json:"level"`
}

// Engine is the per-frame movement integrator.
type Engine struct {
	store   *pose.Store
	scene   scene.Binding
	gate    Gate
	running func() bool
	notify  WallNotifier
	clock   clock.Clock
	logger  *slog.Logger

	cfg   Config
	level int
	speed float64

	lastWallHit time.Time
	stats       Stats
}

// NewEngine creates an engine writing to store. tourRunning may be nil.
func NewEngine(store *pose.Store, binding scene.Binding, gate Gate, tourRunning func() bool, clk clock.Clock, opts ...Option) *Engine {
	cfg := DefaultConfig()
	for _, opt := range opts {
		opt(&cfg)
	}
	if cfg.Logger == nil {
		cfg.Logger = log.L()
	}
	if tourRunning == nil {
		tourRunning = func() bool { return false }
	}
	e := &Engine{
		store:   store,
		scene:   binding,
		gate:    gate,
		running: tourRunning,
		clock:   clk,
		logger:  cfg.Logger,
		cfg:     cfg,
	}
	e.SetSpeedLevel(cfg.SpeedLevel)
	return e
}

// SetWallNotifier sets the wall-hit listener.
func (e *Engine) SetWallNotifier(n WallNotifier) {
	e.notify = n
}

// SpeedForLevel maps a speed level (clamped to [1,6]) to units per second.
func SpeedForLevel(level int, unitsPerLevel float64) float64 {
	return float64(clampLevel(level)) * unitsPerLevel
}

func clampLevel(level int) int {
	if level < MinSpeedLevel {
		return MinSpeedLevel
	}
	if level > MaxSpeedLevel {
		return MaxSpeedLevel
	}
	return level
}

// SetSpeedLevel sets the speed from a visitor-facing level.
func (e *Engine) SetSpeedLevel(level int) {
	e.level = clampLevel(level)
	e.speed = SpeedForLevel(e.level, e.cfg.UnitsPerLevel)
}

// SpeedLevel returns the current level.
func (e *Engine) SpeedLevel() int {
	return e.level
}

// SetSpeed overrides the speed in units per second.
func (e *Engine) SetSpeed(unitsPerSecond float64) {
	if unitsPerSecond < 0 {
		unitsPerSecond = 0
	}
	e.speed = unitsPerSecond
}

// Speed returns the speed in units per second.
func (e *Engine) Speed() float64 {
	return e.speed
}

// Stats returns a copy of the counters.
func (e *Engine) Stats() Stats {
	s := e.stats
	s.Speed = e.speed
	s.Level = e.level
	return s
}

// allowed is the single gate shared by Step, SnapTurn and TeleportToPoint.
func (e *Engine) allowed() bool {
	return e.gate.MovementAllowed() && !e.running()
}

// Step integrates one frame of dt. It returns true if the rig moved.
func (e *Engine) Step(dt time.Duration) bool {
	e.stats.Steps++

	kx, ky := e.store.KeyboardVector()
	jx, jy := e.store.JoystickVector()
	x, y := kx+jx, ky+jy

	if !e.allowed() {
		if x != 0 || y != 0 {
			e.stats.Gated++
		}
		return false
	}
	if x == 0 && y == 0 || dt <= 0 {
		return false
	}

	forward, right := e.axes()
	delta := forward.Mul(y).Add(right.Mul(x))
	if l := delta.Len(); l > 1 {
		delta = delta.Mul(1 / l)
	}
	delta = delta.Mul(e.speed * dt.Seconds())

	cur := e.store.Pose().Position
	want := cur.Add(delta)
	b := e.store.Bounds()
	got := bounds.Clamp(want, b)

	if math.Abs(got.X()-want.X()) > e.cfg.Epsilon || math.Abs(got.Z()-want.Z()) > e.cfg.Epsilon {
		e.wallHit(got)
	}

	e.store.SetPose(&got, nil, nil)
	e.stats.Moves++
	return true
}

// axes returns the horizontal forward and right unit vectors of the camera.
func (e *Engine) axes() (forward, right geom.Vec3) {
	forward, ok := geom.Flatten(e.scene.Forward())
	if !ok {
		forward = geom.ForwardFromYaw(e.store.Pose().RigYaw)
	}
	right = forward.Cross(geom.Up).Normalize()
	return forward, right
}

func (e *Engine) wallHit(at geom.Vec3) {
	now := e.clock.Now()
	if !e.lastWallHit.IsZero() && now.Sub(e.lastWallHit) < e.cfg.WallHitInterval {
		return
	}
	e.lastWallHit = now
	e.stats.WallHits++
	e.logger.Debug("wall hit", "pos", geom.FormatVec3(at))
	if e.notify != nil {
		e.notify.WallHit(at)
	}
}

// SnapTurn rotates the rig by deg degrees (sign gives direction). Explore only.
func (e *Engine) SnapTurn(deg float64) bool {
	if !e.allowed() {
		return false
	}
	yaw := geom.NormalizeDegrees(e.store.Pose().RigYaw + deg)
	e.store.SetPose(nil, &yaw, nil)
	return true
}

// SnapDegrees returns the configured snap-turn step.
func (e *Engine) SnapDegrees() float64 {
	return e.cfg.SnapDegrees
}

// TeleportToPoint moves the rig to a clicked floor point, clamped, keeping Y on
// the floor. Explore only.
func (e *Engine) TeleportToPoint(x, z float64) bool {
	if !e.allowed() {
		return false
	}
	p := bounds.Clamp(geom.Vec3{x, 0, z}, e.store.Bounds())
	e.store.SetPose(&p, nil, nil)
	e.logger.Debug("floor teleport", "pos", geom.FormatVec3(p))
	return true
}
