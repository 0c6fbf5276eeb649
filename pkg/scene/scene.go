// Package scene defines the narrow seam between the navigation core and whatever
// renders the museum. The core never touches renderer internals; an adapter over the
// real engine (or the browser bridge in pkg/web) implements Binding.
package scene

import (
	"sync"

	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/geom"
)

// DefaultEyeHeight is the camera height above the rig origin.
const DefaultEyeHeight = 1.6

// Binding is what the core needs from the rendered scene. Angles are degrees.
type Binding interface {
	RigPosition() geom.Vec3
	SetRigPosition(p geom.Vec3)

	RigYaw() float64
	SetRigYaw(deg float64)

	CameraPitch() float64
	SetCameraPitch(deg float64)

	// CameraPosition is the camera's world position (rig plus eye offset).
	CameraPosition() geom.Vec3

	// Forward is the camera's world look direction, including free-look yaw.
	Forward() geom.Vec3

	FreeLook() bool
	SetFreeLook(enabled bool)

	// ResetLook zeroes the look controller's internal yaw/pitch accumulators.
	ResetLook()

	// Entity resolves a look-at target reference to its world position.
	Entity(ref string) (geom.Vec3, bool)

	// SetWalls rebuilds the four boundary markers.
	SetWalls(walls [4]bounds.Wall)
}

// Memory is an in-process Binding. It backs headless sessions and tests, and the
// browser bridge embeds it as the last known scene state.
type Memory struct {
	mu sync.RWMutex

	position  geom.Vec3
	yaw       float64
	pitch     float64
	lookYaw   float64
	lookPitch float64
	freeLook  bool
	eye       float64
	entities  map[string]geom.Vec3
	walls     [4]bounds.Wall
	wallsSet  int
}

// NewMemory creates a binding with the rig at p, facing yaw 0.
func NewMemory(p geom.Vec3) *Memory {
	return &Memory{
		position: p,
		eye:      DefaultEyeHeight,
		entities: make(map[string]geom.Vec3),
	}
}

// RigPosition implements Binding.
func (m *Memory) RigPosition() geom.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position
}

// SetRigPosition implements Binding.
func (m *Memory) SetRigPosition(p geom.Vec3) {
	m.mu.Lock()
	m.position = p
	m.mu.Unlock()
}

// RigYaw implements Binding.
func (m *Memory) RigYaw() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.yaw
}

// SetRigYaw implements Binding.
func (m *Memory) SetRigYaw(deg float64) {
	m.mu.Lock()
	m.yaw = deg
	m.mu.Unlock()
}

// CameraPitch implements Binding.
func (m *Memory) CameraPitch() float64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.pitch
}

// SetCameraPitch implements Binding.
func (m *Memory) SetCameraPitch(deg float64) {
	m.mu.Lock()
	m.pitch = deg
	m.mu.Unlock()
}

// CameraPosition implements Binding.
func (m *Memory) CameraPosition() geom.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.position.Add(geom.Vec3{0, m.eye, 0})
}

// Forward implements Binding.
func (m *Memory) Forward() geom.Vec3 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return geom.Direction(m.yaw+m.lookYaw, m.pitch+m.lookPitch)
}

// Look records free-look input on top of the rig/camera orientation, as a
// renderer's look controller would.
func (m *Memory) Look(yawDeg, pitchDeg float64) {
	m.mu.Lock()
	m.lookYaw = yawDeg
	m.lookPitch = pitchDeg
	m.mu.Unlock()
}

// FreeLook implements Binding.
func (m *Memory) FreeLook() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.freeLook
}

// SetFreeLook implements Binding.
func (m *Memory) SetFreeLook(enabled bool) {
	m.mu.Lock()
	m.freeLook = enabled
	m.mu.Unlock()
}

// ResetLook implements Binding.
func (m *Memory) ResetLook() {
	m.mu.Lock()
	m.lookYaw, m.lookPitch = 0, 0
	m.mu.Unlock()
}

// PutEntity registers a look-at target.
func (m *Memory) PutEntity(ref string, p geom.Vec3) {
	m.mu.Lock()
	m.entities[ref] = p
	m.mu.Unlock()
}

// Entity implements Binding.
func (m *Memory) Entity(ref string) (geom.Vec3, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	p, ok := m.entities[ref]
	return p, ok
}

// SetWalls implements Binding.
func (m *Memory) SetWalls(walls [4]bounds.Wall) {
	m.mu.Lock()
	m.walls = walls
	m.wallsSet++
	m.mu.Unlock()
}

// Walls returns the markers last set and how many times they were rebuilt.
func (m *Memory) Walls() ([4]bounds.Wall, int) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.walls, m.wallsSet
}
