package scene

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/teslashibe/go-museum/pkg/bounds"
	"github.com/teslashibe/go-museum/pkg/geom"
)

var _ Binding = (*Memory)(nil)

func TestMemoryCameraPosition(t *testing.T) {
	m := NewMemory(geom.Vec3{1, 0, 2})
	assert.Equal(t, geom.Vec3{1, DefaultEyeHeight, 2}, m.CameraPosition())

	m.SetRigPosition(geom.Vec3{3, 0, 4})
	assert.Equal(t, geom.Vec3{3, 0, 4}, m.RigPosition())
}

func TestMemoryForwardAddsLook(t *testing.T) {
	m := NewMemory(geom.Vec3{})
	assert.InDeltaSlice(t, []float64{0, 0, 1}, forward(m), 1e-9)

	m.SetRigYaw(90)
	assert.InDeltaSlice(t, []float64{1, 0, 0}, forward(m), 1e-9)

	m.Look(-90, 0)
	assert.InDeltaSlice(t, []float64{0, 0, 1}, forward(m), 1e-9)

	m.ResetLook()
	assert.InDeltaSlice(t, []float64{1, 0, 0}, forward(m), 1e-9)
}

func TestMemoryEntities(t *testing.T) {
	m := NewMemory(geom.Vec3{})
	_, ok := m.Entity("#mona")
	assert.False(t, ok)

	m.PutEntity("#mona", geom.Vec3{0, 1.5, -3})
	p, ok := m.Entity("#mona")
	assert.True(t, ok)
	assert.Equal(t, geom.Vec3{0, 1.5, -3}, p)
}

func TestMemoryWallsCountsRebuilds(t *testing.T) {
	m := NewMemory(geom.Vec3{})
	b := bounds.Bounds{MinX: -1, MaxX: 1, MinZ: -1, MaxZ: 1}
	m.SetWalls(bounds.Walls(b, bounds.DefaultWallThickness, bounds.DefaultWallHeight))
	m.SetWalls(bounds.Walls(b, bounds.DefaultWallThickness, bounds.DefaultWallHeight))

	walls, n := m.Walls()
	assert.Equal(t, 2, n)
	assert.Equal(t, "north", walls[0].Name)
}

func TestMemoryFreeLook(t *testing.T) {
	m := NewMemory(geom.Vec3{})
	assert.False(t, m.FreeLook())
	m.SetFreeLook(true)
	assert.True(t, m.FreeLook())
}

func forward(m *Memory) []float64 {
	f := m.Forward()
	return f[:]
}
