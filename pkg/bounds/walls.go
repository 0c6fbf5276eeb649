package bounds

import "github.com/teslashibe/go-museum/pkg/geom"

// Default marker dimensions.
const (
	DefaultWallThickness = 0.2
	DefaultWallHeight    = 3.0
)

// Wall is one boundary marker: a box centred on a wall's midpoint.
type Wall struct {
	Name   string    `json:"name"`
	Center geom.Vec3 `json:"center"`
	Size   geom.Vec3 `json:"size"`
}

// Walls returns the four markers for b, each spanning the adjacent axis.
// Order: north, south, east, west.
func Walls(b Bounds, thickness, height float64) [4]Wall {
	c := b.Center()
	y := b.FloorY + height/2
	return [4]Wall{
		{Name: "north", Center: geom.Vec3{c.X(), y, b.MaxZ}, Size: geom.Vec3{b.Width(), height, thickness}},
		{Name: "south", Center: geom.Vec3{c.X(), y, b.MinZ}, Size: geom.Vec3{b.Width(), height, thickness}},
		{Name: "east", Center: geom.Vec3{b.MaxX, y, c.Z()}, Size: geom.Vec3{thickness, height, b.Depth()}},
		{Name: "west", Center: geom.Vec3{b.MinX, y, c.Z()}, Size: geom.Vec3{thickness, height, b.Depth()}},
	}
}
