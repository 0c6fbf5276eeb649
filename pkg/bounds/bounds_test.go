package bounds

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/qmuntal/gltf"

	"github.com/teslashibe/go-museum/pkg/geom"
)

type spot string

func (s spot) Location() (geom.Vec3, error) { return geom.ParseVec3(string(s)) }

func near(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestComputeFromStops(t *testing.T) {
	tests := []struct {
		name    string
		stops   []spot
		padding float64
		floorY  float64
		want    Bounds
		ok      bool
	}{
		{
			name:    "pads min and max",
			stops:   []spot{"0 0 0", "5 0 5", "-3 0 2"},
			padding: 2,
			want:    Bounds{MinX: -5, MaxX: 7, MinZ: -2, MaxZ: 7},
			ok:      true,
		},
		{
			name:    "skips unparsable positions",
			stops:   []spot{"", "nope", "1 0 1"},
			padding: 1,
			floorY:  0.5,
			want:    Bounds{MinX: 0, MaxX: 2, MinZ: 0, MaxZ: 2, FloorY: 0.5},
			ok:      true,
		},
		{
			name:    "no usable position",
			stops:   []spot{"", "x y z"},
			padding: 1,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, ok := ComputeFromStops(tt.stops, tt.padding, tt.floorY)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && b != tt.want {
				t.Errorf("bounds = %v, want %v", b, tt.want)
			}
		})
	}

	t.Run("single stop without padding is widened", func(t *testing.T) {
		b, ok := ComputeFromStops([]spot{"3 0 3"}, 0, 0)
		if !ok {
			t.Fatal("expected bounds")
		}
		if !near(b.Width(), MinSpan) || !near(b.Center().X(), 3) {
			t.Errorf("bounds = %v, want width %g centred on x=3", b, MinSpan)
		}
	})
}

func TestApplyEdgeTweaks(t *testing.T) {
	base := Bounds{MinX: -10, MaxX: 10, MinZ: -10, MaxZ: 10}

	t.Run("positive pulls inward, negative pushes outward", func(t *testing.T) {
		got := ApplyEdgeTweaks(base, Tweaks{North: 1, South: 2, East: -1, West: 0.5})
		want := Bounds{MinX: -9.5, MaxX: 11, MinZ: -8, MaxZ: 9}
		if got != want {
			t.Errorf("got %v, want %v", got, want)
		}
	})

	t.Run("crossing edges collapse to min span at midpoint", func(t *testing.T) {
		got := ApplyEdgeTweaks(base, Tweaks{East: 15, West: 15})
		if got.MaxX <= got.MinX {
			t.Fatalf("inverted x axis: %v", got)
		}
		if !near(got.Width(), MinSpan) || !near((got.MinX+got.MaxX)/2, 0) {
			t.Errorf("x axis = [%g, %g], want width %g around 0", got.MinX, got.MaxX, MinSpan)
		}
		if got.MinZ != base.MinZ {
			t.Errorf("MinZ = %g, want untouched %g", got.MinZ, base.MinZ)
		}
	})
}

func TestClampProperty(t *testing.T) {
	r := rand.New(rand.NewSource(7))
	for i := 0; i < 500; i++ {
		b := Bounds{
			MinX:   r.Float64()*20 - 20,
			MinZ:   r.Float64()*20 - 20,
			FloorY: r.Float64() * 2,
		}
		b.MaxX = b.MinX + MinSpan + r.Float64()*30
		b.MaxZ = b.MinZ + MinSpan + r.Float64()*30
		p := geom.Vec3{r.Float64()*200 - 100, r.Float64()*200 - 100, r.Float64()*200 - 100}

		c := Clamp(p, b)
		if c.X() < b.MinX || c.X() > b.MaxX || c.Z() < b.MinZ || c.Z() > b.MaxZ {
			t.Fatalf("clamp(%v, %v) = %v escapes bounds", p, b, c)
		}
		if c.Y() != b.FloorY {
			t.Fatalf("clamp did not pin Y: %v", c)
		}
		if b.Contains(p) && (c.X() != p.X() || c.Z() != p.Z()) {
			t.Fatalf("clamp moved an inside point: %v -> %v", p, c)
		}
	}
}

func TestWalls(t *testing.T) {
	b := Bounds{MinX: -4, MaxX: 6, MinZ: -2, MaxZ: 2, FloorY: 0}
	walls := Walls(b, DefaultWallThickness, DefaultWallHeight)

	tests := []struct {
		i      int
		name   string
		center geom.Vec3
		size   geom.Vec3
	}{
		{0, "north", geom.Vec3{1, 1.5, 2}, geom.Vec3{10, 3, 0.2}},
		{3, "west", geom.Vec3{-4, 1.5, 0}, geom.Vec3{0.2, 3, 4}},
	}
	for _, tt := range tests {
		w := walls[tt.i]
		if w.Name != tt.name || w.Center != tt.center || w.Size != tt.size {
			t.Errorf("wall %d = %+v, want %s at %v size %v", tt.i, w, tt.name, tt.center, tt.size)
		}
	}
}

func TestFromDocument(t *testing.T) {
	doc := &gltf.Document{
		Accessors: []*gltf.Accessor{
			{Min: []float64{-1, 0, -2}, Max: []float64{1, 3, 2}},
		},
		Meshes: []*gltf.Mesh{
			{Primitives: []*gltf.Primitive{{Attributes: map[string]int{gltf.POSITION: 0}}}},
		},
		Nodes: []*gltf.Node{
			{Children: []int{1}, Translation: [3]float64{10, 0, 0}, Scale: [3]float64{2, 2, 2}},
			{Mesh: gltf.Index(0)},
		},
		Scenes: []*gltf.Scene{{Nodes: []int{0}}},
	}

	b, err := fromDocument(doc, 0.1)
	if err != nil {
		t.Fatal(err)
	}
	if want := (Bounds{MinX: 8, MaxX: 12, MinZ: -4, MaxZ: 4, FloorY: 0.1}); b != want {
		t.Errorf("bounds = %v, want %v", b, want)
	}

	if _, err := fromDocument(&gltf.Document{}, 0); !errors.Is(err, ErrNoGeometry) {
		t.Errorf("error = %v, want ErrNoGeometry", err)
	}
}
