package bounds

import (
	"fmt"

	"github.com/qmuntal/gltf"
)

// FromGLTF measures the floor footprint of a glTF/GLB model from the POSITION
// accessor min/max of every mesh primitive. Node translation and scale are applied
// down the hierarchy; rotations are ignored, which over-approximates rotated rooms
// only when they are not axis-aligned.
func FromGLTF(path string, floorY float64) (Bounds, error) {
	doc, err := gltf.Open(path)
	if err != nil {
		return Bounds{}, fmt.Errorf("bounds: open model %s: %w", path, err)
	}
	return fromDocument(doc, floorY)
}

type nodeXform struct {
	offset [3]float64
	scale  [3]float64
}

func fromDocument(doc *gltf.Document, floorY float64) (Bounds, error) {
	m := &measure{doc: doc}

	roots := rootNodes(doc)
	for _, idx := range roots {
		m.visit(idx, nodeXform{scale: [3]float64{1, 1, 1}}, 0)
	}
	// Meshes that no node references still count, untransformed.
	if !m.found {
		for i := range doc.Meshes {
			m.addMesh(i, nodeXform{scale: [3]float64{1, 1, 1}})
		}
	}
	if !m.found {
		return Bounds{}, ErrNoGeometry
	}
	m.b.FloorY = floorY
	return m.b.Validate(), nil
}

func rootNodes(doc *gltf.Document) []int {
	if len(doc.Scenes) > 0 {
		scene := 0
		if doc.Scene != nil {
			scene = *doc.Scene
		}
		if scene < len(doc.Scenes) {
			return doc.Scenes[scene].Nodes
		}
	}
	roots := make([]int, 0, len(doc.Nodes))
	for i := range doc.Nodes {
		roots = append(roots, i)
	}
	return roots
}

type measure struct {
	doc   *gltf.Document
	b     Bounds
	found bool
}

// maxDepth guards against cyclic node graphs in malformed files.
const maxDepth = 64

func (m *measure) visit(idx int, parent nodeXform, depth int) {
	if idx < 0 || idx >= len(m.doc.Nodes) || depth > maxDepth {
		return
	}
	node := m.doc.Nodes[idx]

	scale := node.Scale
	if scale == [3]float64{} {
		scale = [3]float64{1, 1, 1}
	}
	x := nodeXform{}
	for i := 0; i < 3; i++ {
		x.offset[i] = parent.offset[i] + parent.scale[i]*node.Translation[i]
		x.scale[i] = parent.scale[i] * scale[i]
	}

	if node.Mesh != nil {
		m.addMesh(*node.Mesh, x)
	}
	for _, child := range node.Children {
		m.visit(child, x, depth+1)
	}
}

func (m *measure) addMesh(meshIdx int, x nodeXform) {
	if meshIdx < 0 || meshIdx >= len(m.doc.Meshes) {
		return
	}
	for _, prim := range m.doc.Meshes[meshIdx].Primitives {
		accIdx, ok := prim.Attributes[gltf.POSITION]
		if !ok || accIdx < 0 || accIdx >= len(m.doc.Accessors) {
			continue
		}
		acc := m.doc.Accessors[accIdx]
		if len(acc.Min) < 3 || len(acc.Max) < 3 {
			continue
		}
		x0 := x.offset[0] + x.scale[0]*acc.Min[0]
		x1 := x.offset[0] + x.scale[0]*acc.Max[0]
		z0 := x.offset[2] + x.scale[2]*acc.Min[2]
		z1 := x.offset[2] + x.scale[2]*acc.Max[2]
		m.add(min(x0, x1), max(x0, x1), min(z0, z1), max(z0, z1))
	}
}

func (m *measure) add(minX, maxX, minZ, maxZ float64) {
	if !m.found {
		m.b = Bounds{MinX: minX, MaxX: maxX, MinZ: minZ, MaxZ: maxZ}
		m.found = true
		return
	}
	m.b.MinX = min(m.b.MinX, minX)
	m.b.MaxX = max(m.b.MaxX, maxX)
	m.b.MinZ = min(m.b.MinZ, minZ)
	m.b.MaxZ = max(m.b.MaxZ, maxZ)
}
