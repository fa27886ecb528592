// Package mesh provides triangle mesh buffers and the operations that merge
// several placed meshes into one welded mesh.
package mesh

import (
	"errors"
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshmerge/pkg/geom"
)

// Validation errors.
var (
	ErrCountMismatch   = errors.New("position and normal counts differ")
	ErrFaceIndex       = errors.New("face index out of range")
	ErrDuplicateVertex = errors.New("duplicate vertex position")
)

// Face is a triangle as three indices into the vertex buffers.
// Index order encodes winding.
type Face [3]int

// Mesh holds indexed triangle geometry. Positions and Normals are paired by index.
type Mesh struct {
	Positions []mgl64.Vec3
	Normals   []mgl64.Vec3
	Faces     []Face
}

// VertexCount returns the number of vertices.
func (m *Mesh) VertexCount() int {
	return len(m.Positions)
}

// Empty reports whether the mesh has no vertices and no faces.
func (m *Mesh) Empty() bool {
	return len(m.Positions) == 0 && len(m.Faces) == 0
}

// Clone returns a deep copy of the mesh.
func (m *Mesh) Clone() *Mesh {
	return &Mesh{
		Positions: append([]mgl64.Vec3(nil), m.Positions...),
		Normals:   append([]mgl64.Vec3(nil), m.Normals...),
		Faces:     append([]Face(nil), m.Faces...),
	}
}

// Bounds returns the axis-aligned bounding box of all positions.
func (m *Mesh) Bounds() geom.Box {
	b := geom.EmptyBox()
	for _, p := range m.Positions {
		b = b.Extend(p)
	}
	return b
}

// Validate checks the merged-mesh invariants: one normal per position, every face
// index inside the vertex buffer, and no two vertices sharing a quantized position.
// A negative precision skips the duplicate check.
func (m *Mesh) Validate(precision int) error {
	if len(m.Positions) != len(m.Normals) {
		return fmt.Errorf("%w: %d positions, %d normals", ErrCountMismatch, len(m.Positions), len(m.Normals))
	}

	n := len(m.Positions)
	for i, f := range m.Faces {
		for c, idx := range f {
			if idx < 0 || idx >= n {
				return fmt.Errorf("%w: face %d corner %d references %d of %d vertices", ErrFaceIndex, i, c, idx, n)
			}
		}
	}

	if precision < 0 {
		return nil
	}
	q, err := geom.NewQuantizer(precision)
	if err != nil {
		return err
	}
	seen := make(map[geom.Key]int, n)
	for i, p := range m.Positions {
		k, err := q.Key(p)
		if err != nil {
			return fmt.Errorf("vertex %d: %w", i, err)
		}
		if j, ok := seen[k]; ok {
			return fmt.Errorf("%w: vertices %d and %d at %v", ErrDuplicateVertex, j, i, q.Round(p))
		}
		seen[k] = i
	}
	return nil
}
