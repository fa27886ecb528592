package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshmerge/pkg/geom"
)

// Welder accumulates the shared vertex buffers of a merge and the map from
// quantized position to shared index. Entries are only ever added: the first
// vertex seen at a position owns that index and its normal.
//
// A Welder is not safe for concurrent use. The order of Weld calls decides which
// normal survives at a shared position.
type Welder struct {
	quant geom.Quantizer
	index map[geom.Key]int
	out   Mesh
}

// NewWelder returns an empty welder quantizing at precision decimals.
func NewWelder(precision int) (*Welder, error) {
	q, err := geom.NewQuantizer(precision)
	if err != nil {
		return nil, err
	}
	return &Welder{
		quant: q,
		index: make(map[geom.Key]int),
	}, nil
}

// Precision returns the decimal precision of the position keys.
func (w *Welder) Precision() int {
	return w.quant.Precision()
}

// Keys returns the number of distinct quantized positions seen so far.
func (w *Welder) Keys() int {
	return len(w.index)
}

// Len returns the size of the shared vertex buffer.
func (w *Welder) Len() int {
	return len(w.out.Positions)
}

// Weld merges one object's vertices into the shared buffers and returns, for every
// local vertex i, the shared index it now lives at. New positions are stored
// unrounded. A vertex landing on an existing key reuses that index and its normal
// is dropped.
//
// Weld either accepts the whole object or leaves the welder untouched.
func (w *Welder) Weld(positions, normals []mgl64.Vec3) ([]int, error) {
	if len(positions) != len(normals) {
		return nil, fmt.Errorf("%w: %d positions, %d normals", ErrCountMismatch, len(positions), len(normals))
	}

	keys := make([]geom.Key, len(positions))
	for i, p := range positions {
		k, err := w.quant.Key(p)
		if err != nil {
			return nil, fmt.Errorf("vertex %d: %w", i, err)
		}
		keys[i] = k
	}

	remap := make([]int, len(positions))
	for i, k := range keys {
		idx, ok := w.index[k]
		if !ok {
			idx = len(w.out.Positions)
			w.index[k] = idx
			w.out.Positions = append(w.out.Positions, positions[i])
			w.out.Normals = append(w.out.Normals, normals[i])
		}
		remap[i] = idx
	}
	return remap, nil
}

// AddFaces appends faces that already reference the shared index space.
func (w *Welder) AddFaces(faces []Face) {
	w.out.Faces = append(w.out.Faces, faces...)
}

// Mesh returns the merged geometry. The welder must not be used afterwards.
func (w *Welder) Mesh() *Mesh {
	m := w.out
	if m.Positions == nil {
		m.Positions = []mgl64.Vec3{}
		m.Normals = []mgl64.Vec3{}
	}
	if m.Faces == nil {
		m.Faces = []Face{}
	}
	return &m
}
