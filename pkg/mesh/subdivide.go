package mesh

import "github.com/go-gl/mathgl/mgl64"

// Subdivide splits every triangle into four through its edge midpoints, passes
// times. Midpoints are shared by faces that share an edge, original vertices keep
// their indices, and winding is preserved. Normals are recomputed from the refined
// faces. Zero or negative passes return a copy of m.
func Subdivide(m *Mesh, passes int) (*Mesh, error) {
	out := m.Clone()
	for i := 0; i < passes; i++ {
		next, err := subdivideOnce(out)
		if err != nil {
			return nil, err
		}
		out = next
	}
	return out, nil
}

type edge [2]int

func makeEdge(a, b int) edge {
	if a > b {
		a, b = b, a
	}
	return edge{a, b}
}

func subdivideOnce(m *Mesh) (*Mesh, error) {
	n := len(m.Positions)
	for i, f := range m.Faces {
		for c, idx := range f {
			if idx < 0 || idx >= n {
				return nil, &IndexError{Face: i, Corner: c, Index: idx, Vertices: n}
			}
		}
	}

	positions := append(make([]mgl64.Vec3, 0, n+len(m.Faces)*3/2), m.Positions...)
	mids := make(map[edge]int, len(m.Faces)*3/2)
	midpoint := func(a, b int) int {
		e := makeEdge(a, b)
		if idx, ok := mids[e]; ok {
			return idx
		}
		idx := len(positions)
		positions = append(positions, positions[a].Add(positions[b]).Mul(0.5))
		mids[e] = idx
		return idx
	}

	faces := make([]Face, 0, len(m.Faces)*4)
	for _, f := range m.Faces {
		ab := midpoint(f[0], f[1])
		bc := midpoint(f[1], f[2])
		ca := midpoint(f[2], f[0])
		faces = append(faces,
			Face{f[0], ab, ca},
			Face{ab, f[1], bc},
			Face{ca, bc, f[2]},
			Face{ab, bc, ca},
		)
	}

	return &Mesh{
		Positions: positions,
		Normals:   ComputeNormals(positions, faces),
		Faces:     faces,
	}, nil
}
