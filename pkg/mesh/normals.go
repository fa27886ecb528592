package mesh

import "github.com/go-gl/mathgl/mgl64"

// ComputeNormals returns area-weighted vertex normals: each face adds its
// unnormalized cross product to its three corners. Vertices touched by no face, or
// only by degenerate faces, get a zero normal. Faces with out-of-range indices are
// skipped.
func ComputeNormals(positions []mgl64.Vec3, faces []Face) []mgl64.Vec3 {
	normals := make([]mgl64.Vec3, len(positions))
	n := len(positions)
	for _, f := range faces {
		if !f.within(n) {
			continue
		}
		a, b, c := positions[f[0]], positions[f[1]], positions[f[2]]
		cross := b.Sub(a).Cross(c.Sub(a))
		for _, idx := range f {
			normals[idx] = normals[idx].Add(cross)
		}
	}

	for i, v := range normals {
		if l := v.Len(); l > 0 {
			normals[i] = v.Mul(1 / l)
		}
	}
	return normals
}

// FaceNormal returns the unit normal of a triangle, or zero if it is degenerate.
func FaceNormal(a, b, c mgl64.Vec3) mgl64.Vec3 {
	cross := b.Sub(a).Cross(c.Sub(a))
	if l := cross.Len(); l > 0 {
		return cross.Mul(1 / l)
	}
	return mgl64.Vec3{}
}

func (f Face) within(n int) bool {
	return f[0] >= 0 && f[0] < n && f[1] >= 0 && f[1] < n && f[2] >= 0 && f[2] < n
}
