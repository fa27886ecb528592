package mesh

import "fmt"

// IndexError reports a face corner that references a vertex the object does not have.
type IndexError struct {
	Face     int // face number within the object
	Corner   int // 0, 1 or 2
	Index    int // offending local index
	Vertices int // number of local vertices
}

func (e *IndexError) Error() string {
	return fmt.Sprintf("face %d corner %d: vertex index %d out of range [0, %d)", e.Face, e.Corner, e.Index, e.Vertices)
}

// Is lets errors.Is(err, ErrFaceIndex) match an IndexError.
func (e *IndexError) Is(target error) bool {
	return target == ErrFaceIndex
}

// Remap rewrites faces through remap, where remap[i] is the new index of local
// vertex i. Corner order is kept as is. Nothing is returned if any index is
// outside remap.
func Remap(faces []Face, remap []int) ([]Face, error) {
	out := make([]Face, len(faces))
	for i, f := range faces {
		for c, idx := range f {
			if idx < 0 || idx >= len(remap) {
				return nil, &IndexError{Face: i, Corner: c, Index: idx, Vertices: len(remap)}
			}
			out[i][c] = remap[idx]
		}
	}
	return out, nil
}
