package mesh

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"

	"github.com/Faultbox/meshmerge/pkg/geom"
)

// Placement positions an object in world space.
// Rotation holds Euler angles in degrees; Scale is applied per axis.
type Placement struct {
	Translation mgl64.Vec3
	Rotation    mgl64.Vec3
	Scale       mgl64.Vec3
}

// IdentityPlacement leaves geometry where it is.
func IdentityPlacement() Placement {
	return Placement{Scale: mgl64.Vec3{1, 1, 1}}
}

// NormalMode selects how normals follow a placement.
type NormalMode string

const (
	// NormalsRotate applies only the rotation to normals. Exact for uniform scale.
	NormalsRotate NormalMode = "rotate"
	// NormalsInverseTranspose applies the inverse-transpose of scale-then-rotate
	// and re-normalizes, which stays correct under non-uniform scale.
	NormalsInverseTranspose NormalMode = "inverse_transpose"
)

// ParseNormalMode validates a normal mode string. Empty means NormalsRotate.
func ParseNormalMode(s string) (NormalMode, error) {
	switch NormalMode(s) {
	case "":
		return NormalsRotate, nil
	case NormalsRotate, NormalsInverseTranspose:
		return NormalMode(s), nil
	default:
		return "", fmt.Errorf("unknown normal mode %q (want %q or %q)", s, NormalsRotate, NormalsInverseTranspose)
	}
}

// Transform applies placements. The zero value uses the default rotation order and
// rotates normals only.
type Transform struct {
	Order   geom.RotationOrder
	Normals NormalMode
}

// Apply places positions and normals in world space: scale, then rotate, then
// translate. Normals are rotated but never scaled or translated, unless the
// transform uses NormalsInverseTranspose. Inputs are not modified.
//
// Normals keep unit length only if they were unit length on input and the scale is
// uniform; Apply does not re-normalize in the default mode.
func (t Transform) Apply(positions, normals []mgl64.Vec3, p Placement) ([]mgl64.Vec3, []mgl64.Vec3) {
	order := t.Order
	if order == "" {
		order = geom.DefaultRotationOrder
	}
	rot := geom.Euler(p.Rotation, order)

	outPos := make([]mgl64.Vec3, len(positions))
	for i, v := range positions {
		v = geom.MulElem(v, p.Scale)
		v = rot.Mul3x1(v)
		outPos[i] = v.Add(p.Translation)
	}

	nm, renormalize := rot, false
	if t.Normals == NormalsInverseTranspose {
		if m, ok := geom.NormalMatrix(geom.Linear(p.Scale, rot)); ok {
			nm, renormalize = m, true
		}
	}

	outNorm := make([]mgl64.Vec3, len(normals))
	for i, n := range normals {
		n = nm.Mul3x1(n)
		if renormalize && n.Len() > 0 {
			n = n.Normalize()
		}
		outNorm[i] = n
	}
	return outPos, outNorm
}
