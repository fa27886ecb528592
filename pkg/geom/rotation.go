// Package geom provides the placement math used to move meshes into world space.
package geom

import (
	"fmt"

	"github.com/go-gl/mathgl/mgl64"
)

// RotationOrder names the Euler convention used to turn three angles into a matrix.
// Lowercase letters are extrinsic (fixed axes), uppercase are intrinsic (body axes).
type RotationOrder string

const (
	// ExtrinsicXYZ rotates about the fixed X, then Y, then Z axis: R = Rz * Ry * Rx.
	ExtrinsicXYZ RotationOrder = "xyz"
	// IntrinsicXYZ rotates about the body X, then the rotated Y, then Z: R = Rx * Ry * Rz.
	IntrinsicXYZ RotationOrder = "XYZ"
)

// DefaultRotationOrder matches the convention scene files have been authored with.
const DefaultRotationOrder = ExtrinsicXYZ

// ParseRotationOrder validates a rotation order string. Empty means the default.
func ParseRotationOrder(s string) (RotationOrder, error) {
	switch RotationOrder(s) {
	case "":
		return DefaultRotationOrder, nil
	case ExtrinsicXYZ, IntrinsicXYZ:
		return RotationOrder(s), nil
	default:
		return "", fmt.Errorf("unknown rotation order %q (want %q or %q)", s, ExtrinsicXYZ, IntrinsicXYZ)
	}
}

// RotateX returns a rotation of deg degrees about the X axis.
func RotateX(deg float64) mgl64.Mat3 {
	return mgl64.Rotate3DX(mgl64.DegToRad(deg))
}

// RotateY returns a rotation of deg degrees about the Y axis.
func RotateY(deg float64) mgl64.Mat3 {
	return mgl64.Rotate3DY(mgl64.DegToRad(deg))
}

// RotateZ returns a rotation of deg degrees about the Z axis.
func RotateZ(deg float64) mgl64.Mat3 {
	return mgl64.Rotate3DZ(mgl64.DegToRad(deg))
}

// Euler builds a rotation matrix from angles in degrees around X, Y and Z.
// The result rotates column vectors: p' = R * p.
func Euler(deg mgl64.Vec3, order RotationOrder) mgl64.Mat3 {
	rx, ry, rz := RotateX(deg[0]), RotateY(deg[1]), RotateZ(deg[2])
	if order == IntrinsicXYZ {
		return rx.Mul3(ry).Mul3(rz)
	}
	return rz.Mul3(ry).Mul3(rx)
}

// Scale returns a diagonal matrix scaling each axis independently.
func Scale(s mgl64.Vec3) mgl64.Mat3 {
	return mgl64.Mat3{
		s[0], 0, 0,
		0, s[1], 0,
		0, 0, s[2],
	}
}

// Linear returns the scale-then-rotate part of a placement: L = R * S.
func Linear(scale mgl64.Vec3, rot mgl64.Mat3) mgl64.Mat3 {
	return rot.Mul3(Scale(scale))
}

// NormalMatrix returns the inverse-transpose of a linear map, which keeps normals
// perpendicular to surfaces under non-uniform scale. ok is false for singular maps.
func NormalMatrix(linear mgl64.Mat3) (m mgl64.Mat3, ok bool) {
	if linear.Det() == 0 {
		return mgl64.Ident3(), false
	}
	return linear.Inv().Transpose(), true
}

// MulElem returns the component-wise product of a and b.
func MulElem(a, b mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{a[0] * b[0], a[1] * b[1], a[2] * b[2]}
}
