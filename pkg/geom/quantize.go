package geom

import (
	"errors"
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// DefaultPrecision is the number of decimal digits two positions must agree on
// to be treated as the same point.
const DefaultPrecision = 6

// MaxPrecision bounds the precision so scaled coordinates stay exactly representable.
const MaxPrecision = 12

// Quantization errors.
var (
	ErrInvalidPrecision = errors.New("invalid quantization precision")
	ErrNonFinite        = errors.New("non-finite coordinate")
	ErrOutOfRange       = errors.New("coordinate too large to quantize")
)

// maxExact is the largest magnitude at which float64 still holds every integer.
const maxExact = 1 << 53

// Key is a position rounded to a fixed number of decimals, stored as scaled integers.
// Two positions are coincident when their keys are equal.
type Key [3]int64

// String returns the key as the rounded coordinates.
func (k Key) String() string {
	return fmt.Sprintf("(%d, %d, %d)", k[0], k[1], k[2])
}

// Quantizer maps positions to keys at a fixed decimal precision.
type Quantizer struct {
	precision int
	factor    float64
}

// NewQuantizer returns a quantizer rounding to the given number of decimals.
func NewQuantizer(precision int) (Quantizer, error) {
	if precision < 0 || precision > MaxPrecision {
		return Quantizer{}, fmt.Errorf("%w: %d (want 0..%d)", ErrInvalidPrecision, precision, MaxPrecision)
	}
	return Quantizer{precision: precision, factor: math.Pow10(precision)}, nil
}

// Precision returns the number of decimals kept.
func (q Quantizer) Precision() int {
	return q.precision
}

// Key rounds p half-to-even at the quantizer's precision.
// -0 and +0 land on the same key.
func (q Quantizer) Key(p mgl64.Vec3) (Key, error) {
	var k Key
	for i, c := range p {
		if math.IsNaN(c) || math.IsInf(c, 0) {
			return Key{}, fmt.Errorf("%w: %v", ErrNonFinite, p)
		}
		r := math.RoundToEven(c * q.factor)
		if math.Abs(r) >= maxExact {
			return Key{}, fmt.Errorf("%w: %v", ErrOutOfRange, p)
		}
		k[i] = int64(r)
	}
	return k, nil
}

// Round returns p rounded to the quantizer's precision.
func (q Quantizer) Round(p mgl64.Vec3) mgl64.Vec3 {
	return mgl64.Vec3{
		math.RoundToEven(p[0]*q.factor) / q.factor,
		math.RoundToEven(p[1]*q.factor) / q.factor,
		math.RoundToEven(p[2]*q.factor) / q.factor,
	}
}
