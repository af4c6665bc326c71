// Package vecenc converts embedding vectors to and from the binary wire
// format bound as the vector parameter on database statements.
package vecenc

import (
	"encoding/binary"
	"fmt"
	"math"
)

// Precision is the element width used when packing embedding values.
// It is a deployment-time contract: every vector written to a given schema
// must use the same width, and the codec never guards against mixing.
type Precision int

const (
	// Bits32 packs each element as an IEEE 754 float32.
	Bits32 Precision = 32

	// Bits64 packs each element as an IEEE 754 float64.
	Bits64 Precision = 64
)

// ElemSize returns the per-element byte width.
func (p Precision) ElemSize() int {
	if p == Bits64 {
		return 8
	}
	return 4
}

// Codec packs embedding vectors into a contiguous little-endian byte buffer.
// The precision is fixed at construction and applied to every call.
type Codec struct {
	precision Precision
}

// New returns a Codec for the given element precision.
func New(p Precision) (Codec, error) {
	switch p {
	case Bits32, Bits64:
		return Codec{precision: p}, nil
	default:
		return Codec{}, fmt.Errorf("unsupported vector precision %d: must be 32 or 64", p)
	}
}

// Precision returns the configured element precision.
func (c Codec) Precision() Precision {
	return c.precision
}

// Encode packs vec into a single contiguous buffer of fixed-width
// little-endian IEEE values. An empty vector encodes to nil; rejecting it,
// if at all, is the store schema's job.
func (c Codec) Encode(vec []float64) []byte {
	if len(vec) == 0 {
		return nil
	}

	size := c.precision.ElemSize()
	buf := make([]byte, len(vec)*size)

	if c.precision == Bits64 {
		for i, v := range vec {
			binary.LittleEndian.PutUint64(buf[i*size:], math.Float64bits(v))
		}
		return buf
	}

	for i, v := range vec {
		binary.LittleEndian.PutUint32(buf[i*size:], math.Float32bits(float32(v)))
	}
	return buf
}

// Decode unpacks a buffer produced by Encode back into a float64 slice.
// Values encoded at Bits32 round-trip within float32 epsilon.
func (c Codec) Decode(b []byte) ([]float64, error) {
	if len(b) == 0 {
		return nil, nil
	}

	size := c.precision.ElemSize()
	if len(b)%size != 0 {
		return nil, fmt.Errorf("invalid embedding blob length %d: must be divisible by %d", len(b), size)
	}

	vec := make([]float64, len(b)/size)

	if c.precision == Bits64 {
		for i := range vec {
			vec[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*size:]))
		}
		return vec, nil
	}

	for i := range vec {
		vec[i] = float64(math.Float32frombits(binary.LittleEndian.Uint32(b[i*size:])))
	}
	return vec, nil
}
