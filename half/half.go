// Package half provides IEEE 754 binary16 storage for single-channel
// intermediate fields.
//
// Render pipelines commonly keep scalar working buffers such as dark
// channels, window statistics and pyramid levels in 16-bit float targets.
// This package converts to and from that format so the CPU pipeline can
// reproduce the same quantization, and so captures can store fields at half
// the size of float32.
//
// Layout:
//   - 1 bit sign
//   - 5 bits exponent (bias of 15)
//   - 10 bits mantissa (implicit leading 1 for normalized values)
package half

import (
	"math"
)

// Half is an IEEE 754 binary16 value stored in its raw bit pattern.
type Half uint16

const (
	signBit      = 0x8000
	exponentMask = 0x7C00
	mantissaMask = 0x03FF

	// float32 bit patterns at the edges of the half range
	f32Inf          = 0x7F800000
	f32HalfOverflow = 0x477FF000 // 65520, rounds to +Inf
	f32MinNormal    = 0x38800000 // 2^-14
	f32MinRounded   = 0x33000000 // 2^-25, half of the smallest subnormal
	f32Rebias       = 0x38000000 // (127-15) << 23

	quietNaN = 0x7E00
)

// FromFloat32 converts f to the nearest Half, ties to even.
func FromFloat32(f float32) Half {
	bits := math.Float32bits(f)
	sign := uint16(bits>>16) & signBit
	abs := bits &^ 0x80000000

	switch {
	case abs > f32Inf:
		return Half(sign | quietNaN | uint16(abs>>13)&mantissaMask)
	case abs >= f32HalfOverflow:
		return Half(sign | exponentMask)
	case abs >= f32MinNormal:
		v := abs - f32Rebias
		v += 0x0FFF + (v>>13)&1
		return Half(sign | uint16(v>>13))
	case abs >= f32MinRounded:
		e := abs >> 23
		m := abs&0x007FFFFF | 0x00800000
		shift := 126 - e
		hm := m >> shift
		rem := m & (1<<shift - 1)
		halfway := uint32(1) << (shift - 1)
		if rem > halfway || (rem == halfway && hm&1 == 1) {
			hm++
		}
		return Half(sign | uint16(hm))
	default:
		return Half(sign)
	}
}

// Float32 widens h to float32. The conversion is exact.
func (h Half) Float32() float32 {
	sign := uint32(h&signBit) << 16
	exp := uint32(h&exponentMask) >> 10
	man := uint32(h & mantissaMask)

	switch exp {
	case 0:
		f := float32(man) * (1.0 / (1 << 24))
		if sign != 0 {
			f = -f
		}
		return f
	case 0x1F:
		return math.Float32frombits(sign | f32Inf | man<<13)
	default:
		return math.Float32frombits(sign | (exp+112)<<23 | man<<13)
	}
}

// Bits returns the raw binary16 pattern.
func (h Half) Bits() uint16 {
	return uint16(h)
}

// FromBits wraps a raw binary16 pattern.
func FromBits(bits uint16) Half {
	return Half(bits)
}

// Quantize rounds f through binary16 and back.
func Quantize(f float32) float32 {
	return FromFloat32(f).Float32()
}
