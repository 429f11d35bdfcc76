package core

import "math/bits"

// Fix16 is a signed 16.16 fixed-point value (revolutions, RPM).
type Fix16 int32

// Fix8 is an 8.8 fixed-point value (amps, volts, degrees C).
type Fix8 int32

// Fix16One is 1.0 in 16.16.
const Fix16One Fix16 = 1 << 16

// Mul16x16 computes (x*y + 0x8000) >> 16 with a 64-bit intermediate.
// With y an integer this scales a 16.16 value to an integer count.
func Mul16x16(x, y int32) int32 {
	return int32((int64(x)*int64(y) + 0x8000) >> 16)
}

// Div16x16 computes the 16.16 quotient of x/y.
//
// The result is built from an integer quotient and a fractional part. The
// remainder is normalized so its top bit is set. The divisor is shifted right
// by the same amount minus 16, which truncates low divisor bits when the
// remainder is large. The sign is applied last. A zero divisor yields 0.
func Div16x16(x, y int32) int32 {
	neg := false
	ux, uy := uint32(x), uint32(y)
	if x < 0 {
		neg = !neg
		ux = uint32(-x)
	}
	if y < 0 {
		neg = !neg
		uy = uint32(-y)
	}

	var q uint32
	if uy != 0 && ux >= uy {
		q = ux / uy
		ux -= q * uy
	}

	lz := bits.LeadingZeros32(ux)
	if lz < 16 {
		ux <<= uint(lz)
		uy >>= uint(16 - lz)
	} else {
		ux <<= 16
	}

	var frac uint32
	if uy != 0 {
		frac = ux / uy
	}

	r := int32(frac | q<<16)
	if neg {
		r = -r
	}
	return r
}
