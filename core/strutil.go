package core

// Utoa converts an unsigned integer to a string without using fmt package
func Utoa(n uint32) string {
	if n == 0 {
		return "0"
	}
	var buf [10]byte
	pos := len(buf)
	for n > 0 {
		pos--
		buf[pos] = byte('0' + n%10)
		n /= 10
	}
	return string(buf[pos:])
}

// fixString renders a fixed-point value with two decimals, rounding the
// fraction down. shift is the number of fraction bits.
func fixString(v int32, shift uint) string {
	neg := v < 0
	u := uint32(v)
	if neg {
		u = uint32(-v)
	}
	whole := u >> shift
	frac := ((u & (1<<shift - 1)) * 100) >> shift
	s := Utoa(whole) + "."
	if frac < 10 {
		s += "0"
	}
	s += Utoa(frac)
	if neg {
		s = "-" + s
	}
	return s
}

func (f Fix8) String() string {
	return fixString(int32(f), 8)
}

func (f Fix16) String() string {
	return fixString(int32(f), 16)
}
