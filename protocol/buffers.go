package protocol

import "errors"

// ErrRingFull is returned by Ring.Write when part of the input did not fit.
var ErrRingFull = errors.New("protocol: ring full")

// OutputBuffer receives encoded bytes.
type OutputBuffer interface {
	Output(data []byte)
}

// ScratchOutput is a fixed-size OutputBuffer that never allocates. Bytes
// past its capacity are dropped and reported by Overflowed.
type ScratchOutput struct {
	buf      [MessageMax]byte
	n        int
	overflow bool
}

func NewScratchOutput() *ScratchOutput {
	return &ScratchOutput{}
}

func (s *ScratchOutput) Output(data []byte) {
	n := copy(s.buf[s.n:], data)
	s.n += n
	s.overflow = s.overflow || n < len(data)
}

// Bytes returns what was written since the last Reset. The slice aliases
// the buffer.
func (s *ScratchOutput) Bytes() []byte { return s.buf[:s.n] }
func (s *ScratchOutput) Len() int { return s.n }
func (s *ScratchOutput) Overflowed() bool { return s.overflow }

func (s *ScratchOutput) Reset() {
	s.n, s.overflow = 0, false
}

// Ring is a power-of-two byte queue for received data. Head and tail run
// freely and are masked on access, so every slot is usable.
type Ring struct {
	buf        []byte
	mask       uint32
	head, tail uint32
}

// NewRing returns a ring of at least size bytes.
func NewRing(size int) *Ring {
	n := 1
	for n < size {
		n <<= 1
	}
	return &Ring{buf: make([]byte, n), mask: uint32(n - 1)}
}

func (r *Ring) Len() int { return int(r.head - r.tail) }
func (r *Ring) Cap() int { return len(r.buf) }
func (r *Ring) Free() int { return r.Cap() - r.Len() }

// Write queues as much of p as fits. A short write returns ErrRingFull.
func (r *Ring) Write(p []byte) (int, error) {
	n := min(len(p), r.Free())
	for _, b := range p[:n] {
		r.buf[r.head&r.mask] = b
		r.head++
	}
	if n < len(p) {
		return n, ErrRingFull
	}
	return n, nil
}

// Peek returns the queued bytes as one slice without consuming them. A
// wrapped ring is rotated in place first, so Peek never allocates.
func (r *Ring) Peek() []byte {
	n := r.Len()
	start := int(r.tail & r.mask)
	if start+n > len(r.buf) {
		reverse(r.buf[:start])
		reverse(r.buf[start:])
		reverse(r.buf)
		r.tail, r.head = 0, uint32(n)
		start = 0
	}
	return r.buf[start : start+n]
}

func reverse(b []byte) {
	for i, j := 0, len(b)-1; i < j; i, j = i+1, j-1 {
		b[i], b[j] = b[j], b[i]
	}
}

// Discard drops up to n bytes from the front.
func (r *Ring) Discard(n int) {
	r.tail += uint32(min(n, r.Len()))
}

func (r *Ring) Reset() {
	r.head, r.tail = 0, 0
}
