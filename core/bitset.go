package core

import "sync/atomic"

// Bitset is a word of flags shared between interrupt and task context.
// Every operation is a single atomic access or CAS loop, so flags can be set
// from an ISR and consumed from the slow tick without a critical section.
type Bitset[F ~uint32] struct {
	v atomic.Uint32
}

// Set raises every bit in f.
func (b *Bitset[F]) Set(f F) {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, old|uint32(f)) {
			return
		}
	}
}

// Clear lowers every bit in f.
func (b *Bitset[F]) Clear(f F) {
	for {
		old := b.v.Load()
		if b.v.CompareAndSwap(old, old&^uint32(f)) {
			return
		}
	}
}

// Put sets or clears f according to on.
func (b *Bitset[F]) Put(f F, on bool) {
	if on {
		b.Set(f)
	} else {
		b.Clear(f)
	}
}

// Has reports whether any bit in f is set.
func (b *Bitset[F]) Has(f F) bool {
	return b.v.Load()&uint32(f) != 0
}

// TestAndClear clears f and reports whether any of it was set.
func (b *Bitset[F]) TestAndClear(f F) bool {
	for {
		old := b.v.Load()
		if old&uint32(f) == 0 {
			return false
		}
		if b.v.CompareAndSwap(old, old&^uint32(f)) {
			return true
		}
	}
}

// Swap replaces the whole word and returns the previous value.
func (b *Bitset[F]) Swap(f F) F {
	return F(b.v.Swap(uint32(f)))
}

// Load returns the whole word.
func (b *Bitset[F]) Load() F {
	return F(b.v.Load())
}
