package core

import "sync/atomic"

// The cells in this file publish a group of words from a single
// interrupt-context writer to task-context readers without disabling
// interrupts. The writer bumps the sequence to odd, stores the words, and
// bumps it back to even. A reader that observes an odd sequence, or a
// sequence that changed across its loads, retries.
//
// There must be exactly one writer. On a single core the writer is the ISR
// and is never preempted by a reader, so a reader retries at most once per
// ISR firing.

// sampleCell carries one conversion group.
type sampleCell struct {
	seq   atomic.Uint32
	words [4]atomic.Uint32
}

func (c *sampleCell) publish(w0, w1, w2, w3 uint32) {
	c.seq.Add(1)
	c.words[0].Store(w0)
	c.words[1].Store(w1)
	c.words[2].Store(w2)
	c.words[3].Store(w3)
	c.seq.Add(1)
}

func (c *sampleCell) load() (w0, w1, w2, w3 uint32) {
	for {
		s := c.seq.Load()
		if s&1 != 0 {
			continue
		}
		w0 = c.words[0].Load()
		w1 = c.words[1].Load()
		w2 = c.words[2].Load()
		w3 = c.words[3].Load()
		if c.seq.Load() == s {
			return
		}
	}
}

// pairCell carries two related words, such as an edge timestamp and the
// interval that ended at it.
type pairCell struct {
	seq   atomic.Uint32
	words [2]atomic.Uint32
}

func (c *pairCell) publish(w0, w1 uint32) {
	c.seq.Add(1)
	c.words[0].Store(w0)
	c.words[1].Store(w1)
	c.seq.Add(1)
}

func (c *pairCell) load() (w0, w1 uint32) {
	for {
		s := c.seq.Load()
		if s&1 != 0 {
			continue
		}
		w0 = c.words[0].Load()
		w1 = c.words[1].Load()
		if c.seq.Load() == s {
			return
		}
	}
}
