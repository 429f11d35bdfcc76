package protocol

import "io"

// Stats counts link events on one end of a Transport.
type Stats struct {
	Sent     uint32
	Received uint32
	Dropped  uint32 // frames lost to CRC, sync or length errors
	Unknown  uint32 // valid frames that did not decode as a message
	Skipped  uint32 // gaps in the peer's sequence numbers
}

// Transport frames outgoing messages onto w and decodes incoming bytes. It
// is not safe for concurrent use; HostLink adds locking on the host.
type Transport struct {
	w       io.Writer
	dec     *FrameDecoder
	scratch ScratchOutput
	frame   ScratchOutput
	txSeq   uint8
	rxSeq   uint8
	rxValid bool
	stats   Stats
}

// NewTransport returns a transport writing frames to w.
func NewTransport(w io.Writer) *Transport {
	return &Transport{w: w, dec: NewFrameDecoder()}
}

// Send encodes m into one frame and writes it.
func (t *Transport) Send(m Message) error {
	t.scratch.Reset()
	EncodeMessage(&t.scratch, m)
	if t.scratch.Overflowed() {
		return ErrFrameTooLong
	}
	t.frame.Reset()
	if err := EncodeFrame(&t.frame, t.txSeq, t.scratch.Bytes()); err != nil {
		return err
	}
	if _, err := t.w.Write(t.frame.Bytes()); err != nil {
		return err
	}
	t.txSeq = (t.txSeq + 1) & SeqMask
	t.stats.Sent++
	return nil
}

// Receive decodes data and calls fn for each message in arrival order. It
// returns the last decode error seen, if any; bad frames are skipped.
func (t *Transport) Receive(data []byte, fn func(Message)) error {
	var last error
	for {
		n := t.dec.Feed(data)
		data = data[n:]
		for {
			f, err := t.dec.Next()
			if err == ErrShortFrame {
				break
			}
			if err != nil {
				t.stats.Dropped++
				last = err
				continue
			}
			t.track(f.Seq)
			m, err := DecodeMessage(f.Payload)
			if err != nil {
				t.stats.Unknown++
				last = err
				continue
			}
			t.stats.Received++
			fn(m)
		}
		if len(data) == 0 {
			return last
		}
	}
}

func (t *Transport) track(seq uint8) {
	if t.rxValid && seq != (t.rxSeq+1)&SeqMask {
		t.stats.Skipped += uint32((seq - t.rxSeq - 1) & SeqMask)
	}
	t.rxSeq = seq
	t.rxValid = true
}

// Stats returns the link counters.
func (t *Transport) Stats() Stats {
	return t.stats
}

// Reset drops partial input and restarts both sequence counters.
func (t *Transport) Reset() {
	t.dec.Reset()
	t.txSeq = 0
	t.rxValid = false
}
