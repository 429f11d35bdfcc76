package protocol

import (
	"bytes"
	"errors"
	"io"
	"testing"
	"time"
)

func TestTransportLoopback(t *testing.T) {
	var wire bytes.Buffer
	tx := NewTransport(&wire)
	for v := int32(0); v < 20; v++ {
		if err := tx.Send(&SetVoltage{Voltage: v * 1000}); err != nil {
			t.Fatalf("Send: %v", err)
		}
	}

	rx := NewTransport(io.Discard)
	var got []int32
	err := rx.Receive(wire.Bytes(), func(m Message) {
		got = append(got, m.(*SetVoltage).Voltage)
	})
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if len(got) != 20 || got[19] != 19000 {
		t.Errorf("received %v", got)
	}
	if s := rx.Stats(); s.Received != 20 || s.Skipped != 0 || s.Dropped != 0 {
		t.Errorf("rx stats = %+v", s)
	}
	if s := tx.Stats(); s.Sent != 20 {
		t.Errorf("tx stats = %+v", s)
	}
}

func TestTransportLargeChunk(t *testing.T) {
	var wire bytes.Buffer
	tx := NewTransport(&wire)
	for i := 0; i < 50; i++ {
		tx.Send(&Status{Ticks: uint32(i)})
	}
	if wire.Len() <= 4*FrameLengthMax {
		t.Fatalf("test input only %d bytes", wire.Len())
	}

	rx := NewTransport(io.Discard)
	n := 0
	rx.Receive(wire.Bytes(), func(Message) { n++ })
	if n != 50 {
		t.Errorf("received %d of 50", n)
	}
}

func TestTransportCountsLoss(t *testing.T) {
	var wire bytes.Buffer
	tx := NewTransport(&wire)
	var frames [][]byte
	for i := 0; i < 4; i++ {
		wire.Reset()
		tx.Send(&Heartbeat{})
		frames = append(frames, append([]byte(nil), wire.Bytes()...))
	}
	frames[1][2] ^= 0x01

	rx := NewTransport(io.Discard)
	n := 0
	var in []byte
	for _, f := range frames {
		in = append(in, f...)
	}
	err := rx.Receive(in, func(Message) { n++ })
	if !errors.Is(err, ErrBadCRC) {
		t.Errorf("err = %v, want bad crc", err)
	}
	s := rx.Stats()
	if n != 3 || s.Dropped != 1 || s.Skipped != 1 {
		t.Errorf("n=%d stats=%+v", n, s)
	}
}

// pipePort is one end of an in-memory serial line.
type pipePort struct {
	r *io.PipeReader
	w io.Writer
}

func (p *pipePort) Read(b []byte) (int, error) { return p.r.Read(b) }
func (p *pipePort) Write(b []byte) (int, error) { return p.w.Write(b) }
func (p *pipePort) Close() error { return p.r.Close() }

func TestHostLink(t *testing.T) {
	fromBoard, boardOut := io.Pipe()
	var toBoard bytes.Buffer
	link := NewHostLink(&pipePort{r: fromBoard, w: &toBoard})

	board := NewTransport(boardOut)
	go board.Send(&Status{Ticks: 42})

	m, err := link.Receive(time.Second)
	if err != nil {
		t.Fatalf("Receive: %v", err)
	}
	if s, ok := m.(*Status); !ok || s.Ticks != 42 {
		t.Errorf("message = %+v", m)
	}

	if err := link.Send(&SetVoltage{Voltage: 100}); err != nil {
		t.Fatalf("Send: %v", err)
	}
	var got Message
	NewTransport(io.Discard).Receive(toBoard.Bytes(), func(m Message) { got = m })
	if v, ok := got.(*SetVoltage); !ok || v.Voltage != 100 {
		t.Errorf("board received %+v", got)
	}

	if err := link.Close(); err != nil {
		t.Errorf("Close: %v", err)
	}
	if err := link.Send(&Heartbeat{}); !errors.Is(err, ErrClosed) {
		t.Errorf("Send after close: %v", err)
	}
	if _, ok := <-link.Messages(); ok {
		t.Error("message queue still open")
	}
}
