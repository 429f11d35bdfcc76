package monitor

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"

	"gobdc/core"
	"gobdc/protocol"
)

type fakeController struct {
	mu       sync.Mutex
	sent     []string
	statuses chan *protocol.Status
	errs     chan error
	fail     error
}

func newFakeController() *fakeController {
	return &fakeController{
		statuses: make(chan *protocol.Status, 16),
		errs:     make(chan error, 16),
	}
}

func (f *fakeController) record(s string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, s)
	return f.fail
}

func (f *fakeController) Sent() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.sent...)
}

func (f *fakeController) SetVoltage(v int32) error { return f.record(fmt.Sprintf("voltage %d", v)) }
func (f *fakeController) Heartbeat() error { return f.record("heartbeat") }
func (f *fakeController) ClearSticky(c bool) error { return f.record(fmt.Sprintf("clear %v", c)) }
func (f *fakeController) BlinkID(n uint8) error { return f.record(fmt.Sprintf("blink %d", n)) }
func (f *fakeController) Errors() <-chan error { return f.errs }
func (f *fakeController) Stats() protocol.Stats { return protocol.Stats{Received: 3} }

func (f *fakeController) SetMode(m core.BrakeCoastMode, r core.PositionRef) error {
	return f.record(fmt.Sprintf("mode %v %v", m, r))
}

func (f *fakeController) NextStatus(ctx context.Context) (*protocol.Status, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	case s := <-f.statuses:
		return s, nil
	}
}

// syncBuffer collects log output written from several goroutines.
type syncBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *syncBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *syncBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func testLogger(w io.Writer) *slog.Logger {
	if w == nil {
		w = io.Discard
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

type recordSink struct {
	mu      sync.Mutex
	reports []Report
}

func (s *recordSink) Publish(r Report) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reports = append(s.reports, r)
	return nil
}

func (s *recordSink) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.reports)
}
