package protocol

import (
	"errors"
	"fmt"
	"io"
	"sync"
	"time"
)

// ErrClosed is returned by a HostLink after Close.
var ErrClosed = errors.New("protocol: link closed")

// HostLink runs a Transport over a serial port from the host side. A
// background goroutine reads the port and queues decoded messages.
type HostLink struct {
	port io.ReadWriteCloser

	mu sync.Mutex // guards t
	t  *Transport

	messages chan Message
	errs     chan error

	stopChan chan struct{}
	doneChan chan struct{}
	once     sync.Once
}

// NewHostLink starts reading port. Messages that arrive while the queue is
// full replace the oldest one.
func NewHostLink(port io.ReadWriteCloser) *HostLink {
	l := &HostLink{
		port:     port,
		t:        NewTransport(port),
		messages: make(chan Message, 16),
		errs:     make(chan error, 4),
		stopChan: make(chan struct{}),
		doneChan: make(chan struct{}),
	}
	go l.readLoop()
	return l
}

// Send writes m to the controller.
func (l *HostLink) Send(m Message) error {
	select {
	case <-l.stopChan:
		return ErrClosed
	default:
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if err := l.t.Send(m); err != nil {
		return fmt.Errorf("send %v: %w", m.ID(), err)
	}
	return nil
}

// Messages returns the queue of decoded messages. It is closed when the
// read loop stops.
func (l *HostLink) Messages() <-chan Message {
	return l.messages
}

// Errors reports decode and read errors. Errors are dropped while nobody
// is receiving.
func (l *HostLink) Errors() <-chan error {
	return l.errs
}

// Receive waits up to timeout for the next message.
func (l *HostLink) Receive(timeout time.Duration) (Message, error) {
	select {
	case m, ok := <-l.messages:
		if !ok {
			return nil, ErrClosed
		}
		return m, nil
	case <-time.After(timeout):
		return nil, fmt.Errorf("no message after %v", timeout)
	}
}

// Stats returns the transport counters.
func (l *HostLink) Stats() Stats {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.t.Stats()
}

func (l *HostLink) readLoop() {
	defer close(l.doneChan)
	defer close(l.messages)

	buf := make([]byte, 256)
	for {
		select {
		case <-l.stopChan:
			return
		default:
		}

		n, err := l.port.Read(buf)
		if n > 0 {
			l.mu.Lock()
			derr := l.t.Receive(buf[:n], l.queue)
			l.mu.Unlock()
			if derr != nil {
				l.report(derr)
			}
		}
		if err != nil {
			if errors.Is(err, io.EOF) {
				return
			}
			l.report(fmt.Errorf("read: %w", err))
			time.Sleep(10 * time.Millisecond)
		}
	}
}

func (l *HostLink) queue(m Message) {
	select {
	case l.messages <- m:
		return
	default:
	}
	select {
	case <-l.messages:
	default:
	}
	select {
	case l.messages <- m:
	default:
	}
}

func (l *HostLink) report(err error) {
	select {
	case l.errs <- err:
	default:
	}
}

// Close stops the read loop and closes the port.
func (l *HostLink) Close() error {
	var err error
	l.once.Do(func() {
		close(l.stopChan)
		err = l.port.Close()
		<-l.doneChan
	})
	return err
}
