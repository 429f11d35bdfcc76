// Package mcu is the host's connection to a motor controller.
package mcu

import (
	"context"
	"errors"
	"fmt"
	"io"
	"sync"
	"time"

	"gobdc/core"
	"gobdc/host/serial"
	"gobdc/protocol"
)

// ErrNotConnected is returned by commands sent before Connect.
var ErrNotConnected = errors.New("not connected to MCU")

// MCU represents a connection to a motor controller
type MCU struct {
	mu   sync.Mutex
	link *protocol.HostLink

	status   *protocol.Status
	received time.Time
}

// NewMCU creates a new MCU instance (not yet connected)
func NewMCU() *MCU {
	return &MCU{}
}

// Connect connects to an MCU via serial port
func (m *MCU) Connect(device string) error {
	return m.ConnectWithConfig(serial.DefaultConfig(device))
}

// ConnectWithConfig connects to an MCU with a custom serial config
func (m *MCU) ConnectWithConfig(cfg serial.Config) error {
	port, err := serial.Open(cfg)
	if err != nil {
		return fmt.Errorf("mcu: %w", err)
	}
	m.ConnectPort(port)
	return nil
}

// ConnectPort runs the link over an already open port.
func (m *MCU) ConnectPort(port io.ReadWriteCloser) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.link = protocol.NewHostLink(port)
}

// Close closes the connection to the MCU
func (m *MCU) Close() error {
	m.mu.Lock()
	link := m.link
	m.link = nil
	m.mu.Unlock()
	if link == nil {
		return nil
	}
	return link.Close()
}

// IsConnected returns whether the MCU is connected
func (m *MCU) IsConnected() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.link != nil
}

func (m *MCU) current() (*protocol.HostLink, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.link == nil {
		return nil, ErrNotConnected
	}
	return m.link, nil
}

func (m *MCU) send(msg protocol.Message) error {
	link, err := m.current()
	if err != nil {
		return err
	}
	return link.Send(msg)
}

// SetVoltage commands a voltage target in 1/32767 of full scale.
func (m *MCU) SetVoltage(v int32) error {
	return m.send(&protocol.SetVoltage{Voltage: v})
}

// SetMode selects the neutral behaviour and the position reference.
func (m *MCU) SetMode(mode core.BrakeCoastMode, ref core.PositionRef) error {
	return m.send(&protocol.SetMode{BrakeCoast: mode, Position: ref})
}

// Heartbeat keeps the controller's link watchdog fed.
func (m *MCU) Heartbeat() error {
	return m.send(&protocol.Heartbeat{})
}

// ClearSticky clears the sticky flags, and the fault counters if counts.
func (m *MCU) ClearSticky(counts bool) error {
	return m.send(&protocol.ClearSticky{Counts: counts})
}

// BlinkID blinks the status LED n times.
func (m *MCU) BlinkID(n uint8) error {
	return m.send(&protocol.BlinkID{Count: n})
}

// Shutdown parks the controller for a firmware update.
func (m *MCU) Shutdown() error {
	return m.send(&protocol.Shutdown{})
}

// NextStatus waits for the next status report. Other messages are skipped.
func (m *MCU) NextStatus(ctx context.Context) (*protocol.Status, error) {
	link, err := m.current()
	if err != nil {
		return nil, err
	}
	for {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		case msg, ok := <-link.Messages():
			if !ok {
				return nil, protocol.ErrClosed
			}
			s, isStatus := msg.(*protocol.Status)
			if !isStatus {
				continue
			}
			m.mu.Lock()
			m.status, m.received = s, time.Now()
			m.mu.Unlock()
			return s, nil
		}
	}
}

// Errors reports link decode and read errors.
func (m *MCU) Errors() <-chan error {
	link, err := m.current()
	if err != nil {
		return nil
	}
	return link.Errors()
}

// Status returns the last status report and when it arrived. It is nil
// before the first report.
func (m *MCU) Status() (*protocol.Status, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.status, m.received
}

// Stats returns the link counters.
func (m *MCU) Stats() protocol.Stats {
	link, err := m.current()
	if err != nil {
		return protocol.Stats{}
	}
	return link.Stats()
}
