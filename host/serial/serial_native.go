//go:build !wasm

package serial

import (
	"errors"
	"fmt"
	"io"

	"github.com/tarm/serial"
)

// Port is an open controller link.
type Port struct {
	port *serial.Port
	cfg  Config
}

// Open validates cfg and opens the port.
func Open(cfg Config) (*Port, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	p, err := serial.OpenPort(&serial.Config{
		Name:        cfg.Device,
		Baud:        cfg.Baud,
		ReadTimeout: cfg.ReadTimeout,
	})
	if err != nil {
		return nil, fmt.Errorf("serial: open %s: %w", cfg.Device, err)
	}
	return &Port{port: p, cfg: cfg}, nil
}

// Read returns (0, nil) when the read timeout lapses, where tarm reports
// io.EOF, so reader loops keep polling.
func (p *Port) Read(b []byte) (int, error) {
	n, err := p.port.Read(b)
	if n == 0 && errors.Is(err, io.EOF) && p.cfg.ReadTimeout > 0 {
		return 0, nil
	}
	return n, err
}

func (p *Port) Write(b []byte) (int, error) { return p.port.Write(b) }

// Flush discards unread input.
func (p *Port) Flush() error { return p.port.Flush() }

func (p *Port) Close() error { return p.port.Close() }

// Device returns the path the port was opened on.
func (p *Port) Device() string { return p.cfg.Device }
