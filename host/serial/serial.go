// Package serial opens the controller's USB CDC or UART link.
package serial

import (
	"errors"
	"fmt"
	"time"
)

// The controller's UART link runs at this rate. USB CDC ignores it.
const DefaultBaud = 115200

var (
	ErrNoDevice = errors.New("serial: no device")
	ErrBaud     = errors.New("serial: bad baud rate")
)

// Config selects a port and its read timeout. A zero ReadTimeout blocks.
type Config struct {
	Device      string
	Baud        int
	ReadTimeout time.Duration
}

// DefaultConfig returns the settings the controller expects on device.
func DefaultConfig(device string) Config {
	return Config{
		Device:      device,
		Baud:        DefaultBaud,
		ReadTimeout: 100 * time.Millisecond,
	}
}

func (c Config) Validate() error {
	if c.Device == "" {
		return ErrNoDevice
	}
	if c.Baud <= 0 {
		return fmt.Errorf("%w: %d", ErrBaud, c.Baud)
	}
	if c.ReadTimeout < 0 {
		return fmt.Errorf("serial: negative read timeout %s", c.ReadTimeout)
	}
	return nil
}
