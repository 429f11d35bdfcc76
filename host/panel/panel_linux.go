//go:build linux

package panel

import (
	"fmt"
	"log/slog"

	"periph.io/x/conn/v3/gpio/gpioreg"
	"periph.io/x/host/v3"
)

// Open claims the named GPIOs (BCM names such as "GPIO17") and drives them
// low.
func Open(red, green string) (*Panel, error) {
	if _, err := host.Init(); err != nil {
		return nil, fmt.Errorf("gpio: host init failed: %w", err)
	}

	redPin := gpioreg.ByName(red)
	if redPin == nil {
		return nil, fmt.Errorf("gpio: failed to open %s (red)", red)
	}
	greenPin := gpioreg.ByName(green)
	if greenPin == nil {
		return nil, fmt.Errorf("gpio: failed to open %s (green)", green)
	}

	p := newPanel(redPin, greenPin)
	if err := p.Off(); err != nil {
		return nil, err
	}
	slog.Debug("gpio: panel ready", "red", red, "green", green)
	return p, nil
}
