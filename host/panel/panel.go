// Package panel mirrors the controller's status LED onto two host GPIOs,
// for a remote indicator on the operator panel.
package panel

import (
	"fmt"

	"periph.io/x/conn/v3/gpio"

	"gobdc/core"
)

// output is the part of gpio.PinOut the panel drives.
type output interface {
	Out(l gpio.Level) error
}

// Panel drives a red and a green indicator.
type Panel struct {
	red, green output
	shown      core.Color
	valid      bool
}

func newPanel(red, green output) *Panel {
	return &Panel{red: red, green: green}
}

// Show lights the indicators for c. Pins are only written on a change.
func (p *Panel) Show(c core.Color) error {
	if p.valid && c == p.shown {
		return nil
	}
	if err := p.red.Out(gpio.Level(c.Red())); err != nil {
		return fmt.Errorf("gpio: red: %w", err)
	}
	if err := p.green.Out(gpio.Level(c.Green())); err != nil {
		return fmt.Errorf("gpio: green: %w", err)
	}
	p.shown, p.valid = c, true
	return nil
}

// Off darkens both indicators.
func (p *Panel) Off() error {
	p.valid = false
	return p.Show(core.ColorBlack)
}
