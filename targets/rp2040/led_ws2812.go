//go:build rp2040 || rp2350

package main

import (
	"image/color"
	"machine"

	"tinygo.org/x/drivers/ws2812"
)

// pixelLED shows the bicolor status on a single WS2812. Amber is mixed
// from the red and green channels.
type pixelLED struct {
	dev ws2812.Device
	buf [1]color.RGBA
}

const pixelLevel = 0x40

func newPixelLED(pin machine.Pin) *pixelLED {
	pin.Configure(machine.PinConfig{Mode: machine.PinOutput})
	return &pixelLED{dev: ws2812.New(pin)}
}

func (p *pixelLED) Set(red, green bool) {
	c := color.RGBA{A: 0xff}
	if red {
		c.R = pixelLevel
	}
	if green {
		c.G = pixelLevel
		if red {
			c.G = pixelLevel / 2
		}
	}
	p.buf[0] = c
	p.dev.WriteColors(p.buf[:])
}
