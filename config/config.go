// Package config loads the controller configuration.
package config

import (
	"encoding/json"
	"errors"
	"fmt"

	"gobdc/core"
)

// MaxBusVoltage is the highest MaxVoltage accepted.
const MaxBusVoltage = 24.0

var ErrInvalid = errors.New("invalid config")

// Load parses a JSON configuration, fills defaults and validates it.
func Load(jsonData []byte) (*BoardConfig, error) {
	var cfg BoardConfig
	if err := json.Unmarshal(jsonData, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	applyDefaults(&cfg)
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

func applyDefaults(cfg *BoardConfig) {
	if cfg.EncoderLines == 0 {
		cfg.EncoderLines = 1
	}
	if cfg.PotTurns == 0 {
		cfg.PotTurns = 1
	}
	if cfg.BrakeCoast == "" {
		cfg.BrakeCoast = "jumper"
	}
	if cfg.PositionReference == "" {
		cfg.PositionReference = "encoder"
	}
	if cfg.TelemetryMS == 0 {
		cfg.TelemetryMS = 100
	}
	if cfg.LED == "" {
		cfg.LED = "gpio"
	}
	if cfg.Pins == (PinMap{}) {
		cfg.Pins = DefaultPins()
	}
}

// DefaultPins is the Pico wiring used by the reference board.
func DefaultPins() PinMap {
	return PinMap{
		PlusHigh:     0,
		PlusLow:      1,
		MinusHigh:    2,
		MinusLow:     3,
		EncoderA:     4,
		EncoderB:     5,
		LimitForward: 6,
		LimitReverse: 7,
		GateFault:    8,
		GateReset:    9,
		Jumper:       10,
		LEDRed:       11,
		LEDGreen:     12,
		Fan:          13,
		LEDPixel:     16,
	}
}

// Default returns the configuration used when none is supplied.
func Default() *BoardConfig {
	var cfg BoardConfig
	applyDefaults(&cfg)
	return &cfg
}

// Validate reports the first invalid setting.
func (c *BoardConfig) Validate() error {
	if _, err := c.brakeCoast(); err != nil {
		return err
	}
	if _, err := c.positionRef(); err != nil {
		return err
	}
	if c.MaxVoltage < 0 || c.MaxVoltage > MaxBusVoltage {
		return fmt.Errorf("%w: max_voltage %.2f outside 0..%.0f", ErrInvalid, c.MaxVoltage, MaxBusVoltage)
	}
	if c.RampRate > 2*core.VoltageFull {
		return fmt.Errorf("%w: ramp_rate %d", ErrInvalid, c.RampRate)
	}
	if err := checkLimit("forward_limit", c.ForwardLimit); err != nil {
		return err
	}
	if err := checkLimit("reverse_limit", c.ReverseLimit); err != nil {
		return err
	}
	if c.LED != "gpio" && c.LED != "ws2812" {
		return fmt.Errorf("%w: led %q", ErrInvalid, c.LED)
	}
	if c.PotTurns < -32768 || c.PotTurns > 32767 {
		return fmt.Errorf("%w: pot_turns %d", ErrInvalid, c.PotTurns)
	}
	p := c.Pins
	if p.PlusLow != p.PlusHigh+1 || p.MinusLow != p.MinusHigh+1 || p.PlusHigh%2 != 0 || p.MinusHigh%2 != 0 {
		return fmt.Errorf("%w: bridge legs must each use both channels of one PWM slice", ErrInvalid)
	}
	if p.PlusHigh == p.MinusHigh {
		return fmt.Errorf("%w: bridge legs share a PWM slice", ErrInvalid)
	}
	return nil
}

func checkLimit(name string, l *SoftLimit) error {
	if l != nil && (l.Position >= 32768 || l.Position < -32768) {
		return fmt.Errorf("%w: %s position %.1f does not fit 16.16", ErrInvalid, name, l.Position)
	}
	return nil
}

func (c *BoardConfig) brakeCoast() (core.BrakeCoastMode, error) {
	switch c.BrakeCoast {
	case "jumper":
		return core.ModeFollowJumper, nil
	case "brake":
		return core.ModeBrake, nil
	case "coast":
		return core.ModeCoast, nil
	}
	return 0, fmt.Errorf("%w: brake_coast %q", ErrInvalid, c.BrakeCoast)
}

func (c *BoardConfig) positionRef() (core.PositionRef, error) {
	switch c.PositionReference {
	case "encoder":
		return core.PositionEncoder, nil
	case "pot":
		return core.PositionPot, nil
	}
	return 0, fmt.Errorf("%w: position_reference %q", ErrInvalid, c.PositionReference)
}

func toFix16(v float64) core.Fix16 {
	return core.Fix16(v * 65536)
}

// Apply pushes the settings into b. The configuration must be valid.
func (c *BoardConfig) Apply(b *core.Board) {
	mode, _ := c.brakeCoast()
	ref, _ := c.positionRef()

	b.Encoder().SetLines(c.EncoderLines)
	b.ADC().SetPotTurns(c.PotTurns)
	b.Bridge().SetBrakeCoastMode(mode)
	b.SetPositionReference(ref)
	if c.MaxVoltage > 0 {
		b.Bridge().SetMaxVoltage(core.Fix8(c.MaxVoltage * 256))
	}

	l := b.Limit()
	if c.ForwardLimit != nil {
		l.SetForwardLimit(toFix16(c.ForwardLimit.Position), c.ForwardLimit.LessThan)
	}
	if c.ReverseLimit != nil {
		l.SetReverseLimit(toFix16(c.ReverseLimit.Position), c.ReverseLimit.LessThan)
	}
	if c.ForwardLimit != nil || c.ReverseLimit != nil {
		l.EnablePositionLimits()
	} else {
		l.DisablePositionLimits()
	}
	b.LED().SetDeviceNumber(c.DeviceNumber)
}

// TelemetryPeriod returns the status report period in slow ticks.
func (c *BoardConfig) TelemetryPeriod() uint32 {
	return max(core.MSToUpdates(c.TelemetryMS), 1)
}
