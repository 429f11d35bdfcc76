package config

import (
	"errors"
	"testing"

	"gobdc/core"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load([]byte(`{}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EncoderLines != 1 || cfg.PotTurns != 1 {
		t.Errorf("lines=%d turns=%d", cfg.EncoderLines, cfg.PotTurns)
	}
	if cfg.BrakeCoast != "jumper" || cfg.PositionReference != "encoder" || cfg.LED != "gpio" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.Pins != DefaultPins() {
		t.Errorf("pins = %+v", cfg.Pins)
	}
	if cfg.TelemetryPeriod() != 100 {
		t.Errorf("telemetry period = %d", cfg.TelemetryPeriod())
	}
}

func TestLoadValues(t *testing.T) {
	cfg, err := Load([]byte(`{
		"encoder_lines": 360,
		"pot_turns": -10,
		"brake_coast": "coast",
		"position_reference": "pot",
		"max_voltage": 12,
		"ramp_rate": 524,
		"forward_limit": {"position": 2.5, "less_than": true},
		"device_number": 7,
		"telemetry_ms": 20,
		"led": "ws2812",
		"pins": {"plus_high": 6, "plus_low": 7, "minus_high": 8, "minus_low": 9, "led_pixel": 23}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.EncoderLines != 360 || cfg.PotTurns != -10 || cfg.RampRate != 524 || cfg.DeviceNumber != 7 {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ForwardLimit == nil || cfg.ForwardLimit.Position != 2.5 || cfg.ReverseLimit != nil {
		t.Errorf("limits = %+v %+v", cfg.ForwardLimit, cfg.ReverseLimit)
	}
	if cfg.Pins.PlusHigh != 6 || cfg.Pins.LEDPixel != 23 || cfg.Pins.EncoderA != 0 {
		t.Errorf("pins = %+v", cfg.Pins)
	}
	if cfg.TelemetryPeriod() != 20 {
		t.Errorf("telemetry period = %d", cfg.TelemetryPeriod())
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"brake mode", `{"brake_coast": "drag"}`},
		{"position reference", `{"position_reference": "hall"}`},
		{"negative voltage", `{"max_voltage": -1}`},
		{"high voltage", `{"max_voltage": 30}`},
		{"ramp rate", `{"ramp_rate": 70000}`},
		{"limit range", `{"reverse_limit": {"position": 40000}}`},
		{"led", `{"led": "rgb"}`},
		{"pot turns", `{"pot_turns": 40000}`},
		{"split leg", `{"pins": {"plus_high": 0, "plus_low": 2, "minus_high": 2, "minus_low": 3}}`},
		{"odd leg", `{"pins": {"plus_high": 1, "plus_low": 2, "minus_high": 4, "minus_low": 5}}`},
		{"shared slice", `{"pins": {"plus_high": 2, "plus_low": 3, "minus_high": 2, "minus_low": 3}}`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Load([]byte(tt.json))
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("err = %v, want ErrInvalid", err)
			}
		})
	}

	if _, err := Load([]byte(`{"encoder_lines": "many"}`)); err == nil || errors.Is(err, ErrInvalid) {
		t.Errorf("syntax error: err = %v", err)
	}
}

type nopDrivers struct{}

func (nopDrivers) Init(uint32) error { return nil }
func (nopDrivers) Stage(core.BridgeProgram) {}
func (nopDrivers) SyncUpdate() {}
func (nopDrivers) ClearTrigger() {}

type nopPins struct{}

func (nopPins) Init() error { return nil }
func (nopPins) Faulted() bool { return false }
func (nopPins) PulseReset() {}
func (nopPins) CoastSelected() bool { return false }
func (nopPins) ForwardClear() bool { return true }
func (nopPins) ReverseClear() bool { return true }
func (nopPins) Set(bool, bool) {}
func (nopPins) ClearInterrupt() {}
func (nopPins) Empty() bool { return true }
func (nopPins) Read() uint16 { return 0 }

type nopEncoder struct{}

func (nopEncoder) Init() error { return nil }
func (nopEncoder) Count() int32 { return 0 }
func (nopEncoder) SetCount(int32) {}
func (nopEncoder) Direction() int32 { return 1 }
func (nopEncoder) Value() uint32 { return 0 }
func (nopEncoder) Configure(uint32, bool) error { return nil }
func (nopEncoder) Reload() {}
func (nopEncoder) ClearInterrupt() {}

type nopFan struct{}

func (nopFan) Set(bool) {}

func TestApply(t *testing.T) {
	b := core.NewBoard(core.Drivers{
		Bridge:    nopDrivers{},
		Gate:      nopPins{},
		Jumper:    nopPins{},
		Limits:    nopPins{},
		ADC:       nopPins{},
		QEI:       nopEncoder{},
		EdgeTimer: nopEncoder{},
		Watchdog:  nopEncoder{},
		LED:       nopPins{},
		Fan:       nopFan{},
	})
	if err := b.Init(); err != nil {
		t.Fatalf("Init: %v", err)
	}

	cfg, err := Load([]byte(`{
		"encoder_lines": 500,
		"pot_turns": 3,
		"brake_coast": "brake",
		"position_reference": "pot",
		"max_voltage": 6,
		"reverse_limit": {"position": -1.5, "less_than": false}
	}`))
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	cfg.Apply(b)

	if b.Encoder().Lines() != 500 || b.ADC().PotTurns() != 3 {
		t.Errorf("lines=%d turns=%d", b.Encoder().Lines(), b.ADC().PotTurns())
	}
	if b.Bridge().BrakeCoastMode() != core.ModeBrake || b.PositionReference() != core.PositionPot {
		t.Error("modes not applied")
	}
	if b.Bridge().VoltageLimit() != 16383 {
		t.Errorf("voltage limit = %d, want 16383", b.Bridge().VoltageLimit())
	}
	if !b.Limit().PositionLimitsActive() {
		t.Error("position limits not enabled")
	}
	if pos, lt := b.Limit().ReverseLimit(); pos != -3*core.Fix16One/2 || lt {
		t.Errorf("reverse limit = %v %v", pos, lt)
	}

	Default().Apply(b)
	if b.Limit().PositionLimitsActive() {
		t.Error("default config left position limits on")
	}
}
