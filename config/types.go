package config

// SoftLimit is one soft position limit. Position is in shaft revolutions.
type SoftLimit struct {
	Position float64 `json:"position"`
	LessThan bool    `json:"less_than"` // motion is allowed while below Position
}

// PinMap assigns board signals to GPIO numbers.
type PinMap struct {
	PlusHigh  uint8 `json:"plus_high"` // PWM slice channel A
	PlusLow   uint8 `json:"plus_low"`  // same slice, channel B
	MinusHigh uint8 `json:"minus_high"`
	MinusLow  uint8 `json:"minus_low"`

	GateFault uint8 `json:"gate_fault"`
	GateReset uint8 `json:"gate_reset"`
	Jumper    uint8 `json:"jumper"`

	LimitForward uint8 `json:"limit_forward"`
	LimitReverse uint8 `json:"limit_reverse"`

	EncoderA uint8 `json:"encoder_a"`
	EncoderB uint8 `json:"encoder_b"`

	LEDRed   uint8 `json:"led_red"`
	LEDGreen uint8 `json:"led_green"`
	LEDPixel uint8 `json:"led_pixel"` // WS2812 data pin
	Fan      uint8 `json:"fan"`
}

// BoardConfig is the controller configuration loaded at boot.
type BoardConfig struct {
	EncoderLines uint32 `json:"encoder_lines"`
	PotTurns     int32  `json:"pot_turns"`

	BrakeCoast        string  `json:"brake_coast"`        // "jumper", "brake" or "coast"
	PositionReference string  `json:"position_reference"` // "encoder" or "pot"
	MaxVoltage        float64 `json:"max_voltage"`        // volts of bus; 0 disables scaling
	RampRate          uint32  `json:"ramp_rate"`          // per-tick slew; 0 steps

	ForwardLimit *SoftLimit `json:"forward_limit,omitempty"`
	ReverseLimit *SoftLimit `json:"reverse_limit,omitempty"`

	DeviceNumber uint8  `json:"device_number"`
	TelemetryMS  uint32 `json:"telemetry_ms"`

	LED   string `json:"led"`   // "gpio" or "ws2812"
	Debug bool   `json:"debug"` // trace state changes on UART1
	Pins  PinMap `json:"pins"`
}
