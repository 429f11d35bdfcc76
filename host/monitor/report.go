package monitor

import (
	"time"

	"gobdc/core"
	"gobdc/protocol"
)

// Report is a status report in engineering units, as published to MQTT and
// the websocket clients.
type Report struct {
	Time        time.Time `json:"time"`
	Voltage     float64   `json:"voltage"` // fraction of full scale, -1..1
	Current     float64   `json:"current_a"`
	VBus        float64   `json:"vbus_v"`
	Temperature float64   `json:"temperature_c"`
	Position    float64   `json:"position_rev"`
	Velocity    float64   `json:"velocity_rpm"`
	Faults      string    `json:"faults"`
	Sticky      string    `json:"sticky"`
	LED         string    `json:"led"`
	Color       string    `json:"color"`
	ForwardOK   bool      `json:"forward_ok"`
	ReverseOK   bool      `json:"reverse_ok"`
	Fan         string    `json:"fan"`
	Link        string    `json:"link"`
	Calibrated  bool      `json:"calibrated"`
	State       string    `json:"state"`
	Ticks       uint32    `json:"ticks"`

	color core.Color
}

// supervisorStates names the state byte of a status report.
var supervisorStates = [...]string{"wait-for-link", "run", "fault"}

// NewReport converts a status report received at t.
func NewReport(s *protocol.Status, t time.Time) Report {
	state := "unknown"
	if int(s.Supervisor) < len(supervisorStates) {
		state = supervisorStates[s.Supervisor]
	}
	return Report{
		Time:        t,
		Voltage:     float64(s.Voltage) / core.VoltageFull,
		Current:     fix8(s.Current),
		VBus:        fix8(s.VBus),
		Temperature: fix8(s.Temperature),
		Position:    fix16(s.Position),
		Velocity:    fix16(s.Velocity),
		Faults:      s.Faults.String(),
		Sticky:      s.Sticky.String(),
		LED:         s.LED.String(),
		Color:       s.Color.String(),
		ForwardOK:   s.Limits&core.LimitBitFwd != 0,
		ReverseOK:   s.Limits&core.LimitBitRev != 0,
		Fan:         s.Fan.String(),
		Link:        s.Link.String(),
		Calibrated:  s.Calibrated,
		State:       state,
		Ticks:       s.Ticks,
		color:       s.Color,
	}
}

// Faulted reports whether any fault is active.
func (r Report) Faulted() bool { return r.Faults != core.Fault(0).String() }

func fix8(f core.Fix8) float64 { return float64(f) / 256 }

func fix16(f core.Fix16) float64 { return float64(f) / 65536 }

// LEDColor returns the colour the controller's LED is showing.
func (r Report) LEDColor() core.Color { return r.color }
