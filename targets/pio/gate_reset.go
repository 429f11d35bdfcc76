//go:build rp2040 || rp2350

package pio

import (
	"errors"
	"machine"

	rp2pio "github.com/tinygo-org/pio/rp2-pio"
)

// buildGateResetProgram creates the reset pulse program using AssemblerV0.
// Each word pulled from the FIFO produces one low pulse on the SET pin.
func buildGateResetProgram() []uint16 {
	asm := rp2pio.AssemblerV0{SidesetBits: 0}
	return []uint16{
		// .wrap_target
		asm.Pull(false, true).Encode(),                                // 0: pull block
		asm.Set(rp2pio.SetDestPins, 0).Delay(gateResetDelay).Encode(), // 1: set pins, 0 [31]
		asm.Set(rp2pio.SetDestPins, 1).Encode(),                       // 2: set pins, 1
		// .wrap
	}
}

// GateReset times the gate driver's reset pulse in a PIO state machine, so
// the 1us low time does not depend on interrupt latency.
type GateReset struct {
	pio    *rp2pio.PIO
	sm     rp2pio.StateMachine
	pin    machine.Pin
	pioNum uint8
	smNum  uint8
}

// NewGateReset claims a free state machine for the reset line on pin.
func NewGateReset(pin machine.Pin) (*GateReset, error) {
	pioNum, smNum, ok := allocatePIO()
	if !ok {
		return nil, errors.New("pio: no free state machine")
	}
	pioHW := rp2pio.PIO0
	if pioNum == 1 {
		pioHW = rp2pio.PIO1
	}
	return &GateReset{
		pio:    pioHW,
		sm:     pioHW.StateMachine(smNum),
		pin:    pin,
		pioNum: pioNum,
		smNum:  smNum,
	}, nil
}

// Init loads the program and parks the line high.
func (g *GateReset) Init() error {
	g.sm.TryClaim()

	program := buildGateResetProgram()
	offset, err := g.pio.AddProgram(program, -1)
	if err != nil {
		releasePIO(g.pioNum, g.smNum)
		return err
	}

	g.pin.Configure(machine.PinConfig{Mode: g.pio.PinMode()})

	cfg := rp2pio.DefaultStateMachineConfig()
	cfg.SetSetPins(g.pin, 1)
	cfg.SetWrap(offset+uint8(len(program))-1, offset)
	cfg.SetClkDivIntFrac(gateResetClkDiv, 0)

	// Initialize state machine FIRST, then pin direction and level
	g.sm.Init(offset, cfg)
	g.sm.SetPindirsConsecutive(g.pin, 1, true)
	g.sm.SetPinsConsecutive(g.pin, 1, true)
	g.sm.SetEnabled(true)
	return nil
}

// Pulse queues one reset pulse. It returns at once; a pulse already queued
// is enough, so a full FIFO drops the request.
func (g *GateReset) Pulse() {
	if g.sm.IsTxFIFOFull() {
		return
	}
	g.sm.TxPut(1)
}
