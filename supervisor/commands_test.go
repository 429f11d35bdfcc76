package supervisor

import (
	"testing"

	"gobdc/core"
	"gobdc/protocol"
)

func TestHandleCommands(t *testing.T) {
	r := newRig(t, pins{})
	r.calibrate(t)

	if err := r.sup.Handle(&protocol.Heartbeat{}, core.LinkUART); err != nil {
		t.Fatalf("Heartbeat: %v", err)
	}
	if !r.board.Link().Active() || r.board.Link().Type() != core.LinkUART {
		t.Fatal("heartbeat did not establish the link")
	}
	r.sup.Step()

	r.sup.Handle(&protocol.SetVoltage{Voltage: 10000}, core.LinkUART)
	r.sup.Step()
	if got := r.board.Bridge().Voltage(); got != 10000 {
		t.Errorf("voltage = %d", got)
	}

	r.sup.Handle(&protocol.SetMode{BrakeCoast: core.ModeCoast, Position: core.PositionPot}, core.LinkUART)
	if r.board.Bridge().BrakeCoastMode() != core.ModeCoast || r.board.PositionReference() != core.PositionPot {
		t.Error("mode not applied")
	}

	r.board.Faults().SignalFault(core.FaultTemperature)
	r.sup.Handle(&protocol.ClearSticky{Counts: true}, core.LinkUART)
	if r.board.Faults().Sticky(false) != 0 || r.board.Faults().Counts(false).Temperature != 0 {
		t.Error("sticky faults or counts not cleared")
	}
	if n := len(core.FaultEvents()); n != 0 {
		t.Errorf("fault ring holds %d events after clearing counts", n)
	}
	if !r.board.Limit().StickyForwardOK() {
		t.Error("limit sticky bits not cleared")
	}

	if err := r.sup.Handle(&protocol.Shutdown{}, core.LinkUART); err != nil {
		t.Fatalf("Shutdown: %v", err)
	}
	if r.sup.Target() != 0 || r.board.Bridge().Voltage() != 0 {
		t.Error("shutdown left the bridge driven")
	}
}

func TestReport(t *testing.T) {
	r := running(t)
	r.sup.SetVoltage(-20000)
	r.sup.Step()

	rep := r.sup.Report()
	if rep.Voltage != -20000 || rep.Supervisor != uint8(StateRun) || rep.Ticks != r.sup.Ticks() {
		t.Errorf("report = %+v", rep)
	}
	if !rep.Calibrated || rep.Link != core.LinkUART {
		t.Errorf("report = %+v", rep)
	}
}
