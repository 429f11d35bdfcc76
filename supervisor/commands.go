package supervisor

import (
	"gobdc/core"
	"gobdc/protocol"
)

// Handle applies a message received on link. Every valid message pets
// the watchdog; status reports from a peer are ignored.
func (s *Supervisor) Handle(m protocol.Message, link core.LinkType) error {
	s.board.Pet(link)

	switch m := m.(type) {
	case *protocol.Heartbeat, *protocol.Status:
	case *protocol.SetVoltage:
		s.SetVoltage(m.Voltage)
	case *protocol.SetMode:
		s.board.Bridge().SetBrakeCoastMode(m.BrakeCoast)
		s.board.SetPositionReference(m.Position)
	case *protocol.ClearSticky:
		s.board.Faults().Sticky(true)
		if m.Counts {
			s.board.Faults().Counts(true)
			core.ClearFaultRing()
		}
		l := s.board.Limit()
		l.ClearStickyForward()
		l.ClearStickyReverse()
		l.ClearStickySoftForward()
		l.ClearStickySoftReverse()
	case *protocol.BlinkID:
		s.board.LED().AnnounceBlinkID(m.Count)
	case *protocol.Shutdown:
		s.forceNeutral()
		s.board.FirmwareUpdateShutdown()
	default:
		return protocol.ErrUnknownMessage
	}
	return nil
}

// Report returns the status message for the current tick.
func (s *Supervisor) Report() *protocol.Status {
	return &protocol.Status{
		Status:     s.board.Status(),
		Supervisor: uint8(s.State()),
		Ticks:      s.ticks,
	}
}
