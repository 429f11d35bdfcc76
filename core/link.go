package core

// LinkType identifies the command link carrying traffic to the controller.
type LinkType uint8

const (
	LinkNone LinkType = iota
	LinkCAN
	LinkUART
	LinkServo
)

func (t LinkType) String() string {
	switch t {
	case LinkCAN:
		return "can"
	case LinkUART:
		return "uart"
	case LinkServo:
		return "servo"
	}
	return "none"
}

type linkFlag uint32

const (
	linkFlagCAN linkFlag = 1 << iota
	linkFlagUART
	linkFlagServo
	linkFlagHave
	linkFlagLost

	linkFlagTypes = linkFlagCAN | linkFlagUART | linkFlagServo
)

func (t LinkType) flag() linkFlag {
	switch t {
	case LinkCAN:
		return linkFlagCAN
	case LinkUART:
		return linkFlagUART
	case LinkServo:
		return linkFlagServo
	}
	return linkFlagTypes
}

// LinkSink receives link state changes from the interface drivers and the
// watchdog.
type LinkSink interface {
	LinkGood(t LinkType)
	LinkLost(t LinkType)
}

// Link tracks which command link is active.
type Link struct {
	flags Bitset[linkFlag]
}

var _ LinkSink = (*Link)(nil)

// LinkGood records valid traffic on link t, which becomes the only active
// link type.
func (l *Link) LinkGood(t LinkType) {
	if t == LinkNone {
		return
	}
	state := disableInterrupts()
	l.flags.Clear(linkFlagTypes | linkFlagLost)
	l.flags.Set(t.flag() | linkFlagHave)
	restoreInterrupts(state)
}

// LinkLost drops link t, or every link for LinkNone, and raises the loss
// flag that the supervisor consumes with Acknowledge.
func (l *Link) LinkLost(t LinkType) {
	state := disableInterrupts()
	l.flags.Clear(t.flag())
	l.flags.Set(linkFlagLost)
	restoreInterrupts(state)
}

// Acknowledge consumes a pending loss and marks the link inactive. It
// reports whether a loss was pending.
func (l *Link) Acknowledge() bool {
	if !l.flags.TestAndClear(linkFlagLost) {
		return false
	}
	l.flags.Clear(linkFlagHave)
	return true
}

// Lost reports whether a loss is pending acknowledgement.
func (l *Link) Lost() bool {
	return l.flags.Has(linkFlagLost)
}

// Active reports whether a command link is established and has not been
// lost since.
func (l *Link) Active() bool {
	f := l.flags.Load()
	return f&linkFlagHave != 0 && f&linkFlagLost == 0
}

// Type returns the active link type, servo taking precedence over CAN over
// UART.
func (l *Link) Type() LinkType {
	f := l.flags.Load()
	switch {
	case f&linkFlagServo != 0:
		return LinkServo
	case f&linkFlagCAN != 0:
		return LinkCAN
	case f&linkFlagUART != 0:
		return LinkUART
	}
	return LinkNone
}
