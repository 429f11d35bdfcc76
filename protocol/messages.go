package protocol

import "gobdc/core"

// MsgID is the first VLQ of every payload.
type MsgID uint8

const (
	MsgStatus MsgID = iota + 1
	MsgSetVoltage
	MsgSetMode
	MsgHeartbeat
	MsgClearSticky
	MsgBlinkID
	MsgShutdown
)

var msgNames = [...]string{
	MsgStatus:      "status",
	MsgSetVoltage:  "set-voltage",
	MsgSetMode:     "set-mode",
	MsgHeartbeat:   "heartbeat",
	MsgClearSticky: "clear-sticky",
	MsgBlinkID:     "blink-id",
	MsgShutdown:    "shutdown",
}

func (id MsgID) String() string {
	if int(id) < len(msgNames) && msgNames[id] != "" {
		return msgNames[id]
	}
	return "unknown"
}

// Message is a payload the link understands.
type Message interface {
	ID() MsgID
	encode(out OutputBuffer)
	decode(r *reader)
}

// Status is the controller's periodic report.
type Status struct {
	core.Status
	Supervisor uint8  `json:"supervisor"`
	Ticks      uint32 `json:"ticks"`
}

// SetVoltage commands a voltage target in 1/32767 of full scale.
type SetVoltage struct {
	Voltage int32 `json:"voltage"`
}

// SetMode selects the neutral behaviour and the position reference.
type SetMode struct {
	BrakeCoast core.BrakeCoastMode `json:"brake_coast"`
	Position   core.PositionRef    `json:"position"`
}

// Heartbeat keeps the link alive without changing anything.
type Heartbeat struct{}

// ClearSticky clears the sticky fault and limit flags and, if Counts is set,
// the fault counters.
type ClearSticky struct {
	Counts bool `json:"counts"`
}

// BlinkID asks the controller to blink its status LED Count times.
type BlinkID struct {
	Count uint8 `json:"count"`
}

// Shutdown parks the controller ahead of a firmware update.
type Shutdown struct{}

func (*Status) ID() MsgID { return MsgStatus }
func (*SetVoltage) ID() MsgID { return MsgSetVoltage }
func (*SetMode) ID() MsgID { return MsgSetMode }
func (*Heartbeat) ID() MsgID { return MsgHeartbeat }
func (*ClearSticky) ID() MsgID { return MsgClearSticky }
func (*BlinkID) ID() MsgID { return MsgBlinkID }
func (*Shutdown) ID() MsgID { return MsgShutdown }

func (m *Status) encode(out OutputBuffer) {
	EncodeVLQInt(out, m.Voltage)
	EncodeVLQInt(out, int32(m.Current))
	EncodeVLQInt(out, int32(m.VBus))
	EncodeVLQInt(out, int32(m.Temperature))
	EncodeVLQInt(out, int32(m.Position))
	EncodeVLQInt(out, int32(m.Velocity))
	EncodeVLQUint(out, uint32(m.Faults))
	EncodeVLQUint(out, uint32(m.Sticky))
	EncodeVLQUint(out, uint32(m.LED))
	EncodeVLQUint(out, uint32(m.Color))
	EncodeVLQUint(out, uint32(m.Limits))
	EncodeVLQUint(out, uint32(m.Fan))
	EncodeVLQUint(out, uint32(m.Link))
	EncodeVLQUint(out, boolVLQ(m.Calibrated))
	EncodeVLQUint(out, uint32(m.Supervisor))
	EncodeVLQUint(out, m.Ticks)
}

func (m *Status) decode(r *reader) {
	m.Voltage = r.int()
	m.Current = core.Fix8(r.int())
	m.VBus = core.Fix8(r.int())
	m.Temperature = core.Fix8(r.int())
	m.Position = core.Fix16(r.int())
	m.Velocity = core.Fix16(r.int())
	m.Faults = core.Fault(r.uint())
	m.Sticky = core.Fault(r.uint())
	m.LED = core.LEDState(r.uint())
	m.Color = core.Color(r.uint())
	m.Limits = core.LimitBits(r.uint())
	m.Fan = core.FanState(r.uint())
	m.Link = core.LinkType(r.uint())
	m.Calibrated = r.uint() != 0
	m.Supervisor = uint8(r.uint())
	m.Ticks = r.uint()
}

func (m *SetVoltage) encode(out OutputBuffer) { EncodeVLQInt(out, m.Voltage) }
func (m *SetVoltage) decode(r *reader) { m.Voltage = r.int() }

func (m *SetMode) encode(out OutputBuffer) {
	EncodeVLQUint(out, uint32(m.BrakeCoast))
	EncodeVLQUint(out, uint32(m.Position))
}

func (m *SetMode) decode(r *reader) {
	m.BrakeCoast = core.BrakeCoastMode(r.uint())
	m.Position = core.PositionRef(r.uint())
}

func (*Heartbeat) encode(OutputBuffer) {}
func (*Heartbeat) decode(*reader) {}

func (m *ClearSticky) encode(out OutputBuffer) { EncodeVLQUint(out, boolVLQ(m.Counts)) }
func (m *ClearSticky) decode(r *reader) { m.Counts = r.uint() != 0 }

func (m *BlinkID) encode(out OutputBuffer) { EncodeVLQUint(out, uint32(m.Count)) }
func (m *BlinkID) decode(r *reader) { m.Count = uint8(r.uint()) }

func (*Shutdown) encode(OutputBuffer) {}
func (*Shutdown) decode(*reader) {}

func boolVLQ(b bool) uint32 {
	if b {
		return 1
	}
	return 0
}

// EncodeMessage writes m's payload, ID first.
func EncodeMessage(out OutputBuffer, m Message) {
	EncodeVLQUint(out, uint32(m.ID()))
	m.encode(out)
}

// DecodeMessage parses a frame payload. Trailing bytes after the known
// fields are ignored so newer senders can append fields.
func DecodeMessage(payload []byte) (Message, error) {
	r := reader{data: payload}
	id := MsgID(r.uint())
	if r.err != nil {
		return nil, r.err
	}
	m := newMessage(id)
	if m == nil {
		return nil, ErrUnknownMessage
	}
	m.decode(&r)
	if r.err != nil {
		return nil, r.err
	}
	return m, nil
}

func newMessage(id MsgID) Message {
	switch id {
	case MsgStatus:
		return &Status{}
	case MsgSetVoltage:
		return &SetVoltage{}
	case MsgSetMode:
		return &SetMode{}
	case MsgHeartbeat:
		return &Heartbeat{}
	case MsgClearSticky:
		return &ClearSticky{}
	case MsgBlinkID:
		return &BlinkID{}
	case MsgShutdown:
		return &Shutdown{}
	}
	return nil
}

// reader decodes VLQ fields, keeping the first error.
type reader struct {
	data []byte
	err  error
}

func (r *reader) int() int32 {
	if r.err != nil {
		return 0
	}
	v, err := DecodeVLQInt(&r.data)
	r.err = err
	return v
}

func (r *reader) uint() uint32 {
	return uint32(r.int())
}
