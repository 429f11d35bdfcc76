package core

import "sync/atomic"

// PositionRef selects the position source used by the soft limits and
// reported in telemetry.
type PositionRef uint32

const (
	PositionEncoder PositionRef = iota
	PositionPot
)

func (r PositionRef) String() string {
	if r == PositionPot {
		return "pot"
	}
	return "encoder"
}

// Drivers is the set of HAL drivers a board is built from.
type Drivers struct {
	Bridge    BridgePWM
	Gate      GateDriver
	Jumper    ModeJumper
	Limits    LimitInputs
	ADC       ADCSequencer
	QEI       QuadratureDecoder
	EdgeTimer EdgeTimer
	Watchdog  WatchdogTimer
	LED       StatusLED
	Fan       FanOutput
}

// Status is a snapshot of the board for telemetry.
type Status struct {
	Voltage     int32
	Current     Fix8
	VBus        Fix8
	Temperature Fix8
	Position    Fix16
	Velocity    Fix16
	Faults      Fault
	Sticky      Fault
	LED         LEDState
	Color       Color
	Limits      LimitBits
	Fan         FanState
	Link        LinkType
	Calibrated  bool
}

// Board owns every motor-control component and routes the interrupt and
// slow-tick entry points to them.
type Board struct {
	faults FaultLog
	link   Link

	bridge   *HBridge
	adc      *ADC
	encoder  *Encoder
	limit    *Limit
	fan      *Fan
	watchdog *Watchdog
	led      *LED

	posRef atomic.Uint32
}

// NewBoard wires the components to the given drivers.
func NewBoard(d Drivers) *Board {
	b := &Board{}
	b.encoder = NewEncoder(d.QEI, d.EdgeTimer)
	b.limit = NewLimit(d.Limits, b.Position)
	b.bridge = NewHBridge(d.Bridge, d.Gate, d.Jumper, b.limit, &b.faults)
	b.adc = NewADC(d.ADC, d.Bridge, b.bridge, &b.faults)
	b.fan = NewFan(d.Fan, b.bridge.Voltage, b.adc.Temperature)
	b.watchdog = NewWatchdog(d.Watchdog, &b.link, &b.faults)
	b.led = NewLED(d.LED, &b.link, &b.faults, b.limit, b.bridge.Voltage)
	return b
}

// NewBoardFromDrivers builds a board from the drivers registered by the
// target. It panics if any is missing.
func NewBoardFromDrivers() *Board {
	return NewBoard(Drivers{
		Bridge:    MustBridge(),
		Gate:      MustGate(),
		Jumper:    MustModeJumper(),
		Limits:    MustLimitInputs(),
		ADC:       MustADC(),
		QEI:       MustQEI(),
		EdgeTimer: MustEdgeTimer(),
		Watchdog:  MustWatchdog(),
		LED:       MustStatusLED(),
		Fan:       MustFan(),
	})
}

// Init brings the hardware up with the bridge parked. Call it before the
// carrier and edge interrupts are enabled.
func (b *Board) Init() error {
	if err := b.bridge.Init(); err != nil {
		return err
	}
	b.limit.Init()
	b.limit.Tick()
	if err := b.encoder.Init(); err != nil {
		return err
	}
	if err := b.adc.Init(); err != nil {
		return err
	}
	b.fan.Init()
	b.led.Init()
	return b.watchdog.Init()
}

// OnConversionComplete is the ADC sequence interrupt entry point.
func (b *Board) OnConversionComplete() { b.adc.OnConversionComplete() }

// OnEncoderEdge is the encoder phase A interrupt entry point.
func (b *Board) OnEncoderEdge() { b.encoder.OnEdge() }

// OnWatchdogExpire is the watchdog interrupt entry point.
func (b *Board) OnWatchdogExpire() { b.watchdog.OnExpire() }

// Pet reports a valid command received on link t.
func (b *Board) Pet(t LinkType) { b.watchdog.Pet(t) }

// Tick is the slow tick entry point, run UpdatesPerSecond times a second.
func (b *Board) Tick() {
	b.limit.Tick()
	b.encoder.Tick()
	b.fan.Tick()
	b.led.Tick()
}

// SetPositionReference selects the position source.
func (b *Board) SetPositionReference(r PositionRef) {
	b.posRef.Store(uint32(r))
}

// PositionReference returns the position source.
func (b *Board) PositionReference() PositionRef {
	return PositionRef(b.posRef.Load())
}

// Position returns the shaft position from the selected source.
func (b *Board) Position() Fix16 {
	if b.PositionReference() == PositionPot {
		return b.adc.PotPosition()
	}
	return b.encoder.Position()
}

// FirmwareUpdateShutdown stops driving the motor and darkens the LED ahead
// of a firmware update.
func (b *Board) FirmwareUpdateShutdown() {
	b.bridge.SetVoltage(0)
	b.bridge.FirmwareUpdateShutdown()
	b.led.FirmwareUpdateShutdown()
}

// Status assembles a telemetry snapshot. Sticky faults are not cleared.
func (b *Board) Status() Status {
	return Status{
		Voltage:     b.bridge.Voltage(),
		Current:     b.adc.Current(),
		VBus:        b.adc.BusVoltage(),
		Temperature: b.adc.Temperature(),
		Position:    b.Position(),
		Velocity:    b.encoder.Velocity(true),
		Faults:      b.faults.Active(),
		Sticky:      b.faults.Sticky(false),
		LED:         b.led.State(),
		Color:       b.led.Color(),
		Limits:      b.limit.Bits(),
		Fan:         b.fan.State(),
		Link:        b.link.Type(),
		Calibrated:  b.adc.CalibrationDone(),
	}
}

// Bridge returns the H-bridge driver.
func (b *Board) Bridge() *HBridge { return b.bridge }

// ADC returns the conversion and protection handler.
func (b *Board) ADC() *ADC { return b.adc }

// Encoder returns the quadrature encoder.
func (b *Board) Encoder() *Encoder { return b.encoder }

// Limit returns the limit switch and soft limit interlock.
func (b *Board) Limit() *Limit { return b.limit }

// Fan returns the fan controller.
func (b *Board) Fan() *Fan { return b.fan }

// LED returns the status annunciator.
func (b *Board) LED() *LED { return b.led }

// Faults returns the fault aggregator.
func (b *Board) Faults() *FaultLog { return &b.faults }

// Link returns the command link tracker.
func (b *Board) Link() *Link { return &b.link }

// Watchdog returns the link watchdog.
func (b *Board) Watchdog() *Watchdog { return b.watchdog }
