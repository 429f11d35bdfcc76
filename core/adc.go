// ADC sampling and protection loop.
// Runs once per PWM carrier period from the sequence-complete interrupt.
package core

import "sync/atomic"

// Conversions between 10-bit codes and engineering units. Current and bus
// voltage are 8.8 amperes and volts.

// CurrentToADC returns the code for a winding current.
func CurrentToADC(c Fix8) uint32 {
	return (uint32(c)*1944 - 1072) / 65536
}

// ADCToCurrent returns the winding current for a code above the zero offset.
func ADCToCurrent(a uint32) uint32 {
	return (a*2202991 + 10081885) / 65536
}

// VBusToADC returns the code for a bus voltage.
func VBusToADC(v Fix8) uint32 {
	return uint32(v) * 1024 / (36 * 256)
}

// ADCToVBus returns the bus voltage for a code.
func ADCToVBus(a uint32) Fix8 {
	return Fix8(a * 36 * 256 / 1024)
}

// ADCToTemperature returns the die temperature in 8.8 degrees C. Codes
// above 684 read as below zero.
func ADCToTemperature(a uint32) Fix8 {
	return Fix8(131*256 - int32(a)*49)
}

var (
	currentMinimumCode = CurrentToADC(CurrentMinimumLevel)
	currentNominalCode = CurrentToADC(CurrentNominalLevel)
	currentShutoffCode = CurrentToADC(CurrentShutoffLevel)
	vbusShutdownCode   = VBusToADC(ShutdownVoltage)
)

// CurrentCounterMax is the I2t budget: running at the shutoff level for
// CurrentShutoffTime periods exhausts it.
var CurrentCounterMax = (currentShutoffCode - currentMinimumCode) *
	(currentShutoffCode - currentMinimumCode) * CurrentShutoffTime

// calState tracks zero-current calibration.
type calState uint32

const (
	calUnresolved calState = iota // first bucket still filling
	calWaiting                    // waiting for the ring to wrap
	calResolved
)

// Ticker is anything advanced once per period by the loop that owns it.
type Ticker interface {
	Tick()
}

// Samples is one conversion group in raw codes.
type Samples struct {
	Current     uint16
	VBus        uint16
	Position    uint16
	Temperature uint16
}

// ADC owns the sample sequencer and the protection state.
type ADC struct {
	seq    ADCSequencer
	pwm    BridgePWM
	bridge Ticker
	faults FaultSink

	samples  sampleCell
	average  atomic.Uint32
	zero     atomic.Uint32
	cal      atomic.Uint32
	counter  atomic.Uint32
	potTurns atomic.Int32

	// ISR-owned
	buckets     [bucketCount]uint32
	bucket      uint32
	fill        uint32
	tempLatched bool
	vbusLow     uint32
}

// NewADC wires the loop. bridge is ticked first in every interrupt so the
// next period's PWM is staged before anything else runs.
func NewADC(seq ADCSequencer, pwm BridgePWM, bridge Ticker, faults FaultSink) *ADC {
	a := &ADC{
		seq:    seq,
		pwm:    pwm,
		bridge: bridge,
		faults: faults,
	}
	a.potTurns.Store(1)
	return a
}

// Init programs the sequencer and restarts calibration.
func (a *ADC) Init() error {
	if err := a.seq.Init(); err != nil {
		return err
	}
	a.Recalibrate()
	return nil
}

// Recalibrate discards the zero-current offset and measures it again over
// the next full averaging window. The motor should be idle.
func (a *ADC) Recalibrate() {
	a.cal.Store(uint32(calUnresolved))
}

// OnConversionComplete is the sequence-complete interrupt handler.
func (a *ADC) OnConversionComplete() {
	a.seq.ClearInterrupt()
	a.pwm.ClearTrigger()
	a.bridge.Tick()

	var group [adcGroupSize]uint32
	for i := range group {
		if a.seq.Empty() {
			return
		}
		group[i] = uint32(a.seq.Read())
	}
	if !a.seq.Empty() {
		for !a.seq.Empty() {
			a.seq.Read()
		}
		return
	}
	a.samples.publish(group[ChanCurrent], group[ChanVBus], group[ChanPosition], group[ChanTemperature])

	a.accumulate(group[ChanCurrent])
	a.checkCurrent(group[ChanCurrent])
	a.checkTemperature(group[ChanTemperature])
	a.checkVBus(group[ChanVBus])
}

// accumulate adds a current sample to the active bucket and publishes the
// window average each time a bucket fills.
func (a *ADC) accumulate(code uint32) {
	a.buckets[a.bucket] += code
	a.fill++
	if a.fill < bucketSamples {
		return
	}
	var sum uint32
	for _, b := range a.buckets {
		sum += b
	}
	a.average.Store(sum / averageWindow)

	a.fill = 0
	a.bucket = (a.bucket + 1) % bucketCount
	a.buckets[a.bucket] = 0
	a.advanceCalibration()
}

func (a *ADC) advanceCalibration() {
	switch calState(a.cal.Load()) {
	case calUnresolved:
		if a.bucket != 0 {
			a.cal.CompareAndSwap(uint32(calUnresolved), uint32(calWaiting))
		}
	case calWaiting:
		if a.bucket == 0 {
			a.zero.Store(a.average.Load())
			a.cal.CompareAndSwap(uint32(calWaiting), uint32(calResolved))
		}
	}
}

// checkCurrent integrates time spent above the nominal level. The counter
// stays in [0, CurrentCounterMax+1], so it trips while the budget is
// exhausted and drains back in a bounded time.
func (a *ADC) checkCurrent(code uint32) {
	c := a.counter.Load()
	if code > currentNominalCode {
		d := code - currentMinimumCode
		d *= d
		if ceil := CurrentCounterMax + 1; d >= ceil-c {
			c = ceil
		} else {
			c += d
		}
		a.counter.Store(c)
		if c > CurrentCounterMax {
			a.faults.SignalFault(FaultCurrent)
		}
		return
	}
	d := currentNominalCode - code
	d *= d
	if d > c {
		c = 0
	} else {
		c -= d
	}
	a.counter.Store(c)
}

func (a *ADC) checkTemperature(code uint32) {
	t := ADCToTemperature(code)
	if (!a.tempLatched && t > ShutdownTemperature+ShutdownTemperatureHysteresis) ||
		(a.tempLatched && t > ShutdownTemperature-ShutdownTemperatureHysteresis) {
		a.faults.SignalFault(FaultTemperature)
		a.tempLatched = true
		return
	}
	a.tempLatched = false
}

func (a *ADC) checkVBus(code uint32) {
	if code >= vbusShutdownCode {
		a.vbusLow = 0
		return
	}
	a.vbusLow++
	if a.vbusLow >= ShutdownVoltageTime {
		a.faults.SignalFault(FaultVBus)
	}
}

// Snapshot returns the last complete conversion group.
func (a *ADC) Snapshot() Samples {
	c, v, p, t := a.samples.load()
	return Samples{Current: uint16(c), VBus: uint16(v), Position: uint16(p), Temperature: uint16(t)}
}

// CalibrationDone reports whether the zero-current offset is known.
func (a *ADC) CalibrationDone() bool {
	return calState(a.cal.Load()) == calResolved
}

// Current returns the averaged winding current in 8.8 amperes. Readings
// below one ampere, and all readings before calibration, are zero.
func (a *ADC) Current() Fix8 {
	if !a.CalibrationDone() {
		return 0
	}
	avg, zero := a.average.Load(), a.zero.Load()
	if avg < zero {
		return 0
	}
	c := ADCToCurrent(avg - zero)
	if c < 256 || c&0x80000000 != 0 {
		return 0
	}
	return Fix8(c)
}

// BusVoltage returns the bus voltage in 8.8 volts.
func (a *ADC) BusVoltage() Fix8 {
	_, v, _, _ := a.samples.load()
	return ADCToVBus(v)
}

// Temperature returns the die temperature in 8.8 degrees C.
func (a *ADC) Temperature() Fix8 {
	_, _, _, t := a.samples.load()
	return ADCToTemperature(t)
}

// SetPotTurns sets the potentiometer travel in turns. A negative count
// reverses the sense of the analog position input.
func (a *ADC) SetPotTurns(turns int32) {
	a.potTurns.Store(turns)
}

// PotTurns returns the potentiometer travel in turns.
func (a *ADC) PotTurns() int32 {
	return a.potTurns.Load()
}

// PotPosition returns the analog position input in 16.16 revolutions.
func (a *ADC) PotPosition() Fix16 {
	_, _, p, _ := a.samples.load()
	return Fix16(int64(p) * int64(a.potTurns.Load()) * 65536 / ADCMax)
}

// CurrentFaultLevel returns the I2t counter. A CURRENT fault is signaled
// while it exceeds CurrentCounterMax.
func (a *ADC) CurrentFaultLevel() uint32 {
	return a.counter.Load()
}
