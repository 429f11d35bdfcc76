package core

// ADCChannel is the position of a result within a conversion group. The
// sequencer is programmed to convert the channels in this order.
type ADCChannel uint8

const (
	ChanCurrent ADCChannel = iota
	ChanVBus
	ChanPosition
	ChanTemperature
	adcGroupSize
)

// ADCMax is the largest code of the 10-bit converter.
const ADCMax = 1023

// ADCSequencer is a sample sequencer triggered by the bridge PWM once per
// carrier period. It converts all four channels and raises its interrupt
// when the group is in the FIFO.
type ADCSequencer interface {
	// Init programs the channel order and enables the PWM trigger.
	Init() error

	// ClearInterrupt acknowledges the sequence-complete interrupt.
	ClearInterrupt()

	// Empty reports whether the result FIFO is empty.
	Empty() bool

	// Read pops one 10-bit result from the FIFO.
	Read() uint16
}

var adcDriver ADCSequencer

// SetADCDriver is called by target-specific code to register its driver.
func SetADCDriver(d ADCSequencer) {
	adcDriver = d
}

// MustADC returns the configured driver or panics if missing.
func MustADC() ADCSequencer {
	if adcDriver == nil {
		panic("ADC sequencer not configured")
	}
	return adcDriver
}
