package core

// Clocking. All tick counts in this package are in SysClk cycles unless
// the name says otherwise.
const (
	SysClk           = 16000000
	PWMFrequency     = 15625
	PWMPeriodTicks   = SysClk / PWMFrequency  // 1024
	PWMMinPulseTicks = SysClk * 22 / 10000000 // 2.2us, truncated to 35
	UpdatesPerSecond = 1000                   // slow tick rate
	SysClkPerUpdate  = SysClk / UpdatesPerSecond
	EdgeTimerRange   = 1 << 24 // edge timer is a 24-bit down counter
)

// H-bridge programming.
const (
	CompareIgnore  = 0  // comparator value the generator never acts on
	ADCSampleDelta = 16 // ADC trigger offset past the high-side edge
	VoltageFull    = 32767
	// MaxVoltageFullScale is the bus voltage (8.8 volts) that a VoltageLimit
	// of 32767 corresponds to.
	MaxVoltageFullScale = 12 * 256
)

// Protection thresholds, 8.8 fixed point.
const (
	ShutdownTemperature           Fix8 = 60 * 256
	ShutdownTemperatureHysteresis Fix8 = 1 * 256
	ShutdownVoltage               Fix8 = 6 * 256
	ShutdownVoltageTime                = 1562 // PWM periods (~100ms)

	CurrentMinimumLevel Fix8 = 40 * 256
	CurrentNominalLevel Fix8 = 50 * 256
	CurrentShutoffLevel Fix8 = 60 * 256
	CurrentShutoffTime       = 2 * PWMFrequency // PWM periods
)

// Slow-tick timing, in updates.
const (
	FaultTime       = 3000
	FanCoolingTime  = 10000
	FanTestTime     = 1000
	EncoderWaitTime = 100

	FanTemperature Fix8 = 40 * 256
	FanHysteresis  Fix8 = 2 * 256
)

// WatchdogPeriod is the link watchdog timeout in SysClk cycles (200ms).
const WatchdogPeriod = SysClk / 5

// Current averaging ring.
const (
	bucketCount   = 8
	bucketSamples = 16
	averageWindow = bucketCount * bucketSamples
)

// MSToUpdates converts milliseconds to slow ticks.
func MSToUpdates(ms uint32) uint32 {
	return (ms * UpdatesPerSecond) / 1000
}
