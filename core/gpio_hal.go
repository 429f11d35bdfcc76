package core

// GateDriver is the digital I/O to the MOSFET gate driver.
type GateDriver interface {
	Init() error

	// Faulted reports the gate driver's fault output. The line is active
	// low; implementations return true while it reads low.
	Faulted() bool

	// PulseReset drives the reset line low for 1us and releases it,
	// clearing any fault latched in the gate driver.
	PulseReset()
}

// ModeJumper is the brake/coast selection input. Its pull-down makes brake
// the default when no jumper is fitted.
type ModeJumper interface {
	CoastSelected() bool
}

// LimitInputs are the forward and reverse limit switch inputs. The switches
// are normally closed; Clear reports true when motion in that direction is
// allowed.
type LimitInputs interface {
	ForwardClear() bool
	ReverseClear() bool
}

// AutoRampProber is implemented by limit inputs that can detect a jumper
// shorting the forward and reverse inputs together at boot, which selects
// auto-ramp mode and disables the hard limits.
type AutoRampProber interface {
	ProbeAutoRamp() bool
}

// StatusLED is the bicolor status LED. Amber is both diodes lit.
type StatusLED interface {
	Set(red, green bool)
}

// FanOutput switches the cooling fan.
type FanOutput interface {
	Set(on bool)
}

var (
	gateDriver  GateDriver
	modeJumper  ModeJumper
	limitInputs LimitInputs
	statusLED   StatusLED
	fanOutput   FanOutput
)

// SetGateDriver is called by target-specific code to register its driver.
func SetGateDriver(d GateDriver) { gateDriver = d }

// SetModeJumper is called by target-specific code to register its driver.
func SetModeJumper(d ModeJumper) { modeJumper = d }

// SetLimitInputs is called by target-specific code to register its driver.
func SetLimitInputs(d LimitInputs) { limitInputs = d }

// SetStatusLED is called by target-specific code to register its driver.
func SetStatusLED(d StatusLED) { statusLED = d }

// SetFanOutput is called by target-specific code to register its driver.
func SetFanOutput(d FanOutput) { fanOutput = d }

// MustGate returns the configured driver or panics if missing.
func MustGate() GateDriver {
	if gateDriver == nil {
		panic("gate driver not configured")
	}
	return gateDriver
}

// MustModeJumper returns the configured driver or panics if missing.
func MustModeJumper() ModeJumper {
	if modeJumper == nil {
		panic("brake/coast jumper not configured")
	}
	return modeJumper
}

// MustLimitInputs returns the configured driver or panics if missing.
func MustLimitInputs() LimitInputs {
	if limitInputs == nil {
		panic("limit inputs not configured")
	}
	return limitInputs
}

// MustStatusLED returns the configured driver or panics if missing.
func MustStatusLED() StatusLED {
	if statusLED == nil {
		panic("status LED not configured")
	}
	return statusLED
}

// MustFan returns the configured driver or panics if missing.
func MustFan() FanOutput {
	if fanOutput == nil {
		panic("fan output not configured")
	}
	return fanOutput
}
