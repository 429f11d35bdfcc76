package core

// QuadratureDecoder is a hardware quadrature counter capturing both edges
// of phase A, which gives two counts per encoder line.
type QuadratureDecoder interface {
	Init() error
	Count() int32
	SetCount(n int32)
	// Direction is +1 when the last movement was forward and -1 otherwise.
	Direction() int32
}

// EdgeTimer is a free-running 24-bit timer counting down at SysClk, used to
// timestamp encoder edges.
type EdgeTimer interface {
	Value() uint32
}

var (
	qeiDriver       QuadratureDecoder
	edgeTimerDriver EdgeTimer
)

// SetQEIDriver is called by target-specific code to register its driver.
func SetQEIDriver(d QuadratureDecoder) {
	qeiDriver = d
}

// MustQEI returns the configured driver or panics if missing.
func MustQEI() QuadratureDecoder {
	if qeiDriver == nil {
		panic("quadrature decoder not configured")
	}
	return qeiDriver
}

// SetEdgeTimerDriver is called by target-specific code to register its driver.
func SetEdgeTimerDriver(d EdgeTimer) {
	edgeTimerDriver = d
}

// MustEdgeTimer returns the configured driver or panics if missing.
func MustEdgeTimer() EdgeTimer {
	if edgeTimerDriver == nil {
		panic("edge timer not configured")
	}
	return edgeTimerDriver
}
