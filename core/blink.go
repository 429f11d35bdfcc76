package core

// Color is a bicolor LED color. Bit 0 drives red and bit 1 drives green.
type Color uint8

const (
	ColorBlack Color = iota
	ColorRed
	ColorGreen
	ColorAmber
)

func (c Color) String() string {
	switch c {
	case ColorRed:
		return "red"
	case ColorGreen:
		return "green"
	case ColorAmber:
		return "amber"
	}
	return "black"
}

// Red reports whether the red diode is lit.
func (c Color) Red() bool { return c&ColorRed != 0 }

// Green reports whether the green diode is lit.
func (c Color) Green() bool { return c&ColorGreen != 0 }

// pattern is a two-phase blink in slow ticks.
type pattern struct {
	onTicks  uint32
	on       Color
	offTicks uint32
	off      Color
}

func blink(onMS uint32, on Color, offMS uint32, off Color) pattern {
	return pattern{
		onTicks:  MSToUpdates(onMS),
		on:       on,
		offTicks: MSToUpdates(offMS),
		off:      off,
	}
}

func solid(c Color) pattern {
	return blink(100, c, 100, c)
}

const blinkPhase = 0x80000000

// blinker steps a pattern. The top bit of count is the phase, set while the
// on color shows; the low bits count down the ticks left in the phase.
type blinker struct {
	p     pattern
	count uint32
}

// load switches to p, starting with the on phase at the next step.
func (b *blinker) load(p pattern) {
	b.p = p
	b.count = 0
}

// step advances one tick. It returns the color to show and true when a
// phase starts on this tick.
func (b *blinker) step() (Color, bool) {
	if b.count&^blinkPhase != 0 {
		b.count--
		return 0, false
	}
	b.count ^= blinkPhase
	if b.count&blinkPhase != 0 {
		b.count |= b.p.onTicks
		return b.p.on, true
	}
	b.count |= b.p.offTicks
	return b.p.off, true
}
