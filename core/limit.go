// Limit switch interlock
package core

import "sync/atomic"

type limitFlag uint32

const (
	limitFwdOK limitFlag = 1 << iota
	limitRevOK
	limitSoftFwdOK
	limitSoftRevOK
	limitStickyFwdOK
	limitStickyRevOK
	limitStickySoftFwdOK
	limitStickySoftRevOK
	limitPositionEnabled
	limitFwdLessThan
	limitRevLessThan
	limitAutoRamp
)

// AutoRampRate is the voltage slew, in command units per slow tick, used
// when the auto-ramp jumper is fitted.
const AutoRampRate = 524

// Limit combines the hard limit switches with optional soft position limits.
// A soft limit is a position and a sense: with lessThan set, motion in that
// direction is allowed only while the position is at or below the limit.
//
// The OK bits are recomputed every tick. The sticky bits start set and are
// cleared by any tick where the matching OK bit is clear; only the host
// sets them again.
type Limit struct {
	inputs   LimitInputs
	position func() Fix16

	flags   Bitset[limitFlag]
	forward atomic.Int32
	reverse atomic.Int32
}

var _ LimitStatus = (*Limit)(nil)

// NewLimit wires the switch inputs and the position used for soft limits.
func NewLimit(inputs LimitInputs, position func() Fix16) *Limit {
	return &Limit{inputs: inputs, position: position}
}

// Init arms the sticky bits and probes for the auto-ramp jumper. All OK bits
// read false until the first Tick. Soft limit settings are kept.
func (l *Limit) Init() {
	l.flags.Clear(limitFwdOK | limitRevOK | limitSoftFwdOK | limitSoftRevOK | limitAutoRamp)
	l.flags.Set(limitStickyFwdOK | limitStickyRevOK | limitStickySoftFwdOK | limitStickySoftRevOK)
	if p, ok := l.inputs.(AutoRampProber); ok && p.ProbeAutoRamp() {
		l.flags.Set(limitAutoRamp)
	}
}

// AutoRamp reports whether the auto-ramp jumper was detected at Init. The
// hard limits are ignored in that mode.
func (l *Limit) AutoRamp() bool {
	return l.flags.Has(limitAutoRamp)
}

// softOK evaluates one soft limit.
func softOK(pos, limit int32, lessThan bool) bool {
	if lessThan {
		return pos <= limit
	}
	return pos >= limit
}

// Tick recomputes the limit bits.
func (l *Limit) Tick() {
	f := l.flags.Load()
	enabled := f&limitPositionEnabled != 0
	var pos int32
	if enabled {
		pos = int32(l.position())
	}
	auto := f&limitAutoRamp != 0

	l.update(auto || l.inputs.ForwardClear(), enabled, pos, l.forward.Load(), f&limitFwdLessThan != 0,
		limitFwdOK, limitSoftFwdOK, limitStickyFwdOK, limitStickySoftFwdOK)
	l.update(auto || l.inputs.ReverseClear(), enabled, pos, l.reverse.Load(), f&limitRevLessThan != 0,
		limitRevOK, limitSoftRevOK, limitStickyRevOK, limitStickySoftRevOK)
}

func (l *Limit) update(hard, enabled bool, pos, limit int32, lessThan bool, ok, soft, sticky, stickySoft limitFlag) {
	s := true
	if hard && enabled {
		s = softOK(pos, limit, lessThan)
	}
	l.flags.Put(ok, hard && s)
	l.flags.Put(soft, s)
	if !hard || !s {
		l.flags.Clear(sticky)
	}
	if !s {
		l.flags.Clear(stickySoft)
	}
}

// ForwardOK reports whether forward motion is allowed.
func (l *Limit) ForwardOK() bool { return l.flags.Has(limitFwdOK) }

// ReverseOK reports whether reverse motion is allowed.
func (l *Limit) ReverseOK() bool { return l.flags.Has(limitRevOK) }

// SoftForwardOK reports whether the forward soft limit allows motion.
func (l *Limit) SoftForwardOK() bool { return l.flags.Has(limitSoftFwdOK) }

// SoftReverseOK reports whether the reverse soft limit allows motion.
func (l *Limit) SoftReverseOK() bool { return l.flags.Has(limitSoftRevOK) }

// StickyForwardOK reports whether the forward switch has stayed closed since
// the last clear.
func (l *Limit) StickyForwardOK() bool { return l.flags.Has(limitStickyFwdOK) }

// StickyReverseOK reports whether the reverse switch has stayed closed since
// the last clear.
func (l *Limit) StickyReverseOK() bool { return l.flags.Has(limitStickyRevOK) }

// StickySoftForwardOK reports whether the forward soft limit has allowed
// motion since the last clear.
func (l *Limit) StickySoftForwardOK() bool { return l.flags.Has(limitStickySoftFwdOK) }

// StickySoftReverseOK reports whether the reverse soft limit has allowed
// motion since the last clear.
func (l *Limit) StickySoftReverseOK() bool { return l.flags.Has(limitStickySoftRevOK) }

// ClearStickyForward re-arms the sticky forward switch flag.
func (l *Limit) ClearStickyForward() { l.flags.Set(limitStickyFwdOK) }

// ClearStickyReverse re-arms the sticky reverse switch flag.
func (l *Limit) ClearStickyReverse() { l.flags.Set(limitStickyRevOK) }

// ClearStickySoftForward re-arms the sticky forward soft limit flag.
func (l *Limit) ClearStickySoftForward() { l.flags.Set(limitStickySoftFwdOK) }

// ClearStickySoftReverse re-arms the sticky reverse soft limit flag.
func (l *Limit) ClearStickySoftReverse() { l.flags.Set(limitStickySoftRevOK) }

// EnablePositionLimits turns the soft limits on.
func (l *Limit) EnablePositionLimits() { l.flags.Set(limitPositionEnabled) }

// DisablePositionLimits turns the soft limits off.
func (l *Limit) DisablePositionLimits() { l.flags.Clear(limitPositionEnabled) }

// PositionLimitsActive reports whether the soft limits are on.
func (l *Limit) PositionLimitsActive() bool { return l.flags.Has(limitPositionEnabled) }

// SetForwardLimit sets the forward soft limit.
func (l *Limit) SetForwardLimit(pos Fix16, lessThan bool) {
	l.forward.Store(int32(pos))
	l.flags.Put(limitFwdLessThan, lessThan)
}

// ForwardLimit returns the forward soft limit.
func (l *Limit) ForwardLimit() (pos Fix16, lessThan bool) {
	return Fix16(l.forward.Load()), l.flags.Has(limitFwdLessThan)
}

// SetReverseLimit sets the reverse soft limit.
func (l *Limit) SetReverseLimit(pos Fix16, lessThan bool) {
	l.reverse.Store(int32(pos))
	l.flags.Put(limitRevLessThan, lessThan)
}

// ReverseLimit returns the reverse soft limit.
func (l *Limit) ReverseLimit() (pos Fix16, lessThan bool) {
	return Fix16(l.reverse.Load()), l.flags.Has(limitRevLessThan)
}

// LimitBits is the limit status as reported to the host.
type LimitBits uint8

const (
	LimitBitFwd LimitBits = 1 << iota
	LimitBitRev
	LimitBitSoftFwd
	LimitBitSoftRev
	LimitBitStickyFwd
	LimitBitStickyRev
	LimitBitStickySoftFwd
	LimitBitStickySoftRev
)

// Bits returns the eight OK and sticky bits in wire order.
func (l *Limit) Bits() LimitBits {
	return LimitBits(l.flags.Load() & 0xff)
}
