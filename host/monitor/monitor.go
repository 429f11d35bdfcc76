// Package monitor watches a motor controller from the host. It keeps the
// controller's link alive, turns its status reports into Reports and fans
// them out to the configured sinks.
package monitor

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"golang.org/x/time/rate"

	"gobdc/core"
	"gobdc/protocol"
)

// Controller is the command and report side of a controller connection.
type Controller interface {
	SetVoltage(v int32) error
	SetMode(mode core.BrakeCoastMode, ref core.PositionRef) error
	Heartbeat() error
	ClearSticky(counts bool) error
	BlinkID(n uint8) error
	NextStatus(ctx context.Context) (*protocol.Status, error)
	Errors() <-chan error
	Stats() protocol.Stats
}

// Sink receives every report.
type Sink interface {
	Publish(r Report) error
}

// SinkFunc adapts a function to a Sink.
type SinkFunc func(r Report) error

func (f SinkFunc) Publish(r Report) error { return f(r) }

// Monitor drives one controller.
type Monitor struct {
	ctl   Controller
	log   *slog.Logger
	cfg   CommandConfig
	sinks []Sink

	target    atomic.Int32
	heartbeat time.Duration

	every    int
	reports  int
	errLimit *rate.Limiter
	dropped  atomic.Uint32 // errors not logged since the last one that was

	mu     sync.Mutex
	latest Report
	have   bool
}

// New returns a monitor for ctl. Reports go to sinks in order.
func New(ctl Controller, cfg *Config, log *slog.Logger, sinks ...Sink) *Monitor {
	m := &Monitor{
		ctl:       ctl,
		log:       log,
		cfg:       cfg.Command,
		sinks:     sinks,
		heartbeat: time.Duration(cfg.Command.HeartbeatMS) * time.Millisecond,
		every:     cfg.Log.StatusEvery,
		errLimit:  rate.NewLimiter(rate.Limit(cfg.Log.ErrorsPerSecond), cfg.Log.ErrorBurst),
	}
	m.target.Store(cfg.Command.Voltage)
	return m
}

// AddSink adds a sink. Call it before Run.
func (m *Monitor) AddSink(s Sink) {
	m.sinks = append(m.sinks, s)
}

// SetTarget changes the commanded voltage. It is sent with the next
// heartbeat.
func (m *Monitor) SetTarget(v int32) error {
	if v < -core.VoltageFull || v > core.VoltageFull {
		return fmt.Errorf("voltage %d outside ±%d", v, core.VoltageFull)
	}
	if old := m.target.Swap(v); old != v {
		m.log.Info("monitor: target changed", "from", old, "to", v)
	}
	return nil
}

// Reload takes the voltage target from a reloaded config.
func (m *Monitor) Reload(cfg *Config) {
	if err := m.SetTarget(cfg.Command.Voltage); err != nil {
		m.logError("monitor: reload", err)
	}
}

// Target returns the commanded voltage.
func (m *Monitor) Target() int32 { return m.target.Load() }

// BlinkID asks the controller to blink its LED n times.
func (m *Monitor) BlinkID(n uint8) error { return m.ctl.BlinkID(n) }

// ClearSticky clears the controller's sticky flags.
func (m *Monitor) ClearSticky(counts bool) error { return m.ctl.ClearSticky(counts) }

// Stats returns the link counters.
func (m *Monitor) Stats() protocol.Stats { return m.ctl.Stats() }

// Latest returns the most recent report.
func (m *Monitor) Latest() (Report, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.latest, m.have
}

// Run configures the controller, then keeps its link fed and handles
// reports until ctx is done. The controller is left at neutral.
func (m *Monitor) Run(ctx context.Context) error {
	mode, err := parseBrakeCoast(m.cfg.Mode)
	if err != nil {
		return err
	}
	ref, err := parsePositionRef(m.cfg.Position)
	if err != nil {
		return err
	}
	if err := m.ctl.SetMode(mode, ref); err != nil {
		return fmt.Errorf("set mode: %w", err)
	}
	if m.cfg.ClearSticky {
		if err := m.ctl.ClearSticky(true); err != nil {
			return fmt.Errorf("clear sticky: %w", err)
		}
	}

	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		m.commandLoop(ctx)
	}()
	go func() {
		defer wg.Done()
		m.errorLoop(ctx)
	}()

	err = m.statusLoop(ctx)
	wg.Wait()
	if serr := m.ctl.SetVoltage(0); serr != nil && err == nil {
		m.logError("monitor: neutral on exit failed", serr)
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return nil
	}
	return err
}

func (m *Monitor) commandLoop(ctx context.Context) {
	ticker := time.NewTicker(m.heartbeat)
	defer ticker.Stop()
	for {
		if err := m.command(); err != nil {
			m.logError("monitor: command failed", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}

// command sends the target, or a bare heartbeat when it is neutral.
func (m *Monitor) command() error {
	if v := m.target.Load(); v != 0 {
		return m.ctl.SetVoltage(v)
	}
	return m.ctl.Heartbeat()
}

func (m *Monitor) errorLoop(ctx context.Context) {
	errs := m.ctl.Errors()
	for {
		select {
		case <-ctx.Done():
			return
		case err, ok := <-errs:
			if !ok {
				return
			}
			m.logError("monitor: link error", err)
		}
	}
}

func (m *Monitor) statusLoop(ctx context.Context) error {
	for {
		s, err := m.ctl.NextStatus(ctx)
		if err != nil {
			return err
		}
		m.handle(NewReport(s, time.Now()))
	}
}

func (m *Monitor) handle(r Report) {
	m.mu.Lock()
	prev, had := m.latest, m.have
	m.latest, m.have = r, true
	m.mu.Unlock()

	m.logReport(prev, had, r)
	for _, s := range m.sinks {
		if err := s.Publish(r); err != nil {
			m.logError("monitor: publish failed", err)
		}
	}
}

// logReport logs changes of state, faults and LED at info, and one report
// in every at debug.
func (m *Monitor) logReport(prev Report, had bool, r Report) {
	switch {
	case !had || prev.State != r.State:
		m.log.Info("monitor: controller state", "state", r.State, "link", r.Link, "calibrated", r.Calibrated)
	case prev.LED != r.LED:
		m.log.Info("monitor: led", "led", r.LED, "color", r.Color)
	}
	if had && prev.Faults != r.Faults {
		if r.Faulted() {
			m.log.Warn("monitor: fault", "faults", r.Faults, "sticky", r.Sticky,
				"current", r.Current, "vbus", r.VBus, "temperature", r.Temperature)
		} else {
			m.log.Info("monitor: faults cleared", "sticky", r.Sticky)
		}
	}

	m.reports++
	if m.every > 0 && m.reports%m.every == 0 {
		m.log.Debug("monitor: status",
			"voltage", r.Voltage,
			"current", r.Current,
			"vbus", r.VBus,
			"temperature", r.Temperature,
			"position", r.Position,
			"velocity", r.Velocity,
			"fan", r.Fan,
			"ticks", r.Ticks,
		)
	}
}

// logError logs at most ErrorsPerSecond errors, reporting how many were
// suppressed in between.
func (m *Monitor) logError(msg string, err error) {
	if !m.errLimit.Allow() {
		m.dropped.Add(1)
		return
	}
	if n := m.dropped.Swap(0); n > 0 {
		m.log.Warn(msg, "err", err, "suppressed", n)
		return
	}
	m.log.Warn(msg, "err", err)
}
