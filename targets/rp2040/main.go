//go:build rp2040 || rp2350

package main

import (
	_ "embed"
	"machine"
	"time"

	"gobdc/config"
	"gobdc/core"
	"gobdc/protocol"
	"gobdc/supervisor"
)

//go:embed board.json
var boardJSON []byte

var (
	inputBuffer *protocol.Ring
	transport   *protocol.Transport

	board    *core.Board
	sup      *supervisor.Supervisor
	bridge   *RPBridge
	watchdog core.SoftWatchdog
	samples  core.SampleFIFO

	msgerrors uint32
)

func main() {
	// Clear any hardware watchdog left armed across a reset; link loss is
	// handled by the software watchdog.
	if err := machine.Watchdog.Configure(machine.WatchdogConfig{TimeoutMillis: 0}); err != nil {
		return
	}
	InitUSB()

	cfg, err := config.Load(boardJSON)
	if err != nil {
		cfg = config.Default()
	}
	if cfg.Debug {
		InitDebugUART()
	}
	if err != nil {
		core.DebugPrintln("config: " + err.Error())
	}

	if err := setupDrivers(cfg); err != nil {
		halt(err)
	}
	board = core.NewBoardFromDrivers()
	if err := board.Init(); err != nil {
		halt(err)
	}
	cfg.Apply(board)
	bridge.EnableTrigger()

	sup = supervisor.New(board)
	sup.SetRampRate(cfg.RampRate)
	sup.Start(updateSystemTime())

	inputBuffer = protocol.NewRing(256)
	transport = protocol.NewTransport(usbWriter{})
	go usbReaderLoop()
	if core.IsDebugEnabled() {
		go reportDebug()
	}

	run(cfg.TelemetryPeriod())
}

// setupDrivers registers the HAL drivers for the configured pin map.
func setupDrivers(cfg *config.BoardConfig) error {
	p := cfg.Pins
	smp := newSampler(&samples)
	if err := smp.configure(); err != nil {
		return err
	}

	var err error
	bridge, err = NewRPBridge(pin(p.PlusHigh), pin(p.PlusLow), pin(p.MinusHigh), pin(p.MinusLow), func() {
		smp.sample()
		board.OnConversionComplete()
	})
	if err != nil {
		return err
	}
	gate, err := newGateDriver(pin(p.GateFault), pin(p.GateReset))
	if err != nil {
		return err
	}

	enc := newEncoder(pin(p.EncoderA), pin(p.EncoderB))
	enc.onEdge = func() { board.OnEncoderEdge() }
	watchdog.Now = hardwareTime

	core.SetBridgeDriver(bridge)
	core.SetGateDriver(gate)
	core.SetModeJumper(newJumper(pin(p.Jumper)))
	core.SetLimitInputs(newLimits(pin(p.LimitForward), pin(p.LimitReverse)))
	core.SetADCDriver(&samples)
	core.SetQEIDriver(enc)
	core.SetEdgeTimerDriver(core.SoftEdgeTimer{Now: hardwareTime})
	core.SetWatchdogDriver(&watchdog)
	core.SetFanOutput(newFan(pin(p.Fan)))
	if cfg.LED == "ws2812" {
		core.SetStatusLED(newPixelLED(pin(p.LEDPixel)))
	} else {
		core.SetStatusLED(newBicolorLED(pin(p.LEDRed), pin(p.LEDGreen)))
	}
	return nil
}

func pin(n uint8) machine.Pin { return machine.Pin(n) }

// run is the main loop: watchdog, slow ticks, host input and telemetry.
func run(telemetry uint32) {
	lastReport := sup.Ticks()
	for {
		func() {
			defer func() {
				if r := recover(); r != nil {
					msgerrors++
					inputBuffer.Reset()
				}
			}()

			now := updateSystemTime()
			if watchdog.Expired(now) {
				board.OnWatchdogExpire()
			}
			sup.Poll(now)

			if inputBuffer.Len() > 0 {
				data := inputBuffer.Peek()
				if err := transport.Receive(data, handle); err != nil {
					msgerrors++
				}
				inputBuffer.Discard(len(data))
			}

			if sup.Ticks()-lastReport >= telemetry {
				lastReport = sup.Ticks()
				if err := transport.Send(sup.Report()); err != nil {
					msgerrors++
				}
			}
		}()
		time.Sleep(10 * time.Microsecond)
	}
}

func handle(m protocol.Message) {
	if err := sup.Handle(m, core.LinkUART); err != nil {
		msgerrors++
	}
}

// usbReaderLoop moves CDC bytes into the input FIFO.
func usbReaderLoop() {
	defer func() {
		if r := recover(); r != nil {
			msgerrors++
			time.Sleep(100 * time.Millisecond)
			go usbReaderLoop()
		}
	}()

	for {
		if USBAvailable() > 0 {
			b, err := USBRead()
			if err != nil {
				msgerrors++
				time.Sleep(time.Millisecond)
				continue
			}
			if _, err := inputBuffer.Write([]byte{b}); err != nil {
				msgerrors++
			}
			continue
		}
		time.Sleep(100 * time.Microsecond)
	}
}

// reportDebug traces the carrier interrupt load once a second. A run near
// the 64us carrier period drops conversion groups. The fault ring is dumped
// whenever a new fault kind turns up in the sticky flags.
func reportDebug() {
	var seen core.Fault
	for {
		time.Sleep(time.Second)
		wraps, maxUS := bridge.TakeISRStats()
		core.DebugPrintln("isr: wraps=" + core.Utoa(wraps) + " max=" + core.Utoa(maxUS) + "us")

		sticky := board.Faults().Sticky(false)
		if sticky&^seen != 0 {
			core.DumpFaultRing()
		}
		seen = sticky
	}
}

// halt blinks the onboard LED forever.
func halt(err error) {
	core.DebugPrintln("halt: " + err.Error())
	led := machine.LED
	led.Configure(machine.PinConfig{Mode: machine.PinOutput})
	for {
		led.High()
		time.Sleep(150 * time.Millisecond)
		led.Low()
		time.Sleep(850 * time.Millisecond)
	}
}
