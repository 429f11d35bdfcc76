// Command bdc-monitor keeps a motor controller's link alive, commands its
// voltage and publishes its status reports.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"gobdc/core"
	"gobdc/host/mcu"
	"gobdc/host/monitor"
	"gobdc/host/panel"
	"gobdc/host/serial"
)

func main() {
	var (
		cfgPath  = flag.String("config", "", "YAML config file")
		device   = flag.String("device", "", "serial device (default: from config, else detected)")
		voltage  = flag.Int("voltage", 0, "voltage target in 1/32767 of full scale")
		debug    = flag.Bool("debug", false, "enable debug logging")
		list     = flag.Bool("list", false, "list serial ports and exit")
		blink    = flag.Int("blink", 0, "blink the controller's LED n times and exit")
		shutdown = flag.Bool("shutdown", false, "park the controller for a firmware update and exit")
	)
	flag.Parse()

	var level slog.LevelVar
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: &level})))

	if *list {
		ports, err := serial.Ports()
		if err != nil {
			slog.Error("cannot list ports", "err", err)
			os.Exit(1)
		}
		for _, p := range ports {
			fmt.Println(p)
		}
		return
	}

	cfg, err := monitor.LoadConfig(*cfgPath)
	if err != nil {
		slog.Error("cannot load config", "path", *cfgPath, "err", err)
		os.Exit(1)
	}
	if *device != "" {
		cfg.Serial.Device = *device
	}
	flag.Visit(func(f *flag.Flag) {
		if f.Name == "voltage" {
			cfg.Command.Voltage = int32(*voltage)
		}
	})
	cfg.Log.Debug = cfg.Log.Debug || *debug
	if err := cfg.Validate(); err != nil {
		slog.Error("invalid config", "err", err)
		os.Exit(1)
	}
	setLevel(&level, cfg.Log.Debug)

	if cfg.Serial.Device == "" {
		dev, err := serial.Detect()
		if err != nil {
			slog.Error("no controller found", "err", err)
			os.Exit(1)
		}
		cfg.Serial.Device = dev
	}

	ctl := mcu.NewMCU()
	err = ctl.ConnectWithConfig(serial.Config{
		Device:      cfg.Serial.Device,
		Baud:        cfg.Serial.Baud,
		ReadTimeout: time.Duration(cfg.Serial.ReadTimeoutMS) * time.Millisecond,
	})
	if err != nil {
		slog.Error("cannot connect", "device", cfg.Serial.Device, "err", err)
		os.Exit(1)
	}
	defer ctl.Close()
	slog.Info("connected", "device", cfg.Serial.Device, "baud", cfg.Serial.Baud)

	switch {
	case *blink > 0:
		oneShot("blink", ctl.BlinkID(uint8(min(*blink, 255))))
		return
	case *shutdown:
		oneShot("shutdown", ctl.Shutdown())
		return
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	mon := monitor.New(ctl, cfg, slog.Default())
	addSinks(ctx, mon, cfg)

	var srv *http.Server
	if cfg.HTTP.Listen != "" {
		srv = serve(ctx, mon, cfg)
	}
	if *cfgPath != "" {
		go func() {
			err := monitor.WatchConfig(ctx, slog.Default(), *cfgPath, func(next *monitor.Config) {
				setLevel(&level, next.Log.Debug || *debug)
				mon.Reload(next)
			})
			if err != nil {
				slog.Warn("config watch failed", "err", err)
			}
		}()
	}

	if err := mon.Run(ctx); err != nil {
		slog.Error("monitor stopped", "err", err)
	}
	slog.Info("shutting down...", "stats", fmt.Sprintf("%+v", ctl.Stats()))

	if srv != nil {
		shutCtx, shutCancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer shutCancel()
		if err := srv.Shutdown(shutCtx); err != nil {
			slog.Warn("server shutdown error", "err", err)
		}
	}
}

func setLevel(level *slog.LevelVar, debug bool) {
	if debug {
		level.Set(slog.LevelDebug)
	} else {
		level.Set(slog.LevelInfo)
	}
}

func oneShot(what string, err error) {
	if err != nil {
		slog.Error(what+" failed", "err", err)
		os.Exit(1)
	}
	slog.Info(what + " sent")
}

func addSinks(ctx context.Context, mon *monitor.Monitor, cfg *monitor.Config) {
	if cfg.MQTT.Host != "" {
		sink, client, err := monitor.DialMQTT(cfg.MQTT, slog.Default())
		if err != nil {
			slog.Warn("mqtt disabled", "err", err)
		} else {
			mon.AddSink(sink)
			go func() {
				<-ctx.Done()
				client.Disconnect(250)
			}()
		}
	}

	if cfg.Panel.Red != "" {
		p, err := panel.Open(cfg.Panel.Red, cfg.Panel.Green)
		if err != nil {
			slog.Warn("panel disabled", "err", err)
		} else {
			mon.AddSink(monitor.SinkFunc(func(r monitor.Report) error {
				return p.Show(r.LEDColor())
			}))
			go func() {
				<-ctx.Done()
				p.Show(core.ColorBlack)
			}()
		}
	}
}

func serve(ctx context.Context, mon *monitor.Monitor, cfg *monitor.Config) *http.Server {
	hub := monitor.NewHub(slog.Default())
	go hub.Run(ctx)
	mon.AddSink(hub)

	srv := &http.Server{
		Addr:        cfg.HTTP.Listen,
		Handler:     monitor.NewRouter(mon, hub),
		ReadTimeout: 10 * time.Second,
		IdleTimeout: 120 * time.Second,
	}
	go func() {
		slog.Info("status server listening", "addr", cfg.HTTP.Listen)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			slog.Error("server error", "err", err)
		}
	}()

	if cfg.HTTP.Advertise {
		_, portStr, _ := net.SplitHostPort(cfg.HTTP.Listen)
		port, err := strconv.Atoi(portStr)
		if err != nil {
			slog.Warn("zeroconf disabled", "listen", cfg.HTTP.Listen, "err", err)
			return srv
		}
		go func() {
			if err := monitor.Advertise(ctx, slog.Default(), cfg.HTTP.Name, port); err != nil {
				slog.Warn("zeroconf failed", "err", err)
			}
		}()
	}
	return srv
}
