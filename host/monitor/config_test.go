package monitor

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	. "github.com/smartystreets/goconvey/convey"

	"gobdc/core"
)

const testYaml = `
serial:
  device: /dev/ttyACM3
command:
  voltage: -8000
  mode: coast
  position: pot
  heartbeat_ms: 40
log:
  debug: true
  status_every: 5
mqtt:
  host: broker.local
  topic: shop/bdc
http:
  listen: ":8080"
panel:
  red: GPIO17
  green: GPIO27
`

func TestConfigParsing(t *testing.T) {
	Convey("an empty config gets defaults", t, func() {
		cfg, err := ParseConfig(nil)
		So(err, ShouldBeNil)
		So(cfg.Validate(), ShouldBeNil)
		So(cfg.Serial.Baud, ShouldEqual, 115200)
		So(cfg.Serial.ReadTimeoutMS, ShouldEqual, 100)
		So(cfg.Command.HeartbeatMS, ShouldEqual, 50)
		So(cfg.Command.Mode, ShouldEqual, "jumper")
		So(cfg.MQTT.Port, ShouldEqual, "1883")
		So(cfg.MQTT.Topic, ShouldEqual, "bdc/status")
		So(cfg.HTTP.Listen, ShouldBeEmpty)
	})

	Convey("a full config is parsed", t, func() {
		cfg, err := ParseConfig([]byte(testYaml))
		So(err, ShouldBeNil)
		So(cfg.Validate(), ShouldBeNil)
		So(cfg.Serial.Device, ShouldEqual, "/dev/ttyACM3")
		So(cfg.Command.Voltage, ShouldEqual, int32(-8000))
		So(cfg.Command.HeartbeatMS, ShouldEqual, 40)
		So(cfg.Log.Debug, ShouldBeTrue)
		So(cfg.Log.StatusEvery, ShouldEqual, 5)
		So(cfg.MQTT.Host, ShouldEqual, "broker.local")
		So(cfg.MQTT.Topic, ShouldEqual, "shop/bdc")
		So(cfg.Panel.Green, ShouldEqual, "GPIO27")

		Convey("modes map onto the controller", func() {
			mode, err := cfg.BrakeCoast()
			So(err, ShouldBeNil)
			So(mode, ShouldEqual, core.ModeCoast)
			ref, err := cfg.PositionRef()
			So(err, ShouldBeNil)
			So(ref, ShouldEqual, core.PositionPot)
		})
	})

	Convey("bad yaml is an error", t, func() {
		_, err := ParseConfig([]byte("serial: [device"))
		So(err, ShouldNotBeNil)
	})
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name string
		edit func(*Config)
	}{
		{"voltage", func(c *Config) { c.Command.Voltage = core.VoltageFull + 1 }},
		{"mode", func(c *Config) { c.Command.Mode = "drift" }},
		{"position", func(c *Config) { c.Command.Position = "lidar" }},
		{"heartbeat", func(c *Config) { c.Command.HeartbeatMS = 200 }},
		{"panel", func(c *Config) { c.Panel.Red = "GPIO17" }},
		{"log", func(c *Config) { c.Log.ErrorBurst = -1 }},
	}

	Convey("invalid settings are rejected", t, func() {
		for _, tt := range tests {
			cfg, err := ParseConfig(nil)
			So(err, ShouldBeNil)
			tt.edit(cfg)
			So(errors.Is(cfg.Validate(), ErrInvalidConfig), ShouldBeTrue)
		}
	})
}

func TestLoadConfig(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "monitor.yaml")
	if err := os.WriteFile(path, []byte(testYaml), 0o644); err != nil {
		t.Fatal(err)
	}
	t.Setenv("BDC_DEVICE", "/dev/ttyUSB9")
	t.Setenv("BDC_MQTT_HOST", "mqtt.example")
	t.Setenv("BDC_LISTEN", ":9090")

	Convey("the environment overrides the file", t, func() {
		cfg, err := LoadConfig(path)
		So(err, ShouldBeNil)
		So(cfg.Serial.Device, ShouldEqual, "/dev/ttyUSB9")
		So(cfg.MQTT.Host, ShouldEqual, "mqtt.example")
		So(cfg.HTTP.Listen, ShouldEqual, ":9090")
		So(cfg.Command.Voltage, ShouldEqual, int32(-8000))
	})

	Convey("a missing file is an error", t, func() {
		_, err := LoadConfig(filepath.Join(dir, "missing.yaml"))
		So(err, ShouldNotBeNil)
	})
}
