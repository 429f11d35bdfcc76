package monitor

import (
	"errors"
	"fmt"
	"os"

	"github.com/caarlos0/env"
	"gopkg.in/yaml.v2"

	"gobdc/core"
)

// Config is the monitor configuration file.
type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Command CommandConfig `yaml:"command"`
	Log     LogConfig     `yaml:"log"`
	MQTT    MQTTConfig    `yaml:"mqtt"`
	HTTP    HTTPConfig    `yaml:"http"`
	Panel   PanelConfig   `yaml:"panel"`
}

type SerialConfig struct {
	Device        string `yaml:"device"` // empty: detect
	Baud          int    `yaml:"baud"`
	ReadTimeoutMS int    `yaml:"read_timeout_ms"`
}

// CommandConfig is what the monitor asks of the controller.
type CommandConfig struct {
	Voltage     int32  `yaml:"voltage"`
	Mode        string `yaml:"mode"`     // jumper, brake or coast
	Position    string `yaml:"position"` // encoder or pot
	HeartbeatMS int    `yaml:"heartbeat_ms"`
	ClearSticky bool   `yaml:"clear_sticky"`
}

type LogConfig struct {
	Debug           bool    `yaml:"debug"`
	StatusEvery     int     `yaml:"status_every"` // log one report in N
	ErrorsPerSecond float64 `yaml:"errors_per_second"`
	ErrorBurst      int     `yaml:"error_burst"`
}

// MQTTConfig enables publishing when Host is set.
type MQTTConfig struct {
	Host     string `yaml:"host"`
	Port     string `yaml:"port"`
	ClientID string `yaml:"client_id"`
	Topic    string `yaml:"topic"`
}

// HTTPConfig enables the status server when Listen is set.
type HTTPConfig struct {
	Listen    string `yaml:"listen"`
	Advertise bool   `yaml:"advertise"`
	Name      string `yaml:"name"`
}

// PanelConfig enables the GPIO LED mirror when both pins are named.
type PanelConfig struct {
	Red   string `yaml:"red"`
	Green string `yaml:"green"`
}

// envOverrides are read after the file and win over it.
type envOverrides struct {
	Device   string `env:"BDC_DEVICE"`
	Debug    bool   `env:"BDC_DEBUG" envDefault:"0"`
	MQTTHost string `env:"BDC_MQTT_HOST"`
	MQTTPort string `env:"BDC_MQTT_PORT"`
	Listen   string `env:"BDC_LISTEN"`
}

// LoadConfig reads path, overlays the environment and validates the result.
// An empty path gives the defaults.
func LoadConfig(path string) (*Config, error) {
	var data []byte
	if path != "" {
		var err error
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("unable to read config: %w", err)
		}
	}
	cfg, err := ParseConfig(data)
	if err != nil {
		return nil, err
	}
	if err := cfg.overlayEnv(); err != nil {
		return nil, err
	}
	return cfg, cfg.Validate()
}

// ParseConfig unmarshals YAML and fills in defaults.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("unable to unmarshal yaml: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

func (c *Config) overlayEnv() error {
	var o envOverrides
	if err := env.Parse(&o); err != nil {
		return fmt.Errorf("environment: %w", err)
	}
	if o.Device != "" {
		c.Serial.Device = o.Device
	}
	if o.MQTTHost != "" {
		c.MQTT.Host = o.MQTTHost
	}
	if o.MQTTPort != "" {
		c.MQTT.Port = o.MQTTPort
	}
	if o.Listen != "" {
		c.HTTP.Listen = o.Listen
	}
	c.Log.Debug = c.Log.Debug || o.Debug
	return nil
}

func (c *Config) applyDefaults() {
	if c.Serial.Baud == 0 {
		c.Serial.Baud = 115200
	}
	if c.Serial.ReadTimeoutMS == 0 {
		c.Serial.ReadTimeoutMS = 100
	}
	if c.Command.Mode == "" {
		c.Command.Mode = "jumper"
	}
	if c.Command.Position == "" {
		c.Command.Position = "encoder"
	}
	if c.Command.HeartbeatMS == 0 {
		c.Command.HeartbeatMS = 50
	}
	if c.Log.StatusEvery == 0 {
		c.Log.StatusEvery = 10
	}
	if c.Log.ErrorsPerSecond == 0 {
		c.Log.ErrorsPerSecond = 1
	}
	if c.Log.ErrorBurst == 0 {
		c.Log.ErrorBurst = 5
	}
	if c.MQTT.Port == "" {
		c.MQTT.Port = "1883"
	}
	if c.MQTT.Topic == "" {
		c.MQTT.Topic = "bdc/status"
	}
	if c.HTTP.Name == "" {
		c.HTTP.Name = "bdc-monitor"
	}
}

// ErrInvalidConfig wraps every validation failure.
var ErrInvalidConfig = errors.New("invalid monitor config")

// Validate checks the ranges the controller and the watchdog impose.
func (c *Config) Validate() error {
	if v := c.Command.Voltage; v < -core.VoltageFull || v > core.VoltageFull {
		return fmt.Errorf("%w: voltage %d outside ±%d", ErrInvalidConfig, v, core.VoltageFull)
	}
	if _, err := c.BrakeCoast(); err != nil {
		return err
	}
	if _, err := c.PositionRef(); err != nil {
		return err
	}
	// The controller drops the link 200ms after the last valid frame.
	if hb := c.Command.HeartbeatMS; hb < 0 || hb >= 200 {
		return fmt.Errorf("%w: heartbeat_ms %d must be below 200", ErrInvalidConfig, hb)
	}
	if c.Log.StatusEvery < 0 || c.Log.ErrorBurst < 0 || c.Log.ErrorsPerSecond < 0 {
		return fmt.Errorf("%w: negative log setting", ErrInvalidConfig)
	}
	if (c.Panel.Red == "") != (c.Panel.Green == "") {
		return fmt.Errorf("%w: panel needs both red and green pins", ErrInvalidConfig)
	}
	return nil
}

// BrakeCoast parses the configured neutral mode.
func (c *Config) BrakeCoast() (core.BrakeCoastMode, error) {
	return parseBrakeCoast(c.Command.Mode)
}

// PositionRef parses the configured position reference.
func (c *Config) PositionRef() (core.PositionRef, error) {
	return parsePositionRef(c.Command.Position)
}

func parseBrakeCoast(s string) (core.BrakeCoastMode, error) {
	switch s {
	case "jumper":
		return core.ModeFollowJumper, nil
	case "brake":
		return core.ModeBrake, nil
	case "coast":
		return core.ModeCoast, nil
	}
	return 0, fmt.Errorf("%w: mode %q", ErrInvalidConfig, s)
}

func parsePositionRef(s string) (core.PositionRef, error) {
	switch s {
	case "encoder":
		return core.PositionEncoder, nil
	case "pot":
		return core.PositionPot, nil
	}
	return 0, fmt.Errorf("%w: position %q", ErrInvalidConfig, s)
}
