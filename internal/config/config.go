// Package config holds the exporter's YAML configuration.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/finehaze/sds011/internal/transport"
)

// Duration wraps time.Duration so YAML values can be written as "30s"
// or "5m".
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var s string
	if err := value.Decode(&s); err != nil {
		return err
	}
	parsed, err := time.ParseDuration(s)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", s, err)
	}
	*d = Duration(parsed)
	return nil
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (any, error) {
	return time.Duration(d).String(), nil
}

// Config is the exporter configuration.
type Config struct {
	// Device is the serial port the sensor is attached to.
	Device string `yaml:"device"`

	// Baud is the serial baud rate.
	Baud int `yaml:"baud"`

	// Listen is the HTTP listen address.
	Listen string `yaml:"listen"`

	// WorkingPeriod is the duty cycle in minutes pushed to the sensor
	// at startup, 0 to 30.
	WorkingPeriod int `yaml:"working_period"`

	// ReportingMode pushed to the sensor at startup, "active" or
	// "query".
	ReportingMode string `yaml:"reporting_mode"`

	// StaleAfter is how long the last reading stays servable.
	StaleAfter Duration `yaml:"stale_after"`

	// Timeout is the per-attempt command reply window.
	Timeout Duration `yaml:"timeout"`

	// Attempts is the command retry budget.
	Attempts int `yaml:"attempts"`
}

// Default returns the configuration used when no file is present.
func Default() Config {
	return Config{
		Device:        "/dev/ttyUSB0",
		Baud:          transport.DefaultBaudRate,
		Listen:        ":9110",
		WorkingPeriod: 1,
		ReportingMode: "active",
		StaleAfter:    Duration(5 * time.Minute),
		Timeout:       Duration(500 * time.Millisecond),
		Attempts:      5,
	}
}

// Load reads the configuration file at path, layered over defaults. An
// empty path returns the defaults.
func Load(path string) (Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return Config{}, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return Config{}, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the configuration for values the sensor or server
// would reject.
func (c Config) Validate() error {
	if c.Device == "" {
		return fmt.Errorf("device must not be empty")
	}
	if c.Baud <= 0 {
		return fmt.Errorf("baud must be positive, got %d", c.Baud)
	}
	if c.Listen == "" {
		return fmt.Errorf("listen address must not be empty")
	}
	if c.WorkingPeriod < 0 || c.WorkingPeriod > 30 {
		return fmt.Errorf("working_period %d out of range (0 to 30)", c.WorkingPeriod)
	}
	switch c.ReportingMode {
	case "active", "query":
	default:
		return fmt.Errorf("reporting_mode %q invalid (want active or query)", c.ReportingMode)
	}
	if c.Attempts <= 0 {
		return fmt.Errorf("attempts must be positive, got %d", c.Attempts)
	}
	if time.Duration(c.Timeout) <= 0 {
		return fmt.Errorf("timeout must be positive, got %s", time.Duration(c.Timeout))
	}
	return nil
}
