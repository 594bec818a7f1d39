// Package config loads the zemote tools' configuration.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Config is the configuration shared by the zemote commands.
type Config struct {
	Serial SerialConfig `mapstructure:"serial"`
	Log    LogConfig    `mapstructure:"log"`
	Device DeviceConfig `mapstructure:"device"`
}

// SerialConfig selects the serial port of the device.
type SerialConfig struct {
	// Port is the tty the device is attached to (default: /dev/ttyACM0)
	Port string `mapstructure:"port"`
	// Baud is the line speed; 0 keeps the port's current speed
	// (default: 9600)
	Baud int `mapstructure:"baud"`
}

// LogConfig controls logging.
type LogConfig struct {
	// Level is one of "debug", "info", "warn", "error" (default: "info")
	Level string `mapstructure:"level"`
	// Format is "text" or "json" (default: "text")
	Format string `mapstructure:"format"`
}

// DeviceConfig controls the simulated device.
type DeviceConfig struct {
	// PollInterval is how long an idle device waits between serial polls
	// (default: 1ms)
	PollInterval time.Duration `mapstructure:"poll_interval"`
}

// SetDefaults registers the default values with viper.
func SetDefaults() {
	viper.SetDefault("serial.port", "/dev/ttyACM0")
	viper.SetDefault("serial.baud", 9600)
	viper.SetDefault("log.level", "info")
	viper.SetDefault("log.format", "text")
	viper.SetDefault("device.poll_interval", time.Millisecond)
}

// ConfigDir returns the directory searched for config.yaml.
func ConfigDir() string {
	if dir, err := os.UserConfigDir(); err == nil {
		return filepath.Join(dir, "zemote")
	}
	return filepath.Join(os.Getenv("HOME"), ".config", "zemote")
}

// Get returns the current configuration from viper.
func Get() (*Config, error) {
	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("cannot decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks the configuration for values the commands cannot use.
func (c *Config) Validate() error {
	if c.Serial.Port == "" {
		return fmt.Errorf("serial.port must be set")
	}
	if c.Serial.Baud < 0 {
		return fmt.Errorf("serial.baud must not be negative, got %d", c.Serial.Baud)
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format must be text or json, got %q", c.Log.Format)
	}
	if c.Device.PollInterval < 0 {
		return fmt.Errorf("device.poll_interval must not be negative")
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.ToUpper(s))); err != nil {
		return 0, fmt.Errorf("invalid log.level %q: %w", s, err)
	}
	return level, nil
}

// Logger creates the logger described by c, writing to stderr.
func (c *Config) Logger() *slog.Logger {
	level, err := parseLevel(c.Log.Level)
	if err != nil {
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	if c.Log.Format == "json" {
		return slog.New(slog.NewJSONHandler(os.Stderr, opts))
	}
	return slog.New(slog.NewTextHandler(os.Stderr, opts))
}
