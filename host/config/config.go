// Package config loads the YAML configuration shared by the host tools.
package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"osdcon/console"
	"osdcon/eeprom"
	"osdcon/host/serial"
	"osdcon/uart"
)

type Config struct {
	Serial  SerialConfig  `yaml:"serial"`
	Console ConsoleConfig `yaml:"console"`
	EEPROM  EEPROMConfig  `yaml:"eeprom"`
}

// ---- SERIAL ----

type SerialConfig struct {
	Device        string `yaml:"device"`
	Baud          int    `yaml:"baud"`
	ReadTimeoutMs int    `yaml:"read_timeout_ms"`
}

// ---- CONSOLE ----

type ConsoleConfig struct {
	Prompt string `yaml:"prompt"`
	// Timeout is the longest silence tolerated while waiting for output.
	Timeout time.Duration `yaml:"timeout"`
	// GlyphDelay paces font uploads so the chip NVM write of one glyph
	// finishes before the next overruns the receive ring.
	GlyphDelay time.Duration `yaml:"glyph_delay"`
}

// ---- EEPROM ----

type EEPROMConfig struct {
	Size int `yaml:"size"`
}

// Default returns the configuration for a factory-fresh OSD.
func Default() *Config {
	return &Config{
		Serial: SerialConfig{
			Device:        "/dev/ttyUSB0",
			Baud:          int(uart.Baud57600),
			ReadTimeoutMs: 100,
		},
		Console: ConsoleConfig{
			Prompt:     console.Prompt,
			Timeout:    5 * time.Second,
			GlyphDelay: 15 * time.Millisecond,
		},
		EEPROM: EEPROMConfig{
			Size: eeprom.Size,
		},
	}
}

// Load reads path over the defaults. Keys missing from the file keep their
// default value.
func Load(path string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config %s: %w", path, err)
	}
	return cfg, nil
}

// Validate checks configuration correctness.
// It MUST NOT mutate configuration.
func Validate(cfg *Config) error {
	if cfg.Serial.Device == "" {
		return fmt.Errorf("serial: device is required")
	}
	if !uart.Baud(cfg.Serial.Baud).Valid() {
		return fmt.Errorf("serial: baud %d is not one of %v", cfg.Serial.Baud, uart.Bitrates)
	}
	if cfg.Serial.ReadTimeoutMs < 0 {
		return fmt.Errorf("serial: read_timeout_ms must not be negative")
	}
	if cfg.Console.Prompt == "" {
		return fmt.Errorf("console: prompt is required")
	}
	if cfg.Console.Timeout <= 0 {
		return fmt.Errorf("console: timeout must be positive")
	}
	if cfg.Console.GlyphDelay < 0 {
		return fmt.Errorf("console: glyph_delay must not be negative")
	}
	if cfg.EEPROM.Size <= 0 || cfg.EEPROM.Size > 0x10000 {
		return fmt.Errorf("eeprom: size %d out of range", cfg.EEPROM.Size)
	}
	return nil
}

// SerialPort returns the port settings in host/serial form.
func (c *Config) SerialPort() *serial.Config {
	return &serial.Config{
		Device:      c.Serial.Device,
		Baud:        c.Serial.Baud,
		ReadTimeout: c.Serial.ReadTimeoutMs,
	}
}
