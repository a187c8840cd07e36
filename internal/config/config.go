// Package config loads and validates the emulator's on-disk configuration:
// emulation region and debug flags, and which graphics backend to present
// frames with. Audio and input device configuration are out of scope for
// this core; a frontend embedding the driver owns those.
package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
)

// Config holds the emulator core's configuration.
type Config struct {
	Emulation EmulationConfig `json:"emulation"`
	Video     VideoConfig     `json:"video"`
	Debug     DebugConfig     `json:"debug"`

	configPath string
}

// EmulationConfig selects the timing model the driver runs under.
type EmulationConfig struct {
	Region    string  `json:"region"`     // "NTSC", "PAL", "Dendy"
	FrameRate float64 `json:"frame_rate"` // target presentation rate
}

// VideoConfig selects and tunes the presentation backend.
type VideoConfig struct {
	Backend    string  `json:"backend"` // "ebitengine", "headless", "terminal"
	Scale      int     `json:"scale"`   // NES resolution multiplier
	Brightness float32 `json:"brightness"`
	Contrast   float32 `json:"contrast"`
	Saturation float32 `json:"saturation"`
}

// DebugConfig controls diagnostic verbosity.
type DebugConfig struct {
	ShowFPS       bool   `json:"show_fps"`
	EnableLogging bool   `json:"enable_logging"`
	LogLevel      string `json:"log_level"` // "DEBUG", "INFO", "WARN", "ERROR"
}

// New returns a configuration populated with NTSC/ebitengine defaults.
func New() *Config {
	return &Config{
		Emulation: EmulationConfig{
			Region:    "NTSC",
			FrameRate: 60.0988,
		},
		Video: VideoConfig{
			Backend:    "ebitengine",
			Scale:      2,
			Brightness: 1.0,
			Contrast:   1.0,
			Saturation: 1.0,
		},
		Debug: DebugConfig{
			ShowFPS:       false,
			EnableLogging: false,
			LogLevel:      "INFO",
		},
	}
}

// LoadFromFile loads configuration from a JSON file, writing out the
// defaults if path does not yet exist.
func LoadFromFile(path string) (*Config, error) {
	c := New()
	c.configPath = path

	if _, err := os.Stat(path); os.IsNotExist(err) {
		return c, c.SaveToFile(path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := json.Unmarshal(data, c); err != nil {
		return nil, fmt.Errorf("config: parse %s: %w", path, err)
	}
	if err := c.validate(); err != nil {
		return nil, fmt.Errorf("config: invalid %s: %w", path, err)
	}
	return c, nil
}

// SaveToFile writes the configuration to path as indented JSON.
func (c *Config) SaveToFile(path string) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return fmt.Errorf("config: mkdir %s: %w", dir, err)
		}
	}
	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return fmt.Errorf("config: marshal: %w", err)
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("config: write %s: %w", path, err)
	}
	c.configPath = path
	return nil
}

func (c *Config) validate() error {
	switch c.Emulation.Region {
	case "NTSC", "PAL", "Dendy":
	default:
		return fmt.Errorf("unknown region %q", c.Emulation.Region)
	}
	switch c.Video.Backend {
	case "ebitengine", "headless", "terminal":
	default:
		return fmt.Errorf("unknown video backend %q", c.Video.Backend)
	}
	if c.Video.Scale < 1 {
		return fmt.Errorf("video scale must be >= 1, got %d", c.Video.Scale)
	}
	return nil
}

// DefaultConfigPath is the path the CLI loads from when none is given.
func DefaultConfigPath() string { return filepath.Join("config", "nescore.json") }
