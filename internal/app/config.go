package app

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/caarlos0/env/v11"
	"gopkg.in/yaml.v3"
)

// Config controls runtime behavior for the TUI client. Values come from
// the environment first, then flags override.
type Config struct {
	APIBaseURL   string `env:"BLINDSPOT_API_URL" envDefault:"http://localhost:8080"`
	Demo         bool   `env:"BLINDSPOT_DEMO"`
	DemoScenario string `env:"BLINDSPOT_DEMO_SCENARIO"`
	DataDir      string `env:"BLINDSPOT_DATA_DIR"`
	LogPath      string `env:"BLINDSPOT_LOG"`
	LogLevel     string `env:"BLINDSPOT_LOG_LEVEL" envDefault:"info"`
	OpenerMode   string `env:"BLINDSPOT_OPENER" envDefault:"auto"`
	ASCIIOnly    bool   `env:"BLINDSPOT_ASCII"`
	DebugLayout  bool   `env:"BLINDSPOT_DEBUG_LAYOUT"`
	UI           UIConfig
}

type UIConfig struct {
	StyleVariant string `env:"BLINDSPOT_STYLE" envDefault:"calm_focus"`
	MotionLevel  string `env:"BLINDSPOT_MOTION" envDefault:"full"`
}

func DefaultConfig() Config {
	return Config{
		APIBaseURL: "http://localhost:8080",
		LogLevel:   "info",
		OpenerMode: "auto",
		UI: UIConfig{
			StyleVariant: "calm_focus",
			MotionLevel:  "full",
		},
	}
}

// FromEnv layers environment variables over the defaults.
func FromEnv() (Config, error) {
	cfg := DefaultConfig()
	if err := cfg.ApplyEnv(); err != nil {
		return cfg, err
	}
	return cfg, nil
}

// ApplyEnv overlays environment variables onto c.
func (c *Config) ApplyEnv() error {
	if err := env.Parse(c); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// fileConfig mirrors the optional YAML config file. Zero values mean
// "not set", so a sparse file only touches what it names.
type fileConfig struct {
	APIBaseURL  string `yaml:"api_url"`
	DataDir     string `yaml:"data_dir"`
	LogPath     string `yaml:"log"`
	LogLevel    string `yaml:"log_level"`
	OpenerMode  string `yaml:"opener"`
	ASCIIOnly   *bool  `yaml:"ascii"`
	DebugLayout *bool  `yaml:"debug_layout"`
	UI          struct {
		StyleVariant string `yaml:"style"`
		MotionLevel  string `yaml:"motion"`
	} `yaml:"ui"`
}

// DefaultConfigPath is where ApplyFile looks when no explicit path is
// given. A missing file there is fine.
func DefaultConfigPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, "blindspot", "config.yaml")
}

// ApplyFile overlays settings from a YAML file onto c. A missing file is
// not an error; a malformed one is. Environment variables and flags are
// applied after the file, so they win.
func (c *Config) ApplyFile(path string) error {
	if path == "" {
		return nil
	}
	b, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read config file: %w", err)
	}
	var fc fileConfig
	if err := yaml.Unmarshal(b, &fc); err != nil {
		return fmt.Errorf("parse config file %s: %w", path, err)
	}
	if fc.APIBaseURL != "" {
		c.APIBaseURL = fc.APIBaseURL
	}
	if fc.DataDir != "" {
		c.DataDir = fc.DataDir
	}
	if fc.LogPath != "" {
		c.LogPath = fc.LogPath
	}
	if fc.LogLevel != "" {
		c.LogLevel = fc.LogLevel
	}
	if fc.OpenerMode != "" {
		c.OpenerMode = fc.OpenerMode
	}
	if fc.ASCIIOnly != nil {
		c.ASCIIOnly = *fc.ASCIIOnly
	}
	if fc.DebugLayout != nil {
		c.DebugLayout = *fc.DebugLayout
	}
	if fc.UI.StyleVariant != "" {
		c.UI.StyleVariant = fc.UI.StyleVariant
	}
	if fc.UI.MotionLevel != "" {
		c.UI.MotionLevel = fc.UI.MotionLevel
	}
	return nil
}

func (c *Config) Validate() error {
	if c.APIBaseURL == "" && !c.Demo {
		return errors.New("api base url is required outside demo mode")
	}

	switch c.LogLevel {
	case "", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log level %q", c.LogLevel)
	}
	if c.LogLevel == "" {
		c.LogLevel = "info"
	}

	switch c.UI.StyleVariant {
	case "", "calm_focus", "night_shift", "paper_terminal":
	default:
		return fmt.Errorf("invalid ui style variant %q", c.UI.StyleVariant)
	}
	if c.UI.StyleVariant == "" {
		c.UI.StyleVariant = "calm_focus"
	}
	switch c.UI.MotionLevel {
	case "", "off", "reduced", "full":
	default:
		return fmt.Errorf("invalid ui motion level %q", c.UI.MotionLevel)
	}
	if c.UI.MotionLevel == "" {
		c.UI.MotionLevel = "full"
	}

	// OpenerMode is auto, off, mock, or the name of an opener binary;
	// explicit names are verified at detect time, not here.
	if c.OpenerMode == "" {
		c.OpenerMode = "auto"
	}

	if c.DemoScenario != "" && !c.Demo {
		return errors.New("demo scenario requires demo mode")
	}

	if c.DataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return errors.New("cannot resolve user home directory")
		}
		c.DataDir = filepath.Join(home, ".local", "share", "blindspot")
	}

	return nil
}
