// Package cliconfig resolves the CLI's configuration from its three sources:
// TOML config file, WINDROW_* environment variables, and flags. Flags win
// over environment, environment wins over file.
package cliconfig

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"github.com/fold-labs/windrow/pkg/window"
)

// Config holds the CLI configuration for windrow.
type Config struct {
	// Input is the JSONL record file for run/plan.
	Input string

	// SpoolDir is the directory watched in watch mode.
	SpoolDir string

	// OutputDir receives exported window files.
	OutputDir string

	// StateDir holds the checkpoint file. Derived from OutputDir when empty.
	StateDir string

	StepSize       int
	StepUnit       string
	OverlapRatio   float64
	MaxWindowBytes int64
	MaxWindowSpan  time.Duration

	// MaxCallBytes is the per-call budget the exporter enforces; a window
	// rendering larger than this overflows and is split.
	MaxCallBytes int64

	MaxDepth      int
	MinWindowSize int

	// Resume enables checkpoint filtering on start.
	Resume bool

	// Template is the prompt template text that participates in window
	// signatures. TemplatePath, when set, is read into Template.
	Template     string
	TemplatePath string

	Verbose bool
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() Config {
	return Config{
		StepSize:       100,
		StepUnit:       "count",
		OverlapRatio:   0.2,
		MaxWindowBytes: 320_000,
		MaxCallBytes:   400_000,
		MaxDepth:       5,
		MinWindowSize:  5,
	}
}

// Validate checks the configuration and sets derived defaults.
func (c *Config) Validate() error {
	if c.OutputDir == "" {
		return fmt.Errorf("output dir is required")
	}
	if c.StateDir == "" {
		c.StateDir = filepath.Join(c.OutputDir, ".windrow")
	}
	if c.MaxCallBytes <= 0 {
		return fmt.Errorf("max call bytes must be positive")
	}
	if c.MaxDepth <= 0 {
		return fmt.Errorf("max depth must be positive")
	}
	if c.TemplatePath != "" {
		data, err := os.ReadFile(c.TemplatePath)
		if err != nil {
			return fmt.Errorf("read template: %w", err)
		}
		c.Template = string(data)
	}
	// Window settings are validated by the engine; parsing the unit here
	// surfaces typos before any file is read.
	if _, err := window.ParseStepUnit(c.StepUnit); err != nil {
		return err
	}
	return nil
}

// WindowConfig converts the CLI settings to the engine's window config.
func (c *Config) WindowConfig() (window.Config, error) {
	unit, err := window.ParseStepUnit(c.StepUnit)
	if err != nil {
		return window.Config{}, err
	}
	cfg := window.Config{
		StepSize:       c.StepSize,
		StepUnit:       unit,
		OverlapRatio:   c.OverlapRatio,
		MaxWindowBytes: c.MaxWindowBytes,
		MaxWindowSpan:  c.MaxWindowSpan,
	}
	return cfg, cfg.Validate()
}

// CheckpointPath returns the checkpoint file location.
func (c *Config) CheckpointPath() string {
	return filepath.Join(c.StateDir, "checkpoint.json")
}

// configSetter applies values while respecting flag precedence: a value is
// only applied when the corresponding flag was not set explicitly.
type configSetter struct {
	changed map[string]bool
}

func newConfigSetter(changed map[string]bool) *configSetter {
	return &configSetter{changed: changed}
}

func (s *configSetter) setString(flag, value string, dst *string) {
	if value == "" || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt(flag string, value int, dst *int) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setInt64(flag string, value int64, dst *int64) {
	if value <= 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setFloat(flag string, value float64, dst *float64) {
	if value < 0 || s.changed[flag] {
		return
	}
	*dst = value
}

func (s *configSetter) setDuration(flag, value string, dst *time.Duration) {
	if value == "" || s.changed[flag] {
		return
	}
	if d, err := time.ParseDuration(value); err == nil {
		*dst = d
	}
}

func (s *configSetter) setBool(flag string, value *bool, dst *bool) {
	if value == nil || s.changed[flag] {
		return
	}
	*dst = *value
}

// ApplyEnvConfig applies WINDROW_* environment variables, respecting flags
// already set.
func ApplyEnvConfig(cfg *Config, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("input", os.Getenv("WINDROW_INPUT"), &cfg.Input)
	s.setString("spool-dir", os.Getenv("WINDROW_SPOOL_DIR"), &cfg.SpoolDir)
	s.setString("output-dir", os.Getenv("WINDROW_OUTPUT_DIR"), &cfg.OutputDir)
	s.setString("state-dir", os.Getenv("WINDROW_STATE_DIR"), &cfg.StateDir)
	s.setString("step-unit", os.Getenv("WINDROW_STEP_UNIT"), &cfg.StepUnit)
	s.setString("template", os.Getenv("WINDROW_TEMPLATE"), &cfg.TemplatePath)
	s.setDuration("max-window-span", os.Getenv("WINDROW_MAX_WINDOW_SPAN"), &cfg.MaxWindowSpan)

	if v := os.Getenv("WINDROW_STEP_SIZE"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			s.setInt("step-size", n, &cfg.StepSize)
		}
	}
	if v := os.Getenv("WINDROW_OVERLAP_RATIO"); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			s.setFloat("overlap-ratio", f, &cfg.OverlapRatio)
		}
	}
	if v := os.Getenv("WINDROW_MAX_WINDOW_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.setInt64("max-window-bytes", n, &cfg.MaxWindowBytes)
		}
	}
	if v := os.Getenv("WINDROW_MAX_CALL_BYTES"); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil {
			s.setInt64("max-call-bytes", n, &cfg.MaxCallBytes)
		}
	}
	if v := os.Getenv("WINDROW_RESUME"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			s.setBool("resume", &b, &cfg.Resume)
		}
	}
}

// FileExists reports whether the path exists and is a regular file.
func FileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && info.Mode().IsRegular()
}
