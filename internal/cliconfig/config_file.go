package cliconfig

import (
	"os"
	"path/filepath"

	toml "github.com/pelletier/go-toml/v2"
)

// FileConfig mirrors Config with TOML-friendly types; durations are strings.
type FileConfig struct {
	Input     string `toml:"input"`
	SpoolDir  string `toml:"spool_dir"`
	OutputDir string `toml:"output_dir"`
	StateDir  string `toml:"state_dir"`

	StepSize       int      `toml:"step_size"`
	StepUnit       string   `toml:"step_unit"`
	OverlapRatio   *float64 `toml:"overlap_ratio"`
	MaxWindowBytes int64    `toml:"max_window_bytes"`
	MaxWindowSpan  string   `toml:"max_window_span"`

	MaxCallBytes  int64 `toml:"max_call_bytes"`
	MaxDepth      int   `toml:"max_depth"`
	MinWindowSize int   `toml:"min_window_size"`

	Resume       *bool  `toml:"resume"`
	TemplatePath string `toml:"template_path"`
	Verbose      *bool  `toml:"verbose"`
}

// LoadFileConfig reads and parses a TOML config file.
func LoadFileConfig(path string) (FileConfig, error) {
	var fc FileConfig
	b, err := os.ReadFile(path)
	if err != nil {
		return fc, err
	}
	if err := toml.Unmarshal(b, &fc); err != nil {
		return fc, err
	}
	return fc, nil
}

// DefaultConfigPath returns ~/.windrow/config.toml when the home directory
// is accessible.
func DefaultConfigPath() string {
	if h, err := os.UserHomeDir(); err == nil {
		return filepath.Join(h, ".windrow", "config.toml")
	}
	return ""
}

// ApplyFileConfig applies file values to cfg, respecting flags already set.
func ApplyFileConfig(cfg *Config, fc FileConfig, changed map[string]bool) {
	s := newConfigSetter(changed)

	s.setString("input", fc.Input, &cfg.Input)
	s.setString("spool-dir", fc.SpoolDir, &cfg.SpoolDir)
	s.setString("output-dir", fc.OutputDir, &cfg.OutputDir)
	s.setString("state-dir", fc.StateDir, &cfg.StateDir)
	s.setInt("step-size", fc.StepSize, &cfg.StepSize)
	s.setString("step-unit", fc.StepUnit, &cfg.StepUnit)
	if fc.OverlapRatio != nil {
		s.setFloat("overlap-ratio", *fc.OverlapRatio, &cfg.OverlapRatio)
	}
	s.setInt64("max-window-bytes", fc.MaxWindowBytes, &cfg.MaxWindowBytes)
	s.setDuration("max-window-span", fc.MaxWindowSpan, &cfg.MaxWindowSpan)
	s.setInt64("max-call-bytes", fc.MaxCallBytes, &cfg.MaxCallBytes)
	s.setInt("max-depth", fc.MaxDepth, &cfg.MaxDepth)
	s.setInt("min-window-size", fc.MinWindowSize, &cfg.MinWindowSize)
	s.setBool("resume", fc.Resume, &cfg.Resume)
	s.setString("template", fc.TemplatePath, &cfg.TemplatePath)
	s.setBool("verbose", fc.Verbose, &cfg.Verbose)
}
