package cliconfig

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fold-labs/windrow/pkg/window"
)

func TestValidate(t *testing.T) {
	t.Run("output dir required", func(t *testing.T) {
		cfg := DefaultConfig()
		require.Error(t, cfg.Validate())
	})

	t.Run("state dir derived from output dir", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OutputDir = "/tmp/out"
		require.NoError(t, cfg.Validate())
		require.Equal(t, filepath.Join("/tmp/out", ".windrow"), cfg.StateDir)
		require.Equal(t, filepath.Join(cfg.StateDir, "checkpoint.json"), cfg.CheckpointPath())
	})

	t.Run("explicit state dir kept", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OutputDir = "/tmp/out"
		cfg.StateDir = "/var/lib/windrow"
		require.NoError(t, cfg.Validate())
		require.Equal(t, "/var/lib/windrow", cfg.StateDir)
	})

	t.Run("unknown step unit rejected", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OutputDir = "/tmp/out"
		cfg.StepUnit = "fortnights"
		require.Error(t, cfg.Validate())
	})

	t.Run("template path is read into template", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "prompt.tmpl")
		require.NoError(t, os.WriteFile(path, []byte("summarize this"), 0o600))

		cfg := DefaultConfig()
		cfg.OutputDir = "/tmp/out"
		cfg.TemplatePath = path
		require.NoError(t, cfg.Validate())
		require.Equal(t, "summarize this", cfg.Template)
	})

	t.Run("missing template path fails", func(t *testing.T) {
		cfg := DefaultConfig()
		cfg.OutputDir = "/tmp/out"
		cfg.TemplatePath = filepath.Join(t.TempDir(), "absent.tmpl")
		require.Error(t, cfg.Validate())
	})
}

func TestWindowConfig(t *testing.T) {
	cfg := DefaultConfig()
	cfg.StepSize = 6
	cfg.StepUnit = "hours"
	cfg.OverlapRatio = 0.25
	cfg.MaxWindowSpan = 48 * time.Hour

	wc, err := cfg.WindowConfig()
	require.NoError(t, err)
	require.Equal(t, 6, wc.StepSize)
	require.Equal(t, window.Hours, wc.StepUnit)
	require.Equal(t, 0.25, wc.OverlapRatio)
	require.Equal(t, 48*time.Hour, wc.MaxWindowSpan)

	cfg.OverlapRatio = 0.9
	_, err = cfg.WindowConfig()
	require.Error(t, err, "engine validation runs during conversion")
}

func TestApplyFileConfig(t *testing.T) {
	raw := `
input = "chat.jsonl"
output_dir = "/data/out"
step_size = 50
step_unit = "days"
overlap_ratio = 0.0
max_window_span = "72h"
resume = true
`
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(raw), 0o600))

	fc, err := LoadFileConfig(path)
	require.NoError(t, err)

	cfg := DefaultConfig()
	ApplyFileConfig(&cfg, fc, nil)

	require.Equal(t, "chat.jsonl", cfg.Input)
	require.Equal(t, "/data/out", cfg.OutputDir)
	require.Equal(t, 50, cfg.StepSize)
	require.Equal(t, "days", cfg.StepUnit)
	require.Zero(t, cfg.OverlapRatio, "explicit zero overrides the default")
	require.Equal(t, 72*time.Hour, cfg.MaxWindowSpan)
	require.True(t, cfg.Resume)

	// Fields the file omits keep their defaults.
	require.Equal(t, int64(320_000), cfg.MaxWindowBytes)
	require.Equal(t, 5, cfg.MaxDepth)
}

func TestApplyFileConfigRespectsFlags(t *testing.T) {
	fc := FileConfig{StepSize: 50, OutputDir: "/from/file"}
	changed := map[string]bool{"step-size": true}

	cfg := DefaultConfig()
	cfg.StepSize = 25
	ApplyFileConfig(&cfg, fc, changed)

	require.Equal(t, 25, cfg.StepSize, "explicit flag wins over file")
	require.Equal(t, "/from/file", cfg.OutputDir)
}

func TestApplyEnvConfig(t *testing.T) {
	t.Setenv("WINDROW_INPUT", "env.jsonl")
	t.Setenv("WINDROW_STEP_SIZE", "75")
	t.Setenv("WINDROW_OVERLAP_RATIO", "0.1")
	t.Setenv("WINDROW_MAX_CALL_BYTES", "123456")
	t.Setenv("WINDROW_RESUME", "true")
	t.Setenv("WINDROW_MAX_WINDOW_SPAN", "36h")

	cfg := DefaultConfig()
	ApplyEnvConfig(&cfg, nil)

	require.Equal(t, "env.jsonl", cfg.Input)
	require.Equal(t, 75, cfg.StepSize)
	require.Equal(t, 0.1, cfg.OverlapRatio)
	require.Equal(t, int64(123456), cfg.MaxCallBytes)
	require.True(t, cfg.Resume)
	require.Equal(t, 36*time.Hour, cfg.MaxWindowSpan)
}

func TestApplyEnvConfigRespectsFlags(t *testing.T) {
	t.Setenv("WINDROW_STEP_SIZE", "75")

	cfg := DefaultConfig()
	cfg.StepSize = 10
	ApplyEnvConfig(&cfg, map[string]bool{"step-size": true})

	require.Equal(t, 10, cfg.StepSize)
}
