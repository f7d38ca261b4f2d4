package window

import (
	"errors"
	"fmt"
	"time"
)

// ErrConfig is wrapped by every configuration validation failure so callers
// can distinguish bad configuration from runtime faults.
var ErrConfig = errors.New("window: invalid config")

// StepUnit selects the sizing dimension for windows.
type StepUnit uint8

const (
	// Count sizes windows by record count.
	Count StepUnit = iota
	// Hours sizes windows by wall-clock hours.
	Hours
	// Days sizes windows by wall-clock days.
	Days
	// Bytes packs windows greedily up to a payload byte limit.
	Bytes
)

// String returns the textual form used in config files and flags.
func (u StepUnit) String() string {
	switch u {
	case Count:
		return "count"
	case Hours:
		return "hours"
	case Days:
		return "days"
	case Bytes:
		return "bytes"
	}
	return fmt.Sprintf("stepunit(%d)", uint8(u))
}

// MarshalText implements encoding.TextMarshaler.
func (u StepUnit) MarshalText() ([]byte, error) {
	return []byte(u.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler for TOML and flag values.
func (u *StepUnit) UnmarshalText(text []byte) error {
	parsed, err := ParseStepUnit(string(text))
	if err != nil {
		return err
	}
	*u = parsed
	return nil
}

// ParseStepUnit converts the textual unit name to a StepUnit.
func ParseStepUnit(s string) (StepUnit, error) {
	switch s {
	case "count":
		return Count, nil
	case "hours":
		return Hours, nil
	case "days":
		return Days, nil
	case "bytes":
		return Bytes, nil
	}
	return 0, fmt.Errorf("%w: unknown step unit %q", ErrConfig, s)
}

// Config controls how the stream is cut into windows. Immutable per run.
type Config struct {
	// StepSize is the window stride: records for Count, hours/days for the
	// time units. Ignored for Bytes.
	StepSize int

	// StepUnit selects the windowing strategy.
	StepUnit StepUnit

	// OverlapRatio extends each window past its stride boundary by this
	// fraction of the stride, for context continuity. Valid range [0, 0.5].
	// The stride itself never changes. Not applied to byte windows.
	OverlapRatio float64

	// MaxWindowBytes is the packing limit for the Bytes unit. Required when
	// StepUnit is Bytes, ignored otherwise.
	MaxWindowBytes int64

	// MaxWindowSpan optionally caps the wall-clock span of time-based
	// windows. When the requested step exceeds it, the effective step is
	// shrunk to span/(1+overlap) before windows are produced. Zero disables
	// the cap.
	MaxWindowSpan time.Duration
}

// DefaultConfig returns the configuration used when the caller specifies
// nothing: 100-record windows with 20% overlap.
func DefaultConfig() Config {
	return Config{
		StepSize:     100,
		StepUnit:     Count,
		OverlapRatio: 0.2,
	}
}

// Validate fails fast on bad configuration, before any window is produced.
func (c Config) Validate() error {
	if c.StepUnit != Bytes && c.StepSize <= 0 {
		return fmt.Errorf("%w: step size must be positive, got %d", ErrConfig, c.StepSize)
	}
	if c.OverlapRatio < 0 || c.OverlapRatio > 0.5 {
		return fmt.Errorf("%w: overlap ratio must be in [0, 0.5], got %g", ErrConfig, c.OverlapRatio)
	}
	if c.StepUnit == Bytes && c.MaxWindowBytes <= 0 {
		return fmt.Errorf("%w: max window bytes is required for byte windowing", ErrConfig)
	}
	if c.MaxWindowSpan < 0 {
		return fmt.Errorf("%w: max window span must not be negative", ErrConfig)
	}
	switch c.StepUnit {
	case Count, Hours, Days, Bytes:
		return nil
	}
	return fmt.Errorf("%w: unknown step unit %q", ErrConfig, c.StepUnit)
}

// stepDuration returns the wall-clock step for the time units.
func (c Config) stepDuration() time.Duration {
	if c.StepUnit == Days {
		return time.Duration(c.StepSize) * 24 * time.Hour
	}
	return time.Duration(c.StepSize) * time.Hour
}
