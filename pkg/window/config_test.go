package window_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fold-labs/windrow/pkg/record"
	"github.com/fold-labs/windrow/pkg/window"
)

func TestConfigValidate(t *testing.T) {
	cases := []struct {
		name string
		cfg  window.Config
		ok   bool
	}{
		{"default", window.DefaultConfig(), true},
		{"zero step size", window.Config{StepSize: 0, StepUnit: window.Count}, false},
		{"negative step size", window.Config{StepSize: -3, StepUnit: window.Hours}, false},
		{"negative overlap", window.Config{StepSize: 10, StepUnit: window.Count, OverlapRatio: -0.1}, false},
		{"overlap above half", window.Config{StepSize: 10, StepUnit: window.Count, OverlapRatio: 0.51}, false},
		{"overlap at half", window.Config{StepSize: 10, StepUnit: window.Count, OverlapRatio: 0.5}, true},
		{"bytes without limit", window.Config{StepUnit: window.Bytes}, false},
		{"bytes with limit", window.Config{StepUnit: window.Bytes, MaxWindowBytes: 1000}, true},
		{"negative span", window.Config{StepSize: 1, StepUnit: window.Hours, MaxWindowSpan: -time.Hour}, false},
		{"unknown unit", window.Config{StepSize: 1, StepUnit: window.StepUnit(42)}, false},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.cfg.Validate()
			if tc.ok {
				require.NoError(t, err)
			} else {
				require.ErrorIs(t, err, window.ErrConfig)
			}
		})
	}
}

func TestConfigErrorFailsBeforeWindows(t *testing.T) {
	stream := record.NewStream([]record.Record{{ID: "a", Timestamp: base}})
	_, err := window.NewSequence(stream, window.Config{StepSize: 0, StepUnit: window.Count})
	require.ErrorIs(t, err, window.ErrConfig)
}

func TestStepUnitText(t *testing.T) {
	for _, name := range []string{"count", "hours", "days", "bytes"} {
		unit, err := window.ParseStepUnit(name)
		require.NoError(t, err)
		require.Equal(t, name, unit.String())

		var roundTrip window.StepUnit
		require.NoError(t, roundTrip.UnmarshalText([]byte(name)))
		require.Equal(t, unit, roundTrip)
	}

	_, err := window.ParseStepUnit("weeks")
	require.ErrorIs(t, err, window.ErrConfig)
}
