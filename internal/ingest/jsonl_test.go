package ingest

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fold-labs/windrow/pkg/log"
)

func TestRead(t *testing.T) {
	input := strings.Join([]string{
		`{"ts":"2024-03-10T08:02:00Z","id":"b","text":"second"}`,
		`{"ts":"2024-03-10T08:00:00Z","id":"a","text":"first"}`,
		``,
		`{"ts":"2024-03-10T08:05:00Z","text":"no id"}`,
		`not json at all`,
		`{"id":"no-ts","text":"missing timestamp"}`,
	}, "\n")

	stream, err := Read(strings.NewReader(input), log.NewNop())
	require.NoError(t, err)
	require.Equal(t, 3, stream.Len())

	// The stream sorts by timestamp regardless of file order.
	require.Equal(t, "a", stream.At(0).ID)
	require.Equal(t, "first", string(stream.At(0).Payload))
	require.Equal(t, "b", stream.At(1).ID)
	require.Equal(t,
		time.Date(2024, 3, 10, 8, 0, 0, 0, time.UTC),
		stream.At(0).Timestamp,
	)

	// A missing id is replaced with the line position.
	require.Equal(t, "line-4", stream.At(2).ID)
}

func TestReadEmpty(t *testing.T) {
	stream, err := Read(strings.NewReader(""), log.NewNop())
	require.NoError(t, err)
	require.Zero(t, stream.Len())
}

func TestReadOverlongLine(t *testing.T) {
	long := `{"ts":"2024-03-10T08:00:00Z","id":"big","text":"` +
		strings.Repeat("x", maxLineBytes+1) + `"}`
	_, err := Read(strings.NewReader(long), log.NewNop())
	require.Error(t, err)
}
