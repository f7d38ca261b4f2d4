package window_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fold-labs/windrow/pkg/record"
	"github.com/fold-labs/windrow/pkg/window"
)

// firstWindow partitions the stream into a single count window covering it.
func firstWindow(t *testing.T, stream *record.Stream) window.Window {
	t.Helper()
	seq, err := window.NewSequence(stream, window.Config{StepSize: stream.Len(), StepUnit: window.Count})
	require.NoError(t, err)
	w, ok := seq.Next()
	require.True(t, ok)
	return w
}

func TestSplitPreservesEveryRecord(t *testing.T) {
	// Exactness for every n: no duplication, no loss, order kept.
	for _, total := range []int{1, 2, 7, 50} {
		stream := spread(total, 9*time.Hour)
		w := firstWindow(t, stream)
		for n := 1; n <= 7; n++ {
			parts, err := window.Split(w, n)
			require.NoError(t, err)
			require.Len(t, parts, n)

			sum := 0
			var ids []string
			for _, p := range parts {
				sum += p.Size()
				for r := range p.Records() {
					ids = append(ids, r.ID)
				}
			}
			require.Equal(t, w.Size(), sum, "total=%d n=%d", total, n)
			require.Len(t, ids, w.Size())
			for i := 1; i < len(ids); i++ {
				require.NotEqual(t, ids[i-1], ids[i])
			}
		}
	}
}

func TestSplitBoundaries(t *testing.T) {
	t.Run("parts tile the parent range", func(t *testing.T) {
		w := firstWindow(t, spread(12, 6*time.Hour))
		parts, err := window.Split(w, 3)
		require.NoError(t, err)

		require.Equal(t, w.Start, parts[0].Start)
		require.Equal(t, w.End, parts[2].End)
		for i := 1; i < len(parts); i++ {
			require.Equal(t, parts[i-1].End, parts[i].Start)
		}
	})

	t.Run("parts keep the parent index", func(t *testing.T) {
		w := firstWindow(t, spread(10, time.Hour))
		parts, err := window.Split(w, 2)
		require.NoError(t, err)
		for _, p := range parts {
			require.Equal(t, w.Index, p.Index)
		}
	})

	t.Run("record at the parent end lands in the last part", func(t *testing.T) {
		// For count windows End is the last record's timestamp; splitting
		// must not lose it to the half-open interior boundaries.
		w := firstWindow(t, spread(10, 5*time.Hour))
		last := w.View().At(w.Size() - 1)
		require.Equal(t, w.End, last.Timestamp)

		parts, err := window.Split(w, 4)
		require.NoError(t, err)
		tail := parts[3]
		require.NotZero(t, tail.Size())
		require.Equal(t, last.ID, tail.View().At(tail.Size()-1).ID)
	})
}

func TestSplitUnevenDistribution(t *testing.T) {
	t.Run("empty parts are returned, not dropped", func(t *testing.T) {
		// All records in the first sixth of the range.
		recs := []record.Record{
			{ID: "a", Timestamp: base},
			{ID: "b", Timestamp: base.Add(time.Minute)},
			{ID: "c", Timestamp: base.Add(6 * time.Hour)},
		}
		w := firstWindow(t, record.NewStream(recs))
		parts, err := window.Split(w, 6)
		require.NoError(t, err)
		require.Len(t, parts, 6)

		sum := 0
		empty := 0
		for _, p := range parts {
			sum += p.Size()
			if p.Size() == 0 {
				empty++
			}
		}
		require.Equal(t, 3, sum)
		require.NotZero(t, empty)
	})

	t.Run("zero duration window keeps all records in the last part", func(t *testing.T) {
		recs := []record.Record{
			{ID: "a", Timestamp: base},
			{ID: "b", Timestamp: base},
			{ID: "c", Timestamp: base},
		}
		w := firstWindow(t, record.NewStream(recs))
		parts, err := window.Split(w, 3)
		require.NoError(t, err)

		sum := 0
		for _, p := range parts {
			sum += p.Size()
		}
		require.Equal(t, 3, sum)
		require.Equal(t, 3, parts[2].Size())
	})
}

func TestSplitArguments(t *testing.T) {
	w := firstWindow(t, spread(4, time.Hour))

	t.Run("n of one returns the window unchanged", func(t *testing.T) {
		parts, err := window.Split(w, 1)
		require.NoError(t, err)
		require.Len(t, parts, 1)
		require.Equal(t, w.Size(), parts[0].Size())
	})

	t.Run("n below one is rejected", func(t *testing.T) {
		_, err := window.Split(w, 0)
		require.ErrorIs(t, err, window.ErrConfig)
	})
}
