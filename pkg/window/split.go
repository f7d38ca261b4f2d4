package window

import (
	"fmt"
	"time"
)

// Split divides a window into n contiguous parts of equal duration and
// assigns each record by timestamp membership. Every record of the parent
// lands in exactly one part: interior boundaries are half-open and the last
// part's end is inclusive, so for count and byte windows (whose end is the
// last record's timestamp) nothing is lost. Parts may be empty when records
// distribute unevenly; all n parts are returned in order.
//
// The sum of part sizes always equals the parent's size. This is the
// contract the checkpoint logic depends on: no duplication, no loss.
func Split(w Window, n int) ([]Window, error) {
	if n < 1 {
		return nil, fmt.Errorf("%w: split count must be >= 1, got %d", ErrConfig, n)
	}
	if n == 1 {
		return []Window{w}, nil
	}

	view := w.View()
	duration := w.End.Sub(w.Start)
	partDur := duration / time.Duration(n)

	parts := make([]Window, 0, n)
	for i := 0; i < n; i++ {
		start := w.Start.Add(partDur * time.Duration(i))
		end := w.Start.Add(partDur * time.Duration(i+1))

		lo := view.IndexAtOrAfter(start)
		var hi int
		if i == n-1 {
			// The parent's nominal end wins over accumulated division
			// error, and records at exactly End belong to the last part.
			end = w.End
			hi = view.IndexAfter(end)
		} else {
			hi = view.IndexAtOrAfter(end)
		}

		parts = append(parts, Window{
			Index: w.Index,
			Start: start,
			End:   end,
			view:  view.Sub(lo, hi),
		})
	}
	return parts, nil
}
