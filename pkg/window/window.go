// Package window cuts an ordered record stream into bounded batches sized for
// a downstream processor with a fixed capacity budget, and splits windows that
// turn out too large anyway.
//
// Three strategies are supported, selected by Config.StepUnit: fixed record
// count, fixed wall-clock duration, and greedy byte packing. Windows are range
// views over the stream, never copies.
package window

import (
	"fmt"
	"iter"
	"time"

	"github.com/fold-labs/windrow/pkg/record"
)

// Window is one bounded, time-ordered slice of the record stream, submitted
// to the processor as a single unit of work. It owns no records, only a range
// descriptor; its lifetime is one scheduler iteration.
type Window struct {
	// Index is the window's position in partitioner order. Split parts keep
	// their parent's index.
	Index int

	// Start and End bound the window's time range. For count and byte
	// windows End is the timestamp of the last record in the window; for
	// time windows it is the exclusive interval boundary (plus overlap).
	Start time.Time
	End   time.Time

	view record.View
}

// Size returns the number of records in the window.
func (w Window) Size() int {
	return w.view.Len()
}

// Bytes returns the total payload bytes in the window.
func (w Window) Bytes() int64 {
	return w.view.Bytes()
}

// View exposes the window's range view for callers that need indexed access.
func (w Window) View() record.View {
	return w.view
}

// Records iterates the window's records in stream order.
func (w Window) Records() iter.Seq[record.Record] {
	return w.view.Records()
}

// Label renders the window's time range in the form used for result keys,
// log lines and error messages.
func (w Window) Label() string {
	return fmt.Sprintf("%s to %s", w.Start.Format("2006-01-02 15:04"), w.End.Format("15:04"))
}
