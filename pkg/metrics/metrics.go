// Package metrics defines the engine's metrics collector contract with
// no-op and Prometheus implementations.
package metrics

// Collector receives scheduler and pipeline events. Implementations must be
// cheap: the engine calls them inline on its single processing thread.
type Collector interface {
	// WindowCommitted is called when a window's result is merged.
	WindowCommitted(records int)

	// WindowSplit is called when an oversized window is divided, with the
	// number of parts and the depth at which the split happened.
	WindowSplit(parts, depth int)

	// RunAborted is called when a run ends with a fatal error. The kind is
	// a short stable string such as "max_depth" or "unsplittable".
	RunAborted(kind string)

	// RecordsProcessed is called after each top-level commit with the
	// number of records the committed subtree covered.
	RecordsProcessed(records int)
}

// Nop discards all metrics.
type Nop struct{}

// NewNop creates a no-op collector.
func NewNop() Nop {
	return Nop{}
}

// WindowCommitted discards the event.
func (Nop) WindowCommitted(int) {}

// WindowSplit discards the event.
func (Nop) WindowSplit(int, int) {}

// RunAborted discards the event.
func (Nop) RunAborted(string) {}

// RecordsProcessed discards the event.
func (Nop) RecordsProcessed(int) {}
