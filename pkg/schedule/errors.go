package schedule

import "fmt"

// Overflow is the one recoverable processor error: the window's payload
// exceeded the processor's size budget. It carries what the scheduler needs
// to compute the split factor. Any other processor error propagates
// unmodified and aborts the run.
type Overflow struct {
	// EstimatedSize is the processor's size estimate for the window.
	EstimatedSize int64

	// EffectiveLimit is the budget the estimate exceeded.
	EffectiveLimit int64
}

func (e *Overflow) Error() string {
	return fmt.Sprintf("schedule: window payload %d exceeds limit %d", e.EstimatedSize, e.EffectiveLimit)
}

// DepthError is fatal: a window was split MaxDepth times and still
// overflowed. The run aborts; the last saved checkpoint remains valid.
type DepthError struct {
	Label string
	Depth int
}

func (e *DepthError) Error() string {
	return fmt.Sprintf(
		"schedule: max split depth %d reached for window %s: window cannot be split enough to fit the size budget; raise the per-call limit",
		e.Depth, e.Label,
	)
}

// UnsplittableError is fatal: a split produced only empty parts, which means
// the budget estimate and the data cannot be reconciled by further splitting.
type UnsplittableError struct {
	Label string
}

func (e *UnsplittableError) Error() string {
	return fmt.Sprintf("schedule: cannot split window %s: all parts would be empty", e.Label)
}
