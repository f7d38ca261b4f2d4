// Package schedule runs windows through the caller's processor, splitting
// and requeueing any window that overflows its size budget.
//
// Processing is strictly sequential and depth-first: split parts go to the
// front of the work queue, so a window's entire split subtree finishes before
// the next sibling starts. The checkpoint logic depends on that ordering —
// when a top-level window commits, no earlier record is still unprocessed.
package schedule

import (
	"context"
	"errors"
	"math"

	"github.com/fold-labs/windrow/pkg/log"
	"github.com/fold-labs/windrow/pkg/metrics"
	"github.com/fold-labs/windrow/pkg/window"
)

// Processor handles one window. It returns the window's result, an *Overflow
// when the window exceeds its size budget, or any other error to abort the
// run. The callback may block on I/O; cancellation of that work is its own
// responsibility.
type Processor interface {
	Process(ctx context.Context, w window.Window, depth int) (any, error)
}

// ProcessorFunc adapts a function to the Processor interface.
type ProcessorFunc func(ctx context.Context, w window.Window, depth int) (any, error)

// Process calls the function.
func (f ProcessorFunc) Process(ctx context.Context, w window.Window, depth int) (any, error) {
	return f(ctx, w, depth)
}

// Results maps window labels to processor results.
type Results map[string]any

const (
	// DefaultMaxDepth bounds the recursive split. A window still overflowing
	// after this many splits aborts the run.
	DefaultMaxDepth = 5

	// DefaultMinWindowSize is the advisory lower bound on window size. A
	// smaller window is still attempted, with a warning.
	DefaultMinWindowSize = 5
)

// Scheduler consumes windows sequentially, invoking the processor and
// handling overflow by split-and-requeue. One Run owns all its mutable state;
// there is no shared state between runs and no concurrency inside one.
type Scheduler struct {
	proc          Processor
	maxDepth      int
	minWindowSize int
	logger        log.Logger
	collector     metrics.Collector
	onCommit      func(window.Window)
}

// Option configures a Scheduler.
type Option func(*Scheduler)

// WithMaxDepth overrides the split depth bound.
func WithMaxDepth(depth int) Option {
	return func(s *Scheduler) {
		s.maxDepth = depth
	}
}

// WithMinWindowSize overrides the advisory minimum window size.
func WithMinWindowSize(size int) Option {
	return func(s *Scheduler) {
		s.minWindowSize = size
	}
}

// WithLogger sets the scheduler's logger.
func WithLogger(logger log.Logger) Option {
	return func(s *Scheduler) {
		s.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(s *Scheduler) {
		s.collector = c
	}
}

// WithCommitHook registers a hook called after a top-level window and all of
// its split descendants have committed. This is where callers persist the
// checkpoint.
func WithCommitHook(hook func(window.Window)) Option {
	return func(s *Scheduler) {
		s.onCommit = hook
	}
}

// New creates a scheduler around the processor.
func New(proc Processor, opts ...Option) *Scheduler {
	s := &Scheduler{
		proc:          proc,
		maxDepth:      DefaultMaxDepth,
		minWindowSize: DefaultMinWindowSize,
		logger:        log.NewNop(),
		collector:     metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Run drains the sequence in partitioner order. Each top-level window is
// processed depth-first to completion before the next starts; the commit hook
// fires between them. On a fatal error the results accumulated so far are
// returned alongside it.
func (s *Scheduler) Run(ctx context.Context, seq *window.Sequence) (Results, error) {
	results := make(Results)
	for {
		w, ok := seq.Next()
		if !ok {
			return results, nil
		}
		if err := s.RunWindow(ctx, w, results); err != nil {
			return results, err
		}
		if s.onCommit != nil {
			s.onCommit(w)
		}
		s.collector.RecordsProcessed(w.Size())
	}
}

// RunWindow processes one top-level window and its split subtree, merging
// results into the given map. It returns nil only when every descendant
// committed.
func (s *Scheduler) RunWindow(ctx context.Context, root window.Window, results Results) error {
	type item struct {
		w     window.Window
		depth int
	}
	queue := []item{{w: root}}

	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return err
		}
		cur := queue[0]
		queue = queue[1:]

		if cur.w.Size() < s.minWindowSize {
			s.logger.Warn("window below minimum size, attempting anyway",
				log.Str("window", cur.w.Label()),
				log.Int("size", cur.w.Size()),
				log.Int("minimum", s.minWindowSize),
			)
		}
		if cur.depth >= s.maxDepth {
			s.collector.RunAborted("max_depth")
			return &DepthError{Label: cur.w.Label(), Depth: cur.depth}
		}

		out, err := s.proc.Process(ctx, cur.w, cur.depth)
		if err != nil {
			var ovf *Overflow
			if !errors.As(err, &ovf) {
				// Not the overflow signal: propagate unmodified so genuine
				// failures are never masked as transient.
				s.collector.RunAborted("processor")
				return err
			}
			parts, err := s.split(cur.w, cur.depth, ovf)
			if err != nil {
				return err
			}
			// Front insertion keeps processing depth-first.
			next := make([]item, 0, len(parts)+len(queue))
			for _, p := range parts {
				next = append(next, item{w: p, depth: cur.depth + 1})
			}
			queue = append(next, queue...)
			continue
		}

		results[cur.w.Label()] = out
		s.collector.WindowCommitted(cur.w.Size())
		s.logger.Info("window committed",
			log.Str("window", cur.w.Label()),
			log.Int("records", cur.w.Size()),
			log.Int("depth", cur.depth),
		)
	}
	return nil
}

// split computes the split factor from the overflow signal and divides the
// window, dropping empty parts. Only empty parts left means the run cannot
// make progress.
func (s *Scheduler) split(w window.Window, depth int, ovf *Overflow) ([]window.Window, error) {
	limit := ovf.EffectiveLimit
	if limit <= 0 {
		limit = 1
	}
	n := int(math.Ceil(float64(ovf.EstimatedSize) / float64(limit)))
	if n < 1 {
		n = 1
	}

	s.logger.Warn("splitting oversized window",
		log.Str("window", w.Label()),
		log.Int64("estimated_size", ovf.EstimatedSize),
		log.Int64("effective_limit", limit),
		log.Int("parts", n),
		log.Int("depth", depth),
	)

	parts, err := window.Split(w, n)
	if err != nil {
		return nil, err
	}

	kept := parts[:0]
	for _, p := range parts {
		if p.Size() == 0 {
			s.logger.Debug("dropping empty split part", log.Str("window", p.Label()))
			continue
		}
		kept = append(kept, p)
	}
	if len(kept) == 0 {
		s.collector.RunAborted("unsplittable")
		return nil, &UnsplittableError{Label: w.Label()}
	}

	s.collector.WindowSplit(len(kept), depth)
	return kept, nil
}
