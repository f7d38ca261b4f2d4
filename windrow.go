// Package windrow slices an ordered stream of timestamped records into
// bounded windows sized for a downstream processor with a fixed capacity
// budget, recursively shrinks any window that exceeds that budget, and
// persists resumable progress so a restarted run continues strictly after
// committed work.
//
// Example usage:
//
//	stream := record.NewStream(recs)
//	cfg := window.DefaultConfig()
//	p := windrow.New(proc,
//	    windrow.WithWindowConfig(cfg),
//	    windrow.WithCheckpoint(checkpoint.NewStore(path), true),
//	)
//	results, err := p.Run(ctx, stream)
//
// The processor is the caller's: windrow never calls an external API itself
// and never runs windows concurrently. Sequential, depth-first ordering is
// what makes "checkpoint advanced to this window's end" a safe local fact.
package windrow

import (
	"context"

	"github.com/fold-labs/windrow/pkg/checkpoint"
	"github.com/fold-labs/windrow/pkg/log"
	"github.com/fold-labs/windrow/pkg/metrics"
	"github.com/fold-labs/windrow/pkg/record"
	"github.com/fold-labs/windrow/pkg/schedule"
	"github.com/fold-labs/windrow/pkg/signature"
	"github.com/fold-labs/windrow/pkg/window"
)

// Pipeline wires the partitioner, scheduler, signer and checkpoint store
// into one resumable run.
type Pipeline struct {
	proc     schedule.Processor
	cfg      window.Config
	store    *checkpoint.Store
	resume   bool
	index    signature.CommitIndex
	template string
	logger   log.Logger
	coll     metrics.Collector
	schedule []schedule.Option
}

// Option configures a Pipeline.
type Option func(*Pipeline)

// WithWindowConfig sets the windowing configuration. Defaults to
// window.DefaultConfig().
func WithWindowConfig(cfg window.Config) Option {
	return func(p *Pipeline) {
		p.cfg = cfg
	}
}

// WithCheckpoint sets the checkpoint store and whether resume filtering is
// enabled. Without a store, progress is not persisted.
func WithCheckpoint(store *checkpoint.Store, resume bool) Option {
	return func(p *Pipeline) {
		p.store = store
		p.resume = resume
	}
}

// WithCommitIndex sets the idempotence lookup consulted before scheduling
// each window. Windows whose signature is already committed are skipped.
func WithCommitIndex(index signature.CommitIndex) Option {
	return func(p *Pipeline) {
		p.index = index
	}
}

// WithTemplate sets the prompt template that participates in window
// signatures.
func WithTemplate(template string) Option {
	return func(p *Pipeline) {
		p.template = template
	}
}

// WithLogger sets the pipeline logger.
func WithLogger(logger log.Logger) Option {
	return func(p *Pipeline) {
		p.logger = logger
	}
}

// WithMetrics sets the metrics collector.
func WithMetrics(c metrics.Collector) Option {
	return func(p *Pipeline) {
		p.coll = c
	}
}

// WithSchedulerOptions forwards extra options to the underlying scheduler,
// such as schedule.WithMaxDepth.
func WithSchedulerOptions(opts ...schedule.Option) Option {
	return func(p *Pipeline) {
		p.schedule = append(p.schedule, opts...)
	}
}

// New creates a pipeline around the caller's processor.
func New(proc schedule.Processor, opts ...Option) *Pipeline {
	p := &Pipeline{
		proc:   proc,
		cfg:    window.DefaultConfig(),
		logger: log.NewNop(),
		coll:   metrics.NewNop(),
	}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// Run partitions the stream and processes every window in order, saving the
// checkpoint after each top-level window's subtree commits. On a fatal error
// the checkpoint already written remains valid: a later Run with resume
// enabled continues after the last committed window with no duplicates and
// no lost records.
func (p *Pipeline) Run(ctx context.Context, stream *record.Stream) (schedule.Results, error) {
	processed := 0
	var cp *checkpoint.Checkpoint
	if p.store != nil && p.resume {
		if loaded, ok := p.store.Load(); ok {
			cp = &loaded
			processed = loaded.RecordsProcessed
			p.logger.Info("resuming after checkpoint",
				log.Time("last_processed", loaded.LastProcessedTimestamp),
				log.Int("records_processed", loaded.RecordsProcessed),
			)
		} else {
			p.logger.Info("no checkpoint found, starting fresh")
		}
	}

	before := stream.Len()
	filtered := checkpoint.Filter(stream, cp, p.resume)
	if skipped := before - filtered.Len(); skipped > 0 {
		p.logger.Info("skipped already-committed records", log.Int("skipped", skipped))
	}

	seq, err := window.NewSequence(filtered, p.cfg, window.WithLogger(p.logger))
	if err != nil {
		return nil, err
	}
	p.logger.Info("partitioned stream",
		log.Int("records", filtered.Len()),
		log.Int("windows", seq.Len()),
		log.Str("unit", p.cfg.StepUnit.String()),
	)

	sched := schedule.New(p.proc, append([]schedule.Option{
		schedule.WithLogger(p.logger),
		schedule.WithMetrics(p.coll),
	}, p.schedule...)...)

	results := make(schedule.Results)
	for {
		w, ok := seq.Next()
		if !ok {
			return results, nil
		}

		var sig string
		if p.index != nil {
			sig = signature.WindowFingerprint(w, p.cfg, p.template)
			if p.index.IsCommitted(sig) {
				p.logger.Info("skipping committed window", log.Str("window", w.Label()))
				continue
			}
		}

		if err := sched.RunWindow(ctx, w, results); err != nil {
			return results, err
		}

		processed += w.Size()
		p.coll.RecordsProcessed(w.Size())
		if p.index != nil {
			p.index.Commit(sig)
		}
		if p.store != nil {
			cp := checkpoint.Checkpoint{
				LastProcessedTimestamp: w.End,
				RecordsProcessed:       processed,
			}
			if err := p.store.Save(cp); err != nil {
				return results, err
			}
			p.logger.Debug("checkpoint saved",
				log.Time("last_processed", cp.LastProcessedTimestamp),
				log.Int("records_processed", cp.RecordsProcessed),
			)
		}
	}
}
