package window

import (
	"math"
	"time"

	"github.com/fold-labs/windrow/pkg/log"
	"github.com/fold-labs/windrow/pkg/record"
)

// span is a precomputed window boundary: record range plus time range.
type span struct {
	lo, hi     int
	start, end time.Time
}

// Sequence is a finite, ordered, re-iterable sequence of windows over a
// stream. Boundaries are computed once at construction; record views are
// materialized lazily per window, so a Reset replays identical windows.
type Sequence struct {
	stream *record.Stream
	spans  []span
	pos    int
}

// Option configures sequence construction.
type Option func(*builder)

type builder struct {
	logger log.Logger
}

// WithLogger sets the logger used for advisory messages during construction
// (overlap clamps, span adjustments). Defaults to a no-op logger.
func WithLogger(logger log.Logger) Option {
	return func(b *builder) {
		b.logger = logger
	}
}

// NewSequence builds the window sequence for the stream under cfg.
//
// Configuration errors fail here, before any window is produced. An empty
// stream yields an empty sequence, not an error.
func NewSequence(stream *record.Stream, cfg Config, opts ...Option) (*Sequence, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	b := builder{logger: log.NewNop()}
	for _, opt := range opts {
		opt(&b)
	}

	seq := &Sequence{stream: stream}
	if stream.Len() == 0 {
		return seq, nil
	}

	switch cfg.StepUnit {
	case Count:
		seq.spans = countSpans(stream, cfg, b.logger)
	case Hours, Days:
		seq.spans = timeSpans(stream, cfg, b.logger)
	case Bytes:
		seq.spans = byteSpans(stream, cfg)
	}
	return seq, nil
}

// Len returns the number of windows in the sequence.
func (q *Sequence) Len() int {
	return len(q.spans)
}

// Next returns the next window in partitioner order. The second return is
// false once the sequence is exhausted.
func (q *Sequence) Next() (Window, bool) {
	if q.pos >= len(q.spans) {
		return Window{}, false
	}
	w := q.window(q.pos)
	q.pos++
	return w, true
}

// Reset rewinds the sequence to the first window. A subsequent iteration
// yields fresh views over the same boundaries.
func (q *Sequence) Reset() {
	q.pos = 0
}

func (q *Sequence) window(i int) Window {
	sp := q.spans[i]
	return Window{
		Index: i,
		Start: sp.start,
		End:   sp.end,
		view:  q.stream.View(sp.lo, sp.hi),
	}
}

// countSpans places window starts at multiples of the stride. Overlap adds
// floor(step*ratio) records past the stride boundary without moving the
// stride; the last window clips to the available records.
func countSpans(stream *record.Stream, cfg Config, logger log.Logger) []span {
	total := stream.Len()
	step := cfg.StepSize
	overlap := int(float64(step) * cfg.OverlapRatio)

	if cfg.MaxWindowSpan > 0 {
		logger.Warn("max window span is not enforced for count windowing; use hours or days for strict time limits")
	}

	spans := make([]span, 0, ceilDiv(total, step))
	for lo := 0; lo < total; lo += step {
		hi := lo + step + overlap
		if hi > total {
			hi = total
		}
		spans = append(spans, span{
			lo:    lo,
			hi:    hi,
			start: stream.At(lo).Timestamp,
			end:   stream.At(hi - 1).Timestamp,
		})
	}
	return spans
}

// timeSpans repeats half-open intervals of the step duration from the first
// record's timestamp. Overlap extends only the end of each interval. Windows
// over interior gaps may be empty.
func timeSpans(stream *record.Stream, cfg Config, logger log.Logger) []span {
	step := effectiveStep(cfg, logger)
	overlap := time.Duration(float64(step) * cfg.OverlapRatio)

	first := stream.First().Timestamp
	last := stream.Last().Timestamp

	num := int(last.Sub(first)/step) + 1
	spans := make([]span, 0, num)
	for i := 0; i < num; i++ {
		start := first.Add(time.Duration(i) * step)
		end := start.Add(step + overlap)
		spans = append(spans, span{
			lo:    stream.IndexAtOrAfter(start),
			hi:    stream.IndexAtOrAfter(end),
			start: start,
			end:   end,
		})
	}
	return spans
}

// effectiveStep applies the MaxWindowSpan cap: when the requested step would
// exceed the cap once overlap is added, shrink the step so the overall span
// stays within it.
func effectiveStep(cfg Config, logger log.Logger) time.Duration {
	step := cfg.stepDuration()
	if cfg.MaxWindowSpan <= 0 || step <= cfg.MaxWindowSpan {
		return step
	}

	capped := time.Duration(float64(cfg.MaxWindowSpan) / (1 + cfg.OverlapRatio))
	var adjusted time.Duration
	if capped < 24*time.Hour {
		hours := int(capped / time.Hour)
		if hours < 1 {
			hours = 1
		}
		adjusted = time.Duration(hours) * time.Hour
	} else {
		days := int(capped / (24 * time.Hour))
		if days < 1 {
			days = 1
		}
		adjusted = time.Duration(days) * 24 * time.Hour
	}

	logger.Info("adjusted window step to honor max window span",
		log.Dur("requested", step),
		log.Dur("effective", adjusted),
		log.Dur("max_span", cfg.MaxWindowSpan),
	)
	return adjusted
}

// byteSpans packs records greedily in stream order. A new window always takes
// at least one record, even one that alone exceeds the limit; the first
// record that would push the running total past the limit starts the next
// window. Worst case per window: limit + largest record in the window.
func byteSpans(stream *record.Stream, cfg Config) []span {
	total := stream.Len()
	limit := cfg.MaxWindowBytes

	var spans []span
	lo := 0
	for lo < total {
		running := stream.At(lo).Bytes()
		hi := lo + 1
		for hi < total && running+stream.At(hi).Bytes() <= limit {
			running += stream.At(hi).Bytes()
			hi++
		}
		spans = append(spans, span{
			lo:    lo,
			hi:    hi,
			start: stream.At(lo).Timestamp,
			end:   stream.At(hi - 1).Timestamp,
		})
		lo = hi
	}
	return spans
}

func ceilDiv(a, b int) int {
	return int(math.Ceil(float64(a) / float64(b)))
}
