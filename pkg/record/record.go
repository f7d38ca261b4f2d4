// Package record holds the immutable record stream that windows are cut from.
//
// A Stream owns a timestamp-sorted copy of the caller's records and hands out
// range views over it. Views never copy records; they are the only way window
// code touches the stream.
package record

import (
	"iter"
	"sort"
	"time"
)

// Record is a single timestamped entry in the stream. Records are never
// mutated after the stream is built, only sliced by reference.
type Record struct {
	ID        string
	Timestamp time.Time
	Payload   []byte
}

// Bytes returns the payload size of the record.
func (r Record) Bytes() int64 {
	return int64(len(r.Payload))
}

// Stream is an immutable, timestamp-ordered record store.
//
// Ordering is total: by timestamp, ties broken by the caller's original
// order (the sort is stable). Prefix byte sums are precomputed so byte-sized
// range queries are O(1).
type Stream struct {
	recs []Record
	// sums[i] holds the total payload bytes of recs[:i].
	sums []int64
}

// NewStream builds a stream from the caller's records. The slice is copied
// and stably sorted by timestamp; the caller keeps ownership of the input.
func NewStream(recs []Record) *Stream {
	cp := make([]Record, len(recs))
	copy(cp, recs)
	sort.SliceStable(cp, func(i, j int) bool {
		return cp[i].Timestamp.Before(cp[j].Timestamp)
	})
	return newSorted(cp)
}

func newSorted(recs []Record) *Stream {
	sums := make([]int64, len(recs)+1)
	for i, r := range recs {
		sums[i+1] = sums[i] + r.Bytes()
	}
	return &Stream{recs: recs, sums: sums}
}

// Len returns the number of records in the stream.
func (s *Stream) Len() int {
	return len(s.recs)
}

// At returns the record at index i.
func (s *Stream) At(i int) Record {
	return s.recs[i]
}

// First returns the earliest record. Only valid for non-empty streams.
func (s *Stream) First() Record {
	return s.recs[0]
}

// Last returns the latest record. Only valid for non-empty streams.
func (s *Stream) Last() Record {
	return s.recs[len(s.recs)-1]
}

// BytesBetween returns the total payload bytes of recs[lo:hi].
func (s *Stream) BytesBetween(lo, hi int) int64 {
	return s.sums[hi] - s.sums[lo]
}

// IndexAtOrAfter returns the index of the first record whose timestamp is
// >= ts, or Len() if there is none.
func (s *Stream) IndexAtOrAfter(ts time.Time) int {
	return sort.Search(len(s.recs), func(i int) bool {
		return !s.recs[i].Timestamp.Before(ts)
	})
}

// IndexAfter returns the index of the first record whose timestamp is
// strictly after ts, or Len() if there is none.
func (s *Stream) IndexAfter(ts time.Time) int {
	return sort.Search(len(s.recs), func(i int) bool {
		return s.recs[i].Timestamp.After(ts)
	})
}

// Suffix returns a stream over recs[from:]. The backing array is shared;
// no records are copied.
func (s *Stream) Suffix(from int) *Stream {
	if from <= 0 {
		return s
	}
	if from >= len(s.recs) {
		return newSorted(nil)
	}
	return newSorted(s.recs[from:])
}

// View returns a range view over recs[lo:hi].
func (s *Stream) View(lo, hi int) View {
	return View{stream: s, lo: lo, hi: hi}
}

// All returns a view spanning the whole stream.
func (s *Stream) All() View {
	return s.View(0, len(s.recs))
}

// View is a half-open range descriptor over a stream. It owns no records and
// is cheap to copy and re-slice.
type View struct {
	stream *Stream
	lo, hi int
}

// Len returns the number of records in the view.
func (v View) Len() int {
	return v.hi - v.lo
}

// At returns the i-th record of the view.
func (v View) At(i int) Record {
	return v.stream.At(v.lo + i)
}

// Bytes returns the total payload bytes covered by the view.
func (v View) Bytes() int64 {
	return v.stream.BytesBetween(v.lo, v.hi)
}

// Sub re-slices the view to its records [lo:hi].
func (v View) Sub(lo, hi int) View {
	return View{stream: v.stream, lo: v.lo + lo, hi: v.lo + hi}
}

// IndexAtOrAfter returns the view-relative index of the first record with
// timestamp >= ts, or Len() if there is none.
func (v View) IndexAtOrAfter(ts time.Time) int {
	i := v.stream.IndexAtOrAfter(ts)
	return clamp(i-v.lo, 0, v.Len())
}

// IndexAfter returns the view-relative index of the first record with
// timestamp strictly after ts, or Len() if there is none.
func (v View) IndexAfter(ts time.Time) int {
	i := v.stream.IndexAfter(ts)
	return clamp(i-v.lo, 0, v.Len())
}

// Records iterates the view in stream order.
func (v View) Records() iter.Seq[Record] {
	return func(yield func(Record) bool) {
		for i := v.lo; i < v.hi; i++ {
			if !yield(v.stream.At(i)) {
				return
			}
		}
	}
}

func clamp(i, lo, hi int) int {
	if i < lo {
		return lo
	}
	if i > hi {
		return hi
	}
	return i
}
