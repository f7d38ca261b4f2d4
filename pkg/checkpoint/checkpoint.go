// Package checkpoint persists resumable progress: the end timestamp and
// cumulative record count of the last fully committed window. A later run
// filters already-committed records and continues strictly after them.
package checkpoint

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"

	"github.com/fold-labs/windrow/pkg/record"
)

// Checkpoint marks the most recently fully committed window, including all
// of its split descendants.
type Checkpoint struct {
	// LastProcessedTimestamp is the committed window's end time, in UTC.
	LastProcessedTimestamp time.Time `json:"last_processed_timestamp"`

	// RecordsProcessed is the cumulative record count across runs.
	RecordsProcessed int `json:"records_processed"`
}

// Store reads and writes the checkpoint file for one run directory. The run
// itself is the file's only writer, so no cross-process locking is needed.
type Store struct {
	path string
}

// NewStore creates a store for the given checkpoint file path.
func NewStore(path string) *Store {
	return &Store{path: path}
}

// Path returns the checkpoint file path.
func (s *Store) Path() string {
	return s.path
}

// Load reads the checkpoint. A missing or corrupt file reports absent; it is
// never an error the caller has to handle.
func (s *Store) Load() (Checkpoint, bool) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		return Checkpoint{}, false
	}
	var cp Checkpoint
	if err := json.Unmarshal(data, &cp); err != nil {
		return Checkpoint{}, false
	}
	if cp.LastProcessedTimestamp.IsZero() {
		return Checkpoint{}, false
	}
	return cp, true
}

// Save overwrites the checkpoint atomically: write to a temp file in the same
// directory, then rename. A crash mid-save leaves the previous checkpoint
// intact.
func (s *Store) Save(cp Checkpoint) error {
	cp.LastProcessedTimestamp = cp.LastProcessedTimestamp.UTC()

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	data, err := json.MarshalIndent(cp, "", "  ")
	if err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

// Filter drops every record at or before the checkpoint's timestamp,
// preserving the order of the remainder. With filtering disabled or no
// checkpoint present, the stream passes through unchanged. Applying the same
// checkpoint twice is a no-op.
func Filter(stream *record.Stream, cp *Checkpoint, enabled bool) *record.Stream {
	if !enabled || cp == nil {
		return stream
	}
	return stream.Suffix(stream.IndexAfter(cp.LastProcessedTimestamp))
}
