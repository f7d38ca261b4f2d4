// Package export is the reference window processor: it renders each window
// to a JSONL part file under an output directory, reporting overflow when
// the rendered payload exceeds the per-call budget so the scheduler splits
// the window.
package export

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/fold-labs/windrow/pkg/log"
	"github.com/fold-labs/windrow/pkg/schedule"
	"github.com/fold-labs/windrow/pkg/window"
)

// Exporter writes windows to disk. It implements schedule.Processor.
type Exporter struct {
	dir    string
	limit  int64
	logger log.Logger
}

var _ schedule.Processor = (*Exporter)(nil)

// New creates an exporter writing under dir with the given per-call byte
// budget. A limit of zero disables the budget check.
func New(dir string, limit int64, logger log.Logger) *Exporter {
	return &Exporter{dir: dir, limit: limit, logger: logger}
}

type exportedLine struct {
	TS   time.Time `json:"ts"`
	ID   string    `json:"id"`
	Text string    `json:"text"`
}

// Process renders the window and writes it as one part file. The rendered
// size is the overflow estimate: it is what a downstream call would be
// charged for.
func (e *Exporter) Process(_ context.Context, w window.Window, depth int) (any, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	for r := range w.Records() {
		if err := enc.Encode(exportedLine{TS: r.Timestamp, ID: r.ID, Text: string(r.Payload)}); err != nil {
			return nil, fmt.Errorf("render window %s: %w", w.Label(), err)
		}
	}

	if e.limit > 0 && int64(buf.Len()) > e.limit {
		return nil, &schedule.Overflow{
			EstimatedSize:  int64(buf.Len()),
			EffectiveLimit: e.limit,
		}
	}

	name := partName(w, depth)
	if err := e.write(name, buf.Bytes()); err != nil {
		return nil, err
	}

	e.logger.Debug("exported window",
		log.Str("window", w.Label()),
		log.Str("file", name),
		log.Int("records", w.Size()),
	)
	return name, nil
}

// write lands the part file atomically so a crashed run never leaves a
// half-written part next to a valid checkpoint.
func (e *Exporter) write(name string, data []byte) error {
	if err := os.MkdirAll(e.dir, 0o755); err != nil {
		return err
	}
	path := filepath.Join(e.dir, name)
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, path)
}

func partName(w window.Window, depth int) string {
	return fmt.Sprintf("w%04d-d%d-%s-%s.jsonl",
		w.Index, depth,
		w.Start.UTC().Format("20060102T150405"),
		w.End.UTC().Format("20060102T150405"),
	)
}
