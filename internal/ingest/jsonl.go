// Package ingest reads timestamped records from JSONL files into a stream.
// One object per line: {"ts": "<ISO-8601>", "id": "...", "text": "..."}.
package ingest

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/fold-labs/windrow/pkg/log"
	"github.com/fold-labs/windrow/pkg/record"
)

// maxLineBytes bounds a single JSONL line. Payloads are chat-sized; 1 MiB
// leaves generous headroom.
const maxLineBytes = 1 << 20

type line struct {
	TS   time.Time `json:"ts"`
	ID   string    `json:"id"`
	Text string    `json:"text"`
}

// ReadFile reads a JSONL file into a sorted record stream.
func ReadFile(path string, logger log.Logger) (*record.Stream, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open records: %w", err)
	}
	defer f.Close()
	return Read(f, logger)
}

// Read reads JSONL records from r. Malformed lines are skipped with a single
// summary warning; missing IDs get positional ones.
func Read(r io.Reader, logger log.Logger) (*record.Stream, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), maxLineBytes)

	var recs []record.Record
	lineNo := 0
	malformed := 0
	for scanner.Scan() {
		lineNo++
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var l line
		if err := json.Unmarshal(raw, &l); err != nil || l.TS.IsZero() {
			malformed++
			continue
		}
		id := l.ID
		if id == "" {
			id = fmt.Sprintf("line-%d", lineNo)
		}
		recs = append(recs, record.Record{
			ID:        id,
			Timestamp: l.TS,
			Payload:   []byte(l.Text),
		})
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan records: %w", err)
	}
	if malformed > 0 {
		logger.Warn("skipped malformed record lines", log.Int("lines", malformed))
	}
	return record.NewStream(recs), nil
}
