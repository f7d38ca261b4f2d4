// Package signature computes deterministic window fingerprints so callers can
// skip windows whose output is already committed.
//
// A fingerprint has three colon-joined parts: content, config and template.
// Each part is an xxh3-128 digest of a stable serialization, so identical
// inputs produce identical fingerprints on any machine, in any process, at
// any time.
package signature

import (
	"encoding/hex"
	"fmt"
	"strings"

	"github.com/zeebo/xxh3"

	"github.com/fold-labs/windrow/pkg/window"
)

// Fingerprint returns the three-part signature for a window's serialized
// content under the given config and prompt template.
func Fingerprint(content []byte, cfg window.Config, template string) string {
	return strings.Join([]string{
		digest(content),
		digest([]byte(configKey(cfg))),
		digest([]byte(template)),
	}, ":")
}

// WindowFingerprint serializes the window's records and fingerprints the
// result. The serialization covers record identity, timestamp and payload,
// which is exactly what the processor sees.
func WindowFingerprint(w window.Window, cfg window.Config, template string) string {
	var sb strings.Builder
	for r := range w.Records() {
		sb.WriteString(r.ID)
		sb.WriteByte('\t')
		sb.WriteString(r.Timestamp.UTC().Format("2006-01-02T15:04:05.000000000Z"))
		sb.WriteByte('\t')
		sb.Write(r.Payload)
		sb.WriteByte('\n')
	}
	return Fingerprint([]byte(sb.String()), cfg, template)
}

// configKey serializes only the windowing-relevant config fields. Knobs that
// cannot change a window's content must not invalidate committed work.
func configKey(cfg window.Config) string {
	return fmt.Sprintf("step=%d;unit=%s;overlap=%g;max_bytes=%d;max_span=%d",
		cfg.StepSize, cfg.StepUnit, cfg.OverlapRatio, cfg.MaxWindowBytes, cfg.MaxWindowSpan)
}

func digest(b []byte) string {
	sum := xxh3.Hash128(b).Bytes()
	return hex.EncodeToString(sum[:])
}
