package watch

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/fold-labs/windrow/pkg/log"
)

func TestWatcherRunsOnDroppedFile(t *testing.T) {
	dir := t.TempDir()
	got := make(chan string, 4)
	w := New(dir, func(_ context.Context, path string) error {
		got <- path
		return nil
	}, log.NewNop(), 50*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// Let the watcher register before dropping files.
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(dir, "drop.jsonl")
	require.NoError(t, os.WriteFile(path, []byte(`{"ts":"2024-03-10T08:00:00Z","text":"x"}`+"\n"), 0o600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "notes.txt"), []byte("ignored"), 0o600))

	select {
	case p := <-got:
		require.Equal(t, path, p)
	case <-time.After(5 * time.Second):
		t.Fatal("watcher did not pick up the dropped file")
	}

	// The non-JSONL file never triggers a run.
	select {
	case p := <-got:
		t.Fatalf("unexpected run for %s", p)
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	require.ErrorIs(t, <-done, context.Canceled)
}

func TestWatcherDebouncesRepeatedWrites(t *testing.T) {
	dir := t.TempDir()
	got := make(chan string, 8)
	w := New(dir, func(_ context.Context, path string) error {
		got <- path
		return nil
	}, log.NewNop(), 200*time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = w.Run(ctx) }()
	time.Sleep(200 * time.Millisecond)

	path := filepath.Join(dir, "busy.jsonl")
	for i := 0; i < 5; i++ {
		require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0o600))
		time.Sleep(20 * time.Millisecond)
	}

	select {
	case <-got:
	case <-time.After(5 * time.Second):
		t.Fatal("debounced run never fired")
	}
	select {
	case <-got:
		t.Fatal("rapid writes produced more than one run")
	case <-time.After(500 * time.Millisecond):
	}
}
