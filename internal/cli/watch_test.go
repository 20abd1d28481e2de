package cli

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/matzehuels/crosssection/pkg/errors"
)

func TestWatchFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "chart.json")
	if err := os.WriteFile(path, []byte(sampleChart), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	calls := make(chan struct{}, 10)
	done := make(chan error, 1)
	go func() {
		done <- watchFile(ctx, path, 50*time.Millisecond, func(context.Context) { calls <- struct{}{} })
	}()

	// Give the watcher time to register, then write twice in one burst
	// and touch an unrelated file.
	time.Sleep(100 * time.Millisecond)
	for i := 0; i < 2; i++ {
		if err := os.WriteFile(path, []byte(sampleChart), 0o644); err != nil {
			t.Fatal(err)
		}
	}
	if err := os.WriteFile(filepath.Join(dir, "other.json"), []byte("{}"), 0o644); err != nil {
		t.Fatal(err)
	}

	select {
	case <-calls:
	case <-ctx.Done():
		t.Fatal("watchFile did not report the change")
	}

	select {
	case <-calls:
		t.Error("burst of writes should trigger one call")
	case <-time.After(300 * time.Millisecond):
	}

	cancel()
	if err := <-done; err != context.Canceled {
		t.Errorf("watchFile() = %v, want context.Canceled", err)
	}
}

func TestWatchRejectsURL(t *testing.T) {
	isolate(t)
	_, err := execute(t, "watch", "https://example.com/sales.json")
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("watch URL error = %v, want INVALID_INPUT", err)
	}
}
