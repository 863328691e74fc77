package watch

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/ghalamif/AegisPilot/internal/ports"
)

type nopObs struct{ ports.Observability }

func (nopObs) LogInfo(string, ...ports.Field)         {}
func (nopObs) LogError(string, error, ...ports.Field) {}

func TestParamsWatcherDebouncesBursts(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "controller_params.xml")
	if err := os.WriteFile(path, []byte("<controller_params/>"), 0o644); err != nil {
		t.Fatalf("seed file: %v", err)
	}

	var reloads atomic.Int32
	w := &ParamsWatcher{
		Path:     path,
		Debounce: 50 * time.Millisecond,
		Reload: func() (bool, error) {
			reloads.Add(1)
			return true, nil
		},
		Obs: nopObs{},
	}

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- w.Run(ctx) }()

	// give the watcher time to register
	time.Sleep(100 * time.Millisecond)

	for i := 0; i < 5; i++ {
		if err := os.WriteFile(path, []byte("<controller_params></controller_params>"), 0o644); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	// unrelated files in the directory are ignored
	if err := os.WriteFile(filepath.Join(dir, "other.xml"), []byte("x"), 0o644); err != nil {
		t.Fatalf("write other: %v", err)
	}

	deadline := time.Now().Add(2 * time.Second)
	for reloads.Load() == 0 && time.Now().Before(deadline) {
		time.Sleep(10 * time.Millisecond)
	}
	time.Sleep(200 * time.Millisecond)

	if got := reloads.Load(); got != 1 {
		t.Fatalf("expected exactly one reload, got %d", got)
	}

	cancel()
	if err := <-done; err != nil {
		t.Fatalf("run: %v", err)
	}
}

func TestParamsWatcherRequiresReload(t *testing.T) {
	w := &ParamsWatcher{Path: filepath.Join(t.TempDir(), "p.xml"), Obs: nopObs{}}
	if err := w.Run(context.Background()); err == nil {
		t.Fatalf("expected error without reload func")
	}
}
