// Package watch reloads the controller params document when it changes on disk.
package watch

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/ghalamif/AegisPilot/internal/ports"
)

const DefaultDebounce = 250 * time.Millisecond

// ParamsWatcher calls Reload once per burst of edits to a single file. The parent
// directory is watched so atomic replace-by-rename is seen too. Reload reports false
// when the file held nothing new, e.g. after the controller's own save.
type ParamsWatcher struct {
	Path     string
	Debounce time.Duration
	Reload   func() (bool, error)
	Obs      ports.Observability
}

func (w *ParamsWatcher) Run(ctx context.Context) error {
	if w.Reload == nil {
		return fmt.Errorf("params watcher needs a reload func")
	}
	delay := w.Debounce
	if delay <= 0 {
		delay = DefaultDebounce
	}

	target, err := filepath.Abs(w.Path)
	if err != nil {
		return err
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create params watcher: %w", err)
	}
	defer fw.Close()

	if err := fw.Add(filepath.Dir(target)); err != nil {
		return fmt.Errorf("failed to watch %q: %w", filepath.Dir(target), err)
	}

	var debounceTimer *time.Timer
	defer func() {
		if debounceTimer != nil {
			debounceTimer.Stop()
		}
	}()

	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}

			if debounceTimer != nil {
				debounceTimer.Stop()
			}
			debounceTimer = time.AfterFunc(delay, func() {
				applied, err := w.Reload()
				if err != nil {
					w.Obs.LogError("params_reload_failed", err, ports.Field{Key: "path", Value: target})
					return
				}
				if applied {
					w.Obs.LogInfo("params_reloaded", ports.Field{Key: "path", Value: target})
				}
			})

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			if err != nil {
				w.Obs.LogError("params_watcher_failed", err)
			}
		case <-ctx.Done():
			return nil
		}
	}
}
