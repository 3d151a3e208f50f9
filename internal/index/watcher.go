package index

import (
	"context"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/lumina/internal/models"
	"github.com/starford/lumina/internal/storage"
)

// debounce is how long the watcher waits after the last change to the log
// file before re-syncing. Atomic writes produce several events per save.
const debounce = 200 * time.Millisecond

// EventCallback is called after a watcher-driven sync changed the index.
// changed is the number of entries upserted or removed.
type EventCallback func(changed int)

// Watch starts an fsnotify watcher on the store root and re-syncs the index
// whenever the log collection file changes on disk, until ctx is cancelled.
// Writes made through the application already reconcile the index, so they
// resolve to a no-op sync and do not invoke cb.
func Watch(ctx context.Context, db *DB, logs *storage.Collection[[]models.Entry], root string, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := w.Add(root); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", root))

	target := logs.Key().File()

	var timer *time.Timer
	var timerCh <-chan time.Time

	schedule := func() {
		if timer == nil {
			timer = time.NewTimer(debounce)
			timerCh = timer.C
		} else {
			timer.Reset(debounce)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-timerCh:
			n, syncErr := Sync(db, logs, logger)
			if syncErr != nil {
				logger.Warn("watcher: sync failed", slog.String("error", syncErr.Error()))
				continue
			}
			if n > 0 {
				logger.Info("watcher: entries reloaded", slog.Int("changed", n))
				if cb != nil {
					cb(n)
				}
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Base(ev.Name) != target {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				schedule()
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}
