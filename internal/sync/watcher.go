package sync

import (
	"context"
	"errors"
	"log/slog"
	"maps"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/ansuz/internal/apperr"
	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/collection"
	"github.com/starford/ansuz/internal/models"
	"github.com/starford/ansuz/internal/storage"
)

// ReportCallback is called after a watcher-driven import pass.
type ReportCallback func(*models.ImportReport)

const debounceInterval = 500 * time.Millisecond

// Watch starts an fsnotify watcher on the vault root and its first-level
// subdirectories and processes change events until ctx is cancelled. Bursts
// of events are debounced into one full import pass; cb (if non-nil) runs
// after each pass.
//
// An import rewrites the very files it reads, which would re-trigger the
// watcher indefinitely. A checksum snapshot of the vault, refreshed after
// every pass, suppresses events whose content the last pass already produced.
func Watch(ctx context.Context, store storage.Provider, col collection.Collection, vaultRoot string, scope DeletionScope, logger *slog.Logger, cb ReportCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addWatchDirs(w, vaultRoot); err != nil {
		return err
	}

	seen, err := vaultChecksums(store)
	if err != nil {
		logger.Warn("watcher: initial snapshot failed", slog.String("error", err.Error()))
		seen = map[string]string{}
	}

	logger.Info("watcher: started", slog.String("root", vaultRoot))

	var debounce *time.Timer
	var debounceCh <-chan time.Time

	schedule := func() {
		if debounce == nil {
			debounce = time.NewTimer(debounceInterval)
			debounceCh = debounce.C
		} else {
			debounce.Reset(debounceInterval)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if debounce != nil {
				debounce.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-debounceCh:
			current, err := vaultChecksums(store)
			if err != nil {
				logger.Warn("watcher: snapshot failed", slog.String("error", err.Error()))
				continue
			}
			if maps.Equal(current, seen) {
				logger.Debug("watcher: vault unchanged, skipping import")
				continue
			}

			report, err := Run(store, col, scope, logger)
			if err != nil {
				if errors.Is(err, apperr.ErrNoNotesFound) {
					logger.Debug("watcher: vault holds no flashcard files")
					seen = current
					continue
				}
				logger.Warn("watcher: import failed", slog.String("error", err.Error()))
				continue
			}

			// Snapshot again: the import pass rewrote files.
			if after, err := vaultChecksums(store); err == nil {
				seen = after
			}
			if cb != nil {
				cb(report)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New first-level directories become decks: watch them.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if filepath.Dir(ev.Name) == vaultRoot {
						if addErr := w.Add(ev.Name); addErr != nil {
							logger.Warn("watcher: add new dir failed",
								slog.String("path", ev.Name),
								slog.String("error", addErr.Error()))
						} else {
							logger.Debug("watcher: watching new dir", slog.String("path", ev.Name))
						}
					}
					schedule()
					continue
				}
			}

			if !strings.HasSuffix(ev.Name, ".md") {
				continue
			}
			if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) != 0 {
				logger.Debug("watcher: vault event",
					slog.String("path", ev.Name),
					slog.String("op", ev.Op.String()))
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

// addWatchDirs watches the vault root and its immediate subdirectories.
// Deeper levels hold no flashcard files and are not watched.
func addWatchDirs(w *fsnotify.Watcher, root string) error {
	if err := w.Add(root); err != nil {
		return err
	}
	entries, err := os.ReadDir(root)
	if err != nil {
		return err
	}
	for _, e := range entries {
		if !e.IsDir() || strings.HasPrefix(e.Name(), ".") {
			continue
		}
		if err := w.Add(filepath.Join(root, e.Name())); err != nil {
			return err
		}
	}
	return nil
}

// vaultChecksums digests every discoverable flashcard file.
func vaultChecksums(store storage.Provider) (map[string]string, error) {
	refs, err := store.List()
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(refs))
	for _, ref := range refs {
		data, err := store.Read(ref.Path)
		if err != nil {
			// File vanished between List and Read; the next event
			// will resnapshot.
			continue
		}
		out[ref.Path] = checksum.Sum(data)
	}
	return out, nil
}
