package index

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/starford/vaultkit/internal/storage"
)

// Change kinds passed to an EventCallback.
const (
	Created = "created"
	Updated = "updated"
	Deleted = "deleted"
)

// EventCallback is called after a watcher-driven ledger change.
type EventCallback func(kind string, path string)

const reconcileDelay = 200 * time.Millisecond

// Watch keeps the ledger in step with the vault until ctx is cancelled.
//
// Directories created at runtime are added to the watch list and their notes
// indexed. A rename deletes the old path right away and schedules a debounced
// reconciliation that picks up the new one.
func Watch(ctx context.Context, db *DB, store storage.Provider, logger *slog.Logger, cb EventCallback) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	root := store.Root()
	if err := watchTree(w, store, root); err != nil {
		return err
	}
	logger.Info("watcher: started", slog.String("root", root))

	emit := func(kind, rel string) {
		logger.Debug("watcher: "+kind, slog.String("path", rel))
		if cb != nil {
			cb(kind, rel)
		}
	}

	var timer *time.Timer
	var reconcileCh <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			logger.Info("watcher: stopped")
			return nil

		case <-reconcileCh:
			reconcile(db, store, logger, emit)

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			if ev.Has(fsnotify.Create) {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if store.Skipped(info.Name()) {
						continue
					}
					if addErr := watchTree(w, store, ev.Name); addErr != nil {
						logger.Warn("watcher: add dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					indexTree(db, store, ev.Name, logger, emit)
					continue
				}
			}

			rel, ok := noteRel(root, ev.Name)
			if !ok {
				continue
			}

			switch {
			case ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write):
				data, readErr := store.Read(rel)
				if readErr != nil {
					logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
					continue
				}
				if idxErr := indexFile(db, rel, data); idxErr != nil {
					logger.Warn("watcher: index failed", slog.String("path", rel), slog.String("error", idxErr.Error()))
					continue
				}
				kind := Updated
				if ev.Has(fsnotify.Create) {
					kind = Created
				}
				emit(kind, rel)

			case ev.Has(fsnotify.Remove):
				if delErr := db.DeleteNote(rel); delErr != nil {
					logger.Warn("watcher: delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
					continue
				}
				emit(Deleted, rel)

			case ev.Has(fsnotify.Rename):
				if delErr := db.DeleteNote(rel); delErr != nil {
					logger.Warn("watcher: rename delete failed", slog.String("path", rel), slog.String("error", delErr.Error()))
				} else {
					emit(Deleted, rel)
				}
				if timer == nil {
					timer = time.NewTimer(reconcileDelay)
					reconcileCh = timer.C
				} else {
					timer.Reset(reconcileDelay)
				}
			}

		case watchErr, ok := <-w.Errors:
			if !ok {
				return nil
			}
			logger.Error("watcher: error", slog.String("error", watchErr.Error()))
		}
	}
}

// reconcile removes ledger rows whose files are gone and indexes files whose
// checksum differs from the ledger.
func reconcile(db *DB, store storage.Provider, logger *slog.Logger, emit func(kind, rel string)) {
	checksums, err := db.AllChecksums()
	if err != nil {
		logger.Warn("reconcile: all checksums failed", slog.String("error", err.Error()))
		return
	}
	metas, err := store.List("")
	if err != nil {
		logger.Warn("reconcile: list failed", slog.String("error", err.Error()))
		return
	}

	disk := make(map[string]string, len(metas))
	for _, m := range metas {
		disk[m.Path] = m.Checksum
	}
	for p := range checksums {
		if _, ok := disk[p]; ok {
			continue
		}
		if db.DeleteNote(p) == nil {
			emit(Deleted, p)
		}
	}
	for p, cs := range disk {
		if checksums[p] == cs {
			continue
		}
		data, readErr := store.Read(p)
		if readErr != nil {
			continue
		}
		if indexFile(db, p, data) == nil {
			emit(Created, p)
		}
	}
}

// indexTree indexes the notes found under a newly created directory.
func indexTree(db *DB, store storage.Provider, dir string, logger *slog.Logger, emit func(kind, rel string)) {
	root := store.Root()
	_ = filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() {
			if path != dir && store.Skipped(d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		rel, ok := noteRel(root, path)
		if !ok {
			return nil
		}
		data, readErr := store.Read(rel)
		if readErr != nil {
			logger.Warn("watcher: read failed", slog.String("path", rel), slog.String("error", readErr.Error()))
			return nil
		}
		if indexFile(db, rel, data) == nil {
			emit(Created, rel)
		}
		return nil
	})
}

// watchTree adds dir and its non-skipped subdirectories to the watcher.
func watchTree(w *fsnotify.Watcher, store storage.Provider, dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && store.Skipped(d.Name()) {
			return filepath.SkipDir
		}
		return w.Add(path)
	})
}

// noteRel maps an absolute event path to a slash-separated vault path. It
// reports false for anything that is not a note inside a visible directory.
func noteRel(root, abs string) (string, bool) {
	if !strings.HasSuffix(abs, ".md") {
		return "", false
	}
	rel, err := filepath.Rel(root, abs)
	if err != nil || strings.HasPrefix(rel, "..") {
		return "", false
	}
	rel = filepath.ToSlash(rel)
	for _, part := range strings.Split(rel, "/") {
		if strings.HasPrefix(part, ".") {
			return "", false
		}
	}
	return rel, true
}
