package vault

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/halvard/skald/internal/checksum"
	"github.com/halvard/skald/internal/storage"
)

// Watch starts an fsnotify watcher over the snippet content directory and
// folds external edits back into the store until ctx is cancelled. This is
// the editor collaborator round-trip: an external editor is handed a content
// file path, and when it writes the file the store re-reads the bytes as the
// snippet's new content.
//
// Writes are debounced per file because editors commonly fire several events
// per save. Events whose bytes match the in-memory content are ignored, so
// the service's own writes do not echo back as updates.
func Watch(ctx context.Context, svc *Service, provider *storage.FS, logger *slog.Logger) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	if err := addDirsRecursive(w, provider.SnippetsDir()); err != nil {
		return err
	}

	logger.Info("watcher: started", slog.String("root", provider.SnippetsDir()))

	// Per-path debounce: the last write event wins after a quiet period.
	pending := make(map[string]struct{})
	var flushTimer *time.Timer
	var flushCh <-chan time.Time

	scheduleFlush := func() {
		if flushTimer == nil {
			flushTimer = time.NewTimer(200 * time.Millisecond)
			flushCh = flushTimer.C
		} else {
			flushTimer.Reset(200 * time.Millisecond)
		}
	}

	for {
		select {
		case <-ctx.Done():
			if flushTimer != nil {
				flushTimer.Stop()
			}
			logger.Info("watcher: stopped")
			return nil

		case <-flushCh:
			for path := range pending {
				delete(pending, path)
				reloadContent(svc, provider, path, logger)
			}

		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}

			// New notebook directories appear when the first snippet of a
			// notebook is created; watch them as they show up.
			if ev.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(ev.Name); statErr == nil && info.IsDir() {
					if addErr := addDirsRecursive(w, ev.Name); addErr != nil {
						logger.Warn("watcher: add new dir failed",
							slog.String("path", ev.Name),
							slog.String("error", addErr.Error()))
					}
					continue
				}
			}

			if ev.Op&(fsnotify.Create|fsnotify.Write) != 0 {
				if _, _, _, ok := provider.ResolveContentPath(ev.Name); ok {
					pending[ev.Name] = struct{}{}
					scheduleFlush()
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

// reloadContent re-reads a content file and applies it as a snippet update
// when the bytes differ from the in-memory content.
func reloadContent(svc *Service, provider *storage.FS, path string, logger *slog.Logger) {
	_, snippetID, _, ok := provider.ResolveContentPath(path)
	if !ok {
		return
	}
	sn, err := svc.Snippet(snippetID)
	if err != nil {
		// A file for an unknown snippet is not ours to manage.
		return
	}
	data, err := os.ReadFile(path)
	if err != nil {
		logger.Warn("watcher: read failed", slog.String("path", path), slog.String("error", err.Error()))
		return
	}
	if checksum.Sum(data) == checksum.Sum([]byte(sn.Content)) {
		return
	}
	if _, err := svc.UpdateSnippetContent(snippetID, string(data), ""); err != nil {
		logger.Warn("watcher: apply edit failed",
			slog.String("path", path),
			slog.String("error", err.Error()))
		return
	}
	logger.Debug("watcher: external edit applied", slog.String("path", path))
}

// addDirsRecursive adds root and all its subdirectories to the watcher.
func addDirsRecursive(w *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.Add(path)
		}
		return nil
	})
}
