package pipeline

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// DefaultDebounce is how long a watcher waits for file events to settle.
const DefaultDebounce = 250 * time.Millisecond

// Watcher re-runs a job whenever one of its input files changes.
type Watcher struct {
	// Paths lists the files to watch. It is called again after every run so
	// the set can follow the job's inputs.
	Paths func() []string
	// Run does one complete job. Errors are logged and watching continues.
	Run      func(ctx context.Context) error
	Debounce time.Duration
	Logger   *zap.Logger
}

// Watch runs the job once, then again after each settled burst of changes,
// until ctx is done. Directories are watched rather than files so editors that
// replace files on save are still seen.
func (w *Watcher) Watch(ctx context.Context) error {
	log := w.Logger
	if log == nil {
		log = zap.NewNop()
	}
	debounce := w.Debounce
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("creating watcher: %w", err)
	}
	defer fw.Close()

	files := make(map[string]bool)
	dirs := make(map[string]bool)
	refresh := func() {
		for k := range files {
			delete(files, k)
		}
		for _, p := range w.Paths() {
			abs, err := filepath.Abs(p)
			if err != nil {
				continue
			}
			files[abs] = true
			dir := filepath.Dir(abs)
			if dirs[dir] {
				continue
			}
			if err := fw.Add(dir); err != nil {
				log.Warn("cannot watch directory", zap.String("dir", dir), zap.Error(err))
				continue
			}
			dirs[dir] = true
		}
	}

	run := func() {
		if err := w.Run(ctx); err != nil {
			log.Error("run failed", zap.Error(err))
		}
		refresh()
		log.Info("watching for changes", zap.Int("files", len(files)))
	}

	refresh()
	run()

	timer := time.NewTimer(debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if !files[filepath.Clean(event.Name)] {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename|fsnotify.Remove) == 0 {
				continue
			}
			log.Debug("change detected", zap.String("file", event.Name), zap.String("op", event.Op.String()))
			timer.Reset(debounce)
		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			log.Warn("watch error", zap.Error(err))
		case <-timer.C:
			run()
		}
	}
}
