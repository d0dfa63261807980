package commands

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// watchDebounce is how long the watcher waits for writes to settle.
const watchDebounce = 200 * time.Millisecond

// fileWatcher reruns a command when any of a set of files changes. The
// directories holding the files are watched so editors that replace files
// on save are still seen.
type fileWatcher struct {
	w      *fsnotify.Watcher
	dirs   map[string]bool
	files  map[string]bool
	delay  time.Duration
	logger *slog.Logger
}

func newFileWatcher(delay time.Duration, logger *slog.Logger) (*fileWatcher, error) {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create watcher: %w", err)
	}
	return &fileWatcher{
		w:      w,
		dirs:   make(map[string]bool),
		files:  make(map[string]bool),
		delay:  delay,
		logger: logger,
	}, nil
}

// track replaces the set of watched files.
func (fw *fileWatcher) track(paths []string) error {
	fw.files = make(map[string]bool, len(paths))
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		fw.files[abs] = true
		dir := filepath.Dir(abs)
		if fw.dirs[dir] {
			continue
		}
		if err := fw.w.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
		fw.dirs[dir] = true
	}
	return nil
}

// loop calls run after tracked files change, until ctx is done. run returns
// the paths to track next.
func (fw *fileWatcher) loop(ctx context.Context, run func() []string) error {
	defer func() { _ = fw.w.Close() }()

	var timer *time.Timer
	var fire <-chan time.Time
	for {
		select {
		case <-ctx.Done():
			if timer != nil {
				timer.Stop()
			}
			return nil

		case event, ok := <-fw.w.Events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			name, err := filepath.Abs(event.Name)
			if err != nil || !fw.files[name] {
				continue
			}
			fw.logger.Debug("change detected", "file", name)
			if timer != nil {
				timer.Stop()
			}
			timer = time.NewTimer(fw.delay)
			fire = timer.C

		case <-fire:
			fire = nil
			if err := fw.track(run()); err != nil {
				fw.logger.Warn("failed to update watched files", "error", err)
			}

		case err, ok := <-fw.w.Errors:
			if !ok {
				return nil
			}
			fw.logger.Warn("watcher error", "error", err)
		}
	}
}
