package main

import (
	"context"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"go.uber.org/zap"
)

// debouncer runs fire once per path after changes to it stop for delay.
type debouncer struct {
	delay time.Duration
	fire  func(path string)

	mu      sync.Mutex
	pending map[string]*time.Timer
}

func newDebouncer(delay time.Duration, fire func(path string)) *debouncer {
	return &debouncer{delay: delay, fire: fire, pending: make(map[string]*time.Timer)}
}

func (d *debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if timer, ok := d.pending[path]; ok {
		timer.Stop()
	}
	d.pending[path] = time.AfterFunc(d.delay, func() {
		d.mu.Lock()
		delete(d.pending, path)
		d.mu.Unlock()
		d.fire(path)
	})
}

func (d *debouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	for path, timer := range d.pending {
		timer.Stop()
		delete(d.pending, path)
	}
}

// relevantEvent reports whether ev changes the content of a watched file.
// Directories are watched rather than files so editors that save by rename
// are still seen.
func relevantEvent(ev fsnotify.Event, targets map[string]bool) bool {
	if !targets[filepath.Clean(ev.Name)] {
		return false
	}
	return ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)
}

func watchLoop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error, targets map[string]bool, d *debouncer, logger *zap.Logger) error {
	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-events:
			if !ok {
				return nil
			}
			if relevantEvent(ev, targets) {
				logger.Debug("file changed", zap.String("path", ev.Name), zap.Stringer("op", ev.Op))
				d.Trigger(filepath.Clean(ev.Name))
			}
		case err, ok := <-errs:
			if !ok {
				return nil
			}
			logger.Warn("watch error", zap.Error(err))
		}
	}
}

// watch prints each file's listing, then reprints a file whenever it
// changes, recomputing through the store so unchanged prefixes are reused.
func (a *app) watch(ctx context.Context, paths []string) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create file watcher: %w", err)
	}
	defer watcher.Close()

	targets := make(map[string]bool, len(paths))
	dirs := make(map[string]bool)
	order := make([]string, 0, len(paths))
	for _, path := range paths {
		abs, err := filepath.Abs(path)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", path, err)
		}
		if !targets[abs] {
			order = append(order, abs)
		}
		targets[abs] = true
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("watch %s: %w", dir, err)
		}
	}

	var outMu sync.Mutex
	refresh := func(path string) {
		outMu.Lock()
		defer outMu.Unlock()

		res, err := a.computeFile(path)
		if err != nil {
			a.logger.Warn("recompute failed", zap.String("path", path), zap.Error(err))
			return
		}
		state := fmt.Sprintf("recomputed, scanned %d lines total", res.Stats.LinesScanned)
		if res.Hit {
			state = "unchanged"
		}
		fmt.Fprintf(a.stdout, "==> %s (%s) <==\n", path, state)
		if err := a.printListing(res); err != nil {
			a.logger.Warn("print listing", zap.Error(err))
		}
	}

	for _, abs := range order {
		refresh(abs)
	}

	d := newDebouncer(a.cfg.Debounce, refresh)
	defer d.Stop()

	a.logger.Info("watching", zap.Int("files", len(targets)))
	return watchLoop(ctx, watcher.Events, watcher.Errors, targets, d, a.logger)
}
