package users

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	golog "github.com/fclairamb/go-log"
	"github.com/fsnotify/fsnotify"

	"github.com/frostneek/FrostChat/pkg/logging"
)

// Watcher signals when the user data file changes on disk, for example when
// an operator edits roles by hand while the client is running.
type Watcher struct {
	path     string
	debounce time.Duration
	logger   golog.Logger
	watcher  *fsnotify.Watcher
	changes  chan struct{}

	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// NewWatcher watches the directory holding path. The directory is created
// if needed because the file is replaced by rename on every save.
func NewWatcher(path string, debounce time.Duration, logger golog.Logger) (*Watcher, error) {
	path = filepath.Clean(path)
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("creating user data directory: %w", err)
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("creating file watcher: %w", err)
	}
	if err := fw.Add(dir); err != nil {
		fw.Close()
		return nil, fmt.Errorf("watching %s: %w", dir, err)
	}

	return &Watcher{
		path:     path,
		debounce: debounce,
		logger:   logging.Or(logger),
		watcher:  fw,
		changes:  make(chan struct{}, 1),
	}, nil
}

// Changes delivers one value per burst of writes to the file
func (w *Watcher) Changes() <-chan struct{} {
	return w.changes
}

// Start processes file events until ctx is cancelled or Close is called
func (w *Watcher) Start(ctx context.Context) {
	ctx, w.cancel = context.WithCancel(ctx)
	w.wg.Add(1)
	go w.loop(ctx)
}

// Close stops the watcher and waits for its goroutine
func (w *Watcher) Close() error {
	if w.cancel != nil {
		w.cancel()
	}
	w.wg.Wait()
	return w.watcher.Close()
}

func (w *Watcher) loop(ctx context.Context) {
	defer w.wg.Done()

	var timer *time.Timer
	var fire <-chan time.Time
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.logger.Warn("User data watcher error", "error", err)
		}
	}
}
