package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"
)

// archiveKeep is how many rotated client logs are retained in old/
const archiveKeep = 5

// RotatingWriter is a file writer that rotates the client log once it grows
// past maxSize and periodically re-opens it if something moved it away.
type RotatingWriter struct {
	mu             sync.Mutex
	f              *os.File
	path           string
	dir            string
	base           string
	maxSize        int64
	size           int64
	verifyInterval time.Duration
	stopCh         chan struct{}
	wg             sync.WaitGroup
}

// NewRotatingWriter opens path for appending. A file that is already over
// maxSize is rotated immediately.
func NewRotatingWriter(path string, maxSize int64, verifyInterval time.Duration) (*RotatingWriter, error) {
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	if verifyInterval <= 0 {
		verifyInterval = defaultVerifyEvery
	}

	w := &RotatingWriter{
		path:           path,
		dir:            filepath.Dir(path),
		base:           filepath.Base(path),
		maxSize:        maxSize,
		verifyInterval: verifyInterval,
		stopCh:         make(chan struct{}),
	}

	if err := w.openLocked(); err != nil {
		return nil, err
	}
	if w.size >= w.maxSize {
		if err := w.rotateLocked(); err != nil {
			w.f.Close()
			return nil, err
		}
	}

	w.wg.Add(1)
	go w.verifyLoop()

	return w, nil
}

func (w *RotatingWriter) verifyLoop() {
	defer w.wg.Done()
	ticker := time.NewTicker(w.verifyInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			w.mu.Lock()
			_ = w.verifyLocked()
			w.mu.Unlock()
		case <-w.stopCh:
			return
		}
	}
}

// Write implements io.Writer
func (w *RotatingWriter) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.f == nil {
		if err := w.openLocked(); err != nil {
			return 0, err
		}
	}
	if w.size+int64(len(p)) >= w.maxSize {
		if err := w.rotateLocked(); err != nil {
			return 0, err
		}
	}

	n, err := w.f.Write(p)
	w.size += int64(n)
	return n, err
}

// Close stops the background verifier and closes the file
func (w *RotatingWriter) Close() error {
	close(w.stopCh)
	w.wg.Wait()
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.f == nil {
		return nil
	}
	err := w.f.Close()
	w.f = nil
	return err
}

func (w *RotatingWriter) openLocked() error {
	if err := os.MkdirAll(w.dir, 0755); err != nil {
		return fmt.Errorf("creating log directory: %w", err)
	}

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0644)
	if err != nil {
		return fmt.Errorf("opening log file: %w", err)
	}

	fi, err := f.Stat()
	if err != nil {
		f.Close()
		return fmt.Errorf("stat log file: %w", err)
	}

	w.f = f
	w.size = fi.Size()
	return nil
}

// rotateLocked moves the current file to old/<base>.YYYYMMDD-HHMMSS and
// starts a fresh one, pruning archives beyond archiveKeep.
func (w *RotatingWriter) rotateLocked() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}

	oldDir := filepath.Join(w.dir, "old")
	if err := os.MkdirAll(oldDir, 0755); err != nil {
		return fmt.Errorf("creating old/ directory: %w", err)
	}

	archive := filepath.Join(oldDir, fmt.Sprintf("%s.%s", w.base, time.Now().Format("20060102-150405")))
	_ = os.Rename(w.path, archive)
	w.pruneArchives(oldDir)

	f, err := os.OpenFile(w.path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0644)
	if err != nil {
		return fmt.Errorf("creating new log file: %w", err)
	}

	w.f = f
	w.size = 0
	return nil
}

func (w *RotatingWriter) pruneArchives(oldDir string) {
	entries, err := os.ReadDir(oldDir)
	if err != nil {
		return
	}
	var archives []string
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), w.base+".") {
			archives = append(archives, e.Name())
		}
	}
	if len(archives) <= archiveKeep {
		return
	}
	// Timestamp suffixes sort chronologically
	sort.Strings(archives)
	for _, name := range archives[:len(archives)-archiveKeep] {
		_ = os.Remove(filepath.Join(oldDir, name))
	}
}

// verifyLocked re-opens the log when the path no longer names the open file
func (w *RotatingWriter) verifyLocked() error {
	if w.f == nil {
		return w.openLocked()
	}

	fiPath, err := os.Lstat(w.path)
	if err != nil {
		return w.reopenLocked()
	}
	fiOpen, err := w.f.Stat()
	if err != nil || !os.SameFile(fiOpen, fiPath) {
		return w.reopenLocked()
	}

	w.size = fiOpen.Size()
	return nil
}

func (w *RotatingWriter) reopenLocked() error {
	if w.f != nil {
		_ = w.f.Close()
		w.f = nil
	}
	return w.openLocked()
}
