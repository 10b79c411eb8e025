package audit

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	golog "github.com/fclairamb/go-log"
	"github.com/spf13/afero"

	"github.com/frostneek/FrostChat/pkg/logging"
)

// Log appends timestamped lines to the profanity and promotions files.
// Writes are best effort: a failure is reported and returned, never fatal.
type Log struct {
	fs     afero.Fs
	config Config
	now    func() time.Time
	logger golog.Logger

	mu sync.Mutex
}

// New creates a Log on fs. A nil fs means the OS filesystem; empty paths
// fall back to the defaults.
func New(fs afero.Fs, config Config, logger golog.Logger) *Log {
	if fs == nil {
		fs = afero.NewOsFs()
	}
	if config.ProfanityPath == "" {
		config.ProfanityPath = DefaultProfanityPath
	}
	if config.PromotionsPath == "" {
		config.PromotionsPath = DefaultPromotionsPath
	}
	if config.Policy == "" {
		config.Policy = PolicyLegacy
	}
	return &Log{
		fs:     fs,
		config: config,
		now:    time.Now,
		logger: logging.Or(logger),
	}
}

// SetClock replaces the time source
func (l *Log) SetClock(now func() time.Time) {
	l.now = now
}

// Policy returns the active write policy
func (l *Log) Policy() Policy {
	return l.config.Policy
}

// PathFor returns the file entries of category c are appended to
func (l *Log) PathFor(c Category) string {
	switch c {
	case Profanity, Report:
		return l.config.ProfanityPath
	default:
		return l.config.PromotionsPath
	}
}

// Append writes one line for category c. Entries the policy drops return nil.
func (l *Log) Append(c Category, message string) error {
	if !l.config.Policy.Allows(c) {
		l.logger.Debug("Audit entry dropped by policy", "category", c, "policy", l.config.Policy)
		return nil
	}

	line := fmt.Sprintf("%s - %s\n", l.now().UTC().Format(time.RFC3339Nano), message)
	path := l.PathFor(c)

	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.appendLine(path, line); err != nil {
		l.logger.Error("Failed to write audit entry", "category", c, "path", path, "error", err)
		return fmt.Errorf("%w: %v", ErrWriteFailed, err)
	}
	return nil
}

func (l *Log) appendLine(path, line string) error {
	if err := l.fs.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := l.fs.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return err
	}
	if _, err := f.WriteString(line); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
