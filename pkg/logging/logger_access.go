package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"
)

// AccessLogger records what each chat user asked the client to do
type AccessLogger interface {
	// LogCommand logs a slash command dispatch
	LogCommand(command string, user string, status string, details ...interface{})
	// LogAuth logs login, signup and logout attempts
	LogAuth(operation string, user string, status string, details ...interface{})
	// Close releases the underlying file
	Close() error
}

type accessLogger struct {
	logger *log.Logger
	closer io.Closer
}

// NewAccessLogger creates a new access logger
func NewAccessLogger(logPath string) (AccessLogger, error) {
	if logPath == "" {
		return NewWriterAccessLogger(io.Discard), nil
	}

	if err := os.MkdirAll(filepath.Dir(logPath), 0755); err != nil {
		return nil, fmt.Errorf("creating access log directory: %w", err)
	}
	f, err := os.OpenFile(logPath, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if err != nil {
		return nil, fmt.Errorf("opening access log file: %w", err)
	}

	return &accessLogger{
		logger: log.New(f, "", 0), // No flags, we'll handle formatting ourselves
		closer: f,
	}, nil
}

// NewWriterAccessLogger creates an access logger on an arbitrary writer
func NewWriterAccessLogger(w io.Writer) AccessLogger {
	return &accessLogger{logger: log.New(w, "", 0)}
}

func (l *accessLogger) LogCommand(command string, user string, status string, details ...interface{}) {
	l.write("cmd", command, user, status, details...)
}

func (l *accessLogger) LogAuth(operation string, user string, status string, details ...interface{}) {
	l.write("auth", operation, user, status, details...)
}

func (l *accessLogger) write(kind, operation, user, status string, details ...interface{}) {
	var parts []string
	parts = append(parts, fmt.Sprintf("kind=%s", kind))
	parts = append(parts, fmt.Sprintf("op=%s", formatValue(operation)))
	if user != "" {
		parts = append(parts, fmt.Sprintf("user=%s", formatValue(user)))
	}
	parts = append(parts, fmt.Sprintf("status=%s", formatValue(status)))

	for i := 0; i < len(details); i += 2 {
		if i+1 < len(details) {
			parts = append(parts, fmt.Sprintf("%v=%s", details[i], formatValue(details[i+1])))
		}
	}

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 -0700")
	l.logger.Printf("%s %s", timestamp, strings.Join(parts, " "))
}

func (l *accessLogger) Close() error {
	if l.closer != nil {
		return l.closer.Close()
	}
	return nil
}
