package logging

import (
	"fmt"
	"io"
	"log"
	"strings"
	"time"

	golog "github.com/fclairamb/go-log"
)

// AppLogger implements the go-log.Logger interface
type AppLogger struct {
	level   LogLevel
	logger  *log.Logger
	writer  *RotatingWriter // nil unless logging to a file
	keyvals []interface{}
}

var _ golog.Logger = (*AppLogger)(nil)

// NewAppLogger creates a new application logger. An empty path discards
// output so log lines never interleave with the chat prompt.
func NewAppLogger(logPath string, level LogLevel, maxSize int64, verifyInterval time.Duration) (*AppLogger, error) {
	var writer io.Writer = io.Discard
	var rotatingWriter *RotatingWriter

	if logPath != "" {
		rw, err := NewRotatingWriter(logPath, maxSize, verifyInterval)
		if err != nil {
			return nil, fmt.Errorf("creating rotating writer: %w", err)
		}
		writer = rw
		rotatingWriter = rw
	}

	return newAppLogger(writer, level, rotatingWriter), nil
}

// NewWriterLogger creates an application logger on an arbitrary writer
func NewWriterLogger(w io.Writer, level LogLevel) *AppLogger {
	return newAppLogger(w, level, nil)
}

func newAppLogger(w io.Writer, level LogLevel, rw *RotatingWriter) *AppLogger {
	return &AppLogger{
		level:  level,
		logger: log.New(w, "", 0), // No flags, we'll handle formatting ourselves
		writer: rw,
	}
}

var levelOrder = map[LogLevel]int{
	LogLevelDebug: 0,
	LogLevelInfo:  1,
	LogLevelWarn:  2,
	LogLevelError: 3,
	LogLevelPanic: 4,
}

func (l *AppLogger) shouldLog(level LogLevel) bool {
	return levelOrder[level] >= levelOrder[l.level]
}

func (l *AppLogger) log(level LogLevel, message string, keyvals ...interface{}) {
	if !l.shouldLog(level) {
		return
	}

	all := append(append([]interface{}{}, l.keyvals...), keyvals...)

	var kvStrings []string
	for i := 0; i < len(all); i += 2 {
		if i+1 < len(all) {
			key := toString(all[i])
			value := toString(all[i+1])
			kvStrings = append(kvStrings, fmt.Sprintf("%s=%s", key, formatValue(value)))
		}
	}
	kvStr := strings.Join(kvStrings, " ")

	timestamp := time.Now().UTC().Format("2006-01-02 15:04:05 -0700")
	l.logger.Printf("%s %s: %s %s", timestamp, level, message, kvStr)
}

func toString(v interface{}) string {
	if v == nil {
		return ""
	}

	str := fmt.Sprintf("%v", v)
	str = strings.ReplaceAll(str, "\n", " ")
	str = strings.ReplaceAll(str, "\r", " ")
	str = strings.ReplaceAll(str, "\t", " ")
	// Collapse multiple spaces into one
	str = strings.Join(strings.Fields(str), " ")
	return str
}

// Debug implements go-log.Logger
func (l *AppLogger) Debug(message string, keyvals ...interface{}) {
	l.log(LogLevelDebug, message, keyvals...)
}

// Info implements go-log.Logger
func (l *AppLogger) Info(message string, keyvals ...interface{}) {
	l.log(LogLevelInfo, message, keyvals...)
}

// Warn implements go-log.Logger
func (l *AppLogger) Warn(message string, keyvals ...interface{}) {
	l.log(LogLevelWarn, message, keyvals...)
}

// Error implements go-log.Logger
func (l *AppLogger) Error(message string, keyvals ...interface{}) {
	l.log(LogLevelError, message, keyvals...)
}

// Panic implements go-log.Logger
func (l *AppLogger) Panic(message string, keyvals ...interface{}) {
	l.log(LogLevelPanic, message, keyvals...)
}

// With implements go-log.Logger. The child shares the parent's output and
// prefixes every line with keyvals.
func (l *AppLogger) With(keyvals ...interface{}) golog.Logger {
	return &AppLogger{
		level:   l.level,
		logger:  l.logger,
		keyvals: append(append([]interface{}{}, l.keyvals...), keyvals...),
	}
}

// IsDebug returns true if the logger is at debug level
func (l *AppLogger) IsDebug() bool {
	return l.level == LogLevelDebug
}

// Close closes the logger and stops background rotation
func (l *AppLogger) Close() error {
	if l.writer != nil {
		return l.writer.Close()
	}
	return nil
}

// Or returns logger, falling back to the global App logger when nil
func Or(logger golog.Logger) golog.Logger {
	if logger == nil {
		return App
	}
	return logger
}
