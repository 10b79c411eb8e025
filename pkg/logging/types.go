package logging

import (
	"fmt"
	"strings"
	"time"
)

// LogLevel represents the severity of a log message
type LogLevel string

const (
	// LogLevelDebug is for debug messages
	LogLevelDebug LogLevel = "debug"
	// LogLevelInfo is for informational messages
	LogLevelInfo LogLevel = "info"
	// LogLevelWarn is for warning messages
	LogLevelWarn LogLevel = "warn"
	// LogLevelError is for error messages
	LogLevelError LogLevel = "error"
	// LogLevelPanic is for panic messages
	LogLevelPanic LogLevel = "panic"
)

// ParseLevel validates a configured level name
func ParseLevel(s string) (LogLevel, error) {
	switch level := LogLevel(strings.ToLower(s)); level {
	case "":
		return LogLevelInfo, nil
	case LogLevelDebug, LogLevelInfo, LogLevelWarn, LogLevelError, LogLevelPanic:
		return level, nil
	default:
		return "", fmt.Errorf("unknown log level %q", s)
	}
}

// Config holds logging configuration
type Config struct {
	AppLogPath    string // empty discards application logs
	AccessLogPath string // empty discards command/auth logs
	Level         LogLevel
	MaxSize       int64         // rotation threshold for the app log
	VerifyEvery   time.Duration // how often the rotating writer re-checks its file
}

const (
	defaultMaxSize     = 10 * 1024 * 1024
	defaultVerifyEvery = 30 * time.Second
)

var (
	// App is the global application logger
	App *AppLogger
	// Access is the global command and authentication logger
	Access AccessLogger
)

func init() {
	var err error

	// No-op loggers until Initialize is called; the chat terminal owns stdout
	App, err = NewAppLogger("", LogLevelInfo, 0, 0)
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default app logger: %v", err))
	}

	Access, err = NewAccessLogger("")
	if err != nil {
		panic(fmt.Sprintf("failed to initialize default access logger: %v", err))
	}
}

// Initialize sets up the global loggers
func Initialize(config *Config) error {
	level := config.Level
	if level == "" {
		level = LogLevelInfo
	}
	maxSize := config.MaxSize
	if maxSize <= 0 {
		maxSize = defaultMaxSize
	}
	verifyEvery := config.VerifyEvery
	if verifyEvery <= 0 {
		verifyEvery = defaultVerifyEvery
	}

	newAccess, err := NewAccessLogger(config.AccessLogPath)
	if err != nil {
		return fmt.Errorf("failed to initialize access logger: %w", err)
	}

	newApp, err := NewAppLogger(config.AppLogPath, level, maxSize, verifyEvery)
	if err != nil {
		return fmt.Errorf("failed to initialize app logger: %w", err)
	}

	Access = newAccess
	App = newApp

	return nil
}

// Shutdown flushes and closes the global loggers
func Shutdown() error {
	if err := Access.Close(); err != nil {
		return err
	}
	return App.Close()
}

// formatValue formats a value for logfmt, quoting if necessary
func formatValue(v interface{}) string {
	s := fmt.Sprintf("%v", v)
	// Quote if contains space, equals, or quotes
	if strings.ContainsAny(s, " =\"") {
		s = strings.ReplaceAll(s, "\"", "\\\"")
		return fmt.Sprintf("\"%s\"", s)
	}
	return s
}
