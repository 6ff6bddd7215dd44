package logger

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// -----------------------------------------------------------------------------
// Log levels
// -----------------------------------------------------------------------------

const (
	levelDebug = iota
	levelInfo
	levelWarning
	levelError
)

// Process-wide minimum level, set once from config at startup.
var minLevel atomic.Int32

// -----------------------------------------------------------------------------

// SetLevel sets the minimum level from its config string ("DEBUG", "INFO",
// "WARNING", "ERROR"). Unknown values fall back to INFO.
func SetLevel(level string) {
	switch strings.ToUpper(level) {
	case "DEBUG":
		minLevel.Store(levelDebug)
	case "WARNING":
		minLevel.Store(levelWarning)
	case "ERROR":
		minLevel.Store(levelError)
	default:
		minLevel.Store(levelInfo)
	}
}

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger *log.Logger
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. config is accepted for call-site
// symmetry with the other constructors; only the name matters here.
func NewLogger(config interface{}, name string) *Logger {
	l := &Logger{
		name:   name,
		logger: log.New(os.Stdout, "", log.LstdFlags),
	}
	return l
}

// -----------------------------------------------------------------------------

// SetOutput redirects this logger's output (used by tests).
func (l *Logger) SetOutput(w io.Writer) {
	l.logger.SetOutput(w)
}

// -----------------------------------------------------------------------------

// Debug logs debug messages
func (l *Logger) Debug(format string, args ...interface{}) {
	if minLevel.Load() > levelDebug {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] DEBUG: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Warning logs warning messages
func (l *Logger) Warning(format string, args ...interface{}) {
	if minLevel.Load() > levelWarning {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] WARNING: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	if minLevel.Load() > levelInfo {
		return
	}
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] INFO: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] ERROR: %s", l.name, msg)
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	msg := fmt.Sprintf(format, args...)
	l.logger.Printf("[%s] CRITICAL: %s", l.name, msg)
	os.Exit(1)
}
