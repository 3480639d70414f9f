package logger

import (
	"log"
	"sync"

	"github.com/fatih/color"
)

// Level represents the severity level of a log message.
type Level int

const (
	DebugLevel Level = iota
	InfoLevel
	NoticeLevel
	ErrorLevel
)

// Component identifies which part of the process emitted a message.
type Component int

const (
	None Component = iota
	Ledger
	Solver
	API
	Health
)

var componentPrefixes = map[Component]string{
	None:   "",
	Ledger: "[LEDGER] ",
	Solver: "[SOLVER] ",
	API:    "[API]    ",
	Health: "[HEALTH] ",
}

var colors = map[Component]color.Attribute{
	None:   color.FgWhite,
	Ledger: color.FgHiBlue,
	Solver: color.FgHiGreen,
	API:    color.FgYellow,
	Health: color.FgMagenta,
}

// Logger is a simple interface for logging messages.
type Logger interface {
	// Info logs an informational message.
	Info(format string, args ...interface{})
	InfoC(comp Component, format string, args ...interface{})

	// Error logs an error message.
	Error(format string, args ...interface{})
	ErrorC(comp Component, format string, args ...interface{})

	// Debug logs a debug message.
	Debug(format string, args ...interface{})
	DebugC(comp Component, format string, args ...interface{})

	// Notice logs a notice message.
	Notice(format string, args ...interface{})
	NoticeC(comp Component, format string, args ...interface{})
}

// EmptyLogger is a Logger implementation that discards everything.
type EmptyLogger struct{}

var _ Logger = (*EmptyLogger)(nil)

func (l *EmptyLogger) Info(_ string, _ ...interface{})                 {}
func (l *EmptyLogger) InfoC(_ Component, _ string, _ ...interface{})   {}
func (l *EmptyLogger) Error(_ string, _ ...interface{})                {}
func (l *EmptyLogger) ErrorC(_ Component, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Debug(_ string, _ ...interface{})                {}
func (l *EmptyLogger) DebugC(_ Component, _ string, _ ...interface{})  {}
func (l *EmptyLogger) Notice(_ string, _ ...interface{})               {}
func (l *EmptyLogger) NoticeC(_ Component, _ string, _ ...interface{}) {}

// StdLogger logs to the console with level filtering and optional
// per-component coloring.
type StdLogger struct {
	enableColoring bool
	level          Level
	mu             sync.Mutex
}

var _ Logger = (*StdLogger)(nil)

func NewStdLogger(enableColoring bool, level Level) *StdLogger {
	return &StdLogger{
		enableColoring: enableColoring,
		level:          level,
	}
}

// formatMessage prepends the level tag and component prefix, coloring
// the prefix if enabled.
func (l *StdLogger) formatMessage(level Level, comp Component, format string) string {
	prefix := componentPrefixes[comp]
	if l.enableColoring {
		prefix = color.New(colors[comp]).Sprint(prefix)
	}

	var levelStr string
	switch level {
	case DebugLevel:
		levelStr = "[DEBUG]  "
	case InfoLevel:
		levelStr = "[INFO]   "
	case NoticeLevel:
		levelStr = "[NOTICE] "
	case ErrorLevel:
		levelStr = "[ERROR]  "
	}

	return levelStr + prefix + format
}

func (l *StdLogger) logAt(level Level, comp Component, format string, args ...interface{}) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.level <= level {
		log.Printf(l.formatMessage(level, comp, format), args...)
	}
}

func (l *StdLogger) Info(format string, args ...interface{}) {
	l.logAt(InfoLevel, None, format, args...)
}

func (l *StdLogger) InfoC(comp Component, format string, args ...interface{}) {
	l.logAt(InfoLevel, comp, format, args...)
}

func (l *StdLogger) Error(format string, args ...interface{}) {
	l.logAt(ErrorLevel, None, format, args...)
}

func (l *StdLogger) ErrorC(comp Component, format string, args ...interface{}) {
	l.logAt(ErrorLevel, comp, format, args...)
}

func (l *StdLogger) Debug(format string, args ...interface{}) {
	l.logAt(DebugLevel, None, format, args...)
}

func (l *StdLogger) DebugC(comp Component, format string, args ...interface{}) {
	l.logAt(DebugLevel, comp, format, args...)
}

func (l *StdLogger) Notice(format string, args ...interface{}) {
	l.logAt(NoticeLevel, None, format, args...)
}

func (l *StdLogger) NoticeC(comp Component, format string, args ...interface{}) {
	l.logAt(NoticeLevel, comp, format, args...)
}
