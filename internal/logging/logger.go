// Package logging is a small levelled logger on top of the standard log
// package.
package logging

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"
	"sync/atomic"
)

// Level orders log messages by severity.
type Level int32

const (
	DEBUG Level = iota
	INFO
	WARN
	ERROR
)

func (l Level) String() string {
	switch l {
	case DEBUG:
		return "DEBUG"
	case INFO:
		return "INFO"
	case WARN:
		return "WARN"
	case ERROR:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel accepts the level names case-insensitively. The empty string
// means INFO.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return DEBUG, nil
	case "", "info":
		return INFO, nil
	case "warn", "warning":
		return WARN, nil
	case "error":
		return ERROR, nil
	}
	return INFO, fmt.Errorf("unknown log level %q", s)
}

// Logger writes "[LEVEL] prefix message" lines. Child loggers made with
// With share the parent's output and level.
type Logger struct {
	out    *log.Logger
	level  *atomic.Int32
	prefix string
}

// New returns a logger writing to w at the given minimum level.
func New(w io.Writer, level Level) *Logger {
	lv := new(atomic.Int32)
	lv.Store(int32(level))
	return &Logger{out: log.New(w, "", log.LstdFlags|log.Lmicroseconds), level: lv}
}

var std = New(os.Stderr, INFO)

// Default returns the process-wide logger used by the commands.
func Default() *Logger { return std }

// With returns a child logger that tags every line with name.
func (l *Logger) With(name string) *Logger {
	p := name
	if l.prefix != "" {
		p = l.prefix + " " + name
	}
	return &Logger{out: l.out, level: l.level, prefix: p}
}

func (l *Logger) SetLevel(level Level) { l.level.Store(int32(level)) }

func (l *Logger) Level() Level { return Level(l.level.Load()) }

// Enabled reports whether messages at level would be written.
func (l *Logger) Enabled(level Level) bool { return level >= l.Level() }

func (l *Logger) logf(level Level, format string, args ...any) {
	if !l.Enabled(level) {
		return
	}
	msg := fmt.Sprintf(format, args...)
	if l.prefix != "" {
		l.out.Printf("[%s] %s: %s", level, l.prefix, msg)
		return
	}
	l.out.Printf("[%s] %s", level, msg)
}

func (l *Logger) Debugf(format string, args ...any) { l.logf(DEBUG, format, args...) }
func (l *Logger) Infof(format string, args ...any) { l.logf(INFO, format, args...) }
func (l *Logger) Warnf(format string, args ...any) { l.logf(WARN, format, args...) }
func (l *Logger) Errorf(format string, args ...any) { l.logf(ERROR, format, args...) }
