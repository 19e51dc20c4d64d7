// Package logging provides the timestamped console logger used by report
// generation and the maintenance tasks.
package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/fatih/color"
	"golang.org/x/term"
)

const (
	levelDebug = iota
	levelInfo
	levelWarn
	levelError
)

var (
	cDebug = color.New(color.FgCyan).SprintFunc()
	cInfo  = color.New(color.FgBlue).SprintFunc()
	cWarn  = color.New(color.FgYellow).SprintFunc()
	cError = color.New(color.FgRed).SprintFunc()
)

// Logger writes timestamped, leveled lines to a single writer.
// Format: "[HH:MM:SS] [LEVEL] message".
type Logger struct {
	mu      sync.Mutex
	writer  io.Writer
	level   int
	colored bool
}

// New returns a logger writing to w. Debug lines are dropped unless verbose
// is set. Level labels are colored only when w is a terminal and color has
// not been disabled globally.
func New(w io.Writer, verbose bool) *Logger {
	level := levelInfo
	if verbose {
		level = levelDebug
	}
	return &Logger{writer: w, level: level, colored: isTerminal(w)}
}

// isTerminal reports whether w is a TTY eligible for colored output.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return term.IsTerminal(int(f.Fd())) && !color.NoColor
}

// Debugf logs a formatted line at debug level.
func (l *Logger) Debugf(format string, args ...any) {
	l.logf(levelDebug, "DEBUG", cDebug, format, args...)
}

// Infof logs a formatted line at info level.
func (l *Logger) Infof(format string, args ...any) {
	l.logf(levelInfo, "INFO", cInfo, format, args...)
}

// Warnf logs a formatted line at warn level.
func (l *Logger) Warnf(format string, args ...any) {
	l.logf(levelWarn, "WARN", cWarn, format, args...)
}

// Errorf logs a formatted line at error level.
func (l *Logger) Errorf(format string, args ...any) {
	l.logf(levelError, "ERROR", cError, format, args...)
}

func (l *Logger) logf(lv int, label string, colorize func(...interface{}) string, format string, args ...any) {
	if l == nil || l.writer == nil || lv < l.level {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	shown := label
	if l.colored {
		shown = colorize(label)
	}
	fmt.Fprintf(l.writer, "[%s] [%s] %s\n", time.Now().Format("15:04:05"), shown, fmt.Sprintf(format, args...))
}
