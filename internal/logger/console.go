// Package logger provides diagnostic logging for sift.
//
// Diagnostics go to stderr so that search results on stdout stay clean for
// pipes. Implementations are thread-safe; the executor logs from every worker.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/fatih/color"
	"github.com/mattn/go-isatty"

	"github.com/harrison/sift/internal/executor"
	"github.com/harrison/sift/internal/models"
)

// Log level constants for filtering
const (
	levelTrace int = 0
	levelDebug int = 1
	levelInfo  int = 2
	levelWarn  int = 3
	levelError int = 4
)

// ConsoleLogger logs to a writer with timestamps and thread safety.
// All output is prefixed with [HH:MM:SS] timestamps.
// Color output is enabled when the writer is a terminal.
type ConsoleLogger struct {
	writer      io.Writer
	logLevel    string
	mutex       sync.Mutex
	colorOutput bool
}

// NewConsoleLogger creates a ConsoleLogger that writes to the provided io.Writer.
// If writer is nil, messages are silently discarded.
// Valid levels: trace, debug, info, warn, error (case-insensitive).
// If logLevel is empty or invalid, defaults to "warn".
func NewConsoleLogger(writer io.Writer, logLevel string) *ConsoleLogger {
	return &ConsoleLogger{
		writer:      writer,
		logLevel:    NormalizeLevel(logLevel),
		colorOutput: isTerminal(writer),
	}
}

// isTerminal checks if the writer is a terminal that supports colors.
// NO_COLOR disables color through fatih/color.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok || f == nil {
		return false
	}
	if color.NoColor {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

// NormalizeLevel converts a log level string to lowercase and validates it.
// Returns "warn" for empty or invalid levels.
func NormalizeLevel(level string) string {
	normalized := strings.ToLower(strings.TrimSpace(level))
	if ValidLevel(normalized) {
		return normalized
	}
	return "warn"
}

// ValidLevel reports whether level names a known log level.
func ValidLevel(level string) bool {
	switch level {
	case "trace", "debug", "info", "warn", "error":
		return true
	}
	return false
}

// shouldLog checks if a message at the given level should be logged.
func (cl *ConsoleLogger) shouldLog(messageLevel string) bool {
	return logLevelToInt(messageLevel) >= logLevelToInt(cl.logLevel)
}

func logLevelToInt(level string) int {
	switch level {
	case "trace":
		return levelTrace
	case "debug":
		return levelDebug
	case "info":
		return levelInfo
	case "warn":
		return levelWarn
	case "error":
		return levelError
	default:
		return levelWarn
	}
}

// LogTrace logs a trace-level message (most verbose).
// Format: "[HH:MM:SS] [TRACE] <message>"
func (cl *ConsoleLogger) LogTrace(message string) {
	cl.logWithLevel("TRACE", message)
}

// LogDebug logs a debug-level message.
func (cl *ConsoleLogger) LogDebug(message string) {
	cl.logWithLevel("DEBUG", message)
}

// LogInfo logs an info-level message.
func (cl *ConsoleLogger) LogInfo(message string) {
	cl.LogInfo(message)
}

// LogWarn logs a warning-level message.
func (cl *ConsoleLogger) LogWarn(message string) {
	cl.logWithLevel("WARN", message)
}

// LogError logs an error-level message.
func (cl *ConsoleLogger) LogError(message string) {
	cl.logWithLevel("ERROR", message)
}

// Debugf logs a formatted debug-level message.
func (cl *ConsoleLogger) Debugf(format string, args ...interface{}) {
	cl.LogDebug(fmt.Sprintf(format, args...))
}

// Warnf logs a formatted warning-level message.
func (cl *ConsoleLogger) Warnf(format string, args ...interface{}) {
	cl.LogWarn(fmt.Sprintf(format, args...))
}

func (cl *ConsoleLogger) logWithLevel(level string, message string) {
	if cl.writer == nil {
		return
	}
	if !cl.shouldLog(strings.ToLower(level)) {
		return
	}

	cl.mutex.Lock()
	defer cl.mutex.Unlock()

	ts := timestamp()
	var formatted string
	if cl.colorOutput {
		formatted = cl.formatWithColor(ts, level, message)
	} else {
		formatted = fmt.Sprintf("[%s] [%s] %s\n", ts, level, message)
	}

	cl.writer.Write([]byte(formatted))
}

// formatWithColor formats a log message with ANSI color codes.
func (cl *ConsoleLogger) formatWithColor(ts, level, message string) string {
	var coloredLevel string

	switch level {
	case "TRACE":
		coloredLevel = color.New(color.FgHiBlack).Sprint(level)
	case "DEBUG":
		coloredLevel = color.New(color.FgCyan).Sprint(level)
	case "INFO":
		coloredLevel = color.New(color.FgBlue).Sprint(level)
	case "WARN":
		coloredLevel = color.New(color.FgYellow).Sprint(level)
	case "ERROR":
		coloredLevel = color.New(color.FgRed).Sprint(level)
	default:
		coloredLevel = level
	}

	return fmt.Sprintf("[%s] [%s] %s\n", ts, coloredLevel, message)
}

// LogInvocation logs a finished child process at DEBUG. Failures are
// reported again, combined, when the run exits.
// Format: "[HH:MM:SS] [DEBUG] exec 'cmd args' ok (1s)"
func (cl *ConsoleLogger) LogInvocation(outcome models.ExecutionOutcome) {
	if outcome.Success() {
		cl.LogDebug(fmt.Sprintf("%s '%s' %s (%s)",
			outcome.Mode, outcome.Command(), outcome.Describe(), formatDuration(outcome.Duration)))
		return
	}

	if err := executor.OutcomeError(outcome); err != nil {
		cl.LogDebug(fmt.Sprintf("%s failed: %v", outcome.Mode, err))
	}
}

// LogSkipped logs an entry excluded because a filter could not evaluate it.
func (cl *ConsoleLogger) LogSkipped(path string, err error) {
	cl.LogDebug(fmt.Sprintf("skipping %s: %v", path, err))
}

// LogSummary logs the totals of a command run at INFO level.
// Format: "[HH:MM:SS] [INFO] 12 invocations, 1 failed (3s) run=<id>"
func (cl *ConsoleLogger) LogSummary(summary executor.Summary, duration time.Duration) {
	if summary.Invocations == 0 && !summary.Interrupted {
		return
	}

	failed := fmt.Sprintf("%d failed", summary.Failures)
	if cl.colorOutput {
		if summary.Success() {
			failed = color.New(color.FgGreen).Sprint(failed)
		} else {
			failed = color.New(color.FgRed).Sprint(failed)
		}
	}

	message := fmt.Sprintf("%d invocations, %s (%s) run=%s",
		summary.Invocations, failed, formatDuration(duration), summary.RunID)
	if summary.Interrupted {
		message += " [interrupted]"
	}
	cl.LogInfo(message)
}

// timestamp returns the current time formatted as "15:04:05" (HH:MM:SS).
func timestamp() string {
	return time.Now().Format("15:04:05")
}

// formatDuration converts a time.Duration to a human-readable string.
// Examples: "250ms", "5s", "1m30s", "2h15m"
func formatDuration(d time.Duration) string {
	switch {
	case d >= time.Hour:
		hours := d / time.Hour
		remainder := d % time.Hour
		minutes := remainder / time.Minute
		if remainder%time.Minute == 0 {
			if minutes == 0 {
				return fmt.Sprintf("%dh", hours)
			}
			return fmt.Sprintf("%dh%dm", hours, minutes)
		}
		seconds := (remainder % time.Minute) / time.Second
		return fmt.Sprintf("%dh%dm%ds", hours, minutes, seconds)
	case d >= time.Minute:
		minutes := d / time.Minute
		remainder := d % time.Minute
		if remainder < time.Second {
			return fmt.Sprintf("%dm", minutes)
		}
		return fmt.Sprintf("%dm%ds", minutes, remainder/time.Second)
	case d >= time.Second:
		return fmt.Sprintf("%ds", int64(d.Seconds()))
	default:
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
}

// NoOpLogger is a Logger implementation that discards all log messages.
// Useful for testing or when logging is disabled.
type NoOpLogger struct{}

// NewNoOpLogger creates a NoOpLogger instance.
func NewNoOpLogger() *NoOpLogger {
	return &NoOpLogger{}
}

// LogInvocation is a no-op implementation.
func (n *NoOpLogger) LogInvocation(outcome models.ExecutionOutcome) {
}

// LogSkipped is a no-op implementation.
func (n *NoOpLogger) LogSkipped(path string, err error) {
}

// LogSummary is a no-op implementation.
func (n *NoOpLogger) LogSummary(summary executor.Summary, duration time.Duration) {
}

// Debugf is a no-op implementation.
func (n *NoOpLogger) Debugf(format string, args ...interface{}) {
}

// Warnf is a no-op implementation.
func (n *NoOpLogger) Warnf(format string, args ...interface{}) {
}
