// Package logging provides colorful leveled logging for cmdq components.
//
// All packages log through the printf-style helpers in this package so the
// daemon, the HTTP API, the queue engine and the CLI share one format. Output
// follows Unix conventions: INFO and SUCCESS go to stdout, DEBUG, WARN and
// ERROR go to stderr. SetOutput collapses both streams into a single log file
// for daemon deployments.
//
// Third-party libraries that expect an io.Writer (gin) or a leveled logger
// interface (resty) are bridged with LevelWriter and RestyLogger.
package logging

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	stdlog "log"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/log"
)

var (
	// INFO/SUCCESS
	stdoutLogger = newLogger(os.Stdout)

	// DEBUG/WARN/ERROR
	stderrLogger = newLogger(os.Stderr)

	// Set once a CLI tool has taken control of log output
	cliConfigured = false

	usingLogFile  = false
	logFileHandle io.Writer
)

// newLogger builds a timestamped logger with the cmdq level styles applied.
func newLogger(w io.Writer) *log.Logger {
	l := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	l.SetStyles(setupCustomStyles())
	return l
}

// setupCustomStyles returns the level color scheme. Colors are picked to stay
// readable on both light and dark terminals.
func setupCustomStyles() *log.Styles {
	styles := log.DefaultStyles()

	styles.Levels[log.DebugLevel] = lipgloss.NewStyle().
		SetString("DEBUG").
		Foreground(lipgloss.Color("#7F6DFF"))

	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("INFO").
		Foreground(lipgloss.Color("#42E7FF"))

	styles.Levels[log.WarnLevel] = lipgloss.NewStyle().
		SetString("WARN").
		Foreground(lipgloss.Color("#FFE763"))

	styles.Levels[log.ErrorLevel] = lipgloss.NewStyle().
		SetString("ERROR").
		Foreground(lipgloss.Color("#FF4473"))

	return styles
}

// Info logs routine operational messages such as batch dispatches and
// server lifecycle events.
func Info(format string, v ...any) {
	stdoutLogger.Info(fmt.Sprintf(format, v...))
}

// Warn logs conditions that deserve attention but do not stop the queue.
func Warn(format string, v ...any) {
	stderrLogger.Warn(fmt.Sprintf(format, v...))
}

// Error logs failures, including failed batch dispatches.
func Error(format string, v ...any) {
	stderrLogger.Error(fmt.Sprintf(format, v...))
}

// Debug logs per-command and per-trigger detail for troubleshooting.
func Debug(format string, v ...any) {
	stderrLogger.Debug(fmt.Sprintf(format, v...))
}

// Success logs a completed operation with a green SUCCESS label. It is an
// INFO-level message and is filtered together with INFO.
func Success(format string, v ...any) {
	if stdoutLogger.GetLevel() > log.InfoLevel {
		return
	}

	out := io.Writer(os.Stdout)
	if usingLogFile {
		out = logFileHandle
	}

	styles := setupCustomStyles()
	styles.Levels[log.InfoLevel] = lipgloss.NewStyle().
		SetString("SUCCESS").
		Foreground(lipgloss.Color("#60F281"))

	tempLogger := log.NewWithOptions(out, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
	})
	tempLogger.SetStyles(styles)
	tempLogger.Info(fmt.Sprintf(format, v...))
}

// SetLevel sets the minimum level for both output streams. Accepts DEBUG,
// INFO, WARN and ERROR; anything else falls back to INFO.
func SetLevel(level string) {
	var logLevel log.Level
	switch strings.ToUpper(level) {
	case "DEBUG":
		logLevel = log.DebugLevel
	case "INFO":
		logLevel = log.InfoLevel
	case "WARN":
		logLevel = log.WarnLevel
	case "ERROR":
		logLevel = log.ErrorLevel
	default:
		logLevel = log.InfoLevel
	}

	stdoutLogger.SetLevel(logLevel)
	stderrLogger.SetLevel(logLevel)
}

// SetOutput redirects every level to w. A nil file suppresses all output.
// The current level is preserved across the switch.
func SetOutput(w *os.File) {
	if w == nil {
		stdoutLogger.SetLevel(log.FatalLevel + 1)
		stderrLogger.SetLevel(log.FatalLevel + 1)
		usingLogFile = false
		return
	}

	level := stdoutLogger.GetLevel()
	usingLogFile = true
	logFileHandle = w

	stdoutLogger = newLogger(w)
	stderrLogger = newLogger(w)
	stdoutLogger.SetLevel(level)
	stderrLogger.SetLevel(level)
}

// SuppressOutput keeps only ERROR logs. CLI tools call this so table and JSON
// output is not interleaved with operational logs.
func SuppressOutput() {
	stdoutLogger.SetLevel(log.ErrorLevel)
	stderrLogger.SetLevel(log.ErrorLevel)
	cliConfigured = true
}

// RestoreOutput resets both loggers to stdout/stderr at INFO level.
func RestoreOutput() {
	usingLogFile = false
	logFileHandle = nil

	stdoutLogger = newLogger(os.Stdout)
	stderrLogger = newLogger(os.Stderr)
	stdoutLogger.SetLevel(log.InfoLevel)
	stderrLogger.SetLevel(log.InfoLevel)

	cliConfigured = true
}

// IsConfiguredByCLI reports whether a CLI tool has taken control of logging.
func IsConfiguredByCLI() bool {
	return cliConfigured
}

// IsDebugEnabled reports whether DEBUG messages are currently emitted.
func IsDebugEnabled() bool {
	return stderrLogger.GetLevel() <= log.DebugLevel
}

// ============================================================================
// THIRD-PARTY LOG INTEGRATION
// ============================================================================

// LevelWriter forwards each written line to a fixed level with an optional
// prefix. Used for gin's DefaultWriter and DefaultErrorWriter.
type LevelWriter struct {
	level  string
	prefix string
}

// NewLevelWriter creates a writer that logs each line at level (DEBUG, INFO,
// WARN or ERROR) with prefix.
func NewLevelWriter(level, prefix string) io.Writer {
	return &LevelWriter{level: strings.ToUpper(level), prefix: prefix}
}

// Write implements io.Writer. Blank lines are dropped.
func (w *LevelWriter) Write(p []byte) (int, error) {
	for _, line := range strings.Split(string(p), "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		msg := line
		if w.prefix != "" {
			msg = w.prefix + ": " + line
		}
		switch w.level {
		case "DEBUG":
			Debug("%s", msg)
		case "WARN":
			Warn("%s", msg)
		case "ERROR":
			Error("%s", msg)
		default:
			Info("%s", msg)
		}
	}
	return len(p), nil
}

// RestyLogger satisfies resty.Logger and routes HTTP client logs through
// this package.
type RestyLogger struct{}

// Errorf logs at ERROR.
func (RestyLogger) Errorf(format string, v ...interface{}) {
	Error(format, v...)
}

// Warnf logs at WARN.
func (RestyLogger) Warnf(format string, v ...interface{}) {
	Warn(format, v...)
}

// Debugf logs at DEBUG.
func (RestyLogger) Debugf(format string, v ...interface{}) {
	Debug(format, v...)
}

// RedirectStandardLog points Go's standard library logger at w. Passing nil
// discards standard log output.
func RedirectStandardLog(w io.Writer) {
	if w == nil {
		stdlog.SetOutput(io.Discard)
		return
	}
	stdlog.SetOutput(w)
}
