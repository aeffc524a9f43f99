// Package logger provides process-wide logging for the chai CLI.
// Debug and info messages are printed only in verbose mode (--verbose);
// warnings and errors are always printed. Output goes to stderr by default.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	mu      sync.RWMutex
	verbose bool
	output  io.Writer = os.Stderr
	level             = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	base              = build(os.Stderr)
)

// build creates a zap logger writing bracketed level lines to w.
func build(w io.Writer) *zap.Logger {
	encCfg := zapcore.EncoderConfig{
		MessageKey:       "msg",
		LevelKey:         "level",
		EncodeLevel:      bracketLevelEncoder,
		ConsoleSeparator: " ",
		LineEnding:       zapcore.DefaultLineEnding,
	}
	core := zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.Lock(zapcore.AddSync(w)), level)
	return zap.New(core)
}

func bracketLevelEncoder(l zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString("[" + l.CapitalString() + "]")
}

// SetVerbose enables or disables verbose logging.
func SetVerbose(v bool) {
	mu.Lock()
	defer mu.Unlock()
	verbose = v
	if v {
		level.SetLevel(zapcore.DebugLevel)
	} else {
		level.SetLevel(zapcore.WarnLevel)
	}
}

// IsVerbose returns true if verbose mode is enabled.
func IsVerbose() bool {
	mu.RLock()
	defer mu.RUnlock()
	return verbose
}

// SetOutput sets the output writer for logs.
// Defaults to os.Stderr. Useful for testing.
func SetOutput(w io.Writer) {
	mu.Lock()
	defer mu.Unlock()
	output = w
	base = build(w)
}

func current() *zap.SugaredLogger {
	mu.RLock()
	defer mu.RUnlock()
	return base.Sugar()
}

// Debug prints a message if verbose mode is enabled.
func Debug(format string, args ...any) {
	current().Debugf(format, args...)
}

// Section prints a section header if verbose mode is enabled.
func Section(name string) {
	mu.RLock()
	defer mu.RUnlock()
	if verbose {
		fmt.Fprintf(output, "\n=== %s ===\n", name)
	}
}

// Info prints an informational message if verbose mode is enabled.
func Info(format string, args ...any) {
	current().Infof(format, args...)
}

// Warn prints a warning message.
func Warn(format string, args ...any) {
	current().Warnf(format, args...)
}

// Error prints an error message.
func Error(format string, args ...any) {
	current().Errorf(format, args...)
}

// Logger is a structured logger carrying key/value context.
// It always writes through the current package output and level.
type Logger struct {
	kv []any
}

// With returns a Logger that attaches the given key/value pairs to every entry.
func With(keysAndValues ...any) *Logger {
	return &Logger{kv: sanitizeKVs(keysAndValues)}
}

// With returns a child Logger with additional key/value pairs.
func (l *Logger) With(keysAndValues ...any) *Logger {
	kv := make([]any, 0, len(l.kv)+len(keysAndValues))
	kv = append(kv, l.kv...)
	kv = append(kv, sanitizeKVs(keysAndValues)...)
	return &Logger{kv: kv}
}

// Debug logs a structured debug entry.
func (l *Logger) Debug(msg string, keysAndValues ...any) {
	current().Debugw(msg, l.fields(keysAndValues)...)
}

// Info logs a structured info entry.
func (l *Logger) Info(msg string, keysAndValues ...any) {
	current().Infow(msg, l.fields(keysAndValues)...)
}

// Warn logs a structured warning entry.
func (l *Logger) Warn(msg string, keysAndValues ...any) {
	current().Warnw(msg, l.fields(keysAndValues)...)
}

// Error logs a structured error entry.
func (l *Logger) Error(msg string, keysAndValues ...any) {
	current().Errorw(msg, l.fields(keysAndValues)...)
}

func (l *Logger) fields(keysAndValues []any) []any {
	if l == nil {
		return sanitizeKVs(keysAndValues)
	}
	out := make([]any, 0, len(l.kv)+len(keysAndValues))
	out = append(out, l.kv...)
	return append(out, sanitizeKVs(keysAndValues)...)
}

func sanitizeKVs(kv []any) []any {
	if len(kv) == 0 {
		return kv
	}
	out := make([]any, 0, len(kv))
	for i := 0; i < len(kv); i += 2 {
		if i == len(kv)-1 {
			out = append(out, kv[i])
			break
		}
		key := fmt.Sprint(kv[i])
		if isRedactKey(strings.ToLower(key)) {
			out = append(out, key, "[REDACTED]")
			continue
		}
		out = append(out, key, kv[i+1])
	}
	return out
}

func isRedactKey(key string) bool {
	switch {
	case strings.Contains(key, "api_key"),
		strings.Contains(key, "apikey"),
		strings.Contains(key, "token"),
		strings.Contains(key, "authorization"),
		strings.Contains(key, "password"),
		strings.Contains(key, "secret"):
		return true
	default:
		return false
	}
}
