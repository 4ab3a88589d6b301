// Package logger provides a thin, component-scoped wrapper over zerolog so
// every package logs through the same structured sink instead of reaching
// for log.Printf. The wrapper is deliberately small: callers that need
// zerolog's full feature set can still obtain the underlying zerolog.Logger.
package logger

import (
	"io"
	"os"
	"strings"

	"github.com/rs/zerolog"
)

// Format selects the on-wire shape of emitted log lines. Selected at process
// start from the PIPEBASE_LOG_FORMATTER environment variable.
type Format string

const (
	FormatFull   Format = "full"
	FormatPretty Format = "pretty"
	FormatJSON   Format = "json"
)

// FormatFromEnv resolves PIPEBASE_LOG_FORMATTER, defaulting to "full".
func FormatFromEnv() Format {
	v := strings.ToLower(strings.TrimSpace(os.Getenv("PIPEBASE_LOG_FORMATTER")))
	switch Format(v) {
	case FormatPretty:
		return FormatPretty
	case FormatJSON:
		return FormatJSON
	default:
		return FormatFull
	}
}

// Logger wraps a zerolog.Logger bound to one component name.
type Logger struct {
	z zerolog.Logger
}

// New builds a root Logger writing to w in the given format, at the given
// level ("debug", "info", "warn", "error"; default "info").
func New(component string, format Format, level string, w io.Writer) *Logger {
	if w == nil {
		w = os.Stdout
	}

	var writer io.Writer
	switch format {
	case FormatPretty:
		writer = zerolog.ConsoleWriter{Out: w, TimeFormat: "15:04:05"}
	default:
		// FormatFull and FormatJSON both emit structured JSON lines; "full"
		// additionally includes caller metadata.
		writer = w
	}

	lvl, err := zerolog.ParseLevel(strings.ToLower(level))
	if err != nil {
		lvl = zerolog.InfoLevel
	}

	ctx := zerolog.New(writer).With().Timestamp().Str("component", component)
	if format == FormatFull {
		ctx = ctx.Caller()
	}

	return &Logger{z: ctx.Logger().Level(lvl)}
}

// With returns a derived Logger carrying an additional key/value pair.
func (l *Logger) With(key string, value interface{}) *Logger {
	if l == nil {
		return l
	}
	return &Logger{z: l.z.With().Interface(key, value).Logger()}
}

func (l *Logger) Debug(msg string) { l.event(l.z.Debug(), msg) }
func (l *Logger) Info(msg string)  { l.event(l.z.Info(), msg) }
func (l *Logger) Warn(msg string)  { l.event(l.z.Warn(), msg) }

// Error logs msg with err attached, if non-nil.
func (l *Logger) Error(err error, msg string) {
	if l == nil {
		return
	}
	ev := l.z.Error()
	if err != nil {
		ev = ev.Err(err)
	}
	l.event(ev, msg)
}

func (l *Logger) event(ev *zerolog.Event, msg string) {
	if l == nil || ev == nil {
		return
	}
	ev.Msg(strings.TrimSpace(msg))
}

// Zerolog exposes the underlying logger for call sites that need its full API.
func (l *Logger) Zerolog() zerolog.Logger {
	if l == nil {
		return zerolog.Nop()
	}
	return l.z
}

// Nop returns a Logger that discards everything, used as a safe zero value.
func Nop() *Logger {
	return &Logger{z: zerolog.Nop()}
}
