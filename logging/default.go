package logging

import (
	"context"
	"io"
	"os"

	"github.com/sirupsen/logrus"
)

// DefaultLogger is a logrus-backed logger.
// Debug/Info go to stdout, Warn and above to stderr.
type DefaultLogger struct {
	stdout *logrus.Logger
	stderr *logrus.Logger
	fields logrus.Fields
}

// NewDefaultLogger creates a new default logger writing text to the
// standard streams, colored when attached to a terminal
func NewDefaultLogger() *DefaultLogger {
	return NewLoggerWithOutput(os.Stdout, os.Stderr)
}

// NewLoggerWithOutput creates a logger writing to the given streams. Tests
// pass buffers here.
func NewLoggerWithOutput(stdout, stderr io.Writer) *DefaultLogger {
	return &DefaultLogger{
		stdout: newLogrus(stdout),
		stderr: newLogrus(stderr),
		fields: make(logrus.Fields),
	}
}

// NewJSONLogger creates a logger emitting one JSON object per line on w
func NewJSONLogger(w io.Writer) *DefaultLogger {
	l := NewLoggerWithOutput(w, w)
	l.stdout.SetFormatter(&logrus.JSONFormatter{})
	l.stderr.SetFormatter(&logrus.JSONFormatter{})
	return l
}

func newLogrus(w io.Writer) *logrus.Logger {
	l := logrus.New()
	l.SetOutput(w)
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	return l
}

func toLogrusLevel(level Level) logrus.Level {
	switch level {
	case DebugLevel:
		return logrus.DebugLevel
	case WarnLevel:
		return logrus.WarnLevel
	case ErrorLevel:
		return logrus.ErrorLevel
	case FatalLevel:
		return logrus.FatalLevel
	default:
		return logrus.InfoLevel
	}
}

func (d *DefaultLogger) entry(level Level, fields ...Fields) *logrus.Entry {
	target := d.stdout
	if level >= WarnLevel {
		target = d.stderr
	}

	entry := target.WithFields(d.fields)
	for _, f := range fields {
		entry = entry.WithFields(logrus.Fields(f))
	}
	return entry
}

func (d *DefaultLogger) Debug(msg string, fields ...Fields) {
	d.entry(DebugLevel, fields...).Debug(msg)
}

func (d *DefaultLogger) Info(msg string, fields ...Fields) {
	d.entry(InfoLevel, fields...).Info(msg)
}

func (d *DefaultLogger) Warn(msg string, fields ...Fields) {
	d.entry(WarnLevel, fields...).Warn(msg)
}

func (d *DefaultLogger) Error(err error, msg string, fields ...Fields) {
	d.entry(ErrorLevel, fields...).WithError(err).Error(msg)
}

// Fatal logs and exits the process with status 1
func (d *DefaultLogger) Fatal(err error, msg string, fields ...Fields) {
	d.entry(FatalLevel, fields...).WithError(err).Fatal(msg)
}

func (d *DefaultLogger) WithFields(fields Fields) Logger {
	merged := make(logrus.Fields, len(d.fields)+len(fields))
	for k, v := range d.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}

	return &DefaultLogger{
		stdout: d.stdout,
		stderr: d.stderr,
		fields: merged,
	}
}

func (d *DefaultLogger) WithContext(ctx context.Context) Logger {
	if fields, ok := FieldsFromContext(ctx); ok {
		return d.WithFields(fields)
	}
	return d
}

// SetLevel sets the level on the underlying loggers, which are shared with
// every logger derived through WithFields
func (d *DefaultLogger) SetLevel(level Level) {
	d.stdout.SetLevel(toLogrusLevel(level))
	d.stderr.SetLevel(toLogrusLevel(level))
}

// NoOpLogger discards everything
type NoOpLogger struct{}

func (n *NoOpLogger) Debug(msg string, fields ...Fields)            {}
func (n *NoOpLogger) Info(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Warn(msg string, fields ...Fields)             {}
func (n *NoOpLogger) Error(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) Fatal(err error, msg string, fields ...Fields) {}
func (n *NoOpLogger) WithFields(fields Fields) Logger               { return n }
func (n *NoOpLogger) WithContext(ctx context.Context) Logger        { return n }
func (n *NoOpLogger) SetLevel(level Level)                          {}
