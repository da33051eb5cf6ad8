// Package logging provides the structured logger used across the ingestion
// service. It wraps logrus the way the rest of the service layer corpus does:
// one Logger type, field-based contextual logging, and a small config struct
// for level/format/output selection.
package logging

import (
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"
)

// Config controls logger construction.
type Config struct {
	Level  string // trace|debug|info|warn|error
	Format string // json|text
	Output string // stdout|file
	Path   string // used when Output == "file"
}

// Logger wraps logrus.Logger with the service's conventions.
type Logger struct {
	*logrus.Logger
}

// New builds a Logger from Config.
func New(cfg Config) *Logger {
	l := logrus.New()

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		level = logrus.InfoLevel
	}
	l.SetLevel(level)

	switch strings.ToLower(cfg.Format) {
	case "text":
		l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		l.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02T15:04:05.000Z07:00"})
	}

	switch strings.ToLower(cfg.Output) {
	case "file":
		path := cfg.Path
		if path == "" {
			path = "ingestiond.log"
		}
		file, ferr := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if ferr != nil {
			l.SetOutput(os.Stdout)
			l.Errorf("failed to open log file %s: %v", path, ferr)
		} else {
			l.SetOutput(io.MultiWriter(os.Stdout, file))
		}
	default:
		l.SetOutput(os.Stdout)
	}

	return &Logger{Logger: l}
}

// NewDefault returns a Logger with sane defaults, tagging every entry it
// emits with a "component" field.
func NewDefault(component string) *Logger {
	l := New(Config{Level: "info", Format: "text", Output: "stdout"})
	l.Logger.AddHook(staticFieldHook{logrus.Fields{"component": component}})
	return l
}

// staticFieldHook injects a fixed set of fields into every fired entry —
// used by NewDefault to tag all output with a component name without
// requiring every call site to pass it explicitly.
type staticFieldHook struct {
	fields logrus.Fields
}

func (h staticFieldHook) Levels() []logrus.Level { return logrus.AllLevels }

func (h staticFieldHook) Fire(entry *logrus.Entry) error {
	for k, v := range h.fields {
		if _, exists := entry.Data[k]; !exists {
			entry.Data[k] = v
		}
	}
	return nil
}

// WithField returns a log entry carrying one contextual field.
func (l *Logger) WithField(key string, value interface{}) *logrus.Entry {
	return l.Logger.WithField(key, value)
}

// WithFields returns a log entry carrying multiple contextual fields.
func (l *Logger) WithFields(fields logrus.Fields) *logrus.Entry {
	return l.Logger.WithFields(fields)
}
