// Package logger provides the structured logging abstraction used
// throughout Forge, backed by logrus with TTY-aware formatting.
package logger

import (
	"os"

	"github.com/mattn/go-isatty"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
)

type Log interface {
	WithField(name string, value interface{}) Log
	WithFields(fields Fields) Log
	Trace(args ...interface{})
	Tracef(msg string, args ...interface{})
	Debug(args ...interface{})
	Debugf(msg string, args ...interface{})
	Info(args ...interface{})
	Infof(msg string, args ...interface{})
	Warn(args ...interface{})
	Warnf(msg string, args ...interface{})
	Error(args ...interface{})
	Errorf(msg string, args ...interface{})
}

// Fields is a set of keys/values to include in a structured log message.
type Fields map[string]interface{}

// LogFactory produces a logger for the named subsystem.
type LogFactory func(subsystem string) Log

// LogrusLogger is a Log implementation backed by logrus.
type LogrusLogger struct {
	*logrus.Entry
}

func (l *LogrusLogger) WithField(name string, value interface{}) Log {
	return &LogrusLogger{Entry: l.Entry.WithField(name, value)}
}

func (l *LogrusLogger) WithFields(fields Fields) Log {
	return &LogrusLogger{Entry: l.Entry.WithFields(logrus.Fields(fields))}
}

// NewLogrusFactoryStdOut returns a LogFactory that logs to stdout, using a
// human-readable formatter when attached to a terminal and JSON otherwise.
func NewLogrusFactoryStdOut(registry *LogRegistry) LogFactory {
	return func(subsystem string) Log {
		log := logrus.New()
		log.SetLevel(registry.GetLogLevel(subsystem))
		log.SetOutput(os.Stdout)
		if isatty.IsTerminal(os.Stdout.Fd()) {
			log.SetFormatter(&logrus.TextFormatter{
				TimestampFormat: "2006-01-02 15:04:05",
				FullTimestamp:   true,
				DisableQuote:    true,
			})
		} else {
			log.SetFormatter(&logrus.JSONFormatter{TimestampFormat: "2006-01-02 15:04:05"})
		}
		entry := log.WithFields(logrus.Fields{"system": subsystem})
		registry.RegisterLogger(subsystem, log)
		return &LogrusLogger{Entry: entry}
	}
}

// NewLogrusFactoryToFile returns a LogFactory that writes plain-text logs
// to the given file path, truncating any existing contents.
func NewLogrusFactoryToFile(registry *LogRegistry, path string) (LogFactory, error) {
	file, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0644)
	if err != nil {
		return nil, errors.Wrapf(err, "opening log file %s", path)
	}
	return func(subsystem string) Log {
		log := logrus.New()
		log.SetLevel(registry.GetLogLevel(subsystem))
		log.SetOutput(file)
		log.SetFormatter(&logrus.TextFormatter{TimestampFormat: "2006-01-02 15:04:05", FullTimestamp: true})
		entry := log.WithFields(logrus.Fields{"system": subsystem})
		registry.RegisterLogger(subsystem, log)
		return &LogrusLogger{Entry: entry}
	}, nil
}

// NoOpLog discards everything. Useful for tests and for components that
// are run with logging disabled.
type NoOpLog struct{}

func NewNoOpLog() *NoOpLog { return &NoOpLog{} }

func NoOpLogFactory(string) Log { return NewNoOpLog() }

func (l *NoOpLog) WithField(string, interface{}) Log { return l }
func (l *NoOpLog) WithFields(Fields) Log              { return l }
func (l *NoOpLog) Trace(...interface{})               {}
func (l *NoOpLog) Tracef(string, ...interface{})      {}
func (l *NoOpLog) Debug(...interface{})               {}
func (l *NoOpLog) Debugf(string, ...interface{})      {}
func (l *NoOpLog) Info(...interface{})                {}
func (l *NoOpLog) Infof(string, ...interface{})       {}
func (l *NoOpLog) Warn(...interface{})                {}
func (l *NoOpLog) Warnf(string, ...interface{})       {}
func (l *NoOpLog) Error(...interface{})               {}
func (l *NoOpLog) Errorf(string, ...interface{})      {}
