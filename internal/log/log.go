// Package log provides the thin Logger interface gbcore's host-facing
// packages (gameboy, romload, cmd/gbcore) log diagnostics through, with
// a logrus-backed default implementation and a null implementation for
// tests and headless embedding.
//
// Grounded on _examples/thelolagemann-gomeboy/pkg/log (the Infof/Errorf/
// Debugf interface shape) and on the same teacher's
// internal/mmu/mmu.go, which constructs a github.com/sirupsen/logrus
// logger directly rather than routing through pkg/log's own hand-rolled
// fmt.Printf implementation; gbcore backs the interface with logrus
// instead, keeping the dependency the teacher already pulls in.
package log

import "github.com/sirupsen/logrus"

// Logger is the logging surface every gbcore package that logs depends
// on, never a concrete logging library.
type Logger interface {
	Infof(format string, args ...interface{})
	Errorf(format string, args ...interface{})
	Debugf(format string, args ...interface{})
}

type logrusLogger struct {
	entry *logrus.Logger
}

// New returns a Logger backed by a logrus.Logger with a text formatter,
// writing to stderr at debug level.
func New() Logger {
	l := logrus.New()
	l.SetLevel(logrus.DebugLevel)
	l.Formatter = &logrus.TextFormatter{FullTimestamp: true}
	return &logrusLogger{entry: l}
}

func (l *logrusLogger) Infof(format string, args ...interface{})  { l.entry.Infof(format, args...) }
func (l *logrusLogger) Errorf(format string, args ...interface{}) { l.entry.Errorf(format, args...) }
func (l *logrusLogger) Debugf(format string, args ...interface{}) { l.entry.Debugf(format, args...) }

type nullLogger struct{}

func (nullLogger) Infof(format string, args ...interface{})  {}
func (nullLogger) Errorf(format string, args ...interface{}) {}
func (nullLogger) Debugf(format string, args ...interface{}) {}

// NewNullLogger returns a Logger that discards everything, for tests
// and hosts that don't want gbcore's internal diagnostics.
func NewNullLogger() Logger {
	return nullLogger{}
}
