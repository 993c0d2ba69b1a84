// Package logging defines the logger carried by a central. Any logger
// exposing the five leveled printf methods can be injected through the
// configuration; the default is a logrus text logger.
package logging

import (
	"io"

	"github.com/sirupsen/logrus"
)

// Logger describes a leveled logger.
type Logger interface {
	Tracef(format string, args ...any)
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)
}

// NewLogger returns the default logger.
func NewLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrus.InfoLevel)

	return l
}

// NewDebugLogger returns a logger with all levels enabled.
func NewDebugLogger() Logger {
	l := logrus.New()
	l.SetLevel(logrus.TraceLevel)

	return l
}

// Discard returns a logger that drops all messages.
func Discard() Logger {
	l := logrus.New()
	l.SetOutput(io.Discard)

	return l
}
