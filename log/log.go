// Package log configures the logrus loggers used across wireup.
package log

import (
	"os"
	"strconv"

	"github.com/sirupsen/logrus"
)

// Environment variables read by GetLogger. Level takes precedence over the
// debug switch.
const (
	LevelEnv = "WIREUP_LOG_LEVEL"
	DebugEnv = "WIREUP_DEBUG"
)

// Logger is satisfied by both *logrus.Logger and *logrus.Entry.
type Logger interface {
	Debug(...interface{})
	Info(...interface{})
	Warn(...interface{})
}

func envLevel() logrus.Level {
	if lvl, err := logrus.ParseLevel(os.Getenv(LevelEnv)); err == nil {
		return lvl
	}
	if on, _ := strconv.ParseBool(os.Getenv(DebugEnv)); on {
		return logrus.DebugLevel
	}
	return logrus.InfoLevel
}

// GetLogger returns a new logger writing timestamped text to stderr, with
// level taken from environment.
func GetLogger() *logrus.Logger {
	l := logrus.New()
	l.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	l.SetLevel(envLevel())
	return l
}

// ParseLevel returns a logger with explicit level. Unknown levels keep the
// environment one.
func ParseLevel(level string) *logrus.Logger {
	l := GetLogger()
	if lvl, err := logrus.ParseLevel(level); err == nil {
		l.SetLevel(lvl)
	}
	return l
}

// Component tags every entry with component field.
func Component(l *logrus.Logger, name string) Logger {
	return l.WithField("component", name)
}

// Silent discards everything.
var Silent Logger = silent{}

type silent struct{}

func (silent) Debug(...interface{}) {}
func (silent) Info(...interface{})  {}
func (silent) Warn(...interface{})  {}
