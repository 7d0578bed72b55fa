package process

import (
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

// Logger prefixes log lines with the process code and how long the
// current run has been going
type Logger struct {
	Code string
	Time time.Time
}

// NewLogger initializes a logger for the process code
func NewLogger(code string) (l *Logger) {
	return &Logger{
		Code: code,
		Time: time.Now(),
	}
}

// ResetTime restarts the elapsed clock, called at the top of a run
func (l *Logger) ResetTime() {
	l.Time = time.Now()
}

// Info helper to use zerolog info
func (l *Logger) Info(msg string, args ...interface{}) {
	l.write(log.Info(), msg, args...)
}

// Warn helper to use zerolog warn
func (l *Logger) Warn(msg string, args ...interface{}) {
	l.write(log.Warn(), msg, args...)
}

// Error helper to use zerolog error
func (l *Logger) Error(msg string, args ...interface{}) {
	l.write(log.Error(), msg, args...)
}

func (l *Logger) write(ze *zerolog.Event, msg string, args ...interface{}) {
	prefix := fmt.Sprintf("[%s][%s]", l.Code, time.Since(l.Time))
	ze.Msgf(prefix+msg, args...)
}
