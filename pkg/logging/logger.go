// Package logging provides component loggers for hookrun's diagnostic output.
// Hook results are printed by the formatting package; these loggers only carry
// debug and warning messages and write to stderr.
package logging

import (
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
)

// Environment variables controlling diagnostic output
const (
	LevelEnv       = "HOOKRUN_LOG_LEVEL"
	TimingDebugEnv = "HOOKRUN_TIMING_DEBUG"
)

var (
	base     *logrus.Logger
	baseOnce sync.Once

	loggers   = make(map[string]*logrus.Entry)
	loggersMu sync.Mutex
)

func root() *logrus.Logger {
	baseOnce.Do(func() {
		base = logrus.New()
		base.SetOutput(os.Stderr)
		base.SetFormatter(&logrus.TextFormatter{
			DisableTimestamp: true,
			DisableQuote:     true,
		})

		level, err := logrus.ParseLevel(os.Getenv(LevelEnv))
		if err != nil {
			level = logrus.WarnLevel
		}
		base.SetLevel(level)
	})
	return base
}

// NewLogger returns the logger for a component, creating it on first use
func NewLogger(component string) *logrus.Entry {
	loggersMu.Lock()
	defer loggersMu.Unlock()

	if logger, exists := loggers[component]; exists {
		return logger
	}

	logger := root().WithField("component", component)
	loggers[component] = logger
	return logger
}

// SetVerbose raises the log level to debug unless the level was set explicitly
func SetVerbose(verbose bool) {
	if verbose && os.Getenv(LevelEnv) == "" {
		root().SetLevel(logrus.DebugLevel)
	}
}

// SetOutput redirects every component logger
func SetOutput(w io.Writer) {
	root().SetOutput(w)
}

// LogTiming logs the duration of a phase if timing debug is enabled.
// Timing lines bypass the configured level once the env var is set.
func LogTiming(phase string, start time.Time) {
	if os.Getenv(TimingDebugEnv) == "" {
		return
	}
	NewLogger("timing").WithField("took", time.Since(start)).Warn("[TIMING] " + phase)
}
