package internal

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/charmbracelet/log"
)

// LogLevel represents the logging level
type LogLevel int

const (
	LogLevelError LogLevel = iota
	LogLevelWarn
	LogLevelInfo
	LogLevelDebug
)

var (
	logger = log.NewWithOptions(os.Stderr, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.DateTime,
		Level:           log.InfoLevel,
	})

	logFileMu sync.Mutex
	logFile   *os.File
)

var charmLevels = map[LogLevel]log.Level{
	LogLevelError: log.ErrorLevel,
	LogLevelWarn:  log.WarnLevel,
	LogLevelInfo:  log.InfoLevel,
	LogLevelDebug: log.DebugLevel,
}

// SetLogLevel sets the global log level
func SetLogLevel(level LogLevel) {
	logger.SetLevel(charmLevels[level])
}

// SetVerbose enables verbose (debug) logging
func SetVerbose(verbose bool) {
	if verbose {
		SetLogLevel(LogLevelDebug)
	} else {
		SetLogLevel(LogLevelInfo)
	}
}

// Logger returns the shared structured logger for packages that log key/value pairs
func Logger() *log.Logger {
	return logger
}

// SetLogFile tees log output into the file at path, appending to it.
// Passing an empty path restores stderr-only output.
func SetLogFile(path string) error {
	logFileMu.Lock()
	defer logFileMu.Unlock()

	if logFile != nil {
		_ = logFile.Close()
		logFile = nil
	}
	if path == "" {
		logger.SetOutput(os.Stderr)
		return nil
	}

	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return fmt.Errorf("failed to open log file: %w", err)
	}
	logFile = f
	logger.SetOutput(io.MultiWriter(os.Stderr, f))
	return nil
}

// CloseLogFile closes the log file opened by SetLogFile, if any
func CloseLogFile() error {
	return SetLogFile("")
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	logger.Errorf(format, args...)
}

// LogWarn logs a warning message
func LogWarn(format string, args ...interface{}) {
	logger.Warnf(format, args...)
}

// LogInfo logs an info message
func LogInfo(format string, args ...interface{}) {
	logger.Infof(format, args...)
}

// LogDebug logs a debug message
func LogDebug(format string, args ...interface{}) {
	logger.Debugf(format, args...)
}
