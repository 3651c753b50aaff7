package logging

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"

	"github.com/sirupsen/logrus"
	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	// rotation limits for the log file
	maxLogSizeMB  = 50
	maxLogBackups = 3
)

var (
	logger  = newDefaultLogger()
	logFile *lumberjack.Logger
	mu      sync.Mutex
	isSetup bool
)

// newDefaultLogger returns the stderr logger used until SetupLogger is called
func newDefaultLogger() *logrus.Logger {
	l := logrus.New()
	l.SetOutput(os.Stderr)
	l.SetLevel(logrus.WarnLevel)
	return l
}

// SetupLogger routes log output to the specified file. Debug mode logs
// everything in text form; otherwise info and above is written as JSON.
func SetupLogger(logFilePath string, debug bool) error {
	mu.Lock()
	defer mu.Unlock()

	// Check if logger is already set up
	if isSetup {
		return nil
	}

	// lumberjack opens lazily, so check the path is writable here
	f, err := os.OpenFile(logFilePath, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("failed to open log file: %v", err)
	}
	f.Close()

	logFile = &lumberjack.Logger{
		Filename:   logFilePath,
		MaxSize:    maxLogSizeMB,
		MaxBackups: maxLogBackups,
		Compress:   true,
	}

	configure(logger, logFile, debug)
	logger.Infof("--- trafficsigns log started at %s ---", time.Now().Format(time.RFC3339))

	isSetup = true
	return nil
}

// SetOutput sends log output to w without a backing file
func SetOutput(w io.Writer, debug bool) {
	mu.Lock()
	defer mu.Unlock()
	configure(logger, w, debug)
}

func configure(l *logrus.Logger, w io.Writer, debug bool) {
	l.SetOutput(w)
	if debug {
		l.SetLevel(logrus.DebugLevel)
		l.SetFormatter(&logrus.TextFormatter{
			FullTimestamp: true,
		})
		return
	}
	l.SetLevel(logrus.InfoLevel)
	l.SetFormatter(&logrus.JSONFormatter{
		TimestampFormat: "2006-01-02 15:04:05",
	})
}

// CloseLogger closes the log file and falls back to stderr
func CloseLogger() {
	mu.Lock()
	defer mu.Unlock()

	if logFile != nil {
		logger.Infof("--- trafficsigns log closed at %s ---", time.Now().Format(time.RFC3339))
		logFile.Close()
		logFile = nil
		isSetup = false
		logger = newDefaultLogger()
	}
}

// Logger exposes the underlying logger for callers that need structured fields
func Logger() *logrus.Logger {
	mu.Lock()
	defer mu.Unlock()
	return logger
}

// LogInfo logs an information message
func LogInfo(format string, args ...interface{}) {
	Logger().Infof(format, args...)
}

// DebugLog logs a message if debug mode is enabled
func DebugLog(format string, args ...interface{}) {
	Logger().Debugf(format, args...)
}

// LogError logs an error message
func LogError(format string, args ...interface{}) {
	Logger().Errorf(format, args...)
}

// LogWarning logs a warning message
func LogWarning(format string, args ...interface{}) {
	Logger().Warnf(format, args...)
}

// LogSampleProcessed logs the outcome of preprocessing one sample
func LogSampleProcessed(class int, filename string, success bool, errMsg string) {
	entry := Logger().WithFields(logrus.Fields{
		"class":    class,
		"filename": filename,
	})
	if success {
		entry.Debug("PROCESSED")
	} else {
		entry.WithField("error", errMsg).Error("FAILED")
	}
}
