package helpers

import (
	"fmt"
	"os"
	"sync"
	"time"

	"sjsage522/estateworker/logger"
)

// LoggerInterface is the logging seam used by the worker
type LoggerInterface interface {
	LogError(component string, err error)
	LogInfo(format string, args ...interface{})
}

// Logger logs through zerolog and appends errors to an error file
type Logger struct {
	errorFile string
	mu        sync.Mutex
}

// NewLogger creates a new logger instance. An empty errorFile disables the
// error file.
func NewLogger(errorFile string) *Logger {
	return &Logger{
		errorFile: errorFile,
	}
}

// LogError logs err and appends it to the error file with a timestamp
func (l *Logger) LogError(component string, err error) {
	logger.LogError(component, err, "operation failed")

	if l.errorFile == "" {
		return
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	f, fileErr := os.OpenFile(l.errorFile, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0644)
	if fileErr != nil {
		logger.Warn("failed to open error log %s: %v", l.errorFile, fileErr)
		return
	}
	defer f.Close()

	timestamp := time.Now().Format("2006-01-02 15:04:05")
	fmt.Fprintf(f, "[%s] [%s] %s\n", timestamp, component, err.Error())
}

// LogInfo logs an informational message
func (l *Logger) LogInfo(format string, args ...interface{}) {
	logger.Info(format, args...)
}
