package logger

import (
	"os"
	"sync"
)

var (
	globalLogger *Logger
	globalMu     sync.RWMutex
)

// GetLogger returns the global logger, building one from the environment on
// first use
func GetLogger() *Logger {
	globalMu.RLock()
	l := globalLogger
	globalMu.RUnlock()
	if l != nil {
		return l
	}

	globalMu.Lock()
	defer globalMu.Unlock()
	if globalLogger == nil {
		globalLogger = New(configFromEnv())
	}
	return globalLogger
}

func configFromEnv() Config {
	level := "info"
	if os.Getenv("DEBUG") == "true" {
		level = "debug"
	} else if v := os.Getenv("LOG_LEVEL"); v != "" {
		level = v
	}

	format := "json"
	if v := os.Getenv("LOG_FORMAT"); v != "" {
		format = v
	}

	return Config{
		Level:  level,
		Format: format,
		Output: "stdout",
	}
}

// SetLogger replaces the global logger instance
func SetLogger(logger *Logger) {
	globalMu.Lock()
	globalLogger = logger
	globalMu.Unlock()
	SetGlobalLogger(logger)
}
