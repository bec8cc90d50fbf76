// Package logging provides the shared zap logger for the storage core.
// Best-effort failures (transaction writes, size computation, cleanup) are
// logged here and absorbed so they never block the primary wallet operation.
// Until Init is called the logger is a nop, keeping library use silent.
package logging

import (
	"fmt"
	"sync"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/AlexZinkM/wallet-store/internal/config"
)

var (
	mu     sync.RWMutex
	logger = zap.NewNop()
)

// Init builds the logger from config (WSTORE_LOG_LEVEL, WSTORE_LOG_DEV).
func Init() error {
	c := config.Get()

	var level zapcore.Level
	if err := level.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return fmt.Errorf("invalid log level %q: %w", c.LogLevel, err)
	}

	zc := zap.NewProductionConfig()
	if c.LogDev {
		zc = zap.NewDevelopmentConfig()
	}
	zc.Level = zap.NewAtomicLevelAt(level)

	l, err := zc.Build()
	if err != nil {
		return fmt.Errorf("failed to build logger: %w", err)
	}

	mu.Lock()
	logger = l
	mu.Unlock()
	return nil
}

// L returns the shared logger
func L() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return logger
}

// SetLogger replaces the shared logger (tests)
func SetLogger(l *zap.Logger) {
	mu.Lock()
	logger = l
	mu.Unlock()
}
