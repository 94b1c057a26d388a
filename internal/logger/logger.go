// Package logger provides structured logging using Zap.
package logger

import (
	"sync"

	"go.uber.org/zap"
)

var (
	sugar *zap.SugaredLogger
	once  sync.Once
)

// New builds a sugared logger for the given environment. Production uses a
// JSON encoder; every other environment a console encoder. "test" yields a
// no-op logger.
func New(env string) *zap.SugaredLogger {
	var base *zap.Logger
	var err error

	switch env {
	case "production":
		base, err = zap.NewProduction()
	case "test":
		base = zap.NewNop()
	default:
		base, err = zap.NewDevelopment()
	}

	if err != nil {
		base = zap.NewNop()
	}
	return base.Sugar()
}

// Init initializes the process-wide logger used by handlers and middleware.
// Services receive their logger through their constructors instead.
func Init(env string) {
	once.Do(func() {
		sugar = New(env)
	})
}

// Get returns the global sugared logger.
// If Init has not been called, it initializes a development logger.
func Get() *zap.SugaredLogger {
	if sugar == nil {
		Init("development")
	}
	return sugar
}

// Sync flushes any buffered log entries. Call this before application exit.
func Sync() {
	if sugar != nil {
		_ = sugar.Sync()
	}
}
