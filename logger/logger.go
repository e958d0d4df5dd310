/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package logger provides structured logging for softdelete collections and backends
package logger

import (
	"io"
	"os"
	"time"

	"github.com/rs/zerolog"
)

// Logger wraps zerolog with softdelete-specific helpers
type Logger struct {
	zlog zerolog.Logger
}

// Config holds logger configuration
type Config struct {
	Level      string // debug, info, warn, error
	Pretty     bool   // pretty-print for development
	Output     io.Writer
	WithCaller bool
}

// New creates a new structured logger
func New(cfg Config) *Logger {
	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}

	output := cfg.Output
	if output == nil {
		output = os.Stderr
	}

	if cfg.Pretty {
		output = zerolog.ConsoleWriter{
			Out:        output,
			TimeFormat: time.RFC3339,
		}
	}

	zlog := zerolog.New(output).
		Level(level).
		With().
		Timestamp().
		Str("service", "softdelete").
		Logger()

	if cfg.WithCaller {
		zlog = zlog.With().Caller().Logger()
	}

	return &Logger{zlog: zlog}
}

// Nop returns a logger that discards everything
func Nop() *Logger {
	return &Logger{zlog: zerolog.Nop()}
}

// Zerolog returns the underlying zerolog logger
func (l *Logger) Zerolog() zerolog.Logger {
	return l.zlog
}

// Component returns a logger tagged with a component name, e.g. a backend
func (l *Logger) Component(name string) zerolog.Logger {
	return l.zlog.With().Str("component", name).Logger()
}

// Collection returns a logger for operations on one collection
func (l *Logger) Collection(name string) zerolog.Logger {
	return l.zlog.With().
		Str("component", "softdelete").
		Str("collection", name).
		Logger()
}

// LogOperation logs a completed operation with structured fields
func LogOperation(zlog zerolog.Logger, op, visibility string, duration time.Duration, err error) {
	if err != nil {
		zlog.Error().
			Str("op", op).
			Str("visibility", visibility).
			Dur("duration", duration).
			Err(err).
			Msg("operation failed")
		return
	}
	zlog.Debug().
		Str("op", op).
		Str("visibility", visibility).
		Dur("duration", duration).
		Msg("operation completed")
}
