// SPDX-FileCopyrightText: Winni Neessen <wn@neessen.dev>
//
// SPDX-License-Identifier: MIT

// Package logger provides a thin wrapper around log/slog with a configurable
// log level and output target.
package logger

import (
	"io"
	"log/slog"
	"os"
)

// Logger wraps a slog.Logger.
type Logger struct {
	*slog.Logger
}

// New returns a new Logger writing to STDERR with the given log level.
func New(level slog.Level) *Logger {
	return NewLogger(level, os.Stderr)
}

// NewLogger returns a new Logger writing to the given output with the given log level.
func NewLogger(level slog.Level, output io.Writer) *Logger {
	return &Logger{slog.New(slog.NewTextHandler(output, &slog.HandlerOptions{Level: level}))}
}

// Err wraps an error into a slog.Attr for structured error logging.
func Err(err error) slog.Attr {
	return slog.Any("error", err)
}
