// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package logging defines the injected logging sink used throughout the
// sensor core. The core never owns a global logger — it is embedded in a
// host process (the video collaborator) that gets to decide where
// INFO/WARNING/ERROR lines go.
package logging

import "log"

// Logger is the injected sink. Implementations must be safe for
// concurrent use: the acquisition worker and consumer goroutines may log
// at the same time.
type Logger interface {
	Info(format string, args ...any)
	Warn(format string, args ...any)
	Error(format string, args ...any)
}

// StdLogger adapts the standard library's *log.Logger to Logger, tagging
// each line with its level the way the teacher tags lines with a
// component prefix ("left IMU: ...").
type StdLogger struct {
	L *log.Logger
}

// NewStdLogger wraps log.Default().
func NewStdLogger() StdLogger {
	return StdLogger{L: log.Default()}
}

func (s StdLogger) Info(format string, args ...any) {
	s.L.Printf("INFO: "+format, args...)
}

func (s StdLogger) Warn(format string, args ...any) {
	s.L.Printf("WARNING: "+format, args...)
}

func (s StdLogger) Error(format string, args ...any) {
	s.L.Printf("ERROR: "+format, args...)
}

// NopLogger discards everything. Useful as a default and in tests.
type NopLogger struct{}

func (NopLogger) Info(string, ...any)  {}
func (NopLogger) Warn(string, ...any)  {}
func (NopLogger) Error(string, ...any) {}
