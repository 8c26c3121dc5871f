// Copyright (C) NHR@FAU, University Erlangen-Nuremberg.
// All rights reserved. This file is part of tsdbwritecore.
// Use of this source code is governed by a MIT-style
// license that can be found in the LICENSE file.

// Package corelog provides the small structured logger used throughout the
// storage core. It follows the leveled, printf-style logging convention the
// rest of the module was built against: package-scoped Debugf/Infof/Warnf/
// Errorf calls, plus Fatalf/Abortf for conditions that should stop the
// process during startup.
package corelog

import (
	"fmt"
	"log"
	"os"
	"sync/atomic"
)

// Level controls which messages are emitted. Debug messages are suppressed
// by default; set SetLevel(LevelDebug) for verbose tracing.
type Level int32

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var (
	level  atomic.Int32
	logger = log.New(os.Stderr, "", log.LstdFlags|log.Lmicroseconds)
)

func init() { SetLevel(LevelInfo) }

func SetLevel(l Level) { level.Store(int32(l)) }

func enabled(l Level) bool { return int32(l) >= level.Load() }

func Debugf(format string, args ...any) {
	if enabled(LevelDebug) {
		logger.Output(2, "DEBUG "+fmt.Sprintf(format, args...))
	}
}

func Infof(format string, args ...any) {
	if enabled(LevelInfo) {
		logger.Output(2, "INFO  "+fmt.Sprintf(format, args...))
	}
}

func Warnf(format string, args ...any) {
	if enabled(LevelWarn) {
		logger.Output(2, "WARN  "+fmt.Sprintf(format, args...))
	}
}

func Errorf(format string, args ...any) {
	if enabled(LevelError) {
		logger.Output(2, "ERROR "+fmt.Sprintf(format, args...))
	}
}

// Fatalf logs and terminates the process. Reserved for unrecoverable
// startup failures (bad checkpoint directory, corrupt config), never for
// per-write errors which must be returned as values.
func Fatalf(format string, args ...any) {
	logger.Output(2, "FATAL "+fmt.Sprintf(format, args...))
	os.Exit(1)
}

// Abortf logs and terminates the process; used specifically for
// configuration validation failures discovered at Init time.
func Abortf(format string, args ...any) {
	logger.Output(2, "ABORT "+fmt.Sprintf(format, args...))
	os.Exit(1)
}
