/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package trace implements the TraceRedefineClasses / TimeRedefineClasses
// diagnostics surface on top of log/slog, grounded on
// jvmtiRedefineClassesTrace.hpp's TRACE_RC1..TRACE_RC5 leveled, indented
// macros and its RC_TIMER_START/STOP timer helpers.
package trace

import (
	"log/slog"
	"os"
	"sync"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	mu     sync.RWMutex
	logger = slog.New(slog.NewTextHandler(os.Stderr, nil))
	level  int // 0-5, mirrors TraceRedefineClasses
	timed  bool
)

// Config mirrors the ambient logging config convention in
// ipiton-alert-history-service/go-app/pkg/logger: an optional rotating
// file sink alongside the default stderr stream.
type Config struct {
	Level      int // TraceRedefineClasses: 0 (silent) .. 5 (maximally verbose)
	Timed      bool
	Filename   string // non-empty enables a lumberjack-rotated file sink
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
}

// Init configures the package-level trace sink. Safe to call multiple
// times (e.g. once per redefinition transaction in tests).
func Init(cfg Config) {
	mu.Lock()
	defer mu.Unlock()

	level = clamp(cfg.Level)
	timed = cfg.Timed

	var w = os.Stderr
	if cfg.Filename != "" {
		lj := &lumberjack.Logger{
			Filename:   cfg.Filename,
			MaxSize:    orDefault(cfg.MaxSizeMB, 10),
			MaxBackups: orDefault(cfg.MaxBackups, 3),
			MaxAge:     orDefault(cfg.MaxAgeDays, 28),
		}
		logger = slog.New(slog.NewTextHandler(lj, &slog.HandlerOptions{Level: slog.LevelDebug}))
		return
	}
	logger = slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func clamp(l int) int {
	if l < 0 {
		return 0
	}
	if l > 5 {
		return 5
	}
	return l
}

func orDefault(v, d int) int {
	if v <= 0 {
		return d
	}
	return v
}

// TimingEnabled reports whether TimeRedefineClasses is set.
func TimingEnabled() bool {
	mu.RLock()
	defer mu.RUnlock()
	return timed
}

// RC emits a trace line at the given TraceRedefineClasses level (1-5),
// indented two spaces per level as the source's TRACE_RC1..TRACE_RC5 macros
// do. When rcLevel exceeds the configured level, it is a no-op.
func RC(rcLevel int, component, msg string, args ...any) {
	mu.RLock()
	cur := level
	l := logger
	mu.RUnlock()

	if rcLevel > cur {
		return
	}
	indent := ""
	for i := 1; i < rcLevel; i++ {
		indent += "  "
	}
	l.Info(indent+msg, append([]any{"component", component, "rc_level", rcLevel}, args...)...)
}

// Error always logs, regardless of TraceRedefineClasses level, matching
// trace.Error call sites in classloader.go that report hard failures.
func Error(component, msg string, args ...any) {
	mu.RLock()
	l := logger
	mu.RUnlock()
	l.Error(msg, append([]any{"component", component}, args...)...)
}

// Timer is an elapsed-time accumulator gated by TimeRedefineClasses,
// grounded on jvmtiRedefineClasses.hpp's elapsedTimer fields
// (_timer_total, _timer_prologue, etc.) and RC_TIMER_START/STOP.
type Timer struct {
	name    string
	started time.Time
	elapsed time.Duration
	active  bool
}

// NewTimer creates a named timer. Start/Stop are no-ops unless timing is
// enabled via Init(Config{Timed: true}).
func NewTimer(name string) *Timer { return &Timer{name: name} }

func (t *Timer) Start() {
	if !TimingEnabled() {
		return
	}
	t.started = time.Now()
	t.active = true
}

func (t *Timer) Stop() {
	if !t.active {
		return
	}
	t.elapsed += time.Since(t.started)
	t.active = false
}

// Elapsed returns the accumulated duration. Zero if timing was never
// enabled.
func (t *Timer) Elapsed() time.Duration { return t.elapsed }

func (t *Timer) Name() string { return t.name }
