/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package safepoint implements the SafepointCoordinator:
// it drains compiler workers and application threads to a global
// safepoint before the commit phase runs, and releases them afterward in
// reverse order. Generalized from "one interpreter goroutine" to "N
// managed threads with individually lockable redefinition mutexes".
package safepoint

import (
	"sync"

	"github.com/dcevm/dcevm/internal/runtimehost"
	"github.com/dcevm/dcevm/internal/trace"
)

const component = "safepoint"

// Coordinator drains the runtime to a safepoint and releases it again.
type Coordinator struct {
	Compiler runtimehost.CompilerBroker
	Threads  runtimehost.ManagedThreads

	mu            sync.Mutex
	lockedWorkers []int
	lockedThreads []int
	held          bool
}

// Acquire performs the three steps of reaching a safepoint: signal
// compiler bailout and take each worker's compilation mutex, take each
// managed thread's redefine_classes_mutex in a fixed enumeration order,
// then request the global safepoint and wait for every thread to roll
// forward into it.
func (c *Coordinator) Acquire() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.held {
		return
	}

	trace.RC(1, component, "requesting compiler bailout")
	c.Compiler.SignalBailout()
	for _, id := range c.Compiler.WorkerIDs() {
		c.Compiler.LockWorker(id)
		c.lockedWorkers = append(c.lockedWorkers, id)
	}

	trace.RC(1, component, "taking per-thread redefinition mutexes")
	ids := append([]int(nil), c.Threads.IDs()...)
	for _, id := range ids {
		c.Threads.LockForRedefinition(id)
		c.lockedThreads = append(c.lockedThreads, id)
	}

	trace.RC(1, component, "rolling threads forward to safepoint")
	for _, id := range ids {
		c.Threads.RollForwardToSafepoint(id)
	}

	c.held = true
	trace.RC(1, component, "safepoint reached")
}

// Release reverses Acquire: the mutexes are released in reverse order
// and the safepoint lifts. Safe to call even if Acquire was never
// called or already released.
func (c *Coordinator) Release() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.held {
		return
	}

	for i := len(c.lockedThreads) - 1; i >= 0; i-- {
		c.Threads.UnlockForRedefinition(c.lockedThreads[i])
	}
	for i := len(c.lockedWorkers) - 1; i >= 0; i-- {
		c.Compiler.UnlockWorker(c.lockedWorkers[i])
	}

	c.lockedThreads = nil
	c.lockedWorkers = nil
	c.held = false
	trace.RC(1, component, "safepoint released")
}

// Held reports whether the coordinator currently holds the safepoint.
func (c *Coordinator) Held() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.held
}
