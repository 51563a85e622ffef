/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package runtimehost declares the collaborator interfaces the
// redefinition engine needs at its boundary but does not itself own: the
// class loader, verifier, heap/root walkers, compiler broker, breakpoint
// table, and native-binding registry. Their real implementations belong
// to the JIT, GC, class-file parser, and debugger-agent subsystems;
// this package only fixes the shape the redefinition engine calls
// through.
package runtimehost

import (
	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/object"
)

// ClassLoader resolves class bytes into a ClassVersion. When
// redefinitionOf is non-nil, the loader must pair the result with that
// existing class rather than raising a duplicate-class error.
type ClassLoader interface {
	ResolveFromStream(name string, loaderName string, bytes []byte, redefinitionOf *classregistry.ClassVersion) (*classregistry.ClassVersion, error)
}

// Verifier runs bytecode verification over a newly resolved class.
type Verifier interface {
	Verify(cv *classregistry.ClassVersion) bool
}

// RootVisitor is handed every strong root the engine must be able to
// rewrite in place.
type RootVisitor func(obj **object.Object)

// Roots walks every strong GC root.
type Roots interface {
	Walk(visit RootVisitor)
}

// Heap iterates every object in the managed heap and can trigger a full
// collection on demand.
type Heap interface {
	IterateObjects(visit func(o *object.Object))
	CollectAsVMThread(cause string) error
}

// CompilerBroker models the JIT's per-worker compilation mutexes the
// safepoint coordinator takes before requesting a safepoint.
type CompilerBroker interface {
	SignalBailout()
	WorkerIDs() []int
	LockWorker(id int)
	UnlockWorker(id int)

	// MarkForDeopt and DeoptimizeStacks model code-cache invalidation:
	// compiled methods for className are marked not-entrant and any
	// live compiled stack activation is converted back to interpreted.
	MarkForDeopt(className string)
	DeoptimizeStacks(className string)
}

// BreakpointTable is the debugger-agent's per-method breakpoint store.
type BreakpointTable interface {
	ClearAllInClass(className string)
	Transfer(oldMethodID, newMethodID uint32)
}

// NativeBindings exposes the agent-registered method-name prefixes
// NativeBindingTransfer must account for.
type NativeBindings interface {
	AgentPrefixes() []string
}

// ManagedThreads enumerates every application thread the safepoint
// coordinator must take a per-thread redefinition mutex on, in a fixed
// enumeration order to avoid deadlock, and drive to the global
// safepoint barrier.
type ManagedThreads interface {
	IDs() []int
	LockForRedefinition(id int)
	UnlockForRedefinition(id int)
	RollForwardToSafepoint(id int)
}
