/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file provides in-memory implementations of the collaborator
// interfaces, adequate for tests and the cmd/dcevmctl demo, standing in
// for the real JIT/GC/parser/debugger-agent subsystems that are out of
// scope for this engine.
package runtimehost

import (
	"fmt"
	"sync"

	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/object"
)

// FakeClassLoader resolves ClassSpec-encoded bytes (see classspec.go).
type FakeClassLoader struct{}

func (FakeClassLoader) ResolveFromStream(name, loaderName string, bytes []byte, redefinitionOf *classregistry.ClassVersion) (*classregistry.ClassVersion, error) {
	spec, err := ParseClassSpec(bytes)
	if err != nil {
		return nil, err
	}
	if spec.Name != name {
		return nil, fmt.Errorf("names don't match: requested %q, bytes declare %q", name, spec.Name)
	}
	cv := spec.ToClassVersion()
	cv.Loader = loaderName
	return cv, nil
}

// FakeVerifier accepts everything except a class that declares itself as
// its own superclass (an obviously malformed input useful for tests).
type FakeVerifier struct{}

func (FakeVerifier) Verify(cv *classregistry.ClassVersion) bool {
	return cv.SuperclassName != cv.Name
}

// FakeHeap is a simple in-memory object set.
type FakeHeap struct {
	mu        sync.Mutex
	objects   []*object.Object
	collected int
}

func NewFakeHeap() *FakeHeap { return &FakeHeap{} }

func (h *FakeHeap) Add(o *object.Object) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.objects = append(h.objects, o)
}

func (h *FakeHeap) IterateObjects(visit func(o *object.Object)) {
	h.mu.Lock()
	snapshot := append([]*object.Object(nil), h.objects...)
	h.mu.Unlock()
	for _, o := range snapshot {
		visit(o)
	}
}

func (h *FakeHeap) CollectAsVMThread(cause string) error {
	h.mu.Lock()
	h.collected++
	h.mu.Unlock()
	return nil
}

func (h *FakeHeap) CollectionCount() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.collected
}

// FakeRoots is a map of named root slots.
type FakeRoots struct {
	mu    sync.Mutex
	roots map[string]*object.Object
}

func NewFakeRoots() *FakeRoots { return &FakeRoots{roots: make(map[string]*object.Object)} }

func (r *FakeRoots) Set(name string, o *object.Object) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.roots[name] = o
}

func (r *FakeRoots) Get(name string) *object.Object {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.roots[name]
}

func (r *FakeRoots) Walk(visit RootVisitor) {
	r.mu.Lock()
	names := make([]string, 0, len(r.roots))
	for n := range r.roots {
		names = append(names, n)
	}
	r.mu.Unlock()

	for _, n := range names {
		r.mu.Lock()
		o := r.roots[n]
		r.mu.Unlock()
		visit(&o)
		r.mu.Lock()
		r.roots[n] = o
		r.mu.Unlock()
	}
}

// FakeCompilerBroker models a fixed pool of compiler worker IDs.
type FakeCompilerBroker struct {
	mu        sync.Mutex
	workers   []int
	locked    map[int]bool
	deopted   map[string]bool
	bailedOut bool
}

func NewFakeCompilerBroker(workerCount int) *FakeCompilerBroker {
	b := &FakeCompilerBroker{locked: make(map[int]bool), deopted: make(map[string]bool)}
	for i := 0; i < workerCount; i++ {
		b.workers = append(b.workers, i)
	}
	return b
}

func (b *FakeCompilerBroker) SignalBailout() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.bailedOut = true
}

func (b *FakeCompilerBroker) WorkerIDs() []int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]int(nil), b.workers...)
}

func (b *FakeCompilerBroker) LockWorker(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.locked[id] = true
}

func (b *FakeCompilerBroker) UnlockWorker(id int) {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.locked, id)
}

func (b *FakeCompilerBroker) MarkForDeopt(className string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.deopted[className] = true
}

func (b *FakeCompilerBroker) DeoptimizeStacks(className string) {
	// Stack-walking is modeled as a no-op here: there is no real
	// interpreter/JIT in this engine; the marking step above is the
	// observable, testable effect.
}

func (b *FakeCompilerBroker) AllLocked() bool {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.locked) == len(b.workers)
}

// FakeBreakpointTable records clears/transfers for assertions in tests.
type FakeBreakpointTable struct {
	mu        sync.Mutex
	cleared   []string
	transfers map[uint32]uint32
}

func NewFakeBreakpointTable() *FakeBreakpointTable {
	return &FakeBreakpointTable{transfers: make(map[uint32]uint32)}
}

func (t *FakeBreakpointTable) ClearAllInClass(className string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.cleared = append(t.cleared, className)
}

func (t *FakeBreakpointTable) Transfer(oldMethodID, newMethodID uint32) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.transfers[oldMethodID] = newMethodID
}

func (t *FakeBreakpointTable) TransferredTo(oldMethodID uint32) (uint32, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	v, ok := t.transfers[oldMethodID]
	return v, ok
}

// FakeNativeBindings carries agent-registered name prefixes for tests.
type FakeNativeBindings struct {
	Prefixes []string
}

func (n FakeNativeBindings) AgentPrefixes() []string { return n.Prefixes }

// FakeManagedThreads models a fixed pool of application thread IDs with
// per-thread lock bookkeeping for tests to assert against.
type FakeManagedThreads struct {
	mu     sync.Mutex
	ids    []int
	locked map[int]bool
	rolled map[int]bool
}

func NewFakeManagedThreads(n int) *FakeManagedThreads {
	t := &FakeManagedThreads{locked: make(map[int]bool), rolled: make(map[int]bool)}
	for i := 0; i < n; i++ {
		t.ids = append(t.ids, i)
	}
	return t
}

func (t *FakeManagedThreads) IDs() []int {
	t.mu.Lock()
	defer t.mu.Unlock()
	return append([]int(nil), t.ids...)
}

func (t *FakeManagedThreads) LockForRedefinition(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.locked[id] = true
}

func (t *FakeManagedThreads) UnlockForRedefinition(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.locked, id)
}

func (t *FakeManagedThreads) RollForwardToSafepoint(id int) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.rolled[id] = true
}

func (t *FakeManagedThreads) AllAtSafepoint() bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return len(t.rolled) == len(t.ids)
}
