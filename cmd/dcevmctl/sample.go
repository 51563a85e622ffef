/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package main

import (
	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/object"
	"github.com/dcevm/dcevm/internal/runtimehost"
	"github.com/dcevm/dcevm/internal/symboltable"
)

// sampleRuntime bundles everything CommitController needs, all backed by
// the runtimehost fakes, plus a handful of live instances to demonstrate
// instance migration.
type sampleRuntime struct {
	Registry    *classregistry.Registry
	Heap        *runtimehost.FakeHeap
	Roots       *runtimehost.FakeRoots
	Compiler    *runtimehost.FakeCompilerBroker
	Breakpoints *runtimehost.FakeBreakpointTable
	Threads     *runtimehost.FakeManagedThreads
	Bindings    runtimehost.FakeNativeBindings
	Loader      runtimehost.FakeClassLoader
	Verifier    runtimehost.FakeVerifier
}

// newSampleRuntime seeds a registry with "sample.Point", with fields x
// and y, and its superclass "sample.Object", and puts two live
// instances of sample.Point on the heap.
func newSampleRuntime() *sampleRuntime {
	symbols := symboltable.New()
	registry := classregistry.NewRegistry(symbols, 0)

	spec := runtimehost.ClassSpec{
		Name:  "sample.Point",
		Super: "sample.Object",
		Fields: []runtimehost.FieldSpec{
			{Name: "x", Descriptor: "I"},
			{Name: "y", Descriptor: "I"},
		},
		Methods: []runtimehost.MethodSpec{
			{Name: "<init>", Descriptor: "()V"},
			{Name: "magnitude", Descriptor: "()I"},
		},
	}
	cv := spec.ToClassVersion()
	registry.Load(cv)

	root := classregistry.ClassVersion{Name: "sample.Object", Init: classregistry.StateFullyInitialized}
	registry.Load(&root)

	heap := runtimehost.NewFakeHeap()
	roots := runtimehost.NewFakeRoots()

	p1 := object.New(cv, []object.Field{{Ftype: "I", Fvalue: int32(3)}, {Ftype: "I", Fvalue: int32(4)}})
	p2 := object.New(cv, []object.Field{{Ftype: "I", Fvalue: int32(10)}, {Ftype: "I", Fvalue: int32(20)}})
	heap.Add(p1)
	heap.Add(p2)
	roots.Set("origin", p1)

	return &sampleRuntime{
		Registry:    registry,
		Heap:        heap,
		Roots:       roots,
		Compiler:    runtimehost.NewFakeCompilerBroker(4),
		Breakpoints: runtimehost.NewFakeBreakpointTable(),
		Threads:     runtimehost.NewFakeManagedThreads(4),
		Bindings:    runtimehost.FakeNativeBindings{},
	}
}
