/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package object implements the managed heap object model the
// HeapRewriter walks and mutates: live instances, their field slots, and
// the mark word that carries the identity hash.
package object

import (
	"sync"
	"unsafe"
)

// ClassRef is the minimal view an Object needs of its class: a stable
// name. classregistry.ClassVersion implements this; keeping the
// dependency as an interface means this package does not import
// classregistry.
type ClassRef interface {
	ClassName() string
}

// Mark is the object header's mark word. Only the identity-hash bit
// pattern is modeled here — the rest of a real mark word (lock state,
// GC age bits) belongs to the garbage collector proper and is out of
// scope for this engine.
type Mark struct {
	Hash uint32
}

// Field is one instance (or static) field slot. Fvalue holds either a Go
// scalar (for primitives) or an *Object / nil (for references).
type Field struct {
	Ftype  string // JVM-style descriptor, e.g. "I", "Ljava/lang/String;"
	Fvalue interface{}
}

// Object is one live heap instance. Identity (Mark.Hash) is computed once
// at allocation and must never change across a redefinition.
type Object struct {
	mu sync.Mutex

	Class ClassRef
	Mark  Mark

	// Fields holds the flattened field image in declaration order,
	// indexed by the owning ClassVersion's per-field offset. This is
	// the "byte image" 's UpdateProgram rewrites -
	// modeled as a slice of typed slots rather than raw bytes, since
	// this engine does not lay out real machine memory.
	Fields []Field

	// Generation models GC generation placement: zero means "young",
	// nonzero simulates tenured/old-generation placement, which sends
	// the heap rewriter down its needs-instance-migration branch.
	Generation int
}

// New allocates an object of the given class with the given initial
// fields, assigning its identity hash from its own address via
// unsafe.Pointer(&obj).
func New(class ClassRef, fields []Field) *Object {
	o := &Object{Class: class, Fields: fields}
	o.Mark.Hash = uint32(uintptr(unsafe.Pointer(o)))
	return o
}

// Lock/Unlock give callers a per-object critical section. The heap
// rewriter runs under the safepoint and does not take them.
func (o *Object) Lock()   { o.mu.Lock() }
func (o *Object) Unlock() { o.mu.Unlock() }

// SetClass rewrites the object's class pointer. This is the single
// mutation point the heap rewriter uses to forward an instance from an
// old ClassVersion to its new one — kept as one method so every call
// site is easy to audit for "exactly once" rewriting.
func (o *Object) SetClass(c ClassRef) {
	o.Class = c
}

// IsInstanceOf reports whether the object's class currently matches name.
func (o *Object) IsInstanceOf(name string) bool {
	return o.Class != nil && o.Class.ClassName() == name
}

// Raw returns a byte-oriented view of the object's fields for the
// FieldMigrationPlanner's copy/zero-fill program to operate on. Offsets
// are logical (index into this slice), not physical byte offsets, since
// this engine models instances as typed slots rather than raw memory —
// the update program's semantics (copy-from-offset, zero-fill,
// copies-backwards) are preserved at slot granularity.
func (o *Object) Raw() []Field { return o.Fields }

// SetRaw replaces the field image wholesale — used after an update
// program has been applied into a freshly sized slice.
func (o *Object) SetRaw(fields []Field) { o.Fields = fields }

// FillerField is the object returned for the zero-fill tail when a new
// instance shrinks; it keeps the heap parseable by carrying an explicit
// marker rather than leaving a dangling slot.
var FillerField = Field{Ftype: "filler"}
