/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package classregistry implements the ClassVersion / VersionChain data
// model and the class registry that owns the newest version of every
// loaded class.
package classregistry

import (
	"sort"

	"github.com/dcevm/dcevm/internal/types"
)

// InitState is the class-linking lifecycle a ClassVersion passes
// through between being allocated and fully initialized.
type InitState int

const (
	StateAllocated InitState = iota
	StateLoaded
	StateLinked
	StateBeingInitialized
	StateFullyInitialized
	StateError
)

// FieldDecl is one field declared directly on a class (static or
// instance), carrying the instance-layout offset the
// FieldMigrationPlanner and HeapRewriter rely on.
type FieldDecl struct {
	Name        string
	Descriptor  string
	Offset      int // logical slot offset within the instance's field image
	Static      bool
	AccessFlags int
	ConstValue  interface{}

	// WatchedAccess carries forward any field-watch/access-tracking bit
	// set by a debugger agent.
	WatchedAccess bool
}

// Kind returns the field's JVM-style descriptor kind.
func (f FieldDecl) Kind() types.FieldKind { return types.ParseFieldKind(f.Descriptor) }

// Size returns the width FieldMigrationPlanner uses for copy/zero runs.
func (f FieldDecl) Size() int { return f.Kind().Size() }

// signature uniquely identifies a field within a class for matching by
// name and descriptor.
func (f FieldDecl) signature() string { return f.Name + "\x00" + f.Descriptor }

// MethodDecl is one method (including constructors and <clinit>).
type MethodDecl struct {
	Name        string
	Descriptor  string
	AccessFlags int
	Bytecode    []byte // used only to detect EMCP (identical modulo CP indices)
	Annotations []byte // opaque; the MethodMatcher neither compares nor swaps it

	// ID is this method's identity number, reissued by the
	// MethodMatcher.
	ID uint32

	// Old/Obsolete/EMCP are set on the *old* class's method list once a
	// redefinition commits.
	Old      bool
	Obsolete bool
	EMCP     bool

	// Native method binding state, transferred by NativeBindingTransfer.
	Native         bool
	NativePrefixed bool
	NativeFuncPtr  uintptr
}

// Signature identifies a method for matching purposes: name+descriptor,
// independent of access flags (so access-flag-only changes still match).
func (m MethodDecl) Signature() string { return m.Name + m.Descriptor }

func (m MethodDecl) IsPrivate() bool { return m.AccessFlags&AccPrivate != 0 }

// IsFinalOrStatic reports the "final|static" half of compatibility
// mode's added/deleted method rule.
func (m MethodDecl) IsFinalOrStatic() bool {
	return m.AccessFlags&(AccFinal|AccStatic) != 0
}

// modifiersEqualIgnoringNative compares two methods' access flags,
// ignoring the native bit.
func modifiersEqualIgnoringNative(a, b MethodDecl) bool {
	return a.AccessFlags&nonNativeModifierMask == b.AccessFlags&nonNativeModifierMask
}

// ClassVersion describes one loaded definition of a class.
type ClassVersion struct {
	Name            string
	NameIndex       uint32
	Loader          string
	SuperclassName  string
	SuperclassIndex uint32
	Interfaces      []string
	Fields          []FieldDecl
	Methods         []MethodDecl

	InstanceSize int // total instance footprint: sum of non-static field sizes (no header is modeled)
	ClassSize    int // class-object (mirror) byte footprint
	AccessFlags  int
	Init         InitState

	IsArray     bool
	IsPrimitive bool

	// Mirror is the first-class object exposed to user code for this
	// version (an *object.Object in practice); kept as `any` so this
	// package has no import-cycle dependency on the object package,
	// which in turn references ClassVersion through the ClassRef
	// interface for an instance's own class pointer.
	Mirror any

	CP *ConstantPool

	// Version-chain pointers. Exactly one
	// per chain has NewVersion == nil (the newest); exactly one has
	// OldVersion == nil (the oldest).
	OldVersion *ClassVersion
	NewVersion *ClassVersion

	// Redefining marks the single ClassVersion per chain mid-transaction;
	// cleared by HeapRewriter's Finalize step or by Rollback.
	Redefining bool

	Revision types.Revision
	Flags    RedefinitionFlags

	// UpdateProgram is non-nil only when ModifyInstances is set, whether
	// by this class's own analysis or propagated from a supertype; the
	// planner then runs even if this class's own field layout is
	// unchanged.
	UpdateProgram *UpdateProgram

	// RedefinedCount is incremented on commit and propagated to
	// subclasses, tracking how many times this chain has been
	// redefined across its lifetime.
	RedefinedCount int
}

// ClassName implements object.ClassRef so *Object.Class can point
// directly at a ClassVersion.
func (c *ClassVersion) ClassName() string { return c.Name }

// Modifiable reports whether this class may be the target of a
// redefinition: primitive and array classes cannot be redefined
// directly.
func (c *ClassVersion) Modifiable() bool {
	return c != nil && !c.IsPrimitive && !c.IsArray
}

// Newest walks the chain forward to the newest version.
func (c *ClassVersion) Newest() *ClassVersion {
	cv := c
	for cv.NewVersion != nil {
		cv = cv.NewVersion
	}
	return cv
}

// Oldest walks the chain backward to the oldest version.
func (c *ClassVersion) Oldest() *ClassVersion {
	cv := c
	for cv.OldVersion != nil {
		cv = cv.OldVersion
	}
	return cv
}

// FieldByNameAndDescriptor finds a field matching exactly on name and
// descriptor, the lookup the field-migration planner performs when
// matching one field against its predecessor.
func (c *ClassVersion) FieldByNameAndDescriptor(name, descriptor string) (FieldDecl, bool) {
	want := FieldDecl{Name: name, Descriptor: descriptor}.signature()
	for _, f := range c.Fields {
		if f.signature() == want {
			return f, true
		}
	}
	return FieldDecl{}, false
}

// InstanceFields returns non-static fields in ascending offset order,
// which FieldMigrationPlanner requires as its traversal order.
func (c *ClassVersion) InstanceFields() []FieldDecl {
	out := make([]FieldDecl, 0, len(c.Fields))
	for _, f := range c.Fields {
		if !f.Static {
			out = append(out, f)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].Offset < out[j].Offset })
	return out
}
