/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package heaprewriter implements the commit-phase heart of a
// redefinition transaction: rewriting every root and heap reference from
// an old class version to its newest, migrating instance field images,
// and swapping per-class bookkeeping. Generalized from "a class pointer
// never changes" to "a class pointer the walk may need to retarget
// mid-flight".
package heaprewriter

import (
	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/object"
	"github.com/dcevm/dcevm/internal/runtimehost"
	"github.com/dcevm/dcevm/internal/trace"
)

const component = "heaprewriter"

// Pair is one redefined class's old and newly installed version.
type Pair struct {
	Old *classregistry.ClassVersion
	New *classregistry.ClassVersion
}

// Rewriter performs the root rewrite, heap walk, and per-class swap
// steps of a redefinition commit, invoked once per transaction under the
// safepoint.
type Rewriter struct {
	Roots runtimehost.Roots
	Heap  runtimehost.Heap
}

// Result summarizes what the rewrite observed, for the CommitController
// to decide whether a full GC is required (step 4).
type Result struct {
	NeedsInstanceMigration bool
	RewrittenRoots         int
	RewrittenInstances     int
	MigratedInstances      int
}

// Run executes the root-rewrite, heap-walk, and bookkeeping-swap steps
// for the given redefined pairs.
// Step 4 (triggering the full GC) and step 5 (clearing the redefining
// marker) are the caller's responsibility — the former needs a registry
// callback the walk itself has no business owning, the latter runs only
// once the whole transaction, including any GC, has succeeded.
func (rw *Rewriter) Run(pairs []Pair) Result {
	byOldName := make(map[string]Pair, len(pairs))
	for _, p := range pairs {
		byOldName[p.Old.Name] = p
	}

	var result Result

	// Step 1: root rewrite.
	rw.Roots.Walk(func(slot **object.Object) {
		o := *slot
		if o == nil {
			return
		}
		if rewriteClassPointer(o, byOldName) {
			result.RewrittenRoots++
		}
	})

	// Step 2: heap walk.
	rw.Heap.IterateObjects(func(o *object.Object) {
		cvRef, ok := o.Class.(*classregistry.ClassVersion)
		if !ok || cvRef.NewVersion == nil {
			return
		}
		pair, tracked := byOldName[cvRef.Name]
		if !tracked {
			return
		}

		if o.Generation > 0 || instanceGrows(pair) {
			result.NeedsInstanceMigration = true
			return
		}

		if prog := pair.New.UpdateProgram; prog != nil && !prog.IsIdentity() {
			migrateInstance(o, pair.New, prog)
			result.MigratedInstances++
		} else {
			o.SetClass(pair.New)
		}
		result.RewrittenInstances++
	})

	// Step 3: per-class swap.
	for _, p := range pairs {
		swapClassBookkeeping(p)
	}

	trace.RC(2, component, "heap rewrite complete",
		"roots", result.RewrittenRoots, "instances", result.RewrittenInstances,
		"migrated", result.MigratedInstances, "needs_gc", result.NeedsInstanceMigration)
	return result
}

// Finalize implements step 5: clear the redefining marker on each new
// version and drop its update program, once the transaction (including
// any triggered GC) has fully committed.
func Finalize(pairs []Pair, registry *classregistry.Registry) {
	for _, p := range pairs {
		registry.CommitNewVersion(p.New)
		p.New.UpdateProgram = nil
	}
}

func instanceGrows(p Pair) bool {
	return p.New.InstanceSize > p.Old.InstanceSize
}

// rewriteClassPointer covers the two cases a live class pointer can fall
// into: a class object whose version was redefined, and a class mirror,
// both retargeted to
// the newest version (mirrors are modeled as the ClassVersion's own
// Mirror field, so both cases collapse to "this object's Class is one
// of our old versions").
func rewriteClassPointer(o *object.Object, byOldName map[string]Pair) bool {
	cvRef, ok := o.Class.(*classregistry.ClassVersion)
	if !ok {
		return false
	}
	if pair, tracked := byOldName[cvRef.Name]; tracked && cvRef == pair.Old {
		o.SetClass(pair.New)
		return true
	}
	return false
}

// migrateInstance executes the update program against o's current field
// image, copying into a scratch buffer first when CopiesBackwards is
// set, and fills any tail gap with filler fields.
func migrateInstance(o *object.Object, newVersion *classregistry.ClassVersion, prog *classregistry.UpdateProgram) {
	src := fieldsToAny(o.Raw())
	if prog.CopiesBackwards {
		src = append([]any(nil), src...)
	}

	dstLen := len(newVersion.InstanceFields())
	migrated := prog.Execute(src, dstLen)

	newFields := newVersion.InstanceFields()
	out := make([]object.Field, dstLen)
	for i, fd := range newFields {
		out[i] = object.Field{Ftype: fd.Descriptor, Fvalue: migrated[i]}
	}
	for len(out) < len(src) {
		out = append(out, object.FillerField)
	}

	o.SetRaw(out)
	o.SetClass(newVersion)
}

func fieldsToAny(fields []object.Field) []any {
	out := make([]any, len(fields))
	for i, f := range fields {
		out[i] = f.Fvalue
	}
	return out
}

// swapClassBookkeeping swaps mark words, restores the old constant-pool
// holder, copies static fields by name+descriptor, and carries over a
// sufficiently advanced init state. Array-class references are not
// modeled on ClassVersion and are not transferred.
func swapClassBookkeeping(p Pair) {
	if oldMirror, ok := p.Old.Mirror.(*object.Object); ok {
		if newMirror, ok := p.New.Mirror.(*object.Object); ok {
			oldMirror.Mark, newMirror.Mark = newMirror.Mark, oldMirror.Mark
		}
	}

	if p.Old.CP != nil {
		p.Old.CP.RewriteToNewest()
		p.Old.CP.Holder = p.Old
	}
	if p.New.CP != nil {
		p.New.CP.Holder = p.New
	}

	copyStaticFields(p.Old, p.New)

	if p.Old.Init >= classregistry.StateLinked {
		p.New.Init = p.Old.Init
	}
}

func copyStaticFields(old, new *classregistry.ClassVersion) {
	for i := range new.Fields {
		nf := &new.Fields[i]
		if !nf.Static {
			continue
		}
		if of, ok := old.FieldByNameAndDescriptor(nf.Name, nf.Descriptor); ok && of.Static {
			nf.ConstValue = of.ConstValue
		}
	}
}
