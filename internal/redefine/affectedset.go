/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package redefine implements the class-redefinition pipeline: the
// AffectedSetBuilder, NewVersionLoader, ChangeAnalyzer,
// FieldMigrationPlanner, MethodMatcher, NativeBindingTransfer,
// CommitController and Rollback. Grounded on a class loader's
// load/link/verify pipeline, generalized from "load one class" to
// "redefine a dependency-ordered set of classes".
package redefine

import (
	"sort"

	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/errs"
	"github.com/dcevm/dcevm/internal/trace"
)

const component = "redefine"

// ClassDef is one user-supplied redefinition request: a class reference
// paired with its (possibly empty, meaning "reconstitute") new bytes.
type ClassDef struct {
	ClassName string
	Bytes     []byte
}

// AffectedSetBuilder discovers every loaded class transitively affected
// by a redefinition request and returns them topologically sorted,
// supertypes first.
type AffectedSetBuilder struct {
	Registry *classregistry.Registry
}

// Build runs the three-step algorithm: mark directly-redefined classes,
// walk the registry marking subtypes, then Kahn-sort the affected set.
// edgesOf supplies each affected class's declared-supertype edges (read
// from new bytes for directly redefined classes, from the current
// ClassVersion for everyone else) — see loader.go's parseForEdges.
func (b *AffectedSetBuilder) Build(defs []ClassDef, edgesOf func(className string) []string) ([]*classregistry.ClassVersion, *errs.Error) {
	t := trace.NewTimer("AffectedSetBuilder.Build")
	t.Start()
	defer t.Stop()

	affected := make(map[string]*classregistry.ClassVersion)
	var order []string

	for _, d := range defs {
		cv, ok := b.Registry.Lookup(d.ClassName)
		if !ok {
			trace.RC(1, component, "affected-set: class not loaded", "class", d.ClassName)
			return nil, errs.New(component, errs.INVALID_CLASS, "class not loaded: "+d.ClassName)
		}
		if !cv.Modifiable() {
			return nil, errs.New(component, errs.INVALID_CLASS, "class not modifiable: "+d.ClassName)
		}
		if _, seen := affected[d.ClassName]; !seen {
			affected[d.ClassName] = cv
			order = append(order, d.ClassName)
		}
	}

	all := b.Registry.All()
	changed := true
	for changed {
		changed = false
		for _, cv := range all {
			if _, ok := affected[cv.Name]; ok {
				continue
			}
			for _, anc := range b.Registry.Ancestors(cv) {
				if _, ok := affected[anc]; ok {
					affected[cv.Name] = cv
					order = append(order, cv.Name)
					changed = true
					break
				}
			}
		}
	}

	sorted, err := topoSort(order, edgesOf)
	if err != nil {
		return nil, err
	}

	out := make([]*classregistry.ClassVersion, 0, len(sorted))
	for _, name := range sorted {
		out = append(out, affected[name])
	}
	trace.RC(2, component, "affected set built", "count", len(out))
	return out, nil
}

// topoSort performs a Kahn-style sort of names using the edges edgesOf
// reports ("A must come before B" whenever A is B's declared supertype),
// failing with CIRCULAR_CLASS_DEFINITION if no ordering exists.
func topoSort(names []string, edgesOf func(string) []string) ([]string, *errs.Error) {
	inSet := make(map[string]bool, len(names))
	for _, n := range names {
		inSet[n] = true
	}

	// indegree[B] counts edges A->B for A,B both in the affected set.
	indegree := make(map[string]int, len(names))
	// dependents[A] lists B such that A must precede B.
	dependents := make(map[string][]string)
	for _, n := range names {
		indegree[n] = 0
	}
	for _, n := range names {
		for _, sup := range edgesOf(n) {
			if inSet[sup] {
				dependents[sup] = append(dependents[sup], n)
				indegree[n]++
			}
		}
	}

	// Deterministic starting order: stable sort by name, independent of
	// map iteration order.
	remaining := append([]string(nil), names...)
	sort.Strings(remaining)

	var out []string
	for len(remaining) > 0 {
		idx := -1
		for i, n := range remaining {
			if indegree[n] == 0 {
				idx = i
				break
			}
		}
		if idx == -1 {
			return nil, errs.New(component, errs.CIRCULAR_CLASS_DEFINITION, "circular class hierarchy among redefined classes")
		}
		n := remaining[idx]
		remaining = append(remaining[:idx], remaining[idx+1:]...)
		out = append(out, n)
		for _, dep := range dependents[n] {
			indegree[dep]--
		}
	}
	return out, nil
}
