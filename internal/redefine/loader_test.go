/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/errs"
	"github.com/dcevm/dcevm/internal/runtimehost"
	"github.com/dcevm/dcevm/internal/symboltable"
)

// buildHierarchy seeds a registry with Object <- A <- B, where A declares
// field "x" and B declares its own field "w" (in addition to inheriting
// from A), and returns the registry.
func buildHierarchy(t *testing.T) *classregistry.Registry {
	t.Helper()
	symbols := symboltable.New()
	registry := classregistry.NewRegistry(symbols, 0)

	registry.Load(&classregistry.ClassVersion{Name: "Object", Init: classregistry.StateFullyInitialized})

	a := runtimehost.ClassSpec{
		Name:  "A",
		Super: "Object",
		Fields: []runtimehost.FieldSpec{
			{Name: "x", Descriptor: "I"},
		},
		Methods: []runtimehost.MethodSpec{{Name: "<init>", Descriptor: "()V"}},
	}.ToClassVersion()
	registry.Load(a)

	b := runtimehost.ClassSpec{
		Name:  "B",
		Super: "A",
		Fields: []runtimehost.FieldSpec{
			{Name: "w", Descriptor: "I"},
		},
		Methods: []runtimehost.MethodSpec{{Name: "<init>", Descriptor: "()V"}},
	}.ToClassVersion()
	registry.Load(b)

	return registry
}

func reconstituteFromRegistry(registry *classregistry.Registry) func(string) ([]byte, *errs.Error) {
	return func(name string) ([]byte, *errs.Error) {
		cv, ok := registry.Lookup(name)
		if !ok {
			return nil, errs.New(component, errs.INVALID_CLASS, "no such class: "+name)
		}
		return runtimehost.FromClassVersion(cv).Marshal(), nil
	}
}

// TestLoad_SubclassInheritsAncestorInstanceModification covers the case
// where only A is redefined (a field added) but B, declaring no change of
// its own, must still end up with ModifyInstances set (propagated from A)
// and a non-nil update program planned from that final, propagated flag
// rather than from B's own pre-propagation analysis.
func TestLoad_SubclassInheritsAncestorInstanceModification(t *testing.T) {
	registry := buildHierarchy(t)

	newA := runtimehost.ClassSpec{
		Name:  "A",
		Super: "Object",
		Fields: []runtimehost.FieldSpec{
			{Name: "x", Descriptor: "I"},
			{Name: "y", Descriptor: "I"},
		},
		Methods: []runtimehost.MethodSpec{{Name: "<init>", Descriptor: "()V"}},
	}.Marshal()

	defs := []ClassDef{{ClassName: "A", Bytes: newA}}
	defByName := map[string]*ClassDef{"A": &defs[0]}

	builder := &AffectedSetBuilder{Registry: registry}
	affected, err := builder.Build(defs, parseForEdges(registry, defByName))
	require.Nil(t, err, "building the affected set for a 2-level hierarchy must not fail")
	if len(affected) != 2 {
		t.Fatalf("got %d affected classes, want 2 (A and B)", len(affected))
	}

	loader := &NewVersionLoader{
		Registry: registry,
		Loader:   runtimehost.FakeClassLoader{},
		Verifier: runtimehost.FakeVerifier{},
		Analyzer: ChangeAnalyzer{AllowAdvancedClassRedefinition: true},
		Planner:  FieldMigrationPlanner{},
	}

	pairs, lerr := loader.Load(affected, defByName, reconstituteFromRegistry(registry))
	require.Nil(t, lerr, "loading the affected set must not fail")

	var bPair *LoadedPair
	for i := range pairs {
		if pairs[i].New.Name == "B" {
			bPair = &pairs[i]
		}
	}
	if bPair == nil {
		t.Fatal("no pair produced for B")
	}

	if !bPair.New.Flags.Has(classregistry.ModifyInstances) {
		t.Fatalf("B flags = %s, want ModifyInstances propagated from A", bPair.New.Flags)
	}
	if bPair.New.UpdateProgram == nil {
		t.Fatal("B.UpdateProgram is nil: update program must be planned from flags propagated after the supertype pass, not only from B's own pre-propagation analysis")
	}
	if bPair.New.UpdateProgram.IsIdentity() {
		t.Fatal("B.UpdateProgram has no steps even though B declares its own instance field")
	}
}

func TestLoad_IdempotentResubmissionYieldsNoUpdateProgram(t *testing.T) {
	registry := buildHierarchy(t)

	sameA := runtimehost.FromClassVersion(mustLookup(t, registry, "A")).Marshal()
	defs := []ClassDef{{ClassName: "A", Bytes: sameA}}
	defByName := map[string]*ClassDef{"A": &defs[0]}

	builder := &AffectedSetBuilder{Registry: registry}
	affected, err := builder.Build(defs, parseForEdges(registry, defByName))
	require.Nil(t, err)

	loader := &NewVersionLoader{
		Registry: registry,
		Loader:   runtimehost.FakeClassLoader{},
		Verifier: runtimehost.FakeVerifier{},
		Analyzer: ChangeAnalyzer{AllowAdvancedClassRedefinition: false},
		Planner:  FieldMigrationPlanner{},
	}

	pairs, lerr := loader.Load(affected, defByName, reconstituteFromRegistry(registry))
	require.Nil(t, lerr)

	for _, p := range pairs {
		if p.New.Flags != classregistry.NoRedefinition {
			t.Fatalf("class %s: flags = %s, want NoRedefinition when resubmitted unchanged", p.New.Name, p.New.Flags)
		}
		if p.New.UpdateProgram != nil {
			t.Fatalf("class %s: UpdateProgram built despite NoRedefinition", p.New.Name)
		}
	}
}

func mustLookup(t *testing.T, registry *classregistry.Registry, name string) *classregistry.ClassVersion {
	t.Helper()
	cv, ok := registry.Lookup(name)
	if !ok {
		t.Fatalf("class %s not loaded", name)
	}
	return cv
}
