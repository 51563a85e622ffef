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
)

func TestAffectedSetBuilder_IncludesSubtypesSupertypesFirst(t *testing.T) {
	registry := buildHierarchy(t)

	defs := []ClassDef{{ClassName: "A", Bytes: []byte(`irrelevant-for-this-test`)}}

	// edgesOf reads B's edge straight from the registry (no def supplied
	// for B) and A's from the registry too, since the def's bytes here
	// aren't a real ClassSpec.
	edgesOf := func(name string) []string {
		if cv, ok := registry.Lookup(name); ok {
			edges := append([]string(nil), cv.Interfaces...)
			if cv.SuperclassName != "" {
				edges = append(edges, cv.SuperclassName)
			}
			return edges
		}
		return nil
	}

	builder := &AffectedSetBuilder{Registry: registry}
	affected, err := builder.Build(defs, edgesOf)
	require.Nil(t, err)

	if len(affected) != 2 {
		t.Fatalf("got %d affected classes, want 2 (A and B)", len(affected))
	}
	if affected[0].Name != "A" || affected[1].Name != "B" {
		t.Fatalf("got order %s,%s, want A before B (supertypes first)", affected[0].Name, affected[1].Name)
	}
}

func TestAffectedSetBuilder_RejectsUnloadedClass(t *testing.T) {
	registry := buildHierarchy(t)
	builder := &AffectedSetBuilder{Registry: registry}

	_, err := builder.Build([]ClassDef{{ClassName: "Ghost"}}, func(string) []string { return nil })
	if err == nil {
		t.Fatal("redefining an unloaded class: expected rejection, got nil error")
	}
	if err.Code != errs.INVALID_CLASS {
		t.Fatalf("got code %s, want INVALID_CLASS", err.Code)
	}
}

func TestAffectedSetBuilder_RejectsCircularHierarchy(t *testing.T) {
	registry := buildHierarchy(t)
	defs := []ClassDef{{ClassName: "A"}, {ClassName: "B"}}

	// A cycle that doesn't exist in the registry itself, manufactured
	// purely at the edgesOf level to exercise the sort's own cycle check.
	edgesOf := func(name string) []string {
		switch name {
		case "A":
			return []string{"B"}
		case "B":
			return []string{"A"}
		}
		return nil
	}

	builder := &AffectedSetBuilder{Registry: registry}
	_, err := builder.Build(defs, edgesOf)
	if err == nil {
		t.Fatal("circular declared hierarchy: expected rejection, got nil error")
	}
	if err.Code != errs.CIRCULAR_CLASS_DEFINITION {
		t.Fatalf("got code %s, want CIRCULAR_CLASS_DEFINITION", err.Code)
	}
}

func TestAffectedSetBuilder_RejectsUnmodifiableClass(t *testing.T) {
	registry := buildHierarchy(t)
	registry.Load(&classregistry.ClassVersion{Name: "int[]", IsArray: true})

	builder := &AffectedSetBuilder{Registry: registry}
	_, err := builder.Build([]ClassDef{{ClassName: "int[]"}}, func(string) []string { return nil })
	if err == nil {
		t.Fatal("redefining an array class: expected rejection, got nil error")
	}
	if err.Code != errs.INVALID_CLASS {
		t.Fatalf("got code %s, want INVALID_CLASS", err.Code)
	}
}
