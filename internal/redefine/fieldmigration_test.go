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
)

func TestFieldMigrationPlanner_UnchangedLayoutIsSingleInPlaceCopy(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)

	prog := FieldMigrationPlanner{}.Plan(old, new)
	if prog.CopiesBackwards || len(prog.Steps) != 1 || prog.Steps[0].Kind != classregistry.StepCopy || prog.Steps[0].Len != 2 || prog.Steps[0].From != 0 {
		t.Fatalf("unchanged field layout: got %+v, want a single forward copy of both fields from offset 0", prog)
	}
}

func TestFieldMigrationPlanner_AppendedFieldCopiesThenZeros(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Fields = append(new.Fields, classregistry.FieldDecl{Name: "z", Descriptor: "I", Offset: 2})

	prog := FieldMigrationPlanner{}.Plan(old, new)
	require.False(t, prog.CopiesBackwards, "a purely appended field never needs a backwards copy")

	if len(prog.Steps) != 2 {
		t.Fatalf("got %d steps, want 2 (copy x+y, zero-fill z)", len(prog.Steps))
	}
	if prog.Steps[0].Kind != classregistry.StepCopy || prog.Steps[0].Len != 2 || prog.Steps[0].From != 0 {
		t.Fatalf("first step = %+v, want a copy of both existing fields from offset 0", prog.Steps[0])
	}
	if prog.Steps[1].Kind != classregistry.StepZero || prog.Steps[1].Len != 1 {
		t.Fatalf("second step = %+v, want a 1-slot zero-fill for the new field", prog.Steps[1])
	}
}

func TestFieldMigrationPlanner_RemovedFieldDropsItsCopy(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Fields = new.Fields[:1]

	prog := FieldMigrationPlanner{}.Plan(old, new)
	if len(prog.Steps) != 1 || prog.Steps[0].Kind != classregistry.StepCopy || prog.Steps[0].Len != 1 {
		t.Fatalf("got steps %+v, want a single 1-slot copy of the surviving field", prog.Steps)
	}
}

func TestFieldMigrationPlanner_ReorderedFieldCopiesBackwards(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Fields = []classregistry.FieldDecl{
		{Name: "y", Descriptor: "I", Offset: 0},
		{Name: "x", Descriptor: "I", Offset: 1},
	}

	prog := FieldMigrationPlanner{}.Plan(old, new)
	if !prog.CopiesBackwards {
		t.Fatal("swapped field order: expected CopiesBackwards to be set")
	}
}

func TestFieldMigrationPlanner_Execute(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Fields = append(new.Fields, classregistry.FieldDecl{Name: "z", Descriptor: "I", Offset: 2})

	prog := FieldMigrationPlanner{}.Plan(old, new)
	src := []any{10, 20}
	dst := prog.Execute(src, 3)

	if dst[0] != 10 || dst[1] != 20 {
		t.Fatalf("got %v, want existing values copied through unchanged", dst)
	}
	if dst[2] != nil {
		t.Fatalf("got %v for the appended field, want nil (zero-filled)", dst[2])
	}
}
