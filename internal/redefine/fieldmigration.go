/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import "github.com/dcevm/dcevm/internal/classregistry"

// FieldMigrationPlanner builds the UpdateProgram describing how to
// rewrite an old instance's byte image into the new layout.
type FieldMigrationPlanner struct{}

// Plan walks new's non-static fields in offset order, emitting a copy
// run for each field matched by name+descriptor in old and a zero-fill
// run for gaps and unmatched fields.
func (FieldMigrationPlanner) Plan(old, new *classregistry.ClassVersion) *classregistry.UpdateProgram {
	newFields := new.InstanceFields()
	prog := &classregistry.UpdateProgram{}

	cursor := 0
	for _, nf := range newFields {
		if nf.Offset > cursor {
			appendZero(prog, nf.Offset-cursor)
			cursor = nf.Offset
		}

		size := nf.Size()
		if of, ok := old.FieldByNameAndDescriptor(nf.Name, nf.Descriptor); ok && !of.Static {
			appendCopy(prog, size, of.Offset)
			if of.Offset < nf.Offset {
				prog.CopiesBackwards = true
			}
		} else {
			appendZero(prog, size)
		}
		cursor += size
	}

	return prog
}

// appendCopy appends a copy step, merging with the previous step when
// it is also a copy whose source+len is contiguous with this one
//.
func appendCopy(prog *classregistry.UpdateProgram, length, from int) {
	if n := len(prog.Steps); n > 0 {
		last := &prog.Steps[n-1]
		if last.Kind == classregistry.StepCopy && last.From+last.Len == from {
			last.Len += length
			return
		}
	}
	prog.Steps = append(prog.Steps, classregistry.Step{Kind: classregistry.StepCopy, Len: length, From: from})
}

func appendZero(prog *classregistry.UpdateProgram, length int) {
	if n := len(prog.Steps); n > 0 {
		last := &prog.Steps[n-1]
		if last.Kind == classregistry.StepZero {
			last.Len += length
			return
		}
	}
	prog.Steps = append(prog.Steps, classregistry.Step{Kind: classregistry.StepZero, Len: length})
}
