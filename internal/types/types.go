/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package types holds the small value types and sentinel constants shared
// across the redefinition engine: field descriptor kinds, sentinel indices
// into the symbol table, and revision numbering.
package types

// InvalidStringIndex marks a symbol-table index that was never resolved.
const InvalidStringIndex uint32 = 0xFFFFFFFF

// ObjectPoolStringIndex is the well-known symbol-table index of
// "java/lang/Object" (or this runtime's equivalent universal root type),
// used to detect the top of a primary-super chain.
const ObjectPoolStringIndex uint32 = 1

// RefArray and Array are the class-reference prefixes used to recognize
// (and skip) array-class references when walking declared supertypes.
const (
	RefArray = "[L"
	Array    = "["
)

// FieldKind is the JVM-style single-letter field descriptor kind. It
// determines the zero value and byte width used by the field-migration
// planner and the heap rewriter.
type FieldKind byte

const (
	KindByte      FieldKind = 'B'
	KindChar      FieldKind = 'C'
	KindDouble    FieldKind = 'D'
	KindFloat     FieldKind = 'F'
	KindInt       FieldKind = 'I'
	KindLong      FieldKind = 'J'
	KindReference FieldKind = 'L'
	KindShort     FieldKind = 'S'
	KindBoolean   FieldKind = 'Z'
	KindArray     FieldKind = '['
)

// Size returns the width this field kind occupies in an instance's
// flattened field image, used by the FieldMigrationPlanner to
// size copy/zero-fill runs and by object.Object's field slots to index
// that image. This engine models an instance's field image as a slice
// of typed slots (object.Field) rather than raw machine bytes, so every
// kind occupies exactly one slot regardless of its real JVM width.
func (k FieldKind) Size() int { return 1 }

// IsReference reports whether values of this kind are heap references that
// the heap rewriter's rewrite closure must visit.
func (k FieldKind) IsReference() bool {
	return k == KindReference || k == KindArray
}

// ParseFieldKind extracts the leading descriptor character from a field
// signature such as "I", "Ljava/lang/String;" or "[I".
func ParseFieldKind(descriptor string) FieldKind {
	if descriptor == "" {
		return 0
	}
	return FieldKind(descriptor[0])
}

// Revision is a process-wide monotonically increasing counter tagging
// every new ClassVersion. It is diagnostic only and is never used to
// order transactions.
type Revision int64

// NoRevision is the initial value before any transaction has run.
const NoRevision Revision = -1
