/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classregistry

// StepKind distinguishes the two instruction kinds an UpdateProgram step
// can carry.
type StepKind int

const (
	StepCopy StepKind = iota
	StepZero
)

// Step is one instruction in an UpdateProgram: either "copy Len bytes
// from source offset From" (StepCopy) or "zero-fill Len bytes"
// (StepZero).
type Step struct {
	Kind StepKind
	Len  int
	From int // only meaningful when Kind == StepCopy
}

// UpdateProgram is the compact per-class plan the FieldMigrationPlanner
// builds for migrating one old instance's field image into the new
// layout, and the HeapRewriter executes on every live instance of that
// class.
type UpdateProgram struct {
	Steps []Step

	// CopiesBackwards is set when any copied field's source offset
	// precedes its destination offset (an in-place copy could then
	// overwrite source slots not yet read), forcing the heap rewriter
	// to copy the source into a scratch buffer first.
	CopiesBackwards bool
}

// IsIdentity reports a program with no steps at all — the planner never
// emits one of these (an unchanged layout simply gets update_program ==
// nil), but callers that synthesize or test programs may want the check.
func (p *UpdateProgram) IsIdentity() bool { return p == nil || len(p.Steps) == 0 }

// Execute runs the program against src (the old instance's flattened
// field slots, or a scratch copy of them if CopiesBackwards) and returns
// the new instance's flattened field slots, zero-value-filled where the
// program says to zero. dstLen is the number of destination slots the
// new layout occupies; any slot beyond the sum of the program's steps is
// left as the zero value, matching "a trailing 0: terminator" semantics
// (there is nothing more to do once the program is exhausted).
func (p *UpdateProgram) Execute(src []any, dstLen int) []any {
	dst := make([]any, dstLen)
	pos := 0
	for _, s := range p.Steps {
		switch s.Kind {
		case StepCopy:
			for i := 0; i < s.Len && pos+i < dstLen; i++ {
				srcIdx := s.From + i
				if srcIdx >= 0 && srcIdx < len(src) {
					dst[pos+i] = src[srcIdx]
				}
			}
			pos += s.Len
		case StepZero:
			pos += s.Len // dst is already zero-valued by make()
		}
	}
	return dst
}
