/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classregistry

// MethodPairing is the result of matching one class's old and new method
// lists. MatchingOld[i] and
// MatchingNew[i] index into the old and new class's Methods slices for
// the i-th matched pair; Added and Deleted index into the new and old
// lists respectively for methods with no counterpart.
type MethodPairing struct {
	MatchingOld []int
	MatchingNew []int
	Added       []int
	Deleted     []int
}
