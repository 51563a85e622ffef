/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// This file contains the constant-pool model used for the
// constant-pool cache adjustment step of a redefinition commit.
// Generalized from "one class's constant pool" to "resolved klass
// references that may need rewriting to a newer ClassVersion".
package classregistry

import "sync"

// ConstantPool holds, for one ClassVersion, the subset of its constant
// pool relevant to redefinition: resolved class references that must be
// retargeted when their target is redefined, plus the "holder" pointer
// that is restored to the old version after a rewrite pass.
type ConstantPool struct {
	mu sync.Mutex

	// Entries holds resolved class references by CP index; a nil entry
	// means that index is unresolved (or not a class reference at
	// all). This models an interpreter's resolved-index cache.
	Entries []*ClassVersion

	// Holder is the ClassVersion that owns this constant pool. The
	// per-class swap step of the heap rewriter must ensure this keeps
	// pointing at the *old* class even if a naive rewrite pass would
	// have retargeted it to the new class along with everything else.
	Holder *ClassVersion
}

// NewConstantPool allocates a pool with n resolvable entries, owned by
// holder.
func NewConstantPool(holder *ClassVersion, n int) *ConstantPool {
	return &ConstantPool{Entries: make([]*ClassVersion, n), Holder: holder}
}

// Resolve records that CP index i currently resolves to target.
func (cp *ConstantPool) Resolve(i int, target *ClassVersion) {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	if i < 0 || i >= len(cp.Entries) {
		return
	}
	cp.Entries[i] = target
}

// RewriteToNewest walks every resolved class reference and retargets it
// to its chain's newest version: any resolved klass reference whose
// target has a new_version is rewritten to the new version. Returns the
// count of entries actually rewritten.
func (cp *ConstantPool) RewriteToNewest() int {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	rewritten := 0
	for i, e := range cp.Entries {
		if e == nil || e.NewVersion == nil {
			continue
		}
		cp.Entries[i] = e.Newest()
		rewritten++
	}
	return rewritten
}

// Invalidate zeroes every resolved entry, forcing re-resolution on next
// use.
func (cp *ConstantPool) Invalidate() {
	cp.mu.Lock()
	defer cp.mu.Unlock()
	for i := range cp.Entries {
		cp.Entries[i] = nil
	}
}
