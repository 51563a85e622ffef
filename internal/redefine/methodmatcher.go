/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"bytes"
	"sort"
	"sync/atomic"

	"github.com/dcevm/dcevm/internal/classregistry"
)

// methodIdentityCounter re-issues method identity numbers across the
// life of the process as a monotonically increasing global counter.
var methodIdentityCounter uint32

func nextMethodID() uint32 {
	return atomic.AddUint32(&methodIdentityCounter, 1)
}

// MethodMatcher partitions an old/new method-list pair into matched,
// added, and deleted methods, tags EMCP methods, and re-issues method
// identity numbers.
type MethodMatcher struct{}

// Match performs the matched/added/deleted partition, mutating new's
// methods in place (assigning IDs, EMCP bits) and old's methods in place
// (marking Old/Obsolete). It returns the MethodPairing for callers that
// need index-level access (NativeBindingTransfer, debugger rebinding).
func (MethodMatcher) Match(old, new *classregistry.ClassVersion) classregistry.MethodPairing {
	oldIdx := sortedIndices(old.Methods)
	newIdx := sortedIndices(new.Methods)

	var pairing classregistry.MethodPairing
	matchedNew := make(map[int]bool, len(newIdx))

	oi := 0
	for oi < len(oldIdx) {
		o := oldIdx[oi]
		om := old.Methods[o]

		ni := -1
		for k := 0; k < len(newIdx); k++ {
			n := newIdx[k]
			if matchedNew[n] {
				continue
			}
			if new.Methods[n].Name == om.Name {
				ni = n
				break
			}
		}
		if ni == -1 {
			// No method of this name survives at all: deleted.
			markDeleted(&old.Methods[o])
			pairing.Deleted = append(pairing.Deleted, o)
			oi++
			continue
		}

		if new.Methods[ni].Descriptor != om.Descriptor {
			// Same name, different signature: when names match but
			// signatures diverge, search forward in the new list for
			// the actual signature match.
			found := -1
			for k := 0; k < len(newIdx); k++ {
				n := newIdx[k]
				if matchedNew[n] {
					continue
				}
				if new.Methods[n].Name == om.Name && new.Methods[n].Descriptor == om.Descriptor {
					found = n
					break
				}
			}
			if found == -1 {
				markDeleted(&old.Methods[o])
				pairing.Deleted = append(pairing.Deleted, o)
				oi++
				continue
			}
			ni = found
		}

		matchedNew[ni] = true
		nm := &new.Methods[ni]
		nm.ID = nextMethodID()
		om2 := &old.Methods[o]
		om2.Old = true
		if bytes.Equal(om2.Bytecode, nm.Bytecode) {
			nm.EMCP = true
			om2.EMCP = true
		} else {
			om2.Obsolete = true
		}
		pairing.MatchingOld = append(pairing.MatchingOld, o)
		pairing.MatchingNew = append(pairing.MatchingNew, ni)
		oi++
	}

	for _, n := range newIdx {
		if matchedNew[n] {
			continue
		}
		new.Methods[n].ID = nextMethodID()
		pairing.Added = append(pairing.Added, n)
	}

	return pairing
}

func markDeleted(m *classregistry.MethodDecl) {
	m.Old = true
	m.Obsolete = true
}

// sortedIndices returns the indices of methods sorted by name, the
// pre-sort 's parallel walk requires ("two lists pre-sorted by
// name").
func sortedIndices(methods []classregistry.MethodDecl) []int {
	idx := make([]int, len(methods))
	for i := range methods {
		idx[i] = i
	}
	sort.SliceStable(idx, func(i, j int) bool {
		return methods[idx[i]].Name < methods[idx[j]].Name
	})
	return idx
}
