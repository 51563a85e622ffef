/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"strings"

	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/runtimehost"
)

// NativeBindingTransfer re-binds native method function pointers from
// old methods onto their new counterparts, accounting for
// agent-registered name prefixes.
type NativeBindingTransfer struct {
	Bindings runtimehost.NativeBindings
}

// Transfer walks the old class's deleted and matched native methods and
// copies each bound function pointer onto the matching new method.
func (t NativeBindingTransfer) Transfer(old, new *classregistry.ClassVersion, pairing classregistry.MethodPairing) {
	prefixes := t.Bindings.AgentPrefixes()

	transferOne := func(oldIdx int) {
		om := old.Methods[oldIdx]
		if !om.Native {
			return
		}
		unprefixed, _ := stripPrefixes(om.Name, prefixes)
		if ni, prefixed, ok := findNativeMatch(new.Methods, unprefixed, om.Descriptor, prefixes); ok {
			nm := &new.Methods[ni]
			nm.NativeFuncPtr = om.NativeFuncPtr
			nm.Native = true
			nm.NativePrefixed = prefixed
		}
	}

	for _, oldIdx := range pairing.MatchingOld {
		transferOne(oldIdx)
	}
	for _, oldIdx := range pairing.Deleted {
		transferOne(oldIdx)
	}
}

// stripPrefixes removes every agent prefix found at the start of name,
// repeatedly, returning the fully unprefixed name and whether any
// stripping occurred.
func stripPrefixes(name string, prefixes []string) (string, bool) {
	stripped := false
	for {
		matched := false
		for _, p := range prefixes {
			if p != "" && strings.HasPrefix(name, p) {
				name = name[len(p):]
				matched = true
				stripped = true
			}
		}
		if !matched {
			break
		}
	}
	return name, stripped
}

// findNativeMatch recursively searches new's methods for one whose name,
// after stripping zero or more agent prefixes, equals unprefixedName,
// and whose descriptor matches.
func findNativeMatch(methods []classregistry.MethodDecl, unprefixedName, descriptor string, prefixes []string) (int, bool, bool) {
	for i, m := range methods {
		if m.Descriptor != descriptor {
			continue
		}
		candidateUnprefixed, wasPrefixed := stripPrefixes(m.Name, prefixes)
		if candidateUnprefixed == unprefixedName {
			return i, wasPrefixed, true
		}
	}
	return 0, false, false
}
