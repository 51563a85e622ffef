/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/trace"
)

// Rollback undoes every partially installed new version: it removes
// each from the class registry, unlinks old<->new, and clears the
// redefining marker. Memory for the
// discarded new class objects is released by the next GC, so there is
// nothing further to free here.
func Rollback(registry *classregistry.Registry, pairs []LoadedPair) {
	for _, p := range pairs {
		trace.RC(1, component, "rollback: detaching new version", "class", p.Old.Name)
		registry.DetachNewVersion(p.Old)
	}
}
