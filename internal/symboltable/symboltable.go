/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package symboltable interns class, field, and method names so
// ClassVersion and its references can carry a cheap integer index rather
// than repeated strings.
package symboltable

import (
	"sync"

	"github.com/dcevm/dcevm/internal/types"
)

// Table is a sync-guarded, append-only string interner. The zero value is
// not usable; use New.
type Table struct {
	mu      sync.RWMutex
	byIndex []string
	byName  map[string]uint32
}

// New creates an empty interning table, reserving index
// types.ObjectPoolStringIndex for "java/lang/Object"-equivalent root type
// so that supertype-chain-termination checks have a stable sentinel.
func New() *Table {
	t := &Table{
		byIndex: make([]string, 2),
		byName:  make(map[string]uint32),
	}
	t.byIndex[types.ObjectPoolStringIndex] = "java/lang/Object"
	t.byName["java/lang/Object"] = types.ObjectPoolStringIndex
	return t
}

// Intern returns the stable index for name, allocating a new one if name
// has not been seen before.
func (t *Table) Intern(name string) uint32 {
	t.mu.RLock()
	if idx, ok := t.byName[name]; ok {
		t.mu.RUnlock()
		return idx
	}
	t.mu.RUnlock()

	t.mu.Lock()
	defer t.mu.Unlock()
	if idx, ok := t.byName[name]; ok {
		return idx
	}
	idx := uint32(len(t.byIndex))
	t.byIndex = append(t.byIndex, name)
	t.byName[name] = idx
	return idx
}

// Lookup returns the interned name for idx, or ("", false) if idx is out
// of range or unset — mirroring stringPool.GetStringPointer's nil-on-miss
// behavior, but without exposing a raw pointer.
func (t *Table) Lookup(idx uint32) (string, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	if int(idx) >= len(t.byIndex) {
		return "", false
	}
	return t.byIndex[idx], t.byIndex[idx] != ""
}

// Size reports how many names are currently interned, mirroring
// stringPool.GetStringPoolSize.
func (t *Table) Size() uint32 {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return uint32(len(t.byIndex))
}
