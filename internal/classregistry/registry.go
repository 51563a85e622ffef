/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classregistry

import (
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/dcevm/dcevm/internal/symboltable"
)

// Registry owns the newest ClassVersion of every loaded class. It is
// written only under the caller's redefinition lock and read
// concurrently via ordinary lookups.
type Registry struct {
	mu      sync.RWMutex
	classes map[string]*ClassVersion
	symbols *symboltable.Table

	// reconstitutionCache bounds the cost of NewVersionLoader's
	// reconstitution path: a class whose bytes were not supplied
	// directly by the caller can have them reconstituted and cached
	// here, keyed by class name.
	reconstitutionCache *lru.Cache[string, []byte]
}

// NewRegistry creates an empty registry backed by symbols for name
// interning, with a reconstitution-bytes cache of the given capacity
// (use 0 for a reasonable default).
func NewRegistry(symbols *symboltable.Table, reconstitutionCacheSize int) *Registry {
	if reconstitutionCacheSize <= 0 {
		reconstitutionCacheSize = 256
	}
	cache, _ := lru.New[string, []byte](reconstitutionCacheSize)
	return &Registry{
		classes:             make(map[string]*ClassVersion),
		symbols:             symbols,
		reconstitutionCache: cache,
	}
}

// Load registers cv as the (only, newest) version of its chain. This is
// the normal-class-loader path, which is out of scope for this engine;
// exposed here only so tests and the demo CLI can seed a registry.
func (r *Registry) Load(cv *ClassVersion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	cv.NameIndex = r.symbols.Intern(cv.Name)
	r.classes[cv.Name] = cv
}

// Lookup returns the newest version of the named class, if loaded.
func (r *Registry) Lookup(name string) (*ClassVersion, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	cv, ok := r.classes[name]
	return cv, ok
}

// All returns a snapshot slice of every loaded class's newest version.
// Safe to range over without further locking.
func (r *Registry) All() []*ClassVersion {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ClassVersion, 0, len(r.classes))
	for _, cv := range r.classes {
		out = append(out, cv)
	}
	return out
}

// Ancestors returns the names of every class in cv's primary super chain
// and (transitively) its interfaces, excluding cv itself — the set
// AffectedSetBuilder tests a candidate class's supertypes against.
func (r *Registry) Ancestors(cv *ClassVersion) []string {
	seen := make(map[string]bool)
	var out []string
	var walk func(name string)
	walk = func(name string) {
		if name == "" || seen[name] {
			return
		}
		seen[name] = true
		out = append(out, name)
		if c, ok := r.classes[name]; ok {
			if c.SuperclassName != "" {
				walk(c.SuperclassName)
			}
			for _, i := range c.Interfaces {
				walk(i)
			}
		}
	}
	if cv.SuperclassName != "" {
		walk(cv.SuperclassName)
	}
	for _, i := range cv.Interfaces {
		walk(i)
	}
	return out
}

// AttachNewVersion links old<->new and installs new
// as the registry's entry for the chain (provisionally — Rollback may
// still detach it before commit).
func (r *Registry) AttachNewVersion(old, new *ClassVersion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	old.NewVersion = new
	new.OldVersion = old
	new.Redefining = true
	new.NameIndex = r.symbols.Intern(new.Name)
	r.classes[new.Name] = new
}

// DetachNewVersion undoes AttachNewVersion — used by Rollback to
// remove a partially installed new version and restore old as the
// registry's entry for the chain.
func (r *Registry) DetachNewVersion(old *ClassVersion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	new := old.NewVersion
	if new == nil {
		return
	}
	old.NewVersion = nil
	new.OldVersion = nil
	new.Redefining = false
	if r.classes[old.Name] == new {
		r.classes[old.Name] = old
	}
}

// CommitNewVersion clears the redefining marker on new once the
// transaction has committed.
func (r *Registry) CommitNewVersion(new *ClassVersion) {
	r.mu.Lock()
	defer r.mu.Unlock()
	new.Redefining = false
}

// CacheReconstitutedBytes stores reconstituted class bytes for name,
// bounding repeated reconstitution work across transactions.
func (r *Registry) CacheReconstitutedBytes(name string, bytes []byte) {
	r.reconstitutionCache.Add(name, bytes)
}

// ReconstitutedBytes returns previously cached reconstituted bytes for
// name, if any.
func (r *Registry) ReconstitutedBytes(name string) ([]byte, bool) {
	return r.reconstitutionCache.Get(name)
}

// Symbols exposes the registry's symbol table for callers that need to
// intern additional names (e.g. the loader resolving declared interface
// names from freshly parsed bytes).
func (r *Registry) Symbols() *symboltable.Table { return r.symbols }
