/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/errs"
	"github.com/dcevm/dcevm/internal/runtimehost"
	"github.com/dcevm/dcevm/internal/trace"
)

// LoadedPair is one class's old version paired with its freshly loaded,
// provisionally-attached new version.
type LoadedPair struct {
	Old *classregistry.ClassVersion
	New *classregistry.ClassVersion
}

// NewVersionLoader resolves, verifies, links and analyzes one new
// ClassVersion per affected class.
type NewVersionLoader struct {
	Registry *classregistry.Registry
	Loader   runtimehost.ClassLoader
	Verifier runtimehost.Verifier
	Analyzer ChangeAnalyzer
	Planner  FieldMigrationPlanner
}

// classBytes resolves the bytes for one affected class: the
// user-supplied bytes if present, otherwise reconstituted bytes from the
// registry's cache or — failing that — from a caller-supplied
// reconstitute function.
func classBytes(name string, def *ClassDef, registry *classregistry.Registry, reconstitute func(name string) ([]byte, *errs.Error)) ([]byte, *errs.Error) {
	if def != nil && len(def.Bytes) > 0 {
		return def.Bytes, nil
	}
	if b, ok := registry.ReconstitutedBytes(name); ok {
		return b, nil
	}
	if reconstitute == nil {
		return nil, errs.New(component, errs.INVALID_CLASS, "no bytes and no reconstitution available for "+name)
	}
	b, err := reconstitute(name)
	if err != nil {
		return nil, err
	}
	registry.CacheReconstitutedBytes(name, b)
	return b, nil
}

// Load processes every affected class in order: locate bytes, resolve,
// verify, attach, and analyze. RedefinitionFlags then propagate from
// supertypes, and only once that propagation has settled is each
// pair's update program planned, since a subclass can need one purely
// because its supertype's layout changed.
//
// defByName maps a directly user-supplied ClassDef by name; classes
// affected only as subtypes have no entry and must be reconstituted.
//
// On error, the returned pairs are every pair attached to the registry
// so far, so the caller can hand them to Rollback.
func (l *NewVersionLoader) Load(affected []*classregistry.ClassVersion, defByName map[string]*ClassDef, reconstitute func(name string) ([]byte, *errs.Error)) ([]LoadedPair, *errs.Error) {
	t := trace.NewTimer("NewVersionLoader.Load")
	t.Start()
	defer t.Stop()

	var pairs []LoadedPair

	for _, old := range affected {
		def := defByName[old.Name]
		bytes, err := classBytes(old.Name, def, l.Registry, reconstitute)
		if err != nil {
			return pairs, err
		}

		new, rerr := l.Loader.ResolveFromStream(old.Name, old.Loader, bytes, old)
		if rerr != nil {
			trace.Error(component, "resolve failed", "class", old.Name, "err", rerr)
			return pairs, errs.Wrap(component, errs.INVALID_CLASS_FORMAT, "resolve failed for "+old.Name, rerr)
		}
		if new.Name != old.Name {
			return pairs, errs.New(component, errs.NAMES_DONT_MATCH, "resolved class name "+new.Name+" does not match requested "+old.Name)
		}

		if !l.Verifier.Verify(new) {
			return pairs, errs.New(component, errs.FAILS_VERIFICATION, "verification failed for "+old.Name)
		}

		// Verify interfaces reference newest versions (step 3).
		for i, iface := range new.Interfaces {
			if cv, ok := l.Registry.Lookup(iface); ok {
				new.Interfaces[i] = cv.Newest().Name
			}
		}

		l.Registry.AttachNewVersion(old, new)

		flags, aerr := l.Analyzer.Analyze(old, new)
		if aerr != nil {
			return append(pairs, LoadedPair{Old: old, New: new}), aerr
		}
		new.Flags = flags

		trace.RC(2, component, "new version loaded", "class", old.Name, "flags", flags.String())
		pairs = append(pairs, LoadedPair{Old: old, New: new})
	}

	propagateFlags(pairs, l.Registry)

	// A subclass can pick up ModifyInstances only here, via its
	// supertype's propagated flags, so the update program is planned
	// from the final (post-propagation) flags rather than each class's
	// own pre-propagation analysis.
	for _, p := range pairs {
		if p.New.Flags.Has(classregistry.ModifyInstances) && p.New.UpdateProgram == nil {
			p.New.UpdateProgram = l.Planner.Plan(p.Old, p.New)
		}
	}

	return pairs, nil
}

// propagateFlags ORs each supertype's flags into every subtype's flags:
// a subclass's effective flags OR-in its supertype's. affected is
// already supertypes-first, so a single forward pass suffices.
func propagateFlags(pairs []LoadedPair, registry *classregistry.Registry) {
	byName := make(map[string]*classregistry.ClassVersion, len(pairs))
	for _, p := range pairs {
		byName[p.New.Name] = p.New
	}
	for _, p := range pairs {
		if super, ok := byName[p.New.SuperclassName]; ok {
			p.New.Flags = p.New.Flags.Union(super.Flags)
		} else if super, ok := registry.Lookup(p.New.SuperclassName); ok && super.Flags != classregistry.NoRedefinition {
			p.New.Flags = p.New.Flags.Union(super.Flags)
		}
		for _, iface := range p.New.Interfaces {
			if isup, ok := byName[iface]; ok {
				p.New.Flags = p.New.Flags.Union(isup.Flags)
			}
		}
	}
}

// parseForEdges reads a directly-redefined class's declared super and
// interfaces straight out of its new bytes without a full resolve pass,
// the edge source AffectedSetBuilder.Build needs before NewVersionLoader
// runs. For classes affected only as subtypes (no
// user-supplied bytes), the registry's current ClassVersion already
// carries the edge.
func parseForEdges(registry *classregistry.Registry, defByName map[string]*ClassDef) func(className string) []string {
	return func(className string) []string {
		if def, ok := defByName[className]; ok && len(def.Bytes) > 0 {
			if spec, err := runtimehost.ParseClassSpec(def.Bytes); err == nil {
				edges := append([]string(nil), spec.Interfaces...)
				if spec.Super != "" {
					edges = append(edges, spec.Super)
				}
				return edges
			}
		}
		if cv, ok := registry.Lookup(className); ok {
			edges := append([]string(nil), cv.Interfaces...)
			if cv.SuperclassName != "" {
				edges = append(edges, cv.SuperclassName)
			}
			return edges
		}
		return nil
	}
}
