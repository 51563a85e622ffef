/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"bytes"

	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/errs"
)

const transformerMethodName = "$$transformer"

// ChangeAnalyzer compares an old/new ClassVersion pair and emits a
// RedefinitionFlags bitmask, either rejecting unsafe changes outright
// (compatibility mode) or accepting any change short of a removed
// supertype (advanced mode).
type ChangeAnalyzer struct {
	AllowAdvancedClassRedefinition bool
}

// Analyze returns the flags for the old->new pair, or an error code if
// the change is rejected. It does not mutate either ClassVersion; the
// caller assigns the result to new.Flags.
func (a *ChangeAnalyzer) Analyze(old, new *classregistry.ClassVersion) (classregistry.RedefinitionFlags, *errs.Error) {
	if a.AllowAdvancedClassRedefinition {
		return a.analyzeAdvanced(old, new)
	}
	return a.analyzeCompatible(old, new)
}

func (a *ChangeAnalyzer) analyzeCompatible(old, new *classregistry.ClassVersion) (classregistry.RedefinitionFlags, *errs.Error) {
	if old.SuperclassName != new.SuperclassName {
		return 0, errs.New(component, errs.UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED, "superclass changed for "+old.Name)
	}
	if !sameStringSlice(old.Interfaces, new.Interfaces) {
		return 0, errs.New(component, errs.UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED, "interface set changed for "+old.Name)
	}
	if old.AccessFlags != new.AccessFlags {
		return 0, errs.New(component, errs.UNSUPPORTED_REDEFINITION_CLASS_MODIFIERS_CHANGED, "class modifiers changed for "+old.Name)
	}
	if err := sameFieldSet(old, new); err != nil {
		return 0, err
	}
	if err := compatibleMethodSet(old, new); err != nil {
		return 0, err
	}
	if methodBodiesUnchanged(old, new) {
		return classregistry.NoRedefinition, nil
	}
	return classregistry.ModifyClass, nil
}

// methodBodiesUnchanged reports whether old and new declare the exact
// same set of methods with identical bytecode — the only thing
// compatible mode allows to actually change, since
// compatibleMethodSet already forces matched methods' modifiers equal
// and restricts added/deleted methods to private final|static. A
// redefinition submitted with its own current bytes must come back
// here as unchanged.
func methodBodiesUnchanged(old, new *classregistry.ClassVersion) bool {
	if len(old.Methods) != len(new.Methods) {
		return false
	}
	for _, om := range old.Methods {
		nm, ok := findMethod(new.Methods, om.Signature())
		if !ok || !bytes.Equal(om.Bytecode, nm.Bytecode) {
			return false
		}
	}
	return true
}

func (a *ChangeAnalyzer) analyzeAdvanced(old, new *classregistry.ClassVersion) (classregistry.RedefinitionFlags, *errs.Error) {
	if !supertypeRetained(old, new) {
		return 0, errs.New(component, errs.UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED, "supertype removed for "+old.Name)
	}

	var flags classregistry.RedefinitionFlags

	if old.SuperclassName != new.SuperclassName || !sameStringSlice(old.Interfaces, new.Interfaces) {
		flags = flags.Union(classregistry.ModifyClass)
	}

	fieldsChanged := len(old.Fields) != len(new.Fields)
	if !fieldsChanged {
		for i := range new.Fields {
			nf := new.Fields[i]
			if nf.Static {
				continue
			}
			of, ok := old.FieldByNameAndDescriptor(nf.Name, nf.Descriptor)
			if !ok || of.Offset != nf.Offset {
				fieldsChanged = true
				break
			}
		}
	}
	if fieldsChanged {
		flags = flags.Union(classregistry.ModifyInstances)
	}

	for _, om := range old.Methods {
		nm, ok := findMethod(new.Methods, om.Signature())
		if ok && !modifiersEqualIgnoringNative(om, nm) {
			flags = flags.Union(classregistry.ModifyClass)
			break
		}
	}

	if old.InstanceSize != new.InstanceSize {
		flags = flags.Union(classregistry.ModifyInstanceSize)
	}
	if old.ClassSize != new.ClassSize {
		flags = flags.Union(classregistry.ModifyClassSize)
	}
	if hasTransformer(new) {
		flags = flags.Union(classregistry.HasInstanceTransformer)
	}

	return flags, nil
}

func supertypeRetained(old, new *classregistry.ClassVersion) bool {
	newTypes := append([]string{new.SuperclassName}, new.Interfaces...)
	if old.SuperclassName != "" && !containsString(newTypes, old.SuperclassName) {
		return false
	}
	for _, oi := range old.Interfaces {
		if !containsString(new.Interfaces, oi) {
			return false
		}
	}
	return true
}

func sameFieldSet(old, new *classregistry.ClassVersion) *errs.Error {
	if len(old.Fields) != len(new.Fields) {
		return errs.New(component, errs.UNSUPPORTED_REDEFINITION_SCHEMA_CHANGED, "field count changed for "+old.Name)
	}
	for i := range old.Fields {
		of, nf := old.Fields[i], new.Fields[i]
		if of.Name != nf.Name || of.Descriptor != nf.Descriptor || of.Offset != nf.Offset || of.Static != nf.Static {
			return errs.New(component, errs.UNSUPPORTED_REDEFINITION_SCHEMA_CHANGED, "field layout changed for "+old.Name)
		}
	}
	return nil
}

// compatibleMethodSet enforces compatibility mode's method rule:
// matched methods may differ only in access flags excluding native;
// added/deleted methods must be private and final|static.
func compatibleMethodSet(old, new *classregistry.ClassVersion) *errs.Error {
	for _, om := range old.Methods {
		nm, ok := findMethod(new.Methods, om.Signature())
		if !ok {
			if !om.IsPrivate() || !om.IsFinalOrStatic() {
				return errs.New(component, errs.UNSUPPORTED_REDEFINITION_METHOD_DELETED, "non-private method deleted: "+om.Signature())
			}
			continue
		}
		if !modifiersEqualIgnoringNative(om, nm) {
			return errs.New(component, errs.UNSUPPORTED_REDEFINITION_METHOD_MODIFIERS_CHANGED, "method modifiers changed: "+om.Signature())
		}
	}
	for _, nm := range new.Methods {
		if _, ok := findMethod(old.Methods, nm.Signature()); ok {
			continue
		}
		if !nm.IsPrivate() || !nm.IsFinalOrStatic() {
			return errs.New(component, errs.UNSUPPORTED_REDEFINITION_METHOD_ADDED, "non-private method added: "+nm.Signature())
		}
	}
	return nil
}

func findMethod(methods []classregistry.MethodDecl, signature string) (classregistry.MethodDecl, bool) {
	for _, m := range methods {
		if m.Signature() == signature {
			return m, true
		}
	}
	return classregistry.MethodDecl{}, false
}

func hasTransformer(cv *classregistry.ClassVersion) bool {
	for _, m := range cv.Methods {
		if m.Name == transformerMethodName && m.Descriptor == "()V" {
			return true
		}
	}
	return false
}

func sameStringSlice(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func containsString(xs []string, want string) bool {
	for _, x := range xs {
		if x == want {
			return true
		}
	}
	return false
}

// modifiersEqualIgnoringNative compares two methods' access flags,
// ignoring the native bit.
func modifiersEqualIgnoringNative(a, b classregistry.MethodDecl) bool {
	const mask = ^classregistry.AccNative
	return a.AccessFlags&mask == b.AccessFlags&mask
}
