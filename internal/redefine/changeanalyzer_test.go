/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package redefine

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/dcevm/dcevm/internal/classregistry"
	"github.com/dcevm/dcevm/internal/errs"
)

func versionFixture(t *testing.T) *classregistry.ClassVersion {
	t.Helper()
	cv := &classregistry.ClassVersion{
		Name:           "Point",
		SuperclassName: "Object",
		Interfaces:     []string{"Comparable"},
		AccessFlags:    classregistry.AccPublic,
		Fields: []classregistry.FieldDecl{
			{Name: "x", Descriptor: "I", Offset: 0},
			{Name: "y", Descriptor: "I", Offset: 1},
		},
		Methods: []classregistry.MethodDecl{
			{Name: "<init>", Descriptor: "()V", AccessFlags: classregistry.AccPublic, Bytecode: []byte{0x01, 0x02}},
			{Name: "magnitude", Descriptor: "()I", AccessFlags: classregistry.AccPublic, Bytecode: []byte{0x03, 0x04}},
		},
		InstanceSize: 2,
	}
	require.Equal(t, 2, len(cv.Fields), "fixture must declare exactly the fields the test cases mutate")
	return cv
}

func cloneVersion(t *testing.T, cv *classregistry.ClassVersion) *classregistry.ClassVersion {
	t.Helper()
	out := *cv
	out.Fields = append([]classregistry.FieldDecl(nil), cv.Fields...)
	out.Methods = append([]classregistry.MethodDecl(nil), cv.Methods...)
	out.Interfaces = append([]string(nil), cv.Interfaces...)
	return &out
}

func TestAnalyzeCompatible_Idempotent(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: false}
	flags, err := analyzer.Analyze(old, new)
	require.Nil(t, err, "resubmitting a class's own bytes must not be rejected")

	if flags != classregistry.NoRedefinition {
		t.Fatalf("resubmitting identical bytes: got flags %s, want NoRedefinition", flags)
	}
}

func TestAnalyzeCompatible_MethodBodyChanged(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Methods[1].Bytecode = []byte{0xFF}

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: false}
	flags, err := analyzer.Analyze(old, new)
	require.Nil(t, err)

	if flags != classregistry.ModifyClass {
		t.Fatalf("changed method body: got flags %s, want ModifyClass", flags)
	}
}

func TestAnalyzeCompatible_AddedPrivateStaticMethodIsModifyClass(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Methods = append(new.Methods, classregistry.MethodDecl{
		Name: "helper", Descriptor: "()V",
		AccessFlags: classregistry.AccPrivate | classregistry.AccStatic,
	})

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: false}
	flags, err := analyzer.Analyze(old, new)
	require.Nil(t, err)

	if flags != classregistry.ModifyClass {
		t.Fatalf("added private static method: got flags %s, want ModifyClass", flags)
	}
}

func TestAnalyzeCompatible_RejectsSchemaChange(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Fields = append(new.Fields, classregistry.FieldDecl{Name: "z", Descriptor: "I", Offset: 2})

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: false}
	_, err := analyzer.Analyze(old, new)
	if err == nil {
		t.Fatal("field added in compatible mode: expected rejection, got nil error")
	}
	if err.Code != errs.UNSUPPORTED_REDEFINITION_SCHEMA_CHANGED {
		t.Fatalf("got code %s, want UNSUPPORTED_REDEFINITION_SCHEMA_CHANGED", err.Code)
	}
}

func TestAnalyzeCompatible_RejectsNonPrivateMethodDeleted(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Methods = new.Methods[:1]

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: false}
	_, err := analyzer.Analyze(old, new)
	if err == nil {
		t.Fatal("non-private method deleted: expected rejection, got nil error")
	}
	if err.Code != errs.UNSUPPORTED_REDEFINITION_METHOD_DELETED {
		t.Fatalf("got code %s, want UNSUPPORTED_REDEFINITION_METHOD_DELETED", err.Code)
	}
}

func TestAnalyzeCompatible_RejectsHierarchyChange(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.SuperclassName = "Shape"

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: false}
	_, err := analyzer.Analyze(old, new)
	if err == nil {
		t.Fatal("superclass changed: expected rejection, got nil error")
	}
	if err.Code != errs.UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED {
		t.Fatalf("got code %s, want UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED", err.Code)
	}
}

func TestAnalyzeAdvanced_AddedFieldSetsModifyInstances(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Fields = append(new.Fields, classregistry.FieldDecl{Name: "z", Descriptor: "I", Offset: 2})
	new.InstanceSize = 3

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: true}
	flags, err := analyzer.Analyze(old, new)
	require.Nil(t, err)

	if !flags.Has(classregistry.ModifyInstances) {
		t.Fatalf("added field: got flags %s, want ModifyInstances set", flags)
	}
	if !flags.Has(classregistry.ModifyInstanceSize) {
		t.Fatalf("added field: got flags %s, want ModifyInstanceSize set", flags)
	}
}

func TestAnalyzeAdvanced_TransformerMethodDetected(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Methods = append(new.Methods, classregistry.MethodDecl{Name: transformerMethodName, Descriptor: "()V"})

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: true}
	flags, err := analyzer.Analyze(old, new)
	require.Nil(t, err)

	if !flags.Has(classregistry.HasInstanceTransformer) {
		t.Fatalf("transformer method present: got flags %s, want HasInstanceTransformer set", flags)
	}
}

func TestAnalyzeAdvanced_RejectsSupertypeRemoved(t *testing.T) {
	old := versionFixture(t)
	new := cloneVersion(t, old)
	new.Interfaces = nil

	analyzer := ChangeAnalyzer{AllowAdvancedClassRedefinition: true}
	_, err := analyzer.Analyze(old, new)
	if err == nil {
		t.Fatal("interface dropped in advanced mode: expected rejection, got nil error")
	}
	if err.Code != errs.UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED {
		t.Fatalf("got code %s, want UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED", err.Code)
	}
}
