/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package runtimehost

import (
	"encoding/json"
	"fmt"

	"github.com/dcevm/dcevm/internal/classregistry"
)

// ClassSpec is the JSON wire format FakeClassLoader resolves class bytes
// from. Real class-file parsing is out of scope; this spec
// stands in for "the user's class bytes" the same way a test double
// stands in for a compiler: it is a faithful, serializable description
// of a class definition, not a guess at bytecode layout.
type ClassSpec struct {
	Name        string       `json:"name"`
	Super       string       `json:"super"`
	Interfaces  []string     `json:"interfaces"`
	Fields      []FieldSpec  `json:"fields"`
	Methods     []MethodSpec `json:"methods"`
	AccessFlags int          `json:"access_flags"`
}

type FieldSpec struct {
	Name        string `json:"name"`
	Descriptor  string `json:"descriptor"`
	Static      bool   `json:"static"`
	AccessFlags int    `json:"access_flags"`
}

type MethodSpec struct {
	Name        string `json:"name"`
	Descriptor  string `json:"descriptor"`
	AccessFlags int    `json:"access_flags"`
	Native      bool   `json:"native"`
	Bytecode    []byte `json:"bytecode,omitempty"`
}

// Marshal serializes a ClassSpec to the bytes a ClassDef carries.
func (c ClassSpec) Marshal() []byte {
	b, _ := json.Marshal(c)
	return b
}

// ParseClassSpec decodes class bytes produced by Marshal.
func ParseClassSpec(bytes []byte) (ClassSpec, error) {
	var c ClassSpec
	if len(bytes) == 0 {
		return c, fmt.Errorf("empty class bytes")
	}
	if err := json.Unmarshal(bytes, &c); err != nil {
		return c, err
	}
	if c.Name == "" {
		return c, fmt.Errorf("class spec missing name")
	}
	return c, nil
}

// ToClassVersion builds a *classregistry.ClassVersion from a decoded
// spec, computing non-static field offsets sequentially in declaration
// order — a simplified stand-in for a real class loader's field-layout
// pass.
func (c ClassSpec) ToClassVersion() *classregistry.ClassVersion {
	cv := &classregistry.ClassVersion{
		Name:           c.Name,
		SuperclassName: c.Super,
		Interfaces:     append([]string(nil), c.Interfaces...),
		AccessFlags:    c.AccessFlags,
		Init:           classregistry.StateLoaded,
	}

	offset := 0
	for _, fs := range c.Fields {
		fd := classregistry.FieldDecl{
			Name:        fs.Name,
			Descriptor:  fs.Descriptor,
			Static:      fs.Static,
			AccessFlags: fs.AccessFlags,
		}
		if !fs.Static {
			fd.Offset = offset
			offset += fd.Size()
		}
		cv.Fields = append(cv.Fields, fd)
	}
	cv.InstanceSize = offset

	for _, ms := range c.Methods {
		cv.Methods = append(cv.Methods, classregistry.MethodDecl{
			Name:        ms.Name,
			Descriptor:  ms.Descriptor,
			AccessFlags: ms.AccessFlags,
			Native:      ms.Native,
			Bytecode:    ms.Bytecode,
		})
	}

	cv.CP = classregistry.NewConstantPool(cv, 0)
	return cv
}

// FromClassVersion is the reconstitution half: its round-trip with
// ToClassVersion must be lossless for every field a ClassSpec carries.
func FromClassVersion(cv *classregistry.ClassVersion) ClassSpec {
	spec := ClassSpec{
		Name:        cv.Name,
		Super:       cv.SuperclassName,
		Interfaces:  append([]string(nil), cv.Interfaces...),
		AccessFlags: cv.AccessFlags,
	}
	for _, f := range cv.Fields {
		spec.Fields = append(spec.Fields, FieldSpec{
			Name: f.Name, Descriptor: f.Descriptor, Static: f.Static, AccessFlags: f.AccessFlags,
		})
	}
	for _, m := range cv.Methods {
		spec.Methods = append(spec.Methods, MethodSpec{
			Name: m.Name, Descriptor: m.Descriptor, AccessFlags: m.AccessFlags,
			Native: m.Native, Bytecode: m.Bytecode,
		})
	}
	return spec
}
