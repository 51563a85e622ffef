/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

// Package errs holds the redefine_classes error-code taxonomy,
// preserved bit-for-bit for tool compatibility, and a small wrapper that
// carries the step at which a code was raised.
package errs

import "fmt"

// Code is one of the redefine_classes error codes. The taxonomy must not be
// renumbered or renamed once published — external tooling matches on the
// string form.
type Code int

const (
	NONE Code = iota
	NULL_POINTER
	INVALID_CLASS
	INVALID_CLASS_FORMAT
	UNSUPPORTED_VERSION
	CIRCULAR_CLASS_DEFINITION
	NAMES_DONT_MATCH
	OUT_OF_MEMORY
	FAILS_VERIFICATION
	UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED
	UNSUPPORTED_REDEFINITION_CLASS_MODIFIERS_CHANGED
	UNSUPPORTED_REDEFINITION_SCHEMA_CHANGED
	UNSUPPORTED_REDEFINITION_METHOD_ADDED
	UNSUPPORTED_REDEFINITION_METHOD_DELETED
	UNSUPPORTED_REDEFINITION_METHOD_MODIFIERS_CHANGED
	INTERNAL
)

var names = [...]string{
	"NONE",
	"NULL_POINTER",
	"INVALID_CLASS",
	"INVALID_CLASS_FORMAT",
	"UNSUPPORTED_VERSION",
	"CIRCULAR_CLASS_DEFINITION",
	"NAMES_DONT_MATCH",
	"OUT_OF_MEMORY",
	"FAILS_VERIFICATION",
	"UNSUPPORTED_REDEFINITION_HIERARCHY_CHANGED",
	"UNSUPPORTED_REDEFINITION_CLASS_MODIFIERS_CHANGED",
	"UNSUPPORTED_REDEFINITION_SCHEMA_CHANGED",
	"UNSUPPORTED_REDEFINITION_METHOD_ADDED",
	"UNSUPPORTED_REDEFINITION_METHOD_DELETED",
	"UNSUPPORTED_REDEFINITION_METHOD_MODIFIERS_CHANGED",
	"INTERNAL",
}

func (c Code) String() string {
	if c < 0 || int(c) >= len(names) {
		return "UNKNOWN"
	}
	return names[c]
}

// Error wraps a Code with the component that raised it and an optional
// cause, the way classloader.go's cfe() attaches a message to a raw error.
type Error struct {
	Code      Code
	Component string
	Detail    string
	Cause     error
}

func (e *Error) Error() string {
	if e.Detail == "" {
		return fmt.Sprintf("%s: %s", e.Component, e.Code)
	}
	if e.Cause != nil {
		return fmt.Sprintf("%s: %s: %s: %v", e.Component, e.Code, e.Detail, e.Cause)
	}
	return fmt.Sprintf("%s: %s: %s", e.Component, e.Code, e.Detail)
}

func (e *Error) Unwrap() error { return e.Cause }

// New builds an *Error with no further cause.
func New(component string, code Code, detail string) *Error {
	return &Error{Code: code, Component: component, Detail: detail}
}

// Wrap builds an *Error that wraps an underlying cause.
func Wrap(component string, code Code, detail string, cause error) *Error {
	return &Error{Code: code, Component: component, Detail: detail, Cause: cause}
}

// CodeOf extracts the Code from any error produced by this package,
// defaulting to INTERNAL for errors of unknown shape.
func CodeOf(err error) Code {
	if err == nil {
		return NONE
	}
	var e *Error
	if ok := asError(err, &e); ok {
		return e.Code
	}
	return INTERNAL
}

func asError(err error, target **Error) bool {
	for err != nil {
		if e, ok := err.(*Error); ok {
			*target = e
			return true
		}
		u, ok := err.(interface{ Unwrap() error })
		if !ok {
			return false
		}
		err = u.Unwrap()
	}
	return false
}
