/*
 * DCEVM - Dynamic Code Evolution engine
 * Copyright (c) 2026 by the DCEVM authors. All rights reserved.
 * Licensed under Mozilla Public License 2.0 (MPL 2.0)
 */

package classregistry

// Access flag bits, matching the JVM class-file format's access_flags
// encoding: "same class modifiers", "private and final|static", and so
// on throughout the change-analysis rules below.
const (
	AccPublic     = 0x0001
	AccPrivate    = 0x0002
	AccProtected  = 0x0004
	AccStatic     = 0x0008
	AccFinal      = 0x0010
	AccSuper      = 0x0020
	AccNative     = 0x0100
	AccInterface  = 0x0200
	AccAbstract   = 0x0400
	AccSynthetic  = 0x1000
	AccAnnotation = 0x2000
	AccEnum       = 0x4000
)

// nonNativeModifierMask strips the native bit when comparing two methods'
// access flags: matched methods may differ only in access-flag bits
// excluding the native bit.
const nonNativeModifierMask = ^AccNative
