// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package discovery

// The curated signatures below target the small set of RIP-relative
// "lea reg, [rip+disp]" sequences UE's core initialization functions
// compile to on MSVC across the 4.x/5.x release line: one inside
// FName::GetNames (loads &GCompressedNames/FNamePool singleton), one
// inside the GUObjectArray accessor, and one inside UWorld::SetCurrentLevel
// or an equivalent GWorld accessor. Masked bytes (0x00 in Mask) are the
// 32-bit RIP displacement, which differs between builds, plus the last
// byte of lea-rdx-guobjectarray-v2.

var namePoolSignatures = []Signature{
	{
		Name:    "lea-rcx-namepool-v1",
		Pattern: []byte{0x48, 0x8d, 0x0d, 0x00, 0x00, 0x00, 0x00, 0x48, 0x8b},
		Mask:    []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff},
	},
	{
		Name:    "lea-rax-namepool-v2",
		Pattern: []byte{0x48, 0x8d, 0x05, 0x00, 0x00, 0x00, 0x00, 0x48, 0x89, 0x05},
		Mask:    []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff},
	},
}

var guObjectArraySignatures = []Signature{
	{
		Name:    "lea-rcx-guobjectarray-v1",
		Pattern: []byte{0x48, 0x8d, 0x0d, 0x00, 0x00, 0x00, 0x00, 0xe8},
		Mask:    []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0xff},
	},
	{
		Name:    "lea-rdx-guobjectarray-v2",
		Pattern: []byte{0x48, 0x8d, 0x15, 0x00, 0x00, 0x00, 0x00, 0x48, 0x8b, 0x0c},
		Mask:    []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0x00},
	},
}

var gWorldSignatures = []Signature{
	{
		Name:    "mov-rax-gworld-v1",
		Pattern: []byte{0x48, 0x8b, 0x05, 0x00, 0x00, 0x00, 0x00, 0x48, 0x85, 0xc0},
		Mask:    []byte{0xff, 0xff, 0xff, 0x00, 0x00, 0x00, 0x00, 0xff, 0xff, 0xff},
	},
}
