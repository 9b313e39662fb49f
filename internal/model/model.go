// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package model holds the shared value types of the reflection model
// (§3 DATA MODEL): names, objects, packages, properties, enums,
// functions, and layout profiles. internal/namepool, internal/objarray
// and internal/reflect populate these types; internal/storage latches
// them; internal/query reads them back out.
package model

import "github.com/ueinspect/ueinspect/internal/remote"

// NameID indexes into the NamePool.
type NameID uint32

// ObjectID indexes into GUObjectArray; stable within one attach, equal
// to the target's InternalIndex.
type ObjectID uint32

// NameEntry is one resolved NamePool string.
type NameEntry struct {
	ID     NameID
	String string
}

// ObjectFlags mirrors UE's EObjectFlags bitmask on a UObject.
type ObjectFlags uint32

// ObjectRecord is one GUObjectArray slot, enriched by the reflection
// model builders (§4.G, §4.H).
type ObjectRecord struct {
	ID       ObjectID
	Address  remote.Address
	ClassPtr remote.Address
	OuterPtr remote.Address
	NameID   NameID
	Flags    ObjectFlags

	// Derived during enrichment.
	TypeName string // class-chain leaf name
	Name     string
	FullName string // dotted outer-chain path
	Package  string // root outer's name

	// Resolved is false for a slot that failed cross-validation during
	// the parse (§4.G); it still occupies an ObjectID but carries no
	// usable fields beyond ID.
	Resolved bool
}

// Package is the root UObject of an outer chain (§3), named by that
// root's name. The root's class is not checked: every root outer is
// treated as a package, whether or not its class is "Package".
type Package struct {
	Name      string
	ObjectIDs []ObjectID
}

// PropertyInfo describes one reflected field of a UStruct (§4.H).
type PropertyInfo struct {
	NameID           NameID
	PropertyTypeName string // "ObjectProperty", "ArrayProperty", ...
	Offset           uint32
	ElementSize      uint32
	ArrayDim         uint32

	SubTypeName    string // container element / object class / struct type / enum name
	SubTypeAddress remote.Address

	BitMask uint8 // BoolProperty bitfield mask; 0 if not a bitfield

	// Inner/Key/Value are populated for ArrayProperty/SetProperty
	// (Inner only) and MapProperty (both).
	Inner *PropertyInfo
	Key   *PropertyInfo
	Value *PropertyInfo
}

// EnumValueEntry is one declared value of a UEnum.
type EnumValueEntry struct {
	NameID NameID
	Value  int64
}

// FunctionParam is one parameter (or the return value) of a UFunction.
type FunctionParam struct {
	NameID      NameID
	TypeName    string
	TypeAddress remote.Address
	Flags       uint64
}

// FunctionInfo describes a reflected UFunction.
type FunctionInfo struct {
	OwnerObjectID  ObjectID
	ReturnTypeName string
	Params         []FunctionParam
	ExecOffset     uint64 // Func pointer minus module base
}

// InstanceHierarchyNode is one class in an instance's Super chain, from
// the concrete leaf class up to Object.
type InstanceHierarchyNode struct {
	ClassName   string
	ClassAddr   remote.Address
	TypeName    string
}

// InstancePropertySample is the decoded, live value of one property read
// off a specific instance address (§4.I get_instance_details).
type InstancePropertySample struct {
	PropertyName string
	PropertyType string
	SubType      string

	Offset        uint32
	MemoryAddress remote.Address

	LiveValue string

	IsObject            bool
	ObjectInstanceAddr  remote.Address
	ObjectClassAddr     remote.Address
}

// LayoutProfile captures the UE-version-dependent memory layout (§3).
type LayoutProfile struct {
	UEMajor int // 4 or 5

	NameBlockStride        uint32
	NameEntryHeaderSize    uint32
	NameHeaderEncodesLength bool

	UObjectItemSize         uint32
	UObjectItemObjectOffset uint32

	UObjectFieldsAreFProperty bool // true for UE >= 4.25

	UStructSuperOffset          uint32
	UStructChildrenOffset       uint32
	UStructChildrenPropsOffset  uint32
	UStructPropertiesSizeOffset uint32

	FFieldNextOffset  uint32
	FFieldNameOffset  uint32
	FFieldClassOffset uint32

	FPropertyOffsetInternal uint32
	FPropertyElementSize    uint32
	FPropertyArrayDim       uint32

	UEnumNamesArrayOffset uint32
	UFunctionFuncPtrOffset uint32

	// BytePropertyIsEnumProperty resolves the ambiguous ByteProperty vs
	// EnumProperty disambiguation on pre-4.15 builds per-version rather
	// than by runtime inference (see DESIGN.md Open Question).
	BytePropertyIsEnumProperty bool

	// Degraded is true when no exact version match was found and this
	// profile is a nearest-neighbor fallback (§4.D).
	Degraded bool
}

// DetailedObjectInfo is the result of get_object_details (§4.I): an
// ObjectRecord enriched with its reflection model, when its class
// qualifies (§4.H).
type DetailedObjectInfo struct {
	Record ObjectRecord

	// Inheritance lists this object's ancestors, nearest first, NOT
	// including the object's own class — an object with no ancestors
	// (the root "Object" class) reports an empty list here, unlike
	// add_inspector's leaf-inclusive hierarchy.
	Inheritance []InstanceHierarchyNode
	Properties  []PropertyInfo
	EnumValues  []EnumValueEntry
	Function    *FunctionInfo
}

// UObject header field offsets are fixed across the engine generations
// this inspector targets and are not part of LayoutProfile.
const (
	UObjectVTableOffset  = 0x00
	UObjectFlagsOffset   = 0x08
	UObjectIndexOffset   = 0x0C
	UObjectClassOffset   = 0x10
	UObjectNameOffset    = 0x18
	UObjectOuterOffset   = 0x20
)
