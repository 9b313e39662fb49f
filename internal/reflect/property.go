// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflect

import (
	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// UE property flag bits relevant to reflection (FProperty::PropertyFlags,
// EPropertyFlags). Only the bits this inspector inspects are named.
const (
	cpfParm       = 0x0000000000000080
	cpfReturnParm = 0x0000000000000400
)

// Sub-type pointer fields (PropertyClass, Struct, Inner, Key/Value,
// Enum) are not part of model.LayoutProfile because they sit at a fixed
// offset immediately after the shared FProperty header on every engine
// generation this inspector targets, rather than varying per version.
const subTypePointerOffset = 0 // relative to layout.FPropertyElementSize + 8, see subTypeAddr

func subTypeAddr(fieldAddr remote.Address, layout model.LayoutProfile) remote.Address {
	return fieldAddr.Add(int64(layout.FPropertyElementSize) + 8 + subTypePointerOffset)
}

// decodeProperty turns a rawField into a model.PropertyInfo, reading
// offset/element_size/array_dim and any type-specific sub-fields
// (§4.H).
func decodeProperty(proc *remote.Process, f rawField, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable, depth int) (model.PropertyInfo, error) {
	offsetInternal, err := remote.Read[uint32](proc, f.addr.Add(int64(layout.FPropertyOffsetInternal)))
	if err != nil {
		return model.PropertyInfo{}, err
	}
	elementSize, err := remote.Read[uint32](proc, f.addr.Add(int64(layout.FPropertyElementSize)))
	if err != nil {
		return model.PropertyInfo{}, err
	}
	arrayDim, err := remote.Read[uint32](proc, f.addr.Add(int64(layout.FPropertyArrayDim)))
	if err != nil {
		return model.PropertyInfo{}, err
	}

	p := model.PropertyInfo{
		NameID:           f.nameID,
		PropertyTypeName: resolveBytePropertyAlias(f.className, layout),
		Offset:           offsetInternal,
		ElementSize:      elementSize,
		ArrayDim:         arrayDim,
	}

	if depth > 8 {
		// Guards against a pathologically nested container-of-container
		// chain; no real UE type nests this deep.
		return p, nil
	}

	switch p.PropertyTypeName {
	case "ObjectProperty", "ClassProperty", "InterfaceProperty", "WeakObjectProperty", "SoftObjectProperty":
		addr := subTypeAddr(f.addr, layout)
		classPtr, err := remote.Read[uint64](proc, addr)
		if err == nil && classPtr != 0 {
			p.SubTypeAddress = remote.Address(classPtr)
			if rec, ok := objects.ByAddress(remote.Address(classPtr)); ok {
				p.SubTypeName = names.Resolve(rec.NameID)
			}
		}
	case "StructProperty":
		addr := subTypeAddr(f.addr, layout)
		structPtr, err := remote.Read[uint64](proc, addr)
		if err == nil && structPtr != 0 {
			p.SubTypeAddress = remote.Address(structPtr)
			if rec, ok := objects.ByAddress(remote.Address(structPtr)); ok {
				p.SubTypeName = names.Resolve(rec.NameID)
			}
		}
	case "ByteProperty", "EnumProperty":
		addr := subTypeAddr(f.addr, layout)
		enumPtr, err := remote.Read[uint64](proc, addr)
		if err == nil && enumPtr != 0 {
			p.SubTypeAddress = remote.Address(enumPtr)
			if rec, ok := objects.ByAddress(remote.Address(enumPtr)); ok {
				p.SubTypeName = names.Resolve(rec.NameID)
			}
		}
	case "ArrayProperty", "SetProperty":
		inner, err := readInnerField(proc, f.addr, layout, names, objects, depth)
		if err == nil && inner != nil {
			p.Inner = inner
			p.SubTypeName = inner.PropertyTypeName
		}
	case "MapProperty":
		key, err1 := readInnerField(proc, f.addr, layout, names, objects, depth)
		value, err2 := readValueField(proc, f.addr, layout, names, objects, depth)
		if err1 == nil {
			p.Key = key
		}
		if err2 == nil {
			p.Value = value
		}
	case "BoolProperty":
		mask, byteOff, err := readBoolFieldMask(proc, f.addr, layout)
		if err == nil {
			p.BitMask = mask
			p.Offset = byteOff
		}
	}
	return p, nil
}

// resolveBytePropertyAlias implements the version-gated ByteProperty vs
// EnumProperty disambiguation (§9 Open Question): on builds where
// BytePropertyIsEnumProperty is set, every field whose meta-class reads
// "ByteProperty" is reported as EnumProperty, matching pre-4.15 builds
// that had no dedicated EnumProperty meta-class. The field's Enum
// sub-type is not checked.
func resolveBytePropertyAlias(className string, layout model.LayoutProfile) string {
	if className == "ByteProperty" && layout.BytePropertyIsEnumProperty {
		return "EnumProperty"
	}
	return className
}

// innerFieldAddr / valueFieldAddr locate the pointer slots through which
// ArrayProperty/SetProperty ("Inner") and MapProperty ("Key"/"Value")
// reference their element FProperty structures: 16 and 24 bytes past
// the ElementSize field offset.
func innerFieldAddr(fieldAddr remote.Address, layout model.LayoutProfile) remote.Address {
	return fieldAddr.Add(int64(layout.FPropertyElementSize) + 16)
}

func valueFieldAddr(fieldAddr remote.Address, layout model.LayoutProfile) remote.Address {
	return fieldAddr.Add(int64(layout.FPropertyElementSize) + 24)
}

func readInnerField(proc *remote.Process, fieldAddr remote.Address, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable, depth int) (*model.PropertyInfo, error) {
	innerPtr, err := remote.Read[uint64](proc, innerFieldAddr(fieldAddr, layout))
	if err != nil || innerPtr == 0 {
		return nil, err
	}
	inner, err := decodeInnerAt(proc, remote.Address(innerPtr), layout, names, objects, depth+1)
	if err != nil {
		return nil, err
	}
	return &inner, nil
}

func readValueField(proc *remote.Process, fieldAddr remote.Address, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable, depth int) (*model.PropertyInfo, error) {
	valuePtr, err := remote.Read[uint64](proc, valueFieldAddr(fieldAddr, layout))
	if err != nil || valuePtr == 0 {
		return nil, err
	}
	inner, err := decodeInnerAt(proc, remote.Address(valuePtr), layout, names, objects, depth+1)
	if err != nil {
		return nil, err
	}
	return &inner, nil
}

// decodeInnerAt decodes a property struct that is referenced by pointer
// rather than reached via the field linked list (an Inner/Key/Value
// property). Its own meta-class name comes from the same FFieldClass
// resolution walkFields uses.
func decodeInnerAt(proc *remote.Process, addr remote.Address, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable, depth int) (model.PropertyInfo, error) {
	classPtr, err := remote.Read[uint64](proc, addr.Add(int64(layout.FFieldClassOffset)))
	if err != nil {
		return model.PropertyInfo{}, err
	}
	className := resolveFieldClassName(proc, remote.Address(classPtr), layout, names, objects)
	return decodeProperty(proc, rawField{addr: addr, className: className}, layout, names, objects, depth)
}

// FBoolProperty carries its field mask and a byte offset (for packed
// bitfields) immediately after the shared FProperty header.
func readBoolFieldMask(proc *remote.Process, fieldAddr remote.Address, layout model.LayoutProfile) (mask uint8, byteOffset uint32, err error) {
	base := fieldAddr.Add(int64(layout.FPropertyElementSize) + 8)
	fieldMask, err := remote.Read[uint8](proc, base)
	if err != nil {
		return 0, 0, err
	}
	byteOff, err := remote.Read[uint32](proc, base.Add(1))
	if err != nil {
		return 0, 0, err
	}
	return fieldMask, byteOff, nil
}
