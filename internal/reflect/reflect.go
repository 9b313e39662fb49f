// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflect

import (
	"strings"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// ClassModel is the enriched reflection data for one Class/ScriptStruct
// object (§4.H).
type ClassModel struct {
	Inheritance []model.InstanceHierarchyNode
	Properties  []model.PropertyInfo
}

const maxSuperHops = 1 << 10 // acyclicity bound, §8 invariant 4

// BuildClass walks structAddr's Super chain and field list, producing
// the enriched model for a Class or ScriptStruct object.
func BuildClass(proc *remote.Process, structAddr remote.Address, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable) (ClassModel, error) {
	var cm ClassModel

	for addr, hops := structAddr, 0; !addr.IsNull() && hops < maxSuperHops; hops++ {
		rec, ok := objects.ByAddress(addr)
		if !ok {
			break
		}
		cm.Inheritance = append(cm.Inheritance, model.InstanceHierarchyNode{
			ClassName: names.Resolve(rec.NameID),
			ClassAddr: addr,
			TypeName:  rec.TypeName,
		})
		superPtr, err := remote.Read[uint64](proc, addr.Add(int64(layout.UStructSuperOffset)))
		if err != nil {
			return cm, err
		}
		addr = remote.Address(superPtr)
	}

	fields, err := walkFields(proc, structAddr, layout, names, objects)
	if err != nil {
		return cm, err
	}
	for _, f := range fields {
		if isParamFlagged(proc, f, layout) {
			continue // function parameters are not struct fields
		}
		prop, err := decodeProperty(proc, f, layout, names, objects, 0)
		if err != nil {
			continue // a single bad field does not fail the whole class (§7)
		}
		cm.Properties = append(cm.Properties, prop)
	}
	return cm, nil
}

// BuildEnum reads a UEnum's Names array of (NameID, int64) pairs (§4.H).
func BuildEnum(proc *remote.Process, enumAddr remote.Address, layout model.LayoutProfile) ([]model.EnumValueEntry, error) {
	dataPtr, err := remote.Read[uint64](proc, enumAddr.Add(int64(layout.UEnumNamesArrayOffset)))
	if err != nil {
		return nil, err
	}
	count, err := remote.Read[uint32](proc, enumAddr.Add(int64(layout.UEnumNamesArrayOffset)+8))
	if err != nil {
		return nil, err
	}

	const entryStride = 16 // FName (8 bytes, only the low NameID half used) + int64 value
	entries := make([]model.EnumValueEntry, 0, count)
	for i := uint32(0); i < count; i++ {
		addr := remote.Address(dataPtr).Add(int64(i) * entryStride)
		nameVal, err := remote.Read[uint32](proc, addr)
		if err != nil {
			break
		}
		value, err := remote.Read[int64](proc, addr.Add(8))
		if err != nil {
			break
		}
		entries = append(entries, model.EnumValueEntry{NameID: model.NameID(nameVal), Value: value})
	}
	return entries, nil
}

// BuildFunction walks a UFunction's parameter list (its own field list,
// just like a class), separating out flagged parameters, and resolves
// exec_offset relative to moduleBase (§4.H).
func BuildFunction(proc *remote.Process, funcAddr remote.Address, ownerID model.ObjectID, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable, moduleBase remote.Address) (model.FunctionInfo, error) {
	fi := model.FunctionInfo{OwnerObjectID: ownerID}

	fields, err := walkFields(proc, funcAddr, layout, names, objects)
	if err != nil {
		return fi, err
	}
	for _, f := range fields {
		flags, err := readPropertyFlags(proc, f.addr, layout)
		if err != nil {
			continue
		}
		if flags&cpfParm == 0 {
			continue
		}
		prop, err := decodeProperty(proc, f, layout, names, objects, 0)
		if err != nil {
			continue
		}
		param := model.FunctionParam{NameID: f.nameID, TypeName: prop.PropertyTypeName, TypeAddress: prop.SubTypeAddress, Flags: flags}
		if flags&cpfReturnParm != 0 {
			fi.ReturnTypeName = prop.PropertyTypeName
			continue
		}
		fi.Params = append(fi.Params, param)
	}

	funcPtr, err := remote.Read[uint64](proc, funcAddr.Add(int64(layout.UFunctionFuncPtrOffset)))
	if err == nil && funcPtr != 0 {
		fi.ExecOffset = uint64(remote.Address(funcPtr).Sub(moduleBase))
	}
	return fi, nil
}

func isParamFlagged(proc *remote.Process, f rawField, layout model.LayoutProfile) bool {
	flags, err := readPropertyFlags(proc, f.addr, layout)
	return err == nil && flags&cpfParm != 0
}

func readPropertyFlags(proc *remote.Process, fieldAddr remote.Address, layout model.LayoutProfile) (uint64, error) {
	// PropertyFlags sits immediately after offset/element-size/array-dim
	// in the shared FProperty header.
	return remote.Read[uint64](proc, fieldAddr.Add(int64(layout.FPropertyOffsetInternal)+4))
}

// IsReflectable reports whether an object's class name marks it as one
// of the four kinds §4.H enriches: Class, ScriptStruct, Function, Enum.
func IsReflectable(className string) (kind string, ok bool) {
	switch {
	case strings.HasSuffix(className, "Class"):
		return "Class", true
	case strings.HasSuffix(className, "ScriptStruct"):
		return "ScriptStruct", true
	case strings.HasSuffix(className, "Function"):
		return "Function", true
	case strings.HasSuffix(className, "Enum"):
		return "Enum", true
	default:
		return "", false
	}
}
