// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package reflect

import (
	"encoding/binary"
	"testing"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

func ue425Layout() model.LayoutProfile {
	return model.LayoutProfile{
		UObjectFieldsAreFProperty: true,
		UStructSuperOffset:        0x40,
		UStructChildrenOffset:     0x48,
		UStructChildrenPropsOffset: 0x50,
		FFieldNextOffset:          0x20,
		FFieldNameOffset:          0x28,
		FFieldClassOffset:         0x10,
		FPropertyOffsetInternal:   0x4c,
		FPropertyElementSize:      0x50,
		FPropertyArrayDim:         0x48,
	}
}

// TestBuildClassInheritanceTerminatesAtObject implements S3: after
// parse, the "Object" class has an empty inheritance chain of its own
// supers (its Super pointer is null) and is itself returned as the one
// node in the chain rooted at it.
func TestBuildClassInheritanceTerminatesAtObject(t *testing.T) {
	b := remote.NewFakeBackend()
	layout := ue425Layout()

	const objectClassAddr = remote.Address(0x100000)
	buf := make([]byte, 0x60)
	// Super = null, ChildProperties = null (no fields for this test).
	b.AddRegion(objectClassAddr, buf)

	proc := remote.New(b, binary.LittleEndian)
	names := storage.NewNameTable([]model.NameEntry{{ID: 5, String: "Object"}})
	objects := storage.NewObjectTable([]model.ObjectRecord{
		{ID: 0, Address: objectClassAddr, NameID: 5, TypeName: "Class", Resolved: true},
	})

	cm, err := BuildClass(proc, objectClassAddr, layout, names, objects)
	if err != nil {
		t.Fatalf("BuildClass: %v", err)
	}
	if len(cm.Inheritance) != 1 || cm.Inheritance[0].ClassName != "Object" {
		t.Fatalf("Inheritance = %+v, want one node named Object", cm.Inheritance)
	}
}

func TestBuildEnumReadsNamesArray(t *testing.T) {
	b := remote.NewFakeBackend()
	layout := model.LayoutProfile{UEnumNamesArrayOffset: 0x40}

	const enumAddr = remote.Address(0x200000)
	const dataAddr = remote.Address(0x210000)
	hdr := make([]byte, 0x50)
	binary.LittleEndian.PutUint64(hdr[0x40:], uint64(dataAddr))
	binary.LittleEndian.PutUint32(hdr[0x48:], 2)
	b.AddRegion(enumAddr, hdr)

	data := make([]byte, 32)
	binary.LittleEndian.PutUint32(data[0:], 10)
	binary.LittleEndian.PutUint64(data[8:], 0)
	binary.LittleEndian.PutUint32(data[16:], 11)
	binary.LittleEndian.PutUint64(data[24:], 1)
	b.AddRegion(dataAddr, data)

	proc := remote.New(b, binary.LittleEndian)
	entries, err := BuildEnum(proc, enumAddr, layout)
	if err != nil {
		t.Fatalf("BuildEnum: %v", err)
	}
	if len(entries) != 2 || entries[0].NameID != 10 || entries[1].Value != 1 {
		t.Fatalf("entries = %+v, want [{10 0} {11 1}]", entries)
	}
}

func TestResolveBytePropertyAliasPre415(t *testing.T) {
	layout := model.LayoutProfile{BytePropertyIsEnumProperty: true}
	if got := resolveBytePropertyAlias("ByteProperty", layout); got != "EnumProperty" {
		t.Errorf("resolveBytePropertyAlias = %q, want EnumProperty", got)
	}
	layout.BytePropertyIsEnumProperty = false
	if got := resolveBytePropertyAlias("ByteProperty", layout); got != "ByteProperty" {
		t.Errorf("resolveBytePropertyAlias = %q, want ByteProperty", got)
	}
}
