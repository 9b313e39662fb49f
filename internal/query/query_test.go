// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"encoding/binary"
	"testing"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

const (
	pkgAddr       = remote.Address(0x10000)
	classAddr     = remote.Address(0x11000)
	metaClassAddr = remote.Address(0x12000)
	fieldAddr     = remote.Address(0x13000)
	fieldClsAddr  = remote.Address(0x14000)
	instanceAddr  = remote.Address(0x15000)
)

func testLayout() model.LayoutProfile {
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

// buildWorld wires a synthetic "/Script/CoreUObject" package containing a
// single "Object" class with one NameProperty named "Name", plus its
// bootstrapping meta-class "Class", mirroring the fake world
// internal/objarray's tests build but adding a field list.
func buildWorld(t *testing.T) (*Service, model.ObjectRecord) {
	t.Helper()
	b := remote.NewFakeBackend()

	structBuf := func() []byte { return make([]byte, 0x60) }

	classBuf := structBuf()
	binary.LittleEndian.PutUint64(classBuf[0x50:], uint64(fieldAddr)) // ChildrenProperties
	b.AddRegion(classAddr, classBuf)

	metaBuf := structBuf()
	b.AddRegion(metaClassAddr, metaBuf)

	field := make([]byte, 0x60)
	binary.LittleEndian.PutUint64(field[0x10:], uint64(fieldClsAddr)) // FFieldClass
	binary.LittleEndian.PutUint32(field[0x28:], 4)                    // field's own NameID ("Name")
	binary.LittleEndian.PutUint32(field[0x4c:], 0x08)                 // offset_internal
	binary.LittleEndian.PutUint32(field[0x50:], 4)                    // element_size
	binary.LittleEndian.PutUint32(field[0x48:], 1)                    // array_dim
	b.AddRegion(fieldAddr, field)

	fieldCls := make([]byte, 0x10)
	binary.LittleEndian.PutUint32(fieldCls[0x08:], 5) // "NameProperty"
	b.AddRegion(fieldClsAddr, fieldCls)

	inst := make([]byte, 0x10)
	binary.LittleEndian.PutUint32(inst[0x08:], 6) // live Name value, "InstanceName"
	b.AddRegion(instanceAddr, inst)

	proc := remote.New(b, binary.LittleEndian)
	names := storage.NewNameTable([]model.NameEntry{
		{ID: 1, String: "/Script/CoreUObject"},
		{ID: 2, String: "Object"},
		{ID: 3, String: "Class"},
		{ID: 4, String: "Name"},
		{ID: 5, String: "NameProperty"},
		{ID: 6, String: "InstanceName"},
	})

	records := []model.ObjectRecord{
		{ID: 0, Address: pkgAddr, NameID: 1, TypeName: "Package", Name: "/Script/CoreUObject", FullName: "/Script/CoreUObject", Package: "/Script/CoreUObject", Resolved: true},
		{ID: 1, Address: classAddr, ClassPtr: metaClassAddr, OuterPtr: pkgAddr, NameID: 2, TypeName: "Class", Name: "Object", FullName: "/Script/CoreUObject.Object", Package: "/Script/CoreUObject", Resolved: true},
		{ID: 2, Address: metaClassAddr, ClassPtr: metaClassAddr, OuterPtr: pkgAddr, NameID: 3, TypeName: "Class", Name: "Class", FullName: "/Script/CoreUObject.Class", Package: "/Script/CoreUObject", Resolved: true},
	}
	objects := storage.NewObjectTable(records)
	packages := storage.NewPackageIndex([]model.Package{
		{Name: "/Script/CoreUObject", ObjectIDs: []model.ObjectID{0, 1, 2}},
	})

	ctx := storage.NewContext(nil)
	if err := ctx.Names.Set(names); err != nil {
		t.Fatalf("Names.Set: %v", err)
	}
	if err := ctx.Objects.Set(objects); err != nil {
		t.Fatalf("Objects.Set: %v", err)
	}
	if err := ctx.Packages.Set(packages); err != nil {
		t.Fatalf("Packages.Set: %v", err)
	}
	if err := ctx.Layout.Set(testLayout()); err != nil {
		t.Fatalf("Layout.Set: %v", err)
	}

	return &Service{Proc: proc, Ctx: ctx}, records[1]
}

func TestListPackages(t *testing.T) {
	s, _ := buildWorld(t)
	pkgs, err := s.ListPackages()
	if err != nil {
		t.Fatalf("ListPackages: %v", err)
	}
	if len(pkgs) != 1 || pkgs[0].Name != "/Script/CoreUObject" || pkgs[0].ObjectCount != 3 {
		t.Fatalf("ListPackages = %+v", pkgs)
	}
}

func TestListPackagesSortedByName(t *testing.T) {
	ctx := storage.NewContext(nil)
	packages := storage.NewPackageIndex([]model.Package{
		{Name: "/Script/Zeta", ObjectIDs: []model.ObjectID{0}},
		{Name: "/Script/Alpha", ObjectIDs: []model.ObjectID{0, 1}},
		{Name: "/Script/Mid", ObjectIDs: []model.ObjectID{0, 1, 2}},
	})
	if err := ctx.Packages.Set(packages); err != nil {
		t.Fatalf("Packages.Set: %v", err)
	}
	s := &Service{Ctx: ctx}

	pkgs, err := s.ListPackages()
	if err != nil {
		t.Fatalf("ListPackages: %v", err)
	}
	want := []string{"/Script/Alpha", "/Script/Mid", "/Script/Zeta"}
	if len(pkgs) != len(want) {
		t.Fatalf("ListPackages = %+v, want %d entries", pkgs, len(want))
	}
	for i, name := range want {
		if pkgs[i].Name != name {
			t.Fatalf("ListPackages[%d].Name = %q, want %q (out of order: %+v)", i, pkgs[i].Name, name, pkgs)
		}
	}
}

func TestListObjectsOrderedByName(t *testing.T) {
	s, _ := buildWorld(t)
	objs, err := s.ListObjects("/Script/CoreUObject", "Class")
	if err != nil {
		t.Fatalf("ListObjects: %v", err)
	}
	if len(objs) != 2 || objs[0].Name != "Class" || objs[1].Name != "Object" {
		t.Fatalf("ListObjects = %+v, want [Class, Object]", objs)
	}
}

func TestGetObjectDetailsObjectClassHasEmptyInheritance(t *testing.T) {
	s, classRec := buildWorld(t)
	info, err := s.GetObjectDetails(classRec.Address)
	if err != nil {
		t.Fatalf("GetObjectDetails: %v", err)
	}
	if len(info.Inheritance) != 0 {
		t.Errorf("Inheritance = %+v, want empty (S3)", info.Inheritance)
	}
	if len(info.Properties) != 1 || info.Properties[0].PropertyTypeName != "NameProperty" {
		t.Fatalf("Properties = %+v, want one NameProperty", info.Properties)
	}
}

func TestGetInstanceDetailsDecodesNameProperty(t *testing.T) {
	s, classRec := buildWorld(t)
	samples, err := s.GetInstanceDetails(instanceAddr, classRec.Address)
	if err != nil {
		t.Fatalf("GetInstanceDetails: %v", err)
	}
	if len(samples) != 1 {
		t.Fatalf("samples = %+v, want 1", samples)
	}
	if samples[0].PropertyName != "Name" || samples[0].LiveValue != "InstanceName" {
		t.Errorf("samples[0] = %+v, want Name=InstanceName", samples[0])
	}
}

func TestGlobalSearchObjectMode(t *testing.T) {
	s, _ := buildWorld(t)
	// "Class" is unambiguous among this fixture's object names (the
	// other two are "/Script/CoreUObject" and "Object").
	results, err := s.GlobalSearch("Class", "Object")
	if err != nil {
		t.Fatalf("GlobalSearch: %v", err)
	}
	if len(results) != 1 || results[0].ObjectName != "Class" {
		t.Fatalf("results = %+v, want one Class hit", results)
	}
}

func TestAddInspectorReturnsLeafInclusiveChain(t *testing.T) {
	s, classRec := buildWorld(t)
	chain, err := s.AddInspector(classRec.Address)
	if err != nil {
		t.Fatalf("AddInspector: %v", err)
	}
	if len(chain) != 1 || chain[0].ClassName != "Class" {
		t.Fatalf("chain = %+v, want one node named Class", chain)
	}
}
