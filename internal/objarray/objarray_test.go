// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package objarray

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// fakeWorld wires up a minimal GUObjectArray with three objects: a
// Package ("/Script/CoreUObject"), a Class object named "Object" whose
// outer is the package, and that Class's own class pointer (a
// bootstrapping UClass-of-UClass, pointed at itself the way UE's "Class"
// class is its own class).
type fakeWorld struct {
	backend *remote.FakeBackend
	proc    *remote.Process
	layout  model.LayoutProfile
	names   *storage.NameTable
}

func buildFakeWorld(t *testing.T) (fakeWorld, remote.Address) {
	t.Helper()
	b := remote.NewFakeBackend()
	layout := model.LayoutProfile{UObjectItemSize: 24, UObjectItemObjectOffset: 0}

	const arrayBase = remote.Address(0x10000)
	const chunkTable = remote.Address(0x20000)
	const chunk0 = remote.Address(0x30000)
	const pkgObj = remote.Address(0x40000)
	const classObj = remote.Address(0x41000)
	const metaClassObj = remote.Address(0x42000)

	hdr := make([]byte, 24)
	binary.LittleEndian.PutUint64(hdr[objectsPtrOffset:], uint64(chunkTable))
	binary.LittleEndian.PutUint32(hdr[numElementsOffset:], 3)
	binary.LittleEndian.PutUint32(hdr[numChunksOffset:], 1)
	b.AddRegion(arrayBase, hdr)

	ptrs := make([]byte, 8)
	binary.LittleEndian.PutUint64(ptrs, uint64(chunk0))
	b.AddRegion(chunkTable, ptrs)

	writeItem := func(base remote.Address, obj remote.Address) {
		item := make([]byte, layout.UObjectItemSize)
		binary.LittleEndian.PutUint64(item, uint64(obj))
		b.AddRegion(base, item)
	}
	writeItem(chunk0.Add(0*int64(layout.UObjectItemSize)), pkgObj)
	writeItem(chunk0.Add(1*int64(layout.UObjectItemSize)), classObj)
	writeItem(chunk0.Add(2*int64(layout.UObjectItemSize)), metaClassObj)

	writeUObject := func(addr remote.Address, index uint32, class, outer remote.Address, nameID uint32) {
		buf := make([]byte, 0x30)
		binary.LittleEndian.PutUint32(buf[model.UObjectFlagsOffset:], 0)
		binary.LittleEndian.PutUint32(buf[model.UObjectIndexOffset:], index)
		binary.LittleEndian.PutUint64(buf[model.UObjectClassOffset:], uint64(class))
		binary.LittleEndian.PutUint64(buf[model.UObjectNameOffset:], 0) // overwritten below
		binary.LittleEndian.PutUint32(buf[model.UObjectNameOffset:], nameID)
		binary.LittleEndian.PutUint64(buf[model.UObjectOuterOffset:], uint64(outer))
		b.AddRegion(addr, buf)
	}
	// Package has no outer, its own "class" is metaClassObj (a stand-in
	// for UClass's UClass, pointed at itself below).
	writeUObject(pkgObj, 0, metaClassObj, 0, 1 /* "/Script/CoreUObject" */)
	writeUObject(classObj, 1, metaClassObj, pkgObj, 2 /* "Object" */)
	writeUObject(metaClassObj, 2, metaClassObj, pkgObj, 3 /* "Class" */)

	proc := remote.New(b, binary.LittleEndian)
	names := storage.NewNameTable([]model.NameEntry{
		{ID: 1, String: "/Script/CoreUObject"},
		{ID: 2, String: "Object"},
		{ID: 3, String: "Class"},
	})
	return fakeWorld{backend: b, proc: proc, layout: layout, names: names}, arrayBase
}

func TestParseAndEnrich(t *testing.T) {
	w, arrayBase := buildFakeWorld(t)

	var progress []Progress
	res, err := Parse(context.Background(), w.proc, arrayBase, w.layout, func(p Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Records) != 3 {
		t.Fatalf("got %d records, want 3", len(res.Records))
	}
	for _, r := range res.Records {
		if !r.Resolved {
			t.Errorf("record %d did not resolve", r.ID)
		}
	}
	if len(progress) != 1 || progress[0].CurrentObjects != 3 {
		t.Errorf("progress = %+v, want one event with CurrentObjects=3", progress)
	}

	enriched, packages := Enrich(res.Records, w.names)
	classRec := enriched[1]
	if classRec.TypeName != "Class" {
		t.Errorf("classRec.TypeName = %q, want Class", classRec.TypeName)
	}
	if classRec.FullName != "/Script/CoreUObject.Object" {
		t.Errorf("classRec.FullName = %q, want /Script/CoreUObject.Object", classRec.FullName)
	}
	if classRec.Package != "/Script/CoreUObject" {
		t.Errorf("classRec.Package = %q, want /Script/CoreUObject", classRec.Package)
	}
	if len(packages) != 1 || packages[0].Name != "/Script/CoreUObject" {
		t.Fatalf("packages = %+v, want one /Script/CoreUObject package", packages)
	}
	if len(packages[0].ObjectIDs) != 3 {
		t.Errorf("package has %d objects, want 3 (incl. the package's own record)", len(packages[0].ObjectIDs))
	}
}

func TestParseSkipsNullChunkPointer(t *testing.T) {
	b := remote.NewFakeBackend()
	layout := model.LayoutProfile{UObjectItemSize: 24}
	const arrayBase = remote.Address(0x50000)
	const chunkTable = remote.Address(0x51000)

	hdr := make([]byte, 24)
	binary.LittleEndian.PutUint64(hdr[objectsPtrOffset:], uint64(chunkTable))
	binary.LittleEndian.PutUint32(hdr[numElementsOffset:], 0)
	binary.LittleEndian.PutUint32(hdr[numChunksOffset:], 1)
	b.AddRegion(arrayBase, hdr)
	ptrs := make([]byte, 8) // null chunk pointer
	b.AddRegion(chunkTable, ptrs)

	proc := remote.New(b, binary.LittleEndian)
	res, err := Parse(context.Background(), proc, arrayBase, layout, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Records) != 0 {
		t.Errorf("got %d records from a null chunk, want 0", len(res.Records))
	}
}
