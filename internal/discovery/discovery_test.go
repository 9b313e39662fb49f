// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package discovery

import (
	"encoding/binary"
	"testing"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
)

func TestSignatureScanResolvesRIPRelativeOperand(t *testing.T) {
	// lea rcx, [rip+0x10]; mov ... at module base 0x1000.
	text := []byte{0x48, 0x8d, 0x0d, 0x10, 0x00, 0x00, 0x00, 0x48, 0x8b, 0x00}
	s := &Scanner{Signatures: namePoolSignatures}
	cands := s.Scan(0x1000, text)
	if len(cands) == 0 {
		t.Fatal("Scan found no candidates")
	}
	// instruction at 0x1000, length 7, disp 0x10 -> 0x1000+7+0x10 = 0x1017
	want := remote.Address(0x1017)
	found := false
	for _, c := range cands {
		if c.Resolved == want {
			found = true
		}
	}
	if !found {
		t.Errorf("candidates = %+v, want one resolving to %s", cands, want)
	}
}

func TestCheckValueNumericExact(t *testing.T) {
	b := remote.NewFakeBackend()
	buf := make([]byte, 64)
	binary.LittleEndian.PutUint32(buf[32:], 24) // uobject_item_size sentinel
	b.AddRegion(0x5000, buf)
	proc := remote.New(b, binary.LittleEndian)

	cv := &CheckValue{
		Pivot:      0x5000 + 32,
		WindowSize: 32,
		Stride:     4,
		Numeric:    &NumericPredicate{Width: 4, Value: 24},
	}
	addr, ok := cv.Run(proc)
	if !ok || addr != 0x5000+32 {
		t.Fatalf("Run() = %s, %v, want 0x5020, true", addr, ok)
	}
}

func TestCheckValueStringSentinel(t *testing.T) {
	b := remote.NewFakeBackend()
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], 1) // unresolvable name id at offset 0
	binary.LittleEndian.PutUint32(buf[4:], 0) // name id 0 at offset 4
	b.AddRegion(0x6000, buf)
	proc := remote.New(b, binary.LittleEndian)

	resolve := func(proc *remote.Process, id model.NameID) (string, bool) {
		if id == 0 {
			return "None", true
		}
		return "", false
	}
	cv := &CheckValue{
		Pivot:      0x6000 + 4,
		WindowSize: 8,
		Stride:     4,
		String:     &StringPredicate{Sentinel: "None", Resolve: resolve},
	}
	addr, ok := cv.Run(proc)
	if !ok || addr != 0x6004 {
		t.Fatalf("Run() = %s, %v, want 0x6004, true", addr, ok)
	}
}

func TestValidateNamePoolRejectsGarbage(t *testing.T) {
	b := remote.NewFakeBackend()
	b.AddRegion(0x7000, []byte{0, 0, 0, 0, 0, 0, 0, 0}) // null Blocks pointer
	proc := remote.New(b, binary.LittleEndian)

	v := ValidateNamePool(model.LayoutProfile{NameEntryHeaderSize: 2, NameHeaderEncodesLength: true})
	if v(proc, 0x7000) {
		t.Error("ValidateNamePool accepted a null Blocks pointer")
	}
}
