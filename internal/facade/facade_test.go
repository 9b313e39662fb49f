// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package facade

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/modmap"
	"github.com/ueinspect/ueinspect/internal/query"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// unattached returns a Facade that has never seen AttachToProcess, the
// state every command must reject with NotAttached.
func unattached() *Facade {
	return New(8)
}

func TestCommandsRejectUnattached(t *testing.T) {
	f := unattached()

	if _, err := f.ShowBaseAddress(); !isNotAttached(err) {
		t.Errorf("ShowBaseAddress: err = %v, want NotAttached", err)
	}
	if _, err := f.GetUEVersion(context.Background()); !isNotAttached(err) {
		t.Errorf("GetUEVersion: err = %v, want NotAttached", err)
	}
	if _, err := f.GetFNamePoolAddress(); !isNotAttached(err) {
		t.Errorf("GetFNamePoolAddress: err = %v, want NotAttached", err)
	}
	if _, err := f.ParseFNamePool(context.Background()); !isNotAttached(err) {
		t.Errorf("ParseFNamePool: err = %v, want NotAttached", err)
	}
	if _, err := f.GetPackages(); !isNotAttached(err) {
		t.Errorf("GetPackages: err = %v, want NotAttached", err)
	}
}

func isNotAttached(err error) bool {
	_, ok := err.(query.NotAttached)
	return ok
}

// attachedFixture builds a Facade whose proc/ctx are wired directly to a
// synthetic single-block NamePool (no GUObjectArray is built), bypassing
// AttachToProcess (which needs a real OS pid) — the module-map and attach
// bookkeeping are irrelevant to exercising ParseFNamePool's coalescing
// and ParseGUObjectArray's names prerequisite.
func attachedFixture(t *testing.T) *Facade {
	t.Helper()
	b := remote.NewFakeBackend()
	l := model.LayoutProfile{
		NameBlockStride:         0x10000,
		NameEntryHeaderSize:     1,
		NameHeaderEncodesLength: true,
	}

	const poolBase = remote.Address(0x9000)
	const blocksArray = remote.Address(0xa000)
	const block0Addr = remote.Address(0xb000)

	block0 := []byte{4, 'N', 'o', 'n', 'e'}
	for len(block0)%4 != 0 {
		block0 = append(block0, 0)
	}

	hdr := make([]byte, 16)
	binary.LittleEndian.PutUint64(hdr[0:], uint64(blocksArray))
	binary.LittleEndian.PutUint32(hdr[8:], 0)
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(block0)))
	b.AddRegion(poolBase, hdr)

	ptrs := make([]byte, 8)
	binary.LittleEndian.PutUint64(ptrs[0:], uint64(block0Addr))
	b.AddRegion(blocksArray, ptrs)
	b.AddRegion(block0Addr, block0)

	proc := remote.New(b, binary.LittleEndian)
	mm, err := modmap.Build(fakeLister{}, 1)
	if err != nil {
		t.Fatalf("modmap.Build: %v", err)
	}
	ctx := storage.NewContext(mm)

	f := New(8)
	f.proc = proc
	f.moduleMap = mm
	f.ctx = ctx
	f.svc = &query.Service{Proc: proc, Ctx: ctx}

	if err := ctx.Layout.Set(l); err != nil {
		t.Fatalf("Layout.Set: %v", err)
	}
	if err := ctx.FNamePool.Set(poolBase); err != nil {
		t.Fatalf("FNamePool.Set: %v", err)
	}
	return f
}

type fakeLister struct{}

func (fakeLister) List(pid int) ([]modmap.Module, error) {
	return []modmap.Module{{Name: "Game.exe", Base: 0x1000, Size: 0x1000}}, nil
}

func TestParseFNamePoolCoalescesOnRepeatedCalls(t *testing.T) {
	f := attachedFixture(t)

	n1, err := f.ParseFNamePool(context.Background())
	if err != nil {
		t.Fatalf("first ParseFNamePool: %v", err)
	}
	if n1 != 1 {
		t.Fatalf("first ParseFNamePool = %d, want 1", n1)
	}

	n2, err := f.ParseFNamePool(context.Background())
	if err != nil {
		t.Fatalf("second ParseFNamePool: %v", err)
	}
	if n2 != n1 {
		t.Errorf("second ParseFNamePool = %d, want %d (cached)", n2, n1)
	}
}

func TestParseGUObjectArrayRequiresNamesFirst(t *testing.T) {
	f := attachedFixture(t)
	if err := f.ctx.GUObjectArray.Set(0x1234); err != nil {
		t.Fatalf("GUObjectArray.Set: %v", err)
	}

	_, err := f.ParseGUObjectArray(context.Background())
	nr, ok := err.(*query.NotReady)
	if !ok || nr.Component != "names" {
		t.Fatalf("ParseGUObjectArray before names parsed: err = %v, want NotReady{names}", err)
	}
}

func TestEmitNeverBlocksOnFullChannel(t *testing.T) {
	f := New(2)
	for i := 0; i < 10; i++ {
		f.emit(Event{Kind: EventProcessSelected, ProcessSelected: &ProcessSelected{PID: i}})
	}
	// No assertion beyond "this returned" — emit must never block even
	// once the buffered channel fills, per §5's drop-when-full rule.
}

func TestCurrentLayoutNotReadyBeforeVersionDetected(t *testing.T) {
	f := attachedFixture(t)
	f.ctx.Layout = storage.NewLatch[model.LayoutProfile]("layout")

	if _, err := f.currentLayout(); err == nil {
		t.Fatal("currentLayout with unset Layout latch: want error")
	}
}
