// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package remote

import (
	"encoding/binary"
	"errors"
	"testing"
)

func newTestProcess() (*Process, *FakeBackend) {
	b := NewFakeBackend()
	return New(b, binary.LittleEndian), b
}

func TestReadBytes(t *testing.T) {
	p, b := newTestProcess()
	b.AddRegion(0x1000, []byte{1, 2, 3, 4, 5, 6, 7, 8})

	got, err := p.ReadBytes(0x1002, 4)
	if err != nil {
		t.Fatalf("ReadBytes: %v", err)
	}
	want := []byte{3, 4, 5, 6}
	if string(got) != string(want) {
		t.Errorf("ReadBytes = %v, want %v", got, want)
	}
}

func TestReadBytesFault(t *testing.T) {
	p, _ := newTestProcess()
	_, err := p.ReadBytes(0xdeadbeef, 8)
	var rf *ReadFault
	if !errors.As(err, &rf) {
		t.Fatalf("expected *ReadFault, got %v (%T)", err, err)
	}
	if rf.Address != 0xdeadbeef || rf.Length != 8 {
		t.Errorf("ReadFault = %+v, want address=0xdeadbeef length=8", rf)
	}
}

func TestReadIntegers(t *testing.T) {
	p, b := newTestProcess()
	buf := make([]byte, 16)
	binary.LittleEndian.PutUint32(buf[0:], 0x11223344)
	binary.LittleEndian.PutUint64(buf[8:], 0x0102030405060708)
	b.AddRegion(0x2000, buf)

	if got, err := Read[uint32](p, 0x2000); err != nil || got != 0x11223344 {
		t.Errorf("Read[uint32] = %x, %v, want 0x11223344, nil", got, err)
	}
	if got, err := Read[uint64](p, 0x2008); err != nil || got != 0x0102030405060708 {
		t.Errorf("Read[uint64] = %x, %v, want 0x0102030405060708, nil", got, err)
	}
}

func TestReadCString(t *testing.T) {
	p, b := newTestProcess()
	data := append([]byte("ObjectProperty"), 0, 'x', 'x')
	b.AddRegion(0x3000, data)

	s, err := p.ReadCString(0x3000, 64)
	if err != nil {
		t.Fatalf("ReadCString: %v", err)
	}
	if s != "ObjectProperty" {
		t.Errorf("ReadCString = %q, want %q", s, "ObjectProperty")
	}
}

func TestIsPointer(t *testing.T) {
	p, b := newTestProcess()
	b.AddRegion(0x4000, []byte{0})

	if !p.IsPointer(0x4000) {
		t.Errorf("IsPointer(0x4000) = false, want true")
	}
	if p.IsPointer(0x5000) {
		t.Errorf("IsPointer(0x5000) = true, want false")
	}
	if p.IsPointer(0) {
		t.Errorf("IsPointer(0) = true, want false")
	}
}
