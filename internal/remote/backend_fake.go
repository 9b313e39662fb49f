// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package remote

import "fmt"

// FakeBackend is an in-memory Backend used by tests throughout this
// module (see internal/discovery, internal/namepool, internal/objarray),
// the way internal/gocore/testdata synthesizes a fake heap for gocore's
// tests instead of driving a real core file.
type FakeBackend struct {
	regions []fakeRegion
	closed  bool
}

type fakeRegion struct {
	base Address
	data []byte
}

// NewFakeBackend returns an empty fake target.
func NewFakeBackend() *FakeBackend {
	return &FakeBackend{}
}

// AddRegion installs a readable region of memory starting at base.
func (f *FakeBackend) AddRegion(base Address, data []byte) {
	f.regions = append(f.regions, fakeRegion{base: base, data: data})
}

func (f *FakeBackend) ReadAt(addr Address, buf []byte) error {
	if f.closed {
		return fmt.Errorf("fake backend: read after close")
	}
	for _, r := range f.regions {
		end := r.base.Add(int64(len(r.data)))
		if addr < r.base || addr >= end {
			continue
		}
		off := addr.Sub(r.base)
		avail := int64(len(r.data)) - off
		if avail < int64(len(buf)) {
			return fmt.Errorf("fake backend: read at %s overruns region (avail %d, want %d)", addr, avail, len(buf))
		}
		copy(buf, r.data[off:off+int64(len(buf))])
		return nil
	}
	return fmt.Errorf("fake backend: %s not mapped", addr)
}

func (f *FakeBackend) Close() error {
	f.closed = true
	return nil
}
