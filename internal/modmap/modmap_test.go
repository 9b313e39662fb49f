// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package modmap

import (
	"testing"

	"github.com/ueinspect/ueinspect/internal/remote"
)

type fakeLister []Module

func (f fakeLister) List(pid int) ([]Module, error) { return []Module(f), nil }

func TestBuildAndContains(t *testing.T) {
	lister := fakeLister{
		{Name: "ShooterGame.exe", Base: 0x140000000, Size: 0x5000000},
		{Name: "ntdll.dll", Base: 0x7fff0000, Size: 0x20000},
	}
	m, err := Build(lister, 1234)
	if err != nil {
		t.Fatalf("Build: %v", err)
	}

	base, ok := m.Base("ShooterGame.exe")
	if !ok || base != 0x140000000 {
		t.Fatalf("Base(ShooterGame.exe) = %v, %v", base, ok)
	}

	if !m.Contains(0x140000000) {
		t.Errorf("Contains(base) = false, want true")
	}
	if !m.Contains(remote.Address(0x140000000 + 0x4fffff)) {
		t.Errorf("Contains(last byte) = false, want true")
	}
	if m.Contains(remote.Address(0x140000000 + 0x5000000)) {
		t.Errorf("Contains(end) = true, want false (exclusive upper bound)")
	}

	main, ok := m.Main()
	if !ok || main.Name != "ShooterGame.exe" {
		t.Fatalf("Main() = %+v, %v, want first module reported by the lister", main, ok)
	}
}
