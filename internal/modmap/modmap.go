// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package modmap tracks the loaded modules of an attached target process:
// their base addresses and sizes, and the "is this address inside some
// module" test discovery (internal/discovery) and the reflection model
// both depend on. It mirrors the role golang.org/x/debug's core.Mapping
// table plays for core files, but for the live modules of a running
// process rather than core-file VM mappings.
package modmap

import (
	"fmt"
	"sort"

	"github.com/ueinspect/ueinspect/internal/remote"
)

// Module describes one loaded module (the main executable or a DLL/shared
// object) in the target's address space.
type Module struct {
	Name string
	Base remote.Address
	Size uint64
}

func (m Module) contains(addr remote.Address) bool {
	end := m.Base.Add(int64(m.Size))
	return addr >= m.Base && addr < end
}

// Lister enumerates the modules currently loaded in a target process.
// lister_linux.go and lister_windows.go provide OS-specific
// implementations; tests use a static fakeLister.
type Lister interface {
	List(pid int) ([]Module, error)
}

// Map is a snapshot of a target's loaded modules, built once on attach
// and rebuilt only on re-attach (§4.B).
type Map struct {
	modules  []Module // sorted by base address
	byName   map[string]Module
	mainName string // name of the first module the lister reported (the main executable)
}

// Build enumerates pid's modules via lister and returns an immutable Map.
// The lister is expected to report the main executable first, which is
// the convention CreateToolhelp32Snapshot and /proc/<pid>/maps both follow.
func Build(lister Lister, pid int) (*Map, error) {
	mods, err := lister.List(pid)
	if err != nil {
		return nil, fmt.Errorf("modmap: list modules for pid %d: %w", pid, err)
	}
	m := &Map{
		modules: append([]Module(nil), mods...),
		byName:  make(map[string]Module, len(mods)),
	}
	if len(mods) > 0 {
		m.mainName = mods[0].Name
	}
	sort.Slice(m.modules, func(i, j int) bool { return m.modules[i].Base < m.modules[j].Base })
	for _, mod := range mods {
		m.byName[mod.Name] = mod
	}
	return m, nil
}

// Base returns the base address of the named module, or false if no such
// module is loaded.
func (m *Map) Base(name string) (remote.Address, bool) {
	mod, ok := m.byName[name]
	if !ok {
		return 0, false
	}
	return mod.Base, true
}

// Module returns the full record for the named module.
func (m *Map) Module(name string) (Module, bool) {
	mod, ok := m.byName[name]
	return mod, ok
}

// Modules returns all loaded modules, ordered by base address.
func (m *Map) Modules() []Module {
	return m.modules
}

// Contains reports whether addr lies inside any loaded module's
// [base, base+size) range.
func (m *Map) Contains(addr remote.Address) bool {
	for _, mod := range m.modules {
		if mod.contains(addr) {
			return true
		}
	}
	return false
}

// Main returns the first-loaded module, conventionally the main
// executable (the module signature scanning (§4.E) runs against).
func (m *Map) Main() (Module, bool) {
	if m.mainName == "" {
		return Module{}, false
	}
	return m.byName[m.mainName], true
}
