// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package storage

import (
	"sort"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/modmap"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// NameTable is the write-once NameID -> string map the NamePool parser
// installs (§4.F).
type NameTable struct {
	byID map[model.NameID]string
}

// NewNameTable builds a NameTable from parsed entries.
func NewNameTable(entries []model.NameEntry) *NameTable {
	t := &NameTable{byID: make(map[model.NameID]string, len(entries))}
	for _, e := range entries {
		t.byID[e.ID] = e.String
	}
	return t
}

// Resolve returns the string for id, or "None" if id is unknown — every
// name-id lookup in this inspector goes through this method (§4.H).
func (t *NameTable) Resolve(id model.NameID) string {
	if s, ok := t.byID[id]; ok {
		return s
	}
	return "None"
}

// Len reports how many names are installed.
func (t *NameTable) Len() int { return len(t.byID) }

// ObjectTable is the write-once ObjectID -> ObjectRecord table the
// GUObjectArray parser installs (§4.G), plus its address->id index.
type ObjectTable struct {
	byID      []model.ObjectRecord // indexed directly by ObjectID
	byAddress map[remote.Address]model.ObjectID
}

// NewObjectTable builds an ObjectTable and its address index.
func NewObjectTable(records []model.ObjectRecord) *ObjectTable {
	t := &ObjectTable{
		byID:      records,
		byAddress: make(map[remote.Address]model.ObjectID, len(records)),
	}
	for _, r := range records {
		if r.Resolved && !r.Address.IsNull() {
			t.byAddress[r.Address] = r.ID
		}
	}
	return t
}

// Get returns the record for id.
func (t *ObjectTable) Get(id model.ObjectID) (model.ObjectRecord, bool) {
	if int(id) < 0 || int(id) >= len(t.byID) {
		return model.ObjectRecord{}, false
	}
	r := t.byID[id]
	return r, r.Resolved
}

// ByAddress returns the record whose UObject address is addr.
func (t *ObjectTable) ByAddress(addr remote.Address) (model.ObjectRecord, bool) {
	id, ok := t.byAddress[addr]
	if !ok {
		return model.ObjectRecord{}, false
	}
	return t.Get(id)
}

// All iterates every resolved record, in ObjectID order.
func (t *ObjectTable) All() []model.ObjectRecord {
	out := make([]model.ObjectRecord, 0, len(t.byID))
	for _, r := range t.byID {
		if r.Resolved {
			out = append(out, r)
		}
	}
	return out
}

// PackageIndex maps package name to its Package record (§3).
type PackageIndex struct {
	byName map[string]model.Package
	names  []string // sorted ascending
}

// NewPackageIndex builds a PackageIndex from packages.
func NewPackageIndex(packages []model.Package) *PackageIndex {
	idx := &PackageIndex{byName: make(map[string]model.Package, len(packages))}
	for _, p := range packages {
		idx.byName[p.Name] = p
		idx.names = append(idx.names, p.Name)
	}
	sort.Strings(idx.names)
	return idx
}

// Names returns all package names, ascending.
func (p *PackageIndex) Names() []string { return p.names }

// Get returns the Package record for name.
func (p *PackageIndex) Get(name string) (model.Package, bool) {
	pkg, ok := p.byName[name]
	return pkg, ok
}

// Context is the process-wide set of latches for one attach. It is
// constructed fresh on attach_to_process and dropped on detach; no
// ambient state survives across attaches (§9 Design Notes).
type Context struct {
	ModuleMap *modmap.Map

	Version  *Latch[int] // UE major version, e.g. 4 or 5
	Layout   *Latch[model.LayoutProfile]
	FNamePool *Latch[remote.Address]
	GUObjectArray *Latch[remote.Address]
	GWorld   *Latch[remote.Address]

	Names        *Latch[*NameTable]
	Objects      *Latch[*ObjectTable]
	Packages     *Latch[*PackageIndex]
}

// NewContext builds an empty Context for a freshly attached process.
func NewContext(modules *modmap.Map) *Context {
	return &Context{
		ModuleMap:     modules,
		Version:       NewLatch[int]("version"),
		Layout:        NewLatch[model.LayoutProfile]("layout"),
		FNamePool:     NewLatch[remote.Address]("fname-pool"),
		GUObjectArray: NewLatch[remote.Address]("guobject-array"),
		GWorld:        NewLatch[remote.Address]("gworld"),
		Names:         NewLatch[*NameTable]("names"),
		Objects:       NewLatch[*ObjectTable]("objects"),
		Packages:      NewLatch[*PackageIndex]("packages"),
	}
}
