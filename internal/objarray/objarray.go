// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package objarray implements the chunked GUObjectArray walk (§4.G): it
// reads the chunk-pointer table, decodes each FUObjectItem, cross-
// validates the UObject it points to, and (in a second pass) enriches
// every record with its type name, dotted full name, and owning
// package. This mirrors the two-pass shape of internal/gocore's
// markObjects (mark reachable objects) followed by a naming pass, but
// walks a fixed-size chunked array rather than tracing a GC heap.
package objarray

import (
	"context"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// NumElementsPerChunk matches FChunkedFixedUObjectArray's compile-time
// constant across every engine version this inspector targets.
const NumElementsPerChunk = 64 * 1024

// GUObjectArray header field offsets. These are stable across UE 4.x/5.x
// and are not part of model.LayoutProfile, unlike the UObject/UStruct/
// FField offsets which vary by engine generation.
const (
	objectsPtrOffset  = 0x00
	maxElementsOffset = 0x08
	numElementsOffset = 0x0c
	maxChunksOffset   = 0x10
	numChunksOffset   = 0x14
)

// Progress is emitted once per fully-walked chunk (§4.G).
type Progress struct {
	CurrentChunk   int
	TotalChunks    int
	CurrentObjects int
	TotalObjects   int
}

// Result is everything Parse produces, before the enrichment pass.
type Result struct {
	Records []model.ObjectRecord
}

// Parse walks GUObjectArray at arrayBase and returns one ObjectRecord per
// slot (resolved or not), reporting Progress after each chunk. ctx is
// checked between chunks.
func Parse(ctx context.Context, proc *remote.Process, arrayBase remote.Address, layout model.LayoutProfile, onProgress func(Progress)) (Result, error) {
	objectsPtr, err := remote.Read[uint64](proc, arrayBase.Add(objectsPtrOffset))
	if err != nil {
		return Result{}, err
	}
	numElements, err := remote.Read[uint32](proc, arrayBase.Add(numElementsOffset))
	if err != nil {
		return Result{}, err
	}
	numChunks, err := remote.Read[uint32](proc, arrayBase.Add(numChunksOffset))
	if err != nil {
		return Result{}, err
	}

	var res Result
	slot := 0
	for chunk := 0; chunk < int(numChunks); chunk++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		chunkPtrAddr := remote.Address(objectsPtr).Add(int64(chunk) * 8)
		chunkPtr, err := remote.Read[uint64](proc, chunkPtrAddr)
		if err != nil {
			return res, err
		}
		if chunkPtr == 0 {
			for i := 0; i < NumElementsPerChunk && slot < int(numElements); i, slot = i+1, slot+1 {
				res.Records = append(res.Records, model.ObjectRecord{ID: model.ObjectID(slot)})
			}
			if onProgress != nil {
				onProgress(Progress{CurrentChunk: chunk + 1, TotalChunks: int(numChunks), CurrentObjects: len(res.Records), TotalObjects: int(numElements)})
			}
			continue
		}

		for i := 0; i < NumElementsPerChunk && slot < int(numElements); i, slot = i+1, slot+1 {
			itemAddr := remote.Address(chunkPtr).Add(int64(i) * int64(layout.UObjectItemSize))
			rec, ok := readItem(proc, itemAddr, layout, model.ObjectID(slot))
			if !ok {
				res.Records = append(res.Records, model.ObjectRecord{ID: model.ObjectID(slot)})
				continue
			}
			res.Records = append(res.Records, rec)
		}

		if onProgress != nil {
			onProgress(Progress{
				CurrentChunk:   chunk + 1,
				TotalChunks:    int(numChunks),
				CurrentObjects: len(res.Records),
				TotalObjects:   int(numElements),
			})
		}
	}
	return res, nil
}

// readItem reads one FUObjectItem and, if its Object slot is non-null,
// the UObject header it points to, cross-validating per §4.G.
func readItem(proc *remote.Process, itemAddr remote.Address, layout model.LayoutProfile, id model.ObjectID) (model.ObjectRecord, bool) {
	objAddr, err := remote.Read[uint64](proc, itemAddr.Add(int64(layout.UObjectItemObjectOffset)))
	if err != nil || objAddr == 0 {
		return model.ObjectRecord{}, false
	}
	addr := remote.Address(objAddr)

	flags, err := remote.Read[uint32](proc, addr.Add(model.UObjectFlagsOffset))
	if err != nil {
		return model.ObjectRecord{}, false
	}
	internalIndex, err := remote.Read[uint32](proc, addr.Add(model.UObjectIndexOffset))
	if err != nil {
		return model.ObjectRecord{}, false
	}
	if internalIndex != uint32(id) {
		return model.ObjectRecord{}, false // cross-validation failure (§4.G)
	}
	classPtr, err := remote.Read[uint64](proc, addr.Add(model.UObjectClassOffset))
	if err != nil || !validPointer(proc, remote.Address(classPtr)) {
		return model.ObjectRecord{}, false
	}
	outerPtr, err := remote.Read[uint64](proc, addr.Add(model.UObjectOuterOffset))
	if err != nil || !validPointer(proc, remote.Address(outerPtr)) {
		return model.ObjectRecord{}, false
	}
	nameID, err := remote.Read[uint32](proc, addr.Add(model.UObjectNameOffset))
	if err != nil {
		return model.ObjectRecord{}, false
	}

	return model.ObjectRecord{
		ID:       id,
		Address:  addr,
		ClassPtr: remote.Address(classPtr),
		OuterPtr: remote.Address(outerPtr),
		NameID:   model.NameID(nameID),
		Flags:    model.ObjectFlags(flags),
		Resolved: true,
	}, true
}

// validPointer accepts null (a valid "no value") or a readable address.
func validPointer(proc *remote.Process, addr remote.Address) bool {
	return addr.IsNull() || proc.IsPointer(addr)
}

// Enrich runs the second pass described in §4.G: it resolves each
// record's TypeName (the leaf class name), FullName (the outer-chain
// dotted path, §3), and groups records into storage.PackageIndex
// packages keyed by root outer.
func Enrich(records []model.ObjectRecord, names *storage.NameTable) ([]model.ObjectRecord, []model.Package) {
	byAddr := make(map[remote.Address]int, len(records))
	for i, r := range records {
		if r.Resolved {
			byAddr[r.Address] = i
		}
	}

	out := make([]model.ObjectRecord, len(records))
	copy(out, records)

	for i := range out {
		if !out[i].Resolved {
			continue
		}
		out[i].Name = names.Resolve(out[i].NameID)
		out[i].TypeName = classLeafName(out[i].ClassPtr, byAddr, out, names)
		out[i].FullName, out[i].Package = fullName(out[i], byAddr, out, names)
	}

	packages := make(map[string]*model.Package)
	var order []string
	for _, r := range out {
		if !r.Resolved || r.Package == "" {
			continue
		}
		p, ok := packages[r.Package]
		if !ok {
			p = &model.Package{Name: r.Package}
			packages[r.Package] = p
			order = append(order, r.Package)
		}
		p.ObjectIDs = append(p.ObjectIDs, r.ID)
	}
	pkgs := make([]model.Package, 0, len(order))
	for _, n := range order {
		pkgs = append(pkgs, *packages[n])
	}
	return out, pkgs
}

func classLeafName(classPtr remote.Address, byAddr map[remote.Address]int, records []model.ObjectRecord, names *storage.NameTable) string {
	if classPtr.IsNull() {
		return "None"
	}
	idx, ok := byAddr[classPtr]
	if !ok {
		return "None"
	}
	return names.Resolve(records[idx].NameID)
}

// fullName walks the outer chain to null, joining names with "." (§3).
// The acyclicity bound (§8 invariant 4) is enforced with a hop limit.
func fullName(r model.ObjectRecord, byAddr map[remote.Address]int, records []model.ObjectRecord, names *storage.NameTable) (full string, pkg string) {
	const maxHops = 1 << 16
	var parts []string
	parts = append(parts, r.Name)
	outer := r.OuterPtr
	lastName := r.Name
	for hops := 0; !outer.IsNull() && hops < maxHops; hops++ {
		idx, ok := byAddr[outer]
		if !ok {
			break
		}
		o := records[idx]
		lastName = o.Name
		parts = append([]string{o.Name}, parts...)
		outer = o.OuterPtr
	}
	return joinDotted(parts), lastName
}

func joinDotted(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "."
		}
		out += p
	}
	return out
}
