// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package facade

import (
	"strconv"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/query"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/sysproc"
)

// ParseAddress accepts either on-wire form an operator types at the
// `shell` prompt or passes as a flag: 0x-prefixed hex or plain decimal
// (§6 "On-wire formats").
func ParseAddress(s string) (remote.Address, error) {
	v, err := strconv.ParseUint(s, 0, 64)
	if err != nil {
		return 0, err
	}
	return remote.Address(v), nil
}

// GetPackages lists every package with its object count.
func (f *Facade) GetPackages() ([]query.PackageSummary, error) {
	if err := f.requireAttached(); err != nil {
		return nil, err
	}
	return f.svc.ListPackages()
}

// GetObjects lists every object in packageName whose meta-class matches
// category ("Class", "Struct", "Enum", "Function").
func (f *Facade) GetObjects(packageName, category string) ([]query.ObjectSummary, error) {
	if err := f.requireAttached(); err != nil {
		return nil, err
	}
	return f.svc.ListObjects(packageName, category)
}

// GlobalSearch runs either global_search mode over the attached object
// table.
func (f *Facade) GlobalSearch(queryText, mode string) ([]query.SearchResult, error) {
	if err := f.requireAttached(); err != nil {
		return nil, err
	}
	return f.svc.GlobalSearch(queryText, mode)
}

// GetObjectDetails returns the enriched view of one object (reflection
// model plus record).
func (f *Facade) GetObjectDetails(address remote.Address) (model.DetailedObjectInfo, error) {
	if err := f.requireAttached(); err != nil {
		return model.DetailedObjectInfo{}, err
	}
	return f.svc.GetObjectDetails(address)
}

// GetInstanceDetails decodes every property of classAddr's class off the
// live instance at instanceAddr.
func (f *Facade) GetInstanceDetails(instanceAddr, classAddr remote.Address) ([]model.InstancePropertySample, error) {
	if err := f.requireAttached(); err != nil {
		return nil, err
	}
	return f.svc.GetInstanceDetails(instanceAddr, classAddr)
}

// GetArrayElements decodes count elements of the described inner type
// starting at arrayAddr, at elementSize stride. subTypeAddr carries the
// inner object class / struct type / enum address when innerTypeName
// needs one to resolve (object pointers, nested structs); it is the
// zero address otherwise.
func (f *Facade) GetArrayElements(arrayAddr remote.Address, innerTypeName string, elementSize uint32, subTypeAddr remote.Address, count int) ([]model.InstancePropertySample, error) {
	if err := f.requireAttached(); err != nil {
		return nil, err
	}
	inner := model.PropertyInfo{
		PropertyTypeName: innerTypeName,
		ElementSize:      elementSize,
		SubTypeAddress:   subTypeAddr,
	}
	return f.svc.GetArrayElements(arrayAddr, inner, count)
}

// SearchObjectInstances finds every live instance of classAddr or one of
// its descendants.
func (f *Facade) SearchObjectInstances(classAddr remote.Address) ([]query.InstanceMatch, error) {
	if err := f.requireAttached(); err != nil {
		return nil, err
	}
	return f.svc.SearchObjectInstances(classAddr)
}

// AddInspector returns instanceAddr's class hierarchy, leaf-most class
// first, ending at Object.
func (f *Facade) AddInspector(instanceAddr remote.Address) ([]model.InstanceHierarchyNode, error) {
	if err := f.requireAttached(); err != nil {
		return nil, err
	}
	return f.svc.AddInspector(instanceAddr)
}

// AnalyzeFName resolves a bare NameID against the latched NamePool,
// returning "None" for id 0 the way the engine's own FName::ToString
// does for the comparison-index-zero sentinel.
func (f *Facade) AnalyzeFName(id model.NameID) (string, error) {
	if err := f.requireAttached(); err != nil {
		return "", err
	}
	names, ok := f.ctx.Names.Get()
	if !ok {
		return "", &query.NotReady{Component: "names"}
	}
	return names.Resolve(id), nil
}

// AnalyzeObject returns the raw ObjectRecord at address, undecorated by
// reflection — the `objects`/`search` commands' underlying row.
func (f *Facade) AnalyzeObject(address remote.Address) (model.ObjectRecord, error) {
	if err := f.requireAttached(); err != nil {
		return model.ObjectRecord{}, err
	}
	objects, ok := f.ctx.Objects.Get()
	if !ok {
		return model.ObjectRecord{}, &query.NotReady{Component: "objects"}
	}
	rec, ok := objects.ByAddress(address)
	if !ok {
		return model.ObjectRecord{}, &query.NotFound{What: "object", Key: address.String()}
	}
	return rec, nil
}

// FetchSystemProcesses lists candidate processes on the local machine
// for the `processes` command, independent of any attach.
func FetchSystemProcesses() ([]sysproc.Info, error) {
	return sysproc.List()
}
