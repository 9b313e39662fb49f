// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"os"

	"github.com/jedib0t/go-pretty/v6/table"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/query"
)

func newTable() table.Writer {
	t := table.NewWriter()
	t.SetOutputMirror(os.Stdout)
	return t
}

func renderPackages(rows []query.PackageSummary) {
	t := newTable()
	t.AppendHeader(table.Row{"Package", "Objects"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Name, r.ObjectCount})
	}
	t.Render()
}

func renderObjects(rows []query.ObjectSummary) {
	t := newTable()
	t.AppendHeader(table.Row{"Address", "Name", "Full Name", "Type"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Address, r.Name, r.FullName, r.TypeName})
	}
	t.Render()
}

func renderSearch(rows []query.SearchResult) {
	t := newTable()
	t.AppendHeader(table.Row{"Package", "Object", "Type", "Address", "Member"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.Package, r.ObjectName, r.TypeName, r.Address, r.MemberName})
	}
	t.Render()
}

func renderInstanceMatches(rows []query.InstanceMatch) {
	t := newTable()
	t.AppendHeader(table.Row{"Instance Address", "Name"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.InstanceAddress, r.ObjectName})
	}
	t.Render()
}

func renderHierarchy(rows []model.InstanceHierarchyNode) {
	t := newTable()
	t.AppendHeader(table.Row{"Class", "Address", "Meta-class"})
	for _, r := range rows {
		t.AppendRow(table.Row{r.ClassName, r.ClassAddr, r.TypeName})
	}
	t.Render()
}

func renderProperties(rows []model.PropertyInfo, names func(model.NameID) string) {
	t := newTable()
	t.AppendHeader(table.Row{"Name", "Type", "Sub-type", "Offset"})
	for _, p := range rows {
		t.AppendRow(table.Row{names(p.NameID), p.PropertyTypeName, p.SubTypeName, p.Offset})
	}
	t.Render()
}

func renderEnumValues(rows []model.EnumValueEntry, names func(model.NameID) string) {
	t := newTable()
	t.AppendHeader(table.Row{"Name", "Value"})
	for _, e := range rows {
		t.AppendRow(table.Row{names(e.NameID), e.Value})
	}
	t.Render()
}

func renderSamples(rows []model.InstancePropertySample) {
	t := newTable()
	t.AppendHeader(table.Row{"Property", "Type", "Offset", "Address", "Value"})
	for _, s := range rows {
		t.AppendRow(table.Row{s.PropertyName, s.PropertyType, s.Offset, s.MemoryAddress, s.LiveValue})
	}
	t.Render()
}
