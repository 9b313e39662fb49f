// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package discovery

import (
	"fmt"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/modmap"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// ErrNotFound is returned when no signature and no proximity scan
// located the requested registry (§7 "Discovery failures").
type ErrNotFound struct{ What string }

func (e *ErrNotFound) Error() string { return fmt.Sprintf("discovery: %s not found", e.What) }

// Target bundles what a single locator needs from the attached process:
// bytes to scan, a reader for validation reads, and the resolved module
// base the signature operand arithmetic is relative to.
type Target struct {
	Proc   *remote.Process
	Module modmap.Module
	Text   []byte // executable bytes read from Module.Base
}

// LocateNamePool runs the NamePool locator (§4.E) and installs the
// result into ctx.FNamePool. It is idempotent: if the latch is already
// set, the cached value is returned without rescanning.
func LocateNamePool(ctx *storage.Context, target Target, layout model.LayoutProfile) (remote.Address, error) {
	if addr, ok := ctx.FNamePool.Get(); ok {
		return addr, nil
	}
	scanner := &Scanner{Signatures: namePoolSignatures}
	addr, err := locate(target, scanner, ValidateNamePool(layout), nil)
	if err != nil {
		return 0, err
	}
	if err := ctx.FNamePool.Set(addr); err != nil {
		// Another goroutine won the race; return its value.
		v, _ := ctx.FNamePool.Get()
		return v, nil
	}
	return addr, nil
}

// LocateGUObjectArray runs the GUObjectArray locator and installs the
// result into ctx.GUObjectArray.
func LocateGUObjectArray(ctx *storage.Context, target Target, layout model.LayoutProfile) (remote.Address, error) {
	if addr, ok := ctx.GUObjectArray.Get(); ok {
		return addr, nil
	}
	scanner := &Scanner{Signatures: guObjectArraySignatures}
	addr, err := locate(target, scanner, ValidateGUObjectArray(layout), nil)
	if err != nil {
		return 0, err
	}
	if err := ctx.GUObjectArray.Set(addr); err != nil {
		v, _ := ctx.GUObjectArray.Get()
		return v, nil
	}
	return addr, nil
}

// LocateGWorld runs the GWorld locator and installs the result into
// ctx.GWorld. fallback, if non-nil, is consulted (via CheckValue) only
// after every signature has failed validation.
func LocateGWorld(ctx *storage.Context, target Target, fallback *CheckValue) (remote.Address, error) {
	if addr, ok := ctx.GWorld.Get(); ok {
		return addr, nil
	}
	scanner := &Scanner{Signatures: gWorldSignatures}
	addr, err := locate(target, scanner, ValidateGWorld, fallback)
	if err != nil {
		return 0, err
	}
	if err := ctx.GWorld.Set(addr); err != nil {
		v, _ := ctx.GWorld.Get()
		return v, nil
	}
	return addr, nil
}

// locate runs the three-step kernel common to every registry locator:
// signature scan, validate each candidate in order, and fall back to a
// CheckValue proximity scan if every candidate fails.
func locate(target Target, scanner *Scanner, validate Validator, fallback *CheckValue) (remote.Address, error) {
	for _, cand := range scanner.Scan(target.Module.Base, target.Text) {
		if validate(target.Proc, cand.Resolved) {
			return cand.Resolved, nil
		}
	}
	if fallback != nil {
		if addr, ok := fallback.Run(target.Proc); ok {
			return addr, nil
		}
	}
	return 0, &ErrNotFound{What: "registry"}
}
