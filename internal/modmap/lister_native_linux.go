// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package modmap

// NewLister returns the platform Lister, so callers outside this package
// never need a build-tagged switch of their own.
func NewLister() Lister { return ProcMapsLister{} }
