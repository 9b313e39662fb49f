// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package remote

// Open attaches to pid and returns the platform Backend, so callers
// outside this package (the command facade) never need a build-tagged
// switch of their own.
func Open(pid int) (Backend, error) {
	return NewLinuxBackend(pid)
}
