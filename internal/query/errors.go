// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package query implements the resolution layer (§4.I): read-only
// commands over the latched Storage snapshot, plus the typed errors the
// command facade surfaces to the UI (§7).
package query

import "fmt"

// NotAttached is returned by any command run with no live target.
type NotAttached struct{}

func (NotAttached) Error() string { return "no process is attached" }

// ReadFault wraps an underlying remote read failure with the field that
// was being resolved, so the UI can report which part of a query
// aborted (§7).
type ReadFault struct {
	Address uint64
	Field   string
	Err     error
}

func (e *ReadFault) Error() string {
	return fmt.Sprintf("read fault resolving %s at 0x%x: %v", e.Field, e.Address, e.Err)
}

func (e *ReadFault) Unwrap() error { return e.Err }

// NotReady is returned when a command needs a latch that has not been
// populated yet.
type NotReady struct{ Component string }

func (e *NotReady) Error() string { return fmt.Sprintf("%s is not ready", e.Component) }

// NotFound is returned when the requested object, name id, or package
// does not exist in the current snapshot.
type NotFound struct {
	What string
	Key  string
}

func (e *NotFound) Error() string { return fmt.Sprintf("%s not found: %s", e.What, e.Key) }

// CorruptLayout is returned when a structural invariant of previously
// parsed data is violated.
type CorruptLayout struct{ Where string }

func (e *CorruptLayout) Error() string { return fmt.Sprintf("corrupt layout at %s", e.Where) }

// UnsupportedVersion is returned when the target's UE major version has
// no layout profile and fallback was refused.
type UnsupportedVersion struct{ Major int }

func (e *UnsupportedVersion) Error() string {
	return fmt.Sprintf("unsupported UE major version %d", e.Major)
}
