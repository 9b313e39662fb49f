// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package remote

import "fmt"

// ReadFault is returned whenever a read from the target fails, either
// because the OS rejected the read or because a pointer-validation probe
// found the address unreadable. It is never retried by this package;
// retry policy belongs to the caller.
type ReadFault struct {
	Address Address
	Length  int
	OSErr   error
}

func (e *ReadFault) Error() string {
	return fmt.Sprintf("read fault at %s (len %d): %v", e.Address, e.Length, e.OSErr)
}

func (e *ReadFault) Unwrap() error { return e.OSErr }
