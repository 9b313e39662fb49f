// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package remote implements bounded, typed reads from the memory of a
// live target process, plus the pointer-validity oracle the rest of the
// inspector relies on. See ../modmap for the companion module map.
package remote

import "fmt"

// Address is a 64-bit address in the target process's address space.
// Zero is the null address.
type Address uint64

// Add returns a+Address(b).
func (a Address) Add(b int64) Address {
	return Address(int64(a) + b)
}

// Sub returns int64(a-b).
func (a Address) Sub(b Address) int64 {
	return int64(a) - int64(b)
}

// IsNull reports whether a is the null address.
func (a Address) IsNull() bool {
	return a == 0
}

func (a Address) String() string {
	return fmt.Sprintf("0x%x", uint64(a))
}
