// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package discovery locates the three registries the rest of the
// inspector needs — NamePool, GUObjectArray, GWorld — inside an attached
// target's main module (§4.E). Each locator runs a curated signature
// scan over executable bytes, validates the candidate with a structural
// fingerprint, and falls back to a CheckValue-style proximity scan
// (checkvalue.go) when no signature matches.
package discovery

import (
	"bytes"

	"golang.org/x/arch/x86/x86asm"

	"github.com/ueinspect/ueinspect/internal/remote"
)

// Signature is a masked byte pattern matched against executable bytes.
// The matched bytes begin with the instruction whose RIP-relative
// operand resolves to the candidate address.
type Signature struct {
	Name    string
	Pattern []byte
	Mask    []byte // 0xff bytes must match exactly; 0x00 bytes are wildcards
}

// matches reports whether buf[0:len(s.Pattern)] matches the signature.
func (s Signature) matches(buf []byte) bool {
	if len(buf) < len(s.Pattern) {
		return false
	}
	for i, p := range s.Pattern {
		if buf[i]&s.Mask[i] != p&s.Mask[i] {
			return false
		}
	}
	return true
}

// Scanner scans executable bytes for a set of signatures and resolves
// RIP-relative operands with an x86 instruction decoder, the way
// zboralski-unflutter's internal/disasm decodes instructions to locate
// structural landmarks in a binary with no debug info.
type Scanner struct {
	Signatures []Signature
}

// Candidate is one signature match: the instruction's address, the
// signature that matched, and the resolved absolute address its
// RIP-relative operand points to.
type Candidate struct {
	SignatureName string
	InstrAddr     remote.Address
	Resolved      remote.Address
}

// Scan searches text (bytes read from base onward) for every signature
// in s.Signatures and returns every match, in ascending address order.
func (s *Scanner) Scan(base remote.Address, text []byte) []Candidate {
	var out []Candidate
	for i := 0; i < len(text); i++ {
		for _, sig := range s.Signatures {
			if !sig.matches(text[i:]) {
				continue
			}
			inst, err := x86asm.Decode(text[i:min(i+16, len(text))], 64)
			if err != nil {
				continue
			}
			resolved, ok := ripRelativeOperand(inst, base.Add(int64(i)))
			if !ok {
				continue
			}
			out = append(out, Candidate{
				SignatureName: sig.Name,
				InstrAddr:     base.Add(int64(i)),
				Resolved:      resolved,
			})
		}
	}
	return out
}

// ripRelativeOperand resolves a decoded instruction's RIP-relative
// memory operand (e.g. `lea rax, [rip+0x123456]`) to an absolute
// address, given the address the instruction itself starts at.
func ripRelativeOperand(inst x86asm.Inst, instrAddr remote.Address) (remote.Address, bool) {
	for _, arg := range inst.Args {
		mem, ok := arg.(x86asm.Mem)
		if !ok || mem.Base != x86asm.RIP {
			continue
		}
		return instrAddr.Add(int64(inst.Len) + int64(mem.Disp)), true
	}
	return 0, false
}

func min(a, b int) int {
	if a < b {
		return a
	}
	return b
}

// indexAll returns the offset of every occurrence of needle in
// haystack, overlapping occurrences included.
func indexAll(haystack, needle []byte) []int {
	var out []int
	from := 0
	for {
		i := bytes.Index(haystack[from:], needle)
		if i < 0 {
			return out
		}
		out = append(out, from+i)
		from += i + 1
	}
}
