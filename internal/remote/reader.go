// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package remote

import (
	"encoding/binary"
	"fmt"
)

// Backend performs the actual OS-level memory access for one attached
// target process. Implementations live in backend_linux.go,
// backend_windows.go, and backend_fake.go (tests).
type Backend interface {
	// ReadAt reads len(buf) bytes starting at addr into buf. A short or
	// failed read returns an error; ReadAt never performs a partial read
	// that it hides from the caller.
	ReadAt(addr Address, buf []byte) error

	// Close releases the OS handle to the target. Called once on detach.
	Close() error
}

// Integer is the set of fixed-width integer types Read supports.
type Integer interface {
	~int8 | ~int16 | ~int32 | ~int64 |
		~uint8 | ~uint16 | ~uint32 | ~uint64
}

// Process is the remote reader for one attached target. It performs
// single-shot, bounded reads; it never caches and it never retries.
type Process struct {
	backend Backend
	order   binary.ByteOrder
}

// New wraps backend as a Process reader. byteOrder is almost always
// binary.LittleEndian (x86/arm64 Windows and Linux targets).
func New(backend Backend, byteOrder binary.ByteOrder) *Process {
	return &Process{backend: backend, order: byteOrder}
}

// ByteOrder returns the byte order reads are decoded with.
func (p *Process) ByteOrder() binary.ByteOrder { return p.order }

// Close detaches from the target, releasing the OS handle.
func (p *Process) Close() error { return p.backend.Close() }

// ReadBytes reads len bytes at addr. A partial read is reported as a
// ReadFault, never returned as a short slice.
func (p *Process) ReadBytes(addr Address, length int) ([]byte, error) {
	if length < 0 {
		return nil, fmt.Errorf("remote: negative read length %d", length)
	}
	buf := make([]byte, length)
	if err := p.backend.ReadAt(addr, buf); err != nil {
		return nil, &ReadFault{Address: addr, Length: length, OSErr: err}
	}
	return buf, nil
}

// Read reads a fixed-width integer of type T at addr.
func Read[T Integer](p *Process, addr Address) (T, error) {
	var zero T
	size := int(sizeOf[T]())
	buf, err := p.ReadBytes(addr, size)
	if err != nil {
		return zero, err
	}
	return decode[T](p.order, buf), nil
}

// ReadCString reads a NUL-terminated, UTF-8 string at addr, scanning at
// most maxLen bytes. The terminating NUL is not included in the result.
func (p *Process) ReadCString(addr Address, maxLen int) (string, error) {
	const chunk = 64
	var out []byte
	for len(out) < maxLen {
		n := chunk
		if len(out)+n > maxLen {
			n = maxLen - len(out)
		}
		buf, err := p.ReadBytes(addr.Add(int64(len(out))), n)
		if err != nil {
			return "", err
		}
		if i := indexZero(buf); i >= 0 {
			out = append(out, buf[:i]...)
			return string(out), nil
		}
		out = append(out, buf...)
	}
	return string(out), nil
}

// IsPointer reports whether a single byte at addr is readable. It does
// not distinguish "readable but not actually a valid object" from
// "genuinely a pointer"; callers layer structural validation on top.
func (p *Process) IsPointer(addr Address) bool {
	if addr.IsNull() {
		return false
	}
	var b [1]byte
	return p.backend.ReadAt(addr, b[:]) == nil
}

func indexZero(b []byte) int {
	for i, c := range b {
		if c == 0 {
			return i
		}
	}
	return -1
}

func sizeOf[T Integer]() uintptr {
	var v T
	switch any(v).(type) {
	case int8, uint8:
		return 1
	case int16, uint16:
		return 2
	case int32, uint32:
		return 4
	case int64, uint64:
		return 8
	}
	return 8
}

func decode[T Integer](order binary.ByteOrder, buf []byte) T {
	var v T
	switch len(buf) {
	case 1:
		v = T(buf[0])
	case 2:
		v = T(order.Uint16(buf))
	case 4:
		v = T(order.Uint32(buf))
	case 8:
		v = T(order.Uint64(buf))
	}
	return v
}
