// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package remote

import (
	"fmt"

	"golang.org/x/sys/windows"
)

// windowsBackend reads target memory via ReadProcessMemory. Unreal Engine
// targets are overwhelmingly Windows processes, so this is the backend
// discovery (§4.E) is exercised against in practice.
type windowsBackend struct {
	handle windows.Handle
}

// NewWindowsBackend opens pid for VM_READ | QUERY_INFORMATION access.
func NewWindowsBackend(pid uint32) (*windowsBackend, error) {
	h, err := windows.OpenProcess(windows.PROCESS_VM_READ|windows.PROCESS_QUERY_INFORMATION, false, pid)
	if err != nil {
		return nil, fmt.Errorf("OpenProcess(%d): %w", pid, err)
	}
	return &windowsBackend{handle: h}, nil
}

func (b *windowsBackend) ReadAt(addr Address, buf []byte) error {
	if len(buf) == 0 {
		return nil
	}
	var n uintptr
	err := windows.ReadProcessMemory(b.handle, uintptr(addr), &buf[0], uintptr(len(buf)), &n)
	if err != nil {
		return err
	}
	if int(n) != len(buf) {
		return fmt.Errorf("ReadProcessMemory: read %d bytes, want %d", n, len(buf))
	}
	return nil
}

func (b *windowsBackend) Close() error {
	return windows.CloseHandle(b.handle)
}
