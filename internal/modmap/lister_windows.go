// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build windows

package modmap

import (
	"fmt"

	"golang.org/x/sys/windows"

	"github.com/ueinspect/ueinspect/internal/remote"
)

// ToolhelpLister lists modules via CreateToolhelp32Snapshot/Module32First/
// Module32Next, the standard Win32 module-enumeration path for a UE game
// process (the target this inspector is built for).
type ToolhelpLister struct{}

func (ToolhelpLister) List(pid int) ([]Module, error) {
	snap, err := windows.CreateToolhelp32Snapshot(windows.TH32CS_SNAPMODULE|windows.TH32CS_SNAPMODULE32, uint32(pid))
	if err != nil {
		return nil, fmt.Errorf("CreateToolhelp32Snapshot: %w", err)
	}
	defer windows.CloseHandle(snap)

	var entry windows.ModuleEntry32
	entry.Size = uint32(windows.SizeofModuleEntry32)

	var mods []Module
	if err := windows.Module32First(snap, &entry); err != nil {
		return nil, fmt.Errorf("Module32First: %w", err)
	}
	for {
		mods = append(mods, Module{
			Name: windows.UTF16ToString(entry.Module[:]),
			Base: remote.Address(entry.ModBaseAddr),
			Size: uint64(entry.ModBaseSize),
		})
		if err := windows.Module32Next(snap, &entry); err != nil {
			break
		}
	}
	return mods, nil
}
