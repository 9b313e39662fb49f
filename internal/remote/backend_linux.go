// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package remote

import (
	"fmt"
	"runtime"

	"golang.org/x/sys/unix"
)

// linuxBackend reads target memory via process_vm_readv, falling back to
// PTRACE_PEEKTEXT for targets that refuse cross-memory reads (e.g. older
// kernels, or processes the caller cannot ptrace without an attach).
//
// PTRACE_* calls must all issue from the same OS thread that performed
// PTRACE_ATTACH, so the ptrace fallback is routed through a dedicated,
// locked OS thread the way program/server's ptraceRun does.
type linuxBackend struct {
	pid int

	fc chan func() error
	ec chan error

	attached bool
}

// NewLinuxBackend attaches to pid for read-only remote memory access.
func NewLinuxBackend(pid int) (*linuxBackend, error) {
	b := &linuxBackend{
		pid: pid,
		fc:  make(chan func() error),
		ec:  make(chan error),
	}
	go ptraceThread(b.fc, b.ec)
	return b, nil
}

func ptraceThread(fc chan func() error, ec chan error) {
	runtime.LockOSThread()
	for f := range fc {
		ec <- f()
	}
}

func (b *linuxBackend) ReadAt(addr Address, buf []byte) error {
	n, err := unix.ProcessVMReadv(b.pid,
		[]unix.Iovec{{Base: &buf[0], Len: uint64(len(buf))}},
		[]unix.RemoteIovec{{Base: uintptr(addr), Len: len(buf)}},
		0)
	if err == nil && n == len(buf) {
		return nil
	}
	return b.ptracePeek(addr, buf)
}

func (b *linuxBackend) ptracePeek(addr Address, buf []byte) error {
	if !b.attached {
		if err := b.ptraceCall(func() error { return unix.PtraceAttach(b.pid) }); err != nil {
			return err
		}
		var ws unix.WaitStatus
		if _, err := unix.Wait4(b.pid, &ws, 0, nil); err != nil {
			return err
		}
		b.attached = true
	}
	var n int
	err := b.ptraceCall(func() error {
		var e error
		n, e = unix.PtracePeekText(b.pid, uintptr(addr), buf)
		return e
	})
	if err != nil {
		return err
	}
	if n != len(buf) {
		return fmt.Errorf("ptrace peek: got %d bytes, want %d", n, len(buf))
	}
	return nil
}

func (b *linuxBackend) ptraceCall(f func() error) error {
	b.fc <- f
	return <-b.ec
}

func (b *linuxBackend) Close() error {
	if b.attached {
		b.ptraceCall(func() error { return unix.PtraceDetach(b.pid) })
	}
	close(b.fc)
	return nil
}
