// Copyright 2017 The Go Authors. All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package main

import (
	"context"
	"fmt"
	"os"

	"github.com/ueinspect/ueinspect/internal/facade"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// openAttach attaches a fresh Facade to pid, naming the process name in
// the resulting event. Every one-shot command rebuilds its own attach —
// ueinspect has no ambient daemon, so each process invocation starts
// from scratch, the same way viewcore re-reads its core file on every
// command.
func openAttach(pid int) (*facade.Facade, error) {
	f := facade.New(64)
	if _, err := f.AttachToProcess(pid, fmt.Sprintf("pid-%d", pid)); err != nil {
		return nil, err
	}
	return f, nil
}

// readySession attaches to pid and runs the whole discovery+parse
// pipeline an operator would otherwise drive step by step: version,
// fname-pool, guobject-array, then both parsers. It is the shared setup
// path for every query command (packages, objects, search, details,
// instance, inspector, elements).
func readySession(pid int) (*facade.Facade, error) {
	f, err := openAttach(pid)
	if err != nil {
		return nil, err
	}
	ctx := context.Background()
	if _, err := f.GetUEVersion(ctx); err != nil {
		return nil, fmt.Errorf("determine engine version: %w", err)
	}
	if _, err := f.GetFNamePoolAddress(); err != nil {
		return nil, fmt.Errorf("locate FNamePool: %w", err)
	}
	if _, err := f.GetGUObjectArrayAddress(); err != nil {
		return nil, fmt.Errorf("locate GUObjectArray: %w", err)
	}
	if _, err := f.ParseFNamePool(ctx); err != nil {
		return nil, fmt.Errorf("parse FNamePool: %w", err)
	}
	if _, err := f.ParseGUObjectArray(ctx); err != nil {
		return nil, fmt.Errorf("parse GUObjectArray: %w", err)
	}
	return f, nil
}

func parseAddressArg(s string) remote.Address {
	addr, err := facade.ParseAddress(s)
	if err != nil {
		exitf("invalid address %q: %v\n", s, err)
	}
	return addr
}

func die(err error) {
	fmt.Fprintln(os.Stderr, err)
	os.Exit(1)
}
