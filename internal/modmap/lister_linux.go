// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package modmap

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/ueinspect/ueinspect/internal/remote"
)

// ProcMapsLister lists modules by parsing /proc/<pid>/maps, grouping
// contiguous mapped regions that share a backing file path into one
// module spanning their full [min, max) range.
type ProcMapsLister struct{}

func (ProcMapsLister) List(pid int) ([]Module, error) {
	f, err := os.Open(fmt.Sprintf("/proc/%d/maps", pid))
	if err != nil {
		return nil, err
	}
	defer f.Close()

	byPath := map[string]*Module{}
	var order []string
	sc := bufio.NewScanner(f)
	for sc.Scan() {
		fields := strings.Fields(sc.Text())
		if len(fields) < 6 {
			continue
		}
		path := fields[5]
		if path == "" || strings.HasPrefix(path, "[") {
			continue
		}
		lo, hi, ok := splitRange(fields[0])
		if !ok {
			continue
		}
		mod, ok := byPath[path]
		if !ok {
			mod = &Module{Name: path, Base: remote.Address(lo), Size: hi - lo}
			byPath[path] = mod
			order = append(order, path)
			continue
		}
		if remote.Address(lo) < mod.Base {
			mod.Size += uint64(mod.Base.Sub(remote.Address(lo)))
			mod.Base = remote.Address(lo)
		}
		if end := hi; end > uint64(mod.Base)+mod.Size {
			mod.Size = end - uint64(mod.Base)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, err
	}

	mods := make([]Module, 0, len(order))
	for _, p := range order {
		mods = append(mods, *byPath[p])
	}
	return mods, nil
}

func splitRange(s string) (lo, hi uint64, ok bool) {
	parts := strings.SplitN(s, "-", 2)
	if len(parts) != 2 {
		return 0, 0, false
	}
	lo, err1 := strconv.ParseUint(parts[0], 16, 64)
	hi, err2 := strconv.ParseUint(parts[1], 16, 64)
	return lo, hi, err1 == nil && err2 == nil
}
