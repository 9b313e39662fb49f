// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

//go:build linux

package sysproc

import (
	"os"
	"strconv"
	"strings"
)

// List reads /proc/<pid>/comm for every numeric entry under /proc.
func List() ([]Info, error) {
	entries, err := os.ReadDir("/proc")
	if err != nil {
		return nil, err
	}
	var out []Info
	for _, e := range entries {
		pid, err := strconv.Atoi(e.Name())
		if err != nil {
			continue
		}
		comm, err := os.ReadFile("/proc/" + e.Name() + "/comm")
		if err != nil {
			continue // process exited between ReadDir and ReadFile, or is a kernel thread we can't read
		}
		out = append(out, Info{PID: pid, Name: strings.TrimSpace(string(comm))})
	}
	return out, nil
}
