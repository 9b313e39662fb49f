// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import (
	"fmt"
	"regexp"
	"strconv"

	"github.com/ueinspect/ueinspect/internal/modmap"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// versionPattern matches UE's "major.minor.patch" ProductVersion string,
// e.g. "4.27.2-release" or "5.3.0".
var versionPattern = regexp.MustCompile(`([4-5])\.([0-9]{1,2})\.[0-9]{1,3}`)

// ScanWindowSize bounds the file-version scan: the PE version resource
// lives near the end of the module's data, well within this window from
// the module base on any UE binary observed in practice.
const ScanWindowSize = 1 << 22 // 4 MiB

// ReadFileVersion scans mod's readable bytes for a UE ProductVersion
// string and returns its major/minor components. This is the "weak
// signal" §9 Design Notes warns about: callers must still run discovery
// (§4.E) rather than trust this alone.
func ReadFileVersion(proc *remote.Process, mod modmap.Module) (major, minor int, err error) {
	window := ScanWindowSize
	if uint64(window) > mod.Size {
		window = int(mod.Size)
	}
	buf, err := proc.ReadBytes(mod.Base, window)
	if err != nil {
		return 0, 0, fmt.Errorf("layout: read module for version scan: %w", err)
	}
	loc := versionPattern.FindSubmatch(buf)
	if loc == nil {
		return 0, 0, fmt.Errorf("layout: no ProductVersion string found in %s", mod.Name)
	}
	major, _ = strconv.Atoi(string(loc[1]))
	minor, _ = strconv.Atoi(string(loc[2]))
	return major, minor, nil
}
