// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package facade implements the command surface of §6: one entry point
// per Command API row, translating between on-wire address/version
// formats and the typed internal/query, internal/discovery,
// internal/namepool, and internal/objarray calls that actually do the
// work. It owns the single Context for one attach (§9 Design Notes) and
// is the only component that constructs or drops one.
package facade

import (
	"context"
	"encoding/binary"
	"fmt"
	"strconv"
	"sync"

	"github.com/ueinspect/ueinspect/internal/discovery"
	"github.com/ueinspect/ueinspect/internal/layout"
	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/modmap"
	"github.com/ueinspect/ueinspect/internal/query"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

// Facade is the process-wide command surface: one per running
// inspector, constructed once at startup and reused across attaches.
type Facade struct {
	events chan Event

	// acceptMu enforces §5's "one command at a time per UI request":
	// commands that mutate or replace attach state serialize here.
	// Read-only queries do not take it — they run against ctx's latches,
	// which are themselves safe for concurrent access.
	acceptMu sync.Mutex

	// parseNamesMu / parseObjectsMu coalesce concurrent parser
	// invocations: the second caller blocks here and then observes the
	// first call's completed latch instead of re-walking (§5).
	parseNamesMu   sync.Mutex
	parseObjectsMu sync.Mutex

	proc       *remote.Process
	moduleMap  *modmap.Map
	ctx        *storage.Context
	svc        *query.Service

	pid         int
	processName string
}

// New returns an unattached Facade. eventBuffer sizes the progress
// channel; 0 is a valid, always-blocking-on-send-then-dropped buffer.
func New(eventBuffer int) *Facade {
	return &Facade{events: make(chan Event, eventBuffer)}
}

func (f *Facade) requireAttached() error {
	if f.proc == nil {
		return query.NotAttached{}
	}
	return nil
}

// AttachToProcess opens pid for remote reads and builds a fresh module
// map and Context, replacing any previous attach (§9: "no ambient state
// survives across attaches").
func (f *Facade) AttachToProcess(pid int, name string) (string, error) {
	f.acceptMu.Lock()
	defer f.acceptMu.Unlock()

	if f.proc != nil {
		f.proc.Close()
	}

	backend, err := remote.Open(pid)
	if err != nil {
		return "", fmt.Errorf("attach to pid %d: %w", pid, err)
	}
	proc := remote.New(backend, binary.LittleEndian)

	mm, err := modmap.Build(modmap.NewLister(), pid)
	if err != nil {
		proc.Close()
		return "", fmt.Errorf("attach to pid %d: %w", pid, err)
	}

	ctx := storage.NewContext(mm)
	f.proc = proc
	f.moduleMap = mm
	f.ctx = ctx
	f.pid = pid
	f.processName = name
	var moduleBase remote.Address
	if main, ok := mm.Main(); ok {
		moduleBase = main.Base
	}
	f.svc = &query.Service{Proc: proc, Ctx: ctx, ModuleBase: moduleBase}

	f.emit(Event{Kind: EventProcessSelected, ProcessSelected: &ProcessSelected{ProcessName: name, PID: pid}})
	return fmt.Sprintf("attached to %s (pid %d)", name, pid), nil
}

// ShowBaseAddress renders the attached process's module map as a text
// block, in the teacher's "mappings" register (module name, base,
// size).
func (f *Facade) ShowBaseAddress() (string, error) {
	if err := f.requireAttached(); err != nil {
		return "", err
	}
	var out string
	for _, m := range f.moduleMap.Modules() {
		out += fmt.Sprintf("%s\t%s\t%#x\n", m.Name, m.Base, m.Size)
	}
	if main, ok := f.moduleMap.Main(); ok {
		out += fmt.Sprintf("\nmain module: %s @ %s\n", main.Name, main.Base)
	}
	return out, nil
}

// GetUEVersion reads the main module's file-version string and selects
// a LayoutProfile, refusing a nearest-neighbor fallback (the UI can
// retry with a forced major version via a future command if one is ever
// added — this path reports the true failure per §7 UnsupportedVersion).
func (f *Facade) GetUEVersion(ctx context.Context) (string, error) {
	if err := f.requireAttached(); err != nil {
		return "", err
	}
	if major, ok := f.ctx.Version.Get(); ok {
		return strconv.Itoa(major), nil
	}
	main, ok := f.moduleMap.Main()
	if !ok {
		return "", &query.NotFound{What: "module", Key: "main"}
	}
	major, minor, err := layout.ReadFileVersion(f.proc, main)
	if err != nil {
		return "", err
	}
	profile, err := layout.Select(major, minor, false)
	if err != nil {
		var unsupported *layout.ErrUnsupportedVersion
		if asUnsupported(err, &unsupported) {
			return "", &query.UnsupportedVersion{Major: unsupported.Major}
		}
		return "", err
	}
	if err := f.ctx.Version.Set(major); err != nil {
		v, _ := f.ctx.Version.Get()
		return strconv.Itoa(v), nil
	}
	if err := f.ctx.Layout.Set(profile); err != nil {
		// Another goroutine's Version.Set above won too, so Layout is
		// necessarily already set to the same value; nothing to do.
	}
	return strconv.Itoa(major), nil
}

func asUnsupported(err error, target **layout.ErrUnsupportedVersion) bool {
	u, ok := err.(*layout.ErrUnsupportedVersion)
	if ok {
		*target = u
	}
	return ok
}

// discoveryTarget builds the discovery.Target the three locator
// commands share: the main module's bytes, read once per call.
func (f *Facade) discoveryTarget() (discovery.Target, error) {
	main, ok := f.moduleMap.Main()
	if !ok {
		return discovery.Target{}, &query.NotFound{What: "module", Key: "main"}
	}
	window := layout.ScanWindowSize
	if uint64(window) > main.Size {
		window = int(main.Size)
	}
	text, err := f.proc.ReadBytes(main.Base, window)
	if err != nil {
		return discovery.Target{}, err
	}
	return discovery.Target{Proc: f.proc, Module: main, Text: text}, nil
}

func (f *Facade) currentLayout() (model.LayoutProfile, error) {
	l, ok := f.ctx.Layout.Get()
	if !ok {
		return model.LayoutProfile{}, &query.NotReady{Component: "layout"}
	}
	return l, nil
}
