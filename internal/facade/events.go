// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package facade

import (
	"github.com/ueinspect/ueinspect/internal/namepool"
	"github.com/ueinspect/ueinspect/internal/objarray"
)

// Event kinds mirror §6's three core->UI events.
const (
	EventFNamePoolProgress    = "fname-pool-progress"
	EventGUObjectArrayProgress = "guobject-array-progress"
	EventProcessSelected      = "process-selected"
)

// ProcessSelected is the payload of an EventProcessSelected event.
type ProcessSelected struct {
	ProcessName string
	PID         int
}

// Event is one item on the Facade's progress/notification channel. Only
// the field matching Kind is populated.
type Event struct {
	Kind string

	FNamePoolProgress    *namepool.Progress
	GUObjectArrayProgress *objarray.Progress
	ProcessSelected      *ProcessSelected
}

// emit publishes an event without blocking: the channel is the
// single-producer multi-consumer stream §5 describes, and a slow or
// absent consumer must never stall a parser. A full channel drops the
// event — the next one carries a more complete progress snapshot, so
// coalescing a late event loses nothing a consumer needs.
func (f *Facade) emit(e Event) {
	select {
	case f.events <- e:
	default:
	}
}

// Events returns the Facade's event stream. There is exactly one
// producer (the Facade itself, from whichever goroutine is running a
// parser); any number of goroutines may receive from it.
func (f *Facade) Events() <-chan Event { return f.events }
