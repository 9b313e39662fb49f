// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package layout

import "testing"

// TestSelectUE427GatesUFieldLayout implements spec scenario S1: target
// reports file version 4.27, so the selected profile must gate to the
// FField layout (uobject_fields_are_fproperty = true only for >= 4.25).
func TestSelectUE427GatesUFieldLayout(t *testing.T) {
	p, err := Select(4, 27, false)
	if err != nil {
		t.Fatalf("Select(4, 27): %v", err)
	}
	if !p.UObjectFieldsAreFProperty {
		t.Errorf("UE 4.27 profile has UObjectFieldsAreFProperty = false, want true")
	}
	if p.Degraded {
		t.Errorf("exact-match profile reports Degraded")
	}
}

func TestSelectPre425UsesUFieldList(t *testing.T) {
	p, err := Select(4, 18, false)
	if err != nil {
		t.Fatalf("Select(4, 18): %v", err)
	}
	if p.UObjectFieldsAreFProperty {
		t.Errorf("UE 4.18 profile has UObjectFieldsAreFProperty = true, want false")
	}
}

func TestSelectUnknownVersionWithoutFallback(t *testing.T) {
	_, err := Select(3, 0, false)
	if err == nil {
		t.Fatal("Select(3, 0, false) succeeded, want ErrUnsupportedVersion")
	}
	var uv *ErrUnsupportedVersion
	if !asUnsupported(err, &uv) {
		t.Fatalf("err = %v (%T), want *ErrUnsupportedVersion", err, err)
	}
}

func TestSelectUnknownVersionWithFallback(t *testing.T) {
	p, err := Select(6, 0, true)
	if err != nil {
		t.Fatalf("Select(6, 0, true): %v", err)
	}
	if !p.Degraded {
		t.Errorf("fallback profile does not report Degraded")
	}
	if p.UEMajor != 5 {
		t.Errorf("nearest(6) = major %d, want 5", p.UEMajor)
	}
}

func asUnsupported(err error, target **ErrUnsupportedVersion) bool {
	e, ok := err.(*ErrUnsupportedVersion)
	if ok {
		*target = e
	}
	return ok
}
