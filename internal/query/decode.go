// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package query

import (
	"fmt"
	"math"
	"strconv"
	"unicode/utf16"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
	"github.com/ueinspect/ueinspect/internal/storage"
)

var numericTypes = map[string]bool{
	"Int8Property": true, "Int16Property": true, "IntProperty": true, "Int64Property": true,
	"UInt16Property": true, "UInt32Property": true, "UInt64Property": true,
	"ByteProperty": true, "EnumProperty": true,
}

var signedNumericTypes = map[string]bool{
	"Int8Property": true, "Int16Property": true, "IntProperty": true, "Int64Property": true,
}

var floatTypes = map[string]bool{"FloatProperty": true, "DoubleProperty": true}

var objectRefTypes = map[string]bool{
	"ObjectProperty": true, "ClassProperty": true, "InterfaceProperty": true,
	"WeakObjectProperty": true, "SoftObjectProperty": true,
}

var containerTypes = map[string]bool{"ArrayProperty": true, "MapProperty": true, "SetProperty": true}

// decodeSample resolves one PropertyInfo against a live instance
// address, implementing each per-type decoding rule of §4.I
// get_instance_details.
func decodeSample(proc *remote.Process, names *storage.NameTable, objects *storage.ObjectTable, prop model.PropertyInfo, instanceAddr remote.Address) (model.InstancePropertySample, error) {
	addr := instanceAddr.Add(int64(prop.Offset))
	s := model.InstancePropertySample{
		PropertyName:  names.Resolve(prop.NameID),
		PropertyType:  prop.PropertyTypeName,
		SubType:       prop.SubTypeName,
		Offset:        prop.Offset,
		MemoryAddress: addr,
	}

	switch {
	case prop.PropertyTypeName == "BoolProperty":
		b, err := remote.Read[uint8](proc, addr)
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		live := b != 0
		if prop.BitMask != 0 {
			live = b&prop.BitMask != 0
		}
		s.LiveValue = boolString(live)

	case numericTypes[prop.PropertyTypeName]:
		v, err := readUnsignedOfWidth(proc, addr, prop.ElementSize)
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		if signedNumericTypes[prop.PropertyTypeName] {
			s.LiveValue = strconv.FormatInt(signExtend(v, prop.ElementSize), 10)
		} else {
			s.LiveValue = strconv.FormatUint(v, 10)
		}

	case floatTypes[prop.PropertyTypeName]:
		f, err := readFloatOfWidth(proc, addr, prop.ElementSize)
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		s.LiveValue = strconv.FormatFloat(f, 'g', 6, 64)

	case prop.PropertyTypeName == "NameProperty":
		id, err := remote.Read[uint32](proc, addr)
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		s.LiveValue = names.Resolve(model.NameID(id))

	case prop.PropertyTypeName == "StrProperty":
		str, err := decodeFString(proc, addr)
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		s.LiveValue = str

	case objectRefTypes[prop.PropertyTypeName]:
		ptr, err := remote.Read[uint64](proc, addr)
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		s.LiveValue = remote.Address(ptr).String()
		if ptr != 0 {
			if rec, ok := objects.ByAddress(remote.Address(ptr)); ok {
				s.IsObject = true
				s.ObjectInstanceAddr = remote.Address(ptr)
				s.ObjectClassAddr = rec.ClassPtr
			}
		}

	case containerTypes[prop.PropertyTypeName]:
		dataPtr, err := remote.Read[uint64](proc, addr)
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		count, err := remote.Read[int32](proc, addr.Add(8))
		if err != nil {
			return s, wrapFault(err, addr, s.PropertyName)
		}
		s.LiveValue = fmt.Sprintf("Elements: %d", count)
		s.IsObject = false
		s.ObjectInstanceAddr = remote.Address(dataPtr)
		if inner := innerDescriptor(prop); inner != nil {
			s.ObjectClassAddr = inner.SubTypeAddress
		}

	case prop.PropertyTypeName == "StructProperty":
		s.LiveValue = prop.SubTypeName
		s.IsObject = false
		s.ObjectInstanceAddr = addr
		s.ObjectClassAddr = prop.SubTypeAddress

	default:
		s.LiveValue = "<unsupported>"
	}
	return s, nil
}

// innerDescriptor returns the PropertyInfo a container's live value's
// "object_class_address encodes the inner type" field should be read
// from: Inner for Array/Set, Value for Map (§4.I).
func innerDescriptor(prop model.PropertyInfo) *model.PropertyInfo {
	if prop.Inner != nil {
		return prop.Inner
	}
	return prop.Value
}

func boolString(v bool) string {
	if v {
		return "True"
	}
	return "False"
}

// signExtend reinterprets the low width bytes of v as a two's-complement
// signed integer of that width.
func signExtend(v uint64, width uint32) int64 {
	switch width {
	case 1:
		return int64(int8(v))
	case 2:
		return int64(int16(v))
	case 4:
		return int64(int32(v))
	default:
		return int64(v)
	}
}

func readUnsignedOfWidth(proc *remote.Process, addr remote.Address, width uint32) (uint64, error) {
	switch width {
	case 1:
		v, err := remote.Read[uint8](proc, addr)
		return uint64(v), err
	case 2:
		v, err := remote.Read[uint16](proc, addr)
		return uint64(v), err
	case 4:
		v, err := remote.Read[uint32](proc, addr)
		return uint64(v), err
	default:
		v, err := remote.Read[uint64](proc, addr)
		return v, err
	}
}

func readFloatOfWidth(proc *remote.Process, addr remote.Address, width uint32) (float64, error) {
	if width == 4 {
		bits, err := remote.Read[uint32](proc, addr)
		if err != nil {
			return 0, err
		}
		return float64(math.Float32frombits(bits)), nil
	}
	bits, err := remote.Read[uint64](proc, addr)
	if err != nil {
		return 0, err
	}
	return math.Float64frombits(bits), nil
}

// decodeFString reads the FString header { data_ptr, count } and decodes
// count UTF-16 code units to UTF-8 (§4.I).
func decodeFString(proc *remote.Process, addr remote.Address) (string, error) {
	dataPtr, err := remote.Read[uint64](proc, addr)
	if err != nil {
		return "", err
	}
	count, err := remote.Read[int32](proc, addr.Add(8))
	if err != nil {
		return "", err
	}
	if count <= 0 || dataPtr == 0 {
		return "", nil
	}
	raw, err := proc.ReadBytes(remote.Address(dataPtr), int(count)*2)
	if err != nil {
		return "", err
	}
	units := make([]uint16, count)
	for i := range units {
		units[i] = proc.ByteOrder().Uint16(raw[i*2:])
	}
	// Drop a trailing NUL terminator, which FString's serialized count
	// includes.
	for len(units) > 0 && units[len(units)-1] == 0 {
		units = units[:len(units)-1]
	}
	return string(utf16.Decode(units)), nil
}

func wrapFault(err error, addr remote.Address, field string) error {
	return &ReadFault{Address: uint64(addr), Field: field, Err: err}
}
