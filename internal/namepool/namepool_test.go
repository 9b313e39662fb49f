// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

package namepool

import (
	"context"
	"encoding/binary"
	"testing"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// buildBlock encodes a sequence of strings as a NamePool block using the
// 1-byte-header layout (length in the low 7 bits, no wide-string flag),
// padding each payload to entryAlignment the way Parse advances.
func buildBlock(strs []string) []byte {
	var buf []byte
	for _, s := range strs {
		buf = append(buf, byte(len(s)))
		start := len(buf)
		buf = append(buf, s...)
		for (len(buf)-start)%entryAlignment != 0 {
			buf = append(buf, 0)
		}
	}
	return buf
}

func TestParseTwoBlocks(t *testing.T) {
	b := remote.NewFakeBackend()
	layout := model.LayoutProfile{
		NameBlockStride:         0x10000,
		NameEntryHeaderSize:     1,
		NameHeaderEncodesLength: true,
	}

	block0 := buildBlock([]string{"None", "ByteProperty"})
	block1 := buildBlock([]string{"ObjectProperty"})

	const poolBase = remote.Address(0x9000)
	const blocksArray = remote.Address(0xa000)
	const block0Addr = remote.Address(0xb000)
	const block1Addr = remote.Address(0xc000)

	hdr := make([]byte, 16)
	binary.LittleEndian.PutUint64(hdr[0:], uint64(blocksArray))
	binary.LittleEndian.PutUint32(hdr[8:], 1)                  // CurrentBlock = 1 (2 blocks total)
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(block1))) // CurrentByteCursor
	b.AddRegion(poolBase, hdr)

	ptrs := make([]byte, 16)
	binary.LittleEndian.PutUint64(ptrs[0:], uint64(block0Addr))
	binary.LittleEndian.PutUint64(ptrs[8:], uint64(block1Addr))
	b.AddRegion(blocksArray, ptrs)

	// Non-current blocks are read at their full stride.
	b.AddRegion(block0Addr, append(block0, make([]byte, int(layout.NameBlockStride)-len(block0))...))
	b.AddRegion(block1Addr, block1)

	proc := remote.New(b, binary.LittleEndian)

	var progress []Progress
	res, err := Parse(context.Background(), proc, poolBase, layout, func(p Progress) {
		progress = append(progress, p)
	})
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Entries) != 3 {
		t.Fatalf("got %d entries, want 3: %+v", len(res.Entries), res.Entries)
	}
	if res.Entries[0].String != "None" {
		t.Errorf("entries[0] = %q, want None", res.Entries[0].String)
	}
	if len(progress) != 2 {
		t.Fatalf("got %d progress events for a 2-block pool, want exactly 2: %+v", len(progress), progress)
	}
	last := progress[len(progress)-1]
	if last.CurrentChunk != 2 || last.TotalChunks != 2 || last.CurrentNames != 3 || last.TotalNamesEstimate != 3 {
		t.Errorf("final progress = %+v, want {2 2 3 3}", last)
	}
}

func TestParseStopsBlockOnCorruptHeader(t *testing.T) {
	b := remote.NewFakeBackend()
	layout := model.LayoutProfile{
		NameBlockStride:         0x10000,
		NameEntryHeaderSize:     1,
		NameHeaderEncodesLength: true,
	}
	// A well-formed entry followed by a length byte claiming more bytes
	// than remain in the block.
	block := buildBlock([]string{"None"})
	block = append(block, 200) // bogus header: length 200, no payload follows

	const poolBase = remote.Address(0x1000)
	const blocksArray = remote.Address(0x2000)
	const blockAddr = remote.Address(0x3000)

	hdr := make([]byte, 16)
	binary.LittleEndian.PutUint64(hdr[0:], uint64(blocksArray))
	binary.LittleEndian.PutUint32(hdr[8:], 0)
	binary.LittleEndian.PutUint32(hdr[12:], uint32(len(block)))
	b.AddRegion(poolBase, hdr)

	ptrs := make([]byte, 8)
	binary.LittleEndian.PutUint64(ptrs, uint64(blockAddr))
	b.AddRegion(blocksArray, ptrs)
	b.AddRegion(blockAddr, block)

	proc := remote.New(b, binary.LittleEndian)
	res, err := Parse(context.Background(), proc, poolBase, layout, nil)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if len(res.Entries) != 1 {
		t.Fatalf("got %d entries, want 1 (corrupt header should stop the block)", len(res.Entries))
	}
	if len(res.Corrupt) != 1 {
		t.Fatalf("got %d corrupt markers, want 1", len(res.Corrupt))
	}
}
