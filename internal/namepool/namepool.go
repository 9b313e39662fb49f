// Copyright 2017 The Go Authors.  All rights reserved.
// Use of this source code is governed by a BSD-style
// license that can be found in the LICENSE file.

// Package namepool implements the chunked NamePool walk (§4.F): it reads
// the Blocks array and block cursor off NamePool base, decodes each
// block's variable-length name entries, and streams progress the way
// internal/gocore's heap walk reports object counts — except here the
// walk suspends at chunk boundaries instead of running to completion
// synchronously, per §5's worker-driven parsing model.
package namepool

import (
	"context"
	"math/bits"

	"github.com/ueinspect/ueinspect/internal/model"
	"github.com/ueinspect/ueinspect/internal/remote"
)

// Progress is emitted once per fully-consumed block (§4.F).
type Progress struct {
	CurrentChunk       int
	TotalChunks        int
	CurrentNames       int
	TotalNamesEstimate int
}

// CorruptEntry records a block where a header was malformed (length
// exceeded remaining bytes); the parser skips the rest of that block and
// continues with the next one (§7 propagation policy).
type CorruptEntry struct {
	Block      int
	ByteOffset int
}

// Result is everything Parse produces.
type Result struct {
	Entries  []model.NameEntry
	Corrupt  []CorruptEntry
}

const entryAlignment = 4 // FNameEntry payload is 4-byte aligned in every layout this inspector targets

// Parse walks the NamePool at poolBase and returns every decoded name
// entry, reporting Progress after each block via onProgress (nil is
// valid: progress events are simply dropped). ctx is checked between
// blocks; a cancelled ctx stops the walk without partial-block corruption
// (§5 "a cancelled parser abandons its in-flight chunk").
func Parse(ctx context.Context, proc *remote.Process, poolBase remote.Address, layout model.LayoutProfile, onProgress func(Progress)) (Result, error) {
	blocksPtr, err := remote.Read[uint64](proc, poolBase)
	if err != nil {
		return Result{}, err
	}
	currentBlock, err := remote.Read[uint32](proc, poolBase.Add(8))
	if err != nil {
		return Result{}, err
	}
	currentByteCursor, err := remote.Read[uint32](proc, poolBase.Add(12))
	if err != nil {
		return Result{}, err
	}

	strideShift := bits.TrailingZeros32(layout.NameBlockStride)
	totalBlocks := int(currentBlock) + 1

	var res Result
	totalEstimate := totalBlocks * int(layout.NameBlockStride) / 16 // rough average entry size

	for block := 0; block < totalBlocks; block++ {
		select {
		case <-ctx.Done():
			return res, ctx.Err()
		default:
		}

		blockPtrAddr := remote.Address(blocksPtr).Add(int64(block) * 8)
		blockAddr, err := remote.Read[uint64](proc, blockPtrAddr)
		if err != nil {
			return res, err
		}

		limit := int(layout.NameBlockStride)
		if block == int(currentBlock) {
			limit = int(currentByteCursor)
		}
		buf, err := proc.ReadBytes(remote.Address(blockAddr), limit)
		if err != nil {
			return res, err
		}

		cursor := 0
		for cursor < len(buf) {
			headerSize := int(layout.NameEntryHeaderSize)
			if cursor+headerSize > len(buf) {
				res.Corrupt = append(res.Corrupt, CorruptEntry{Block: block, ByteOffset: cursor})
				break
			}
			length := decodeLength(buf[cursor:cursor+headerSize], layout)
			payloadStart := cursor + headerSize
			if length <= 0 || payloadStart+length > len(buf) {
				res.Corrupt = append(res.Corrupt, CorruptEntry{Block: block, ByteOffset: cursor})
				break
			}
			str := string(buf[payloadStart : payloadStart+length])
			id := model.NameID(uint32(block)<<uint(strideShift) | uint32(cursor))
			res.Entries = append(res.Entries, model.NameEntry{ID: id, String: str})

			advance := headerSize + ceilTo(length, entryAlignment)
			if advance <= 0 {
				res.Corrupt = append(res.Corrupt, CorruptEntry{Block: block, ByteOffset: cursor})
				break
			}
			cursor += advance
		}

		if onProgress != nil {
			estimate := max(totalEstimate, len(res.Entries))
			if block == totalBlocks-1 {
				// Final block reports the exact total, matching S2's
				// terminal {current_names: total_names} expectation.
				estimate = len(res.Entries)
			}
			onProgress(Progress{
				CurrentChunk:       block + 1,
				TotalChunks:        totalBlocks,
				CurrentNames:       len(res.Entries),
				TotalNamesEstimate: estimate,
			})
		}
	}

	return res, nil
}

func decodeLength(header []byte, layout model.LayoutProfile) int {
	if !layout.NameHeaderEncodesLength || len(header) == 0 {
		return 0
	}
	if len(header) == 1 {
		return int(header[0] & 0x7f)
	}
	// 2-byte little-endian header: bit 0 (the low bit of the first byte)
	// flags wide (UTF-16) strings; length occupies the upper 15 bits.
	v := uint16(header[0]) | uint16(header[1])<<8
	return int(v >> 1)
}

func ceilTo(n, align int) int {
	if n%align == 0 {
		return n
	}
	return n + (align - n%align)
}

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
