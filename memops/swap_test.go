// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package memops_test

import (
	"bytes"
	"math/rand"
	"testing"
	"unsafe"

	"github.com/stretchr/testify/require"

	"github.com/grailbio/memxfer/memops"
	"github.com/grailbio/testutil/assert"
)

var laneWidths = []int{2, 4, 8}

// memmoveStandard is the overlap-safe reference: copy src into a private
// temporary, then the temporary into dst.
func memmoveStandard(dst, src []byte) {
	tmp := make([]byte, len(src))
	copy(tmp, src)
	copy(dst, tmp)
}

// swapStandard returns src with each width-byte element byte-reversed.
func swapStandard(src []byte, width int) []byte {
	out := make([]byte, len(src))
	for i := 0; i < len(src); i += width {
		for j := 0; j < width; j++ {
			out[i+j] = src[i+width-1-j]
		}
	}
	return out
}

func randBytes(n int) []byte {
	b := make([]byte, n)
	for i := range b {
		b[i] = byte(rand.Intn(256))
	}
	return b
}

func TestSwapKnown(t *testing.T) {
	buf := []byte{0x01, 0x02, 0x03, 0x04}
	memops.CopyBytesSwap(buf, buf, 4)
	assert.EQ(t, buf, []byte{0x04, 0x03, 0x02, 0x01})
}

// Applying a swap copy twice restores the original bytes, both through a
// scratch destination and fully in place.
func TestSwapInvolution(t *testing.T) {
	nIter := 100
	for _, width := range laneWidths {
		for iter := 0; iter < nIter; iter++ {
			orig := randBytes(width * (1 + rand.Intn(64)))
			once := make([]byte, len(orig))
			twice := make([]byte, len(orig))
			memops.CopyBytesSwap(once, orig, width)
			assert.EQ(t, once, swapStandard(orig, width))
			memops.CopyBytesSwap(twice, once, width)
			assert.EQ(t, twice, orig)

			inplace := append([]byte(nil), orig...)
			memops.CopyBytesSwap(inplace, inplace, width)
			memops.CopyBytesSwap(inplace, inplace, width)
			assert.EQ(t, inplace, orig)
		}
	}
}

// For every relative offset between source and destination within the same
// array, the conjoint copy must match the copy-through-temporary reference,
// regardless of which direction the ranges overlap in.
func TestOverlapEquivalence(t *testing.T) {
	const (
		n    = 48
		base = 24
	)
	for _, width := range laneWidths {
		orig := randBytes(base + n + base)
		for k := -base; k <= base; k++ {
			arena1 := append([]byte(nil), orig...)
			arena2 := append([]byte(nil), orig...)
			memmoveStandard(arena1[base+k:base+k+n], arena1[base:base+n])
			memops.CopyBytesConjoint(arena2[base+k:base+k+n], arena2[base:base+n], width)
			if !bytes.Equal(arena1, arena2) {
				t.Fatalf("width %d offset %d: conjoint copy diverges from memmove", width, k)
			}
		}
	}
}

// Same property with the byte-order flip folded in.
func TestOverlapSwapEquivalence(t *testing.T) {
	const (
		n    = 48
		base = 24
	)
	for _, width := range laneWidths {
		orig := randBytes(base + n + base)
		for k := -base; k <= base; k++ {
			arena1 := append([]byte(nil), orig...)
			arena2 := append([]byte(nil), orig...)
			memmoveStandard(arena1[base+k:base+k+n], swapStandard(arena1[base:base+n], width))
			memops.CopyBytesSwap(arena2[base+k:base+k+n], arena2[base:base+n], width)
			if !bytes.Equal(arena1, arena2) {
				t.Fatalf("width %d offset %d: swap copy diverges from reference", width, k)
			}
		}
	}
}

// The dst = src + 2 arrangement from an 8-byte range forces descending
// traversal; an ascending copy would smear the first element.
func TestOverlappingShift(t *testing.T) {
	arena := []byte{0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07, 0xAA, 0xBB}
	memops.CopyBytesConjoint(arena[2:10], arena[0:8], 2)
	assert.EQ(t, arena, []byte{0x00, 0x01, 0x00, 0x01, 0x02, 0x03, 0x04, 0x05, 0x06, 0x07})
}

// All four src/dst alignment combinations must agree with the aligned
// result. Fresh allocations are 8-byte aligned, so slicing at small offsets
// controls alignment relative to the element width.
func TestMisalignment(t *testing.T) {
	const n = 64
	for _, width := range laneWidths {
		src := randBytes(n + 8)
		for srcOff := 0; srcOff < width; srcOff++ {
			for dstOff := 0; dstOff < width; dstOff++ {
				dstArr := make([]byte, n+8)
				srcSlice := src[srcOff : srcOff+n]
				dstSlice := dstArr[dstOff : dstOff+n]
				memops.CopyBytesConjoint(dstSlice, srcSlice, width)
				if !bytes.Equal(dstSlice, srcSlice) {
					t.Fatalf("width %d src+%d dst+%d: conjoint copy mismatch", width, srcOff, dstOff)
				}
				memops.CopyBytesSwap(dstSlice, srcSlice, width)
				if !bytes.Equal(dstSlice, swapStandard(srcSlice, width)) {
					t.Fatalf("width %d src+%d dst+%d: swap copy mismatch", width, srcOff, dstOff)
				}
			}
		}
	}
}

func TestConjointZero(t *testing.T) {
	// Zero-length slice transfers are no-ops, including nil slices.
	memops.CopyBytesConjoint(nil, nil, 8)
	memops.CopyBytesSwap([]byte{}, []byte{}, 2)
}

func TestConjointContract(t *testing.T) {
	buf := make([]byte, 16)
	p := unsafe.Pointer(&buf[0])
	require.Panics(t, func() { memops.CopyConjointRaw(p, p, 8, 3) })
	require.Panics(t, func() { memops.CopyConjointRaw(p, p, 8, 16) })
	require.Panics(t, func() { memops.CopySwapRaw(p, p, 7, 2) })
	require.Panics(t, func() { memops.CopySwapRaw(p, nil, 8, 2) })
	require.Panics(t, func() { memops.CopyConjointRaw(nil, p, 8, 2) })
	require.Panics(t, func() { memops.CopyBytesConjoint(buf[:8], buf[:6], 2) })
}

func TestLanes(t *testing.T) {
	x := []uint32{0x01020304, 0xAABBCCDD}
	memops.SwapLanes(x, x)
	assert.EQ(t, x, []uint32{0x04030201, 0xDDCCBBAA})

	// Overlapping element shift within one backing array.
	s := []uint64{1, 2, 3, 4, 0}
	memops.CopyLanes(s[1:], s[:4])
	assert.EQ(t, s, []uint64{1, 1, 2, 3, 4})

	w := []uint16{0x0102, 0x0304, 0x0506, 0}
	memops.SwapLanes(w[1:], w[:3])
	assert.EQ(t, w, []uint16{0x0102, 0x0201, 0x0403, 0x0605})

	require.Panics(t, func() { memops.CopyLanes([]uint32{0}, []uint32{1, 2}) })
}
