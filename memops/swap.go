// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package memops

import (
	"math/bits"
	"unsafe"

	"github.com/grailbio/memxfer/must"
)

// Lane is an element width the conjoint engine can move: a fixed-width
// unsigned integer whose byte order can be reversed as a unit.
type Lane interface {
	uint16 | uint32 | uint64
}

// CopyConjointRaw copies byteCount bytes from src to dst as elements of
// elemWidth bytes. The ranges may overlap arbitrarily; the traversal
// direction is chosen so that no source element is overwritten before it is
// read. elemWidth must be 2, 4, or 8 and byteCount a multiple of it.
func CopyConjointRaw(dst, src unsafe.Pointer, byteCount, elemWidth uintptr) {
	conjointSwap(dst, src, byteCount, elemWidth, false)
}

// CopySwapRaw is CopyConjointRaw with each element's byte order reversed as
// it passes through. Applying it twice restores the original bytes.
func CopySwapRaw(dst, src unsafe.Pointer, byteCount, elemWidth uintptr) {
	conjointSwap(dst, src, byteCount, elemWidth, true)
}

// CopyBytesConjoint is the slice form of CopyConjointRaw. dst and src must
// have equal lengths; they may alias the same backing array at any relative
// offset.
func CopyBytesConjoint(dst, src []byte, elemWidth int) {
	must.Truef(len(dst) == len(src), "memops: conjoint copy length mismatch: %d != %d", len(dst), len(src))
	if len(dst) == 0 {
		return
	}
	CopyConjointRaw(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), uintptr(len(dst)), uintptr(elemWidth))
}

// CopyBytesSwap is the slice form of CopySwapRaw.
func CopyBytesSwap(dst, src []byte, elemWidth int) {
	must.Truef(len(dst) == len(src), "memops: swap copy length mismatch: %d != %d", len(dst), len(src))
	if len(dst) == 0 {
		return
	}
	CopySwapRaw(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), uintptr(len(dst)), uintptr(elemWidth))
}

// CopyLanes copies src into dst element-wise. The slices must have equal
// lengths and may overlap (subslices of the same array).
func CopyLanes[T Lane](dst, src []T) {
	lanes(dst, src, false)
}

// SwapLanes copies src into dst element-wise, reversing each element's byte
// order. The slices must have equal lengths and may overlap; SwapLanes(x, x)
// is the in-place byte-order flip of x.
func SwapLanes[T Lane](dst, src []T) {
	lanes(dst, src, true)
}

func lanes[T Lane](dst, src []T, swap bool) {
	must.Truef(len(dst) == len(src), "memops: lane copy length mismatch: %d != %d", len(dst), len(src))
	if len(dst) == 0 {
		return
	}
	var (
		dp        = unsafe.Pointer(&dst[0])
		sp        = unsafe.Pointer(&src[0])
		byteCount = uintptr(len(dst)) * unsafe.Sizeof(dst[0])
	)
	conjointElems[T](dp, sp, byteCount, descends(dp, sp, byteCount), swap)
}

func conjointSwap(dst, src unsafe.Pointer, byteCount, elemWidth uintptr, swap bool) {
	must.Truef(src != nil, "memops: conjoint copy with nil source")
	must.Truef(dst != nil, "memops: conjoint copy with nil destination")
	must.Truef(elemWidth == 2 || elemWidth == 4 || elemWidth == 8,
		"memops: invalid element width %d", elemWidth)
	must.Truef(byteCount%elemWidth == 0,
		"memops: byte count %d not a multiple of element width %d", byteCount, elemWidth)
	if byteCount == 0 {
		return
	}
	descending := descends(dst, src, byteCount)
	switch elemWidth {
	case 2:
		conjointElems[uint16](dst, src, byteCount, descending, swap)
	case 4:
		conjointElems[uint32](dst, src, byteCount, descending, swap)
	case 8:
		conjointElems[uint64](dst, src, byteCount, descending, swap)
	}
}

// descends reports whether the copy must run from high addresses to low:
// exactly when dst starts strictly inside the source range, where an
// ascending copy would clobber source elements before reading them. Every
// other arrangement, including dst == src, is safe ascending.
func descends(dst, src unsafe.Pointer, byteCount uintptr) bool {
	return uintptr(dst) > uintptr(src) && uintptr(dst) < uintptr(src)+byteCount
}

// conjointElems is the transfer loop shared by all conjoint copies. The
// (width, direction, src alignment, dst alignment, swap) combination is
// resolved here, once, into a start offset, a stride, and a load/store pair;
// the loop itself branches on none of these axes.
func conjointElems[T Lane](dst, src unsafe.Pointer, byteCount uintptr, descending, swap bool) {
	width := unsafe.Sizeof(T(0))
	nElem := byteCount / width

	load := loadElem[T]
	if uintptr(src)%width != 0 {
		load = loadElemStaged[T]
	}
	if swap {
		load = reversing(load)
	}
	store := storeElem[T]
	if uintptr(dst)%width != 0 {
		store = storeElemStaged[T]
	}

	stride := int(width)
	if descending {
		last := byteCount - width
		src = unsafe.Add(src, last)
		dst = unsafe.Add(dst, last)
		stride = -stride
	}
	for i := uintptr(0); i != nElem; i++ {
		store(dst, load(src))
		src = unsafe.Add(src, stride)
		dst = unsafe.Add(dst, stride)
	}
}

func loadElem[T Lane](p unsafe.Pointer) T { return *(*T)(p) }

func storeElem[T Lane](p unsafe.Pointer, v T) { *(*T)(p) = v }

// loadElemStaged reads an element byte-by-byte into an aligned temporary; a
// typed load from a misaligned address faults on strict-alignment targets.
func loadElemStaged[T Lane](p unsafe.Pointer) (v T) {
	copy(unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)),
		unsafe.Slice((*byte)(p), unsafe.Sizeof(v)))
	return v
}

func storeElemStaged[T Lane](p unsafe.Pointer, v T) {
	copy(unsafe.Slice((*byte)(p), unsafe.Sizeof(v)),
		unsafe.Slice((*byte)(unsafe.Pointer(&v)), unsafe.Sizeof(v)))
}

// reversing composes a byte-order flip onto an element loader.
func reversing[T Lane](load func(unsafe.Pointer) T) func(unsafe.Pointer) T {
	return func(p unsafe.Pointer) T { return reverseBytes(load(p)) }
}

// reverseBytes reverses the byte order of v. The size switch is resolved at
// instantiation time and compiles to a single bswap-class instruction.
func reverseBytes[T Lane](v T) T {
	switch unsafe.Sizeof(v) {
	case 2:
		return T(bits.ReverseBytes16(uint16(v)))
	case 4:
		return T(bits.ReverseBytes32(uint32(v)))
	default:
		return T(bits.ReverseBytes64(uint64(v)))
	}
}
