// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package memops

import (
	"unsafe"

	"github.com/grailbio/memxfer/must"
)

// conservativeFill selects the fallback byte-granularity fill loop that the
// compiler cannot rewrite into a bulk fill. See SetConservativeFill.
var conservativeFill = false

// SetConservativeFill controls the byte-granularity path of FillAtomicRaw.
// When on, that path uses a non-inlinable store-one-byte-at-a-time loop
// which the compiler cannot replace with a block-fill routine. Deployments
// that fill memory right up to a truncation-unmapped page boundary and rely
// on a precise fault address need this; everyone else does not.
//
// SetConservativeFill should be called once at program initialization, not
// concurrently with any fill. It returns the previous setting.
func SetConservativeFill(on bool) bool {
	old := conservativeFill
	conservativeFill = on
	return old
}

// FillAtomicRaw sets size bytes at dst to val, in units of the widest width
// that naturally aligns dst and size (capped at the machine word). The fill
// pattern for a wide unit is val replicated by byte-doubling, and each unit
// is written with a single store, so a concurrent reader never observes a
// unit whose bytes differ.
func FillAtomicRaw(dst unsafe.Pointer, size uintptr, val byte) {
	if size == 0 {
		return
	}
	must.Truef(dst != nil, "memops: atomic fill of %d bytes with nil address", size)
	u := transferUnit(uintptr(dst) | size)
	if u > wordBytes {
		u = wordBytes
	}
	switch u {
	case 8:
		pat := uint64(val)
		pat |= pat << 8
		pat |= pat << 16
		pat |= pat << 32
		fillUnits(dst, size/8, pat)
	case 4:
		pat := uint32(val)
		pat |= pat << 8
		pat |= pat << 16
		fillUnits(dst, size/4, pat)
	case 2:
		pat := uint16(val)
		pat |= pat << 8
		fillUnits(dst, size/2, pat)
	default:
		if conservativeFill {
			fillBytesExact(dst, size, val)
		} else {
			fillUnits(dst, size, val)
		}
	}
}

// FillBytesAtomic is the slice form of FillAtomicRaw.
func FillBytesAtomic(dst []byte, val byte) {
	if len(dst) == 0 {
		return
	}
	FillAtomicRaw(unsafe.Pointer(&dst[0]), uintptr(len(dst)), val)
}

// ZeroRaw zeroes size bytes at dst with the same unit selection and
// atomicity as FillAtomicRaw.
func ZeroRaw(dst unsafe.Pointer, size uintptr) {
	FillAtomicRaw(dst, size, 0)
}

func fillUnits[T unit](dst unsafe.Pointer, nElem uintptr, pat T) {
	width := unsafe.Sizeof(pat)
	for i := uintptr(0); i != nElem; i++ {
		*(*T)(dst) = pat
		dst = unsafe.Add(dst, width)
	}
}

// fillBytesExact issues exactly one one-byte store per destination byte, in
// ascending order. noinline plus the opaque pointer walk keep the compiler
// from recognizing the loop as a memset; a block fill may touch bytes past
// the last mapped page before faulting, and this path is for callers that
// cannot tolerate that.
//
//go:noinline
func fillBytesExact(dst unsafe.Pointer, size uintptr, val byte) {
	p := uintptr(dst)
	for end := p + size; p != end; p++ {
		*(*byte)(unsafe.Pointer(p)) = val
	}
}
