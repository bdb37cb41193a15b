// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package memops

import (
	"unsafe"

	"github.com/grailbio/memxfer/must"
)

// unit is a transfer-unit width: an unsigned integer type whose aligned
// stores the hardware performs indivisibly.
type unit interface {
	uint8 | uint16 | uint32 | uint64
}

// CopyAtomicRaw copies size bytes from src to dst, low address first, in
// units of the widest width that naturally aligns dst, src, and size (capped
// at the machine word). Each unit is moved with one load and one store, so a
// concurrent reader of dst never observes a torn value at the chosen width.
//
// The traversal is strictly ascending: the caller must ensure the ranges
// either do not overlap or overlap in a way compatible with a forward copy.
// For arbitrary overlap use CopyConjointRaw.
func CopyAtomicRaw(dst, src unsafe.Pointer, size uintptr) {
	if size == 0 {
		return
	}
	must.Truef(dst != nil && src != nil, "memops: atomic copy of %d bytes with nil address", size)
	u := transferUnit(uintptr(dst) | uintptr(src) | size)
	if u > wordBytes {
		u = wordBytes
	}
	switch u {
	case 8:
		copyUnits[uint64](dst, src, size/8)
	case 4:
		copyUnits[uint32](dst, src, size/4)
	case 2:
		copyUnits[uint16](dst, src, size/2)
	default:
		copyUnits[uint8](dst, src, size)
	}
}

// CopyBytesAtomic is the slice form of CopyAtomicRaw. dst and src must have
// equal lengths and must not overlap backwards (dst above src within the
// same array).
func CopyBytesAtomic(dst, src []byte) {
	must.Truef(len(dst) == len(src), "memops: atomic copy length mismatch: %d != %d", len(dst), len(src))
	if len(dst) == 0 {
		return
	}
	CopyAtomicRaw(unsafe.Pointer(&dst[0]), unsafe.Pointer(&src[0]), uintptr(len(dst)))
}

// copyUnits moves nElem aligned elements of type T, ascending. The element
// load and store are single typed accesses; nothing in the loop body can be
// fused into a wider or narrower access.
func copyUnits[T unit](dst, src unsafe.Pointer, nElem uintptr) {
	width := unsafe.Sizeof(T(0))
	for i := uintptr(0); i != nElem; i++ {
		*(*T)(dst) = *(*T)(src)
		dst = unsafe.Add(dst, width)
		src = unsafe.Add(src, width)
	}
}
