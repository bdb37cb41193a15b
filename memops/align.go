// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

package memops

import "math/bits"

// wordBytes is the widest store the target hardware performs as a single
// access. transferUnit results are capped here so that an 8-byte unit is
// never selected on a 32-bit target, where a uint64 store compiles to two
// machine stores and the tear-free guarantee would be silently lost.
const wordBytes = bits.UintSize / 8

// TransferUnit returns the widest transfer unit, in bytes, that is safe for
// every operand: the largest power of two in {8, 4, 2, 1} dividing the
// bitwise OR of vals. Callers pass every address involved in a transfer plus
// the transfer size; because the size is one of the operands, every store of
// the returned width is naturally aligned and lands inside the range.
func TransferUnit(vals ...uintptr) uintptr {
	var orBits uintptr
	for _, v := range vals {
		orBits |= v
	}
	return transferUnit(orBits)
}

func transferUnit(orBits uintptr) uintptr {
	switch {
	case orBits%8 == 0:
		return 8
	case orBits%4 == 0:
		return 4
	case orBits%2 == 0:
		return 2
	default:
		return 1
	}
}
