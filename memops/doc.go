// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache-2.0
// license that can be found in the LICENSE file.

// Package memops provides raw memory-transfer primitives with two guarantees
// plain byte-wise copies lack: per-unit store atomicity, and correctness
// under arbitrary source/destination overlap, optionally combined with
// per-element byte-order reversal.
//
// Two classes of functions are exported:
//
// - Functions with 'Raw' in their names operate on unsafe.Pointer plus a
// byte count. They are memory-unsafe: the caller guarantees both ranges stay
// valid and unreclaimed for the duration of the call, exactly as with the
// corresponding C memory routines. They exist because the callers of this
// package (off-heap buffers, foreign memory, file mappings) usually do not
// have a []byte to hand.
//
// - Their safe analogues operate on ordinary slices and derive the byte
// count from the slice length.
//
// "Atomic" here means only that each individual store of the chosen transfer
// unit is indivisible: a concurrent reader of the destination never observes
// a value torn below that unit width. It does not imply any ordering or
// visibility relationship across units or across calls; callers needing
// happens-before edges must synchronize on their own. The transfer unit is
// the widest of 8, 4, 2, or 1 bytes that naturally aligns every address
// involved and evenly divides the transfer size, capped at the machine word
// size.
//
// The conjoint functions are the general aliasing-safe copies: they behave
// like memmove for element sizes of 2, 4, or 8 bytes, and the Swap variants
// additionally reverse each element's byte order in flight. They are the
// building blocks for bulk array moves and for moving native values into or
// out of byte-order-normalized encodings.
//
// Contract violations (nil address, unsupported element width, byte count
// that is not a multiple of the element width) indicate a bug in the calling
// layer. They abort via package must rather than returning an error; no
// function in this package can fail at runtime on valid inputs.
package memops
