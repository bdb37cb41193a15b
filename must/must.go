// Copyright 2024 GRAIL, Inc. All rights reserved.
// Use of this source code is governed by the Apache 2.0
// license that can be found in the LICENSE file.

// Package must expresses fatal invariant checks. The memory primitives in
// this repository are reachable only from call sites that have already
// validated their arguments, so a failed check here signals a bug in the
// calling layer, never an environmental condition: it is reported and
// execution is halted rather than returned as an error a caller might catch
// and retry.
package must

import (
	"fmt"

	"github.com/grailbio/memxfer/log"
)

// Func is called to report an invariant violation and halt execution. It is
// passed the call depth of the caller of the must function, so replacements
// can attribute the failure to the right frame. Replace it only at program
// initialization (tests replace it to observe failures).
//
// The default implementation logs the message at the Error level and panics
// with it.
var Func func(int, ...interface{}) = func(depth int, v ...interface{}) {
	s := fmt.Sprint(v...)
	// Nothing to do if output fails.
	_ = log.Output(depth+1, log.Error, s)
	panic(s)
}

// True is a no-op if b is true. Otherwise it formats a message in the
// manner of fmt.Sprint and calls Func.
func True(b bool, v ...interface{}) {
	if b {
		return
	}
	if len(v) == 0 {
		Func(2, "must: invariant violated")
		return
	}
	Func(2, v...)
}

// Truef is a no-op if b is true. Otherwise it formats a message in the
// manner of fmt.Sprintf and calls Func.
func Truef(b bool, format string, v ...interface{}) {
	if b {
		return
	}
	Func(2, fmt.Sprintf(format, v...))
}

// Never asserts that it is never reached. If it is, it formats a message in
// the manner of fmt.Sprint and calls Func.
func Never(v ...interface{}) {
	Func(2, v...)
}

// Neverf asserts that it is never reached. If it is, it formats a message in
// the manner of fmt.Sprintf and calls Func.
func Neverf(format string, v ...interface{}) {
	Func(2, fmt.Sprintf(format, v...))
}
