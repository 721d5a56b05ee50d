// log/stack.go
// Copyright(c) 2025 flightcontrols contributors, licensed under the GNU Public License, Version 3.
// SPDX: GPL-3.0-only

package log

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"
)

const modulePath = "github.com/atctrainer/flightcontrols/"

// Frame is one entry of the call stack attached to log records.
type Frame struct {
	File string `json:"file"`
	Line int    `json:"line"`
	Func string `json:"function"`
}

func (f Frame) String() string {
	return fmt.Sprintf("%s:%d:%s", f.File, f.Line, f.Func)
}

const maxFrames = 12

// Callstack returns the stack of its caller, omitting the innermost skip
// frames. It stops at main.main and doesn't descend into the runtime or
// the testing package.
func Callstack(skip int) []Frame {
	var pcs [maxFrames]uintptr
	n := runtime.Callers(2+skip, pcs[:])
	it := runtime.CallersFrames(pcs[:n])

	fr := make([]Frame, 0, n)
	for {
		f, more := it.Next()
		if strings.HasPrefix(f.Function, "runtime.") || strings.HasPrefix(f.Function, "testing.") {
			break
		}
		fn := strings.TrimPrefix(strings.TrimPrefix(f.Function, modulePath), "main.")
		fr = append(fr, Frame{File: filepath.Base(f.File), Line: f.Line, Func: fn})

		if !more || f.Function == "main.main" {
			break
		}
	}
	return fr
}
