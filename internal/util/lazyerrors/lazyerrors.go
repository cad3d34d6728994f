// Copyright 2021 FerretDB Inc.
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

// Package lazyerrors wraps internal errors with the location of the wrapping call.
//
// It is meant for failures that are not part of any public error contract;
// typed errors with codes live in the commonerrors package.
package lazyerrors

import (
	"errors"
	"fmt"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
)

// located is an error annotated with the program counter of the call site.
type located struct {
	err error
	pc  uintptr
}

// Error implements error interface.
func (e *located) Error() string {
	if e.pc == 0 {
		return e.err.Error()
	}

	f, _ := runtime.CallersFrames([]uintptr{e.pc}).Next()
	if f.File == "" {
		return "[unknown] " + e.err.Error()
	}

	loc := filepath.Base(f.File) + ":" + strconv.Itoa(f.Line)
	if f.Function != "" {
		loc += " " + f.Function[strings.LastIndex(f.Function, "/")+1:]
	}

	return "[" + loc + "] " + e.err.Error()
}

// Unwrap returns the wrapped error.
func (e *located) Unwrap() error {
	return e.err
}

// caller returns the program counter of the exported function's caller.
func caller() uintptr {
	var pcs [1]uintptr
	if runtime.Callers(3, pcs[:]) == 0 {
		return 0
	}

	return pcs[0]
}

// New returns a new error with the given text and the caller's location.
func New(s string) error {
	return &located{err: errors.New(s), pc: caller()}
}

// Error wraps err with the caller's location.
//
// It panics if err is nil.
func Error(err error) error {
	if err == nil {
		panic("lazyerrors.Error: err is nil")
	}

	return &located{err: err, pc: caller()}
}

// Errorf formats an error like fmt.Errorf (including %w) and adds the caller's location.
func Errorf(format string, a ...any) error {
	return &located{err: fmt.Errorf(format, a...), pc: caller()}
}
