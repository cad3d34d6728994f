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

// Package commonerrors provides the error taxonomy shared by all bobject packages.
//
// Every error that is part of a public contract carries an ErrorCode;
// use CodeOf or Is to inspect it through any number of wrapping layers.
package commonerrors

import (
	"errors"
	"fmt"
)

// ErrorCode classifies a failure.
type ErrorCode int

const (
	errUnset = ErrorCode(iota) // Unset

	// ErrLexical indicates a malformed token: bad escape, invalid number shape, stray character.
	ErrLexical // LexicalError

	// ErrStructural indicates well-formed tokens in an invalid structure:
	// mismatched brackets, trailing tokens, exceeded nesting depth, ambiguous reserved keys.
	ErrStructural // StructuralError

	// ErrConversion indicates that a value can't be represented in the target shape.
	ErrConversion // ConversionError

	// ErrUnregisteredType indicates that no codec is registered for a type.
	ErrUnregisteredType // UnregisteredType

	// ErrInvalidFormat indicates a malformed literal, such as bad ObjectID hex.
	ErrInvalidFormat // InvalidFormat
)

// String implements fmt.Stringer.
func (c ErrorCode) String() string {
	switch c {
	case errUnset:
		return "Unset"
	case ErrLexical:
		return "LexicalError"
	case ErrStructural:
		return "StructuralError"
	case ErrConversion:
		return "ConversionError"
	case ErrUnregisteredType:
		return "UnregisteredType"
	case ErrInvalidFormat:
		return "InvalidFormat"
	default:
		return fmt.Sprintf("ErrorCode(%d)", int(c))
	}
}

// Coder is implemented by all errors carrying an ErrorCode.
type Coder interface {
	error
	Code() ErrorCode
}

// Error is a generic error with a code.
type Error struct {
	err  error
	code ErrorCode
}

// NewError returns a new error with the given code wrapping err.
//
// It panics if code is unset or err is nil.
func NewError(code ErrorCode, err error) *Error {
	if code == errUnset {
		panic("commonerrors.NewError: code is unset")
	}

	if err == nil {
		panic("commonerrors.NewError: err is nil")
	}

	return &Error{err: err, code: code}
}

// Errorf is a shortcut for NewError(code, fmt.Errorf(format, a...)).
func Errorf(code ErrorCode, format string, a ...any) *Error {
	return NewError(code, fmt.Errorf(format, a...))
}

// Error implements error interface.
func (e *Error) Error() string {
	return e.code.String() + ": " + e.err.Error()
}

// Code implements Coder interface.
func (e *Error) Code() ErrorCode {
	return e.code
}

// Unwrap returns the wrapped error.
func (e *Error) Unwrap() error {
	return e.err
}

// CodeOf returns the code of the first error in err's tree implementing Coder.
// It returns an unset code for errors without it, including nil.
func CodeOf(err error) ErrorCode {
	var c Coder
	if errors.As(err, &c) {
		return c.Code()
	}

	return errUnset
}

// Is returns true if err's code is the given one.
func Is(err error, code ErrorCode) bool {
	return CodeOf(err) == code
}

// check interfaces
var (
	_ Coder = (*Error)(nil)
)
