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

package jsonparse

import (
	"fmt"

	"github.com/FerretDB/bobject/internal/commonerrors"
)

// Error is a tokenizer or parser error.
//
// Its code is either commonerrors.ErrLexical or commonerrors.ErrStructural.
type Error struct {
	Msg  string
	Pos  Position
	code commonerrors.ErrorCode
}

// lexicalError returns a new lexical error.
func lexicalError(pos Position, format string, a ...any) *Error {
	return &Error{
		Msg:  fmt.Sprintf(format, a...),
		Pos:  pos,
		code: commonerrors.ErrLexical,
	}
}

// structuralError returns a new structural error.
func structuralError(pos Position, format string, a ...any) *Error {
	return &Error{
		Msg:  fmt.Sprintf(format, a...),
		Pos:  pos,
		code: commonerrors.ErrStructural,
	}
}

// Error implements error interface.
func (e *Error) Error() string {
	return fmt.Sprintf("%s at %s: %s", e.code, e.Pos, e.Msg)
}

// Code implements commonerrors.Coder interface.
func (e *Error) Code() commonerrors.ErrorCode {
	return e.code
}

// check interfaces
var (
	_ commonerrors.Coder = (*Error)(nil)
)
