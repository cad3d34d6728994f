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
	"strconv"
)

// Kind is a token kind.
type Kind uint8

// Token kinds.
const (
	_             Kind = iota
	BeginObject        // {
	EndObject          // }
	BeginArray         // [
	EndArray           // ]
	Colon              // :
	Comma              // ,
	StringLiteral      // string
	NumberLiteral      // number
	True               // true
	False              // false
	Null               // null
	EndOfInput         // end of input
)

// String implements fmt.Stringer.
func (k Kind) String() string {
	switch k {
	case BeginObject:
		return "'{'"
	case EndObject:
		return "'}'"
	case BeginArray:
		return "'['"
	case EndArray:
		return "']'"
	case Colon:
		return "':'"
	case Comma:
		return "','"
	case StringLiteral:
		return "string"
	case NumberLiteral:
		return "number"
	case True:
		return "true"
	case False:
		return "false"
	case Null:
		return "null"
	case EndOfInput:
		return "end of input"
	default:
		return "Kind(" + strconv.Itoa(int(k)) + ")"
	}
}

// Position is a location in the input.
type Position struct {
	Line   int // 1-based
	Column int // 1-based, in characters
	Offset int // 0-based, in bytes
}

// String implements fmt.Stringer.
func (p Position) String() string {
	return fmt.Sprintf("line %d, column %d (offset %d)", p.Line, p.Column, p.Offset)
}

// Token is a single lexical token.
type Token struct {
	// Text is the decoded value for strings, the source text for numbers,
	// and the source text of keywords and punctuation.
	Text string
	Pos  Position
	Kind Kind

	// bare is set for lenient-mode unquoted object keys.
	bare bool
}

// String implements fmt.Stringer.
func (t Token) String() string {
	switch t.Kind {
	case StringLiteral:
		return "string " + strconv.Quote(t.Text)
	case NumberLiteral:
		return "number " + t.Text
	default:
		return t.Kind.String()
	}
}
