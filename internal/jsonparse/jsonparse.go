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

// Package jsonparse provides a JSON tokenizer and a recursive-descent parser
// producing jsontree values.
//
// Two flavors are supported. Strict accepts exactly RFC 8259 JSON text.
// Lenient additionally accepts:
//
//   - trailing commas in arrays and objects: [1, 2,] and {"a": 1,};
//   - line (// ...) and block (/* ... */) comments wherever whitespace is allowed;
//   - unquoted object keys made of ASCII letters, digits, '_' and '$', not starting with a digit.
//
// Numbers with leading zeros are rejected by both flavors.
//
// Errors are reported as *Error values carrying a position and one of
// commonerrors.ErrLexical or commonerrors.ErrStructural codes;
// no partial results are ever returned.
//
// Parsing is bounded by the input length and the nesting depth limit,
// and holds no shared state, so any number of parses may run concurrently.
package jsonparse

import (
	"errors"
	"io"

	"github.com/FerretDB/bobject/internal/jsontree"
	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
	"github.com/FerretDB/bobject/internal/util/must"
)

// DefaultMaxDepth is the default maximum nesting depth of arrays and objects.
const DefaultMaxDepth = 100

// Flavor selects accepted syntax.
type Flavor int

// Flavors.
const (
	Strict Flavor = iota
	Lenient
)

// String implements fmt.Stringer.
func (f Flavor) String() string {
	if f == Lenient {
		return "lenient"
	}

	return "strict"
}

// Options configure parsing.
//
// Nil and zero value options are valid and mean strict flavor with DefaultMaxDepth.
type Options struct {
	Flavor   Flavor
	MaxDepth int // zero or negative means DefaultMaxDepth
}

// flavor returns the configured flavor.
func (opts *Options) flavor() Flavor {
	if opts == nil {
		return Strict
	}

	return opts.Flavor
}

// maxDepth returns the configured depth limit.
func (opts *Options) maxDepth() int {
	if opts == nil || opts.MaxDepth <= 0 {
		return DefaultMaxDepth
	}

	return opts.MaxDepth
}

// Parse parses exactly one JSON value.
//
// Content after the value, other than whitespace (and comments in lenient flavor),
// is a structural error.
func Parse(data []byte, opts *Options) (jsontree.Value, error) {
	p := newParser(data, opts)

	v, err := p.value()
	if err != nil {
		return nil, err
	}

	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	if tok.Kind != EndOfInput {
		return nil, structuralError(tok.Pos, "unexpected %s after top-level value", tok)
	}

	return v, nil
}

// ParseReader reads r to the end and parses exactly one JSON value.
func ParseReader(r io.Reader, opts *Options) (jsontree.Value, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return Parse(data, opts)
}

// NewValues returns an iterator over consecutive top-level JSON values in data,
// such as newline-delimited JSON. Keys are value indexes.
//
// The iterator returns iterator.ErrIteratorDone at the end of input;
// errors are sticky.
func NewValues(data []byte, opts *Options) iterator.Interface[int, jsontree.Value] {
	p := newParser(data, opts)

	var n int
	var err error

	next := func() (int, jsontree.Value, error) {
		if err != nil {
			return 0, nil, err
		}

		var tok Token
		if tok, err = p.peek(); err != nil {
			return 0, nil, err
		}

		if tok.Kind == EndOfInput {
			err = iterator.ErrIteratorDone
			return 0, nil, err
		}

		var v jsontree.Value
		if v, err = p.value(); err != nil {
			return 0, nil, err
		}

		n++

		return n - 1, v, nil
	}

	return iterator.ForFunc(next, p.t.Close)
}

// parser builds jsontree values from tokens.
type parser struct {
	t        *Tokenizer
	peeked   *Token
	flavor   Flavor
	maxDepth int
	depth    int
}

// newParser returns a new parser for data.
func newParser(data []byte, opts *Options) *parser {
	return &parser{
		t:        NewTokenizer(data, opts),
		flavor:   opts.flavor(),
		maxDepth: opts.maxDepth(),
	}
}

// next returns the next token.
func (p *parser) next() (Token, error) {
	if tok := p.peeked; tok != nil {
		p.peeked = nil
		return *tok, nil
	}

	_, tok, err := p.t.Next()
	if errors.Is(err, iterator.ErrIteratorDone) {
		// EndOfInput was already consumed
		return Token{Kind: EndOfInput, Pos: p.t.pos}, nil
	}

	return tok, err
}

// peek returns the next token without consuming it.
func (p *parser) peek() (Token, error) {
	tok, err := p.next()
	if err != nil {
		return Token{}, err
	}

	p.peeked = &tok

	return tok, nil
}

// value parses a single value.
func (p *parser) value() (jsontree.Value, error) {
	tok, err := p.next()
	if err != nil {
		return nil, err
	}

	switch tok.Kind {
	case BeginObject:
		return p.object(tok)
	case BeginArray:
		return p.array(tok)
	case StringLiteral:
		if tok.bare {
			return nil, structuralError(tok.Pos, "unquoted string %q is allowed only as an object key", tok.Text)
		}

		return jsontree.String(tok.Text), nil
	case NumberLiteral:
		return must.NotFail(jsontree.NewNumber(tok.Text)), nil
	case True:
		return jsontree.Bool(true), nil
	case False:
		return jsontree.Bool(false), nil
	case Null:
		return jsontree.Null, nil
	case EndOfInput:
		return nil, structuralError(tok.Pos, "unexpected end of input, expected value")
	case EndObject, EndArray, Colon, Comma:
		return nil, structuralError(tok.Pos, "unexpected %s, expected value", tok)
	default:
		panic("jsonparse: unexpected token kind " + tok.Kind.String())
	}
}

// enter increments the nesting depth.
func (p *parser) enter(tok Token) error {
	p.depth++
	if p.depth > p.maxDepth {
		return structuralError(tok.Pos, "maximum nesting depth %d exceeded", p.maxDepth)
	}

	return nil
}

// array parses array elements after '['.
func (p *parser) array(open Token) (jsontree.Value, error) {
	if err := p.enter(open); err != nil {
		return nil, err
	}

	var values []jsontree.Value

	for {
		tok, err := p.peek()
		if err != nil {
			return nil, err
		}

		if tok.Kind == EndArray {
			if len(values) > 0 && p.flavor != Lenient {
				return nil, structuralError(tok.Pos, "trailing comma in array")
			}

			p.peeked = nil

			break
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}

		values = append(values, v)

		if tok, err = p.next(); err != nil {
			return nil, err
		}

		if tok.Kind == EndArray {
			break
		}

		if tok.Kind != Comma {
			return nil, structuralError(tok.Pos, "unexpected %s in array, expected ',' or ']'", tok)
		}
	}

	p.depth--

	return jsontree.NewArray(values...), nil
}

// object parses object members after '{'.
func (p *parser) object(open Token) (jsontree.Value, error) {
	if err := p.enter(open); err != nil {
		return nil, err
	}

	var members []jsontree.Member

	for {
		tok, err := p.next()
		if err != nil {
			return nil, err
		}

		if tok.Kind == EndObject {
			if len(members) > 0 && p.flavor != Lenient {
				return nil, structuralError(tok.Pos, "trailing comma in object")
			}

			break
		}

		key, ok := p.key(tok)
		if !ok {
			return nil, structuralError(tok.Pos, "unexpected %s, expected object key", tok)
		}

		if tok, err = p.next(); err != nil {
			return nil, err
		}

		if tok.Kind != Colon {
			return nil, structuralError(tok.Pos, "unexpected %s after object key, expected ':'", tok)
		}

		v, err := p.value()
		if err != nil {
			return nil, err
		}

		members = append(members, jsontree.Member{Key: key, Value: v})

		if tok, err = p.next(); err != nil {
			return nil, err
		}

		if tok.Kind == EndObject {
			break
		}

		if tok.Kind != Comma {
			return nil, structuralError(tok.Pos, "unexpected %s in object, expected ',' or '}'", tok)
		}
	}

	p.depth--

	return jsontree.NewObject(members...), nil
}

// key returns the object key for tok.
// Lenient flavor also accepts unquoted keys, including keywords.
func (p *parser) key(tok Token) (string, bool) {
	switch tok.Kind {
	case StringLiteral:
		return tok.Text, true
	case True, False, Null:
		return tok.Text, p.flavor == Lenient
	default:
		return "", false
	}
}
