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
	"unicode/utf16"
	"unicode/utf8"

	"github.com/FerretDB/bobject/internal/util/iterator"
)

// Tokenizer splits JSON text into tokens in a single pass with one character lookahead.
//
// It implements iterator.Interface: keys are token indexes.
// The last token is always EndOfInput; after it, Next returns iterator.ErrIteratorDone.
// Errors are *Error values with commonerrors.ErrLexical code; they are sticky.
//
// It is not safe for concurrent use.
type Tokenizer struct {
	err    error
	data   []byte
	pos    Position
	n      int
	flavor Flavor
	done   bool
}

// NewTokenizer returns a new tokenizer for data.
func NewTokenizer(data []byte, opts *Options) *Tokenizer {
	return &Tokenizer{
		data:   data,
		pos:    Position{Line: 1, Column: 1},
		flavor: opts.flavor(),
	}
}

// Next implements iterator.Interface.
func (t *Tokenizer) Next() (int, Token, error) {
	if t.err != nil {
		return 0, Token{}, t.err
	}

	if t.done {
		return 0, Token{}, iterator.ErrIteratorDone
	}

	tok, err := t.scan()
	if err != nil {
		t.err = err
		return 0, Token{}, err
	}

	if tok.Kind == EndOfInput {
		t.done = true
	}

	n := t.n
	t.n++

	return n, tok, nil
}

// Close implements iterator.Interface.
func (t *Tokenizer) Close() {
	t.done = true
	t.err = nil
}

// advance moves the current position n bytes forward.
func (t *Tokenizer) advance(n int) {
	for _, b := range t.data[t.pos.Offset : t.pos.Offset+n] {
		switch {
		case b == '\n':
			t.pos.Line++
			t.pos.Column = 1
		case b&0xc0 != 0x80: // not a UTF-8 continuation byte
			t.pos.Column++
		}
	}

	t.pos.Offset += n
}

// at returns the byte at the given offset from the current position, or 0 at the end of input.
func (t *Tokenizer) at(delta int) byte {
	if i := t.pos.Offset + delta; i < len(t.data) {
		return t.data[i]
	}

	return 0
}

// eof returns true at the end of input.
func (t *Tokenizer) eof() bool {
	return t.pos.Offset >= len(t.data)
}

// scan returns the next token.
func (t *Tokenizer) scan() (Token, error) {
	if err := t.skipSpace(); err != nil {
		return Token{}, err
	}

	start := t.pos

	if t.eof() {
		return Token{Kind: EndOfInput, Pos: start}, nil
	}

	c := t.at(0)

	var kind Kind

	switch c {
	case '{':
		kind = BeginObject
	case '}':
		kind = EndObject
	case '[':
		kind = BeginArray
	case ']':
		kind = EndArray
	case ':':
		kind = Colon
	case ',':
		kind = Comma
	case '"':
		return t.scanString()
	case '-', '0', '1', '2', '3', '4', '5', '6', '7', '8', '9':
		return t.scanNumber()
	default:
		if isWordStart(c) {
			return t.scanWord()
		}

		r, _ := utf8.DecodeRune(t.data[start.Offset:])

		return Token{}, lexicalError(start, "unexpected character %q", r)
	}

	t.advance(1)

	return Token{Kind: kind, Text: string(c), Pos: start}, nil
}

// skipSpace skips whitespace and, in lenient mode, comments.
func (t *Tokenizer) skipSpace() error {
	for !t.eof() {
		switch t.at(0) {
		case ' ', '\t', '\n', '\r':
			t.advance(1)

		case '/':
			next := t.at(1)
			if next != '/' && next != '*' {
				return nil
			}

			if t.flavor != Lenient {
				return lexicalError(t.pos, "comments are not allowed in strict mode")
			}

			start := t.pos
			t.advance(2)

			for {
				if t.eof() {
					if next == '*' {
						return lexicalError(start, "unterminated comment")
					}

					return nil
				}

				if next == '/' && t.at(0) == '\n' {
					break
				}

				if next == '*' && t.at(0) == '*' && t.at(1) == '/' {
					t.advance(2)
					break
				}

				t.advance(1)
			}

		default:
			return nil
		}
	}

	return nil
}

// scanString scans a quoted string starting at the current position.
func (t *Tokenizer) scanString() (Token, error) {
	start := t.pos
	first := start.Offset + 1

	// fast path for strings without escapes and non-ASCII characters
	i := first
	for i < len(t.data) {
		c := t.data[i]
		if c == '"' || c == '\\' || c < 0x20 || c >= utf8.RuneSelf {
			break
		}

		i++
	}

	if i < len(t.data) && t.data[i] == '"' {
		t.advance(i + 1 - start.Offset)
		return Token{Kind: StringLiteral, Text: string(t.data[first:i]), Pos: start}, nil
	}

	buf := append([]byte(nil), t.data[first:i]...)
	t.advance(i - start.Offset)

	for {
		if t.eof() {
			return Token{}, lexicalError(start, "unterminated string")
		}

		c := t.at(0)

		switch {
		case c == '"':
			t.advance(1)
			return Token{Kind: StringLiteral, Text: string(buf), Pos: start}, nil

		case c == '\\':
			var err error
			if buf, err = t.scanEscape(buf); err != nil {
				return Token{}, err
			}

		case c < 0x20:
			return Token{}, lexicalError(t.pos, "invalid control character %q in string", c)

		case c < utf8.RuneSelf:
			buf = append(buf, c)
			t.advance(1)

		default:
			r, size := utf8.DecodeRune(t.data[t.pos.Offset:])
			if r == utf8.RuneError && size == 1 {
				return Token{}, lexicalError(t.pos, "invalid UTF-8 in string")
			}

			buf = append(buf, t.data[t.pos.Offset:t.pos.Offset+size]...)
			t.advance(size)
		}
	}
}

// scanEscape decodes a backslash escape at the current position and appends it to buf.
//
// Unpaired UTF-16 surrogates are replaced with U+FFFD.
func (t *Tokenizer) scanEscape(buf []byte) ([]byte, error) {
	start := t.pos

	if t.pos.Offset+1 >= len(t.data) {
		return nil, lexicalError(start, "unterminated string")
	}

	c := t.at(1)

	switch c {
	case '"', '\\', '/':
		buf = append(buf, c)
	case 'b':
		buf = append(buf, '\b')
	case 'f':
		buf = append(buf, '\f')
	case 'n':
		buf = append(buf, '\n')
	case 'r':
		buf = append(buf, '\r')
	case 't':
		buf = append(buf, '\t')

	case 'u':
		r, ok := t.hex4(2)
		if !ok {
			return nil, lexicalError(start, "invalid unicode escape")
		}

		t.advance(6)

		if utf16.IsSurrogate(r) {
			r2, ok := rune(-1), false
			if t.at(0) == '\\' && t.at(1) == 'u' {
				r2, ok = t.hex4(2)
			}

			if dec := utf16.DecodeRune(r, r2); ok && dec != utf8.RuneError {
				r = dec
				t.advance(6)
			} else {
				r = utf8.RuneError
			}
		}

		return utf8.AppendRune(buf, r), nil

	default:
		r, _ := utf8.DecodeRune(t.data[t.pos.Offset+1:])
		return nil, lexicalError(start, "invalid escape sequence %q", `\`+string(r))
	}

	t.advance(2)

	return buf, nil
}

// hex4 decodes four hex digits at the given offset from the current position.
func (t *Tokenizer) hex4(delta int) (rune, bool) {
	var r rune

	for i := 0; i < 4; i++ {
		c := t.at(delta + i)

		switch {
		case c >= '0' && c <= '9':
			c -= '0'
		case c >= 'a' && c <= 'f':
			c = c - 'a' + 10
		case c >= 'A' && c <= 'F':
			c = c - 'A' + 10
		default:
			return 0, false
		}

		r = r<<4 | rune(c)
	}

	return r, true
}

// scanNumber scans a number starting at the current position.
//
// Only the lexical shape is checked; the range is checked on conversion.
func (t *Tokenizer) scanNumber() (Token, error) {
	start := t.pos
	d := t.data[start.Offset:]
	i := 0

	if d[i] == '-' {
		i++
	}

	switch {
	case i < len(d) && d[i] == '0':
		i++

		if i < len(d) && isDigit(d[i]) {
			return Token{}, lexicalError(start, "invalid number: leading zeros are not allowed")
		}

	case i < len(d) && isDigit(d[i]):
		for i < len(d) && isDigit(d[i]) {
			i++
		}

	default:
		return Token{}, lexicalError(start, "invalid number: expected digit after minus sign")
	}

	if i < len(d) && d[i] == '.' {
		i++

		if i >= len(d) || !isDigit(d[i]) {
			return Token{}, lexicalError(start, "invalid number: expected digit after decimal point")
		}

		for i < len(d) && isDigit(d[i]) {
			i++
		}
	}

	if i < len(d) && (d[i] == 'e' || d[i] == 'E') {
		i++

		if i < len(d) && (d[i] == '+' || d[i] == '-') {
			i++
		}

		if i >= len(d) || !isDigit(d[i]) {
			return Token{}, lexicalError(start, "invalid number: expected digit in exponent")
		}

		for i < len(d) && isDigit(d[i]) {
			i++
		}
	}

	if i < len(d) && (isWordPart(d[i]) || d[i] == '.' || d[i] == '+' || d[i] == '-') {
		return Token{}, lexicalError(start, "invalid number %q", d[:i+1])
	}

	t.advance(i)

	return Token{Kind: NumberLiteral, Text: string(d[:i]), Pos: start}, nil
}

// scanWord scans a keyword or, in lenient mode, an unquoted key.
func (t *Tokenizer) scanWord() (Token, error) {
	start := t.pos
	d := t.data[start.Offset:]

	i := 0
	for i < len(d) && isWordPart(d[i]) {
		i++
	}

	word := string(d[:i])
	tok := Token{Text: word, Pos: start}

	switch word {
	case "true":
		tok.Kind = True
	case "false":
		tok.Kind = False
	case "null":
		tok.Kind = Null
	default:
		if t.flavor != Lenient {
			return Token{}, lexicalError(start, "invalid literal %q", word)
		}

		tok.Kind = StringLiteral
		tok.bare = true
	}

	t.advance(i)

	return tok, nil
}

// isDigit returns true for ASCII digits.
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// isWordStart returns true for characters that may start keywords and unquoted keys.
func isWordStart(c byte) bool {
	return (c >= 'a' && c <= 'z') || (c >= 'A' && c <= 'Z') || c == '_' || c == '$'
}

// isWordPart returns true for characters that may continue keywords and unquoted keys.
func isWordPart(c byte) bool {
	return isWordStart(c) || isDigit(c)
}

// check interfaces
var (
	_ iterator.Interface[int, Token] = (*Tokenizer)(nil)
)
