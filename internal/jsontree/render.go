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

package jsontree

import (
	"fmt"
	"unicode/utf8"
)

// Render returns compact strict JSON text for v.
func Render(v Value) []byte {
	r := renderer{}
	r.value(v, 0)

	return r.buf
}

// RenderIndent returns strict JSON text for v with each nested element on a new line
// beginning with prefix followed by copies of indent.
// Empty arrays and objects stay on one line.
func RenderIndent(v Value, prefix, indent string) []byte {
	r := renderer{prefix: prefix, indent: indent, pretty: true}
	r.value(v, 0)

	return r.buf
}

// renderer accumulates JSON text.
type renderer struct {
	prefix string
	indent string
	buf    []byte
	pretty bool
}

// newline starts a new line at the given depth in pretty mode.
func (r *renderer) newline(depth int) {
	if !r.pretty {
		return
	}

	r.buf = append(r.buf, '\n')
	r.buf = append(r.buf, r.prefix...)

	for i := 0; i < depth; i++ {
		r.buf = append(r.buf, r.indent...)
	}
}

// value renders v at the given depth.
func (r *renderer) value(v Value, depth int) {
	switch v := v.(type) {
	case NullType:
		r.buf = append(r.buf, "null"...)

	case Bool:
		if v {
			r.buf = append(r.buf, "true"...)
		} else {
			r.buf = append(r.buf, "false"...)
		}

	case Number:
		r.buf = append(r.buf, v.String()...)

	case String:
		r.buf = appendString(r.buf, string(v))

	case *Array:
		if v.Len() == 0 {
			r.buf = append(r.buf, "[]"...)
			return
		}

		r.buf = append(r.buf, '[')

		for i, e := range v.s {
			if i > 0 {
				r.buf = append(r.buf, ',')
			}

			r.newline(depth + 1)
			r.value(e, depth+1)
		}

		r.newline(depth)
		r.buf = append(r.buf, ']')

	case *Object:
		if v.Len() == 0 {
			r.buf = append(r.buf, "{}"...)
			return
		}

		r.buf = append(r.buf, '{')

		for i, m := range v.members {
			if i > 0 {
				r.buf = append(r.buf, ',')
			}

			r.newline(depth + 1)
			r.buf = appendString(r.buf, m.Key)
			r.buf = append(r.buf, ':')

			if r.pretty {
				r.buf = append(r.buf, ' ')
			}

			r.value(m.Value, depth+1)
		}

		r.newline(depth)
		r.buf = append(r.buf, '}')

	default:
		panic(fmt.Sprintf("jsontree: invalid value %T", v))
	}
}

const hexDigits = "0123456789abcdef"

// appendString appends a quoted JSON string.
//
// Quotation mark, reverse solidus and control characters are escaped;
// invalid UTF-8 is replaced with U+FFFD.
func appendString(dst []byte, s string) []byte {
	dst = append(dst, '"')

	start := 0

	for i := 0; i < len(s); {
		c := s[i]

		if c < utf8.RuneSelf {
			if c >= 0x20 && c != '"' && c != '\\' {
				i++
				continue
			}

			dst = append(dst, s[start:i]...)

			switch c {
			case '"', '\\':
				dst = append(dst, '\\', c)
			case '\b':
				dst = append(dst, '\\', 'b')
			case '\f':
				dst = append(dst, '\\', 'f')
			case '\n':
				dst = append(dst, '\\', 'n')
			case '\r':
				dst = append(dst, '\\', 'r')
			case '\t':
				dst = append(dst, '\\', 't')
			default:
				dst = append(dst, '\\', 'u', '0', '0', hexDigits[c>>4], hexDigits[c&0xf])
			}

			i++
			start = i

			continue
		}

		r, size := utf8.DecodeRuneInString(s[i:])
		if r == utf8.RuneError && size == 1 {
			dst = append(dst, s[start:i]...)
			dst = append(dst, "\ufffd"...)

			i++
			start = i

			continue
		}

		i += size
	}

	dst = append(dst, s[start:]...)

	return append(dst, '"')
}
