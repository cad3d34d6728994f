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
	"math"
	"strconv"
	"strings"

	"github.com/FerretDB/bobject/internal/commonerrors"
)

// Number represents JSON number as its decimal text.
//
// The text is always lexically valid; the zero value is 0.
// Range is not checked until the number is converted with Int64 or Float64.
type Number struct {
	text string
}

// NewNumber returns a number with the given text.
//
// It returns InvalidFormat error if the text does not match RFC 8259 number grammar.
func NewNumber(text string) (Number, error) {
	if !ValidNumber(text) {
		return Number{}, commonerrors.Errorf(commonerrors.ErrInvalidFormat, "invalid JSON number %q", text)
	}

	return Number{text: text}, nil
}

// NumberFromInt64 returns a number for i.
func NumberFromInt64(i int64) Number {
	return Number{text: strconv.FormatInt(i, 10)}
}

// NumberFromFloat64 returns a number for f that always has a fraction or an exponent,
// so it is never mistaken for an integer: 1.0, 1.5, 1e+21, 1e-7.
//
// It returns ConversionError for NaN and infinities.
func NumberFromFloat64(f float64) (Number, error) {
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return Number{}, commonerrors.Errorf(commonerrors.ErrConversion, "%v can't be represented as JSON number", f)
	}

	// the same format as encoding/json uses
	format := byte('f')
	if abs := math.Abs(f); abs != 0 && (abs < 1e-6 || abs >= 1e21) {
		format = 'e'
	}

	b := strconv.AppendFloat(nil, f, format, -1, 64)

	if format == 'e' {
		// clean up e-09 to e-9
		if n := len(b); n >= 4 && b[n-4] == 'e' && b[n-3] == '-' && b[n-2] == '0' {
			b[n-2] = b[n-1]
			b = b[:n-1]
		}
	} else if !strings.ContainsRune(string(b), '.') {
		b = append(b, ".0"...)
	}

	return Number{text: string(b)}, nil
}

// String returns number text.
func (n Number) String() string {
	if n.text == "" {
		return "0"
	}

	return n.text
}

// IsInteger returns true if the number has neither a fraction nor an exponent.
func (n Number) IsInteger() bool {
	return !strings.ContainsAny(n.text, ".eE")
}

// Int64 returns the integer value of the number.
//
// It returns ConversionError if the number is not an integer or does not fit into int64.
func (n Number) Int64() (int64, error) {
	if !n.IsInteger() {
		return 0, commonerrors.Errorf(commonerrors.ErrConversion, "%s is not an integer", n)
	}

	i, err := strconv.ParseInt(n.String(), 10, 64)
	if err != nil {
		return 0, commonerrors.Errorf(commonerrors.ErrConversion, "%s does not fit into 64-bit integer", n)
	}

	return i, nil
}

// Float64 returns the nearest float64 value of the number.
//
// It returns ConversionError if the number is too large for float64.
func (n Number) Float64() (float64, error) {
	f, err := strconv.ParseFloat(n.String(), 64)
	if err != nil && math.IsInf(f, 0) {
		return 0, commonerrors.Errorf(commonerrors.ErrConversion, "%s does not fit into 64-bit float", n)
	}

	// underflow returns 0 or the nearest subnormal with ErrRange; that's fine
	return f, nil
}

// ValidNumber returns true if s matches RFC 8259 number grammar:
//
//	number = [ minus ] int [ frac ] [ exp ]
//	int    = zero / ( digit1-9 *DIGIT )
//	frac   = decimal-point 1*DIGIT
//	exp    = e [ minus / plus ] 1*DIGIT
func ValidNumber(s string) bool {
	i := 0
	if i < len(s) && s[i] == '-' {
		i++
	}

	switch {
	case i < len(s) && s[i] == '0':
		i++
	case i < len(s) && s[i] >= '1' && s[i] <= '9':
		for i < len(s) && isDigit(s[i]) {
			i++
		}
	default:
		return false
	}

	if i < len(s) && s[i] == '.' {
		i++

		if i >= len(s) || !isDigit(s[i]) {
			return false
		}

		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}

	if i < len(s) && (s[i] == 'e' || s[i] == 'E') {
		i++

		if i < len(s) && (s[i] == '+' || s[i] == '-') {
			i++
		}

		if i >= len(s) || !isDigit(s[i]) {
			return false
		}

		for i < len(s) && isDigit(s[i]) {
			i++
		}
	}

	return i == len(s)
}

// isDigit returns true for ASCII digits.
func isDigit(c byte) bool {
	return c >= '0' && c <= '9'
}

// normalize returns a canonical form of the number's decimal value,
// so that 1, 1.0 and 10e-1 have the same one.
func (n Number) normalize() string {
	text := n.String()

	var neg bool
	if text[0] == '-' {
		neg = true
		text = text[1:]
	}

	mant, exp := text, "0"
	if i := strings.IndexAny(text, "eE"); i >= 0 {
		mant, exp = text[:i], text[i+1:]
	}

	intPart, frac := mant, ""
	if i := strings.IndexByte(mant, '.'); i >= 0 {
		intPart, frac = mant[:i], mant[i+1:]
	}

	e, err := strconv.Atoi(exp)
	if err != nil {
		// absurdly large exponent; compare as is
		return n.String()
	}

	digits := strings.TrimLeft(intPart+frac, "0")
	if digits == "" {
		return "0"
	}

	trimmed := strings.TrimRight(digits, "0")
	e += len(digits) - len(trimmed) - len(frac)

	res := trimmed + "e" + strconv.Itoa(e)
	if neg {
		res = "-" + res
	}

	return res
}
