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

package types

import (
	"bytes"
	"fmt"
	"math"
)

// Equal returns true if a and b represent the same value.
//
// Numbers are compared by their mathematical value across Int32, Int64 and Double,
// so Int32(1) equals Int64(1) and Double(1); NaN equals NaN.
// Documents are equal if they have the same fields regardless of order.
// Arrays are compared element-wise in order.
//
// Use Identical for type-strict comparison.
func Equal(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	if isNumber(a) && isNumber(b) {
		return compareNumbers(a, b) == 0
	}

	switch a := a.(type) {
	case *Document:
		b, ok := b.(*Document)
		if !ok || a.Len() != b.Len() {
			return false
		}

		for _, f := range a.fields {
			bv, ok := b.Get(f.key)
			if !ok || !Equal(f.value, bv) {
				return false
			}
		}

		return true

	case *Array:
		b, ok := b.(*Array)
		if !ok || a.Len() != b.Len() {
			return false
		}

		for i, v := range a.s {
			if !Equal(v, b.s[i]) {
				return false
			}
		}

		return true

	default:
		return scalarsIdentical(a, b)
	}
}

// Identical returns true if a and b are the same variant with the same value.
//
// Unlike Equal, Int32(1) is not identical to Int64(1),
// documents must have fields in the same order,
// and doubles are compared bit by bit, except that any NaN is identical to any other NaN.
func Identical(a, b Value) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}

	switch a := a.(type) {
	case *Document:
		b, ok := b.(*Document)
		if !ok || a.Len() != b.Len() {
			return false
		}

		for i, f := range a.fields {
			if f.key != b.fields[i].key || !Identical(f.value, b.fields[i].value) {
				return false
			}
		}

		return true

	case *Array:
		b, ok := b.(*Array)
		if !ok || a.Len() != b.Len() {
			return false
		}

		for i, v := range a.s {
			if !Identical(v, b.s[i]) {
				return false
			}
		}

		return true

	default:
		return scalarsIdentical(a, b)
	}
}

// scalarsIdentical compares scalar values strictly.
func scalarsIdentical(a, b Value) bool {
	switch a := a.(type) {
	case NullType:
		_, ok := b.(NullType)
		return ok
	case Bool:
		b, ok := b.(Bool)
		return ok && a == b
	case Int32:
		b, ok := b.(Int32)
		return ok && a == b
	case Int64:
		b, ok := b.(Int64)
		return ok && a == b
	case Double:
		b, ok := b.(Double)
		if !ok {
			return false
		}

		if math.IsNaN(float64(a)) {
			return math.IsNaN(float64(b))
		}

		return math.Float64bits(float64(a)) == math.Float64bits(float64(b))
	case String:
		b, ok := b.(String)
		return ok && a == b
	case Binary:
		b, ok := b.(Binary)
		return ok && a.subtype == b.subtype && bytes.Equal(a.b, b.b)
	case ObjectID:
		b, ok := b.(ObjectID)
		return ok && a == b
	case DateTime:
		b, ok := b.(DateTime)
		return ok && a == b
	case Timestamp:
		b, ok := b.(Timestamp)
		return ok && a == b
	case *Array, *Document:
		return false
	default:
		panic(fmt.Sprintf("types.scalarsIdentical: invalid value %T", a))
	}
}
