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
	"cmp"
	"fmt"
	"math"
	"slices"
)

// typeOrder is the sort order of BSON type classes, matching MongoDB.
// All numbers belong to one class.
type typeOrder int

const (
	_ typeOrder = iota
	nullOrder
	numberOrder
	stringOrder
	documentOrder
	arrayOrder
	binaryOrder
	objectIDOrder
	boolOrder
	dateTimeOrder
	timestampOrder
)

// orderOf returns the type class of v.
func orderOf(v Value) typeOrder {
	switch v.(type) {
	case NullType:
		return nullOrder
	case Int32, Int64, Double:
		return numberOrder
	case String:
		return stringOrder
	case *Document:
		return documentOrder
	case *Array:
		return arrayOrder
	case Binary:
		return binaryOrder
	case ObjectID:
		return objectIDOrder
	case Bool:
		return boolOrder
	case DateTime:
		return dateTimeOrder
	case Timestamp:
		return timestampOrder
	default:
		panic(fmt.Sprintf("types.orderOf: invalid value %T", v))
	}
}

// Compare returns -1, 0 or +1 if a is less than, equal to, or greater than b
// in a total order: first by type class as MongoDB sorts them
// (null, numbers, string, document, array, binary, ObjectId, boolean, date, timestamp),
// then by value.
//
// Numbers are compared by mathematical value; NaN is less than any other number.
// Compare(a, b) == 0 if and only if Equal(a, b).
func Compare(a, b Value) int {
	ao, bo := orderOf(a), orderOf(b)
	if ao != bo {
		return cmp.Compare(ao, bo)
	}

	switch a := a.(type) {
	case NullType:
		return 0

	case Int32, Int64, Double:
		return compareNumbers(a, b)

	case String:
		return cmp.Compare(a, b.(String))

	case *Document:
		return compareDocuments(a, b.(*Document))

	case *Array:
		b := b.(*Array)

		for i := 0; i < a.Len() && i < b.Len(); i++ {
			if c := Compare(a.s[i], b.s[i]); c != 0 {
				return c
			}
		}

		return cmp.Compare(a.Len(), b.Len())

	case Binary:
		b := b.(Binary)

		if c := cmp.Compare(len(a.b), len(b.b)); c != 0 {
			return c
		}

		if c := cmp.Compare(a.subtype, b.subtype); c != 0 {
			return c
		}

		return bytes.Compare(a.b, b.b)

	case ObjectID:
		b := b.(ObjectID)
		return bytes.Compare(a[:], b[:])

	case Bool:
		b := b.(Bool)

		switch {
		case a == b:
			return 0
		case !bool(a):
			return -1
		default:
			return 1
		}

	case DateTime:
		return cmp.Compare(a, b.(DateTime))

	case Timestamp:
		return cmp.Compare(a.Uint64(), b.(Timestamp).Uint64())

	default:
		panic(fmt.Sprintf("types.Compare: invalid value %T", a))
	}
}

// compareDocuments compares documents field by field in sorted key order:
// first keys, then values, then lengths.
// Key order inside documents does not matter, the same as for Equal.
func compareDocuments(a, b *Document) int {
	ak, bk := a.Keys(), b.Keys()
	slices.Sort(ak)
	slices.Sort(bk)

	for i := 0; i < len(ak) && i < len(bk); i++ {
		if c := cmp.Compare(ak[i], bk[i]); c != 0 {
			return c
		}

		av, _ := a.Get(ak[i])
		bv, _ := b.Get(bk[i])

		if c := Compare(av, bv); c != 0 {
			return c
		}
	}

	return cmp.Compare(len(ak), len(bk))
}

// isNumber returns true for Int32, Int64 and Double.
func isNumber(v Value) bool {
	switch v.(type) {
	case Int32, Int64, Double:
		return true
	default:
		return false
	}
}

// compareNumbers compares two numbers by mathematical value.
// NaN is equal to NaN and less than any other number.
func compareNumbers(a, b Value) int {
	af, aIsFloat := a.(Double)
	bf, bIsFloat := b.(Double)

	switch {
	case aIsFloat && bIsFloat:
		return compareFloats(float64(af), float64(bf))
	case aIsFloat:
		return -compareIntFloat(toInt64(b), float64(af))
	case bIsFloat:
		return compareIntFloat(toInt64(a), float64(bf))
	default:
		return cmp.Compare(toInt64(a), toInt64(b))
	}
}

// toInt64 converts Int32 or Int64 to int64.
func toInt64(v Value) int64 {
	switch v := v.(type) {
	case Int32:
		return int64(v)
	case Int64:
		return int64(v)
	default:
		panic(fmt.Sprintf("types.toInt64: invalid value %T", v))
	}
}

// compareFloats compares floats with NaN equal to NaN and less than other numbers.
func compareFloats(a, b float64) int {
	aNaN, bNaN := math.IsNaN(a), math.IsNaN(b)

	switch {
	case aNaN && bNaN:
		return 0
	case aNaN:
		return -1
	case bNaN:
		return 1
	default:
		return cmp.Compare(a, b)
	}
}

// compareIntFloat compares integer i and float f exactly, without rounding i to float64.
func compareIntFloat(i int64, f float64) int {
	const two63 = 1 << 63

	switch {
	case math.IsNaN(f):
		return 1
	case f >= two63:
		return -1
	case f < -two63:
		return 1
	}

	t := math.Trunc(f)
	if c := cmp.Compare(i, int64(t)); c != 0 {
		return c
	}

	// i equals the integer part of f; the fractional part decides
	return cmp.Compare(0, f-t)
}
