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
	"math"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/FerretDB/bobject/internal/util/must"
)

func TestEqualIdentical(t *testing.T) {
	t.Parallel()

	doc := func(pairs ...any) *Document { return must.NotFail(NewDocument(pairs...)) }

	for name, tc := range map[string]struct {
		a, b      Value
		equal     bool
		identical bool
	}{
		"Int32Int64": {
			a: Int32(1), b: Int64(1),
			equal: true,
		},
		"Int64Double": {
			a: Int64(1), b: Double(1),
			equal: true,
		},
		"DoubleFraction": {
			a: Int64(1), b: Double(1.5),
		},
		"BigInt64": {
			a: Int64(math.MaxInt64), b: Double(math.MaxInt64),
		},
		"NaN": {
			a: Double(math.NaN()), b: Double(math.NaN()),
			equal: true, identical: true,
		},
		"Zeros": {
			a: Double(0), b: Double(math.Copysign(0, -1)),
			equal: true,
		},
		"Strings": {
			a: String("a"), b: String("a"),
			equal: true, identical: true,
		},
		"StringNumber": {
			a: String("1"), b: Int32(1),
		},
		"Binary": {
			a: NewBinary(BinaryGeneric, []byte{1}), b: NewBinary(BinaryGeneric, []byte{1}),
			equal: true, identical: true,
		},
		"BinarySubtype": {
			a: NewBinary(BinaryGeneric, []byte{1}), b: NewBinary(BinaryUser, []byte{1}),
		},
		"DateTimeTimestamp": {
			a: DateTime(1000), b: NewTimestamp(1, 0),
		},
		"Null": {
			a: Null, b: Null,
			equal: true, identical: true,
		},
		"DocumentOrder": {
			a: doc("a", Int32(1), "b", Int32(2)), b: doc("b", Int32(2), "a", Int32(1)),
			equal: true,
		},
		"DocumentSame": {
			a: doc("a", Int32(1), "b", NewArray(Null)), b: doc("a", Int32(1), "b", NewArray(Null)),
			equal: true, identical: true,
		},
		"DocumentNumbers": {
			a: doc("a", Int32(1)), b: doc("a", Int64(1)),
			equal: true,
		},
		"DocumentExtraField": {
			a: doc("a", Int32(1)), b: doc("a", Int32(1), "b", Null),
		},
		"ArrayOrder": {
			a: NewArray(Int32(1), Int32(2)), b: NewArray(Int32(2), Int32(1)),
		},
		"ArrayDocument": {
			a: NewArray(), b: new(Document),
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, tc.equal, Equal(tc.a, tc.b), "Equal")
			assert.Equal(t, tc.equal, Equal(tc.b, tc.a), "Equal reversed")
			assert.Equal(t, tc.identical, Identical(tc.a, tc.b), "Identical")
			assert.Equal(t, tc.identical, Identical(tc.b, tc.a), "Identical reversed")

			assert.Equal(t, tc.equal, Compare(tc.a, tc.b) == 0, "Compare")
			assert.Equal(t, -Compare(tc.a, tc.b), Compare(tc.b, tc.a), "Compare antisymmetric")
		})
	}
}

func TestCompare(t *testing.T) {
	t.Parallel()

	// ascending order
	values := []Value{
		Null,
		Double(math.NaN()),
		Double(math.Inf(-1)),
		Int64(math.MinInt64),
		Int32(-1),
		Double(-0.5),
		Int32(0),
		Double(0.5),
		Int64(1),
		Double(1.5),
		Int64(math.MaxInt64),
		Double(math.MaxInt64),
		Double(math.Inf(1)),
		String(""),
		String("a"),
		new(Document),
		must.NotFail(NewDocument("a", Int32(1))),
		must.NotFail(NewDocument("a", Int32(2))),
		must.NotFail(NewDocument("b", Int32(0))),
		NewArray(),
		NewArray(Int32(1)),
		NewArray(Int32(1), Int32(1)),
		NewArray(Int32(2)),
		NewBinary(BinaryUser, nil),
		NewBinary(BinaryGeneric, []byte{2}),
		NewBinary(BinaryUser, []byte{1}),
		ObjectID{},
		ObjectID{1},
		Bool(false),
		Bool(true),
		DateTime(-1),
		DateTime(0),
		NewTimestamp(1, 2),
		NewTimestamp(2, 1),
	}

	for i, a := range values {
		for j, b := range values {
			expected := 0
			switch {
			case i < j:
				expected = -1
			case i > j:
				expected = 1
			}

			assert.Equal(t, expected, Compare(a, b), "%d (%s) vs %d (%s)", i, LogMessage(a), j, LogMessage(b))
		}
	}
}
