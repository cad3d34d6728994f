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

package codec

import (
	"math"
	"testing"
	"time"

	"github.com/AlekSi/pointer"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/must"
)

// roundTrip encodes v with c, checks the result, and decodes it back.
func roundTrip[T any](t *testing.T, c Codec[T], v T, expected types.Value) {
	t.Helper()

	actual, err := c.Encode(v)
	require.NoError(t, err)
	assert.True(t, types.Identical(expected, actual), "%s", types.LogMessage(actual))

	back, err := c.Decode(actual)
	require.NoError(t, err)
	assert.Equal(t, v, back)
}

func TestScalars(t *testing.T) {
	t.Parallel()

	now := time.Date(2024, 3, 1, 12, 30, 0, 5e6, time.UTC)
	u := uuid.MustParse("a1b2c3d4-e5f6-4789-8abc-def012345678")

	roundTrip(t, Bool, true, types.Bool(true))
	roundTrip(t, String, "foo", types.String("foo"))
	roundTrip(t, Float64, 42.13, types.Double(42.13))
	roundTrip(t, Int32, math.MinInt32, types.Int32(math.MinInt32))
	roundTrip(t, Int64, 1, types.Int64(1))
	roundTrip(t, Integer[uint8](), 255, types.Int32(255))
	roundTrip(t, Integer[int](), 1<<40, types.Int64(1<<40))
	roundTrip(t, Time, now, types.NewDateTime(now))
	roundTrip(t, ObjectID, types.ObjectID{1}, types.ObjectID{1})
	roundTrip(t, Binary, types.NewBinary(types.BinaryUser, []byte{1}), types.NewBinary(types.BinaryUser, []byte{1}))
	roundTrip(t, Bytes, []byte{1, 2}, types.NewBinary(types.BinaryGeneric, []byte{1, 2}))
	roundTrip(t, UUID, u, types.NewBinary(types.BinaryUUID, u[:]))
	roundTrip(t, Timestamp, types.NewTimestamp(1, 2), types.NewTimestamp(1, 2))
	roundTrip(t, Any, types.Value(types.Null), types.Null)

	doc := must.NotFail(types.NewDocument("a", types.Int32(1)))
	roundTrip(t, Document, doc, doc)
}

func TestNumericDecode(t *testing.T) {
	t.Parallel()

	t.Run("Widening", func(t *testing.T) {
		t.Parallel()

		f, err := Float64.Decode(types.Int32(1))
		require.NoError(t, err)
		assert.Equal(t, 1.0, f)

		i, err := Int64.Decode(types.Double(1e3))
		require.NoError(t, err)
		assert.Equal(t, int64(1000), i)

		i32, err := Int32.Decode(types.Int64(-5))
		require.NoError(t, err)
		assert.Equal(t, int32(-5), i32)
	})

	for name, tc := range map[string]struct {
		decode func() error
		errMsg string
	}{
		"Fraction": {
			decode: func() error { _, err := Int64.Decode(types.Double(1.5)); return err },
			errMsg: "ConversionError: 1.5 is not a 64-bit integer",
		},
		"NaN": {
			decode: func() error { _, err := Int64.Decode(types.Double(math.NaN())); return err },
			errMsg: "ConversionError: NaN is not a 64-bit integer",
		},
		"Int32Range": {
			decode: func() error { _, err := Int32.Decode(types.Int64(math.MaxInt32 + 1)); return err },
			errMsg: "ConversionError: 2147483648 is out of range for int32",
		},
		"UnsignedNegative": {
			decode: func() error { _, err := Integer[uint64]().Decode(types.Int32(-1)); return err },
			errMsg: "ConversionError: -1 is out of range for uint64",
		},
		"Inexact": {
			decode: func() error { _, err := Float64.Decode(types.Int64(1<<53 + 1)); return err },
			errMsg: "ConversionError: 9007199254740993 can't be represented exactly as double",
		},
		"Mismatch": {
			decode: func() error { _, err := Int32.Decode(types.String("1")); return err },
			errMsg: "ConversionError: expected number, got string",
		},
		"UUIDSubtype": {
			decode: func() error { _, err := UUID.Decode(types.NewBinary(types.BinaryGeneric, make([]byte, 16))); return err },
			errMsg: "ConversionError: InvalidFormat: binary subtype generic is not uuid",
		},
	} {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			err := tc.decode()
			require.Error(t, err)
			assert.True(t, commonerrors.Is(err, commonerrors.ErrConversion))
			assert.EqualError(t, err, tc.errMsg)
		})
	}

	_, err := Integer[uint64]().Encode(math.MaxUint64)
	assert.EqualError(t, err, "ConversionError: 18446744073709551615 does not fit into 64-bit integer")
}

func TestCombinators(t *testing.T) {
	t.Parallel()

	t.Run("SliceOf", func(t *testing.T) {
		t.Parallel()

		c := SliceOf(String)
		roundTrip(t, c, []string{"a", "b"}, types.NewArray(types.String("a"), types.String("b")))

		s, err := c.Decode(types.Null)
		require.NoError(t, err)
		assert.Nil(t, s)

		_, err = c.Decode(types.NewArray(types.String("a"), types.Int32(1)))
		assert.EqualError(t, err, "ConversionError: 1: expected string, got int")
	})

	t.Run("MapOf", func(t *testing.T) {
		t.Parallel()

		c := MapOf(Int32)
		expected := must.NotFail(types.NewDocument("a", types.Int32(2), "b", types.Int32(1)))
		roundTrip(t, c, map[string]int32{"b": 1, "a": 2}, expected)

		_, err := c.Decode(must.NotFail(types.NewDocument("x", types.Null)))
		assert.EqualError(t, err, "ConversionError: x: expected number, got null")
	})

	t.Run("Pointer", func(t *testing.T) {
		t.Parallel()

		c := Pointer(String)
		roundTrip(t, c, pointer.ToString("s"), types.String("s"))
		roundTrip(t, c, nil, types.Null)

		nested := SliceOf(Pointer(Int64))
		roundTrip(t, nested, []*int64{nil, pointer.ToInt64(1)}, types.NewArray(types.Null, types.Int64(1)))
	})
}
