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

package extjson

import (
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/jsonparse"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/must"
)

func TestMarshal(t *testing.T) {
	t.Parallel()

	id := must.NotFail(types.ParseObjectID("0102030405060708090a0b0c"))

	for name, tc := range map[string]struct {
		v        types.Value
		expected string
	}{
		"Scalars": {
			v: types.NewArray(
				types.Null, types.Bool(true), types.Int32(-1), types.Int64(1<<40),
				types.Double(1), types.Double(0.1), types.Double(1e21), types.String("s"),
			),
			expected: `[null,true,-1,1099511627776,1.0,0.1,1e+21,"s"]`,
		},
		"ObjectID": {
			v:        id,
			expected: `{"$oid":"0102030405060708090a0b0c"}`,
		},
		"Binary": {
			v:        types.NewBinary(types.BinaryUser, []byte("hi")),
			expected: `{"$binary":"aGk=","$type":"80"}`,
		},
		"Date": {
			v:        types.NewDateTime(time.Date(2024, 3, 1, 12, 30, 0, 5e6, time.UTC)),
			expected: `{"$date":"2024-03-01T12:30:00.005Z"}`,
		},
		"DateFarFuture": {
			v:        types.DateTime(math.MaxInt64),
			expected: `{"$date":9223372036854775807}`,
		},
		"Timestamp": {
			v:        types.NewTimestamp(42, 7),
			expected: `{"$timestamp":{"t":42,"i":7}}`,
		},
		"Document": {
			v: must.NotFail(types.NewDocument(
				"z", types.Int32(1),
				"a", must.NotFail(types.NewDocument("_id", id)),
			)),
			expected: `{"z":1,"a":{"_id":{"$oid":"0102030405060708090a0b0c"}}}`,
		},
	} {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			actual, err := Marshal(tc.v)
			require.NoError(t, err)
			assert.Equal(t, tc.expected, string(actual))

			back, err := Unmarshal(actual, nil)
			require.NoError(t, err)
			assert.True(t, types.Equal(tc.v, back), "%s", types.LogMessage(back))
		})
	}
}

func TestMarshalErrors(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		v      types.Value
		errMsg string
	}{
		"NaN": {
			v:      types.NewArray(types.Double(math.NaN())),
			errMsg: "ConversionError: 0: NaN can't be represented in JSON",
		},
		"Inf": {
			v:      must.NotFail(types.NewDocument("a", must.NotFail(types.NewDocument("b", types.Double(math.Inf(-1)))))),
			errMsg: "ConversionError: a.b: -Inf can't be represented in JSON",
		},
		"ReservedKey": {
			v:      must.NotFail(types.NewDocument("$oid", types.String("x"))),
			errMsg: `ConversionError: (root): document key "$oid" is reserved`,
		},
		"NestedReservedKey": {
			v:      types.NewArray(must.NotFail(types.NewDocument("$type", types.Int32(2)))),
			errMsg: `ConversionError: 0: document key "$type" is reserved`,
		},
	} {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := Marshal(tc.v)
			require.Error(t, err)
			assert.True(t, commonerrors.Is(err, commonerrors.ErrConversion))
			assert.EqualError(t, err, tc.errMsg)
		})
	}
}

func TestUnmarshal(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		in       string
		expected types.Value
		code     commonerrors.ErrorCode
	}{
		"Int32": {
			in:       `2147483647`,
			expected: types.Int32(math.MaxInt32),
		},
		"Int64": {
			in:       `2147483648`,
			expected: types.Int64(math.MaxInt32 + 1),
		},
		"IntegerTooLarge": {
			in:       `9223372036854775808`,
			expected: types.Double(9223372036854775808),
		},
		"Fraction": {
			in:       `1.0`,
			expected: types.Double(1),
		},
		"Exponent": {
			in:       `1e2`,
			expected: types.Double(100),
		},
		"NumberTooLarge": {
			in:   `1e400`,
			code: commonerrors.ErrConversion,
		},
		"OIDUppercase": {
			in:       `{"$oid": "0102030405060708090A0B0C"}`,
			expected: must.NotFail(types.ParseObjectID("0102030405060708090a0b0c")),
		},
		"OIDBadHex": {
			in:   `{"$oid": "xyz"}`,
			code: commonerrors.ErrInvalidFormat,
		},
		"OIDExtraKey": {
			in:   `{"$oid": "0102030405060708090a0b0c", "a": 1}`,
			code: commonerrors.ErrStructural,
		},
		"OIDNotString": {
			in:   `{"$oid": 1}`,
			code: commonerrors.ErrStructural,
		},
		"BinaryReordered": {
			in:       `{"$type": "0", "$binary": ""}`,
			expected: types.NewBinary(types.BinaryGeneric, nil),
		},
		"BinaryNumericType": {
			in:       `{"$binary": "AQI=", "$type": 4}`,
			expected: types.NewBinary(types.BinaryUUID, []byte{1, 2}),
		},
		"BinaryMissingType": {
			in:   `{"$binary": "AQI="}`,
			code: commonerrors.ErrStructural,
		},
		"TypeAlone": {
			in:   `{"$type": "string"}`,
			code: commonerrors.ErrStructural,
		},
		"BinaryBadBase64": {
			in:   `{"$binary": "!", "$type": "00"}`,
			code: commonerrors.ErrInvalidFormat,
		},
		"DateOffset": {
			in:       `{"$date": "2024-03-01T14:30:00.005+02:00"}`,
			expected: types.NewDateTime(time.Date(2024, 3, 1, 12, 30, 0, 5e6, time.UTC)),
		},
		"DateMillis": {
			in:       `{"$date": -1}`,
			expected: types.DateTime(-1),
		},
		"DateBad": {
			in:   `{"$date": "yesterday"}`,
			code: commonerrors.ErrInvalidFormat,
		},
		"TimestampMissingI": {
			in:   `{"$timestamp": {"t": 1}}`,
			code: commonerrors.ErrStructural,
		},
		"TimestampNegative": {
			in:   `{"$timestamp": {"t": -1, "i": 0}}`,
			code: commonerrors.ErrInvalidFormat,
		},
		"NestedAmbiguous": {
			in:   `{"a": [{"$date": "2024-03-01T00:00:00Z", "$oid": "0102030405060708090a0b0c"}]}`,
			code: commonerrors.ErrStructural,
		},
		"ParseError": {
			in:   `{"a": }`,
			code: commonerrors.ErrStructural,
		},
	} {
		name, tc := name, tc
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			actual, err := Unmarshal([]byte(tc.in), nil)
			if tc.expected == nil {
				require.Error(t, err)
				assert.Equal(t, tc.code, commonerrors.CodeOf(err), "%s", err)
				return
			}

			require.NoError(t, err)
			assert.True(t, types.Identical(tc.expected, actual), "%s", types.LogMessage(actual))
		})
	}
}

func TestUnmarshalDocument(t *testing.T) {
	t.Parallel()

	doc, err := UnmarshalDocument([]byte(`{_id: 1, /* c */ v: [1, 2,],}`), &jsonparse.Options{Flavor: jsonparse.Lenient})
	require.NoError(t, err)
	assert.Equal(t, []string{"_id", "v"}, doc.Keys())

	_, err = UnmarshalDocument([]byte(`[]`), nil)
	require.Error(t, err)
	assert.True(t, commonerrors.Is(err, commonerrors.ErrConversion))
	assert.EqualError(t, err, "ConversionError: (root): expected document, got array")
}

func TestMarshalIndent(t *testing.T) {
	t.Parallel()

	doc := must.NotFail(types.NewDocument("a", types.NewArray(types.Int32(1)), "b", types.NewTimestamp(1, 2)))

	expected := "{\n" +
		"  \"a\": [\n" +
		"    1\n" +
		"  ],\n" +
		"  \"b\": {\n" +
		"    \"$timestamp\": {\n" +
		"      \"t\": 1,\n" +
		"      \"i\": 2\n" +
		"    }\n" +
		"  }\n" +
		"}"

	actual, err := MarshalIndent(doc, "", "  ")
	require.NoError(t, err)
	assert.Equal(t, expected, string(actual))
}
