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
	"time"

	"github.com/google/uuid"
	"golang.org/x/exp/constraints"

	"github.com/FerretDB/bobject/internal/types"
)

// Scalar codecs.
var (
	// Bool converts bool to and from types.Bool.
	Bool = New(
		func(v bool) (types.Value, error) { return types.Bool(v), nil },
		func(v types.Value) (bool, error) {
			b, ok := v.(types.Bool)
			if !ok {
				return false, mismatch("bool", v)
			}

			return bool(b), nil
		},
	)

	// String converts string to and from types.String.
	String = New(
		func(v string) (types.Value, error) { return types.String(v), nil },
		func(v types.Value) (string, error) {
			s, ok := v.(types.String)
			if !ok {
				return "", mismatch("string", v)
			}

			return string(s), nil
		},
	)

	// Float64 converts float64 to types.Double.
	// It decodes any numeric value that could be represented exactly.
	Float64 = New(
		func(v float64) (types.Value, error) { return types.Double(v), nil },
		toFloat64,
	)

	// Int32 converts int32 to types.Int32.
	// It decodes any numeric value with an integer value in range.
	Int32 = Integer[int32]()

	// Int64 converts int64 to types.Int64.
	// It decodes any numeric value with an integer value in range.
	Int64 = New(
		func(v int64) (types.Value, error) { return types.Int64(v), nil },
		toInt64,
	)

	// Time converts time.Time to types.DateTime, truncating it to milliseconds.
	// Decoded values are in UTC.
	Time = New(
		func(v time.Time) (types.Value, error) { return types.NewDateTime(v), nil },
		func(v types.Value) (time.Time, error) {
			dt, ok := v.(types.DateTime)
			if !ok {
				return time.Time{}, mismatch("date", v)
			}

			return dt.Time(), nil
		},
	)

	// ObjectID converts types.ObjectID.
	ObjectID = New(
		func(v types.ObjectID) (types.Value, error) { return v, nil },
		func(v types.Value) (types.ObjectID, error) {
			id, ok := v.(types.ObjectID)
			if !ok {
				return types.ObjectID{}, mismatch("objectId", v)
			}

			return id, nil
		},
	)

	// Binary converts types.Binary.
	Binary = New(
		func(v types.Binary) (types.Value, error) { return v, nil },
		func(v types.Value) (types.Binary, error) {
			bin, ok := v.(types.Binary)
			if !ok {
				return types.Binary{}, mismatch("binData", v)
			}

			return bin, nil
		},
	)

	// Bytes converts []byte to generic binary data.
	// It decodes binary data of any subtype.
	Bytes = New(
		func(v []byte) (types.Value, error) { return types.NewBinary(types.BinaryGeneric, v), nil },
		func(v types.Value) ([]byte, error) {
			bin, ok := v.(types.Binary)
			if !ok {
				return nil, mismatch("binData", v)
			}

			return bin.Bytes(), nil
		},
	)

	// UUID converts uuid.UUID to binary data of uuid subtype.
	UUID = New(
		func(v uuid.UUID) (types.Value, error) { return types.NewBinary(types.BinaryUUID, v[:]), nil },
		func(v types.Value) (uuid.UUID, error) {
			bin, ok := v.(types.Binary)
			if !ok {
				return uuid.Nil, mismatch("binData", v)
			}

			u, err := bin.UUID()
			if err != nil {
				return uuid.Nil, &ConversionError{Err: err}
			}

			return u, nil
		},
	)

	// Timestamp converts types.Timestamp.
	Timestamp = New(
		func(v types.Timestamp) (types.Value, error) { return v, nil },
		func(v types.Value) (types.Timestamp, error) {
			ts, ok := v.(types.Timestamp)
			if !ok {
				return types.Timestamp{}, mismatch("timestamp", v)
			}

			return ts, nil
		},
	)

	// Document converts *types.Document.
	Document = New(
		func(v *types.Document) (types.Value, error) {
			if v == nil {
				return nil, conversionErrorf("nil document")
			}

			return v, nil
		},
		func(v types.Value) (*types.Document, error) {
			doc, ok := v.(*types.Document)
			if !ok {
				return nil, mismatch("object", v)
			}

			return doc, nil
		},
	)

	// Any converts types.Value to itself.
	Any = New(
		func(v types.Value) (types.Value, error) {
			if v == nil {
				return nil, conversionErrorf("nil value")
			}

			return v, nil
		},
		func(v types.Value) (types.Value, error) {
			if v == nil {
				return nil, conversionErrorf("nil value")
			}

			return v, nil
		},
	)
)

// Integer returns a codec for any integer type.
//
// Values are encoded as types.Int32 if they fit, otherwise as types.Int64;
// unsigned values larger than math.MaxInt64 can't be encoded.
// Any numeric value with an integer value in T's range is decoded.
func Integer[T constraints.Integer]() Codec[T] {
	return New(
		func(v T) (types.Value, error) {
			if v > 0 && int64(v) < 0 {
				return nil, conversionErrorf("%d does not fit into 64-bit integer", v)
			}

			i := int64(v)
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return types.Int32(i), nil
			}

			return types.Int64(i), nil
		},
		func(v types.Value) (T, error) {
			i, err := toInt64(v)
			if err != nil {
				return 0, err
			}

			t := T(i)
			if int64(t) != i || (i < 0 && t > 0) {
				return 0, conversionErrorf("%d is out of range for %T", i, t)
			}

			return t, nil
		},
	)
}

// toInt64 returns an integer value of any numeric value.
func toInt64(v types.Value) (int64, error) {
	switch v := v.(type) {
	case types.Int32:
		return int64(v), nil
	case types.Int64:
		return int64(v), nil
	case types.Double:
		f := float64(v)
		if f != math.Trunc(f) || f < -0x1p63 || f >= 0x1p63 {
			return 0, conversionErrorf("%v is not a 64-bit integer", f)
		}

		return int64(f), nil
	default:
		return 0, mismatch("number", v)
	}
}

// toFloat64 returns a floating point value of any numeric value that could be represented exactly.
func toFloat64(v types.Value) (float64, error) {
	switch v := v.(type) {
	case types.Double:
		return float64(v), nil
	case types.Int32:
		return float64(v), nil
	case types.Int64:
		f := float64(v)
		if f >= 0x1p63 || int64(f) != int64(v) {
			return 0, conversionErrorf("%d can't be represented exactly as double", v)
		}

		return f, nil
	default:
		return 0, mismatch("number", v)
	}
}
