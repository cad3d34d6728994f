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
	"encoding/base64"
	"fmt"
	"math"
	"strconv"
	"time"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/jsontree"
	"github.com/FerretDB/bobject/internal/types"
)

// dateLayout is used for rendering dates.
const dateLayout = "2006-01-02T15:04:05.000Z"

// ToTree converts a value to a JSON tree.
//
// It returns ConversionError for NaN and infinite doubles
// and for documents with reserved keys.
func ToTree(v types.Value) (jsontree.Value, error) {
	return toTree(v, nil)
}

// toTree converts a value at the given location.
func toTree(v types.Value, p path) (jsontree.Value, error) {
	switch v := v.(type) {
	case *types.Document:
		members := make([]jsontree.Member, 0, v.Len())

		for _, k := range v.Keys() {
			if IsReservedKey(k) {
				return nil, newError(commonerrors.ErrConversion, p, "document key %q is reserved", k)
			}

			fv, _ := v.Get(k)

			t, err := toTree(fv, p.child(k))
			if err != nil {
				return nil, err
			}

			members = append(members, jsontree.Member{Key: k, Value: t})
		}

		return jsontree.NewObject(members...), nil

	case *types.Array:
		values := make([]jsontree.Value, v.Len())

		for i, ev := range v.Values() {
			t, err := toTree(ev, p.index(i))
			if err != nil {
				return nil, err
			}

			values[i] = t
		}

		return jsontree.NewArray(values...), nil

	case types.NullType:
		return jsontree.Null, nil

	case types.Bool:
		return jsontree.Bool(v), nil

	case types.Int32:
		return jsontree.NumberFromInt64(int64(v)), nil

	case types.Int64:
		return jsontree.NumberFromInt64(int64(v)), nil

	case types.Double:
		n, err := jsontree.NumberFromFloat64(float64(v))
		if err != nil {
			return nil, newError(commonerrors.ErrConversion, p, "%v can't be represented in JSON", float64(v))
		}

		return n, nil

	case types.String:
		return jsontree.String(v), nil

	case types.ObjectID:
		return jsontree.NewObject(jsontree.Member{Key: keyOID, Value: jsontree.String(v.Hex())}), nil

	case types.Binary:
		return jsontree.NewObject(
			jsontree.Member{Key: keyBinary, Value: jsontree.String(base64.StdEncoding.EncodeToString(v.Bytes()))},
			jsontree.Member{Key: keyType, Value: jsontree.String(fmt.Sprintf("%02x", byte(v.Subtype())))},
		), nil

	case types.DateTime:
		var date jsontree.Value

		if t := v.Time(); t.Year() >= 0 && t.Year() <= 9999 {
			date = jsontree.String(t.Format(dateLayout))
		} else {
			date = jsontree.NumberFromInt64(int64(v))
		}

		return jsontree.NewObject(jsontree.Member{Key: keyDate, Value: date}), nil

	case types.Timestamp:
		return jsontree.NewObject(jsontree.Member{
			Key: keyTimestamp,
			Value: jsontree.NewObject(
				jsontree.Member{Key: "t", Value: jsontree.NumberFromInt64(int64(v.T))},
				jsontree.Member{Key: "i", Value: jsontree.NumberFromInt64(int64(v.I))},
			),
		}), nil

	default:
		panic(fmt.Sprintf("extjson.toTree: unhandled type %T", v))
	}
}

// FromTree converts a JSON tree to a value.
//
// It returns StructuralError for objects with reserved keys that don't match any known shape,
// InvalidFormat for malformed contents of known shapes (such as bad ObjectID hex),
// and ConversionError for numbers that don't fit into a double.
func FromTree(v jsontree.Value) (types.Value, error) {
	return fromTree(v, nil)
}

// fromTree converts a JSON tree at the given location.
func fromTree(v jsontree.Value, p path) (types.Value, error) {
	switch v := v.(type) {
	case *jsontree.Object:
		if reserved := reservedKey(v); reserved != "" {
			return fromReserved(v, reserved, p)
		}

		b := types.NewDocumentBuilder(v.Len())

		for _, m := range v.Members() {
			fv, err := fromTree(m.Value, p.child(m.Key))
			if err != nil {
				return nil, err
			}

			b.Add(m.Key, fv)
		}

		return b.Build(), nil

	case *jsontree.Array:
		values := make([]types.Value, v.Len())

		for i, ev := range v.Values() {
			fv, err := fromTree(ev, p.index(i))
			if err != nil {
				return nil, err
			}

			values[i] = fv
		}

		return types.NewArray(values...), nil

	case jsontree.NullType:
		return types.Null, nil

	case jsontree.Bool:
		return types.Bool(v), nil

	case jsontree.String:
		return types.String(v), nil

	case jsontree.Number:
		return fromNumber(v, p)

	default:
		panic(fmt.Sprintf("extjson.fromTree: unhandled type %T", v))
	}
}

// fromNumber converts a JSON number to the narrowest fitting numeric value.
func fromNumber(n jsontree.Number, p path) (types.Value, error) {
	if n.IsInteger() {
		if i, err := n.Int64(); err == nil {
			if i >= math.MinInt32 && i <= math.MaxInt32 {
				return types.Int32(i), nil
			}

			return types.Int64(i), nil
		}
	}

	f, err := n.Float64()
	if err != nil {
		return nil, newError(commonerrors.ErrConversion, p, "number %s doesn't fit into double", n)
	}

	return types.Double(f), nil
}

// reservedKey returns the first reserved key of the object, or an empty string.
func reservedKey(o *jsontree.Object) string {
	for _, k := range o.Keys() {
		if IsReservedKey(k) {
			return k
		}
	}

	return ""
}

// fromReserved converts an object with a reserved key to a typed value.
//
// Only exact shapes are accepted.
func fromReserved(o *jsontree.Object, key string, p path) (types.Value, error) {
	switch key {
	case keyOID:
		s, err := shape[jsontree.String](o, p, keyOID)
		if err != nil {
			return nil, err
		}

		id, err := types.ParseObjectID(string(s))
		if err != nil {
			return nil, newError(commonerrors.ErrInvalidFormat, p, "%s", err)
		}

		return id, nil

	case keyBinary, keyType:
		return fromBinary(o, p)

	case keyDate:
		return fromDate(o, p)

	case keyTimestamp:
		return fromTimestamp(o, p)

	default:
		panic(fmt.Sprintf("extjson.fromReserved: unexpected key %q", key))
	}
}

// shape checks that the object has exactly one member with the given key and value type,
// and returns that value.
func shape[T jsontree.Value](o *jsontree.Object, p path, key string) (T, error) {
	var zero T

	if o.Len() != 1 {
		return zero, newError(
			commonerrors.ErrStructural, p, "object with %q key must have exactly 1 member, got %d", key, o.Len(),
		)
	}

	v, ok := o.Get(key)
	if !ok {
		return zero, newError(commonerrors.ErrStructural, p, "object must have %q key", key)
	}

	res, ok := v.(T)
	if !ok {
		return zero, newError(commonerrors.ErrStructural, p, "invalid value type for %q key: %T", key, v)
	}

	return res, nil
}

// fromBinary converts {"$binary": ..., "$type": ...} object.
func fromBinary(o *jsontree.Object, p path) (types.Value, error) {
	if o.Len() != 2 || !o.Has(keyBinary) || !o.Has(keyType) {
		return nil, newError(
			commonerrors.ErrStructural, p, "binary object must have exactly %q and %q keys, got %q", keyBinary, keyType, o.Keys(),
		)
	}

	bv, _ := o.Get(keyBinary)

	s, ok := bv.(jsontree.String)
	if !ok {
		return nil, newError(commonerrors.ErrStructural, p, "invalid value type for %q key: %T", keyBinary, bv)
	}

	b, err := base64.StdEncoding.DecodeString(string(s))
	if err != nil {
		return nil, newError(commonerrors.ErrInvalidFormat, p, "invalid base64 binary data: %s", err)
	}

	tv, _ := o.Get(keyType)

	var subtype uint64

	switch tv := tv.(type) {
	case jsontree.String:
		if len(tv) == 0 || len(tv) > 2 {
			return nil, newError(commonerrors.ErrInvalidFormat, p, "binary subtype must be 1 or 2 hex digits, got %q", tv)
		}

		if subtype, err = strconv.ParseUint(string(tv), 16, 8); err != nil {
			return nil, newError(commonerrors.ErrInvalidFormat, p, "invalid binary subtype %q", tv)
		}

	case jsontree.Number:
		i, err := tv.Int64()
		if err != nil || i < 0 || i > math.MaxUint8 {
			return nil, newError(commonerrors.ErrInvalidFormat, p, "invalid binary subtype %s", tv)
		}

		subtype = uint64(i)

	default:
		return nil, newError(commonerrors.ErrStructural, p, "invalid value type for %q key: %T", keyType, tv)
	}

	return types.NewBinary(types.BinarySubtype(subtype), b), nil
}

// fromDate converts {"$date": ...} object.
func fromDate(o *jsontree.Object, p path) (types.Value, error) {
	if o.Len() != 1 {
		return nil, newError(
			commonerrors.ErrStructural, p, "object with %q key must have exactly 1 member, got %d", keyDate, o.Len(),
		)
	}

	v, _ := o.Get(keyDate)

	switch v := v.(type) {
	case jsontree.String:
		t, err := time.Parse(time.RFC3339, string(v))
		if err != nil {
			return nil, newError(commonerrors.ErrInvalidFormat, p, "invalid date %q", v)
		}

		return types.NewDateTime(t), nil

	case jsontree.Number:
		ms, err := v.Int64()
		if err != nil {
			return nil, newError(commonerrors.ErrInvalidFormat, p, "invalid date %s", v)
		}

		return types.DateTime(ms), nil

	default:
		return nil, newError(commonerrors.ErrStructural, p, "invalid value type for %q key: %T", keyDate, v)
	}
}

// fromTimestamp converts {"$timestamp": {"t": ..., "i": ...}} object.
func fromTimestamp(o *jsontree.Object, p path) (types.Value, error) {
	inner, err := shape[*jsontree.Object](o, p, keyTimestamp)
	if err != nil {
		return nil, err
	}

	if inner.Len() != 2 || !inner.Has("t") || !inner.Has("i") {
		return nil, newError(
			commonerrors.ErrStructural, p, "timestamp object must have exactly \"t\" and \"i\" keys, got %q", inner.Keys(),
		)
	}

	var parts [2]uint32

	for i, k := range []string{"t", "i"} {
		v, _ := inner.Get(k)

		n, ok := v.(jsontree.Number)
		if !ok {
			return nil, newError(commonerrors.ErrStructural, p, "invalid value type for timestamp %q: %T", k, v)
		}

		u, err := n.Int64()
		if err != nil || u < 0 || u > math.MaxUint32 {
			return nil, newError(commonerrors.ErrInvalidFormat, p, "invalid timestamp %q value %s", k, n)
		}

		parts[i] = uint32(u)
	}

	return types.NewTimestamp(parts[0], parts[1]), nil
}
