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

// Package bson implements encoding and decoding of documents as BSON defined by https://bsonspec.org/spec.html.
//
// It is the binary counterpart of the extjson package:
// all value types map to BSON types with the same tags (see types.BSONType),
// so Decode(Encode(doc)) is identical to doc.
//
// Deprecated BSON types (undefined, DBPointer, JavaScript, symbol)
// and types without a counterpart in the document model (regex, decimal128, min and max keys)
// are rejected by Decode with ConversionError.
package bson

import (
	"fmt"
	"time"

	"github.com/cristalhq/bson/bsonproto"

	"github.com/FerretDB/bobject/internal/types"
)

// DefaultMaxDepth is the default maximum nesting depth of decoded documents and arrays.
const DefaultMaxDepth = 100

// fromScalar converts a scalar value to the bsonproto representation.
//
// It panics for composite values.
func fromScalar(v types.Value) any {
	switch v := v.(type) {
	case types.Double:
		return float64(v)
	case types.String:
		return string(v)
	case types.Binary:
		return bsonproto.Binary{B: v.Bytes(), Subtype: bsonproto.BinarySubtype(v.Subtype())}
	case types.ObjectID:
		return bsonproto.ObjectID(v)
	case types.Bool:
		return bool(v)
	case types.DateTime:
		return v.Time()
	case types.NullType:
		return bsonproto.Null
	case types.Int32:
		return int32(v)
	case types.Timestamp:
		return bsonproto.Timestamp(v.Uint64())
	case types.Int64:
		return int64(v)
	default:
		panic(fmt.Sprintf("bson.fromScalar: invalid type %T", v))
	}
}

// toScalar converts a bsonproto scalar to the document model.
//
// It panics for invalid types.
func toScalar(v any) types.Value {
	switch v := v.(type) {
	case float64:
		return types.Double(v)
	case string:
		return types.String(v)
	case bsonproto.Binary:
		return types.NewBinary(types.BinarySubtype(v.Subtype), v.B)
	case bsonproto.ObjectID:
		return types.ObjectID(v)
	case bool:
		return types.Bool(v)
	case time.Time:
		return types.NewDateTime(v)
	case bsonproto.NullType:
		return types.Null
	case int32:
		return types.Int32(v)
	case bsonproto.Timestamp:
		return types.TimestampFromUint64(uint64(v))
	case int64:
		return types.Int64(v)
	default:
		panic(fmt.Sprintf("bson.toScalar: invalid type %T", v))
	}
}
