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

// Package types provides the document value model.
//
// Value is a closed set of types mirroring BSON:
//
//	types.NullType    Null
//	types.Bool        Boolean
//	types.Int32       32-bit integer
//	types.Int64       64-bit integer
//	types.Double      64-bit binary floating point
//	types.String      UTF-8 string
//	types.Binary      Binary data with subtype
//	types.ObjectID    ObjectId
//	types.DateTime    UTC datetime with millisecond precision
//	types.Timestamp   Timestamp (seconds and ordinal)
//	*types.Array      Array
//	*types.Document   Document (object)
//
// All values are immutable. Documents and arrays have no exported mutators;
// methods like Document.With return new instances sharing unchanged subtrees.
// That makes all values safe for concurrent use without locking.
//
// Consumers should use exhaustive type switches over Value.
package types

import "fmt"

// Value represents any document value, scalar or composite.
//
//go-sumtype:decl Value
type Value interface {
	value() // seal for go-sumtype
}

type (
	// NullType represents BSON Null.
	//
	// Most callers should use the Null value.
	NullType struct{}

	// Bool represents BSON Boolean.
	Bool bool

	// Int32 represents BSON 32-bit integer.
	Int32 int32

	// Int64 represents BSON 64-bit integer.
	Int64 int64

	// Double represents BSON 64-bit binary floating point.
	Double float64

	// String represents BSON UTF-8 string.
	String string
)

// Null represents BSON Null.
var Null = NullType{}

func (NullType) value() {}
func (Bool) value() {}
func (Int32) value() {}
func (Int64) value() {}
func (Double) value() {}
func (String) value() {}
func (Binary) value() {}
func (ObjectID) value() {}
func (DateTime) value() {}
func (Timestamp) value() {}
func (*Array) value() {}
func (*Document) value() {}

// BSONType is a BSON element type tag.
type BSONType byte

// BSON element type tags.
const (
	TypeDouble    = BSONType(0x01) // double
	TypeString    = BSONType(0x02) // string
	TypeDocument  = BSONType(0x03) // object
	TypeArray     = BSONType(0x04) // array
	TypeBinary    = BSONType(0x05) // binData
	TypeObjectID  = BSONType(0x07) // objectId
	TypeBool      = BSONType(0x08) // bool
	TypeDateTime  = BSONType(0x09) // date
	TypeNull      = BSONType(0x0a) // null
	TypeInt32     = BSONType(0x10) // int
	TypeTimestamp = BSONType(0x11) // timestamp
	TypeInt64     = BSONType(0x12) // long
)

// String returns the type alias as used by MongoDB's $type operator.
func (t BSONType) String() string {
	switch t {
	case TypeDouble:
		return "double"
	case TypeString:
		return "string"
	case TypeDocument:
		return "object"
	case TypeArray:
		return "array"
	case TypeBinary:
		return "binData"
	case TypeObjectID:
		return "objectId"
	case TypeBool:
		return "bool"
	case TypeDateTime:
		return "date"
	case TypeNull:
		return "null"
	case TypeInt32:
		return "int"
	case TypeTimestamp:
		return "timestamp"
	case TypeInt64:
		return "long"
	default:
		return fmt.Sprintf("BSONType(0x%02x)", byte(t))
	}
}

// TypeOf returns the BSON type tag of v.
//
// It panics if v is nil.
func TypeOf(v Value) BSONType {
	switch v.(type) {
	case NullType:
		return TypeNull
	case Bool:
		return TypeBool
	case Int32:
		return TypeInt32
	case Int64:
		return TypeInt64
	case Double:
		return TypeDouble
	case String:
		return TypeString
	case Binary:
		return TypeBinary
	case ObjectID:
		return TypeObjectID
	case DateTime:
		return TypeDateTime
	case Timestamp:
		return TypeTimestamp
	case *Array:
		return TypeArray
	case *Document:
		return TypeDocument
	default:
		panic(fmt.Sprintf("types.TypeOf: invalid value %T", v))
	}
}

// check interfaces
var (
	_ Value = Null
	_ Value = Bool(false)
	_ Value = Int32(0)
	_ Value = Int64(0)
	_ Value = Double(0)
	_ Value = String("")
	_ Value = Binary{}
	_ Value = ObjectID{}
	_ Value = DateTime(0)
	_ Value = Timestamp{}
	_ Value = (*Array)(nil)
	_ Value = (*Document)(nil)
)
