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

// Package extjson maps document values to and from JSON trees
// using reserved keys for types JSON can't represent:
//
//	ObjectID:   {"$oid": "<24 lowercase hex characters>"}
//	Binary:     {"$binary": "<standard base64>", "$type": "<subtype as 2 hex digits>"}
//	DateTime:   {"$date": "<RFC 3339 UTC with milliseconds>"}, or {"$date": <milliseconds>} outside years 0-9999
//	Timestamp:  {"$timestamp": {"t": <seconds>, "i": <ordinal>}}
//	Int32:      JSON number without fraction and exponent
//	Int64:      JSON number without fraction and exponent
//	Double:     JSON number with fraction or exponent: 1.0, 1e+21
//
// Other values map to the corresponding JSON shapes.
//
// Reserved keys are $oid, $binary, $type, $date, and $timestamp.
// Ambiguity is resolved by strict rejection:
// ToTree fails with ConversionError for any document that has a reserved key,
// and FromTree fails with StructuralError for any object with a reserved key
// that does not exactly match one of the shapes above.
// Therefore, FromTree(ToTree(v)) is equal to v for all values without NaN and infinite doubles.
//
// Integer numbers are decoded as Int32 when they fit, then as Int64, then as Double.
// Because of that, Int64 values that fit into 32 bits come back as Int32;
// they are still equal with types.Equal.
package extjson

import (
	"strconv"
	"strings"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/jsonparse"
	"github.com/FerretDB/bobject/internal/jsontree"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// Reserved keys.
const (
	keyOID       = "$oid"
	keyBinary    = "$binary"
	keyType      = "$type"
	keyDate      = "$date"
	keyTimestamp = "$timestamp"
)

// IsReservedKey returns true if key can't be used as a document field name in extended JSON.
func IsReservedKey(key string) bool {
	switch key {
	case keyOID, keyBinary, keyType, keyDate, keyTimestamp:
		return true
	default:
		return false
	}
}

// path is a location inside a value, used in error messages.
type path []string

// String returns a dot-separated path, or "(root)" for an empty one.
func (p path) String() string {
	if len(p) == 0 {
		return "(root)"
	}

	return strings.Join(p, ".")
}

// child returns a new path with the element appended.
func (p path) child(e string) path {
	return append(p[:len(p):len(p)], e)
}

// index returns a new path with the array index appended.
func (p path) index(i int) path {
	return p.child(strconv.Itoa(i))
}

// newError returns a new error with the given code and location.
func newError(code commonerrors.ErrorCode, p path, format string, a ...any) error {
	return commonerrors.Errorf(code, "%s: "+format, append([]any{p}, a...)...)
}

// Marshal returns compact JSON text for v.
func Marshal(v types.Value) ([]byte, error) {
	t, err := ToTree(v)
	if err != nil {
		return nil, err
	}

	return jsontree.Render(t), nil
}

// MarshalIndent is like Marshal but indents the output.
func MarshalIndent(v types.Value, prefix, indent string) ([]byte, error) {
	t, err := ToTree(v)
	if err != nil {
		return nil, err
	}

	return jsontree.RenderIndent(t, prefix, indent), nil
}

// Unmarshal parses JSON text and converts it to a value.
func Unmarshal(data []byte, opts *jsonparse.Options) (types.Value, error) {
	t, err := jsonparse.Parse(data, opts)
	if err != nil {
		return nil, err
	}

	return FromTree(t)
}

// UnmarshalDocument is like Unmarshal but requires a document.
func UnmarshalDocument(data []byte, opts *jsonparse.Options) (*types.Document, error) {
	v, err := Unmarshal(data, opts)
	if err != nil {
		return nil, err
	}

	doc, ok := v.(*types.Document)
	if !ok {
		return nil, newError(commonerrors.ErrConversion, nil, "expected document, got %s", types.TypeOf(v))
	}

	return doc, nil
}

// MustMarshal is a variant of Marshal for values that are known to be representable.
//
// It panics on errors.
func MustMarshal(v types.Value) []byte {
	b, err := Marshal(v)
	if err != nil {
		panic(lazyerrors.Error(err))
	}

	return b
}
