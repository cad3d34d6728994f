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

package bson

import (
	"encoding/binary"
	"errors"
	"fmt"
	"strconv"

	"github.com/cristalhq/bson/bsonproto"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// Tags without a counterpart in the document model.
const (
	tagUndefined       = byte(0x06)
	tagRegex           = byte(0x0b)
	tagDBPointer       = byte(0x0c)
	tagJavaScript      = byte(0x0d)
	tagSymbol          = byte(0x0e)
	tagJavaScriptScope = byte(0x0f)
	tagDecimal         = byte(0x13)
	tagMinKey          = byte(0xff)
	tagMaxKey          = byte(0x7f)
)

// Decode decodes a single BSON document that takes the whole byte slice.
//
// It returns InvalidFormat error for malformed input,
// StructuralError for nesting deeper than DefaultMaxDepth,
// and ConversionError for unsupported BSON types.
func Decode(b []byte) (*types.Document, error) {
	return DecodeDepth(b, DefaultMaxDepth)
}

// DecodeDepth is like Decode with a custom maximum nesting depth.
func DecodeDepth(b []byte, maxDepth int) (*types.Document, error) {
	d := decoder{maxDepth: maxDepth}

	res, err := d.document(b, 1)
	if err != nil {
		return nil, err
	}

	return res, nil
}

// decoder holds decoding state.
type decoder struct {
	maxDepth int
}

// invalid returns InvalidFormat error.
func invalid(format string, a ...any) error {
	return commonerrors.Errorf(commonerrors.ErrInvalidFormat, format, a...)
}

// wrap converts bsonproto errors to InvalidFormat errors.
func wrap(err error) error {
	if errors.Is(err, bsonproto.ErrDecodeShortInput) || errors.Is(err, bsonproto.ErrDecodeInvalidInput) {
		return commonerrors.NewError(commonerrors.ErrInvalidFormat, err)
	}

	return lazyerrors.Error(err)
}

// element is a decoded name and value pair.
type element struct {
	name  string
	value types.Value
}

// elements decodes all elements of a document or array.
func (d *decoder) elements(raw []byte, depth int) ([]element, error) {
	if depth > d.maxDepth {
		return nil, commonerrors.Errorf(commonerrors.ErrStructural, "maximum nesting depth %d exceeded", d.maxDepth)
	}

	bl := len(raw)
	if bl < 5 {
		return nil, invalid("len(b) = %d, must be at least 5", bl)
	}

	if dl := int(binary.LittleEndian.Uint32(raw)); bl != dl {
		return nil, invalid("len(b) = %d, document length = %d", bl, dl)
	}

	if last := raw[bl-1]; last != 0 {
		return nil, invalid("last byte = %d, must be 0", last)
	}

	var res []element

	offset := 4
	for offset != bl-1 {
		t := raw[offset]
		offset++

		name, err := bsonproto.DecodeCString(raw[offset : bl-1])
		if err != nil {
			return nil, wrap(err)
		}

		offset += len(name) + 1

		// the terminating zero can't be a part of the value
		b := raw[offset : bl-1]

		var v any
		var size int

		switch types.BSONType(t) {
		case types.TypeDocument, types.TypeArray:
			if len(b) < 4 {
				return nil, invalid("field %q: short input", name)
			}

			size = int(binary.LittleEndian.Uint32(b))
			if size < 5 || size > len(b) {
				return nil, invalid("field %q: invalid length %d", name, size)
			}

			var cv types.Value
			if types.BSONType(t) == types.TypeDocument {
				cv, err = d.document(b[:size], depth+1)
			} else {
				cv, err = d.array(b[:size], depth+1)
			}

			if err != nil {
				return nil, err
			}

			res = append(res, element{name: name, value: cv})
			offset += size

			continue

		case types.TypeDouble:
			v, err = bsonproto.DecodeFloat64(b)
			size = bsonproto.SizeFloat64

		case types.TypeString:
			var s string
			s, err = bsonproto.DecodeString(b)
			size = bsonproto.SizeString(s)
			v = s

		case types.TypeBinary:
			var bin bsonproto.Binary
			bin, err = bsonproto.DecodeBinary(b)
			size = bsonproto.SizeBinary(bin)
			v = bin

		case types.TypeObjectID:
			v, err = bsonproto.DecodeObjectID(b)
			size = bsonproto.SizeObjectID

		case types.TypeBool:
			v, err = bsonproto.DecodeBool(b)
			size = bsonproto.SizeBool

		case types.TypeDateTime:
			v, err = bsonproto.DecodeTime(b)
			size = bsonproto.SizeTime

		case types.TypeNull:
			v = bsonproto.Null

		case types.TypeInt32:
			v, err = bsonproto.DecodeInt32(b)
			size = bsonproto.SizeInt32

		case types.TypeTimestamp:
			v, err = bsonproto.DecodeTimestamp(b)
			size = bsonproto.SizeTimestamp

		case types.TypeInt64:
			v, err = bsonproto.DecodeInt64(b)
			size = bsonproto.SizeInt64

		default:
			switch t {
			case tagUndefined, tagRegex, tagDBPointer, tagJavaScript, tagSymbol, tagJavaScriptScope,
				tagDecimal, tagMinKey, tagMaxKey:
				return nil, commonerrors.Errorf(
					commonerrors.ErrConversion, "field %q: unsupported BSON type 0x%02x", name, t,
				)
			default:
				return nil, invalid("field %q: unexpected BSON type 0x%02x", name, t)
			}
		}

		if err != nil {
			return nil, wrap(fmt.Errorf("field %q: %w", name, err))
		}

		res = append(res, element{name: name, value: toScalar(v)})
		offset += size
	}

	return res, nil
}

// document decodes BSON document.
//
// Duplicate field names are allowed; the last value wins, keeping the position of the first one.
func (d *decoder) document(raw []byte, depth int) (*types.Document, error) {
	elements, err := d.elements(raw, depth)
	if err != nil {
		return nil, err
	}

	b := types.NewDocumentBuilder(len(elements))
	for _, e := range elements {
		b.Add(e.name, e.value)
	}

	return b.Build(), nil
}

// array decodes BSON array.
//
// Element names must be consecutive decimal indexes starting from 0.
func (d *decoder) array(raw []byte, depth int) (*types.Array, error) {
	elements, err := d.elements(raw, depth)
	if err != nil {
		return nil, err
	}

	values := make([]types.Value, len(elements))

	for i, e := range elements {
		if e.name != strconv.Itoa(i) {
			return nil, invalid("array element %d has name %q", i, e.name)
		}

		values[i] = e.value
	}

	return types.NewArray(values...), nil
}
