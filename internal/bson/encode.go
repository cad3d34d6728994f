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
	"bytes"
	"encoding/binary"
	"strconv"
	"strings"

	"github.com/cristalhq/bson/bsonproto"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// Encode returns BSON representation of the document.
//
// It returns ConversionError for field names containing NUL bytes.
func Encode(doc *types.Document) ([]byte, error) {
	buf := bytes.NewBuffer(make([]byte, 0, sizeDocument(doc)))

	if err := encodeDocument(buf, doc); err != nil {
		return nil, err
	}

	return buf.Bytes(), nil
}

// encodeDocument encodes BSON document.
func encodeDocument(buf *bytes.Buffer, doc *types.Document) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(sizeDocument(doc))); err != nil {
		return lazyerrors.Error(err)
	}

	for _, k := range doc.Keys() {
		if strings.IndexByte(k, 0) >= 0 {
			return commonerrors.Errorf(commonerrors.ErrConversion, "field name %q contains NUL byte", k)
		}

		v, _ := doc.Get(k)
		if err := encodeField(buf, k, v); err != nil {
			return err
		}
	}

	return buf.WriteByte(0)
}

// encodeArray encodes BSON array.
func encodeArray(buf *bytes.Buffer, arr *types.Array) error {
	if err := binary.Write(buf, binary.LittleEndian, uint32(sizeArray(arr))); err != nil {
		return lazyerrors.Error(err)
	}

	for i, v := range arr.Values() {
		if err := encodeField(buf, strconv.Itoa(i), v); err != nil {
			return err
		}
	}

	return buf.WriteByte(0)
}

// encodeField encodes document or array field.
func encodeField(buf *bytes.Buffer, name string, v types.Value) error {
	if err := buf.WriteByte(byte(types.TypeOf(v))); err != nil {
		return lazyerrors.Error(err)
	}

	b := make([]byte, bsonproto.SizeCString(name))
	bsonproto.EncodeCString(b, name)

	if _, err := buf.Write(b); err != nil {
		return lazyerrors.Error(err)
	}

	switch v := v.(type) {
	case *types.Document:
		return encodeDocument(buf, v)

	case *types.Array:
		return encodeArray(buf, v)

	default:
		s := fromScalar(v)

		b = make([]byte, bsonproto.SizeAny(s))
		bsonproto.EncodeAny(b, s)

		if _, err := buf.Write(b); err != nil {
			return lazyerrors.Error(err)
		}
	}

	return nil
}
