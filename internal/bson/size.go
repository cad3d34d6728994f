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
	"strconv"

	"github.com/cristalhq/bson/bsonproto"

	"github.com/FerretDB/bobject/internal/types"
)

// sizeAny returns a size of the encoding of value v in bytes.
func sizeAny(v types.Value) int {
	switch v := v.(type) {
	case *types.Document:
		return sizeDocument(v)
	case *types.Array:
		return sizeArray(v)
	default:
		return bsonproto.SizeAny(fromScalar(v))
	}
}

// sizeDocument returns a size of the encoding of document doc in bytes.
func sizeDocument(doc *types.Document) int {
	size := 5

	for _, k := range doc.Keys() {
		v, _ := doc.Get(k)
		size += 1 + len(k) + 1 + sizeAny(v)
	}

	return size
}

// sizeArray returns a size of the encoding of array arr in bytes.
func sizeArray(arr *types.Array) int {
	size := 5

	for i, v := range arr.Values() {
		size += 1 + len(strconv.Itoa(i)) + 1 + sizeAny(v)
	}

	return size
}
