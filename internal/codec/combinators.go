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
	"slices"
	"strconv"

	"golang.org/x/exp/maps"

	"github.com/FerretDB/bobject/internal/types"
)

// SliceOf returns a codec for slices with the given element codec.
//
// Nil slices are encoded as empty arrays; Null is decoded as a nil slice.
// Decoding reports the first failing element with its index as the path.
func SliceOf[T any](c Codec[T]) Codec[[]T] {
	return New(
		func(s []T) (types.Value, error) {
			values := make([]types.Value, len(s))

			for i, e := range s {
				v, err := c.Encode(e)
				if err != nil {
					return nil, withPath(strconv.Itoa(i), err)
				}

				values[i] = v
			}

			return types.NewArray(values...), nil
		},
		func(v types.Value) ([]T, error) {
			if v == types.Null {
				return nil, nil
			}

			arr, ok := v.(*types.Array)
			if !ok {
				return nil, mismatch("array", v)
			}

			res := make([]T, arr.Len())

			for i, e := range arr.Values() {
				d, err := c.Decode(e)
				if err != nil {
					return nil, withPath(strconv.Itoa(i), err)
				}

				res[i] = d
			}

			return res, nil
		},
	)
}

// MapOf returns a codec for maps with string keys and the given value codec.
//
// Keys are encoded in sorted order.
// Nil maps are encoded as empty documents; Null is decoded as a nil map.
func MapOf[V any](c Codec[V]) Codec[map[string]V] {
	return New(
		func(m map[string]V) (types.Value, error) {
			keys := maps.Keys(m)
			slices.Sort(keys)

			b := types.NewDocumentBuilder(len(keys))

			for _, k := range keys {
				v, err := c.Encode(m[k])
				if err != nil {
					return nil, withPath(k, err)
				}

				b.Add(k, v)
			}

			return b.Build(), nil
		},
		func(v types.Value) (map[string]V, error) {
			if v == types.Null {
				return nil, nil
			}

			doc, ok := v.(*types.Document)
			if !ok {
				return nil, mismatch("object", v)
			}

			res := make(map[string]V, doc.Len())

			for _, k := range doc.Keys() {
				e, _ := doc.Get(k)

				d, err := c.Decode(e)
				if err != nil {
					return nil, withPath(k, err)
				}

				res[k] = d
			}

			return res, nil
		},
	)
}

// Pointer returns a codec for pointers with the given element codec.
//
// Nil pointers are encoded as Null; Null is decoded as a nil pointer.
func Pointer[T any](c Codec[T]) Codec[*T] {
	return New(
		func(p *T) (types.Value, error) {
			if p == nil {
				return types.Null, nil
			}

			return c.Encode(*p)
		},
		func(v types.Value) (*T, error) {
			if v == types.Null {
				return nil, nil
			}

			d, err := c.Decode(v)
			if err != nil {
				return nil, err
			}

			return &d, nil
		},
	)
}
