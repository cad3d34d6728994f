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

package backends

import (
	"math"
	"slices"

	"github.com/FerretDB/bobject/internal/extjson"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// IDKey returns a canonical string form of the document identifier.
//
// Identifiers equal by types.Equal have the same key:
// Int32(1), Int64(1) and Double(1) are all "1",
// and document fields are keyed in sorted order at every level.
// Top-level arrays, NaN and infinite doubles are not valid identifiers.
//
// SQL backends store that key in the primary key column.
func IDKey(id types.Value) (string, error) {
	if _, ok := id.(*types.Array); ok {
		return "", lazyerrors.New("array can't be used as _id")
	}

	id, err := normalizeID(id)
	if err != nil {
		return "", lazyerrors.Error(err)
	}

	return idKey(id)
}

// normalizeID converts integral numbers to Int64 and sorts document fields, recursively.
func normalizeID(v types.Value) (types.Value, error) {
	switch v := v.(type) {
	case types.Int32:
		return types.Int64(v), nil

	case types.Double:
		f := float64(v)
		if math.IsNaN(f) || math.IsInf(f, 0) {
			return nil, lazyerrors.Errorf("%v can't be used as _id", f)
		}

		if f == math.Trunc(f) && f >= -(1<<63) && f < 1<<63 {
			return types.Int64(int64(f)), nil
		}

		return v, nil

	case *types.Document:
		keys := v.Keys()
		slices.Sort(keys)
		b := types.NewDocumentBuilder(len(keys))

		for _, k := range keys {
			fv, _ := v.Get(k)

			nv, err := normalizeID(fv)
			if err != nil {
				return nil, err
			}

			b.Add(k, nv)
		}

		return b.Build(), nil

	case *types.Array:
		values := v.Values()
		res := make([]types.Value, len(values))

		for i, ev := range values {
			nv, err := normalizeID(ev)
			if err != nil {
				return nil, err
			}

			res[i] = nv
		}

		return types.NewArray(res...), nil

	default:
		return v, nil
	}
}

// idKey renders id as compact extended JSON.
func idKey(id types.Value) (string, error) {
	b, err := extjson.Marshal(id)
	if err != nil {
		return "", err
	}

	return string(b), nil
}

// DocumentID returns the _id value and its key for the given document.
//
// It returns *Error with ErrorCodeDocumentIDIsInvalid if _id is missing or invalid.
func DocumentID(doc *types.Document) (types.Value, string, error) {
	if doc == nil {
		return nil, "", NewError(ErrorCodeDocumentIDIsInvalid, lazyerrors.New("nil document"))
	}

	id, ok := doc.Get("_id")
	if !ok {
		return nil, "", NewError(ErrorCodeDocumentIDIsInvalid, lazyerrors.New("document has no _id field"))
	}

	key, err := IDKey(id)
	if err != nil {
		return nil, "", NewError(ErrorCodeDocumentIDIsInvalid, err)
	}

	return id, key, nil
}
