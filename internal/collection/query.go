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

package collection

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/FerretDB/bobject/internal/types"
)

// condition is a single parsed query key.
type condition struct {
	elements []string
	value    types.Value
}

// Query selects documents by shape.
//
// Each key is a dot-separated path, and each value is compared with the document's value at that path
// using types.Compare: numbers by value, documents regardless of key order.
// All conditions should match.
//
// If the path goes through an array, any element may match.
// An array value matches if it is equal as a whole, or if any of its elements is equal.
// A missing value matches only null.
//
// A nil or empty Query matches all documents.
type Query struct {
	conds []condition
}

// NewQuery parses a query document.
//
// Keys and path elements starting with `$` are reserved for operators that are not supported;
// they fail with an error wrapping types.ErrBadSelector, as do malformed paths.
func NewQuery(doc *types.Document) (*Query, error) {
	if doc == nil {
		return new(Query), nil
	}

	q := &Query{
		conds: make([]condition, 0, doc.Len()),
	}

	for _, k := range doc.Keys() {
		v, _ := doc.Get(k)

		p, err := types.NewPath(k)
		if err != nil {
			return nil, err
		}

		elements := p.Slice()

		for _, e := range elements {
			if strings.HasPrefix(e, "$") {
				return nil, fmt.Errorf("%w: operator %q is not supported", types.ErrBadSelector, e)
			}
		}

		q.conds = append(q.conds, condition{elements: elements, value: v})
	}

	return q, nil
}

// MustNewQuery is a variant of NewQuery that panics on error.
func MustNewQuery(pairs ...any) *Query {
	doc, err := types.NewDocument(pairs...)
	if err != nil {
		panic(err)
	}

	q, err := NewQuery(doc)
	if err != nil {
		panic(err)
	}

	return q
}

// Match returns true if the document matches all query conditions.
func (q *Query) Match(doc *types.Document) bool {
	if q == nil {
		return true
	}

	for _, c := range q.conds {
		if !matchPath(doc, c.elements, c.value) {
			return false
		}
	}

	return true
}

// matchPath returns true if any value of v at the given path elements matches expected.
func matchPath(v types.Value, elements []string, expected types.Value) bool {
	if len(elements) == 0 {
		return matchValue(v, expected)
	}

	e, rest := elements[0], elements[1:]

	switch v := v.(type) {
	case *types.Document:
		next, ok := v.Get(e)
		if !ok {
			return expected == types.Null
		}

		return matchPath(next, rest, expected)

	case *types.Array:
		if i, ok := arrayIndex(e); ok {
			if next, ok := v.Get(i); ok && matchPath(next, rest, expected) {
				return true
			}
		}

		// traverse into documents inside array
		var found bool

		for _, elem := range v.Values() {
			d, ok := elem.(*types.Document)
			if !ok {
				continue
			}

			found = true

			if matchPath(d, elements, expected) {
				return true
			}
		}

		return !found && expected == types.Null

	default:
		return expected == types.Null
	}
}

// matchValue returns true if v equals expected, or v is an array containing expected.
func matchValue(v, expected types.Value) bool {
	if types.Compare(v, expected) == 0 {
		return true
	}

	arr, ok := v.(*types.Array)
	if !ok {
		return false
	}

	for _, elem := range arr.Values() {
		if types.Compare(elem, expected) == 0 {
			return true
		}
	}

	return false
}

// arrayIndex returns a non-negative array index from the path element in canonical form.
func arrayIndex(e string) (int, bool) {
	i, err := strconv.Atoi(e)
	if err != nil || i < 0 || strconv.Itoa(i) != e {
		return 0, false
	}

	return i, true
}
