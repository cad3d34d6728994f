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
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/extjson"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/must"
)

func TestQueryMatch(t *testing.T) {
	t.Parallel()

	doc := must.NotFail(extjson.UnmarshalDocument([]byte(`{
		"_id": 1,
		"name": "Ada",
		"age": 36,
		"tags": ["math", "poetry"],
		"address": {"city": "London", "zip": null},
		"items": [{"sku": "a", "qty": 1}, {"sku": "b", "qty": 2}],
		"matrix": [[1, 2], [3]]
	}`), nil))

	for name, tc := range map[string]struct {
		query    string
		expected bool
	}{
		"Empty":            {query: `{}`, expected: true},
		"Scalar":           {query: `{"name": "Ada"}`, expected: true},
		"ScalarMismatch":   {query: `{"name": "Bob"}`},
		"NumberCrossType":  {query: `{"age": 36.0}`, expected: true},
		"All":              {query: `{"name": "Ada", "age": 36}`, expected: true},
		"AllMismatch":      {query: `{"name": "Ada", "age": 37}`},
		"Nested":           {query: `{"address.city": "London"}`, expected: true},
		"NestedDocument":   {query: `{"address": {"zip": null, "city": "London"}}`, expected: true},
		"NestedPartial":    {query: `{"address": {"city": "London"}}`},
		"ArrayElement":     {query: `{"tags": "poetry"}`, expected: true},
		"ArrayWhole":       {query: `{"tags": ["math", "poetry"]}`, expected: true},
		"ArrayWholeOrder":  {query: `{"tags": ["poetry", "math"]}`},
		"ArrayIndex":       {query: `{"tags.1": "poetry"}`, expected: true},
		"ArrayIndexWrong":  {query: `{"tags.0": "poetry"}`},
		"ArrayOfDocuments": {query: `{"items.sku": "b"}`, expected: true},
		"ArrayOfDocIndex":  {query: `{"items.1.qty": 2}`, expected: true},
		"ArrayNested":      {query: `{"matrix": [3]}`, expected: true},
		"MissingNull":      {query: `{"missing": null}`, expected: true},
		"MissingValue":     {query: `{"missing": 1}`},
		"NullValue":        {query: `{"address.zip": null}`, expected: true},
		"ScalarPathNull":   {query: `{"name.first": null}`, expected: true},
		"ArrayMissingNull": {query: `{"items.color": null}`, expected: true},
		"TypeMismatch":     {query: `{"age": "36"}`},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			q, err := NewQuery(must.NotFail(extjson.UnmarshalDocument([]byte(tc.query), nil)))
			require.NoError(t, err)

			assert.Equal(t, tc.expected, q.Match(doc))
		})
	}
}

func TestQueryErrors(t *testing.T) {
	t.Parallel()

	for name, key := range map[string]string{
		"Operator":       "$gt",
		"NestedOperator": "age.$gt",
		"EmptyElement":   "a..b",
		"Empty":          "",
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			_, err := NewQuery(must.NotFail(types.NewDocument(key, types.Int32(1))))
			assert.ErrorIs(t, err, types.ErrBadSelector)
		})
	}

	assert.Panics(t, func() { MustNewQuery("$where", types.String("x")) })
}

func TestQueryNil(t *testing.T) {
	t.Parallel()

	q, err := NewQuery(nil)
	require.NoError(t, err)

	assert.True(t, q.Match(new(types.Document)))

	var nilQuery *Query
	assert.True(t, nilQuery.Match(new(types.Document)))
}
