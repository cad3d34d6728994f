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
	"errors"
	"math"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/must"
)

func TestIDKey(t *testing.T) {
	t.Parallel()

	oid := must.NotFail(types.ParseObjectID("65f0a0c1e4b0a1b2c3d4e5f6"))

	for name, tc := range map[string]struct {
		id  types.Value
		key string
		err bool
	}{
		"Int32":         {id: types.Int32(42), key: "42"},
		"Int64":         {id: types.Int64(42), key: "42"},
		"DoubleWhole":   {id: types.Double(42), key: "42"},
		"DoubleNegZero": {id: types.Double(math.Copysign(0, -1)), key: "0"},
		"DoubleFrac":    {id: types.Double(4.5), key: "4.5"},
		"DoubleHuge":    {id: types.Double(1e300), key: "1e+300"},
		"String":        {id: types.String("x"), key: `"x"`},
		"ObjectID":      {id: oid, key: `{"$oid":"65f0a0c1e4b0a1b2c3d4e5f6"}`},
		"Document": {
			id:  must.NotFail(types.NewDocument("a", types.Int32(1))),
			key: `{"a":1}`,
		},
		"DocumentNested": {
			id: must.NotFail(types.NewDocument(
				"b", types.Double(2),
				"a", must.NotFail(types.NewDocument("y", types.NewArray(types.Double(1), types.Double(1.5)), "x", types.Int32(3))),
			)),
			key: `{"a":{"x":3,"y":[1,1.5]},"b":2}`,
		},
		"DocumentNaN": {
			id:  must.NotFail(types.NewDocument("a", types.Double(math.NaN()))),
			err: true,
		},
		"Array": {id: types.NewArray(types.Int32(1)), err: true},
		"NaN":   {id: types.Double(math.NaN()), err: true},
		"Inf":   {id: types.Double(math.Inf(1)), err: true},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			key, err := IDKey(tc.id)
			if tc.err {
				require.Error(t, err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.key, key)
		})
	}
}

func TestIDKeyEqual(t *testing.T) {
	t.Parallel()

	a := must.NotFail(types.NewDocument("x", types.Int32(1), "y", types.String("s")))
	b := must.NotFail(types.NewDocument("y", types.String("s"), "x", types.Double(1)))
	require.True(t, types.Equal(a, b))

	ka, err := IDKey(a)
	require.NoError(t, err)

	kb, err := IDKey(b)
	require.NoError(t, err)

	assert.Equal(t, ka, kb)
}

func TestDocumentID(t *testing.T) {
	t.Parallel()

	_, _, err := DocumentID(must.NotFail(types.NewDocument("a", types.Int32(1))))
	assert.True(t, ErrorCodeIs(err, ErrorCodeDocumentIDIsInvalid))

	_, _, err = DocumentID(nil)
	assert.True(t, ErrorCodeIs(err, ErrorCodeDocumentIDIsInvalid))

	id, key, err := DocumentID(must.NotFail(types.NewDocument("_id", types.Int32(7))))
	require.NoError(t, err)
	assert.Equal(t, types.Int32(7), id)
	assert.Equal(t, "7", key)
}

func TestValidateCollectionName(t *testing.T) {
	t.Parallel()

	for name, valid := range map[string]bool{
		"users":                  true,
		"users.archive":          true,
		"日本":                     true,
		"":                       false,
		".users":                 false,
		"us$ers":                 false,
		"us\x00ers":              false,
		"system.users":           false,
		"_bobject_users":         false,
		strings.Repeat("a", 235): true,
		strings.Repeat("a", 236): false,
		strings.Repeat("é", 117): true,  // 234 bytes
		strings.Repeat("é", 118): false, // 236 bytes
		string([]byte{0xff}):     false,
	} {
		err := validateCollectionName(name)
		if valid {
			assert.NoError(t, err, "%q", name)
			continue
		}

		assert.True(t, ErrorCodeIs(err, ErrorCodeCollectionNameIsInvalid), "%q", name)
	}
}

func TestError(t *testing.T) {
	t.Parallel()

	err := NewError(ErrorCodeInsertDuplicateID, errors.New("boom"))
	assert.Equal(t, "ErrorCodeInsertDuplicateID: boom", err.Error())
	assert.Equal(t, ErrorCodeInsertDuplicateID, err.Code())

	assert.True(t, ErrorCodeIs(err, ErrorCodeCollectionDoesNotExist, ErrorCodeInsertDuplicateID))
	assert.False(t, ErrorCodeIs(err, ErrorCodeCollectionDoesNotExist))
	assert.False(t, ErrorCodeIs(errors.New("other"), ErrorCodeInsertDuplicateID))

	assert.Equal(t, "ErrorCode(42)", ErrorCode(42).String())

	assert.Panics(t, func() { NewError(0, nil) })
}
