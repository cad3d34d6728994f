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
	"errors"
	"testing"

	"github.com/AlekSi/pointer"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/extjson"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/must"
)

type address struct {
	City string
	Zip  *string
}

type user struct {
	ID      types.ObjectID
	Name    string
	Age     int
	Tags    []string
	Address address
	Note    string
}

var addressCodec = must.NotFail(NewEmbedded(
	Required("city", func(a *address) *string { return &a.City }, String),
	Optional("zip", func(a *address) **string { return &a.Zip }, Pointer(String)),
))

var userCodec = must.NotFail(NewEntity(
	Required("name", func(u *user) *string { return &u.Name }, String),
	Required("_id", func(u *user) *types.ObjectID { return &u.ID }, ObjectID),
	Required("age", func(u *user) *int { return &u.Age }, Integer[int]()),
	Optional("tags", func(u *user) *[]string { return &u.Tags }, SliceOf(String)),
	Required("address", func(u *user) *address { return &u.Address }, Codec[address](addressCodec)),
	OmitEmpty("note", func(u *user) *string { return &u.Note }, String),
))

func TestEntity(t *testing.T) {
	t.Parallel()

	id := must.NotFail(types.ParseObjectID("0102030405060708090a0b0c"))

	u := user{
		ID:      id,
		Name:    "Ada",
		Age:     36,
		Tags:    []string{"math"},
		Address: address{City: "London", Zip: pointer.ToString("W1")},
	}

	assert.Equal(t, []string{"_id", "name", "age", "tags", "address", "note"}, userCodec.Fields())

	v, err := userCodec.Encode(u)
	require.NoError(t, err)

	expected := `{"_id":{"$oid":"0102030405060708090a0b0c"},"name":"Ada","age":36,"tags":["math"],` +
		`"address":{"city":"London","zip":"W1"}}`
	assert.Equal(t, expected, string(must.NotFail(extjson.Marshal(v))))

	actual, err := userCodec.Decode(v)
	require.NoError(t, err)
	assert.Equal(t, u, actual)

	t.Run("OptionalMissing", func(t *testing.T) {
		t.Parallel()

		doc := must.NotFail(extjson.UnmarshalDocument(
			[]byte(`{"_id":{"$oid":"0102030405060708090a0b0c"},"name":"Bob","age":1,"address":{"city":"Oslo"},"extra":true}`),
			nil,
		))

		actual, err := userCodec.Decode(doc)
		require.NoError(t, err)
		assert.Equal(t, user{ID: id, Name: "Bob", Age: 1, Address: address{City: "Oslo"}}, actual)
	})
}

func TestEntityDecodeErrors(t *testing.T) {
	t.Parallel()

	doc := must.NotFail(extjson.UnmarshalDocument(
		[]byte(`{"_id":"not an id","age":1.5,"tags":["a",2],"address":{"zip":3}}`),
		nil,
	))

	_, err := userCodec.Decode(doc)
	require.Error(t, err)
	assert.True(t, commonerrors.Is(err, commonerrors.ErrConversion))

	var ede *EntityDecodeError
	require.True(t, errors.As(err, &ede))
	assert.Equal(t, "codec.user", ede.Type)
	assert.Equal(t, []string{"_id", "name", "age", "tags.1", "address.city", "address.zip"}, ede.Paths())

	var ce *ConversionError
	require.True(t, errors.As(err, &ce))
	assert.Equal(t, "_id", ce.Path)

	assert.ErrorIs(t, err, ErrMissingField)

	assert.EqualError(t, err, "EntityDecodeError: codec.user: "+
		"_id: expected objectId, got string; "+
		"name: required field is missing; "+
		"age: 1.5 is not a 64-bit integer; "+
		"tags.1: expected string, got int; "+
		"address.city: required field is missing; "+
		"address.zip: expected string, got int",
	)

	_, err = userCodec.Decode(types.NewArray())
	assert.EqualError(t, err, "ConversionError: expected object, got array")
}

func TestNewEntityErrors(t *testing.T) {
	t.Parallel()

	name := func(u *user) *string { return &u.Name }
	id := func(u *user) *types.ObjectID { return &u.ID }

	_, err := NewEntity(Required("name", name, String))
	assert.ErrorIs(t, err, ErrNoIDField)

	_, err = NewEntity(Optional("_id", id, ObjectID))
	assert.ErrorIs(t, err, ErrNoIDField)

	_, err = NewEntity(Required("_id", id, ObjectID), Required("name", name, String), Optional("name", name, String))
	require.Error(t, err)
	assert.Contains(t, err.Error(), `codec.user: duplicate field name "name"`)

	_, err = NewEntity(Required("_id", id, ObjectID), Required("", name, String))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codec.user: empty field name")
}
