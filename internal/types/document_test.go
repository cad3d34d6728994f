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

package types

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/must"
)

func TestDocument(t *testing.T) {
	t.Parallel()

	t.Run("ZeroValue", func(t *testing.T) {
		t.Parallel()

		var doc Document
		assert.Equal(t, 0, doc.Len())
		assert.Empty(t, doc.Keys())

		v, ok := doc.Get("foo")
		assert.False(t, ok)
		assert.Nil(t, v)

		assert.Equal(t, []string{"foo"}, doc.With("foo", Null).Keys())
	})

	t.Run("Order", func(t *testing.T) {
		t.Parallel()

		doc := must.NotFail(NewDocument("b", Int32(1), "a", Int32(2)))
		assert.Equal(t, []string{"b", "a"}, doc.Keys())
		assert.Equal(t, []Value{Int32(1), Int32(2)}, doc.Values())
	})

	t.Run("DuplicateOverwrites", func(t *testing.T) {
		t.Parallel()

		doc := must.NotFail(NewDocument("a", Int32(1), "b", Int32(2), "a", String("x")))
		assert.Equal(t, []string{"a", "b"}, doc.Keys())

		v, ok := doc.Get("a")
		require.True(t, ok)
		assert.Equal(t, String("x"), v)
	})

	t.Run("NewDocumentErrors", func(t *testing.T) {
		t.Parallel()

		_, err := NewDocument("a")
		assert.Error(t, err)

		_, err = NewDocument(42, Null)
		assert.Error(t, err)

		_, err = NewDocument("a", 42)
		assert.Error(t, err)

		_, err = NewDocument("a", nil)
		assert.Error(t, err)
	})

	t.Run("Immutable", func(t *testing.T) {
		t.Parallel()

		doc := must.NotFail(NewDocument("a", Int32(1), "b", Int32(2)))

		with := doc.With("a", Int32(42)).With("c", Int32(3))
		assert.Equal(t, []string{"a", "b", "c"}, with.Keys())
		assert.Equal(t, []Value{Int32(42), Int32(2), Int32(3)}, with.Values())

		without := doc.Without("a")
		assert.Equal(t, []string{"b"}, without.Keys())
		assert.Same(t, doc, doc.Without("z"))

		assert.Equal(t, []string{"a", "b"}, doc.Keys())
		assert.Equal(t, []Value{Int32(1), Int32(2)}, doc.Values())

		keys := doc.Keys()
		keys[0] = "z"
		assert.True(t, doc.Has("a"))
		assert.False(t, doc.Has("z"))

		assert.Panics(t, func() { doc.With("x", nil) })
	})

	t.Run("Iterator", func(t *testing.T) {
		t.Parallel()

		doc := must.NotFail(NewDocument("a", Int32(1), "b", Int32(2)))
		iter := doc.Iterator()

		k, v, err := iter.Next()
		require.NoError(t, err)
		assert.Equal(t, "a", k)
		assert.Equal(t, Int32(1), v)

		iter.Close()

		_, _, err = iter.Next()
		assert.ErrorIs(t, err, iterator.ErrIteratorDone)

		values, err := iterator.ConsumeValues(doc.Iterator())
		require.NoError(t, err)
		assert.Equal(t, doc.Values(), values)
	})

	t.Run("Builder", func(t *testing.T) {
		t.Parallel()

		var b DocumentBuilder
		assert.Equal(t, 0, b.Len())
		assert.False(t, b.Has("a"))

		b.Add("a", Int32(1))
		b.Add("b", Int32(2))
		b.Add("a", Int32(3))
		assert.Equal(t, 2, b.Len())
		assert.True(t, b.Has("a"))

		doc := b.Build()
		assert.Equal(t, []string{"a", "b"}, doc.Keys())
		assert.Equal(t, []Value{Int32(3), Int32(2)}, doc.Values())

		assert.Equal(t, 0, b.Len(), "builder is reset")
		assert.Equal(t, 0, b.Build().Len())

		assert.Panics(t, func() { b.Add("x", nil) })
	})
}

func TestDocumentPaths(t *testing.T) {
	t.Parallel()

	doc := must.NotFail(NewDocument(
		"a", must.NotFail(NewDocument("b", Int32(1))),
		"arr", NewArray(String("x"), must.NotFail(NewDocument("c", Bool(true)))),
		"s", String("scalar"),
	))

	for path, expected := range map[string]Value{
		"a.b":     Int32(1),
		"arr.0":   String("x"),
		"arr.1.c": Bool(true),
		"s":       String("scalar"),
	} {
		actual, ok := doc.GetByPath(must.NotFail(NewPath(path)))
		require.True(t, ok, path)
		assert.Equal(t, expected, actual, path)
	}

	for _, path := range []string{"a.c", "arr.2", "arr.-1", "arr.01", "arr.x", "s.x", "z"} {
		_, ok := doc.GetByPath(must.NotFail(NewPath(path)))
		assert.False(t, ok, path)
	}

	t.Run("WithByPath", func(t *testing.T) {
		t.Parallel()

		res, err := doc.WithByPath(NewStaticPath("a", "b"), Int32(2))
		require.NoError(t, err)
		v, _ := res.GetByPath(NewStaticPath("a", "b"))
		assert.Equal(t, Int32(2), v)

		res, err = doc.WithByPath(NewStaticPath("n", "e", "w"), Null)
		require.NoError(t, err)
		v, _ = res.GetByPath(NewStaticPath("n", "e", "w"))
		assert.Equal(t, Null, v)

		res, err = doc.WithByPath(NewStaticPath("arr", "2"), Int64(7))
		require.NoError(t, err)
		v, _ = res.GetByPath(NewStaticPath("arr", "2"))
		assert.Equal(t, Int64(7), v)

		res, err = doc.WithByPath(NewStaticPath("arr", "1", "c"), Bool(false))
		require.NoError(t, err)
		v, _ = res.GetByPath(NewStaticPath("arr", "1", "c"))
		assert.Equal(t, Bool(false), v)

		_, err = doc.WithByPath(NewStaticPath("arr", "5"), Null)
		assert.Error(t, err)

		_, err = doc.WithByPath(NewStaticPath("s", "x"), Null)
		assert.Error(t, err)

		_, err = doc.WithByPath(Path{}, Null)
		assert.ErrorIs(t, err, ErrBadSelector)

		v, _ = doc.GetByPath(NewStaticPath("a", "b"))
		assert.Equal(t, Int32(1), v, "original is not modified")
	})
}

func TestArray(t *testing.T) {
	t.Parallel()

	values := []Value{Int32(1), String("two")}
	arr := NewArray(values...)
	values[0] = Null

	assert.Equal(t, 2, arr.Len())

	v, ok := arr.Get(0)
	require.True(t, ok)
	assert.Equal(t, Int32(1), v)

	_, ok = arr.Get(2)
	assert.False(t, ok)

	_, ok = arr.Get(-1)
	assert.False(t, ok)

	appended := arr.Append(Bool(true))
	assert.Equal(t, 3, appended.Len())
	assert.Equal(t, 2, arr.Len())

	actual, err := iterator.ConsumeValues(appended.Iterator())
	require.NoError(t, err)
	assert.Equal(t, []Value{Int32(1), String("two"), Bool(true)}, actual)

	assert.Equal(t, 0, new(Array).Len())
	assert.Panics(t, func() { NewArray(Null, nil) })
}

func TestPath(t *testing.T) {
	t.Parallel()

	p, err := NewPath("a.b.0")
	require.NoError(t, err)
	assert.Equal(t, "a.b.0", p.String())
	assert.Equal(t, 3, p.Len())
	assert.Equal(t, []string{"a", "b", "0"}, p.Slice())
	assert.Equal(t, "a", p.Prefix())
	assert.Equal(t, "0", p.Suffix())
	assert.Equal(t, "b.0", p.TrimPrefix().String())

	p2, err := p.Append("c")
	require.NoError(t, err)
	assert.Equal(t, "a.b.0.c", p2.String())
	assert.Equal(t, "a.b.0", p.String())

	for _, s := range []string{"", ".", "a.", ".a", "a..b"} {
		_, err = NewPath(s)
		assert.ErrorIs(t, err, ErrBadSelector, "%q", s)
	}

	assert.Panics(t, func() { NewStaticPath() })
	assert.Panics(t, func() { NewStaticPath("a").TrimPrefix() })
}

func TestTypeOf(t *testing.T) {
	t.Parallel()

	assert.Equal(t, TypeNull, TypeOf(Null))
	assert.Equal(t, TypeInt32, TypeOf(Int32(1)))
	assert.Equal(t, TypeInt64, TypeOf(Int64(1)))
	assert.Equal(t, TypeDocument, TypeOf(new(Document)))
	assert.Equal(t, "objectId", TypeOf(ObjectID{}).String())
	assert.Equal(t, "long", TypeInt64.String())
	assert.Equal(t, "BSONType(0x13)", BSONType(0x13).String())
}
