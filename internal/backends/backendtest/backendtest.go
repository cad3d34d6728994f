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

// Package backendtest provides a test suite shared by all backends.Backend implementations.
package backendtest

import (
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/must"
	"github.com/FerretDB/bobject/internal/util/testutil"
	"github.com/FerretDB/bobject/internal/util/testutil/teststress"
)

// NewBackendFunc returns a new empty backend for the given test.
//
// It should register the backend's Close with t.Cleanup.
type NewBackendFunc func(t *testing.T) backends.Backend

// doc returns a document with the given _id and value.
func doc(id types.Value, v string) *types.Document {
	return must.NotFail(types.NewDocument("_id", id, "v", types.String(v)))
}

// query returns all documents of the given collection.
func query(t *testing.T, c backends.Collection, id types.Value) []*types.Document {
	t.Helper()

	res, err := c.Query(testutil.Ctx(t), &backends.QueryParams{ID: id})
	require.NoError(t, err)

	defer res.Iter.Close()

	docs, err := iterator.ConsumeValues(res.Iter)
	require.NoError(t, err)

	return docs
}

// assertDocs asserts that documents are identical, in order.
func assertDocs(t *testing.T, expected, actual []*types.Document) {
	t.Helper()

	require.Len(t, actual, len(expected))

	for i := range expected {
		testutil.AssertIdentical(t, expected[i], actual[i])
	}
}

// Run runs the shared test suite against backends created by newBackend.
func Run(t *testing.T, newBackend NewBackendFunc) {
	t.Run("QueryMissing", func(t *testing.T) {
		t.Parallel()

		c, err := newBackend(t).Collection("missing")
		require.NoError(t, err)

		assert.Empty(t, query(t, c, nil))
	})

	t.Run("InsertQuery", func(t *testing.T) {
		t.Parallel()

		c, err := newBackend(t).Collection("test")
		require.NoError(t, err)

		oid := types.NewObjectID()
		docs := []*types.Document{
			doc(types.Int32(2), "b"),
			doc(types.String("x"), "x"),
			doc(oid, "oid"),
			must.NotFail(types.NewDocument(
				"_id", types.Int64(1),
				"nested", must.NotFail(types.NewDocument("arr", types.NewArray(types.Double(1.5), types.Null))),
				"bin", types.NewBinary(types.BinaryUser, []byte{1, 2}),
			)),
		}

		_, err = c.InsertAll(testutil.Ctx(t), &backends.InsertAllParams{Docs: docs})
		require.NoError(t, err)

		assertDocs(t, docs, query(t, c, nil))

		// numeric identifiers are matched by value
		assertDocs(t, docs[:1], query(t, c, types.Double(2)))

		res := query(t, c, types.Int64(2))
		require.Len(t, res, 1)

		id, _ := res[0].Get("_id")
		testutil.AssertEqual(t, types.Double(2), id)
		testutil.AssertNotEqual(t, types.Int32(3), id)
		assertDocs(t, docs[2:3], query(t, c, oid))
		assert.Empty(t, query(t, c, types.Int32(3)))

		_, err = c.Query(testutil.Ctx(t), &backends.QueryParams{ID: types.NewArray()})
		assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeDocumentIDIsInvalid), "%v", err)
	})

	t.Run("InsertDuplicate", func(t *testing.T) {
		t.Parallel()

		c, err := newBackend(t).Collection("test")
		require.NoError(t, err)

		first := doc(types.Int32(1), "first")
		_, err = c.InsertAll(testutil.Ctx(t), &backends.InsertAllParams{Docs: []*types.Document{first}})
		require.NoError(t, err)

		// the whole batch is rejected
		_, err = c.InsertAll(testutil.Ctx(t), &backends.InsertAllParams{
			Docs: []*types.Document{doc(types.Int32(2), "second"), doc(types.Int64(1), "dup")},
		})
		assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeInsertDuplicateID), "%v", err)

		// duplicates in the same batch
		_, err = c.InsertAll(testutil.Ctx(t), &backends.InsertAllParams{
			Docs: []*types.Document{doc(types.Int32(3), "third"), doc(types.Int32(3), "dup")},
		})
		assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeInsertDuplicateID), "%v", err)

		assertDocs(t, []*types.Document{first}, query(t, c, nil))
	})

	t.Run("InsertInvalidID", func(t *testing.T) {
		t.Parallel()

		c, err := newBackend(t).Collection("test")
		require.NoError(t, err)

		for name, d := range map[string]*types.Document{
			"Missing": must.NotFail(types.NewDocument("v", types.Int32(1))),
			"Array":   must.NotFail(types.NewDocument("_id", types.NewArray())),
		} {
			_, err = c.InsertAll(testutil.Ctx(t), &backends.InsertAllParams{Docs: []*types.Document{d}})
			assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeDocumentIDIsInvalid), "%s: %v", name, err)
		}

		assert.Empty(t, query(t, c, nil))
	})

	t.Run("ReplaceAll", func(t *testing.T) {
		t.Parallel()

		c, err := newBackend(t).Collection("test")
		require.NoError(t, err)

		_, err = c.InsertAll(testutil.Ctx(t), &backends.InsertAllParams{
			Docs: []*types.Document{doc(types.Int32(1), "a"), doc(types.Int32(2), "b")},
		})
		require.NoError(t, err)

		res, err := c.ReplaceAll(testutil.Ctx(t), &backends.ReplaceAllParams{
			Docs: []*types.Document{doc(types.Int32(1), "a2"), doc(types.Int32(3), "c")},
		})
		require.NoError(t, err)
		assert.Equal(t, &backends.ReplaceAllResult{Replaced: 1}, res)

		res, err = c.ReplaceAll(testutil.Ctx(t), &backends.ReplaceAllParams{
			Docs:   []*types.Document{doc(types.Int32(2), "b2"), doc(types.Int32(3), "c")},
			Upsert: true,
		})
		require.NoError(t, err)
		assert.Equal(t, &backends.ReplaceAllResult{Replaced: 1, Inserted: 1}, res)

		expected := []*types.Document{doc(types.Int32(1), "a2"), doc(types.Int32(2), "b2"), doc(types.Int32(3), "c")}
		assertDocs(t, expected, query(t, c, nil))
	})

	t.Run("DeleteAll", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)

		c, err := b.Collection("test")
		require.NoError(t, err)

		res, err := c.DeleteAll(testutil.Ctx(t), &backends.DeleteAllParams{IDs: []types.Value{types.Int32(1)}})
		require.NoError(t, err)
		assert.Equal(t, 0, res.Deleted)

		_, err = c.InsertAll(testutil.Ctx(t), &backends.InsertAllParams{
			Docs: []*types.Document{doc(types.Int32(1), "a"), doc(types.Int32(2), "b"), doc(types.Int32(3), "c")},
		})
		require.NoError(t, err)

		res, err = c.DeleteAll(testutil.Ctx(t), &backends.DeleteAllParams{
			IDs: []types.Value{types.Int64(1), types.Double(3), types.Int32(4)},
		})
		require.NoError(t, err)
		assert.Equal(t, 2, res.Deleted)

		assertDocs(t, []*types.Document{doc(types.Int32(2), "b")}, query(t, c, nil))
	})

	t.Run("ListDrop", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)
		ctx := testutil.Ctx(t)

		list, err := b.ListCollections(ctx, nil)
		require.NoError(t, err)
		assert.Empty(t, list.Collections)

		for _, name := range []string{"b", "a"} {
			c, err := b.Collection(name)
			require.NoError(t, err)

			_, err = c.InsertAll(ctx, &backends.InsertAllParams{Docs: []*types.Document{doc(types.Int32(1), name)}})
			require.NoError(t, err)
		}

		list, err = b.ListCollections(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []backends.CollectionInfo{{Name: "a"}, {Name: "b"}}, list.Collections)

		require.NoError(t, b.DropCollection(ctx, &backends.DropCollectionParams{Name: "a"}))

		err = b.DropCollection(ctx, &backends.DropCollectionParams{Name: "a"})
		assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeCollectionDoesNotExist), "%v", err)

		list, err = b.ListCollections(ctx, nil)
		require.NoError(t, err)
		assert.Equal(t, []backends.CollectionInfo{{Name: "b"}}, list.Collections)

		c, err := b.Collection("a")
		require.NoError(t, err)
		assert.Empty(t, query(t, c, nil))
	})

	t.Run("InvalidName", func(t *testing.T) {
		t.Parallel()

		b := newBackend(t)

		_, err := b.Collection("$bad")
		assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeCollectionNameIsInvalid), "%v", err)

		err = b.DropCollection(testutil.Ctx(t), &backends.DropCollectionParams{Name: ".bad"})
		assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeCollectionNameIsInvalid), "%v", err)
	})

	t.Run("ConcurrentInsert", func(t *testing.T) {
		t.Parallel()

		c, err := newBackend(t).Collection("test")
		require.NoError(t, err)

		ctx := testutil.Ctx(t)

		var i atomic.Int32

		teststress.Stress(t, func(ready chan<- struct{}, start <-chan struct{}) {
			id := i.Add(1)
			d := doc(types.Int32(id), fmt.Sprint(id))

			ready <- struct{}{}
			<-start

			_, err := c.InsertAll(ctx, &backends.InsertAllParams{Docs: []*types.Document{d}})
			require.NoError(t, err)
		})

		assert.Len(t, query(t, c, nil), teststress.NumGoroutines)
	})
}
