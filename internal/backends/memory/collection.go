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

package memory

import (
	"context"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// collection implements backends.Collection interface.
type collection struct {
	b    *backend
	name string
}

// newCollection creates a new Collection.
func newCollection(b *backend, name string) backends.Collection {
	return &collection{
		b:    b,
		name: name,
	}
}

// Query implements backends.Collection interface.
func (c *collection) Query(ctx context.Context, params *backends.QueryParams) (*backends.QueryResult, error) {
	c.b.rw.RLock()
	defer c.b.rw.RUnlock()

	if c.b.closed {
		return nil, lazyerrors.Error(ErrClosed)
	}

	var docs []*types.Document

	if s := c.b.collections[c.name]; s != nil {
		if params.ID != nil {
			key, err := backends.IDKey(params.ID)
			if err != nil {
				return nil, lazyerrors.Error(err)
			}

			if doc := s.docs[key]; doc != nil {
				docs = append(docs, doc)
			}
		} else {
			docs = make([]*types.Document, len(s.keys))
			for i, k := range s.keys {
				docs[i] = s.docs[k]
			}
		}
	}

	return &backends.QueryResult{
		Iter: iterator.Values(iterator.ForSlice(docs)),
	}, nil
}

// InsertAll implements backends.Collection interface.
func (c *collection) InsertAll(ctx context.Context, params *backends.InsertAllParams) (*backends.InsertAllResult, error) {
	c.b.rw.Lock()
	defer c.b.rw.Unlock()

	if c.b.closed {
		return nil, lazyerrors.Error(ErrClosed)
	}

	keys := make([]string, len(params.Docs))
	seen := make(map[string]struct{}, len(params.Docs))

	s := c.b.collections[c.name]

	for i, doc := range params.Docs {
		_, key, err := backends.DocumentID(doc)
		if err != nil {
			return nil, err
		}

		if _, ok := seen[key]; ok {
			return nil, backends.NewError(backends.ErrorCodeInsertDuplicateID, lazyerrors.Errorf("_id %s", key))
		}

		if s != nil && s.docs[key] != nil {
			return nil, backends.NewError(backends.ErrorCodeInsertDuplicateID, lazyerrors.Errorf("_id %s", key))
		}

		seen[key] = struct{}{}
		keys[i] = key
	}

	s = c.b.getOrCreate(c.name)

	for i, doc := range params.Docs {
		s.docs[keys[i]] = doc
		s.keys = append(s.keys, keys[i])
	}

	return new(backends.InsertAllResult), nil
}

// ReplaceAll implements backends.Collection interface.
func (c *collection) ReplaceAll(ctx context.Context, params *backends.ReplaceAllParams) (*backends.ReplaceAllResult, error) {
	c.b.rw.Lock()
	defer c.b.rw.Unlock()

	if c.b.closed {
		return nil, lazyerrors.Error(ErrClosed)
	}

	var res backends.ReplaceAllResult

	s := c.b.collections[c.name]
	if s == nil {
		if !params.Upsert {
			return &res, nil
		}

		s = c.b.getOrCreate(c.name)
	}

	for _, doc := range params.Docs {
		_, key, err := backends.DocumentID(doc)
		if err != nil {
			return nil, err
		}

		if s.docs[key] != nil {
			s.docs[key] = doc
			res.Replaced++

			continue
		}

		if params.Upsert {
			s.docs[key] = doc
			s.keys = append(s.keys, key)
			res.Inserted++
		}
	}

	return &res, nil
}

// DeleteAll implements backends.Collection interface.
func (c *collection) DeleteAll(ctx context.Context, params *backends.DeleteAllParams) (*backends.DeleteAllResult, error) {
	c.b.rw.Lock()
	defer c.b.rw.Unlock()

	if c.b.closed {
		return nil, lazyerrors.Error(ErrClosed)
	}

	s := c.b.collections[c.name]
	if s == nil {
		return new(backends.DeleteAllResult), nil
	}

	keys := make(map[string]struct{}, len(params.IDs))

	for _, id := range params.IDs {
		key, err := backends.IDKey(id)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		keys[key] = struct{}{}
	}

	return &backends.DeleteAllResult{
		Deleted: s.remove(keys),
	}, nil
}

// check interfaces
var (
	_ backends.Collection = (*collection)(nil)
)
