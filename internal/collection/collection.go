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

// Package collection provides typed access to stored documents.
//
// A Collection binds an entity type E, its identifier type ID, and their codecs from the registry
// to a backend collection. All operations accept and return entities;
// documents are encoded and decoded through the registered codecs.
package collection

import (
	"context"
	"errors"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/codec"
	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// ErrNotFound is returned when no document matches the identifier or the query.
var ErrNotFound = errors.New("document not found")

// Collection provides entity-shaped operations over a backend collection.
//
// It is safe for concurrent use.
//
//nolint:vet // for readability
type Collection[E, ID any] struct {
	name string
	c    backends.Collection

	entity codec.Codec[E]
	id     codec.Codec[ID]

	l      *zap.Logger
	m      *Metrics
	tracer trace.Tracer
}

// NewOpts represents the parameters of New function.
//
//nolint:vet // for readability
type NewOpts struct {
	Backend  backends.Backend
	Name     string
	Registry *codec.Registry

	L              *zap.Logger
	Metrics        *Metrics            // may be nil
	TracerProvider trace.TracerProvider // if nil, the global one is used
}

// New creates a new Collection for the given entity and identifier types.
//
// Codecs for both types are looked up in the registry;
// it fails with *codec.UnregisteredTypeError if any of them is missing.
func New[E, ID any](opts *NewOpts) (*Collection[E, ID], error) {
	entity, err := codec.Lookup[E](opts.Registry)
	if err != nil {
		return nil, err
	}

	id, err := codec.Lookup[ID](opts.Registry)
	if err != nil {
		return nil, err
	}

	c, err := opts.Backend.Collection(opts.Name)
	if err != nil {
		return nil, err
	}

	l := opts.L
	if l == nil {
		l = zap.NewNop()
	}

	tp := opts.TracerProvider
	if tp == nil {
		tp = otel.GetTracerProvider()
	}

	return &Collection[E, ID]{
		name:   opts.Name,
		c:      c,
		entity: entity,
		id:     id,
		l:      l.Named("collection").With(zap.String("collection", opts.Name)),
		m:      opts.Metrics,
		tracer: tp.Tracer("github.com/FerretDB/bobject/internal/collection"),
	}, nil
}

// Name returns the collection name.
func (c *Collection[E, ID]) Name() string {
	return c.name
}

// observe starts the operation span and returns a function that records its result.
func (c *Collection[E, ID]) observe(ctx context.Context, op string) (context.Context, func(*error)) {
	start := time.Now()

	ctx, span := c.tracer.Start(ctx, op, trace.WithAttributes(attribute.String("collection", c.name)))

	return ctx, func(errp *error) {
		err := *errp
		dur := time.Since(start)

		result := "ok"

		switch {
		case err == nil:
		case errors.Is(err, ErrNotFound):
			result = "not_found"
		default:
			result = "error"

			span.RecordError(err)
			span.SetStatus(codes.Error, err.Error())
		}

		span.SetAttributes(attribute.String("result", result))
		span.End()

		if c.m != nil {
			c.m.Operations.WithLabelValues(c.name, op, result).Inc()
			c.m.Durations.WithLabelValues(c.name, op).Observe(dur.Seconds())
		}

		c.l.Debug(op, zap.String("result", result), zap.Duration("duration", dur), zap.Error(err))
	}
}

// encode encodes entity to a document.
func (c *Collection[E, ID]) encode(e E) (*types.Document, error) {
	v, err := c.entity.Encode(e)
	if err != nil {
		return nil, err
	}

	doc, ok := v.(*types.Document)
	if !ok {
		return nil, commonerrors.Errorf(commonerrors.ErrConversion, "entity encoded to %s, expected document", types.TypeOf(v))
	}

	return doc, nil
}

// encodeWithID encodes entity to a document with the given _id value.
func (c *Collection[E, ID]) encodeWithID(e E, id types.Value) (*types.Document, error) {
	doc, err := c.encode(e)
	if err != nil {
		return nil, err
	}

	return doc.With(codec.IDField, id), nil
}

// query returns all documents matching the given query document.
func (c *Collection[E, ID]) query(ctx context.Context, params *backends.QueryParams, q *Query) (backends.DocumentsIterator, error) {
	res, err := c.c.Query(ctx, params)
	if err != nil {
		return nil, err
	}

	next := func() (struct{}, *types.Document, error) {
		for {
			_, doc, err := res.Iter.Next()
			if err != nil {
				return struct{}{}, nil, err
			}

			if q.Match(doc) {
				return struct{}{}, doc, nil
			}
		}
	}

	return iterator.ForFunc(next, res.Iter.Close), nil
}

// FindByID returns the entity with the given identifier, or ErrNotFound.
func (c *Collection[E, ID]) FindByID(ctx context.Context, id ID) (res E, err error) {
	ctx, done := c.observe(ctx, "FindByID")
	defer done(&err)

	idV, err := c.id.Encode(id)
	if err != nil {
		return
	}

	iter, err := c.query(ctx, &backends.QueryParams{ID: idV}, nil)
	if err != nil {
		return
	}

	return c.first(iter)
}

// FindOne returns the first entity matching the query, or ErrNotFound.
func (c *Collection[E, ID]) FindOne(ctx context.Context, query *types.Document) (res E, err error) {
	ctx, done := c.observe(ctx, "FindOne")
	defer done(&err)

	q, err := NewQuery(query)
	if err != nil {
		return
	}

	iter, err := c.query(ctx, nil, q)
	if err != nil {
		return
	}

	return c.first(iter)
}

// first decodes the first document of iter and closes it.
func (c *Collection[E, ID]) first(iter backends.DocumentsIterator) (E, error) {
	defer iter.Close()

	var zero E

	_, doc, err := iter.Next()
	if errors.Is(err, iterator.ErrIteratorDone) {
		return zero, ErrNotFound
	}

	if err != nil {
		return zero, lazyerrors.Error(err)
	}

	return c.entity.Decode(doc)
}

// Find returns a cursor over entities matching the query.
// A nil query matches all entities.
//
// The caller should close the cursor.
func (c *Collection[E, ID]) Find(ctx context.Context, query *types.Document) (res *Cursor[E], err error) {
	ctx, done := c.observe(ctx, "Find")
	defer done(&err)

	q, err := NewQuery(query)
	if err != nil {
		return
	}

	iter, err := c.query(ctx, nil, q)
	if err != nil {
		return
	}

	res = newCursor(iter, c.entity)

	return
}

// Count returns the number of documents matching the query.
func (c *Collection[E, ID]) Count(ctx context.Context, query *types.Document) (res int, err error) {
	ctx, done := c.observe(ctx, "Count")
	defer done(&err)

	q, err := NewQuery(query)
	if err != nil {
		return
	}

	iter, err := c.query(ctx, nil, q)
	if err != nil {
		return
	}

	return iterator.ConsumeCount(iter)
}

// Insert inserts all entities.
//
// Either all entities are inserted, or none.
// If any identifier is already present, it returns *backends.Error with ErrorCodeInsertDuplicateID.
func (c *Collection[E, ID]) Insert(ctx context.Context, entities ...E) (err error) {
	ctx, done := c.observe(ctx, "Insert")
	defer done(&err)

	docs := make([]*types.Document, len(entities))

	for i, e := range entities {
		if docs[i], err = c.encode(e); err != nil {
			return
		}
	}

	_, err = c.c.InsertAll(ctx, &backends.InsertAllParams{Docs: docs})

	return
}

// Save replaces the entity with the same identifier, or inserts it.
func (c *Collection[E, ID]) Save(ctx context.Context, e E) (err error) {
	ctx, done := c.observe(ctx, "Save")
	defer done(&err)

	doc, err := c.encode(e)
	if err != nil {
		return
	}

	_, err = c.c.ReplaceAll(ctx, &backends.ReplaceAllParams{
		Docs:   []*types.Document{doc},
		Upsert: true,
	})

	return
}

// Update replaces all entities matching the query with the given one,
// preserving their identifiers. It returns the number of replaced entities.
func (c *Collection[E, ID]) Update(ctx context.Context, query *types.Document, e E) (res int, err error) {
	ctx, done := c.observe(ctx, "Update")
	defer done(&err)

	q, err := NewQuery(query)
	if err != nil {
		return
	}

	ids, err := c.matchingIDs(ctx, q)
	if err != nil {
		return
	}

	if len(ids) == 0 {
		return
	}

	docs := make([]*types.Document, len(ids))

	for i, id := range ids {
		if docs[i], err = c.encodeWithID(e, id); err != nil {
			return
		}
	}

	r, err := c.c.ReplaceAll(ctx, &backends.ReplaceAllParams{Docs: docs})
	if err != nil {
		return
	}

	res = r.Replaced

	return
}

// UpdateByID replaces the entity with the given identifier, or returns ErrNotFound.
//
// The stored identifier is the given one, even if the entity has a different one.
func (c *Collection[E, ID]) UpdateByID(ctx context.Context, id ID, e E) (err error) {
	ctx, done := c.observe(ctx, "UpdateByID")
	defer done(&err)

	idV, err := c.id.Encode(id)
	if err != nil {
		return
	}

	doc, err := c.encodeWithID(e, idV)
	if err != nil {
		return
	}

	r, err := c.c.ReplaceAll(ctx, &backends.ReplaceAllParams{Docs: []*types.Document{doc}})
	if err != nil {
		return
	}

	if r.Replaced == 0 {
		err = ErrNotFound
	}

	return
}

// Remove removes all entities matching the query and returns their number.
func (c *Collection[E, ID]) Remove(ctx context.Context, query *types.Document) (res int, err error) {
	ctx, done := c.observe(ctx, "Remove")
	defer done(&err)

	q, err := NewQuery(query)
	if err != nil {
		return
	}

	ids, err := c.matchingIDs(ctx, q)
	if err != nil {
		return
	}

	if len(ids) == 0 {
		return
	}

	r, err := c.c.DeleteAll(ctx, &backends.DeleteAllParams{IDs: ids})
	if err != nil {
		return
	}

	res = r.Deleted

	return
}

// RemoveByID removes the entity with the given identifier, or returns ErrNotFound.
func (c *Collection[E, ID]) RemoveByID(ctx context.Context, id ID) (err error) {
	ctx, done := c.observe(ctx, "RemoveByID")
	defer done(&err)

	idV, err := c.id.Encode(id)
	if err != nil {
		return
	}

	r, err := c.c.DeleteAll(ctx, &backends.DeleteAllParams{IDs: []types.Value{idV}})
	if err != nil {
		return
	}

	if r.Deleted == 0 {
		err = ErrNotFound
	}

	return
}

// matchingIDs returns _id values of all documents matching the query.
func (c *Collection[E, ID]) matchingIDs(ctx context.Context, q *Query) ([]types.Value, error) {
	iter, err := c.query(ctx, nil, q)
	if err != nil {
		return nil, err
	}

	docs, err := iterator.ConsumeValues(iter)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	ids := make([]types.Value, 0, len(docs))

	for _, doc := range docs {
		id, ok := doc.Get(codec.IDField)
		if !ok {
			return nil, lazyerrors.Errorf("stored document has no %s field", codec.IDField)
		}

		ids = append(ids, id)
	}

	return ids, nil
}
