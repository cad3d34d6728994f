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

package main

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/backends/memory"
	"github.com/FerretDB/bobject/internal/backends/postgresql"
	"github.com/FerretDB/bobject/internal/backends/sqlite"
	"github.com/FerretDB/bobject/internal/codec"
	"github.com/FerretDB/bobject/internal/collection"
	"github.com/FerretDB/bobject/internal/extjson"
	"github.com/FerretDB/bobject/internal/jsonparse"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// storageFlags represents flags that select the backend.
//
//nolint:lll // some tags are long
type storageFlags struct {
	Backend       string `default:"sqlite"                             help:"Backend: 'memory', 'sqlite', 'postgresql'." enum:"memory,sqlite,postgresql"`
	SQLiteURL     string `default:"file:bobject.sqlite"                help:"SQLite URI for 'sqlite' backend."           name:"sqlite-url"`
	PostgreSQLURL string `default:"postgres://127.0.0.1:5432/bobject" help:"PostgreSQL URL for 'postgresql' backend."   name:"postgresql-url"`
}

// open opens the selected backend and registers its metrics.
func (f *storageFlags) open(e *env) (backends.Backend, error) {
	l := e.l.Named(f.Backend)

	var b backends.Backend
	var err error

	switch f.Backend {
	case "memory":
		b, err = memory.NewBackend(&memory.NewBackendParams{L: l})
	case "sqlite":
		b, err = sqlite.NewBackend(&sqlite.NewBackendParams{URI: f.SQLiteURL, L: l})
	case "postgresql":
		b, err = postgresql.NewBackend(&postgresql.NewBackendParams{URI: f.PostgreSQLURL, L: l})
	default:
		err = fmt.Errorf("unknown backend %q", f.Backend)
	}

	if err != nil {
		return nil, err
	}

	if err = e.reg.Register(b); err != nil {
		b.Close()
		return nil, lazyerrors.Error(err)
	}

	return b, nil
}

// openCollection returns a collection of raw documents with any identifiers.
func openCollection(e *env, b backends.Backend, name string) (*collection.Collection[*types.Document, types.Value], error) {
	r := codec.NewRegistry(e.l)
	if err := codec.RegisterDefaults(r); err != nil {
		return nil, err
	}

	m := collection.NewMetrics()
	if err := e.reg.Register(m); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return collection.New[*types.Document, types.Value](&collection.NewOpts{
		Backend:        b,
		Name:           name,
		Registry:       r,
		L:              e.l,
		Metrics:        m,
		TracerProvider: e.tp,
	})
}

// withID returns doc with a new ObjectID as the first field if it has no _id.
func withID(doc *types.Document) *types.Document {
	if doc.Has(codec.IDField) {
		return doc
	}

	b := types.NewDocumentBuilder(doc.Len() + 1)
	b.Add(codec.IDField, types.NewObjectID())

	for _, k := range doc.Keys() {
		v, _ := doc.Get(k)
		b.Add(k, v)
	}

	return b.Build()
}

type importCmd struct {
	Storage storageFlags `embed:""`

	Collection string `arg:"" help:"Collection name."`
	File       string `arg:"" optional:"" default:"-" help:"Input file with a sequence of Extended JSON documents, '-' for stdin."`
	Lenient    bool   `default:"false" help:"Accept trailing commas, comments and unquoted keys."`
	Batch      int    `default:"1000"  help:"Maximal number of documents inserted at once."`
}

// Run implements import command.
//
// Documents without _id get a new ObjectID.
// Each batch is inserted atomically.
func (c *importCmd) Run(ctx context.Context, e *env) error {
	if c.Batch <= 0 {
		return fmt.Errorf("batch size must be positive, got %d", c.Batch)
	}

	data, err := readInput(e, c.File)
	if err != nil {
		return err
	}

	b, err := c.Storage.open(e)
	if err != nil {
		return err
	}

	defer b.Close()

	coll, err := openCollection(e, b, c.Collection)
	if err != nil {
		return err
	}

	opts := &jsonparse.Options{Flavor: jsonparse.Strict}
	if c.Lenient {
		opts.Flavor = jsonparse.Lenient
	}

	iter := jsonparse.NewValues(data, opts)
	defer iter.Close()

	var total int
	batch := make([]*types.Document, 0, c.Batch)

	flush := func() error {
		if len(batch) == 0 {
			return nil
		}

		if err := coll.Insert(ctx, batch...); err != nil {
			return err
		}

		total += len(batch)
		batch = batch[:0]

		return nil
	}

	for {
		n, tree, err := iter.Next()
		if errors.Is(err, iterator.ErrIteratorDone) {
			break
		}

		if err != nil {
			return err
		}

		v, err := extjson.FromTree(tree)
		if err != nil {
			return fmt.Errorf("document %d: %w", n, err)
		}

		doc, ok := v.(*types.Document)
		if !ok {
			return fmt.Errorf("document %d: expected document, got %s", n, types.TypeOf(v))
		}

		batch = append(batch, withID(doc))

		if len(batch) == c.Batch {
			if err = flush(); err != nil {
				return err
			}
		}
	}

	if err = flush(); err != nil {
		return err
	}

	e.l.Info("Imported", zap.String("collection", c.Collection), zap.Int("documents", total))

	if _, err = fmt.Fprintln(e.stdout, total); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}

type exportCmd struct {
	Storage storageFlags `embed:""`

	Collection string `arg:"" help:"Collection name."`
	Filter     string `default:"" help:"Extended JSON query document; fields are matched by equality."`
	Indent     string `default:"" help:"Indentation; compact output if empty."`
}

// Run implements export command.
func (c *exportCmd) Run(ctx context.Context, e *env) error {
	var filter *types.Document

	if c.Filter != "" {
		var err error
		if filter, err = extjson.UnmarshalDocument([]byte(c.Filter), &jsonparse.Options{Flavor: jsonparse.Lenient}); err != nil {
			return fmt.Errorf("--filter: %w", err)
		}
	}

	b, err := c.Storage.open(e)
	if err != nil {
		return err
	}

	defer b.Close()

	coll, err := openCollection(e, b, c.Collection)
	if err != nil {
		return err
	}

	cursor, err := coll.Find(ctx, filter)
	if err != nil {
		return err
	}

	defer cursor.Close()

	for {
		_, doc, err := cursor.Next()
		if errors.Is(err, iterator.ErrIteratorDone) {
			return nil
		}

		if err != nil {
			return err
		}

		var res []byte
		if c.Indent == "" {
			res, err = extjson.Marshal(doc)
		} else {
			res, err = extjson.MarshalIndent(doc, "", c.Indent)
		}

		if err != nil {
			return err
		}

		if _, err = fmt.Fprintf(e.stdout, "%s\n", res); err != nil {
			return lazyerrors.Error(err)
		}
	}
}
