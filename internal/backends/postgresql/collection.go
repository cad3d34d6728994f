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

package postgresql

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/bson"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// collection implements backends.Collection interface.
type collection struct {
	p     *pgxpool.Pool
	name  string
	table string
}

// newCollection creates a new Collection.
func newCollection(p *pgxpool.Pool, name string) backends.Collection {
	return &collection{
		p:     p,
		name:  name,
		table: pgx.Identifier{name}.Sanitize(),
	}
}

// Query implements backends.Collection interface.
func (c *collection) Query(ctx context.Context, params *backends.QueryParams) (*backends.QueryResult, error) {
	q := fmt.Sprintf("SELECT bson FROM %s", c.table)

	var args []any

	if params.ID != nil {
		key, err := backends.IDKey(params.ID)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		q += " WHERE _id = $1"
		args = append(args, key)
	}

	q += " ORDER BY _seq"

	rows, err := c.p.Query(ctx, q, args...)
	if err != nil {
		// No such table, return empty result.
		if isUndefinedTable(err) {
			return &backends.QueryResult{Iter: newQueryIterator(ctx, nil)}, nil
		}

		return nil, lazyerrors.Error(err)
	}

	return &backends.QueryResult{
		Iter: newQueryIterator(ctx, rows),
	}, nil
}

// createTable creates the collection's table if needed.
func (c *collection) createTable(ctx context.Context) error {
	q := fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (_id text PRIMARY KEY, bson bytea NOT NULL, _seq bigint GENERATED ALWAYS AS IDENTITY)",
		c.table,
	)

	_, err := c.p.Exec(ctx, q)
	if err == nil || isConcurrentCreate(err) {
		return nil
	}

	return lazyerrors.Error(err)
}

// InsertAll implements backends.Collection interface.
func (c *collection) InsertAll(ctx context.Context, params *backends.InsertAllParams) (*backends.InsertAllResult, error) {
	if err := c.createTable(ctx); err != nil {
		return nil, err
	}

	q := fmt.Sprintf("INSERT INTO %s (_id, bson) VALUES ($1, $2)", c.table)

	err := pgx.BeginFunc(ctx, c.p, func(tx pgx.Tx) error {
		for _, doc := range params.Docs {
			_, key, err := backends.DocumentID(doc)
			if err != nil {
				return err
			}

			b, err := bson.Encode(doc)
			if err != nil {
				return lazyerrors.Error(err)
			}

			if _, err = tx.Exec(ctx, q, key, b); err != nil {
				if isUniqueViolation(err) {
					return backends.NewError(backends.ErrorCodeInsertDuplicateID, err)
				}

				return lazyerrors.Error(err)
			}
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return new(backends.InsertAllResult), nil
}

// ReplaceAll implements backends.Collection interface.
func (c *collection) ReplaceAll(ctx context.Context, params *backends.ReplaceAllParams) (*backends.ReplaceAllResult, error) {
	var res backends.ReplaceAllResult

	if params.Upsert {
		if err := c.createTable(ctx); err != nil {
			return nil, err
		}
	}

	update := fmt.Sprintf("UPDATE %s SET bson = $1 WHERE _id = $2", c.table)
	insert := fmt.Sprintf("INSERT INTO %s (_id, bson) VALUES ($1, $2)", c.table)

	err := pgx.BeginFunc(ctx, c.p, func(tx pgx.Tx) error {
		for _, doc := range params.Docs {
			_, key, err := backends.DocumentID(doc)
			if err != nil {
				return err
			}

			b, err := bson.Encode(doc)
			if err != nil {
				return lazyerrors.Error(err)
			}

			tag, err := tx.Exec(ctx, update, b, key)
			if err != nil {
				return err
			}

			if tag.RowsAffected() > 0 {
				res.Replaced++
				continue
			}

			if !params.Upsert {
				continue
			}

			if _, err = tx.Exec(ctx, insert, key, b); err != nil {
				return lazyerrors.Error(err)
			}

			res.Inserted++
		}

		return nil
	})

	switch {
	case err == nil:
		return &res, nil
	case !params.Upsert && isUndefinedTable(err):
		return new(backends.ReplaceAllResult), nil
	default:
		return nil, lazyerrors.Error(err)
	}
}

// DeleteAll implements backends.Collection interface.
func (c *collection) DeleteAll(ctx context.Context, params *backends.DeleteAllParams) (*backends.DeleteAllResult, error) {
	if len(params.IDs) == 0 {
		return new(backends.DeleteAllResult), nil
	}

	keys := make([]string, len(params.IDs))

	for i, id := range params.IDs {
		key, err := backends.IDKey(id)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		keys[i] = key
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE _id = ANY($1)", c.table)

	tag, err := c.p.Exec(ctx, q, keys)
	if err != nil {
		if isUndefinedTable(err) {
			return new(backends.DeleteAllResult), nil
		}

		return nil, lazyerrors.Error(err)
	}

	return &backends.DeleteAllResult{
		Deleted: int(tag.RowsAffected()),
	}, nil
}

// check interfaces
var (
	_ backends.Collection = (*collection)(nil)
)
