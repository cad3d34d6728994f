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

package sqlite

import (
	"context"
	"fmt"
	"strings"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/bson"
	"github.com/FerretDB/bobject/internal/util/fsql"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// collection implements backends.Collection interface.
type collection struct {
	db    *fsql.DB
	name  string
	table string
}

// newCollection creates a new Collection.
func newCollection(db *fsql.DB, name string) backends.Collection {
	return &collection{
		db:    db,
		name:  name,
		table: quoteIdent(name),
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

		q += " WHERE _id = ?"
		args = append(args, key)
	}

	q += " ORDER BY rowid"

	rows, err := c.db.QueryContext(ctx, q, args...)
	if err != nil {
		// No such table, return empty result.
		if isNoSuchTable(err) {
			return &backends.QueryResult{Iter: newQueryIterator(ctx, nil)}, nil
		}

		return nil, lazyerrors.Error(err)
	}

	return &backends.QueryResult{
		Iter: newQueryIterator(ctx, rows),
	}, nil
}

// createTable creates the collection's table if needed.
func (c *collection) createTable(ctx context.Context, tx *fsql.Tx) error {
	q := fmt.Sprintf("CREATE TABLE IF NOT EXISTS %s (_id TEXT PRIMARY KEY, bson BLOB NOT NULL)", c.table)
	if _, err := tx.ExecContext(ctx, q); err != nil {
		return lazyerrors.Error(err)
	}

	return nil
}

// InsertAll implements backends.Collection interface.
func (c *collection) InsertAll(ctx context.Context, params *backends.InsertAllParams) (*backends.InsertAllResult, error) {
	err := c.db.InTransaction(ctx, func(tx *fsql.Tx) error {
		if err := c.createTable(ctx, tx); err != nil {
			return err
		}

		q := fmt.Sprintf("INSERT INTO %s (_id, bson) VALUES (?, ?)", c.table)

		for _, doc := range params.Docs {
			_, key, err := backends.DocumentID(doc)
			if err != nil {
				return err
			}

			b, err := bson.Encode(doc)
			if err != nil {
				return lazyerrors.Error(err)
			}

			if _, err = tx.ExecContext(ctx, q, key, b); err != nil {
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

	err := c.db.InTransaction(ctx, func(tx *fsql.Tx) error {
		if params.Upsert {
			if err := c.createTable(ctx, tx); err != nil {
				return err
			}
		} else {
			exists, err := tableExists(ctx, tx, c.name)
			if err != nil {
				return lazyerrors.Error(err)
			}

			if !exists {
				return nil
			}
		}

		update := fmt.Sprintf("UPDATE %s SET bson = ? WHERE _id = ?", c.table)
		insert := fmt.Sprintf("INSERT INTO %s (_id, bson) VALUES (?, ?)", c.table)

		for _, doc := range params.Docs {
			_, key, err := backends.DocumentID(doc)
			if err != nil {
				return err
			}

			b, err := bson.Encode(doc)
			if err != nil {
				return lazyerrors.Error(err)
			}

			r, err := tx.ExecContext(ctx, update, b, key)
			if err != nil {
				return lazyerrors.Error(err)
			}

			n, err := r.RowsAffected()
			if err != nil {
				return lazyerrors.Error(err)
			}

			if n > 0 {
				res.Replaced++
				continue
			}

			if !params.Upsert {
				continue
			}

			if _, err = tx.ExecContext(ctx, insert, key, b); err != nil {
				return lazyerrors.Error(err)
			}

			res.Inserted++
		}

		return nil
	})
	if err != nil {
		return nil, err
	}

	return &res, nil
}

// DeleteAll implements backends.Collection interface.
func (c *collection) DeleteAll(ctx context.Context, params *backends.DeleteAllParams) (*backends.DeleteAllResult, error) {
	if len(params.IDs) == 0 {
		return new(backends.DeleteAllResult), nil
	}

	placeholders := make([]string, len(params.IDs))
	args := make([]any, len(params.IDs))

	for i, id := range params.IDs {
		key, err := backends.IDKey(id)
		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		placeholders[i] = "?"
		args[i] = key
	}

	q := fmt.Sprintf("DELETE FROM %s WHERE _id IN (%s)", c.table, strings.Join(placeholders, ", "))

	r, err := c.db.ExecContext(ctx, q, args...)
	if err != nil {
		if isNoSuchTable(err) {
			return new(backends.DeleteAllResult), nil
		}

		return nil, lazyerrors.Error(err)
	}

	n, err := r.RowsAffected()
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return &backends.DeleteAllResult{
		Deleted: int(n),
	}, nil
}

// check interfaces
var (
	_ backends.Collection = (*collection)(nil)
)
