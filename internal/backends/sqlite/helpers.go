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
	"errors"
	"strings"

	"modernc.org/sqlite"
	sqlitelib "modernc.org/sqlite/lib"

	"github.com/FerretDB/bobject/internal/util/fsql"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// querier is implemented by *fsql.DB and *fsql.Tx.
type querier interface {
	QueryContext(ctx context.Context, query string, args ...any) (*fsql.Rows, error)
}

// quoteIdent quotes SQLite identifier.
func quoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// listTables returns names of all user tables.
func listTables(ctx context.Context, q querier) ([]string, error) {
	rows, err := q.QueryContext(ctx, "SELECT name FROM sqlite_schema WHERE type = 'table' AND substr(name, 1, 7) != 'sqlite_'")
	if err != nil {
		return nil, lazyerrors.Error(err)
	}
	defer rows.Close()

	var res []string

	for rows.Next() {
		var name string
		if err = rows.Scan(&name); err != nil {
			return nil, lazyerrors.Error(err)
		}

		res = append(res, name)
	}

	if err = rows.Err(); err != nil {
		return nil, lazyerrors.Error(err)
	}

	return res, nil
}

// tableExists returns true if the table with the given name exists.
func tableExists(ctx context.Context, q querier, name string) (bool, error) {
	rows, err := q.QueryContext(ctx, "SELECT 1 FROM sqlite_schema WHERE type = 'table' AND name = ?", name)
	if err != nil {
		return false, lazyerrors.Error(err)
	}
	defer rows.Close()

	exists := rows.Next()

	if err = rows.Err(); err != nil {
		return false, lazyerrors.Error(err)
	}

	return exists, nil
}

// errorCode returns the primary SQLite result code of the error, or 0.
func errorCode(err error) int {
	var e *sqlite.Error
	if !errors.As(err, &e) {
		return 0
	}

	// extended result codes carry the primary one in the low byte
	return e.Code() & 0xff
}

// isNoSuchTable returns true if err is caused by the missing table.
func isNoSuchTable(err error) bool {
	return errorCode(err) == sqlitelib.SQLITE_ERROR && strings.Contains(err.Error(), "no such table")
}

// isUniqueViolation returns true if err is caused by the primary key constraint.
func isUniqueViolation(err error) bool {
	return errorCode(err) == sqlitelib.SQLITE_CONSTRAINT
}
