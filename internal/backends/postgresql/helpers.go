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
	"errors"

	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5/pgconn"
)

// pgErrorCode returns PostgreSQL error code of the error, or empty string.
func pgErrorCode(err error) string {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return ""
	}

	return pgErr.Code
}

// isUndefinedTable returns true if err is caused by the missing table.
func isUndefinedTable(err error) bool {
	return pgErrorCode(err) == pgerrcode.UndefinedTable
}

// isUniqueViolation returns true if err is caused by the unique constraint.
func isUniqueViolation(err error) bool {
	return pgErrorCode(err) == pgerrcode.UniqueViolation
}

// isConcurrentCreate returns true if err is caused by concurrent CREATE TABLE IF NOT EXISTS.
func isConcurrentCreate(err error) bool {
	switch pgErrorCode(err) {
	case pgerrcode.UniqueViolation, pgerrcode.DuplicateObject, pgerrcode.DuplicateTable:
		return true
	default:
		return false
	}
}
