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

package fsql

import (
	"database/sql"
	"errors"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"

	"github.com/FerretDB/bobject/internal/util/testutil"
)

// setup returns a new in-memory SQLite database with a single table.
func setup(t *testing.T) *DB {
	t.Helper()

	sqlDB, err := sql.Open("sqlite", "file:fsql?mode=memory")
	require.NoError(t, err)

	sqlDB.SetMaxOpenConns(1)
	sqlDB.SetMaxIdleConns(1)
	sqlDB.SetConnMaxIdleTime(0)
	sqlDB.SetConnMaxLifetime(0)

	db := WrapDB(sqlDB, "test", testutil.Logger(t))
	t.Cleanup(func() {
		require.NoError(t, db.Close())
	})

	ctx := testutil.Ctx(t)

	require.NoError(t, db.PingContext(ctx))

	_, err = db.ExecContext(ctx, "CREATE TABLE t (v INTEGER)")
	require.NoError(t, err)

	return db
}

// values returns all values from the table.
func values(t *testing.T, db *DB) []int {
	t.Helper()

	rows, err := db.QueryContext(testutil.Ctx(t), "SELECT v FROM t ORDER BY v")
	require.NoError(t, err)

	defer rows.Close()

	var res []int

	for rows.Next() {
		var v int
		require.NoError(t, rows.Scan(&v))
		res = append(res, v)
	}

	require.NoError(t, rows.Err())

	return res
}

func TestInTransaction(t *testing.T) {
	t.Parallel()

	db := setup(t)
	ctx := testutil.Ctx(t)

	err := db.InTransaction(ctx, func(tx *Tx) error {
		_, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (?), (?)", 1, 2)
		return err
	})
	require.NoError(t, err)

	errRollback := errors.New("rollback")

	err = db.InTransaction(ctx, func(tx *Tx) error {
		if _, err := tx.ExecContext(ctx, "INSERT INTO t (v) VALUES (?)", 3); err != nil {
			return err
		}

		rows, err := tx.QueryContext(ctx, "SELECT count(*) FROM t")
		if err != nil {
			return err
		}
		defer rows.Close()

		require.True(t, rows.Next())

		var n int
		require.NoError(t, rows.Scan(&n))
		assert.Equal(t, 3, n)

		return errRollback
	})
	assert.Same(t, errRollback, err)

	assert.Equal(t, []int{1, 2}, values(t, db))
}

func TestMetrics(t *testing.T) {
	t.Parallel()

	db := setup(t)

	assert.Equal(t, 4, promtestutil.CollectAndCount(db))
}
