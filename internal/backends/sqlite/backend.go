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

// Package sqlite provides SQLite backend.
//
// Each collection is stored in a table with the same name:
//
//	CREATE TABLE "<name>" (_id TEXT PRIMARY KEY, bson BLOB NOT NULL)
//
// The _id column contains the canonical form of the document identifier (see backends.IDKey),
// the bson column contains the whole document encoded as BSON.
// Documents are returned in rowid (insertion) order.
package sqlite

import (
	"context"
	"database/sql"
	"net/url"
	"strings"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
	_ "modernc.org/sqlite" // register database/sql driver

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/util/fsql"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// backend implements backends.Backend interface.
type backend struct {
	db *fsql.DB
	l  *zap.Logger
}

// NewBackendParams represents the parameters of NewBackend function.
//
//nolint:vet // for readability
type NewBackendParams struct {
	URI string
	L   *zap.Logger
}

// NewBackend creates a new SQLite backend.
//
// URI should be a `file:` URI as accepted by modernc.org/sqlite.
// In-memory databases (`mode=memory`) use a single connection.
func NewBackend(params *NewBackendParams) (backends.Backend, error) {
	l := params.L
	if l == nil {
		l = zap.NewNop()
	}

	uri, singleConn, err := prepareURI(params.URI)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	db, err := openDB(uri, singleConn, l)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return backends.BackendContract(&backend{
		db: db,
		l:  l,
	}), nil
}

// prepareURI validates SQLite URI and adds default parameters.
func prepareURI(s string) (string, bool, error) {
	u, err := url.Parse(s)
	if err != nil {
		return "", false, lazyerrors.Error(err)
	}

	if u.Scheme != "file" {
		return "", false, lazyerrors.Errorf("expected file: URI, got %q", s)
	}

	if u.Opaque == "" && u.Path == "" {
		return "", false, lazyerrors.Errorf("empty path in %q", s)
	}

	q := u.Query()

	singleConn := q.Get("mode") == "memory"

	if !singleConn {
		if !q.Has("_txlock") {
			q.Set("_txlock", "immediate")
		}

		if !q.Has("_pragma") {
			q.Add("_pragma", "busy_timeout(10000)")
			q.Add("_pragma", "journal_mode(wal)")
		}
	}

	u.RawQuery = q.Encode()

	return u.String(), singleConn, nil
}

// openDB opens existing database or creates a new one.
func openDB(uri string, singleConn bool, l *zap.Logger) (*fsql.DB, error) {
	db, err := sql.Open("sqlite", uri)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	db.SetConnMaxIdleTime(0)
	db.SetConnMaxLifetime(0)

	// each connection to in-memory database gets its own database
	if singleConn {
		db.SetMaxIdleConns(1)
		db.SetMaxOpenConns(1)
	}

	if err = db.Ping(); err != nil {
		_ = db.Close()
		return nil, lazyerrors.Error(err)
	}

	var version string
	if err = db.QueryRowContext(context.Background(), "SELECT sqlite_version()").Scan(&version); err != nil {
		_ = db.Close()
		return nil, lazyerrors.Error(err)
	}

	l.Debug("SQLite database opened", zap.String("uri", uri), zap.String("version", version))

	return fsql.WrapDB(db, "sqlite", l), nil
}

// Close implements backends.Backend interface.
func (b *backend) Close() {
	if err := b.db.Close(); err != nil {
		b.l.Error("Failed to close SQLite database", zap.Error(err))
	}
}

// Collection implements backends.Backend interface.
func (b *backend) Collection(name string) (backends.Collection, error) {
	// reserved for SQLite internal tables
	if strings.HasPrefix(strings.ToLower(name), "sqlite_") {
		return nil, backends.NewError(backends.ErrorCodeCollectionNameIsInvalid, nil)
	}

	return newCollection(b.db, name), nil
}

// ListCollections implements backends.Backend interface.
func (b *backend) ListCollections(ctx context.Context, params *backends.ListCollectionsParams) (*backends.ListCollectionsResult, error) {
	names, err := listTables(ctx, b.db)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	res := make([]backends.CollectionInfo, len(names))
	for i, name := range names {
		res[i] = backends.CollectionInfo{Name: name}
	}

	return &backends.ListCollectionsResult{
		Collections: res,
	}, nil
}

// DropCollection implements backends.Backend interface.
func (b *backend) DropCollection(ctx context.Context, params *backends.DropCollectionParams) error {
	return b.db.InTransaction(ctx, func(tx *fsql.Tx) error {
		exists, err := tableExists(ctx, tx, params.Name)
		if err != nil {
			return lazyerrors.Error(err)
		}

		if !exists {
			return backends.NewError(backends.ErrorCodeCollectionDoesNotExist, nil)
		}

		if _, err = tx.ExecContext(ctx, "DROP TABLE "+quoteIdent(params.Name)); err != nil {
			return lazyerrors.Error(err)
		}

		return nil
	})
}

// Describe implements prometheus.Collector.
func (b *backend) Describe(ch chan<- *prometheus.Desc) {
	b.db.Describe(ch)
}

// Collect implements prometheus.Collector.
func (b *backend) Collect(ch chan<- prometheus.Metric) {
	b.db.Collect(ch)
}

// check interfaces
var (
	_ backends.Backend = (*backend)(nil)
)
