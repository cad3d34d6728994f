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

// Package postgresql provides PostgreSQL backend.
//
// Each collection is stored in a table with the same name in the current schema:
//
//	CREATE TABLE "<name>" (_id text PRIMARY KEY, bson bytea NOT NULL, _seq bigint GENERATED ALWAYS AS IDENTITY)
//
// The _id column contains the canonical form of the document identifier (see backends.IDKey),
// the bson column contains the whole document encoded as BSON.
// Documents are returned in _seq (insertion) order.
package postgresql

import (
	"context"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// Parts of Prometheus metric names.
const (
	namespace = "bobject"
	subsystem = "postgresql_pool"
)

// maxIdentifierLen is PostgreSQL's NAMEDATALEN-1; longer identifiers are truncated.
const maxIdentifierLen = 63

// backend implements backends.Backend interface.
type backend struct {
	p *pgxpool.Pool
	l *zap.Logger
}

// NewBackendParams represents the parameters of NewBackend function.
//
//nolint:vet // for readability
type NewBackendParams struct {
	URI string
	L   *zap.Logger
}

// NewBackend creates a new PostgreSQL backend.
func NewBackend(params *NewBackendParams) (backends.Backend, error) {
	l := params.L
	if l == nil {
		l = zap.NewNop()
	}

	p, err := newPool(context.TODO(), params.URI, l)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return backends.BackendContract(&backend{
		p: p,
		l: l,
	}), nil
}

// Close implements backends.Backend interface.
func (b *backend) Close() {
	b.p.Close()
}

// Collection implements backends.Backend interface.
func (b *backend) Collection(name string) (backends.Collection, error) {
	if len(name) > maxIdentifierLen {
		return nil, backends.NewError(backends.ErrorCodeCollectionNameIsInvalid, nil)
	}

	return newCollection(b.p, name), nil
}

// ListCollections implements backends.Backend interface.
func (b *backend) ListCollections(ctx context.Context, params *backends.ListCollectionsParams) (*backends.ListCollectionsResult, error) {
	q := `SELECT table_name FROM information_schema.tables WHERE table_schema = current_schema() AND table_type = 'BASE TABLE'`

	rows, err := b.p.Query(ctx, q)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	names, err := pgx.CollectRows(rows, pgx.RowTo[string])
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
	if len(params.Name) > maxIdentifierLen {
		return backends.NewError(backends.ErrorCodeCollectionNameIsInvalid, nil)
	}

	_, err := b.p.Exec(ctx, "DROP TABLE "+pgx.Identifier{params.Name}.Sanitize())
	if err == nil {
		return nil
	}

	if isUndefinedTable(err) {
		return backends.NewError(backends.ErrorCodeCollectionDoesNotExist, err)
	}

	return lazyerrors.Error(err)
}

// Describe implements prometheus.Collector.
func (b *backend) Describe(ch chan<- *prometheus.Desc) {
	prometheus.DescribeByCollect(b, ch)
}

// Collect implements prometheus.Collector.
func (b *backend) Collect(ch chan<- prometheus.Metric) {
	stats := b.p.Stat()

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "size"),
			"The current number of connections in the pool.",
			nil, nil,
		),
		prometheus.GaugeValue,
		float64(stats.TotalConns()),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "acquired"),
			"The current number of acquired connections.",
			nil, nil,
		),
		prometheus.GaugeValue,
		float64(stats.AcquiredConns()),
	)

	ch <- prometheus.MustNewConstMetric(
		prometheus.NewDesc(
			prometheus.BuildFQName(namespace, subsystem, "acquires_total"),
			"The total number of successful connection acquisitions.",
			nil, nil,
		),
		prometheus.CounterValue,
		float64(stats.AcquireCount()),
	)
}

// check interfaces
var (
	_ backends.Backend = (*backend)(nil)
)
