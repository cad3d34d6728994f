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
	"net/url"

	zapadapter "github.com/jackc/pgx-zap"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/jackc/pgx/v5/tracelog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"

	"github.com/FerretDB/bobject/internal/util/debugbuild"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// setDefaultValues sets default query parameters.
func setDefaultValues(values url.Values) {
	if !values.Has("pool_max_conns") {
		values.Set("pool_max_conns", "20")
	}

	values.Set("application_name", "bobject")

	// That only affects text protocol; pgx mostly uses a binary one.
	values.Set("timezone", "UTC")
}

// newPool creates a new connection pool for the given PostgreSQL URI.
func newPool(ctx context.Context, u string, l *zap.Logger) (*pgxpool.Pool, error) {
	uri, err := url.Parse(u)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	values := uri.Query()
	setDefaultValues(values)
	uri.RawQuery = values.Encode()

	config, err := pgxpool.ParseConfig(uri.String())
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	config.AfterConnect = func(ctx context.Context, conn *pgx.Conn) error {
		var v string
		if err := conn.QueryRow(ctx, `SHOW server_version`).Scan(&v); err != nil {
			return lazyerrors.Error(err)
		}

		l.Debug("Connected to PostgreSQL", zap.String("version", v))

		return nil
	}

	tracers := []pgx.QueryTracer{
		// try to log everything; logger's configuration will skip extra levels if needed
		&tracelog.TraceLog{
			Logger:   zapadapter.NewLogger(l),
			LogLevel: tracelog.LogLevelTrace,
		},
	}

	if debugbuild.Enabled {
		tracers = append(tracers, &spanTracer{tracer: otel.Tracer("internal/backends/postgresql")})
	}

	config.ConnConfig.Tracer = &multiQueryTracer{
		Tracers: tracers,
	}

	p, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	if err = p.Ping(ctx); err != nil {
		p.Close()
		return nil, lazyerrors.Error(err)
	}

	return p, nil
}

// spanTracer implements pgx.QueryTracer.
// It is used to add spans to Query, QueryRow, and Exec calls in debug builds.
type spanTracer struct {
	tracer trace.Tracer
}

// TraceQueryStart adds a span to Query, QueryRow, and Exec calls.
func (t *spanTracer) TraceQueryStart(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	ctx, _ = t.tracer.Start(ctx, data.SQL, trace.WithAttributes(
		attribute.String("args", fmt.Sprintf("%v", data.Args)),
	))

	return ctx
}

// TraceQueryEnd ends the span started by TraceQueryStart.
func (t *spanTracer) TraceQueryEnd(ctx context.Context, _ *pgx.Conn, data pgx.TraceQueryEndData) {
	span := trace.SpanFromContext(ctx)

	span.SetAttributes(attribute.String("commandTag", data.CommandTag.String()))

	if data.Err != nil {
		span.SetStatus(codes.Error, data.Err.Error())
	}

	span.End()
}

// multiQueryTracer implements pgx.QueryTracer. It can be used to add
// multiple tracers.
type multiQueryTracer struct {
	Tracers []pgx.QueryTracer
}

// TraceQueryStart starts all the tracers.
func (m *multiQueryTracer) TraceQueryStart(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryStartData) context.Context {
	for _, t := range m.Tracers {
		ctx = t.TraceQueryStart(ctx, conn, data)
	}

	return ctx
}

// TraceQueryEnd ends all the tracers.
func (m *multiQueryTracer) TraceQueryEnd(ctx context.Context, conn *pgx.Conn, data pgx.TraceQueryEndData) {
	for _, t := range m.Tracers {
		t.TraceQueryEnd(ctx, conn, data)
	}
}

// check interfaces
var (
	_ pgx.QueryTracer = (*spanTracer)(nil)
	_ pgx.QueryTracer = (*multiQueryTracer)(nil)
)
