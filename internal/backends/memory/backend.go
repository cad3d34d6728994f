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

// Package memory provides an in-process backend.
//
// Documents are kept as immutable values; nothing is copied on insert or query.
package memory

import (
	"context"
	"errors"
	"slices"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// ErrClosed is returned by all operations after Close.
var ErrClosed = errors.New("memory: backend is closed")

// storage holds documents of a single collection in insertion order.
type storage struct {
	keys []string
	docs map[string]*types.Document
}

// backend implements backends.Backend interface.
type backend struct {
	l *zap.Logger

	rw          sync.RWMutex
	collections map[string]*storage
	closed      bool
}

// NewBackendParams represents the parameters of NewBackend function.
//
//nolint:vet // for readability
type NewBackendParams struct {
	L *zap.Logger
}

// NewBackend creates a new backend.
func NewBackend(params *NewBackendParams) (backends.Backend, error) {
	l := params.L
	if l == nil {
		l = zap.NewNop()
	}

	return backends.BackendContract(&backend{
		l:           l,
		collections: map[string]*storage{},
	}), nil
}

// Close implements backends.Backend interface.
//
// Stored documents are kept, so metrics can still be collected.
func (b *backend) Close() {
	b.rw.Lock()
	defer b.rw.Unlock()

	b.closed = true
}

// Collection implements backends.Backend interface.
func (b *backend) Collection(name string) (backends.Collection, error) {
	return newCollection(b, name), nil
}

// ListCollections implements backends.Backend interface.
func (b *backend) ListCollections(ctx context.Context, params *backends.ListCollectionsParams) (*backends.ListCollectionsResult, error) {
	b.rw.RLock()
	defer b.rw.RUnlock()

	if b.closed {
		return nil, lazyerrors.Error(ErrClosed)
	}

	res := make([]backends.CollectionInfo, 0, len(b.collections))
	for name := range b.collections {
		res = append(res, backends.CollectionInfo{Name: name})
	}

	return &backends.ListCollectionsResult{
		Collections: res,
	}, nil
}

// DropCollection implements backends.Backend interface.
func (b *backend) DropCollection(ctx context.Context, params *backends.DropCollectionParams) error {
	b.rw.Lock()
	defer b.rw.Unlock()

	if b.closed {
		return lazyerrors.Error(ErrClosed)
	}

	if _, ok := b.collections[params.Name]; !ok {
		return backends.NewError(backends.ErrorCodeCollectionDoesNotExist, nil)
	}

	delete(b.collections, params.Name)

	b.l.Debug("Collection dropped", zap.String("name", params.Name))

	return nil
}

// documentsDesc describes the number of stored documents.
var documentsDesc = prometheus.NewDesc(
	prometheus.BuildFQName("bobject", "memory", "documents"),
	"The number of documents in the collection.",
	[]string{"collection"}, nil,
)

// Describe implements prometheus.Collector.
func (b *backend) Describe(ch chan<- *prometheus.Desc) {
	ch <- documentsDesc
}

// Collect implements prometheus.Collector.
func (b *backend) Collect(ch chan<- prometheus.Metric) {
	b.rw.RLock()
	defer b.rw.RUnlock()

	for name, s := range b.collections {
		ch <- prometheus.MustNewConstMetric(documentsDesc, prometheus.GaugeValue, float64(len(s.keys)), name)
	}
}

// getOrCreate returns storage for the given collection, creating it if needed.
//
// It should be called with the write lock held.
func (b *backend) getOrCreate(name string) *storage {
	s := b.collections[name]
	if s == nil {
		s = &storage{docs: map[string]*types.Document{}}
		b.collections[name] = s

		b.l.Debug("Collection created", zap.String("name", name))
	}

	return s
}

// remove removes documents with given keys from storage, returning the number of removed documents.
func (s *storage) remove(keys map[string]struct{}) int {
	var n int

	for k := range keys {
		if _, ok := s.docs[k]; ok {
			delete(s.docs, k)
			n++
		}
	}

	if n > 0 {
		s.keys = slices.DeleteFunc(s.keys, func(k string) bool {
			_, ok := keys[k]
			return ok
		})
	}

	return n
}

// check interfaces
var (
	_ backends.Backend = (*backend)(nil)
)
