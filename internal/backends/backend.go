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

package backends

import (
	"cmp"
	"context"
	"slices"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/FerretDB/bobject/internal/util/observability"
	"github.com/FerretDB/bobject/internal/util/resource"
)

// Backend is a generic interface for all backends for accessing them.
//
// Backend object is expected to be stateful and wrap database connection(s).
//
// Backend methods can be called by multiple goroutines concurrently.
// They should be thread-safe.
//
// See backendContract and its methods for additional details.
type Backend interface {
	Close()
	Collection(string) (Collection, error)
	ListCollections(context.Context, *ListCollectionsParams) (*ListCollectionsResult, error)
	DropCollection(context.Context, *DropCollectionParams) error

	// There is no interface method to create a collection; see package documentation.

	prometheus.Collector
}

// backendContract implements Backend interface.
type backendContract struct {
	b     Backend
	token *resource.Token
}

// BackendContract wraps Backend and enforces its contract.
//
// All backend implementations should use that function when they create new Backend instances.
// The collection facade should not use that function.
//
// See backendContract and its methods for additional details.
func BackendContract(b Backend) Backend {
	bc := &backendContract{
		b:     b,
		token: resource.NewToken(),
	}
	resource.Track(bc, bc.token)

	return bc
}

// Close closes all database connections and frees all resources associated with the backend.
func (bc *backendContract) Close() {
	bc.b.Close()

	resource.Untrack(bc, bc.token)
}

// Collection returns a Collection instance for the given valid name.
//
// The collection does not need to exist.
func (bc *backendContract) Collection(name string) (Collection, error) {
	var res Collection

	err := validateCollectionName(name)
	if err == nil {
		res, err = bc.b.Collection(name)
	}

	checkError(err, ErrorCodeCollectionNameIsInvalid)

	if err != nil {
		return nil, err
	}

	return newCollectionContract(res), nil
}

// ListCollectionsParams represents the parameters of Backend.ListCollections method.
type ListCollectionsParams struct{}

// ListCollectionsResult represents the results of Backend.ListCollections method.
type ListCollectionsResult struct {
	Collections []CollectionInfo
}

// CollectionInfo represents information about a single collection.
type CollectionInfo struct {
	Name string
}

// ListCollections returns existing collections sorted by name.
func (bc *backendContract) ListCollections(ctx context.Context, params *ListCollectionsParams) (*ListCollectionsResult, error) {
	defer observability.FuncCall(ctx)()

	res, err := bc.b.ListCollections(ctx, params)
	checkError(err)

	if res != nil {
		slices.SortFunc(res.Collections, func(a, b CollectionInfo) int {
			return cmp.Compare(a.Name, b.Name)
		})
	}

	return res, err
}

// DropCollectionParams represents the parameters of Backend.DropCollection method.
type DropCollectionParams struct {
	Name string
}

// DropCollection drops existing collection with all documents.
func (bc *backendContract) DropCollection(ctx context.Context, params *DropCollectionParams) error {
	defer observability.FuncCall(ctx)()

	err := validateCollectionName(params.Name)
	if err == nil {
		err = bc.b.DropCollection(ctx, params)
	}

	checkError(err, ErrorCodeCollectionNameIsInvalid, ErrorCodeCollectionDoesNotExist)

	return err
}

// Describe implements prometheus.Collector.
func (bc *backendContract) Describe(ch chan<- *prometheus.Desc) {
	bc.b.Describe(ch)
}

// Collect implements prometheus.Collector.
func (bc *backendContract) Collect(ch chan<- prometheus.Metric) {
	bc.b.Collect(ch)
}

// check interfaces
var (
	_ Backend = (*backendContract)(nil)
)
