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
	"context"

	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/iterator"
	"github.com/FerretDB/bobject/internal/util/observability"
)

// DocumentsIterator iterates over stored documents.
type DocumentsIterator = iterator.Interface[struct{}, *types.Document]

// Collection is a generic interface for all backends for accessing collection.
//
// Collection object should be stateless and cheap to create.
// Collection methods can be called by multiple goroutines concurrently.
//
// See collectionContract and its methods for additional details.
type Collection interface {
	Query(context.Context, *QueryParams) (*QueryResult, error)
	InsertAll(context.Context, *InsertAllParams) (*InsertAllResult, error)
	ReplaceAll(context.Context, *ReplaceAllParams) (*ReplaceAllResult, error)
	DeleteAll(context.Context, *DeleteAllParams) (*DeleteAllResult, error)
}

// collectionContract implements Collection interface.
type collectionContract struct {
	c Collection
}

// newCollectionContract wraps Collection and enforces its contract.
//
// See collectionContract and its methods for additional details.
func newCollectionContract(c Collection) Collection {
	return &collectionContract{
		c: c,
	}
}

// QueryParams represents the parameters of Collection.Query method.
type QueryParams struct {
	// ID, if not nil, restricts results to the document with that _id.
	// Other filtering is done by the caller.
	ID types.Value
}

// QueryResult represents the results of Collection.Query method.
type QueryResult struct {
	Iter DocumentsIterator
}

// Query executes a query against the collection.
//
// If the collection does not exist, it returns an empty iterator.
// Documents are returned in insertion order;
// replaced documents keep their position.
//
// The passed context should be used for canceling the initial query.
// It also could be used to close the returned iterator and free underlying resources,
// but that's not required - the caller should close the iterator.
func (cc *collectionContract) Query(ctx context.Context, params *QueryParams) (*QueryResult, error) {
	defer observability.FuncCall(ctx)()

	if params == nil {
		params = new(QueryParams)
	}

	var res *QueryResult
	var err error

	if params.ID != nil {
		_, err = IDKey(params.ID)
		if err != nil {
			err = NewError(ErrorCodeDocumentIDIsInvalid, err)
		}
	}

	if err == nil {
		res, err = cc.c.Query(ctx, params)
	}

	checkError(err, ErrorCodeDocumentIDIsInvalid)

	return res, err
}

// InsertAllParams represents the parameters of Collection.InsertAll method.
type InsertAllParams struct {
	Docs []*types.Document
}

// InsertAllResult represents the results of Collection.InsertAll method.
type InsertAllResult struct{}

// InsertAll inserts all documents into the collection, creating it if needed.
//
// Either all documents are inserted, or none.
// Documents with _id that is already present (including earlier documents in the same call)
// cause ErrorCodeInsertDuplicateID.
func (cc *collectionContract) InsertAll(ctx context.Context, params *InsertAllParams) (*InsertAllResult, error) {
	defer observability.FuncCall(ctx)()

	err := validateDocuments(params.Docs)

	var res *InsertAllResult
	if err == nil {
		res, err = cc.c.InsertAll(ctx, params)
	}

	checkError(err, ErrorCodeDocumentIDIsInvalid, ErrorCodeInsertDuplicateID)

	return res, err
}

// ReplaceAllParams represents the parameters of Collection.ReplaceAll method.
type ReplaceAllParams struct {
	Docs []*types.Document

	// Upsert inserts documents with _id that is not present.
	Upsert bool
}

// ReplaceAllResult represents the results of Collection.ReplaceAll method.
type ReplaceAllResult struct {
	Replaced int
	Inserted int
}

// ReplaceAll replaces documents with the same _id.
//
// Documents that are not present are skipped, or inserted when Upsert is set.
func (cc *collectionContract) ReplaceAll(ctx context.Context, params *ReplaceAllParams) (*ReplaceAllResult, error) {
	defer observability.FuncCall(ctx)()

	err := validateDocuments(params.Docs)

	var res *ReplaceAllResult
	if err == nil {
		res, err = cc.c.ReplaceAll(ctx, params)
	}

	checkError(err, ErrorCodeDocumentIDIsInvalid)

	return res, err
}

// DeleteAllParams represents the parameters of Collection.DeleteAll method.
type DeleteAllParams struct {
	IDs []types.Value
}

// DeleteAllResult represents the results of Collection.DeleteAll method.
type DeleteAllResult struct {
	Deleted int
}

// DeleteAll deletes documents with the given _id values.
//
// Missing documents and a missing collection are not errors.
func (cc *collectionContract) DeleteAll(ctx context.Context, params *DeleteAllParams) (*DeleteAllResult, error) {
	defer observability.FuncCall(ctx)()

	var err error

	for _, id := range params.IDs {
		if _, err = IDKey(id); err != nil {
			err = NewError(ErrorCodeDocumentIDIsInvalid, err)
			break
		}
	}

	var res *DeleteAllResult
	if err == nil {
		res, err = cc.c.DeleteAll(ctx, params)
	}

	checkError(err, ErrorCodeDocumentIDIsInvalid)

	return res, err
}

// validateDocuments checks that all documents have valid _id fields.
func validateDocuments(docs []*types.Document) error {
	for _, doc := range docs {
		if _, _, err := DocumentID(doc); err != nil {
			return err
		}
	}

	return nil
}

// check interfaces
var (
	_ Collection = (*collectionContract)(nil)
)
