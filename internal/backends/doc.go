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

// Package backends provides common interfaces and code for all storage backend implementations.
//
// # Design principles.
//
//  1. Interfaces are relatively high-level and batch-oriented.
//     The collection facade does one backend call per operation.
//     For example, inserting a document calls only
//     `b.Collection("collection").InsertAll(ctx, params)` that creates the collection if needed.
//     There is no separate method to create a collection.
//  2. Backend objects are stateful and should be Close()'d.
//     Collection objects are fully stateless.
//  3. Contexts are per-operation and should not be stored.
//  4. Documents are stored as a whole and identified by the canonical form of their _id values;
//     see IDKey. Filtering beyond _id is done by the caller.
//  5. Errors returned by methods could be nil, *Error, or some other opaque error type.
//     *Error values can't be wrapped or be present anywhere in the error chain.
//     Contracts enforce *Error codes; they are not documented in the code comments
//     but are visible in the contract's code (to avoid duplication).
package backends
