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

// Package iterator defines the pull-style iterator used across bobject:
// tokenizers, document fields, backend query results and collection cursors.
package iterator

import "errors"

// ErrIteratorDone is returned by Next when the iterator is exhausted or closed.
var ErrIteratorDone = errors.New("iterator is read to the end")

// Interface is a generic pull iterator.
//
// Next returns the next key/value pair. The key meaning depends on the implementation:
// token or element index, document field name, etc.
// When the iterator is exhausted or closed, Next returns (possibly wrapped) ErrIteratorDone.
// Other errors are fatal; the iterator should be closed and not used after that.
//
// Close releases resources. It is safe to call it multiple times.
type Interface[K, V any] interface {
	Next() (K, V, error)
	Close()
}

// NextFunc is the signature of a Next method.
type NextFunc[K, V any] func() (K, V, error)

// ForFunc returns an iterator calling next until it returns an error.
//
// Close calls close (if not nil) once; after that, Next returns ErrIteratorDone without calling next.
func ForFunc[K, V any](next NextFunc[K, V], close func()) Interface[K, V] {
	return &funcIterator[K, V]{f: next, close: close}
}

// funcIterator implements Interface for NextFunc.
type funcIterator[K, V any] struct {
	f     NextFunc[K, V]
	close func()
}

// Next implements Interface.
func (iter *funcIterator[K, V]) Next() (K, V, error) {
	if iter.f == nil {
		var k K
		var v V

		return k, v, ErrIteratorDone
	}

	return iter.f()
}

// Close implements Interface.
func (iter *funcIterator[K, V]) Close() {
	iter.f = nil

	if c := iter.close; c != nil {
		iter.close = nil
		c()
	}
}

// check interfaces
var (
	_ Interface[int, any] = (*funcIterator[int, any])(nil)
)
