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

package iterator

// ForSlice returns an iterator over slice elements with their indexes as keys.
//
// It is not safe for concurrent use.
func ForSlice[V any](s []V) Interface[int, V] {
	return &sliceIterator[V]{s: s}
}

// sliceIterator implements Interface for slices.
type sliceIterator[V any] struct {
	s []V
	n int
}

// Next implements Interface.
func (iter *sliceIterator[V]) Next() (int, V, error) {
	if iter.n >= len(iter.s) {
		var zero V
		return 0, zero, ErrIteratorDone
	}

	n := iter.n
	iter.n++

	return n, iter.s[n], nil
}

// Close implements Interface.
func (iter *sliceIterator[V]) Close() {
	iter.n = len(iter.s)
}

// Values returns an iterator that drops the keys of iter.
//
// Closing it closes iter.
func Values[K, V any](iter Interface[K, V]) Interface[struct{}, V] {
	next := func() (struct{}, V, error) {
		_, v, err := iter.Next()
		return struct{}{}, v, err
	}

	return ForFunc(next, iter.Close)
}

// check interfaces
var (
	_ Interface[int, any] = (*sliceIterator[any])(nil)
)
