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

package types

import (
	"fmt"
	"log/slog"

	"github.com/FerretDB/bobject/internal/util/iterator"
)

// Array represents BSON array: an ordered sequence of values.
//
// Arrays are immutable. The zero value is an empty array.
type Array struct {
	s []Value
}

// NewArray returns an array with the given values.
//
// It panics if any value is nil.
func NewArray(values ...Value) *Array {
	for i, v := range values {
		if v == nil {
			panic(fmt.Sprintf("types.NewArray: nil value at index %d", i))
		}
	}

	return &Array{s: append([]Value(nil), values...)}
}

// Len returns the number of elements.
func (a *Array) Len() int {
	return len(a.s)
}

// Get returns the element at index i, or false if i is out of range.
func (a *Array) Get(i int) (Value, bool) {
	if i < 0 || i >= len(a.s) {
		return nil, false
	}

	return a.s[i], true
}

// Values returns a copy of array elements.
func (a *Array) Values() []Value {
	return append([]Value(nil), a.s...)
}

// Append returns a new array with values added at the end.
func (a *Array) Append(values ...Value) *Array {
	return NewArray(append(a.Values(), values...)...)
}

// with returns a new array with element i replaced, or appended if i equals Len.
func (a *Array) with(i int, v Value) *Array {
	s := a.Values()

	if i == len(s) {
		s = append(s, v)
	} else {
		s[i] = v
	}

	return &Array{s: s}
}

// Iterator returns an iterator over array elements with indexes as keys.
func (a *Array) Iterator() iterator.Interface[int, Value] {
	return iterator.ForSlice(a.s)
}

// LogValue implements slog.LogValuer.
func (a *Array) LogValue() slog.Value {
	return slogValue(a, 1)
}

// check interfaces
var (
	_ slog.LogValuer = (*Array)(nil)
)
