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

// Package jsontree provides the JSON tree model: the six shapes of RFC 8259 values.
//
// Unlike the document model in the types package, it can't represent ObjectIDs, binary data,
// dates, or the difference between integer and floating point numbers;
// the extjson package defines the mapping between them.
//
// All values are immutable and safe for concurrent use.
package jsontree

import (
	"fmt"

	"github.com/FerretDB/bobject/internal/util/iterator"
)

// Value represents any JSON value.
//
//go-sumtype:decl Value
type Value interface {
	jsonValue() // seal for go-sumtype
}

type (
	// NullType represents JSON null.
	//
	// Most callers should use the Null value.
	NullType struct{}

	// Bool represents JSON true and false.
	Bool bool

	// String represents JSON string.
	String string
)

// Null represents JSON null.
var Null = NullType{}

func (NullType) jsonValue() {}
func (Bool) jsonValue() {}
func (String) jsonValue() {}
func (Number) jsonValue() {}
func (*Array) jsonValue() {}
func (*Object) jsonValue() {}

// Array represents JSON array.
//
// The zero value is an empty array.
type Array struct {
	s []Value
}

// NewArray returns an array with the given values.
//
// It panics if any value is nil.
func NewArray(values ...Value) *Array {
	for i, v := range values {
		if v == nil {
			panic(fmt.Sprintf("jsontree.NewArray: nil value at index %d", i))
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

// Member is a single object member.
type Member struct {
	Key   string
	Value Value
}

// Object represents JSON object with unique keys in insertion order.
//
// The zero value is an empty object.
type Object struct {
	members []Member
	index   map[string]int
}

// NewObject returns an object with the given members.
// A repeated key overwrites the previous value in its original position.
//
// It panics if any value is nil.
func NewObject(members ...Member) *Object {
	o := &Object{
		members: make([]Member, 0, len(members)),
		index:   make(map[string]int, len(members)),
	}

	for _, m := range members {
		if m.Value == nil {
			panic(fmt.Sprintf("jsontree.NewObject: nil value for %q", m.Key))
		}

		if i, ok := o.index[m.Key]; ok {
			o.members[i].Value = m.Value
			continue
		}

		o.index[m.Key] = len(o.members)
		o.members = append(o.members, m)
	}

	return o
}

// Len returns the number of members.
func (o *Object) Len() int {
	return len(o.members)
}

// Keys returns a copy of keys in order.
func (o *Object) Keys() []string {
	keys := make([]string, len(o.members))
	for i, m := range o.members {
		keys[i] = m.Key
	}

	return keys
}

// Members returns a copy of members in order.
func (o *Object) Members() []Member {
	return append([]Member(nil), o.members...)
}

// Get returns the value for key, or false if it is absent.
func (o *Object) Get(key string) (Value, bool) {
	i, ok := o.index[key]
	if !ok {
		return nil, false
	}

	return o.members[i].Value, true
}

// Has returns true if the key is present.
func (o *Object) Has(key string) bool {
	_, ok := o.index[key]
	return ok
}

// With returns a new object with key set to value.
func (o *Object) With(key string, value Value) *Object {
	return NewObject(append(o.Members(), Member{Key: key, Value: value})...)
}

// Iterator returns an iterator over members in order.
func (o *Object) Iterator() iterator.Interface[string, Value] {
	var n int

	next := func() (string, Value, error) {
		if n >= len(o.members) {
			return "", nil, iterator.ErrIteratorDone
		}

		m := o.members[n]
		n++

		return m.Key, m.Value, nil
	}

	return iterator.ForFunc(next, nil)
}

// check interfaces
var (
	_ Value = Null
	_ Value = Bool(false)
	_ Value = String("")
	_ Value = Number{}
	_ Value = (*Array)(nil)
	_ Value = (*Object)(nil)
)
