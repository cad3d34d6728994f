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
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// field represents a single Document field.
type field struct {
	value Value
	key   string
}

// Document represents BSON document: an ordered collection of fields with unique keys.
//
// Documents are immutable. The zero value is an empty document.
type Document struct {
	fields []field
	index  map[string]int // key -> position in fields
}

// NewDocument creates a document with the given key/value pairs.
//
// A repeated key overwrites the previous value and keeps its position.
func NewDocument(pairs ...any) (*Document, error) {
	l := len(pairs)
	if l%2 != 0 {
		return nil, lazyerrors.Errorf("types.NewDocument: invalid number of arguments: %d", l)
	}

	b := NewDocumentBuilder(l / 2)

	for i := 0; i < l; i += 2 {
		key, ok := pairs[i].(string)
		if !ok {
			return nil, lazyerrors.Errorf("types.NewDocument: invalid key type: %T", pairs[i])
		}

		value, ok := pairs[i+1].(Value)
		if !ok || value == nil {
			return nil, lazyerrors.Errorf("types.NewDocument: invalid value type for %q: %T", key, pairs[i+1])
		}

		b.Add(key, value)
	}

	return b.Build(), nil
}

// DocumentBuilder accumulates fields for a new Document.
//
// The zero value is ready to use.
type DocumentBuilder struct {
	d *Document
}

// NewDocumentBuilder returns a builder with space for the given number of fields.
func NewDocumentBuilder(capacity int) *DocumentBuilder {
	return &DocumentBuilder{
		d: &Document{
			fields: make([]field, 0, capacity),
			index:  make(map[string]int, capacity),
		},
	}
}

// Add sets the value for key.
// If the key was already added, its value is replaced in the original position.
//
// It panics if value is nil.
func (b *DocumentBuilder) Add(key string, value Value) {
	if value == nil {
		panic(fmt.Sprintf("types.DocumentBuilder.Add: nil value for %q", key))
	}

	if b.d == nil {
		b.d = &Document{index: make(map[string]int)}
	}

	if i, ok := b.d.index[key]; ok {
		b.d.fields[i].value = value
		return
	}

	b.d.index[key] = len(b.d.fields)
	b.d.fields = append(b.d.fields, field{key: key, value: value})
}

// Has returns true if key was added.
func (b *DocumentBuilder) Has(key string) bool {
	if b.d == nil {
		return false
	}

	_, ok := b.d.index[key]

	return ok
}

// Len returns the number of added fields.
func (b *DocumentBuilder) Len() int {
	if b.d == nil {
		return 0
	}

	return len(b.d.fields)
}

// Build returns the document and resets the builder.
func (b *DocumentBuilder) Build() *Document {
	d := b.d
	b.d = nil

	if d == nil {
		d = new(Document)
	}

	return d
}

// Len returns the number of fields.
func (d *Document) Len() int {
	return len(d.fields)
}

// Keys returns a copy of document keys in order.
func (d *Document) Keys() []string {
	keys := make([]string, len(d.fields))
	for i, f := range d.fields {
		keys[i] = f.key
	}

	return keys
}

// Values returns a copy of document values in order.
func (d *Document) Values() []Value {
	values := make([]Value, len(d.fields))
	for i, f := range d.fields {
		values[i] = f.value
	}

	return values
}

// Get returns the value for key, or false if it is absent.
func (d *Document) Get(key string) (Value, bool) {
	i, ok := d.index[key]
	if !ok {
		return nil, false
	}

	return d.fields[i].value, true
}

// Has returns true if the key is present.
func (d *Document) Has(key string) bool {
	_, ok := d.index[key]
	return ok
}

// With returns a new document with key set to value.
// An existing key keeps its position; a new one is added at the end.
//
// It panics if value is nil.
func (d *Document) With(key string, value Value) *Document {
	if value == nil {
		panic(fmt.Sprintf("types.Document.With: nil value for %q", key))
	}

	b := NewDocumentBuilder(len(d.fields) + 1)
	for _, f := range d.fields {
		b.Add(f.key, f.value)
	}

	b.Add(key, value)

	return b.Build()
}

// Without returns a document without the given key.
// The receiver is returned as is when the key is absent.
func (d *Document) Without(key string) *Document {
	if !d.Has(key) {
		return d
	}

	b := NewDocumentBuilder(len(d.fields) - 1)

	for _, f := range d.fields {
		if f.key != key {
			b.Add(f.key, f.value)
		}
	}

	return b.Build()
}

// Iterator returns an iterator over document fields in order.
func (d *Document) Iterator() iterator.Interface[string, Value] {
	var n int

	next := func() (string, Value, error) {
		if n >= len(d.fields) {
			return "", nil, iterator.ErrIteratorDone
		}

		f := d.fields[n]
		n++

		return f.key, f.value, nil
	}

	return iterator.ForFunc(next, nil)
}

// GetByPath returns the nested value at path, or false if it is absent.
func (d *Document) GetByPath(path Path) (Value, bool) {
	return getByPath(d, path.e)
}

// WithByPath returns a new document with the nested value at path set to value.
// Missing intermediate documents are created;
// array elements can be replaced, or added right after the last one.
func (d *Document) WithByPath(path Path, value Value) (*Document, error) {
	if path.Len() == 0 {
		return nil, lazyerrors.Errorf("types.Document.WithByPath: %w", ErrBadSelector)
	}

	res, err := withByPath(d, path.e, value)
	if err != nil {
		return nil, lazyerrors.Error(err)
	}

	return res.(*Document), nil
}

// LogValue implements slog.LogValuer.
func (d *Document) LogValue() slog.Value {
	return slogValue(d, 1)
}

// check interfaces
var (
	_ slog.LogValuer = (*Document)(nil)
)
