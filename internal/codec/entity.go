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

package codec

import (
	"errors"
	"fmt"
	"reflect"

	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// IDField is the name of the document identity field.
const IDField = "_id"

// ErrNoIDField is returned by NewEntity when no required _id field is declared.
var ErrNoIDField = errors.New("entity has no required _id field")

// fieldMode defines how a field handles missing and empty values.
type fieldMode int

const (
	required fieldMode = iota
	optional
	omitEmpty
)

// Field describes a single entity field.
//
// Use Required, Optional, and OmitEmpty to create fields.
type Field[E any] interface {
	// Name returns the document field name.
	Name() string

	encode(e *E, b *types.DocumentBuilder) error
	decode(e *E, doc *types.Document) error
	mode() fieldMode
}

// field implements Field for a given Go field type.
type field[E, T any] struct {
	name  string
	ptr   func(*E) *T
	c     Codec[T]
	fmode fieldMode
}

// Required returns a field that must be present in decoded documents.
//
// ptr returns a pointer to the Go field of the given entity.
func Required[E, T any](name string, ptr func(*E) *T, c Codec[T]) Field[E] {
	return &field[E, T]{name: name, ptr: ptr, c: c, fmode: required}
}

// Optional returns a field that is left with a zero value when missing or Null in decoded documents.
func Optional[E, T any](name string, ptr func(*E) *T, c Codec[T]) Field[E] {
	return &field[E, T]{name: name, ptr: ptr, c: c, fmode: optional}
}

// OmitEmpty is like Optional, but the field is not encoded when it has a zero value.
func OmitEmpty[E, T any](name string, ptr func(*E) *T, c Codec[T]) Field[E] {
	return &field[E, T]{name: name, ptr: ptr, c: c, fmode: omitEmpty}
}

// Name implements Field.
func (f *field[E, T]) Name() string {
	return f.name
}

// mode implements Field.
func (f *field[E, T]) mode() fieldMode {
	return f.fmode
}

// encode implements Field.
func (f *field[E, T]) encode(e *E, b *types.DocumentBuilder) error {
	p := f.ptr(e)

	if f.fmode == omitEmpty {
		if rv := reflect.ValueOf(*p); !rv.IsValid() || rv.IsZero() {
			return nil
		}
	}

	v, err := f.c.Encode(*p)
	if err != nil {
		return withPath(f.name, err)
	}

	b.Add(f.name, v)

	return nil
}

// decode implements Field.
func (f *field[E, T]) decode(e *E, doc *types.Document) error {
	v, ok := doc.Get(f.name)

	if f.fmode != required && (!ok || v == types.Null) {
		return nil
	}

	if !ok {
		return &ConversionError{Path: f.name, Err: ErrMissingField}
	}

	d, err := f.c.Decode(v)
	if err != nil {
		return withPath(f.name, err)
	}

	*f.ptr(e) = d

	return nil
}

// Entity is a codec for a struct type E composed of field codecs.
//
// The _id field is always encoded first, other fields in declaration order.
// Unknown document fields are ignored by Decode.
type Entity[E any] struct {
	typ    string
	fields []Field[E]
}

// NewEntity returns a new entity codec for the given fields.
//
// It returns ErrNoIDField if no required _id field is declared,
// and an error for empty or duplicate field names.
func NewEntity[E any](fields ...Field[E]) (*Entity[E], error) {
	return newEntity(true, fields)
}

// NewEmbedded returns a new codec for a struct type E embedded into entities.
//
// It is like NewEntity but does not require the _id field.
func NewEmbedded[E any](fields ...Field[E]) (*Entity[E], error) {
	return newEntity(false, fields)
}

// newEntity returns a new entity codec, optionally requiring the _id field.
func newEntity[E any](requireID bool, fields []Field[E]) (*Entity[E], error) {
	typ := reflect.TypeFor[E]().String()

	res := &Entity[E]{
		typ:    typ,
		fields: make([]Field[E], 0, len(fields)),
	}

	seen := make(map[string]struct{}, len(fields))
	var hasID bool

	for _, f := range fields {
		name := f.Name()

		if name == "" {
			return nil, lazyerrors.Errorf("%s: empty field name", typ)
		}

		if _, ok := seen[name]; ok {
			return nil, lazyerrors.Errorf("%s: duplicate field name %q", typ, name)
		}

		seen[name] = struct{}{}

		if name == IDField {
			if requireID && f.mode() != required {
				return nil, fmt.Errorf("%s: %w", typ, ErrNoIDField)
			}

			hasID = true
			res.fields = append([]Field[E]{f}, res.fields...)

			continue
		}

		res.fields = append(res.fields, f)
	}

	if requireID && !hasID {
		return nil, fmt.Errorf("%s: %w", typ, ErrNoIDField)
	}

	return res, nil
}

// Fields returns document field names in encoding order.
func (ent *Entity[E]) Fields() []string {
	res := make([]string, len(ent.fields))
	for i, f := range ent.fields {
		res[i] = f.Name()
	}

	return res
}

// Encode implements Codec.
func (ent *Entity[E]) Encode(e E) (types.Value, error) {
	b := types.NewDocumentBuilder(len(ent.fields))

	for _, f := range ent.fields {
		if err := f.encode(&e, b); err != nil {
			return nil, err
		}
	}

	return b.Build(), nil
}

// Decode implements Codec.
//
// All failing fields are reported in a single *EntityDecodeError.
func (ent *Entity[E]) Decode(v types.Value) (E, error) {
	var res E

	doc, ok := v.(*types.Document)
	if !ok {
		return res, mismatch("object", v)
	}

	var errs []*ConversionError

	for _, f := range ent.fields {
		if err := f.decode(&res, doc); err != nil {
			var ute *UnregisteredTypeError
			if errors.As(err, &ute) {
				var zero E
				return zero, err
			}

			errs = append(errs, prefixErrors("", err)...)
		}
	}

	if len(errs) > 0 {
		var zero E
		return zero, &EntityDecodeError{Type: ent.typ, Errors: errs}
	}

	return res, nil
}

// check interfaces
var (
	_ Codec[struct{}] = (*Entity[struct{}])(nil)
)
