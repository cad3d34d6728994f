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
	"fmt"
	"reflect"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/extjson"
	"github.com/FerretDB/bobject/internal/jsonparse"
	"github.com/FerretDB/bobject/internal/jsontree"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/lazyerrors"
	"github.com/FerretDB/bobject/internal/util/must"
)

// UnregisteredTypeError is returned when no codec is registered for a type.
type UnregisteredTypeError struct {
	Type reflect.Type
}

// Error implements error interface.
func (e *UnregisteredTypeError) Error() string {
	return fmt.Sprintf("UnregisteredType: no codec registered for %s", e.Type)
}

// Code implements commonerrors.Coder interface.
func (e *UnregisteredTypeError) Code() commonerrors.ErrorCode {
	return commonerrors.ErrUnregisteredType
}

// Registry maps exact Go types to codecs.
//
// It is safe for concurrent use.
// Registrations are usually done once during initialization.
type Registry struct {
	l *zap.Logger

	rw     sync.RWMutex
	codecs map[reflect.Type]any // Codec[T] for T
}

// NewRegistry returns a new empty registry.
func NewRegistry(l *zap.Logger) *Registry {
	if l == nil {
		l = zap.NewNop()
	}

	return &Registry{
		l:      l,
		codecs: map[reflect.Type]any{},
	}
}

// Register adds a codec for type T.
//
// It returns an error if a codec for T is already registered.
func Register[T any](r *Registry, c Codec[T]) error {
	if c == nil {
		panic("codec.Register: nil codec")
	}

	t := reflect.TypeFor[T]()

	r.rw.Lock()
	defer r.rw.Unlock()

	if _, ok := r.codecs[t]; ok {
		return lazyerrors.Errorf("codec for %s is already registered", t)
	}

	r.codecs[t] = c

	r.l.Debug("Codec registered", zap.Stringer("type", t))

	return nil
}

// MustRegister is like Register but panics on error.
func MustRegister[T any](r *Registry, c Codec[T]) {
	must.NoError(Register(r, c))
}

// Lookup returns a codec for exactly type T.
//
// It returns *UnregisteredTypeError if there is none.
func Lookup[T any](r *Registry) (Codec[T], error) {
	t := reflect.TypeFor[T]()

	r.rw.RLock()
	c, ok := r.codecs[t]
	r.rw.RUnlock()

	if !ok {
		return nil, &UnregisteredTypeError{Type: t}
	}

	return c.(Codec[T]), nil
}

// Registered returns a codec that looks up the codec for T at each use.
//
// It allows building codecs for types that reference each other
// before all of them are registered.
// Using it fails with *UnregisteredTypeError if there is still no codec for T.
func Registered[T any](r *Registry) Codec[T] {
	return New(
		func(v T) (types.Value, error) {
			c, err := Lookup[T](r)
			if err != nil {
				return nil, err
			}

			return c.Encode(v)
		},
		func(v types.Value) (T, error) {
			c, err := Lookup[T](r)
			if err != nil {
				var zero T
				return zero, err
			}

			return c.Decode(v)
		},
	)
}

// Encode converts v to a document value using the registered codec.
func Encode[T any](r *Registry, v T) (types.Value, error) {
	c, err := Lookup[T](r)
	if err != nil {
		return nil, err
	}

	return c.Encode(v)
}

// Decode converts a document value to T using the registered codec.
func Decode[T any](r *Registry, v types.Value) (T, error) {
	c, err := Lookup[T](r)
	if err != nil {
		var zero T
		return zero, err
	}

	return c.Decode(v)
}

// EncodeTree converts v to a JSON tree using the registered codec and extended JSON mapping.
func EncodeTree[T any](r *Registry, v T) (jsontree.Value, error) {
	dv, err := Encode(r, v)
	if err != nil {
		return nil, err
	}

	return extjson.ToTree(dv)
}

// DecodeTree converts a JSON tree to T using the extended JSON mapping and the registered codec.
func DecodeTree[T any](r *Registry, t jsontree.Value) (T, error) {
	// fail early and with the right error before conversion
	c, err := Lookup[T](r)
	if err != nil {
		var zero T
		return zero, err
	}

	v, err := extjson.FromTree(t)
	if err != nil {
		var zero T
		return zero, err
	}

	return c.Decode(v)
}

// EncodeJSON returns extended JSON text for v.
func EncodeJSON[T any](r *Registry, v T) ([]byte, error) {
	t, err := EncodeTree(r, v)
	if err != nil {
		return nil, err
	}

	return jsontree.Render(t), nil
}

// DecodeJSON parses extended JSON text and converts it to T.
func DecodeJSON[T any](r *Registry, data []byte, opts *jsonparse.Options) (T, error) {
	t, err := jsonparse.Parse(data, opts)
	if err != nil {
		var zero T
		return zero, err
	}

	return DecodeTree[T](r, t)
}

// Types returns names of all registered types in sorted order.
func (r *Registry) Types() []string {
	r.rw.RLock()
	defer r.rw.RUnlock()

	res := make([]string, 0, len(r.codecs))
	for t := range r.codecs {
		res = append(res, t.String())
	}

	slices.Sort(res)

	return res
}

// RegisterDefaults registers codecs of this package for their Go types.
func RegisterDefaults(r *Registry) error {
	for _, f := range []func() error{
		func() error { return Register(r, Bool) },
		func() error { return Register(r, String) },
		func() error { return Register(r, Float64) },
		func() error { return Register(r, Int32) },
		func() error { return Register(r, Int64) },
		func() error { return Register(r, Integer[int]()) },
		func() error { return Register[time.Time](r, Time) },
		func() error { return Register[types.ObjectID](r, ObjectID) },
		func() error { return Register[types.Binary](r, Binary) },
		func() error { return Register[[]byte](r, Bytes) },
		func() error { return Register[uuid.UUID](r, UUID) },
		func() error { return Register[types.Timestamp](r, Timestamp) },
		func() error { return Register[*types.Document](r, Document) },
		func() error { return Register[types.Value](r, Any) },
	} {
		if err := f(); err != nil {
			return err
		}
	}

	return nil
}

// check interfaces
var (
	_ commonerrors.Coder = (*UnregisteredTypeError)(nil)
)
