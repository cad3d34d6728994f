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

// Package codec converts between document values and typed Go values ("entities").
//
// A Codec is a pair of pure functions: Encode converts a Go value to types.Value,
// Decode converts it back. Codecs are stateless and safe for concurrent use.
// Codecs for scalars are provided by this package,
// codecs for composite types are built with combinators (SliceOf, MapOf, Pointer)
// and NewEntity.
//
// Registry maps exact Go types to codecs.
// It is constructed explicitly and passed by reference; there is no global registry.
package codec

import (
	"errors"
	"fmt"
	"strings"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/types"
)

// Codec converts values of type T to and from document values.
type Codec[T any] interface {
	Encode(v T) (types.Value, error)
	Decode(v types.Value) (T, error)
}

// funcCodec is a Codec implemented by a pair of functions.
type funcCodec[T any] struct {
	enc func(T) (types.Value, error)
	dec func(types.Value) (T, error)
}

// New returns a new codec for the given encode and decode functions.
//
// Both functions must be pure.
func New[T any](enc func(T) (types.Value, error), dec func(types.Value) (T, error)) Codec[T] {
	if enc == nil || dec == nil {
		panic("codec.New: nil function")
	}

	return &funcCodec[T]{enc: enc, dec: dec}
}

// Encode implements Codec.
func (c *funcCodec[T]) Encode(v T) (types.Value, error) {
	return c.enc(v)
}

// Decode implements Codec.
func (c *funcCodec[T]) Decode(v types.Value) (T, error) {
	return c.dec(v)
}

// ErrMissingField is wrapped by ConversionError for required fields absent from the document.
var ErrMissingField = errors.New("required field is missing")

// ConversionError represents a failure to convert a single value at the given path.
type ConversionError struct {
	Path string // dot-separated; empty for the value itself
	Err  error
}

// Error implements error interface.
func (e *ConversionError) Error() string {
	if e.Path == "" {
		return "ConversionError: " + e.Err.Error()
	}

	return "ConversionError: " + e.Path + ": " + e.Err.Error()
}

// Code implements commonerrors.Coder interface.
func (e *ConversionError) Code() commonerrors.ErrorCode {
	return commonerrors.ErrConversion
}

// Unwrap returns the underlying error.
func (e *ConversionError) Unwrap() error {
	return e.Err
}

// EntityDecodeError aggregates all field failures of a single entity decode.
type EntityDecodeError struct {
	Type   string
	Errors []*ConversionError
}

// Error implements error interface.
func (e *EntityDecodeError) Error() string {
	msgs := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		msgs[i] = strings.TrimPrefix(ce.Error(), "ConversionError: ")
	}

	return fmt.Sprintf("EntityDecodeError: %s: %s", e.Type, strings.Join(msgs, "; "))
}

// Code implements commonerrors.Coder interface.
func (e *EntityDecodeError) Code() commonerrors.ErrorCode {
	return commonerrors.ErrConversion
}

// Unwrap returns all field errors.
func (e *EntityDecodeError) Unwrap() []error {
	res := make([]error, len(e.Errors))
	for i, ce := range e.Errors {
		res[i] = ce
	}

	return res
}

// Paths returns paths of all failed fields.
func (e *EntityDecodeError) Paths() []string {
	res := make([]string, len(e.Errors))
	for i, ce := range e.Errors {
		res[i] = ce.Path
	}

	return res
}

// conversionErrorf returns a new ConversionError for the value itself.
func conversionErrorf(format string, a ...any) error {
	return &ConversionError{Err: fmt.Errorf(format, a...)}
}

// mismatch returns a ConversionError for an unexpected value type.
func mismatch(expected string, v types.Value) error {
	if v == nil {
		return conversionErrorf("expected %s, got nothing", expected)
	}

	return conversionErrorf("expected %s, got %s", expected, types.TypeOf(v))
}

// joinPath joins path elements, skipping empty ones.
func joinPath(prefix, p string) string {
	switch {
	case prefix == "":
		return p
	case p == "":
		return prefix
	default:
		return prefix + "." + p
	}
}

// prefixErrors returns conversion errors of err with paths prefixed.
//
// Other errors are wrapped into a ConversionError at the prefix.
func prefixErrors(prefix string, err error) []*ConversionError {
	var ede *EntityDecodeError
	if errors.As(err, &ede) {
		res := make([]*ConversionError, len(ede.Errors))
		for i, ce := range ede.Errors {
			res[i] = &ConversionError{Path: joinPath(prefix, ce.Path), Err: ce.Err}
		}

		return res
	}

	var ce *ConversionError
	if errors.As(err, &ce) {
		return []*ConversionError{{Path: joinPath(prefix, ce.Path), Err: ce.Err}}
	}

	return []*ConversionError{{Path: prefix, Err: err}}
}

// withPath returns err with paths prefixed, keeping its kind.
//
// *UnregisteredTypeError is returned unchanged.
func withPath(prefix string, err error) error {
	var ute *UnregisteredTypeError
	if errors.As(err, &ute) {
		return err
	}

	var ede *EntityDecodeError
	if errors.As(err, &ede) {
		return &EntityDecodeError{Type: ede.Type, Errors: prefixErrors(prefix, err)}
	}

	return prefixErrors(prefix, err)[0]
}

// check interfaces
var (
	_ commonerrors.Coder = (*ConversionError)(nil)
	_ commonerrors.Coder = (*EntityDecodeError)(nil)
)
