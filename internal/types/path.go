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
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// ErrBadSelector is returned for malformed paths (selectors).
var ErrBadSelector = errors.New("bad selector")

// Path represents a dot-separated path to a nested value, such as "a.b.0".
//
// Array elements are addressed by decimal indexes.
type Path struct {
	e []string
}

// NewPath parses a dot-separated path.
//
// It returns an error wrapping ErrBadSelector for an empty path or a path with empty elements.
func NewPath(s string) (Path, error) {
	if s == "" {
		return Path{}, fmt.Errorf("%w: empty path", ErrBadSelector)
	}

	return NewPathFromElements(strings.Split(s, ".")...)
}

// NewPathFromElements returns a path with the given elements.
//
// It returns an error wrapping ErrBadSelector if there are no elements or any element is empty.
func NewPathFromElements(elements ...string) (Path, error) {
	if len(elements) == 0 {
		return Path{}, fmt.Errorf("%w: empty path", ErrBadSelector)
	}

	for i, e := range elements {
		if e == "" {
			return Path{}, fmt.Errorf("%w: path %q has empty element at position %d",
				ErrBadSelector, strings.Join(elements, "."), i)
		}
	}

	return Path{e: append([]string(nil), elements...)}, nil
}

// NewStaticPath is a variant of NewPathFromElements that panics on errors.
func NewStaticPath(elements ...string) Path {
	p, err := NewPathFromElements(elements...)
	if err != nil {
		panic(err)
	}

	return p
}

// String returns a dot-separated path.
func (p Path) String() string {
	return strings.Join(p.e, ".")
}

// Len returns the number of elements.
func (p Path) Len() int {
	return len(p.e)
}

// Slice returns a copy of path elements.
func (p Path) Slice() []string {
	return append([]string(nil), p.e...)
}

// Prefix returns the first element.
func (p Path) Prefix() string {
	return p.e[0]
}

// Suffix returns the last element.
func (p Path) Suffix() string {
	return p.e[len(p.e)-1]
}

// TrimPrefix returns a path without the first element.
//
// It panics for paths with less than two elements.
func (p Path) TrimPrefix() Path {
	if len(p.e) < 2 {
		panic("types.Path.TrimPrefix: path is too short")
	}

	return Path{e: p.e[1:]}
}

// Append returns a new path with elements added at the end.
func (p Path) Append(elements ...string) (Path, error) {
	return NewPathFromElements(append(p.Slice(), elements...)...)
}

// arrayIndex parses array index path element.
func arrayIndex(e string) (int, bool) {
	if e == "" || (len(e) > 1 && e[0] == '0') {
		return 0, false
	}

	i, err := strconv.Atoi(e)
	if err != nil || i < 0 {
		return 0, false
	}

	return i, true
}

// getByPath returns a nested value of v by path elements.
func getByPath(v Value, elements []string) (Value, bool) {
	for _, e := range elements {
		switch c := v.(type) {
		case *Document:
			var ok bool
			if v, ok = c.Get(e); !ok {
				return nil, false
			}

		case *Array:
			i, ok := arrayIndex(e)
			if !ok {
				return nil, false
			}

			if v, ok = c.Get(i); !ok {
				return nil, false
			}

		default:
			return nil, false
		}
	}

	return v, true
}

// withByPath returns a copy of v with the nested value at elements replaced or added.
func withByPath(v Value, elements []string, nv Value) (Value, error) {
	e, rest := elements[0], elements[1:]

	switch c := v.(type) {
	case *Document:
		if len(rest) == 0 {
			return c.With(e, nv), nil
		}

		child, ok := c.Get(e)
		if !ok {
			child = new(Document)
		}

		child, err := withByPath(child, rest, nv)
		if err != nil {
			return nil, err
		}

		return c.With(e, child), nil

	case *Array:
		i, ok := arrayIndex(e)
		if !ok || i > c.Len() {
			return nil, lazyerrors.Errorf("types.withByPath: invalid array index %q for array of length %d", e, c.Len())
		}

		if len(rest) == 0 {
			return c.with(i, nv), nil
		}

		child, ok := c.Get(i)
		if !ok {
			child = new(Document)
		}

		child, err := withByPath(child, rest, nv)
		if err != nil {
			return nil, err
		}

		return c.with(i, child), nil

	default:
		return nil, lazyerrors.Errorf("types.withByPath: can't set %q inside %s", e, TypeOf(v))
	}
}
