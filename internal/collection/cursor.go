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

package collection

import (
	"sync"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/codec"
	"github.com/FerretDB/bobject/internal/util/iterator"
)

// Cursor iterates over decoded entities.
//
// Keys are zero-based entity positions.
// A decoding error is returned by Next; iteration may continue after it.
type Cursor[E any] struct {
	m    sync.Mutex
	iter backends.DocumentsIterator
	dec  codec.Codec[E]
	n    int
}

// newCursor returns a new cursor decoding documents of iter.
func newCursor[E any](iter backends.DocumentsIterator, dec codec.Codec[E]) *Cursor[E] {
	return &Cursor[E]{
		iter: iter,
		dec:  dec,
	}
}

// Next implements iterator.Interface.
func (c *Cursor[E]) Next() (int, E, error) {
	c.m.Lock()
	defer c.m.Unlock()

	var zero E

	_, doc, err := c.iter.Next()
	if err != nil {
		return 0, zero, err
	}

	n := c.n
	c.n++

	e, err := c.dec.Decode(doc)
	if err != nil {
		return n, zero, err
	}

	return n, e, nil
}

// Close implements iterator.Interface.
func (c *Cursor[E]) Close() {
	c.m.Lock()
	defer c.m.Unlock()

	c.iter.Close()
}

// All reads all remaining entities and closes the cursor.
func (c *Cursor[E]) All() ([]E, error) {
	return iterator.ConsumeValues[int, E](c)
}

// check interfaces
var (
	_ iterator.Interface[int, struct{}] = (*Cursor[struct{}])(nil)
)
