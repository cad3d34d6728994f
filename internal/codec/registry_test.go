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
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/jsonparse"
	"github.com/FerretDB/bobject/internal/types"
	"github.com/FerretDB/bobject/internal/util/must"
)

type node struct {
	ID       int
	Children []node
}

func TestRegistry(t *testing.T) {
	t.Parallel()

	r := NewRegistry(zaptest.NewLogger(t))
	require.NoError(t, RegisterDefaults(r))

	assert.Contains(t, r.Types(), "time.Time")
	assert.Contains(t, r.Types(), "types.Value")

	err := Register(r, String)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "codec for string is already registered")

	MustRegister(r, Codec[user](userCodec))

	t.Run("Unregistered", func(t *testing.T) {
		t.Parallel()

		_, err := Lookup[float32](r)
		require.Error(t, err)

		var ute *UnregisteredTypeError
		require.True(t, errors.As(err, &ute))
		assert.Equal(t, "float32", ute.Type.String())
		assert.True(t, commonerrors.Is(err, commonerrors.ErrUnregisteredType))
		assert.EqualError(t, err, "UnregisteredType: no codec registered for float32")

		// exact type identity: a named type is not its underlying type
		type name string
		_, err = Encode(r, name("x"))
		assert.True(t, commonerrors.Is(err, commonerrors.ErrUnregisteredType))

		_, err = DecodeJSON[*user](r, []byte(`{}`), nil)
		assert.True(t, commonerrors.Is(err, commonerrors.ErrUnregisteredType))
	})

	t.Run("JSON", func(t *testing.T) {
		t.Parallel()

		u := user{ID: types.ObjectID{1}, Name: "Ada", Tags: []string{}, Address: address{City: "London"}}

		b, err := EncodeJSON(r, u)
		require.NoError(t, err)

		actual, err := DecodeJSON[user](r, b, nil)
		require.NoError(t, err)
		assert.Equal(t, u, actual)

		_, err = DecodeJSON[user](r, []byte(`{"_id": 1,}`), nil)
		assert.True(t, commonerrors.Is(err, commonerrors.ErrStructural))

		_, err = DecodeJSON[user](r, []byte(`{"_id": 1,}`), &jsonparse.Options{Flavor: jsonparse.Lenient})
		assert.True(t, commonerrors.Is(err, commonerrors.ErrConversion))

		d, err := DecodeJSON[time.Time](r, []byte(`{"$date": "2024-03-01T00:00:00Z"}`), nil)
		require.NoError(t, err)
		assert.Equal(t, time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC), d)

		tree, err := EncodeTree(r, 42)
		require.NoError(t, err)

		i, err := DecodeTree[int](r, tree)
		require.NoError(t, err)
		assert.Equal(t, 42, i)
	})
}

func TestRegistered(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)

	// recursive type: the codec references itself through the registry
	nodeCodec := must.NotFail(NewEntity(
		Required("_id", func(n *node) *int { return &n.ID }, Integer[int]()),
		OmitEmpty("children", func(n *node) *[]node { return &n.Children }, SliceOf(Registered[node](r))),
	))

	n := node{ID: 1, Children: []node{{ID: 2}, {ID: 3, Children: []node{{ID: 4}}}}}

	_, err := nodeCodec.Encode(n)
	assert.True(t, commonerrors.Is(err, commonerrors.ErrUnregisteredType))

	MustRegister(r, Codec[node](nodeCodec))

	b, err := EncodeJSON(r, n)
	require.NoError(t, err)
	assert.Equal(t, `{"_id":1,"children":[{"_id":2},{"_id":3,"children":[{"_id":4}]}]}`, string(b))

	actual, err := DecodeJSON[node](r, b, nil)
	require.NoError(t, err)
	assert.Equal(t, n, actual)

	_, err = DecodeJSON[node](r, []byte(`{"_id":1,"children":[{"_id":2},{"children":[{"_id":"x"}]}]}`), nil)
	require.Error(t, err)

	var ede *EntityDecodeError
	require.True(t, errors.As(err, &ede))
	assert.Equal(t, []string{"children.1._id", "children.1.children.0._id"}, ede.Paths())
}

func TestRegistryConcurrency(t *testing.T) {
	t.Parallel()

	r := NewRegistry(nil)

	var wg sync.WaitGroup

	for i := 0; i < 10; i++ {
		wg.Add(2)

		go func() {
			defer wg.Done()
			_ = RegisterDefaults(r)
		}()

		go func() {
			defer wg.Done()

			c, err := Lookup[string](r)
			if err == nil {
				_, err = c.Encode("x")
				assert.NoError(t, err)
			}
		}()
	}

	wg.Wait()

	assert.Len(t, r.Types(), 14, fmt.Sprint(r.Types()))
}
