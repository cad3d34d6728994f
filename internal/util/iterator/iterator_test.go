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

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestForSlice(t *testing.T) {
	t.Parallel()

	s := []string{"a", "b", "c"}

	iter := ForSlice(s)

	k, v, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, 0, k)
	assert.Equal(t, "a", v)

	actual, err := ConsumeValues(iter)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, actual)

	_, _, err = iter.Next()
	assert.ErrorIs(t, err, ErrIteratorDone)

	actual, err = ConsumeValues(Values(ForSlice(s)))
	require.NoError(t, err)
	assert.Equal(t, s, actual)
}

func TestConsumeValuesN(t *testing.T) {
	t.Parallel()

	iter := ForSlice([]int{1, 2, 3})

	actual, err := ConsumeValuesN(iter, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{1, 2}, actual)

	actual, err = ConsumeValuesN(iter, 2)
	require.NoError(t, err)
	assert.Equal(t, []int{3}, actual)

	actual, err = ConsumeValuesN(iter, 2)
	require.NoError(t, err)
	assert.Nil(t, actual)
}

func TestConsumeCount(t *testing.T) {
	t.Parallel()

	n, err := ConsumeCount(ForSlice([]int{1, 2, 3, 4}))
	require.NoError(t, err)
	assert.Equal(t, 4, n)
}

func TestForFunc(t *testing.T) {
	t.Parallel()

	boom := errors.New("boom")

	var i, closed int
	next := func() (int, int, error) {
		i++
		if i > 2 {
			return 0, 0, boom
		}

		return i, i * 10, nil
	}

	iter := ForFunc(next, func() { closed++ })

	k, v, err := iter.Next()
	require.NoError(t, err)
	assert.Equal(t, 1, k)
	assert.Equal(t, 10, v)

	_, err = ConsumeValues(iter)
	require.ErrorIs(t, err, boom)
	assert.Equal(t, 1, closed)

	iter.Close()
	assert.Equal(t, 1, closed)

	_, _, err = iter.Next()
	assert.ErrorIs(t, err, ErrIteratorDone)
}
