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

	"github.com/FerretDB/bobject/internal/util/lazyerrors"
)

// ConsumeValues reads all values from iter and closes it.
//
// ErrIteratorDone is not returned; other errors are, together with no values.
func ConsumeValues[K, V any](iter Interface[K, V]) ([]V, error) {
	defer iter.Close()

	var res []V

	for {
		_, v, err := iter.Next()
		if errors.Is(err, ErrIteratorDone) {
			return res, nil
		}

		if err != nil {
			return nil, lazyerrors.Error(err)
		}

		res = append(res, v)
	}
}

// ConsumeValuesN reads up to n values from iter.
//
// The iterator is closed when it is done or on error, but not after reading exactly n values.
// Reading a done iterator returns (nil, nil).
func ConsumeValuesN[K, V any](iter Interface[K, V], n int) ([]V, error) {
	var res []V

	for len(res) < n {
		_, v, err := iter.Next()
		if err != nil {
			iter.Close()

			if errors.Is(err, ErrIteratorDone) {
				break
			}

			return nil, lazyerrors.Error(err)
		}

		res = append(res, v)
	}

	return res, nil
}

// ConsumeCount reads all values from iter, closes it, and returns their number.
func ConsumeCount[K, V any](iter Interface[K, V]) (int, error) {
	defer iter.Close()

	var n int

	for {
		_, _, err := iter.Next()
		if errors.Is(err, ErrIteratorDone) {
			return n, nil
		}

		if err != nil {
			return 0, lazyerrors.Error(err)
		}

		n++
	}
}
