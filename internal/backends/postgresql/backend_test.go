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

package postgresql

import (
	"net/url"
	"strings"
	"testing"

	promtestutil "github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/backends"
	"github.com/FerretDB/bobject/internal/backends/backendtest"
	"github.com/FerretDB/bobject/internal/util/testutil"
)

func TestBackend(t *testing.T) {
	t.Parallel()

	backendtest.Run(t, func(t *testing.T) backends.Backend {
		uri := testutil.TestPostgreSQLURI(t, testutil.Ctx(t))

		b, err := NewBackend(&NewBackendParams{URI: uri, L: testutil.Logger(t)})
		require.NoError(t, err)

		t.Cleanup(b.Close)

		return b
	})
}

func TestBackendExtra(t *testing.T) {
	t.Parallel()

	uri := testutil.TestPostgreSQLURI(t, testutil.Ctx(t))

	b, err := NewBackend(&NewBackendParams{URI: uri, L: testutil.Logger(t)})
	require.NoError(t, err)

	t.Cleanup(b.Close)

	_, err = b.Collection(strings.Repeat("a", 64))
	assert.True(t, backends.ErrorCodeIs(err, backends.ErrorCodeCollectionNameIsInvalid), "%v", err)

	assert.Equal(t, 3, promtestutil.CollectAndCount(b))
}

func TestSetDefaultValues(t *testing.T) {
	t.Parallel()

	values := url.Values{"pool_max_conns": []string{"5"}, "timezone": []string{"Europe/Berlin"}}
	setDefaultValues(values)

	expected := url.Values{
		"pool_max_conns":   []string{"5"},
		"application_name": []string{"bobject"},
		"timezone":         []string{"UTC"},
	}
	assert.Equal(t, expected, values)

	values = url.Values{}
	setDefaultValues(values)
	assert.Equal(t, "20", values.Get("pool_max_conns"))
}
