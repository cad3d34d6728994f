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

package main

import (
	"bytes"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/util/testutil"
)

// runCmd runs the tool with given arguments and stdin, and returns stdout and stderr.
func runCmd(t *testing.T, stdin string, args ...string) (string, string, error) {
	t.Helper()

	var stdout, stderr bytes.Buffer
	err := run(testutil.Ctx(t), args, strings.NewReader(stdin), &stdout, &stderr)

	return stdout.String(), stderr.String(), err
}

func TestFmt(t *testing.T) {
	t.Parallel()

	for name, tc := range map[string]struct {
		stdin    string
		args     []string
		expected string
		code     commonerrors.ErrorCode
	}{
		"Compact": {
			stdin:    "{ \"a\" : [1, 2.50, true], \"b\": null }\n",
			args:     []string{"fmt"},
			expected: `{"a":[1,2.50,true],"b":null}` + "\n",
		},
		"Indent": {
			stdin:    `{"a":[1]}`,
			args:     []string{"fmt", "--indent=  "},
			expected: "{\n  \"a\": [\n    1\n  ]\n}\n",
		},
		"Lenient": {
			stdin:    "{a: 1, // comment\n \"b\": [1, 2,],}",
			args:     []string{"fmt", "--lenient"},
			expected: `{"a":1,"b":[1,2]}` + "\n",
		},
		"StrictComment": {
			stdin: "[1, /* two */ 2]",
			args:  []string{"fmt"},
			code:  commonerrors.ErrLexical,
		},
		"Stream": {
			stdin:    "1 \"x\"\n{}",
			args:     []string{"fmt", "--stream"},
			expected: "1\n\"x\"\n{}\n",
		},
		"TrailingValue": {
			stdin: "1 2",
			args:  []string{"fmt"},
			code:  commonerrors.ErrStructural,
		},
		"MaxDepth": {
			stdin: "[[[1]]]",
			args:  []string{"fmt", "--max-depth=2"},
			code:  commonerrors.ErrStructural,
		},
	} {
		t.Run(name, func(t *testing.T) {
			t.Parallel()

			stdout, _, err := runCmd(t, tc.stdin, tc.args...)
			if tc.code != 0 {
				require.Error(t, err)
				assert.Equal(t, tc.code, commonerrors.CodeOf(err), "%v", err)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, stdout)
		})
	}
}

func TestValidate(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCmd(t, `{"_id": {"$oid": "0102030405060708090a0b0c"}} [1] "s"`, "validate", "--stream")
	require.NoError(t, err)
	assert.Equal(t, 3, strings.Count(stdout, "\n"), "%s", stdout)
	assert.True(t, strings.HasPrefix(stdout, "0: "))

	_, _, err = runCmd(t, `{"_id": {"$oid": "not hex"}}`, "validate")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "value 0")
}

func TestBSON(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCmd(t, "{}", "bson", "encode")
	require.NoError(t, err)
	assert.Equal(t, "0500000000\n", stdout)

	doc := `{"_id":{"$oid":"0102030405060708090a0b0c"},"name":"Ada","tags":["math",true]}`

	encoded, _, err := runCmd(t, doc, "bson", "encode")
	require.NoError(t, err)

	decoded, _, err := runCmd(t, encoded, "bson", "decode")
	require.NoError(t, err)
	assert.Equal(t, doc+"\n", decoded)

	_, _, err = runCmd(t, "[1]", "bson", "encode")
	assert.ErrorContains(t, err, "expected document")

	_, _, err = runCmd(t, "0600000000", "bson", "decode")
	assert.Error(t, err)
}

func TestOID(t *testing.T) {
	t.Parallel()

	stdout, _, err := runCmd(t, "", "oid", "--count=3")
	require.NoError(t, err)

	lines := strings.Fields(stdout)
	require.Len(t, lines, 3)

	for _, l := range lines {
		assert.Len(t, l, 24)
	}

	assert.NotEqual(t, lines[0], lines[1])

	stdout, _, err = runCmd(t, "", "oid", "0102030405060708090a0b0c")
	require.NoError(t, err)
	assert.Equal(t, "0102030405060708090a0b0c 1970-07-15T16:57:40Z\n", stdout)

	_, _, err = runCmd(t, "", "oid", "xyz")
	assert.Error(t, err)
}

func TestImportExport(t *testing.T) {
	t.Parallel()

	uri := "file:" + filepath.Join(t.TempDir(), "test.sqlite")

	input := `{"_id": 1, "name": "Ada", "langs": ["en"]}
{"_id": 2, "name": "Bob"}
{"name": "Eve"}
`

	stdout, _, err := runCmd(t, input, "import", "--sqlite-url="+uri, "--batch=2", "people")
	require.NoError(t, err)
	assert.Equal(t, "3\n", stdout)

	stdout, _, err = runCmd(t, "", "export", "--sqlite-url="+uri, `--filter={"name": "Ada"}`, "people")
	require.NoError(t, err)
	assert.Equal(t, `{"_id":1,"name":"Ada","langs":["en"]}`+"\n", stdout)

	stdout, _, err = runCmd(t, "", "export", "--sqlite-url="+uri, "--filter={langs: \"en\"}", "people")
	require.NoError(t, err)
	assert.Equal(t, `{"_id":1,"name":"Ada","langs":["en"]}`+"\n", stdout)

	stdout, _, err = runCmd(t, "", "export", "--sqlite-url="+uri, "people")
	require.NoError(t, err)

	lines := strings.Split(strings.TrimSpace(stdout), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, `{"_id":2,"name":"Bob"}`, lines[1])
	assert.Contains(t, lines[2], `"$oid"`)

	t.Run("Duplicate", func(t *testing.T) {
		_, _, err := runCmd(t, `{"_id": 2}`, "import", "--sqlite-url="+uri, "people")
		require.Error(t, err)

		stdout, _, err := runCmd(t, "", "export", "--sqlite-url="+uri, "people")
		require.NoError(t, err)
		assert.Equal(t, 3, strings.Count(stdout, "\n"))
	})
}

func TestImportMemory(t *testing.T) {
	t.Parallel()

	stdout, stderr, err := runCmd(t, `{"_id": "a"} {"_id": "b"}`, "import", "--backend=memory", "--metrics", "test")
	require.NoError(t, err)
	assert.Equal(t, "2\n", stdout)
	assert.Contains(t, stderr, `bobject_collection_operations_total{collection="test",operation="Insert",result="ok"} 1`)
	assert.Contains(t, stderr, `bobject_memory_documents{collection="test"} 2`)

	_, _, err = runCmd(t, `[1]`, "import", "--backend=memory", "test")
	assert.ErrorContains(t, err, "expected document")

	_, _, err = runCmd(t, `{}`, "import", "--backend=memory", "--batch=0", "test")
	assert.Error(t, err)
}
