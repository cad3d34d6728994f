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
	"bytes"
	"log/slog"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/FerretDB/bobject/internal/util/must"
)

func TestLogging(t *testing.T) {
	t.Parallel()

	doc := must.NotFail(NewDocument(
		"null", Null,
		"bool", Bool(true),
		"i32", Int32(42),
		"i64", Int64(42),
		"f64", Double(42),
		"nan", Double(math.NaN()),
		"str", String("foo"),
		"bin", NewBinary(BinaryUser, []byte{0x42}),
		"oid", ObjectID{0x65, 0xe1},
		"dt", NewDateTime(time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)),
		"ts", NewTimestamp(1, 2),
		"arr", NewArray(String("a"), Int32(1)),
		"doc", must.NotFail(NewDocument("a", Int32(1))),
	))

	expected := `{
  "null": null,
  "bool": true,
  "i32": 42,
  "i64": int64(42),
  "f64": 42.0,
  "nan": NaN,
  "str": "foo",
  "bin": Binary(user:Qg==),
  "oid": ObjectID(65e100000000000000000000),
  "dt": 2024-03-01T00:00:00.000Z,
  "ts": Timestamp(1, 2),
  "arr": ["a", 1],
  "doc": {"a": 1},
}`
	assert.Equal(t, expected, LogMessage(doc))

	assert.Equal(t, `{"a": [1, {"b": 1.5}]}`, LogMessage(must.NotFail(NewDocument(
		"a", NewArray(Int32(1), must.NotFail(NewDocument("b", Double(1.5))))),
	)))
	assert.Equal(t, "1e+21", LogMessage(Double(1e21)))
	assert.Equal(t, "{}", LogMessage(new(Document)))
	assert.Equal(t, "[]", LogMessage(NewArray()))

	var buf bytes.Buffer
	l := slog.New(slog.NewJSONHandler(&buf, &slog.HandlerOptions{
		ReplaceAttr: func(groups []string, a slog.Attr) slog.Attr {
			if len(groups) == 0 && a.Key == slog.TimeKey {
				return slog.Attr{}
			}

			return a
		},
	}))

	l.Info("test", slog.Any("doc", must.NotFail(NewDocument("i", Int32(1), "nan", Double(math.NaN()), "arr", NewArray(Bool(true))))))
	assert.Equal(t, `{"level":"INFO","msg":"test","doc":{"i":1,"nan":"NaN","arr":{"0":true}}}`+"\n", buf.String())
}
