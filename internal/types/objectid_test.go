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
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/commonerrors"
)

func TestObjectID(t *testing.T) {
	t.Parallel()

	t.Run("New", func(t *testing.T) {
		t.Parallel()

		now := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)
		a := newObjectIDTime(now)
		b := newObjectIDTime(now)

		assert.Equal(t, now, a.Time())
		assert.Equal(t, a[:9], b[:9], "timestamp and process parts")
		assert.NotEqual(t, a, b)

		assert.Len(t, NewObjectID().Hex(), 24)
	})

	t.Run("Parse", func(t *testing.T) {
		t.Parallel()

		id, err := ParseObjectID("65E1C2A0AABBCCDDEE000102")
		require.NoError(t, err)
		assert.Equal(t, "65e1c2a0aabbccddee000102", id.Hex())
		assert.Equal(t, "65e1c2a0aabbccddee000102", id.String())

		for name, s := range map[string]string{
			"Empty":   "",
			"Short":   "65e1c2a0aabbccddee00010",
			"Long":    "65e1c2a0aabbccddee0001020",
			"NonHex":  "65e1c2a0aabbccddee00010g",
			"Spaces":  " 5e1c2a0aabbccddee000102",
			"Twelve":  strings.Repeat("a", 12),
			"Unicode": "65e1c2a0aabbccddee0001é",
		} {
			_, err := ParseObjectID(s)
			assert.True(t, commonerrors.Is(err, commonerrors.ErrInvalidFormat), "%s: %v", name, err)
		}
	})

	t.Run("FromBytes", func(t *testing.T) {
		t.Parallel()

		id, err := ObjectIDFromBytes([]byte{1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12})
		require.NoError(t, err)
		assert.Equal(t, "0102030405060708090a0b0c", id.Hex())

		for _, b := range [][]byte{nil, make([]byte, 11), make([]byte, 13)} {
			_, err = ObjectIDFromBytes(b)
			assert.True(t, commonerrors.Is(err, commonerrors.ErrInvalidFormat))
		}
	})

	t.Run("Text", func(t *testing.T) {
		t.Parallel()

		expected := NewObjectID()

		text, err := expected.MarshalText()
		require.NoError(t, err)

		var actual ObjectID
		require.NoError(t, actual.UnmarshalText(text))
		assert.Equal(t, expected, actual)

		assert.Error(t, actual.UnmarshalText([]byte("xyz")))
	})
}

func TestBinary(t *testing.T) {
	t.Parallel()

	data := []byte{1, 2, 3}
	bin := NewBinary(BinaryUser, data)
	data[0] = 42

	assert.Equal(t, []byte{1, 2, 3}, bin.Bytes(), "constructor copies")
	assert.Equal(t, BinaryUser, bin.Subtype())
	assert.Equal(t, 3, bin.Len())

	b := bin.Bytes()
	b[0] = 42
	assert.Equal(t, []byte{1, 2, 3}, bin.Bytes(), "accessor copies")

	_, err := NewBinaryLen(BinaryGeneric, data, -1)
	assert.True(t, commonerrors.Is(err, commonerrors.ErrInvalidFormat))

	_, err = NewBinaryLen(BinaryGeneric, data, 2)
	assert.True(t, commonerrors.Is(err, commonerrors.ErrInvalidFormat))

	bin, err = NewBinaryLen(BinaryGeneric, data, 3)
	require.NoError(t, err)
	assert.Equal(t, BinaryGeneric, bin.Subtype())

	assert.Equal(t, BinaryGeneric, Binary{}.Subtype(), "zero value is generic")
	assert.Equal(t, "uuid", BinaryUUID.String())
	assert.Equal(t, "BinarySubtype(0x42)", BinarySubtype(0x42).String())
}

func TestUUID(t *testing.T) {
	t.Parallel()

	bin := NewUUID()
	assert.Equal(t, BinaryUUID, bin.Subtype())

	u, err := bin.UUID()
	require.NoError(t, err)
	assert.Equal(t, bin.Bytes(), u[:])
	assert.EqualValues(t, 4, u.Version())

	_, err = NewBinary(BinaryGeneric, u[:]).UUID()
	assert.True(t, commonerrors.Is(err, commonerrors.ErrInvalidFormat))

	_, err = NewBinary(BinaryUUID, u[:8]).UUID()
	assert.True(t, commonerrors.Is(err, commonerrors.ErrInvalidFormat))
}

func TestTemporal(t *testing.T) {
	t.Parallel()

	tm := time.Date(2024, 3, 1, 12, 30, 15, 123_456_789, time.FixedZone("X", 3600))

	dt := NewDateTime(tm)
	assert.Equal(t, tm.Truncate(time.Millisecond).UTC(), dt.Time())
	assert.Equal(t, "2024-03-01T11:30:15.123Z", dt.String())

	ts := NewTimestamp(42, 7)
	assert.Equal(t, ts, TimestampFromUint64(ts.Uint64()))
	assert.Equal(t, uint64(42)<<32|7, ts.Uint64())
	assert.Equal(t, time.Unix(42, 0).UTC(), ts.Time())

	a, b := NextTimestamp(tm), NextTimestamp(tm)
	assert.Equal(t, a.T, b.T)
	assert.NotEqual(t, a.I, b.I)
}
