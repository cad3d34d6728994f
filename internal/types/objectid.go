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
	"crypto/rand"
	"encoding/binary"
	"encoding/hex"
	"sync/atomic"
	"time"

	"github.com/FerretDB/bobject/internal/commonerrors"
	"github.com/FerretDB/bobject/internal/util/must"
)

// ObjectID represents BSON ObjectId: 4-byte big-endian seconds since the Unix epoch,
// 5-byte per-process random value, and 3-byte counter.
type ObjectID [12]byte

// objectIDProcess is the per-process random part of generated ObjectIDs.
var objectIDProcess [5]byte

// objectIDCounter is incremented for each generated ObjectID; only the lower 24 bits are used.
var objectIDCounter atomic.Uint32

func init() {
	must.NotFail(rand.Read(objectIDProcess[:]))

	var b [4]byte
	must.NotFail(rand.Read(b[:]))
	objectIDCounter.Store(binary.BigEndian.Uint32(b[:]))
}

// NewObjectID returns a new ObjectID for the current time.
//
// ObjectIDs generated by one process are increasing
// until the counter wraps around after 2^24 values.
func NewObjectID() ObjectID {
	return newObjectIDTime(time.Now())
}

// newObjectIDTime returns a new ObjectID for the given time.
func newObjectIDTime(t time.Time) ObjectID {
	var id ObjectID

	binary.BigEndian.PutUint32(id[0:4], uint32(t.Unix()))
	copy(id[4:9], objectIDProcess[:])

	c := objectIDCounter.Add(1)
	id[9] = byte(c >> 16)
	id[10] = byte(c >> 8)
	id[11] = byte(c)

	return id
}

// ObjectIDFromBytes returns ObjectID with the given 12 bytes.
//
// It returns InvalidFormat error for any other length.
func ObjectIDFromBytes(b []byte) (ObjectID, error) {
	var id ObjectID

	if len(b) != len(id) {
		return id, commonerrors.Errorf(commonerrors.ErrInvalidFormat, "ObjectID must be 12 bytes, got %d", len(b))
	}

	copy(id[:], b)

	return id, nil
}

// ParseObjectID parses exactly 24 hex characters in any case.
//
// It returns InvalidFormat error for anything else.
func ParseObjectID(s string) (ObjectID, error) {
	var id ObjectID

	if len(s) != hex.EncodedLen(len(id)) {
		return id, commonerrors.Errorf(
			commonerrors.ErrInvalidFormat, "ObjectID must be 24 hex characters, got %d characters", len(s),
		)
	}

	if _, err := hex.Decode(id[:], []byte(s)); err != nil {
		return ObjectID{}, commonerrors.Errorf(commonerrors.ErrInvalidFormat, "invalid ObjectID %q: %s", s, err)
	}

	return id, nil
}

// Hex returns 24 lowercase hex characters.
func (id ObjectID) Hex() string {
	return hex.EncodeToString(id[:])
}

// String implements fmt.Stringer.
func (id ObjectID) String() string {
	return id.Hex()
}

// Time returns the creation time encoded in the ObjectID.
func (id ObjectID) Time() time.Time {
	return time.Unix(int64(binary.BigEndian.Uint32(id[0:4])), 0).UTC()
}

// MarshalText implements encoding.TextMarshaler.
func (id ObjectID) MarshalText() ([]byte, error) {
	return []byte(id.Hex()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (id *ObjectID) UnmarshalText(text []byte) error {
	parsed, err := ParseObjectID(string(text))
	if err != nil {
		return err
	}

	*id = parsed

	return nil
}
