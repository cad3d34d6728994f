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
	"sync/atomic"
	"time"
)

// DateTime represents BSON UTC datetime: milliseconds since the Unix epoch.
type DateTime int64

// NewDateTime returns DateTime for t truncated to milliseconds.
func NewDateTime(t time.Time) DateTime {
	return DateTime(t.UnixMilli())
}

// Time returns DateTime as time.Time in UTC.
func (dt DateTime) Time() time.Time {
	return time.UnixMilli(int64(dt)).UTC()
}

// String implements fmt.Stringer.
func (dt DateTime) String() string {
	return dt.Time().Format("2006-01-02T15:04:05.000Z07:00")
}

// Timestamp represents BSON Timestamp: seconds since the Unix epoch and an ordinal.
//
// It is distinct from DateTime and never converted to or from it implicitly.
type Timestamp struct {
	T uint32 // seconds
	I uint32 // ordinal
}

// timestampCounter is the process-wide ordinal for NextTimestamp.
var timestampCounter atomic.Uint32

// NewTimestamp returns a new Timestamp.
func NewTimestamp(t, i uint32) Timestamp {
	return Timestamp{T: t, I: i}
}

// NextTimestamp returns Timestamp for t with the next process-wide ordinal.
func NextTimestamp(t time.Time) Timestamp {
	return Timestamp{T: uint32(t.Unix()), I: timestampCounter.Add(1)}
}

// TimestampFromUint64 returns Timestamp from its BSON representation:
// seconds in the high 32 bits, ordinal in the low ones.
func TimestampFromUint64(u uint64) Timestamp {
	return Timestamp{T: uint32(u >> 32), I: uint32(u)}
}

// Uint64 returns BSON representation of Timestamp.
func (ts Timestamp) Uint64() uint64 {
	return uint64(ts.T)<<32 | uint64(ts.I)
}

// Time returns seconds as time.Time in UTC, ignoring the ordinal.
func (ts Timestamp) Time() time.Time {
	return time.Unix(int64(ts.T), 0).UTC()
}
