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
	"fmt"

	"github.com/google/uuid"

	"github.com/FerretDB/bobject/internal/commonerrors"
)

// BinarySubtype represents BSON Binary's subtype.
type BinarySubtype byte

// Known subtypes.
const (
	BinaryGeneric    = BinarySubtype(0x00) // generic
	BinaryFunction   = BinarySubtype(0x01) // function
	BinaryGenericOld = BinarySubtype(0x02) // generic-old
	BinaryUUIDOld    = BinarySubtype(0x03) // uuid-old
	BinaryUUID       = BinarySubtype(0x04) // uuid
	BinaryMD5        = BinarySubtype(0x05) // md5
	BinaryEncrypted  = BinarySubtype(0x06) // encrypted
	BinaryUser       = BinarySubtype(0x80) // user
)

// String implements fmt.Stringer.
func (s BinarySubtype) String() string {
	switch s {
	case BinaryGeneric:
		return "generic"
	case BinaryFunction:
		return "function"
	case BinaryGenericOld:
		return "generic-old"
	case BinaryUUIDOld:
		return "uuid-old"
	case BinaryUUID:
		return "uuid"
	case BinaryMD5:
		return "md5"
	case BinaryEncrypted:
		return "encrypted"
	case BinaryUser:
		return "user"
	default:
		return fmt.Sprintf("BinarySubtype(0x%02x)", byte(s))
	}
}

// Binary represents BSON Binary data.
//
// The zero value is an empty generic binary.
type Binary struct {
	b       []byte
	subtype BinarySubtype
}

// NewBinary returns a new Binary with a copy of b.
func NewBinary(subtype BinarySubtype, b []byte) Binary {
	return Binary{
		b:       bytes.Clone(b),
		subtype: subtype,
	}
}

// NewBinaryLen returns a new Binary with a copy of b after checking the declared length n,
// as found in a length-prefixed encoding.
//
// It returns InvalidFormat error if n is negative or does not match the length of b.
func NewBinaryLen(subtype BinarySubtype, b []byte, n int) (Binary, error) {
	if n < 0 {
		return Binary{}, commonerrors.Errorf(commonerrors.ErrInvalidFormat, "binary length %d is negative", n)
	}

	if n != len(b) {
		return Binary{}, commonerrors.Errorf(
			commonerrors.ErrInvalidFormat, "binary length %d does not match data length %d", n, len(b),
		)
	}

	return NewBinary(subtype, b), nil
}

// NewUUID returns a new Binary holding a random (version 4) UUID.
func NewUUID() Binary {
	u := uuid.New()
	return Binary{b: u[:], subtype: BinaryUUID}
}

// Subtype returns the binary subtype.
func (bin Binary) Subtype() BinarySubtype {
	return bin.subtype
}

// Bytes returns a copy of binary data.
func (bin Binary) Bytes() []byte {
	return bytes.Clone(bin.b)
}

// Len returns the length of binary data.
func (bin Binary) Len() int {
	return len(bin.b)
}

// UUID returns binary data as UUID.
//
// It returns InvalidFormat error if the subtype is not a UUID one or the length is not 16.
func (bin Binary) UUID() (uuid.UUID, error) {
	if bin.subtype != BinaryUUID && bin.subtype != BinaryUUIDOld {
		return uuid.Nil, commonerrors.Errorf(commonerrors.ErrInvalidFormat, "binary subtype %s is not uuid", bin.subtype)
	}

	u, err := uuid.FromBytes(bin.b)
	if err != nil {
		return uuid.Nil, commonerrors.NewError(commonerrors.ErrInvalidFormat, err)
	}

	return u, nil
}
