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

package backends

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// maxCollectionNameLen is the maximum collection name length in bytes.
const maxCollectionNameLen = 235

// collectionNameRe validates collection name characters; the length is checked separately.
var collectionNameRe = regexp.MustCompile("^[^\\.$\x00][^$\x00]*$")

// ReservedPrefix is a reserved prefix for collection names.
const ReservedPrefix = "_bobject_"

// validateCollectionName checks that collection name is valid.
//
// It allows any UTF-8 string up to 235 bytes that:
//   - does not start with '.';
//   - does not contain '$' or NUL characters;
//   - does not start with `_bobject_` or `system.`.
//
// Backends can do their own additional validation.
func validateCollectionName(name string) error {
	if len(name) > maxCollectionNameLen {
		return NewError(ErrorCodeCollectionNameIsInvalid, nil)
	}

	if !collectionNameRe.MatchString(name) {
		return NewError(ErrorCodeCollectionNameIsInvalid, nil)
	}

	if strings.HasPrefix(name, ReservedPrefix) || strings.HasPrefix(name, "system.") {
		return NewError(ErrorCodeCollectionNameIsInvalid, nil)
	}

	if !utf8.ValidString(name) {
		return NewError(ErrorCodeCollectionNameIsInvalid, nil)
	}

	return nil
}
