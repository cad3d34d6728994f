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

package testutil

import (
	"fmt"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/FerretDB/bobject/internal/types"
)

// AssertEqual asserts that two values are equal by types.Equal.
func AssertEqual(tb testing.TB, expected, actual types.Value) bool {
	tb.Helper()

	if types.Equal(expected, actual) {
		return true
	}

	msg := fmt.Sprintf("Not equal: \n%s", diffValues(tb, expected, actual))

	return assert.Fail(tb, msg)
}

// AssertIdentical asserts that two values are identical by types.Identical:
// the same types, values and field order.
func AssertIdentical(tb testing.TB, expected, actual types.Value) bool {
	tb.Helper()

	if types.Identical(expected, actual) {
		return true
	}

	msg := fmt.Sprintf("Not identical: \n%s", diffValues(tb, expected, actual))

	return assert.Fail(tb, msg)
}

// AssertNotEqual asserts that two values are not equal by types.Equal.
func AssertNotEqual(tb testing.TB, expected, actual types.Value) bool {
	tb.Helper()

	if !types.Equal(expected, actual) {
		return true
	}

	// The diff of equal values may be non-empty (field order, numeric types), so show it.
	msg := fmt.Sprintf("Unexpected equal: \n%s", diffValues(tb, expected, actual))

	return assert.Fail(tb, msg)
}

// diffValues returns a readable form of given values and the difference between them.
func diffValues(tb testing.TB, expected, actual types.Value) string {
	expectedS := types.LogMessage(expected)
	actualS := types.LogMessage(actual)

	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(expectedS + "\n"),
		FromFile: "expected",
		B:        difflib.SplitLines(actualS + "\n"),
		ToFile:   "actual",
		Context:  1,
	})
	require.NoError(tb, err)

	return fmt.Sprintf("expected: %s\nactual  : %s\n%s", expectedS, actualS, diff)
}
