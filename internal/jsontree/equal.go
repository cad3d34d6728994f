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

package jsontree

import "fmt"

// Equal returns true if a and b are the same JSON value.
//
// Objects are equal if they have the same members regardless of order.
// Numbers are equal if they have the same decimal value, so 1, 1.0 and 10e-1 are all equal.
func Equal(a, b Value) bool {
	switch a := a.(type) {
	case NullType:
		_, ok := b.(NullType)
		return ok

	case Bool:
		b, ok := b.(Bool)
		return ok && a == b

	case String:
		b, ok := b.(String)
		return ok && a == b

	case Number:
		b, ok := b.(Number)
		return ok && a.normalize() == b.normalize()

	case *Array:
		b, ok := b.(*Array)
		if !ok || a.Len() != b.Len() {
			return false
		}

		for i, e := range a.s {
			if !Equal(e, b.s[i]) {
				return false
			}
		}

		return true

	case *Object:
		b, ok := b.(*Object)
		if !ok || a.Len() != b.Len() {
			return false
		}

		for _, m := range a.members {
			bv, ok := b.Get(m.Key)
			if !ok || !Equal(m.Value, bv) {
				return false
			}
		}

		return true

	case nil:
		return b == nil

	default:
		panic(fmt.Sprintf("jsontree.Equal: invalid value %T", a))
	}
}
