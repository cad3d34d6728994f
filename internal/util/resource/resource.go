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

// Package resource tracks the lifetimes of objects that must be closed explicitly,
// such as cursors and query iterators.
package resource

import (
	"fmt"
	"reflect"
	"runtime"
	"runtime/pprof"
	"sync"
	"unsafe"

	"github.com/FerretDB/bobject/internal/util/debugbuild"
)

// Token must be stored in the "token" field of a tracked struct.
type Token struct {
	_ [1]byte // not zero-sized, so distinct tokens have distinct addresses
}

// NewToken returns a new Token.
func NewToken() *Token {
	return new(Token)
}

// profilesM serializes profile creation.
var profilesM sync.Mutex

// profileName returns the pprof profile name for the given object type.
func profileName(obj any) string {
	return "bobject/" + reflect.TypeOf(obj).Elem().String()
}

// profile returns the existing or a new profile for obj.
func profile(obj any) *pprof.Profile {
	name := profileName(obj)
	if p := pprof.Lookup(name); p != nil {
		return p
	}

	profilesM.Lock()
	defer profilesM.Unlock()

	if p := pprof.Lookup(name); p != nil {
		return p
	}

	return pprof.NewProfile(name)
}

// Track starts tracking the lifetime of obj until Untrack is called.
//
// Live tracked objects are visible in the "bobject/<type>" pprof profile.
// In debug builds, a tracked object that becomes unreachable without Untrack
// panics in the finalizer with the stack that created it.
func Track[T any](obj *T, token *Token) {
	checkArgs(obj, token)

	// add the token, not obj, so the profile does not keep obj reachable
	profile(obj).Add(token, 1)

	if !debugbuild.Enabled {
		return
	}

	msg := fmt.Sprintf("%T has not been closed\nObject created by %s", obj, debugbuild.Stack())
	runtime.SetFinalizer(obj, func(*T) {
		panic(msg)
	})
}

// Untrack stops tracking the lifetime of obj.
//
// Calling it more than once for the same object is allowed.
func Untrack[T any](obj *T, token *Token) {
	checkArgs(obj, token)

	if debugbuild.Enabled {
		runtime.SetFinalizer(obj, nil)
	}

	profile(obj).Remove(token)
}

// checkArgs panics if obj is not a pointer to struct with the given token in the "token" field.
func checkArgs(obj any, token *Token) {
	if token == nil {
		panic("resource: token must not be nil")
	}

	pv := reflect.ValueOf(obj)
	if pv.Kind() != reflect.Pointer || pv.IsNil() || pv.Elem().Kind() != reflect.Struct {
		panic(fmt.Sprintf("resource: obj must be a non-nil pointer to struct, got %T", obj))
	}

	f := pv.Elem().FieldByName("token")
	if f.Kind() != reflect.Pointer || f.UnsafePointer() != unsafe.Pointer(token) {
		panic("resource: token must be stored in the \"token\" field")
	}
}
