// Copyright 2025 The SofcialFi Authors
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

// Package identity defines the opaque actor reference used as the caller
// identity across the platform registries. An Identity is comparable and
// usable as a map key; the platform attaches no meaning to its contents
// beyond equality. Key management and signature verification live in the
// host, not here.
package identity

// Identity is an opaque, comparable actor reference (e.g. a public-key
// derived address rendered as a string)
type Identity string

// None is the zero Identity. It never refers to an actor
const None Identity = ""

func (i Identity) String() string {
	return string(i)
}

// IsNone returns true for the zero Identity
func (i Identity) IsNone() bool {
	return i == None
}
