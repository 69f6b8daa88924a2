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

package membership

import (
	"fmt"

	"github.com/ruddypp/sofcialfi/identity"
)

// AlreadyMemberError is returned when an identity that already holds a
// membership attempts to mint again
type AlreadyMemberError struct {
	Holder identity.Identity
}

func (e *AlreadyMemberError) Error() string {
	return fmt.Sprintf(
		"identity %s already holds a membership",
		e.Holder,
	)
}

// AlreadyConfiguredError is returned on a second attempt to wire the
// petition registry reference
type AlreadyConfiguredError struct{}

func (e *AlreadyConfiguredError) Error() string {
	return "petition registry reference is already configured"
}

// InvalidConfigError is returned when wiring is attempted with an
// empty identity
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return "invalid config: " + e.Reason
}
