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

package credit

import (
	"fmt"

	"github.com/ruddypp/sofcialfi/identity"
)

// UnauthorizedError is returned when a caller that is not a registered
// controller attempts to mint or burn
type UnauthorizedError struct {
	Caller identity.Identity
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf(
		"caller %s is not a registered controller",
		e.Caller,
	)
}

// InsufficientBalanceError is returned when a burn exceeds the holder's
// balance
type InsufficientBalanceError struct {
	Holder  identity.Identity
	Balance Amount
	Amount  Amount
}

func (e *InsufficientBalanceError) Error() string {
	return fmt.Sprintf(
		"insufficient balance for %s: balance=%d, requested=%d",
		e.Holder,
		e.Balance,
		e.Amount,
	)
}

// OverflowError is returned when a mint would overflow the balance
// representation
type OverflowError struct {
	Holder  identity.Identity
	Balance Amount
	Amount  Amount
}

func (e *OverflowError) Error() string {
	return fmt.Sprintf(
		"mint overflow for %s: balance=%d, requested=%d",
		e.Holder,
		e.Balance,
		e.Amount,
	)
}

// AlreadyConfiguredError is returned on a second attempt to wire a
// controller role
type AlreadyConfiguredError struct {
	Role ControllerRole
}

func (e *AlreadyConfiguredError) Error() string {
	return fmt.Sprintf(
		"controller role %q is already configured",
		e.Role,
	)
}

// InvalidConfigError is returned when controller wiring is attempted
// with an unknown role or an empty identity
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return "invalid config: " + e.Reason
}
