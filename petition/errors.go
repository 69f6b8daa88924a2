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

package petition

import (
	"fmt"

	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/identity"
)

// NotAMemberError is returned when a non-member attempts a
// membership-gated operation
type NotAMemberError struct {
	Caller identity.Identity
}

func (e *NotAMemberError) Error() string {
	return fmt.Sprintf(
		"identity %s does not hold a membership",
		e.Caller,
	)
}

// NotFoundError is returned for an unknown petition id
type NotFoundError struct {
	Id uint64
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("petition %d does not exist", e.Id)
}

// SelfSignError is returned when a creator attempts to sign their own
// petition
type SelfSignError struct {
	Id     uint64
	Signer identity.Identity
}

func (e *SelfSignError) Error() string {
	return fmt.Sprintf(
		"identity %s cannot sign their own petition %d",
		e.Signer,
		e.Id,
	)
}

// AlreadySignedError is returned when an identity attempts to sign the
// same petition twice
type AlreadySignedError struct {
	Id     uint64
	Signer identity.Identity
}

func (e *AlreadySignedError) Error() string {
	return fmt.Sprintf(
		"identity %s has already signed petition %d",
		e.Signer,
		e.Id,
	)
}

// InsufficientPaymentError is returned when the supplied native payment
// is below the required fee
type InsufficientPaymentError struct {
	Required credit.Amount
	Paid     credit.Amount
}

func (e *InsufficientPaymentError) Error() string {
	return fmt.Sprintf(
		"insufficient payment: required=%d, paid=%d",
		e.Required,
		e.Paid,
	)
}

// UnexpectedPaymentError is returned when a native payment is supplied
// where none is owed: overpayment above the exact fee, or any native
// amount alongside token payment. Rejecting instead of keeping the
// excess avoids surprising value capture.
type UnexpectedPaymentError struct {
	Expected credit.Amount
	Paid     credit.Amount
}

func (e *UnexpectedPaymentError) Error() string {
	return fmt.Sprintf(
		"unexpected payment: expected=%d, paid=%d",
		e.Expected,
		e.Paid,
	)
}

// InvalidConfigError is returned when a pricing configuration is
// rejected
type InvalidConfigError struct {
	Reason string
}

func (e *InvalidConfigError) Error() string {
	return "invalid config: " + e.Reason
}
