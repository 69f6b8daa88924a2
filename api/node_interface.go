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

package api

import (
	"github.com/ruddypp/sofcialfi"
	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/identity"
	"github.com/ruddypp/sofcialfi/membership"
	"github.com/ruddypp/sofcialfi/petition"
)

// PlatformNode is the interface the API server uses to reach the
// platform core. It decouples the HTTP server from the concrete
// Platform struct and enables testing with mock implementations.
type PlatformNode interface {
	MintMembership(caller identity.Identity) error
	IsMember(id identity.Identity) bool
	Member(id identity.Identity) (membership.Membership, bool)
	TotalMembers() uint64

	BalanceOf(id identity.Identity) credit.Amount

	CreatePetition(
		creator identity.Identity,
		title string,
		description string,
		contentHash string,
		useToken bool,
		paid credit.Amount,
	) (uint64, error)
	SignPetition(signer identity.Identity, id uint64) error
	BoostPetition(
		caller identity.Identity,
		id uint64,
		paid credit.Amount,
	) error
	HasUserSigned(id uint64, signer identity.Identity) (bool, error)
	GetPetition(id uint64) (petition.Petition, error)
	Petitions() []petition.Petition
	BoostedPetitions() []petition.Petition
	IsPetitionBoosted(id uint64) (bool, error)
	PricingInfo() petition.PricingInfo

	Stats() sofcialfi.Stats
}
