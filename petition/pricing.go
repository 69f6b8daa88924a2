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

import "github.com/ruddypp/sofcialfi/credit"

// PricingConfig holds the fee schedule and reward cadence. Changes
// apply going forward only; already-created petitions are unaffected.
type PricingConfig struct {
	// BaseCampaignFee is the native-currency cost to create a
	// petition when paying natively
	BaseCampaignFee credit.Amount `json:"baseCampaignFee"`
	// TokenCampaignCost is the credit amount burned when paying by
	// token
	TokenCampaignCost credit.Amount `json:"tokenCampaignCost"`
	// BoostingFee is the native-currency cost of a boost
	BoostingFee credit.Amount `json:"boostingFee"`
	// RewardThreshold is the petition-count cadence that triggers a
	// reward mint. Must be non-zero.
	RewardThreshold uint64 `json:"rewardThreshold"`
	// RewardAmount is the credit minted to the creator whose
	// petition crosses the cadence boundary
	RewardAmount credit.Amount `json:"rewardAmount"`
}

// DefaultPricing returns the fee schedule used when none is configured
func DefaultPricing() PricingConfig {
	return PricingConfig{
		BaseCampaignFee:   credit.TokenUnit / 1000,     // 0.001 native
		TokenCampaignCost: credit.TokenUnit,            // 1 token
		BoostingFee:       credit.TokenUnit / 2000,     // 0.0005 native
		RewardThreshold:   5,
		RewardAmount:      5 * credit.TokenUnit,
	}
}

// Validate rejects configurations the reward rule cannot operate under
func (p PricingConfig) Validate() error {
	if p.RewardThreshold == 0 {
		return &InvalidConfigError{
			Reason: "reward threshold must be non-zero",
		}
	}
	return nil
}

// PricingInfo is the read-only snapshot returned to clients
type PricingInfo struct {
	BaseCampaignFee credit.Amount `json:"baseCampaignFee"`
	BoostingFee     credit.Amount `json:"boostingFee"`
	RewardThreshold uint64        `json:"rewardThreshold"`
}
