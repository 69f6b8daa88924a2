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
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/membership"
	"github.com/ruddypp/sofcialfi/petition"
)

// Credit amounts travel as decimal strings: 18-decimal base-unit
// values do not survive JSON number round-trips through JavaScript
// clients.

type RootResponse struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

type HealthResponse struct {
	IsHealthy bool `json:"is_healthy"`
}

type ErrorResponse struct {
	StatusCode int    `json:"status_code"`
	Error      string `json:"error"`
	Message    string `json:"message"`
}

type PetitionResponse struct {
	Id             uint64 `json:"id"`
	Creator        string `json:"creator"`
	Title          string `json:"title"`
	Description    string `json:"description"`
	ContentHash    string `json:"content_hash"`
	CreatedAt      int64  `json:"created_at"`
	SignatureCount uint64 `json:"signature_count"`
	BoostEndTime   int64  `json:"boost_end_time"`
	BoostPriority  uint64 `json:"boost_priority"`
	Boosted        bool   `json:"boosted"`
}

func newPetitionResponse(p petition.Petition, now time.Time) PetitionResponse {
	var boostEnd int64
	if !p.BoostEndTime.IsZero() {
		boostEnd = p.BoostEndTime.Unix()
	}
	return PetitionResponse{
		Id:             p.Id,
		Creator:        p.Creator.String(),
		Title:          p.Title,
		Description:    p.Description,
		ContentHash:    p.ContentHash,
		CreatedAt:      p.CreatedAt.Unix(),
		SignatureCount: p.SignatureCount,
		BoostEndTime:   boostEnd,
		BoostPriority:  p.BoostPriority,
		Boosted:        p.BoostEndTime.After(now),
	}
}

type CreatePetitionRequest struct {
	Creator     string `json:"creator"`
	Title       string `json:"title"`
	Description string `json:"description"`
	ContentHash string `json:"content_hash"`
	UseToken    bool   `json:"use_token"`
	Paid        string `json:"paid"`
}

type CreatePetitionResponse struct {
	Id uint64 `json:"id"`
}

type SignPetitionRequest struct {
	Signer string `json:"signer"`
}

type BoostPetitionRequest struct {
	Caller string `json:"caller"`
	Paid   string `json:"paid"`
}

type MintMembershipRequest struct {
	Caller string `json:"caller"`
}

type MemberResponse struct {
	Address   string `json:"address"`
	IsMember  bool   `json:"is_member"`
	HasMinted bool   `json:"has_minted"`
	MintedAt  int64  `json:"minted_at,omitempty"`
}

func newMemberResponse(
	addr string,
	m membership.Membership,
	ok bool,
) MemberResponse {
	resp := MemberResponse{
		Address:   addr,
		IsMember:  ok,
		HasMinted: ok,
	}
	if ok {
		resp.MintedAt = m.MintedAt.Unix()
	}
	return resp
}

type BalanceResponse struct {
	Address string `json:"address"`
	Balance string `json:"balance"`
}

type SignedResponse struct {
	Id     uint64 `json:"id"`
	Signer string `json:"signer"`
	Signed bool   `json:"signed"`
}

type PricingResponse struct {
	BaseCampaignFee string `json:"base_campaign_fee"`
	BoostingFee     string `json:"boosting_fee"`
	RewardThreshold uint64 `json:"reward_threshold"`
}

type StatsResponse struct {
	TotalMembers      uint64 `json:"total_members"`
	TotalPetitions    uint64 `json:"total_petitions"`
	TotalCreditMinted string `json:"total_credit_minted"`
	TotalCreditBurned string `json:"total_credit_burned"`
	Timestamp         int64  `json:"timestamp"`
}

func formatAmount(amount credit.Amount) string {
	return strconv.FormatUint(uint64(amount), 10)
}

// parseAmount parses a decimal base-unit amount; an empty string is
// zero
func parseAmount(s string) (credit.Amount, error) {
	if s == "" {
		return 0, nil
	}
	v, err := strconv.ParseUint(s, 10, 64)
	if err != nil {
		return 0, err
	}
	return credit.Amount(v), nil
}

// errorStatus maps core error kinds to HTTP statuses
func errorStatus(err error) (int, string) {
	var unauthorized *credit.UnauthorizedError
	var insufficientBalance *credit.InsufficientBalanceError
	var overflow *credit.OverflowError
	var alreadyMember *membership.AlreadyMemberError
	var notAMember *petition.NotAMemberError
	var notFound *petition.NotFoundError
	var selfSign *petition.SelfSignError
	var alreadySigned *petition.AlreadySignedError
	var insufficientPayment *petition.InsufficientPaymentError
	var unexpectedPayment *petition.UnexpectedPaymentError
	switch {
	case errors.As(err, &unauthorized):
		return http.StatusForbidden, "Unauthorized"
	case errors.As(err, &insufficientBalance):
		return http.StatusPaymentRequired, "InsufficientBalance"
	case errors.As(err, &overflow):
		return http.StatusBadRequest, "Overflow"
	case errors.As(err, &alreadyMember):
		return http.StatusConflict, "AlreadyMember"
	case errors.As(err, &notAMember):
		return http.StatusForbidden, "NotAMember"
	case errors.As(err, &notFound):
		return http.StatusNotFound, "NotFound"
	case errors.As(err, &selfSign):
		return http.StatusConflict, "SelfSign"
	case errors.As(err, &alreadySigned):
		return http.StatusConflict, "AlreadySigned"
	case errors.As(err, &insufficientPayment):
		return http.StatusPaymentRequired, "InsufficientPayment"
	case errors.As(err, &unexpectedPayment):
		return http.StatusBadRequest, "UnexpectedPayment"
	default:
		return http.StatusInternalServerError, "Internal"
	}
}
