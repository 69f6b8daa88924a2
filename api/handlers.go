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
	"encoding/json"
	"net/http"
	"strconv"
	"time"

	"github.com/ruddypp/sofcialfi/identity"
)

const apiVersion = "0.1.0"

// writeJSON writes a JSON response with the given status
// code.
func writeJSON(
	w http.ResponseWriter,
	status int,
	v any,
) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	//nolint:errcheck,errchkjson
	json.NewEncoder(w).Encode(v)
}

// writeError writes an error response.
func writeError(
	w http.ResponseWriter,
	status int,
	errStr string,
	message string,
) {
	writeJSON(w, status, ErrorResponse{
		StatusCode: status,
		Error:      errStr,
		Message:    message,
	})
}

// writeCoreError maps a core error to an HTTP error
// response.
func writeCoreError(
	w http.ResponseWriter,
	err error,
) {
	status, kind := errorStatus(err)
	writeError(w, status, kind, err.Error())
}

// pathId parses the {id} path segment.
func pathId(r *http.Request) (uint64, bool) {
	id, err := strconv.ParseUint(r.PathValue("id"), 10, 64)
	if err != nil {
		return 0, false
	}
	return id, true
}

// handleRoot handles GET / and returns API metadata.
func (a *Api) handleRoot(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, RootResponse{
		Name:    "sofcialfi",
		Version: apiVersion,
	})
}

// handleHealth handles GET /health.
func (a *Api) handleHealth(
	w http.ResponseWriter,
	_ *http.Request,
) {
	writeJSON(w, http.StatusOK, HealthResponse{
		IsHealthy: true,
	})
}

// handleListPetitions handles GET /api/v1/petitions. With
// ?view=boosted the boosted petitions are listed first,
// ordered by descending boost priority.
func (a *Api) handleListPetitions(
	w http.ResponseWriter,
	r *http.Request,
) {
	var petitions []PetitionResponse
	now := time.Now()
	switch r.URL.Query().Get("view") {
	case "boosted":
		for _, p := range a.node.BoostedPetitions() {
			petitions = append(
				petitions,
				newPetitionResponse(p, now),
			)
		}
	default:
		for _, p := range a.node.Petitions() {
			petitions = append(
				petitions,
				newPetitionResponse(p, now),
			)
		}
	}
	if petitions == nil {
		petitions = []PetitionResponse{}
	}
	writeJSON(w, http.StatusOK, petitions)
}

// handleCreatePetition handles POST /api/v1/petitions.
func (a *Api) handleCreatePetition(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req CreatePetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid request body",
		)
		return
	}
	paid, err := parseAmount(req.Paid)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid paid amount",
		)
		return
	}
	id, err := a.node.CreatePetition(
		identity.Identity(req.Creator),
		req.Title,
		req.Description,
		req.ContentHash,
		req.UseToken,
		paid,
	)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, CreatePetitionResponse{
		Id: id,
	})
}

// handleGetPetition handles GET /api/v1/petitions/{id}.
func (a *Api) handleGetPetition(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathId(r)
	if !ok {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid petition id",
		)
		return
	}
	p, err := a.node.GetPetition(id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(
		w,
		http.StatusOK,
		newPetitionResponse(p, time.Now()),
	)
}

// handleSignPetition handles POST
// /api/v1/petitions/{id}/sign.
func (a *Api) handleSignPetition(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathId(r)
	if !ok {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid petition id",
		)
		return
	}
	var req SignPetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid request body",
		)
		return
	}
	if err := a.node.SignPetition(
		identity.Identity(req.Signer),
		id,
	); err != nil {
		writeCoreError(w, err)
		return
	}
	p, err := a.node.GetPetition(id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(
		w,
		http.StatusOK,
		newPetitionResponse(p, time.Now()),
	)
}

// handleBoostPetition handles POST
// /api/v1/petitions/{id}/boost.
func (a *Api) handleBoostPetition(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathId(r)
	if !ok {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid petition id",
		)
		return
	}
	var req BoostPetitionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid request body",
		)
		return
	}
	paid, err := parseAmount(req.Paid)
	if err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid paid amount",
		)
		return
	}
	if err := a.node.BoostPetition(
		identity.Identity(req.Caller),
		id,
		paid,
	); err != nil {
		writeCoreError(w, err)
		return
	}
	p, err := a.node.GetPetition(id)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(
		w,
		http.StatusOK,
		newPetitionResponse(p, time.Now()),
	)
}

// handleHasSigned handles GET
// /api/v1/petitions/{id}/signed/{address}.
func (a *Api) handleHasSigned(
	w http.ResponseWriter,
	r *http.Request,
) {
	id, ok := pathId(r)
	if !ok {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid petition id",
		)
		return
	}
	addr := r.PathValue("address")
	signed, err := a.node.HasUserSigned(
		id,
		identity.Identity(addr),
	)
	if err != nil {
		writeCoreError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, SignedResponse{
		Id:     id,
		Signer: addr,
		Signed: signed,
	})
}

// handleMintMembership handles POST /api/v1/members.
func (a *Api) handleMintMembership(
	w http.ResponseWriter,
	r *http.Request,
) {
	var req MintMembershipRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"invalid request body",
		)
		return
	}
	caller := identity.Identity(req.Caller)
	if caller.IsNone() {
		writeError(
			w,
			http.StatusBadRequest,
			"BadRequest",
			"caller is required",
		)
		return
	}
	if err := a.node.MintMembership(caller); err != nil {
		writeCoreError(w, err)
		return
	}
	m, ok := a.node.Member(caller)
	writeJSON(
		w,
		http.StatusCreated,
		newMemberResponse(req.Caller, m, ok),
	)
}

// handleGetMember handles GET /api/v1/members/{address}.
func (a *Api) handleGetMember(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr := r.PathValue("address")
	m, ok := a.node.Member(identity.Identity(addr))
	writeJSON(
		w,
		http.StatusOK,
		newMemberResponse(addr, m, ok),
	)
}

// handleGetBalance handles GET /api/v1/balances/{address}.
func (a *Api) handleGetBalance(
	w http.ResponseWriter,
	r *http.Request,
) {
	addr := r.PathValue("address")
	balance := a.node.BalanceOf(identity.Identity(addr))
	writeJSON(w, http.StatusOK, BalanceResponse{
		Address: addr,
		Balance: formatAmount(balance),
	})
}

// handleGetPricing handles GET /api/v1/pricing.
func (a *Api) handleGetPricing(
	w http.ResponseWriter,
	_ *http.Request,
) {
	info := a.node.PricingInfo()
	writeJSON(w, http.StatusOK, PricingResponse{
		BaseCampaignFee: formatAmount(info.BaseCampaignFee),
		BoostingFee:     formatAmount(info.BoostingFee),
		RewardThreshold: info.RewardThreshold,
	})
}

// handleGetStats handles GET /api/v1/stats.
func (a *Api) handleGetStats(
	w http.ResponseWriter,
	_ *http.Request,
) {
	stats := a.node.Stats()
	writeJSON(w, http.StatusOK, StatsResponse{
		TotalMembers:   stats.TotalMembers,
		TotalPetitions: stats.TotalPetitions,
		TotalCreditMinted: formatAmount(
			stats.TotalCreditMinted,
		),
		TotalCreditBurned: formatAmount(
			stats.TotalCreditBurned,
		),
		Timestamp: stats.Timestamp.Unix(),
	})
}
