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
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/ruddypp/sofcialfi"
	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/identity"
	"github.com/ruddypp/sofcialfi/membership"
	"github.com/ruddypp/sofcialfi/petition"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// mockNode implements PlatformNode for testing.
type mockNode struct {
	mintErr      error
	members      map[identity.Identity]membership.Membership
	balance      credit.Amount
	createId     uint64
	createErr    error
	signErr      error
	boostErr     error
	signed       bool
	signedErr    error
	petition     petition.Petition
	petitionErr  error
	petitions    []petition.Petition
	boostedView  []petition.Petition
	boosted      bool
	boostedErr   error
	pricing      petition.PricingInfo
	stats        sofcialfi.Stats
	totalMembers uint64
}

func (m *mockNode) MintMembership(caller identity.Identity) error {
	if m.mintErr != nil {
		return m.mintErr
	}
	if m.members == nil {
		m.members = make(map[identity.Identity]membership.Membership)
	}
	m.members[caller] = membership.Membership{
		Holder:   caller,
		MintedAt: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC),
	}
	return nil
}

func (m *mockNode) IsMember(id identity.Identity) bool {
	_, ok := m.members[id]
	return ok
}

func (m *mockNode) Member(
	id identity.Identity,
) (membership.Membership, bool) {
	rec, ok := m.members[id]
	return rec, ok
}

func (m *mockNode) TotalMembers() uint64 {
	return m.totalMembers
}

func (m *mockNode) BalanceOf(id identity.Identity) credit.Amount {
	return m.balance
}

func (m *mockNode) CreatePetition(
	creator identity.Identity,
	title string,
	description string,
	contentHash string,
	useToken bool,
	paid credit.Amount,
) (uint64, error) {
	return m.createId, m.createErr
}

func (m *mockNode) SignPetition(
	signer identity.Identity,
	id uint64,
) error {
	return m.signErr
}

func (m *mockNode) BoostPetition(
	caller identity.Identity,
	id uint64,
	paid credit.Amount,
) error {
	return m.boostErr
}

func (m *mockNode) HasUserSigned(
	id uint64,
	signer identity.Identity,
) (bool, error) {
	return m.signed, m.signedErr
}

func (m *mockNode) GetPetition(id uint64) (petition.Petition, error) {
	return m.petition, m.petitionErr
}

func (m *mockNode) Petitions() []petition.Petition {
	return m.petitions
}

func (m *mockNode) BoostedPetitions() []petition.Petition {
	return m.boostedView
}

func (m *mockNode) IsPetitionBoosted(id uint64) (bool, error) {
	return m.boosted, m.boostedErr
}

func (m *mockNode) PricingInfo() petition.PricingInfo {
	return m.pricing
}

func (m *mockNode) Stats() sofcialfi.Stats {
	return m.stats
}

func newTestApi(node PlatformNode) *Api {
	return New(
		ApiConfig{
			ListenAddress: ":0",
		},
		node,
		nil,
	)
}

func TestStartStop(t *testing.T) {
	mock := &mockNode{}
	a := newTestApi(mock)

	err := a.Start(t.Context())
	require.NoError(t, err)

	// Verify server is running
	a.mu.Lock()
	assert.NotNil(t, a.httpServer)
	a.mu.Unlock()

	// Stop the server
	stopCtx, stopCancel := context.WithTimeout(
		context.Background(),
		5*time.Second,
	)
	defer stopCancel()
	err = a.Stop(stopCtx)
	require.NoError(t, err)

	// Verify server is stopped
	a.mu.Lock()
	assert.Nil(t, a.httpServer)
	a.mu.Unlock()
}

func TestStartAlreadyStarted(t *testing.T) {
	mock := &mockNode{}
	a := newTestApi(mock)

	ctx := t.Context()
	err := a.Start(ctx)
	require.NoError(t, err)
	defer func() {
		stopCtx, stopCancel := context.WithTimeout(
			context.Background(),
			5*time.Second,
		)
		defer stopCancel()
		_ = a.Stop(stopCtx)
	}()

	// Starting again should error
	err = a.Start(ctx)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "already started")
}

func TestHandleRoot(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	w := httptest.NewRecorder()
	a.handleRoot(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(
		t,
		"application/json",
		w.Header().Get("Content-Type"),
	)

	var resp RootResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "sofcialfi", resp.Name)
	assert.Equal(t, "0.1.0", resp.Version)
}

func TestHandleHealth(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()
	a.handleHealth(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp HealthResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.IsHealthy)
}

func TestHandleMintMembership(t *testing.T) {
	a := newTestApi(&mockNode{})

	body := strings.NewReader(`{"caller":"addr1"}`)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/members", body,
	)
	w := httptest.NewRecorder()
	a.handleMintMembership(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp MemberResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "addr1", resp.Address)
	assert.True(t, resp.IsMember)
	assert.True(t, resp.HasMinted)
}

func TestHandleMintMembershipConflict(t *testing.T) {
	a := newTestApi(&mockNode{
		mintErr: &membership.AlreadyMemberError{Holder: "addr1"},
	})

	body := strings.NewReader(`{"caller":"addr1"}`)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/members", body,
	)
	w := httptest.NewRecorder()
	a.handleMintMembership(w, req)

	assert.Equal(t, http.StatusConflict, w.Code)

	var resp ErrorResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "AlreadyMember", resp.Error)
}

func TestHandleMintMembershipMissingCaller(t *testing.T) {
	a := newTestApi(&mockNode{})

	body := strings.NewReader(`{}`)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/members", body,
	)
	w := httptest.NewRecorder()
	a.handleMintMembership(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleCreatePetition(t *testing.T) {
	a := newTestApi(&mockNode{createId: 7})

	body := strings.NewReader(
		`{"creator":"addr1","title":"t","description":"d",` +
			`"content_hash":"h","paid":"1000000000000000"}`,
	)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/petitions", body,
	)
	w := httptest.NewRecorder()
	a.handleCreatePetition(w, req)

	assert.Equal(t, http.StatusCreated, w.Code)

	var resp CreatePetitionResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(7), resp.Id)
}

func TestHandleCreatePetitionErrors(t *testing.T) {
	testDefs := []struct {
		name       string
		err        error
		wantStatus int
		wantKind   string
	}{
		{
			name:       "not a member",
			err:        &petition.NotAMemberError{Caller: "addr1"},
			wantStatus: http.StatusForbidden,
			wantKind:   "NotAMember",
		},
		{
			name: "insufficient payment",
			err: &petition.InsufficientPaymentError{
				Required: 10,
				Paid:     1,
			},
			wantStatus: http.StatusPaymentRequired,
			wantKind:   "InsufficientPayment",
		},
		{
			name: "unexpected payment",
			err: &petition.UnexpectedPaymentError{
				Expected: 0,
				Paid:     1,
			},
			wantStatus: http.StatusBadRequest,
			wantKind:   "UnexpectedPayment",
		},
		{
			name: "insufficient balance",
			err: &credit.InsufficientBalanceError{
				Holder:  "addr1",
				Balance: 1,
				Amount:  10,
			},
			wantStatus: http.StatusPaymentRequired,
			wantKind:   "InsufficientBalance",
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			a := newTestApi(&mockNode{createErr: testDef.err})
			body := strings.NewReader(
				`{"creator":"addr1","title":"t"}`,
			)
			req := httptest.NewRequest(
				http.MethodPost, "/api/v1/petitions", body,
			)
			w := httptest.NewRecorder()
			a.handleCreatePetition(w, req)

			assert.Equal(t, testDef.wantStatus, w.Code)
			var resp ErrorResponse
			err := json.NewDecoder(w.Body).Decode(&resp)
			require.NoError(t, err)
			assert.Equal(t, testDef.wantKind, resp.Error)
		})
	}
}

func TestHandleCreatePetitionInvalidPaid(t *testing.T) {
	a := newTestApi(&mockNode{})

	body := strings.NewReader(
		`{"creator":"addr1","title":"t","paid":"not-a-number"}`,
	)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/petitions", body,
	)
	w := httptest.NewRecorder()
	a.handleCreatePetition(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleGetPetition(t *testing.T) {
	created := time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)
	a := newTestApi(&mockNode{
		petition: petition.Petition{
			Id:             3,
			Creator:        "addr1",
			Title:          "Fix the bridge",
			CreatedAt:      created,
			SignatureCount: 4,
		},
	})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/petitions/3", nil,
	)
	req.SetPathValue("id", "3")
	w := httptest.NewRecorder()
	a.handleGetPetition(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp PetitionResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(3), resp.Id)
	assert.Equal(t, "addr1", resp.Creator)
	assert.Equal(t, "Fix the bridge", resp.Title)
	assert.Equal(t, created.Unix(), resp.CreatedAt)
	assert.Equal(t, uint64(4), resp.SignatureCount)
	assert.False(t, resp.Boosted)
	assert.Equal(t, int64(0), resp.BoostEndTime)
}

func TestHandleGetPetitionNotFound(t *testing.T) {
	a := newTestApi(&mockNode{
		petitionErr: &petition.NotFoundError{Id: 42},
	})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/petitions/42", nil,
	)
	req.SetPathValue("id", "42")
	w := httptest.NewRecorder()
	a.handleGetPetition(w, req)

	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestHandleGetPetitionBadId(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/petitions/abc", nil,
	)
	req.SetPathValue("id", "abc")
	w := httptest.NewRecorder()
	a.handleGetPetition(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleSignPetitionConflicts(t *testing.T) {
	testDefs := []struct {
		name       string
		err        error
		wantStatus int
	}{
		{
			name:       "self sign",
			err:        &petition.SelfSignError{Id: 0, Signer: "addr1"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "already signed",
			err:        &petition.AlreadySignedError{Id: 0, Signer: "addr2"},
			wantStatus: http.StatusConflict,
		},
		{
			name:       "not found",
			err:        &petition.NotFoundError{Id: 0},
			wantStatus: http.StatusNotFound,
		},
	}
	for _, testDef := range testDefs {
		t.Run(testDef.name, func(t *testing.T) {
			a := newTestApi(&mockNode{signErr: testDef.err})
			body := strings.NewReader(`{"signer":"addr2"}`)
			req := httptest.NewRequest(
				http.MethodPost, "/api/v1/petitions/0/sign", body,
			)
			req.SetPathValue("id", "0")
			w := httptest.NewRecorder()
			a.handleSignPetition(w, req)

			assert.Equal(t, testDef.wantStatus, w.Code)
		})
	}
}

func TestHandleBoostPetition(t *testing.T) {
	boostEnd := time.Now().Add(time.Hour)
	a := newTestApi(&mockNode{
		petition: petition.Petition{
			Id:            0,
			Creator:       "addr1",
			BoostEndTime:  boostEnd,
			BoostPriority: 1,
		},
	})

	body := strings.NewReader(
		`{"caller":"addr2","paid":"500000000000000"}`,
	)
	req := httptest.NewRequest(
		http.MethodPost, "/api/v1/petitions/0/boost", body,
	)
	req.SetPathValue("id", "0")
	w := httptest.NewRecorder()
	a.handleBoostPetition(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var resp PetitionResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.Boosted)
	assert.Equal(t, uint64(1), resp.BoostPriority)
	assert.Equal(t, boostEnd.Unix(), resp.BoostEndTime)
}

func TestHandleListPetitions(t *testing.T) {
	a := newTestApi(&mockNode{
		petitions: []petition.Petition{
			{Id: 0, Title: "first"},
			{Id: 1, Title: "second"},
		},
		boostedView: []petition.Petition{
			{Id: 1, Title: "second"},
			{Id: 0, Title: "first"},
		},
	})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/petitions", nil,
	)
	w := httptest.NewRecorder()
	a.handleListPetitions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp []PetitionResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, uint64(0), resp[0].Id)

	// The boosted view reorders
	req = httptest.NewRequest(
		http.MethodGet, "/api/v1/petitions?view=boosted", nil,
	)
	w = httptest.NewRecorder()
	a.handleListPetitions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	err = json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	require.Len(t, resp, 2)
	assert.Equal(t, uint64(1), resp[0].Id)
}

func TestHandleListPetitionsEmpty(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/petitions", nil,
	)
	w := httptest.NewRecorder()
	a.handleListPetitions(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	// Empty list, not null
	assert.Equal(t, "[]\n", w.Body.String())
}

func TestHandleGetBalance(t *testing.T) {
	a := newTestApi(&mockNode{
		balance: 10 * credit.TokenUnit,
	})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/balances/addr1", nil,
	)
	req.SetPathValue("address", "addr1")
	w := httptest.NewRecorder()
	a.handleGetBalance(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp BalanceResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "addr1", resp.Address)
	// Amounts travel as strings to survive JavaScript clients
	assert.Equal(t, "10000000000000000000", resp.Balance)
}

func TestHandleGetMemberUnknown(t *testing.T) {
	a := newTestApi(&mockNode{})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/members/addr9", nil,
	)
	req.SetPathValue("address", "addr9")
	w := httptest.NewRecorder()
	a.handleGetMember(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp MemberResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.False(t, resp.IsMember)
	assert.False(t, resp.HasMinted)
}

func TestHandleGetPricing(t *testing.T) {
	a := newTestApi(&mockNode{
		pricing: petition.PricingInfo{
			BaseCampaignFee: 1000,
			BoostingFee:     500,
			RewardThreshold: 5,
		},
	})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/pricing", nil,
	)
	w := httptest.NewRecorder()
	a.handleGetPricing(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp PricingResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, "1000", resp.BaseCampaignFee)
	assert.Equal(t, "500", resp.BoostingFee)
	assert.Equal(t, uint64(5), resp.RewardThreshold)
}

func TestHandleGetStats(t *testing.T) {
	now := time.Now()
	a := newTestApi(&mockNode{
		stats: sofcialfi.Stats{
			TotalMembers:      2,
			TotalPetitions:    3,
			TotalCreditMinted: 20 * credit.TokenUnit,
			TotalCreditBurned: credit.TokenUnit,
			Timestamp:         now,
		},
	})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/stats", nil,
	)
	w := httptest.NewRecorder()
	a.handleGetStats(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp StatsResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.Equal(t, uint64(2), resp.TotalMembers)
	assert.Equal(t, uint64(3), resp.TotalPetitions)
	assert.Equal(t, "20000000000000000000", resp.TotalCreditMinted)
	assert.Equal(t, "1000000000000000000", resp.TotalCreditBurned)
	assert.Equal(t, now.Unix(), resp.Timestamp)
}

func TestHandleHasSigned(t *testing.T) {
	a := newTestApi(&mockNode{signed: true})

	req := httptest.NewRequest(
		http.MethodGet, "/api/v1/petitions/0/signed/addr2", nil,
	)
	req.SetPathValue("id", "0")
	req.SetPathValue("address", "addr2")
	w := httptest.NewRecorder()
	a.handleHasSigned(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp SignedResponse
	err := json.NewDecoder(w.Body).Decode(&resp)
	require.NoError(t, err)
	assert.True(t, resp.Signed)
	assert.Equal(t, "addr2", resp.Signer)
}
