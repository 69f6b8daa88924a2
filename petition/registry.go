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

// Package petition implements the petition registry state machine:
// membership-gated creation paid natively or by credit burn, signature
// collection with de-duplication, time-boxed display boosting, and
// threshold-triggered creator rewards. Petitions are append-only and
// never deleted; every failed call leaves registry state untouched.
package petition

import (
	"io"
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/event"
	"github.com/ruddypp/sofcialfi/identity"
)

const (
	CreatedEventType event.EventType = "petition.created"
	SignedEventType  event.EventType = "petition.signed"
	BoostedEventType event.EventType = "petition.boosted"
	RewardEventType  event.EventType = "reward.issued"
)

// DefaultBoostWindow is how long a boost elevates display priority
const DefaultBoostWindow = 7 * 24 * time.Hour

type CreatedEvent struct {
	Id      uint64
	Creator identity.Identity
	Title   string
}

type SignedEvent struct {
	Id       uint64
	Signer   identity.Identity
	NewCount uint64
}

type BoostedEvent struct {
	Id            uint64
	Caller        identity.Identity
	BoostEndTime  time.Time
	BoostPriority uint64
}

type RewardEvent struct {
	Id        uint64
	Recipient identity.Identity
	Amount    credit.Amount
}

// Petition is the by-value copy returned to callers. The signer set is
// held internally for de-duplication and queried via HasUserSigned.
type Petition struct {
	Id             uint64
	Creator        identity.Identity
	Title          string
	Description    string
	ContentHash    string
	CreatedAt      time.Time
	SignatureCount uint64
	// BoostEndTime is zero when the petition has never been boosted
	BoostEndTime  time.Time
	BoostPriority uint64
}

type record struct {
	Petition
	signers map[identity.Identity]struct{}
}

// MembershipChecker is the gating interface the registry needs from the
// membership registry
type MembershipChecker interface {
	IsMember(id identity.Identity) bool
}

// CreditLedger is the payment/reward interface the registry needs from
// the credit ledger
type CreditLedger interface {
	Mint(controller, to identity.Identity, amount credit.Amount) error
	Burn(controller, from identity.Identity, amount credit.Amount) error
	CheckMint(to identity.Identity, amount credit.Amount) error
}

type RegistryConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Ledger       CreditLedger
	Members      MembershipChecker
	// Self is the identity this registry presents to the credit
	// ledger when burning fees and minting rewards
	Self identity.Identity
	// Pricing defaults to DefaultPricing() when zero-valued
	Pricing PricingConfig
	// BoostWindow defaults to DefaultBoostWindow
	BoostWindow time.Duration
	// Now supplies the current time; defaults to time.Now
	Now func() time.Time
}

type Registry struct {
	metrics struct {
		petitionsTotal  prometheus.Gauge
		signaturesTotal prometheus.Counter
		boostsTotal     prometheus.Counter
		rewardsTotal    prometheus.Counter
	}
	logger       *slog.Logger
	eventBus     *event.EventBus
	ledger       CreditLedger
	members      MembershipChecker
	now          func() time.Time
	petitions    []*record
	self         identity.Identity
	pricing      PricingConfig
	boostWindow  time.Duration
	boostCounter uint64
	mu           sync.RWMutex
}

func NewRegistry(config RegistryConfig) (*Registry, error) {
	pricing := config.Pricing
	if pricing == (PricingConfig{}) {
		pricing = DefaultPricing()
	}
	if err := pricing.Validate(); err != nil {
		return nil, err
	}
	r := &Registry{
		eventBus:    config.EventBus,
		ledger:      config.Ledger,
		members:     config.Members,
		self:        config.Self,
		pricing:     pricing,
		boostWindow: config.BoostWindow,
		now:         config.Now,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		r.logger = config.Logger
	}
	if r.boostWindow <= 0 {
		r.boostWindow = DefaultBoostWindow
	}
	if r.now == nil {
		r.now = time.Now
	}
	if config.PromRegistry != nil {
		promautoFactory := promauto.With(config.PromRegistry)
		r.metrics.petitionsTotal = promautoFactory.NewGauge(
			prometheus.GaugeOpts{
				Name: "sofcialfi_petitions_total",
				Help: "current count of petitions",
			},
		)
		r.metrics.signaturesTotal = promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "sofcialfi_signatures_total",
				Help: "total accepted signatures",
			},
		)
		r.metrics.boostsTotal = promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "sofcialfi_boosts_total",
				Help: "total accepted boosts",
			},
		)
		r.metrics.rewardsTotal = promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "sofcialfi_rewards_issued_total",
				Help: "total threshold rewards issued",
			},
		)
	}
	return r, nil
}

// CreatePetition creates a new petition for a member, paying either by
// credit burn (useToken) or by exact native fee. The operation is
// all-or-nothing: every fallible check runs before the first state
// change, so a failed call leaves the registry and ledger untouched.
func (r *Registry) CreatePetition(
	creator identity.Identity,
	title string,
	description string,
	contentHash string,
	useToken bool,
	paid credit.Amount,
) (uint64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.members == nil || !r.members.IsMember(creator) {
		return 0, &NotAMemberError{Caller: creator}
	}
	if useToken {
		// Token payment consumes no native currency; reject any
		// supplied amount instead of silently keeping it
		if paid != 0 {
			return 0, &UnexpectedPaymentError{Expected: 0, Paid: paid}
		}
	} else {
		if paid < r.pricing.BaseCampaignFee {
			return 0, &InsufficientPaymentError{
				Required: r.pricing.BaseCampaignFee,
				Paid:     paid,
			}
		}
		// Exact-fee policy: overpayment is rejected, not kept
		if paid > r.pricing.BaseCampaignFee {
			return 0, &UnexpectedPaymentError{
				Expected: r.pricing.BaseCampaignFee,
				Paid:     paid,
			}
		}
	}
	id := uint64(len(r.petitions))
	rewarded := (id+1)%r.pricing.RewardThreshold == 0
	if rewarded {
		// Prove the reward mint cannot fail before burning the fee
		// or appending the petition
		if err := r.ledger.CheckMint(creator, r.pricing.RewardAmount); err != nil {
			return 0, err
		}
	}
	if useToken {
		if err := r.ledger.Burn(r.self, creator, r.pricing.TokenCampaignCost); err != nil {
			return 0, err
		}
	}
	rec := &record{
		Petition: Petition{
			Id:          id,
			Creator:     creator,
			Title:       title,
			Description: description,
			ContentHash: contentHash,
			CreatedAt:   r.now(),
		},
		signers: make(map[identity.Identity]struct{}),
	}
	r.petitions = append(r.petitions, rec)
	r.logger.Info(
		"created petition",
		"component", "petition",
		"id", id,
		"creator", creator,
		"use_token", useToken,
	)
	if r.metrics.petitionsTotal != nil {
		r.metrics.petitionsTotal.Inc()
	}
	if r.eventBus != nil {
		r.eventBus.Publish(
			CreatedEventType,
			event.NewEvent(
				CreatedEventType,
				CreatedEvent{
					Id:      id,
					Creator: creator,
					Title:   title,
				},
			),
		)
	}
	if rewarded {
		// CheckMint above makes this infallible within the call
		if err := r.ledger.Mint(r.self, creator, r.pricing.RewardAmount); err != nil {
			r.logger.Error(
				"reward mint failed after precheck",
				"component", "petition",
				"id", id,
				"error", err,
			)
		} else {
			r.logger.Info(
				"issued threshold reward",
				"component", "petition",
				"id", id,
				"recipient", creator,
				"amount", uint64(r.pricing.RewardAmount),
			)
			if r.metrics.rewardsTotal != nil {
				r.metrics.rewardsTotal.Inc()
			}
			if r.eventBus != nil {
				r.eventBus.Publish(
					RewardEventType,
					event.NewEvent(
						RewardEventType,
						RewardEvent{
							Id:        id,
							Recipient: creator,
							Amount:    r.pricing.RewardAmount,
						},
					),
				)
			}
		}
	}
	return id, nil
}

// SignPetition records a signature. Creators cannot sign their own
// petitions and each identity signs at most once. Signing is not
// membership-gated; only creation is.
func (r *Registry) SignPetition(
	signer identity.Identity,
	id uint64,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.record(id)
	if err != nil {
		return err
	}
	if signer == rec.Creator {
		return &SelfSignError{Id: id, Signer: signer}
	}
	if _, ok := rec.signers[signer]; ok {
		return &AlreadySignedError{Id: id, Signer: signer}
	}
	rec.signers[signer] = struct{}{}
	rec.SignatureCount++
	r.logger.Debug(
		"signed petition",
		"component", "petition",
		"id", id,
		"signer", signer,
		"signatures", rec.SignatureCount,
	)
	if r.metrics.signaturesTotal != nil {
		r.metrics.signaturesTotal.Inc()
	}
	if r.eventBus != nil {
		r.eventBus.Publish(
			SignedEventType,
			event.NewEvent(
				SignedEventType,
				SignedEvent{
					Id:       id,
					Signer:   signer,
					NewCount: rec.SignatureCount,
				},
			),
		)
	}
	return nil
}

// BoostPetition pays the boosting fee to elevate a petition's display
// priority until the boost window closes. Re-boosting replaces the
// window and bumps the priority again; the most recent boost always
// sorts first among live boosts.
func (r *Registry) BoostPetition(
	caller identity.Identity,
	id uint64,
	paid credit.Amount,
) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	rec, err := r.record(id)
	if err != nil {
		return err
	}
	if paid < r.pricing.BoostingFee {
		return &InsufficientPaymentError{
			Required: r.pricing.BoostingFee,
			Paid:     paid,
		}
	}
	// Exact-fee policy: overpayment is rejected, not kept
	if paid > r.pricing.BoostingFee {
		return &UnexpectedPaymentError{
			Expected: r.pricing.BoostingFee,
			Paid:     paid,
		}
	}
	r.boostCounter++
	rec.BoostEndTime = r.now().Add(r.boostWindow)
	rec.BoostPriority = r.boostCounter
	r.logger.Info(
		"boosted petition",
		"component", "petition",
		"id", id,
		"caller", caller,
		"boost_end", rec.BoostEndTime,
		"boost_priority", rec.BoostPriority,
	)
	if r.metrics.boostsTotal != nil {
		r.metrics.boostsTotal.Inc()
	}
	if r.eventBus != nil {
		r.eventBus.Publish(
			BoostedEventType,
			event.NewEvent(
				BoostedEventType,
				BoostedEvent{
					Id:            id,
					Caller:        caller,
					BoostEndTime:  rec.BoostEndTime,
					BoostPriority: rec.BoostPriority,
				},
			),
		)
	}
	return nil
}

// HasUserSigned returns true if the signer has signed the petition
func (r *Registry) HasUserSigned(
	id uint64,
	signer identity.Identity,
) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, err := r.record(id)
	if err != nil {
		return false, err
	}
	_, ok := rec.signers[signer]
	return ok, nil
}

// GetPetition returns a by-value copy of the petition
func (r *Registry) GetPetition(id uint64) (Petition, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, err := r.record(id)
	if err != nil {
		return Petition{}, err
	}
	return rec.Petition, nil
}

// GetAllPetitions returns copies of all petitions in insertion order
// (id ascending). Boosting affects display priority via BoostedView,
// not storage order.
func (r *Registry) GetAllPetitions() []Petition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	ret := make([]Petition, len(r.petitions))
	for i, rec := range r.petitions {
		ret[i] = rec.Petition
	}
	return ret
}

// BoostedView returns all petitions in display order: currently
// boosted petitions first, ordered by boost priority descending
// (most recent boost first), then the rest by id ascending. The
// ordering is derived at call time; storage order never changes.
func (r *Registry) BoostedView() []Petition {
	r.mu.RLock()
	defer r.mu.RUnlock()
	now := r.now()
	boosted := make([]Petition, 0)
	rest := make([]Petition, 0, len(r.petitions))
	for _, rec := range r.petitions {
		if rec.BoostEndTime.After(now) {
			boosted = append(boosted, rec.Petition)
		} else {
			rest = append(rest, rec.Petition)
		}
	}
	sort.Slice(boosted, func(i, j int) bool {
		return boosted[i].BoostPriority > boosted[j].BoostPriority
	})
	return append(boosted, rest...)
}

// GetTotalPetitions returns the number of petitions ever created
func (r *Registry) GetTotalPetitions() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.petitions))
}

// IsPetitionBoosted returns true if the petition's boost window is
// still open
func (r *Registry) IsPetitionBoosted(id uint64) (bool, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	rec, err := r.record(id)
	if err != nil {
		return false, err
	}
	return rec.BoostEndTime.After(r.now()), nil
}

// GetPricingInfo returns a read-only snapshot of the fee schedule
func (r *Registry) GetPricingInfo() PricingInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return PricingInfo{
		BaseCampaignFee: r.pricing.BaseCampaignFee,
		BoostingFee:     r.pricing.BoostingFee,
		RewardThreshold: r.pricing.RewardThreshold,
	}
}

// UpdatePricing replaces the fee schedule going forward. The host is
// the administrative boundary; callers must gate access before
// invoking this. Recorded petitions are unaffected.
func (r *Registry) UpdatePricing(pricing PricingConfig) error {
	if err := pricing.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.pricing = pricing
	r.logger.Info(
		"updated pricing",
		"component", "petition",
		"base_fee", uint64(pricing.BaseCampaignFee),
		"token_cost", uint64(pricing.TokenCampaignCost),
		"boost_fee", uint64(pricing.BoostingFee),
		"reward_threshold", pricing.RewardThreshold,
		"reward_amount", uint64(pricing.RewardAmount),
	)
	return nil
}

func (r *Registry) record(id uint64) (*record, error) {
	if id >= uint64(len(r.petitions)) {
		return nil, &NotFoundError{Id: id}
	}
	return r.petitions[id], nil
}

// PetitionState is the persisted form of a petition, including its
// signer set
type PetitionState struct {
	Petition
	Signers []identity.Identity `json:"signers"`
}

// Snapshot captures the full registry state for persistence
type Snapshot struct {
	Petitions    []PetitionState `json:"petitions"`
	BoostCounter uint64          `json:"boostCounter"`
	Pricing      PricingConfig   `json:"pricing"`
}

// Snapshot returns a copy of the full registry state
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	petitions := make([]PetitionState, len(r.petitions))
	for i, rec := range r.petitions {
		signers := make([]identity.Identity, 0, len(rec.signers))
		for signer := range rec.signers {
			signers = append(signers, signer)
		}
		sort.Slice(signers, func(a, b int) bool {
			return signers[a] < signers[b]
		})
		petitions[i] = PetitionState{
			Petition: rec.Petition,
			Signers:  signers,
		}
	}
	return Snapshot{
		Petitions:    petitions,
		BoostCounter: r.boostCounter,
		Pricing:      r.pricing,
	}
}

// Restore replaces the registry state with the snapshot contents
func (r *Registry) Restore(snap Snapshot) error {
	if err := snap.Pricing.Validate(); err != nil {
		return err
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	petitions := make([]*record, len(snap.Petitions))
	for i, ps := range snap.Petitions {
		rec := &record{
			Petition: ps.Petition,
			signers:  make(map[identity.Identity]struct{}, len(ps.Signers)),
		}
		for _, signer := range ps.Signers {
			rec.signers[signer] = struct{}{}
		}
		petitions[i] = rec
	}
	r.petitions = petitions
	r.boostCounter = snap.BoostCounter
	r.pricing = snap.Pricing
	if r.metrics.petitionsTotal != nil {
		r.metrics.petitionsTotal.Set(float64(len(r.petitions)))
	}
	return nil
}
