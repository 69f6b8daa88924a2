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

// Package membership implements the soulbound membership registry: at
// most one credential per identity, never transferable, never burnable
// by the holder. Membership gates petition creation and total supply is
// monotonically non-decreasing.
package membership

import (
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/event"
	"github.com/ruddypp/sofcialfi/identity"
)

const MintedEventType event.EventType = "membership.minted"

type MintedEvent struct {
	Holder    identity.Identity
	Timestamp time.Time
}

// Membership records a single soulbound credential
type Membership struct {
	Holder   identity.Identity
	MintedAt time.Time
}

type RegistryConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
	Ledger       *credit.Ledger
	// Self is the identity this registry presents to the credit
	// ledger when minting the welcome bonus
	Self identity.Identity
	// WelcomeBonus is credited to every new member at mint time.
	// Zero disables the bonus.
	WelcomeBonus credit.Amount
	// Now supplies the current time; defaults to time.Now
	Now func() time.Time
}

type Registry struct {
	metrics struct {
		membersTotal prometheus.Gauge
	}
	logger       *slog.Logger
	eventBus     *event.EventBus
	ledger       *credit.Ledger
	now          func() time.Time
	members      map[identity.Identity]Membership
	self         identity.Identity
	petitions    identity.Identity
	welcomeBonus credit.Amount
	wired        bool
	mu           sync.RWMutex
}

func NewRegistry(config RegistryConfig) *Registry {
	r := &Registry{
		eventBus:     config.EventBus,
		ledger:       config.Ledger,
		members:      make(map[identity.Identity]Membership),
		self:         config.Self,
		welcomeBonus: config.WelcomeBonus,
		now:          config.Now,
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		r.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		r.logger = config.Logger
	}
	if r.now == nil {
		r.now = time.Now
	}
	if config.PromRegistry != nil {
		r.metrics.membersTotal = promauto.With(config.PromRegistry).NewGauge(
			prometheus.GaugeOpts{
				Name: "sofcialfi_members_total",
				Help: "current count of minted memberships",
			},
		)
	}
	return r
}

// SetPetitionRegistry wires the one-time back-reference to the petition
// registry. A second attempt fails with AlreadyConfiguredError.
func (r *Registry) SetPetitionRegistry(addr identity.Identity) error {
	if addr.IsNone() {
		return &InvalidConfigError{
			Reason: "petition registry identity must not be empty",
		}
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.wired {
		return &AlreadyConfiguredError{}
	}
	r.petitions = addr
	r.wired = true
	r.logger.Info(
		"wired petition registry",
		"component", "membership",
		"petitions", addr,
	)
	return nil
}

// PetitionRegistry returns the wired petition registry reference, if any
func (r *Registry) PetitionRegistry() (identity.Identity, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.petitions, r.wired
}

// Mint records a membership for the caller. Membership is earn-by-call:
// no payment is required, but each identity can mint at most once. New
// members receive the configured credit welcome bonus.
func (r *Registry) Mint(caller identity.Identity) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.members[caller]; ok {
		return &AlreadyMemberError{Holder: caller}
	}
	// Check the bonus mint up front so a ledger failure leaves no
	// membership behind
	if r.welcomeBonus > 0 && r.ledger != nil {
		if err := r.ledger.CheckMint(caller, r.welcomeBonus); err != nil {
			return err
		}
	}
	m := Membership{
		Holder:   caller,
		MintedAt: r.now(),
	}
	r.members[caller] = m
	if r.welcomeBonus > 0 && r.ledger != nil {
		if err := r.ledger.Mint(r.self, caller, r.welcomeBonus); err != nil {
			// CheckMint passed under our lock, so only a wiring
			// mistake gets us here; undo the membership record
			delete(r.members, caller)
			return err
		}
	}
	r.logger.Info(
		"minted membership",
		"component", "membership",
		"holder", caller,
	)
	if r.metrics.membersTotal != nil {
		r.metrics.membersTotal.Inc()
	}
	if r.eventBus != nil {
		r.eventBus.Publish(
			MintedEventType,
			event.NewEvent(
				MintedEventType,
				MintedEvent{
					Holder:    caller,
					Timestamp: m.MintedAt,
				},
			),
		)
	}
	return nil
}

// IsMember returns true if the identity holds a membership
func (r *Registry) IsMember(id identity.Identity) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.members[id]
	return ok
}

// HasMinted returns true if the identity has ever minted a membership.
// With no burn path this is identical to IsMember; it is kept as a
// distinct call so a future burn-on-leave design can diverge without
// breaking callers.
func (r *Registry) HasMinted(id identity.Identity) bool {
	return r.IsMember(id)
}

// Member returns the membership record for an identity
func (r *Registry) Member(id identity.Identity) (Membership, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	m, ok := r.members[id]
	return m, ok
}

// TotalSupply returns the count of live memberships
func (r *Registry) TotalSupply() uint64 {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return uint64(len(r.members))
}

// Snapshot captures the full registry state for persistence
type Snapshot struct {
	Members   map[identity.Identity]Membership `json:"members"`
	Petitions identity.Identity                `json:"petitions"`
	Wired     bool                             `json:"wired"`
}

// Snapshot returns a copy of the full registry state
func (r *Registry) Snapshot() Snapshot {
	r.mu.RLock()
	defer r.mu.RUnlock()
	members := make(map[identity.Identity]Membership, len(r.members))
	for id, m := range r.members {
		members[id] = m
	}
	return Snapshot{
		Members:   members,
		Petitions: r.petitions,
		Wired:     r.wired,
	}
}

// Restore replaces the registry state with the snapshot contents
func (r *Registry) Restore(snap Snapshot) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.members = make(map[identity.Identity]Membership, len(snap.Members))
	for id, m := range snap.Members {
		r.members[id] = m
	}
	r.petitions = snap.Petitions
	r.wired = snap.Wired
	if r.metrics.membersTotal != nil {
		r.metrics.membersTotal.Set(float64(len(r.members)))
	}
}
