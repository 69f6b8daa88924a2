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

// Package sofcialfi assembles the petition platform core: the credit
// ledger, the soulbound membership registry, and the petition registry,
// wired together once at construction and exposed through a single
// serialized call surface. The platform is a deterministic in-process
// state machine; transaction signing, key management, and networking
// belong to the host.
package sofcialfi

import (
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/database"
	"github.com/ruddypp/sofcialfi/event"
	"github.com/ruddypp/sofcialfi/identity"
	"github.com/ruddypp/sofcialfi/membership"
	"github.com/ruddypp/sofcialfi/petition"
)

// journaledEventTypes is the full fact stream persisted for indexer
// replay
var journaledEventTypes = []event.EventType{
	membership.MintedEventType,
	petition.CreatedEventType,
	petition.SignedEventType,
	petition.BoostedEventType,
	petition.RewardEventType,
	credit.MintEventType,
	credit.BurnEventType,
}

// Platform is the assembled petition platform core. Every mutating
// operation is atomic with respect to the whole state: it either fully
// applies and emits its facts, or leaves state untouched. Mutating
// calls are serialized behind one mutex, matching the single-writer
// guarantee the registries assume.
type Platform struct {
	config    Config
	eventBus  *event.EventBus
	db        *database.Database
	ledger    *credit.Ledger
	members   *membership.Registry
	petitions *petition.Registry
	snapSeq   uint64
	mu        sync.Mutex
}

// platformSnapshot is the serialized full-state layout: three maps plus
// scalar counters and the pricing record, sufficient to restore exactly
type platformSnapshot struct {
	Credit     credit.Snapshot     `json:"credit"`
	Membership membership.Snapshot `json:"membership"`
	Petition   petition.Snapshot   `json:"petition"`
}

// New creates the platform, performs the one-time controller wiring,
// and restores the latest persisted snapshot if one exists
func New(config Config) (*Platform, error) {
	eventBus := event.NewEventBus(config.promRegistry, config.logger)
	db, err := database.New(&database.Config{
		Logger:  config.logger,
		DataDir: config.dataDir,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	ledger := credit.NewLedger(credit.LedgerConfig{
		PromRegistry: config.promRegistry,
		Logger:       config.logger,
		EventBus:     eventBus,
	})
	members := membership.NewRegistry(membership.RegistryConfig{
		PromRegistry: config.promRegistry,
		Logger:       config.logger,
		EventBus:     eventBus,
		Ledger:       ledger,
		Self:         config.membershipIdentity,
		WelcomeBonus: config.welcomeBonus,
		Now:          config.now,
	})
	petitions, err := petition.NewRegistry(petition.RegistryConfig{
		PromRegistry: config.promRegistry,
		Logger:       config.logger,
		EventBus:     eventBus,
		Ledger:       ledger,
		Members:      members,
		Self:         config.petitionIdentity,
		Pricing:      config.pricing,
		BoostWindow:  config.boostWindow,
		Now:          config.now,
	})
	if err != nil {
		closeErr := db.Close()
		return nil, errors.Join(err, closeErr)
	}
	p := &Platform{
		config:    config,
		eventBus:  eventBus,
		db:        db,
		ledger:    ledger,
		members:   members,
		petitions: petitions,
	}
	if err := p.wire(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(err, closeErr)
	}
	if err := p.restoreLatest(); err != nil {
		closeErr := db.Close()
		return nil, errors.Join(err, closeErr)
	}
	p.startJournal()
	return p, nil
}

// wire performs the one-time three-way controller wiring: the ledger
// learns both controller identities and the membership registry learns
// the petition registry reference. Each wiring call succeeds exactly
// once by construction.
func (p *Platform) wire() error {
	if err := p.ledger.SetController(
		credit.RoleMembership,
		p.config.membershipIdentity,
	); err != nil {
		return fmt.Errorf("failed to wire membership controller: %w", err)
	}
	if err := p.ledger.SetController(
		credit.RolePetition,
		p.config.petitionIdentity,
	); err != nil {
		return fmt.Errorf("failed to wire petition controller: %w", err)
	}
	if err := p.members.SetPetitionRegistry(
		p.config.petitionIdentity,
	); err != nil {
		return fmt.Errorf("failed to wire petition registry: %w", err)
	}
	return nil
}

// startJournal subscribes to the full fact stream and appends every
// event to the metadata store for indexer replay
func (p *Platform) startJournal() {
	for _, eventType := range journaledEventTypes {
		p.eventBus.SubscribeFunc(eventType, p.journalEvent)
	}
}

func (p *Platform) journalEvent(evt event.Event) {
	payload, err := json.Marshal(evt.Data)
	if err != nil {
		p.config.logger.Error(
			"failed to encode event for journal",
			"component", "platform",
			"type", evt.Type,
			"error", err,
		)
		return
	}
	if err := p.db.Metadata().AppendEvent(
		string(evt.Type),
		evt.Timestamp,
		payload,
	); err != nil {
		p.config.logger.Error(
			"failed to journal event",
			"component", "platform",
			"type", evt.Type,
			"error", err,
		)
	}
}

// restoreLatest loads the most recent persisted snapshot, if any
func (p *Platform) restoreLatest() error {
	seq, data, err := p.db.Blob().LatestSnapshot()
	if err != nil {
		if errors.Is(err, database.ErrSnapshotNotFound) {
			return nil
		}
		return fmt.Errorf("failed to load snapshot: %w", err)
	}
	var snap platformSnapshot
	if err := json.Unmarshal(data, &snap); err != nil {
		return fmt.Errorf("failed to decode snapshot %d: %w", seq, err)
	}
	p.ledger.Restore(snap.Credit)
	p.members.Restore(snap.Membership)
	if err := p.petitions.Restore(snap.Petition); err != nil {
		return fmt.Errorf("failed to restore snapshot %d: %w", seq, err)
	}
	p.snapSeq = seq
	p.config.logger.Info(
		"restored state from snapshot",
		"component", "platform",
		"sequence", seq,
	)
	return nil
}

// Snapshot persists the full platform state and returns the new
// snapshot sequence
func (p *Platform) Snapshot() (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	snap := platformSnapshot{
		Credit:     p.ledger.Snapshot(),
		Membership: p.members.Snapshot(),
		Petition:   p.petitions.Snapshot(),
	}
	data, err := json.Marshal(snap)
	if err != nil {
		return 0, fmt.Errorf("failed to encode snapshot: %w", err)
	}
	seq := p.snapSeq + 1
	if err := p.db.Blob().PutSnapshot(seq, data); err != nil {
		return 0, fmt.Errorf("failed to store snapshot: %w", err)
	}
	p.snapSeq = seq
	p.config.logger.Info(
		"stored state snapshot",
		"component", "platform",
		"sequence", seq,
		"bytes", len(data),
	)
	return seq, nil
}

// Stop persists a final snapshot and releases all resources
func (p *Platform) Stop() error {
	var err error
	if _, snapErr := p.Snapshot(); snapErr != nil {
		err = errors.Join(err, snapErr)
	}
	p.eventBus.Stop()
	err = errors.Join(err, p.db.Close())
	return err
}

// EventBus returns the platform's fact stream for external consumers
func (p *Platform) EventBus() *event.EventBus {
	return p.eventBus
}

// Database returns the platform's persistence layer
func (p *Platform) Database() *database.Database {
	return p.db
}

// MintMembership mints a soulbound membership for the caller
func (p *Platform) MintMembership(caller identity.Identity) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.members.Mint(caller)
}

// IsMember returns true if the identity holds a membership
func (p *Platform) IsMember(id identity.Identity) bool {
	return p.members.IsMember(id)
}

// HasMinted returns true if the identity has ever minted a membership
func (p *Platform) HasMinted(id identity.Identity) bool {
	return p.members.HasMinted(id)
}

// Member returns the membership record for an identity
func (p *Platform) Member(id identity.Identity) (membership.Membership, bool) {
	return p.members.Member(id)
}

// TotalMembers returns the count of live memberships
func (p *Platform) TotalMembers() uint64 {
	return p.members.TotalSupply()
}

// BalanceOf returns the identity's credit balance
func (p *Platform) BalanceOf(id identity.Identity) credit.Amount {
	return p.ledger.BalanceOf(id)
}

// CreatePetition creates a new petition for a member
func (p *Platform) CreatePetition(
	creator identity.Identity,
	title string,
	description string,
	contentHash string,
	useToken bool,
	paid credit.Amount,
) (uint64, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.petitions.CreatePetition(
		creator,
		title,
		description,
		contentHash,
		useToken,
		paid,
	)
}

// SignPetition records a signature on a petition
func (p *Platform) SignPetition(
	signer identity.Identity,
	id uint64,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.petitions.SignPetition(signer, id)
}

// BoostPetition pays to elevate a petition's display priority
func (p *Platform) BoostPetition(
	caller identity.Identity,
	id uint64,
	paid credit.Amount,
) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.petitions.BoostPetition(caller, id, paid)
}

// HasUserSigned returns true if the signer has signed the petition
func (p *Platform) HasUserSigned(
	id uint64,
	signer identity.Identity,
) (bool, error) {
	return p.petitions.HasUserSigned(id, signer)
}

// GetPetition returns a by-value copy of a petition
func (p *Platform) GetPetition(id uint64) (petition.Petition, error) {
	return p.petitions.GetPetition(id)
}

// Petitions returns all petitions in insertion order
func (p *Platform) Petitions() []petition.Petition {
	return p.petitions.GetAllPetitions()
}

// BoostedPetitions returns all petitions in display order: live boosts
// first by recency, then the rest by id
func (p *Platform) BoostedPetitions() []petition.Petition {
	return p.petitions.BoostedView()
}

// TotalPetitions returns the number of petitions ever created
func (p *Platform) TotalPetitions() uint64 {
	return p.petitions.GetTotalPetitions()
}

// IsPetitionBoosted returns true if the petition's boost window is
// still open
func (p *Platform) IsPetitionBoosted(id uint64) (bool, error) {
	return p.petitions.IsPetitionBoosted(id)
}

// PricingInfo returns a read-only snapshot of the fee schedule
func (p *Platform) PricingInfo() petition.PricingInfo {
	return p.petitions.GetPricingInfo()
}

// UpdatePricing replaces the fee schedule going forward. The caller is
// the administrative boundary.
func (p *Platform) UpdatePricing(pricing petition.PricingConfig) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.petitions.UpdatePricing(pricing)
}

// Stats is the aggregate platform read surface
type Stats struct {
	TotalMembers      uint64        `json:"totalMembers"`
	TotalPetitions    uint64        `json:"totalPetitions"`
	TotalCreditMinted credit.Amount `json:"totalCreditMinted"`
	TotalCreditBurned credit.Amount `json:"totalCreditBurned"`
	Timestamp         time.Time     `json:"timestamp"`
}

// Stats returns the aggregate platform statistics
func (p *Platform) Stats() Stats {
	return Stats{
		TotalMembers:      p.members.TotalSupply(),
		TotalPetitions:    p.petitions.GetTotalPetitions(),
		TotalCreditMinted: p.ledger.TotalMinted(),
		TotalCreditBurned: p.ledger.TotalBurned(),
		Timestamp:         time.Now(),
	}
}
