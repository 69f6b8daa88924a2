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

// Package credit implements the fungible incentive balance ledger. The
// credit is internal incentive accounting, not a general-purpose
// transferable currency: mint and burn are restricted to the two
// registered controller identities (the membership and petition
// registries), which removes unauthorized-inflation bugs at the
// boundary.
package credit

import (
	"io"
	"log/slog"
	"math"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/ruddypp/sofcialfi/event"
	"github.com/ruddypp/sofcialfi/identity"
)

const (
	MintEventType event.EventType = "credit.minted"
	BurnEventType event.EventType = "credit.burned"
)

// Amount is a credit quantity in base units using the 18-decimal
// fixed-point convention (1 token == 1e18 base units)
type Amount uint64

// TokenUnit is one whole token in base units
const TokenUnit Amount = 1_000_000_000_000_000_000

// ControllerRole names a privileged caller slot. Exactly two roles
// exist and each is wired once at bring-up.
type ControllerRole string

const (
	RoleMembership ControllerRole = "membership"
	RolePetition   ControllerRole = "petition"
)

type MintEvent struct {
	To     identity.Identity
	Amount Amount
}

type BurnEvent struct {
	From   identity.Identity
	Amount Amount
}

type LedgerConfig struct {
	PromRegistry prometheus.Registerer
	Logger       *slog.Logger
	EventBus     *event.EventBus
}

// Ledger tracks non-negative balances per identity. The sum of all
// balances equals TotalMinted - TotalBurned at all times.
type Ledger struct {
	metrics struct {
		mintedTotal prometheus.Counter
		burnedTotal prometheus.Counter
	}
	logger      *slog.Logger
	eventBus    *event.EventBus
	balances    map[identity.Identity]Amount
	controllers map[ControllerRole]identity.Identity
	totalMinted Amount
	totalBurned Amount
	mu          sync.RWMutex
}

func NewLedger(config LedgerConfig) *Ledger {
	l := &Ledger{
		eventBus:    config.EventBus,
		balances:    make(map[identity.Identity]Amount),
		controllers: make(map[ControllerRole]identity.Identity),
	}
	if config.Logger == nil {
		// Create logger to throw away logs
		// We do this so we don't have to add guards around every log operation
		l.logger = slog.New(slog.NewJSONHandler(io.Discard, nil))
	} else {
		l.logger = config.Logger
	}
	if config.PromRegistry != nil {
		promautoFactory := promauto.With(config.PromRegistry)
		l.metrics.mintedTotal = promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "sofcialfi_credit_minted_total",
				Help: "total credit minted in base units",
			},
		)
		l.metrics.burnedTotal = promautoFactory.NewCounter(
			prometheus.CounterOpts{
				Name: "sofcialfi_credit_burned_total",
				Help: "total credit burned in base units",
			},
		)
	}
	return l
}

// SetController registers the identity allowed to mint and burn under
// the given role. Each role is settable exactly once; a second attempt
// fails with AlreadyConfiguredError so accidental re-wiring after
// go-live is rejected.
func (l *Ledger) SetController(
	role ControllerRole,
	addr identity.Identity,
) error {
	if role != RoleMembership && role != RolePetition {
		return &InvalidConfigError{
			Reason: "unknown controller role " + string(role),
		}
	}
	if addr.IsNone() {
		return &InvalidConfigError{
			Reason: "controller identity must not be empty",
		}
	}
	l.mu.Lock()
	defer l.mu.Unlock()
	if _, ok := l.controllers[role]; ok {
		return &AlreadyConfiguredError{Role: role}
	}
	l.controllers[role] = addr
	l.logger.Info(
		"registered controller",
		"component", "credit",
		"role", role,
		"controller", addr,
	)
	return nil
}

// Controller returns the identity wired for a role, if any
func (l *Ledger) Controller(role ControllerRole) (identity.Identity, bool) {
	l.mu.RLock()
	defer l.mu.RUnlock()
	addr, ok := l.controllers[role]
	return addr, ok
}

// BalanceOf returns the holder's balance. Unknown identities have a
// zero balance; no account record is created by the lookup.
func (l *Ledger) BalanceOf(id identity.Identity) Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.balances[id]
}

// TotalMinted returns the cumulative minted amount
func (l *Ledger) TotalMinted() Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalMinted
}

// TotalBurned returns the cumulative burned amount
func (l *Ledger) TotalBurned() Amount {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.totalBurned
}

// CheckMint reports whether a mint of the given amount to the holder
// would succeed, without mutating any state. Callers composing a mint
// with other state changes use this to keep the whole operation
// all-or-nothing.
func (l *Ledger) CheckMint(to identity.Identity, amount Amount) error {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.checkMint(to, amount)
}

func (l *Ledger) checkMint(to identity.Identity, amount Amount) error {
	balance := l.balances[to]
	if amount > math.MaxUint64-balance {
		return &OverflowError{
			Holder:  to,
			Balance: balance,
			Amount:  amount,
		}
	}
	if amount > math.MaxUint64-l.totalMinted {
		return &OverflowError{
			Holder:  to,
			Balance: l.totalMinted,
			Amount:  amount,
		}
	}
	return nil
}

// Mint credits the holder with the given amount. Only a registered
// controller may call it.
func (l *Ledger) Mint(
	controller identity.Identity,
	to identity.Identity,
	amount Amount,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.isController(controller) {
		return &UnauthorizedError{Caller: controller}
	}
	if err := l.checkMint(to, amount); err != nil {
		return err
	}
	l.balances[to] += amount
	l.totalMinted += amount
	l.logger.Debug(
		"minted credit",
		"component", "credit",
		"to", to,
		"amount", uint64(amount),
	)
	if l.metrics.mintedTotal != nil {
		l.metrics.mintedTotal.Add(float64(amount))
	}
	if l.eventBus != nil {
		l.eventBus.Publish(
			MintEventType,
			event.NewEvent(
				MintEventType,
				MintEvent{
					To:     to,
					Amount: amount,
				},
			),
		)
	}
	return nil
}

// Burn debits the holder by the given amount. Only a registered
// controller may call it.
func (l *Ledger) Burn(
	controller identity.Identity,
	from identity.Identity,
	amount Amount,
) error {
	l.mu.Lock()
	defer l.mu.Unlock()
	if !l.isController(controller) {
		return &UnauthorizedError{Caller: controller}
	}
	balance := l.balances[from]
	if balance < amount {
		return &InsufficientBalanceError{
			Holder:  from,
			Balance: balance,
			Amount:  amount,
		}
	}
	l.balances[from] = balance - amount
	l.totalBurned += amount
	l.logger.Debug(
		"burned credit",
		"component", "credit",
		"from", from,
		"amount", uint64(amount),
	)
	if l.metrics.burnedTotal != nil {
		l.metrics.burnedTotal.Add(float64(amount))
	}
	if l.eventBus != nil {
		l.eventBus.Publish(
			BurnEventType,
			event.NewEvent(
				BurnEventType,
				BurnEvent{
					From:   from,
					Amount: amount,
				},
			),
		)
	}
	return nil
}

func (l *Ledger) isController(caller identity.Identity) bool {
	for _, addr := range l.controllers {
		if addr == caller {
			return true
		}
	}
	return false
}

// Snapshot captures the full ledger state for persistence
type Snapshot struct {
	Balances    map[identity.Identity]Amount    `json:"balances"`
	Controllers map[ControllerRole]identity.Identity `json:"controllers"`
	TotalMinted Amount                          `json:"totalMinted"`
	TotalBurned Amount                          `json:"totalBurned"`
}

// Snapshot returns a copy of the full ledger state
func (l *Ledger) Snapshot() Snapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	balances := make(map[identity.Identity]Amount, len(l.balances))
	for id, amount := range l.balances {
		balances[id] = amount
	}
	controllers := make(
		map[ControllerRole]identity.Identity,
		len(l.controllers),
	)
	for role, addr := range l.controllers {
		controllers[role] = addr
	}
	return Snapshot{
		Balances:    balances,
		Controllers: controllers,
		TotalMinted: l.totalMinted,
		TotalBurned: l.totalBurned,
	}
}

// Restore replaces the ledger state with the snapshot contents
func (l *Ledger) Restore(snap Snapshot) {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.balances = make(map[identity.Identity]Amount, len(snap.Balances))
	for id, amount := range snap.Balances {
		l.balances[id] = amount
	}
	l.controllers = make(
		map[ControllerRole]identity.Identity,
		len(snap.Controllers),
	)
	for role, addr := range snap.Controllers {
		l.controllers[role] = addr
	}
	l.totalMinted = snap.TotalMinted
	l.totalBurned = snap.TotalBurned
}
