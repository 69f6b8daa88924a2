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

package sofcialfi

import (
	"io"
	"log/slog"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/identity"
	"github.com/ruddypp/sofcialfi/petition"
)

const (
	// DefaultWelcomeBonus is credited to every new member
	DefaultWelcomeBonus = 10 * credit.TokenUnit

	// Default identities the registries present to the credit ledger.
	// In a chain host these would be contract addresses; embedded, any
	// stable opaque value works.
	DefaultMembershipIdentity identity.Identity = "registry/membership"
	DefaultPetitionIdentity   identity.Identity = "registry/petition"
)

type Config struct {
	promRegistry       prometheus.Registerer
	logger             *slog.Logger
	now                func() time.Time
	dataDir            string
	pricing            petition.PricingConfig
	boostWindow        time.Duration
	welcomeBonus       credit.Amount
	welcomeBonusSet    bool
	membershipIdentity identity.Identity
	petitionIdentity   identity.Identity
}

// ConfigOptionFunc is a type that represents functions that modify the platform config
type ConfigOptionFunc func(*Config)

// NewConfig creates a new platform config with the specified options
func NewConfig(opts ...ConfigOptionFunc) Config {
	c := Config{
		// Default logger will throw away logs
		// We do this so we don't have to add guards around every log operation
		logger:             slog.New(slog.NewJSONHandler(io.Discard, nil)),
		membershipIdentity: DefaultMembershipIdentity,
		petitionIdentity:   DefaultPetitionIdentity,
	}
	for _, opt := range opts {
		opt(&c)
	}
	if !c.welcomeBonusSet {
		c.welcomeBonus = DefaultWelcomeBonus
	}
	return c
}

// WithLogger specifies the logger to use. This defaults to discarding log output
func WithLogger(logger *slog.Logger) ConfigOptionFunc {
	return func(c *Config) {
		c.logger = logger
	}
}

// WithPrometheusRegistry specifies a prometheus.Registerer instance to add metrics to.
// In most cases, prometheus.DefaultRegisterer would be a good choice to get metrics working
func WithPrometheusRegistry(registry prometheus.Registerer) ConfigOptionFunc {
	return func(c *Config) {
		c.promRegistry = registry
	}
}

// WithDataDir specifies the persistent data directory to use. The default is to store everything in memory
func WithDataDir(dataDir string) ConfigOptionFunc {
	return func(c *Config) {
		c.dataDir = dataDir
	}
}

// WithPricing specifies the fee schedule and reward cadence. The default is petition.DefaultPricing()
func WithPricing(pricing petition.PricingConfig) ConfigOptionFunc {
	return func(c *Config) {
		c.pricing = pricing
	}
}

// WithBoostWindow specifies how long a boost elevates display priority.
// The default is petition.DefaultBoostWindow
func WithBoostWindow(window time.Duration) ConfigOptionFunc {
	return func(c *Config) {
		c.boostWindow = window
	}
}

// WithWelcomeBonus specifies the credit amount minted to every new
// member. Zero disables the bonus.
func WithWelcomeBonus(amount credit.Amount) ConfigOptionFunc {
	return func(c *Config) {
		c.welcomeBonus = amount
		c.welcomeBonusSet = true
	}
}

// WithClock specifies the time source supplied to the registries. This
// defaults to time.Now and is mostly useful for testing
func WithClock(now func() time.Time) ConfigOptionFunc {
	return func(c *Config) {
		c.now = now
	}
}

// WithRegistryIdentities specifies the identities the membership and
// petition registries present to the credit ledger as controllers
func WithRegistryIdentities(
	membershipId, petitionId identity.Identity,
) ConfigOptionFunc {
	return func(c *Config) {
		c.membershipIdentity = membershipId
		c.petitionIdentity = petitionId
	}
}
