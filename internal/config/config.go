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

package config

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/kelseyhightower/envconfig"
	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/petition"
	"gopkg.in/yaml.v3"
)

type ctxKey string

const configContextKey ctxKey = "sofcialfi.config"

const DefaultShutdownTimeout = "30s"

func WithContext(ctx context.Context, cfg *Config) context.Context {
	return context.WithValue(ctx, configContextKey, cfg)
}

func FromContext(ctx context.Context) *Config {
	cfg, ok := ctx.Value(configContextKey).(*Config)
	if !ok {
		return nil
	}
	return cfg
}

type Config struct {
	BindAddr        string `yaml:"bindAddr"                       split_words:"true"`
	ApiPort         uint   `yaml:"apiPort"        envconfig:"port"`
	MetricsPort     uint   `yaml:"metricsPort"                    split_words:"true"`
	DatabasePath    string `yaml:"databasePath"                   split_words:"true"`
	ShutdownTimeout string `yaml:"shutdownTimeout"                split_words:"true"`
	// BoostWindow is a Go duration string, e.g. "168h"
	BoostWindow string `yaml:"boostWindow" split_words:"true"`
	// Credit amounts are base units (18 decimals). Zero means use
	// the package default for that value.
	WelcomeBonus      uint64 `yaml:"welcomeBonus"      split_words:"true"`
	BaseCampaignFee   uint64 `yaml:"baseCampaignFee"   split_words:"true"`
	TokenCampaignCost uint64 `yaml:"tokenCampaignCost" split_words:"true"`
	BoostingFee       uint64 `yaml:"boostingFee"       split_words:"true"`
	RewardThreshold   uint64 `yaml:"rewardThreshold"   split_words:"true"`
	RewardAmount      uint64 `yaml:"rewardAmount"      split_words:"true"`
}

var globalConfig = &Config{
	BindAddr:        "0.0.0.0",
	ApiPort:         4000,
	MetricsPort:     12800,
	DatabasePath:    ".sofcialfi",
	ShutdownTimeout: DefaultShutdownTimeout,
}

func LoadConfig(configFile string) (*Config, error) {
	// Load config file as YAML if provided
	if configFile == "" {
		// Check for config file in this path: ~/.sofcialfi/sofcialfi.yaml
		if homeDir, err := os.UserHomeDir(); err == nil {
			userPath := filepath.Join(
				homeDir,
				".sofcialfi",
				"sofcialfi.yaml",
			)
			if _, err := os.Stat(userPath); err == nil {
				configFile = userPath
			}
		}

		// Try to check for /etc/sofcialfi/sofcialfi.yaml if still not found
		if configFile == "" {
			systemPath := "/etc/sofcialfi/sofcialfi.yaml"
			if _, err := os.Stat(systemPath); err == nil {
				configFile = systemPath
			}
		}
	}

	if configFile != "" {
		buf, err := os.ReadFile(configFile)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		err = yaml.Unmarshal(buf, globalConfig)
		if err != nil {
			return nil, fmt.Errorf("error parsing config file: %w", err)
		}
	}

	// Process environment variables
	err := envconfig.Process("sofcialfi", globalConfig)
	if err != nil {
		return nil, fmt.Errorf("error processing environment: %+w", err)
	}

	// Validate durations up front so bad values fail at startup
	if globalConfig.ShutdownTimeout != "" {
		if _, err := time.ParseDuration(
			globalConfig.ShutdownTimeout,
		); err != nil {
			return nil, fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}
	if globalConfig.BoostWindow != "" {
		if _, err := time.ParseDuration(
			globalConfig.BoostWindow,
		); err != nil {
			return nil, fmt.Errorf("invalid boost window: %w", err)
		}
	}

	return globalConfig, nil
}

func GetConfig() *Config {
	return globalConfig
}

// Pricing builds a pricing config from the configured values,
// falling back to package defaults for any zero value.
func (c *Config) Pricing() petition.PricingConfig {
	pricing := petition.DefaultPricing()
	if c.BaseCampaignFee > 0 {
		pricing.BaseCampaignFee = credit.Amount(c.BaseCampaignFee)
	}
	if c.TokenCampaignCost > 0 {
		pricing.TokenCampaignCost = credit.Amount(c.TokenCampaignCost)
	}
	if c.BoostingFee > 0 {
		pricing.BoostingFee = credit.Amount(c.BoostingFee)
	}
	if c.RewardThreshold > 0 {
		pricing.RewardThreshold = c.RewardThreshold
	}
	if c.RewardAmount > 0 {
		pricing.RewardAmount = credit.Amount(c.RewardAmount)
	}
	return pricing
}
