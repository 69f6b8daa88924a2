package config

import (
	"os"
	"path/filepath"
	"reflect"
	"testing"

	"github.com/ruddypp/sofcialfi/petition"
)

func resetGlobalConfig() {
	globalConfig = &Config{
		BindAddr:        "0.0.0.0",
		ApiPort:         4000,
		MetricsPort:     12800,
		DatabasePath:    ".sofcialfi",
		ShutdownTimeout: DefaultShutdownTimeout,
	}
}

func TestLoad_CompareFullStruct(t *testing.T) {
	resetGlobalConfig()
	yamlContent := `
bindAddr: "127.0.0.1"
apiPort: 8080
metricsPort: 8088
databasePath: "/var/lib/sofcialfi"
shutdownTimeout: "10s"
boostWindow: "72h"
welcomeBonus: 5000000000000000000
baseCampaignFee: 2000000000000000
tokenCampaignCost: 1000000000000000000
boostingFee: 1000000000000000
rewardThreshold: 10
rewardAmount: 3000000000000000000
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-sofcialfi.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	defer os.Remove(tmpFile)

	expected := &Config{
		BindAddr:          "127.0.0.1",
		ApiPort:           8080,
		MetricsPort:       8088,
		DatabasePath:      "/var/lib/sofcialfi",
		ShutdownTimeout:   "10s",
		BoostWindow:       "72h",
		WelcomeBonus:      5000000000000000000,
		BaseCampaignFee:   2000000000000000,
		TokenCampaignCost: 1000000000000000000,
		BoostingFee:       1000000000000000,
		RewardThreshold:   10,
		RewardAmount:      3000000000000000000,
	}

	actual, err := LoadConfig(tmpFile)
	if err != nil {
		t.Fatalf("failed to load config: %v", err)
	}

	if !reflect.DeepEqual(actual, expected) {
		t.Errorf(
			"Loaded config does not match expected.\nActual: %+v\nExpected: %+v",
			actual,
			expected,
		)
	}
}

func TestLoad_WithoutConfigFile_UsesDefaults(t *testing.T) {
	resetGlobalConfig()

	// Without Config file
	cfg, err := LoadConfig("")
	if err != nil {
		t.Fatalf("expected no error, got: %v", err)
	}

	// Expected is the original default values from globalConfig
	expected := &Config{
		BindAddr:        "0.0.0.0",
		ApiPort:         4000,
		MetricsPort:     12800,
		DatabasePath:    ".sofcialfi",
		ShutdownTimeout: DefaultShutdownTimeout,
	}

	if !reflect.DeepEqual(cfg, expected) {
		t.Errorf(
			"config mismatch without file:\nExpected: %+v\nGot:      %+v",
			expected,
			cfg,
		)
	}
}

func TestLoad_InvalidBoostWindow(t *testing.T) {
	resetGlobalConfig()

	yamlContent := `
boostWindow: "one week"
`

	tmpDir := t.TempDir()
	tmpFile := filepath.Join(tmpDir, "test-boost-window.yaml")

	err := os.WriteFile(tmpFile, []byte(yamlContent), 0644)
	if err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}

	if _, err := LoadConfig(tmpFile); err == nil {
		t.Error("expected error for invalid boost window, got nil")
	}
}

func TestPricing_ZeroValuesUseDefaults(t *testing.T) {
	resetGlobalConfig()

	cfg := GetConfig()
	pricing := cfg.Pricing()

	if !reflect.DeepEqual(pricing, petition.DefaultPricing()) {
		t.Errorf(
			"expected default pricing, got: %+v",
			pricing,
		)
	}
}

func TestPricing_OverridesDefaults(t *testing.T) {
	resetGlobalConfig()

	cfg := GetConfig()
	cfg.RewardThreshold = 3
	cfg.BoostingFee = 42

	pricing := cfg.Pricing()
	if pricing.RewardThreshold != 3 {
		t.Errorf(
			"expected reward threshold 3, got: %d",
			pricing.RewardThreshold,
		)
	}
	if pricing.BoostingFee != 42 {
		t.Errorf(
			"expected boosting fee 42, got: %d",
			pricing.BoostingFee,
		)
	}
	// Untouched values keep their defaults
	if pricing.BaseCampaignFee != petition.DefaultPricing().BaseCampaignFee {
		t.Errorf(
			"expected default base campaign fee, got: %d",
			pricing.BaseCampaignFee,
		)
	}
}
