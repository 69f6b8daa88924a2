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

package node

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	_ "net/http/pprof" // #nosec G108
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/ruddypp/sofcialfi"
	"github.com/ruddypp/sofcialfi/api"
	"github.com/ruddypp/sofcialfi/credit"
	"github.com/ruddypp/sofcialfi/internal/config"
)

// SnapshotInterval is how often the platform state is
// checkpointed to the blob store while running.
const SnapshotInterval = 5 * time.Minute

func Run(cfg *config.Config, logger *slog.Logger) error {
	logger.Debug(fmt.Sprintf("config: %+v", cfg), "component", "node")

	// Parse shutdown timeout
	shutdownTimeout := 30 * time.Second // Default timeout
	if cfg.ShutdownTimeout != "" {
		var err error
		shutdownTimeout, err = time.ParseDuration(cfg.ShutdownTimeout)
		if err != nil {
			return fmt.Errorf("invalid shutdown timeout: %w", err)
		}
	}

	opts := []sofcialfi.ConfigOptionFunc{
		sofcialfi.WithLogger(logger),
		sofcialfi.WithDataDir(cfg.DatabasePath),
		sofcialfi.WithPricing(cfg.Pricing()),
		// Enable metrics with default prometheus registry
		sofcialfi.WithPrometheusRegistry(prometheus.DefaultRegisterer),
	}
	if cfg.BoostWindow != "" {
		boostWindow, err := time.ParseDuration(cfg.BoostWindow)
		if err != nil {
			return fmt.Errorf("invalid boost window: %w", err)
		}
		opts = append(opts, sofcialfi.WithBoostWindow(boostWindow))
	}
	if cfg.WelcomeBonus > 0 {
		opts = append(
			opts,
			sofcialfi.WithWelcomeBonus(
				credit.Amount(cfg.WelcomeBonus),
			),
		)
	}

	platform, err := sofcialfi.New(sofcialfi.NewConfig(opts...))
	if err != nil {
		return err
	}

	apiServer := api.New(
		api.ApiConfig{
			ListenAddress: fmt.Sprintf(
				"%s:%d",
				cfg.BindAddr,
				cfg.ApiPort,
			),
		},
		platform,
		logger,
	)

	// Metrics and debug listener
	http.Handle("/metrics", promhttp.Handler())
	logger.Info(
		"serving prometheus metrics on "+fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		"component",
		"node",
	)
	metricsServer := &http.Server{
		Addr: fmt.Sprintf(
			"%s:%d",
			cfg.BindAddr,
			cfg.MetricsPort,
		),
		ReadHeaderTimeout: 60 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       120 * time.Second,
	}
	go func() {
		if err := metricsServer.ListenAndServe(); err != nil &&
			err != http.ErrServerClosed {
			logger.Error(
				fmt.Sprintf("failed to start metrics listener: %s", err),
				"component", "node",
			)
			os.Exit(1)
		}
	}()

	// Wait for interrupt/termination signal
	signalCtx, signalCtxStop := signal.NotifyContext(
		context.Background(),
		syscall.SIGINT,
		syscall.SIGTERM,
	)
	defer signalCtxStop()

	if err := apiServer.Start(signalCtx); err != nil {
		if stopErr := platform.Stop(); stopErr != nil {
			logger.Error(
				"platform shutdown error",
				"error", stopErr,
			)
		}
		return err
	}

	// Periodic state snapshots
	go func() {
		ticker := time.NewTicker(SnapshotInterval)
		defer ticker.Stop()
		for {
			select {
			case <-signalCtx.Done():
				return
			case <-ticker.C:
				seq, err := platform.Snapshot()
				if err != nil {
					logger.Error(
						"snapshot error",
						"error", err,
						"component", "node",
					)
					continue
				}
				logger.Debug(
					fmt.Sprintf("wrote snapshot %d", seq),
					"component", "node",
				)
			}
		}
	}()

	<-signalCtx.Done()
	logger.Info("signal received, initiating graceful shutdown")

	shutdownCtx, cancel := context.WithTimeout(
		context.Background(),
		shutdownTimeout,
	)
	defer cancel()

	// Shutdown API server
	if err := apiServer.Stop(shutdownCtx); err != nil {
		logger.Error("API server shutdown error", "error", err)
	}

	// Shutdown metrics server
	if err := metricsServer.Shutdown(shutdownCtx); err != nil {
		logger.Error("metrics server shutdown error", "error", err)
	}

	// Shutdown platform (writes a final snapshot)
	if err := platform.Stop(); err != nil {
		logger.Error("shutdown errors occurred", "error", err)
		return err
	}
	logger.Info("shutdown complete")
	return nil
}
