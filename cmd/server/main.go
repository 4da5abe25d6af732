// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

// Package main is the entry point for the KiranaKart server.
//
// KiranaKart is a grocery commerce backend with a personalized
// recommendation engine. It serves a product catalog, user accounts,
// purchase history, per-user recommendations blended from five scoring
// strategies, restock predictions, and inventory analytics.
//
// The server initializes components in order:
//
//  1. Configuration: layered load from defaults, config file, and
//     environment variables (Koanf v2)
//  2. Storage: BadgerDB document store (or in-memory for ephemeral runs)
//  3. Recommendation engine
//  4. Authentication: JWT token manager and bcrypt password hashing
//  5. HTTP server: Chi-routed REST API under /api/v1
//
// All long-running components run under a suture supervisor tree and the
// server shuts down gracefully on SIGINT and SIGTERM.
//
// # Configuration
//
// Environment variables override the config file, which overrides
// defaults. The important ones:
//
//	HTTP_PORT        listen port (default 5566)
//	BADGER_PATH      document store directory (default /data/kiranakart)
//	BADGER_IN_MEMORY run without persistence (default false)
//	JWT_SECRET       32+ character token signing secret (required in production)
//	LOG_LEVEL        trace|debug|info|warn|error (default info)
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/kiranakart/kiranakart/internal/api"
	"github.com/kiranakart/kiranakart/internal/auth"
	"github.com/kiranakart/kiranakart/internal/config"
	"github.com/kiranakart/kiranakart/internal/logging"
	"github.com/kiranakart/kiranakart/internal/recommend"
	"github.com/kiranakart/kiranakart/internal/store"
	"github.com/kiranakart/kiranakart/internal/supervisor"
	"github.com/kiranakart/kiranakart/internal/supervisor/services"
)

func main() {
	cfg, err := config.LoadWithKoanf()
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to load configuration")
	}

	logging.Init(logging.Config{
		Level:  cfg.Logging.Level,
		Format: cfg.Logging.Format,
		Caller: cfg.Logging.Caller,
	})
	logging.Info().
		Str("environment", cfg.Server.Environment).
		Msg("Starting KiranaKart")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Storage.
	badgerStore, err := store.OpenBadger(cfg.Database.Path, cfg.Database.InMemory)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to open document store")
	}
	defer func() {
		if err := badgerStore.Close(); err != nil {
			logging.Error().Err(err).Msg("Failed to close document store")
		}
	}()
	logging.Info().
		Str("path", cfg.Database.Path).
		Bool("in_memory", cfg.Database.InMemory).
		Msg("Document store opened")

	// Recommendation engine.
	engine := recommend.New(badgerStore, recommend.Config{
		DefaultLimit:    cfg.Recommend.DefaultLimit,
		MaxLimit:        cfg.Recommend.MaxLimit,
		StrategyTimeout: cfg.Recommend.StrategyTimeout,
	})

	// Authentication.
	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		logging.Fatal().Err(err).Msg("Failed to initialize token manager")
	}
	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)

	// HTTP surface.
	handler := api.NewHandler(badgerStore, engine, jwtMgr, hasher, cfg)
	router := api.NewRouter(handler, cfg)
	server := &http.Server{
		Addr:         fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port),
		Handler:      router.Setup(),
		ReadTimeout:  cfg.Server.Timeout,
		WriteTimeout: cfg.Server.Timeout,
		IdleTimeout:  60 * time.Second,
	}

	// Supervisor tree.
	tree := supervisor.NewTree(logging.NewSlogLogger(), supervisor.DefaultTreeConfig())
	if !cfg.Database.InMemory {
		tree.AddStorageService(services.NewBadgerGCService(badgerStore, 0, 0))
		logging.Info().Msg("Badger GC service added to supervisor tree")
	}
	tree.AddAPIService(services.NewHTTPServerService(server, 10*time.Second))
	logging.Info().Str("addr", server.Addr).Msg("HTTP server service added")

	// Signal handling.
	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	go func() {
		sig := <-sigCh
		logging.Info().Str("signal", sig.String()).Msg("Received shutdown signal")
		cancel()
	}()

	logging.Info().Msg("Starting supervisor tree")
	errCh := tree.ServeBackground(ctx)

	select {
	case <-ctx.Done():
		logging.Info().Msg("Context canceled, waiting for supervisor to finish")
	case err := <-errCh:
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor tree error")
		}
	}

	for err := range errCh {
		if err != nil && !errors.Is(err, context.Canceled) {
			logging.Error().Err(err).Msg("Supervisor shutdown error")
		}
	}

	unstopped, _ := tree.UnstoppedServiceReport()
	for _, svc := range unstopped {
		logging.Warn().Str("service", svc.Name).Msg("Service failed to stop within timeout")
	}

	logging.Info().Msg("Server stopped gracefully")
}
