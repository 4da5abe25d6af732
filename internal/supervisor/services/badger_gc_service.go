// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package services

import (
	"context"
	"errors"
	"time"

	"github.com/dgraph-io/badger/v4"

	"github.com/kiranakart/kiranakart/internal/logging"
)

// ValueLogGC is the garbage-collection surface of the Badger store.
type ValueLogGC interface {
	RunValueLogGC(discardRatio float64) error
}

const (
	defaultGCInterval     = 10 * time.Minute
	defaultGCDiscardRatio = 0.5
)

// BadgerGCService periodically runs BadgerDB value-log garbage collection.
// Badger never reclaims value-log space on its own; a GC loop keeps disk
// usage bounded on long-running deployments.
type BadgerGCService struct {
	db           ValueLogGC
	interval     time.Duration
	discardRatio float64
}

// NewBadgerGCService creates the GC loop with sane defaults for zero values.
func NewBadgerGCService(db ValueLogGC, interval time.Duration, discardRatio float64) *BadgerGCService {
	if interval <= 0 {
		interval = defaultGCInterval
	}
	if discardRatio <= 0 || discardRatio >= 1 {
		discardRatio = defaultGCDiscardRatio
	}
	return &BadgerGCService{
		db:           db,
		interval:     interval,
		discardRatio: discardRatio,
	}
}

// Serve implements suture.Service.
func (s *BadgerGCService) Serve(ctx context.Context) error {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			s.runOnce()
		}
	}
}

// runOnce repeats GC cycles until badger reports nothing left to rewrite.
func (s *BadgerGCService) runOnce() {
	for {
		err := s.db.RunValueLogGC(s.discardRatio)
		if err == nil {
			continue
		}
		if !errors.Is(err, badger.ErrNoRewrite) {
			logging.Warn().Err(err).Msg("Badger value log GC failed")
		}
		return
	}
}

// String implements fmt.Stringer for supervisor log messages.
func (s *BadgerGCService) String() string {
	return "badger-gc"
}
