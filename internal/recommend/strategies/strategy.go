// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

// Package strategies implements the scoring primitives behind the
// recommendation engine. Each strategy issues its own store queries and
// returns a scored item list; combining, deduplication, and
// personalization happen in the engine.
package strategies

import (
	"context"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
)

// Recommendation types attached to scored items.
const (
	TypeFrequent      = "frequently_purchased"
	TypeCollaborative = "collaborative"
	TypeContent       = "content_based"
	TypeSeasonal      = "seasonal"
	TypeDepletion     = "depletion_predicted"
)

// Base score weights.
const (
	FrequentWeight      = 10.0
	CollaborativeWeight = 5.0
	RatingWeight        = 10.0
	SeasonalScore       = 25.0
)

// ScoredItem is one recommendation candidate with its strategy score.
type ScoredItem struct {
	Item  *models.InventoryItem `json:"item"`
	Score float64               `json:"score"`
	Type  string                `json:"recommendationType"`

	// Strategy-specific context, populated where meaningful.
	PurchaseCount    int        `json:"purchaseCount,omitempty"`
	AvgQuantity      float64    `json:"avgQuantity,omitempty"`
	LastPurchased    *time.Time `json:"lastPurchased,omitempty"`
	SimilarBuyers    int        `json:"similarBuyers,omitempty"`
	DepletionPercent float64    `json:"depletionPercent,omitempty"`
}

// Strategy computes scored recommendations for one user.
type Strategy interface {
	// Name identifies the strategy in logs and metrics.
	Name() string

	// Recommend returns up to limit scored items for the user. A nil
	// result with nil error means the strategy has nothing to contribute.
	Recommend(ctx context.Context, user *models.UserProfile, limit int) ([]ScoredItem, error)
}
