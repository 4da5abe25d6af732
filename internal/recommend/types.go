// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

// Package recommend implements the recommendation engine: per-user
// recommendation aggregation over the scoring strategies, the restock
// recommender, and the inventory insights aggregator.
package recommend

import (
	"errors"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/recommend/strategies"
)

// ErrInvalidInput is returned for malformed limits or months.
var ErrInvalidInput = errors.New("invalid input")

// ScoredItem is a recommendation candidate with its final score.
type ScoredItem = strategies.ScoredItem

// Restock urgency levels, ordered low < medium < high.
const (
	UrgencyLow    = "low"
	UrgencyMedium = "medium"
	UrgencyHigh   = "high"
)

// Historical demand labels on restock candidates.
const (
	HistoryLastYear  = "lastYear"
	HistoryLastMonth = "lastMonth"
)

// RestockCandidate is one item the restock recommender suggests reordering.
type RestockCandidate struct {
	Item                *models.InventoryItem `json:"item"`
	CurrentStock        int                   `json:"currentStock"`
	RestockThreshold    int                   `json:"restockThreshold"`
	Urgency             string                `json:"urgency"`
	RecommendedQuantity int                   `json:"recommendedQuantity"`
	IsSeasonal          bool                  `json:"isSeasonal,omitempty"`
	// UpcomingSeason is the next month's name when the candidate was
	// included for seasonal demand.
	UpcomingSeason string `json:"upcomingSeason,omitempty"`
	// HistoricalDemand maps history labels to the reference month's
	// sales for this item.
	HistoricalDemand map[string]MonthDemand `json:"historicalDemand,omitempty"`
}

// MonthDemand is one reference month's sales attached to a restock
// candidate.
type MonthDemand struct {
	TotalQuantity int `json:"totalQuantity"`
	Transactions  int `json:"transactions"`
}

// StockSummary totals the whole catalog.
type StockSummary struct {
	Value      float64 `json:"value"`
	TotalItems int     `json:"totalItems"`
	TotalUnits int     `json:"totalUnits"`
}

// CategoryInsight summarizes one category.
type CategoryInsight struct {
	Category   string  `json:"category"`
	ItemCount  int     `json:"itemCount"`
	TotalValue float64 `json:"totalValue"`
	AvgPrice   float64 `json:"avgPrice"`
}

// TrendPoint is one month of sales history.
type TrendPoint struct {
	Month        int     `json:"month"` // 0 = January
	Year         int     `json:"year"`
	TotalSales   float64 `json:"totalSales"`
	Transactions int     `json:"transactions"`
}

// InventoryInsights is the admin dashboard payload.
type InventoryInsights struct {
	StockSummary      StockSummary            `json:"stockSummary"`
	CategoryBreakdown []CategoryInsight       `json:"categoryBreakdown"`
	MostPopular       []*models.InventoryItem `json:"mostPopular"`
	NonMovingItems    []*models.InventoryItem `json:"nonMovingItems"`
	MonthlySalesTrend []TrendPoint            `json:"monthlySalesTrend"`
	Timestamp         time.Time               `json:"timestamp"`
}

// urgencyRank orders urgencies for sorting.
func urgencyRank(u string) int {
	switch u {
	case UrgencyHigh:
		return 3
	case UrgencyMedium:
		return 2
	default:
		return 1
	}
}

// stockRatio is stock relative to the restock threshold; items without a
// threshold sort last.
func stockRatio(c *RestockCandidate) float64 {
	if c.RestockThreshold <= 0 {
		return float64(c.CurrentStock)
	}
	return float64(c.CurrentStock) / float64(c.RestockThreshold)
}
