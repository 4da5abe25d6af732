// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package recommend

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/kiranakart/kiranakart/internal/metrics"
	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/store"
)

// Restock quantity tuning.
const (
	// minHighUrgencyQuantity floors the reorder for critically low items.
	minHighUrgencyQuantity = 5
	// mediumUrgencyBuffer pads the reorder for trending-down items.
	mediumUrgencyBuffer = 10
	// lastYearGrowthFactor assumes year-over-year demand growth.
	lastYearGrowthFactor = 1.1
	// lastMonthDecayFactor slightly discounts last month's demand.
	lastMonthDecayFactor = 0.9
)

// GetRestockRecommendations builds the admin reorder list: items below
// threshold (high urgency), items trending toward threshold (medium),
// seasonal items short on stock for next month's window, all adjusted
// against last year's and last month's demand.
func (e *Engine) GetRestockRecommendations(ctx context.Context) ([]RestockCandidate, error) {
	metrics.RecommendationRequests.WithLabelValues("restock").Inc()

	now := e.now()
	currentMonth := models.ZeroBasedMonth(now)
	currentYear := now.Year()

	candidates := make(map[string]*RestockCandidate)
	order := make([]string, 0)
	add := func(c *RestockCandidate) {
		if _, ok := candidates[c.Item.ID]; !ok {
			candidates[c.Item.ID] = c
			order = append(order, c.Item.ID)
		}
	}

	// Below threshold: reorder back to twice the threshold, at least the
	// minimum batch.
	one := 1.0
	lowStock, err := e.store.FindItems(ctx, store.ItemFilter{StockBelowFactor: &one})
	if err != nil {
		return nil, fmt.Errorf("low stock query: %w", err)
	}
	for _, item := range lowStock {
		qty := item.RestockThreshold*2 - item.Stock
		if qty < minHighUrgencyQuantity {
			qty = minHighUrgencyQuantity
		}
		add(&RestockCandidate{
			Item:                item,
			CurrentStock:        item.Stock,
			RestockThreshold:    item.RestockThreshold,
			Urgency:             UrgencyHigh,
			RecommendedQuantity: qty,
		})
	}

	// Healthy but trending down: threshold <= stock < 2x threshold.
	two := 2.0
	trending, err := e.store.FindItems(ctx, store.ItemFilter{
		StockAtOrAboveFactor: &one,
		StockBelowFactor:     &two,
	})
	if err != nil {
		return nil, fmt.Errorf("trending stock query: %w", err)
	}
	for _, item := range trending {
		if _, ok := candidates[item.ID]; ok {
			continue
		}
		qty := item.RestockThreshold - item.Stock
		if qty < 0 {
			qty = 0
		}
		add(&RestockCandidate{
			Item:                item,
			CurrentStock:        item.Stock,
			RestockThreshold:    item.RestockThreshold,
			Urgency:             UrgencyMedium,
			RecommendedQuantity: qty + mediumUrgencyBuffer,
		})
	}

	// Seasonal demand arriving next month: anything under three times the
	// threshold gets stocked up to twice the threshold.
	nextMonth := (currentMonth + 1) % 12
	three := 3.0
	seasonal, err := e.store.FindItems(ctx, store.ItemFilter{
		SeasonalOnly:     true,
		AvailableMonth:   &nextMonth,
		StockBelowFactor: &three,
	})
	if err != nil {
		return nil, fmt.Errorf("seasonal stock query: %w", err)
	}
	for _, item := range seasonal {
		if existing, ok := candidates[item.ID]; ok {
			existing.IsSeasonal = true
			existing.UpcomingSeason = models.MonthName(nextMonth)
			if existing.Urgency != UrgencyHigh {
				existing.Urgency = UrgencyMedium
			}
			if qty := item.RestockThreshold * 2; qty > existing.RecommendedQuantity {
				existing.RecommendedQuantity = qty
			}
			continue
		}
		add(&RestockCandidate{
			Item:                item,
			CurrentStock:        item.Stock,
			RestockThreshold:    item.RestockThreshold,
			Urgency:             UrgencyMedium,
			IsSeasonal:          true,
			UpcomingSeason:      models.MonthName(nextMonth),
			RecommendedQuantity: item.RestockThreshold * 2,
		})
	}

	// Historical demand only raises quantities of items already flagged.
	lastYear, err := e.store.ItemDemandByMonth(ctx, currentMonth, currentYear-1)
	if err != nil {
		return nil, fmt.Errorf("last year demand: %w", err)
	}
	applyHistoricalDemand(candidates, lastYear, lastYearGrowthFactor, HistoryLastYear)

	prevMonth := currentMonth - 1
	prevMonthYear := currentYear
	if prevMonth < 0 {
		prevMonth = 11
		prevMonthYear--
	}
	lastMonth, err := e.store.ItemDemandByMonth(ctx, prevMonth, prevMonthYear)
	if err != nil {
		return nil, fmt.Errorf("last month demand: %w", err)
	}
	applyHistoricalDemand(candidates, lastMonth, lastMonthDecayFactor, HistoryLastMonth)

	out := make([]RestockCandidate, 0, len(order))
	for _, id := range order {
		out = append(out, *candidates[id])
	}
	sort.SliceStable(out, func(i, j int) bool {
		a, b := &out[i], &out[j]
		if urgencyRank(a.Urgency) != urgencyRank(b.Urgency) {
			return urgencyRank(a.Urgency) > urgencyRank(b.Urgency)
		}
		if a.IsSeasonal != b.IsSeasonal {
			return a.IsSeasonal
		}
		if ra, rb := stockRatio(a), stockRatio(b); ra != rb {
			return ra < rb
		}
		return a.Item.ID < b.Item.ID
	})
	return out, nil
}

// applyHistoricalDemand records the reference month's sales on each
// flagged candidate and raises its reorder quantity to the projected
// demand when that is larger.
func applyHistoricalDemand(candidates map[string]*RestockCandidate, demand map[string]store.MonthDemand, factor float64, label string) {
	for itemID, d := range demand {
		c, ok := candidates[itemID]
		if !ok {
			continue
		}
		if c.HistoricalDemand == nil {
			c.HistoricalDemand = make(map[string]MonthDemand, 2)
		}
		c.HistoricalDemand[label] = MonthDemand{
			TotalQuantity: d.TotalQuantity,
			Transactions:  d.Transactions,
		}

		projected := int(math.Round(float64(d.TotalQuantity) * factor))
		if projected > c.RecommendedQuantity {
			c.RecommendedQuantity = projected
		}
	}
}
