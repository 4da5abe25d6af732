// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package recommend

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kiranakart/kiranakart/internal/metrics"
	"github.com/kiranakart/kiranakart/internal/store"
)

const (
	// nonMovingWindowMonths is how long an item must go unsold before it
	// counts as non-moving.
	nonMovingWindowMonths = 3

	topPopularLimit  = 10
	nonMovingLimit   = 20
	salesTrendMonths = 12
)

// GetInventoryInsights computes the admin dashboard aggregation: stock
// totals, per-category breakdown, best sellers, non-moving items, and the
// monthly sales trend. Reads only, so two calls with no intervening store
// mutation return identical payloads (modulo the timestamp).
func (e *Engine) GetInventoryInsights(ctx context.Context) (*InventoryInsights, error) {
	metrics.RecommendationRequests.WithLabelValues("insights").Inc()

	now := e.now()

	allItems, err := e.store.FindItems(ctx, store.ItemFilter{})
	if err != nil {
		return nil, fmt.Errorf("catalog scan: %w", err)
	}

	summary := StockSummary{}
	byCategory := make(map[string]*CategoryInsight)
	for _, item := range allItems {
		value := item.Price * float64(item.Stock)
		summary.Value += value
		summary.TotalItems++
		summary.TotalUnits += item.Stock

		ci, ok := byCategory[item.Category]
		if !ok {
			ci = &CategoryInsight{Category: item.Category}
			byCategory[item.Category] = ci
		}
		ci.ItemCount++
		ci.TotalValue += value
		ci.AvgPrice += item.Price
	}

	breakdown := make([]CategoryInsight, 0, len(byCategory))
	for _, ci := range byCategory {
		ci.AvgPrice /= float64(ci.ItemCount)
		breakdown = append(breakdown, *ci)
	}
	sort.SliceStable(breakdown, func(i, j int) bool {
		if breakdown[i].TotalValue != breakdown[j].TotalValue {
			return breakdown[i].TotalValue > breakdown[j].TotalValue
		}
		return breakdown[i].Category < breakdown[j].Category
	})

	mostPopular, err := e.store.FindItems(ctx, store.ItemFilter{
		Sort:  store.SortPopularityFreq,
		Limit: topPopularLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("popular items: %w", err)
	}

	recentlySold, err := e.store.ItemIDsPurchasedSince(ctx, now.AddDate(0, -nonMovingWindowMonths, 0))
	if err != nil {
		return nil, fmt.Errorf("recently sold items: %w", err)
	}
	soldIDs := make([]string, 0, len(recentlySold))
	for id := range recentlySold {
		soldIDs = append(soldIDs, id)
	}
	minStock := 1
	nonMoving, err := e.store.FindItems(ctx, store.ItemFilter{
		ExcludeIDs: soldIDs,
		MinStock:   &minStock,
		Sort:       store.SortPriceDesc,
		Limit:      nonMovingLimit,
	})
	if err != nil {
		return nil, fmt.Errorf("non-moving items: %w", err)
	}

	totals, err := e.store.MonthlySalesTotals(ctx)
	if err != nil {
		return nil, fmt.Errorf("monthly totals: %w", err)
	}
	// Keep only the most recent twelve months of the trend.
	if len(totals) > salesTrendMonths {
		totals = totals[len(totals)-salesTrendMonths:]
	}
	trend := make([]TrendPoint, len(totals))
	for i, bucket := range totals {
		trend[i] = TrendPoint{
			Month:        bucket.Month,
			Year:         bucket.Year,
			TotalSales:   bucket.Sales,
			Transactions: bucket.Orders,
		}
	}

	return &InventoryInsights{
		StockSummary:      summary,
		CategoryBreakdown: breakdown,
		MostPopular:       mostPopular,
		NonMovingItems:    nonMoving,
		MonthlySalesTrend: trend,
		Timestamp:         now.UTC().Truncate(time.Second),
	}, nil
}
