// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package strategies

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/store"
)

// frequentWindowMonths is how far back repeat-purchase analysis looks.
const frequentWindowMonths = 3

// Frequent recommends items the user buys repeatedly: anything purchased
// more than once in the lookback window, ranked by purchase count and
// recency.
type Frequent struct {
	purchases store.PurchaseStore
	items     store.ItemStore
	now       func() time.Time
}

// NewFrequent creates the repeat-purchase strategy.
func NewFrequent(purchases store.PurchaseStore, items store.ItemStore) *Frequent {
	return &Frequent{purchases: purchases, items: items, now: time.Now}
}

// Name implements Strategy.
func (f *Frequent) Name() string { return "frequent" }

// Recommend implements Strategy.
func (f *Frequent) Recommend(ctx context.Context, user *models.UserProfile, limit int) ([]ScoredItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	since := f.now().AddDate(0, -frequentWindowMonths, 0)
	stats, err := f.purchases.ItemStatsByUser(ctx, user.ID, since)
	if err != nil {
		return nil, fmt.Errorf("item stats for user %s: %w", user.ID, err)
	}

	repeats := stats[:0]
	for _, stat := range stats {
		if stat.PurchaseCount > 1 {
			repeats = append(repeats, stat)
		}
	}
	sort.SliceStable(repeats, func(i, j int) bool {
		if repeats[i].PurchaseCount != repeats[j].PurchaseCount {
			return repeats[i].PurchaseCount > repeats[j].PurchaseCount
		}
		return repeats[i].LastPurchase.After(repeats[j].LastPurchase)
	})
	if len(repeats) > limit {
		repeats = repeats[:limit]
	}
	if len(repeats) == 0 {
		return nil, nil
	}

	ids := make([]string, len(repeats))
	for i, stat := range repeats {
		ids[i] = stat.ItemID
	}
	items, err := f.items.FindItems(ctx, store.ItemFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	byID := make(map[string]*models.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	scored := make([]ScoredItem, 0, len(repeats))
	for _, stat := range repeats {
		item, ok := byID[stat.ItemID]
		if !ok {
			// Purchased item since removed from the catalog.
			continue
		}
		last := stat.LastPurchase
		scored = append(scored, ScoredItem{
			Item:          item,
			Score:         float64(stat.PurchaseCount) * FrequentWeight,
			Type:          TypeFrequent,
			PurchaseCount: stat.PurchaseCount,
			AvgQuantity:   float64(stat.TotalQuantity) / float64(stat.PurchaseCount),
			LastPurchased: &last,
		})
	}
	return scored, nil
}
