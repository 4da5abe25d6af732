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

const (
	// defaultRepurchaseDays is the assumed repurchase interval for items
	// bought only once, where no cadence can be derived.
	defaultRepurchaseDays = 30.0

	// depletionThresholdPercent is how far through the estimated
	// repurchase cycle an item must be before it is suggested.
	depletionThresholdPercent = 70.0
)

// Depletion predicts which of the user's past purchases are about to run
// out, from the average number of days between their purchases.
type Depletion struct {
	purchases store.PurchaseStore
	items     store.ItemStore
	now       func() time.Time
}

// NewDepletion creates the stock-depletion strategy.
func NewDepletion(purchases store.PurchaseStore, items store.ItemStore) *Depletion {
	return &Depletion{purchases: purchases, items: items, now: time.Now}
}

// Name implements Strategy.
func (d *Depletion) Name() string { return "depletion" }

// Recommend implements Strategy.
func (d *Depletion) Recommend(ctx context.Context, user *models.UserProfile, limit int) ([]ScoredItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	stats, err := d.purchases.ItemStatsByUser(ctx, user.ID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("item stats for user %s: %w", user.ID, err)
	}

	now := d.now()
	type candidate struct {
		stat      store.ItemPurchaseStat
		depletion float64
	}
	candidates := make([]candidate, 0)
	for _, stat := range stats {
		avgDays := defaultRepurchaseDays
		if stat.PurchaseCount >= 2 {
			span := stat.LastPurchase.Sub(stat.FirstPurchase)
			avgDays = span.Hours() / 24 / float64(stat.PurchaseCount-1)
		}
		if avgDays <= 0 {
			continue
		}

		daysSince := now.Sub(stat.LastPurchase).Hours() / 24
		pct := daysSince / avgDays * 100
		if pct > 100 {
			pct = 100
		}
		if pct > depletionThresholdPercent {
			candidates = append(candidates, candidate{stat: stat, depletion: pct})
		}
	}
	sort.SliceStable(candidates, func(i, j int) bool {
		if candidates[i].depletion != candidates[j].depletion {
			return candidates[i].depletion > candidates[j].depletion
		}
		return candidates[i].stat.ItemID < candidates[j].stat.ItemID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, cand := range candidates {
		ids[i] = cand.stat.ItemID
	}
	items, err := d.items.FindItems(ctx, store.ItemFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	byID := make(map[string]*models.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	scored := make([]ScoredItem, 0, len(candidates))
	for _, cand := range candidates {
		item, ok := byID[cand.stat.ItemID]
		if !ok {
			continue
		}
		last := cand.stat.LastPurchase
		scored = append(scored, ScoredItem{
			Item:             item,
			Score:            cand.depletion,
			Type:             TypeDepletion,
			PurchaseCount:    cand.stat.PurchaseCount,
			LastPurchased:    &last,
			DepletionPercent: cand.depletion,
		})
	}
	return scored, nil
}
