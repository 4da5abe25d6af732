// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package strategies

import (
	"context"
	"fmt"
	"sort"

	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/store"
)

const (
	// maxSimilarUsers caps the neighborhood size.
	maxSimilarUsers = 10
	// minSimilarPurchasers is the minimum number of distinct similar
	// users who must have bought an item before it is recommended.
	minSimilarPurchasers = 2
)

// Collaborative recommends items bought by similar users (same segment,
// household size within one) that the user has not bought themselves.
type Collaborative struct {
	purchases store.PurchaseStore
	items     store.ItemStore
	users     store.UserStore
}

// NewCollaborative creates the similar-user strategy.
func NewCollaborative(purchases store.PurchaseStore, items store.ItemStore, users store.UserStore) *Collaborative {
	return &Collaborative{purchases: purchases, items: items, users: users}
}

// Name implements Strategy.
func (c *Collaborative) Name() string { return "collaborative" }

// Recommend implements Strategy.
func (c *Collaborative) Recommend(ctx context.Context, user *models.UserProfile, limit int) ([]ScoredItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	similar, err := c.users.SimilarUsers(ctx, user.Segment,
		user.HouseholdSize-1, user.HouseholdSize+1, user.ID, maxSimilarUsers)
	if err != nil {
		return nil, fmt.Errorf("similar users: %w", err)
	}
	if len(similar) == 0 {
		return nil, nil
	}

	similarIDs := make([]string, len(similar))
	for i, u := range similar {
		similarIDs[i] = u.ID
	}
	counts, err := c.purchases.ItemPurchaserCounts(ctx, similarIDs)
	if err != nil {
		return nil, fmt.Errorf("purchaser counts: %w", err)
	}

	owned, err := c.purchases.DistinctItemIDs(ctx, user.ID)
	if err != nil {
		return nil, fmt.Errorf("user items: %w", err)
	}

	type candidate struct {
		itemID string
		buyers int
	}
	candidates := make([]candidate, 0, len(counts))
	for itemID, buyers := range counts {
		if buyers < minSimilarPurchasers {
			continue
		}
		if _, has := owned[itemID]; has {
			continue
		}
		candidates = append(candidates, candidate{itemID: itemID, buyers: buyers})
	}
	sort.Slice(candidates, func(i, j int) bool {
		if candidates[i].buyers != candidates[j].buyers {
			return candidates[i].buyers > candidates[j].buyers
		}
		return candidates[i].itemID < candidates[j].itemID
	})
	if len(candidates) > limit {
		candidates = candidates[:limit]
	}
	if len(candidates) == 0 {
		return nil, nil
	}

	ids := make([]string, len(candidates))
	for i, cand := range candidates {
		ids[i] = cand.itemID
	}
	items, err := c.items.FindItems(ctx, store.ItemFilter{IDs: ids})
	if err != nil {
		return nil, fmt.Errorf("load items: %w", err)
	}
	byID := make(map[string]*models.InventoryItem, len(items))
	for _, item := range items {
		byID[item.ID] = item
	}

	scored := make([]ScoredItem, 0, len(candidates))
	for _, cand := range candidates {
		item, ok := byID[cand.itemID]
		if !ok {
			continue
		}
		scored = append(scored, ScoredItem{
			Item:          item,
			Score:         float64(cand.buyers) * CollaborativeWeight,
			Type:          TypeCollaborative,
			SimilarBuyers: cand.buyers,
		})
	}
	return scored, nil
}
