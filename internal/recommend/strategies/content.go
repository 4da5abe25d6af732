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

// Content recommends unpurchased items from the category/sub-category
// pairs the user already shops in, ranked by popularity and rating.
type Content struct {
	purchases store.PurchaseStore
	items     store.ItemStore
}

// NewContent creates the category-affinity strategy.
func NewContent(purchases store.PurchaseStore, items store.ItemStore) *Content {
	return &Content{purchases: purchases, items: items}
}

// Name implements Strategy.
func (c *Content) Name() string { return "content" }

// Recommend implements Strategy.
func (c *Content) Recommend(ctx context.Context, user *models.UserProfile, limit int) ([]ScoredItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	recs, err := c.purchases.PurchasesByUser(ctx, user.ID, time.Time{})
	if err != nil {
		return nil, fmt.Errorf("purchases for user %s: %w", user.ID, err)
	}

	type pair struct{ category, subCategory string }
	seen := make(map[pair]struct{})
	pairs := make([]pair, 0)
	owned := make([]string, 0)
	ownedSet := make(map[string]struct{})
	for _, rec := range recs {
		for _, line := range rec.Items {
			if _, ok := ownedSet[line.ItemID]; !ok {
				ownedSet[line.ItemID] = struct{}{}
				owned = append(owned, line.ItemID)
			}
			if line.CategoryAtPurchase == "" {
				continue
			}
			p := pair{line.CategoryAtPurchase, line.SubCategoryAtPurchase}
			if _, ok := seen[p]; !ok {
				seen[p] = struct{}{}
				pairs = append(pairs, p)
			}
		}
	}
	if len(pairs) == 0 {
		return nil, nil
	}

	// Spread the limit across the user's category pairs.
	perPair := (limit + len(pairs) - 1) / len(pairs)

	scored := make([]ScoredItem, 0, limit)
	for _, p := range pairs {
		items, err := c.items.FindItems(ctx, store.ItemFilter{
			Category:       p.category,
			SubCategory:    p.subCategory,
			ExcludeIDs:     owned,
			VegetarianOnly: user.PrefersVegetarian(),
			Sort:           store.SortPopularityRating,
			Limit:          perPair,
		})
		if err != nil {
			return nil, fmt.Errorf("items for category %s/%s: %w", p.category, p.subCategory, err)
		}
		for _, item := range items {
			scored = append(scored, ScoredItem{
				Item:  item,
				Score: float64(item.Popularity) + item.AvgRating*RatingWeight,
				Type:  TypeContent,
			})
		}
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}
	return scored, nil
}
