// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package strategies

import (
	"context"
	"fmt"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/store"
)

// Seasonal recommends seasonal items available in the current month,
// ranked by popularity. Every seasonal pick carries the same fixed score
// so seasonality never outweighs personal signals.
type Seasonal struct {
	items store.ItemStore
	now   func() time.Time
}

// NewSeasonal creates the seasonal strategy.
func NewSeasonal(items store.ItemStore) *Seasonal {
	return &Seasonal{items: items, now: time.Now}
}

// Name implements Strategy.
func (s *Seasonal) Name() string { return "seasonal" }

// Recommend implements Strategy.
func (s *Seasonal) Recommend(ctx context.Context, user *models.UserProfile, limit int) ([]ScoredItem, error) {
	return s.RecommendForMonth(ctx, models.ZeroBasedMonth(s.now()), user, limit)
}

// RecommendForMonth returns seasonal picks for an explicit zero-based month.
func (s *Seasonal) RecommendForMonth(ctx context.Context, month int, user *models.UserProfile, limit int) ([]ScoredItem, error) {
	if limit <= 0 {
		return nil, nil
	}

	items, err := s.items.FindItems(ctx, store.ItemFilter{
		SeasonalOnly:   true,
		AvailableMonth: &month,
		VegetarianOnly: user != nil && user.PrefersVegetarian(),
		Sort:           store.SortPopularityDesc,
		Limit:          limit,
	})
	if err != nil {
		return nil, fmt.Errorf("seasonal items for %s: %w", models.MonthName(month), err)
	}

	scored := make([]ScoredItem, 0, len(items))
	for _, item := range items {
		scored = append(scored, ScoredItem{
			Item:  item,
			Score: SeasonalScore,
			Type:  TypeSeasonal,
		})
	}
	return scored, nil
}
