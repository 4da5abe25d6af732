// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package recommend

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/kiranakart/kiranakart/internal/logging"
	"github.com/kiranakart/kiranakart/internal/metrics"
	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/recommend/strategies"
	"github.com/kiranakart/kiranakart/internal/store"
)

// Personalization boost weights applied by the aggregator.
const (
	boostHealthTag    = 20.0
	boostValueTag     = 20.0
	boostTraditional  = 15.0
	boostPreferredCat = 10.0
	traditionalRegion = "North Indian"
)

// Config tunes the engine.
type Config struct {
	// DefaultLimit is used when the caller passes limit 0.
	DefaultLimit int
	// MaxLimit caps any requested limit.
	MaxLimit int
	// StrategyTimeout bounds each strategy's store queries.
	StrategyTimeout time.Duration
}

// DefaultConfig returns the engine defaults.
func DefaultConfig() Config {
	return Config{
		DefaultLimit:    10,
		MaxLimit:        50,
		StrategyTimeout: 5 * time.Second,
	}
}

// Engine combines the scoring strategies into ranked recommendations and
// serves the admin-side restock and insights aggregations. It holds only
// store references and is safe for concurrent use.
type Engine struct {
	store store.Store
	cfg   Config

	frequent      *strategies.Frequent
	collaborative *strategies.Collaborative
	content       *strategies.Content
	seasonal      *strategies.Seasonal
	depletion     *strategies.Depletion

	now func() time.Time
}

// New creates an engine over the given store.
func New(st store.Store, cfg Config) *Engine {
	if cfg.DefaultLimit <= 0 {
		cfg.DefaultLimit = DefaultConfig().DefaultLimit
	}
	if cfg.MaxLimit < cfg.DefaultLimit {
		cfg.MaxLimit = DefaultConfig().MaxLimit
	}
	if cfg.StrategyTimeout <= 0 {
		cfg.StrategyTimeout = DefaultConfig().StrategyTimeout
	}

	return &Engine{
		store:         st,
		cfg:           cfg,
		frequent:      strategies.NewFrequent(st, st),
		collaborative: strategies.NewCollaborative(st, st, st),
		content:       strategies.NewContent(st, st),
		seasonal:      strategies.NewSeasonal(st),
		depletion:     strategies.NewDepletion(st, st),
		now:           time.Now,
	}
}

// normalizeLimit applies the default and cap to a requested limit.
func (e *Engine) normalizeLimit(limit int) (int, error) {
	if limit < 0 {
		return 0, fmt.Errorf("limit %d: %w", limit, ErrInvalidInput)
	}
	if limit == 0 {
		limit = e.cfg.DefaultLimit
	}
	if limit > e.cfg.MaxLimit {
		limit = e.cfg.MaxLimit
	}
	return limit, nil
}

// GetUserRecommendations blends every strategy into one ranked list for
// the user. Individual strategy failures degrade to empty contributions;
// only an unknown user or invalid limit fails the call.
func (e *Engine) GetUserRecommendations(ctx context.Context, userID string, limit int) ([]ScoredItem, error) {
	metrics.RecommendationRequests.WithLabelValues("user").Inc()

	limit, err := e.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	// Seasonal and depletion are supporting signals and get a third of
	// the budget each; for tiny limits they contribute nothing.
	sideLimit := limit / 3

	type task struct {
		name  string
		limit int
		run   func(context.Context, *models.UserProfile, int) ([]strategies.ScoredItem, error)
	}
	tasks := []task{
		{e.frequent.Name(), limit, e.frequent.Recommend},
		{e.collaborative.Name(), limit, e.collaborative.Recommend},
		{e.content.Name(), limit, e.content.Recommend},
		{e.seasonal.Name(), sideLimit, e.seasonal.Recommend},
		{e.depletion.Name(), sideLimit, e.depletion.Recommend},
	}

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		results = make([][]strategies.ScoredItem, 0, len(tasks))
	)
	for _, tk := range tasks {
		wg.Add(1)
		go func(tk task) {
			defer wg.Done()

			runCtx, cancel := context.WithTimeout(ctx, e.cfg.StrategyTimeout)
			defer cancel()

			start := time.Now()
			items, err := tk.run(runCtx, user, tk.limit)
			metrics.RecordStrategy(tk.name, time.Since(start), err)
			if err != nil {
				// Recommendations are an enhancement: a broken strategy
				// degrades to an empty contribution.
				logging.Ctx(ctx).Warn().
					Err(err).
					Str("strategy", tk.name).
					Str("user_id", userID).
					Msg("Recommendation strategy failed, degrading to empty result")
				return
			}

			mu.Lock()
			results = append(results, items)
			mu.Unlock()
		}(tk)
	}
	wg.Wait()

	merged := mergeByMaxScore(results)
	e.personalize(user, merged)

	if user.PrefersVegetarian() {
		kept := merged[:0]
		for _, si := range merged {
			if si.Item.IsVegetarian {
				kept = append(kept, si)
			}
		}
		merged = kept
	}

	sort.SliceStable(merged, func(i, j int) bool {
		if merged[i].Score != merged[j].Score {
			return merged[i].Score > merged[j].Score
		}
		return merged[i].Item.ID < merged[j].Item.ID
	})
	if len(merged) > limit {
		merged = merged[:limit]
	}
	return merged, nil
}

// GetFrequentlyPurchasedItems returns the user's repeat purchases ranked
// by count and recency.
func (e *Engine) GetFrequentlyPurchasedItems(ctx context.Context, userID string, limit int) ([]ScoredItem, error) {
	metrics.RecommendationRequests.WithLabelValues("frequent").Inc()

	limit, err := e.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}
	user, err := e.store.GetUser(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("load user: %w", err)
	}

	items, err := e.frequent.Recommend(ctx, user, limit)
	if err != nil {
		return nil, fmt.Errorf("frequent items: %w", err)
	}
	return items, nil
}

// GetSeasonalRecommendations returns seasonal picks for an explicit
// zero-based month. The user is optional; when present their vegetarian
// preference filters the result.
func (e *Engine) GetSeasonalRecommendations(ctx context.Context, month int, user *models.UserProfile, limit int) ([]ScoredItem, error) {
	metrics.RecommendationRequests.WithLabelValues("seasonal").Inc()

	if month < 0 || month > 11 {
		return nil, fmt.Errorf("month %d: %w", month, ErrInvalidInput)
	}
	limit, err := e.normalizeLimit(limit)
	if err != nil {
		return nil, err
	}

	items, err := e.seasonal.RecommendForMonth(ctx, month, user, limit)
	if err != nil {
		return nil, fmt.Errorf("seasonal items: %w", err)
	}
	return items, nil
}

// mergeByMaxScore deduplicates strategy outputs by item, keeping the
// highest-scoring entry for each.
func mergeByMaxScore(results [][]strategies.ScoredItem) []ScoredItem {
	best := make(map[string]ScoredItem)
	order := make([]string, 0)
	for _, items := range results {
		for _, si := range items {
			prev, seen := best[si.Item.ID]
			if !seen {
				best[si.Item.ID] = si
				order = append(order, si.Item.ID)
				continue
			}
			if si.Score > prev.Score {
				best[si.Item.ID] = si
			}
		}
	}

	merged := make([]ScoredItem, 0, len(order))
	for _, id := range order {
		merged = append(merged, best[id])
	}
	return merged
}

// personalize applies segment and preference boosts in place. Boosts are
// cumulative.
func (e *Engine) personalize(user *models.UserProfile, items []ScoredItem) {
	preferred := make(map[string]struct{}, len(user.PreferredCategories))
	for _, c := range user.PreferredCategories {
		preferred[c] = struct{}{}
	}

	for i := range items {
		item := items[i].Item

		switch user.Segment {
		case models.SegmentHealthConscious:
			if item.HasTag("healthy") || item.HasTag("organic") {
				items[i].Score += boostHealthTag
			}
		case models.SegmentPriceSensitive:
			if item.HasTag("value") {
				items[i].Score += boostValueTag
			}
		case models.SegmentTraditional:
			if item.HasTag("traditional") || item.Region == traditionalRegion {
				items[i].Score += boostTraditional
			}
		}

		if _, ok := preferred[item.Category]; ok {
			items[i].Score += boostPreferredCat
		}
	}
}
