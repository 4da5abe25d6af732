// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package recommend

import (
	"context"
	"testing"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/store"
)

// June 15th: the restock seasonal window looks at July.
var restockNow = time.Date(2026, time.June, 15, 9, 0, 0, 0, time.UTC)

func TestRestockUrgencyAndQuantities(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, mem := newTestEngine(t)
	engine.now = func() time.Time { return restockNow }

	// a: below threshold, high urgency, reorder 2*5-2=8.
	addItem(t, mem, "a", func(i *models.InventoryItem) { i.Stock = 2 })
	// b: in the trending band (5 <= 6 < 10), medium, reorder 0+10=10.
	addItem(t, mem, "b", func(i *models.InventoryItem) { i.Stock = 6 })
	// c: nearly out AND in season next month: high, seasonal, reorder
	// escalated to 2*5=10.
	addItem(t, mem, "c", func(i *models.InventoryItem) {
		i.Stock = 1
		i.Seasonal = true
		i.SeasonalAvailability = []string{"July"}
	})
	// d: healthy stock but seasonal demand coming and under 3x threshold:
	// medium, reorder 2*5=10.
	addItem(t, mem, "d", func(i *models.InventoryItem) {
		i.Stock = 12
		i.Seasonal = true
		i.SeasonalAvailability = []string{"July"}
	})
	// e: plenty of stock, never flagged.
	addItem(t, mem, "e", func(i *models.InventoryItem) { i.Stock = 50 })

	got, err := engine.GetRestockRecommendations(ctx)
	if err != nil {
		t.Fatalf("GetRestockRecommendations: %v", err)
	}

	wantOrder := []string{"c", "a", "d", "b"}
	if len(got) != len(wantOrder) {
		t.Fatalf("got %d candidates, want %d", len(got), len(wantOrder))
	}
	for i, want := range wantOrder {
		if got[i].Item.ID != want {
			t.Fatalf("position %d = %s, want %s (full: %v)", i, got[i].Item.ID, want, candidateIDs(got))
		}
	}

	byID := make(map[string]RestockCandidate, len(got))
	for _, c := range got {
		byID[c.Item.ID] = c
	}

	a := byID["a"]
	if a.Urgency != UrgencyHigh || a.RecommendedQuantity != 8 {
		t.Errorf("a = %s/%d, want high/8", a.Urgency, a.RecommendedQuantity)
	}
	b := byID["b"]
	if b.Urgency != UrgencyMedium || b.RecommendedQuantity != 10 {
		t.Errorf("b = %s/%d, want medium/10", b.Urgency, b.RecommendedQuantity)
	}
	c := byID["c"]
	if c.Urgency != UrgencyHigh || !c.IsSeasonal || c.UpcomingSeason != "July" {
		t.Errorf("c = %+v, want high seasonal July", c)
	}
	if c.RecommendedQuantity != 10 {
		t.Errorf("c quantity = %d, want escalated to 10", c.RecommendedQuantity)
	}
	d := byID["d"]
	if d.Urgency != UrgencyMedium || !d.IsSeasonal || d.RecommendedQuantity != 10 {
		t.Errorf("d = %+v, want medium seasonal qty 10", d)
	}
}

func TestRestockMinimumBatch(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, mem := newTestEngine(t)
	engine.now = func() time.Time { return restockNow }

	// threshold 2, stock 1: 2*2-1=3 is below the minimum batch of 5.
	addItem(t, mem, "tiny", func(i *models.InventoryItem) {
		i.Stock = 1
		i.RestockThreshold = 2
	})

	got, err := engine.GetRestockRecommendations(ctx)
	if err != nil {
		t.Fatalf("GetRestockRecommendations: %v", err)
	}
	if len(got) != 1 || got[0].RecommendedQuantity != 5 {
		t.Fatalf("got %+v, want the floor quantity 5", got)
	}
}

func TestRestockHistoricalDemandRaisesQuantities(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, mem := newTestEngine(t)
	engine.now = func() time.Time { return restockNow }

	addItem(t, mem, "a", func(i *models.InventoryItem) { i.Stock = 2 }) // high, base qty 8
	addItem(t, mem, "b", func(i *models.InventoryItem) { i.Stock = 6 }) // medium, base qty 10
	addItem(t, mem, "e", func(i *models.InventoryItem) { i.Stock = 50 })

	// June last year: 20 units of a across two orders. Projection 20*1.1 = 22 > 8.
	appendQuantityPurchase(t, mem, "hist-1", time.Date(2025, time.June, 10, 0, 0, 0, 0, time.UTC), "a", 12)
	appendQuantityPurchase(t, mem, "hist-1b", time.Date(2025, time.June, 18, 0, 0, 0, 0, time.UTC), "a", 8)
	// May this year: 30 units of b sold. Projection 30*0.9 = 27 > 10.
	appendQuantityPurchase(t, mem, "hist-2", time.Date(2026, time.May, 20, 0, 0, 0, 0, time.UTC), "b", 30)
	// Heavy historical demand for an unflagged item changes nothing.
	appendQuantityPurchase(t, mem, "hist-3", time.Date(2025, time.June, 12, 0, 0, 0, 0, time.UTC), "e", 500)

	got, err := engine.GetRestockRecommendations(ctx)
	if err != nil {
		t.Fatalf("GetRestockRecommendations: %v", err)
	}

	byID := make(map[string]RestockCandidate, len(got))
	for _, c := range got {
		byID[c.Item.ID] = c
	}
	if _, flagged := byID["e"]; flagged {
		t.Error("historical demand alone must not flag an item")
	}

	a := byID["a"]
	if a.RecommendedQuantity != 22 {
		t.Errorf("a quantity = %d, want 22 from last year's demand", a.RecommendedQuantity)
	}
	if d := a.HistoricalDemand[HistoryLastYear]; d.TotalQuantity != 20 || d.Transactions != 2 {
		t.Errorf("a lastYear demand = %+v, want 20 units over 2 orders", d)
	}

	b := byID["b"]
	if b.RecommendedQuantity != 27 {
		t.Errorf("b quantity = %d, want 27 from last month's demand", b.RecommendedQuantity)
	}
	if d := b.HistoricalDemand[HistoryLastMonth]; d.TotalQuantity != 30 || d.Transactions != 1 {
		t.Errorf("b lastMonth demand = %+v, want 30 units over 1 order", d)
	}
}

func TestRestockJanuaryLooksAtDecemberHistory(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	engine, mem := newTestEngine(t)
	engine.now = func() time.Time {
		return time.Date(2026, time.January, 10, 0, 0, 0, 0, time.UTC)
	}

	addItem(t, mem, "a", func(i *models.InventoryItem) { i.Stock = 2 })
	// December of the previous year is "last month".
	appendQuantityPurchase(t, mem, "hist", time.Date(2025, time.December, 5, 0, 0, 0, 0, time.UTC), "a", 40)

	got, err := engine.GetRestockRecommendations(ctx)
	if err != nil {
		t.Fatalf("GetRestockRecommendations: %v", err)
	}
	if len(got) != 1 {
		t.Fatalf("got %d candidates, want 1", len(got))
	}
	// 40 * 0.9 = 36.
	if got[0].RecommendedQuantity != 36 {
		t.Errorf("quantity = %d, want 36", got[0].RecommendedQuantity)
	}
}

func appendQuantityPurchase(t *testing.T, s store.PurchaseStore, id string, when time.Time, itemID string, qty int) {
	t.Helper()
	rec := models.NewPurchaseRecord(id, "shopper", []models.PurchaseLine{
		{ItemID: itemID, Quantity: qty, Price: 10},
	}, when)
	if err := s.AppendPurchase(context.Background(), rec); err != nil {
		t.Fatalf("seeding purchase %s: %v", id, err)
	}
}

func candidateIDs(cands []RestockCandidate) []string {
	out := make([]string, len(cands))
	for i, c := range cands {
		out[i] = c.Item.ID
	}
	return out
}
