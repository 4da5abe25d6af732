// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package store

import (
	"sort"
	"strings"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
)

// Both store implementations evaluate filters the same way: the Badger
// store over a prefix scan, the in-memory store over its map. Keeping the
// predicate and ordering logic here guarantees identical query semantics.

func itemMatches(item *models.InventoryItem, f ItemFilter) bool {
	if len(f.IDs) > 0 && !containsString(f.IDs, item.ID) {
		return false
	}
	if containsString(f.ExcludeIDs, item.ID) {
		return false
	}
	if f.Category != "" && item.Category != f.Category {
		return false
	}
	if f.SubCategory != "" && item.SubCategory != f.SubCategory {
		return false
	}
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(item.Name), q) &&
			!strings.Contains(strings.ToLower(item.Category), q) &&
			!strings.Contains(strings.ToLower(item.Brand), q) {
			return false
		}
	}
	if f.VegetarianOnly && !item.IsVegetarian {
		return false
	}
	if f.SeasonalOnly && !item.Seasonal {
		return false
	}
	if f.AvailableMonth != nil {
		name := models.MonthName(*f.AvailableMonth)
		if name == "" || !containsString(item.SeasonalAvailability, name) {
			return false
		}
	}
	if f.StockBelowFactor != nil {
		if float64(item.Stock) >= *f.StockBelowFactor*float64(item.RestockThreshold) {
			return false
		}
	}
	if f.StockAtOrAboveFactor != nil {
		if float64(item.Stock) < *f.StockAtOrAboveFactor*float64(item.RestockThreshold) {
			return false
		}
	}
	if f.MinStock != nil && item.Stock < *f.MinStock {
		return false
	}
	return true
}

// sortItems orders items in place according to the requested sort. Ties
// fall back to ID so query results are deterministic.
func sortItems(items []*models.InventoryItem, order string) {
	var less func(a, b *models.InventoryItem) bool

	switch order {
	case SortPopularityDesc:
		less = func(a, b *models.InventoryItem) bool {
			return a.Popularity > b.Popularity
		}
	case SortPopularityRating:
		less = func(a, b *models.InventoryItem) bool {
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
			return a.AvgRating > b.AvgRating
		}
	case SortPopularityFreq:
		less = func(a, b *models.InventoryItem) bool {
			if a.Popularity != b.Popularity {
				return a.Popularity > b.Popularity
			}
			return a.PurchaseFrequency > b.PurchaseFrequency
		}
	case SortPriceDesc:
		less = func(a, b *models.InventoryItem) bool {
			return a.Price > b.Price
		}
	case SortValueDesc:
		less = func(a, b *models.InventoryItem) bool {
			return a.Price*float64(a.Stock) > b.Price*float64(b.Stock)
		}
	case SortNameAsc:
		less = func(a, b *models.InventoryItem) bool {
			return a.Name < b.Name
		}
	default:
		return
	}

	sort.SliceStable(items, func(i, j int) bool {
		a, b := items[i], items[j]
		if less(a, b) {
			return true
		}
		if less(b, a) {
			return false
		}
		return a.ID < b.ID
	})
}

func applyPage(items []*models.InventoryItem, limit, offset int) []*models.InventoryItem {
	if offset > 0 {
		if offset >= len(items) {
			return nil
		}
		items = items[offset:]
	}
	if limit > 0 && len(items) > limit {
		items = items[:limit]
	}
	return items
}

func containsString(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// aggregateItemStats groups purchase records by item id.
func aggregateItemStats(recs []*models.PurchaseRecord) []ItemPurchaseStat {
	byItem := make(map[string]*ItemPurchaseStat)
	for _, rec := range recs {
		for _, line := range rec.Items {
			stat, ok := byItem[line.ItemID]
			if !ok {
				stat = &ItemPurchaseStat{
					ItemID:        line.ItemID,
					FirstPurchase: rec.PurchaseDate,
					LastPurchase:  rec.PurchaseDate,
				}
				byItem[line.ItemID] = stat
			}
			stat.PurchaseCount++
			stat.TotalQuantity += line.Quantity
			if rec.PurchaseDate.Before(stat.FirstPurchase) {
				stat.FirstPurchase = rec.PurchaseDate
			}
			if rec.PurchaseDate.After(stat.LastPurchase) {
				stat.LastPurchase = rec.PurchaseDate
			}
		}
	}

	stats := make([]ItemPurchaseStat, 0, len(byItem))
	for _, stat := range byItem {
		stats = append(stats, *stat)
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].ItemID < stats[j].ItemID })
	return stats
}

// aggregateMonthlySales buckets purchase records by (year, month) in
// chronological order.
func aggregateMonthlySales(recs []*models.PurchaseRecord) []MonthlySales {
	type key struct{ year, month int }
	buckets := make(map[key]*MonthlySales)
	for _, rec := range recs {
		k := key{rec.Year, rec.Month}
		b, ok := buckets[k]
		if !ok {
			b = &MonthlySales{Month: rec.Month, Year: rec.Year}
			buckets[k] = b
		}
		b.Orders++
		b.Sales += rec.TotalAmount
	}

	out := make([]MonthlySales, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Year != out[j].Year {
			return out[i].Year < out[j].Year
		}
		return out[i].Month < out[j].Month
	})
	return out
}

// sortPurchasesNewestFirst orders records by purchase date descending,
// breaking ties by ID for determinism.
func sortPurchasesNewestFirst(recs []*models.PurchaseRecord) {
	sort.SliceStable(recs, func(i, j int) bool {
		if !recs[i].PurchaseDate.Equal(recs[j].PurchaseDate) {
			return recs[i].PurchaseDate.After(recs[j].PurchaseDate)
		}
		return recs[i].ID < recs[j].ID
	})
}

func purchaseSince(rec *models.PurchaseRecord, since time.Time) bool {
	return since.IsZero() || !rec.PurchaseDate.Before(since)
}

func sortUsersByID(users []*models.UserProfile) {
	sort.Slice(users, func(i, j int) bool { return users[i].ID < users[j].ID })
}
