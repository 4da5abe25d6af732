// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

// Package store defines the document store for catalog items, purchase
// records, and user profiles, with a BadgerDB implementation for
// production and an in-memory implementation for tests.
//
// The recommendation engine depends only on the narrow query interfaces
// declared here, never on the underlying store's query mechanics.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
)

// Sentinel errors.
var (
	// ErrNotFound is returned when a referenced document does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInsufficientStock is returned by Checkout when an item has less
	// stock than the requested quantity.
	ErrInsufficientStock = errors.New("insufficient stock")

	// ErrDuplicateID is returned when creating a document whose ID already exists.
	ErrDuplicateID = errors.New("duplicate id")
)

// Item sort orders.
const (
	SortNone             = ""
	SortPopularityDesc   = "popularity_desc"
	SortPopularityRating = "popularity_rating_desc"
	SortPopularityFreq   = "popularity_frequency_desc"
	SortPriceDesc        = "price_desc"
	SortValueDesc        = "value_desc"
	SortNameAsc          = "name_asc"
)

// ItemFilter is a typed query against the item catalog. Zero values mean
// "no constraint". Threshold factors express stock bounds relative to each
// item's own restock threshold.
type ItemFilter struct {
	IDs         []string
	ExcludeIDs  []string
	Category    string
	SubCategory string
	// Search matches name, category, or brand, case-insensitive substring.
	Search string

	VegetarianOnly bool
	SeasonalOnly   bool
	// AvailableMonth restricts seasonal items to those whose
	// seasonalAvailability includes this zero-based month. Nil means no
	// month constraint.
	AvailableMonth *int

	// StockBelowFactor keeps items with stock < factor x restockThreshold.
	StockBelowFactor *float64
	// StockAtOrAboveFactor keeps items with stock >= factor x restockThreshold.
	StockAtOrAboveFactor *float64
	// MinStock keeps items with stock >= MinStock.
	MinStock *int

	Sort   string
	Limit  int
	Offset int
}

// StockDecrement is one checkout line: decrement Quantity from ItemID.
type StockDecrement struct {
	ItemID   string
	Quantity int
}

// ItemPurchaseStat is a per-item aggregation over a user's purchases:
// how many purchases included the item, total quantity, and the first and
// last purchase timestamps.
type ItemPurchaseStat struct {
	ItemID        string
	PurchaseCount int
	TotalQuantity int
	FirstPurchase time.Time
	LastPurchase  time.Time
}

// MonthDemand is one item's sales in one calendar month: units sold and
// the number of purchases that included the item.
type MonthDemand struct {
	TotalQuantity int
	Transactions  int
}

// accumulateMonthDemand folds one purchase into the per-item demand map.
// An item counts as one transaction per purchase regardless of how many
// lines reference it.
func accumulateMonthDemand(demand map[string]MonthDemand, rec *models.PurchaseRecord) {
	seen := make(map[string]struct{}, len(rec.Items))
	for _, line := range rec.Items {
		d := demand[line.ItemID]
		d.TotalQuantity += line.Quantity
		if _, dup := seen[line.ItemID]; !dup {
			d.Transactions++
			seen[line.ItemID] = struct{}{}
		}
		demand[line.ItemID] = d
	}
}

// MonthlySales is total revenue and order count for one calendar month.
type MonthlySales struct {
	Month  int // 0 = January
	Year   int
	Orders int
	Sales  float64
}

// ItemStore is the catalog query surface.
type ItemStore interface {
	CreateItem(ctx context.Context, item *models.InventoryItem) error
	GetItem(ctx context.Context, id string) (*models.InventoryItem, error)
	UpdateItem(ctx context.Context, item *models.InventoryItem) error
	DeleteItem(ctx context.Context, id string) error

	// FindItems runs a typed filter query against the catalog.
	FindItems(ctx context.Context, filter ItemFilter) ([]*models.InventoryItem, error)

	// CountItems returns the number of items matching the filter,
	// ignoring Limit and Offset.
	CountItems(ctx context.Context, filter ItemFilter) (int, error)

	// Checkout atomically decrements stock for every line, rejecting the
	// whole batch with ErrInsufficientStock if any item would go negative.
	Checkout(ctx context.Context, lines []StockDecrement) error

	// RecordItemPurchase bumps the purchase counters on an item:
	// purchaseFrequency by one and popularity by quantity.
	RecordItemPurchase(ctx context.Context, itemID string, quantity int) error
}

// PurchaseStore is the append-only purchase event surface.
type PurchaseStore interface {
	// AppendPurchase stores a new purchase record. Records are immutable
	// once written.
	AppendPurchase(ctx context.Context, rec *models.PurchaseRecord) error

	// PurchasesByUser returns a user's purchases with purchaseDate >= since,
	// newest first. A zero since means no lower bound.
	PurchasesByUser(ctx context.Context, userID string, since time.Time) ([]*models.PurchaseRecord, error)

	// PurchasePage returns one page of a user's purchases newest first,
	// plus the total count.
	PurchasePage(ctx context.Context, userID string, limit, offset int) ([]*models.PurchaseRecord, int, error)

	// ItemStatsByUser aggregates a user's purchases since the given time,
	// grouped by item id.
	ItemStatsByUser(ctx context.Context, userID string, since time.Time) ([]ItemPurchaseStat, error)

	// DistinctItemIDs returns the set of item ids appearing in any
	// purchase by the given user.
	DistinctItemIDs(ctx context.Context, userID string) (map[string]struct{}, error)

	// ItemPurchaserCounts returns, for each item purchased by any of the
	// given users, the number of DISTINCT users who purchased it.
	ItemPurchaserCounts(ctx context.Context, userIDs []string) (map[string]int, error)

	// ItemDemandByMonth aggregates purchased quantity and transaction
	// count per item over all purchases in the given calendar month
	// (zero-based) and year.
	ItemDemandByMonth(ctx context.Context, month, year int) (map[string]MonthDemand, error)

	// ItemIDsPurchasedSince returns the ids of every item appearing in
	// any purchase with purchaseDate >= since.
	ItemIDsPurchasedSince(ctx context.Context, since time.Time) (map[string]struct{}, error)

	// MonthlySalesTotals aggregates all purchases into per-(month, year)
	// revenue and order counts, in chronological order.
	MonthlySalesTotals(ctx context.Context) ([]MonthlySales, error)
}

// UserStore is the user profile surface.
type UserStore interface {
	CreateUser(ctx context.Context, user *models.UserProfile) error
	GetUser(ctx context.Context, id string) (*models.UserProfile, error)
	UpdateUser(ctx context.Context, user *models.UserProfile) error

	// FindUserByEmail returns the user with the given email, or ErrNotFound.
	FindUserByEmail(ctx context.Context, email string) (*models.UserProfile, error)

	// SimilarUsers returns up to limit users in the given segment with
	// household size within [minHousehold, maxHousehold], excluding excludeID.
	SimilarUsers(ctx context.Context, segment string, minHousehold, maxHousehold int, excludeID string, limit int) ([]*models.UserProfile, error)
}

// Store is the full document store.
type Store interface {
	ItemStore
	PurchaseStore
	UserStore

	Close() error
}
