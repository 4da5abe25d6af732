// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package store

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/kiranakart/kiranakart/internal/models"
)

// Memory is an in-memory Store. It is safe for concurrent use and copies
// documents on every read and write so callers never share memory with
// the store.
type Memory struct {
	mu        sync.RWMutex
	items     map[string]*models.InventoryItem
	purchases map[string]*models.PurchaseRecord
	users     map[string]*models.UserProfile
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		items:     make(map[string]*models.InventoryItem),
		purchases: make(map[string]*models.PurchaseRecord),
		users:     make(map[string]*models.UserProfile),
	}
}

// Close implements Store.
func (m *Memory) Close() error { return nil }

// CreateItem implements ItemStore.
func (m *Memory) CreateItem(_ context.Context, item *models.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; ok {
		return fmt.Errorf("item %s: %w", item.ID, ErrDuplicateID)
	}
	m.items[item.ID] = cloneItem(item)
	return nil
}

// GetItem implements ItemStore.
func (m *Memory) GetItem(_ context.Context, id string) (*models.InventoryItem, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	item, ok := m.items[id]
	if !ok {
		return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	return cloneItem(item), nil
}

// UpdateItem implements ItemStore.
func (m *Memory) UpdateItem(_ context.Context, item *models.InventoryItem) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[item.ID]; !ok {
		return fmt.Errorf("item %s: %w", item.ID, ErrNotFound)
	}
	m.items[item.ID] = cloneItem(item)
	return nil
}

// DeleteItem implements ItemStore.
func (m *Memory) DeleteItem(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.items[id]; !ok {
		return fmt.Errorf("item %s: %w", id, ErrNotFound)
	}
	delete(m.items, id)
	return nil
}

// FindItems implements ItemStore.
func (m *Memory) FindItems(_ context.Context, filter ItemFilter) ([]*models.InventoryItem, error) {
	m.mu.RLock()
	matched := make([]*models.InventoryItem, 0)
	for _, item := range m.items {
		if itemMatches(item, filter) {
			matched = append(matched, cloneItem(item))
		}
	}
	m.mu.RUnlock()

	if filter.Sort == SortNone {
		sortItems(matched, SortNameAsc)
	} else {
		sortItems(matched, filter.Sort)
	}
	return applyPage(matched, filter.Limit, filter.Offset), nil
}

// CountItems implements ItemStore.
func (m *Memory) CountItems(_ context.Context, filter ItemFilter) (int, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	count := 0
	for _, item := range m.items {
		if itemMatches(item, filter) {
			count++
		}
	}
	return count, nil
}

// Checkout implements ItemStore. The whole batch either applies or fails.
func (m *Memory) Checkout(_ context.Context, lines []StockDecrement) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for _, line := range lines {
		item, ok := m.items[line.ItemID]
		if !ok {
			return fmt.Errorf("item %s: %w", line.ItemID, ErrNotFound)
		}
		if item.Stock < line.Quantity {
			return fmt.Errorf("item %s has %d in stock, want %d: %w",
				line.ItemID, item.Stock, line.Quantity, ErrInsufficientStock)
		}
	}
	for _, line := range lines {
		m.items[line.ItemID].Stock -= line.Quantity
	}
	return nil
}

// RecordItemPurchase implements ItemStore.
func (m *Memory) RecordItemPurchase(_ context.Context, itemID string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	item, ok := m.items[itemID]
	if !ok {
		return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
	}
	item.PurchaseFrequency++
	item.Popularity += quantity
	return nil
}

// AppendPurchase implements PurchaseStore.
func (m *Memory) AppendPurchase(_ context.Context, rec *models.PurchaseRecord) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.purchases[rec.ID]; ok {
		return fmt.Errorf("purchase %s: %w", rec.ID, ErrDuplicateID)
	}
	m.purchases[rec.ID] = clonePurchase(rec)
	return nil
}

// PurchasesByUser implements PurchaseStore.
func (m *Memory) PurchasesByUser(_ context.Context, userID string, since time.Time) ([]*models.PurchaseRecord, error) {
	m.mu.RLock()
	recs := make([]*models.PurchaseRecord, 0)
	for _, rec := range m.purchases {
		if rec.UserID == userID && purchaseSince(rec, since) {
			recs = append(recs, clonePurchase(rec))
		}
	}
	m.mu.RUnlock()

	sortPurchasesNewestFirst(recs)
	return recs, nil
}

// PurchasePage implements PurchaseStore.
func (m *Memory) PurchasePage(ctx context.Context, userID string, limit, offset int) ([]*models.PurchaseRecord, int, error) {
	recs, err := m.PurchasesByUser(ctx, userID, time.Time{})
	if err != nil {
		return nil, 0, err
	}
	total := len(recs)

	if offset > 0 {
		if offset >= len(recs) {
			return nil, total, nil
		}
		recs = recs[offset:]
	}
	if limit > 0 && len(recs) > limit {
		recs = recs[:limit]
	}
	return recs, total, nil
}

// ItemStatsByUser implements PurchaseStore.
func (m *Memory) ItemStatsByUser(ctx context.Context, userID string, since time.Time) ([]ItemPurchaseStat, error) {
	recs, err := m.PurchasesByUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return aggregateItemStats(recs), nil
}

// DistinctItemIDs implements PurchaseStore.
func (m *Memory) DistinctItemIDs(_ context.Context, userID string) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(map[string]struct{})
	for _, rec := range m.purchases {
		if rec.UserID != userID {
			continue
		}
		for _, line := range rec.Items {
			ids[line.ItemID] = struct{}{}
		}
	}
	return ids, nil
}

// ItemPurchaserCounts implements PurchaseStore.
func (m *Memory) ItemPurchaserCounts(_ context.Context, userIDs []string) (map[string]int, error) {
	users := make(map[string]struct{}, len(userIDs))
	for _, id := range userIDs {
		users[id] = struct{}{}
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	purchasers := make(map[string]map[string]struct{})
	for _, rec := range m.purchases {
		if _, ok := users[rec.UserID]; !ok {
			continue
		}
		for _, line := range rec.Items {
			if purchasers[line.ItemID] == nil {
				purchasers[line.ItemID] = make(map[string]struct{})
			}
			purchasers[line.ItemID][rec.UserID] = struct{}{}
		}
	}

	counts := make(map[string]int, len(purchasers))
	for itemID, set := range purchasers {
		counts[itemID] = len(set)
	}
	return counts, nil
}

// ItemDemandByMonth implements PurchaseStore.
func (m *Memory) ItemDemandByMonth(_ context.Context, month, year int) (map[string]MonthDemand, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	demand := make(map[string]MonthDemand)
	for _, rec := range m.purchases {
		if rec.Month != month || rec.Year != year {
			continue
		}
		accumulateMonthDemand(demand, rec)
	}
	return demand, nil
}

// ItemIDsPurchasedSince implements PurchaseStore.
func (m *Memory) ItemIDsPurchasedSince(_ context.Context, since time.Time) (map[string]struct{}, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := make(map[string]struct{})
	for _, rec := range m.purchases {
		if !purchaseSince(rec, since) {
			continue
		}
		for _, line := range rec.Items {
			ids[line.ItemID] = struct{}{}
		}
	}
	return ids, nil
}

// MonthlySalesTotals implements PurchaseStore.
func (m *Memory) MonthlySalesTotals(_ context.Context) ([]MonthlySales, error) {
	m.mu.RLock()
	recs := make([]*models.PurchaseRecord, 0, len(m.purchases))
	for _, rec := range m.purchases {
		recs = append(recs, rec)
	}
	m.mu.RUnlock()

	return aggregateMonthlySales(recs), nil
}

// CreateUser implements UserStore.
func (m *Memory) CreateUser(_ context.Context, user *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; ok {
		return fmt.Errorf("user %s: %w", user.ID, ErrDuplicateID)
	}
	m.users[user.ID] = cloneUser(user)
	return nil
}

// GetUser implements UserStore.
func (m *Memory) GetUser(_ context.Context, id string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	user, ok := m.users[id]
	if !ok {
		return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
	}
	return cloneUser(user), nil
}

// UpdateUser implements UserStore.
func (m *Memory) UpdateUser(_ context.Context, user *models.UserProfile) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.users[user.ID]; !ok {
		return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
	}
	m.users[user.ID] = cloneUser(user)
	return nil
}

// FindUserByEmail implements UserStore.
func (m *Memory) FindUserByEmail(_ context.Context, email string) (*models.UserProfile, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	email = strings.ToLower(email)
	for _, user := range m.users {
		if strings.ToLower(user.Email) == email && email != "" {
			return cloneUser(user), nil
		}
	}
	return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
}

// SimilarUsers implements UserStore.
func (m *Memory) SimilarUsers(_ context.Context, segment string, minHousehold, maxHousehold int, excludeID string, limit int) ([]*models.UserProfile, error) {
	m.mu.RLock()
	matched := make([]*models.UserProfile, 0)
	for _, user := range m.users {
		if user.ID == excludeID {
			continue
		}
		if user.Segment != segment {
			continue
		}
		if user.HouseholdSize < minHousehold || user.HouseholdSize > maxHousehold {
			continue
		}
		matched = append(matched, cloneUser(user))
	}
	m.mu.RUnlock()

	sortUsersByID(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

func cloneItem(item *models.InventoryItem) *models.InventoryItem {
	out := *item
	out.Tags = append([]string(nil), item.Tags...)
	out.SeasonalAvailability = append([]string(nil), item.SeasonalAvailability...)
	out.MonthlyDemandHistory = append([]models.MonthlyDemand(nil), item.MonthlyDemandHistory...)
	return &out
}

func clonePurchase(rec *models.PurchaseRecord) *models.PurchaseRecord {
	out := *rec
	out.Items = append([]models.PurchaseLine(nil), rec.Items...)
	return &out
}

func cloneUser(user *models.UserProfile) *models.UserProfile {
	out := *user
	out.DietaryPreferences.Allergies = append([]string(nil), user.DietaryPreferences.Allergies...)
	out.DietaryPreferences.PreferredCuisines = append([]string(nil), user.DietaryPreferences.PreferredCuisines...)
	out.PreferredCategories = append([]string(nil), user.PreferredCategories...)
	out.FavoriteItems = append([]string(nil), user.FavoriteItems...)
	return &out
}
