// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package store

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v4"
	"github.com/goccy/go-json"

	"github.com/kiranakart/kiranakart/internal/models"
)

// Key prefixes for BadgerDB storage.
const (
	itemKeyPrefix     = "item:"
	purchaseKeyPrefix = "purchase:"
	// purchaseUserKeyPrefix indexes purchases by user for efficient
	// per-user scans: purchase_user:<userID>:<purchaseID> -> purchaseID.
	purchaseUserKeyPrefix = "purchase_user:"
	userKeyPrefix         = "user:"
	// userEmailKeyPrefix indexes users by lowercased email:
	// user_email:<email> -> userID.
	userEmailKeyPrefix = "user_email:"
)

// checkoutRetries bounds optimistic-conflict retries on stock mutations.
const checkoutRetries = 5

// Badger is a BadgerDB-backed Store suitable for production use with
// persistence across restarts.
type Badger struct {
	db *badger.DB
}

// OpenBadger opens a BadgerDB store at the given path. An empty path with
// inMemory set runs fully in memory (used by tests and ephemeral deploys).
func OpenBadger(path string, inMemory bool) (*Badger, error) {
	opts := badger.DefaultOptions(path).
		WithInMemory(inMemory).
		WithLogger(nil)
	if inMemory {
		opts = opts.WithDir("").WithValueDir("")
	}

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("open badger at %q: %w", path, err)
	}
	return &Badger{db: db}, nil
}

// NewBadgerWithDB wraps an already-open BadgerDB handle.
func NewBadgerWithDB(db *badger.DB) *Badger {
	return &Badger{db: db}
}

// Close implements Store.
func (s *Badger) Close() error {
	return s.db.Close()
}

// RunValueLogGC triggers one value-log garbage collection cycle.
// badger.ErrNoRewrite means there was nothing to collect and is not an
// error for callers running GC on a schedule.
func (s *Badger) RunValueLogGC(discardRatio float64) error {
	return s.db.RunValueLogGC(discardRatio)
}

// CreateItem implements ItemStore.
func (s *Badger) CreateItem(_ context.Context, item *models.InventoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(itemKeyPrefix + item.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("item %s: %w", item.ID, ErrDuplicateID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check item: %w", err)
		}
		return txn.Set(key, data)
	})
}

// GetItem implements ItemStore.
func (s *Badger) GetItem(_ context.Context, id string) (*models.InventoryItem, error) {
	var item models.InventoryItem
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, itemKeyPrefix+id, &item)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("item %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get item %s: %w", id, err)
	}
	return &item, nil
}

// UpdateItem implements ItemStore.
func (s *Badger) UpdateItem(_ context.Context, item *models.InventoryItem) error {
	data, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("marshal item: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(itemKeyPrefix + item.ID)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("item %s: %w", item.ID, ErrNotFound)
			}
			return fmt.Errorf("check item: %w", err)
		}
		return txn.Set(key, data)
	})
}

// DeleteItem implements ItemStore.
func (s *Badger) DeleteItem(_ context.Context, id string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(itemKeyPrefix + id)
		if _, err := txn.Get(key); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("item %s: %w", id, ErrNotFound)
			}
			return fmt.Errorf("check item: %w", err)
		}
		return txn.Delete(key)
	})
}

// FindItems implements ItemStore.
func (s *Badger) FindItems(_ context.Context, filter ItemFilter) ([]*models.InventoryItem, error) {
	matched := make([]*models.InventoryItem, 0)

	err := s.scanItems(func(item *models.InventoryItem) {
		if itemMatches(item, filter) {
			matched = append(matched, item)
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan items: %w", err)
	}

	if filter.Sort == SortNone {
		sortItems(matched, SortNameAsc)
	} else {
		sortItems(matched, filter.Sort)
	}
	return applyPage(matched, filter.Limit, filter.Offset), nil
}

// CountItems implements ItemStore.
func (s *Badger) CountItems(_ context.Context, filter ItemFilter) (int, error) {
	count := 0
	err := s.scanItems(func(item *models.InventoryItem) {
		if itemMatches(item, filter) {
			count++
		}
	})
	if err != nil {
		return 0, fmt.Errorf("scan items: %w", err)
	}
	return count, nil
}

// Checkout implements ItemStore. Runs in a single transaction so the whole
// batch either applies or fails; retried on optimistic conflicts.
func (s *Badger) Checkout(_ context.Context, lines []StockDecrement) error {
	return s.updateWithRetry(func(txn *badger.Txn) error {
		items := make([]*models.InventoryItem, len(lines))
		for i, line := range lines {
			var item models.InventoryItem
			if err := getJSON(txn, itemKeyPrefix+line.ItemID, &item); err != nil {
				if errors.Is(err, badger.ErrKeyNotFound) {
					return fmt.Errorf("item %s: %w", line.ItemID, ErrNotFound)
				}
				return fmt.Errorf("get item %s: %w", line.ItemID, err)
			}
			if item.Stock < line.Quantity {
				return fmt.Errorf("item %s has %d in stock, want %d: %w",
					line.ItemID, item.Stock, line.Quantity, ErrInsufficientStock)
			}
			items[i] = &item
		}

		for i, line := range lines {
			items[i].Stock -= line.Quantity
			if err := setJSON(txn, itemKeyPrefix+line.ItemID, items[i]); err != nil {
				return fmt.Errorf("set item %s: %w", line.ItemID, err)
			}
		}
		return nil
	})
}

// RecordItemPurchase implements ItemStore.
func (s *Badger) RecordItemPurchase(_ context.Context, itemID string, quantity int) error {
	return s.updateWithRetry(func(txn *badger.Txn) error {
		var item models.InventoryItem
		if err := getJSON(txn, itemKeyPrefix+itemID, &item); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("item %s: %w", itemID, ErrNotFound)
			}
			return fmt.Errorf("get item %s: %w", itemID, err)
		}
		item.PurchaseFrequency++
		item.Popularity += quantity
		return setJSON(txn, itemKeyPrefix+itemID, &item)
	})
}

// AppendPurchase implements PurchaseStore.
func (s *Badger) AppendPurchase(_ context.Context, rec *models.PurchaseRecord) error {
	data, err := json.Marshal(rec)
	if err != nil {
		return fmt.Errorf("marshal purchase: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(purchaseKeyPrefix + rec.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("purchase %s: %w", rec.ID, ErrDuplicateID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check purchase: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set purchase: %w", err)
		}

		// User index for per-user scans.
		userKey := []byte(purchaseUserKeyPrefix + rec.UserID + ":" + rec.ID)
		if err := txn.Set(userKey, []byte(rec.ID)); err != nil {
			return fmt.Errorf("set user index: %w", err)
		}
		return nil
	})
}

// PurchasesByUser implements PurchaseStore.
func (s *Badger) PurchasesByUser(_ context.Context, userID string, since time.Time) ([]*models.PurchaseRecord, error) {
	recs := make([]*models.PurchaseRecord, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		ids, err := userPurchaseIDs(txn, userID)
		if err != nil {
			return err
		}
		for _, id := range ids {
			var rec models.PurchaseRecord
			if err := getJSON(txn, purchaseKeyPrefix+id, &rec); err != nil {
				return fmt.Errorf("get purchase %s: %w", id, err)
			}
			if purchaseSince(&rec, since) {
				recs = append(recs, &rec)
			}
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("purchases by user %s: %w", userID, err)
	}

	sortPurchasesNewestFirst(recs)
	return recs, nil
}

// PurchasePage implements PurchaseStore.
func (s *Badger) PurchasePage(ctx context.Context, userID string, limit, offset int) ([]*models.PurchaseRecord, int, error) {
	recs, err := s.PurchasesByUser(ctx, userID, time.Time{})
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
func (s *Badger) ItemStatsByUser(ctx context.Context, userID string, since time.Time) ([]ItemPurchaseStat, error) {
	recs, err := s.PurchasesByUser(ctx, userID, since)
	if err != nil {
		return nil, err
	}
	return aggregateItemStats(recs), nil
}

// DistinctItemIDs implements PurchaseStore.
func (s *Badger) DistinctItemIDs(ctx context.Context, userID string) (map[string]struct{}, error) {
	recs, err := s.PurchasesByUser(ctx, userID, time.Time{})
	if err != nil {
		return nil, err
	}

	ids := make(map[string]struct{})
	for _, rec := range recs {
		for _, line := range rec.Items {
			ids[line.ItemID] = struct{}{}
		}
	}
	return ids, nil
}

// ItemPurchaserCounts implements PurchaseStore.
func (s *Badger) ItemPurchaserCounts(ctx context.Context, userIDs []string) (map[string]int, error) {
	purchasers := make(map[string]map[string]struct{})

	for _, userID := range userIDs {
		recs, err := s.PurchasesByUser(ctx, userID, time.Time{})
		if err != nil {
			return nil, err
		}
		for _, rec := range recs {
			for _, line := range rec.Items {
				if purchasers[line.ItemID] == nil {
					purchasers[line.ItemID] = make(map[string]struct{})
				}
				purchasers[line.ItemID][rec.UserID] = struct{}{}
			}
		}
	}

	counts := make(map[string]int, len(purchasers))
	for itemID, set := range purchasers {
		counts[itemID] = len(set)
	}
	return counts, nil
}

// ItemDemandByMonth implements PurchaseStore.
func (s *Badger) ItemDemandByMonth(_ context.Context, month, year int) (map[string]MonthDemand, error) {
	demand := make(map[string]MonthDemand)
	err := s.scanPurchases(func(rec *models.PurchaseRecord) {
		if rec.Month != month || rec.Year != year {
			return
		}
		accumulateMonthDemand(demand, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("scan purchases: %w", err)
	}
	return demand, nil
}

// ItemIDsPurchasedSince implements PurchaseStore.
func (s *Badger) ItemIDsPurchasedSince(_ context.Context, since time.Time) (map[string]struct{}, error) {
	ids := make(map[string]struct{})
	err := s.scanPurchases(func(rec *models.PurchaseRecord) {
		if !purchaseSince(rec, since) {
			return
		}
		for _, line := range rec.Items {
			ids[line.ItemID] = struct{}{}
		}
	})
	if err != nil {
		return nil, fmt.Errorf("scan purchases: %w", err)
	}
	return ids, nil
}

// MonthlySalesTotals implements PurchaseStore.
func (s *Badger) MonthlySalesTotals(_ context.Context) ([]MonthlySales, error) {
	recs := make([]*models.PurchaseRecord, 0)
	err := s.scanPurchases(func(rec *models.PurchaseRecord) {
		recs = append(recs, rec)
	})
	if err != nil {
		return nil, fmt.Errorf("scan purchases: %w", err)
	}
	return aggregateMonthlySales(recs), nil
}

// scanPurchases walks every purchase record.
func (s *Badger) scanPurchases(fn func(*models.PurchaseRecord)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(purchaseKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var rec models.PurchaseRecord
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &rec)
			})
			if err != nil {
				return err
			}
			r := rec
			fn(&r)
		}
		return nil
	})
}

// CreateUser implements UserStore.
func (s *Badger) CreateUser(_ context.Context, user *models.UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + user.ID)
		if _, err := txn.Get(key); err == nil {
			return fmt.Errorf("user %s: %w", user.ID, ErrDuplicateID)
		} else if !errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("check user: %w", err)
		}
		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}
		if user.Email != "" {
			emailKey := []byte(userEmailKeyPrefix + strings.ToLower(user.Email))
			if err := txn.Set(emailKey, []byte(user.ID)); err != nil {
				return fmt.Errorf("set email index: %w", err)
			}
		}
		return nil
	})
}

// GetUser implements UserStore.
func (s *Badger) GetUser(_ context.Context, id string) (*models.UserProfile, error) {
	var user models.UserProfile
	err := s.db.View(func(txn *badger.Txn) error {
		return getJSON(txn, userKeyPrefix+id, &user)
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("user %s: %w", id, ErrNotFound)
		}
		return nil, fmt.Errorf("get user %s: %w", id, err)
	}
	return &user, nil
}

// UpdateUser implements UserStore.
func (s *Badger) UpdateUser(_ context.Context, user *models.UserProfile) error {
	data, err := json.Marshal(user)
	if err != nil {
		return fmt.Errorf("marshal user: %w", err)
	}

	return s.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + user.ID)

		var prev models.UserProfile
		if err := getJSON(txn, userKeyPrefix+user.ID, &prev); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return fmt.Errorf("user %s: %w", user.ID, ErrNotFound)
			}
			return fmt.Errorf("check user: %w", err)
		}

		if err := txn.Set(key, data); err != nil {
			return fmt.Errorf("set user: %w", err)
		}

		// Keep the email index in sync on change.
		if !strings.EqualFold(prev.Email, user.Email) {
			if prev.Email != "" {
				if err := txn.Delete([]byte(userEmailKeyPrefix + strings.ToLower(prev.Email))); err != nil {
					return fmt.Errorf("delete email index: %w", err)
				}
			}
			if user.Email != "" {
				if err := txn.Set([]byte(userEmailKeyPrefix+strings.ToLower(user.Email)), []byte(user.ID)); err != nil {
					return fmt.Errorf("set email index: %w", err)
				}
			}
		}
		return nil
	})
}

// FindUserByEmail implements UserStore.
func (s *Badger) FindUserByEmail(ctx context.Context, email string) (*models.UserProfile, error) {
	var userID string
	err := s.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userEmailKeyPrefix + strings.ToLower(email)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			userID = string(val)
			return nil
		})
	})
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return nil, fmt.Errorf("user with email %s: %w", email, ErrNotFound)
		}
		return nil, fmt.Errorf("lookup email %s: %w", email, err)
	}
	return s.GetUser(ctx, userID)
}

// SimilarUsers implements UserStore.
func (s *Badger) SimilarUsers(_ context.Context, segment string, minHousehold, maxHousehold int, excludeID string, limit int) ([]*models.UserProfile, error) {
	matched := make([]*models.UserProfile, 0)

	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(userKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var user models.UserProfile
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &user)
			})
			if err != nil {
				return err
			}
			if user.ID == excludeID || user.Segment != segment {
				continue
			}
			if user.HouseholdSize < minHousehold || user.HouseholdSize > maxHousehold {
				continue
			}
			u := user
			matched = append(matched, &u)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("scan users: %w", err)
	}

	sortUsersByID(matched)
	if limit > 0 && len(matched) > limit {
		matched = matched[:limit]
	}
	return matched, nil
}

// scanItems walks every item in the catalog.
func (s *Badger) scanItems(fn func(*models.InventoryItem)) error {
	return s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = true
		it := txn.NewIterator(opts)
		defer it.Close()

		prefix := []byte(itemKeyPrefix)
		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			var item models.InventoryItem
			err := it.Item().Value(func(val []byte) error {
				return json.Unmarshal(val, &item)
			})
			if err != nil {
				return err
			}
			i := item
			fn(&i)
		}
		return nil
	})
}

// updateWithRetry runs fn in an update transaction, retrying on
// optimistic-concurrency conflicts.
func (s *Badger) updateWithRetry(fn func(*badger.Txn) error) error {
	var err error
	for attempt := 0; attempt < checkoutRetries; attempt++ {
		err = s.db.Update(fn)
		if !errors.Is(err, badger.ErrConflict) {
			return err
		}
	}
	return fmt.Errorf("transaction conflict after %d attempts: %w", checkoutRetries, err)
}

func userPurchaseIDs(txn *badger.Txn, userID string) ([]string, error) {
	opts := badger.DefaultIteratorOptions
	opts.PrefetchValues = true
	it := txn.NewIterator(opts)
	defer it.Close()

	var ids []string
	prefix := []byte(purchaseUserKeyPrefix + userID + ":")
	for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
		err := it.Item().Value(func(val []byte) error {
			ids = append(ids, string(val))
			return nil
		})
		if err != nil {
			return nil, err
		}
	}
	return ids, nil
}

func getJSON(txn *badger.Txn, key string, dst interface{}) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		return err
	}
	return item.Value(func(val []byte) error {
		return json.Unmarshal(val, dst)
	})
}

func setJSON(txn *badger.Txn, key string, src interface{}) error {
	data, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("marshal: %w", err)
	}
	return txn.Set([]byte(key), data)
}
