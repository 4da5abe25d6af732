// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goccy/go-json"

	"github.com/kiranakart/kiranakart/internal/auth"
	"github.com/kiranakart/kiranakart/internal/config"
	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/recommend"
	"github.com/kiranakart/kiranakart/internal/store"
)

type testAPI struct {
	store   *store.Memory
	handler *Handler
	router  http.Handler
}

func newTestAPI(t *testing.T) *testAPI {
	t.Helper()

	mem := store.NewMemory()
	cfg := &config.Config{
		API: config.APIConfig{DefaultPageSize: 20, MaxPageSize: 100},
		Security: config.SecurityConfig{
			JWTSecret:         "api-test-secret-key-with-enough-entropy-123",
			TokenLifetime:     time.Hour,
			BcryptCost:        4,
			RateLimitDisabled: true,
			CORSOrigins:       []string{"*"},
		},
		Recommend: config.RecommendConfig{
			DefaultLimit:    10,
			MaxLimit:        50,
			StrategyTimeout: 5 * time.Second,
		},
	}

	jwtMgr, err := auth.NewJWTManager(&cfg.Security)
	if err != nil {
		t.Fatalf("NewJWTManager() error = %v", err)
	}
	hasher := auth.NewPasswordHasher(cfg.Security.BcryptCost)
	engine := recommend.New(mem, recommend.Config{
		DefaultLimit:    cfg.Recommend.DefaultLimit,
		MaxLimit:        cfg.Recommend.MaxLimit,
		StrategyTimeout: cfg.Recommend.StrategyTimeout,
	})

	handler := NewHandler(mem, engine, jwtMgr, hasher, cfg)
	return &testAPI{
		store:   mem,
		handler: handler,
		router:  NewRouter(handler, cfg).Setup(),
	}
}

// seedUser creates a user directly in the store and returns a valid token.
func (a *testAPI) seedUser(t *testing.T, id string, admin bool) string {
	t.Helper()

	user := models.NewUserProfile(id, time.Now().UTC())
	user.Name = "Test " + id
	user.Email = id + "@example.com"
	user.IsAdmin = admin
	hash, err := a.handler.hasher.Hash("password-123")
	if err != nil {
		t.Fatalf("Hash() error = %v", err)
	}
	user.PasswordHash = hash
	if err := a.store.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	token, err := a.handler.jwt.GenerateToken(id, admin)
	if err != nil {
		t.Fatalf("GenerateToken() error = %v", err)
	}
	return token
}

func (a *testAPI) seedItem(t *testing.T, item *models.InventoryItem) {
	t.Helper()
	if item.Unit == "" {
		item.Unit = models.UnitPiece
	}
	if err := a.store.CreateItem(context.Background(), item); err != nil {
		t.Fatalf("CreateItem(%s) error = %v", item.ID, err)
	}
}

func (a *testAPI) do(t *testing.T, method, path, token string, body interface{}) (*httptest.ResponseRecorder, *APIResponse) {
	t.Helper()

	var reader *bytes.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(raw)
	} else {
		reader = bytes.NewReader(nil)
	}

	req := httptest.NewRequest(method, path, reader)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	a.router.ServeHTTP(rec, req)

	var resp APIResponse
	if rec.Body.Len() > 0 {
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("unmarshal response %q: %v", rec.Body.String(), err)
		}
	}
	return rec, &resp
}

func decodeData(t *testing.T, resp *APIResponse, dst interface{}) {
	t.Helper()
	raw, err := json.Marshal(resp.Data)
	if err != nil {
		t.Fatalf("re-marshal data: %v", err)
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		t.Fatalf("decode data: %v", err)
	}
}

func TestHealthEndpoints(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec, resp := a.do(t, http.MethodGet, "/api/v1/health/live", "", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("live: code=%d success=%v", rec.Code, resp.Success)
	}

	rec, resp = a.do(t, http.MethodGet, "/api/v1/health/ready", "", nil)
	if rec.Code != http.StatusOK || !resp.Success {
		t.Fatalf("ready: code=%d success=%v", rec.Code, resp.Success)
	}
}

func TestRegisterAndLogin(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec, resp := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Priya",
		"email":    "Priya@Example.com",
		"password": "long-enough-pass",
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("register: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var payload authPayload
	decodeData(t, resp, &payload)
	if payload.Token == "" {
		t.Fatal("register returned empty token")
	}
	if payload.User.Email != "priya@example.com" {
		t.Errorf("email not normalized: %q", payload.User.Email)
	}
	if payload.User.PasswordHash != "" {
		t.Error("password hash leaked in response")
	}

	// Duplicate email, case-insensitive.
	rec, _ = a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "Priya Again",
		"email":    "priya@example.com",
		"password": "long-enough-pass",
	})
	if rec.Code != http.StatusConflict {
		t.Errorf("duplicate register: code = %d, want %d", rec.Code, http.StatusConflict)
	}

	// Login by email.
	rec, resp = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "priya@example.com",
		"password": "long-enough-pass",
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("login: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	decodeData(t, resp, &payload)
	if payload.Token == "" {
		t.Fatal("login returned empty token")
	}

	// Wrong password.
	rec, _ = a.do(t, http.MethodPost, "/api/v1/auth/login", "", map[string]string{
		"email":    "priya@example.com",
		"password": "wrong",
	})
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("wrong password: code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRegisterValidation(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	rec, resp := a.do(t, http.MethodPost, "/api/v1/auth/register", "", map[string]string{
		"name":     "No Email",
		"password": "short",
	})
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeValidationFailed {
		t.Errorf("error = %+v, want code %s", resp.Error, ErrCodeValidationFailed)
	}
}

func TestInventoryListAndGet(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	a.seedItem(t, &models.InventoryItem{ID: "rice", Name: "Basmati Rice", Category: "Staples", Price: 120, Stock: 50})
	a.seedItem(t, &models.InventoryItem{ID: "milk", Name: "Toned Milk", Category: "Dairy", Price: 30, Stock: 40})
	a.seedItem(t, &models.InventoryItem{ID: "paneer", Name: "Paneer", Category: "Dairy", Price: 90, Stock: 20})

	rec, resp := a.do(t, http.MethodGet, "/api/v1/inventory/?category=Dairy", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("list: code = %d", rec.Code)
	}
	var items []*models.InventoryItem
	decodeData(t, resp, &items)
	if len(items) != 2 {
		t.Fatalf("got %d items, want 2", len(items))
	}
	if resp.Meta == nil || resp.Meta.Pagination == nil || resp.Meta.Pagination.Total != 2 {
		t.Errorf("pagination meta = %+v, want total 2", resp.Meta)
	}

	rec, resp = a.do(t, http.MethodGet, "/api/v1/inventory/rice", "", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("get: code = %d", rec.Code)
	}
	var item models.InventoryItem
	decodeData(t, resp, &item)
	if item.Name != "Basmati Rice" {
		t.Errorf("item name = %q", item.Name)
	}

	rec, _ = a.do(t, http.MethodGet, "/api/v1/inventory/nope", "", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing item: code = %d, want %d", rec.Code, http.StatusNotFound)
	}
}

func TestInventoryAdminGating(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	userToken := a.seedUser(t, "shopper", false)
	adminToken := a.seedUser(t, "manager", true)

	body := map[string]interface{}{
		"id":       "atta",
		"name":     "Whole Wheat Atta",
		"category": "Staples",
		"price":    55.0,
		"stock":    100,
	}

	rec, _ := a.do(t, http.MethodPost, "/api/v1/inventory/", "", body)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous create: code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}

	rec, _ = a.do(t, http.MethodPost, "/api/v1/inventory/", userToken, body)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin create: code = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec, resp := a.do(t, http.MethodPost, "/api/v1/inventory/", adminToken, body)
	if rec.Code != http.StatusCreated {
		t.Fatalf("admin create: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var created models.InventoryItem
	decodeData(t, resp, &created)
	if !created.IsVegetarian {
		t.Error("isVegetarian should default to true")
	}
	if created.Unit != models.UnitPiece {
		t.Errorf("unit = %q, want default %q", created.Unit, models.UnitPiece)
	}

	// Update preserves engine-managed counters.
	if err := a.store.RecordItemPurchase(context.Background(), "atta", 3); err != nil {
		t.Fatalf("RecordItemPurchase() error = %v", err)
	}
	body["price"] = 60.0
	rec, resp = a.do(t, http.MethodPut, "/api/v1/inventory/atta", adminToken, body)
	if rec.Code != http.StatusOK {
		t.Fatalf("admin update: code = %d", rec.Code)
	}
	var updated models.InventoryItem
	decodeData(t, resp, &updated)
	if updated.Price != 60 {
		t.Errorf("price = %v, want 60", updated.Price)
	}
	if updated.PurchaseFrequency != 1 {
		t.Errorf("purchaseFrequency = %d, want 1 after update", updated.PurchaseFrequency)
	}

	rec, _ = a.do(t, http.MethodDelete, "/api/v1/inventory/atta", adminToken, nil)
	if rec.Code != http.StatusNoContent {
		t.Errorf("admin delete: code = %d, want %d", rec.Code, http.StatusNoContent)
	}
}

func TestCheckout(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	token := a.seedUser(t, "shopper", false)
	a.seedItem(t, &models.InventoryItem{ID: "rice", Name: "Rice", Category: "Staples", Price: 120, Stock: 5})
	a.seedItem(t, &models.InventoryItem{ID: "dal", Name: "Dal", Category: "Staples", Price: 140, Stock: 10})

	// Oversell rejects the whole batch.
	rec, resp := a.do(t, http.MethodPut, "/api/v1/inventory/checkout", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"itemId": "rice", "quantity": 6},
			{"itemId": "dal", "quantity": 1},
		},
	})
	if rec.Code != http.StatusConflict {
		t.Fatalf("oversell: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	if resp.Error == nil || resp.Error.Code != ErrCodeOutOfStock {
		t.Errorf("error code = %+v, want %s", resp.Error, ErrCodeOutOfStock)
	}
	dal, err := a.store.GetItem(context.Background(), "dal")
	if err != nil {
		t.Fatalf("GetItem() error = %v", err)
	}
	if dal.Stock != 10 {
		t.Errorf("dal stock = %d after failed checkout, want 10", dal.Stock)
	}

	rec, _ = a.do(t, http.MethodPut, "/api/v1/inventory/checkout", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"itemId": "rice", "quantity": 2},
			{"itemId": "dal", "quantity": 3},
		},
	})
	if rec.Code != http.StatusOK {
		t.Fatalf("checkout: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	rice, _ := a.store.GetItem(context.Background(), "rice")
	if rice.Stock != 3 {
		t.Errorf("rice stock = %d, want 3", rice.Stock)
	}
}

func TestRecordPurchaseAndHistory(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	token := a.seedUser(t, "shopper", false)
	a.seedItem(t, &models.InventoryItem{ID: "rice", Name: "Rice", Category: "Staples", SubCategory: "Grains", Price: 120, Stock: 50})

	rec, resp := a.do(t, http.MethodPost, "/api/v1/recommendations/record-purchase", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"itemId": "rice", "quantity": 2, "price": 120.0},
		},
	})
	if rec.Code != http.StatusCreated {
		t.Fatalf("record purchase: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var purchase models.PurchaseRecord
	decodeData(t, resp, &purchase)
	if purchase.TotalAmount != 240 {
		t.Errorf("total = %v, want 240", purchase.TotalAmount)
	}
	if purchase.Items[0].CategoryAtPurchase != "Staples" {
		t.Errorf("category snapshot = %q, want Staples", purchase.Items[0].CategoryAtPurchase)
	}

	// Popularity counters bumped.
	rice, _ := a.store.GetItem(context.Background(), "rice")
	if rice.PurchaseFrequency != 1 || rice.Popularity != 2 {
		t.Errorf("counters = freq %d pop %d, want 1 and 2", rice.PurchaseFrequency, rice.Popularity)
	}

	rec, resp = a.do(t, http.MethodGet, "/api/v1/recommendations/history", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("history: code = %d", rec.Code)
	}
	var history []*models.PurchaseRecord
	decodeData(t, resp, &history)
	if len(history) != 1 {
		t.Fatalf("history length = %d, want 1", len(history))
	}

	// Unknown item rejected before anything is written.
	rec, _ = a.do(t, http.MethodPost, "/api/v1/recommendations/record-purchase", token, map[string]interface{}{
		"items": []map[string]interface{}{
			{"itemId": "ghost", "quantity": 1, "price": 10.0},
		},
	})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown item: code = %d, want %d", rec.Code, http.StatusBadRequest)
	}
}

func TestRecommendationEndpoints(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	token := a.seedUser(t, "shopper", false)
	month := models.ZeroBasedMonth(time.Now().UTC())
	a.seedItem(t, &models.InventoryItem{
		ID: "mango", Name: "Mango", Category: "Fruits", Price: 80, Stock: 30,
		IsVegetarian: true, Seasonal: true,
		SeasonalAvailability: []string{models.MonthName(month)}, Popularity: 90,
	})

	rec, resp := a.do(t, http.MethodGet, "/api/v1/recommendations/seasonal", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("seasonal: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var scored []recommend.ScoredItem
	decodeData(t, resp, &scored)
	if len(scored) != 1 || scored[0].Item.ID != "mango" {
		t.Fatalf("seasonal items = %+v, want [mango]", scored)
	}

	// Blended recommendations fall back to seasonal for a fresh user.
	rec, resp = a.do(t, http.MethodGet, "/api/v1/recommendations/user", token, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("recommendations: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	decodeData(t, resp, &scored)
	if len(scored) != 1 || scored[0].Item.ID != "mango" {
		t.Fatalf("blended items = %+v, want [mango]", scored)
	}

	rec, _ = a.do(t, http.MethodGet, "/api/v1/recommendations/frequent", token, nil)
	if rec.Code != http.StatusOK {
		t.Errorf("frequent: code = %d", rec.Code)
	}

	rec, _ = a.do(t, http.MethodGet, "/api/v1/recommendations/user", "", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("anonymous recommendations: code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestAdminAnalyticsEndpoints(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)

	userToken := a.seedUser(t, "shopper", false)
	adminToken := a.seedUser(t, "manager", true)
	a.seedItem(t, &models.InventoryItem{ID: "rice", Name: "Rice", Category: "Staples", Price: 120, Stock: 2, RestockThreshold: 5})

	rec, _ := a.do(t, http.MethodGet, "/api/v1/recommendations/restock", userToken, nil)
	if rec.Code != http.StatusForbidden {
		t.Errorf("non-admin restock: code = %d, want %d", rec.Code, http.StatusForbidden)
	}

	rec, resp := a.do(t, http.MethodGet, "/api/v1/recommendations/restock", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("restock: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var candidates []recommend.RestockCandidate
	decodeData(t, resp, &candidates)
	if len(candidates) != 1 || candidates[0].Urgency != recommend.UrgencyHigh {
		t.Fatalf("candidates = %+v, want one high-urgency entry", candidates)
	}

	rec, resp = a.do(t, http.MethodGet, "/api/v1/recommendations/insights", adminToken, nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("insights: code = %d, body = %s", rec.Code, rec.Body.String())
	}
	var insights recommend.InventoryInsights
	decodeData(t, resp, &insights)
	if insights.StockSummary.Value != 240 {
		t.Errorf("total stock value = %v, want 240", insights.StockSummary.Value)
	}
}

func TestTokenRejection(t *testing.T) {
	t.Parallel()
	a := newTestAPI(t)
	a.seedUser(t, "shopper", false)

	rec, _ := a.do(t, http.MethodGet, "/api/v1/recommendations/user", "not-a-token", nil)
	if rec.Code != http.StatusUnauthorized {
		t.Errorf("garbage token: code = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}
