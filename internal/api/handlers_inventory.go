// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/kiranakart/kiranakart/internal/logging"
	"github.com/kiranakart/kiranakart/internal/metrics"
	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/store"
)

// ListItems returns a paginated, filterable view of the catalog.
func (h *Handler) ListItems(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	req := ListItemsRequest{
		Category: r.URL.Query().Get("category"),
		Search:   r.URL.Query().Get("search"),
		Limit:    getIntParam(r, "limit", h.cfg.API.DefaultPageSize),
		Offset:   getIntParam(r, "offset", 0),
	}
	if req.Limit > h.cfg.API.MaxPageSize {
		req.Limit = h.cfg.API.MaxPageSize
	}
	if errs := validateRequest(&req); errs != nil {
		rw.ValidationError("invalid list parameters", errs)
		return
	}

	filter := store.ItemFilter{
		Category: req.Category,
		Search:   req.Search,
		Sort:     store.SortNameAsc,
		Limit:    req.Limit,
		Offset:   req.Offset,
	}

	items, err := h.store.FindItems(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	total, err := h.store.CountItems(r.Context(), filter)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(items, &PaginationMeta{
		Total:   total,
		Count:   len(items),
		Offset:  req.Offset,
		Limit:   req.Limit,
		HasMore: req.Offset+len(items) < total,
	})
}

// GetItem returns one catalog item by ID.
func (h *Handler) GetItem(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	item, err := h.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("item not found")
			return
		}
		rw.DatabaseError(err)
		return
	}
	rw.Success(item)
}

// CreateItem adds a new catalog item. Admin only.
func (h *Handler) CreateItem(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if errs := validateRequest(&req); errs != nil {
		rw.ValidationError("invalid item", errs)
		return
	}

	item := itemFromRequest(&req, nil)
	if err := h.store.CreateItem(r.Context(), item); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			rw.Conflict("an item with this id already exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	logging.Ctx(r.Context()).Info().Str("item_id", item.ID).Msg("Item created")
	rw.Created(item)
}

// UpdateItem replaces the mutable fields of a catalog item. Admin only.
func (h *Handler) UpdateItem(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	existing, err := h.store.GetItem(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("item not found")
			return
		}
		rw.DatabaseError(err)
		return
	}

	var req ItemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if errs := validateRequest(&req); errs != nil {
		rw.ValidationError("invalid item", errs)
		return
	}

	item := itemFromRequest(&req, existing)
	if err := h.store.UpdateItem(r.Context(), item); err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(item)
}

// DeleteItem removes a catalog item. Admin only.
func (h *Handler) DeleteItem(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	if err := h.store.DeleteItem(r.Context(), chi.URLParam(r, "id")); err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.NotFound("item not found")
			return
		}
		rw.DatabaseError(err)
		return
	}
	rw.NoContent()
}

// Checkout atomically decrements stock for a batch of items; the whole
// batch is rejected if any item has insufficient stock.
func (h *Handler) Checkout(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req CheckoutRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if errs := validateRequest(&req); errs != nil {
		rw.ValidationError("invalid checkout request", errs)
		return
	}

	lines := make([]store.StockDecrement, len(req.Items))
	for i, line := range req.Items {
		lines[i] = store.StockDecrement{ItemID: line.ItemID, Quantity: line.Quantity}
	}

	if err := h.store.Checkout(r.Context(), lines); err != nil {
		switch {
		case errors.Is(err, store.ErrInsufficientStock):
			metrics.CheckoutsTotal.WithLabelValues("insufficient_stock").Inc()
			rw.Error(http.StatusConflict, ErrCodeOutOfStock, "insufficient stock for one or more items")
		case errors.Is(err, store.ErrNotFound):
			metrics.CheckoutsTotal.WithLabelValues("error").Inc()
			rw.NotFound("one or more items do not exist")
		default:
			metrics.CheckoutsTotal.WithLabelValues("error").Inc()
			rw.DatabaseError(err)
		}
		return
	}

	metrics.CheckoutsTotal.WithLabelValues("ok").Inc()
	rw.Success(map[string]int{"items": len(lines)})
}

// itemFromRequest builds the stored item from a validated request,
// carrying over immutable and engine-managed fields from existing when
// updating.
func itemFromRequest(req *ItemRequest, existing *models.InventoryItem) *models.InventoryItem {
	now := time.Now().UTC()

	item := &models.InventoryItem{
		Name:                 req.Name,
		Description:          req.Description,
		Price:                req.Price,
		Stock:                req.Stock,
		Image:                req.Image,
		Category:             req.Category,
		SubCategory:          req.SubCategory,
		Unit:                 req.Unit,
		UnitSize:             req.UnitSize,
		Brand:                req.Brand,
		IsVegetarian:         true,
		Region:               req.Region,
		Tags:                 req.Tags,
		AvgRating:            req.AvgRating,
		Popularity:           req.Popularity,
		Seasonal:             req.Seasonal,
		SeasonalAvailability: req.SeasonalAvailability,
		RestockThreshold:     req.RestockThreshold,
		CreatedAt:            now,
		UpdatedAt:            now,
	}
	if req.IsVegetarian != nil {
		item.IsVegetarian = *req.IsVegetarian
	}
	if item.Unit == "" {
		item.Unit = models.UnitPiece
	}

	if existing != nil {
		item.ID = existing.ID
		item.CreatedAt = existing.CreatedAt
		item.PurchaseFrequency = existing.PurchaseFrequency
		item.Popularity = existing.Popularity
		item.NextRestock = existing.NextRestock
		item.MonthlyDemandHistory = existing.MonthlyDemandHistory
	} else {
		item.ID = req.ID
		if item.ID == "" {
			item.ID = uuid.New().String()
		}
	}
	return item
}
