// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/kiranakart/kiranakart/internal/logging"
	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/recommend"
	"github.com/kiranakart/kiranakart/internal/store"
)

// Recommendations returns blended, personalized recommendations for the
// authenticated user.
func (h *Handler) Recommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := getIntParam(r, "limit", 0)
	items, err := h.engine.GetUserRecommendations(r.Context(), userIDFromRequest(r), limit)
	if err != nil {
		h.writeEngineError(rw, err)
		return
	}
	rw.Success(items)
}

// FrequentItems returns the user's habitually repurchased items.
func (h *Handler) FrequentItems(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := getIntParam(r, "limit", 0)
	items, err := h.engine.GetFrequentlyPurchasedItems(r.Context(), userIDFromRequest(r), limit)
	if err != nil {
		h.writeEngineError(rw, err)
		return
	}
	rw.Success(items)
}

// SeasonalItems returns in-season produce for the requested month,
// defaulting to the current month. The authenticated user's dietary
// preference filters the results when a profile exists.
func (h *Handler) SeasonalItems(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	month := getIntParam(r, "month", models.ZeroBasedMonth(time.Now().UTC()))
	limit := getIntParam(r, "limit", 0)

	var user *models.UserProfile
	if id := userIDFromRequest(r); id != "" {
		u, err := h.store.GetUser(r.Context(), id)
		if err != nil && !errors.Is(err, store.ErrNotFound) {
			rw.DatabaseError(err)
			return
		}
		user = u
	}

	items, err := h.engine.GetSeasonalRecommendations(r.Context(), month, user, limit)
	if err != nil {
		h.writeEngineError(rw, err)
		return
	}
	rw.Success(items)
}

// PurchaseHistory returns one page of the user's purchases, newest first.
func (h *Handler) PurchaseHistory(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	limit := getIntParam(r, "limit", h.cfg.API.DefaultPageSize)
	if limit < 1 || limit > h.cfg.API.MaxPageSize {
		limit = h.cfg.API.DefaultPageSize
	}
	offset := getIntParam(r, "offset", 0)
	if offset < 0 {
		offset = 0
	}

	records, total, err := h.store.PurchasePage(r.Context(), userIDFromRequest(r), limit, offset)
	if err != nil {
		rw.DatabaseError(err)
		return
	}

	rw.SuccessWithPagination(records, &PaginationMeta{
		Total:   total,
		Count:   len(records),
		Offset:  offset,
		Limit:   limit,
		HasMore: offset+len(records) < total,
	})
}

// RecordPurchase appends a purchase to the user's history and bumps the
// purchased items' popularity counters. Category snapshots are taken at
// record time so later catalog edits never rewrite history.
func (h *Handler) RecordPurchase(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RecordPurchaseRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if errs := validateRequest(&req); errs != nil {
		rw.ValidationError("invalid purchase", errs)
		return
	}

	lines := make([]models.PurchaseLine, len(req.Items))
	for i, line := range req.Items {
		item, err := h.store.GetItem(r.Context(), line.ItemID)
		if err != nil {
			if errors.Is(err, store.ErrNotFound) {
				rw.BadRequest(fmt.Sprintf("unknown item %q", line.ItemID))
				return
			}
			rw.DatabaseError(err)
			return
		}
		lines[i] = models.PurchaseLine{
			ItemID:                line.ItemID,
			Quantity:              line.Quantity,
			Price:                 line.Price,
			CategoryAtPurchase:    item.Category,
			SubCategoryAtPurchase: item.SubCategory,
		}
	}

	userID := userIDFromRequest(r)
	rec := models.NewPurchaseRecord(uuid.New().String(), userID, lines, time.Now().UTC())
	if err := h.store.AppendPurchase(r.Context(), rec); err != nil {
		rw.DatabaseError(err)
		return
	}

	for _, line := range lines {
		if err := h.store.RecordItemPurchase(r.Context(), line.ItemID, line.Quantity); err != nil {
			logging.Ctx(r.Context()).Warn().Err(err).
				Str("item_id", line.ItemID).
				Msg("Failed to bump item purchase counters")
		}
	}

	logging.Ctx(r.Context()).Info().
		Str("user_id", userID).
		Str("purchase_id", rec.ID).
		Int("lines", len(lines)).
		Msg("Purchase recorded")
	rw.Created(rec)
}

// RestockRecommendations returns prioritized restock candidates. Admin only.
func (h *Handler) RestockRecommendations(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	candidates, err := h.engine.GetRestockRecommendations(r.Context())
	if err != nil {
		rw.DatabaseError(err)
		return
	}
	rw.Success(candidates)
}

// InventoryInsights returns the stock valuation and sales analytics
// report. Admin only.
func (h *Handler) InventoryInsights(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	insights, err := h.engine.GetInventoryInsights(r.Context())
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Insights generation failed")
		rw.ErrorWithDetails(http.StatusInternalServerError, ErrCodeInternalError,
			"failed to generate inventory insights", map[string]interface{}{
				"error":     err.Error(),
				"timestamp": time.Now().UTC(),
			})
		return
	}
	rw.Success(insights)
}

func (h *Handler) writeEngineError(rw *ResponseWriter, err error) {
	switch {
	case errors.Is(err, recommend.ErrInvalidInput):
		rw.BadRequest(err.Error())
	case errors.Is(err, store.ErrNotFound):
		rw.NotFound("user not found")
	default:
		rw.DatabaseError(err)
	}
}
