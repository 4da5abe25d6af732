// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/kiranakart/kiranakart/internal/auth"
	"github.com/kiranakart/kiranakart/internal/config"
	"github.com/kiranakart/kiranakart/internal/recommend"
	"github.com/kiranakart/kiranakart/internal/store"
)

// Handler holds the dependencies shared by all HTTP handlers.
type Handler struct {
	store  store.Store
	engine *recommend.Engine
	jwt    *auth.JWTManager
	hasher *auth.PasswordHasher
	cfg    *config.Config
}

// NewHandler creates the handler set for the API.
func NewHandler(st store.Store, engine *recommend.Engine, jwtMgr *auth.JWTManager, hasher *auth.PasswordHasher, cfg *config.Config) *Handler {
	return &Handler{
		store:  st,
		engine: engine,
		jwt:    jwtMgr,
		hasher: hasher,
		cfg:    cfg,
	}
}

// HealthLive reports process liveness. It never touches the store.
func (h *Handler) HealthLive(w http.ResponseWriter, r *http.Request) {
	NewResponseWriter(w, r).Success(map[string]string{
		"status": "alive",
	})
}

// HealthReady reports readiness by probing the document store.
func (h *Handler) HealthReady(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	// A lookup for a key that cannot exist exercises the full read path;
	// ErrNotFound means the store answered.
	_, err := h.store.GetItem(ctx, "healthcheck-probe")
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		rw.Error(http.StatusServiceUnavailable, ErrCodeDatabaseError, "store not ready")
		return
	}

	rw.Success(map[string]string{
		"status": "ready",
	})
}
