// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/kiranakart/kiranakart/internal/logging"
	"github.com/kiranakart/kiranakart/internal/models"
	"github.com/kiranakart/kiranakart/internal/store"
)

// authPayload is the response body for register and login.
type authPayload struct {
	User  *models.UserProfile `json:"user"`
	Token string              `json:"token"`
}

// Register creates a new user account and returns a signed token.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req RegisterRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if errs := validateRequest(&req); errs != nil {
		rw.ValidationError("invalid registration request", errs)
		return
	}

	email := strings.ToLower(strings.TrimSpace(req.Email))
	if _, err := h.store.FindUserByEmail(r.Context(), email); err == nil {
		rw.Conflict("an account with this email already exists")
		return
	} else if !errors.Is(err, store.ErrNotFound) {
		rw.DatabaseError(err)
		return
	}

	hash, err := h.hasher.Hash(req.Password)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Password hashing failed")
		rw.InternalError("failed to create account")
		return
	}

	user := models.NewUserProfile(uuid.New().String(), time.Now().UTC())
	user.Name = req.Name
	user.Email = email
	user.Phone = req.Phone
	user.PasswordHash = hash

	if err := h.store.CreateUser(r.Context(), user); err != nil {
		if errors.Is(err, store.ErrDuplicateID) {
			rw.Conflict("an account with this email already exists")
			return
		}
		rw.DatabaseError(err)
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Token generation failed")
		rw.InternalError("failed to create session")
		return
	}

	logging.Ctx(r.Context()).Info().Str("user_id", user.ID).Msg("User registered")
	rw.Created(&authPayload{User: user, Token: token})
}

// Login authenticates by user ID or email and returns a signed token.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	rw := NewResponseWriter(w, r)

	var req LoginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		rw.BadRequest(err.Error())
		return
	}
	if errs := validateRequest(&req); errs != nil {
		rw.ValidationError("invalid login request", errs)
		return
	}

	var (
		user *models.UserProfile
		err  error
	)
	if req.UserID != "" {
		user, err = h.store.GetUser(r.Context(), req.UserID)
	} else {
		user, err = h.store.FindUserByEmail(r.Context(), strings.ToLower(strings.TrimSpace(req.Email)))
	}
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			rw.Unauthorized("invalid credentials")
			return
		}
		rw.DatabaseError(err)
		return
	}

	if !h.hasher.Verify(user.PasswordHash, req.Password) {
		logging.Ctx(r.Context()).Warn().Str("user_id", user.ID).Msg("Failed login attempt")
		rw.Unauthorized("invalid credentials")
		return
	}

	token, err := h.jwt.GenerateToken(user.ID, user.IsAdmin)
	if err != nil {
		logging.Ctx(r.Context()).Error().Err(err).Msg("Token generation failed")
		rw.InternalError("failed to create session")
		return
	}

	rw.Success(&authPayload{User: user, Token: token})
}
