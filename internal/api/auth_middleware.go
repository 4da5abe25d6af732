// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"context"
	"net/http"
	"strings"

	"github.com/kiranakart/kiranakart/internal/auth"
	"github.com/kiranakart/kiranakart/internal/logging"
)

type authContextKey string

const claimsKey authContextKey = "auth_claims"

// Authenticate requires a valid Bearer token and stores its claims in the
// request context.
func (h *Handler) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		header := r.Header.Get("Authorization")
		if header == "" {
			NewResponseWriter(w, r).Unauthorized("missing Authorization header")
			return
		}

		token, ok := strings.CutPrefix(header, "Bearer ")
		if !ok || token == "" {
			NewResponseWriter(w, r).Unauthorized("Authorization header must be a Bearer token")
			return
		}

		claims, err := h.jwt.ValidateToken(token)
		if err != nil {
			logging.Ctx(r.Context()).Debug().Err(err).Msg("Token validation failed")
			NewResponseWriter(w, r).Unauthorized("invalid or expired token")
			return
		}

		ctx := context.WithValue(r.Context(), claimsKey, claims)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireAdmin rejects requests whose token does not carry the admin flag.
// It must run after Authenticate.
func (h *Handler) RequireAdmin(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		claims := ClaimsFromContext(r.Context())
		if claims == nil {
			NewResponseWriter(w, r).Unauthorized("authentication required")
			return
		}
		if !claims.IsAdmin {
			NewResponseWriter(w, r).Forbidden("admin privileges required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

// ClaimsFromContext returns the authenticated token claims, or nil.
func ClaimsFromContext(ctx context.Context) *auth.Claims {
	claims, _ := ctx.Value(claimsKey).(*auth.Claims)
	return claims
}

// userIDFromRequest returns the authenticated user's ID, or "" when the
// request carries no claims.
func userIDFromRequest(r *http.Request) string {
	claims := ClaimsFromContext(r.Context())
	if claims == nil {
		return ""
	}
	return claims.UserID
}
