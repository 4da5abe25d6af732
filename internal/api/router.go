// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"
	"github.com/go-chi/httprate"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/kiranakart/kiranakart/internal/config"
	"github.com/kiranakart/kiranakart/internal/middleware"
)

// Router wires handlers and middleware into the HTTP route tree.
type Router struct {
	handler *Handler
	cfg     *config.Config
}

// NewRouter creates a router around the given handler set.
func NewRouter(handler *Handler, cfg *config.Config) *Router {
	return &Router{handler: handler, cfg: cfg}
}

// Setup builds the complete route tree.
func (rt *Router) Setup() http.Handler {
	r := chi.NewRouter()

	// Global middleware, applied to every route in order.
	r.Use(middleware.RequestID)
	r.Use(chimiddleware.RealIP)
	r.Use(chimiddleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins:   rt.cfg.Security.CORSOrigins,
		AllowedMethods:   []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowedHeaders:   []string{"Accept", "Authorization", "Content-Type", "X-Request-ID"},
		ExposedHeaders:   []string{"X-Request-ID"},
		AllowCredentials: false,
		MaxAge:           300,
	}))

	r.Handle("/metrics", promhttp.Handler())

	// Health endpoints get permissive rate limiting so monitoring can
	// poll frequently.
	r.Route("/api/v1/health", func(r chi.Router) {
		r.Use(rt.rateLimit(1000, time.Minute))
		r.Get("/live", rt.handler.HealthLive)
		r.Get("/ready", rt.handler.HealthReady)
	})

	// Auth endpoints get strict rate limiting against brute force.
	r.Route("/api/v1/auth", func(r chi.Router) {
		r.Use(rt.rateLimit(10, time.Minute))
		r.Use(middleware.PrometheusMetrics)
		r.Post("/register", rt.handler.Register)
		r.Post("/login", rt.handler.Login)
	})

	r.Route("/api/v1/inventory", func(r chi.Router) {
		r.Use(rt.rateLimit(rt.cfg.Security.RateLimitReqs, rt.cfg.Security.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)

		// Browsing the catalog is public.
		r.Get("/", rt.handler.ListItems)
		r.Get("/{id}", rt.handler.GetItem)

		r.Group(func(r chi.Router) {
			r.Use(rt.handler.Authenticate)
			r.Put("/checkout", rt.handler.Checkout)

			r.Group(func(r chi.Router) {
				r.Use(rt.handler.RequireAdmin)
				r.Post("/", rt.handler.CreateItem)
				r.Put("/{id}", rt.handler.UpdateItem)
				r.Delete("/{id}", rt.handler.DeleteItem)
			})
		})
	})

	r.Route("/api/v1/recommendations", func(r chi.Router) {
		r.Use(rt.rateLimit(rt.cfg.Security.RateLimitReqs, rt.cfg.Security.RateLimitWindow))
		r.Use(middleware.PrometheusMetrics)
		r.Use(rt.handler.Authenticate)

		r.Get("/user", rt.handler.Recommendations)
		r.Get("/frequent", rt.handler.FrequentItems)
		r.Get("/seasonal", rt.handler.SeasonalItems)
		r.Get("/history", rt.handler.PurchaseHistory)
		r.Post("/record-purchase", rt.handler.RecordPurchase)

		r.Group(func(r chi.Router) {
			r.Use(rt.handler.RequireAdmin)
			r.Get("/restock", rt.handler.RestockRecommendations)
			r.Get("/insights", rt.handler.InventoryInsights)
		})
	})

	return r
}

// rateLimit returns an IP-keyed rate limiter, or a no-op when rate
// limiting is disabled in configuration.
func (rt *Router) rateLimit(requests int, window time.Duration) func(http.Handler) http.Handler {
	if rt.cfg.Security.RateLimitDisabled {
		return func(next http.Handler) http.Handler { return next }
	}
	return httprate.Limit(
		requests,
		window,
		httprate.WithKeyFuncs(httprate.KeyByRealIP),
		httprate.WithLimitHandler(func(w http.ResponseWriter, r *http.Request) {
			NewResponseWriter(w, r).Error(http.StatusTooManyRequests, ErrCodeTooManyRequests, "rate limit exceeded")
		}),
	)
}
