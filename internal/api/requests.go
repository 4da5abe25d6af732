// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package api

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/go-playground/validator/v10"
	"github.com/goccy/go-json"
)

// maxRequestBodyBytes caps request bodies to prevent memory exhaustion.
const maxRequestBodyBytes = 1 << 20 // 1 MiB

// RegisterRequest is the request body for POST /auth/register.
type RegisterRequest struct {
	Name     string `json:"name" validate:"required,min=1,max=200"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=8,max=128"`
	Phone    string `json:"phone" validate:"omitempty,min=7,max=20"`
}

// LoginRequest is the request body for POST /auth/login. Either the user ID
// or the email identifies the account.
type LoginRequest struct {
	UserID   string `json:"userId" validate:"required_without=Email"`
	Email    string `json:"email" validate:"omitempty,email"`
	Password string `json:"password" validate:"required,min=1"`
}

// ItemRequest is the request body for creating or updating an inventory item.
type ItemRequest struct {
	ID                   string   `json:"id" validate:"omitempty,max=100"`
	Name                 string   `json:"name" validate:"required,min=1,max=200"`
	Description          string   `json:"description" validate:"omitempty,max=2000"`
	Price                float64  `json:"price" validate:"required,gt=0"`
	Stock                int      `json:"stock" validate:"min=0"`
	Image                string   `json:"image" validate:"omitempty,max=500"`
	Category             string   `json:"category" validate:"required,min=1,max=100"`
	SubCategory          string   `json:"subCategory" validate:"omitempty,max=100"`
	Unit                 string   `json:"unit" validate:"omitempty,oneof=kg gm piece litre ml packet dozen box bunch"`
	UnitSize             float64  `json:"unitSize" validate:"min=0"`
	Brand                string   `json:"brand" validate:"omitempty,max=100"`
	IsVegetarian         *bool    `json:"isVegetarian"`
	Region               string   `json:"region" validate:"omitempty,max=100"`
	Tags                 []string `json:"tags" validate:"omitempty,dive,max=50"`
	AvgRating            float64  `json:"avgRating" validate:"min=0,max=5"`
	Popularity           int      `json:"popularity" validate:"min=0"`
	Seasonal             bool     `json:"seasonal"`
	SeasonalAvailability []string `json:"seasonalAvailability" validate:"omitempty,dive,oneof=January February March April May June July August September October November December"`
	RestockThreshold     int      `json:"restockThreshold" validate:"min=0"`
}

// CheckoutLine is one item/quantity pair in a checkout request.
type CheckoutLine struct {
	ItemID   string `json:"itemId" validate:"required,min=1"`
	Quantity int    `json:"quantity" validate:"required,min=1"`
}

// CheckoutRequest is the request body for POST /inventory/checkout.
type CheckoutRequest struct {
	Items []CheckoutLine `json:"items" validate:"required,min=1,max=100,dive"`
}

// PurchaseLineRequest is one line of a recorded purchase.
type PurchaseLineRequest struct {
	ItemID   string  `json:"itemId" validate:"required,min=1"`
	Quantity int     `json:"quantity" validate:"required,min=1"`
	Price    float64 `json:"price" validate:"required,gt=0"`
}

// RecordPurchaseRequest is the request body for POST /recommendations/purchases.
type RecordPurchaseRequest struct {
	Items []PurchaseLineRequest `json:"items" validate:"required,min=1,max=100,dive"`
}

// ListItemsRequest holds validated query parameters for GET /inventory.
type ListItemsRequest struct {
	Category string `validate:"omitempty,max=100"`
	Search   string `validate:"omitempty,max=200"`
	Limit    int    `validate:"min=1,max=500"`
	Offset   int    `validate:"min=0,max=1000000"`
}

// RecommendationsRequest holds validated query parameters for
// recommendation endpoints.
type RecommendationsRequest struct {
	Limit int `validate:"min=0,max=100"`
	Month int `validate:"min=0,max=11"`
}

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func getValidator() *validator.Validate {
	validateOnce.Do(func() {
		validate = validator.New(validator.WithRequiredStructEnabled())
	})
	return validate
}

// validateRequest validates a request struct and returns human-readable
// field errors, or nil when validation passes.
func validateRequest(v interface{}) []string {
	err := getValidator().Struct(v)
	if err == nil {
		return nil
	}

	var fieldErrs validator.ValidationErrors
	if !errors.As(err, &fieldErrs) {
		return []string{err.Error()}
	}

	msgs := make([]string, 0, len(fieldErrs))
	for _, fe := range fieldErrs {
		msgs = append(msgs, translateFieldError(fe))
	}
	return msgs
}

func translateFieldError(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return fmt.Sprintf("%s is required", fe.Field())
	case "required_without":
		return fmt.Sprintf("%s is required when %s is absent", fe.Field(), fe.Param())
	case "email":
		return fmt.Sprintf("%s must be a valid email address", fe.Field())
	case "min":
		return fmt.Sprintf("%s must be at least %s", fe.Field(), fe.Param())
	case "max":
		return fmt.Sprintf("%s must be at most %s", fe.Field(), fe.Param())
	case "gt":
		return fmt.Sprintf("%s must be greater than %s", fe.Field(), fe.Param())
	case "oneof":
		return fmt.Sprintf("%s must be one of: %s", fe.Field(), fe.Param())
	default:
		return fmt.Sprintf("%s failed validation (%s)", fe.Field(), fe.Tag())
	}
}

// decodeJSON decodes a JSON request body into dst with a size cap and
// strict field checking.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst interface{}) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBodyBytes)

	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		if errors.Is(err, io.EOF) {
			return errors.New("request body must not be empty")
		}
		return fmt.Errorf("invalid JSON body: %w", err)
	}
	return nil
}

// getIntParam parses an integer query parameter, falling back to a default
// on absence or parse failure.
func getIntParam(r *http.Request, key string, defaultValue int) int {
	raw := r.URL.Query().Get(key)
	if raw == "" {
		return defaultValue
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return defaultValue
	}
	return v
}
