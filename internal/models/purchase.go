// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package models

import (
	"time"
)

// Season is an Indian climate season.
type Season string

// Seasons.
const (
	SeasonWinter  Season = "Winter"
	SeasonSpring  Season = "Spring"
	SeasonSummer  Season = "Summer"
	SeasonMonsoon Season = "Monsoon"
	SeasonAutumn  Season = "Autumn"
)

var monthNames = []string{
	"January", "February", "March", "April", "May", "June",
	"July", "August", "September", "October", "November", "December",
}

// MonthName returns the English month name for a zero-based month
// (0 = January). Out-of-range values return an empty string.
func MonthName(month int) string {
	if month < 0 || month > 11 {
		return ""
	}
	return monthNames[month]
}

// ZeroBasedMonth converts a time.Time to its zero-based month (0 = January).
func ZeroBasedMonth(t time.Time) int {
	return int(t.Month()) - 1
}

// SeasonForMonth maps a zero-based month to its season:
// Dec-Feb Winter, Mar-May Spring, Jun-Jul Summer, Aug-Sep Monsoon,
// Oct-Nov Autumn.
func SeasonForMonth(month int) Season {
	switch {
	case month >= 11 || month <= 1:
		return SeasonWinter
	case month <= 4:
		return SeasonSpring
	case month <= 6:
		return SeasonSummer
	case month <= 8:
		return SeasonMonsoon
	default:
		return SeasonAutumn
	}
}

// PurchaseLine is one item entry within a purchase.
type PurchaseLine struct {
	ItemID   string  `json:"itemId"`
	Quantity int     `json:"quantity"`
	Price    float64 `json:"price"`

	// Category at time of purchase; catalog edits do not rewrite history.
	CategoryAtPurchase    string `json:"categoryAtPurchase,omitempty"`
	SubCategoryAtPurchase string `json:"subCategoryAtPurchase,omitempty"`
}

// PurchaseRecord is one completed purchase, with temporal fields derived
// from the purchase date so aggregations never recompute them.
type PurchaseRecord struct {
	ID           string         `json:"id"`
	UserID       string         `json:"userId"`
	Items        []PurchaseLine `json:"items"`
	TotalAmount  float64        `json:"totalAmount"`
	PurchaseDate time.Time      `json:"purchaseDate"`

	DayOfWeek   int    `json:"dayOfWeek"`   // 0 = Sunday
	WeekOfMonth int    `json:"weekOfMonth"` // 1-5
	Month       int    `json:"month"`       // 0 = January
	Year        int    `json:"year"`
	Season      Season `json:"season"`

	CreatedAt time.Time `json:"createdAt"`
}

// NewPurchaseRecord builds a record with all temporal fields derived from
// the purchase date.
func NewPurchaseRecord(id, userID string, items []PurchaseLine, when time.Time) *PurchaseRecord {
	var total float64
	for _, line := range items {
		total += line.Price * float64(line.Quantity)
	}

	month := ZeroBasedMonth(when)
	return &PurchaseRecord{
		ID:           id,
		UserID:       userID,
		Items:        items,
		TotalAmount:  total,
		PurchaseDate: when,
		DayOfWeek:    int(when.Weekday()),
		WeekOfMonth:  (when.Day()-1)/7 + 1,
		Month:        month,
		Year:         when.Year(),
		Season:       SeasonForMonth(month),
		CreatedAt:    when,
	}
}

// ContainsItem reports whether any line of the purchase references itemID.
func (p *PurchaseRecord) ContainsItem(itemID string) bool {
	for _, line := range p.Items {
		if line.ItemID == itemID {
			return true
		}
	}
	return false
}
