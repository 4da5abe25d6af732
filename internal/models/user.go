// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package models

import (
	"time"
)

// User segments used for recommendation personalization.
const (
	SegmentPriceSensitive    = "price_sensitive"
	SegmentQualityFocused    = "quality_focused"
	SegmentConvenienceSeeker = "convenience_seeker"
	SegmentHealthConscious   = "health_conscious"
	SegmentTraditional       = "traditional"
	SegmentExplorer          = "explorer"
)

// ValidSegments lists every accepted user segment.
var ValidSegments = []string{
	SegmentPriceSensitive, SegmentQualityFocused, SegmentConvenienceSeeker,
	SegmentHealthConscious, SegmentTraditional, SegmentExplorer,
}

// Purchase cadence values.
const (
	CadenceDaily    = "daily"
	CadenceWeekly   = "weekly"
	CadenceBiweekly = "biweekly"
	CadenceMonthly  = "monthly"
)

// Address is a postal address.
type Address struct {
	Street  string `json:"street,omitempty"`
	City    string `json:"city,omitempty"`
	State   string `json:"state,omitempty"`
	Pincode string `json:"pincode,omitempty"`
}

// DietaryPreferences capture a user's dietary constraints.
type DietaryPreferences struct {
	IsVegetarian      bool     `json:"isVegetarian"`
	IsVegan           bool     `json:"isVegan"`
	Allergies         []string `json:"allergies,omitempty"`
	PreferredCuisines []string `json:"preferredCuisines,omitempty"`
}

// UserProfile is a registered customer.
type UserProfile struct {
	ID           string  `json:"id"`
	PasswordHash string  `json:"-"`
	Name         string  `json:"name,omitempty"`
	Email        string  `json:"email,omitempty"`
	Phone        string  `json:"phone,omitempty"`
	Address      Address `json:"address,omitempty"`
	IsAdmin      bool    `json:"isAdmin"`

	DietaryPreferences  DietaryPreferences `json:"dietaryPreferences"`
	PreferredCategories []string           `json:"preferredCategories,omitempty"`
	FavoriteItems       []string           `json:"favoriteItems,omitempty"`
	PurchaseCadence     string             `json:"purchaseFrequency"`
	HouseholdSize       int                `json:"householdSize"`
	Segment             string             `json:"userSegment"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// NewUserProfile returns a profile with the same defaults applied at
// registration: vegetarian diet, weekly cadence, household of 4,
// traditional segment.
func NewUserProfile(id string, now time.Time) *UserProfile {
	return &UserProfile{
		ID:                 id,
		DietaryPreferences: DietaryPreferences{IsVegetarian: true},
		PurchaseCadence:    CadenceWeekly,
		HouseholdSize:      4,
		Segment:            SegmentTraditional,
		CreatedAt:          now,
		UpdatedAt:          now,
	}
}

// RelatedCategories returns the user's preferred categories plus
// segment-implied ones, deduplicated and order-preserving.
func (u *UserProfile) RelatedCategories() []string {
	seen := make(map[string]struct{}, len(u.PreferredCategories)+2)
	out := make([]string, 0, len(u.PreferredCategories)+2)
	add := func(c string) {
		if _, ok := seen[c]; !ok {
			seen[c] = struct{}{}
			out = append(out, c)
		}
	}

	for _, c := range u.PreferredCategories {
		add(c)
	}
	switch u.Segment {
	case SegmentHealthConscious:
		add("Organic Products")
		add("Health Foods")
	case SegmentTraditional:
		add("Spices")
		add("Rice & Flour")
	case SegmentPriceSensitive:
		add("Discounted Items")
		add("Value Packs")
	}
	return out
}

// PrefersVegetarian reports whether the user only accepts vegetarian items.
func (u *UserProfile) PrefersVegetarian() bool {
	return u.DietaryPreferences.IsVegetarian || u.DietaryPreferences.IsVegan
}
