// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

// Package models defines the domain types shared across the store,
// recommendation engine, and API layers.
package models

import (
	"time"
)

// Valid item units.
const (
	UnitKg     = "kg"
	UnitGram   = "gm"
	UnitPiece  = "piece"
	UnitLitre  = "litre"
	UnitMl     = "ml"
	UnitPacket = "packet"
	UnitDozen  = "dozen"
	UnitBox    = "box"
	UnitBunch  = "bunch"
)

// ValidUnits lists every accepted item unit.
var ValidUnits = []string{
	UnitKg, UnitGram, UnitPiece, UnitLitre, UnitMl,
	UnitPacket, UnitDozen, UnitBox, UnitBunch,
}

// MonthlyDemand records demand observed for one calendar month.
type MonthlyDemand struct {
	Month  string `json:"month"`
	Year   int    `json:"year"`
	Demand int    `json:"demand"`
}

// InventoryItem is a product in the catalog.
type InventoryItem struct {
	ID          string  `json:"id"`
	Name        string  `json:"name"`
	Description string  `json:"description"`
	Price       float64 `json:"price"`
	Stock       int     `json:"stock"`
	Image       string  `json:"image,omitempty"`
	Category    string  `json:"category"`
	SubCategory string  `json:"subCategory,omitempty"`
	Unit        string  `json:"unit"`
	UnitSize    float64 `json:"unitSize"`
	Brand       string  `json:"brand,omitempty"`

	// IsVegetarian defaults to true at creation; an absent flag means
	// the item is compatible with vegetarian diets.
	IsVegetarian bool     `json:"isVegetarian"`
	Region       string   `json:"region,omitempty"`
	Tags         []string `json:"tags,omitempty"`

	AvgRating  float64 `json:"avgRating"`
	Popularity int     `json:"popularity"`

	Seasonal bool `json:"seasonal"`
	// SeasonalAvailability holds English month names ("January", ...).
	SeasonalAvailability []string `json:"seasonalAvailability,omitempty"`

	PurchaseFrequency    int             `json:"purchaseFrequency"`
	RestockThreshold     int             `json:"restockThreshold"`
	NextRestock          time.Time       `json:"nextRestock"`
	MonthlyDemandHistory []MonthlyDemand `json:"monthlyDemandHistory,omitempty"`

	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// AvailableInMonth reports whether the item's seasonal window includes the
// given month (0 = January). Items that are not seasonal are always available.
func (i *InventoryItem) AvailableInMonth(month int) bool {
	if !i.Seasonal {
		return true
	}
	name := MonthName(month)
	for _, m := range i.SeasonalAvailability {
		if m == name {
			return true
		}
	}
	return false
}

// HasTag reports whether the item carries the given tag.
func (i *InventoryItem) HasTag(tag string) bool {
	for _, t := range i.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// BelowThreshold reports whether current stock is below the restock threshold.
func (i *InventoryItem) BelowThreshold() bool {
	return i.Stock < i.RestockThreshold
}
