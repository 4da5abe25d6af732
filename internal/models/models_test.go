// KiranaKart - Grocery Commerce and Recommendation Backend
// Copyright 2026 KiranaKart Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/kiranakart/kiranakart

package models

import (
	"testing"
	"time"
)

func TestSeasonForMonth(t *testing.T) {
	t.Parallel()

	tests := []struct {
		month int
		want  Season
	}{
		{0, SeasonWinter},  // January
		{1, SeasonWinter},  // February
		{2, SeasonSpring},  // March
		{4, SeasonSpring},  // May
		{5, SeasonSummer},  // June
		{6, SeasonSummer},  // July
		{7, SeasonMonsoon}, // August
		{8, SeasonMonsoon}, // September
		{9, SeasonAutumn},  // October
		{10, SeasonAutumn}, // November
		{11, SeasonWinter}, // December
	}
	for _, tt := range tests {
		if got := SeasonForMonth(tt.month); got != tt.want {
			t.Errorf("SeasonForMonth(%d) = %s, want %s", tt.month, got, tt.want)
		}
	}
}

func TestMonthName(t *testing.T) {
	t.Parallel()

	if got := MonthName(0); got != "January" {
		t.Errorf("MonthName(0) = %q, want January", got)
	}
	if got := MonthName(11); got != "December" {
		t.Errorf("MonthName(11) = %q, want December", got)
	}
	if got := MonthName(12); got != "" {
		t.Errorf("MonthName(12) = %q, want empty", got)
	}
	if got := MonthName(-1); got != "" {
		t.Errorf("MonthName(-1) = %q, want empty", got)
	}
}

func TestNewPurchaseRecordDerivation(t *testing.T) {
	t.Parallel()

	// Wednesday, 17 June 2026.
	when := time.Date(2026, time.June, 17, 10, 30, 0, 0, time.UTC)
	items := []PurchaseLine{
		{ItemID: "itm-1", Quantity: 2, Price: 45.50},
		{ItemID: "itm-2", Quantity: 1, Price: 99},
	}

	rec := NewPurchaseRecord("pur-1", "usr-1", items, when)

	if rec.TotalAmount != 2*45.50+99 {
		t.Errorf("TotalAmount = %v, want %v", rec.TotalAmount, 2*45.50+99)
	}
	if rec.DayOfWeek != 3 {
		t.Errorf("DayOfWeek = %d, want 3 (Wednesday)", rec.DayOfWeek)
	}
	if rec.WeekOfMonth != 3 {
		t.Errorf("WeekOfMonth = %d, want 3", rec.WeekOfMonth)
	}
	if rec.Month != 5 {
		t.Errorf("Month = %d, want 5 (June, zero-based)", rec.Month)
	}
	if rec.Year != 2026 {
		t.Errorf("Year = %d, want 2026", rec.Year)
	}
	if rec.Season != SeasonSummer {
		t.Errorf("Season = %s, want Summer", rec.Season)
	}
}

func TestWeekOfMonthBoundaries(t *testing.T) {
	t.Parallel()

	tests := []struct {
		day  int
		want int
	}{
		{1, 1},
		{7, 1},
		{8, 2},
		{14, 2},
		{15, 3},
		{29, 5},
		{31, 5},
	}
	for _, tt := range tests {
		when := time.Date(2026, time.January, tt.day, 0, 0, 0, 0, time.UTC)
		rec := NewPurchaseRecord("p", "u", nil, when)
		if rec.WeekOfMonth != tt.want {
			t.Errorf("day %d: WeekOfMonth = %d, want %d", tt.day, rec.WeekOfMonth, tt.want)
		}
	}
}

func TestAvailableInMonth(t *testing.T) {
	t.Parallel()

	mango := &InventoryItem{
		Seasonal:             true,
		SeasonalAvailability: []string{"April", "May", "June"},
	}
	if !mango.AvailableInMonth(4) {
		t.Error("mango should be available in May")
	}
	if mango.AvailableInMonth(0) {
		t.Error("mango should not be available in January")
	}

	rice := &InventoryItem{Seasonal: false}
	if !rice.AvailableInMonth(0) {
		t.Error("non-seasonal items are always available")
	}
}

func TestRelatedCategories(t *testing.T) {
	t.Parallel()

	u := &UserProfile{
		PreferredCategories: []string{"Spices", "Snacks"},
		Segment:             SegmentTraditional,
	}
	got := u.RelatedCategories()
	want := []string{"Spices", "Snacks", "Rice & Flour"}
	if len(got) != len(want) {
		t.Fatalf("RelatedCategories = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("RelatedCategories[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestPrefersVegetarian(t *testing.T) {
	t.Parallel()

	vegan := &UserProfile{DietaryPreferences: DietaryPreferences{IsVegan: true}}
	if !vegan.PrefersVegetarian() {
		t.Error("vegan users prefer vegetarian items")
	}
	omni := &UserProfile{}
	if omni.PrefersVegetarian() {
		t.Error("users without dietary flags accept everything")
	}
}
