package planner

import (
	"encoding/json"
	"errors"
	"math"
	"testing"
	"time"
)

func TestPreferencesUnmarshal(t *testing.T) {
	body := `{
		"calorie_target": "2000",
		"meals_per_day": 3,
		"type_of_diet": "vegan",
		"plan_duration": "5",
		"protein": "",
		"carbs": null,
		"fats": 70.5,
		"daily_cost": "low",
		"locked_items": [{"food": "Tofu", "calories": 150, "protein": 15, "carbs": 3, "fats": 9}]
	}`
	var prefs Preferences
	if err := json.Unmarshal([]byte(body), &prefs); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if prefs.CalorieTarget != 2000 || prefs.MealsPerDay != 3 || prefs.Fats != 70.5 {
		t.Errorf("Unexpected numbers %+v", prefs)
	}
	if prefs.Protein != 0 || prefs.Carbs != 0 {
		t.Errorf("Expected blank macros to decode as zero, got %+v", prefs)
	}
	if len(prefs.LockedItems) != 1 || prefs.LockedItems[0].Food != "Tofu" {
		t.Errorf("Unexpected locked items %+v", prefs.LockedItems)
	}
	if days, err := prefs.Days(); err != nil || days != 5 {
		t.Errorf("Days() = %d, %v", days, err)
	}

	for _, body := range []string{
		`{"calorie_target": "lots"}`,
		`{"calorie_target": "NaN"}`,
		`{"protein": "Inf"}`,
		`{"fats": "-Infinity"}`,
	} {
		var bad Preferences
		if err := json.Unmarshal([]byte(body), &bad); err == nil {
			t.Errorf("Expected an error for %s", body)
		}
	}
}

func TestPreferencesValidate(t *testing.T) {
	valid := Preferences{CalorieTarget: 2000, MealsPerDay: 3}
	if err := valid.Validate(); err != nil {
		t.Fatalf("Expected valid preferences, got %v", err)
	}

	cases := []struct {
		name   string
		mutate func(*Preferences)
	}{
		{"MissingCalories", func(p *Preferences) { p.CalorieTarget = 0 }},
		{"CaloriesTooLow", func(p *Preferences) { p.CalorieTarget = 999 }},
		{"CaloriesTooHigh", func(p *Preferences) { p.CalorieTarget = 5001 }},
		{"MissingMeals", func(p *Preferences) { p.MealsPerDay = 0 }},
		{"TooManyMeals", func(p *Preferences) { p.MealsPerDay = 9 }},
		{"FractionalMeals", func(p *Preferences) { p.MealsPerDay = 2.5 }},
		{"DurationNotNumber", func(p *Preferences) { p.PlanDuration = "week" }},
		{"DurationTooLong", func(p *Preferences) { p.PlanDuration = "15" }},
		{"DurationZero", func(p *Preferences) { p.PlanDuration = "0" }},
		{"UnknownCost", func(p *Preferences) { p.DailyCost = "luxury" }},
		{"NegativeMacro", func(p *Preferences) { p.Carbs = -1 }},
		{"NaNCalories", func(p *Preferences) { p.CalorieTarget = Amount(math.NaN()) }},
		{"InfiniteProtein", func(p *Preferences) { p.Protein = Amount(math.Inf(1)) }},
		{"NaNFats", func(p *Preferences) { p.Fats = Amount(math.NaN()) }},
		{"NaNMeals", func(p *Preferences) { p.MealsPerDay = Amount(math.NaN()) }},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := valid
			tc.mutate(&p)
			if err := p.Validate(); !errors.Is(err, ErrInvalidRequest) {
				t.Errorf("Expected ErrInvalidRequest, got %v", err)
			}
		})
	}
}

func TestPreferencesDaysDefault(t *testing.T) {
	days, err := Preferences{}.Days()
	if err != nil || days != DefaultPlanDays {
		t.Errorf("Days() = %d, %v; want %d", days, err, DefaultPlanDays)
	}
}

func TestDefaultPlanName(t *testing.T) {
	at := time.Date(2024, 3, 9, 18, 0, 0, 0, time.UTC)
	if got := DefaultPlanName(at); got != "Meal Plan 2024-03-09" {
		t.Errorf("DefaultPlanName = %q", got)
	}
}

func TestPlanFindFood(t *testing.T) {
	plan := samplePlan(2)

	got, ok := plan.FindFood("chicken BREAST")
	if !ok || got.Food != "Chicken breast" || got.Calories != 400 {
		t.Errorf("Expected the chicken item, got %+v (found=%v)", got, ok)
	}
	if _, ok := plan.FindFood("Tofu"); ok {
		t.Error("Expected Tofu to be missing")
	}
}
