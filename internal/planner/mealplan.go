package planner

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"
)

// FoodItem is a single food entry with its nutritional values.
type FoodItem struct {
	Food     string  `json:"food"`
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

// Meal groups the food items eaten together in one slot of a day.
type Meal struct {
	MealName string     `json:"mealName"`
	Items    []FoodItem `json:"items"`
}

// DayPlan represents the meals for a single day.
type DayPlan struct {
	Day   string `json:"day"`
	Meals []Meal `json:"meals"`
}

// Plan is an ordered sequence of days. Index order is calendar order.
type Plan []DayPlan

// Clone returns a deep copy of the plan that shares no slices with p.
func (p Plan) Clone() Plan {
	if p == nil {
		return nil
	}
	out := make(Plan, len(p))
	for i, day := range p {
		out[i] = DayPlan{Day: day.Day, Meals: cloneMeals(day.Meals)}
	}
	return out
}

func cloneMeals(meals []Meal) []Meal {
	if meals == nil {
		return nil
	}
	out := make([]Meal, len(meals))
	for i, m := range meals {
		out[i] = m.Clone()
	}
	return out
}

// Clone returns a copy of the meal with its own item slice.
func (m Meal) Clone() Meal {
	out := Meal{MealName: m.MealName}
	if m.Items != nil {
		out.Items = make([]FoodItem, len(m.Items))
		copy(out.Items, m.Items)
	}
	return out
}

// FindFood returns the first item named name, ignoring case.
func (p Plan) FindFood(name string) (FoodItem, bool) {
	for _, d := range p {
		for _, m := range d.Meals {
			for _, it := range m.Items {
				if strings.EqualFold(it.Food, name) {
					return it, true
				}
			}
		}
	}
	return FoodItem{}, false
}

// Amount is a numeric form value. Browser clients send these either as JSON
// numbers or as numeric strings, an empty string meaning "not specified".
type Amount float64

// UnmarshalJSON accepts numbers, numeric strings, empty strings and null.
func (a *Amount) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if bytes.Equal(b, []byte("null")) {
		*a = 0
		return nil
	}
	if len(b) > 0 && b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		s = strings.TrimSpace(s)
		if s == "" {
			*a = 0
			return nil
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("invalid number %q", s)
		}
		*a = Amount(f)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*a = Amount(f)
	return nil
}

// String renders the amount without a trailing fraction for whole numbers.
func (a Amount) String() string {
	return strconv.FormatFloat(float64(a), 'f', -1, 64)
}

const (
	MinCalorieTarget = 1000
	MaxCalorieTarget = 5000
	MinMealsPerDay   = 1
	MaxMealsPerDay   = 8
	DefaultPlanDays  = 7
	MaxPlanDays      = 14
)

// Preferences are the user-supplied constraints for a meal plan. JSON keys
// follow the public HTTP contract.
type Preferences struct {
	CalorieTarget  Amount     `json:"calorie_target"`
	MealsPerDay    Amount     `json:"meals_per_day"`
	DietType       string     `json:"type_of_diet,omitempty"`
	PlanDuration   string     `json:"plan_duration,omitempty"`
	PreferredFoods string     `json:"prefered_foods,omitempty"`
	ExcludedFoods  string     `json:"excluded_foods,omitempty"`
	Allergies      string     `json:"allergic_and_intolerances,omitempty"`
	DailyCost      string     `json:"daily_cost,omitempty"`
	Protein        Amount     `json:"protein,omitempty"`
	Carbs          Amount     `json:"carbs,omitempty"`
	Fats           Amount     `json:"fats,omitempty"`
	LockedItems    []FoodItem `json:"locked_items,omitempty"`
}

// Days returns the requested plan length, defaulting to a week.
func (p Preferences) Days() (int, error) {
	s := strings.TrimSpace(p.PlanDuration)
	if s == "" {
		return DefaultPlanDays, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, fmt.Errorf("%w: plan duration must be a whole number of days", ErrInvalidRequest)
	}
	if n < 1 || n > MaxPlanDays {
		return 0, fmt.Errorf("%w: plan duration must be between 1 and %d days", ErrInvalidRequest, MaxPlanDays)
	}
	return n, nil
}

// Validate rejects preferences that cannot produce a sensible plan.
func (p Preferences) Validate() error {
	for _, a := range []Amount{p.CalorieTarget, p.MealsPerDay, p.Protein, p.Carbs, p.Fats} {
		if f := float64(a); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%w: numeric values must be finite", ErrInvalidRequest)
		}
	}
	if p.CalorieTarget <= 0 {
		return fmt.Errorf("%w: calorie target is required", ErrInvalidRequest)
	}
	if p.CalorieTarget < MinCalorieTarget || p.CalorieTarget > MaxCalorieTarget {
		return fmt.Errorf("%w: calorie target must be between %d and %d kcal", ErrInvalidRequest, MinCalorieTarget, MaxCalorieTarget)
	}
	if p.MealsPerDay <= 0 {
		return fmt.Errorf("%w: meals per day is required", ErrInvalidRequest)
	}
	if p.MealsPerDay != Amount(int(p.MealsPerDay)) || p.MealsPerDay < MinMealsPerDay || p.MealsPerDay > MaxMealsPerDay {
		return fmt.Errorf("%w: meals per day must be a whole number between %d and %d", ErrInvalidRequest, MinMealsPerDay, MaxMealsPerDay)
	}
	if _, err := p.Days(); err != nil {
		return err
	}
	switch p.DailyCost {
	case "", "low", "medium", "high":
	default:
		return fmt.Errorf("%w: daily cost must be one of low, medium, high", ErrInvalidRequest)
	}
	if p.Protein < 0 || p.Carbs < 0 || p.Fats < 0 {
		return fmt.Errorf("%w: macro targets cannot be negative", ErrInvalidRequest)
	}
	return nil
}

// RegenerationRequest identifies the meal to replace in an existing plan.
type RegenerationRequest struct {
	DayIndex    int  `json:"day_index"`
	MealIndex   int  `json:"meal_index"`
	CurrentMeal Meal `json:"current_meal"`
}

// SavedPlan is a plan the user explicitly kept. Only IsFavorite changes after creation.
type SavedPlan struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Plan        Plan        `json:"plan"`
	Preferences Preferences `json:"preferences"`
	CreatedAt   time.Time   `json:"createdAt"`
	IsFavorite  bool        `json:"isFavorite"`
	Tags        []string    `json:"tags"`
}

// DefaultPlanName is the name given to a saved plan when the user leaves it blank.
func DefaultPlanName(at time.Time) string {
	return "Meal Plan " + at.Format("2006-01-02")
}
