package planner

import (
	"encoding/json"
	"fmt"
)

// ParsePlan decodes a sanitized generation response of the form
// {"mealPlan": [...]}.
func ParsePlan(s string) (Plan, error) {
	obj, err := decodeObject(s)
	if err != nil {
		return nil, err
	}

	raw, ok := obj["mealPlan"]
	if !ok || string(raw) == "null" {
		return nil, fmt.Errorf("%w: missing mealPlan", ErrInvalidPlanFormat)
	}

	var plan Plan
	if err := json.Unmarshal(raw, &plan); err != nil {
		return nil, fmt.Errorf("%w: mealPlan is not a list of days: %v", ErrInvalidPlanFormat, err)
	}
	if len(plan) == 0 {
		return nil, fmt.Errorf("%w: mealPlan has no days", ErrInvalidPlanFormat)
	}
	return plan, nil
}

// ParseMeal decodes a sanitized regeneration response holding a single meal.
// Item values are taken as returned.
func ParseMeal(s string) (Meal, error) {
	obj, err := decodeObject(s)
	if err != nil {
		return Meal{}, err
	}

	_, hasName := obj["mealName"]
	_, hasItems := obj["items"]
	if !hasName && !hasItems {
		return Meal{}, fmt.Errorf("%w: expected a meal with mealName and items", ErrInvalidPlanFormat)
	}

	var meal Meal
	if err := json.Unmarshal([]byte(s), &meal); err != nil {
		return Meal{}, fmt.Errorf("%w: %v", ErrInvalidPlanFormat, err)
	}
	return meal, nil
}

// decodeObject separates syntax errors from shape errors so callers can
// report them differently.
func decodeObject(s string) (map[string]json.RawMessage, error) {
	if !json.Valid([]byte(s)) {
		return nil, ErrMalformedResponse
	}
	var obj map[string]json.RawMessage
	if err := json.Unmarshal([]byte(s), &obj); err != nil || obj == nil {
		return nil, fmt.Errorf("%w: expected a JSON object", ErrInvalidPlanFormat)
	}
	return obj, nil
}
