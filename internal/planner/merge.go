package planner

import "fmt"

// ReplaceMeal returns a copy of plan with the meal at (dayIndex, mealIndex)
// replaced by meal. plan itself is never modified.
func ReplaceMeal(plan Plan, dayIndex, mealIndex int, meal Meal) (Plan, error) {
	if err := checkIndices(plan, dayIndex, mealIndex); err != nil {
		return nil, err
	}
	out := plan.Clone()
	out[dayIndex].Meals[mealIndex] = meal.Clone()
	return out, nil
}

func checkIndices(plan Plan, dayIndex, mealIndex int) error {
	if dayIndex < 0 || dayIndex >= len(plan) {
		return fmt.Errorf("%w: day %d of %d", ErrIndexOutOfRange, dayIndex, len(plan))
	}
	if meals := len(plan[dayIndex].Meals); mealIndex < 0 || mealIndex >= meals {
		return fmt.Errorf("%w: meal %d of %d on day %d", ErrIndexOutOfRange, mealIndex, meals, dayIndex)
	}
	return nil
}

// MealAt returns the meal at (dayIndex, mealIndex).
func MealAt(plan Plan, dayIndex, mealIndex int) (Meal, error) {
	if err := checkIndices(plan, dayIndex, mealIndex); err != nil {
		return Meal{}, err
	}
	return plan[dayIndex].Meals[mealIndex], nil
}
