package planner

import "fmt"

func item(food string, cal, p, c, f float64) FoodItem {
	return FoodItem{Food: food, Calories: cal, Protein: p, Carbs: c, Fats: f}
}

// samplePlan builds a plan of n days with breakfast, lunch and dinner.
func samplePlan(n int) Plan {
	plan := make(Plan, n)
	for i := range plan {
		plan[i] = DayPlan{
			Day: fmt.Sprintf("Day %d", i+1),
			Meals: []Meal{
				{MealName: "Breakfast", Items: []FoodItem{item("Oatmeal", 300, 10, 54, 6), item("Banana", 100, 1, 27, 0)}},
				{MealName: "Lunch", Items: []FoodItem{item("Chicken breast", 400, 60, 0, 16), item("Rice", 400, 8, 88, 1)}},
				{MealName: "Dinner", Items: []FoodItem{item("Salmon", 500, 50, 0, 32), item("Oatmeal", 300, 10, 54, 6)}},
			},
		}
	}
	return plan
}
