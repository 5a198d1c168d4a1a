package planner

import (
	"errors"
	"strings"
	"testing"
)

func TestBuildGeneratePrompt(t *testing.T) {
	prefs := Preferences{
		CalorieTarget:  2000,
		MealsPerDay:    3,
		PlanDuration:   "1",
		DietType:       "Mediterranean",
		ExcludedFoods:  "pork",
		Allergies:      "peanuts",
		DailyCost:      "medium",
		Protein:        150,
		PreferredFoods: "",
	}
	locked := []FoodItem{item("Greek yogurt", 200, 20, 9, 5)}

	prompt, err := BuildGeneratePrompt(prefs, locked)
	if err != nil {
		t.Fatalf("BuildGeneratePrompt failed: %v", err)
	}

	for _, want := range []string{
		"1-day meal plan",
		"Daily calorie target: 2000 kcal",
		"Diet type: Mediterranean",
		"Preferred foods to include: none",
		"Foods to exclude: pork",
		"Allergies and intolerances: peanuts",
		"Protein 150, Carbs not specified, Fats not specified",
		"Daily cost range: medium",
		"Number of meals per day: 3",
		"±5% (or ±100 kcal, whichever is smaller)",
		"between 1900 and 2100 kcal",
		`[{"food":"Greek yogurt","calories":200,"protein":20,"carbs":9,"fats":5}]`,
		`"mealPlan": [`,
		"Do not add any text",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildGeneratePromptDefaults(t *testing.T) {
	prompt, err := BuildGeneratePrompt(Preferences{CalorieTarget: 1500, MealsPerDay: 4}, nil)
	if err != nil {
		t.Fatalf("BuildGeneratePrompt failed: %v", err)
	}
	for _, want := range []string{
		"7-day meal plan",
		"between 1425 and 1575 kcal",
		"Diet type: not specified",
		"## Locked foods you must keep exactly as they are\n\nNone",
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildRegeneratePrompt(t *testing.T) {
	plan := samplePlan(2)
	prefs := Preferences{CalorieTarget: 2000, MealsPerDay: 3, DietType: "keto"}

	prompt, err := BuildRegeneratePrompt(prefs, plan, RegenerationRequest{DayIndex: 1, MealIndex: 1, CurrentMeal: plan[1].Meals[1]})
	if err != nil {
		t.Fatalf("BuildRegeneratePrompt failed: %v", err)
	}
	for _, want := range []string{
		"Day: Day 2",
		"Meal name: Lunch",
		"Target calories: 800 kcal",
		"Target protein: 68g",
		"Target carbs: 88g",
		"Target fats: 17g",
		"Diet type: keto",
		"within ±10%",
		`"mealName": "Lunch"`,
		`"food":"Chicken breast"`,
	} {
		if !strings.Contains(prompt, want) {
			t.Errorf("Prompt missing %q", want)
		}
	}
}

func TestBuildRegeneratePromptUsesPlanMealWhenCurrentMealMissing(t *testing.T) {
	plan := samplePlan(1)
	prompt, err := BuildRegeneratePrompt(Preferences{}, plan, RegenerationRequest{DayIndex: 0, MealIndex: 2})
	if err != nil {
		t.Fatalf("BuildRegeneratePrompt failed: %v", err)
	}
	if !strings.Contains(prompt, "Meal name: Dinner") || !strings.Contains(prompt, "Target calories: 800 kcal") {
		t.Error("Expected the prompt to describe the dinner from the plan")
	}
}

func TestBuildRegeneratePromptOutOfRange(t *testing.T) {
	_, err := BuildRegeneratePrompt(Preferences{}, samplePlan(1), RegenerationRequest{DayIndex: 3})
	if !errors.Is(err, ErrIndexOutOfRange) {
		t.Errorf("Expected ErrIndexOutOfRange, got %v", err)
	}
}
