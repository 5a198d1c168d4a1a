package planner

import (
	"bytes"
	_ "embed"
	"encoding/json"
	"fmt"
	"strconv"
	"text/template"
)

//go:embed generate_prompt.md
var generatePrompt string

//go:embed regenerate_prompt.md
var regeneratePrompt string

var promptFuncs = template.FuncMap{
	"json": func(v any) (string, error) {
		b, err := json.Marshal(v)
		return string(b), err
	},
	"num": func(f float64) string {
		return strconv.FormatFloat(f, 'f', -1, 64)
	},
}

var (
	generateTmpl   = template.Must(template.New("Generate").Funcs(promptFuncs).Parse(generatePrompt))
	regenerateTmpl = template.Must(template.New("Regenerate").Funcs(promptFuncs).Parse(regeneratePrompt))
)

type generatePromptData struct {
	Days           int
	CalorieTarget  string
	MinCalories    string
	MaxCalories    string
	MealsPerDay    string
	DietType       string
	PreferredFoods string
	ExcludedFoods  string
	Allergies      string
	DailyCost      string
	Protein        string
	Carbs          string
	Fats           string
	LockedItems    []FoodItem
}

// BuildGeneratePrompt renders the full-plan prompt. locked items are embedded
// as literal JSON the model is told to keep unchanged.
func BuildGeneratePrompt(prefs Preferences, locked []FoodItem) (string, error) {
	days, err := prefs.Days()
	if err != nil {
		return "", err
	}

	target := float64(prefs.CalorieTarget)
	band := DailyCalorieBand(target)
	data := generatePromptData{
		Days:           days,
		CalorieTarget:  prefs.CalorieTarget.String(),
		MinCalories:    strconv.FormatFloat(target-band, 'f', 0, 64),
		MaxCalories:    strconv.FormatFloat(target+band, 'f', 0, 64),
		MealsPerDay:    prefs.MealsPerDay.String(),
		DietType:       prefs.DietType,
		PreferredFoods: prefs.PreferredFoods,
		ExcludedFoods:  prefs.ExcludedFoods,
		Allergies:      prefs.Allergies,
		DailyCost:      prefs.DailyCost,
		Protein:        optionalAmount(prefs.Protein),
		Carbs:          optionalAmount(prefs.Carbs),
		Fats:           optionalAmount(prefs.Fats),
		LockedItems:    locked,
	}
	return render(generateTmpl, data)
}

type regeneratePromptData struct {
	Plan           Plan
	Day            string
	Meal           Meal
	Totals         Totals
	DietType       string
	PreferredFoods string
	ExcludedFoods  string
	Allergies      string
}

// BuildRegeneratePrompt renders the prompt asking for a replacement of the
// meal at req's indices, using that meal's totals as nutritional targets.
func BuildRegeneratePrompt(prefs Preferences, plan Plan, req RegenerationRequest) (string, error) {
	if err := checkIndices(plan, req.DayIndex, req.MealIndex); err != nil {
		return "", err
	}

	meal := req.CurrentMeal
	if meal.MealName == "" && len(meal.Items) == 0 {
		meal = plan[req.DayIndex].Meals[req.MealIndex]
	}

	data := regeneratePromptData{
		Plan:           plan,
		Day:            plan[req.DayIndex].Day,
		Meal:           meal,
		Totals:         MealTotals(meal),
		DietType:       prefs.DietType,
		PreferredFoods: prefs.PreferredFoods,
		ExcludedFoods:  prefs.ExcludedFoods,
		Allergies:      prefs.Allergies,
	}
	return render(regenerateTmpl, data)
}

func optionalAmount(a Amount) string {
	if a == 0 {
		return ""
	}
	return a.String()
}

func render(tmpl *template.Template, data any) (string, error) {
	var buf bytes.Buffer
	if err := tmpl.Execute(&buf, data); err != nil {
		return "", fmt.Errorf("failed to render %s prompt: %w", tmpl.Name(), err)
	}
	return buf.String(), nil
}
