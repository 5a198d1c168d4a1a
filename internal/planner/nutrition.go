package planner

import (
	"math"
	"sort"
)

// Energy per gram of each macronutrient.
const (
	KcalPerGramProtein = 4
	KcalPerGramCarbs   = 4
	KcalPerGramFat     = 9
)

// Totals is the summed nutrition of a set of food items.
type Totals struct {
	Calories float64 `json:"calories"`
	Protein  float64 `json:"protein"`
	Carbs    float64 `json:"carbs"`
	Fats     float64 `json:"fats"`
}

func (t Totals) add(o Totals) Totals {
	return Totals{
		Calories: t.Calories + o.Calories,
		Protein:  t.Protein + o.Protein,
		Carbs:    t.Carbs + o.Carbs,
		Fats:     t.Fats + o.Fats,
	}
}

// MealTotals sums the items of a meal.
func MealTotals(m Meal) Totals {
	var t Totals
	for _, it := range m.Items {
		t = t.add(Totals{Calories: it.Calories, Protein: it.Protein, Carbs: it.Carbs, Fats: it.Fats})
	}
	return t
}

// DayTotals sums every meal of a day.
func DayTotals(d DayPlan) Totals {
	var t Totals
	for _, m := range d.Meals {
		t = t.add(MealTotals(m))
	}
	return t
}

// Insights summarises a whole plan.
type Insights struct {
	DailyTotals    []Totals `json:"dailyTotals"`
	AvgDaily       Totals   `json:"avgDaily"`
	ProteinPercent float64  `json:"proteinPercent"`
	CarbsPercent   float64  `json:"carbsPercent"`
	FatsPercent    float64  `json:"fatsPercent"`
}

// PlanInsights returns per-day totals, their mean and the share of calories
// coming from each macronutrient. ok is false for an empty plan.
func PlanInsights(p Plan) (Insights, bool) {
	if len(p) == 0 {
		return Insights{}, false
	}

	ins := Insights{DailyTotals: make([]Totals, len(p))}
	var sum Totals
	for i, d := range p {
		ins.DailyTotals[i] = DayTotals(d)
		sum = sum.add(ins.DailyTotals[i])
	}

	n := float64(len(p))
	ins.AvgDaily = Totals{
		Calories: sum.Calories / n,
		Protein:  sum.Protein / n,
		Carbs:    sum.Carbs / n,
		Fats:     sum.Fats / n,
	}

	// Zero average calories would make every share NaN, which JSON cannot encode.
	if ins.AvgDaily.Calories > 0 {
		ins.ProteinPercent = ins.AvgDaily.Protein * KcalPerGramProtein / ins.AvgDaily.Calories * 100
		ins.CarbsPercent = ins.AvgDaily.Carbs * KcalPerGramCarbs / ins.AvgDaily.Calories * 100
		ins.FatsPercent = ins.AvgDaily.Fats * KcalPerGramFat / ins.AvgDaily.Calories * 100
	}
	return ins, true
}

// ShoppingList returns every distinct food name in the plan, sorted ascending.
func ShoppingList(p Plan) []string {
	seen := make(map[string]struct{})
	list := []string{}
	for _, d := range p {
		for _, m := range d.Meals {
			for _, it := range m.Items {
				if _, ok := seen[it.Food]; ok {
					continue
				}
				seen[it.Food] = struct{}{}
				list = append(list, it.Food)
			}
		}
	}
	sort.Strings(list)
	return list
}

// DefaultTolerance is the relative tolerance used when none is given.
const DefaultTolerance = 0.1

// WithinTolerance reports whether actual is within tolerance (a fraction) of target.
// A non-positive tolerance falls back to DefaultTolerance.
func WithinTolerance(actual, target, tolerance float64) bool {
	if tolerance <= 0 {
		tolerance = DefaultTolerance
	}
	return math.Abs(actual-target) <= math.Abs(target)*tolerance
}

// DailyCalorieBand is the accepted deviation for a full day: 5% of the
// target or 100 kcal, whichever is smaller.
func DailyCalorieBand(target float64) float64 {
	return math.Min(target*0.05, 100)
}
