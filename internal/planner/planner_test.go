package planner

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"strings"
	"testing"

	"ai-diet-planner/internal/llm"
	"ai-diet-planner/internal/shared"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/zap/zaptest"
)

type MockTextGenerator struct {
	Response string
	Err      error
	Prompts  []string
}

func (m *MockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	m.Prompts = append(m.Prompts, prompt)
	usage := shared.TokenUsage{PromptTokens: 100, CompletionTokens: 50, TotalTokens: 150, Model: "mock"}
	if m.Err != nil {
		return llm.ContentResponse{Usage: usage}, m.Err
	}
	return llm.ContentResponse{Content: m.Response, Usage: usage}, nil
}

func planJSON(t *testing.T, p Plan) string {
	t.Helper()
	b, err := json.Marshal(map[string]any{"mealPlan": p})
	if err != nil {
		t.Fatalf("failed to marshal plan: %v", err)
	}
	return string(b)
}

func TestGeneratePlan(t *testing.T) {
	ctx := context.Background()
	day := samplePlan(1)
	mock := &MockTextGenerator{Response: "```json\n" + planJSON(t, day) + "\n```"}
	p := NewPlanner(mock, zaptest.NewLogger(t))

	prefs := Preferences{CalorieTarget: 2000, MealsPerDay: 3, PlanDuration: "1"}
	res, err := p.GeneratePlan(ctx, prefs, []FoodItem{item("Salmon", 500, 50, 0, 32)})
	if err != nil {
		t.Fatalf("GeneratePlan failed: %v", err)
	}

	if len(mock.Prompts) != 1 {
		t.Fatalf("Expected exactly one model call, got %d", len(mock.Prompts))
	}
	if !strings.Contains(mock.Prompts[0], `"food":"Salmon"`) {
		t.Error("Expected locked items in the prompt")
	}
	if len(res.Plan) != 1 || len(res.Plan[0].Meals) != 3 {
		t.Fatalf("Expected one day with three meals, got %+v", res.Plan)
	}

	cal := DayTotals(res.Plan[0]).Calories
	if !WithinTolerance(cal, 2000, DailyCalorieBand(2000)/2000) {
		t.Errorf("Day total %v outside the daily band", cal)
	}

	if res.Meta.AgentName != AgentGenerator || res.Meta.Usage.PromptTokens != 100 {
		t.Errorf("Unexpected meta %+v", res.Meta)
	}
}

func TestGeneratePlanRejectsInvalidInput(t *testing.T) {
	cases := map[string]Preferences{
		"MissingCalories": {MealsPerDay: 3},
		"NaNCalories":     {CalorieTarget: Amount(math.NaN()), MealsPerDay: 3},
		"InfiniteProtein": {CalorieTarget: 2000, MealsPerDay: 3, Protein: Amount(math.Inf(1))},
	}
	for name, prefs := range cases {
		t.Run(name, func(t *testing.T) {
			mock := &MockTextGenerator{}
			p := NewPlanner(mock, nil)

			_, err := p.GeneratePlan(context.Background(), prefs, nil)
			if !errors.Is(err, ErrInvalidRequest) {
				t.Fatalf("Expected ErrInvalidRequest, got %v", err)
			}
			if len(mock.Prompts) != 0 {
				t.Error("Model must not be called for invalid input")
			}
		})
	}
}

func TestGeneratePlanFailures(t *testing.T) {
	upstream := errors.New("quota exceeded")
	cases := []struct {
		name string
		mock *MockTextGenerator
		want error
	}{
		{"Upstream", &MockTextGenerator{Err: upstream}, ErrGenerationFailed},
		{"NoJSON", &MockTextGenerator{Response: "not json at all"}, ErrNoJSON},
		{"Malformed", &MockTextGenerator{Response: `{"mealPlan": [}`}, ErrMalformedResponse},
		{"WrongShape", &MockTextGenerator{Response: `{"days": []}`}, ErrInvalidPlanFormat},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			p := NewPlanner(tc.mock, zaptest.NewLogger(t))
			res, err := p.GeneratePlan(context.Background(), Preferences{CalorieTarget: 2000, MealsPerDay: 3}, nil)
			if !errors.Is(err, tc.want) {
				t.Fatalf("Expected %v, got %v", tc.want, err)
			}
			if res.Plan != nil {
				t.Error("Expected no plan on failure")
			}
			if res.Meta.AgentName != AgentGenerator {
				t.Error("Expected meta to be reported for a call that reached the model")
			}
			if len(tc.mock.Prompts) != 1 {
				t.Errorf("Expected a single attempt, got %d", len(tc.mock.Prompts))
			}
		})
	}

	p := NewPlanner(&MockTextGenerator{Err: upstream}, nil)
	_, err := p.GeneratePlan(context.Background(), Preferences{CalorieTarget: 2000, MealsPerDay: 3}, nil)
	if !errors.Is(err, upstream) {
		t.Errorf("Expected the upstream cause to be preserved, got %v", err)
	}
}

func TestRegenerateMeal(t *testing.T) {
	existing := samplePlan(3)
	before := existing.Clone()
	mock := &MockTextGenerator{Response: `Here you go: {"mealName": "Breakfast", "items": [{"food": "Greek yogurt", "calories": 380, "protein": 30, "carbs": 40, "fats": 8}]}`}
	p := NewPlanner(mock, zaptest.NewLogger(t))

	prefs := Preferences{CalorieTarget: 2000, MealsPerDay: 3}
	req := RegenerationRequest{DayIndex: 1, MealIndex: 0, CurrentMeal: existing[1].Meals[0]}
	res, err := p.RegenerateMeal(context.Background(), prefs, existing, req)
	if err != nil {
		t.Fatalf("RegenerateMeal failed: %v", err)
	}

	if res.Plan[1].Meals[0].MealName != "Breakfast" || res.Plan[1].Meals[0].Items[0].Food != "Greek yogurt" {
		t.Errorf("Unexpected replacement %+v", res.Plan[1].Meals[0])
	}
	if diff := cmp.Diff(before[0], res.Plan[0]); diff != "" {
		t.Errorf("Day 0 changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before[2], res.Plan[2]); diff != "" {
		t.Errorf("Day 2 changed (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(before, existing); diff != "" {
		t.Errorf("Existing plan was mutated (-want +got):\n%s", diff)
	}
	if res.Meta.AgentName != AgentRegenerator {
		t.Errorf("Unexpected agent %q", res.Meta.AgentName)
	}
	if !strings.Contains(mock.Prompts[0], "Target calories: 400 kcal") {
		t.Error("Expected the current meal totals in the prompt")
	}
}

func TestRegenerateMealKeepsNameWhenMissing(t *testing.T) {
	mock := &MockTextGenerator{Response: `{"items": [{"food": "Toast", "calories": 400, "protein": 12, "carbs": 70, "fats": 8}]}`}
	p := NewPlanner(mock, nil)

	res, err := p.RegenerateMeal(context.Background(), Preferences{CalorieTarget: 2000, MealsPerDay: 3}, samplePlan(1), RegenerationRequest{DayIndex: 0, MealIndex: 0})
	if err != nil {
		t.Fatalf("RegenerateMeal failed: %v", err)
	}
	if res.Plan[0].Meals[0].MealName != "Breakfast" {
		t.Errorf("Expected the original meal name, got %q", res.Plan[0].Meals[0].MealName)
	}
}

func TestRegenerateMealFailures(t *testing.T) {
	prefs := Preferences{CalorieTarget: 2000, MealsPerDay: 3}

	t.Run("OutOfRange", func(t *testing.T) {
		mock := &MockTextGenerator{}
		_, err := NewPlanner(mock, nil).RegenerateMeal(context.Background(), prefs, samplePlan(1), RegenerationRequest{DayIndex: 1})
		if !errors.Is(err, ErrIndexOutOfRange) {
			t.Fatalf("Expected ErrIndexOutOfRange, got %v", err)
		}
		if len(mock.Prompts) != 0 {
			t.Error("Model must not be called for bad indices")
		}
	})

	t.Run("NoPlan", func(t *testing.T) {
		_, err := NewPlanner(&MockTextGenerator{}, nil).RegenerateMeal(context.Background(), prefs, nil, RegenerationRequest{})
		if !errors.Is(err, ErrNoActivePlan) {
			t.Fatalf("Expected ErrNoActivePlan, got %v", err)
		}
	})

	t.Run("NoJSON", func(t *testing.T) {
		existing := samplePlan(1)
		before := existing.Clone()
		_, err := NewPlanner(&MockTextGenerator{Response: "not json at all"}, nil).RegenerateMeal(context.Background(), prefs, existing, RegenerationRequest{})
		if !errors.Is(err, ErrNoJSON) {
			t.Fatalf("Expected ErrNoJSON, got %v", err)
		}
		if diff := cmp.Diff(before, existing); diff != "" {
			t.Errorf("Existing plan changed after a failure (-want +got):\n%s", diff)
		}
	})

	t.Run("NotAMeal", func(t *testing.T) {
		_, err := NewPlanner(&MockTextGenerator{Response: `{"mealPlan": []}`}, nil).RegenerateMeal(context.Background(), prefs, samplePlan(1), RegenerationRequest{})
		if !errors.Is(err, ErrInvalidPlanFormat) {
			t.Fatalf("Expected ErrInvalidPlanFormat, got %v", err)
		}
	})
}
