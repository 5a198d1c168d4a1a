package planner

import (
	"context"
	"fmt"
	"time"

	"ai-diet-planner/internal/llm"
	"ai-diet-planner/internal/shared"

	"go.uber.org/zap"
)

const (
	AgentGenerator   = "PlanGenerator"
	AgentRegenerator = "MealRegenerator"
)

// regenerationTolerance is the allowed drift of a replacement meal's totals.
const regenerationTolerance = 0.1

// Result is the outcome of one generation or regeneration call.
type Result struct {
	Plan Plan
	Meta shared.AgentMeta
}

// Planner turns preferences into meal plans through a text generator.
// Each operation makes exactly one model call and never retries.
type Planner struct {
	textGen llm.TextGenerator
	logger  *zap.Logger
}

// NewPlanner creates a new Planner instance.
func NewPlanner(textGen llm.TextGenerator, logger *zap.Logger) *Planner {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Planner{textGen: textGen, logger: logger}
}

// GeneratePlan produces a complete plan honoring prefs. locked items are
// passed to the model as foods to keep verbatim.
//
// Meta is populated whenever the model was called, including on parse failures,
// so callers can record usage.
func (p *Planner) GeneratePlan(ctx context.Context, prefs Preferences, locked []FoodItem) (Result, error) {
	if err := prefs.Validate(); err != nil {
		return Result{}, err
	}

	prompt, err := BuildGeneratePrompt(prefs, locked)
	if err != nil {
		return Result{}, err
	}

	content, meta, err := p.call(ctx, AgentGenerator, prompt)
	if err != nil {
		return Result{Meta: meta}, err
	}

	jsonText, err := SanitizeResponse(content)
	if err != nil {
		p.logger.Warn("model response had no JSON object", zap.String("agent", AgentGenerator), zap.Int("length", len(content)))
		return Result{Meta: meta}, err
	}

	plan, err := ParsePlan(jsonText)
	if err != nil {
		p.logger.Warn("failed to parse meal plan", zap.Error(err))
		return Result{Meta: meta}, err
	}

	p.checkPlan(prefs, plan)
	return Result{Plan: plan, Meta: meta}, nil
}

// RegenerateMeal asks the model for a replacement of one meal and splices it
// into a copy of existing. existing is never modified.
func (p *Planner) RegenerateMeal(ctx context.Context, prefs Preferences, existing Plan, req RegenerationRequest) (Result, error) {
	if err := prefs.Validate(); err != nil {
		return Result{}, err
	}
	if len(existing) == 0 {
		return Result{}, ErrNoActivePlan
	}

	prompt, err := BuildRegeneratePrompt(prefs, existing, req)
	if err != nil {
		return Result{}, err
	}

	content, meta, err := p.call(ctx, AgentRegenerator, prompt)
	if err != nil {
		return Result{Meta: meta}, err
	}

	jsonText, err := SanitizeResponse(content)
	if err != nil {
		p.logger.Warn("model response had no JSON object", zap.String("agent", AgentRegenerator), zap.Int("length", len(content)))
		return Result{Meta: meta}, err
	}

	meal, err := ParseMeal(jsonText)
	if err != nil {
		p.logger.Warn("failed to parse regenerated meal", zap.Error(err))
		return Result{Meta: meta}, err
	}

	current := existing[req.DayIndex].Meals[req.MealIndex]
	if meal.MealName == "" {
		meal.MealName = current.MealName
	}

	plan, err := ReplaceMeal(existing, req.DayIndex, req.MealIndex, meal)
	if err != nil {
		return Result{Meta: meta}, err
	}

	want, got := MealTotals(current), MealTotals(meal)
	if !WithinTolerance(got.Calories, want.Calories, regenerationTolerance) {
		p.logger.Warn("regenerated meal outside calorie tolerance",
			zap.String("meal", meal.MealName),
			zap.Float64("target", want.Calories),
			zap.Float64("actual", got.Calories))
	}
	return Result{Plan: plan, Meta: meta}, nil
}

func (p *Planner) call(ctx context.Context, agent, prompt string) (string, shared.AgentMeta, error) {
	start := time.Now()
	resp, err := p.textGen.GenerateContent(ctx, prompt)
	meta := shared.AgentMeta{
		AgentName: agent,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		p.logger.Error("text generation failed", zap.String("agent", agent), zap.Error(err))
		return "", meta, fmt.Errorf("%w: %w", ErrGenerationFailed, err)
	}
	p.logger.Debug("text generation finished",
		zap.String("agent", agent),
		zap.String("model", resp.Usage.Model),
		zap.Int("prompt_tokens", resp.Usage.PromptTokens),
		zap.Int("completion_tokens", resp.Usage.CompletionTokens),
		zap.Duration("latency", meta.Latency))
	return resp.Content, meta, nil
}

// checkPlan logs where the plan misses the requested shape or calorie band.
// The model is trusted; nothing here rejects a plan.
func (p *Planner) checkPlan(prefs Preferences, plan Plan) {
	if days, _ := prefs.Days(); len(plan) != days {
		p.logger.Warn("plan length differs from request", zap.Int("requested", days), zap.Int("returned", len(plan)))
	}

	target := float64(prefs.CalorieTarget)
	band := DailyCalorieBand(target)
	meals := int(prefs.MealsPerDay)
	for _, d := range plan {
		if len(d.Meals) != meals {
			p.logger.Warn("day has unexpected meal count", zap.String("day", d.Day), zap.Int("requested", meals), zap.Int("returned", len(d.Meals)))
		}
		if cal := DayTotals(d).Calories; cal < target-band || cal > target+band {
			p.logger.Warn("day outside calorie band",
				zap.String("day", d.Day),
				zap.Float64("calories", cal),
				zap.Float64("target", target),
				zap.Float64("band", band))
		}
	}
}
