package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"
	"time"

	"ai-diet-planner/internal/auth"
	"ai-diet-planner/internal/planner"
	"ai-diet-planner/internal/session"
)

// MetricsCleaner prunes old execution metrics; *metrics.Store satisfies it.
type MetricsCleaner interface {
	Cleanup(ctx context.Context, olderThanDays int) (int64, error)
}

// App runs CLI commands against one planning session and prints the results.
type App struct {
	sessions  *session.Manager
	metrics   MetricsCleaner
	tokens    *auth.Tokens
	out       io.Writer
	sessionID string
}

// NewApp creates an App bound to sessionID. tokens may be nil.
func NewApp(sessions *session.Manager, metrics MetricsCleaner, tokens *auth.Tokens, out io.Writer, sessionID string) *App {
	if sessionID == "" {
		sessionID = auth.DefaultSession
	}
	return &App{
		sessions:  sessions,
		metrics:   metrics,
		tokens:    tokens,
		out:       out,
		sessionID: sessionID,
	}
}

// GenerateMealPlan creates a new plan and prints it.
func (a *App) GenerateMealPlan(ctx context.Context, prefs planner.Preferences) error {
	fmt.Fprintf(a.out, "Generating a meal plan for %s kcal, %s meals a day...\n", prefs.CalorieTarget, prefs.MealsPerDay)

	st, err := a.sessions.Generate(ctx, a.sessionID, prefs)
	if err != nil {
		return fmt.Errorf("failed to generate plan: %w", err)
	}
	a.printPlan(st.CurrentPlan)
	return nil
}

// RegenerateMeal replaces one meal of the current plan and prints its day.
func (a *App) RegenerateMeal(ctx context.Context, dayIndex, mealIndex int) error {
	st, err := a.sessions.Regenerate(ctx, a.sessionID, dayIndex, mealIndex)
	if err != nil {
		return fmt.Errorf("failed to regenerate meal: %w", err)
	}
	fmt.Fprintln(a.out, "Meal regenerated.")
	a.printDay(st.CurrentPlan[dayIndex])
	return nil
}

// ToggleLock locks or unlocks food. Foods found in the current plan are
// locked with their nutrition values.
func (a *App) ToggleLock(ctx context.Context, food string) error {
	st, err := a.sessions.Snapshot(ctx, a.sessionID)
	if err != nil {
		return err
	}
	item, ok := st.CurrentPlan.FindFood(food)
	if !ok {
		item = planner.FoodItem{Food: strings.TrimSpace(food)}
	}

	locked, err := a.sessions.ToggleLock(ctx, a.sessionID, item)
	if err != nil {
		return err
	}
	if locked {
		fmt.Fprintf(a.out, "Locked %q.\n", item.Food)
	} else {
		fmt.Fprintf(a.out, "Unlocked %q.\n", item.Food)
	}
	return nil
}

// UnlockAll clears the lock set.
func (a *App) UnlockAll(ctx context.Context) error {
	if err := a.sessions.ClearLocks(ctx, a.sessionID); err != nil {
		return err
	}
	fmt.Fprintln(a.out, "All foods unlocked.")
	return nil
}

// Show prints the current plan and locked foods.
func (a *App) Show(ctx context.Context) error {
	st, err := a.sessions.Snapshot(ctx, a.sessionID)
	if err != nil {
		return err
	}
	if !st.HasPlan() {
		fmt.Fprintln(a.out, "No active meal plan.")
	} else {
		a.printPlan(st.CurrentPlan)
	}

	if items := st.LockedItems.Items(); len(items) > 0 {
		fmt.Fprintln(a.out, "\n=== LOCKED FOODS ===")
		for _, it := range items {
			fmt.Fprintf(a.out, "- %s\n", it.Food)
		}
	}
	return nil
}

// ListSessions prints every stored session, marking the active one.
func (a *App) ListSessions(ctx context.Context) error {
	ids, err := a.sessions.ListSessions(ctx)
	if err != nil {
		return err
	}
	if len(ids) == 0 {
		fmt.Fprintln(a.out, "No sessions.")
		return nil
	}
	for _, id := range ids {
		mark := " "
		if id == a.sessionID {
			mark = "*"
		}
		fmt.Fprintf(a.out, "%s %s\n", mark, id)
	}
	return nil
}

// ShoppingList prints the shopping list of the current plan.
func (a *App) ShoppingList(ctx context.Context) error {
	items, err := a.sessions.ShoppingList(ctx, a.sessionID)
	if err != nil {
		return err
	}
	a.printShoppingList(items)
	return nil
}

// Insights prints daily totals and the macro split of the current plan.
func (a *App) Insights(ctx context.Context) error {
	ins, err := a.sessions.Insights(ctx, a.sessionID)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, "=== NUTRITION INSIGHTS ===")
	for i, d := range ins.DailyTotals {
		fmt.Fprintf(a.out, "Day %-3d %6.0f kcal  P %4.0fg  C %4.0fg  F %4.0fg\n", i+1, d.Calories, d.Protein, d.Carbs, d.Fats)
	}
	fmt.Fprintf(a.out, "Average %6.0f kcal\n", ins.AvgDaily.Calories)
	fmt.Fprintf(a.out, "Macro split: protein %.1f%%, carbs %.1f%%, fats %.1f%%\n", ins.ProteinPercent, ins.CarbsPercent, ins.FatsPercent)
	return nil
}

// SavePlan saves the current plan.
func (a *App) SavePlan(ctx context.Context, name string, tags []string) error {
	saved, err := a.sessions.SavePlan(ctx, a.sessionID, name, tags)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Saved %q as %s\n", saved.Name, saved.ID)
	return nil
}

// ListPlans prints saved plans, newest first.
func (a *App) ListPlans(ctx context.Context) error {
	plans, err := a.sessions.ListPlans(ctx, a.sessionID)
	if err != nil {
		return err
	}
	if len(plans) == 0 {
		fmt.Fprintln(a.out, "No saved plans.")
		return nil
	}
	for _, p := range plans {
		star := " "
		if p.IsFavorite {
			star = "*"
		}
		fmt.Fprintf(a.out, "%s %s  %-30s %2d days  %s\n", star, p.ID, p.Name, len(p.Plan), p.CreatedAt.Format(time.DateOnly))
	}
	return nil
}

// LoadPlan makes a saved plan current again.
func (a *App) LoadPlan(ctx context.Context, id string) error {
	st, err := a.sessions.LoadPlan(ctx, a.sessionID, id)
	if err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Loaded plan %s.\n", id)
	a.printPlan(st.CurrentPlan)
	return nil
}

// DeletePlan removes a saved plan.
func (a *App) DeletePlan(ctx context.Context, id string) error {
	if err := a.sessions.DeletePlan(ctx, a.sessionID, id); err != nil {
		return err
	}
	fmt.Fprintf(a.out, "Deleted plan %s.\n", id)
	return nil
}

// ToggleFavorite flips the favorite flag of a saved plan.
func (a *App) ToggleFavorite(ctx context.Context, id string) error {
	fav, err := a.sessions.ToggleFavorite(ctx, a.sessionID, id)
	if err != nil {
		return err
	}
	if fav {
		fmt.Fprintf(a.out, "Plan %s marked as favorite.\n", id)
	} else {
		fmt.Fprintf(a.out, "Plan %s is no longer a favorite.\n", id)
	}
	return nil
}

// SavedShoppingList prints the shopping list stored with a saved plan.
func (a *App) SavedShoppingList(ctx context.Context, id string) error {
	items, err := a.sessions.SavedShoppingList(ctx, a.sessionID, id)
	if err != nil {
		return err
	}
	a.printShoppingList(items)
	return nil
}

// CleanupMetrics removes metric records older than days.
func (a *App) CleanupMetrics(ctx context.Context, days int) error {
	affected, err := a.metrics.Cleanup(ctx, days)
	if err != nil {
		return fmt.Errorf("cleanup failed: %w", err)
	}
	fmt.Fprintf(a.out, "Successfully removed %d old metric records.\n", affected)
	return nil
}

// IssueToken prints a bearer token for subject.
func (a *App) IssueToken(subject string) error {
	if a.tokens == nil {
		return errors.New("AUTH_SECRET environment variable not set")
	}
	token, err := a.tokens.Issue(subject)
	if err != nil {
		return err
	}
	fmt.Fprintln(a.out, token)
	return nil
}

func (a *App) printPlan(plan planner.Plan) {
	fmt.Fprintf(a.out, "\n=== %d-DAY MEAL PLAN ===\n", len(plan))
	for _, d := range plan {
		a.printDay(d)
	}
}

func (a *App) printDay(d planner.DayPlan) {
	total := planner.DayTotals(d)
	fmt.Fprintf(a.out, "\n%s (%.0f kcal, P %.0fg C %.0fg F %.0fg)\n", d.Day, total.Calories, total.Protein, total.Carbs, total.Fats)
	for _, m := range d.Meals {
		fmt.Fprintf(a.out, "  %s (%.0f kcal)\n", m.MealName, planner.MealTotals(m).Calories)
		for _, it := range m.Items {
			fmt.Fprintf(a.out, "    - %-28s %5.0f kcal  P %3.0f  C %3.0f  F %3.0f\n", it.Food, it.Calories, it.Protein, it.Carbs, it.Fats)
		}
	}
}

func (a *App) printShoppingList(items []string) {
	fmt.Fprintln(a.out, "=== SHOPPING LIST ===")
	for _, item := range items {
		fmt.Fprintf(a.out, "- %s\n", item)
	}
}
