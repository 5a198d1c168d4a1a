package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"ai-diet-planner/internal/app"
	"ai-diet-planner/internal/config"
	"ai-diet-planner/internal/logger"
	"ai-diet-planner/internal/planner"

	"github.com/joho/godotenv"
	"go.uber.org/zap"
)

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}
	cmd, args := os.Args[1], os.Args[2:]
	if cmd == "help" || cmd == "-h" || cmd == "--help" {
		printUsage()
		return
	}

	// A missing .env is fine; the environment may already be set.
	_ = godotenv.Load()

	cfg, err := config.NewFromEnv()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	zl, err := logger.New(cfg.AppEnv)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}
	defer logger.Sync(zl)

	ctx := context.Background()
	svc, err := app.NewServices(ctx, cfg, app.FileSessions, zl)
	if err != nil {
		log.Fatalf("Failed to initialize services: %v", err)
	}
	defer svc.Close()

	fs := flag.NewFlagSet(cmd, flag.ExitOnError)
	sessionID := fs.String("session", envOr("DIET_SESSION", "default"), "Session to work on")

	var run func(a *app.App) error

	switch cmd {
	case "generate":
		calories := fs.Float64("calories", 0, "Daily calorie target (required)")
		meals := fs.Int("meals", 3, "Meals per day")
		days := fs.String("days", "", "Plan duration in days (default 7)")
		diet := fs.String("diet", "", "Diet type, e.g. vegetarian")
		prefer := fs.String("prefer", "", "Preferred foods")
		exclude := fs.String("exclude", "", "Foods to exclude")
		allergies := fs.String("allergies", "", "Allergies and intolerances")
		cost := fs.String("cost", "", "Daily cost band: low, medium or high")
		protein := fs.Float64("protein", 0, "Protein target in grams")
		carbs := fs.Float64("carbs", 0, "Carbs target in grams")
		fats := fs.Float64("fats", 0, "Fats target in grams")
		run = func(a *app.App) error {
			return a.GenerateMealPlan(ctx, planner.Preferences{
				CalorieTarget:  planner.Amount(*calories),
				MealsPerDay:    planner.Amount(*meals),
				PlanDuration:   *days,
				DietType:       *diet,
				PreferredFoods: *prefer,
				ExcludedFoods:  *exclude,
				Allergies:      *allergies,
				DailyCost:      *cost,
				Protein:        planner.Amount(*protein),
				Carbs:          planner.Amount(*carbs),
				Fats:           planner.Amount(*fats),
			})
		}
	case "regenerate":
		day := fs.Int("day", 1, "Day number, starting at 1")
		meal := fs.Int("meal", 1, "Meal number within the day, starting at 1")
		run = func(a *app.App) error { return a.RegenerateMeal(ctx, *day-1, *meal-1) }
	case "lock":
		run = func(a *app.App) error {
			food := strings.Join(fs.Args(), " ")
			if food == "" {
				return errors.New("usage: lock [-session id] <food>")
			}
			return a.ToggleLock(ctx, food)
		}
	case "unlock-all":
		run = func(a *app.App) error { return a.UnlockAll(ctx) }
	case "show":
		run = func(a *app.App) error { return a.Show(ctx) }
	case "sessions":
		run = func(a *app.App) error { return a.ListSessions(ctx) }
	case "shopping":
		planID := fs.String("plan", "", "Saved plan ID (default: current plan)")
		run = func(a *app.App) error {
			if *planID != "" {
				return a.SavedShoppingList(ctx, *planID)
			}
			return a.ShoppingList(ctx)
		}
	case "insights":
		run = func(a *app.App) error { return a.Insights(ctx) }
	case "save":
		name := fs.String("name", "", "Plan name (default: dated name)")
		tags := fs.String("tags", "", "Comma separated tags")
		run = func(a *app.App) error { return a.SavePlan(ctx, *name, splitTags(*tags)) }
	case "plans":
		run = func(a *app.App) error { return a.ListPlans(ctx) }
	case "load", "delete", "favorite":
		run = func(a *app.App) error {
			if fs.NArg() != 1 {
				return fmt.Errorf("usage: %s [-session id] <plan id>", cmd)
			}
			id := fs.Arg(0)
			switch cmd {
			case "load":
				return a.LoadPlan(ctx, id)
			case "delete":
				return a.DeletePlan(ctx, id)
			default:
				return a.ToggleFavorite(ctx, id)
			}
		}
	case "metrics-cleanup":
		days := fs.Int("days", 30, "Keep records for the last N days")
		run = func(a *app.App) error { return a.CleanupMetrics(ctx, *days) }
	case "issue-token":
		subject := fs.String("subject", "", "Session ID the token grants access to (default: -session)")
		run = func(a *app.App) error {
			if *subject == "" {
				*subject = *sessionID
			}
			return a.IssueToken(*subject)
		}
	default:
		fmt.Printf("Unknown command: %s\n", cmd)
		printUsage()
		os.Exit(1)
	}

	fs.Parse(args)

	application := app.NewApp(svc.Sessions, svc.Metrics, svc.Tokens, os.Stdout, *sessionID)
	if err := run(application); err != nil {
		zl.Debug("command failed", zap.String("command", cmd), zap.Error(err))
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		svc.Close()
		logger.Sync(zl)
		os.Exit(1)
	}
}

func splitTags(s string) []string {
	var tags []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}

func envOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func printUsage() {
	fmt.Println("Usage: diet-planner <command> [-session id] [arguments]")
	fmt.Println("\nCommands:")
	fmt.Println("  generate         Generate a new plan (-calories, -meals, -days, -diet, ...)")
	fmt.Println("  regenerate       Replace one meal (-day N -meal N, both starting at 1)")
	fmt.Println("  lock <food>      Lock or unlock a food for the next plan")
	fmt.Println("  unlock-all       Unlock every food")
	fmt.Println("  show             Print the current plan and locked foods")
	fmt.Println("  sessions         List stored sessions (* marks the active one)")
	fmt.Println("  shopping         Print the shopping list (-plan id for a saved plan)")
	fmt.Println("  insights         Print daily totals and the macro split")
	fmt.Println("  save             Save the current plan (-name, -tags)")
	fmt.Println("  plans            List saved plans")
	fmt.Println("  load <id>        Make a saved plan current")
	fmt.Println("  delete <id>      Delete a saved plan")
	fmt.Println("  favorite <id>    Toggle the favorite flag of a saved plan")
	fmt.Println("  metrics-cleanup  Remove old metric records (-days N)")
	fmt.Println("  issue-token      Print an API token (-subject id)")
	fmt.Println("\nThe session defaults to $DIET_SESSION or \"default\".")
}
