package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"ai-diet-planner/internal/metrics"
	"ai-diet-planner/internal/planner"
	"ai-diet-planner/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

const helpText = "🥗 *AI Diet Planner*\n\n" +
	"/plan `<kcal> <meals> [days] [diet]`: new plan, e.g. `/plan 2000 3 5 vegetarian`\n" +
	"/lock `<food>`: keep a food in the next plan (again to unlock)\n" +
	"/unlock: unlock every food\n" +
	"/shopping: shopping list of the current plan\n" +
	"/insights: daily totals and macro split\n" +
	"/save `[name]`: save the current plan\n" +
	"/plans: saved plans\n" +
	"/reset: forget the current plan"

// maxSavedPlansShown bounds the /plans keyboard.
const maxSavedPlansShown = 10

func escape(s string) string {
	return tgbotapi.EscapeText(tgbotapi.ModeMarkdown, s)
}

// parsePlanCommand reads "<kcal> <meals> [days] [diet words...]".
func parsePlanCommand(args string) (planner.Preferences, error) {
	fields := strings.Fields(args)
	if len(fields) < 2 {
		return planner.Preferences{}, fmt.Errorf("%w: usage is /plan <kcal> <meals> [days] [diet]", planner.ErrInvalidRequest)
	}

	kcal, err := strconv.ParseFloat(fields[0], 64)
	if err != nil {
		return planner.Preferences{}, fmt.Errorf("%w: calorie target must be a number", planner.ErrInvalidRequest)
	}
	meals, err := strconv.Atoi(fields[1])
	if err != nil {
		return planner.Preferences{}, fmt.Errorf("%w: meals per day must be a whole number", planner.ErrInvalidRequest)
	}

	prefs := planner.Preferences{
		CalorieTarget: planner.Amount(kcal),
		MealsPerDay:   planner.Amount(meals),
	}
	rest := fields[2:]
	if len(rest) > 0 {
		if _, err := strconv.Atoi(rest[0]); err == nil {
			prefs.PlanDuration = rest[0]
			rest = rest[1:]
		}
	}
	prefs.DietType = strings.Join(rest, " ")

	return prefs, prefs.Validate()
}

func formatPlanHeader(prefs planner.Preferences, st *session.State) string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📅 *Your %d-day Meal Plan*\n", len(st.CurrentPlan))
	fmt.Fprintf(&sb, "Target: %s kcal, %s meals a day", prefs.CalorieTarget, prefs.MealsPerDay)
	if prefs.DietType != "" {
		fmt.Fprintf(&sb, ", %s", escape(prefs.DietType))
	}
	sb.WriteString("\n")
	if n := st.LockedItems.Len(); n > 0 {
		fmt.Fprintf(&sb, "🔒 %d locked food(s) kept\n", n)
	}
	sb.WriteString("\nTap a meal button to regenerate just that meal.")
	return sb.String()
}

func formatDay(d planner.DayPlan) string {
	var sb strings.Builder
	total := planner.DayTotals(d)
	fmt.Fprintf(&sb, "*%s* (%.0f kcal)\n", escape(d.Day), total.Calories)

	for _, m := range d.Meals {
		mt := planner.MealTotals(m)
		fmt.Fprintf(&sb, "\n🍽 *%s* (%.0f kcal)\n", escape(m.MealName), mt.Calories)
		for _, it := range m.Items {
			fmt.Fprintf(&sb, "• %s: %.0f kcal, P%.0f C%.0f F%.0f\n", escape(it.Food), it.Calories, it.Protein, it.Carbs, it.Fats)
		}
	}

	fmt.Fprintf(&sb, "\nTotals: P%.0fg C%.0fg F%.0fg", total.Protein, total.Carbs, total.Fats)
	return sb.String()
}

func regenKeyboard(dayIndex int, d planner.DayPlan) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	var row []tgbotapi.InlineKeyboardButton
	for i, m := range d.Meals {
		data := fmt.Sprintf("regen|%d|%d", dayIndex, i)
		row = append(row, tgbotapi.NewInlineKeyboardButtonData("🔄 "+m.MealName, data))
		if len(row) == 2 {
			rows = append(rows, row)
			row = nil
		}
	}
	if len(row) > 0 {
		rows = append(rows, row)
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatShoppingList(items []string) string {
	var sb strings.Builder
	sb.WriteString("🛒 *Shopping List*\n\n")
	for _, item := range items {
		fmt.Fprintf(&sb, "• %s\n", escape(item))
	}
	return sb.String()
}

func formatInsights(ins planner.Insights) string {
	var sb strings.Builder
	sb.WriteString("📈 *Nutrition Insights*\n\n")
	for i, d := range ins.DailyTotals {
		fmt.Fprintf(&sb, "• Day %d: %.0f kcal (P%.0f C%.0f F%.0f)\n", i+1, d.Calories, d.Protein, d.Carbs, d.Fats)
	}
	fmt.Fprintf(&sb, "\n*Daily average:* %.0f kcal\n", ins.AvgDaily.Calories)
	fmt.Fprintf(&sb, "*Macro split:* protein %.0f%%, carbs %.0f%%, fats %.0f%%\n", ins.ProteinPercent, ins.CarbsPercent, ins.FatsPercent)
	return sb.String()
}

func formatSavedPlans(plans []planner.SavedPlan) string {
	if len(plans) == 0 {
		return "📂 No saved plans yet. Use /save after generating one."
	}
	var sb strings.Builder
	sb.WriteString("📂 *Saved Plans*\n\n")
	for i, p := range plans {
		if i == maxSavedPlansShown {
			fmt.Fprintf(&sb, "_and %d more_\n", len(plans)-maxSavedPlansShown)
			break
		}
		star := ""
		if p.IsFavorite {
			star = "⭐ "
		}
		fmt.Fprintf(&sb, "%d. %s*%s* (%d days, %s)\n", i+1, star, escape(p.Name), len(p.Plan), p.CreatedAt.Format("2006-01-02"))
	}
	return sb.String()
}

func savedPlansKeyboard(plans []planner.SavedPlan) tgbotapi.InlineKeyboardMarkup {
	var rows [][]tgbotapi.InlineKeyboardButton
	for i, p := range plans {
		if i == maxSavedPlansShown {
			break
		}
		rows = append(rows, tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("📂 Load %d", i+1), "load|"+p.ID),
			tgbotapi.NewInlineKeyboardButtonData(fmt.Sprintf("⭐ %d", i+1), "fav|"+p.ID),
		))
	}
	return tgbotapi.NewInlineKeyboardMarkup(rows...)
}

func formatMetrics(usage []metrics.DailyUsage, health metrics.SysHealth) string {
	var sb strings.Builder
	sb.WriteString("📊 *Usage & Health Report*\n\n")

	sb.WriteString("🗓 *Recent LLM Activity*\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		fmt.Fprintf(&sb, "• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution)
	}

	sb.WriteString("\n🧠 *System Health*\n")
	fmt.Fprintf(&sb, "• Uptime: %s\n", health.Uptime)
	fmt.Fprintf(&sb, "• RAM: %dMB (Alloc) / %dMB (Sys)\n", health.AllocMB, health.SysMB)
	fmt.Fprintf(&sb, "• Goroutines: %d\n", health.Goroutines)
	fmt.Fprintf(&sb, "• Disk Data: %s\n", health.DataDiskSize)
	return sb.String()
}
