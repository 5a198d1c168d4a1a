package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"ai-diet-planner/internal/config"
	"ai-diet-planner/internal/database"
	"ai-diet-planner/internal/llm"
	"ai-diet-planner/internal/metrics"
	"ai-diet-planner/internal/planner"
	"ai-diet-planner/internal/session"
	"ai-diet-planner/internal/shared"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap/zaptest"
)

type fakeSender struct {
	sent     []tgbotapi.Chattable
	requests []tgbotapi.Chattable
	nextID   int
}

func (f *fakeSender) Send(c tgbotapi.Chattable) (tgbotapi.Message, error) {
	f.sent = append(f.sent, c)
	f.nextID++
	return tgbotapi.Message{MessageID: f.nextID}, nil
}

func (f *fakeSender) Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error) {
	f.requests = append(f.requests, c)
	return &tgbotapi.APIResponse{Ok: true}, nil
}

func (f *fakeSender) texts() []string {
	var out []string
	for _, c := range f.sent {
		switch m := c.(type) {
		case tgbotapi.MessageConfig:
			out = append(out, m.Text)
		case tgbotapi.EditMessageTextConfig:
			out = append(out, m.Text)
		}
	}
	return out
}

type mockTextGenerator struct {
	response string
	err      error
}

func (m *mockTextGenerator) GenerateContent(ctx context.Context, prompt string) (llm.ContentResponse, error) {
	usage := shared.TokenUsage{PromptTokens: 90, CompletionTokens: 60, Model: "mock"}
	if m.err != nil {
		return llm.ContentResponse{Usage: usage}, m.err
	}
	return llm.ContentResponse{Content: m.response, Usage: usage}, nil
}

func oneDayPlan() planner.Plan {
	return planner.Plan{{Day: "Day 1", Meals: []planner.Meal{
		{MealName: "Breakfast", Items: []planner.FoodItem{{Food: "Oatmeal", Calories: 400, Protein: 12, Carbs: 70, Fats: 8}}},
		{MealName: "Lunch", Items: []planner.FoodItem{{Food: "Chicken_breast", Calories: 800, Protein: 70, Carbs: 60, Fats: 25}}},
		{MealName: "Dinner", Items: []planner.FoodItem{{Food: "Salmon", Calories: 800, Protein: 60, Carbs: 50, Fats: 38}}},
	}}}
}

const (
	allowedUser = int64(42)
	adminUser   = int64(7)
)

func newTestBot(t *testing.T) (*Bot, *fakeSender, *mockTextGenerator) {
	t.Helper()
	db, err := database.NewDB(filepath.Join(t.TempDir(), "bot.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	b, _ := json.Marshal(map[string]any{"mealPlan": oneDayPlan()})
	gen := &mockTextGenerator{response: string(b)}
	logger := zaptest.NewLogger(t)
	store := metrics.NewStore(db.SQL)
	mgr := session.NewManager(planner.NewPlanner(gen, logger), session.NewSQLStore(db.SQL), planner.NewPlanRepository(db.SQL),
		session.WithUsageRecorder(store),
		session.WithLogger(logger),
	)

	cfg := &config.Config{
		DatabasePath:           filepath.Join(t.TempDir(), "bot.db"),
		TelegramAllowedUserIDs: []int64{allowedUser, adminUser},
		AdminTelegramID:        adminUser,
	}
	sender := &fakeSender{}
	return newBot(sender, cfg, mgr, store, logger), sender, gen
}

func command(from int64, text string) tgbotapi.Update {
	name := strings.Fields(text)[0]
	return tgbotapi.Update{Message: &tgbotapi.Message{
		Text:     text,
		Chat:     &tgbotapi.Chat{ID: from},
		From:     &tgbotapi.User{ID: from},
		Entities: []tgbotapi.MessageEntity{{Type: "bot_command", Offset: 0, Length: len(name)}},
	}}
}

func TestParsePlanCommand(t *testing.T) {
	cases := []struct {
		args    string
		want    planner.Preferences
		wantErr bool
	}{
		{"2000 3", planner.Preferences{CalorieTarget: 2000, MealsPerDay: 3}, false},
		{"1800 4 5", planner.Preferences{CalorieTarget: 1800, MealsPerDay: 4, PlanDuration: "5"}, false},
		{"2200 3 2 low carb", planner.Preferences{CalorieTarget: 2200, MealsPerDay: 3, PlanDuration: "2", DietType: "low carb"}, false},
		{"2000 3 vegan", planner.Preferences{CalorieTarget: 2000, MealsPerDay: 3, DietType: "vegan"}, false},
		{"2000", planner.Preferences{}, true},
		{"lots 3", planner.Preferences{}, true},
		{"2000 three", planner.Preferences{}, true},
		{"200 3", planner.Preferences{}, true},
		{"2000 3 30", planner.Preferences{}, true},
	}
	for _, tc := range cases {
		t.Run(tc.args, func(t *testing.T) {
			got, err := parsePlanCommand(tc.args)
			if tc.wantErr {
				if !errors.Is(err, planner.ErrInvalidRequest) {
					t.Fatalf("Expected ErrInvalidRequest, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("Unexpected error: %v", err)
			}
			if got.CalorieTarget != tc.want.CalorieTarget || got.MealsPerDay != tc.want.MealsPerDay ||
				got.PlanDuration != tc.want.PlanDuration || got.DietType != tc.want.DietType {
				t.Errorf("Got %+v, want %+v", got, tc.want)
			}
		})
	}
}

func TestFormatDay(t *testing.T) {
	out := formatDay(oneDayPlan()[0])

	if !strings.Contains(out, "*Day 1* (2000 kcal)") {
		t.Error("Missing day header with total calories")
	}
	if !strings.Contains(out, "🍽 *Lunch* (800 kcal)") {
		t.Error("Missing meal header")
	}
	if !strings.Contains(out, `• Chicken\_breast: 800 kcal, P70 C60 F25`) {
		t.Errorf("Expected escaped food line, got:\n%s", out)
	}
	if !strings.Contains(out, "Totals: P142g C180g F71g") {
		t.Error("Missing macro totals")
	}
}

func TestRegenKeyboard(t *testing.T) {
	kb := regenKeyboard(2, oneDayPlan()[0])
	if len(kb.InlineKeyboard) != 2 || len(kb.InlineKeyboard[0]) != 2 || len(kb.InlineKeyboard[1]) != 1 {
		t.Fatalf("Expected rows of two buttons, got %+v", kb.InlineKeyboard)
	}
	if got := *kb.InlineKeyboard[1][0].CallbackData; got != "regen|2|2" {
		t.Errorf("Unexpected callback data %q", got)
	}
}

func TestFormatShoppingListAndInsights(t *testing.T) {
	list := formatShoppingList([]string{"Eggs", "Oatmeal"})
	if !strings.Contains(list, "🛒 *Shopping List*") || !strings.Contains(list, "• Oatmeal") {
		t.Errorf("Unexpected shopping list:\n%s", list)
	}

	ins, _ := planner.PlanInsights(oneDayPlan())
	out := formatInsights(ins)
	if !strings.Contains(out, "• Day 1: 2000 kcal") || !strings.Contains(out, "*Daily average:* 2000 kcal") {
		t.Errorf("Unexpected insights:\n%s", out)
	}
}

func TestFormatSavedPlans(t *testing.T) {
	if out := formatSavedPlans(nil); !strings.Contains(out, "No saved plans") {
		t.Errorf("Unexpected empty output %q", out)
	}

	plans := []planner.SavedPlan{
		{ID: "a", Name: "Cut_week", Plan: oneDayPlan(), IsFavorite: true, CreatedAt: time.Date(2024, 5, 6, 0, 0, 0, 0, time.UTC)},
	}
	out := formatSavedPlans(plans)
	if !strings.Contains(out, `1. ⭐ *Cut\_week* (1 days, 2024-05-06)`) {
		t.Errorf("Unexpected saved plans:\n%s", out)
	}
	kb := savedPlansKeyboard(plans)
	if got := *kb.InlineKeyboard[0][0].CallbackData; got != "load|a" {
		t.Errorf("Unexpected callback data %q", got)
	}
}

func TestPlanCommandFlow(t *testing.T) {
	ctx := context.Background()
	bot, sender, gen := newTestBot(t)

	bot.handleUpdate(ctx, command(allowedUser, "/plan 2000 3 1"))

	texts := sender.texts()
	if len(texts) != 3 {
		t.Fatalf("Expected status, header and one day, got %d messages: %q", len(texts), texts)
	}
	if !strings.Contains(texts[1], "Your 1-day Meal Plan") {
		t.Errorf("Expected the status message to become the header, got %q", texts[1])
	}
	day, ok := sender.sent[2].(tgbotapi.MessageConfig)
	if !ok || day.ReplyMarkup == nil {
		t.Fatalf("Expected a day message with regenerate buttons, got %#v", sender.sent[2])
	}

	gen.response = `{"mealName": "Dinner", "items": [{"food": "Tofu bowl", "calories": 780, "protein": 45, "carbs": 80, "fats": 28}]}`
	bot.handleUpdate(ctx, tgbotapi.Update{CallbackQuery: &tgbotapi.CallbackQuery{
		ID:      "cb1",
		From:    &tgbotapi.User{ID: allowedUser},
		Data:    "regen|0|2",
		Message: &tgbotapi.Message{MessageID: 3, Chat: &tgbotapi.Chat{ID: allowedUser}},
	}})

	if len(sender.requests) != 1 {
		t.Fatalf("Expected the callback to be answered once, got %d", len(sender.requests))
	}
	edit, ok := sender.sent[len(sender.sent)-1].(tgbotapi.EditMessageTextConfig)
	if !ok || edit.MessageID != 3 || !strings.Contains(edit.Text, "Tofu bowl") {
		t.Fatalf("Expected the day message to be edited with the new dinner, got %#v", sender.sent[len(sender.sent)-1])
	}

	bot.handleUpdate(ctx, command(allowedUser, "/shopping"))
	texts = sender.texts()
	if last := texts[len(texts)-1]; !strings.Contains(last, "• Tofu bowl") || strings.Contains(last, "• Salmon") {
		t.Errorf("Unexpected shopping list after regeneration:\n%s", last)
	}
}

func TestPlanCommandFailureKeepsPlan(t *testing.T) {
	ctx := context.Background()
	bot, sender, gen := newTestBot(t)
	bot.handleUpdate(ctx, command(allowedUser, "/plan 2000 3 1"))

	gen.err = errors.New("quota exceeded")
	bot.handleUpdate(ctx, command(allowedUser, "/plan 2500 3 1"))

	texts := sender.texts()
	if last := texts[len(texts)-1]; !strings.Contains(last, "Failed to generate meal plan") {
		t.Errorf("Expected a generation failure, got %q", last)
	}

	st, err := bot.sessions.Snapshot(ctx, sessionID(allowedUser))
	if err != nil {
		t.Fatalf("Snapshot failed: %v", err)
	}
	if st.LastPreferences == nil || st.LastPreferences.CalorieTarget != 2000 {
		t.Errorf("Expected the earlier plan to survive, got %+v", st.LastPreferences)
	}
}

func TestLockCommand(t *testing.T) {
	ctx := context.Background()
	bot, sender, _ := newTestBot(t)
	bot.handleUpdate(ctx, command(allowedUser, "/plan 2000 3 1"))

	bot.handleUpdate(ctx, command(allowedUser, "/lock salmon"))
	texts := sender.texts()
	if last := texts[len(texts)-1]; !strings.Contains(last, "🔒 *Salmon*") {
		t.Errorf("Expected Salmon to be locked, got %q", last)
	}

	st, _ := bot.sessions.Snapshot(ctx, sessionID(allowedUser))
	items := st.LockedItems.Items()
	if len(items) != 1 || items[0].Calories != 800 {
		t.Errorf("Expected the full Salmon item to be locked, got %+v", items)
	}

	bot.handleUpdate(ctx, command(allowedUser, "/lock Salmon"))
	texts = sender.texts()
	if last := texts[len(texts)-1]; !strings.Contains(last, "unlocked") {
		t.Errorf("Expected Salmon to be unlocked, got %q", last)
	}
}

func TestAccessControl(t *testing.T) {
	ctx := context.Background()
	bot, sender, _ := newTestBot(t)

	bot.handleUpdate(ctx, command(999, "/plan 2000 3 1"))
	if len(sender.sent) != 0 {
		t.Fatalf("Expected no reply to an unknown user, got %d", len(sender.sent))
	}

	bot.handleUpdate(ctx, command(allowedUser, "/metrics"))
	if texts := sender.texts(); len(texts) != 1 || !strings.Contains(texts[0], "Admin only") {
		t.Errorf("Expected access denied, got %q", texts)
	}

	bot.handleUpdate(ctx, command(adminUser, "/metrics"))
	texts := sender.texts()
	if last := texts[len(texts)-1]; !strings.Contains(last, "Usage & Health Report") {
		t.Errorf("Expected the metrics report, got %q", last)
	}
}
