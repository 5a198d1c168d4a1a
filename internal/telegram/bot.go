package telegram

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"path/filepath"
	"slices"
	"strconv"
	"strings"
	"time"

	"ai-diet-planner/internal/config"
	"ai-diet-planner/internal/metrics"
	"ai-diet-planner/internal/planner"
	"ai-diet-planner/internal/session"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
	"go.uber.org/zap"
)

// Sender is the part of *tgbotapi.BotAPI the bot talks through.
type Sender interface {
	Send(c tgbotapi.Chattable) (tgbotapi.Message, error)
	Request(c tgbotapi.Chattable) (*tgbotapi.APIResponse, error)
}

// UsageReporter reads aggregated token usage; *metrics.Store satisfies it.
type UsageReporter interface {
	GetDailyUsage(ctx context.Context, days int) ([]metrics.DailyUsage, error)
}

// Bot serves the meal planner over a Telegram webhook. Every user gets their
// own planning session.
type Bot struct {
	api      Sender
	sessions *session.Manager
	usage    UsageReporter
	logger   *zap.Logger

	allowed []int64
	adminID int64
	dataDir string
	timeout time.Duration
}

// NewBot initializes the Telegram API and sets the webhook.
func NewBot(cfg *config.Config, sessions *session.Manager, usage UsageReporter, logger *zap.Logger) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", zap.String("account", api.Self.UserName))

	wh, err := tgbotapi.NewWebhook(cfg.TelegramWebhookURL)
	if err != nil {
		return nil, fmt.Errorf("invalid webhook url %s: %w", cfg.TelegramWebhookURL, err)
	}
	resp, err := api.Request(wh)
	if err != nil {
		return nil, fmt.Errorf("failed to set webhook to %s: %w", cfg.TelegramWebhookURL, err)
	}
	logger.Info("telegram webhook set", zap.String("response", resp.Description))

	return newBot(api, cfg, sessions, usage, logger), nil
}

func newBot(api Sender, cfg *config.Config, sessions *session.Manager, usage UsageReporter, logger *zap.Logger) *Bot {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Bot{
		api:      api,
		sessions: sessions,
		usage:    usage,
		logger:   logger,
		allowed:  cfg.TelegramAllowedUserIDs,
		adminID:  cfg.AdminTelegramID,
		dataDir:  filepath.Dir(cfg.DatabasePath),
		timeout:  2 * time.Minute,
	}
}

// HandleWebhook decodes a Telegram update and processes it in the background.
func (b *Bot) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	var update tgbotapi.Update
	if err := json.NewDecoder(r.Body).Decode(&update); err != nil {
		b.logger.Warn("failed to parse telegram update", zap.Error(err))
		w.WriteHeader(http.StatusBadRequest)
		return
	}
	w.WriteHeader(http.StatusOK)

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), b.timeout)
		defer cancel()
		b.handleUpdate(ctx, update)
	}()
}

func (b *Bot) handleUpdate(ctx context.Context, update tgbotapi.Update) {
	switch {
	case update.CallbackQuery != nil:
		if b.isAllowed(update.CallbackQuery.From) {
			b.handleCallbackQuery(ctx, update.CallbackQuery)
		}
	case update.Message != nil:
		if b.isAllowed(update.Message.From) {
			b.processMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) isAllowed(from *tgbotapi.User) bool {
	if from == nil {
		return false
	}
	if slices.Contains(b.allowed, from.ID) {
		return true
	}
	b.logger.Warn("unauthorized access attempt", zap.Int64("user_id", from.ID), zap.String("username", from.UserName))
	return false
}

func sessionID(userID int64) string {
	return "tg:" + strconv.FormatInt(userID, 10)
}

func (b *Bot) processMessage(ctx context.Context, msg *tgbotapi.Message) {
	if !msg.IsCommand() {
		b.reply(msg.Chat.ID, helpText)
		return
	}

	sid := sessionID(msg.From.ID)
	args := strings.TrimSpace(msg.CommandArguments())

	switch msg.Command() {
	case "start", "help":
		b.reply(msg.Chat.ID, helpText)
	case "plan":
		b.handlePlanCommand(ctx, msg.Chat.ID, sid, args)
	case "lock":
		b.handleLockCommand(ctx, msg.Chat.ID, sid, args)
	case "unlock":
		if err := b.sessions.ClearLocks(ctx, sid); err != nil {
			b.replyError(msg.Chat.ID, err)
			return
		}
		b.reply(msg.Chat.ID, "🔓 All foods unlocked.")
	case "shopping":
		items, err := b.sessions.ShoppingList(ctx, sid)
		if err != nil {
			b.replyError(msg.Chat.ID, err)
			return
		}
		b.reply(msg.Chat.ID, formatShoppingList(items))
	case "insights":
		ins, err := b.sessions.Insights(ctx, sid)
		if err != nil {
			b.replyError(msg.Chat.ID, err)
			return
		}
		b.reply(msg.Chat.ID, formatInsights(ins))
	case "save":
		saved, err := b.sessions.SavePlan(ctx, sid, args, nil)
		if err != nil {
			b.replyError(msg.Chat.ID, err)
			return
		}
		b.reply(msg.Chat.ID, fmt.Sprintf("💾 Saved as *%s*.", escape(saved.Name)))
	case "plans":
		b.handlePlansCommand(ctx, msg.Chat.ID, sid)
	case "reset":
		if err := b.sessions.Reset(ctx, sid); err != nil {
			b.replyError(msg.Chat.ID, err)
			return
		}
		b.reply(msg.Chat.ID, "🧹 Session cleared.")
	case "metrics":
		if msg.From.ID != b.adminID {
			b.reply(msg.Chat.ID, "⛔ *Access Denied*: Admin only.")
			return
		}
		b.handleMetricsCommand(ctx, msg.Chat.ID)
	default:
		b.reply(msg.Chat.ID, helpText)
	}
}

func (b *Bot) handlePlanCommand(ctx context.Context, chatID int64, sid, args string) {
	prefs, err := parsePlanCommand(args)
	if err != nil {
		b.replyError(chatID, err)
		return
	}

	status := tgbotapi.NewMessage(chatID, "🧑‍🍳 *Thinking...* \n(Generating your meal plan)")
	status.ParseMode = tgbotapi.ModeMarkdown
	sent, err := b.api.Send(status)
	if err != nil {
		b.logger.Error("failed to send initial reply", zap.Error(err))
		return
	}

	st, err := b.sessions.Generate(ctx, sid, prefs)
	if err != nil {
		b.logger.Error("failed to generate plan", zap.String("session", sid), zap.Error(err))
		if errors.Is(err, planner.ErrGenerationFailed) {
			b.sendAdminAlert(fmt.Sprintf("⚠️ *Generation failed*\nSession: %s", escape(sid)))
		}
		b.edit(chatID, sent.MessageID, "❌ "+escape(planner.UserMessage(err)), nil)
		return
	}

	b.edit(chatID, sent.MessageID, formatPlanHeader(prefs, st), nil)
	for i, day := range st.CurrentPlan {
		kb := regenKeyboard(i, day)
		m := tgbotapi.NewMessage(chatID, formatDay(day))
		m.ParseMode = tgbotapi.ModeMarkdown
		m.ReplyMarkup = kb
		if _, err := b.api.Send(m); err != nil {
			b.logger.Warn("failed to send day", zap.Int("day", i), zap.Error(err))
		}
	}
}

func (b *Bot) handleLockCommand(ctx context.Context, chatID int64, sid, food string) {
	if food == "" {
		b.reply(chatID, "Usage: `/lock <food>`")
		return
	}

	st, err := b.sessions.Snapshot(ctx, sid)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	item := findFood(st.CurrentPlan, food)

	locked, err := b.sessions.ToggleLock(ctx, sid, item)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	if locked {
		b.reply(chatID, fmt.Sprintf("🔒 *%s* will be kept in your next plan.", escape(item.Food)))
	} else {
		b.reply(chatID, fmt.Sprintf("🔓 *%s* unlocked.", escape(item.Food)))
	}
}

func (b *Bot) handlePlansCommand(ctx context.Context, chatID int64, sid string) {
	plans, err := b.sessions.ListPlans(ctx, sid)
	if err != nil {
		b.replyError(chatID, err)
		return
	}
	m := tgbotapi.NewMessage(chatID, formatSavedPlans(plans))
	m.ParseMode = tgbotapi.ModeMarkdown
	if len(plans) > 0 {
		m.ReplyMarkup = savedPlansKeyboard(plans)
	}
	if _, err := b.api.Send(m); err != nil {
		b.logger.Warn("failed to send saved plans", zap.Error(err))
	}
}

// handleCallbackQuery handles inline buttons. Data is "regen|<day>|<meal>",
// "load|<plan id>" or "fav|<plan id>".
func (b *Bot) handleCallbackQuery(ctx context.Context, query *tgbotapi.CallbackQuery) {
	parts := strings.Split(query.Data, "|")
	if len(parts) < 2 || query.Message == nil {
		return
	}
	sid := sessionID(query.From.ID)
	chatID := query.Message.Chat.ID

	switch parts[0] {
	case "regen":
		if len(parts) != 3 {
			return
		}
		day, err1 := strconv.Atoi(parts[1])
		meal, err2 := strconv.Atoi(parts[2])
		if err1 != nil || err2 != nil {
			return
		}
		b.answer(query.ID, "🔄 Regenerating...")

		st, err := b.sessions.Regenerate(ctx, sid, day, meal)
		if err != nil {
			b.logger.Error("failed to regenerate meal", zap.String("session", sid), zap.Error(err))
			b.replyError(chatID, err)
			return
		}
		kb := regenKeyboard(day, st.CurrentPlan[day])
		b.edit(chatID, query.Message.MessageID, formatDay(st.CurrentPlan[day]), &kb)

	case "load":
		b.answer(query.ID, "")
		st, err := b.sessions.LoadPlan(ctx, sid, parts[1])
		if err != nil {
			b.replyError(chatID, err)
			return
		}
		b.reply(chatID, fmt.Sprintf("📂 Loaded a %d-day plan. Use /shopping or /insights.", len(st.CurrentPlan)))

	case "fav":
		fav, err := b.sessions.ToggleFavorite(ctx, sid, parts[1])
		if err != nil {
			b.answer(query.ID, planner.UserMessage(err))
			return
		}
		if fav {
			b.answer(query.ID, "⭐ Added to favorites")
		} else {
			b.answer(query.ID, "Removed from favorites")
		}
	}
}

func (b *Bot) handleMetricsCommand(ctx context.Context, chatID int64) {
	usage, err := b.usage.GetDailyUsage(ctx, 7)
	if err != nil {
		b.logger.Error("failed to fetch metrics", zap.Error(err))
		b.reply(chatID, "❌ Error fetching metrics.")
		return
	}
	b.reply(chatID, formatMetrics(usage, metrics.GetSysHealth(b.dataDir)))
}

func (b *Bot) sendAdminAlert(text string) {
	if b.adminID == 0 {
		return
	}
	b.reply(b.adminID, text)
}

func (b *Bot) reply(chatID int64, text string) {
	m := tgbotapi.NewMessage(chatID, text)
	m.ParseMode = tgbotapi.ModeMarkdown
	if _, err := b.api.Send(m); err != nil {
		b.logger.Warn("failed to send message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) replyError(chatID int64, err error) {
	b.reply(chatID, "❌ "+escape(planner.UserMessage(err)))
}

func (b *Bot) edit(chatID int64, messageID int, text string, kb *tgbotapi.InlineKeyboardMarkup) {
	e := tgbotapi.NewEditMessageText(chatID, messageID, text)
	e.ParseMode = tgbotapi.ModeMarkdown
	e.ReplyMarkup = kb
	if _, err := b.api.Send(e); err != nil {
		b.logger.Warn("failed to edit message", zap.Int64("chat_id", chatID), zap.Error(err))
	}
}

func (b *Bot) answer(queryID, text string) {
	if _, err := b.api.Request(tgbotapi.NewCallback(queryID, text)); err != nil {
		b.logger.Warn("failed to answer callback", zap.Error(err))
	}
}

// findFood returns the plan's item named food so a lock carries its full
// nutrition. Unknown foods lock by name only.
func findFood(plan planner.Plan, food string) planner.FoodItem {
	if it, ok := plan.FindFood(food); ok {
		return it
	}
	return planner.FoodItem{Food: food}
}
