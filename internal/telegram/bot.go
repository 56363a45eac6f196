// Package telegram is the presentation layer: it binds chats to accounts,
// feeds messages through the conversation router and renders plans with
// approve/reject controls.
package telegram

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"

	"nutrition-planner/internal/carbon"
	"nutrition-planner/internal/chat"
	"nutrition-planner/internal/config"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/logger"
	"nutrition-planner/internal/metrics"
	"nutrition-planner/internal/user"

	tgbotapi "github.com/go-telegram-bot-api/telegram-bot-api/v5"
)

// Bot wraps the Telegram API around the conversation router.
type Bot struct {
	api          *tgbotapi.BotAPI
	cfg          *config.Config
	router       *chat.Router
	users        *user.Repository
	tokens       *user.TokenIssuer
	vision       llm.VisionDescriber
	analyst      *carbon.Analyst
	metricsStore *metrics.Store

	mu       sync.Mutex
	sessions map[int64]*chat.Session
}

// NewBot initializes the Telegram bot over long polling.
func NewBot(
	cfg *config.Config,
	router *chat.Router,
	users *user.Repository,
	tokens *user.TokenIssuer,
	vision llm.VisionDescriber,
	analyst *carbon.Analyst,
	metricsStore *metrics.Store,
) (*Bot, error) {
	api, err := tgbotapi.NewBotAPI(cfg.TelegramBotToken)
	if err != nil {
		return nil, fmt.Errorf("failed to init telegram api: %w", err)
	}
	logger.Info("telegram bot authorized", "account", api.Self.UserName)

	return &Bot{
		api:          api,
		cfg:          cfg,
		router:       router,
		users:        users,
		tokens:       tokens,
		vision:       vision,
		analyst:      analyst,
		metricsStore: metricsStore,
		sessions:     map[int64]*chat.Session{},
	}, nil
}

// Run polls for updates until the context is cancelled.
func (b *Bot) Run(ctx context.Context) {
	u := tgbotapi.NewUpdate(0)
	u.Timeout = 30
	updates := b.api.GetUpdatesChan(u)

	for {
		select {
		case <-ctx.Done():
			b.api.StopReceivingUpdates()
			return
		case update := <-updates:
			if update.CallbackQuery != nil {
				go b.handleCallback(ctx, update.CallbackQuery)
				continue
			}
			if update.Message == nil {
				continue
			}
			go b.handleMessage(ctx, update.Message)
		}
	}
}

func (b *Bot) handleMessage(ctx context.Context, msg *tgbotapi.Message) {
	if msg.IsCommand() {
		b.handleCommand(ctx, msg)
		return
	}

	session := b.session(msg.From.ID)
	if session == nil {
		b.send(msg.Chat.ID, "Please log in first: /login email password")
		return
	}

	// Updates arrive concurrently; each session admits one action at a time.
	session.Lock()
	defer session.Unlock()

	if len(msg.Photo) > 0 {
		b.handlePhoto(ctx, msg, session)
		return
	}
	if strings.TrimSpace(msg.Text) == "" {
		return
	}

	b.sendTyping(msg.Chat.ID)
	planBefore := session.PendingPlan
	reply, err := b.router.Route(ctx, session, msg.Text)
	if err != nil {
		logger.Error("message routing failed", "chat_id", msg.Chat.ID, "error", err)
		b.send(msg.Chat.ID, "❌ Plan generation failed. Please try again in a moment.")
		return
	}

	// A freshly created or replaced plan gets approve/reject controls.
	if session.HasPendingPlan() && session.PendingPlan != planBefore {
		b.sendChunks(msg.Chat.ID, session.PendingPlan)
		b.sendWithApproval(msg.Chat.ID, reply)
		return
	}
	b.sendChunks(msg.Chat.ID, reply)
}

func (b *Bot) handleCommand(ctx context.Context, msg *tgbotapi.Message) {
	switch msg.Command() {
	case "start":
		b.send(msg.Chat.ID, "👋 Welcome to the nutrition planner.\n"+
			"/login email password - connect your account\n"+
			"Then just chat: \"make me a 5 day plan\", ask questions, paste recipe links or send meal photos.")
	case "login":
		b.handleLogin(ctx, msg)
	case "logout":
		b.mu.Lock()
		delete(b.sessions, msg.From.ID)
		b.mu.Unlock()
		b.send(msg.Chat.ID, "Logged out.")
	case "approve":
		b.withSession(ctx, msg, func(s *chat.Session) (string, error) {
			return b.router.Approve(ctx, s)
		})
	case "reject":
		b.withSession(ctx, msg, func(s *chat.Session) (string, error) {
			return b.router.Reject(s)
		})
	case "carbon":
		b.handleCarbon(ctx, msg)
	case "metrics":
		b.handleMetrics(msg)
	default:
		b.send(msg.Chat.ID, "Unknown command.")
	}
}

func (b *Bot) handleLogin(ctx context.Context, msg *tgbotapi.Message) {
	parts := strings.Fields(msg.CommandArguments())
	if len(parts) != 2 {
		b.send(msg.Chat.ID, "Usage: /login email password")
		return
	}

	profile, err := b.users.Authenticate(ctx, parts[0], parts[1])
	if err != nil {
		logger.Error("login failed", "error", err)
		b.send(msg.Chat.ID, "❌ Login failed. Please try again.")
		return
	}
	if profile == nil {
		b.send(msg.Chat.ID, "❌ Invalid email or password.")
		return
	}

	if _, err := b.tokens.Issue(profile.Email); err != nil {
		logger.Error("session token issue failed", "error", err)
		b.send(msg.Chat.ID, "❌ Could not start a session. Please try again.")
		return
	}

	b.mu.Lock()
	b.sessions[msg.From.ID] = chat.NewSession(*profile)
	b.mu.Unlock()

	b.send(msg.Chat.ID, fmt.Sprintf("✅ Welcome back, %s! Ask me for a meal plan whenever you're ready.", profile.Username))
}

func (b *Bot) handlePhoto(ctx context.Context, msg *tgbotapi.Message, session *chat.Session) {
	b.sendTyping(msg.Chat.ID)

	// Telegram sends multiple sizes; the last one is the largest.
	photo := msg.Photo[len(msg.Photo)-1]
	data, err := b.downloadFile(photo.FileID)
	if err != nil {
		logger.Error("photo download failed", "error", err)
		b.send(msg.Chat.ID, "❌ Couldn't download that photo.")
		return
	}

	analysis, err := b.vision.DescribeImage(ctx, data, "image/jpeg",
		"Identify this food in an Indian context. Estimate calories and macros.")
	if err != nil {
		logger.Error("image analysis failed", "error", err)
		b.send(msg.Chat.ID, "❌ Couldn't analyze that photo.")
		return
	}

	co2 := carbon.EstimateMeal(analysis)
	session.RecordMeal(analysis, co2)

	b.sendChunks(msg.Chat.ID, fmt.Sprintf("%s\n\n🌍 Estimated footprint: %.2f kg CO2e\nAdded to your food diary.", analysis, co2))
}

func (b *Bot) handleCarbon(ctx context.Context, msg *tgbotapi.Message) {
	session := b.session(msg.From.ID)
	if session == nil {
		b.send(msg.Chat.ID, "Please log in first: /login email password")
		return
	}

	session.Lock()
	defer session.Unlock()

	source, mealContext := carbonContext(session)
	if mealContext == "" {
		b.send(msg.Chat.ID, "Nothing to analyze yet. Generate a plan or log some meals first.")
		return
	}

	b.sendTyping(msg.Chat.ID)
	report, meta, err := b.analyst.Audit(ctx, source, mealContext)
	if b.metricsStore != nil {
		_ = b.metricsStore.RecordMeta(meta)
	}
	if err != nil {
		logger.Error("carbon audit failed", "error", err)
		b.send(msg.Chat.ID, "❌ Environmental analysis failed. Please try again.")
		return
	}

	session.Memory.CarbonMetrics = &report.Metrics
	session.Memory.CarbonReport = report.Text

	b.sendChunks(msg.Chat.ID, fmt.Sprintf("🌍 CO2: %.2f kg CO2e\n⭐ Sustainability score: %d/100\n\n%s",
		report.Metrics.CO2, report.Metrics.Score, report.Text))
}

// carbonContext picks the audit input: the current plan when one exists,
// otherwise the recent food diary.
func carbonContext(session *chat.Session) (string, string) {
	if session.HasPendingPlan() {
		return "current meal plan", session.PendingPlan
	}
	if session.Memory.MealPlan != "" {
		return "approved meal plan", session.Memory.MealPlan
	}
	if len(session.Memory.FoodDiary) > 0 {
		var sb strings.Builder
		for _, e := range session.Memory.FoodDiary {
			fmt.Fprintf(&sb, "- %s (%.2f kg CO2e)\n", e.Analysis, e.CO2)
		}
		return "food diary", sb.String()
	}
	return "", ""
}

func (b *Bot) handleMetrics(msg *tgbotapi.Message) {
	if msg.From.ID != b.cfg.AdminTelegramID {
		b.send(msg.Chat.ID, "⛔ Access denied: admin only.")
		return
	}

	usage, err := b.metricsStore.GetDailyUsage(7)
	if err != nil {
		b.send(msg.Chat.ID, "❌ Error fetching metrics.")
		return
	}

	var sb strings.Builder
	sb.WriteString("📊 *Usage Report*\n\n")
	if len(usage) == 0 {
		sb.WriteString("_No data yet_\n")
	}
	for _, d := range usage {
		sb.WriteString(fmt.Sprintf("• *%s*: %d tokens (%d execs)\n", d.Date, d.TotalPrompt+d.TotalCompletion, d.TotalExecution))
	}

	reply := tgbotapi.NewMessage(msg.Chat.ID, sb.String())
	reply.ParseMode = "Markdown"
	b.api.Send(reply)
}

func (b *Bot) handleCallback(ctx context.Context, query *tgbotapi.CallbackQuery) {
	b.api.Request(tgbotapi.NewCallback(query.ID, ""))

	session := b.session(query.From.ID)
	if session == nil {
		b.send(query.Message.Chat.ID, "Session expired. Please /login again.")
		return
	}

	session.Lock()
	defer session.Unlock()

	var reply string
	var err error
	switch query.Data {
	case "approve":
		reply, err = b.router.Approve(ctx, session)
	case "reject":
		reply, err = b.router.Reject(session)
	default:
		return
	}
	if err != nil {
		logger.Error("callback handling failed", "action", query.Data, "error", err)
		b.send(query.Message.Chat.ID, "❌ Something went wrong. Please try again.")
		return
	}
	b.send(query.Message.Chat.ID, reply)
}

func (b *Bot) withSession(ctx context.Context, msg *tgbotapi.Message, fn func(*chat.Session) (string, error)) {
	session := b.session(msg.From.ID)
	if session == nil {
		b.send(msg.Chat.ID, "Please log in first: /login email password")
		return
	}
	session.Lock()
	reply, err := fn(session)
	session.Unlock()
	if err != nil {
		logger.Error("session action failed", "error", err)
		b.send(msg.Chat.ID, "❌ Something went wrong. Please try again.")
		return
	}
	b.send(msg.Chat.ID, reply)
}

func (b *Bot) session(userID int64) *chat.Session {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.sessions[userID]
}

func (b *Bot) downloadFile(fileID string) ([]byte, error) {
	url, err := b.api.GetFileDirectURL(fileID)
	if err != nil {
		return nil, err
	}
	resp, err := http.Get(url)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("file download returned status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

func (b *Bot) send(chatID int64, text string) {
	if _, err := b.api.Send(tgbotapi.NewMessage(chatID, text)); err != nil {
		logger.Warn("failed to send message", "chat_id", chatID, "error", err)
	}
}

func (b *Bot) sendTyping(chatID int64) {
	b.api.Request(tgbotapi.NewChatAction(chatID, tgbotapi.ChatTyping))
}

func (b *Bot) sendWithApproval(chatID int64, text string) {
	msg := tgbotapi.NewMessage(chatID, text)
	msg.ReplyMarkup = tgbotapi.NewInlineKeyboardMarkup(
		tgbotapi.NewInlineKeyboardRow(
			tgbotapi.NewInlineKeyboardButtonData("✅ Approve", "approve"),
			tgbotapi.NewInlineKeyboardButtonData("❌ Reject", "reject"),
		),
	)
	if _, err := b.api.Send(msg); err != nil {
		logger.Warn("failed to send approval prompt", "chat_id", chatID, "error", err)
	}
}

// Telegram caps messages at 4096 characters; long plans are split on
// paragraph boundaries where possible.
const maxMessageLen = 4000

func (b *Bot) sendChunks(chatID int64, text string) {
	for _, chunk := range splitMessage(text, maxMessageLen) {
		b.send(chatID, chunk)
	}
}

func splitMessage(text string, limit int) []string {
	if len(text) <= limit {
		return []string{text}
	}
	var chunks []string
	for len(text) > limit {
		cut := strings.LastIndex(text[:limit], "\n\n")
		if cut < limit/2 {
			cut = limit
		}
		chunks = append(chunks, strings.TrimSpace(text[:cut]))
		text = strings.TrimSpace(text[cut:])
	}
	if text != "" {
		chunks = append(chunks, text)
	}
	return chunks
}
