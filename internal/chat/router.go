package chat

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"

	"nutrition-planner/internal/clipper"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/logger"
	"nutrition-planner/internal/nutrition"
	"nutrition-planner/internal/planner"
	"nutrition-planner/internal/user"
)

const (
	minPlanDays = 1
	maxPlanDays = 7

	pendingPlanWindow  = 2500
	approvedPlanWindow = 1500
	diaryWindow        = 3
	chatHistoryWindow  = 4

	chatMaxTokens   = 800
	chatTemperature = 0.7
)

// MetaRecorder receives execution metadata for every agent call the router
// makes. *metrics.Store satisfies it.
type MetaRecorder interface {
	RecordMeta(meta llm.AgentMeta) error
}

// Router maps classified intents onto workflow runs and chat replies.
type Router struct {
	planner    *planner.Planner
	classifier *planner.Classifier
	chat       llm.ChatGenerator
	plans      *user.PlanRepository
	metrics    MetaRecorder
	clip       *clipper.Clipper
}

// NewRouter creates a Router. plans, metrics and clip may be nil; the
// corresponding features degrade gracefully.
func NewRouter(p *planner.Planner, c *planner.Classifier, chat llm.ChatGenerator, plans *user.PlanRepository, metrics MetaRecorder, clip *clipper.Clipper) *Router {
	return &Router{planner: p, classifier: c, chat: chat, plans: plans, metrics: metrics, clip: clip}
}

// Route handles one user message. The message is appended to the log before
// branching, and every successful branch appends exactly one assistant
// reply. A failed workflow run leaves the pending plan untouched and
// surfaces as an error.
func (r *Router) Route(ctx context.Context, s *Session, message string) (string, error) {
	s.appendUser(message)

	// After a rejection the next message is the rejection feedback; it goes
	// straight to regeneration without intent classification.
	if s.FeedbackMode && s.HasPendingPlan() {
		duration := s.PlanDuration
		if duration == 0 {
			duration = maxPlanDays
		}
		return r.generatePlan(ctx, s, duration, nil, message, parseCost(s.TotalBudget))
	}

	if r.clip != nil && isURL(message) {
		return r.clipArticle(ctx, s, message)
	}

	result, meta := r.classifier.Classify(ctx, message, s.Log, s.HasPendingPlan())
	r.record(meta)
	logger.Debug("intent classified",
		"intent", string(result.Intent),
		"confidence", result.Confidence)

	switch result.Intent {
	case planner.IntentCreatePlan:
		if result.Duration == nil {
			return r.reply(s, "How many days should I plan for?"), nil
		}
		return r.generatePlan(ctx, s, *result.Duration, result.MealsPerDay, "", nil)

	case planner.IntentAnswerDuration:
		if result.Duration == nil {
			return r.reply(s, "I need a number (1-7). How many days?"), nil
		}
		return r.generatePlan(ctx, s, *result.Duration, result.MealsPerDay, "", nil)

	case planner.IntentRegeneratePlan:
		if !s.HasPendingPlan() {
			// Nothing to modify; answer it as a question instead.
			return r.generalQuestion(ctx, s)
		}
		feedback := message
		if result.Feedback != nil && *result.Feedback != "" {
			feedback = *result.Feedback
		}
		duration := s.PlanDuration
		if duration == 0 {
			duration = maxPlanDays
		}
		return r.generatePlan(ctx, s, duration, nil, feedback, parseCost(s.TotalBudget))

	default:
		return r.generalQuestion(ctx, s)
	}
}

func (r *Router) generatePlan(ctx context.Context, s *Session, duration int, mealsPerDay *int, feedback string, previousCost *float64) (string, error) {
	duration = ClampDuration(duration)
	meals := s.Profile.MealsPerDay
	if mealsPerDay != nil && *mealsPerDay > 0 {
		meals = *mealsPerDay
	}

	result, metas, err := r.planner.Run(ctx, planner.Request{
		Profile:      s.Profile,
		Goal:         nutrition.ObjectiveFor(s.Profile.WeightKg, s.Profile.GoalWeight),
		DurationDays: duration,
		MealsPerDay:  meals,
		Feedback:     feedback,
		PreviousCost: previousCost,
	})
	for _, m := range metas {
		r.record(m)
	}
	if err != nil {
		return "", fmt.Errorf("plan generation failed: %w", err)
	}

	s.PendingPlan = result.PlanText
	s.TotalBudget = result.Cost
	s.PlanDuration = duration
	s.FeedbackMode = false
	s.Memory.MealPlan = result.PlanText
	s.Memory.PlanDuration = duration
	s.Memory.TotalBudget = result.Cost

	if feedback != "" {
		return r.reply(s, "✅ I've regenerated your plan considering your feedback. Check the updated proposed plan."), nil
	}
	return r.reply(s, fmt.Sprintf("✅ I've created a new %d-day plan. Review it and approve or reject it.", duration)), nil
}

func (r *Router) generalQuestion(ctx context.Context, s *Session) (string, error) {
	systemMsg := "You are a friendly, detailed nutrition assistant. " +
		fmt.Sprintf("Context on User: %s ", r.contextSnapshot(ctx, s)) +
		"Your responses must be fully complete. " +
		"Write at least 5-8 sentences with explanations and guidance. " +
		"If food diary entries conflict with the planned diet, politely point it out and suggest corrections. " +
		"If the user asks about their plan, refer to the plan context provided."

	history := s.Log
	if len(history) > chatHistoryWindow {
		history = history[len(history)-chatHistoryWindow:]
	}
	messages := append([]llm.Message{{Role: "system", Content: systemMsg}}, history...)

	resp, err := r.chat.GenerateChat(ctx, messages, llm.ChatOptions{MaxTokens: chatMaxTokens, Temperature: chatTemperature})
	if err != nil {
		return "", fmt.Errorf("chat reply failed: %w", err)
	}
	r.record(llm.AgentMeta{AgentName: "ChatAssistant", Usage: resp.Usage})
	return r.reply(s, resp.Content), nil
}

func (r *Router) clipArticle(ctx context.Context, s *Session, url string) (string, error) {
	recipe, meta, err := r.clip.ClipURL(ctx, url)
	r.record(meta)
	if err != nil {
		return r.reply(s, "I couldn't read that page. Is the link correct?"), nil
	}
	return r.reply(s, recipe.Summary()), nil
}

// contextSnapshot assembles the profile/plan/carbon/diary context for
// general-question replies. The pending plan takes priority over approved
// history.
func (r *Router) contextSnapshot(ctx context.Context, s *Session) string {
	var planContext string
	if s.HasPendingPlan() {
		planContext = fmt.Sprintf(
			"CURRENT STATUS: User has a generated PROPOSED plan on screen (not yet approved).\nFOCUS: Answer questions specific to this proposed plan.\n\nDETAILS OF PROPOSED PLAN:\n%s",
			truncate(s.PendingPlan, pendingPlanWindow))
	} else {
		approved := "No previous approved plans."
		if r.plans != nil {
			if text, err := r.plans.LatestApprovedText(ctx, s.Profile.Email); err == nil {
				approved = text
			}
		}
		planContext = fmt.Sprintf(
			"CURRENT STATUS: No active plan on screen. Referring to last approved history.\nLAST APPROVED PLAN:\n%s",
			truncate(approved, approvedPlanWindow))
	}

	mealPlan := s.Memory.MealPlan
	if mealPlan == "" {
		mealPlan = "No plan generated yet."
	}

	co2, score := "N/A", "N/A"
	if s.Memory.CarbonMetrics != nil {
		co2 = fmt.Sprintf("%.2f", s.Memory.CarbonMetrics.CO2)
		score = strconv.Itoa(s.Memory.CarbonMetrics.Score)
	}
	report := s.Memory.CarbonReport
	if report == "" {
		report = "No environmental analysis performed yet."
	}

	return fmt.Sprintf(`USER PROFILE:
Age: %d
Weight: %.1f kg -> Goal: %.1f kg
Diet: %s, Cuisine: %s

%s

MEAL PLAN CONTEXT:
%s

PLAN DURATION:
%d days

BUDGET:
₹%s

CARBON FOOTPRINT ANALYSIS:
CO2 Emissions: %s kg CO2e
Sustainability Score: %s

ENVIRONMENT REPORT:
%s

FOOD DIARY (Visual Tracker - Recent Meals):
%s`,
		s.Profile.Age, s.Profile.WeightKg, s.Profile.GoalWeight,
		s.Profile.DietType, s.Profile.Cuisine,
		planContext,
		truncate(mealPlan, approvedPlanWindow),
		s.Memory.PlanDuration,
		orNA(s.Memory.TotalBudget),
		co2, score,
		report,
		recentDiary(s.Memory.FoodDiary))
}

func recentDiary(entries []DiaryEntry) string {
	if len(entries) == 0 {
		return "No food images analyzed yet."
	}
	if len(entries) > diaryWindow {
		entries = entries[len(entries)-diaryWindow:]
	}
	var lines []string
	for _, e := range entries {
		lines = append(lines, fmt.Sprintf("- %s: %s (🌍 %.2f kg CO2e)",
			e.Timestamp.Format("2006-01-02 15:04"), e.Analysis, e.CO2))
	}
	return strings.Join(lines, "\n")
}

func (r *Router) reply(s *Session, text string) string {
	s.appendAssistant(text)
	return text
}

func (r *Router) record(meta llm.AgentMeta) {
	if r.metrics == nil {
		return
	}
	if err := r.metrics.RecordMeta(meta); err != nil {
		logger.Warn("failed to record agent metrics", "agent", meta.AgentName, "error", err)
	}
}

// ClampDuration bounds a plan duration to the supported [1,7] day range.
func ClampDuration(d int) int {
	if d > maxPlanDays {
		return maxPlanDays
	}
	if d < minPlanDays {
		return minPlanDays
	}
	return d
}

var nonNumeric = regexp.MustCompile(`[^\d.]`)

// parseCost recovers a numeric cost from the stored budget string. Returns
// nil when nothing numeric is stored.
func parseCost(budget string) *float64 {
	clean := nonNumeric.ReplaceAllString(budget, "")
	if clean == "" {
		return nil
	}
	v, err := strconv.ParseFloat(clean, 64)
	if err != nil || v == 0 {
		return nil
	}
	return &v
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	// Back up to a rune boundary so a multi-byte character (₹, emoji) is
	// never cut in half.
	for n > 0 && !utf8.RuneStart(s[n]) {
		n--
	}
	return s[:n] + "... [truncated for length]"
}

func orNA(s string) string {
	if s == "" {
		return "N/A"
	}
	return s
}

func isURL(message string) bool {
	m := strings.TrimSpace(message)
	return strings.HasPrefix(m, "http://") || strings.HasPrefix(m, "https://")
}
