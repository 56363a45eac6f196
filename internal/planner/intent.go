package planner

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"fmt"
	"strings"
	"text/template"

	"nutrition-planner/internal/llm"
)

//go:embed intent_prompt.md
var intentPrompt string

var intentTmpl = template.Must(template.New("intent").Parse(intentPrompt))

// Intent is a workflow branch derived from a free-text user message.
type Intent string

const (
	IntentCreatePlan      Intent = "CREATE_PLAN"
	IntentRegeneratePlan  Intent = "REGENERATE_PLAN"
	IntentAnswerDuration  Intent = "ANSWER_DURATION"
	IntentGeneralQuestion Intent = "GENERAL_QUESTION"
)

// IntentResult is the structured output of intent classification.
type IntentResult struct {
	Intent      Intent  `json:"intent"`
	Confidence  float64 `json:"confidence"`
	Duration    *int    `json:"duration"`
	MealsPerDay *int    `json:"meals_per_day"`
	Feedback    *string `json:"feedback"`
	Reasoning   string  `json:"reasoning"`
}

// Classifier routes free-text messages to workflow intents via one
// generation call with a deterministic fallback.
type Classifier struct {
	inv invoker
}

// NewClassifier creates a new Classifier.
func NewClassifier(chat llm.ChatGenerator) *Classifier {
	return &Classifier{inv: invoker{chat: chat}}
}

type intentPromptData struct {
	StateContext            string
	LastWasDurationQuestion bool
	Message                 string
	History                 string
}

// Classify determines the user's intent. It never returns an error: any
// generation or parse failure yields a GENERAL_QUESTION fallback with
// confidence 0.5 so a malformed classification can't halt the conversation.
func (c *Classifier) Classify(ctx context.Context, message string, recentLog []llm.Message, hasPendingPlan bool) (IntentResult, llm.AgentMeta) {
	stateContext := "There is NO pending plan on screen currently."
	if hasPendingPlan {
		stateContext = "There is currently a PROPOSED diet plan displayed on screen (not yet approved)."
	}

	// The immediately preceding assistant turn asking for a duration makes
	// a bare number an ANSWER_DURATION candidate.
	lastWasDurationQuestion := false
	if last := lastAssistantMessage(recentLog); last != "" {
		lastWasDurationQuestion = strings.Contains(strings.ToLower(last), "how many days")
	}

	var buf bytes.Buffer
	data := intentPromptData{
		StateContext:            stateContext,
		LastWasDurationQuestion: lastWasDurationQuestion,
		Message:                 message,
		History:                 renderHistory(recentLog, 3),
	}
	if err := intentTmpl.Execute(&buf, data); err != nil {
		return fallbackIntent(err), llm.AgentMeta{AgentName: "IntentDetector"}
	}

	resp, meta, err := c.inv.run(ctx, "Intent Detection Agent", jsonAgentPersona, buf.String(), llm.ChatOptions{Temperature: 0.2})
	meta.AgentName = "IntentDetector"
	if err != nil {
		return fallbackIntent(err), meta
	}

	result, err := parseIntentResponse(resp.Content)
	if err != nil {
		return fallbackIntent(err), meta
	}
	return result, meta
}

func parseIntentResponse(raw string) (IntentResult, error) {
	text := strings.TrimSpace(raw)

	var result IntentResult
	if err := json.Unmarshal([]byte(text), &result); err != nil {
		extracted := extractJSONObject(text, "intent")
		if extracted == "" {
			return IntentResult{}, fmt.Errorf("no JSON object with intent field in response: %w", err)
		}
		if err := json.Unmarshal([]byte(extracted), &result); err != nil {
			return IntentResult{}, fmt.Errorf("failed to decode intent JSON: %w", err)
		}
	}

	switch result.Intent {
	case IntentCreatePlan, IntentRegeneratePlan, IntentAnswerDuration, IntentGeneralQuestion:
		return result, nil
	case "":
		return IntentResult{}, fmt.Errorf("missing intent field in response")
	default:
		return IntentResult{}, fmt.Errorf("unknown intent %q", result.Intent)
	}
}

func fallbackIntent(cause error) IntentResult {
	return IntentResult{
		Intent:     IntentGeneralQuestion,
		Confidence: 0.5,
		Reasoning:  fmt.Sprintf("Error parsing intent: %v", cause),
	}
}

func lastAssistantMessage(log []llm.Message) string {
	for i := len(log) - 1; i >= 0; i-- {
		if log[i].Role == "assistant" {
			return log[i].Content
		}
	}
	return ""
}

func renderHistory(log []llm.Message, n int) string {
	if len(log) > n {
		log = log[len(log)-n:]
	}
	var sb strings.Builder
	for _, m := range log {
		fmt.Fprintf(&sb, "%s: %s\n", m.Role, m.Content)
	}
	if sb.Len() == 0 {
		return "(no prior messages)"
	}
	return sb.String()
}
