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

//go:embed analysis_prompt.md
var analysisPrompt string

var analysisTmpl = template.Must(template.New("analysis").Parse(analysisPrompt))

// CostAdjustment describes how the next plan's budget should move relative
// to the previous one.
type CostAdjustment string

const (
	AdjustIncrease CostAdjustment = "increase"
	AdjustDecrease CostAdjustment = "decrease"
	AdjustMaintain CostAdjustment = "maintain"
	AdjustTarget   CostAdjustment = "target"
)

// RequestDirective is the structured interpretation of free-text feedback
// that guides plan generation.
type RequestDirective struct {
	CostTarget     *float64       `json:"cost_target"`
	CostAdjustment CostAdjustment `json:"cost_adjustment"`
	ItemsToAvoid   []string       `json:"items_to_avoid"`
	ItemsToInclude []string       `json:"items_to_include"`
	Preferences    []string       `json:"preferences"`
	Constraints    []string       `json:"constraints"`
	Reasoning      string         `json:"reasoning"`
}

// DefaultDirective is the directive used when no feedback was supplied or
// analysis failed.
func DefaultDirective(reason string) RequestDirective {
	return RequestDirective{
		CostAdjustment: AdjustMaintain,
		ItemsToAvoid:   []string{},
		ItemsToInclude: []string{},
		Preferences:    []string{},
		Constraints:    []string{},
		Reasoning:      reason,
	}
}

// Analyzer turns free-text feedback into a RequestDirective via one
// generation call with a deterministic fallback.
type Analyzer struct {
	inv invoker
}

// NewAnalyzer creates a new Analyzer.
func NewAnalyzer(chat llm.ChatGenerator) *Analyzer {
	return &Analyzer{inv: invoker{chat: chat}}
}

type analysisPromptData struct {
	Feedback     string
	PreviousCost *float64
	Duration     int
}

// Analyze interprets user feedback. Empty feedback short-circuits to the
// default directive without a generation call. Any generation or parse
// failure also yields the default directive; this method never returns an
// error to its caller.
func (a *Analyzer) Analyze(ctx context.Context, feedback string, previousCost *float64, duration int) (RequestDirective, llm.AgentMeta) {
	if strings.TrimSpace(feedback) == "" {
		return DefaultDirective("No feedback provided"), llm.AgentMeta{AgentName: "RequestAnalyst"}
	}

	var buf bytes.Buffer
	data := analysisPromptData{Feedback: feedback, PreviousCost: previousCost, Duration: duration}
	if err := analysisTmpl.Execute(&buf, data); err != nil {
		return DefaultDirective(fmt.Sprintf("Error analyzing request: %v", err)), llm.AgentMeta{AgentName: "RequestAnalyst"}
	}

	resp, meta, err := a.inv.run(ctx, "Request Analysis Agent", jsonAgentPersona, buf.String(), llm.ChatOptions{Temperature: 0.2})
	meta.AgentName = "RequestAnalyst"
	if err != nil {
		return DefaultDirective(fmt.Sprintf("Error analyzing request: %v", err)), meta
	}

	directive, err := parseDirectiveResponse(resp.Content)
	if err != nil {
		return DefaultDirective(fmt.Sprintf("Error analyzing request: %v", err)), meta
	}
	return directive, meta
}

func parseDirectiveResponse(raw string) (RequestDirective, error) {
	text := strings.TrimSpace(raw)

	var directive RequestDirective
	if err := json.Unmarshal([]byte(text), &directive); err != nil {
		extracted := extractJSONObject(text, "cost_target")
		if extracted == "" {
			extracted = extractJSONObject(text, "cost_adjustment")
		}
		if extracted == "" {
			return RequestDirective{}, fmt.Errorf("no JSON object in analysis response: %w", err)
		}
		if err := json.Unmarshal([]byte(extracted), &directive); err != nil {
			return RequestDirective{}, fmt.Errorf("failed to decode analysis JSON: %w", err)
		}
	}

	// Missing fields are backfilled individually instead of rejecting the
	// whole response.
	switch directive.CostAdjustment {
	case AdjustIncrease, AdjustDecrease, AdjustMaintain, AdjustTarget:
	default:
		directive.CostAdjustment = AdjustMaintain
	}
	if directive.ItemsToAvoid == nil {
		directive.ItemsToAvoid = []string{}
	}
	if directive.ItemsToInclude == nil {
		directive.ItemsToInclude = []string{}
	}
	if directive.Preferences == nil {
		directive.Preferences = []string{}
	}
	if directive.Constraints == nil {
		directive.Constraints = []string{}
	}

	return directive, nil
}
