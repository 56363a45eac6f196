package carbon

import (
	"bytes"
	"context"
	_ "embed"
	"fmt"
	"text/template"
	"time"

	"nutrition-planner/internal/extract"
	"nutrition-planner/internal/llm"
)

//go:embed report_prompt.md
var reportPrompt string

var reportTmpl = template.Must(template.New("carbon-report").Parse(reportPrompt))

// Metrics are the numeric results extracted from an audit report.
type Metrics struct {
	CO2    float64 // total kg CO2e
	Score  int     // sustainability score, 0-100
	Source string  // what was analyzed (plan text or food diary)
}

// Report is a full environmental audit: extracted metrics plus the
// explanation text with sentinel lines stripped.
type Report struct {
	Metrics Metrics
	Text    string
}

// Analyst produces environmental audit reports over meal text.
type Analyst struct {
	chat llm.ChatGenerator
}

// NewAnalyst creates a new Analyst.
func NewAnalyst(chat llm.ChatGenerator) *Analyst {
	return &Analyst{chat: chat}
}

type reportPromptData struct {
	SourceLabel string
	Context     string
}

// Audit runs the environmental-analyst generation call over the supplied
// meal text and extracts the sentinel metrics. A missing CO2 sentinel
// defaults to 0.0 and a missing score to 50; the report text is still
// returned.
func (a *Analyst) Audit(ctx context.Context, sourceLabel, mealContext string) (Report, llm.AgentMeta, error) {
	start := time.Now()

	var buf bytes.Buffer
	if err := reportTmpl.Execute(&buf, reportPromptData{SourceLabel: sourceLabel, Context: mealContext}); err != nil {
		return Report{}, llm.AgentMeta{}, fmt.Errorf("failed to render carbon report prompt: %w", err)
	}

	messages := []llm.Message{
		{Role: "system", Content: "You are the Environmental Analyst. You are a precise scientist."},
		{Role: "user", Content: buf.String()},
	}

	resp, err := a.chat.GenerateChat(ctx, messages, llm.ChatOptions{Temperature: 0.3})
	meta := llm.AgentMeta{
		AgentName: "EnvironmentalAnalyst",
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return Report{}, meta, fmt.Errorf("carbon audit failed: %w", err)
	}

	co2, _ := extract.Sentinel(resp.Content, "CO2")
	score := 50
	if v, ok := extract.Sentinel(resp.Content, "SCORE"); ok {
		score = int(v)
	}

	return Report{
		Metrics: Metrics{CO2: co2, Score: score, Source: sourceLabel},
		Text:    extract.StripSentinels(resp.Content),
	}, meta, nil
}
