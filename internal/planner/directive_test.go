package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nutrition-planner/internal/llm"
)

type replyChat struct {
	reply  string
	err    error
	called int
}

func (r *replyChat) GenerateChat(context.Context, []llm.Message, llm.ChatOptions) (llm.ContentResponse, error) {
	r.called++
	if r.err != nil {
		return llm.ContentResponse{}, r.err
	}
	return llm.ContentResponse{Content: r.reply}, nil
}

func TestAnalyzeEmptyFeedbackShortCircuits(t *testing.T) {
	chat := &replyChat{reply: "should never be used"}
	a := NewAnalyzer(chat)

	for _, feedback := range []string{"", "   ", "\n\t"} {
		directive, _ := a.Analyze(context.Background(), feedback, nil, 3)
		if chat.called != 0 {
			t.Fatalf("Analyze(%q) issued a generation call", feedback)
		}
		if directive.CostAdjustment != AdjustMaintain {
			t.Errorf("adjustment = %q, want maintain", directive.CostAdjustment)
		}
		if directive.CostTarget != nil {
			t.Errorf("cost target should be nil")
		}
		if directive.Reasoning != "No feedback provided" {
			t.Errorf("reasoning = %q", directive.Reasoning)
		}
		if directive.ItemsToAvoid == nil || directive.Constraints == nil {
			t.Error("list fields must be empty, not nil")
		}
	}
}

func TestAnalyzeParsesTargetFromNoisyReply(t *testing.T) {
	chat := &replyChat{reply: "Sure! Here is the analysis you asked for:\n" +
		`{"cost_target": 1500, "cost_adjustment": "target", "items_to_avoid": ["chicken"], "items_to_include": ["dal"], "preferences": [], "constraints": [], "reasoning": "Explicit budget of 1500"}` +
		"\nLet me know if you need anything else."}
	a := NewAnalyzer(chat)

	directive, meta := a.Analyze(context.Background(), "keep it under 1500", nil, 3)
	if directive.CostTarget == nil || *directive.CostTarget != 1500 {
		t.Fatalf("cost target = %v, want 1500", directive.CostTarget)
	}
	if directive.CostAdjustment != AdjustTarget {
		t.Errorf("adjustment = %q, want target", directive.CostAdjustment)
	}
	if len(directive.ItemsToAvoid) != 1 || directive.ItemsToAvoid[0] != "chicken" {
		t.Errorf("items to avoid = %v", directive.ItemsToAvoid)
	}
	if meta.AgentName != "RequestAnalyst" {
		t.Errorf("agent name = %q", meta.AgentName)
	}
}

func TestAnalyzeBackfillsMissingFields(t *testing.T) {
	chat := &replyChat{reply: `{"cost_target": null, "cost_adjustment": "bogus-mode", "reasoning": "partial"}`}
	a := NewAnalyzer(chat)

	directive, _ := a.Analyze(context.Background(), "make it spicier", nil, 3)
	if directive.CostAdjustment != AdjustMaintain {
		t.Errorf("unknown adjustment should fall back to maintain, got %q", directive.CostAdjustment)
	}
	if directive.ItemsToAvoid == nil || directive.ItemsToInclude == nil || directive.Preferences == nil || directive.Constraints == nil {
		t.Error("missing list fields must be backfilled as empty slices")
	}
	if directive.Reasoning != "partial" {
		t.Errorf("valid fields must survive backfill, reasoning = %q", directive.Reasoning)
	}
}

func TestAnalyzeFallsBackOnGenerationError(t *testing.T) {
	chat := &replyChat{err: errors.New("backend down")}
	a := NewAnalyzer(chat)

	directive, _ := a.Analyze(context.Background(), "cheaper please", nil, 3)
	if directive.CostAdjustment != AdjustMaintain || directive.CostTarget != nil {
		t.Errorf("error fallback should be the default directive, got %+v", directive)
	}
	if !strings.Contains(directive.Reasoning, "Error analyzing request") {
		t.Errorf("reasoning should record the failure, got %q", directive.Reasoning)
	}
}

func TestAnalyzeFallsBackOnGarbageReply(t *testing.T) {
	chat := &replyChat{reply: "I could not produce JSON, sorry."}
	a := NewAnalyzer(chat)

	directive, _ := a.Analyze(context.Background(), "cheaper please", nil, 3)
	if directive.CostAdjustment != AdjustMaintain {
		t.Errorf("garbage reply should yield default directive, got %+v", directive)
	}
	if !strings.Contains(directive.Reasoning, "Error analyzing request") {
		t.Errorf("reasoning = %q", directive.Reasoning)
	}
}
