package planner

import (
	"context"
	"errors"
	"strings"
	"testing"

	"nutrition-planner/internal/llm"
)

func TestClassifyParsesDirectJSON(t *testing.T) {
	chat := &replyChat{reply: `{"intent": "CREATE_PLAN", "confidence": 0.95, "duration": 5, "meals_per_day": 3, "feedback": null, "reasoning": "User asked for a 5 day plan"}`}
	c := NewClassifier(chat)

	result, meta := c.Classify(context.Background(), "make me a 5 day plan with 3 meals", nil, false)
	if result.Intent != IntentCreatePlan {
		t.Fatalf("intent = %q, want CREATE_PLAN", result.Intent)
	}
	if result.Duration == nil || *result.Duration != 5 {
		t.Errorf("duration = %v, want 5", result.Duration)
	}
	if result.MealsPerDay == nil || *result.MealsPerDay != 3 {
		t.Errorf("meals per day = %v, want 3", result.MealsPerDay)
	}
	if meta.AgentName != "IntentDetector" {
		t.Errorf("agent name = %q", meta.AgentName)
	}
}

func TestClassifyExtractsJSONFromNoisyReply(t *testing.T) {
	chat := &replyChat{reply: "Based on the message, here's my classification:\n" +
		`{"intent": "REGENERATE_PLAN", "confidence": 0.8, "duration": null, "meals_per_day": null, "feedback": "replace paneer with tofu", "reasoning": "User wants to modify the pending plan"}`}
	c := NewClassifier(chat)

	result, _ := c.Classify(context.Background(), "I don't have paneer, use tofu", nil, true)
	if result.Intent != IntentRegeneratePlan {
		t.Fatalf("intent = %q, want REGENERATE_PLAN", result.Intent)
	}
	if result.Feedback == nil || *result.Feedback != "replace paneer with tofu" {
		t.Errorf("feedback = %v", result.Feedback)
	}
}

func TestClassifyNeverFails(t *testing.T) {
	cases := []struct {
		name string
		chat *replyChat
	}{
		{"generation error", &replyChat{err: errors.New("timeout")}},
		{"garbage reply", &replyChat{reply: "no json here"}},
		{"unknown intent", &replyChat{reply: `{"intent": "MAKE_COFFEE", "confidence": 1.0}`}},
		{"missing intent", &replyChat{reply: `{"confidence": 1.0, "reasoning": "x"}`}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c := NewClassifier(tc.chat)
			result, _ := c.Classify(context.Background(), "hello", nil, false)
			if result.Intent != IntentGeneralQuestion {
				t.Errorf("fallback intent = %q, want GENERAL_QUESTION", result.Intent)
			}
			if result.Confidence != 0.5 {
				t.Errorf("fallback confidence = %v, want 0.5", result.Confidence)
			}
			if !strings.Contains(result.Reasoning, "Error parsing intent") {
				t.Errorf("fallback reasoning = %q", result.Reasoning)
			}
		})
	}
}

func TestClassifyMentionsDurationQuestionContext(t *testing.T) {
	var prompt string
	chat := &scriptedChat{t: t, reply: func(role, content string, call int) (string, error) {
		prompt = content
		return `{"intent": "ANSWER_DURATION", "confidence": 0.9, "duration": 4, "meals_per_day": null, "feedback": null, "reasoning": "Bare number after duration question"}`, nil
	}}
	c := NewClassifier(chat)

	log := []llm.Message{
		{Role: "user", Content: "make me a plan"},
		{Role: "assistant", Content: "How many days should I plan for?"},
	}
	result, _ := c.Classify(context.Background(), "4", log, false)
	if result.Intent != IntentAnswerDuration {
		t.Fatalf("intent = %q, want ANSWER_DURATION", result.Intent)
	}
	if result.Duration == nil || *result.Duration != 4 {
		t.Errorf("duration = %v, want 4", result.Duration)
	}
	if !strings.Contains(prompt, "4") || !strings.Contains(strings.ToLower(prompt), "duration") {
		t.Errorf("prompt should carry the message and duration context:\n%s", prompt)
	}
}

func TestClassifyStateContext(t *testing.T) {
	var prompt string
	chat := &scriptedChat{t: t, reply: func(role, content string, call int) (string, error) {
		prompt = content
		return `{"intent": "GENERAL_QUESTION", "confidence": 0.9, "duration": null, "meals_per_day": null, "feedback": null, "reasoning": "chit chat"}`, nil
	}}
	c := NewClassifier(chat)

	c.Classify(context.Background(), "hi", nil, true)
	if !strings.Contains(prompt, "PROPOSED diet plan") {
		t.Errorf("pending-plan state missing from prompt:\n%s", prompt)
	}

	c.Classify(context.Background(), "hi", nil, false)
	if !strings.Contains(prompt, "NO pending plan") {
		t.Errorf("no-pending state missing from prompt:\n%s", prompt)
	}
}
