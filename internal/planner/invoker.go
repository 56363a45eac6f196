package planner

import (
	"context"
	"fmt"
	"regexp"
	"time"

	"nutrition-planner/internal/llm"
)

// invoker issues one role-scoped generation request. Every agent in the
// workflow goes through this primitive; it holds no state beyond the
// generation client.
type invoker struct {
	chat llm.ChatGenerator
}

// run executes a single agent call. The persona becomes the system message
// ("You are the {role}. {persona}") and the task content the user message.
func (inv invoker) run(ctx context.Context, role, persona, content string, opts llm.ChatOptions) (llm.ContentResponse, llm.AgentMeta, error) {
	start := time.Now()

	messages := []llm.Message{
		{Role: "system", Content: fmt.Sprintf("You are the %s. %s", role, persona)},
		{Role: "user", Content: content},
	}

	resp, err := inv.chat.GenerateChat(ctx, messages, opts)
	meta := llm.AgentMeta{
		AgentName: role,
		Usage:     resp.Usage,
		Latency:   time.Since(start),
	}
	if err != nil {
		return llm.ContentResponse{}, meta, fmt.Errorf("%s call failed: %w", role, err)
	}
	return resp, meta, nil
}

const jsonAgentPersona = "You are a precise JSON response agent. Always respond with valid JSON only, no markdown, no code blocks."

// extractJSONObject pulls the first brace-delimited substring containing the
// given key out of a reply that wrapped its JSON in extraneous text.
func extractJSONObject(text, requiredKey string) string {
	p := regexp.MustCompile(`(?s)\{[^{}]*"` + regexp.QuoteMeta(requiredKey) + `"[^{}]*\}`)
	return p.FindString(text)
}
