package llm

import (
	"context"
	"time"
)

// Message is a single turn in a chat transcript.
type Message struct {
	Role    string `json:"role"` // "system", "user" or "assistant"
	Content string `json:"content"`
}

// TokenUsage tracks the tokens consumed by a request.
type TokenUsage struct {
	PromptTokens     int
	CompletionTokens int
	TotalTokens      int
	Model            string
}

// AgentMeta holds operational metadata for an agent execution.
type AgentMeta struct {
	AgentName string
	Usage     TokenUsage
	Latency   time.Duration
}

// ContentResponse contains the generated text and metadata like token usage.
type ContentResponse struct {
	Content string
	Usage   TokenUsage
}

// ChatOptions tune a single chat-completion request. Zero values mean
// "use the client's defaults".
type ChatOptions struct {
	MaxTokens   int
	Temperature float32
}

// ChatGenerator is an interface for generating text from a multi-turn
// transcript with per-request sampling options.
type ChatGenerator interface {
	GenerateChat(ctx context.Context, messages []Message, opts ChatOptions) (ContentResponse, error)
}

// VisionDescriber is an interface for describing an image under an
// instruction, e.g. identifying a meal photo and estimating its macros.
type VisionDescriber interface {
	DescribeImage(ctx context.Context, imageData []byte, mimeType, instruction string) (string, error)
}
