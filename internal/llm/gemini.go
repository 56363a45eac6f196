package llm

import (
	"context"
	"fmt"
	"strings"

	"nutrition-planner/internal/config"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiClient is a client for the Google Gemini API. It carries the
// vision-understanding capability used for meal photo analysis.
type GeminiClient struct {
	client *genai.Client
	model  *genai.GenerativeModel
}

// NewGeminiClient creates a new Gemini API client.
func NewGeminiClient(ctx context.Context, cfg *config.Config) (*GeminiClient, error) {
	client, err := genai.NewClient(ctx, option.WithAPIKey(cfg.GeminiAPIKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	model := client.GenerativeModel(cfg.GeminiModel)
	return &GeminiClient{client: client, model: model}, nil
}

// DescribeImage sends image bytes plus an instruction to the Gemini model
// and returns the free-text description.
func (c *GeminiClient) DescribeImage(ctx context.Context, imageData []byte, mimeType, instruction string) (string, error) {
	format := strings.TrimPrefix(mimeType, "image/")
	if format == "" {
		format = "jpeg"
	}

	resp, err := c.model.GenerateContent(ctx, genai.Text(instruction), genai.ImageData(format, imageData))
	if err != nil {
		return "", fmt.Errorf("failed to describe image: %w", err)
	}

	return firstText(resp)
}

// Close closes the underlying Gemini client.
func (c *GeminiClient) Close() error {
	return c.client.Close()
}

func firstText(resp *genai.GenerateContentResponse) (string, error) {
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("no content generated")
	}
	text, ok := resp.Candidates[0].Content.Parts[0].(genai.Text)
	if !ok {
		return "", fmt.Errorf("generated content is not text")
	}
	return string(text), nil
}
