// Package clipper turns a recipe or nutrition article URL pasted into chat
// into a structured summary the assistant can ground its replies on.
package clipper

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"time"

	"nutrition-planner/internal/carbon"
	"nutrition-planner/internal/llm"

	"github.com/PuerkitoBio/goquery"
)

const maxPageChars = 6000

// Clipper fetches and summarizes recipe pages.
type Clipper struct {
	httpClient *http.Client
	chat       llm.ChatGenerator
}

// ClippedRecipe is the structured result of clipping one page.
type ClippedRecipe struct {
	Title         string   `json:"title"`
	Ingredients   []string `json:"ingredients"`
	Steps         []string `json:"steps"`
	PrepTime      string   `json:"prep_time"`
	Servings      string   `json:"servings"`
	SourceURL     string   `json:"-"`
	CO2PerServing float64  `json:"-"`
}

// NewClipper creates a new Clipper instance.
func NewClipper(chat llm.ChatGenerator) *Clipper {
	return &Clipper{
		httpClient: &http.Client{Timeout: 15 * time.Second},
		chat:       chat,
	}
}

// ClipURL fetches the URL, extracts the recipe via a generation call and
// attaches a rule-based carbon estimate.
func (c *Clipper) ClipURL(ctx context.Context, url string) (*ClippedRecipe, llm.AgentMeta, error) {
	start := time.Now()
	meta := llm.AgentMeta{AgentName: "RecipeClipper"}

	content, err := c.fetchAndCleanHTML(url)
	if err != nil {
		return nil, meta, fmt.Errorf("failed to fetch content: %w", err)
	}

	prompt := fmt.Sprintf(`Extract the recipe details from the following page content.
Return the result strictly as a JSON object with this structure:
{
  "title": "Recipe Title",
  "ingredients": ["item 1", "item 2"],
  "steps": ["Step 1 description", "Step 2 description"],
  "prep_time": "e.g. 30 mins",
  "servings": "e.g. 4 people"
}
If the page has no recipe, use the page's topic as the title and leave the lists empty.

Page content:
%s`, content)

	messages := []llm.Message{
		{Role: "system", Content: "You are a recipe extraction expert. Always respond with valid JSON only, no markdown, no code blocks."},
		{Role: "user", Content: prompt},
	}
	resp, err := c.chat.GenerateChat(ctx, messages, llm.ChatOptions{Temperature: 0.2})
	meta.Usage = resp.Usage
	meta.Latency = time.Since(start)
	if err != nil {
		return nil, meta, fmt.Errorf("recipe extraction failed: %w", err)
	}

	var recipe ClippedRecipe
	raw := jsonBody(resp.Content)
	if err := json.Unmarshal([]byte(raw), &recipe); err != nil {
		return nil, meta, fmt.Errorf("failed to parse extraction response: %w", err)
	}

	recipe.SourceURL = url
	recipe.CO2PerServing = carbon.EstimateMeal(strings.Join(recipe.Ingredients, ", "))
	return &recipe, meta, nil
}

// Summary renders the clipped recipe as chat-friendly text.
func (r *ClippedRecipe) Summary() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "📎 Clipped: %s\n", r.Title)
	if len(r.Ingredients) > 0 {
		sb.WriteString("\nIngredients:\n")
		for _, ing := range r.Ingredients {
			fmt.Fprintf(&sb, "- %s\n", ing)
		}
	}
	if len(r.Steps) > 0 {
		sb.WriteString("\nSteps:\n")
		for i, step := range r.Steps {
			fmt.Fprintf(&sb, "%d. %s\n", i+1, step)
		}
	}
	if r.PrepTime != "" || r.Servings != "" {
		fmt.Fprintf(&sb, "\nPrep time: %s | Servings: %s\n", r.PrepTime, r.Servings)
	}
	fmt.Fprintf(&sb, "Estimated footprint: %.2f kg CO2e per serving\n", r.CO2PerServing)
	fmt.Fprintf(&sb, "Source: %s", r.SourceURL)
	return sb.String()
}

func (c *Clipper) fetchAndCleanHTML(url string) (string, error) {
	resp, err := c.httpClient.Get(url)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("failed to fetch URL: status %d", resp.StatusCode)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return "", err
	}

	// Remove noise to save tokens
	doc.Find("script, style, nav, footer, iframe, ads, .ads, #ads").Each(func(i int, s *goquery.Selection) {
		s.Remove()
	})

	text := strings.TrimSpace(doc.Find("body").Text())
	if len(text) > maxPageChars {
		text = text[:maxPageChars]
	}
	return text, nil
}

// jsonBody strips any wrapping text around the first top-level JSON object.
func jsonBody(text string) string {
	start := strings.Index(text, "{")
	end := strings.LastIndex(text, "}")
	if start >= 0 && end > start {
		return text[start : end+1]
	}
	return strings.TrimSpace(text)
}
