package clipper

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"nutrition-planner/internal/llm"
)

type fakeChat struct {
	reply      string
	err        error
	lastPrompt string
}

func (f *fakeChat) GenerateChat(_ context.Context, messages []llm.Message, _ llm.ChatOptions) (llm.ContentResponse, error) {
	f.lastPrompt = messages[len(messages)-1].Content
	if f.err != nil {
		return llm.ContentResponse{}, f.err
	}
	return llm.ContentResponse{Content: f.reply}, nil
}

const samplePage = `<html><head><style>body{color:red}</style></head><body>
<nav>Home | Recipes</nav>
<h1>Chicken Curry</h1>
<p>A weeknight classic.</p>
<script>trackVisit();</script>
<footer>Copyright</footer>
</body></html>`

func TestClipURLExtractsRecipe(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	chat := &fakeChat{reply: "Here you go:\n" + `{"title": "Chicken Curry", "ingredients": ["500g chicken", "2 onions"], "steps": ["Brown the onions", "Simmer the chicken"], "prep_time": "40 mins", "servings": "4"}`}
	c := NewClipper(chat)

	recipe, meta, err := c.ClipURL(context.Background(), srv.URL)
	if err != nil {
		t.Fatalf("ClipURL() error: %v", err)
	}
	if recipe.Title != "Chicken Curry" {
		t.Errorf("title = %q", recipe.Title)
	}
	if len(recipe.Ingredients) != 2 {
		t.Errorf("ingredients = %v", recipe.Ingredients)
	}
	if recipe.SourceURL != srv.URL {
		t.Errorf("source = %q", recipe.SourceURL)
	}
	// "chicken" in the ingredients drives the footprint category.
	if recipe.CO2PerServing != 0.8 {
		t.Errorf("CO2PerServing = %v, want 0.8", recipe.CO2PerServing)
	}
	if meta.AgentName != "RecipeClipper" {
		t.Errorf("agent name = %q", meta.AgentName)
	}

	// Noise tags must not reach the prompt.
	for _, noise := range []string{"trackVisit", "color:red", "Copyright"} {
		if strings.Contains(chat.lastPrompt, noise) {
			t.Errorf("prompt contains page noise %q", noise)
		}
	}
	if !strings.Contains(chat.lastPrompt, "Chicken Curry") {
		t.Error("prompt missing page content")
	}

	summary := recipe.Summary()
	for _, want := range []string{"Chicken Curry", "500g chicken", "0.80 kg CO2e", srv.URL} {
		if !strings.Contains(summary, want) {
			t.Errorf("summary missing %q:\n%s", want, summary)
		}
	}
}

func TestClipURLRejectsBadStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
	}))
	defer srv.Close()

	c := NewClipper(&fakeChat{reply: "{}"})
	if _, _, err := c.ClipURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected error for 404 response")
	}
}

func TestClipURLPropagatesGenerationError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewClipper(&fakeChat{err: errors.New("backend down")})
	if _, _, err := c.ClipURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected generation error to propagate")
	}
}

func TestClipURLRejectsGarbageJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(samplePage))
	}))
	defer srv.Close()

	c := NewClipper(&fakeChat{reply: "not json at all"})
	if _, _, err := c.ClipURL(context.Background(), srv.URL); err == nil {
		t.Fatal("expected parse error for non-JSON reply")
	}
}
