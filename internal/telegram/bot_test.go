package telegram

import (
	"strings"
	"testing"

	"nutrition-planner/internal/chat"
	"nutrition-planner/internal/user"
)

func TestSplitMessage(t *testing.T) {
	short := "a short plan"
	if got := splitMessage(short, 100); len(got) != 1 || got[0] != short {
		t.Errorf("short text should stay whole, got %v", got)
	}

	para := strings.Repeat("x", 60)
	long := para + "\n\n" + para + "\n\n" + para
	chunks := splitMessage(long, 150)
	if len(chunks) < 2 {
		t.Fatalf("expected long text to split, got %d chunks", len(chunks))
	}
	for i, c := range chunks {
		if len(c) > 150 {
			t.Errorf("chunk %d exceeds limit: %d chars", i, len(c))
		}
	}
	if joined := strings.Join(chunks, ""); !strings.Contains(joined, para) {
		t.Error("chunks lost content")
	}

	// No paragraph boundary: hard split.
	solid := strings.Repeat("y", 350)
	chunks = splitMessage(solid, 150)
	total := 0
	for _, c := range chunks {
		total += len(c)
	}
	if total != 350 {
		t.Errorf("hard split lost characters: %d of 350", total)
	}
}

func TestCarbonContextPriority(t *testing.T) {
	s := chat.NewSession(user.Profile{Email: "a@b.c"})

	if _, ctx := carbonContext(s); ctx != "" {
		t.Errorf("empty session should yield no context, got %q", ctx)
	}

	s.RecordMeal("Dal tadka", 0.2)
	source, ctx := carbonContext(s)
	if source != "food diary" || !strings.Contains(ctx, "Dal tadka") {
		t.Errorf("diary fallback: source=%q ctx=%q", source, ctx)
	}

	s.Memory.MealPlan = "approved text"
	if source, _ = carbonContext(s); source != "approved meal plan" {
		t.Errorf("approved plan should outrank diary, got %q", source)
	}

	s.PendingPlan = "pending text"
	source, ctx = carbonContext(s)
	if source != "current meal plan" || ctx != "pending text" {
		t.Errorf("pending plan should win: source=%q ctx=%q", source, ctx)
	}
}
