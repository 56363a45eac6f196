package extract

import "testing"

func TestCalories_ExplicitTotalWins(t *testing.T) {
	text := `Day 1 overview:
Breakfast: 400 kcal
Lunch: 600 kcal
Total: 2200 kcal
Some narrative mentioning 150 kcal snacks.`

	if got := Calories(text); got != 2200 {
		t.Errorf("Calories() = %d, want 2200 (explicit total must win)", got)
	}
}

func TestCalories_HashTotal(t *testing.T) {
	if got := Calories("# Total 1850\nrest of the plan"); got != 1850 {
		t.Errorf("Calories() = %d, want 1850", got)
	}
	if got := Calories("Total calories: 1900 for the day"); got != 1900 {
		t.Errorf("Calories() = %d, want 1900", got)
	}
}

func TestCalories_MealSumFallback(t *testing.T) {
	text := `Breakfast: 400 kcal
Lunch: 600 kcal
Dinner: 700 kcal`

	if got := Calories(text); got != 1700 {
		t.Errorf("Calories() = %d, want 1700 (meal-wise sum)", got)
	}
}

func TestCalories_WeakFallback(t *testing.T) {
	// No total line and no meal tags; bounded mentions are summed.
	text := "One serving is 350 kcal and the shake adds 250 kcal."
	if got := Calories(text); got != 600 {
		t.Errorf("Calories() = %d, want 600", got)
	}
}

func TestCalories_WeakFallbackSanityCap(t *testing.T) {
	// Sum above 6000 means double-counting; reject the tier entirely.
	text := "1900 kcal 1900 kcal 1900 kcal 1900 kcal"
	if got := Calories(text); got != 0 {
		t.Errorf("Calories() = %d, want 0 (sum above sanity cap)", got)
	}
}

func TestCalories_NoMentions(t *testing.T) {
	if got := Calories("A plan with no numbers at all."); got != 0 {
		t.Errorf("Calories() = %d, want 0", got)
	}
}

func TestCost_SentinelWithSeparator(t *testing.T) {
	if got := Cost("### TOTAL_COST: 1,500 ###"); got != "1500" {
		t.Errorf("Cost() = %q, want \"1500\"", got)
	}
}

func TestCost_PatternPriority(t *testing.T) {
	tests := []struct {
		name string
		text string
		want string
	}{
		{"SentinelNoClose", "### TOTAL_COST: 1200", "1200"},
		{"BareLabel", "TOTAL_COST: 900", "900"},
		{"NaturalLanguage", "The Total Cost: ₹ 2,050 for the week", "2050"},
		{"BareTotal", "Total: 800", "800"},
		{"CurrencyOnly", "comes to ₹450 overall", "450"},
		{"NoMatch", "no cost mentioned here", "0"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Cost(tt.text); got != tt.want {
				t.Errorf("Cost(%q) = %q, want %q", tt.text, got, tt.want)
			}
		})
	}
}

func TestCostPreferring(t *testing.T) {
	finalText := "# Total Budget For Plan: [₹1800]\nTotal Cost: 1800"
	fallbackText := "### TOTAL_COST: 1500 ###"

	if got := CostPreferring(finalText, fallbackText); got != "1800" {
		t.Errorf("CostPreferring() = %q, want \"1800\" (final text preferred)", got)
	}
	if got := CostPreferring("no digits here", fallbackText); got != "1500" {
		t.Errorf("CostPreferring() = %q, want \"1500\" (fallback used)", got)
	}
	if got := CostPreferring("nothing", "nothing either"); got != "0" {
		t.Errorf("CostPreferring() = %q, want \"0\"", got)
	}
}

func TestSentinel(t *testing.T) {
	report := `### CO2: 12.5 ###
### SCORE: 75 ###
Your plan leans heavily on dairy.`

	co2, ok := Sentinel(report, "CO2")
	if !ok || co2 != 12.5 {
		t.Errorf("Sentinel(CO2) = %v, %v; want 12.5, true", co2, ok)
	}
	score, ok := Sentinel(report, "SCORE")
	if !ok || score != 75 {
		t.Errorf("Sentinel(SCORE) = %v, %v; want 75, true", score, ok)
	}
	if _, ok := Sentinel("no markers", "CO2"); ok {
		t.Error("Sentinel should report absence on plain text")
	}
}

func TestStripSentinels(t *testing.T) {
	report := "### CO2: 12.5 ###\n### SCORE: 75 ###\nExplanation text."
	if got := StripSentinels(report); got != "Explanation text." {
		t.Errorf("StripSentinels() = %q", got)
	}
}
