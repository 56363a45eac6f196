// Package extract recovers numeric facts from agent-generated prose.
//
// Generated plans carry their totals either in a fixed sentinel line
// ("### TOTAL_COST: 1500 ###") or in looser natural-language forms. All
// pattern knowledge lives here so the sentinel convention can change in one
// place. Extraction never fails: a miss yields a defined zero value.
package extract

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	totalCaloriePatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)total\s*[:\-]\s*(\d{2,5})\s*kcal`),
		regexp.MustCompile(`(?i)total\s+(\d{2,5})\s*kcal`),
		regexp.MustCompile(`(?i)#\s*total\s*[:\-]?\s*(\d{2,5})`),
		regexp.MustCompile(`(?i)total\s+calories\s*[:\-]?\s*(\d{2,5})`),
	}

	mealCaloriePattern = regexp.MustCompile(`(?i)(breakfast|lunch|dinner|snacks?)[^\n\d]*(\d{2,4})\s*kcal`)
	anyCaloriePattern  = regexp.MustCompile(`(?i)(\d{2,4})\s*kcal`)

	costPatterns = []*regexp.Regexp{
		regexp.MustCompile(`(?i)###\s*TOTAL_COST:\s*([\d,]+)\s*###`),
		regexp.MustCompile(`(?i)###\s*TOTAL_COST:\s*([\d,]+)`),
		regexp.MustCompile(`(?i)TOTAL_COST:\s*([\d,]+)`),
		regexp.MustCompile(`(?i)Total Cost[:\s]+₹?\s*([\d,]+)`),
		regexp.MustCompile(`(?i)Total[:\s]+₹?\s*([\d,]+)`),
		regexp.MustCompile(`₹\s*([\d,]+)`),
	}
)

// Loose per-mention bounds for the weak calorie fallback. Values outside
// [50, 2000] are narrative noise (years, grams, prices), and a sum above
// 6000 means the text double-counted.
const (
	minMealCalories = 50
	maxMealCalories = 2000
	maxPlanCalories = 6000
)

// Calories pulls a daily calorie total out of plan text.
//
// Tiers, first hit wins: an explicit total line, the sum of per-meal
// mentions, a bounded sum of all kcal mentions, then 0.
func Calories(text string) int {
	for _, p := range totalCaloriePatterns {
		if m := p.FindStringSubmatch(text); m != nil {
			if v, err := strconv.Atoi(m[1]); err == nil {
				return v
			}
		}
	}

	mealSum := 0
	for _, m := range mealCaloriePattern.FindAllStringSubmatch(text, -1) {
		if v, err := strconv.Atoi(m[2]); err == nil {
			mealSum += v
		}
	}
	if mealSum > 0 {
		return mealSum
	}

	weakSum := 0
	for _, m := range anyCaloriePattern.FindAllStringSubmatch(text, -1) {
		v, err := strconv.Atoi(m[1])
		if err != nil || v < minMealCalories || v > maxMealCalories {
			continue
		}
		weakSum += v
	}
	if weakSum > 0 && weakSum <= maxPlanCalories {
		return weakSum
	}

	return 0
}

// Cost pulls a total cost out of plan text, trying the sentinel format
// first and degrading to natural-language forms. Thousands separators are
// stripped. Returns "0" when nothing matches.
func Cost(text string) string {
	for _, p := range costPatterns {
		m := p.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		cleaned := strings.TrimSpace(strings.ReplaceAll(m[1], ",", ""))
		if cleaned != "" && isDigits(cleaned) {
			return cleaned
		}
	}
	return "0"
}

// CostPreferring searches the formatted manager output first and falls back
// to the raw budget output. The manager text is authoritative when both
// carry a figure.
func CostPreferring(finalText, fallbackText string) string {
	if cost := Cost(finalText); cost != "0" {
		return cost
	}
	return Cost(fallbackText)
}

// Sentinel extracts a single "### LABEL: value ###" float sentinel.
// The second return reports whether the sentinel was found.
func Sentinel(text, label string) (float64, bool) {
	p := regexp.MustCompile(`###\s*` + regexp.QuoteMeta(label) + `:\s*([\d.]+)`)
	m := p.FindStringSubmatch(text)
	if m == nil {
		return 0, false
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

var sentinelLinePattern = regexp.MustCompile(`###[^#\n]*###`)

// StripSentinels removes sentinel lines from report text after extraction.
func StripSentinels(text string) string {
	return strings.TrimSpace(sentinelLinePattern.ReplaceAllString(text, ""))
}

func isDigits(s string) bool {
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return len(s) > 0
}
