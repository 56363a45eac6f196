// Package carbon estimates the ecological impact of meals, both through a
// fast keyword table and through a generation-backed audit report.
package carbon

import "strings"

// category pairs a set of trigger keywords with a per-meal kg-CO2e figure
// from global LCA averages. Categories are checked in order; the first
// match wins, so red meat shadows the grains served alongside it.
type category struct {
	keywords []string
	kgCO2e   float64
}

var categories = []category{
	{[]string{"mutton", "lamb", "beef"}, 2.5},
	{[]string{"chicken"}, 0.8},
	{[]string{"paneer", "cheese", "butter", "dairy"}, 0.6},
	{[]string{"fish"}, 0.5},
	{[]string{"egg"}, 0.4},
	{[]string{"rice", "roti", "chapati"}, 0.25},
	{[]string{"dal", "lentil", "beans", "legume"}, 0.2},
	{[]string{"vegetable", "sabzi", "salad"}, 0.15},
}

// defaultMealCO2 covers unknown mixed meals.
const defaultMealCO2 = 0.35

// EstimateMeal returns a rough per-meal kg-CO2e figure for a free-text
// meal description.
func EstimateMeal(description string) float64 {
	text := strings.ToLower(description)
	for _, c := range categories {
		for _, kw := range c.keywords {
			if strings.Contains(text, kw) {
				return c.kgCO2e
			}
		}
	}
	return defaultMealCO2
}
