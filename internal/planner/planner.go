// Package planner orchestrates the multi-agent meal plan pipeline. A plan
// run sequences role-scoped generation calls (doctor, chef, budget, manager)
// around a calorie correction loop, threading a structured interpretation of
// the user's feedback through every stage.
package planner

import (
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/user"
)

// Request carries everything a plan run needs. Feedback and PreviousCost are
// optional; they are only set when regenerating a rejected plan.
type Request struct {
	Profile      user.Profile
	Goal         string
	DurationDays int
	MealsPerDay  int
	Feedback     string
	PreviousCost *float64
}

// Result is the outcome of a successful plan run.
type Result struct {
	PlanText         string
	Cost             string
	TargetCalories   int
	ProteinGrams     float64
	Directive        RequestDirective
	CorrectionRounds int
}

// Planner runs the plan generation workflow.
type Planner struct {
	inv            invoker
	analyzer       *Analyzer
	tolerance      int
	maxCorrections int
}

// NewPlanner creates a Planner. tolerance is the acceptable calorie gap in
// kcal and maxCorrections bounds the correction loop.
func NewPlanner(chat llm.ChatGenerator, tolerance, maxCorrections int) *Planner {
	return &Planner{
		inv:            invoker{chat: chat},
		analyzer:       NewAnalyzer(chat),
		tolerance:      tolerance,
		maxCorrections: maxCorrections,
	}
}
