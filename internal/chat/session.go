// Package chat holds per-user conversation state and routes free-text
// messages to the right workflow branch.
package chat

import (
	"sync"
	"time"

	"nutrition-planner/internal/carbon"
	"nutrition-planner/internal/llm"
	"nutrition-planner/internal/user"
)

// DiaryEntry is one analyzed meal photo.
type DiaryEntry struct {
	Timestamp time.Time
	Analysis  string
	CO2       float64
}

// Memory is the aggregate context carried across the session and fed
// into general-question replies.
type Memory struct {
	MealPlan      string
	PlanDuration  int
	TotalBudget   string
	CarbonMetrics *carbon.Metrics
	CarbonReport  string
	FoodDiary     []DiaryEntry
}

// Session is the per-user conversation state. At most one pending
// (unapproved) plan exists at a time; creating or regenerating replaces it
// wholesale.
type Session struct {
	mu sync.Mutex

	Profile      user.Profile
	PendingPlan  string
	PlanDuration int
	TotalBudget  string
	FeedbackMode bool
	Log          []llm.Message
	Memory       Memory
}

// NewSession creates a fresh session for an authenticated profile.
func NewSession(profile user.Profile) *Session {
	return &Session{Profile: profile}
}

// Lock admits one user action at a time. Callers hold the lock for the
// whole action, including routing, so concurrent updates from the same
// user cannot interleave writes to the log, pending plan or memory.
func (s *Session) Lock() { s.mu.Lock() }

// Unlock releases the session for the next action.
func (s *Session) Unlock() { s.mu.Unlock() }

// HasPendingPlan reports whether an unapproved plan is on screen.
func (s *Session) HasPendingPlan() bool {
	return s.PendingPlan != ""
}

func (s *Session) appendUser(content string) {
	s.Log = append(s.Log, llm.Message{Role: "user", Content: content})
}

func (s *Session) appendAssistant(content string) {
	s.Log = append(s.Log, llm.Message{Role: "assistant", Content: content})
}

// RecordMeal appends one analyzed meal photo to the food diary.
func (s *Session) RecordMeal(analysis string, co2 float64) {
	s.Memory.FoodDiary = append(s.Memory.FoodDiary, DiaryEntry{
		Timestamp: time.Now(),
		Analysis:  analysis,
		CO2:       co2,
	})
}
