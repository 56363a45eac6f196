package chat

import (
	"context"
	"fmt"

	"nutrition-planner/internal/user"
)

// Approve persists the pending plan to history and clears the pending slot.
// The approved text stays in session memory for later questions.
func (r *Router) Approve(ctx context.Context, s *Session) (string, error) {
	if !s.HasPendingPlan() {
		return r.reply(s, "There is no pending plan to approve."), nil
	}
	if r.plans != nil {
		if err := r.plans.Append(ctx, s.Profile.Email, s.PendingPlan, user.PlanApproved, ""); err != nil {
			return "", fmt.Errorf("failed to save approved plan: %w", err)
		}
	}

	s.Memory.MealPlan = s.PendingPlan
	s.Memory.PlanDuration = s.PlanDuration
	s.Memory.TotalBudget = s.TotalBudget
	s.PendingPlan = ""
	s.FeedbackMode = false

	return r.reply(s, "✅ Plan approved and saved to your history. Stick to it!"), nil
}

// Reject flags the session for feedback. The pending plan stays on screen
// until a regeneration replaces it.
func (r *Router) Reject(s *Session) (string, error) {
	if !s.HasPendingPlan() {
		return r.reply(s, "There is no pending plan to reject."), nil
	}
	s.FeedbackMode = true
	return r.reply(s, "Got it. What would you like changed? Tell me and I'll regenerate the plan."), nil
}
