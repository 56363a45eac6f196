package user

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// PlanStatus is the lifecycle state of a persisted plan. Rejected plans are
// never persisted; rejection routes back into regeneration instead.
type PlanStatus string

const (
	PlanApproved PlanStatus = "approved"
)

// PlanRecord is one persisted, approved meal plan.
type PlanRecord struct {
	ID        int64
	Email     string
	PlanText  string
	Status    PlanStatus
	Feedback  string
	CreatedAt time.Time
}

// PlanRepository is a database-backed store for approved plan history.
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Append stores a plan in the user's history.
func (r *PlanRepository) Append(ctx context.Context, email, planText string, status PlanStatus, feedback string) error {
	var fb sql.NullString
	if feedback != "" {
		fb = sql.NullString{String: feedback, Valid: true}
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO diet_plans (email, plan_text, status, feedback, created_at) VALUES (?,?,?,?,?)`,
		email, planText, status, fb, time.Now())
	if err != nil {
		return fmt.Errorf("failed to append plan for %s: %w", email, err)
	}
	return nil
}

// ListApproved returns approved plans for a user, newest first.
func (r *PlanRepository) ListApproved(ctx context.Context, email string) ([]PlanRecord, error) {
	rows, err := r.db.QueryContext(ctx,
		`SELECT id, email, plan_text, status, COALESCE(feedback, ''), created_at
		 FROM diet_plans WHERE email = ? AND status = ? ORDER BY created_at DESC`,
		email, PlanApproved)
	if err != nil {
		return nil, fmt.Errorf("failed to list approved plans for %s: %w", email, err)
	}
	defer rows.Close()

	var records []PlanRecord
	for rows.Next() {
		var rec PlanRecord
		if err := rows.Scan(&rec.ID, &rec.Email, &rec.PlanText, &rec.Status, &rec.Feedback, &rec.CreatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan plan row: %w", err)
		}
		records = append(records, rec)
	}
	return records, rows.Err()
}

// LatestApprovedText returns the text of the most recent approved plan,
// used to ground general-question answers when no plan is pending.
func (r *PlanRepository) LatestApprovedText(ctx context.Context, email string) (string, error) {
	var text string
	err := r.db.QueryRowContext(ctx,
		`SELECT plan_text FROM diet_plans WHERE email = ? AND status = ?
		 ORDER BY created_at DESC LIMIT 1`,
		email, PlanApproved).Scan(&text)
	if err != nil {
		if err == sql.ErrNoRows {
			return "No previous approved plans.", nil
		}
		return "", fmt.Errorf("failed to fetch latest approved plan for %s: %w", email, err)
	}
	return text, nil
}
