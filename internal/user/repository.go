package user

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
)

// Repository is a database-backed store for user profiles.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

const profileColumns = `email, username, password_hash, age, gender, height, weight, goal_weight,
	activity, meals_per_day, diet_type, sleep_hours, allergies, cuisine`

// Create inserts a new user. It returns false (without an error) when the
// email is already registered, so callers can surface a duplicate-identity
// failure without treating it as exceptional.
func (r *Repository) Create(ctx context.Context, p Profile, password string) (bool, error) {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO users (`+profileColumns+`) VALUES (?,?,?,?,?,?,?,?,?,?,?,?,?,?)`,
		p.Email, p.Username, HashPassword(password), p.Age, p.Gender, p.HeightCm, p.WeightKg,
		p.GoalWeight, p.Activity, p.MealsPerDay, p.DietType, p.SleepHours, p.Allergies, p.Cuisine,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return false, nil
		}
		return false, fmt.Errorf("failed to create user %s: %w", p.Email, err)
	}
	return true, nil
}

// Authenticate compares the digest of the submitted password against the
// stored digest and returns the profile on success, nil on mismatch or
// unknown email.
func (r *Repository) Authenticate(ctx context.Context, email, password string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM users WHERE email = ?`, email)

	p, storedHash, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", email, err)
	}

	if !CheckPassword(password, storedHash) {
		return nil, nil
	}
	return p, nil
}

// GetByEmail retrieves a profile, or nil when the email is unknown.
func (r *Repository) GetByEmail(ctx context.Context, email string) (*Profile, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT `+profileColumns+` FROM users WHERE email = ?`, email)

	p, _, err := scanProfile(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to fetch user %s: %w", email, err)
	}
	return p, nil
}

// Update rewrites the mutable profile fields for an existing user.
func (r *Repository) Update(ctx context.Context, p Profile) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE users SET username=?, age=?, gender=?, height=?, weight=?, goal_weight=?,
			activity=?, meals_per_day=?, diet_type=?, sleep_hours=?, allergies=?, cuisine=?
		 WHERE email=?`,
		p.Username, p.Age, p.Gender, p.HeightCm, p.WeightKg, p.GoalWeight,
		p.Activity, p.MealsPerDay, p.DietType, p.SleepHours, p.Allergies, p.Cuisine, p.Email,
	)
	if err != nil {
		return fmt.Errorf("failed to update user %s: %w", p.Email, err)
	}
	return nil
}

// Delete removes a user and cascades to their plan history.
func (r *Repository) Delete(ctx context.Context, email string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin delete transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `DELETE FROM diet_plans WHERE email = ?`, email); err != nil {
		return fmt.Errorf("failed to delete plans for %s: %w", email, err)
	}
	if _, err := tx.ExecContext(ctx, `DELETE FROM users WHERE email = ?`, email); err != nil {
		return fmt.Errorf("failed to delete user %s: %w", email, err)
	}

	return tx.Commit()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanProfile(row rowScanner) (*Profile, string, error) {
	var p Profile
	var storedHash string
	err := row.Scan(&p.Email, &p.Username, &storedHash, &p.Age, &p.Gender, &p.HeightCm,
		&p.WeightKg, &p.GoalWeight, &p.Activity, &p.MealsPerDay, &p.DietType,
		&p.SleepHours, &p.Allergies, &p.Cuisine)
	if err != nil {
		return nil, "", err
	}
	return &p, storedHash, nil
}

func isUniqueViolation(err error) bool {
	// modernc.org/sqlite surfaces constraint failures as text; there is no
	// portable error code across drivers worth depending on here.
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique") || strings.Contains(msg, "constraint")
}
