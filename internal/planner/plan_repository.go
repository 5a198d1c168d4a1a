package planner

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrPlanNotFound is returned when no saved plan has the requested ID for the owner.
var ErrPlanNotFound = errors.New("saved meal plan not found")

// createdAtLayout is fixed width so created_at text sorts chronologically.
const createdAtLayout = "2006-01-02T15:04:05.000000000Z07:00"

// PlanRepository is a database-backed repository for saved meal plans.
// Every query is scoped to an owner (the session that saved the plan).
type PlanRepository struct {
	db *sql.DB
}

// NewPlanRepository creates a new PlanRepository.
func NewPlanRepository(db *sql.DB) *PlanRepository {
	return &PlanRepository{db: db}
}

// Save inserts a saved plan. Saved plans are immutable apart from the favorite flag.
func (r *PlanRepository) Save(ctx context.Context, ownerID string, p SavedPlan) error {
	planData, err := json.Marshal(p.Plan)
	if err != nil {
		return fmt.Errorf("failed to marshal plan: %w", err)
	}
	prefs, err := json.Marshal(p.Preferences)
	if err != nil {
		return fmt.Errorf("failed to marshal preferences: %w", err)
	}
	tags := p.Tags
	if tags == nil {
		tags = []string{}
	}
	tagData, err := json.Marshal(tags)
	if err != nil {
		return fmt.Errorf("failed to marshal tags: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO saved_meal_plans (id, owner_id, name, plan_data, preferences, tags, is_favorite, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		p.ID, ownerID, p.Name, string(planData), string(prefs), string(tagData), p.IsFavorite, p.CreatedAt.UTC().Format(createdAtLayout),
	)
	if err != nil {
		return fmt.Errorf("failed to insert saved plan %s: %w", p.ID, err)
	}
	return nil
}

// Get returns one saved plan.
func (r *PlanRepository) Get(ctx context.Context, ownerID, id string) (*SavedPlan, error) {
	row := r.db.QueryRowContext(ctx, `
		SELECT id, name, plan_data, preferences, tags, is_favorite, created_at
		FROM saved_meal_plans WHERE owner_id = ? AND id = ?`, ownerID, id)

	p, err := scanSavedPlan(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrPlanNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load saved plan %s: %w", id, err)
	}
	return p, nil
}

// List returns the owner's saved plans, newest first.
func (r *PlanRepository) List(ctx context.Context, ownerID string) ([]SavedPlan, error) {
	rows, err := r.db.QueryContext(ctx, `
		SELECT id, name, plan_data, preferences, tags, is_favorite, created_at
		FROM saved_meal_plans WHERE owner_id = ?
		ORDER BY created_at DESC, rowid DESC`, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list saved plans for %s: %w", ownerID, err)
	}
	defer rows.Close()

	plans := []SavedPlan{}
	for rows.Next() {
		p, err := scanSavedPlan(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan saved plan: %w", err)
		}
		plans = append(plans, *p)
	}
	return plans, rows.Err()
}

// Delete removes a saved plan.
func (r *PlanRepository) Delete(ctx context.Context, ownerID, id string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM saved_meal_plans WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return fmt.Errorf("failed to delete saved plan %s: %w", id, err)
	}
	return requireAffected(res)
}

// ToggleFavorite flips the favorite flag and returns the new value.
func (r *PlanRepository) ToggleFavorite(ctx context.Context, ownerID, id string) (bool, error) {
	res, err := r.db.ExecContext(ctx, `
		UPDATE saved_meal_plans SET is_favorite = 1 - is_favorite
		WHERE owner_id = ? AND id = ?`, ownerID, id)
	if err != nil {
		return false, fmt.Errorf("failed to toggle favorite on %s: %w", id, err)
	}
	if err := requireAffected(res); err != nil {
		return false, err
	}

	var fav bool
	err = r.db.QueryRowContext(ctx, `SELECT is_favorite FROM saved_meal_plans WHERE owner_id = ? AND id = ?`, ownerID, id).Scan(&fav)
	if err != nil {
		return false, fmt.Errorf("failed to read favorite flag on %s: %w", id, err)
	}
	return fav, nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanSavedPlan(s rowScanner) (*SavedPlan, error) {
	var (
		p                        SavedPlan
		planData, prefs, tagData string
		createdAt                string
	)
	if err := s.Scan(&p.ID, &p.Name, &planData, &prefs, &tagData, &p.IsFavorite, &createdAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(planData), &p.Plan); err != nil {
		return nil, fmt.Errorf("corrupt plan data for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(prefs), &p.Preferences); err != nil {
		return nil, fmt.Errorf("corrupt preferences for %s: %w", p.ID, err)
	}
	if err := json.Unmarshal([]byte(tagData), &p.Tags); err != nil {
		return nil, fmt.Errorf("corrupt tags for %s: %w", p.ID, err)
	}
	ts, err := time.Parse(createdAtLayout, createdAt)
	if err != nil {
		return nil, fmt.Errorf("corrupt timestamp for %s: %w", p.ID, err)
	}
	p.CreatedAt = ts
	return &p, nil
}

func requireAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return ErrPlanNotFound
	}
	return nil
}
