package shopping

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned when a saved plan has no shopping list.
var ErrNotFound = errors.New("shopping list not found")

// Repository handles persistence of shopping lists.
type Repository struct {
	db *sql.DB
}

// NewRepository creates a new Repository.
func NewRepository(db *sql.DB) *Repository {
	return &Repository{db: db}
}

// Save stores the list for planID, replacing any earlier snapshot.
func (r *Repository) Save(ctx context.Context, ownerID, planID string, items []string) error {
	if items == nil {
		items = []string{}
	}
	data, err := json.Marshal(items)
	if err != nil {
		return fmt.Errorf("failed to marshal shopping list: %w", err)
	}

	_, err = r.db.ExecContext(ctx, `
		INSERT INTO shopping_lists (plan_id, owner_id, items, created_at)
		VALUES (?, ?, ?, ?)
		ON CONFLICT (plan_id) DO UPDATE SET items = excluded.items, created_at = excluded.created_at`,
		planID, ownerID, string(data), time.Now().UTC().Format(time.RFC3339Nano),
	)
	if err != nil {
		return fmt.Errorf("failed to save shopping list for plan %s: %w", planID, err)
	}
	return nil
}

// GetByPlan returns the shopping list saved with planID.
func (r *Repository) GetByPlan(ctx context.Context, ownerID, planID string) (*ShoppingList, error) {
	var (
		list      ShoppingList
		items     string
		createdAt string
	)
	err := r.db.QueryRowContext(ctx, `
		SELECT id, owner_id, plan_id, items, created_at
		FROM shopping_lists WHERE owner_id = ? AND plan_id = ?`, ownerID, planID,
	).Scan(&list.ID, &list.OwnerID, &list.PlanID, &items, &createdAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load shopping list for plan %s: %w", planID, err)
	}

	if err := json.Unmarshal([]byte(items), &list.Items); err != nil {
		return nil, fmt.Errorf("corrupt shopping list for plan %s: %w", planID, err)
	}
	if list.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("corrupt timestamp on shopping list %d: %w", list.ID, err)
	}
	return &list, nil
}

// DeleteByPlan removes the list for planID, if any.
func (r *Repository) DeleteByPlan(ctx context.Context, ownerID, planID string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM shopping_lists WHERE owner_id = ? AND plan_id = ?`, ownerID, planID)
	if err != nil {
		return fmt.Errorf("failed to delete shopping list for plan %s: %w", planID, err)
	}
	return nil
}
