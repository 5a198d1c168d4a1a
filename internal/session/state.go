package session

import (
	"context"
	"time"

	"ai-diet-planner/internal/planner"
)

// State is everything a user session carries between requests.
type State struct {
	CurrentPlan     planner.Plan         `json:"currentPlan"`
	LastPreferences *planner.Preferences `json:"lastPreferences,omitempty"`
	LockedItems     planner.LockSet      `json:"lockedItems"`
	UpdatedAt       time.Time            `json:"updatedAt"`
}

// HasPlan reports whether the session holds a plan to regenerate or save.
func (s *State) HasPlan() bool {
	return len(s.CurrentPlan) > 0
}

// Lister is implemented by stores that can enumerate the sessions they hold.
type Lister interface {
	List(ctx context.Context) ([]string, error)
}

// Store persists session state. Load returns an empty state, not an error,
// for sessions that were never saved.
type Store interface {
	Load(ctx context.Context, sessionID string) (*State, error)
	Save(ctx context.Context, sessionID string, st *State) error
	Delete(ctx context.Context, sessionID string) error
}
