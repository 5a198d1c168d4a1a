package session

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"ai-diet-planner/internal/planner"
	"ai-diet-planner/internal/shared"
	"ai-diet-planner/internal/shopping"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

// Generator produces plans; *planner.Planner satisfies it.
type Generator interface {
	GeneratePlan(ctx context.Context, prefs planner.Preferences, locked []planner.FoodItem) (planner.Result, error)
	RegenerateMeal(ctx context.Context, prefs planner.Preferences, existing planner.Plan, req planner.RegenerationRequest) (planner.Result, error)
}

// PlanStore persists saved plans; *planner.PlanRepository satisfies it.
type PlanStore interface {
	Save(ctx context.Context, ownerID string, p planner.SavedPlan) error
	Get(ctx context.Context, ownerID, id string) (*planner.SavedPlan, error)
	List(ctx context.Context, ownerID string) ([]planner.SavedPlan, error)
	Delete(ctx context.Context, ownerID, id string) error
	ToggleFavorite(ctx context.Context, ownerID, id string) (bool, error)
}

// ShoppingStore persists shopping list snapshots; *shopping.Repository satisfies it.
type ShoppingStore interface {
	Save(ctx context.Context, ownerID, planID string, items []string) error
	GetByPlan(ctx context.Context, ownerID, planID string) (*shopping.ShoppingList, error)
	DeleteByPlan(ctx context.Context, ownerID, planID string) error
}

// UsageRecorder records model usage; *metrics.Store satisfies it.
type UsageRecorder interface {
	RecordMeta(ctx context.Context, meta shared.AgentMeta) error
}

// Manager owns per-session planning state. Model calls run outside the state
// lock, so two overlapping requests on one session both complete and the one
// that finishes last wins. A failed operation never touches stored state.
type Manager struct {
	gen    Generator
	store  Store
	plans  PlanStore
	lists  ShoppingStore
	usage  UsageRecorder
	logger *zap.Logger
	now    func() time.Time

	mu sync.Mutex
}

// Option configures optional Manager collaborators.
type Option func(*Manager)

// WithShoppingStore snapshots shopping lists when plans are saved.
func WithShoppingStore(s ShoppingStore) Option {
	return func(m *Manager) { m.lists = s }
}

// WithUsageRecorder records token usage of every model call.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(m *Manager) { m.usage = r }
}

// WithLogger sets the logger.
func WithLogger(l *zap.Logger) Option {
	return func(m *Manager) { m.logger = l }
}

// WithClock overrides time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// NewManager creates a Manager.
func NewManager(gen Generator, store Store, plans PlanStore, opts ...Option) *Manager {
	m := &Manager{
		gen:    gen,
		store:  store,
		plans:  plans,
		logger: zap.NewNop(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// update runs fn against the freshly loaded state and saves it if fn succeeds.
func (m *Manager) update(ctx context.Context, sessionID string, fn func(*State) error) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	st, err := m.store.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if err := fn(st); err != nil {
		return nil, err
	}
	st.UpdatedAt = m.now().UTC()
	if err := m.store.Save(ctx, sessionID, st); err != nil {
		return nil, err
	}
	return st, nil
}

// Snapshot returns the current state of a session.
func (m *Manager) Snapshot(ctx context.Context, sessionID string) (*State, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Load(ctx, sessionID)
}

// ListSessions returns the IDs of every stored session.
func (m *Manager) ListSessions(ctx context.Context) ([]string, error) {
	l, ok := m.store.(Lister)
	if !ok {
		return nil, errors.New("session store cannot list sessions")
	}
	return l.List(ctx)
}

// Reset forgets the session's plan, preferences and locks.
func (m *Manager) Reset(ctx context.Context, sessionID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.store.Delete(ctx, sessionID)
}

// Generate creates a new plan from prefs and makes it the session's current
// plan. The model gets the session's locked items followed by any
// prefs.LockedItems not already locked; the latter apply to this call only.
func (m *Manager) Generate(ctx context.Context, sessionID string, prefs planner.Preferences) (*State, error) {
	st, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}

	locked := planner.NewLockSet(append(st.LockedItems.Items(), prefs.LockedItems...)...)
	res, err := m.gen.GeneratePlan(ctx, prefs, locked.Items())
	m.record(ctx, res.Meta)
	if err != nil {
		return nil, err
	}

	prefs.LockedItems = nil
	return m.update(ctx, sessionID, func(st *State) error {
		st.CurrentPlan = res.Plan
		st.LastPreferences = &prefs
		return nil
	})
}

// Regenerate replaces one meal of the current plan.
func (m *Manager) Regenerate(ctx context.Context, sessionID string, dayIndex, mealIndex int) (*State, error) {
	st, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !st.HasPlan() || st.LastPreferences == nil {
		return nil, planner.ErrNoActivePlan
	}

	current, err := planner.MealAt(st.CurrentPlan, dayIndex, mealIndex)
	if err != nil {
		return nil, err
	}
	req := planner.RegenerationRequest{DayIndex: dayIndex, MealIndex: mealIndex, CurrentMeal: current}

	res, err := m.gen.RegenerateMeal(ctx, *st.LastPreferences, st.CurrentPlan, req)
	m.record(ctx, res.Meta)
	if err != nil {
		return nil, err
	}

	return m.update(ctx, sessionID, func(st *State) error {
		st.CurrentPlan = res.Plan
		return nil
	})
}

// ToggleLock locks or unlocks item and reports whether it is locked afterwards.
func (m *Manager) ToggleLock(ctx context.Context, sessionID string, item planner.FoodItem) (bool, error) {
	if strings.TrimSpace(item.Food) == "" {
		return false, fmt.Errorf("%w: food name is required", planner.ErrInvalidRequest)
	}
	var locked bool
	_, err := m.update(ctx, sessionID, func(st *State) error {
		locked = st.LockedItems.Toggle(item)
		return nil
	})
	return locked, err
}

// ClearLocks removes every locked item.
func (m *Manager) ClearLocks(ctx context.Context, sessionID string) error {
	_, err := m.update(ctx, sessionID, func(st *State) error {
		st.LockedItems.Clear()
		return nil
	})
	return err
}

// IsLocked reports whether food is locked in the session.
func (m *Manager) IsLocked(ctx context.Context, sessionID, food string) (bool, error) {
	st, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return false, err
	}
	return st.LockedItems.IsLocked(food), nil
}

// ShoppingList returns the shopping list of the current plan.
func (m *Manager) ShoppingList(ctx context.Context, sessionID string) ([]string, error) {
	st, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !st.HasPlan() {
		return nil, planner.ErrNoActivePlan
	}
	return planner.ShoppingList(st.CurrentPlan), nil
}

// Insights returns nutrition insights for the current plan.
func (m *Manager) Insights(ctx context.Context, sessionID string) (planner.Insights, error) {
	st, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return planner.Insights{}, err
	}
	ins, ok := planner.PlanInsights(st.CurrentPlan)
	if !ok {
		return planner.Insights{}, planner.ErrNoActivePlan
	}
	return ins, nil
}

// SavePlan stores the current plan under name, defaulting to a dated name.
func (m *Manager) SavePlan(ctx context.Context, sessionID, name string, tags []string) (*planner.SavedPlan, error) {
	st, err := m.Snapshot(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	if !st.HasPlan() {
		return nil, planner.ErrNoActivePlan
	}

	now := m.now().UTC()
	name = strings.TrimSpace(name)
	if name == "" {
		name = planner.DefaultPlanName(now)
	}
	if tags == nil {
		tags = []string{}
	}

	saved := planner.SavedPlan{
		ID:        uuid.NewString(),
		Name:      name,
		Plan:      st.CurrentPlan.Clone(),
		CreatedAt: now,
		Tags:      tags,
	}
	if st.LastPreferences != nil {
		saved.Preferences = *st.LastPreferences
	}

	if err := m.plans.Save(ctx, sessionID, saved); err != nil {
		return nil, err
	}

	if m.lists != nil {
		if err := m.lists.Save(ctx, sessionID, saved.ID, planner.ShoppingList(saved.Plan)); err != nil {
			// The list can always be recomputed from the saved plan.
			m.logger.Warn("failed to snapshot shopping list", zap.String("plan_id", saved.ID), zap.Error(err))
		}
	}

	m.logger.Info("meal plan saved", zap.String("session", sessionID), zap.String("plan_id", saved.ID), zap.String("name", name))
	return &saved, nil
}

// ListPlans returns the session's saved plans, newest first.
func (m *Manager) ListPlans(ctx context.Context, sessionID string) ([]planner.SavedPlan, error) {
	return m.plans.List(ctx, sessionID)
}

// GetPlan returns one saved plan.
func (m *Manager) GetPlan(ctx context.Context, sessionID, planID string) (*planner.SavedPlan, error) {
	return m.plans.Get(ctx, sessionID, planID)
}

// LoadPlan makes a saved plan the current plan again.
func (m *Manager) LoadPlan(ctx context.Context, sessionID, planID string) (*State, error) {
	saved, err := m.plans.Get(ctx, sessionID, planID)
	if err != nil {
		return nil, err
	}
	prefs := saved.Preferences
	return m.update(ctx, sessionID, func(st *State) error {
		st.CurrentPlan = saved.Plan.Clone()
		st.LastPreferences = &prefs
		return nil
	})
}

// DeletePlan removes a saved plan and its shopping list.
func (m *Manager) DeletePlan(ctx context.Context, sessionID, planID string) error {
	if m.lists != nil {
		if err := m.lists.DeleteByPlan(ctx, sessionID, planID); err != nil {
			return err
		}
	}
	return m.plans.Delete(ctx, sessionID, planID)
}

// ToggleFavorite flips the favorite flag of a saved plan.
func (m *Manager) ToggleFavorite(ctx context.Context, sessionID, planID string) (bool, error) {
	return m.plans.ToggleFavorite(ctx, sessionID, planID)
}

// SavedShoppingList returns the list snapshotted with a saved plan, computing
// it from the plan when no snapshot exists.
func (m *Manager) SavedShoppingList(ctx context.Context, sessionID, planID string) ([]string, error) {
	if m.lists != nil {
		list, err := m.lists.GetByPlan(ctx, sessionID, planID)
		if err == nil {
			return list.Items, nil
		}
		if !errors.Is(err, shopping.ErrNotFound) {
			return nil, err
		}
	}
	saved, err := m.plans.Get(ctx, sessionID, planID)
	if err != nil {
		return nil, err
	}
	return planner.ShoppingList(saved.Plan), nil
}

func (m *Manager) record(ctx context.Context, meta shared.AgentMeta) {
	if m.usage == nil || meta.AgentName == "" {
		return
	}
	if err := m.usage.RecordMeta(ctx, meta); err != nil {
		m.logger.Warn("failed to record usage", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}
