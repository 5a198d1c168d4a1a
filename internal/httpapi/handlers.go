package httpapi

import (
	"context"
	"net/http"
	"strconv"

	"ai-diet-planner/internal/auth"
	"ai-diet-planner/internal/metrics"
	"ai-diet-planner/internal/planner"
	"ai-diet-planner/internal/shared"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

// generateRequest is the body of the stateless endpoint. The presence of both
// meal_to_regenerate and existing_meal_plan selects regeneration.
type generateRequest struct {
	planner.Preferences
	MealToRegenerate *planner.RegenerationRequest `json:"meal_to_regenerate,omitempty"`
	ExistingMealPlan planner.Plan                 `json:"existing_meal_plan,omitempty"`
}

type planResponse struct {
	MealPlan planner.Plan `json:"mealPlan"`
}

type regenerateRequest struct {
	DayIndex  int `json:"day_index"`
	MealIndex int `json:"meal_index"`
}

type lockResponse struct {
	Food   string `json:"food"`
	Locked bool   `json:"locked"`
}

type savePlanRequest struct {
	Name string   `json:"name"`
	Tags []string `json:"tags"`
}

type favoriteResponse struct {
	ID         string `json:"id"`
	IsFavorite bool   `json:"isFavorite"`
}

type shoppingListResponse struct {
	Items []string `json:"items"`
}

func (s *Server) handleGenerateMealPlan(w http.ResponseWriter, r *http.Request) {
	var req generateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}

	ctx := r.Context()
	var (
		res planner.Result
		err error
	)
	if req.MealToRegenerate != nil && len(req.ExistingMealPlan) > 0 {
		res, err = s.gen.RegenerateMeal(ctx, req.Preferences, req.ExistingMealPlan, *req.MealToRegenerate)
	} else {
		res, err = s.gen.GeneratePlan(ctx, req.Preferences, req.LockedItems)
	}
	s.record(ctx, res.Meta)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, planResponse{MealPlan: res.Plan})
}

func (s *Server) record(ctx context.Context, meta shared.AgentMeta) {
	if s.recorder == nil || meta.AgentName == "" {
		return
	}
	if err := s.recorder.RecordMeta(ctx, meta); err != nil {
		s.logger.Warn("failed to record usage", zap.String("agent", meta.AgentName), zap.Error(err))
	}
}

func (s *Server) handleGetSession(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.Snapshot(r.Context(), auth.SessionID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleResetSession(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.Reset(r.Context(), auth.SessionID(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionGenerate(w http.ResponseWriter, r *http.Request) {
	var prefs planner.Preferences
	if err := decodeJSON(w, r, &prefs); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	st, err := s.sessions.Generate(r.Context(), auth.SessionID(r.Context()), prefs)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSessionRegenerate(w http.ResponseWriter, r *http.Request) {
	var req regenerateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	st, err := s.sessions.Regenerate(r.Context(), auth.SessionID(r.Context()), req.DayIndex, req.MealIndex)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleToggleLock(w http.ResponseWriter, r *http.Request) {
	var item planner.FoodItem
	if err := decodeJSON(w, r, &item); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	locked, err := s.sessions.ToggleLock(r.Context(), auth.SessionID(r.Context()), item)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, lockResponse{Food: item.Food, Locked: locked})
}

func (s *Server) handleClearLocks(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.ClearLocks(r.Context(), auth.SessionID(r.Context())); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleSessionShoppingList(w http.ResponseWriter, r *http.Request) {
	items, err := s.sessions.ShoppingList(r.Context(), auth.SessionID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shoppingListResponse{Items: items})
}

func (s *Server) handleSessionInsights(w http.ResponseWriter, r *http.Request) {
	ins, err := s.sessions.Insights(r.Context(), auth.SessionID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, ins)
}

func (s *Server) handleListPlans(w http.ResponseWriter, r *http.Request) {
	plans, err := s.sessions.ListPlans(r.Context(), auth.SessionID(r.Context()))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if plans == nil {
		plans = []planner.SavedPlan{}
	}
	writeJSON(w, http.StatusOK, plans)
}

func (s *Server) handleSavePlan(w http.ResponseWriter, r *http.Request) {
	var req savePlanRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body.")
		return
	}
	saved, err := s.sessions.SavePlan(r.Context(), auth.SessionID(r.Context()), req.Name, req.Tags)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, saved)
}

func (s *Server) handleGetPlan(w http.ResponseWriter, r *http.Request) {
	saved, err := s.sessions.GetPlan(r.Context(), auth.SessionID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, saved)
}

func (s *Server) handleDeletePlan(w http.ResponseWriter, r *http.Request) {
	if err := s.sessions.DeletePlan(r.Context(), auth.SessionID(r.Context()), chi.URLParam(r, "id")); err != nil {
		s.fail(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleToggleFavorite(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	fav, err := s.sessions.ToggleFavorite(r.Context(), auth.SessionID(r.Context()), id)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, favoriteResponse{ID: id, IsFavorite: fav})
}

func (s *Server) handleLoadPlan(w http.ResponseWriter, r *http.Request) {
	st, err := s.sessions.LoadPlan(r.Context(), auth.SessionID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, st)
}

func (s *Server) handleSavedShoppingList(w http.ResponseWriter, r *http.Request) {
	items, err := s.sessions.SavedShoppingList(r.Context(), auth.SessionID(r.Context()), chi.URLParam(r, "id"))
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, shoppingListResponse{Items: items})
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, metrics.GetSysHealth(s.dataDir))
}

func (s *Server) handleUsage(w http.ResponseWriter, r *http.Request) {
	days := 7
	if v := r.URL.Query().Get("days"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n < 1 || n > 365 {
			writeError(w, http.StatusBadRequest, "days must be between 1 and 365.")
			return
		}
		days = n
	}
	usage, err := s.usage.GetDailyUsage(r.Context(), days)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if usage == nil {
		usage = []metrics.DailyUsage{}
	}
	writeJSON(w, http.StatusOK, usage)
}
