package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"ai-diet-planner/internal/planner"

	"go.uber.org/zap"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads the request body into v. An empty body leaves v untouched.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err := dec.Decode(v); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// fail maps a pipeline error onto a status code and a message safe to show users.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, msg := classify(err)
	fields := []zap.Field{
		zap.String("path", r.URL.Path),
		zap.Int("status", status),
		zap.Error(err),
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("request failed", fields...)
	} else {
		s.logger.Info("request rejected", fields...)
	}
	writeError(w, status, msg)
}

// classify picks the status for err; the message comes from planner.UserMessage.
func classify(err error) (int, string) {
	msg := planner.UserMessage(err)
	switch {
	case errors.Is(err, planner.ErrInvalidRequest), errors.Is(err, planner.ErrIndexOutOfRange):
		return http.StatusBadRequest, msg
	case errors.Is(err, planner.ErrNoActivePlan):
		return http.StatusConflict, msg
	case errors.Is(err, planner.ErrPlanNotFound):
		return http.StatusNotFound, msg
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, msg
	case errors.Is(err, planner.ErrNoJSON),
		errors.Is(err, planner.ErrMalformedResponse),
		errors.Is(err, planner.ErrInvalidPlanFormat),
		errors.Is(err, planner.ErrGenerationFailed):
		return http.StatusBadGateway, msg
	default:
		return http.StatusInternalServerError, msg
	}
}
