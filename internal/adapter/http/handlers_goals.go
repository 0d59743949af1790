package adapthttp

import (
	"errors"
	"net/http"
	"time"

	"ecotrack/internal/app"
)

func (s *Server) handleGoals(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		items, err := s.goals.List(ctx, user.ID, time.Now())
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body app.CreateGoalInput
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		goal, err := s.goals.Create(ctx, user.ID, body, time.Now())
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"goal": goal})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleGoalProgress(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r)

	var body struct {
		Value float64 `json:"value"`
	}
	if err := parseJSON(r, &body); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	goal, err := s.goals.UpdateProgress(r.Context(), user.ID, r.PathValue("id"), body.Value, time.Now())
	if errors.Is(err, app.ErrGoalNotFound) {
		writeError(w, http.StatusNotFound, err)
		return
	}
	if errors.Is(err, app.ErrInvalidValue) {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"goal": goal})
}

func (s *Server) handleGoalStats(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r)
	stats, err := s.goals.StatsOverview(r.Context(), user.ID, time.Now())
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, stats)
}
