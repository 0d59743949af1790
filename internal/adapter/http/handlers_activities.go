package adapthttp

import (
	"net/http"
	"time"

	"ecotrack/internal/app"
)

func (s *Server) handleActivities(w http.ResponseWriter, r *http.Request) {
	user := userFrom(r)
	ctx := r.Context()

	switch r.Method {
	case http.MethodGet:
		limit := intQuery(r, "limit", 20)
		items, err := s.activities.ListRecent(ctx, user.ID, limit)
		if err != nil {
			writeError(w, http.StatusInternalServerError, err)
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{"items": items})

	case http.MethodPost:
		var body app.RecordActivityInput
		if err := parseJSON(r, &body); err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		activity, err := s.activities.Record(ctx, user.ID, body, time.Now())
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeJSON(w, http.StatusCreated, map[string]any{"activity": activity})

	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func (s *Server) handleActivitiesUndoLast(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	user := userFrom(r)
	deleted, err := s.activities.UndoLast(r.Context(), user.ID)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"ok": true, "deleted": deleted})
}
