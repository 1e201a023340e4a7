package adapthttp

import (
	"errors"
	"net/http"

	"zerohunger/internal/app"
)

type resourceRequest struct {
	Name     string `json:"name"`
	Phone    string `json:"phone"`
	Email    string `json:"email"`
	Location string `json:"location"`
	FoodType string `json:"food_type"`
	Quantity string `json:"quantity"`
	Notes    string `json:"notes"`
}

func (s *Server) handleResourceCreate(w http.ResponseWriter, r *http.Request) {
	var req resourceRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid JSON format")
		return
	}

	id, err := s.resources.Submit(r.Context(), app.ResourceSubmission(req))
	var verr *app.ValidationError
	if errors.As(err, &verr) {
		writeError(w, http.StatusBadRequest, verr.Message)
		return
	}
	if err != nil {
		s.writeServerError(w, r, "Database error", err)
		return
	}

	s.metrics.ResourceSubmitted()
	writeJSON(w, http.StatusCreated, map[string]any{
		"success": true,
		"id":      id,
		"message": "Resource submitted successfully",
	})
}

func (s *Server) handleResourceList(w http.ResponseWriter, r *http.Request) {
	items, err := s.resources.List(r.Context())
	if err != nil {
		s.writeServerError(w, r, "Database error", err)
		return
	}
	if u := userFromContext(r.Context()); u != nil {
		s.log.Debug().Int64("user_id", u.ID).Int("count", len(items)).Msg("resources listed")
	}
	writeJSON(w, http.StatusOK, items)
}
