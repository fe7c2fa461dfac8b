package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"blog/backend/internal/outcome"
)

type errorBody struct {
	Error string `json:"error,omitempty"`
}

type validationBody struct {
	Errors []outcome.FieldError `json:"errors"`
}

type messageBody struct {
	Message  string   `json:"message"`
	Warnings []string `json:"warnings,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// writeError maps an operation error onto its status code.
func (s *Server) writeError(w http.ResponseWriter, r *http.Request, err error) {
	var verr *outcome.ValidationError
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusBadRequest, validationBody{Errors: verr.Fields})
	case errors.Is(err, outcome.ErrNotFound):
		writeJSON(w, http.StatusNotFound, errorBody{Error: "Not found."})
	case errors.Is(err, outcome.ErrUnauthorized):
		writeJSON(w, http.StatusUnauthorized, errorBody{Error: "Request unauthorized."})
	case errors.Is(err, outcome.ErrForbidden):
		writeJSON(w, http.StatusForbidden, errorBody{Error: "Request forbidden."})
	case errors.Is(err, errBodyTooLarge):
		writeJSON(w, http.StatusRequestEntityTooLarge, errorBody{Error: "Request body too large."})
	case errors.Is(err, outcome.ErrConflict):
		writeJSON(w, http.StatusConflict, errorBody{Error: "Already exists."})
	default:
		s.logger.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		writeJSON(w, http.StatusInternalServerError, errorBody{Error: "Internal server error."})
	}
}
