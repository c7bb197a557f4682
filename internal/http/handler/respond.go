package handler

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"inkwell/internal/account"
	"inkwell/internal/writing"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		http.Error(w, "bad json", http.StatusBadRequest)
		return false
	}
	return true
}

// writeError maps domain errors to status codes. Only validation, permission
// and conflict messages are echoed to the client.
func writeError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, writing.ErrValidation):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, account.ErrInvalidCredentials), errors.Is(err, account.ErrUnauthorized):
		http.Error(w, "unauthorized", http.StatusUnauthorized)
	case errors.Is(err, writing.ErrForbidden):
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, writing.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	case errors.Is(err, writing.ErrConflict):
		http.Error(w, err.Error(), http.StatusConflict)
	default:
		http.Error(w, "server error", http.StatusInternalServerError)
	}
}

// parseDate accepts RFC3339 or a bare YYYY-MM-DD. Empty yields nil.
func parseDate(s *string) (*time.Time, bool) {
	if s == nil || strings.TrimSpace(*s) == "" {
		return nil, true
	}
	v := strings.TrimSpace(*s)
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, v); err == nil {
			return &t, true
		}
	}
	return nil, false
}
