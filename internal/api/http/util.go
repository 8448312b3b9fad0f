package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/mind-engage/motorskill/internal/assessment"
	auth "github.com/mind-engage/motorskill/internal/auth/middleware"
)

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func parseIntDefault(s string, def int) int {
	if s == "" {
		return def
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return def
	}
	return n
}

func truthy(s string) bool {
	b, err := strconv.ParseBool(s)
	return err == nil && b
}

// recordKey reads {subjectID} and {date} from the route.
func recordKey(r *http.Request) (string, time.Time, error) {
	id := chi.URLParam(r, "subjectID")
	if id == "" {
		return "", time.Time{}, errors.New("subject id required")
	}
	date, err := assessment.ParseDate(chi.URLParam(r, "date"))
	if err != nil {
		return "", time.Time{}, err
	}
	return id, date, nil
}

// storeError maps store errors to statuses; it reports whether one was written.
func storeError(w http.ResponseWriter, err error) bool {
	switch {
	case err == nil:
		return false
	case errors.Is(err, assessment.ErrNotFound):
		http.Error(w, "not found", http.StatusNotFound)
	default:
		http.Error(w, "store error: "+err.Error(), http.StatusInternalServerError)
	}
	return true
}

func actor(r *http.Request) string { return auth.SubjectFromContext(r.Context()) }
