package handler

import (
	"encoding/json"
	"net/http"

	"github.com/haldaranup/Rent-Mate/internal/auth"
	"github.com/haldaranup/Rent-Mate/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// actorFromRequest rebuilds the acting user from the auth middleware's
// context. The zero-value second return means the route was mounted
// without RequireAuth, which is a wiring bug.
func actorFromRequest(r *http.Request) (*model.User, bool) {
	ac, ok := auth.FromContext(r.Context())
	if !ok {
		return nil, false
	}
	u := &model.User{
		ID:    ac.UserID,
		Email: ac.Email,
		Name:  ac.Name,
		Role:  ac.Role,
	}
	if ac.HouseholdID != "" {
		hid := ac.HouseholdID
		u.HouseholdID = &hid
	}
	return u, true
}
