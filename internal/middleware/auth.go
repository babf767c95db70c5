package middleware

import (
	"net/http"
	"strings"

	"github.com/haldaranup/Rent-Mate/internal/auth"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

// RequireAuth validates the bearer token and populates AuthContext. The
// user is reloaded from storage so role and household reflect changes made
// after the token was issued (joining a household, being removed).
func RequireAuth(tokens *auth.Tokens, userStore *store.UserStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := bearerToken(r)
			if token == "" {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			claims, err := tokens.Verify(token)
			if err != nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			user, err := userStore.GetByID(claims.Subject)
			if err != nil || user == nil {
				http.Error(w, "unauthorized", http.StatusUnauthorized)
				return
			}

			householdID := ""
			if user.HouseholdID != nil {
				householdID = *user.HouseholdID
			}
			ac := auth.AuthContext{
				UserID:      user.ID,
				Email:       user.Email,
				Name:        user.Name,
				Role:        user.Role,
				HouseholdID: householdID,
			}

			ctx := auth.WithAuth(r.Context(), ac)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

// RequireOwner checks that the authenticated user holds the owner role.
func RequireOwner(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !auth.IsOwner(r.Context()) {
			http.Error(w, "forbidden", http.StatusForbidden)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func bearerToken(r *http.Request) string {
	h := r.Header.Get("Authorization")
	if strings.HasPrefix(h, "Bearer ") {
		return strings.TrimPrefix(h, "Bearer ")
	}
	// Browsers cannot set headers on websocket upgrades; accept the token
	// as a query parameter there.
	return r.URL.Query().Get("token")
}
