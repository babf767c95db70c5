package middleware

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/haldaranup/Rent-Mate/internal/auth"
	"github.com/haldaranup/Rent-Mate/internal/database"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

func setupAuthMiddleware(t *testing.T) (*auth.Tokens, *store.UserStore, *store.HouseholdStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	return auth.NewTokens("test-secret"), store.NewUserStore(db), store.NewHouseholdStore(db)
}

func TestRequireAuthNoToken(t *testing.T) {
	tokens, users, _ := setupAuthMiddleware(t)

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthInvalidToken(t *testing.T) {
	tokens, users, _ := setupAuthMiddleware(t)

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer not-a-token")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusUnauthorized {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusUnauthorized)
	}
}

func TestRequireAuthValidToken(t *testing.T) {
	tokens, users, households := setupAuthMiddleware(t)

	u, err := users.Create("alice@example.com", "Alice", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	h, err := households.Create("Flat")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	u, err = users.SetHousehold(u.ID, &h.ID, model.RoleOwner)
	if err != nil {
		t.Fatalf("set household: %v", err)
	}
	token, err := tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		ac, ok := auth.FromContext(r.Context())
		if !ok {
			t.Fatal("expected AuthContext in request context")
		}
		gotAC = ac
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	if gotAC.UserID != u.ID {
		t.Errorf("UserID = %s, want %s", gotAC.UserID, u.ID)
	}
	if gotAC.HouseholdID != h.ID {
		t.Errorf("HouseholdID = %s, want %s", gotAC.HouseholdID, h.ID)
	}
	if gotAC.Role != model.RoleOwner {
		t.Errorf("Role = %q, want owner", gotAC.Role)
	}
}

func TestRequireAuthReflectsCurrentState(t *testing.T) {
	tokens, users, households := setupAuthMiddleware(t)

	// Token issued before the user joined a household; the middleware must
	// pick up the current household from storage.
	u, err := users.Create("bob@example.com", "Bob", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}
	h, err := households.Create("Flat")
	if err != nil {
		t.Fatalf("create household: %v", err)
	}
	if _, err := users.SetHousehold(u.ID, &h.ID, model.RoleMember); err != nil {
		t.Fatalf("set household: %v", err)
	}

	var gotAC auth.AuthContext
	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAC, _ = auth.FromContext(r.Context())
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if gotAC.HouseholdID != h.ID {
		t.Errorf("HouseholdID = %q, want %s from current storage state", gotAC.HouseholdID, h.ID)
	}
}

func TestRequireAuthTokenFromQuery(t *testing.T) {
	tokens, users, _ := setupAuthMiddleware(t)

	u, err := users.Create("carol@example.com", "Carol", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}
	token, err := tokens.Issue(u)
	if err != nil {
		t.Fatalf("issue token: %v", err)
	}

	handler := RequireAuth(tokens, users)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest("GET", "/ws?token="+token, nil)
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	if rec.Code != http.StatusOK {
		t.Errorf("status = %d, want %d", rec.Code, http.StatusOK)
	}
}

func TestRequireOwner(t *testing.T) {
	okHandler := RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	ctx := auth.WithAuth(context.Background(), auth.AuthContext{Role: model.RoleOwner})
	req := httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec := httptest.NewRecorder()
	okHandler.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Errorf("owner status = %d, want %d", rec.Code, http.StatusOK)
	}

	forbidden := RequireOwner(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		t.Fatal("should not reach handler")
	}))
	ctx = auth.WithAuth(context.Background(), auth.AuthContext{Role: model.RoleMember})
	req = httptest.NewRequest("GET", "/", nil).WithContext(ctx)
	rec = httptest.NewRecorder()
	forbidden.ServeHTTP(rec, req)
	if rec.Code != http.StatusForbidden {
		t.Errorf("member status = %d, want %d", rec.Code, http.StatusForbidden)
	}
}
