package handler

import (
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/haldaranup/Rent-Mate/internal/auth"
	"github.com/haldaranup/Rent-Mate/internal/database"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

func setupAuthHandler(t *testing.T) (*AuthHandler, *store.UserStore) {
	t.Helper()
	db, err := database.Open(":memory:")
	if err != nil {
		t.Fatalf("open test db: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	users := store.NewUserStore(db)
	tokens := auth.NewTokens("test-secret")
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAuthHandler(users, tokens, logger), users
}

func postJSON(t *testing.T, h http.HandlerFunc, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest("POST", "/", strings.NewReader(body))
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestRegister(t *testing.T) {
	h, users := setupAuthHandler(t)

	rec := postJSON(t, h.Register, `{"email":"Alice@Example.com","name":"Alice","password":"hunter2222"}`)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusCreated, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
		User  struct {
			Email string `json:"email"`
		} `json:"user"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
	if resp.User.Email != "alice@example.com" {
		t.Errorf("email = %q, want lowercased %q", resp.User.Email, "alice@example.com")
	}

	u, err := users.GetByEmail("alice@example.com")
	if err != nil || u == nil {
		t.Fatalf("user not persisted: %v", err)
	}
	if u.PasswordHash == "hunter2222" {
		t.Error("password stored in plaintext")
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _ := setupAuthHandler(t)

	cases := []struct {
		name string
		body string
		want int
	}{
		{"bad email", `{"email":"not-an-email","name":"x","password":"hunter2222"}`, http.StatusBadRequest},
		{"short password", `{"email":"a@b.com","name":"x","password":"short"}`, http.StatusBadRequest},
		{"bad json", `{`, http.StatusBadRequest},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			rec := postJSON(t, h.Register, tc.body)
			if rec.Code != tc.want {
				t.Errorf("status = %d, want %d", rec.Code, tc.want)
			}
		})
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _ := setupAuthHandler(t)

	body := `{"email":"dup@example.com","name":"First","password":"hunter2222"}`
	if rec := postJSON(t, h.Register, body); rec.Code != http.StatusCreated {
		t.Fatalf("first register status = %d", rec.Code)
	}
	if rec := postJSON(t, h.Register, body); rec.Code != http.StatusConflict {
		t.Errorf("second register status = %d, want %d", rec.Code, http.StatusConflict)
	}
}

func TestLogin(t *testing.T) {
	h, _ := setupAuthHandler(t)

	postJSON(t, h.Register, `{"email":"bob@example.com","name":"Bob","password":"hunter2222"}`)

	rec := postJSON(t, h.Login, `{"email":"bob@example.com","password":"hunter2222"}`)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d: %s", rec.Code, http.StatusOK, rec.Body.String())
	}

	var resp struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.Token == "" {
		t.Error("expected a token")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	h, _ := setupAuthHandler(t)

	postJSON(t, h.Register, `{"email":"carol@example.com","name":"Carol","password":"hunter2222"}`)

	// Unknown email and wrong password must be indistinguishable.
	wrongPass := postJSON(t, h.Login, `{"email":"carol@example.com","password":"wrong-password"}`)
	unknown := postJSON(t, h.Login, `{"email":"nobody@example.com","password":"hunter2222"}`)

	if wrongPass.Code != http.StatusUnauthorized {
		t.Errorf("wrong password status = %d, want %d", wrongPass.Code, http.StatusUnauthorized)
	}
	if unknown.Code != http.StatusUnauthorized {
		t.Errorf("unknown email status = %d, want %d", unknown.Code, http.StatusUnauthorized)
	}
	if wrongPass.Body.String() != unknown.Body.String() {
		t.Errorf("responses differ: %q vs %q", wrongPass.Body.String(), unknown.Body.String())
	}
}

func TestMe(t *testing.T) {
	h, users := setupAuthHandler(t)

	u, err := users.Create("dave@example.com", "Dave", "hash")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	req := httptest.NewRequest("GET", "/api/me", nil)
	req = req.WithContext(auth.WithAuth(req.Context(), auth.AuthContext{
		UserID: u.ID,
		Email:  u.Email,
		Name:   u.Name,
		Role:   u.Role,
	}))
	rec := httptest.NewRecorder()
	h.Me(rec, req)

	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want %d", rec.Code, http.StatusOK)
	}
	var resp struct {
		ID    string `json:"id"`
		Email string `json:"email"`
	}
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decode response: %v", err)
	}
	if resp.ID != u.ID || resp.Email != u.Email {
		t.Errorf("got %+v, want id=%s email=%s", resp, u.ID, u.Email)
	}
}
