package auth

import (
	"context"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

type contextKey struct{}

// AuthContext carries the authenticated user through the request context.
type AuthContext struct {
	UserID      string
	Email       string
	Name        string
	Role        string
	HouseholdID string // empty when the user has no household yet
}

func WithAuth(ctx context.Context, ac AuthContext) context.Context {
	return context.WithValue(ctx, contextKey{}, ac)
}

func FromContext(ctx context.Context) (AuthContext, bool) {
	ac, ok := ctx.Value(contextKey{}).(AuthContext)
	return ac, ok
}

func UserID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.UserID
}

func HouseholdID(ctx context.Context) string {
	ac, ok := FromContext(ctx)
	if !ok {
		return ""
	}
	return ac.HouseholdID
}

func IsOwner(ctx context.Context) bool {
	ac, ok := FromContext(ctx)
	if !ok {
		return false
	}
	return ac.Role == model.RoleOwner
}
