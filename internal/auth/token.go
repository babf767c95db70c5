package auth

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

const tokenTTL = 7 * 24 * time.Hour

// Claims is the JWT payload issued at login and verified on every request.
type Claims struct {
	Email       string `json:"email"`
	Role        string `json:"role"`
	HouseholdID string `json:"household_id,omitempty"`
	jwt.RegisteredClaims
}

// Tokens issues and verifies signed bearer tokens.
type Tokens struct {
	secret []byte
}

func NewTokens(secret string) *Tokens {
	return &Tokens{secret: []byte(secret)}
}

// Issue signs a token for the user, embedding role and household so the
// auth middleware can build an AuthContext without a database round trip.
func (t *Tokens) Issue(user *model.User) (string, error) {
	householdID := ""
	if user.HouseholdID != nil {
		householdID = *user.HouseholdID
	}

	claims := Claims{
		Email:       user.Email,
		Role:        user.Role,
		HouseholdID: householdID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   user.ID,
			IssuedAt:  jwt.NewNumericDate(time.Now()),
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(tokenTTL)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(t.secret)
	if err != nil {
		return "", fmt.Errorf("sign token: %w", err)
	}
	return signed, nil
}

// Verify parses and validates a bearer token, returning its claims.
func (t *Tokens) Verify(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(tok *jwt.Token) (any, error) {
		if _, ok := tok.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %q", tok.Header["alg"])
		}
		return t.secret, nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}
	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}
	return claims, nil
}
