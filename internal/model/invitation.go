package model

import "time"

const (
	InvitationPending   = "pending"
	InvitationAccepted  = "accepted"
	InvitationDeclined  = "declined"
	InvitationExpired   = "expired"
	InvitationCancelled = "cancelled"
)

type Invitation struct {
	ID               string     `json:"id"`
	HouseholdID      string     `json:"household_id"`
	Email            *string    `json:"email"`
	InvitedByID      string     `json:"invited_by_id"`
	Token            string     `json:"-"`
	ShortCode        *string    `json:"short_code,omitempty"`
	Status           string     `json:"status"`
	ExpiresAt        time.Time  `json:"expires_at"`
	AcceptedAt       *time.Time `json:"accepted_at"`
	AcceptedByUserID *string    `json:"accepted_by_user_id"`
	CreatedAt        time.Time  `json:"created_at"`
	UpdatedAt        time.Time  `json:"updated_at"`
}
