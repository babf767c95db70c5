package model

import "time"

type Household struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// HouseholdWithMembers carries a household together with its member users,
// as returned to clients and consumed by the rotation engine.
type HouseholdWithMembers struct {
	Household
	Members []User `json:"members"`
}
