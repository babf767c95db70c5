package model

import "time"

// Activity types recorded in the household audit log.
const (
	ActivityChoreCreated    = "CHORE_CREATED"
	ActivityChoreCompleted  = "CHORE_COMPLETED"
	ActivityChoreUpdated    = "CHORE_UPDATED"
	ActivityChoreDeleted    = "CHORE_DELETED"
	ActivityChoreAssigned   = "CHORE_ASSIGNED"
	ActivityChoreUnassigned = "CHORE_UNASSIGNED"
	ActivityChoreRotated    = "CHORE_ROTATED"

	ActivityExpenseCreated        = "EXPENSE_CREATED"
	ActivityExpenseUpdated        = "EXPENSE_UPDATED"
	ActivityExpenseDeleted        = "EXPENSE_DELETED"
	ActivityExpenseShareSettled   = "EXPENSE_SHARE_SETTLED"
	ActivityExpenseShareUnsettled = "EXPENSE_SHARE_UNSETTLED"

	ActivityHouseholdCreated       = "HOUSEHOLD_CREATED"
	ActivityHouseholdUpdated       = "HOUSEHOLD_UPDATED"
	ActivityHouseholdMemberAdded   = "HOUSEHOLD_MEMBER_ADDED"
	ActivityHouseholdMemberRemoved = "HOUSEHOLD_MEMBER_REMOVED"
)

// ActivityLog is one audit entry. Details is an open key/value payload
// whose shape depends on the activity type.
type ActivityLog struct {
	ID           string         `json:"id"`
	HouseholdID  string         `json:"household_id"`
	ActorID      *string        `json:"actor_id"`
	ActorName    string         `json:"actor_name,omitempty"`
	EntityID     string         `json:"entity_id"`
	EntityType   string         `json:"entity_type"`
	ActivityType string         `json:"activity_type"`
	Details      map[string]any `json:"details,omitempty"`
	CreatedAt    time.Time      `json:"created_at"`
}

// ActivityPage is a paginated slice of the household audit log.
type ActivityPage struct {
	Logs       []ActivityLog `json:"logs"`
	Total      int           `json:"total"`
	Page       int           `json:"page"`
	Limit      int           `json:"limit"`
	TotalPages int           `json:"total_pages"`
}
