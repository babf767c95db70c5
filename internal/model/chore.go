package model

import "time"

// Recurrence cadence values for chores. Anything else is treated as
// non-recurring by the rotation engine.
const (
	RecurrenceNone     = "none"
	RecurrenceDaily    = "daily"
	RecurrenceWeekly   = "weekly"
	RecurrenceBiWeekly = "bi-weekly"
	RecurrenceMonthly  = "monthly"
)

// IsRecurring reports whether the value names a repeating cadence.
func IsRecurring(recurrence string) bool {
	switch recurrence {
	case RecurrenceDaily, RecurrenceWeekly, RecurrenceBiWeekly, RecurrenceMonthly:
		return true
	}
	return false
}

// ValidRecurrence reports whether the value is one of the known cadences.
func ValidRecurrence(recurrence string) bool {
	return recurrence == RecurrenceNone || IsRecurring(recurrence)
}

type Chore struct {
	ID            string     `json:"id"`
	HouseholdID   string     `json:"household_id"`
	Description   string     `json:"description"`
	Notes         *string    `json:"notes"`
	IsComplete    bool       `json:"is_complete"`
	DueDate       *time.Time `json:"due_date"`
	Recurrence    string     `json:"recurrence"`
	AssignedToID  *string    `json:"assigned_to_id"`
	CompletedByID *string    `json:"completed_by_id"`
	CompletedAt   *time.Time `json:"completed_at"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// ChoreCounts summarizes completion progress for a household.
type ChoreCounts struct {
	Total     int `json:"total"`
	Completed int `json:"completed"`
	Pending   int `json:"pending"`
}
