package model

import "time"

const (
	CalendarEventChore   = "chore"
	CalendarEventExpense = "expense"
)

// CalendarEvent is a merged chore/expense entry for the household calendar.
type CalendarEvent struct {
	ID            string         `json:"id"`
	Title         string         `json:"title"`
	Start         time.Time      `json:"start"`
	End           time.Time      `json:"end"`
	AllDay        bool           `json:"all_day"`
	Type          string         `json:"type"`
	Color         string         `json:"color"`
	ExtendedProps map[string]any `json:"extended_props,omitempty"`
}
