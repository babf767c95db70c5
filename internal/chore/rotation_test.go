package chore

import (
	"testing"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

func TestNextAssignee(t *testing.T) {
	members := []model.User{
		{ID: "b", Name: "Bea"},
		{ID: "a", Name: "Ann"},
		{ID: "c", Name: "Cal"},
	}

	tests := []struct {
		name    string
		current *string
		want    string
	}{
		{"unassigned starts at first in order", nil, "a"},
		{"advances to next", ptr("a"), "b"},
		{"middle of rotation", ptr("b"), "c"},
		{"wraps around", ptr("c"), "a"},
		{"departed assignee restarts rotation", ptr("gone"), "a"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NextAssignee(members, tt.current)
			if got == nil {
				t.Fatal("NextAssignee returned nil")
			}
			if got.ID != tt.want {
				t.Errorf("NextAssignee = %s, want %s", got.ID, tt.want)
			}
		})
	}
}

func TestNextAssigneeNoMembers(t *testing.T) {
	if got := NextAssignee(nil, ptr("a")); got != nil {
		t.Errorf("NextAssignee with no members = %v, want nil", got)
	}
}

func TestNextAssigneeDoesNotMutateInput(t *testing.T) {
	members := []model.User{{ID: "c"}, {ID: "a"}, {ID: "b"}}
	NextAssignee(members, nil)
	if members[0].ID != "c" || members[1].ID != "a" || members[2].ID != "b" {
		t.Errorf("input slice was reordered: %v", members)
	}
}

func TestNextDueDate(t *testing.T) {
	day := func(y int, m time.Month, d int) time.Time {
		return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
	}

	tests := []struct {
		name       string
		recurrence string
		last       time.Time
		want       time.Time
	}{
		{"daily", model.RecurrenceDaily, day(2024, 1, 1), day(2024, 1, 2)},
		{"weekly", model.RecurrenceWeekly, day(2024, 1, 1), day(2024, 1, 8)},
		{"bi-weekly", model.RecurrenceBiWeekly, day(2024, 1, 1), day(2024, 1, 15)},
		{"monthly", model.RecurrenceMonthly, day(2024, 1, 15), day(2024, 2, 15)},
		{"monthly clamps to leap february", model.RecurrenceMonthly, day(2024, 1, 31), day(2024, 2, 29)},
		{"monthly clamps to short february", model.RecurrenceMonthly, day(2023, 1, 31), day(2023, 2, 28)},
		{"monthly clamps 31st to 30-day month", model.RecurrenceMonthly, day(2024, 3, 31), day(2024, 4, 30)},
		{"monthly rolls over year end", model.RecurrenceMonthly, day(2024, 12, 31), day(2025, 1, 31)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := NextDueDate(tt.recurrence, tt.last)
			if !ok {
				t.Fatalf("NextDueDate(%s) reported not ok", tt.recurrence)
			}
			if !got.Equal(tt.want) {
				t.Errorf("NextDueDate(%s, %s) = %s, want %s", tt.recurrence, tt.last, got, tt.want)
			}
		})
	}
}

func TestNextDueDateUnknownRecurrence(t *testing.T) {
	if _, ok := NextDueDate(model.RecurrenceNone, time.Now()); ok {
		t.Error("NextDueDate for non-recurring cadence should report ok=false")
	}
	if _, ok := NextDueDate("fortnightly", time.Now()); ok {
		t.Error("NextDueDate for unknown cadence should report ok=false")
	}
}

func TestLastEffectiveDate(t *testing.T) {
	due := time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC)
	completed := time.Date(2024, 3, 5, 0, 0, 0, 0, time.UTC)
	now := time.Date(2024, 3, 10, 0, 0, 0, 0, time.UTC)

	if got := LastEffectiveDate(&due, &completed, now); !got.Equal(due) {
		t.Errorf("due date should win, got %s", got)
	}
	if got := LastEffectiveDate(nil, &completed, now); !got.Equal(completed) {
		t.Errorf("completion time should win when no due date, got %s", got)
	}
	if got := LastEffectiveDate(nil, nil, now); !got.Equal(now) {
		t.Errorf("now should be the fallback, got %s", got)
	}
}

func ptr(s string) *string { return &s }
