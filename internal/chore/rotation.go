package chore

import (
	"sort"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

// SortMembers orders household members by ID ascending. Rotation order is
// defined by this ordering, not by storage return order, so the sequence is
// reproducible across runs.
func SortMembers(members []model.User) []model.User {
	sorted := make([]model.User, len(members))
	copy(sorted, members)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })
	return sorted
}

// NextAssignee picks the member after the current assignee in the sorted
// rotation order. An unassigned chore, or an assignee who has left the
// household, resolves to index -1 and wraps to the first member. Returns
// nil when there are no members.
func NextAssignee(members []model.User, currentID *string) *model.User {
	if len(members) == 0 {
		return nil
	}
	sorted := SortMembers(members)

	currentIndex := -1
	if currentID != nil {
		for i, m := range sorted {
			if m.ID == *currentID {
				currentIndex = i
				break
			}
		}
	}
	return &sorted[(currentIndex+1)%len(sorted)]
}

// LastEffectiveDate picks the base date for the next cycle: the due date if
// set, otherwise the completion time, otherwise now.
func LastEffectiveDate(dueDate, completedAt *time.Time, now time.Time) time.Time {
	if dueDate != nil {
		return *dueDate
	}
	if completedAt != nil {
		return *completedAt
	}
	return now
}

// NextDueDate advances last by one recurrence period. Monthly adds one
// calendar month with the day clamped to the target month's length, so
// Jan 31 advances to Feb 29 in a leap year rather than Mar 2. An
// unrecognized recurrence reports ok=false and the caller keeps the
// existing due date.
func NextDueDate(recurrence string, last time.Time) (next time.Time, ok bool) {
	switch recurrence {
	case model.RecurrenceDaily:
		return last.AddDate(0, 0, 1), true
	case model.RecurrenceWeekly:
		return last.AddDate(0, 0, 7), true
	case model.RecurrenceBiWeekly:
		return last.AddDate(0, 0, 14), true
	case model.RecurrenceMonthly:
		return addMonthClamped(last), true
	}
	return time.Time{}, false
}

// addMonthClamped adds one calendar month, clamping the day of month
// instead of letting time.AddDate normalize overflow into the next month.
func addMonthClamped(t time.Time) time.Time {
	year, month, day := t.Date()
	month++
	if month > time.December {
		month = time.January
		year++
	}
	if last := daysInMonth(year, month); day > last {
		day = last
	}
	return time.Date(year, month, day, t.Hour(), t.Minute(), t.Second(), t.Nanosecond(), t.Location())
}

func daysInMonth(year int, month time.Month) int {
	// Day 0 of the following month is the last day of this one.
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
