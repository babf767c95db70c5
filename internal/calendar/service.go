package calendar

import (
	"errors"
	"fmt"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

// ErrNoHousehold means the acting user does not belong to a household.
var ErrNoHousehold = errors.New("user does not belong to a household")

// Event colors: pending chores blue, completed chores gray, expenses green.
const (
	colorChorePending  = "#4299E1"
	colorChoreComplete = "#A0AEC0"
	colorExpense       = "#48BB78"
)

// Service merges chores and expenses into a single calendar view.
type Service struct {
	chores   *store.ChoreStore
	expenses *store.ExpenseStore
	users    *store.UserStore
}

func NewService(chores *store.ChoreStore, expenses *store.ExpenseStore, users *store.UserStore) *Service {
	return &Service{chores: chores, expenses: expenses, users: users}
}

// Events returns all-day events for the household's chores due and expenses
// dated within [start, end].
func (s *Service) Events(actor *model.User, start, end time.Time) ([]model.CalendarEvent, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	householdID := *actor.HouseholdID

	chores, err := s.chores.ListDueBetween(householdID, start, end)
	if err != nil {
		return nil, err
	}
	expenses, err := s.expenses.ListByDateRange(householdID, start, end)
	if err != nil {
		return nil, err
	}

	events := make([]model.CalendarEvent, 0, len(chores)+len(expenses))
	for _, c := range chores {
		if c.DueDate == nil {
			continue
		}
		color := colorChorePending
		if c.IsComplete {
			color = colorChoreComplete
		}
		title := c.Description
		if title == "" {
			title = "Chore"
		}
		events = append(events, model.CalendarEvent{
			ID:     fmt.Sprintf("chore-%s", c.ID),
			Title:  title,
			Start:  *c.DueDate,
			End:    *c.DueDate,
			AllDay: true,
			Type:   model.CalendarEventChore,
			Color:  color,
			ExtendedProps: map[string]any{
				"choreId":     c.ID,
				"description": c.Description,
				"isComplete":  c.IsComplete,
			},
		})
	}

	for _, e := range expenses {
		title := e.Description
		if title == "" {
			title = "Expense"
		}
		paidByName := ""
		if u, err := s.users.GetByID(e.PaidByID); err == nil && u != nil {
			paidByName = u.DisplayName()
		}
		events = append(events, model.CalendarEvent{
			ID:     fmt.Sprintf("expense-%s", e.ID),
			Title:  title,
			Start:  e.Date,
			End:    e.Date,
			AllDay: true,
			Type:   model.CalendarEventExpense,
			Color:  colorExpense,
			ExtendedProps: map[string]any{
				"expenseId":   e.ID,
				"description": e.Description,
				"amount":      e.Amount,
				"paidByName":  paidByName,
			},
		})
	}
	return events, nil
}
