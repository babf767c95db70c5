package expense

import (
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/activity"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

const (
	entityTypeExpense = "Expense"
	entityTypeShare   = "ExpenseShare"
)

// Service owns expense lifecycle: creation with an equal-or-custom share
// split, updates, per-share settlement, and the derived balance ledger.
type Service struct {
	expenses   *store.ExpenseStore
	households *store.HouseholdStore
	users      *store.UserStore
	activity   *activity.Recorder
	logger     *slog.Logger
}

func NewService(expenses *store.ExpenseStore, households *store.HouseholdStore, users *store.UserStore, rec *activity.Recorder, logger *slog.Logger) *Service {
	return &Service{
		expenses:   expenses,
		households: households,
		users:      users,
		activity:   rec,
		logger:     logger,
	}
}

// ShareInput is one member's cut of an expense.
type ShareInput struct {
	OwedByID   string  `json:"owed_by_id"`
	AmountOwed float64 `json:"amount_owed"`
}

// CreateInput holds the fields for a new expense.
type CreateInput struct {
	Description string
	Amount      float64
	Date        time.Time
	PaidByID    string
	Shares      []ShareInput
}

// Create validates the split and writes the expense with its shares. The
// payer's own share, if present, is settled immediately since nobody owes
// themselves money.
func (s *Service) Create(in CreateInput, actor *model.User) (*model.Expense, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	household, err := s.households.GetWithMembers(*actor.HouseholdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, fmt.Errorf("%w: household %s not found", ErrIntegrity, *actor.HouseholdID)
	}

	if in.PaidByID == "" {
		return nil, ErrPayerRequired
	}
	if !isMember(household.Members, in.PaidByID) {
		return nil, fmt.Errorf("%w: payer %s", ErrNotMember, in.PaidByID)
	}

	params, err := buildShares(household.Members, in.Shares, in.Amount, in.PaidByID)
	if err != nil {
		return nil, err
	}

	e, err := s.expenses.Create(household.ID, in.Description, in.Amount, in.Date, in.PaidByID, params)
	if err != nil {
		return nil, err
	}

	s.activity.Record(e.HouseholdID, &actor.ID, e.ID, entityTypeExpense, model.ActivityExpenseCreated, map[string]any{
		"description": e.Description,
		"amount":      e.Amount,
		"paidById":    e.PaidByID,
		"numShares":   len(e.Shares),
	})
	return e, nil
}

// Get loads an expense and verifies the actor may see it.
func (s *Service) Get(id string, actor *model.User) (*model.Expense, error) {
	e, err := s.expenses.GetByID(id)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, ErrNotFound
	}
	if e.HouseholdID == "" {
		return nil, fmt.Errorf("%w: expense %s has no household", ErrIntegrity, e.ID)
	}
	if actor.HouseholdID == nil || *actor.HouseholdID != e.HouseholdID {
		return nil, ErrForbidden
	}
	return e, nil
}

func (s *Service) ListForHousehold(actor *model.User) ([]model.Expense, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	return s.expenses.ListByHousehold(*actor.HouseholdID)
}

// UpdateInput is a partial patch. A nil Shares slice means "leave the split
// alone"; an empty one is rejected.
type UpdateInput struct {
	Description *string
	Date        *time.Time
	Amount      *float64
	PaidByID    *string
	Shares      []ShareInput
}

// Update applies a partial patch. Changing the amount requires re-submitting
// the share split so the two can never drift apart.
func (s *Service) Update(id string, in UpdateInput, actor *model.User) (*model.Expense, error) {
	e, err := s.Get(id, actor)
	if err != nil {
		return nil, err
	}
	household, err := s.households.GetWithMembers(e.HouseholdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, fmt.Errorf("%w: household %s not found", ErrIntegrity, e.HouseholdID)
	}

	var updatedFields []string

	if in.Description != nil {
		e.Description = *in.Description
		updatedFields = append(updatedFields, "description")
	}
	if in.Date != nil {
		e.Date = *in.Date
		updatedFields = append(updatedFields, "date")
	}
	if in.PaidByID != nil {
		if *in.PaidByID == "" {
			return nil, ErrPayerRequired
		}
		if !isMember(household.Members, *in.PaidByID) {
			return nil, fmt.Errorf("%w: payer %s", ErrNotMember, *in.PaidByID)
		}
		e.PaidByID = *in.PaidByID
		updatedFields = append(updatedFields, "paidById")
	}

	amount := e.Amount
	if in.Amount != nil {
		amount = *in.Amount
		e.Amount = amount
		updatedFields = append(updatedFields, "amount")
	}

	var params []store.ShareParams
	if in.Shares != nil {
		params, err = buildShares(household.Members, in.Shares, amount, e.PaidByID)
		if err != nil {
			return nil, err
		}
		updatedFields = append(updatedFields, "shares")
	} else if in.Amount != nil && len(e.Shares) > 0 {
		return nil, ErrAmountNeedsShares
	}

	updated, err := s.expenses.Update(e, params)
	if err != nil {
		return nil, err
	}

	s.activity.Record(updated.HouseholdID, &actor.ID, updated.ID, entityTypeExpense, model.ActivityExpenseUpdated, map[string]any{
		"description":   updated.Description,
		"amount":        updated.Amount,
		"paidById":      updated.PaidByID,
		"updatedFields": updatedFields,
	})
	return updated, nil
}

func (s *Service) Delete(id string, actor *model.User) error {
	e, err := s.Get(id, actor)
	if err != nil {
		return err
	}
	if err := s.expenses.Delete(e.ID); err != nil {
		return err
	}
	s.activity.Record(e.HouseholdID, &actor.ID, e.ID, entityTypeExpense, model.ActivityExpenseDeleted, map[string]any{
		"description": e.Description,
		"amount":      e.Amount,
	})
	return nil
}

// ToggleShareSettlement marks one share settled or unsettled. Only the user
// who paid the parent expense may do this.
func (s *Service) ToggleShareSettlement(shareID string, settle bool, actor *model.User) (*model.ExpenseShare, error) {
	sh, err := s.expenses.GetShare(shareID)
	if err != nil {
		return nil, err
	}
	if sh == nil {
		return nil, fmt.Errorf("%w: share %s", ErrNotFound, shareID)
	}

	e, err := s.expenses.GetByID(sh.ExpenseID)
	if err != nil {
		return nil, err
	}
	if e == nil {
		return nil, fmt.Errorf("%w: share %s has no parent expense", ErrIntegrity, shareID)
	}
	if e.PaidByID == "" {
		return nil, fmt.Errorf("%w: expense %s has no payer", ErrIntegrity, e.ID)
	}
	if e.PaidByID != actor.ID {
		return nil, fmt.Errorf("%w: only the original payer can settle or unsettle a share", ErrForbidden)
	}

	var settledAt *time.Time
	if settle {
		now := time.Now().UTC()
		settledAt = &now
	}
	updated, err := s.expenses.SetShareSettlement(shareID, settle, settledAt)
	if err != nil {
		return nil, err
	}

	activityType := model.ActivityExpenseShareSettled
	if !settle {
		activityType = model.ActivityExpenseShareUnsettled
	}
	var debtorName string
	if u, err := s.users.GetByID(sh.OwedByID); err == nil && u != nil {
		debtorName = u.DisplayName()
	}
	s.activity.Record(e.HouseholdID, &actor.ID, updated.ID, entityTypeShare, activityType, map[string]any{
		"expenseDescription": e.Description,
		"expenseId":          e.ID,
		"owedByUserId":       updated.OwedByID,
		"owedByUserName":     debtorName,
		"amount":             updated.AmountOwed,
	})
	return updated, nil
}

// Balances computes each member's ledger position: everything they paid
// minus their still-unsettled shares. Settled shares no longer count as
// debt, so paying off a share moves both parties toward zero.
func (s *Service) Balances(actor *model.User) ([]model.UserBalance, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	household, err := s.households.GetWithMembers(*actor.HouseholdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, fmt.Errorf("%w: household %s not found", ErrIntegrity, *actor.HouseholdID)
	}

	balances := make([]model.UserBalance, 0, len(household.Members))
	for _, m := range household.Members {
		paid, err := s.expenses.TotalPaidBy(household.ID, m.ID)
		if err != nil {
			return nil, err
		}
		owed, err := s.expenses.TotalUnsettledOwedBy(household.ID, m.ID)
		if err != nil {
			return nil, err
		}
		balances = append(balances, model.UserBalance{
			UserID:     m.ID,
			Name:       m.DisplayName(),
			Email:      m.Email,
			TotalPaid:  paid,
			TotalOwed:  owed,
			NetBalance: paid - owed,
		})
	}
	return balances, nil
}

// SettleUp derives transfer suggestions from the current balances.
func (s *Service) SettleUp(actor *model.User) ([]model.SettleUpSuggestion, error) {
	balances, err := s.Balances(actor)
	if err != nil {
		return nil, err
	}
	return Suggestions(balances), nil
}

// buildShares validates a split against the member list and the expense
// amount, and pre-settles the payer's own share.
func buildShares(members []model.User, shares []ShareInput, amount float64, paidByID string) ([]store.ShareParams, error) {
	if len(shares) == 0 {
		return nil, ErrEmptyShares
	}

	sum := 0.0
	params := make([]store.ShareParams, 0, len(shares))
	for _, sh := range shares {
		if !isMember(members, sh.OwedByID) {
			return nil, fmt.Errorf("%w: share debtor %s", ErrNotMember, sh.OwedByID)
		}
		sum += sh.AmountOwed
		params = append(params, store.ShareParams{
			OwedByID:   sh.OwedByID,
			AmountOwed: sh.AmountOwed,
			IsSettled:  sh.OwedByID == paidByID,
		})
	}

	if math.Abs(sum-amount) > shareSumTolerance {
		return nil, &ShareSumError{ShareSum: sum, Amount: amount}
	}
	return params, nil
}

func isMember(members []model.User, userID string) bool {
	for _, m := range members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
