package model

import "time"

type Expense struct {
	ID          string         `json:"id"`
	HouseholdID string         `json:"household_id"`
	Description string         `json:"description"`
	Amount      float64        `json:"amount"`
	Date        time.Time      `json:"date"`
	PaidByID    string         `json:"paid_by_id"`
	Shares      []ExpenseShare `json:"shares,omitempty"`
	CreatedAt   time.Time      `json:"created_at"`
	UpdatedAt   time.Time      `json:"updated_at"`
}

type ExpenseShare struct {
	ID         string     `json:"id"`
	ExpenseID  string     `json:"expense_id"`
	OwedByID   string     `json:"owed_by_id"`
	AmountOwed float64    `json:"amount_owed"`
	IsSettled  bool       `json:"is_settled"`
	SettledAt  *time.Time `json:"settled_at"`
}

// UserBalance is the derived per-member ledger position. It is recomputed
// from persisted expenses and shares on every request, never stored.
type UserBalance struct {
	UserID     string  `json:"user_id"`
	Name       string  `json:"name"`
	Email      string  `json:"email"`
	TotalPaid  float64 `json:"total_paid"`
	TotalOwed  float64 `json:"total_owed"`
	NetBalance float64 `json:"net_balance"`
}

// SettleUpSuggestion is a directed transfer that moves outstanding
// balances toward zero.
type SettleUpSuggestion struct {
	FromUserID   string  `json:"from_user_id"`
	FromUserName string  `json:"from_user_name"`
	ToUserID     string  `json:"to_user_id"`
	ToUserName   string  `json:"to_user_name"`
	Amount       float64 `json:"amount"`
}
