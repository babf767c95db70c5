package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

type ExpenseStore struct {
	db *sql.DB
}

func NewExpenseStore(db *sql.DB) *ExpenseStore {
	return &ExpenseStore{db: db}
}

// ShareParams describes one share row to be written alongside its expense.
type ShareParams struct {
	OwedByID   string
	AmountOwed float64
	IsSettled  bool
}

const expenseCols = `id, household_id, description, amount, date, paid_by_id, created_at, updated_at`
const shareCols = `id, expense_id, owed_by_id, amount_owed, is_settled, settled_at`

func scanExpense(scanner interface{ Scan(...any) error }) (*model.Expense, error) {
	var e model.Expense
	err := scanner.Scan(
		&e.ID, &e.HouseholdID, &e.Description, &e.Amount, &e.Date,
		&e.PaidByID, &e.CreatedAt, &e.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &e, nil
}

func scanShare(scanner interface{ Scan(...any) error }) (*model.ExpenseShare, error) {
	var sh model.ExpenseShare
	var settledAt sql.NullTime

	err := scanner.Scan(
		&sh.ID, &sh.ExpenseID, &sh.OwedByID, &sh.AmountOwed,
		&sh.IsSettled, &settledAt,
	)
	if err != nil {
		return nil, err
	}

	if settledAt.Valid {
		sh.SettledAt = &settledAt.Time
	}
	return &sh, nil
}

// Create inserts an expense and all of its shares in one transaction.
// Either everything is written or nothing is.
func (s *ExpenseStore) Create(householdID, description string, amount float64, date time.Time, paidByID string, shares []ShareParams) (*model.Expense, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	id := uuid.NewString()
	_, err = tx.Exec(
		`INSERT INTO expenses (id, household_id, description, amount, date, paid_by_id) VALUES (?, ?, ?, ?, ?, ?)`,
		id, householdID, description, amount, date.UTC(), paidByID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert expense: %w", err)
	}

	if err := insertShares(tx, id, shares); err != nil {
		return nil, err
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(id)
}

func insertShares(tx *sql.Tx, expenseID string, shares []ShareParams) error {
	for _, sh := range shares {
		var settledAt sql.NullTime
		if sh.IsSettled {
			settledAt = sql.NullTime{Time: time.Now().UTC(), Valid: true}
		}
		_, err := tx.Exec(
			`INSERT INTO expense_shares (id, expense_id, owed_by_id, amount_owed, is_settled, settled_at) VALUES (?, ?, ?, ?, ?, ?)`,
			uuid.NewString(), expenseID, sh.OwedByID, sh.AmountOwed, sh.IsSettled, settledAt,
		)
		if err != nil {
			return fmt.Errorf("insert share: %w", err)
		}
	}
	return nil
}

// Update rewrites an expense's base fields and, when newShares is non-nil,
// replaces the entire share set. All of it commits as one transaction.
func (s *ExpenseStore) Update(e *model.Expense, newShares []ShareParams) (*model.Expense, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.Exec(
		`UPDATE expenses SET description = ?, amount = ?, date = ?, paid_by_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		e.Description, e.Amount, e.Date.UTC(), e.PaidByID, e.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update expense: %w", err)
	}

	if newShares != nil {
		if _, err := tx.Exec(`DELETE FROM expense_shares WHERE expense_id = ?`, e.ID); err != nil {
			return nil, fmt.Errorf("delete old shares: %w", err)
		}
		if err := insertShares(tx, e.ID, newShares); err != nil {
			return nil, err
		}
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit tx: %w", err)
	}
	return s.GetByID(e.ID)
}

// GetByID loads an expense together with its shares.
func (s *ExpenseStore) GetByID(id string) (*model.Expense, error) {
	row := s.db.QueryRow(`SELECT `+expenseCols+` FROM expenses WHERE id = ?`, id)
	e, err := scanExpense(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get expense: %w", err)
	}

	rows, err := s.db.Query(`SELECT `+shareCols+` FROM expense_shares WHERE expense_id = ?`, id)
	if err != nil {
		return nil, fmt.Errorf("list shares: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		sh, err := scanShare(rows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		e.Shares = append(e.Shares, *sh)
	}
	return e, rows.Err()
}

// ListByHousehold loads a household's expenses, newest first, with shares
// attached in two queries rather than one per expense.
func (s *ExpenseStore) ListByHousehold(householdID string) ([]model.Expense, error) {
	rows, err := s.db.Query(
		`SELECT `+expenseCols+` FROM expenses WHERE household_id = ? ORDER BY date DESC, created_at DESC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	byID := make(map[string]int)
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		byID[e.ID] = len(expenses)
		expenses = append(expenses, *e)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	shareRows, err := s.db.Query(
		`SELECT sh.id, sh.expense_id, sh.owed_by_id, sh.amount_owed, sh.is_settled, sh.settled_at
		 FROM expense_shares sh
		 JOIN expenses e ON e.id = sh.expense_id
		 WHERE e.household_id = ?`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list household shares: %w", err)
	}
	defer shareRows.Close()

	for shareRows.Next() {
		sh, err := scanShare(shareRows)
		if err != nil {
			return nil, fmt.Errorf("scan share: %w", err)
		}
		if i, ok := byID[sh.ExpenseID]; ok {
			expenses[i].Shares = append(expenses[i].Shares, *sh)
		}
	}
	return expenses, shareRows.Err()
}

func (s *ExpenseStore) ListByDateRange(householdID string, start, end time.Time) ([]model.Expense, error) {
	rows, err := s.db.Query(
		`SELECT `+expenseCols+` FROM expenses WHERE household_id = ? AND date >= ? AND date <= ? ORDER BY date ASC`,
		householdID, start.UTC(), end.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("list expenses by range: %w", err)
	}
	defer rows.Close()

	var expenses []model.Expense
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		expenses = append(expenses, *e)
	}
	return expenses, rows.Err()
}

func (s *ExpenseStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM expenses WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete expense: %w", err)
	}
	return nil
}

func (s *ExpenseStore) GetShare(id string) (*model.ExpenseShare, error) {
	row := s.db.QueryRow(`SELECT `+shareCols+` FROM expense_shares WHERE id = ?`, id)
	sh, err := scanShare(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get share: %w", err)
	}
	return sh, nil
}

func (s *ExpenseStore) SetShareSettlement(id string, settled bool, settledAt *time.Time) (*model.ExpenseShare, error) {
	_, err := s.db.Exec(
		`UPDATE expense_shares SET is_settled = ?, settled_at = ? WHERE id = ?`,
		settled, nullTime(settledAt), id,
	)
	if err != nil {
		return nil, fmt.Errorf("set share settlement: %w", err)
	}
	return s.GetShare(id)
}

// TotalPaidBy sums the amounts of every expense in the household that the
// user paid for.
func (s *ExpenseStore) TotalPaidBy(householdID, userID string) (float64, error) {
	var total float64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(amount), 0) FROM expenses WHERE household_id = ? AND paid_by_id = ?`,
		householdID, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total paid: %w", err)
	}
	return total, nil
}

// TotalUnsettledOwedBy sums the user's unsettled share amounts across the
// household's expenses.
func (s *ExpenseStore) TotalUnsettledOwedBy(householdID, userID string) (float64, error) {
	var total float64
	err := s.db.QueryRow(
		`SELECT COALESCE(SUM(sh.amount_owed), 0)
		 FROM expense_shares sh
		 JOIN expenses e ON e.id = sh.expense_id
		 WHERE e.household_id = ? AND sh.owed_by_id = ? AND sh.is_settled = 0`,
		householdID, userID,
	).Scan(&total)
	if err != nil {
		return 0, fmt.Errorf("total owed: %w", err)
	}
	return total, nil
}
