package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

type ChoreStore struct {
	db *sql.DB
}

func NewChoreStore(db *sql.DB) *ChoreStore {
	return &ChoreStore{db: db}
}

const choreCols = `id, household_id, description, notes, is_complete, due_date, recurrence, assigned_to_id, completed_by_id, completed_at, created_at, updated_at`

func scanChore(scanner interface{ Scan(...any) error }) (*model.Chore, error) {
	var c model.Chore
	var notes, assignedTo, completedBy sql.NullString
	var dueDate, completedAt sql.NullTime

	err := scanner.Scan(
		&c.ID, &c.HouseholdID, &c.Description, &notes, &c.IsComplete,
		&dueDate, &c.Recurrence, &assignedTo, &completedBy, &completedAt,
		&c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if notes.Valid {
		c.Notes = &notes.String
	}
	if assignedTo.Valid {
		c.AssignedToID = &assignedTo.String
	}
	if completedBy.Valid {
		c.CompletedByID = &completedBy.String
	}
	if dueDate.Valid {
		c.DueDate = &dueDate.Time
	}
	if completedAt.Valid {
		c.CompletedAt = &completedAt.Time
	}
	return &c, nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullTime(t *time.Time) sql.NullTime {
	if t == nil {
		return sql.NullTime{}
	}
	return sql.NullTime{Time: *t, Valid: true}
}

func (s *ChoreStore) Create(householdID, description string, notes *string, dueDate *time.Time, recurrence string, assignedToID *string) (*model.Chore, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO chores (id, household_id, description, notes, due_date, recurrence, assigned_to_id) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, householdID, description, nullString(notes), nullTime(dueDate), recurrence, nullString(assignedToID),
	)
	if err != nil {
		return nil, fmt.Errorf("insert chore: %w", err)
	}
	return s.GetByID(id)
}

func (s *ChoreStore) GetByID(id string) (*model.Chore, error) {
	row := s.db.QueryRow(`SELECT `+choreCols+` FROM chores WHERE id = ?`, id)
	c, err := scanChore(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get chore: %w", err)
	}
	return c, nil
}

// Update writes every mutable chore field in a single statement so a
// rotation (reassign + reschedule + reset completion) commits atomically.
func (s *ChoreStore) Update(c *model.Chore) (*model.Chore, error) {
	_, err := s.db.Exec(
		`UPDATE chores SET description = ?, notes = ?, is_complete = ?, due_date = ?, recurrence = ?, assigned_to_id = ?, completed_by_id = ?, completed_at = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		c.Description, nullString(c.Notes), c.IsComplete, nullTime(c.DueDate),
		c.Recurrence, nullString(c.AssignedToID), nullString(c.CompletedByID),
		nullTime(c.CompletedAt), c.ID,
	)
	if err != nil {
		return nil, fmt.Errorf("update chore: %w", err)
	}
	return s.GetByID(c.ID)
}

func (s *ChoreStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM chores WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete chore: %w", err)
	}
	return nil
}

func (s *ChoreStore) listQuery(query string, args ...any) ([]model.Chore, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list chores: %w", err)
	}
	defer rows.Close()

	var chores []model.Chore
	for rows.Next() {
		c, err := scanChore(rows)
		if err != nil {
			return nil, fmt.Errorf("scan chore: %w", err)
		}
		chores = append(chores, *c)
	}
	return chores, rows.Err()
}

func (s *ChoreStore) ListByHousehold(householdID string) ([]model.Chore, error) {
	return s.listQuery(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? ORDER BY created_at DESC`,
		householdID,
	)
}

func (s *ChoreStore) ListByAssignee(householdID, userID string) ([]model.Chore, error) {
	return s.listQuery(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? AND assigned_to_id = ? ORDER BY due_date ASC, created_at DESC`,
		householdID, userID,
	)
}

func (s *ChoreStore) ListUnassigned(householdID string) ([]model.Chore, error) {
	return s.listQuery(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? AND assigned_to_id IS NULL ORDER BY created_at DESC`,
		householdID,
	)
}

func (s *ChoreStore) ListDueBetween(householdID string, start, end time.Time) ([]model.Chore, error) {
	return s.listQuery(
		`SELECT `+choreCols+` FROM chores WHERE household_id = ? AND due_date >= ? AND due_date <= ? ORDER BY due_date ASC`,
		householdID, start.UTC(), end.UTC(),
	)
}

func (s *ChoreStore) Counts(householdID string) (*model.ChoreCounts, error) {
	var counts model.ChoreCounts
	err := s.db.QueryRow(
		`SELECT COUNT(*), COALESCE(SUM(is_complete), 0) FROM chores WHERE household_id = ?`,
		householdID,
	).Scan(&counts.Total, &counts.Completed)
	if err != nil {
		return nil, fmt.Errorf("count chores: %w", err)
	}
	counts.Pending = counts.Total - counts.Completed
	return &counts, nil
}
