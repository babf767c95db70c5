package store

import (
	"database/sql"
	"fmt"

	"github.com/google/uuid"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

type HouseholdStore struct {
	db *sql.DB
}

func NewHouseholdStore(db *sql.DB) *HouseholdStore {
	return &HouseholdStore{db: db}
}

const householdCols = `id, name, created_at, updated_at`

func scanHousehold(scanner interface{ Scan(...any) error }) (*model.Household, error) {
	var h model.Household
	err := scanner.Scan(&h.ID, &h.Name, &h.CreatedAt, &h.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return &h, nil
}

func (s *HouseholdStore) Create(name string) (*model.Household, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(`INSERT INTO households (id, name) VALUES (?, ?)`, id, name)
	if err != nil {
		return nil, fmt.Errorf("insert household: %w", err)
	}
	return s.GetByID(id)
}

func (s *HouseholdStore) GetByID(id string) (*model.Household, error) {
	row := s.db.QueryRow(`SELECT `+householdCols+` FROM households WHERE id = ?`, id)
	h, err := scanHousehold(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get household: %w", err)
	}
	return h, nil
}

// GetWithMembers loads a household and its member users. Members come back
// in storage order; callers that need a deterministic order sort themselves.
func (s *HouseholdStore) GetWithMembers(id string) (*model.HouseholdWithMembers, error) {
	h, err := s.GetByID(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, nil
	}

	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE household_id = ? ORDER BY created_at ASC`,
		id,
	)
	if err != nil {
		return nil, fmt.Errorf("list household members: %w", err)
	}
	defer rows.Close()

	hwm := &model.HouseholdWithMembers{Household: *h}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan member: %w", err)
		}
		hwm.Members = append(hwm.Members, *u)
	}
	return hwm, rows.Err()
}

func (s *HouseholdStore) UpdateName(id, name string) (*model.Household, error) {
	_, err := s.db.Exec(
		`UPDATE households SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update household: %w", err)
	}
	return s.GetByID(id)
}

// Delete removes a household. Chores, expenses, invitations, and activity
// logs cascade; member users are detached via SET NULL.
func (s *HouseholdStore) Delete(id string) error {
	_, err := s.db.Exec(`DELETE FROM households WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("delete household: %w", err)
	}
	return nil
}
