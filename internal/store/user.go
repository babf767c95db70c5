package store

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/google/uuid"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

type UserStore struct {
	db *sql.DB
}

func NewUserStore(db *sql.DB) *UserStore {
	return &UserStore{db: db}
}

const userCols = `id, email, name, password_hash, role, household_id, created_at, updated_at`

func scanUser(scanner interface{ Scan(...any) error }) (*model.User, error) {
	var u model.User
	var householdID sql.NullString

	err := scanner.Scan(
		&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.Role,
		&householdID, &u.CreatedAt, &u.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if householdID.Valid {
		u.HouseholdID = &householdID.String
	}
	return &u, nil
}

func (s *UserStore) Create(email, name, passwordHash string) (*model.User, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO users (id, email, name, password_hash, role) VALUES (?, ?, ?, ?, ?)`,
		id, strings.ToLower(email), name, passwordHash, model.RoleMember,
	)
	if err != nil {
		return nil, fmt.Errorf("insert user: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) GetByID(id string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE id = ?`, id)
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user: %w", err)
	}
	return u, nil
}

func (s *UserStore) GetByEmail(email string) (*model.User, error) {
	row := s.db.QueryRow(`SELECT `+userCols+` FROM users WHERE email = ?`, strings.ToLower(email))
	u, err := scanUser(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get user by email: %w", err)
	}
	return u, nil
}

func (s *UserStore) UpdateName(id, name string) (*model.User, error) {
	_, err := s.db.Exec(
		`UPDATE users SET name = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		name, id,
	)
	if err != nil {
		return nil, fmt.Errorf("update user name: %w", err)
	}
	return s.GetByID(id)
}

// SetHousehold moves a user into (or out of, with nil) a household and
// records the role they hold there.
func (s *UserStore) SetHousehold(id string, householdID *string, role string) (*model.User, error) {
	var hid sql.NullString
	if householdID != nil {
		hid = sql.NullString{String: *householdID, Valid: true}
	}

	_, err := s.db.Exec(
		`UPDATE users SET household_id = ?, role = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		hid, role, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set user household: %w", err)
	}
	return s.GetByID(id)
}

func (s *UserStore) ListByHousehold(householdID string) ([]model.User, error) {
	rows, err := s.db.Query(
		`SELECT `+userCols+` FROM users WHERE household_id = ? ORDER BY created_at ASC`,
		householdID,
	)
	if err != nil {
		return nil, fmt.Errorf("list users by household: %w", err)
	}
	defer rows.Close()

	var users []model.User
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf("scan user: %w", err)
		}
		users = append(users, *u)
	}
	return users, rows.Err()
}
