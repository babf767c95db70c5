package store

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

type InvitationStore struct {
	db *sql.DB
}

func NewInvitationStore(db *sql.DB) *InvitationStore {
	return &InvitationStore{db: db}
}

const invitationCols = `id, household_id, email, invited_by_id, token, short_code, status, expires_at, accepted_at, accepted_by_user_id, created_at, updated_at`

func scanInvitation(scanner interface{ Scan(...any) error }) (*model.Invitation, error) {
	var inv model.Invitation
	var email, shortCode, acceptedBy sql.NullString
	var acceptedAt sql.NullTime

	err := scanner.Scan(
		&inv.ID, &inv.HouseholdID, &email, &inv.InvitedByID, &inv.Token,
		&shortCode, &inv.Status, &inv.ExpiresAt, &acceptedAt, &acceptedBy,
		&inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		inv.Email = &email.String
	}
	if shortCode.Valid {
		inv.ShortCode = &shortCode.String
	}
	if acceptedBy.Valid {
		inv.AcceptedByUserID = &acceptedBy.String
	}
	if acceptedAt.Valid {
		inv.AcceptedAt = &acceptedAt.Time
	}
	return &inv, nil
}

func (s *InvitationStore) Create(householdID string, email *string, invitedByID, token string, shortCode *string, expiresAt time.Time) (*model.Invitation, error) {
	id := uuid.NewString()
	_, err := s.db.Exec(
		`INSERT INTO invitations (id, household_id, email, invited_by_id, token, short_code, status, expires_at) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		id, householdID, nullString(email), invitedByID, token, nullString(shortCode),
		model.InvitationPending, expiresAt.UTC(),
	)
	if err != nil {
		return nil, fmt.Errorf("insert invitation: %w", err)
	}
	return s.GetByID(id)
}

func (s *InvitationStore) GetByID(id string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE id = ?`, id)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) GetByToken(token string) (*model.Invitation, error) {
	row := s.db.QueryRow(`SELECT `+invitationCols+` FROM invitations WHERE token = ?`, token)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by token: %w", err)
	}
	return inv, nil
}

// GetPendingByShortCode looks up a pending invitation by its share code.
// Codes are only unique among pending invitations.
func (s *InvitationStore) GetPendingByShortCode(code string) (*model.Invitation, error) {
	row := s.db.QueryRow(
		`SELECT `+invitationCols+` FROM invitations WHERE short_code = ? AND status = ?`,
		code, model.InvitationPending,
	)
	inv, err := scanInvitation(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get invitation by code: %w", err)
	}
	return inv, nil
}

func (s *InvitationStore) HasPendingEmailInvite(householdID, email string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM invitations WHERE household_id = ? AND email = ? AND status = ?`,
		householdID, email, model.InvitationPending,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check pending invite: %w", err)
	}
	return n > 0, nil
}

func (s *InvitationStore) ListPendingByHousehold(householdID string) ([]model.Invitation, error) {
	return s.listQuery(
		`SELECT `+invitationCols+` FROM invitations WHERE household_id = ? AND status = ? ORDER BY created_at DESC`,
		householdID, model.InvitationPending,
	)
}

func (s *InvitationStore) ListPendingByEmail(email string) ([]model.Invitation, error) {
	return s.listQuery(
		`SELECT `+invitationCols+` FROM invitations WHERE email = ? AND status = ? ORDER BY created_at DESC`,
		email, model.InvitationPending,
	)
}

func (s *InvitationStore) listQuery(query string, args ...any) ([]model.Invitation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list invitations: %w", err)
	}
	defer rows.Close()

	var invs []model.Invitation
	for rows.Next() {
		inv, err := scanInvitation(rows)
		if err != nil {
			return nil, fmt.Errorf("scan invitation: %w", err)
		}
		invs = append(invs, *inv)
	}
	return invs, rows.Err()
}

func (s *InvitationStore) SetStatus(id, status string) (*model.Invitation, error) {
	_, err := s.db.Exec(
		`UPDATE invitations SET status = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		status, id,
	)
	if err != nil {
		return nil, fmt.Errorf("set invitation status: %w", err)
	}
	return s.GetByID(id)
}

func (s *InvitationStore) MarkAccepted(id, userID string) (*model.Invitation, error) {
	_, err := s.db.Exec(
		`UPDATE invitations SET status = ?, accepted_at = ?, accepted_by_user_id = ?, updated_at = CURRENT_TIMESTAMP WHERE id = ?`,
		model.InvitationAccepted, time.Now().UTC(), userID, id,
	)
	if err != nil {
		return nil, fmt.Errorf("mark invitation accepted: %w", err)
	}
	return s.GetByID(id)
}

// ShortCodeInUse reports whether a pending invitation already holds the code.
func (s *InvitationStore) ShortCodeInUse(code string) (bool, error) {
	var n int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM invitations WHERE short_code = ? AND status = ?`,
		code, model.InvitationPending,
	).Scan(&n)
	if err != nil {
		return false, fmt.Errorf("check short code: %w", err)
	}
	return n > 0, nil
}
