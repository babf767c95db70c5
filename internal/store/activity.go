package store

import (
	"database/sql"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"

	"github.com/haldaranup/Rent-Mate/internal/model"
)

type ActivityStore struct {
	db *sql.DB
}

func NewActivityStore(db *sql.DB) *ActivityStore {
	return &ActivityStore{db: db}
}

func (s *ActivityStore) Insert(entry model.ActivityLog) (*model.ActivityLog, error) {
	id := uuid.NewString()

	var details sql.NullString
	if entry.Details != nil {
		raw, err := json.Marshal(entry.Details)
		if err != nil {
			return nil, fmt.Errorf("marshal details: %w", err)
		}
		details = sql.NullString{String: string(raw), Valid: true}
	}

	_, err := s.db.Exec(
		`INSERT INTO activity_logs (id, household_id, actor_id, entity_id, entity_type, activity_type, details) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, entry.HouseholdID, nullString(entry.ActorID), entry.EntityID,
		entry.EntityType, entry.ActivityType, details,
	)
	if err != nil {
		return nil, fmt.Errorf("insert activity log: %w", err)
	}
	return s.GetByID(id)
}

func scanActivity(scanner interface{ Scan(...any) error }) (*model.ActivityLog, error) {
	var a model.ActivityLog
	var actorID, actorName, actorEmail, details sql.NullString

	err := scanner.Scan(
		&a.ID, &a.HouseholdID, &actorID, &a.EntityID, &a.EntityType,
		&a.ActivityType, &details, &a.CreatedAt, &actorName, &actorEmail,
	)
	if err != nil {
		return nil, err
	}

	if actorID.Valid {
		a.ActorID = &actorID.String
	}
	if actorName.Valid && actorName.String != "" {
		a.ActorName = actorName.String
	} else if actorEmail.Valid {
		a.ActorName = actorEmail.String
	}
	if details.Valid && details.String != "" {
		if err := json.Unmarshal([]byte(details.String), &a.Details); err != nil {
			return nil, fmt.Errorf("unmarshal details: %w", err)
		}
	}
	return &a, nil
}

const activitySelect = `
	SELECT a.id, a.household_id, a.actor_id, a.entity_id, a.entity_type,
	       a.activity_type, a.details, a.created_at, u.name, u.email
	FROM activity_logs a
	LEFT JOIN users u ON u.id = a.actor_id`

func (s *ActivityStore) GetByID(id string) (*model.ActivityLog, error) {
	row := s.db.QueryRow(activitySelect+` WHERE a.id = ?`, id)
	a, err := scanActivity(row)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get activity log: %w", err)
	}
	return a, nil
}

// ListByHousehold returns one page of the household feed, newest first,
// along with the total entry count for pagination.
func (s *ActivityStore) ListByHousehold(householdID string, page, limit int) ([]model.ActivityLog, int, error) {
	if page < 1 {
		page = 1
	}
	if limit < 1 {
		limit = 20
	}

	var total int
	err := s.db.QueryRow(
		`SELECT COUNT(*) FROM activity_logs WHERE household_id = ?`,
		householdID,
	).Scan(&total)
	if err != nil {
		return nil, 0, fmt.Errorf("count activity logs: %w", err)
	}

	rows, err := s.db.Query(
		activitySelect+` WHERE a.household_id = ? ORDER BY a.created_at DESC, a.id DESC LIMIT ? OFFSET ?`,
		householdID, limit, (page-1)*limit,
	)
	if err != nil {
		return nil, 0, fmt.Errorf("list activity logs: %w", err)
	}
	defer rows.Close()

	var logs []model.ActivityLog
	for rows.Next() {
		a, err := scanActivity(rows)
		if err != nil {
			return nil, 0, fmt.Errorf("scan activity log: %w", err)
		}
		logs = append(logs, *a)
	}
	return logs, total, rows.Err()
}
