package chore

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/activity"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

const entityType = "Chore"

// Service owns chore lifecycle: creation, partial updates, completion
// toggling, and the rotation of recurring chores to their next cycle.
type Service struct {
	chores     *store.ChoreStore
	households *store.HouseholdStore
	users      *store.UserStore
	activity   *activity.Recorder
	logger     *slog.Logger
}

func NewService(chores *store.ChoreStore, households *store.HouseholdStore, users *store.UserStore, rec *activity.Recorder, logger *slog.Logger) *Service {
	return &Service{
		chores:     chores,
		households: households,
		users:      users,
		activity:   rec,
		logger:     logger,
	}
}

// CreateInput holds the fields for a new chore.
type CreateInput struct {
	Description  string
	Notes        *string
	DueDate      *time.Time
	Recurrence   string
	AssignedToID *string
}

func (s *Service) Create(in CreateInput, actor *model.User) (*model.Chore, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	if in.Recurrence == "" {
		in.Recurrence = model.RecurrenceNone
	}
	if !model.ValidRecurrence(in.Recurrence) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRecurrence, in.Recurrence)
	}
	if in.AssignedToID != nil {
		if err := s.requireMember(*in.AssignedToID, *actor.HouseholdID); err != nil {
			return nil, err
		}
	}

	c, err := s.chores.Create(*actor.HouseholdID, in.Description, in.Notes, in.DueDate, in.Recurrence, in.AssignedToID)
	if err != nil {
		return nil, err
	}

	s.activity.Record(c.HouseholdID, &actor.ID, c.ID, entityType, model.ActivityChoreCreated, map[string]any{
		"description":  c.Description,
		"assignedToId": c.AssignedToID,
		"dueDate":      c.DueDate,
	})
	return c, nil
}

// Get loads a chore and verifies the actor may see it.
func (s *Service) Get(id string, actor *model.User) (*model.Chore, error) {
	c, err := s.chores.GetByID(id)
	if err != nil {
		return nil, err
	}
	if c == nil {
		return nil, ErrNotFound
	}
	if c.HouseholdID == "" {
		return nil, fmt.Errorf("%w: chore %s has no household", ErrIntegrity, c.ID)
	}
	if actor.HouseholdID == nil || *actor.HouseholdID != c.HouseholdID {
		return nil, ErrForbidden
	}
	return c, nil
}

func (s *Service) ListForHousehold(actor *model.User) ([]model.Chore, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	return s.chores.ListByHousehold(*actor.HouseholdID)
}

func (s *Service) ListUnassigned(actor *model.User) ([]model.Chore, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	return s.chores.ListUnassigned(*actor.HouseholdID)
}

// ListAssignedTo returns chores assigned to the target user. Members may
// only view their own; the household owner may view anyone's.
func (s *Service) ListAssignedTo(targetUserID string, actor *model.User) ([]model.Chore, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	if targetUserID != actor.ID && actor.Role != model.RoleOwner {
		return nil, ErrForbidden
	}
	if targetUserID != actor.ID {
		if err := s.requireMember(targetUserID, *actor.HouseholdID); err != nil {
			return nil, err
		}
	}
	return s.chores.ListByAssignee(*actor.HouseholdID, targetUserID)
}

func (s *Service) Counts(actor *model.User) (*model.ChoreCounts, error) {
	if actor.HouseholdID == nil {
		return nil, ErrNoHousehold
	}
	return s.chores.Counts(*actor.HouseholdID)
}

// ToggleComplete flips completion state. Completing a recurring chore
// rotates it to the next cycle instead of leaving it complete; reverting a
// completed chore is restricted to the household owner or the user who
// completed it.
func (s *Service) ToggleComplete(id string, actor *model.User) (*model.Chore, error) {
	c, err := s.Get(id, actor)
	if err != nil {
		return nil, err
	}

	if c.IsComplete {
		if err := s.authorizeRevert(c, actor); err != nil {
			return nil, err
		}
		wasCompletedAt := c.CompletedAt
		c.IsComplete = false
		c.CompletedByID = nil
		c.CompletedAt = nil
		updated, err := s.chores.Update(c)
		if err != nil {
			return nil, err
		}
		s.activity.Record(updated.HouseholdID, &actor.ID, updated.ID, entityType, model.ActivityChoreUpdated, map[string]any{
			"description":    updated.Description,
			"uncompletedBy":  actor.ID,
			"wasCompletedAt": wasCompletedAt,
			"statusChange":   "Marked as incomplete",
		})
		return updated, nil
	}

	if model.IsRecurring(c.Recurrence) {
		return s.completeAndRotate(c, actor)
	}

	now := time.Now().UTC()
	c.IsComplete = true
	c.CompletedByID = &actor.ID
	c.CompletedAt = &now
	updated, err := s.chores.Update(c)
	if err != nil {
		return nil, err
	}
	s.activity.Record(updated.HouseholdID, &actor.ID, updated.ID, entityType, model.ActivityChoreCompleted, map[string]any{
		"description":  updated.Description,
		"completedBy":  actor.ID,
		"statusChange": "Marked as complete",
	})
	return updated, nil
}

// completeAndRotate closes out the current cycle of a recurring chore and
// opens the next one: next assignee in rotation order, next due date per
// the recurrence rule, completion state reset. The whole chore mutation is
// one atomic write.
func (s *Service) completeAndRotate(c *model.Chore, actor *model.User) (*model.Chore, error) {
	if c.HouseholdID == "" {
		return nil, fmt.Errorf("%w: chore %s has no household", ErrIntegrity, c.ID)
	}
	household, err := s.households.GetWithMembers(c.HouseholdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, fmt.Errorf("%w: household %s missing for chore %s", ErrIntegrity, c.HouseholdID, c.ID)
	}

	now := time.Now().UTC()

	if len(household.Members) == 0 {
		// Nobody to rotate to. The chore stays completed for good.
		c.IsComplete = true
		c.CompletedByID = &actor.ID
		c.CompletedAt = &now
		updated, err := s.chores.Update(c)
		if err != nil {
			return nil, err
		}
		s.activity.Record(updated.HouseholdID, &actor.ID, updated.ID, entityType, model.ActivityChoreCompleted, map[string]any{
			"description": updated.Description,
			"completedBy": actor.ID,
			"note":        "Not rotated, no members.",
		})
		return updated, nil
	}

	next := NextAssignee(household.Members, c.AssignedToID)

	lastEffective := LastEffectiveDate(c.DueDate, c.CompletedAt, now)
	var nextDue *time.Time
	if d, ok := NextDueDate(c.Recurrence, lastEffective); ok {
		nextDue = &d
	} else {
		nextDue = c.DueDate
	}

	// The finished cycle is logged before the chore is advanced.
	s.activity.Record(c.HouseholdID, &actor.ID, c.ID, entityType, model.ActivityChoreCompleted, map[string]any{
		"description": c.Description,
		"completedBy": actor.ID,
		"recurrence":  c.Recurrence,
	})

	previousAssignee := c.AssignedToID
	c.IsComplete = false
	c.CompletedByID = nil
	c.CompletedAt = nil
	c.AssignedToID = &next.ID
	c.DueDate = nextDue

	rotated, err := s.chores.Update(c)
	if err != nil {
		return nil, err
	}

	// Rotation is a system action, so the entry carries no actor.
	s.activity.Record(rotated.HouseholdID, nil, rotated.ID, entityType, model.ActivityChoreRotated, map[string]any{
		"description":          rotated.Description,
		"newDueDate":           rotated.DueDate,
		"newlyAssignedTo":      rotated.AssignedToID,
		"previouslyAssignedTo": previousAssignee,
		"recurrence":           rotated.Recurrence,
	})
	return rotated, nil
}

func (s *Service) authorizeRevert(c *model.Chore, actor *model.User) error {
	if actor.Role == model.RoleOwner {
		return nil
	}
	if c.CompletedByID == nil || *c.CompletedByID == actor.ID {
		return nil
	}
	return fmt.Errorf("%w: only the household owner or the user who completed the chore can mark it as incomplete", ErrForbidden)
}

// UpdateInput is a partial patch. Set* flags distinguish "absent" from an
// explicit null for the nullable fields.
type UpdateInput struct {
	Description *string
	Recurrence  *string
	IsComplete  *bool

	SetNotes bool
	Notes    *string

	SetDueDate bool
	DueDate    *time.Time

	SetAssignedTo bool
	AssignedToID  *string
}

// Update applies a partial patch. Setting IsComplete on a recurring chore
// delegates to the same rotation path as ToggleComplete. One audit entry
// is written per request, classified by the most specific change:
// assignment and completion changes outrank a generic update.
func (s *Service) Update(id string, in UpdateInput, actor *model.User) (*model.Chore, error) {
	c, err := s.Get(id, actor)
	if err != nil {
		return nil, err
	}

	details := map[string]any{}
	activityType := ""

	if in.SetAssignedTo {
		switch {
		case in.AssignedToID == nil && c.AssignedToID != nil:
			details["unassignedFrom"] = *c.AssignedToID
			c.AssignedToID = nil
			activityType = model.ActivityChoreUnassigned
		case in.AssignedToID != nil && (c.AssignedToID == nil || *in.AssignedToID != *c.AssignedToID):
			if err := s.requireMember(*in.AssignedToID, c.HouseholdID); err != nil {
				return nil, err
			}
			if c.AssignedToID != nil {
				details["previouslyAssignedTo"] = *c.AssignedToID
			}
			details["assignedTo"] = *in.AssignedToID
			c.AssignedToID = in.AssignedToID
			activityType = model.ActivityChoreAssigned
		}
	}

	if in.SetDueDate && !timesEqual(in.DueDate, c.DueDate) {
		details["dueDateChanged"] = map[string]any{"old": c.DueDate, "new": in.DueDate}
		c.DueDate = in.DueDate
		if activityType == "" {
			activityType = model.ActivityChoreUpdated
		}
	}

	if in.IsComplete != nil && *in.IsComplete != c.IsComplete {
		if *in.IsComplete {
			if model.IsRecurring(c.Recurrence) {
				rotated, err := s.completeAndRotate(c, actor)
				if err != nil {
					return nil, err
				}
				s.activity.Record(rotated.HouseholdID, &actor.ID, rotated.ID, entityType, model.ActivityChoreCompleted, map[string]any{
					"via":         "update",
					"description": rotated.Description,
					"completedBy": actor.ID,
				})
				return rotated, nil
			}
			now := time.Now().UTC()
			c.IsComplete = true
			c.CompletedByID = &actor.ID
			c.CompletedAt = &now
			details["completedBy"] = actor.ID
			activityType = model.ActivityChoreCompleted
		} else {
			if err := s.authorizeRevert(c, actor); err != nil {
				return nil, err
			}
			details["uncompletedBy"] = actor.ID
			details["wasCompletedAt"] = c.CompletedAt
			c.IsComplete = false
			c.CompletedByID = nil
			c.CompletedAt = nil
			if activityType == "" {
				activityType = model.ActivityChoreUpdated
			}
		}
	}

	if in.Description != nil && *in.Description != c.Description {
		details["descriptionChanged"] = map[string]any{"old": c.Description, "new": *in.Description}
		c.Description = *in.Description
		if activityType == "" {
			activityType = model.ActivityChoreUpdated
		}
	}

	if in.SetNotes && !stringsEqual(in.Notes, c.Notes) {
		details["notesChanged"] = map[string]any{"old": c.Notes, "new": in.Notes}
		c.Notes = in.Notes
		if activityType == "" {
			activityType = model.ActivityChoreUpdated
		}
	}

	if in.Recurrence != nil && *in.Recurrence != c.Recurrence {
		if !model.ValidRecurrence(*in.Recurrence) {
			return nil, fmt.Errorf("%w: %q", ErrInvalidRecurrence, *in.Recurrence)
		}
		details["recurrenceChanged"] = map[string]any{"old": c.Recurrence, "new": *in.Recurrence}
		c.Recurrence = *in.Recurrence
		if activityType == "" {
			activityType = model.ActivityChoreUpdated
		}
	}

	updated, err := s.chores.Update(c)
	if err != nil {
		return nil, err
	}

	if activityType != "" {
		details["description"] = updated.Description
		s.activity.Record(updated.HouseholdID, &actor.ID, updated.ID, entityType, activityType, details)
	}
	return updated, nil
}

func (s *Service) Delete(id string, actor *model.User) error {
	c, err := s.Get(id, actor)
	if err != nil {
		return err
	}
	if err := s.chores.Delete(c.ID); err != nil {
		return err
	}
	s.activity.Record(c.HouseholdID, &actor.ID, c.ID, entityType, model.ActivityChoreDeleted, map[string]any{
		"description": c.Description,
	})
	return nil
}

// requireMember verifies the user exists and belongs to the household.
func (s *Service) requireMember(userID, householdID string) error {
	u, err := s.users.GetByID(userID)
	if err != nil {
		return err
	}
	if u == nil || u.HouseholdID == nil || *u.HouseholdID != householdID {
		return fmt.Errorf("%w: user %s", ErrNotMember, userID)
	}
	return nil
}

func timesEqual(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func stringsEqual(a, b *string) bool {
	if a == nil || b == nil {
		return a == b
	}
	return *a == *b
}
