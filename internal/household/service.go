package household

import (
	"errors"
	"fmt"
	"log/slog"

	"github.com/haldaranup/Rent-Mate/internal/activity"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

var (
	// ErrNotFound means the household does not exist.
	ErrNotFound = errors.New("household not found")

	// ErrForbidden means the acting user lacks rights for the operation.
	ErrForbidden = errors.New("not allowed")

	// ErrAlreadyInHousehold means the user already belongs to a household.
	ErrAlreadyInHousehold = errors.New("user is already in a household")

	// ErrNoHousehold means the acting user does not belong to a household.
	ErrNoHousehold = errors.New("user does not belong to a household")

	// ErrNotMember means the target user is not a member of the household.
	ErrNotMember = errors.New("user is not a member of this household")

	// ErrOwnerCannotLeave means the owner must delete the household instead
	// of leaving it behind without an owner.
	ErrOwnerCannotLeave = errors.New("household owner cannot leave; delete the household instead")
)

const entityType = "Household"

// Service owns household lifecycle and membership.
type Service struct {
	households *store.HouseholdStore
	users      *store.UserStore
	activity   *activity.Recorder
	logger     *slog.Logger
}

func NewService(households *store.HouseholdStore, users *store.UserStore, rec *activity.Recorder, logger *slog.Logger) *Service {
	return &Service{households: households, users: users, activity: rec, logger: logger}
}

// Create makes a new household with the actor as its owner. A user still
// attached to an existing household must leave it first; a dangling
// household_id pointing at a deleted household does not block creation.
func (s *Service) Create(name string, actor *model.User) (*model.HouseholdWithMembers, error) {
	if actor.HouseholdID != nil {
		existing, err := s.households.GetByID(*actor.HouseholdID)
		if err != nil {
			return nil, err
		}
		if existing != nil {
			return nil, fmt.Errorf("%w: %s", ErrAlreadyInHousehold, existing.Name)
		}
	}

	h, err := s.households.Create(name)
	if err != nil {
		return nil, err
	}
	if _, err := s.users.SetHousehold(actor.ID, &h.ID, model.RoleOwner); err != nil {
		return nil, err
	}

	s.activity.Record(h.ID, &actor.ID, h.ID, entityType, model.ActivityHouseholdCreated, map[string]any{
		"householdName": h.Name,
		"ownerUserId":   actor.ID,
	})
	return s.households.GetWithMembers(h.ID)
}

// Get loads a household with its members; the actor must be one of them.
func (s *Service) Get(id string, actor *model.User) (*model.HouseholdWithMembers, error) {
	h, err := s.households.GetWithMembers(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}
	if !isMember(h.Members, actor.ID) {
		return nil, ErrForbidden
	}
	return h, nil
}

// UpdateName renames the household. Owner only.
func (s *Service) UpdateName(id, name string, actor *model.User) (*model.Household, error) {
	if err := s.requireOwner(id, actor); err != nil {
		return nil, err
	}
	h, err := s.households.GetByID(id)
	if err != nil {
		return nil, err
	}
	if h == nil {
		return nil, ErrNotFound
	}

	oldName := h.Name
	updated, err := s.households.UpdateName(id, name)
	if err != nil {
		return nil, err
	}

	s.activity.Record(id, &actor.ID, id, entityType, model.ActivityHouseholdUpdated, map[string]any{
		"oldName": oldName,
		"newName": updated.Name,
	})
	return updated, nil
}

// Delete removes the household and everything under it. Owner only. Member
// users are detached, not deleted.
func (s *Service) Delete(id string, actor *model.User) error {
	if err := s.requireOwner(id, actor); err != nil {
		return err
	}
	h, err := s.households.GetWithMembers(id)
	if err != nil {
		return err
	}
	if h == nil {
		return ErrNotFound
	}

	// Detach members explicitly so their role resets alongside the FK.
	for _, m := range h.Members {
		if _, err := s.users.SetHousehold(m.ID, nil, model.RoleMember); err != nil {
			return err
		}
	}
	return s.households.Delete(id)
}

// RemoveMember detaches a member from the household. Owner only, and the
// owner cannot remove themselves this way.
func (s *Service) RemoveMember(householdID, memberID string, actor *model.User) error {
	if err := s.requireOwner(householdID, actor); err != nil {
		return err
	}
	if memberID == actor.ID {
		return fmt.Errorf("%w: owner cannot remove themselves; delete the household instead", ErrForbidden)
	}

	member, err := s.users.GetByID(memberID)
	if err != nil {
		return err
	}
	if member == nil {
		return fmt.Errorf("%w: user %s", ErrNotFound, memberID)
	}
	if member.HouseholdID == nil || *member.HouseholdID != householdID {
		return fmt.Errorf("%w: user %s", ErrNotMember, memberID)
	}

	if _, err := s.users.SetHousehold(memberID, nil, model.RoleMember); err != nil {
		return err
	}

	h, _ := s.households.GetByID(householdID)
	householdName := ""
	if h != nil {
		householdName = h.Name
	}
	s.activity.Record(householdID, &actor.ID, memberID, "User", model.ActivityHouseholdMemberRemoved, map[string]any{
		"removedUserId":   memberID,
		"removedUserName": member.DisplayName(),
		"householdName":   householdName,
	})
	return nil
}

// Leave detaches the actor from their own household. The owner cannot
// leave; they delete the household instead.
func (s *Service) Leave(actor *model.User) error {
	if actor.HouseholdID == nil {
		return ErrNoHousehold
	}
	if actor.Role == model.RoleOwner {
		return ErrOwnerCannotLeave
	}
	householdID := *actor.HouseholdID

	if _, err := s.users.SetHousehold(actor.ID, nil, model.RoleMember); err != nil {
		return err
	}

	s.activity.Record(householdID, &actor.ID, actor.ID, "User", model.ActivityHouseholdMemberRemoved, map[string]any{
		"removedUserId":   actor.ID,
		"removedUserName": actor.DisplayName(),
		"left":            true,
	})
	return nil
}

func (s *Service) requireOwner(householdID string, actor *model.User) error {
	if actor.HouseholdID == nil || *actor.HouseholdID != householdID {
		return ErrForbidden
	}
	if actor.Role != model.RoleOwner {
		return fmt.Errorf("%w: owner role required", ErrForbidden)
	}
	return nil
}

func isMember(members []model.User, userID string) bool {
	for _, m := range members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
