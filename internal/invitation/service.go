package invitation

import (
	"context"
	"crypto/rand"
	"encoding/hex"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/activity"
	"github.com/haldaranup/Rent-Mate/internal/email"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

var (
	// ErrNotFound means the invitation does not exist or is not usable.
	ErrNotFound = errors.New("invitation not found")

	// ErrForbidden means the acting user may not perform the operation.
	ErrForbidden = errors.New("not allowed")

	// ErrAlreadyMember means the invitee already belongs to the household.
	ErrAlreadyMember = errors.New("user is already a member of this household")

	// ErrAlreadyInvited means a pending invitation for this email exists.
	ErrAlreadyInvited = errors.New("an invitation for this user is already pending")

	// ErrAlreadyInHousehold means the accepting user belongs to another
	// household and must leave it first.
	ErrAlreadyInHousehold = errors.New("you are already part of another household")

	// ErrExpired means the invitation's expiry has passed.
	ErrExpired = errors.New("invitation has expired")

	// ErrNotPending means the invitation was already resolved.
	ErrNotPending = errors.New("invitation is no longer pending")

	// ErrCodeExhausted means no unique short code could be generated.
	ErrCodeExhausted = errors.New("could not generate a unique invitation code")
)

const (
	emailInviteTTL = 7 * 24 * time.Hour
	shortCodeTTL   = 24 * time.Hour

	shortCodeLength     = 6
	shortCodeMaxRetries = 10
	// O and 0 are excluded so codes read unambiguously.
	shortCodeCharset = "ABCDEFGHIJKLMNPQRSTUVWXYZ123456789"
)

// Service owns household invitations: targeted email invites and shareable
// short codes, plus the accept/decline/cancel lifecycle.
type Service struct {
	invitations *store.InvitationStore
	households  *store.HouseholdStore
	users       *store.UserStore
	mailer      *email.Mailer
	activity    *activity.Recorder
	logger      *slog.Logger
}

func NewService(invitations *store.InvitationStore, households *store.HouseholdStore, users *store.UserStore, mailer *email.Mailer, rec *activity.Recorder, logger *slog.Logger) *Service {
	return &Service{
		invitations: invitations,
		households:  households,
		users:       users,
		mailer:      mailer,
		activity:    rec,
		logger:      logger,
	}
}

// CreateEmailInvitation invites an email address to the actor's household.
// The invitation is persisted first; the mail send is best-effort and a
// failure never rolls it back, since the invite can still be accepted from
// the pending list.
func (s *Service) CreateEmailInvitation(ctx context.Context, householdID, inviteeEmail string, actor *model.User) (*model.Invitation, error) {
	household, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, fmt.Errorf("%w: household %s", ErrNotFound, householdID)
	}
	if actor.HouseholdID == nil || *actor.HouseholdID != householdID {
		return nil, fmt.Errorf("%w: you must be a member of the household to invite others", ErrForbidden)
	}

	inviteeEmail = strings.ToLower(inviteeEmail)

	existing, err := s.users.GetByEmail(inviteeEmail)
	if err != nil {
		return nil, err
	}
	if existing != nil && existing.HouseholdID != nil && *existing.HouseholdID == householdID {
		return nil, ErrAlreadyMember
	}

	pending, err := s.invitations.HasPendingEmailInvite(householdID, inviteeEmail)
	if err != nil {
		return nil, err
	}
	if pending {
		return nil, ErrAlreadyInvited
	}

	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	inv, err := s.invitations.Create(householdID, &inviteeEmail, actor.ID, token, nil, time.Now().UTC().Add(emailInviteTTL))
	if err != nil {
		return nil, err
	}

	if err := s.mailer.SendInvitation(ctx, inviteeEmail, token, household.Name, actor.DisplayName()); err != nil {
		s.logger.Error("send invitation mail",
			"error", err,
			"invitation_id", inv.ID,
			"household_id", householdID,
		)
	}
	return inv, nil
}

// CreateShortCodeInvitation mints a shareable join code for the actor's
// household. Codes are short-lived and unique among pending invitations.
func (s *Service) CreateShortCodeInvitation(householdID string, actor *model.User) (*model.Invitation, error) {
	household, err := s.households.GetByID(householdID)
	if err != nil {
		return nil, err
	}
	if household == nil {
		return nil, fmt.Errorf("%w: household %s", ErrNotFound, householdID)
	}
	if actor.HouseholdID == nil || *actor.HouseholdID != householdID {
		return nil, fmt.Errorf("%w: you must be a member of the household to generate a code", ErrForbidden)
	}

	code, err := s.generateShortCode()
	if err != nil {
		return nil, err
	}
	token, err := generateToken()
	if err != nil {
		return nil, err
	}
	return s.invitations.Create(householdID, nil, actor.ID, token, &code, time.Now().UTC().Add(shortCodeTTL))
}

// AcceptByToken joins the actor to the household behind an email invitation.
func (s *Service) AcceptByToken(token string, actor *model.User) (*model.HouseholdWithMembers, error) {
	inv, err := s.invitations.GetByToken(token)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}
	return s.accept(inv, actor)
}

// AcceptByShortCode joins the actor to the household behind a join code.
// Codes are matched case-insensitively.
func (s *Service) AcceptByShortCode(code string, actor *model.User) (*model.HouseholdWithMembers, error) {
	inv, err := s.invitations.GetPendingByShortCode(strings.ToUpper(code))
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, fmt.Errorf("%w: code not found, invalid, or already used", ErrNotFound)
	}
	return s.accept(inv, actor)
}

func (s *Service) accept(inv *model.Invitation, actor *model.User) (*model.HouseholdWithMembers, error) {
	// A targeted invitation only works for the invited address.
	if inv.Email != nil && !strings.EqualFold(*inv.Email, actor.Email) {
		return nil, fmt.Errorf("%w: this invitation is for a different email address", ErrForbidden)
	}
	if inv.Status != model.InvitationPending {
		return nil, fmt.Errorf("%w: status %s", ErrNotPending, inv.Status)
	}
	if time.Now().After(inv.ExpiresAt) {
		if _, err := s.invitations.SetStatus(inv.ID, model.InvitationExpired); err != nil {
			s.logger.Error("mark invitation expired", "error", err, "invitation_id", inv.ID)
		}
		return nil, ErrExpired
	}

	if actor.HouseholdID != nil {
		if *actor.HouseholdID == inv.HouseholdID {
			// Idempotent: already in, just close out the invitation.
			if _, err := s.invitations.SetStatus(inv.ID, model.InvitationAccepted); err != nil {
				return nil, err
			}
			return s.households.GetWithMembers(inv.HouseholdID)
		}
		return nil, fmt.Errorf("%w: leave your current household to accept this invitation", ErrAlreadyInHousehold)
	}

	if _, err := s.users.SetHousehold(actor.ID, &inv.HouseholdID, model.RoleMember); err != nil {
		return nil, err
	}
	if _, err := s.invitations.MarkAccepted(inv.ID, actor.ID); err != nil {
		return nil, err
	}

	household, err := s.households.GetWithMembers(inv.HouseholdID)
	if err != nil {
		return nil, err
	}
	householdName := ""
	if household != nil {
		householdName = household.Name
	}
	method := "email_link"
	if inv.ShortCode != nil {
		method = "shortcode"
	}
	s.activity.Record(inv.HouseholdID, &actor.ID, actor.ID, "User", model.ActivityHouseholdMemberAdded, map[string]any{
		"joinedUserId":   actor.ID,
		"joinedUserName": actor.DisplayName(),
		"householdName":  householdName,
		"method":         method,
	})
	return household, nil
}

// DeclineByToken marks a targeted invitation as declined by its invitee.
func (s *Service) DeclineByToken(token string, actor *model.User) error {
	inv, err := s.invitations.GetByToken(token)
	if err != nil {
		return err
	}
	if inv == nil {
		return ErrNotFound
	}
	if inv.Email != nil && !strings.EqualFold(*inv.Email, actor.Email) {
		return fmt.Errorf("%w: this invitation is not for you to decline", ErrForbidden)
	}
	if inv.Status != model.InvitationPending {
		return fmt.Errorf("%w: status %s", ErrNotPending, inv.Status)
	}
	if time.Now().After(inv.ExpiresAt) {
		if _, err := s.invitations.SetStatus(inv.ID, model.InvitationExpired); err != nil {
			s.logger.Error("mark invitation expired", "error", err, "invitation_id", inv.ID)
		}
		return ErrExpired
	}

	_, err = s.invitations.SetStatus(inv.ID, model.InvitationDeclined)
	return err
}

// Cancel withdraws a pending invitation. Allowed for the original inviter
// or the household owner. A pending-but-expired invitation can still be
// cancelled explicitly.
func (s *Service) Cancel(invitationID string, actor *model.User) (*model.Invitation, error) {
	inv, err := s.invitations.GetByID(invitationID)
	if err != nil {
		return nil, err
	}
	if inv == nil {
		return nil, ErrNotFound
	}

	isInviter := inv.InvitedByID == actor.ID
	isOwner := actor.Role == model.RoleOwner &&
		actor.HouseholdID != nil && *actor.HouseholdID == inv.HouseholdID
	if !isInviter && !isOwner {
		return nil, fmt.Errorf("%w: only the inviter or the household owner can cancel", ErrForbidden)
	}
	if inv.Status != model.InvitationPending {
		return nil, fmt.Errorf("%w: status %s", ErrNotPending, inv.Status)
	}

	return s.invitations.SetStatus(inv.ID, model.InvitationCancelled)
}

// ListPendingForHousehold returns the household's open invitations.
func (s *Service) ListPendingForHousehold(householdID string, actor *model.User) ([]model.Invitation, error) {
	if actor.HouseholdID == nil || *actor.HouseholdID != householdID {
		return nil, ErrForbidden
	}
	return s.invitations.ListPendingByHousehold(householdID)
}

// ListPendingForUser returns open invitations addressed to the actor's email.
func (s *Service) ListPendingForUser(actor *model.User) ([]model.Invitation, error) {
	return s.invitations.ListPendingByEmail(strings.ToLower(actor.Email))
}

func generateToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate token: %w", err)
	}
	return hex.EncodeToString(b), nil
}

// generateShortCode draws random codes until one is free among pending
// invitations or the retry budget runs out.
func (s *Service) generateShortCode() (string, error) {
	for i := 0; i < shortCodeMaxRetries; i++ {
		code, err := randomCode()
		if err != nil {
			return "", err
		}
		inUse, err := s.invitations.ShortCodeInUse(code)
		if err != nil {
			return "", err
		}
		if !inUse {
			return code, nil
		}
	}
	return "", ErrCodeExhausted
}

func randomCode() (string, error) {
	max := big.NewInt(int64(len(shortCodeCharset)))
	b := make([]byte, shortCodeLength)
	for i := range b {
		n, err := rand.Int(rand.Reader, max)
		if err != nil {
			return "", fmt.Errorf("generate code: %w", err)
		}
		b[i] = shortCodeCharset[n.Int64()]
	}
	return string(b), nil
}
