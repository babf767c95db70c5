package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"net/mail"
	"strings"

	"github.com/haldaranup/Rent-Mate/internal/invitation"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/websocket"
)

type InvitationHandler struct {
	svc    *invitation.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewInvitationHandler(svc *invitation.Service, hub *websocket.Hub, logger *slog.Logger) *InvitationHandler {
	return &InvitationHandler{svc: svc, hub: hub, logger: logger}
}

func (h *InvitationHandler) broadcast(householdID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

func (h *InvitationHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, invitation.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, invitation.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, invitation.ErrAlreadyMember),
		errors.Is(err, invitation.ErrAlreadyInvited),
		errors.Is(err, invitation.ErrAlreadyInHousehold):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, invitation.ErrExpired),
		errors.Is(err, invitation.ErrNotPending):
		writeError(w, http.StatusGone, err.Error())
	default:
		h.logger.Error("invitation operation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type createInvitationRequest struct {
	Email       string `json:"email"`
	HouseholdID string `json:"household_id"`
}

// householdIDFor resolves the target household: an explicit one from the
// request body, or the caller's own.
func householdIDFor(req string, actor *model.User) string {
	if req != "" {
		return req
	}
	if actor.HouseholdID != nil {
		return *actor.HouseholdID
	}
	return ""
}

// CreateEmail invites an email address to a household.
func (h *InvitationHandler) CreateEmail(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createInvitationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Email = strings.TrimSpace(strings.ToLower(req.Email))
	if _, err := mail.ParseAddress(req.Email); err != nil {
		writeError(w, http.StatusBadRequest, "invalid email address")
		return
	}
	householdID := householdIDFor(req.HouseholdID, actor)
	if householdID == "" {
		writeError(w, http.StatusBadRequest, "user does not belong to a household")
		return
	}

	inv, err := h.svc.CreateEmailInvitation(r.Context(), householdID, req.Email, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

// CreateShortCode mints a shareable join code.
func (h *InvitationHandler) CreateShortCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createInvitationRequest
	if r.Body != nil {
		// Body is optional; an empty or absent one targets the caller's
		// household.
		_ = json.NewDecoder(r.Body).Decode(&req)
	}
	householdID := householdIDFor(req.HouseholdID, actor)
	if householdID == "" {
		writeError(w, http.StatusBadRequest, "user does not belong to a household")
		return
	}

	inv, err := h.svc.CreateShortCodeInvitation(householdID, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, inv)
}

type acceptTokenRequest struct {
	Token string `json:"token"`
}

// Accept joins the caller to the household behind an email invitation token.
func (h *InvitationHandler) Accept(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req acceptTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	household, err := h.svc.AcceptByToken(req.Token, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(household.ID, websocket.NewMessage("household", "member_added", actor.ID, nil))
	writeJSON(w, http.StatusOK, household)
}

type joinCodeRequest struct {
	Code string `json:"code"`
}

// JoinByCode joins the caller to the household behind a short join code.
func (h *InvitationHandler) JoinByCode(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req joinCodeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Code = strings.TrimSpace(req.Code)
	if req.Code == "" {
		writeError(w, http.StatusBadRequest, "code is required")
		return
	}

	household, err := h.svc.AcceptByShortCode(req.Code, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(household.ID, websocket.NewMessage("household", "member_added", actor.ID, nil))
	writeJSON(w, http.StatusOK, household)
}

// Decline turns down a targeted invitation.
func (h *InvitationHandler) Decline(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req acceptTokenRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Token == "" {
		writeError(w, http.StatusBadRequest, "token is required")
		return
	}

	if err := h.svc.DeclineByToken(req.Token, actor); err != nil {
		h.writeServiceError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Cancel withdraws a pending invitation by ID.
func (h *InvitationHandler) Cancel(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	inv, err := h.svc.Cancel(r.PathValue("id"), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, inv)
}

// ListPendingHousehold returns the open invitations for the household in
// the path.
func (h *InvitationHandler) ListPendingHousehold(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	invs, err := h.svc.ListPendingForHousehold(r.PathValue("id"), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if invs == nil {
		invs = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invs)
}

// ListMine returns open invitations addressed to the caller's email.
func (h *InvitationHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	invs, err := h.svc.ListPendingForUser(actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if invs == nil {
		invs = []model.Invitation{}
	}
	writeJSON(w, http.StatusOK, invs)
}
