package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/haldaranup/Rent-Mate/internal/household"
	"github.com/haldaranup/Rent-Mate/internal/websocket"
)

type HouseholdHandler struct {
	svc    *household.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewHouseholdHandler(svc *household.Service, hub *websocket.Hub, logger *slog.Logger) *HouseholdHandler {
	return &HouseholdHandler{svc: svc, hub: hub, logger: logger}
}

func (h *HouseholdHandler) broadcast(householdID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

func (h *HouseholdHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, household.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, household.ErrForbidden), errors.Is(err, household.ErrOwnerCannotLeave):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, household.ErrAlreadyInHousehold):
		writeError(w, http.StatusConflict, err.Error())
	case errors.Is(err, household.ErrNoHousehold), errors.Is(err, household.ErrNotMember):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("household operation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type householdRequest struct {
	Name string `json:"name"`
}

func (h *HouseholdHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	created, err := h.svc.Create(req.Name, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (h *HouseholdHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	got, err := h.svc.Get(r.PathValue("id"), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, got)
}

func (h *HouseholdHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req householdRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Name = strings.TrimSpace(req.Name)
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "name is required")
		return
	}

	id := r.PathValue("id")
	updated, err := h.svc.UpdateName(id, req.Name, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(id, websocket.NewMessage("household", "updated", id, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *HouseholdHandler) Delete(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	if err := h.svc.Delete(id, actor); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(id, websocket.NewMessage("household", "deleted", id, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) RemoveMember(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id := r.PathValue("id")
	memberID := r.PathValue("userId")
	if err := h.svc.RemoveMember(id, memberID, actor); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(id, websocket.NewMessage("household", "member_removed", memberID, nil))
	w.WriteHeader(http.StatusNoContent)
}

func (h *HouseholdHandler) Leave(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	householdID := ""
	if actor.HouseholdID != nil {
		householdID = *actor.HouseholdID
	}
	if err := h.svc.Leave(actor); err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(householdID, websocket.NewMessage("household", "member_removed", actor.ID, nil))
	w.WriteHeader(http.StatusNoContent)
}
