package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/chore"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/websocket"
)

type ChoreHandler struct {
	svc    *chore.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewChoreHandler(svc *chore.Service, hub *websocket.Hub, logger *slog.Logger) *ChoreHandler {
	return &ChoreHandler{svc: svc, hub: hub, logger: logger}
}

func (h *ChoreHandler) broadcast(householdID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

func (h *ChoreHandler) writeServiceError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, chore.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, chore.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, chore.ErrNotMember),
		errors.Is(err, chore.ErrNoHousehold),
		errors.Is(err, chore.ErrInvalidRecurrence):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("chore operation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type createChoreRequest struct {
	Description  string     `json:"description"`
	Notes        *string    `json:"notes"`
	DueDate      *time.Time `json:"due_date"`
	Recurrence   string     `json:"recurrence"`
	AssignedToID *string    `json:"assigned_to_id"`
}

func (h *ChoreHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createChoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}

	created, err := h.svc.Create(chore.CreateInput{
		Description:  req.Description,
		Notes:        req.Notes,
		DueDate:      req.DueDate,
		Recurrence:   req.Recurrence,
		AssignedToID: req.AssignedToID,
	}, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(created.HouseholdID, websocket.NewMessage("chore", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *ChoreHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	chores, err := h.svc.ListForHousehold(actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

func (h *ChoreHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	c, err := h.svc.Get(r.PathValue("id"), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update decodes a partial patch, distinguishing absent fields from
// explicit nulls for notes, due date, and assignee.
func (h *ChoreHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var raw map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&raw); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	var in chore.UpdateInput
	parse := func(key string, dst any) bool {
		v, ok := raw[key]
		if !ok {
			return false
		}
		if err := json.Unmarshal(v, dst); err != nil {
			writeError(w, http.StatusBadRequest, "invalid value for "+key)
			return false
		}
		return true
	}

	if _, ok := raw["description"]; ok && !parse("description", &in.Description) {
		return
	}
	if _, ok := raw["recurrence"]; ok && !parse("recurrence", &in.Recurrence) {
		return
	}
	if _, ok := raw["is_complete"]; ok && !parse("is_complete", &in.IsComplete) {
		return
	}
	if _, ok := raw["notes"]; ok {
		if !parse("notes", &in.Notes) {
			return
		}
		in.SetNotes = true
	}
	if _, ok := raw["due_date"]; ok {
		if !parse("due_date", &in.DueDate) {
			return
		}
		in.SetDueDate = true
	}
	if _, ok := raw["assigned_to_id"]; ok {
		if !parse("assigned_to_id", &in.AssignedToID) {
			return
		}
		in.SetAssignedTo = true
	}

	updated, err := h.svc.Update(r.PathValue("id"), in, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(updated.HouseholdID, websocket.NewMessage("chore", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

// Toggle flips completion state, rotating recurring chores.
func (h *ChoreHandler) Toggle(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	updated, err := h.svc.ToggleComplete(r.PathValue("id"), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(updated.HouseholdID, websocket.NewMessage("chore", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *ChoreHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
	if actor.HouseholdID != nil {
		h.broadcast(*actor.HouseholdID, websocket.NewMessage("chore", "deleted", id, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

func (h *ChoreHandler) Counts(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	counts, err := h.svc.Counts(actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, counts)
}

func (h *ChoreHandler) Unassigned(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	chores, err := h.svc.ListUnassigned(actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}

// Mine lists the chores assigned to the authenticated user.
func (h *ChoreHandler) Mine(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	chores, err := h.svc.ListAssignedTo(actor.ID, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if chores == nil {
		chores = []model.Chore{}
	}
	writeJSON(w, http.StatusOK, chores)
}
