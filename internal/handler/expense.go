package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/expense"
	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/websocket"
)

type ExpenseHandler struct {
	svc    *expense.Service
	hub    *websocket.Hub
	logger *slog.Logger
}

func NewExpenseHandler(svc *expense.Service, hub *websocket.Hub, logger *slog.Logger) *ExpenseHandler {
	return &ExpenseHandler{svc: svc, hub: hub, logger: logger}
}

func (h *ExpenseHandler) broadcast(householdID string, msg websocket.Message) {
	if h.hub != nil {
		h.hub.Broadcast(householdID, msg)
	}
}

func (h *ExpenseHandler) writeServiceError(w http.ResponseWriter, err error) {
	var sumErr *expense.ShareSumError
	switch {
	case errors.As(err, &sumErr):
		writeError(w, http.StatusBadRequest, sumErr.Error())
	case errors.Is(err, expense.ErrNotFound):
		writeError(w, http.StatusNotFound, err.Error())
	case errors.Is(err, expense.ErrForbidden):
		writeError(w, http.StatusForbidden, err.Error())
	case errors.Is(err, expense.ErrNoHousehold),
		errors.Is(err, expense.ErrNotMember),
		errors.Is(err, expense.ErrEmptyShares),
		errors.Is(err, expense.ErrPayerRequired),
		errors.Is(err, expense.ErrAmountNeedsShares):
		writeError(w, http.StatusBadRequest, err.Error())
	default:
		h.logger.Error("expense operation", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
	}
}

type createExpenseRequest struct {
	Description string               `json:"description"`
	Amount      float64              `json:"amount"`
	Date        *time.Time           `json:"date"`
	PaidByID    string               `json:"paid_by_id"`
	Shares      []expense.ShareInput `json:"shares"`
}

func (h *ExpenseHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req createExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	req.Description = strings.TrimSpace(req.Description)
	if req.Description == "" {
		writeError(w, http.StatusBadRequest, "description is required")
		return
	}
	if req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}
	date := time.Now().UTC()
	if req.Date != nil {
		date = *req.Date
	}

	created, err := h.svc.Create(expense.CreateInput{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        date,
		PaidByID:    req.PaidByID,
		Shares:      req.Shares,
	}, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(created.HouseholdID, websocket.NewMessage("expense", "created", created.ID, nil))
	writeJSON(w, http.StatusCreated, created)
}

func (h *ExpenseHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	expenses, err := h.svc.ListForHousehold(actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if expenses == nil {
		expenses = []model.Expense{}
	}
	writeJSON(w, http.StatusOK, expenses)
}

func (h *ExpenseHandler) Get(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	e, err := h.svc.Get(r.PathValue("id"), actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, e)
}

type updateExpenseRequest struct {
	Description *string              `json:"description"`
	Amount      *float64             `json:"amount"`
	Date        *time.Time           `json:"date"`
	PaidByID    *string              `json:"paid_by_id"`
	Shares      []expense.ShareInput `json:"shares"`
}

func (h *ExpenseHandler) Update(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req updateExpenseRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}
	if req.Amount != nil && *req.Amount <= 0 {
		writeError(w, http.StatusBadRequest, "amount must be positive")
		return
	}

	updated, err := h.svc.Update(r.PathValue("id"), expense.UpdateInput{
		Description: req.Description,
		Amount:      req.Amount,
		Date:        req.Date,
		PaidByID:    req.PaidByID,
		Shares:      req.Shares,
	}, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	h.broadcast(updated.HouseholdID, websocket.NewMessage("expense", "updated", updated.ID, nil))
	writeJSON(w, http.StatusOK, updated)
}

func (h *ExpenseHandler) Delete(w http.ResponseWriter, r *http.Request) {
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
		h.broadcast(*actor.HouseholdID, websocket.NewMessage("expense", "deleted", id, nil))
	}
	w.WriteHeader(http.StatusNoContent)
}

type settleShareRequest struct {
	Settle bool `json:"settle"`
}

// SettleShare marks a single expense share settled or unsettled.
func (h *ExpenseHandler) SettleShare(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	var req settleShareRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON")
		return
	}

	share, err := h.svc.ToggleShareSettlement(r.PathValue("id"), req.Settle, actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if actor.HouseholdID != nil {
		h.broadcast(*actor.HouseholdID, websocket.NewMessage("expense", "updated", share.ExpenseID, nil))
	}
	writeJSON(w, http.StatusOK, share)
}

// Balances returns every member's net position in the household ledger.
func (h *ExpenseHandler) Balances(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if actor.HouseholdID == nil || *actor.HouseholdID != r.PathValue("id") {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}
	balances, err := h.svc.Balances(actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, balances)
}

// SettleUp returns the transfer list that zeroes the ledger.
func (h *ExpenseHandler) SettleUp(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if actor.HouseholdID == nil || *actor.HouseholdID != r.PathValue("id") {
		writeError(w, http.StatusForbidden, "not a member of this household")
		return
	}
	suggestions, err := h.svc.SettleUp(actor)
	if err != nil {
		h.writeServiceError(w, err)
		return
	}
	if suggestions == nil {
		suggestions = []model.SettleUpSuggestion{}
	}
	writeJSON(w, http.StatusOK, suggestions)
}
