package handler

import (
	"log/slog"
	"net/http"
	"strconv"

	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

// ActivityHandler serves the paginated household audit feed.
type ActivityHandler struct {
	activities *store.ActivityStore
	logger     *slog.Logger
}

func NewActivityHandler(activities *store.ActivityStore, logger *slog.Logger) *ActivityHandler {
	return &ActivityHandler{activities: activities, logger: logger}
}

const (
	defaultActivityLimit = 20
	maxActivityLimit     = 100
)

func (h *ActivityHandler) List(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	if actor.HouseholdID == nil {
		writeError(w, http.StatusBadRequest, "user does not belong to a household")
		return
	}

	page := queryInt(r, "page", 1)
	if page < 1 {
		page = 1
	}
	limit := queryInt(r, "limit", defaultActivityLimit)
	if limit < 1 {
		limit = defaultActivityLimit
	}
	if limit > maxActivityLimit {
		limit = maxActivityLimit
	}

	logs, total, err := h.activities.ListByHousehold(*actor.HouseholdID, page, limit)
	if err != nil {
		h.logger.Error("list activity", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if logs == nil {
		logs = []model.ActivityLog{}
	}

	totalPages := (total + limit - 1) / limit
	writeJSON(w, http.StatusOK, model.ActivityPage{
		Logs:       logs,
		Total:      total,
		Page:       page,
		Limit:      limit,
		TotalPages: totalPages,
	})
}

func queryInt(r *http.Request, key string, fallback int) int {
	v := r.URL.Query().Get(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}
