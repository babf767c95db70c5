package handler

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/haldaranup/Rent-Mate/internal/calendar"
	"github.com/haldaranup/Rent-Mate/internal/model"
)

// CalendarHandler serves the merged chore and expense calendar.
type CalendarHandler struct {
	svc    *calendar.Service
	logger *slog.Logger
}

func NewCalendarHandler(svc *calendar.Service, logger *slog.Logger) *CalendarHandler {
	return &CalendarHandler{svc: svc, logger: logger}
}

func (h *CalendarHandler) Events(w http.ResponseWriter, r *http.Request) {
	actor, ok := actorFromRequest(r)
	if !ok {
		writeError(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	start, err := parseDateParam(r, "start")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid start date")
		return
	}
	end, err := parseDateParam(r, "end")
	if err != nil {
		writeError(w, http.StatusBadRequest, "invalid end date")
		return
	}
	if end.Before(start) {
		writeError(w, http.StatusBadRequest, "end must not be before start")
		return
	}

	events, err := h.svc.Events(actor, start, end)
	if err != nil {
		if errors.Is(err, calendar.ErrNoHousehold) {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		h.logger.Error("calendar events", "error", err)
		writeError(w, http.StatusInternalServerError, "internal error")
		return
	}
	if events == nil {
		events = []model.CalendarEvent{}
	}
	writeJSON(w, http.StatusOK, events)
}

// parseDateParam accepts RFC 3339 timestamps or bare YYYY-MM-DD dates.
func parseDateParam(r *http.Request, key string) (time.Time, error) {
	v := r.URL.Query().Get(key)
	if v == "" {
		return time.Time{}, errors.New("missing " + key)
	}
	if t, err := time.Parse(time.RFC3339, v); err == nil {
		return t, nil
	}
	return time.Parse("2006-01-02", v)
}
