package activity

import (
	"log/slog"

	"github.com/haldaranup/Rent-Mate/internal/model"
	"github.com/haldaranup/Rent-Mate/internal/store"
)

// Recorder writes household audit entries. Recording is best-effort: a
// failed insert is logged and swallowed so it can never fail the business
// mutation that triggered it.
type Recorder struct {
	store  *store.ActivityStore
	logger *slog.Logger
}

func NewRecorder(s *store.ActivityStore, logger *slog.Logger) *Recorder {
	return &Recorder{store: s, logger: logger}
}

// Record persists one audit entry. ActorID may be nil for system actions
// such as chore rotation.
func (r *Recorder) Record(householdID string, actorID *string, entityID, entityType, activityType string, details map[string]any) {
	entry := model.ActivityLog{
		HouseholdID:  householdID,
		ActorID:      actorID,
		EntityID:     entityID,
		EntityType:   entityType,
		ActivityType: activityType,
		Details:      details,
	}
	if _, err := r.store.Insert(entry); err != nil {
		r.logger.Error("record activity",
			"error", err,
			"household_id", householdID,
			"activity_type", activityType,
			"entity_id", entityID,
		)
	}
}
