package standingshandlers

import (
	"context"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsevents "github.com/Black-And-White-Club/rally-league/app/modules/standings/events"
	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
	"github.com/google/uuid"
)

// Handlers defines the interface for standings event handlers.
type Handlers interface {
	// HandleMatchFinalized runs a finalized match through the pipeline and
	// announces the refreshed division table and rating history.
	HandleMatchFinalized(ctx context.Context, payload *standingsdomain.FinalizedMatch) ([]handlerwrapper.Result, error)

	// HandleAdminCommand dispatches an admin command: adjustments,
	// recalculation and season lock management.
	HandleAdminCommand(ctx context.Context, payload *standingsevents.AdminCommandPayload) ([]handlerwrapper.Result, error)
}

// RecalculationScheduler runs recalculation stages outside the handler, so
// a long replay never holds a message ack.
type RecalculationScheduler interface {
	SchedulePreview(ctx context.Context, jobID uuid.UUID) error
	ScheduleApply(ctx context.Context, jobID uuid.UUID, appliedBy string) error
}
