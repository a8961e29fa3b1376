package standingshandlers

import (
	"context"
	"fmt"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsevents "github.com/Black-And-White-Club/rally-league/app/modules/standings/events"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/google/uuid"
)

// Admin command outcomes as reported to metrics.
const (
	outcomeAccepted  = "accepted"
	outcomeRejected  = "rejected"
	outcomeThrottled = "throttled"
	outcomeError     = "error"
)

// errorKindThrottled labels commands dropped by the per-actor limiter.
const errorKindThrottled = "throttled"

// commandOutcome splits a service return into its success value, business
// failure and infrastructure error.
func commandOutcome[S any](res results.OperationResult[S, error], err error) (*S, error, error) {
	if err != nil {
		return nil, nil, err
	}
	if res.IsFailure() {
		return nil, *res.Failure, nil
	}
	return res.Success, nil, nil
}

// HandleAdminCommand validates and dispatches one admin command. Rejections
// are published on AdminCommandFailedV1; infrastructure errors are returned
// so the command is redelivered.
func (h *StandingsHandlers) HandleAdminCommand(
	ctx context.Context,
	payload *standingsevents.AdminCommandPayload,
) ([]handlerwrapper.Result, error) {
	commandType := string(payload.Type)
	if !h.limiter.Allow(payload.Actor) {
		h.metrics.RecordAdminCommand(ctx, commandType, outcomeThrottled)
		return h.commandFailed(payload, errorKindThrottled, fmt.Sprintf("too many commands from %s", payload.Actor)), nil
	}

	var (
		out     []handlerwrapper.Result
		failure error
		err     error
	)
	switch payload.Type {
	case standingsevents.CommandGrantAdjustment:
		out, failure, err = h.grantAdjustment(ctx, payload)
	case standingsevents.CommandSubmitRecalc:
		out, failure, err = h.submitRecalculation(ctx, payload)
	case standingsevents.CommandApplyRecalc:
		out, failure, err = h.applyRecalculation(ctx, payload)
	case standingsevents.CommandLockSeason:
		out, failure, err = h.lockSeason(ctx, payload)
	case standingsevents.CommandSetLockOverride:
		out, failure, err = h.setLockOverride(ctx, payload)
	case standingsevents.CommandUnlockSeason:
		out, failure, err = h.unlockSeason(ctx, payload)
	default:
		failure = standingsdomain.ValidationError(standingsservice.ErrInvalidRequest, "unknown command type %q", payload.Type)
	}

	if err != nil {
		h.metrics.RecordAdminCommand(ctx, commandType, outcomeError)
		return nil, fmt.Errorf("admin command %s (%s): %w", payload.CommandID, commandType, err)
	}
	if failure != nil {
		h.metrics.RecordAdminCommand(ctx, commandType, outcomeRejected)
		h.logger.WarnContext(ctx, "Admin command rejected",
			attr.String("command_id", payload.CommandID),
			attr.String("command_type", commandType),
			attr.String("actor", payload.Actor),
			attr.Error(failure),
		)
		return h.commandFailed(payload, errorKind(failure), failure.Error()), nil
	}

	h.metrics.RecordAdminCommand(ctx, commandType, outcomeAccepted)
	return out, nil
}

func (h *StandingsHandlers) commandFailed(payload *standingsevents.AdminCommandPayload, kind, reason string) []handlerwrapper.Result {
	return []handlerwrapper.Result{{
		Topic: standingsevents.AdminCommandFailedV1,
		Payload: &standingsevents.AdminCommandFailedPayload{
			CommandID: payload.CommandID,
			Type:      payload.Type,
			Actor:     payload.Actor,
			ErrorKind: kind,
			Reason:    reason,
		},
	}}
}

func missingArgs(payload *standingsevents.AdminCommandPayload, what string) error {
	return standingsdomain.ValidationError(standingsservice.ErrInvalidRequest, "%s needs %s", payload.Type, what)
}

func (h *StandingsHandlers) grantAdjustment(ctx context.Context, payload *standingsevents.AdminCommandPayload) ([]handlerwrapper.Result, error, error) {
	args := payload.Adjustment
	if args == nil {
		return nil, missingArgs(payload, "adjustment arguments"), nil
	}

	granted, failure, err := commandOutcome[standingsservice.AdjustmentGranted](h.service.GrantAdjustment(ctx, standingsservice.AdjustmentRequest{
		SeasonID:  payload.SeasonID,
		PlayerID:  payload.Target,
		AdminID:   payload.Actor,
		Type:      standingsdb.AdjustmentType(args.Type),
		NewRating: args.NewRating,
		Reason:    args.Reason,
	}))
	if err != nil || failure != nil {
		return nil, failure, err
	}

	return []handlerwrapper.Result{{
		Topic: h.seasonTopic(ctx, standingsevents.RatingHistoryAppendedV1, payload.SeasonID),
		Payload: &standingsevents.RatingHistoryAppendedPayload{
			SeasonID: payload.SeasonID,
			Changes:  []standingsdomain.RatingChange{granted.Change},
		},
	}}, nil, nil
}

func (h *StandingsHandlers) submitRecalculation(ctx context.Context, payload *standingsevents.AdminCommandPayload) ([]handlerwrapper.Result, error, error) {
	req := standingsservice.RecalculationRequest{
		SeasonID:    payload.SeasonID,
		Scope:       standingsdomain.ScopeSeason,
		RequestedBy: payload.Actor,
	}
	if args := payload.Recalc; args != nil {
		req.Scope = args.Scope
		req.TargetID = args.TargetID
	}

	job, failure, err := commandOutcome[standingsservice.RecalculationJob](h.service.SubmitRecalculation(ctx, req))
	if err != nil || failure != nil {
		return nil, failure, err
	}

	// The job row is committed, so a redelivery would only report a conflict.
	// A PENDING job left behind is re-driven with `league recalc preview`.
	if err := h.scheduler.SchedulePreview(ctx, job.ID); err != nil {
		h.logger.ErrorContext(ctx, "Failed to schedule recalculation preview",
			attr.String("job_id", job.ID.String()),
			attr.Error(err),
		)
		job.ErrorMessage = "preview not scheduled: " + err.Error()
	}

	return []handlerwrapper.Result{{
		Topic:   standingsevents.RecalculationResultV1,
		Payload: job.ResultPayload(),
	}}, nil, nil
}

func (h *StandingsHandlers) applyRecalculation(ctx context.Context, payload *standingsevents.AdminCommandPayload) ([]handlerwrapper.Result, error, error) {
	jobID, err := uuid.Parse(payload.Target)
	if err != nil {
		return nil, standingsdomain.ValidationError(standingsservice.ErrInvalidRequest, "target %q is not a job id", payload.Target), nil
	}

	job, failure, err := commandOutcome[standingsservice.RecalculationJob](h.service.GetRecalculation(ctx, jobID))
	if err != nil || failure != nil {
		return nil, failure, err
	}
	if job.Status != standingsdb.RecalcPreviewReady {
		return nil, standingsdomain.StateError(standingsdomain.ErrIllegalTransition,
			"recalculation %s is %s, expected %s", jobID, job.Status, standingsdb.RecalcPreviewReady), nil
	}

	if err := h.scheduler.ScheduleApply(ctx, jobID, payload.Actor); err != nil {
		return nil, nil, fmt.Errorf("schedule apply of %s: %w", jobID, err)
	}
	return nil, nil, nil
}

func (h *StandingsHandlers) lockSeason(ctx context.Context, payload *standingsevents.AdminCommandPayload) ([]handlerwrapper.Result, error, error) {
	req := standingsservice.LockRequest{SeasonID: payload.SeasonID, AdminID: payload.Actor}
	if payload.Lock != nil {
		req.Export = payload.Lock.Export
	}
	return h.lockChanged(ctx, payload)(commandOutcome[standingsdomain.SeasonLock](h.service.LockSeason(ctx, req)))
}

func (h *StandingsHandlers) setLockOverride(ctx context.Context, payload *standingsevents.AdminCommandPayload) ([]handlerwrapper.Result, error, error) {
	if payload.Lock == nil {
		return nil, missingArgs(payload, "lock arguments"), nil
	}
	return h.lockChanged(ctx, payload)(commandOutcome[standingsdomain.SeasonLock](h.service.SetLockOverride(ctx, payload.SeasonID, payload.Actor, payload.Lock.OverrideAllowed)))
}

func (h *StandingsHandlers) unlockSeason(ctx context.Context, payload *standingsevents.AdminCommandPayload) ([]handlerwrapper.Result, error, error) {
	return h.lockChanged(ctx, payload)(commandOutcome[standingsdomain.SeasonLock](h.service.UnlockSeason(ctx, payload.SeasonID, payload.Actor)))
}

// lockChanged turns a lock command outcome into a SeasonLockChangedV1 event.
func (h *StandingsHandlers) lockChanged(ctx context.Context, payload *standingsevents.AdminCommandPayload) func(*standingsdomain.SeasonLock, error, error) ([]handlerwrapper.Result, error, error) {
	return func(lock *standingsdomain.SeasonLock, failure, err error) ([]handlerwrapper.Result, error, error) {
		if err != nil || failure != nil {
			return nil, failure, err
		}
		return []handlerwrapper.Result{{
			Topic: h.seasonTopic(ctx, standingsevents.SeasonLockChangedV1, lock.SeasonID),
			Payload: &standingsevents.SeasonLockChangedPayload{
				CommandID:       payload.CommandID,
				SeasonID:        lock.SeasonID,
				IsLocked:        lock.IsLocked,
				LockedBy:        lock.LockedBy,
				LockedAt:        lock.LockedAt,
				OverrideAllowed: lock.OverrideAllowed,
				SnapshotRef:     lock.SnapshotRef,
			},
		}}, nil, nil
	}
}
