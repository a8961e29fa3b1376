package standingshandlers

import (
	"context"
	"fmt"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsevents "github.com/Black-And-White-Club/rally-league/app/modules/standings/events"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/handlerwrapper"
)

// HandleMatchFinalized records one finalized match. Infrastructure errors are
// returned so the message is redelivered; domain failures are published and
// the message is acked.
func (h *StandingsHandlers) HandleMatchFinalized(
	ctx context.Context,
	payload *standingsdomain.FinalizedMatch,
) ([]handlerwrapper.Result, error) {
	result, err := h.service.RecordMatch(ctx, *payload)
	if err != nil {
		return nil, fmt.Errorf("record match %s: %w", payload.MatchID, err)
	}

	if result.IsFailure() {
		failure := *result.Failure
		h.logger.WarnContext(ctx, "Match rejected",
			attr.MatchID(payload.MatchID),
			attr.SeasonID(payload.SeasonID),
			attr.Error(failure),
		)
		return []handlerwrapper.Result{{
			Topic: standingsevents.MatchRecordingFailedV1,
			Payload: &standingsevents.MatchRecordingFailedPayload{
				MatchID:   payload.MatchID,
				SeasonID:  payload.SeasonID,
				ErrorKind: errorKind(failure),
				Reason:    failure.Error(),
			},
		}}, nil
	}

	recorded := *result.Success
	if recorded.Duplicate {
		h.logger.InfoContext(ctx, "Match already recorded",
			attr.MatchID(recorded.MatchID),
		)
		return nil, nil
	}
	return h.matchRecordedResults(ctx, recorded), nil
}

func (h *StandingsHandlers) matchRecordedResults(ctx context.Context, recorded *standingsservice.MatchRecorded) []handlerwrapper.Result {
	out := []handlerwrapper.Result{{
		Topic: h.seasonTopic(ctx, standingsevents.StandingsUpdatedV1, recorded.SeasonID),
		Payload: &standingsevents.StandingsUpdatedPayload{
			SeasonID:   recorded.SeasonID,
			DivisionID: recorded.DivisionID,
			Standings:  recorded.Standings,
			ComputedAt: recorded.ComputedAt,
		},
	}}
	if len(recorded.RatingChanges) > 0 {
		out = append(out, handlerwrapper.Result{
			Topic: h.seasonTopic(ctx, standingsevents.RatingHistoryAppendedV1, recorded.SeasonID),
			Payload: &standingsevents.RatingHistoryAppendedPayload{
				SeasonID: recorded.SeasonID,
				Changes:  recorded.RatingChanges,
			},
		})
	}
	return out
}
