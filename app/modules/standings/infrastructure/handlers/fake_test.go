package standingshandlers

import (
	"context"
	"sync"

	standingsservice "github.com/Black-And-White-Club/rally-league/app/modules/standings/application"
	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/google/uuid"
)

// FakeService implements standingsservice.Service for handler testing.
type FakeService struct {
	trace []string

	RecordMatchFunc         func(ctx context.Context, match standingsdomain.FinalizedMatch) (results.OperationResult[*standingsservice.MatchRecorded, error], error)
	SubmitRecalculationFunc func(ctx context.Context, req standingsservice.RecalculationRequest) (results.OperationResult[standingsservice.RecalculationJob, error], error)
	GetRecalculationFunc    func(ctx context.Context, jobID uuid.UUID) (results.OperationResult[standingsservice.RecalculationJob, error], error)
	GrantAdjustmentFunc     func(ctx context.Context, req standingsservice.AdjustmentRequest) (results.OperationResult[standingsservice.AdjustmentGranted, error], error)
	LockSeasonFunc          func(ctx context.Context, req standingsservice.LockRequest) (results.OperationResult[standingsdomain.SeasonLock, error], error)
	SetLockOverrideFunc     func(ctx context.Context, seasonID, adminID string, allowed bool) (results.OperationResult[standingsdomain.SeasonLock, error], error)
	UnlockSeasonFunc        func(ctx context.Context, seasonID, adminID string) (results.OperationResult[standingsdomain.SeasonLock, error], error)
}

var _ standingsservice.Service = (*FakeService)(nil)

func NewFakeService() *FakeService {
	return &FakeService{trace: []string{}}
}

func (f *FakeService) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeService) Trace() []string {
	return f.trace
}

func (f *FakeService) RecordMatch(ctx context.Context, match standingsdomain.FinalizedMatch) (results.OperationResult[*standingsservice.MatchRecorded, error], error) {
	f.record("RecordMatch")
	if f.RecordMatchFunc != nil {
		return f.RecordMatchFunc(ctx, match)
	}
	return results.SuccessResult[*standingsservice.MatchRecorded, error](&standingsservice.MatchRecorded{MatchID: match.MatchID, SeasonID: match.SeasonID}), nil
}

func (f *FakeService) GetDivisionStandings(ctx context.Context, seasonID, divisionID string) (results.OperationResult[[]standingsdomain.Standing, error], error) {
	f.record("GetDivisionStandings")
	return results.SuccessResult[[]standingsdomain.Standing, error](nil), nil
}

func (f *FakeService) GetPlayerRating(ctx context.Context, seasonID, playerID string) (results.OperationResult[standingsdomain.PlayerRating, error], error) {
	f.record("GetPlayerRating")
	return results.SuccessResult[standingsdomain.PlayerRating, error](standingsdomain.PlayerRating{}), nil
}

func (f *FakeService) GetRatingHistory(ctx context.Context, seasonID, playerID string) (results.OperationResult[[]standingsdomain.RatingChange, error], error) {
	f.record("GetRatingHistory")
	return results.SuccessResult[[]standingsdomain.RatingChange, error](nil), nil
}

func (f *FakeService) GetSeasonStatus(ctx context.Context, seasonID string) (results.OperationResult[standingsservice.SeasonStatus, error], error) {
	f.record("GetSeasonStatus")
	return results.SuccessResult[standingsservice.SeasonStatus, error](standingsservice.SeasonStatus{SeasonID: seasonID}), nil
}

func (f *FakeService) RenderRatingChart(ctx context.Context, seasonID, playerID string) (results.OperationResult[[]byte, error], error) {
	f.record("RenderRatingChart")
	return results.SuccessResult[[]byte, error](nil), nil
}

func (f *FakeService) SubmitRecalculation(ctx context.Context, req standingsservice.RecalculationRequest) (results.OperationResult[standingsservice.RecalculationJob, error], error) {
	f.record("SubmitRecalculation")
	if f.SubmitRecalculationFunc != nil {
		return f.SubmitRecalculationFunc(ctx, req)
	}
	return results.SuccessResult[standingsservice.RecalculationJob, error](standingsservice.RecalculationJob{ID: uuid.New(), SeasonID: req.SeasonID, Scope: req.Scope}), nil
}

func (f *FakeService) GenerateRecalculationPreview(ctx context.Context, jobID uuid.UUID) (results.OperationResult[standingsservice.RecalculationJob, error], error) {
	f.record("GenerateRecalculationPreview")
	return results.SuccessResult[standingsservice.RecalculationJob, error](standingsservice.RecalculationJob{ID: jobID}), nil
}

func (f *FakeService) ApplyRecalculation(ctx context.Context, jobID uuid.UUID, appliedBy string) (results.OperationResult[standingsservice.RecalculationJob, error], error) {
	f.record("ApplyRecalculation")
	return results.SuccessResult[standingsservice.RecalculationJob, error](standingsservice.RecalculationJob{ID: jobID}), nil
}

func (f *FakeService) GetRecalculation(ctx context.Context, jobID uuid.UUID) (results.OperationResult[standingsservice.RecalculationJob, error], error) {
	f.record("GetRecalculation")
	if f.GetRecalculationFunc != nil {
		return f.GetRecalculationFunc(ctx, jobID)
	}
	return results.SuccessResult[standingsservice.RecalculationJob, error](standingsservice.RecalculationJob{ID: jobID}), nil
}

func (f *FakeService) GrantAdjustment(ctx context.Context, req standingsservice.AdjustmentRequest) (results.OperationResult[standingsservice.AdjustmentGranted, error], error) {
	f.record("GrantAdjustment")
	if f.GrantAdjustmentFunc != nil {
		return f.GrantAdjustmentFunc(ctx, req)
	}
	return results.SuccessResult[standingsservice.AdjustmentGranted, error](standingsservice.AdjustmentGranted{}), nil
}

func (f *FakeService) LockSeason(ctx context.Context, req standingsservice.LockRequest) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
	f.record("LockSeason")
	if f.LockSeasonFunc != nil {
		return f.LockSeasonFunc(ctx, req)
	}
	return results.SuccessResult[standingsdomain.SeasonLock, error](standingsdomain.SeasonLock{SeasonID: req.SeasonID, IsLocked: true, LockedBy: req.AdminID}), nil
}

func (f *FakeService) SetLockOverride(ctx context.Context, seasonID, adminID string, allowed bool) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
	f.record("SetLockOverride")
	if f.SetLockOverrideFunc != nil {
		return f.SetLockOverrideFunc(ctx, seasonID, adminID, allowed)
	}
	return results.SuccessResult[standingsdomain.SeasonLock, error](standingsdomain.SeasonLock{SeasonID: seasonID, IsLocked: true, OverrideAllowed: allowed}), nil
}

func (f *FakeService) UnlockSeason(ctx context.Context, seasonID, adminID string) (results.OperationResult[standingsdomain.SeasonLock, error], error) {
	f.record("UnlockSeason")
	if f.UnlockSeasonFunc != nil {
		return f.UnlockSeasonFunc(ctx, seasonID, adminID)
	}
	return results.SuccessResult[standingsdomain.SeasonLock, error](standingsdomain.SeasonLock{SeasonID: seasonID}), nil
}

func (f *FakeService) ExportSeason(ctx context.Context, seasonID string) (results.OperationResult[[]byte, error], error) {
	f.record("ExportSeason")
	return results.SuccessResult[[]byte, error](nil), nil
}

func (f *FakeService) PublishParameters(ctx context.Context, params standingsdomain.RatingParameters, publishedBy string) (results.OperationResult[standingsdomain.RatingParameters, error], error) {
	f.record("PublishParameters")
	return results.SuccessResult[standingsdomain.RatingParameters, error](params), nil
}

func (f *FakeService) GetActiveParameters(ctx context.Context) (results.OperationResult[standingsdomain.RatingParameters, error], error) {
	f.record("GetActiveParameters")
	return results.SuccessResult[standingsdomain.RatingParameters, error](standingsdomain.DefaultRatingParameters()), nil
}

// FakeScheduler implements RecalculationScheduler for testing.
type FakeScheduler struct {
	mu       sync.Mutex
	Previews []uuid.UUID
	Applies  []uuid.UUID

	SchedulePreviewFunc func(ctx context.Context, jobID uuid.UUID) error
	ScheduleApplyFunc   func(ctx context.Context, jobID uuid.UUID, appliedBy string) error
}

func (f *FakeScheduler) SchedulePreview(ctx context.Context, jobID uuid.UUID) error {
	f.mu.Lock()
	f.Previews = append(f.Previews, jobID)
	f.mu.Unlock()
	if f.SchedulePreviewFunc != nil {
		return f.SchedulePreviewFunc(ctx, jobID)
	}
	return nil
}

func (f *FakeScheduler) ScheduleApply(ctx context.Context, jobID uuid.UUID, appliedBy string) error {
	f.mu.Lock()
	f.Applies = append(f.Applies, jobID)
	f.mu.Unlock()
	if f.ScheduleApplyFunc != nil {
		return f.ScheduleApplyFunc(ctx, jobID, appliedBy)
	}
	return nil
}
