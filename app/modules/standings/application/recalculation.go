package standingsservice

import (
	"context"
	"errors"
	"fmt"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// recalculationSubject labels job-addressed operations in metrics.
const recalculationSubject = "recalculation"

// preconditionError marks failures that leave a job untouched: the job is
// missing, not in the state the transition starts from, or could not be read.
type preconditionError struct{ err error }

func (e *preconditionError) Error() string { return e.err.Error() }
func (e *preconditionError) Unwrap() error { return e.err }

// scopeComputation is one deterministic replay of a season projected onto a
// job's closure.
type scopeComputation struct {
	params      standingsdomain.RatingParameters
	state       *standingsdomain.SeasonState
	closure     standingsdomain.Closure
	replayed    standingsdomain.WriteSet
	fingerprint string
}

// SubmitRecalculation creates a PENDING job. At most one open job may exist
// per season, scope and target; a second submission is a conflict.
func (s *StandingsService) SubmitRecalculation(ctx context.Context, req RecalculationRequest) (results.OperationResult[RecalculationJob, error], error) {
	return withTelemetry(s, ctx, "SubmitRecalculation", req.SeasonID, func(ctx context.Context) (results.OperationResult[RecalculationJob, error], error) {
		job, err := s.submitRecalculation(ctx, req)
		if err == nil {
			s.metrics.RecordRecalculationStatus(ctx, string(job.Scope), string(job.Status))
		}
		return settle(job, err)
	})
}

func (s *StandingsService) submitRecalculation(ctx context.Context, req RecalculationRequest) (RecalculationJob, error) {
	if req.SeasonID == "" {
		return RecalculationJob{}, standingsdomain.ValidationError(ErrInvalidRequest, "season id is required")
	}
	scope, err := standingsdomain.ParseScope(string(req.Scope))
	if err != nil {
		return RecalculationJob{}, err
	}
	target := req.TargetID
	if scope == standingsdomain.ScopeSeason && target == "" {
		target = req.SeasonID
	}
	if target == "" {
		return RecalculationJob{}, standingsdomain.ValidationError(standingsdomain.ErrInvalidScope, "%s scope needs a target", scope)
	}
	if err := s.requireAdmin(ctx, req.RequestedBy); err != nil {
		return RecalculationJob{}, err
	}

	return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (RecalculationJob, error) {
		open, err := s.repo.FindOpenRecalculation(ctx, db, req.SeasonID, scope, target)
		if err != nil {
			return RecalculationJob{}, fmt.Errorf("failed to look up open recalculations: %w", err)
		}
		if open != nil {
			return RecalculationJob{}, standingsdomain.StateError(standingsdomain.ErrConflict,
				"recalculation %s is already %s for %s %s", open.ID, open.Status, scope, target)
		}

		now := s.now()
		job := &standingsdb.RatingRecalculation{
			ID:          uuid.New(),
			Scope:       scope,
			TargetID:    target,
			SeasonID:    req.SeasonID,
			Status:      standingsdb.RecalcPending,
			RequestedBy: req.RequestedBy,
			CreatedAt:   now,
			UpdatedAt:   now,
		}
		if err := s.repo.InsertRecalculation(ctx, db, job); err != nil {
			if errors.Is(err, standingsdb.ErrUniqueViolation) {
				return RecalculationJob{}, standingsdomain.StateError(standingsdomain.ErrConflict,
					"a recalculation is already open for %s %s", scope, target)
			}
			return RecalculationJob{}, fmt.Errorf("failed to insert recalculation: %w", err)
		}
		return jobFromModel(job), nil
	})
}

// GenerateRecalculationPreview replays the season in memory, diffs the job's
// closure against live rows and moves the job to PREVIEW_READY. Live rows are
// never written.
func (s *StandingsService) GenerateRecalculationPreview(ctx context.Context, jobID uuid.UUID) (results.OperationResult[RecalculationJob, error], error) {
	return withTelemetry(s, ctx, "GenerateRecalculationPreview", recalculationSubject, func(ctx context.Context) (results.OperationResult[RecalculationJob, error], error) {
		job, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (RecalculationJob, error) {
			return s.generatePreview(ctx, db, jobID)
		})
		return s.finishTransition(ctx, jobID, job, err)
	})
}

func (s *StandingsService) generatePreview(ctx context.Context, db bun.IDB, jobID uuid.UUID) (RecalculationJob, error) {
	job, err := s.lockJob(ctx, db, jobID, standingsdb.RecalcPending)
	if err != nil {
		return RecalculationJob{}, err
	}

	c, err := s.computeScope(ctx, db, job)
	if err != nil {
		return RecalculationJob{}, err
	}
	live, err := s.liveState(ctx, db, job.SeasonID)
	if err != nil {
		return RecalculationJob{}, err
	}

	changes := standingsdomain.DiffWriteSets(live.Project(c.closure), c.replayed)
	if changes == nil {
		changes = []standingsdomain.EntityChange{}
	}

	now := s.now()
	job.Status = standingsdb.RecalcPreviewReady
	job.ChangesPreview = changes
	job.AffectedPlayersCount = len(changes)
	job.PreviewHash = c.fingerprint
	job.ParametersVersion = c.params.Version
	job.PreviewGeneratedAt = now
	job.UpdatedAt = now
	if err := s.repo.UpdateRecalculation(ctx, db, job); err != nil {
		return RecalculationJob{}, fmt.Errorf("failed to store preview: %w", err)
	}

	s.logger.InfoContext(ctx, "Recalculation preview ready",
		attr.ExtractCorrelationID(ctx),
		attr.String("job_id", job.ID.String()),
		attr.SeasonID(job.SeasonID),
		attr.String("closure", c.closure.String()),
		attr.Int("affected_players", job.AffectedPlayersCount),
	)
	return jobFromModel(job), nil
}

// ApplyRecalculation re-runs the previewed computation and writes the
// closure in one transaction under the exclusive season lock. Any failure,
// including the apply timeout, rolls back every write and marks the job
// FAILED.
//
// Flow:
//  1. Job must be PREVIEW_READY
//  2. Exclusive season lock, then the season lock gate (override required)
//  3. Recompute and compare against the previewed fingerprint
//  4. Replace results, standings, ratings and history of the closure
//  5. Mark APPLIED
func (s *StandingsService) ApplyRecalculation(ctx context.Context, jobID uuid.UUID, appliedBy string) (results.OperationResult[RecalculationJob, error], error) {
	return withTelemetry(s, ctx, "ApplyRecalculation", recalculationSubject, func(ctx context.Context) (results.OperationResult[RecalculationJob, error], error) {
		if err := s.requireAdmin(ctx, appliedBy); err != nil {
			return settle(RecalculationJob{}, err)
		}

		applyCtx := ctx
		if s.settings.ApplyTimeout > 0 {
			var cancel context.CancelFunc
			applyCtx, cancel = context.WithTimeout(ctx, s.settings.ApplyTimeout)
			defer cancel()
		}

		job, err := runInTx(s, applyCtx, func(ctx context.Context, db bun.IDB) (RecalculationJob, error) {
			return s.applyRecalculation(ctx, db, jobID, appliedBy)
		})
		return s.finishTransition(ctx, jobID, job, err)
	})
}

func (s *StandingsService) applyRecalculation(ctx context.Context, db bun.IDB, jobID uuid.UUID, appliedBy string) (RecalculationJob, error) {
	// 1. Job state
	job, err := s.lockJob(ctx, db, jobID, standingsdb.RecalcPreviewReady)
	if err != nil {
		return RecalculationJob{}, err
	}

	// 2. Season
	if err := s.repo.AcquireSeasonExclusiveLock(ctx, db, job.SeasonID); err != nil {
		return RecalculationJob{}, fmt.Errorf("failed to lock season: %w", err)
	}
	lock, err := s.repo.GetSeasonLock(ctx, db, job.SeasonID)
	if err != nil {
		return RecalculationJob{}, fmt.Errorf("failed to load season lock: %w", err)
	}
	if err := standingsdomain.CheckSeasonWritable(lock.ToDomain(), standingsdomain.WriteRecalculation); err != nil {
		return RecalculationJob{}, err
	}

	// 3. Recompute
	c, err := s.computeScope(ctx, db, job)
	if err != nil {
		return RecalculationJob{}, err
	}
	if c.fingerprint != job.PreviewHash {
		return RecalculationJob{}, standingsdomain.ConsistencyError(standingsdomain.ErrReplayDiverged,
			"season %s changed since recalculation %s was previewed", job.SeasonID, job.ID)
	}

	// 4. Writes
	if err := s.writeScope(ctx, db, job.SeasonID, c); err != nil {
		return RecalculationJob{}, err
	}

	// 5. Job
	now := s.now()
	if err := s.repo.TouchSeasonComputation(ctx, db, &standingsdb.SeasonComputation{
		SeasonID:       job.SeasonID,
		LastComputedAt: now,
		Source:         standingsdb.SourceRecalculation,
	}); err != nil {
		return RecalculationJob{}, fmt.Errorf("failed to stamp season computation: %w", err)
	}
	job.Status = standingsdb.RecalcApplied
	job.AppliedAt = now
	job.AppliedBy = appliedBy
	job.UpdatedAt = now
	if err := s.repo.UpdateRecalculation(ctx, db, job); err != nil {
		return RecalculationJob{}, fmt.Errorf("failed to mark recalculation applied: %w", err)
	}
	return jobFromModel(job), nil
}

// GetRecalculation returns a job by id.
func (s *StandingsService) GetRecalculation(ctx context.Context, jobID uuid.UUID) (results.OperationResult[RecalculationJob, error], error) {
	return withTelemetry(s, ctx, "GetRecalculation", recalculationSubject, func(ctx context.Context) (results.OperationResult[RecalculationJob, error], error) {
		job, err := s.repo.GetRecalculation(ctx, nil, jobID)
		if err != nil {
			return results.OperationResult[RecalculationJob, error]{}, fmt.Errorf("failed to load recalculation: %w", err)
		}
		if job == nil {
			return settle(RecalculationJob{}, standingsdomain.ValidationError(standingsdomain.ErrNotFound, "recalculation %s", jobID))
		}
		return results.SuccessResult[RecalculationJob, error](jobFromModel(job)), nil
	})
}

// finishTransition settles a preview or apply outcome. Failures past the
// precondition checks mark the job FAILED in a separate write and are
// reported as failures: the job is terminal, so retrying cannot help.
func (s *StandingsService) finishTransition(ctx context.Context, jobID uuid.UUID, job RecalculationJob, err error) (results.OperationResult[RecalculationJob, error], error) {
	if err == nil {
		s.metrics.RecordRecalculationStatus(ctx, string(job.Scope), string(job.Status))
		return results.SuccessResult[RecalculationJob, error](job), nil
	}

	var pe *preconditionError
	if errors.As(err, &pe) {
		return settle(RecalculationJob{}, pe.err)
	}

	s.markFailed(ctx, jobID, err)
	return results.FailureResult[RecalculationJob, error](err), nil
}

// markFailed records a job failure. It runs detached from ctx so an expired
// apply deadline cannot prevent the FAILED transition.
func (s *StandingsService) markFailed(ctx context.Context, jobID uuid.UUID, cause error) {
	ctx = context.WithoutCancel(ctx)
	scope, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (standingsdomain.Scope, error) {
		job, err := s.repo.GetRecalculationForUpdate(ctx, db, jobID)
		if err != nil {
			return "", err
		}
		if job == nil || job.Status.IsTerminal() {
			return "", nil
		}
		now := s.now()
		job.Status = standingsdb.RecalcFailed
		job.FailedAt = now
		job.UpdatedAt = now
		job.ErrorMessage = cause.Error()
		if err := s.repo.UpdateRecalculation(ctx, db, job); err != nil {
			return "", err
		}
		return job.Scope, nil
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "Failed to mark recalculation failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("job_id", jobID.String()),
			attr.Error(err),
		)
		return
	}
	if scope != "" {
		s.metrics.RecordRecalculationStatus(ctx, string(scope), string(standingsdb.RecalcFailed))
		s.logger.WarnContext(ctx, "Recalculation failed",
			attr.ExtractCorrelationID(ctx),
			attr.String("job_id", jobID.String()),
			attr.Error(cause),
		)
	}
}

// lockJob row-locks a job and checks it is in the expected state.
func (s *StandingsService) lockJob(ctx context.Context, db bun.IDB, jobID uuid.UUID, want standingsdb.RecalculationStatus) (*standingsdb.RatingRecalculation, error) {
	job, err := s.repo.GetRecalculationForUpdate(ctx, db, jobID)
	if err != nil {
		return nil, &preconditionError{fmt.Errorf("failed to load recalculation: %w", err)}
	}
	if job == nil {
		return nil, &preconditionError{standingsdomain.ValidationError(standingsdomain.ErrNotFound, "recalculation %s", jobID)}
	}
	if job.Status != want {
		return nil, &preconditionError{standingsdomain.StateError(standingsdomain.ErrIllegalTransition,
			"recalculation %s is %s, expected %s", jobID, job.Status, want)}
	}
	return job, nil
}

// computeScope replays the whole season from its match ledger and projects
// the result onto the job's closure.
func (s *StandingsService) computeScope(ctx context.Context, db bun.IDB, job *standingsdb.RatingRecalculation) (*scopeComputation, error) {
	params, err := s.activeParameters(ctx, db)
	if err != nil {
		return nil, err
	}

	outcomes, err := s.repo.ListMatchOutcomes(ctx, db, job.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load match ledger: %w", err)
	}
	matches := make([]standingsdomain.FinalizedMatch, len(outcomes))
	for i, o := range outcomes {
		matches[i] = o.Payload
	}

	adjustments, err := s.repo.ListSeasonAdjustments(ctx, db, job.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load adjustments: %w", err)
	}
	events := make([]standingsdomain.AdjustmentEvent, len(adjustments))
	for i, a := range adjustments {
		events[i] = a.AdjustmentEvent()
	}

	lock, err := s.repo.GetSeasonLock(ctx, db, job.SeasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load season lock: %w", err)
	}

	state, err := standingsdomain.ReplaySeason(ctx, standingsdomain.ReplayInput{
		SeasonID:    job.SeasonID,
		Params:      params,
		Policy:      s.settings.Policy,
		BestK:       s.settings.BestK,
		Locked:      lock != nil && lock.IsLocked,
		Matches:     matches,
		Adjustments: events,
		Parallelism: s.settings.MaxParallelDivisions,
	})
	if err != nil {
		return nil, err
	}

	closure, err := standingsdomain.ResolveClosure(job.Scope, job.SeasonID, job.TargetID, matches, state)
	if err != nil {
		return nil, err
	}
	replayed := state.Project(closure)
	fingerprint, err := replayed.Fingerprint()
	if err != nil {
		return nil, err
	}
	return &scopeComputation{
		params:      params,
		state:       state,
		closure:     closure,
		replayed:    replayed,
		fingerprint: fingerprint,
	}, nil
}

// liveState reads the stored derived rows of a season into the same shape a
// replay produces.
func (s *StandingsService) liveState(ctx context.Context, db bun.IDB, seasonID string) (*standingsdomain.SeasonState, error) {
	stored, err := s.repo.ListSeasonResults(ctx, db, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load results: %w", err)
	}
	standings, err := s.repo.ListSeasonStandings(ctx, db, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load standings: %w", err)
	}
	ratings, err := s.repo.ListSeasonRatings(ctx, db, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}
	history, err := s.repo.ListSeasonRatingHistory(ctx, db, seasonID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rating history: %w", err)
	}

	state := &standingsdomain.SeasonState{
		Results:   standingsdb.ResultsToDomain(stored),
		Standings: standingsdb.StandingsToDomain(standings),
		Ratings:   make(map[string]standingsdomain.PlayerRating, len(ratings)),
		History:   make(map[string][]standingsdomain.RatingChange),
	}
	for _, r := range ratings {
		state.Ratings[r.PlayerID] = r.ToDomain()
	}
	for _, h := range history {
		state.History[h.PlayerID] = append(state.History[h.PlayerID], h.ToDomain())
	}
	return state, nil
}

// writeScope replaces every row of the closure with its replayed value.
// Result rows of entities outside the closure keep their values except the
// counted flag, which follows the rewritten standings of their division.
func (s *StandingsService) writeScope(ctx context.Context, db bun.IDB, seasonID string, c *scopeComputation) error {
	w := c.replayed

	// Results
	if err := s.repo.DeleteEntityResults(ctx, db, seasonID, w.Players); err != nil {
		return fmt.Errorf("failed to clear results: %w", err)
	}
	rows := make([]standingsdb.MatchResult, len(w.Results))
	for i, r := range w.Results {
		rows[i] = standingsdb.ResultFromDomain(r)
	}
	if err := s.repo.InsertMatchResults(ctx, db, rows); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}

	// Standings
	counted := make(map[string]bool, len(c.state.Results))
	for _, r := range c.state.Results {
		counted[r.MatchID+"|"+r.EntityID] = r.CountsForStandings
	}
	for _, divisionID := range w.Divisions {
		stored, err := s.repo.ListDivisionResults(ctx, db, seasonID, divisionID)
		if err != nil {
			return fmt.Errorf("failed to load division results: %w", err)
		}
		var moved []standingsdb.MatchResult
		for _, r := range stored {
			want := counted[r.MatchID+"|"+r.EntityID]
			if r.CountsForStandings != want {
				r.CountsForStandings = want
				moved = append(moved, r)
			}
		}
		if err := s.repo.UpdateCountedFlags(ctx, db, moved); err != nil {
			return fmt.Errorf("failed to update counted flags: %w", err)
		}

		var table []standingsdb.DivisionStanding
		for _, st := range w.Standings {
			if st.DivisionID == divisionID {
				table = append(table, standingsdb.StandingFromDomain(st))
			}
		}
		if err := s.repo.ReplaceDivisionStandings(ctx, db, seasonID, divisionID, table); err != nil {
			return fmt.Errorf("failed to replace standings: %w", err)
		}
	}

	// Ratings
	if err := s.repo.DeletePlayerRatings(ctx, db, seasonID, w.Players); err != nil {
		return fmt.Errorf("failed to clear ratings: %w", err)
	}
	ratings := make([]*standingsdb.PlayerRating, len(w.Ratings))
	for i, r := range w.Ratings {
		ratings[i] = standingsdb.RatingFromDomain(r)
	}
	if err := s.repo.UpsertPlayerRatings(ctx, db, ratings); err != nil {
		return fmt.Errorf("failed to write ratings: %w", err)
	}

	// History
	if err := s.repo.DeleteRatingHistory(ctx, db, seasonID, w.Players); err != nil {
		return fmt.Errorf("failed to clear rating history: %w", err)
	}
	sequences := make(map[string]int, len(w.Players))
	entries := make([]standingsdb.RatingHistory, 0, len(w.History))
	for _, change := range w.History {
		sequences[change.PlayerID]++
		entry, err := standingsdb.HistoryFromDomain(change, sequences[change.PlayerID])
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if err := s.repo.InsertRatingHistory(ctx, db, entries); err != nil {
		return fmt.Errorf("failed to write rating history: %w", err)
	}
	return nil
}
