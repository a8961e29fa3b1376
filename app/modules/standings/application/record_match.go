package standingsservice

import (
	"context"
	"errors"
	"fmt"
	"sort"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/Black-And-White-Club/rally-league/app/observability/attr"
	"github.com/Black-And-White-Club/rally-league/pkg/results"
	"github.com/uptrace/bun"
)

// RecordMatch runs one finalized match through the pipeline.
//
// Flow (single transaction):
//  1. Load the active rating parameters
//  2. Lock the season (shared), the division, then every entity in sorted order
//  3. Idempotency check against the match ledger
//  4. Reject writes into a locked season
//  5. Score and sequence the result rows, store them with the ledger entry
//  6. Re-aggregate the division and replace its standings
//  7. Rate the match and append rating history
//  8. Stamp the season's last computation time
//
// A match played before results or adjustments already recorded for one of
// its players cannot be appended. It is recorded by recordOutOfOrder
// instead, which replays the season under the exclusive season lock so
// sequences, counted flags and ratings follow date played.
func (s *StandingsService) RecordMatch(ctx context.Context, match standingsdomain.FinalizedMatch) (results.OperationResult[*MatchRecorded, error], error) {
	return withTelemetry(s, ctx, "RecordMatch", match.SeasonID, func(ctx context.Context) (results.OperationResult[*MatchRecorded, error], error) {
		if err := standingsdomain.ValidateMatch(match); err != nil {
			return settle[*MatchRecorded](nil, err)
		}

		recorded, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (*MatchRecorded, error) {
			return s.recordMatch(ctx, db, match)
		})
		if errors.Is(err, errOutOfOrder) {
			s.logger.InfoContext(ctx, "Match played before recorded activity, replaying season",
				attr.ExtractCorrelationID(ctx),
				attr.MatchID(match.MatchID),
				attr.SeasonID(match.SeasonID),
			)
			recorded, err = runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (*MatchRecorded, error) {
				return s.recordOutOfOrder(ctx, db, match)
			})
		}
		if err == nil && !recorded.Duplicate {
			s.metrics.RecordMatchRecorded(ctx, string(match.SportType), string(match.GameType))
			for _, c := range recorded.RatingChanges {
				s.metrics.RecordRatingDelta(ctx, string(c.Reason), c.Delta)
			}
		}
		return settle(recorded, err)
	})
}

func (s *StandingsService) recordMatch(ctx context.Context, db bun.IDB, m standingsdomain.FinalizedMatch) (*MatchRecorded, error) {
	// 1. Parameters are read once and threaded through the whole computation
	params, err := s.activeParameters(ctx, db)
	if err != nil {
		return nil, err
	}

	// 2. Locks
	if err := s.repo.AcquireSeasonSharedLock(ctx, db, m.SeasonID); err != nil {
		return nil, fmt.Errorf("failed to lock season: %w", err)
	}
	if err := s.repo.AcquireDivisionLock(ctx, db, m.SeasonID, m.DivisionID); err != nil {
		return nil, fmt.Errorf("failed to lock division: %w", err)
	}
	if err := s.repo.AcquireEntityLocks(ctx, db, m.SeasonID, lockSet(m)); err != nil {
		return nil, fmt.Errorf("failed to lock entities: %w", err)
	}

	// 3. Idempotency
	hash := standingsdomain.ComputeProcessingHash(m)
	if dup, err := s.checkLedger(ctx, db, m, hash); dup != nil || err != nil {
		return dup, err
	}

	// 4. Season lock
	if err := s.checkLiveWritable(ctx, db, m.SeasonID); err != nil {
		return nil, err
	}

	// 5. Results
	later, err := s.repo.HasLaterActivity(ctx, db, m.SeasonID, m.PlayerIDs(), standingsdb.PositionOf(m))
	if err != nil {
		return nil, fmt.Errorf("failed to check match order: %w", err)
	}
	if later {
		return nil, errOutOfOrder
	}

	now := s.now()
	rows := standingsdomain.ScoreMatch(m)
	prior, err := s.repo.CountEntityResults(ctx, db, m.SeasonID, m.PlayerIDs())
	if err != nil {
		return nil, fmt.Errorf("failed to count prior results: %w", err)
	}
	standingsdomain.AssignSequences(rows, prior)

	if err := s.repo.InsertMatchOutcome(ctx, db, &standingsdb.MatchOutcome{
		MatchID:        m.MatchID,
		SeasonID:       m.SeasonID,
		DivisionID:     m.DivisionID,
		ProcessingHash: hash,
		Payload:        m,
		ProcessedAt:    now,
	}); err != nil {
		return nil, duplicateOr(err, m.MatchID, "failed to store match outcome")
	}

	stored := make([]standingsdb.MatchResult, len(rows))
	for i, r := range rows {
		stored[i] = standingsdb.ResultFromDomain(r)
	}
	if err := s.repo.InsertMatchResults(ctx, db, stored); err != nil {
		return nil, duplicateOr(err, m.MatchID, "failed to store match results")
	}

	// 6. Standings
	standings, flagged, err := s.refreshDivision(ctx, db, m.SeasonID, m.DivisionID, false)
	if err != nil {
		return nil, err
	}
	for _, f := range flagged {
		if f.MatchID != m.MatchID {
			continue
		}
		for i := range rows {
			if rows[i].EntityID == f.EntityID {
				rows[i].CountsForStandings = f.CountsForStandings
			}
		}
	}

	// 7. Ratings
	changes, err := s.rateMatch(ctx, db, params, m)
	if err != nil {
		return nil, err
	}

	// 8. Freshness
	if err := s.repo.TouchSeasonComputation(ctx, db, &standingsdb.SeasonComputation{
		SeasonID:       m.SeasonID,
		LastComputedAt: now,
		Source:         standingsdb.SourcePipeline,
	}); err != nil {
		return nil, fmt.Errorf("failed to stamp season computation: %w", err)
	}

	return &MatchRecorded{
		MatchID:       m.MatchID,
		SeasonID:      m.SeasonID,
		DivisionID:    m.DivisionID,
		Results:       rows,
		Standings:     standings,
		RatingChanges: changes,
		ComputedAt:    now,
	}, nil
}

// errOutOfOrder aborts the appending pipeline for a match that sorts before
// activity already recorded for one of its players.
var errOutOfOrder = errors.New("match sorts before recorded activity")

// checkLedger returns a duplicate marker when m was already processed with
// the same payload, and a validation error when the payload changed.
func (s *StandingsService) checkLedger(ctx context.Context, db bun.IDB, m standingsdomain.FinalizedMatch, hash string) (*MatchRecorded, error) {
	existing, err := s.repo.GetMatchOutcome(ctx, db, m.MatchID)
	if err != nil {
		return nil, fmt.Errorf("failed to check match ledger: %w", err)
	}
	if existing == nil {
		return nil, nil
	}
	if existing.ProcessingHash != hash {
		return nil, standingsdomain.ValidationError(standingsdomain.ErrDuplicateResult,
			"match %s was already recorded with a different payload", m.MatchID)
	}
	s.logger.InfoContext(ctx, "Match already recorded, skipping",
		attr.ExtractCorrelationID(ctx),
		attr.MatchID(m.MatchID),
		attr.SeasonID(m.SeasonID),
	)
	return &MatchRecorded{
		MatchID:    m.MatchID,
		SeasonID:   m.SeasonID,
		DivisionID: m.DivisionID,
		Duplicate:  true,
		ComputedAt: existing.ProcessedAt,
	}, nil
}

func (s *StandingsService) checkLiveWritable(ctx context.Context, db bun.IDB, seasonID string) error {
	lock, err := s.repo.GetSeasonLock(ctx, db, seasonID)
	if err != nil {
		return fmt.Errorf("failed to load season lock: %w", err)
	}
	return standingsdomain.CheckSeasonWritable(lock.ToDomain(), standingsdomain.WriteLiveResult)
}

// recordOutOfOrder stores the ledger entry of m, then rebuilds the season
// from its ledger and rewrites every derived row. The exclusive season lock
// keeps every other writer out while rows of other players move.
func (s *StandingsService) recordOutOfOrder(ctx context.Context, db bun.IDB, m standingsdomain.FinalizedMatch) (*MatchRecorded, error) {
	if _, err := s.activeParameters(ctx, db); err != nil {
		return nil, err
	}
	if err := s.repo.AcquireSeasonExclusiveLock(ctx, db, m.SeasonID); err != nil {
		return nil, fmt.Errorf("failed to lock season: %w", err)
	}

	hash := standingsdomain.ComputeProcessingHash(m)
	if dup, err := s.checkLedger(ctx, db, m, hash); dup != nil || err != nil {
		return dup, err
	}
	if err := s.checkLiveWritable(ctx, db, m.SeasonID); err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repo.InsertMatchOutcome(ctx, db, &standingsdb.MatchOutcome{
		MatchID:        m.MatchID,
		SeasonID:       m.SeasonID,
		DivisionID:     m.DivisionID,
		ProcessingHash: hash,
		Payload:        m,
		ProcessedAt:    now,
	}); err != nil {
		return nil, duplicateOr(err, m.MatchID, "failed to store match outcome")
	}

	c, err := s.computeScope(ctx, db, &standingsdb.RatingRecalculation{
		SeasonID: m.SeasonID,
		Scope:    standingsdomain.ScopeSeason,
		TargetID: m.SeasonID,
	})
	if err != nil {
		return nil, err
	}
	if err := s.writeScope(ctx, db, m.SeasonID, c); err != nil {
		return nil, err
	}

	if err := s.repo.TouchSeasonComputation(ctx, db, &standingsdb.SeasonComputation{
		SeasonID:       m.SeasonID,
		LastComputedAt: now,
		Source:         standingsdb.SourcePipeline,
	}); err != nil {
		return nil, fmt.Errorf("failed to stamp season computation: %w", err)
	}

	recorded := &MatchRecorded{
		MatchID:    m.MatchID,
		SeasonID:   m.SeasonID,
		DivisionID: m.DivisionID,
		Standings:  c.state.Standings[m.DivisionID],
		ComputedAt: now,
	}
	for _, r := range c.state.Results {
		if r.MatchID == m.MatchID {
			recorded.Results = append(recorded.Results, r)
		}
	}
	for _, id := range m.PlayerIDs() {
		for _, change := range c.state.History[id] {
			if change.MatchID == m.MatchID {
				recorded.RatingChanges = append(recorded.RatingChanges, change)
			}
		}
	}
	return recorded, nil
}

// refreshDivision re-aggregates a division from its stored rows, writes back
// any counted flag that moved and replaces the standings table. The returned
// rows carry the new flags.
func (s *StandingsService) refreshDivision(ctx context.Context, db bun.IDB, seasonID, divisionID string, locked bool) ([]standingsdomain.Standing, []standingsdomain.ResultRow, error) {
	stored, err := s.repo.ListDivisionResults(ctx, db, seasonID, divisionID)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load division results: %w", err)
	}

	standings, flagged, err := standingsdomain.AggregateDivision(standingsdomain.AggregateInput{
		SeasonID:   seasonID,
		DivisionID: divisionID,
		Rows:       standingsdb.ResultsToDomain(stored),
		Policy:     s.settings.Policy,
		BestK:      s.settings.BestK,
		Locked:     locked,
	})
	if err != nil {
		return nil, nil, err
	}

	var moved []standingsdb.MatchResult
	for i := range flagged {
		if flagged[i].CountsForStandings != stored[i].CountsForStandings {
			stored[i].CountsForStandings = flagged[i].CountsForStandings
			moved = append(moved, stored[i])
		}
	}
	if err := s.repo.UpdateCountedFlags(ctx, db, moved); err != nil {
		return nil, nil, fmt.Errorf("failed to update counted flags: %w", err)
	}

	table := make([]standingsdb.DivisionStanding, len(standings))
	for i, st := range standings {
		table[i] = standingsdb.StandingFromDomain(st)
	}
	if err := s.repo.ReplaceDivisionStandings(ctx, db, seasonID, divisionID, table); err != nil {
		return nil, nil, fmt.Errorf("failed to replace standings: %w", err)
	}
	return standings, flagged, nil
}

// rateMatch updates every participant's rating and appends history. Players
// without a rating this season are seeded from the active parameters.
func (s *StandingsService) rateMatch(ctx context.Context, db bun.IDB, params standingsdomain.RatingParameters, m standingsdomain.FinalizedMatch) ([]standingsdomain.RatingChange, error) {
	playerIDs := m.PlayerIDs()
	stored, err := s.repo.GetPlayerRatings(ctx, db, m.SeasonID, playerIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to load ratings: %w", err)
	}

	ratings := make(map[string]standingsdomain.PlayerRating, len(playerIDs))
	for _, id := range playerIDs {
		if row, ok := stored[id]; ok {
			ratings[id] = row.ToDomain()
			continue
		}
		ratings[id] = standingsdomain.NewPlayerRating(m.SeasonID, id, params, m.DatePlayed)
	}

	changes, err := standingsdomain.RateMatch(params, m, ratings)
	if err != nil {
		return nil, err
	}

	updated := make([]*standingsdb.PlayerRating, 0, len(playerIDs))
	for _, id := range playerIDs {
		updated = append(updated, standingsdb.RatingFromDomain(ratings[id]))
	}
	if err := s.repo.UpsertPlayerRatings(ctx, db, updated); err != nil {
		return nil, fmt.Errorf("failed to store ratings: %w", err)
	}

	if err := s.appendHistory(ctx, db, m.SeasonID, changes); err != nil {
		return nil, err
	}
	return changes, nil
}

// appendHistory numbers changes after each player's latest history entry.
func (s *StandingsService) appendHistory(ctx context.Context, db bun.IDB, seasonID string, changes []standingsdomain.RatingChange) error {
	if len(changes) == 0 {
		return nil
	}
	players := make([]string, 0, len(changes))
	for _, c := range changes {
		players = append(players, c.PlayerID)
	}
	latest, err := s.repo.LatestHistorySequences(ctx, db, seasonID, players)
	if err != nil {
		return fmt.Errorf("failed to load history sequences: %w", err)
	}

	entries := make([]standingsdb.RatingHistory, 0, len(changes))
	for _, c := range changes {
		latest[c.PlayerID]++
		entry, err := standingsdb.HistoryFromDomain(c, latest[c.PlayerID])
		if err != nil {
			return err
		}
		entries = append(entries, entry)
	}
	if err := s.repo.InsertRatingHistory(ctx, db, entries); err != nil {
		return fmt.Errorf("failed to append rating history: %w", err)
	}
	return nil
}

// lockSet is every entity a match writes for: its players and, for doubles,
// their partnerships.
func lockSet(m standingsdomain.FinalizedMatch) []string {
	seen := map[string]bool{}
	var ids []string
	for _, id := range append(m.PlayerIDs(), m.StandingEntities()...) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

func duplicateOr(err error, matchID, msg string) error {
	if errors.Is(err, standingsdb.ErrUniqueViolation) {
		return standingsdomain.ValidationError(standingsdomain.ErrDuplicateResult, "match %s already has results", matchID)
	}
	return fmt.Errorf("%s: %w", msg, err)
}
