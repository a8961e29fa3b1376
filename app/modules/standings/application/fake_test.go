package standingsservice

import (
	"context"
	"database/sql"
	"sort"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/google/uuid"
	"github.com/uptrace/bun"
)

// ------------------------
// In-memory store
// ------------------------

type fakeStore struct {
	outcomes     map[string]standingsdb.MatchOutcome
	results      []standingsdb.MatchResult
	standings    map[string][]standingsdb.DivisionStanding
	ratings      map[string]standingsdb.PlayerRating
	history      []standingsdb.RatingHistory
	adjustments  []standingsdb.RatingAdjustment
	jobs         map[uuid.UUID]standingsdb.RatingRecalculation
	params       []standingsdb.RatingParameters
	locks        map[string]standingsdb.SeasonLock
	computations map[string]standingsdb.SeasonComputation
	nextID       int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		outcomes:     map[string]standingsdb.MatchOutcome{},
		standings:    map[string][]standingsdb.DivisionStanding{},
		ratings:      map[string]standingsdb.PlayerRating{},
		jobs:         map[uuid.UUID]standingsdb.RatingRecalculation{},
		locks:        map[string]standingsdb.SeasonLock{},
		computations: map[string]standingsdb.SeasonComputation{},
	}
}

// clone copies every table. Rows are values, so copying the containers is
// enough for the fake transaction to restore a snapshot.
func (s *fakeStore) clone() *fakeStore {
	c := newFakeStore()
	for k, v := range s.outcomes {
		c.outcomes[k] = v
	}
	c.results = append([]standingsdb.MatchResult(nil), s.results...)
	for k, v := range s.standings {
		c.standings[k] = append([]standingsdb.DivisionStanding(nil), v...)
	}
	for k, v := range s.ratings {
		c.ratings[k] = v
	}
	c.history = append([]standingsdb.RatingHistory(nil), s.history...)
	c.adjustments = append([]standingsdb.RatingAdjustment(nil), s.adjustments...)
	for k, v := range s.jobs {
		c.jobs[k] = v
	}
	c.params = append([]standingsdb.RatingParameters(nil), s.params...)
	for k, v := range s.locks {
		c.locks[k] = v
	}
	for k, v := range s.computations {
		c.computations[k] = v
	}
	c.nextID = s.nextID
	return c
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func key(parts ...string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += "|"
		}
		out += p
	}
	return out
}

func contains(ids []string) map[string]bool {
	m := make(map[string]bool, len(ids))
	for _, id := range ids {
		m[id] = true
	}
	return m
}

// ------------------------
// Fake Repository
// ------------------------

// FakeRepository keeps rows in memory. Any XxxFunc hook replaces the default
// behaviour of its method.
type FakeRepository struct {
	trace []string
	store *fakeStore

	InsertMatchOutcomeFunc     func(ctx context.Context, db bun.IDB, outcome *standingsdb.MatchOutcome) error
	InsertMatchResultsFunc     func(ctx context.Context, db bun.IDB, results []standingsdb.MatchResult) error
	ReplaceStandingsFunc       func(ctx context.Context, db bun.IDB, seasonID, divisionID string, standings []standingsdb.DivisionStanding) error
	UpsertPlayerRatingsFunc    func(ctx context.Context, db bun.IDB, ratings []*standingsdb.PlayerRating) error
	InsertRatingHistoryFunc    func(ctx context.Context, db bun.IDB, entries []standingsdb.RatingHistory) error
	DeleteEntityResultsFunc    func(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) error
	GetActiveParametersFunc    func(ctx context.Context, db bun.IDB) (*standingsdb.RatingParameters, error)
	InsertRecalculationFunc    func(ctx context.Context, db bun.IDB, job *standingsdb.RatingRecalculation) error
	UpdateRecalculationFunc    func(ctx context.Context, db bun.IDB, job *standingsdb.RatingRecalculation) error
	ListMatchOutcomesFunc      func(ctx context.Context, db bun.IDB, seasonID string) ([]standingsdb.MatchOutcome, error)
	TouchSeasonComputationFunc func(ctx context.Context, db bun.IDB, computation *standingsdb.SeasonComputation) error
}

func NewFakeRepository() *FakeRepository {
	return &FakeRepository{
		trace: []string{},
		store: newFakeStore(),
	}
}

func (f *FakeRepository) record(step string) {
	f.trace = append(f.trace, step)
}

// Trace returns the calls made so far, in order.
func (f *FakeRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

// --- Locking ---

func (f *FakeRepository) AcquireSeasonSharedLock(ctx context.Context, db bun.IDB, seasonID string) error {
	f.record("AcquireSeasonSharedLock")
	return nil
}

func (f *FakeRepository) AcquireSeasonExclusiveLock(ctx context.Context, db bun.IDB, seasonID string) error {
	f.record("AcquireSeasonExclusiveLock")
	return nil
}

func (f *FakeRepository) AcquireDivisionLock(ctx context.Context, db bun.IDB, seasonID, divisionID string) error {
	f.record("AcquireDivisionLock")
	return nil
}

func (f *FakeRepository) AcquireEntityLocks(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) error {
	f.record("AcquireEntityLocks")
	return nil
}

// --- Match outcome ledger ---

func (f *FakeRepository) GetMatchOutcome(ctx context.Context, db bun.IDB, matchID string) (*standingsdb.MatchOutcome, error) {
	f.record("GetMatchOutcome")
	o, ok := f.store.outcomes[matchID]
	if !ok {
		return nil, nil
	}
	return &o, nil
}

func (f *FakeRepository) InsertMatchOutcome(ctx context.Context, db bun.IDB, outcome *standingsdb.MatchOutcome) error {
	f.record("InsertMatchOutcome")
	if f.InsertMatchOutcomeFunc != nil {
		return f.InsertMatchOutcomeFunc(ctx, db, outcome)
	}
	if _, ok := f.store.outcomes[outcome.MatchID]; ok {
		return standingsdb.ErrUniqueViolation
	}
	f.store.outcomes[outcome.MatchID] = *outcome
	return nil
}

func (f *FakeRepository) ListMatchOutcomes(ctx context.Context, db bun.IDB, seasonID string) ([]standingsdb.MatchOutcome, error) {
	f.record("ListMatchOutcomes")
	if f.ListMatchOutcomesFunc != nil {
		return f.ListMatchOutcomesFunc(ctx, db, seasonID)
	}
	var out []standingsdb.MatchOutcome
	for _, o := range f.store.outcomes {
		if o.SeasonID == seasonID {
			out = append(out, o)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].MatchID < out[j].MatchID })
	return out, nil
}

// --- Match results ---

func (f *FakeRepository) CountEntityResults(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) (map[string]int, error) {
	f.record("CountEntityResults")
	want := contains(entityIDs)
	out := map[string]int{}
	for _, r := range f.store.results {
		if r.SeasonID == seasonID && want[r.EntityID] {
			out[r.EntityID]++
		}
	}
	return out, nil
}

func (f *FakeRepository) HasLaterActivity(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string, pos standingsdb.MatchPosition) (bool, error) {
	f.record("HasLaterActivity")
	want := contains(playerIDs)
	for _, r := range f.store.results {
		if r.SeasonID != seasonID || !want[r.EntityID] {
			continue
		}
		stored := standingsdb.MatchPosition{DatePlayed: r.DatePlayed, CreatedAt: r.MatchCreatedAt, MatchID: r.MatchID}
		if positionBefore(pos, stored) {
			return true, nil
		}
	}
	for _, a := range f.store.adjustments {
		if a.SeasonID == seasonID && want[a.PlayerID] && a.CreatedAt.After(pos.DatePlayed) {
			return true, nil
		}
	}
	return false, nil
}

func positionBefore(a, b standingsdb.MatchPosition) bool {
	if !a.DatePlayed.Equal(b.DatePlayed) {
		return a.DatePlayed.Before(b.DatePlayed)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.MatchID < b.MatchID
}

func (f *FakeRepository) InsertMatchResults(ctx context.Context, db bun.IDB, results []standingsdb.MatchResult) error {
	f.record("InsertMatchResults")
	if f.InsertMatchResultsFunc != nil {
		return f.InsertMatchResultsFunc(ctx, db, results)
	}
	for _, r := range results {
		for _, existing := range f.store.results {
			if existing.MatchID == r.MatchID && existing.EntityID == r.EntityID {
				return standingsdb.ErrUniqueViolation
			}
		}
		r.ID = f.store.id()
		f.store.results = append(f.store.results, r)
	}
	return nil
}

func sortResults(rows []standingsdb.MatchResult) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].EntityID != rows[j].EntityID {
			return rows[i].EntityID < rows[j].EntityID
		}
		return rows[i].ResultSequence < rows[j].ResultSequence
	})
}

func (f *FakeRepository) ListDivisionResults(ctx context.Context, db bun.IDB, seasonID, divisionID string) ([]standingsdb.MatchResult, error) {
	f.record("ListDivisionResults")
	var out []standingsdb.MatchResult
	for _, r := range f.store.results {
		if r.SeasonID == seasonID && r.DivisionID == divisionID {
			out = append(out, r)
		}
	}
	sortResults(out)
	return out, nil
}

func (f *FakeRepository) ListSeasonResults(ctx context.Context, db bun.IDB, seasonID string) ([]standingsdb.MatchResult, error) {
	f.record("ListSeasonResults")
	var out []standingsdb.MatchResult
	for _, r := range f.store.results {
		if r.SeasonID == seasonID {
			out = append(out, r)
		}
	}
	sortResults(out)
	return out, nil
}

func (f *FakeRepository) UpdateCountedFlags(ctx context.Context, db bun.IDB, results []standingsdb.MatchResult) error {
	f.record("UpdateCountedFlags")
	flags := make(map[int64]bool, len(results))
	for _, r := range results {
		flags[r.ID] = r.CountsForStandings
	}
	for i := range f.store.results {
		if v, ok := flags[f.store.results[i].ID]; ok {
			f.store.results[i].CountsForStandings = v
		}
	}
	return nil
}

func (f *FakeRepository) DeleteEntityResults(ctx context.Context, db bun.IDB, seasonID string, entityIDs []string) error {
	f.record("DeleteEntityResults")
	if f.DeleteEntityResultsFunc != nil {
		return f.DeleteEntityResultsFunc(ctx, db, seasonID, entityIDs)
	}
	drop := contains(entityIDs)
	kept := f.store.results[:0:0]
	for _, r := range f.store.results {
		if r.SeasonID == seasonID && drop[r.EntityID] {
			continue
		}
		kept = append(kept, r)
	}
	f.store.results = kept
	return nil
}

// --- Division standings ---

func (f *FakeRepository) ReplaceDivisionStandings(ctx context.Context, db bun.IDB, seasonID, divisionID string, standings []standingsdb.DivisionStanding) error {
	f.record("ReplaceDivisionStandings")
	if f.ReplaceStandingsFunc != nil {
		return f.ReplaceStandingsFunc(ctx, db, seasonID, divisionID, standings)
	}
	f.store.standings[key(seasonID, divisionID)] = append([]standingsdb.DivisionStanding(nil), standings...)
	return nil
}

func (f *FakeRepository) ListDivisionStandings(ctx context.Context, db bun.IDB, seasonID, divisionID string) ([]standingsdb.DivisionStanding, error) {
	f.record("ListDivisionStandings")
	out := append([]standingsdb.DivisionStanding(nil), f.store.standings[key(seasonID, divisionID)]...)
	sort.SliceStable(out, func(i, j int) bool { return out[i].Rank < out[j].Rank })
	return out, nil
}

func (f *FakeRepository) ListSeasonStandings(ctx context.Context, db bun.IDB, seasonID string) ([]standingsdb.DivisionStanding, error) {
	f.record("ListSeasonStandings")
	var out []standingsdb.DivisionStanding
	for _, rows := range f.store.standings {
		for _, r := range rows {
			if r.SeasonID == seasonID {
				out = append(out, r)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].DivisionID != out[j].DivisionID {
			return out[i].DivisionID < out[j].DivisionID
		}
		return out[i].Rank < out[j].Rank
	})
	return out, nil
}

func (f *FakeRepository) SetStandingsLocked(ctx context.Context, db bun.IDB, seasonID string, locked bool) error {
	f.record("SetStandingsLocked")
	for k, rows := range f.store.standings {
		updated := append([]standingsdb.DivisionStanding(nil), rows...)
		for i := range updated {
			if updated[i].SeasonID == seasonID {
				updated[i].IsLocked = locked
			}
		}
		f.store.standings[k] = updated
	}
	return nil
}

// --- Player ratings and history ---

func (f *FakeRepository) GetPlayerRating(ctx context.Context, db bun.IDB, seasonID, playerID string) (*standingsdb.PlayerRating, error) {
	f.record("GetPlayerRating")
	r, ok := f.store.ratings[key(seasonID, playerID)]
	if !ok {
		return nil, nil
	}
	return &r, nil
}

func (f *FakeRepository) GetPlayerRatings(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) (map[string]*standingsdb.PlayerRating, error) {
	f.record("GetPlayerRatings")
	out := map[string]*standingsdb.PlayerRating{}
	for _, id := range playerIDs {
		if r, ok := f.store.ratings[key(seasonID, id)]; ok {
			out[id] = &r
		}
	}
	return out, nil
}

func (f *FakeRepository) ListSeasonRatings(ctx context.Context, db bun.IDB, seasonID string) ([]standingsdb.PlayerRating, error) {
	f.record("ListSeasonRatings")
	var out []standingsdb.PlayerRating
	for _, r := range f.store.ratings {
		if r.SeasonID == seasonID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CurrentRating != out[j].CurrentRating {
			return out[i].CurrentRating > out[j].CurrentRating
		}
		return out[i].PlayerID < out[j].PlayerID
	})
	return out, nil
}

func (f *FakeRepository) UpsertPlayerRatings(ctx context.Context, db bun.IDB, ratings []*standingsdb.PlayerRating) error {
	f.record("UpsertPlayerRatings")
	if f.UpsertPlayerRatingsFunc != nil {
		return f.UpsertPlayerRatingsFunc(ctx, db, ratings)
	}
	for _, r := range ratings {
		k := key(r.SeasonID, r.PlayerID)
		if existing, ok := f.store.ratings[k]; ok {
			r.ID = existing.ID
		} else {
			r.ID = f.store.id()
		}
		f.store.ratings[k] = *r
	}
	return nil
}

func (f *FakeRepository) DeletePlayerRatings(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) error {
	f.record("DeletePlayerRatings")
	for _, id := range playerIDs {
		delete(f.store.ratings, key(seasonID, id))
	}
	return nil
}

func (f *FakeRepository) LatestHistorySequences(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) (map[string]int, error) {
	f.record("LatestHistorySequences")
	want := contains(playerIDs)
	out := map[string]int{}
	for _, h := range f.store.history {
		if h.SeasonID == seasonID && want[h.PlayerID] && h.Sequence > out[h.PlayerID] {
			out[h.PlayerID] = h.Sequence
		}
	}
	return out, nil
}

func (f *FakeRepository) InsertRatingHistory(ctx context.Context, db bun.IDB, entries []standingsdb.RatingHistory) error {
	f.record("InsertRatingHistory")
	if f.InsertRatingHistoryFunc != nil {
		return f.InsertRatingHistoryFunc(ctx, db, entries)
	}
	for _, e := range entries {
		e.ID = f.store.id()
		f.store.history = append(f.store.history, e)
	}
	return nil
}

func (f *FakeRepository) ListRatingHistory(ctx context.Context, db bun.IDB, seasonID, playerID string) ([]standingsdb.RatingHistory, error) {
	f.record("ListRatingHistory")
	var out []standingsdb.RatingHistory
	for _, h := range f.store.history {
		if h.SeasonID == seasonID && h.PlayerID == playerID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Sequence < out[j].Sequence })
	return out, nil
}

func (f *FakeRepository) ListSeasonRatingHistory(ctx context.Context, db bun.IDB, seasonID string) ([]standingsdb.RatingHistory, error) {
	f.record("ListSeasonRatingHistory")
	var out []standingsdb.RatingHistory
	for _, h := range f.store.history {
		if h.SeasonID == seasonID {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].PlayerID != out[j].PlayerID {
			return out[i].PlayerID < out[j].PlayerID
		}
		return out[i].Sequence < out[j].Sequence
	})
	return out, nil
}

func (f *FakeRepository) DeleteRatingHistory(ctx context.Context, db bun.IDB, seasonID string, playerIDs []string) error {
	f.record("DeleteRatingHistory")
	drop := contains(playerIDs)
	kept := f.store.history[:0:0]
	for _, h := range f.store.history {
		if h.SeasonID == seasonID && drop[h.PlayerID] {
			continue
		}
		kept = append(kept, h)
	}
	f.store.history = kept
	return nil
}

// --- Adjustments ---

func (f *FakeRepository) InsertAdjustment(ctx context.Context, db bun.IDB, adjustment *standingsdb.RatingAdjustment) error {
	f.record("InsertAdjustment")
	f.store.adjustments = append(f.store.adjustments, *adjustment)
	return nil
}

func (f *FakeRepository) ListSeasonAdjustments(ctx context.Context, db bun.IDB, seasonID string) ([]standingsdb.RatingAdjustment, error) {
	f.record("ListSeasonAdjustments")
	var out []standingsdb.RatingAdjustment
	for _, a := range f.store.adjustments {
		if a.SeasonID == seasonID {
			out = append(out, a)
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out, nil
}

// --- Recalculation jobs ---

func (f *FakeRepository) InsertRecalculation(ctx context.Context, db bun.IDB, job *standingsdb.RatingRecalculation) error {
	f.record("InsertRecalculation")
	if f.InsertRecalculationFunc != nil {
		return f.InsertRecalculationFunc(ctx, db, job)
	}
	for _, j := range f.store.jobs {
		if j.SeasonID == job.SeasonID && j.Scope == job.Scope && j.TargetID == job.TargetID && !j.Status.IsTerminal() {
			return standingsdb.ErrUniqueViolation
		}
	}
	f.store.jobs[job.ID] = *job
	return nil
}

func (f *FakeRepository) GetRecalculation(ctx context.Context, db bun.IDB, id uuid.UUID) (*standingsdb.RatingRecalculation, error) {
	f.record("GetRecalculation")
	j, ok := f.store.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (f *FakeRepository) GetRecalculationForUpdate(ctx context.Context, db bun.IDB, id uuid.UUID) (*standingsdb.RatingRecalculation, error) {
	f.record("GetRecalculationForUpdate")
	j, ok := f.store.jobs[id]
	if !ok {
		return nil, nil
	}
	return &j, nil
}

func (f *FakeRepository) FindOpenRecalculation(ctx context.Context, db bun.IDB, seasonID string, scope standingsdomain.Scope, targetID string) (*standingsdb.RatingRecalculation, error) {
	f.record("FindOpenRecalculation")
	for _, j := range f.store.jobs {
		if j.SeasonID == seasonID && j.Scope == scope && j.TargetID == targetID && !j.Status.IsTerminal() {
			return &j, nil
		}
	}
	return nil, nil
}

func (f *FakeRepository) UpdateRecalculation(ctx context.Context, db bun.IDB, job *standingsdb.RatingRecalculation) error {
	f.record("UpdateRecalculation")
	if f.UpdateRecalculationFunc != nil {
		return f.UpdateRecalculationFunc(ctx, db, job)
	}
	if _, ok := f.store.jobs[job.ID]; !ok {
		return standingsdb.ErrNoRowsAffected
	}
	f.store.jobs[job.ID] = *job
	return nil
}

// --- Rating parameters ---

func (f *FakeRepository) GetActiveParameters(ctx context.Context, db bun.IDB) (*standingsdb.RatingParameters, error) {
	f.record("GetActiveParameters")
	if f.GetActiveParametersFunc != nil {
		return f.GetActiveParametersFunc(ctx, db)
	}
	for _, p := range f.store.params {
		if p.IsActive {
			return &p, nil
		}
	}
	return nil, nil
}

func (f *FakeRepository) LatestParametersVersion(ctx context.Context, db bun.IDB) (int, error) {
	f.record("LatestParametersVersion")
	latest := 0
	for _, p := range f.store.params {
		latest = max(latest, p.Version)
	}
	return latest, nil
}

func (f *FakeRepository) ActivateParameters(ctx context.Context, db bun.IDB, params *standingsdb.RatingParameters) error {
	f.record("ActivateParameters")
	for _, p := range f.store.params {
		if p.Version == params.Version {
			return standingsdb.ErrUniqueViolation
		}
	}
	for i := range f.store.params {
		f.store.params[i].IsActive = false
	}
	params.IsActive = true
	f.store.params = append(f.store.params, *params)
	return nil
}

// --- Seasons ---

func (f *FakeRepository) GetSeasonLock(ctx context.Context, db bun.IDB, seasonID string) (*standingsdb.SeasonLock, error) {
	f.record("GetSeasonLock")
	l, ok := f.store.locks[seasonID]
	if !ok {
		return nil, nil
	}
	return &l, nil
}

func (f *FakeRepository) UpsertSeasonLock(ctx context.Context, db bun.IDB, lock *standingsdb.SeasonLock) error {
	f.record("UpsertSeasonLock")
	f.store.locks[lock.SeasonID] = *lock
	return nil
}

func (f *FakeRepository) GetSeasonComputation(ctx context.Context, db bun.IDB, seasonID string) (*standingsdb.SeasonComputation, error) {
	f.record("GetSeasonComputation")
	c, ok := f.store.computations[seasonID]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

func (f *FakeRepository) TouchSeasonComputation(ctx context.Context, db bun.IDB, computation *standingsdb.SeasonComputation) error {
	f.record("TouchSeasonComputation")
	if f.TouchSeasonComputationFunc != nil {
		return f.TouchSeasonComputationFunc(ctx, db, computation)
	}
	f.store.computations[computation.SeasonID] = *computation
	return nil
}

// Ensure the fake actually satisfies the interface
var _ standingsdb.Repository = (*FakeRepository)(nil)

// ------------------------
// Fake transaction runner
// ------------------------

// fakeTx snapshots the fake store before fn and restores it when fn fails,
// which is what a rolled back transaction looks like to the service.
type fakeTx struct {
	repo      *FakeRepository
	commits   int
	rollbacks int
}

func (t *fakeTx) RunInTx(ctx context.Context, _ *sql.TxOptions, fn func(ctx context.Context, tx bun.Tx) error) error {
	snapshot := t.repo.store.clone()
	err := fn(ctx, bun.Tx{})
	if err == nil {
		err = ctx.Err()
	}
	if err != nil {
		t.repo.store = snapshot
		t.rollbacks++
		return err
	}
	t.commits++
	return nil
}

var _ TxRunner = (*fakeTx)(nil)

// ------------------------
// Fake collaborators
// ------------------------

type fakeAdmins struct {
	admins map[string]bool
	err    error
}

func (a *fakeAdmins) IsAdmin(ctx context.Context, adminID string) (bool, error) {
	if a.err != nil {
		return false, a.err
	}
	return a.admins[adminID], nil
}

type fakeSnapshots struct {
	puts map[string][]byte
	err  error
}

func (s *fakeSnapshots) Put(ctx context.Context, key string, body []byte, contentType string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	if s.puts == nil {
		s.puts = map[string][]byte{}
	}
	s.puts[key] = body
	return "mem://" + key, nil
}
