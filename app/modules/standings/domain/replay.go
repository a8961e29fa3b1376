package standingsdomain

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// AdjustmentEvent is a manual rating correction replayed as a fixed delta at
// the time it was made. GrantedBefore and GrantedAfter are the ratings the
// adjustment recorded when it was granted; zero means unknown.
type AdjustmentEvent struct {
	AdjustmentID  string
	PlayerID      string
	Delta         int
	Notes         string
	At            time.Time
	GrantedBefore int
	GrantedAfter  int
}

// replayNotes keeps the granted values visible when a replayed adjustment
// lands on a different rating than the one it was granted on.
func (a AdjustmentEvent) replayNotes(change RatingChange) string {
	if a.GrantedAfter == 0 || (change.RatingBefore == a.GrantedBefore && change.RatingAfter == a.GrantedAfter) {
		return a.Notes
	}
	return fmt.Sprintf("%s (granted as %d -> %d)", a.Notes, a.GrantedBefore, a.GrantedAfter)
}

// SeasonState is the complete derived state of a season: result rows,
// division tables, ratings, and per-player rating history.
type SeasonState struct {
	Results   []ResultRow
	Standings map[string][]Standing
	Ratings   map[string]PlayerRating
	History   map[string][]RatingChange
}

// ReplayInput is the input to a deterministic season rebuild.
type ReplayInput struct {
	SeasonID    string
	Params      RatingParameters
	Policy      SelectionPolicy
	BestK       int
	Locked      bool
	Matches     []FinalizedMatch
	Adjustments []AdjustmentEvent
	// Parallelism bounds concurrent division aggregation. Zero means one
	// goroutine per division.
	Parallelism int
}

type timelineEvent struct {
	at         time.Time
	match      *FinalizedMatch
	adjustment *AdjustmentEvent
}

// ReplaySeason rebuilds every derived row of a season from its match ledger
// and adjustments. Identical input always produces identical output.
func ReplaySeason(ctx context.Context, in ReplayInput) (*SeasonState, error) {
	matches := make([]FinalizedMatch, len(in.Matches))
	copy(matches, in.Matches)
	sort.Slice(matches, func(i, j int) bool { return MatchBefore(matches[i], matches[j]) })

	events := make([]timelineEvent, 0, len(matches)+len(in.Adjustments))
	for i := range matches {
		if matches[i].SeasonID != in.SeasonID {
			return nil, ValidationError(ErrInvalidMatch, "match %s belongs to season %s", matches[i].MatchID, matches[i].SeasonID)
		}
		events = append(events, timelineEvent{at: matches[i].DatePlayed, match: &matches[i]})
	}
	adjustments := make([]AdjustmentEvent, len(in.Adjustments))
	copy(adjustments, in.Adjustments)
	sort.SliceStable(adjustments, func(i, j int) bool {
		if !adjustments[i].At.Equal(adjustments[j].At) {
			return adjustments[i].At.Before(adjustments[j].At)
		}
		return adjustments[i].AdjustmentID < adjustments[j].AdjustmentID
	})
	for i := range adjustments {
		events = append(events, timelineEvent{at: adjustments[i].At, adjustment: &adjustments[i]})
	}
	// Matches sort ahead of adjustments stamped at the same instant.
	sort.SliceStable(events, func(i, j int) bool {
		if !events[i].at.Equal(events[j].at) {
			return events[i].at.Before(events[j].at)
		}
		return events[i].match != nil && events[j].match == nil
	})

	state := &SeasonState{
		Standings: map[string][]Standing{},
		Ratings:   map[string]PlayerRating{},
		History:   map[string][]RatingChange{},
	}
	sequences := map[string]int{}

	for _, ev := range events {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if ev.adjustment != nil {
			adj := ev.adjustment
			r, ok := state.Ratings[adj.PlayerID]
			if !ok {
				r = NewPlayerRating(in.SeasonID, adj.PlayerID, in.Params, adj.At)
			}
			change := ApplyAdjustment(&r, max(r.Rating+adj.Delta, in.Params.RatingFloor), adj.AdjustmentID, adj.Notes, adj.At)
			change.Notes = adj.replayNotes(change)
			state.Ratings[adj.PlayerID] = r
			state.History[adj.PlayerID] = append(state.History[adj.PlayerID], change)
			continue
		}

		m := *ev.match
		if err := ValidateMatch(m); err != nil {
			return nil, err
		}
		rows := ScoreMatch(m)
		AssignSequences(rows, sequences)
		state.Results = append(state.Results, rows...)

		for _, id := range m.PlayerIDs() {
			if _, ok := state.Ratings[id]; !ok {
				state.Ratings[id] = NewPlayerRating(in.SeasonID, id, in.Params, m.DatePlayed)
			}
		}
		changes, err := RateMatch(in.Params, m, state.Ratings)
		if err != nil {
			return nil, err
		}
		for _, c := range changes {
			state.History[c.PlayerID] = append(state.History[c.PlayerID], c)
		}
	}

	if err := aggregateAll(ctx, in, state); err != nil {
		return nil, err
	}
	return state, nil
}

// aggregateAll rebuilds every division table. Divisions are independent, so
// they run concurrently.
func aggregateAll(ctx context.Context, in ReplayInput, state *SeasonState) error {
	byDivision := map[string][]ResultRow{}
	for _, r := range state.Results {
		byDivision[r.DivisionID] = append(byDivision[r.DivisionID], r)
	}

	var mu sync.Mutex
	flagged := make(map[string][]ResultRow, len(byDivision))

	g, gctx := errgroup.WithContext(ctx)
	if in.Parallelism > 0 {
		g.SetLimit(in.Parallelism)
	}
	for divisionID, rows := range byDivision {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			standings, counted, err := AggregateDivision(AggregateInput{
				SeasonID:   in.SeasonID,
				DivisionID: divisionID,
				Rows:       rows,
				Policy:     in.Policy,
				BestK:      in.BestK,
				Locked:     in.Locked,
			})
			if err != nil {
				return err
			}
			mu.Lock()
			state.Standings[divisionID] = standings
			flagged[divisionID] = counted
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return err
	}

	counted := make(map[string]bool)
	for _, rows := range flagged {
		for _, r := range rows {
			if r.CountsForStandings {
				counted[r.MatchID+"/"+r.EntityID] = true
			}
		}
	}
	for i := range state.Results {
		r := &state.Results[i]
		r.CountsForStandings = counted[r.MatchID+"/"+r.EntityID]
	}
	return nil
}
