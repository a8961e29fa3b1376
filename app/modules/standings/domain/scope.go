package standingsdomain

import (
	"fmt"
	"sort"
)

// Scope is the breadth of a recalculation.
type Scope string

const (
	ScopeMatch    Scope = "match"
	ScopePlayer   Scope = "player"
	ScopeDivision Scope = "division"
	ScopeSeason   Scope = "season"
)

// ParseScope validates a scope name.
func ParseScope(s string) (Scope, error) {
	switch Scope(s) {
	case ScopeMatch, ScopePlayer, ScopeDivision, ScopeSeason:
		return Scope(s), nil
	}
	return "", ValidationError(ErrInvalidScope, "unknown scope %q", s)
}

// Closure is the set of players and divisions a recalculation rewrites.
type Closure struct {
	Players   map[string]bool
	Divisions map[string]bool
}

// ResolveClosure expands a scope and target into the rows it owns. Players
// are rewritten individually; any division a player played in is rewritten
// whole so ranks stay consistent.
func ResolveClosure(scope Scope, seasonID, target string, matches []FinalizedMatch, state *SeasonState) (Closure, error) {
	c := Closure{Players: map[string]bool{}, Divisions: map[string]bool{}}

	switch scope {
	case ScopeSeason:
		if target != seasonID {
			return c, ValidationError(ErrInvalidScope, "season target %s does not match season %s", target, seasonID)
		}
		for _, m := range matches {
			c.Divisions[m.DivisionID] = true
			for _, id := range m.PlayerIDs() {
				c.Players[id] = true
			}
		}
		for id := range state.Ratings {
			c.Players[id] = true
		}
	case ScopeDivision:
		c.Divisions[target] = true
		for _, m := range matches {
			if m.DivisionID != target {
				continue
			}
			for _, id := range m.PlayerIDs() {
				c.Players[id] = true
			}
		}
	case ScopePlayer:
		c.Players[target] = true
		for _, m := range matches {
			for _, id := range m.PlayerIDs() {
				if id == target {
					c.Divisions[m.DivisionID] = true
				}
			}
		}
	case ScopeMatch:
		found := false
		for _, m := range matches {
			if m.MatchID != target {
				continue
			}
			found = true
			c.Divisions[m.DivisionID] = true
			for _, id := range m.PlayerIDs() {
				c.Players[id] = true
			}
		}
		if !found {
			return c, ValidationError(ErrNotFound, "match %s not in season %s", target, seasonID)
		}
	default:
		return c, ValidationError(ErrInvalidScope, "unknown scope %q", scope)
	}
	return c, nil
}

// WriteSet is the projection of a season state onto a closure: exactly the
// rows a recalculation apply replaces. All slices are sorted.
type WriteSet struct {
	Players   []string       `json:"players"`
	Divisions []string       `json:"divisions"`
	Results   []ResultRow    `json:"results"`
	Standings []Standing     `json:"standings"`
	Ratings   []PlayerRating `json:"ratings"`
	History   []RatingChange `json:"history"`
}

// Project returns the write set of c within s.
func (s *SeasonState) Project(c Closure) WriteSet {
	w := WriteSet{
		Players:   sortedKeys(c.Players),
		Divisions: sortedKeys(c.Divisions),
	}
	for _, r := range s.Results {
		if c.Players[r.EntityID] {
			w.Results = append(w.Results, r)
		}
	}
	sort.SliceStable(w.Results, func(i, j int) bool {
		a, b := w.Results[i], w.Results[j]
		if a.EntityID != b.EntityID {
			return a.EntityID < b.EntityID
		}
		return a.ResultSequence < b.ResultSequence
	})
	for _, d := range w.Divisions {
		rows := s.Standings[d]
		w.Standings = append(w.Standings, rows...)
	}
	for _, p := range w.Players {
		if r, ok := s.Ratings[p]; ok {
			w.Ratings = append(w.Ratings, r)
		}
		w.History = append(w.History, s.History[p]...)
	}
	return w
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, ok := range m {
		if ok {
			out = append(out, k)
		}
	}
	sort.Strings(out)
	return out
}

// StandingDiff compares one standing row before and after.
type StandingDiff struct {
	DivisionID   string `json:"division_id"`
	RankBefore   int    `json:"rank_before"`
	RankAfter    int    `json:"rank_after"`
	PointsBefore Points `json:"points_before"`
	PointsAfter  Points `json:"points_after"`
	PlayedBefore int    `json:"played_before"`
	PlayedAfter  int    `json:"played_after"`
}

// RatingDiff compares one player's rating before and after.
type RatingDiff struct {
	RatingBefore  int     `json:"rating_before"`
	RatingAfter   int     `json:"rating_after"`
	RDBefore      float64 `json:"rd_before"`
	RDAfter       float64 `json:"rd_after"`
	PlayedBefore  int     `json:"played_before"`
	PlayedAfter   int     `json:"played_after"`
	HistoryBefore int     `json:"history_before"`
	HistoryAfter  int     `json:"history_after"`
}

// EntityChange is one entry of a recalculation preview.
type EntityChange struct {
	EntityID       string         `json:"entity_id"`
	Standings      []StandingDiff `json:"standings,omitempty"`
	Rating         *RatingDiff    `json:"rating,omitempty"`
	ResultsChanged int            `json:"results_changed,omitempty"`
}

// DiffWriteSets lists every entity whose rows differ between live and
// replayed. Entities are reported in id order; unchanged ones are omitted.
func DiffWriteSets(live, replayed WriteSet) []EntityChange {
	changes := map[string]*EntityChange{}
	entry := func(id string) *EntityChange {
		if e, ok := changes[id]; ok {
			return e
		}
		e := &EntityChange{EntityID: id}
		changes[id] = e
		return e
	}

	type standingKey struct{ division, entity string }
	liveStandings := map[standingKey]Standing{}
	for _, s := range live.Standings {
		liveStandings[standingKey{s.DivisionID, s.EntityID}] = s
	}
	seen := map[standingKey]bool{}
	for _, after := range replayed.Standings {
		key := standingKey{after.DivisionID, after.EntityID}
		seen[key] = true
		before, ok := liveStandings[key]
		if ok && standingEqual(before, after) {
			continue
		}
		e := entry(after.EntityID)
		e.Standings = append(e.Standings, StandingDiff{
			DivisionID:   after.DivisionID,
			RankBefore:   before.Rank,
			RankAfter:    after.Rank,
			PointsBefore: before.TotalPoints,
			PointsAfter:  after.TotalPoints,
			PlayedBefore: before.MatchesPlayed,
			PlayedAfter:  after.MatchesPlayed,
		})
	}
	for key, before := range liveStandings {
		if seen[key] {
			continue
		}
		e := entry(key.entity)
		e.Standings = append(e.Standings, StandingDiff{
			DivisionID:   key.division,
			RankBefore:   before.Rank,
			PointsBefore: before.TotalPoints,
			PlayedBefore: before.MatchesPlayed,
		})
	}

	liveRatings := map[string]PlayerRating{}
	for _, r := range live.Ratings {
		liveRatings[r.PlayerID] = r
	}
	replayedRatings := map[string]PlayerRating{}
	for _, r := range replayed.Ratings {
		replayedRatings[r.PlayerID] = r
	}
	liveHistory := groupHistory(live.History)
	replayedHistory := groupHistory(replayed.History)
	for _, p := range replayed.Players {
		before, after := liveRatings[p], replayedRatings[p]
		hb, ha := liveHistory[p], replayedHistory[p]
		if ratingEqual(before, after) && historyEqual(hb, ha) {
			continue
		}
		entry(p).Rating = &RatingDiff{
			RatingBefore:  before.Rating,
			RatingAfter:   after.Rating,
			RDBefore:      before.RD,
			RDAfter:       after.RD,
			PlayedBefore:  before.MatchesPlayed,
			PlayedAfter:   after.MatchesPlayed,
			HistoryBefore: len(hb),
			HistoryAfter:  len(ha),
		}
	}

	liveResults := groupResults(live.Results)
	replayedResults := groupResults(replayed.Results)
	for _, p := range replayed.Players {
		if n := resultsChanged(liveResults[p], replayedResults[p]); n > 0 {
			entry(p).ResultsChanged = n
		}
	}

	ids := make([]string, 0, len(changes))
	for id := range changes {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	out := make([]EntityChange, 0, len(ids))
	for _, id := range ids {
		e := changes[id]
		sort.Slice(e.Standings, func(i, j int) bool { return e.Standings[i].DivisionID < e.Standings[j].DivisionID })
		out = append(out, *e)
	}
	return out
}

func standingEqual(a, b Standing) bool {
	if a.Rank != b.Rank || a.MatchesPlayed != b.MatchesPlayed || a.Wins != b.Wins || a.Losses != b.Losses ||
		a.TotalPoints != b.TotalPoints || a.SetsWon != b.SetsWon || a.SetsLost != b.SetsLost ||
		a.GamesWon != b.GamesWon || a.GamesLost != b.GamesLost || a.IsLocked != b.IsLocked {
		return false
	}
	if len(a.HeadToHead) != len(b.HeadToHead) || len(a.CountedMatchIDs) != len(b.CountedMatchIDs) {
		return false
	}
	for k, v := range a.HeadToHead {
		if b.HeadToHead[k] != v {
			return false
		}
	}
	for i := range a.CountedMatchIDs {
		if a.CountedMatchIDs[i] != b.CountedMatchIDs[i] {
			return false
		}
	}
	return true
}

func ratingEqual(a, b PlayerRating) bool {
	return a.Rating == b.Rating && a.RD == b.RD && a.MatchesPlayed == b.MatchesPlayed &&
		a.IsProvisional == b.IsProvisional && a.PeakRating == b.PeakRating && a.LowestRating == b.LowestRating
}

func historyEqual(a, b []RatingChange) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		x, y := a[i], b[i]
		if x.MatchID != y.MatchID || x.AdjustmentID != y.AdjustmentID || x.RatingBefore != y.RatingBefore ||
			x.RatingAfter != y.RatingAfter || x.RDAfter != y.RDAfter || x.Reason != y.Reason {
			return false
		}
	}
	return true
}

func groupHistory(h []RatingChange) map[string][]RatingChange {
	out := map[string][]RatingChange{}
	for _, c := range h {
		out[c.PlayerID] = append(out[c.PlayerID], c)
	}
	return out
}

func groupResults(rows []ResultRow) map[string]map[string]ResultRow {
	out := map[string]map[string]ResultRow{}
	for _, r := range rows {
		if out[r.EntityID] == nil {
			out[r.EntityID] = map[string]ResultRow{}
		}
		out[r.EntityID][r.MatchID] = r
	}
	return out
}

func resultsChanged(before, after map[string]ResultRow) int {
	n := 0
	for id, a := range after {
		b, ok := before[id]
		if !ok || b.ResultSequence != a.ResultSequence || b.MatchPoints != a.MatchPoints ||
			b.CountsForStandings != a.CountsForStandings || b.IsWin != a.IsWin {
			n++
		}
	}
	for id := range before {
		if _, ok := after[id]; !ok {
			n++
		}
	}
	return n
}

// String is used in logs.
func (c Closure) String() string {
	return fmt.Sprintf("players=%d divisions=%d", len(c.Players), len(c.Divisions))
}
