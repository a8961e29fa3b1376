package standingsdomain

import "sort"

// HeadToHead is an entity's record against one opponent this season.
type HeadToHead struct {
	Wins   int `json:"wins"`
	Losses int `json:"losses"`
}

// Standing is one entity's row in a division table.
type Standing struct {
	SeasonID        string                `json:"season_id"`
	DivisionID      string                `json:"division_id"`
	EntityID        string                `json:"entity_id"`
	Rank            int                   `json:"rank"`
	MatchesPlayed   int                   `json:"matches_played"`
	Wins            int                   `json:"wins"`
	Losses          int                   `json:"losses"`
	TotalPoints     Points                `json:"total_points"`
	SetsWon         int                   `json:"sets_won"`
	SetsLost        int                   `json:"sets_lost"`
	GamesWon        int                   `json:"games_won"`
	GamesLost       int                   `json:"games_lost"`
	HeadToHead      map[string]HeadToHead `json:"head_to_head"`
	CountedMatchIDs []string              `json:"counted_match_ids"`
	IsLocked        bool                  `json:"is_locked"`
}

// GamesDifferential is games won minus games lost over all results.
func (s Standing) GamesDifferential() int {
	return s.GamesWon - s.GamesLost
}

// AggregateInput is everything needed to rebuild one division table.
type AggregateInput struct {
	SeasonID   string
	DivisionID string
	Rows       []ResultRow
	Policy     SelectionPolicy
	BestK      int
	Locked     bool
}

// AggregateDivision rebuilds the standings of one division from its result
// rows. The same input always yields the same ranked table. CountsForStandings
// is updated on the returned rows, which are a copy of the input.
func AggregateDivision(in AggregateInput) ([]Standing, []ResultRow, error) {
	rows := make([]ResultRow, len(in.Rows))
	copy(rows, in.Rows)
	for _, r := range rows {
		if r.DivisionID != in.DivisionID || r.SeasonID != in.SeasonID {
			return nil, nil, ValidationError(ErrDivisionMismatch,
				"result %s/%s belongs to %s/%s, not %s/%s",
				r.MatchID, r.EntityID, r.SeasonID, r.DivisionID, in.SeasonID, in.DivisionID)
		}
	}

	groups := groupByStandingEntity(rows)

	entities := make([]string, 0, len(groups))
	for id := range groups {
		entities = append(entities, id)
	}
	sort.Strings(entities)

	counted := make(map[string]map[string]bool, len(groups))
	standings := make([]Standing, 0, len(groups))
	for _, id := range entities {
		reps := groups[id]
		flags := SelectCounted(reps, in.Policy, in.BestK)

		st := Standing{
			SeasonID:   in.SeasonID,
			DivisionID: in.DivisionID,
			EntityID:   id,
			HeadToHead: map[string]HeadToHead{},
			IsLocked:   in.Locked,
		}
		counted[id] = make(map[string]bool)
		for i, r := range reps {
			st.MatchesPlayed++
			if r.IsWin {
				st.Wins++
			} else {
				st.Losses++
			}
			st.SetsWon += r.SetsWon
			st.SetsLost += r.SetsLost
			st.GamesWon += r.GamesWon
			st.GamesLost += r.GamesLost

			if r.OpponentID != "" {
				h := st.HeadToHead[r.OpponentID]
				if r.IsWin {
					h.Wins++
				} else {
					h.Losses++
				}
				st.HeadToHead[r.OpponentID] = h
			}

			if flags[i] {
				st.TotalPoints += r.MatchPoints
				st.CountedMatchIDs = append(st.CountedMatchIDs, r.MatchID)
				counted[id][r.MatchID] = true
			}
		}
		standings = append(standings, st)
	}

	for i := range rows {
		rows[i].CountsForStandings = counted[rows[i].StandingEntityID][rows[i].MatchID]
	}

	RankStandings(standings)
	return standings, rows, nil
}

// groupByStandingEntity returns, per standing entity, one representative row
// per match in sequence order. Doubles teammates share team-level numbers, so
// the row of the lowest entity id stands in for the pair.
func groupByStandingEntity(rows []ResultRow) map[string][]ResultRow {
	byMatch := make(map[string]map[string]ResultRow)
	for _, r := range rows {
		m, ok := byMatch[r.StandingEntityID]
		if !ok {
			m = make(map[string]ResultRow)
			byMatch[r.StandingEntityID] = m
		}
		if cur, ok := m[r.MatchID]; !ok || r.EntityID < cur.EntityID {
			m[r.MatchID] = r
		}
	}

	groups := make(map[string][]ResultRow, len(byMatch))
	for id, m := range byMatch {
		reps := make([]ResultRow, 0, len(m))
		for _, r := range m {
			reps = append(reps, r)
		}
		sort.Slice(reps, func(i, j int) bool {
			if reps[i].ResultSequence != reps[j].ResultSequence {
				return reps[i].ResultSequence < reps[j].ResultSequence
			}
			if !reps[i].DatePlayed.Equal(reps[j].DatePlayed) {
				return reps[i].DatePlayed.Before(reps[j].DatePlayed)
			}
			return reps[i].MatchID < reps[j].MatchID
		})
		groups[id] = reps
	}
	return groups
}

// RankStandings orders standings and assigns 1-based ranks.
//
// Order: total points desc, then head-to-head among the entities tied on
// points, then games differential desc, then entity id asc.
func RankStandings(standings []Standing) {
	byPoints := make(map[Points][]int)
	for i, s := range standings {
		byPoints[s.TotalPoints] = append(byPoints[s.TotalPoints], i)
	}

	h2h := make(map[string]int, len(standings))
	for _, group := range byPoints {
		if len(group) < 2 {
			continue
		}
		for _, i := range group {
			score := 0
			for _, j := range group {
				if i == j {
					continue
				}
				rec := standings[i].HeadToHead[standings[j].EntityID]
				score += rec.Wins - rec.Losses
			}
			h2h[standings[i].EntityID] = score
		}
	}

	sort.Slice(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if h2h[a.EntityID] != h2h[b.EntityID] {
			return h2h[a.EntityID] > h2h[b.EntityID]
		}
		if a.GamesDifferential() != b.GamesDifferential() {
			return a.GamesDifferential() > b.GamesDifferential()
		}
		return a.EntityID < b.EntityID
	})

	for i := range standings {
		standings[i].Rank = i + 1
	}
}
