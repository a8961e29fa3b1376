package standingsdomain

import "time"

// Points uses a custom type to keep match arithmetic integral.
type Points int

const (
	ParticipationPoints Points = 1
	MaxSetsWonPoints    Points = 2
	WinBonusPoints      Points = 2
)

// SidePoints is the point breakdown awarded to one side of a match.
type SidePoints struct {
	Participation Points
	SetsWon       Points
	WinBonus      Points
	Margin        int
}

// Total is the match points for the side.
func (p SidePoints) Total() Points {
	return p.Participation + p.SetsWon + p.WinBonus
}

// ScoreSide applies the scoring formula to one side. Walkover winners get the
// win bonus with no set points; walkover losers keep participation only.
func ScoreSide(score SideScore, isWin, walkover bool) SidePoints {
	pts := SidePoints{Participation: ParticipationPoints}
	if isWin {
		pts.WinBonus = WinBonusPoints
	}
	if walkover {
		return pts
	}
	pts.SetsWon = min(Points(score.SetsWon), MaxSetsWonPoints)
	pts.Margin = score.GamesWon - score.GamesLost
	return pts
}

// ResultRow is the scored outcome of one match for one participant.
type ResultRow struct {
	MatchID            string    `json:"match_id"`
	SeasonID           string    `json:"season_id"`
	DivisionID         string    `json:"division_id"`
	EntityID           string    `json:"entity_id"`
	StandingEntityID   string    `json:"standing_entity_id"`
	OpponentID         string    `json:"opponent_id"`
	SportType          SportType `json:"sport_type"`
	GameType           GameType  `json:"game_type"`
	IsWin              bool      `json:"is_win"`
	IsWalkover         bool      `json:"is_walkover"`
	ParticipationPts   Points    `json:"participation_points"`
	SetsWonPts         Points    `json:"sets_won_points"`
	WinBonusPts        Points    `json:"win_bonus_points"`
	MatchPoints        Points    `json:"match_points"`
	Margin             int       `json:"margin"`
	SetsWon            int       `json:"sets_won"`
	SetsLost           int       `json:"sets_lost"`
	GamesWon           int       `json:"games_won"`
	GamesLost          int       `json:"games_lost"`
	DatePlayed         time.Time `json:"date_played"`
	MatchCreatedAt     time.Time `json:"match_created_at"`
	ResultSequence     int       `json:"result_sequence"`
	CountsForStandings bool      `json:"counts_for_standings"`
}

// ScoreMatch converts a validated match into one row per participant,
// ordered by team then entity id. ResultSequence is left for the caller.
func ScoreMatch(m FinalizedMatch) []ResultRow {
	walkover := m.Walkover()
	winner := m.WinningTeam()

	rows := make([]ResultRow, 0, len(m.Participants))
	for _, team := range []int{TeamOne, TeamTwo} {
		score := m.Side(team)
		isWin := team == winner
		pts := ScoreSide(score, isWin, walkover)

		opponent := ""
		if others := m.Members(opposite(team)); len(others) > 0 {
			opponent = others[0].StandingEntity()
		}

		for _, p := range m.Members(team) {
			rows = append(rows, ResultRow{
				MatchID:          m.MatchID,
				SeasonID:         m.SeasonID,
				DivisionID:       m.DivisionID,
				EntityID:         p.EntityID,
				StandingEntityID: p.StandingEntity(),
				OpponentID:       opponent,
				SportType:        m.SportType,
				GameType:         m.GameType,
				IsWin:            isWin,
				IsWalkover:       walkover,
				ParticipationPts: pts.Participation,
				SetsWonPts:       pts.SetsWon,
				WinBonusPts:      pts.WinBonus,
				MatchPoints:      pts.Total(),
				Margin:           pts.Margin,
				SetsWon:          score.SetsWon,
				SetsLost:         score.SetsLost,
				GamesWon:         score.GamesWon,
				GamesLost:        score.GamesLost,
				DatePlayed:       m.DatePlayed,
				MatchCreatedAt:   m.CreatedAt,
			})
		}
	}
	return rows
}

// AssignSequences numbers rows from the prior per-entity counts. prior is
// advanced in place so consecutive matches can share it.
func AssignSequences(rows []ResultRow, prior map[string]int) {
	for i := range rows {
		prior[rows[i].EntityID]++
		rows[i].ResultSequence = prior[rows[i].EntityID]
	}
}

// MatchBefore orders matches by date played, then creation, then id.
func MatchBefore(a, b FinalizedMatch) bool {
	if !a.DatePlayed.Equal(b.DatePlayed) {
		return a.DatePlayed.Before(b.DatePlayed)
	}
	if !a.CreatedAt.Equal(b.CreatedAt) {
		return a.CreatedAt.Before(b.CreatedAt)
	}
	return a.MatchID < b.MatchID
}
