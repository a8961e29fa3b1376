package standingsdomain

import (
	"fmt"
	"time"
)

const testSeason = "2026-spring"

var baseDate = time.Date(2026, time.March, 1, 18, 0, 0, 0, time.UTC)

// singles builds a completed singles match won by winner. Sets and games are
// given from the winner's side.
func singles(matchID, division string, day int, winner, loser string, setsW, setsL, gamesW, gamesL int) FinalizedMatch {
	return FinalizedMatch{
		MatchID:    matchID,
		DivisionID: division,
		SeasonID:   testSeason,
		SportType:  SportTennis,
		GameType:   GameSingles,
		Status:     MatchCompleted,
		Participants: []Participant{
			{EntityID: winner, Team: TeamOne, IsWinner: true},
			{EntityID: loser, Team: TeamTwo},
		},
		TeamOne:    SideScore{SetsWon: setsW, SetsLost: setsL, GamesWon: gamesW, GamesLost: gamesL},
		TeamTwo:    SideScore{SetsWon: setsL, SetsLost: setsW, GamesWon: gamesL, GamesLost: gamesW},
		DatePlayed: baseDate.AddDate(0, 0, day),
		CreatedAt:  baseDate.AddDate(0, 0, day).Add(-time.Hour),
	}
}

func walkover(matchID, division string, day int, winner, loser string) FinalizedMatch {
	m := singles(matchID, division, day, winner, loser, 0, 0, 0, 0)
	m.Status = MatchWalkover
	m.IsWalkover = true
	m.WalkoverReason = "injury"
	return m
}

func doubles(matchID, division string, day int, winners, losers [2]string, winPair, losePair string) FinalizedMatch {
	return FinalizedMatch{
		MatchID:    matchID,
		DivisionID: division,
		SeasonID:   testSeason,
		SportType:  SportPadel,
		GameType:   GameDoubles,
		Status:     MatchCompleted,
		Participants: []Participant{
			{EntityID: winners[0], PartnershipID: winPair, Team: TeamOne, IsWinner: true},
			{EntityID: winners[1], PartnershipID: winPair, Team: TeamOne, IsWinner: true},
			{EntityID: losers[0], PartnershipID: losePair, Team: TeamTwo},
			{EntityID: losers[1], PartnershipID: losePair, Team: TeamTwo},
		},
		TeamOne:    SideScore{SetsWon: 2, SetsLost: 1, GamesWon: 15, GamesLost: 13},
		TeamTwo:    SideScore{SetsWon: 1, SetsLost: 2, GamesWon: 13, GamesLost: 15},
		DatePlayed: baseDate.AddDate(0, 0, day),
		CreatedAt:  baseDate.AddDate(0, 0, day),
	}
}

// sequenced scores matches in order and assigns result sequences.
func sequenced(matches ...FinalizedMatch) []ResultRow {
	seq := map[string]int{}
	var rows []ResultRow
	for _, m := range matches {
		r := ScoreMatch(m)
		AssignSequences(r, seq)
		rows = append(rows, r...)
	}
	return rows
}

func matchID(i int) string {
	return fmt.Sprintf("m-%02d", i)
}
