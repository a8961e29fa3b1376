package standingsdomain

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestScoreSide(t *testing.T) {
	tests := []struct {
		name     string
		score    SideScore
		isWin    bool
		walkover bool
		want     Points
		margin   int
	}{
		{name: "straight sets win", score: SideScore{SetsWon: 2, GamesWon: 12, GamesLost: 5}, isWin: true, want: 5, margin: 7},
		{name: "three set win caps set points", score: SideScore{SetsWon: 3, SetsLost: 1, GamesWon: 22, GamesLost: 18}, isWin: true, want: 5, margin: 4},
		{name: "loss with one set", score: SideScore{SetsWon: 1, SetsLost: 2, GamesWon: 14, GamesLost: 16}, want: 2, margin: -2},
		{name: "loss without a set", score: SideScore{SetsLost: 2, GamesWon: 3, GamesLost: 12}, want: 1, margin: -9},
		{name: "walkover winner", isWin: true, walkover: true, want: 3},
		{name: "walkover loser", walkover: true, want: 1},
		{name: "walkover ignores reported sets", score: SideScore{SetsWon: 2, GamesWon: 12}, isWin: true, walkover: true, want: 3},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := ScoreSide(tt.score, tt.isWin, tt.walkover)
			assert.Equal(t, tt.want, got.Total())
			assert.Equal(t, tt.margin, got.Margin)
			assert.Equal(t, ParticipationPoints, got.Participation)
		})
	}
}

func TestScoreMatch_Walkover(t *testing.T) {
	m := walkover("wo-1", "div-a", 0, "alice", "bob")
	require.NoError(t, ValidateMatch(m))

	rows := ScoreMatch(m)
	require.Len(t, rows, 2)

	winner, loser := rows[0], rows[1]
	assert.Equal(t, "alice", winner.EntityID)
	assert.Equal(t, Points(3), winner.MatchPoints)
	assert.Equal(t, Points(0), winner.SetsWonPts)
	assert.Equal(t, Points(2), winner.WinBonusPts)
	assert.Zero(t, winner.SetsWon)
	assert.Zero(t, winner.GamesWon)
	assert.True(t, winner.IsWalkover)

	assert.Equal(t, "bob", loser.EntityID)
	assert.Equal(t, Points(1), loser.MatchPoints)
	assert.False(t, loser.IsWin)
	assert.Equal(t, "alice", loser.OpponentID)
}

func TestScoreMatch_DoublesSharesTeamNumbers(t *testing.T) {
	m := doubles("d-1", "div-d", 0, [2]string{"p1", "p2"}, [2]string{"p3", "p4"}, "pair-a", "pair-b")
	require.NoError(t, ValidateMatch(m))

	rows := ScoreMatch(m)
	require.Len(t, rows, 4)
	for _, r := range rows[:2] {
		assert.Equal(t, "pair-a", r.StandingEntityID)
		assert.Equal(t, "pair-b", r.OpponentID)
		assert.Equal(t, Points(5), r.MatchPoints)
		assert.Equal(t, 15, r.GamesWon)
	}
	for _, r := range rows[2:] {
		assert.Equal(t, "pair-b", r.StandingEntityID)
		assert.Equal(t, Points(2), r.MatchPoints)
	}

	seq := map[string]int{"p1": 3}
	AssignSequences(rows, seq)
	assert.Equal(t, 4, rows[0].ResultSequence)
	assert.Equal(t, 1, rows[1].ResultSequence)
}

func TestValidateMatch(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(m *FinalizedMatch)
		wantErr error
	}{
		{name: "valid"},
		{name: "scheduled match", mutate: func(m *FinalizedMatch) { m.Status = MatchScheduled }, wantErr: ErrIncompleteMatch},
		{name: "cancelled match", mutate: func(m *FinalizedMatch) { m.Status = MatchCancelled }, wantErr: ErrIncompleteMatch},
		{name: "missing season", mutate: func(m *FinalizedMatch) { m.SeasonID = "" }, wantErr: ErrInvalidMatch},
		{name: "unknown sport", mutate: func(m *FinalizedMatch) { m.SportType = "squash" }, wantErr: ErrInvalidMatch},
		{name: "no winner", mutate: func(m *FinalizedMatch) { m.Participants[0].IsWinner = false }, wantErr: ErrInvalidMatch},
		{name: "doubles with two players", mutate: func(m *FinalizedMatch) { m.GameType = GameDoubles }, wantErr: ErrInvalidMatch},
		{name: "scores do not mirror", mutate: func(m *FinalizedMatch) { m.TeamTwo.GamesWon = 99 }, wantErr: ErrInvalidMatch},
		{name: "winner lost on sets", mutate: func(m *FinalizedMatch) {
			m.TeamOne.SetsWon, m.TeamOne.SetsLost = 0, 2
			m.TeamTwo.SetsWon, m.TeamTwo.SetsLost = 2, 0
		}, wantErr: ErrInvalidMatch},
		{name: "duplicate participant", mutate: func(m *FinalizedMatch) { m.Participants[1].EntityID = m.Participants[0].EntityID }, wantErr: ErrInvalidMatch},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := singles("m-1", "div-a", 0, "alice", "bob", 2, 0, 12, 4)
			if tt.mutate != nil {
				tt.mutate(&m)
			}
			err := ValidateMatch(m)
			if tt.wantErr == nil {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, tt.wantErr))
			assert.Equal(t, KindValidation, KindOf(err))
		})
	}
}

func TestComputeProcessingHash(t *testing.T) {
	m := singles("m-1", "div-a", 0, "alice", "bob", 2, 1, 14, 11)
	same := m
	same.Participants = []Participant{m.Participants[1], m.Participants[0]}
	corrected := m
	corrected.TeamOne.GamesWon = 15
	corrected.TeamTwo.GamesLost = 15

	assert.Equal(t, ComputeProcessingHash(m), ComputeProcessingHash(same))
	assert.NotEqual(t, ComputeProcessingHash(m), ComputeProcessingHash(corrected))
}
