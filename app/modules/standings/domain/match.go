package standingsdomain

import (
	"sort"
	"time"
)

// SportType identifies the racket sport a match was played in.
type SportType string

const (
	SportTennis     SportType = "tennis"
	SportPickleball SportType = "pickleball"
	SportPadel      SportType = "padel"
)

func (s SportType) Valid() bool {
	switch s {
	case SportTennis, SportPickleball, SportPadel:
		return true
	}
	return false
}

// GameType is singles or doubles.
type GameType string

const (
	GameSingles GameType = "singles"
	GameDoubles GameType = "doubles"
)

// PlayersPerSide returns how many participants each side must field.
func (g GameType) PlayersPerSide() int {
	switch g {
	case GameSingles:
		return 1
	case GameDoubles:
		return 2
	}
	return 0
}

// MatchStatus is the lifecycle state of a match as reported upstream.
type MatchStatus string

const (
	MatchScheduled  MatchStatus = "scheduled"
	MatchInProgress MatchStatus = "in_progress"
	MatchCompleted  MatchStatus = "completed"
	MatchWalkover   MatchStatus = "walkover"
	MatchCancelled  MatchStatus = "cancelled"
)

// IsFinal reports whether the status produces countable results.
func (s MatchStatus) IsFinal() bool {
	return s == MatchCompleted || s == MatchWalkover
}

// Team numbers.
const (
	TeamOne = 1
	TeamTwo = 2
)

// Participant is one player on one side of a match.
type Participant struct {
	EntityID      string `json:"entity_id"`
	PartnershipID string `json:"partnership_id,omitempty"`
	Team          int    `json:"team"`
	IsWinner      bool   `json:"is_winner"`
}

// StandingEntity is the identifier standings are kept under: the
// partnership for doubles pairings, otherwise the player.
func (p Participant) StandingEntity() string {
	if p.PartnershipID != "" {
		return p.PartnershipID
	}
	return p.EntityID
}

// SideScore holds the team-level set and game counts for one side.
type SideScore struct {
	SetsWon   int `json:"sets_won"`
	SetsLost  int `json:"sets_lost"`
	GamesWon  int `json:"games_won"`
	GamesLost int `json:"games_lost"`
}

// FinalizedMatch is the inbound event that drives the pipeline.
type FinalizedMatch struct {
	MatchID        string        `json:"match_id"`
	DivisionID     string        `json:"division_id"`
	SeasonID       string        `json:"season_id"`
	SportType      SportType     `json:"sport_type"`
	GameType       GameType      `json:"game_type"`
	Status         MatchStatus   `json:"status"`
	Participants   []Participant `json:"participants"`
	TeamOne        SideScore     `json:"team_one"`
	TeamTwo        SideScore     `json:"team_two"`
	IsWalkover     bool          `json:"is_walkover"`
	WalkoverReason string        `json:"walkover_reason,omitempty"`
	DatePlayed     time.Time     `json:"date_played"`
	CreatedAt      time.Time     `json:"created_at"`
}

// Walkover reports whether the match was decided by default.
func (m FinalizedMatch) Walkover() bool {
	return m.IsWalkover || m.Status == MatchWalkover
}

// Side returns the score for a team. Walkovers carry no sets or games.
func (m FinalizedMatch) Side(team int) SideScore {
	if m.Walkover() {
		return SideScore{}
	}
	if team == TeamOne {
		return m.TeamOne
	}
	return m.TeamTwo
}

// Members returns the participants of a team ordered by entity id.
func (m FinalizedMatch) Members(team int) []Participant {
	var out []Participant
	for _, p := range m.Participants {
		if p.Team == team {
			out = append(out, p)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].EntityID < out[j].EntityID })
	return out
}

// WinningTeam returns the team flagged as winner, or 0 when none is.
func (m FinalizedMatch) WinningTeam() int {
	for _, p := range m.Participants {
		if p.IsWinner {
			return p.Team
		}
	}
	return 0
}

// PlayerIDs returns every participant entity id, sorted.
func (m FinalizedMatch) PlayerIDs() []string {
	ids := make([]string, 0, len(m.Participants))
	for _, p := range m.Participants {
		ids = append(ids, p.EntityID)
	}
	sort.Strings(ids)
	return ids
}

// StandingEntities returns the distinct standing entity ids, sorted.
func (m FinalizedMatch) StandingEntities() []string {
	seen := make(map[string]bool, len(m.Participants))
	var ids []string
	for _, p := range m.Participants {
		id := p.StandingEntity()
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	sort.Strings(ids)
	return ids
}

// SetsPlayed is the number of sets contested in the match.
func (m FinalizedMatch) SetsPlayed() int {
	s := m.Side(TeamOne)
	return s.SetsWon + s.SetsLost
}

func opposite(team int) int {
	if team == TeamOne {
		return TeamTwo
	}
	return TeamOne
}

// ValidateMatch rejects events that cannot be scored. Incomplete matches
// carry ErrIncompleteMatch; anything else malformed carries ErrInvalidMatch.
func ValidateMatch(m FinalizedMatch) error {
	if m.MatchID == "" || m.DivisionID == "" || m.SeasonID == "" {
		return ValidationError(ErrInvalidMatch, "match_id, division_id and season_id are required")
	}
	if !m.Status.IsFinal() {
		return ValidationError(ErrIncompleteMatch, "match %s has status %q", m.MatchID, m.Status)
	}
	if !m.SportType.Valid() {
		return ValidationError(ErrInvalidMatch, "unknown sport type %q", m.SportType)
	}
	perSide := m.GameType.PlayersPerSide()
	if perSide == 0 {
		return ValidationError(ErrInvalidMatch, "unknown game type %q", m.GameType)
	}
	if m.DatePlayed.IsZero() {
		return ValidationError(ErrInvalidMatch, "match %s has no date played", m.MatchID)
	}

	seen := make(map[string]bool, len(m.Participants))
	for _, p := range m.Participants {
		if p.EntityID == "" {
			return ValidationError(ErrInvalidMatch, "participant without entity id")
		}
		if p.Team != TeamOne && p.Team != TeamTwo {
			return ValidationError(ErrInvalidMatch, "participant %s has team %d", p.EntityID, p.Team)
		}
		if seen[p.EntityID] {
			return ValidationError(ErrInvalidMatch, "participant %s listed twice", p.EntityID)
		}
		seen[p.EntityID] = true
	}

	winner := m.WinningTeam()
	if winner == 0 {
		return ValidationError(ErrInvalidMatch, "match %s has no winner", m.MatchID)
	}
	for _, team := range []int{TeamOne, TeamTwo} {
		members := m.Members(team)
		if len(members) != perSide {
			return ValidationError(ErrInvalidMatch, "team %d has %d players, %s needs %d", team, len(members), m.GameType, perSide)
		}
		for _, p := range members {
			if p.IsWinner != (team == winner) {
				return ValidationError(ErrInvalidMatch, "team %d disagrees on the winner", team)
			}
			if p.PartnershipID != members[0].PartnershipID {
				return ValidationError(ErrInvalidMatch, "team %d players belong to different partnerships", team)
			}
		}
	}

	if m.Walkover() {
		return nil
	}
	one, two := m.TeamOne, m.TeamTwo
	if one.SetsWon < 0 || one.SetsLost < 0 || one.GamesWon < 0 || one.GamesLost < 0 ||
		two.SetsWon < 0 || two.SetsLost < 0 || two.GamesWon < 0 || two.GamesLost < 0 {
		return ValidationError(ErrInvalidMatch, "negative score in match %s", m.MatchID)
	}
	if one.SetsWon != two.SetsLost || one.SetsLost != two.SetsWon ||
		one.GamesWon != two.GamesLost || one.GamesLost != two.GamesWon {
		return ValidationError(ErrInvalidMatch, "side scores of match %s do not mirror", m.MatchID)
	}
	w := m.Side(winner)
	if w.SetsWon <= w.SetsLost {
		return ValidationError(ErrInvalidMatch, "winner of match %s did not win more sets", m.MatchID)
	}
	return nil
}
