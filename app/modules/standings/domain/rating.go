package standingsdomain

import (
	"math"
	"time"
)

// RatingReason explains why a rating moved.
type RatingReason string

const (
	ReasonMatchWin     RatingReason = "match-win"
	ReasonMatchLoss    RatingReason = "match-loss"
	ReasonWalkoverWin  RatingReason = "walkover-win"
	ReasonWalkoverLoss RatingReason = "walkover-loss"
	ReasonAdjustment   RatingReason = "adjustment"
	ReasonMigration    RatingReason = "migration"
)

// PlayerRating is a player's rating state within one season.
type PlayerRating struct {
	SeasonID       string    `json:"season_id"`
	PlayerID       string    `json:"player_id"`
	Rating         int       `json:"rating"`
	RD             float64   `json:"rd"`
	Volatility     float64   `json:"volatility"`
	MatchesPlayed  int       `json:"matches_played"`
	IsProvisional  bool      `json:"is_provisional"`
	PeakRating     int       `json:"peak_rating"`
	PeakRatingDate time.Time `json:"peak_rating_date"`
	LowestRating   int       `json:"lowest_rating"`
}

// NewPlayerRating seeds a player's first rating in a season.
func NewPlayerRating(seasonID, playerID string, p RatingParameters, at time.Time) PlayerRating {
	return PlayerRating{
		SeasonID:       seasonID,
		PlayerID:       playerID,
		Rating:         p.InitialRating,
		RD:             p.InitialRD,
		Volatility:     p.InitialVolatility,
		IsProvisional:  p.ProvisionalThreshold > 0,
		PeakRating:     p.InitialRating,
		PeakRatingDate: at,
		LowestRating:   p.InitialRating,
	}
}

// RatingChange is one append-only history entry.
type RatingChange struct {
	SeasonID     string       `json:"season_id"`
	PlayerID     string       `json:"player_id"`
	MatchID      string       `json:"match_id,omitempty"`
	AdjustmentID string       `json:"adjustment_id,omitempty"`
	RatingBefore int          `json:"rating_before"`
	RatingAfter  int          `json:"rating_after"`
	Delta        int          `json:"delta"`
	RDBefore     float64      `json:"rd_before"`
	RDAfter      float64      `json:"rd_after"`
	Reason       RatingReason `json:"reason"`
	Notes        string       `json:"notes,omitempty"`
	At           time.Time    `json:"at"`
}

// ExpectedScore is the logistic win expectancy of own against opp.
func ExpectedScore(own, opp float64) float64 {
	return 1 / (1 + math.Pow(10, (opp-own)/400))
}

// KFactor returns the K for a player with the given number of prior matches.
func (p RatingParameters) KFactor(matchesPlayed int) float64 {
	if matchesPlayed < p.KFactorThreshold {
		return p.KFactorNew
	}
	return p.KFactorEstablished
}

// FormatWeight scales the swing by game type, dampened further for matches
// decided in a single set.
func (p RatingParameters) FormatWeight(m FinalizedMatch) float64 {
	w := p.SinglesWeight
	if m.GameType == GameDoubles {
		w = p.DoublesWeight
	}
	if !m.Walkover() && m.SetsPlayed() == 1 {
		w *= p.OneSetMatchWeight
	}
	return w
}

// DecayRD moves rd one step toward the floor. It never increases rd.
func (p RatingParameters) DecayRD(rd float64) float64 {
	if rd <= p.RDFloor {
		return rd
	}
	next := p.RDFloor + (rd-p.RDFloor)*p.RDDecay
	// Rounding to two decimals may land above rd or below the floor.
	return max(p.RDFloor, min(math.Round(next*100)/100, rd))
}

// RateMatch updates the ratings of every participant of m. ratings must hold
// a state for each participant; it is updated in place. Deltas are computed
// from pre-match ratings only, so participant order never matters.
func RateMatch(p RatingParameters, m FinalizedMatch, ratings map[string]PlayerRating) ([]RatingChange, error) {
	winner := m.WinningTeam()
	walkover := m.Walkover()
	weight := p.FormatWeight(m)

	sideRating := func(team int) (float64, error) {
		members := m.Members(team)
		var sum float64
		for _, mem := range members {
			r, ok := ratings[mem.EntityID]
			if !ok {
				return 0, StateError(ErrNotFound, "no rating state for %s", mem.EntityID)
			}
			sum += float64(r.Rating)
		}
		return sum / float64(len(members)), nil
	}

	avg := map[int]float64{}
	for _, team := range []int{TeamOne, TeamTwo} {
		v, err := sideRating(team)
		if err != nil {
			return nil, err
		}
		avg[team] = v
	}

	var changes []RatingChange
	updated := make(map[string]PlayerRating, len(m.Participants))
	for _, team := range []int{TeamOne, TeamTwo} {
		won := team == winner
		expected := ExpectedScore(avg[team], avg[opposite(team)])
		actual := 0.0
		if won {
			actual = 1.0
		}

		impact := 1.0
		reason := ReasonMatchLoss
		switch {
		case walkover && won:
			impact, reason = p.WalkoverWinImpact, ReasonWalkoverWin
		case walkover:
			impact, reason = p.WalkoverLossImpact, ReasonWalkoverLoss
		case won:
			reason = ReasonMatchWin
		}

		for _, mem := range m.Members(team) {
			before := ratings[mem.EntityID]
			k := p.KFactor(before.MatchesPlayed)
			delta := int(math.Round(k * weight * impact * (actual - expected)))

			after := before
			after.Rating = max(before.Rating+delta, p.RatingFloor)
			after.RD = p.DecayRD(before.RD)
			after.MatchesPlayed = before.MatchesPlayed + 1
			after.IsProvisional = after.MatchesPlayed < p.ProvisionalThreshold
			trackExtremes(&after, m.DatePlayed)
			updated[mem.EntityID] = after

			changes = append(changes, RatingChange{
				SeasonID:     m.SeasonID,
				PlayerID:     mem.EntityID,
				MatchID:      m.MatchID,
				RatingBefore: before.Rating,
				RatingAfter:  after.Rating,
				Delta:        after.Rating - before.Rating,
				RDBefore:     before.RD,
				RDAfter:      after.RD,
				Reason:       reason,
				At:           m.DatePlayed,
			})
		}
	}

	for id, r := range updated {
		ratings[id] = r
	}
	return changes, nil
}

// ApplyAdjustment sets a new rating directly. Match counts and provisional
// status are left alone.
func ApplyAdjustment(r *PlayerRating, newRating int, adjustmentID, notes string, at time.Time) RatingChange {
	before := *r
	r.Rating = newRating
	trackExtremes(r, at)
	return RatingChange{
		SeasonID:     r.SeasonID,
		PlayerID:     r.PlayerID,
		AdjustmentID: adjustmentID,
		RatingBefore: before.Rating,
		RatingAfter:  r.Rating,
		Delta:        r.Rating - before.Rating,
		RDBefore:     before.RD,
		RDAfter:      r.RD,
		Reason:       ReasonAdjustment,
		Notes:        notes,
		At:           at,
	}
}

func trackExtremes(r *PlayerRating, at time.Time) {
	if r.Rating > r.PeakRating {
		r.PeakRating = r.Rating
		r.PeakRatingDate = at
	}
	if r.Rating < r.LowestRating {
		r.LowestRating = r.Rating
	}
}
