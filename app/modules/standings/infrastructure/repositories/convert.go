package standingsdb

import (
	"fmt"
	"sort"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/google/uuid"
)

// ResultFromDomain maps a scored row onto its table model.
func ResultFromDomain(r standingsdomain.ResultRow) MatchResult {
	return MatchResult{
		MatchID:             r.MatchID,
		EntityID:            r.EntityID,
		StandingEntityID:    r.StandingEntityID,
		OpponentID:          r.OpponentID,
		SeasonID:            r.SeasonID,
		DivisionID:          r.DivisionID,
		SportType:           r.SportType,
		GameType:            r.GameType,
		IsWin:               r.IsWin,
		IsWalkover:          r.IsWalkover,
		ParticipationPoints: int(r.ParticipationPts),
		SetsWonPoints:       int(r.SetsWonPts),
		WinBonusPoints:      int(r.WinBonusPts),
		MatchPoints:         int(r.MatchPoints),
		Margin:              r.Margin,
		SetsWon:             r.SetsWon,
		SetsLost:            r.SetsLost,
		GamesWon:            r.GamesWon,
		GamesLost:           r.GamesLost,
		DatePlayed:          r.DatePlayed.UTC(),
		MatchCreatedAt:      r.MatchCreatedAt.UTC(),
		CountsForStandings:  r.CountsForStandings,
		ResultSequence:      r.ResultSequence,
	}
}

// ToDomain maps a stored result back to a domain row.
func (m MatchResult) ToDomain() standingsdomain.ResultRow {
	return standingsdomain.ResultRow{
		MatchID:            m.MatchID,
		SeasonID:           m.SeasonID,
		DivisionID:         m.DivisionID,
		EntityID:           m.EntityID,
		StandingEntityID:   m.StandingEntityID,
		OpponentID:         m.OpponentID,
		SportType:          m.SportType,
		GameType:           m.GameType,
		IsWin:              m.IsWin,
		IsWalkover:         m.IsWalkover,
		ParticipationPts:   standingsdomain.Points(m.ParticipationPoints),
		SetsWonPts:         standingsdomain.Points(m.SetsWonPoints),
		WinBonusPts:        standingsdomain.Points(m.WinBonusPoints),
		MatchPoints:        standingsdomain.Points(m.MatchPoints),
		Margin:             m.Margin,
		SetsWon:            m.SetsWon,
		SetsLost:           m.SetsLost,
		GamesWon:           m.GamesWon,
		GamesLost:          m.GamesLost,
		DatePlayed:         m.DatePlayed.UTC(),
		MatchCreatedAt:     m.MatchCreatedAt.UTC(),
		ResultSequence:     m.ResultSequence,
		CountsForStandings: m.CountsForStandings,
	}
}

// ResultsToDomain maps stored results in order.
func ResultsToDomain(rows []MatchResult) []standingsdomain.ResultRow {
	out := make([]standingsdomain.ResultRow, len(rows))
	for i, r := range rows {
		out[i] = r.ToDomain()
	}
	return out
}

// StandingFromDomain maps a computed standing onto its table model.
func StandingFromDomain(s standingsdomain.Standing) DivisionStanding {
	h2h := s.HeadToHead
	if h2h == nil {
		h2h = map[string]standingsdomain.HeadToHead{}
	}
	counted := s.CountedMatchIDs
	if counted == nil {
		counted = []string{}
	}
	return DivisionStanding{
		SeasonID:        s.SeasonID,
		DivisionID:      s.DivisionID,
		EntityID:        s.EntityID,
		Rank:            s.Rank,
		MatchesPlayed:   s.MatchesPlayed,
		Wins:            s.Wins,
		Losses:          s.Losses,
		TotalPoints:     int(s.TotalPoints),
		SetsWon:         s.SetsWon,
		SetsLost:        s.SetsLost,
		GamesWon:        s.GamesWon,
		GamesLost:       s.GamesLost,
		HeadToHead:      h2h,
		CountedMatchIDs: counted,
		IsLocked:        s.IsLocked,
	}
}

// ToDomain maps a stored standing back to the domain.
func (d DivisionStanding) ToDomain() standingsdomain.Standing {
	h2h := d.HeadToHead
	if h2h == nil {
		h2h = map[string]standingsdomain.HeadToHead{}
	}
	var counted []string
	if len(d.CountedMatchIDs) > 0 {
		counted = d.CountedMatchIDs
	}
	return standingsdomain.Standing{
		SeasonID:        d.SeasonID,
		DivisionID:      d.DivisionID,
		EntityID:        d.EntityID,
		Rank:            d.Rank,
		MatchesPlayed:   d.MatchesPlayed,
		Wins:            d.Wins,
		Losses:          d.Losses,
		TotalPoints:     standingsdomain.Points(d.TotalPoints),
		SetsWon:         d.SetsWon,
		SetsLost:        d.SetsLost,
		GamesWon:        d.GamesWon,
		GamesLost:       d.GamesLost,
		HeadToHead:      h2h,
		CountedMatchIDs: counted,
		IsLocked:        d.IsLocked,
	}
}

// StandingsToDomain groups stored standings by division, keeping rank order.
func StandingsToDomain(rows []DivisionStanding) map[string][]standingsdomain.Standing {
	out := map[string][]standingsdomain.Standing{}
	for _, r := range rows {
		out[r.DivisionID] = append(out[r.DivisionID], r.ToDomain())
	}
	for _, standings := range out {
		sort.SliceStable(standings, func(i, j int) bool { return standings[i].Rank < standings[j].Rank })
	}
	return out
}

// RatingFromDomain maps a domain rating onto its table model.
func RatingFromDomain(r standingsdomain.PlayerRating) *PlayerRating {
	return &PlayerRating{
		SeasonID:       r.SeasonID,
		PlayerID:       r.PlayerID,
		CurrentRating:  r.Rating,
		RD:             r.RD,
		Volatility:     r.Volatility,
		MatchesPlayed:  r.MatchesPlayed,
		IsProvisional:  r.IsProvisional,
		PeakRating:     r.PeakRating,
		PeakRatingDate: r.PeakRatingDate.UTC(),
		LowestRating:   r.LowestRating,
	}
}

// ToDomain maps a stored rating back to the domain.
func (p PlayerRating) ToDomain() standingsdomain.PlayerRating {
	return standingsdomain.PlayerRating{
		SeasonID:       p.SeasonID,
		PlayerID:       p.PlayerID,
		Rating:         p.CurrentRating,
		RD:             p.RD,
		Volatility:     p.Volatility,
		MatchesPlayed:  p.MatchesPlayed,
		IsProvisional:  p.IsProvisional,
		PeakRating:     p.PeakRating,
		PeakRatingDate: p.PeakRatingDate.UTC(),
		LowestRating:   p.LowestRating,
	}
}

// HistoryFromDomain maps a rating change onto a history row at sequence.
func HistoryFromDomain(c standingsdomain.RatingChange, sequence int) (RatingHistory, error) {
	var adjustmentID uuid.UUID
	if c.AdjustmentID != "" {
		id, err := uuid.Parse(c.AdjustmentID)
		if err != nil {
			return RatingHistory{}, fmt.Errorf("history adjustment id %q: %w", c.AdjustmentID, err)
		}
		adjustmentID = id
	}
	return RatingHistory{
		SeasonID:     c.SeasonID,
		PlayerID:     c.PlayerID,
		Sequence:     sequence,
		MatchID:      c.MatchID,
		AdjustmentID: adjustmentID,
		RatingBefore: c.RatingBefore,
		RatingAfter:  c.RatingAfter,
		Delta:        c.Delta,
		RDBefore:     c.RDBefore,
		RDAfter:      c.RDAfter,
		Reason:       c.Reason,
		Notes:        c.Notes,
		OccurredAt:   c.At.UTC(),
	}, nil
}

// ToDomain maps a stored history row back to a rating change.
func (h RatingHistory) ToDomain() standingsdomain.RatingChange {
	c := standingsdomain.RatingChange{
		SeasonID:     h.SeasonID,
		PlayerID:     h.PlayerID,
		MatchID:      h.MatchID,
		RatingBefore: h.RatingBefore,
		RatingAfter:  h.RatingAfter,
		Delta:        h.Delta,
		RDBefore:     h.RDBefore,
		RDAfter:      h.RDAfter,
		Reason:       h.Reason,
		Notes:        h.Notes,
		At:           h.OccurredAt.UTC(),
	}
	if h.AdjustmentID != uuid.Nil {
		c.AdjustmentID = h.AdjustmentID.String()
	}
	return c
}

// AdjustmentEvent turns a stored adjustment into a replay event.
func (a RatingAdjustment) AdjustmentEvent() standingsdomain.AdjustmentEvent {
	return standingsdomain.AdjustmentEvent{
		AdjustmentID:  a.ID.String(),
		PlayerID:      a.PlayerID,
		Delta:         a.Delta,
		Notes:         a.Reason,
		At:            a.CreatedAt.UTC(),
		GrantedBefore: a.RatingBefore,
		GrantedAfter:  a.RatingAfter,
	}
}

// ParametersFromDomain maps a parameter set onto its table model.
func ParametersFromDomain(p standingsdomain.RatingParameters) *RatingParameters {
	return &RatingParameters{
		Version:              p.Version,
		InitialRating:        p.InitialRating,
		InitialRD:            p.InitialRD,
		InitialVolatility:    p.InitialVolatility,
		KFactorNew:           p.KFactorNew,
		KFactorEstablished:   p.KFactorEstablished,
		KFactorThreshold:     p.KFactorThreshold,
		SinglesWeight:        p.SinglesWeight,
		DoublesWeight:        p.DoublesWeight,
		OneSetMatchWeight:    p.OneSetMatchWeight,
		WalkoverWinImpact:    p.WalkoverWinImpact,
		WalkoverLossImpact:   p.WalkoverLossImpact,
		ProvisionalThreshold: p.ProvisionalThreshold,
		RatingFloor:          p.RatingFloor,
		RDFloor:              p.RDFloor,
		RDDecay:              p.RDDecay,
		EffectiveFrom:        p.EffectiveFrom.UTC(),
	}
}

// ToDomain maps a stored parameter row back to the domain.
func (p RatingParameters) ToDomain() standingsdomain.RatingParameters {
	return standingsdomain.RatingParameters{
		Version:              p.Version,
		InitialRating:        p.InitialRating,
		InitialRD:            p.InitialRD,
		InitialVolatility:    p.InitialVolatility,
		KFactorNew:           p.KFactorNew,
		KFactorEstablished:   p.KFactorEstablished,
		KFactorThreshold:     p.KFactorThreshold,
		SinglesWeight:        p.SinglesWeight,
		DoublesWeight:        p.DoublesWeight,
		OneSetMatchWeight:    p.OneSetMatchWeight,
		WalkoverWinImpact:    p.WalkoverWinImpact,
		WalkoverLossImpact:   p.WalkoverLossImpact,
		ProvisionalThreshold: p.ProvisionalThreshold,
		RatingFloor:          p.RatingFloor,
		RDFloor:              p.RDFloor,
		RDDecay:              p.RDDecay,
		EffectiveFrom:        p.EffectiveFrom.UTC(),
	}
}

// ToDomain maps a stored lock to the domain. A nil lock means unlocked.
func (l *SeasonLock) ToDomain() *standingsdomain.SeasonLock {
	if l == nil {
		return nil
	}
	return &standingsdomain.SeasonLock{
		SeasonID:        l.SeasonID,
		IsLocked:        l.IsLocked,
		LockedBy:        l.LockedByAdmin,
		LockedAt:        l.LockedAt,
		OverrideAllowed: l.OverrideAllowed,
		SnapshotRef:     l.SnapshotRef,
	}
}
