package standingsdomain

import (
	"time"
)

// RatingParameters is one published, immutable version of the rating
// configuration. It is fetched once per computation and passed explicitly.
type RatingParameters struct {
	Version              int       `json:"version" yaml:"version"`
	InitialRating        int       `json:"initial_rating" yaml:"initial_rating"`
	InitialRD            float64   `json:"initial_rd" yaml:"initial_rd"`
	InitialVolatility    float64   `json:"initial_volatility" yaml:"initial_volatility"`
	KFactorNew           float64   `json:"k_factor_new" yaml:"k_factor_new"`
	KFactorEstablished   float64   `json:"k_factor_established" yaml:"k_factor_established"`
	KFactorThreshold     int       `json:"k_factor_threshold" yaml:"k_factor_threshold"`
	SinglesWeight        float64   `json:"singles_weight" yaml:"singles_weight"`
	DoublesWeight        float64   `json:"doubles_weight" yaml:"doubles_weight"`
	OneSetMatchWeight    float64   `json:"one_set_match_weight" yaml:"one_set_match_weight"`
	WalkoverWinImpact    float64   `json:"walkover_win_impact" yaml:"walkover_win_impact"`
	WalkoverLossImpact   float64   `json:"walkover_loss_impact" yaml:"walkover_loss_impact"`
	ProvisionalThreshold int       `json:"provisional_threshold" yaml:"provisional_threshold"`
	RatingFloor          int       `json:"rating_floor" yaml:"rating_floor"`
	RDFloor              float64   `json:"rd_floor" yaml:"rd_floor"`
	RDDecay              float64   `json:"rd_decay" yaml:"rd_decay"`
	EffectiveFrom        time.Time `json:"effective_from" yaml:"effective_from"`
}

// DefaultRatingParameters returns the values a fresh installation publishes
// as version 1.
func DefaultRatingParameters() RatingParameters {
	return RatingParameters{
		Version:              1,
		InitialRating:        1500,
		InitialRD:            350,
		InitialVolatility:    0.06,
		KFactorNew:           40,
		KFactorEstablished:   20,
		KFactorThreshold:     10,
		SinglesWeight:        1.0,
		DoublesWeight:        0.8,
		OneSetMatchWeight:    0.5,
		WalkoverWinImpact:    0.5,
		WalkoverLossImpact:   0.5,
		ProvisionalThreshold: 10,
		RatingFloor:          100,
		RDFloor:              50,
		RDDecay:              0.9,
	}
}

// Validate rejects parameter sets the engine cannot use.
func (p RatingParameters) Validate() error {
	switch {
	case p.InitialRating < p.RatingFloor:
		return ConfigurationError(ErrInvalidParameters, "initial_rating %d below rating_floor %d", p.InitialRating, p.RatingFloor)
	case p.KFactorNew <= 0 || p.KFactorEstablished <= 0:
		return ConfigurationError(ErrInvalidParameters, "k factors must be positive")
	case p.KFactorThreshold < 0 || p.ProvisionalThreshold < 0:
		return ConfigurationError(ErrInvalidParameters, "thresholds must not be negative")
	case !unitWeight(p.SinglesWeight) || !unitWeight(p.DoublesWeight) || !unitWeight(p.OneSetMatchWeight):
		return ConfigurationError(ErrInvalidParameters, "format weights must be in (0, 1]")
	case p.WalkoverWinImpact <= 0 || p.WalkoverWinImpact >= 1 || p.WalkoverLossImpact <= 0 || p.WalkoverLossImpact >= 1:
		return ConfigurationError(ErrInvalidParameters, "walkover impacts must be in (0, 1)")
	case p.RDFloor <= 0 || p.InitialRD < p.RDFloor:
		return ConfigurationError(ErrInvalidParameters, "initial_rd must be at least rd_floor > 0")
	case p.RDDecay <= 0 || p.RDDecay >= 1:
		return ConfigurationError(ErrInvalidParameters, "rd_decay must be in (0, 1)")
	}
	return nil
}

func unitWeight(w float64) bool {
	return w > 0 && w <= 1
}
