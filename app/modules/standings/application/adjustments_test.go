package standingsservice

import (
	"context"
	"testing"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	standingsdb "github.com/Black-And-White-Club/rally-league/app/modules/standings/infrastructure/repositories"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adjustment(newRating int) AdjustmentRequest {
	return AdjustmentRequest{
		SeasonID:  testSeason,
		PlayerID:  "alice",
		AdminID:   testAdmin,
		Type:      standingsdb.AdjustmentCorrection,
		NewRating: newRating,
		Reason:    "score entered for the wrong side",
	}
}

func TestGrantAdjustment_LockedSeason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.record(t, singles(matchID(1), testDivision, 1, "alice", "bob", 2, 0))

	lockRes, err := h.svc.LockSeason(ctx, LockRequest{SeasonID: testSeason, AdminID: testAdmin})
	require.NoError(t, err)
	require.True(t, lockRes.IsSuccess())

	t.Run("rejected without override", func(t *testing.T) {
		before := len(h.repo.store.history)
		res, err := h.svc.GrantAdjustment(ctx, adjustment(1600))
		requireFailure(t, res, err, standingsdomain.KindState, standingsdomain.ErrSeasonLocked)
		assert.Len(t, h.repo.store.history, before)
		assert.Empty(t, h.repo.store.adjustments)
		assert.Equal(t, 1520, h.rating("alice"))
	})

	t.Run("accepted with override", func(t *testing.T) {
		overrideRes, err := h.svc.SetLockOverride(ctx, testSeason, testAdmin, true)
		require.NoError(t, err)
		require.True(t, overrideRes.IsSuccess())

		before := len(h.repo.store.history)
		res, err := h.svc.GrantAdjustment(ctx, adjustment(1600))
		require.NoError(t, err)
		require.True(t, res.IsSuccess(), "grant: %v", failureOf(res))
		require.Len(t, h.repo.store.history, before+1)

		entry := h.repo.store.history[len(h.repo.store.history)-1]
		assert.Equal(t, standingsdomain.ReasonAdjustment, entry.Reason)
		assert.Equal(t, res.Success.AdjustmentID, entry.AdjustmentID)
		assert.Equal(t, 2, entry.Sequence)
		assert.Equal(t, 80, entry.Delta)
	})
}

func TestGrantAdjustment_KeepsMatchCounters(t *testing.T) {
	h := newHarness(t)
	h.record(t, singles(matchID(1), testDivision, 1, "alice", "bob", 2, 0))
	stored := h.repo.store.ratings[key(testSeason, "alice")]

	res, err := h.svc.GrantAdjustment(context.Background(), adjustment(1400))
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), "grant: %v", failureOf(res))

	got := res.Success
	assert.Equal(t, 1520, got.Change.RatingBefore)
	assert.Equal(t, 1400, got.Change.RatingAfter)
	assert.Equal(t, -120, got.Change.Delta)
	assert.Equal(t, 1400, got.Rating.Rating)

	after := h.repo.store.ratings[key(testSeason, "alice")]
	assert.Equal(t, stored.ID, after.ID)
	assert.Equal(t, stored.MatchesPlayed, after.MatchesPlayed)
	assert.Equal(t, stored.IsProvisional, after.IsProvisional)
	assert.Equal(t, 1400, after.LowestRating)

	require.Len(t, h.repo.store.adjustments, 1)
	adj := h.repo.store.adjustments[0]
	assert.Equal(t, stored.ID, adj.PlayerRatingID)
	assert.Equal(t, testAdmin, adj.AdminID)
	assert.Equal(t, standingsdb.AdjustmentCorrection, adj.Type)
	assert.Equal(t, standingsdb.SourceAdjustment, h.repo.store.computations[testSeason].Source)
}

func TestGrantAdjustment_Failures(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*AdjustmentRequest)
		kind   standingsdomain.Kind
		target error
	}{
		{
			name:   "missing reason",
			mutate: func(r *AdjustmentRequest) { r.Reason = "" },
			kind:   standingsdomain.KindValidation,
			target: ErrInvalidRequest,
		},
		{
			name:   "unknown type",
			mutate: func(r *AdjustmentRequest) { r.Type = "bonus" },
			kind:   standingsdomain.KindValidation,
			target: ErrInvalidRequest,
		},
		{
			name:   "below the rating floor",
			mutate: func(r *AdjustmentRequest) { r.NewRating = 50 },
			kind:   standingsdomain.KindValidation,
			target: ErrInvalidRequest,
		},
		{
			name:   "unknown admin",
			mutate: func(r *AdjustmentRequest) { r.AdminID = "stranger" },
			kind:   standingsdomain.KindState,
			target: standingsdomain.ErrUnknownAdmin,
		},
		{
			name:   "player without a rating",
			mutate: func(r *AdjustmentRequest) { r.PlayerID = "nobody" },
			kind:   standingsdomain.KindState,
			target: standingsdomain.ErrNotFound,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHarness(t)
			h.record(t, singles(matchID(1), testDivision, 1, "alice", "bob", 2, 0))
			req := adjustment(1600)
			tt.mutate(&req)

			res, err := h.svc.GrantAdjustment(context.Background(), req)
			requireFailure(t, res, err, tt.kind, tt.target)
			assert.Empty(t, h.repo.store.adjustments)
			assert.Len(t, h.repo.store.history, 2)
		})
	}
}

func TestGrantAdjustment_ReplaysAsDelta(t *testing.T) {
	h := newHarness(t)
	h.record(t, singles(matchID(1), testDivision, 1, "alice", "bob", 2, 0))

	res, err := h.svc.GrantAdjustment(context.Background(), adjustment(1600))
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	// The adjustment is stamped after the match, so a replay lands on the
	// same rating and previews no change.
	job := h.preview(t, h.submit(t, standingsdomain.ScopePlayer, "alice"))
	assert.Empty(t, job.ChangesPreview)
}
