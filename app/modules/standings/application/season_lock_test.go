package standingsservice

import (
	"bytes"
	"context"
	"errors"
	"testing"

	standingsdomain "github.com/Black-And-White-Club/rally-league/app/modules/standings/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func TestLockSeason(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()
	h.record(t, singles(matchID(1), testDivision, 1, "alice", "bob", 2, 0))

	res, err := h.svc.LockSeason(ctx, LockRequest{SeasonID: testSeason, AdminID: testAdmin, Export: true})
	require.NoError(t, err)
	require.True(t, res.IsSuccess(), "lock: %v", failureOf(res))

	lock := res.Success
	assert.True(t, lock.IsLocked)
	assert.Equal(t, testAdmin, lock.LockedBy)
	assert.Equal(t, fixedTime, lock.LockedAt)
	assert.False(t, lock.OverrideAllowed)
	assert.Equal(t, "mem://seasons/2026-spring/20260601T120000Z.xlsx", lock.SnapshotRef)

	body := h.snapshots.puts["seasons/2026-spring/20260601T120000Z.xlsx"]
	require.NotEmpty(t, body)
	f, err := excelize.OpenReader(bytes.NewReader(body))
	require.NoError(t, err)
	defer f.Close()
	assert.Equal(t, []string{standingsSheet, ratingsSheet}, f.GetSheetList())

	for _, st := range h.repo.store.standings[key(testSeason, testDivision)] {
		assert.True(t, st.IsLocked)
	}

	t.Run("locking again returns the existing lock", func(t *testing.T) {
		again, err := h.svc.LockSeason(ctx, LockRequest{SeasonID: testSeason, AdminID: testAdmin})
		require.NoError(t, err)
		require.True(t, again.IsSuccess())
		assert.Equal(t, lock.SnapshotRef, again.Success.SnapshotRef)
		assert.Len(t, h.snapshots.puts, 1)
	})

	t.Run("live results are rejected", func(t *testing.T) {
		res, err := h.svc.RecordMatch(ctx, singles(matchID(2), testDivision, 2, "alice", "carol", 2, 0))
		requireFailure(t, res, err, standingsdomain.KindState, standingsdomain.ErrSeasonLocked)
	})

	t.Run("unlock reopens the season", func(t *testing.T) {
		unlocked, err := h.svc.UnlockSeason(ctx, testSeason, testAdmin)
		require.NoError(t, err)
		require.True(t, unlocked.IsSuccess())
		assert.False(t, unlocked.Success.IsLocked)
		for _, st := range h.repo.store.standings[key(testSeason, testDivision)] {
			assert.False(t, st.IsLocked)
		}
		h.record(t, singles(matchID(2), testDivision, 2, "alice", "carol", 2, 0))
	})
}

func TestLockSeason_Failures(t *testing.T) {
	ctx := context.Background()

	t.Run("export without snapshot store", func(t *testing.T) {
		h := newHarness(t)
		h.svc.snapshots = nil
		res, err := h.svc.LockSeason(ctx, LockRequest{SeasonID: testSeason, AdminID: testAdmin, Export: true})
		requireFailure(t, res, err, standingsdomain.KindConfiguration, ErrSnapshotsDisabled)
		assert.Empty(t, h.repo.store.locks)
	})

	t.Run("snapshot upload failure rolls back", func(t *testing.T) {
		h := newHarness(t)
		h.record(t, singles(matchID(1), testDivision, 1, "alice", "bob", 2, 0))
		h.snapshots.err = errors.New("bucket unavailable")
		res, err := h.svc.LockSeason(ctx, LockRequest{SeasonID: testSeason, AdminID: testAdmin, Export: true})
		require.Error(t, err)
		assert.False(t, res.IsSuccess())
		assert.Empty(t, h.repo.store.locks)
		for _, st := range h.repo.store.standings[key(testSeason, testDivision)] {
			assert.False(t, st.IsLocked)
		}
	})

	t.Run("unknown admin", func(t *testing.T) {
		h := newHarness(t)
		res, err := h.svc.LockSeason(ctx, LockRequest{SeasonID: testSeason, AdminID: "stranger"})
		requireFailure(t, res, err, standingsdomain.KindState, standingsdomain.ErrUnknownAdmin)
	})

	t.Run("override on an unlocked season", func(t *testing.T) {
		h := newHarness(t)
		res, err := h.svc.SetLockOverride(ctx, testSeason, testAdmin, true)
		requireFailure(t, res, err, standingsdomain.KindState, standingsdomain.ErrIllegalTransition)
	})

	t.Run("unlock an unlocked season", func(t *testing.T) {
		h := newHarness(t)
		res, err := h.svc.UnlockSeason(ctx, testSeason, testAdmin)
		requireFailure(t, res, err, standingsdomain.KindState, standingsdomain.ErrIllegalTransition)
	})
}

func TestBuildSeasonWorkbook(t *testing.T) {
	h := newHarness(t)
	h.record(t,
		singles(matchID(1), testDivision, 1, "alice", "bob", 2, 0),
		singles(matchID(2), "div-b", 1, "carol", "dave", 2, 1),
	)

	res, err := h.svc.ExportSeason(context.Background(), testSeason)
	require.NoError(t, err)
	require.True(t, res.IsSuccess())

	f, err := excelize.OpenReader(bytes.NewReader(*res.Success))
	require.NoError(t, err)
	defer f.Close()

	standings, err := f.GetRows(standingsSheet)
	require.NoError(t, err)
	require.Len(t, standings, 5)
	assert.Equal(t, "Division", standings[0][0])
	assert.Equal(t, []string{testDivision, "1", "alice"}, standings[1][:3])

	ratings, err := f.GetRows(ratingsSheet)
	require.NoError(t, err)
	require.Len(t, ratings, 5)
	assert.Equal(t, "Player", ratings[0][0])
	assert.Equal(t, "1520", ratings[1][1])
}
