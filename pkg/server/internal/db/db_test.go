package db

import (
	"context"
	"math/rand"
	"path/filepath"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/holdem/pkg/poker"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	d, err := NewDB(filepath.Join(t.TempDir(), "holdem.db"))
	require.NoError(t, err)
	t.Cleanup(func() { d.Close() })
	return d
}

func seatedTable(t *testing.T) *poker.Table {
	t.Helper()
	tbl, err := poker.NewTable(poker.TableConfig{ID: "r1", MaxSeats: 4, SmallBlind: 5, BigBlind: 10})
	require.NoError(t, err)
	_, err = tbl.AddSeat("alice", 0, 500)
	require.NoError(t, err)
	_, err = tbl.AddSeat("bob", 2, 700)
	require.NoError(t, err)
	tbl.Version = 1
	return tbl
}

func TestSaveAndLoadRoom(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	tbl := seatedTable(t)

	require.NoError(t, d.SaveRoom(ctx, tbl, nil))

	got, err := d.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, tbl.ID, got.ID)
	assert.Equal(t, int64(1), got.Version)
	assert.Equal(t, poker.NoSeat, got.DealerSeatIndex)
	require.Len(t, got.Seats, 2)
	assert.Equal(t, "alice", got.Seats[0].UserID)
	assert.Equal(t, int64(700), got.Seats[1].Stack)

	ids, err := d.RoomIDs(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"r1"}, ids)
}

func TestSaveRoomRoundTripsHandState(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	tbl := seatedTable(t)
	require.NoError(t, d.SaveRoom(ctx, tbl, nil))

	e := poker.NewEngine(slog.Disabled, rand.New(rand.NewSource(3)))
	tr, err := e.Start(tbl)
	require.NoError(t, err)
	next := tr.Table
	next.Version = 2
	require.NoError(t, d.SaveRoom(ctx, next, tr))

	got, err := d.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, poker.StatusPlaying, got.Status)
	assert.Equal(t, next.Pot, got.Pot)
	assert.Equal(t, next.Engine.RemainingDeck, got.Engine.RemainingDeck)
	assert.Equal(t, next.Engine.CurrentTurnSeat, got.Engine.CurrentTurnSeat)
	for i, s := range next.Seats {
		assert.Equal(t, s.HoleCards, got.Seats[i].HoleCards)
		assert.Equal(t, s.Stack, got.Seats[i].Stack)
		assert.Equal(t, s.Position, got.Seats[i].Position)
	}
	assert.Equal(t, next.TotalChips(), got.TotalChips())
}

func TestSaveRoomVersionConflict(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	tbl := seatedTable(t)
	require.NoError(t, d.SaveRoom(ctx, tbl, nil))

	// Creating the same room twice conflicts.
	err := d.SaveRoom(ctx, tbl, nil)
	require.ErrorIs(t, err, ErrVersionConflict)

	// Skipping a version conflicts.
	stale := tbl.Clone()
	stale.Version = 3
	err = d.SaveRoom(ctx, stale, nil)
	require.ErrorIs(t, err, ErrVersionConflict)

	got, err := d.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	assert.Equal(t, int64(1), got.Version)
}

func TestSaveRoomRemovesLeftSeats(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	tbl := seatedTable(t)
	require.NoError(t, d.SaveRoom(ctx, tbl, nil))

	next := tbl.Clone()
	_, err := next.RemoveSeat("bob")
	require.NoError(t, err)
	next.Version = 2
	require.NoError(t, d.SaveRoom(ctx, next, poker.Diff(tbl, next)))

	got, err := d.LoadRoom(ctx, "r1")
	require.NoError(t, err)
	require.Len(t, got.Seats, 1)
	assert.Equal(t, "alice", got.Seats[0].UserID)
}

func TestLoadMissingRoom(t *testing.T) {
	d := openTestDB(t)
	_, err := d.LoadRoom(context.Background(), "nope")
	require.ErrorIs(t, err, ErrRoomNotFound)
}

func TestDeleteRoom(t *testing.T) {
	ctx := context.Background()
	d := openTestDB(t)
	require.NoError(t, d.SaveRoom(ctx, seatedTable(t), nil))
	require.NoError(t, d.DeleteRoom(ctx, "r1"))

	_, err := d.LoadRoom(ctx, "r1")
	require.ErrorIs(t, err, ErrRoomNotFound)
	var n int
	require.NoError(t, d.QueryRow("SELECT COUNT(*) FROM seats").Scan(&n))
	assert.Zero(t, n)
}
