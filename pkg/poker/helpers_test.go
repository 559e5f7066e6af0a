package poker

import (
	"fmt"
	"math/rand"
	"os"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/decred/slog"
	"github.com/stretchr/testify/require"
)

func createTestLogger() slog.Logger {
	backend := slog.NewBackend(os.Stderr)
	log := backend.Logger("TEST")
	log.SetLevel(slog.LevelError)
	return log
}

func newTestEngine(seed int64) *Engine {
	return NewEngine(createTestLogger(), rand.New(rand.NewSource(seed)))
}

// newTestTable seats p0..pN at indexes 0..N with the given stacks on a
// 10/20 table.
func newTestTable(t *testing.T, stacks ...int64) *Table {
	t.Helper()
	tbl, err := NewTable(TableConfig{ID: "t1", MaxSeats: 6, SmallBlind: 10, BigBlind: 20})
	require.NoError(t, err)
	for i, st := range stacks {
		_, err := tbl.AddSeat(fmt.Sprintf("p%d", i), i, st)
		require.NoError(t, err)
	}
	return tbl
}

func mustStart(t *testing.T, e *Engine, tbl *Table) *Table {
	t.Helper()
	tr, err := e.Start(tbl)
	require.NoError(t, err)
	return tr.Table
}

func mustApply(t *testing.T, e *Engine, tbl *Table, userID string, a Action) *Table {
	t.Helper()
	tr, err := e.ApplyAction(tbl, userID, a)
	require.NoError(t, err, "applying %v for %s\n%s", a, userID, spew.Sdump(tbl))
	return tr.Table
}

// turnUser returns the user holding the turn.
func turnUser(t *testing.T, tbl *Table) string {
	t.Helper()
	s := tbl.CurrentSeat()
	require.NotNil(t, s, "no seat holds the turn")
	return s.UserID
}
