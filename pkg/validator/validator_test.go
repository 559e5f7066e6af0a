package validator

import (
	"fmt"
	"math/rand"
	"testing"

	"github.com/decred/slog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vctt94/holdem/pkg/poker"
)

type countingLimiter struct {
	allow bool
	calls int
}

func (l *countingLimiter) Allow(string) bool {
	l.calls++
	return l.allow
}

func amount(n int64) *int64 { return &n }

// startedTable returns a 3-handed 10/20 table with p0 under the gun.
func startedTable(t *testing.T, stacks ...int64) (*poker.Engine, *poker.Table) {
	t.Helper()
	tbl, err := poker.NewTable(poker.TableConfig{ID: "room", MaxSeats: 6, SmallBlind: 10, BigBlind: 20})
	require.NoError(t, err)
	for i, st := range stacks {
		_, err := tbl.AddSeat(fmt.Sprintf("p%d", i), i, st)
		require.NoError(t, err)
	}
	e := poker.NewEngine(slog.Disabled, rand.New(rand.NewSource(1)))
	tr, err := e.Start(tbl)
	require.NoError(t, err)
	return e, tr.Table
}

func TestCheckOrder(t *testing.T) {
	_, tbl := startedTable(t, 1000, 1000, 1000)

	waiting, err := poker.NewTable(poker.TableConfig{ID: "w", MaxSeats: 2, SmallBlind: 1, BigBlind: 2})
	require.NoError(t, err)

	folded := tbl.Clone()
	folded.Seat("p1").IsActive = false

	tests := []struct {
		name  string
		table *poker.Table
		user  string
		req   Request
		want  error
	}{
		{"not playing", waiting, "p0", Request{Action: "fold"}, poker.ErrGameNotInProgress},
		{"nil table", nil, "p0", Request{Action: "fold"}, poker.ErrGameNotInProgress},
		{"unknown player", tbl, "zed", Request{Action: "fold"}, poker.ErrPlayerNotFound},
		{"folded player", folded, "p1", Request{Action: "fold"}, poker.ErrNotActivePlayer},
		{"out of turn beats bad action", tbl, "p1", Request{Action: "dance"}, poker.ErrNotYourTurn},
		{"unknown action", tbl, "p0", Request{Action: "dance"}, poker.ErrInvalidAction},
		{"check facing bet", tbl, "p0", Request{Action: "check"}, poker.ErrMustCallOrFold},
		{"raise without amount", tbl, "p0", Request{Action: "raise"}, poker.ErrInvalidAmount},
		{"zero raise", tbl, "p0", Request{Action: "raise", Amount: amount(0)}, poker.ErrInvalidAmount},
		{"negative raise", tbl, "p0", Request{Action: "raise", Amount: amount(-5)}, poker.ErrInvalidAmount},
		{"raise over stack", tbl, "p0", Request{Action: "raise", Amount: amount(1001)}, poker.ErrInsufficientChips},
		{"raise under minimum", tbl, "p0", Request{Action: "raise", Amount: amount(39)}, poker.ErrRaiseTooSmall},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Check(tt.table, tt.user, tt.req)
			require.ErrorIs(t, err, tt.want)
		})
	}
}

func TestCheckAcceptsLegalActions(t *testing.T) {
	_, tbl := startedTable(t, 1000, 1000, 1000)

	for _, req := range []Request{
		{Action: "fold"},
		{Action: "call"},
		{Action: "raise", Amount: amount(40)},
		{Action: "raise", Amount: amount(1000)},
		{Action: "allin"},
	} {
		a, err := Check(tbl, "p0", req)
		require.NoError(t, err, req.Action)
		assert.Equal(t, poker.ActionType(req.Action), a.Type())
	}
}

func TestShortAllInRaiseIsAllowed(t *testing.T) {
	_, tbl := startedTable(t, 30, 1000, 1000)

	a, err := Check(tbl, "p0", Request{Action: "raise", Amount: amount(30)})
	require.NoError(t, err)
	assert.Equal(t, poker.Raise{Amount: 30}, a)
}

func TestNothingToCall(t *testing.T) {
	e, tbl := startedTable(t, 1000, 1000, 1000)
	for _, u := range []string{"p0", "p1"} {
		tr, err := e.ApplyAction(tbl, u, poker.Call{})
		require.NoError(t, err)
		tbl = tr.Table
	}

	_, err := Check(tbl, "p2", Request{Action: "call"})
	require.ErrorIs(t, err, poker.ErrNothingToCall)
	_, err = Check(tbl, "p2", Request{Action: "check"})
	require.NoError(t, err)
}

func TestRateLimitRunsFirst(t *testing.T) {
	lim := &countingLimiter{allow: false}
	v := New(lim, nil)

	// Even a request against no table at all is throttled before any game
	// check runs.
	_, err := v.Validate(nil, "p0", Request{Action: "dance"})
	require.ErrorIs(t, err, poker.ErrTooManyRequests)
	assert.Equal(t, "too many requests", err.Error())
	assert.Equal(t, 1, lim.calls)

	lim.allow = true
	_, tbl := startedTable(t, 1000, 1000)
	a, err := v.Validate(tbl, "p0", Request{Action: "call"})
	require.NoError(t, err)
	assert.Equal(t, poker.Call{}, a)
}

func TestRejectionIsIdempotent(t *testing.T) {
	v := New(nil, nil)
	_, tbl := startedTable(t, 1000, 1000, 1000)
	before := tbl.Clone()

	_, err1 := v.Validate(tbl, "p2", Request{Action: "raise", Amount: amount(100)})
	_, err2 := v.Validate(tbl, "p2", Request{Action: "raise", Amount: amount(100)})
	require.Error(t, err1)
	assert.Equal(t, err1.Error(), err2.Error())
	assert.Equal(t, before, tbl)
}

func TestOptions(t *testing.T) {
	_, tbl := startedTable(t, 1000, 1000, 1000)

	legal, minRaise := Options(tbl, "p0")
	assert.Equal(t, []poker.ActionType{poker.ActionFold, poker.ActionCall, poker.ActionRaise, poker.ActionAllIn}, legal)
	assert.Equal(t, int64(40), minRaise)

	legal, _ = Options(tbl, "p1")
	assert.Empty(t, legal)
}
