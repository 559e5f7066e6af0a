package poker

import (
	"errors"
	"math/rand"
	"testing"

	"github.com/davecgh/go-spew/spew"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHeadsUpHandEndToEnd(t *testing.T) {
	e := newTestEngine(1)
	tbl := newTestTable(t, 1000, 1000)

	tbl = mustStart(t, e, tbl)
	p0, p1 := tbl.Seat("p0"), tbl.Seat("p1")
	require.Equal(t, StatusPlaying, tbl.Status)
	require.Equal(t, PhasePreflop, tbl.Phase)
	assert.Equal(t, 0, tbl.DealerSeatIndex)
	assert.Equal(t, PositionDealer, p0.Position)
	assert.Equal(t, PositionBigBlind, p1.Position)
	assert.Equal(t, int64(10), p0.CurrentRoundBet)
	assert.Equal(t, int64(20), p1.CurrentRoundBet)
	assert.Equal(t, int64(30), tbl.Pot)
	assert.Equal(t, 0, tbl.Engine.CurrentTurnSeat)
	assert.Equal(t, int64(20), tbl.Engine.LastRaiseSize)
	assert.Equal(t, int64(20), tbl.Engine.MinBetSize)
	assert.Len(t, p0.HoleCards, 2)
	assert.Len(t, p1.HoleCards, 2)
	assert.Len(t, tbl.Engine.RemainingDeck, 48)

	tbl = mustApply(t, e, tbl, "p0", Call{})
	assert.Equal(t, int64(20), tbl.Seat("p0").CurrentRoundBet)
	assert.Equal(t, int64(40), tbl.Pot)
	assert.Equal(t, 1, tbl.Engine.CurrentTurnSeat, "big blind keeps its option")

	tbl = mustApply(t, e, tbl, "p1", Check{})
	require.Equal(t, PhaseFlop, tbl.Phase)
	assert.Len(t, tbl.CommunityCards, 3)
	assert.Equal(t, int64(40), tbl.Pot)
	assert.Zero(t, tbl.Seat("p0").CurrentRoundBet)
	assert.Zero(t, tbl.Seat("p1").CurrentRoundBet)
	assert.Equal(t, 1, tbl.Engine.CurrentTurnSeat, "first seat after the dealer acts post-flop")
	assert.Zero(t, tbl.Engine.LastRaiseSize)
	assert.Zero(t, tbl.Engine.MinBetSize)

	for _, phase := range []Phase{PhaseTurn, PhaseRiver} {
		tbl = mustApply(t, e, tbl, "p1", Check{})
		tbl = mustApply(t, e, tbl, "p0", Check{})
		require.Equal(t, phase, tbl.Phase)
		assert.Equal(t, 1, tbl.Engine.CurrentTurnSeat)
	}
	assert.Len(t, tbl.CommunityCards, 5)

	before := tbl
	tbl = mustApply(t, e, tbl, "p1", Check{})
	tbl = mustApply(t, e, tbl, "p0", Check{})
	require.Equal(t, StatusFinished, tbl.Status)
	require.Equal(t, PhaseShowdown, tbl.Phase)
	assert.Zero(t, tbl.Pot)
	assert.Equal(t, NoSeat, tbl.Engine.CurrentTurnSeat)
	assert.Equal(t, int64(2000), tbl.TotalChips())

	h0 := EvaluateHand(before.Seat("p0").HoleCards, before.CommunityCards)
	h1 := EvaluateHand(before.Seat("p1").HoleCards, before.CommunityCards)
	switch CompareHands(h0, h1) {
	case 1:
		assert.Equal(t, int64(1020), tbl.Seat("p0").Stack)
		assert.Equal(t, int64(980), tbl.Seat("p1").Stack)
		require.Len(t, tbl.Engine.Winners, 1)
		assert.Equal(t, "p0", tbl.Engine.Winners[0].UserID)
		assert.Equal(t, int64(40), tbl.Engine.Winners[0].AmountWon)
	case -1:
		assert.Equal(t, int64(980), tbl.Seat("p0").Stack)
		assert.Equal(t, int64(1020), tbl.Seat("p1").Stack)
		require.Len(t, tbl.Engine.Winners, 1)
		assert.Equal(t, "p1", tbl.Engine.Winners[0].UserID)
	default:
		assert.Equal(t, int64(1000), tbl.Seat("p0").Stack)
		assert.Equal(t, int64(1000), tbl.Seat("p1").Stack)
		assert.Len(t, tbl.Engine.Winners, 2)
	}
}

// riverTable builds a heads-up table at a closed river with fixed cards.
func riverTable(t *testing.T, board []Card, hole0, hole1 []Card, bet int64) *Table {
	t.Helper()
	tbl := newTestTable(t, 1000-bet, 1000-bet)
	tbl.Status = StatusPlaying
	tbl.Phase = PhaseRiver
	tbl.DealerSeatIndex = 0
	tbl.CommunityCards = board
	tbl.Pot = 2 * bet
	tbl.Engine.CurrentTurnSeat = NoSeat
	tbl.Engine.RemainingDeck = MustParseCards("2d", "3d", "4d")
	for i, hole := range [][]Card{hole0, hole1} {
		s := tbl.Seats[i]
		s.HoleCards = hole
		s.IsActive = true
		s.HasActed = true
		s.TotalBet = bet
	}
	return tbl
}

func TestShowdownSplitsTiedPot(t *testing.T) {
	e := newTestEngine(1)
	board := MustParseCards("As", "Kd", "Qh", "Jc", "Tc")
	tbl := riverTable(t, board, MustParseCards("2h", "3s"), MustParseCards("4h", "5s"), 20)

	tr, err := e.Showdown(tbl)
	require.NoError(t, err)
	out := tr.Table

	assert.Equal(t, StatusFinished, out.Status)
	assert.Equal(t, int64(1000), out.Seat("p0").Stack)
	assert.Equal(t, int64(1000), out.Seat("p1").Stack)
	require.Len(t, out.Engine.Winners, 2)
	for _, w := range out.Engine.Winners {
		assert.Equal(t, int64(20), w.AmountWon)
		require.NotNil(t, w.Hand)
		assert.Equal(t, Straight, w.Hand.Rank)
	}

	// The input table is untouched.
	assert.Equal(t, StatusPlaying, tbl.Status)
	assert.Equal(t, int64(40), tbl.Pot)
}

func TestShowdownBestHandTakesPot(t *testing.T) {
	e := newTestEngine(1)
	board := MustParseCards("2c", "7d", "9h", "Js", "3c")
	tbl := riverTable(t, board, MustParseCards("As", "Ad"), MustParseCards("Ks", "Kd"), 50)

	tr, err := e.Showdown(tbl)
	require.NoError(t, err)
	assert.Equal(t, int64(1050), tr.Table.Seat("p0").Stack)
	assert.Equal(t, int64(950), tr.Table.Seat("p1").Stack)
	require.Len(t, tr.Table.Engine.Winners, 1)
	assert.Equal(t, Pair, tr.Table.Engine.Winners[0].Hand.Rank)
}

// requireSeatsConsistent checks the per-seat rules that hold after every
// transition.
func requireSeatsConsistent(t *testing.T, tbl *Table) {
	t.Helper()
	for _, s := range tbl.Seats {
		require.GreaterOrEqual(t, s.Stack, int64(0), spew.Sdump(s))
		if s.IsAllIn {
			require.Zero(t, s.Stack, "all-in seat holds chips\n%s", spew.Sdump(tbl))
		}
	}
}

func TestAllInWinnerAtShowdownIsNoLongerAllIn(t *testing.T) {
	e := newTestEngine(1)
	board := MustParseCards("2c", "7d", "9h", "Js", "3c")
	tbl := riverTable(t, board, MustParseCards("As", "Ad"), MustParseCards("Ks", "Kd"), 1000)
	for _, s := range tbl.Seats {
		s.IsAllIn = true
	}

	tr, err := e.Showdown(tbl)
	require.NoError(t, err)
	out := tr.Table
	requireSeatsConsistent(t, out)

	assert.Equal(t, int64(2000), out.Seat("p0").Stack)
	assert.False(t, out.Seat("p0").IsAllIn)
	assert.True(t, out.Seat("p1").IsAllIn, "the busted seat stays all-in")

	var winner *SeatDelta
	for i := range tr.Seats {
		if tr.Seats[i].UserID == "p0" {
			winner = &tr.Seats[i]
		}
	}
	require.NotNil(t, winner)
	assert.Equal(t, false, winner.Fields[FieldIsAllIn])
}

func TestAllInWinnerUncontestedIsNoLongerAllIn(t *testing.T) {
	e := newTestEngine(3)
	tbl := mustStart(t, e, newTestTable(t, 100, 1000, 1000))
	require.Equal(t, "p0", turnUser(t, tbl))

	tbl = mustApply(t, e, tbl, "p0", AllIn{})
	require.True(t, tbl.Seat("p0").IsAllIn)
	tbl = mustApply(t, e, tbl, "p1", Fold{})
	tbl = mustApply(t, e, tbl, "p2", Fold{})

	require.Equal(t, StatusFinished, tbl.Status)
	assert.Equal(t, int64(130), tbl.Seat("p0").Stack)
	assert.False(t, tbl.Seat("p0").IsAllIn)
	requireSeatsConsistent(t, tbl)
}

func TestShowdownDealsMissingBoard(t *testing.T) {
	e := newTestEngine(1)
	tbl := riverTable(t, MustParseCards("2c", "7d", "9h"), MustParseCards("As", "Ad"), MustParseCards("Ks", "Kd"), 50)
	tbl.Phase = PhaseFlop

	tr, err := e.Showdown(tbl)
	require.NoError(t, err)
	assert.Len(t, tr.Table.CommunityCards, 5)
	assert.Len(t, tr.Table.Engine.RemainingDeck, 1)
	assert.Equal(t, int64(2000), tr.Table.TotalChips())
}

func TestStartRequiresTwoFundedSeats(t *testing.T) {
	e := newTestEngine(1)

	_, err := e.Start(newTestTable(t, 1000))
	require.ErrorIs(t, err, ErrNotEnoughPlayers)

	_, err = e.Start(newTestTable(t, 1000, 0))
	require.ErrorIs(t, err, ErrNotEnoughPlayers)

	tbl := mustStart(t, e, newTestTable(t, 1000, 1000))
	_, err = e.Start(tbl)
	require.ErrorIs(t, err, ErrHandInProgress)
}

func TestStartThreeHandedPositions(t *testing.T) {
	e := newTestEngine(3)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000, 1000))

	assert.Equal(t, 0, tbl.DealerSeatIndex)
	assert.Equal(t, PositionDealer, tbl.Seat("p0").Position)
	assert.Equal(t, PositionSmallBlind, tbl.Seat("p1").Position)
	assert.Equal(t, PositionBigBlind, tbl.Seat("p2").Position)
	assert.Equal(t, 1, tbl.Engine.SmallBlindSeat)
	assert.Equal(t, 2, tbl.Engine.BigBlindSeat)
	assert.Equal(t, 0, tbl.Engine.CurrentTurnSeat, "under the gun follows the big blind")
	assert.Equal(t, int64(1), tbl.HandNumber)
}

func TestDealerRotatesAndBrokeSeatsSitOut(t *testing.T) {
	e := newTestEngine(5)
	tbl := newTestTable(t, 1000, 0, 1000, 1000)

	tbl = mustStart(t, e, tbl)
	assert.Equal(t, 0, tbl.DealerSeatIndex)
	broke := tbl.Seat("p1")
	assert.False(t, broke.IsActive)
	assert.Empty(t, broke.HoleCards)
	assert.Equal(t, 2, tbl.Engine.SmallBlindSeat, "broke seat is skipped")
	assert.Equal(t, 3, tbl.Engine.BigBlindSeat)

	// Fold around to end the hand, then start the next one.
	for tbl.Status == StatusPlaying {
		tbl = mustApply(t, e, tbl, turnUser(t, tbl), Fold{})
	}
	tbl = mustStart(t, e, tbl)
	assert.Equal(t, 2, tbl.DealerSeatIndex)
	assert.Equal(t, int64(2), tbl.HandNumber)
	assert.Nil(t, tbl.Engine.Winners)
}

func TestShortStackedBlindGoesAllIn(t *testing.T) {
	e := newTestEngine(9)
	tbl := mustStart(t, e, newTestTable(t, 1000, 8))

	bb := tbl.Seat("p1")
	assert.True(t, bb.IsAllIn)
	assert.Equal(t, int64(8), bb.TotalBet)

	// The small blind already covers the all-in, so nobody has anything to
	// bet against and the hand runs out.
	assert.Equal(t, StatusFinished, tbl.Status)
	assert.Len(t, tbl.CommunityCards, 5)
	assert.Equal(t, int64(1008), tbl.TotalChips())

	// The two chips the all-in could not match go back to the small blind.
	var won int64
	sbPaid := false
	for _, w := range tbl.Engine.Winners {
		won += w.AmountWon
		if w.UserID == "p1" {
			assert.LessOrEqual(t, w.AmountWon, int64(16))
		} else {
			sbPaid = true
		}
	}
	assert.True(t, sbPaid)
	assert.Equal(t, int64(18), won)
}

func TestShortStackedBlindFacesCall(t *testing.T) {
	e := newTestEngine(9)
	tbl := mustStart(t, e, newTestTable(t, 1000, 15))

	assert.True(t, tbl.Seat("p1").IsAllIn)
	assert.Equal(t, int64(25), tbl.Pot)
	require.Equal(t, StatusPlaying, tbl.Status)
	assert.Equal(t, 0, tbl.Engine.CurrentTurnSeat)
	assert.Equal(t, []ActionType{ActionFold, ActionCall, ActionRaise, ActionAllIn}, LegalActions(tbl, "p0"))

	tbl = mustApply(t, e, tbl, "p0", Call{})
	assert.Equal(t, StatusFinished, tbl.Status)
	assert.Equal(t, int64(1015), tbl.TotalChips())
}

func TestRoundCompletesOnCall(t *testing.T) {
	e := newTestEngine(2)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000, 1000))

	tbl = mustApply(t, e, tbl, "p0", Raise{Amount: 100})
	assert.Equal(t, int64(80), tbl.Engine.LastRaiseSize)
	tbl = mustApply(t, e, tbl, "p1", Call{})
	require.Equal(t, PhasePreflop, tbl.Phase)

	called := mustApply(t, e, tbl, "p2", Call{})
	assert.Equal(t, PhaseFlop, called.Phase, "all bets at 100 after a call closes the round")
	assert.Equal(t, int64(300), called.Pot)

	raised := mustApply(t, e, tbl, "p2", Raise{Amount: 200})
	assert.Equal(t, PhasePreflop, raised.Phase, "a raise re-opens the action")
	assert.Equal(t, 0, raised.Engine.CurrentTurnSeat)
	assert.Equal(t, int64(120), raised.Engine.LastRaiseSize)
	assert.Equal(t, int64(120), raised.Engine.MinBetSize)
	assert.False(t, raised.Seat("p0").HasActed)
	assert.False(t, raised.Seat("p1").HasActed)
}

func TestBigBlindOptionCanRaise(t *testing.T) {
	e := newTestEngine(2)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000, 1000))

	tbl = mustApply(t, e, tbl, "p0", Call{})
	tbl = mustApply(t, e, tbl, "p1", Call{})
	require.Equal(t, 2, tbl.Engine.CurrentTurnSeat)
	assert.Equal(t, []ActionType{ActionFold, ActionCheck, ActionRaise, ActionAllIn}, LegalActions(tbl, "p2"))

	raised := mustApply(t, e, tbl, "p2", Raise{Amount: 40})
	assert.Equal(t, PhasePreflop, raised.Phase)
	assert.Equal(t, 0, raised.Engine.CurrentTurnSeat)

	checked := mustApply(t, e, tbl, "p2", Check{})
	assert.Equal(t, PhaseFlop, checked.Phase)
}

func TestShortAllInDoesNotReopenAction(t *testing.T) {
	e := newTestEngine(4)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000, 130))

	tbl = mustApply(t, e, tbl, "p0", Raise{Amount: 100})
	tbl = mustApply(t, e, tbl, "p1", Call{})
	tbl = mustApply(t, e, tbl, "p2", AllIn{})

	require.Equal(t, PhasePreflop, tbl.Phase)
	assert.Equal(t, int64(130), tbl.HighestBet())
	assert.Equal(t, int64(80), tbl.Engine.LastRaiseSize, "a short all-in is not a full raise")
	assert.True(t, tbl.Seat("p0").HasActed)
	assert.Equal(t, 0, tbl.Engine.CurrentTurnSeat, "seats still owe the difference")

	tbl = mustApply(t, e, tbl, "p0", Call{})
	tbl = mustApply(t, e, tbl, "p1", Call{})
	assert.Equal(t, PhaseFlop, tbl.Phase)
	assert.Equal(t, int64(390), tbl.Pot)
}

func TestRaiseValidation(t *testing.T) {
	e := newTestEngine(2)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000, 1000))

	_, err := e.ApplyAction(tbl, "p0", Raise{Amount: 30})
	require.ErrorIs(t, err, ErrRaiseTooSmall)

	_, err = e.ApplyAction(tbl, "p0", Raise{Amount: 5000})
	require.ErrorIs(t, err, ErrInsufficientChips)

	_, err = e.ApplyAction(tbl, "p0", Raise{Amount: 0})
	require.ErrorIs(t, err, ErrInvalidAmount)

	_, err = e.ApplyAction(tbl, "p0", Check{})
	require.ErrorIs(t, err, ErrMustCallOrFold)

	tbl = mustApply(t, e, tbl, "p0", Raise{Amount: 40})
	assert.Equal(t, int64(40), tbl.HighestBet())
}

func TestAllInBelowMinimumIsAllowed(t *testing.T) {
	e := newTestEngine(2)
	tbl := mustStart(t, e, newTestTable(t, 30, 1000, 1000))

	tbl = mustApply(t, e, tbl, "p0", Raise{Amount: 30})
	p0 := tbl.Seat("p0")
	assert.True(t, p0.IsAllIn)
	assert.Zero(t, p0.Stack)
	assert.Equal(t, int64(20), tbl.Engine.LastRaiseSize)
}

func TestNothingToCall(t *testing.T) {
	e := newTestEngine(2)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000))
	tbl = mustApply(t, e, tbl, "p0", Call{})

	_, err := e.ApplyAction(tbl, "p1", Call{})
	require.ErrorIs(t, err, ErrNothingToCall)
	assert.Equal(t, "nothing to call, use check", err.Error())
}

func TestActionOutOfTurnIsRejectedWithoutChanges(t *testing.T) {
	e := newTestEngine(6)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000, 1000))
	snapshot := tbl.Clone()

	for _, a := range []Action{Fold{}, Check{}, Call{}, Raise{Amount: 100}, AllIn{}} {
		_, err := e.ApplyAction(tbl, "p1", a)
		require.ErrorIs(t, err, ErrNotYourTurn, "action %T", a)
	}
	require.Equal(t, snapshot, tbl, "rejected actions must not mutate the table")

	_, err := e.ApplyAction(tbl, "ghost", Fold{})
	require.ErrorIs(t, err, ErrPlayerNotFound)
}

func TestActionOnFinishedTable(t *testing.T) {
	e := newTestEngine(6)
	_, err := e.ApplyAction(newTestTable(t, 1000, 1000), "p0", Fold{})
	require.ErrorIs(t, err, ErrGameNotInProgress)
}

func TestFoldToOneAwardsWholePot(t *testing.T) {
	e := newTestEngine(7)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000, 1000))
	tbl = mustApply(t, e, tbl, "p0", Raise{Amount: 60})

	tbl = mustApply(t, e, tbl, "p1", Fold{})
	pot := tbl.Pot
	stack := tbl.Seat("p0").Stack
	assert.Equal(t, int64(90), pot)

	tbl = mustApply(t, e, tbl, "p2", Fold{})
	assert.Equal(t, StatusFinished, tbl.Status)
	assert.Equal(t, stack+pot, tbl.Seat("p0").Stack)
	assert.Zero(t, tbl.Pot)
	require.Len(t, tbl.Engine.Winners, 1)
	assert.Nil(t, tbl.Engine.Winners[0].Hand)
	assert.Equal(t, pot, tbl.Engine.Winners[0].AmountWon)
	assert.Empty(t, tbl.CommunityCards, "no board is dealt without a showdown")
}

func TestAllInPreflopRunsOutBoard(t *testing.T) {
	e := newTestEngine(8)
	tbl := mustStart(t, e, newTestTable(t, 500, 500))

	tbl = mustApply(t, e, tbl, "p0", AllIn{})
	tbl = mustApply(t, e, tbl, "p1", Call{})

	assert.Equal(t, StatusFinished, tbl.Status)
	assert.Len(t, tbl.CommunityCards, 5)
	assert.Equal(t, int64(1000), tbl.TotalChips())
	var won int64
	for _, w := range tbl.Engine.Winners {
		won += w.AmountWon
	}
	assert.Equal(t, int64(1000), won)
}

func TestNextRoundRequiresClosedRound(t *testing.T) {
	e := newTestEngine(1)
	tbl := mustStart(t, e, newTestTable(t, 1000, 1000))

	_, err := e.NextRound(tbl)
	require.ErrorIs(t, err, ErrRoundNotComplete)
	_, err = e.Showdown(tbl)
	require.ErrorIs(t, err, ErrRoundNotComplete)

	_, err = e.NextRound(newTestTable(t, 1000, 1000))
	require.ErrorIs(t, err, ErrGameNotInProgress)
}

func TestNextRoundDealsStreet(t *testing.T) {
	e := newTestEngine(1)
	tbl := riverTable(t, MustParseCards("2c", "7d", "9h"), MustParseCards("As", "Ad"), MustParseCards("Ks", "Kd"), 50)
	tbl.Phase = PhaseFlop
	tbl.Engine.RemainingDeck = MustParseCards("4s", "5s", "6s", "8s")

	tr, err := e.NextRound(tbl)
	require.NoError(t, err)
	out := tr.Table
	assert.Equal(t, PhaseTurn, out.Phase)
	assert.Len(t, out.CommunityCards, 4)
	assert.Equal(t, 1, out.Engine.CurrentTurnSeat)
	assert.False(t, out.Seat("p0").HasActed)
	assert.Equal(t, PhaseTurn, tr.Room[FieldPhase])
	assert.Contains(t, tr.Room, FieldCommunityCards)

	out.Seat("p0").HasActed = true
	out.Seat("p1").HasActed = true
	tr, err = e.NextRound(out)
	require.NoError(t, err)
	assert.Equal(t, PhaseRiver, tr.Table.Phase)

	tr.Table.Seat("p0").HasActed = true
	tr.Table.Seat("p1").HasActed = true
	tr, err = e.NextRound(tr.Table)
	require.NoError(t, err)
	assert.Equal(t, PhaseShowdown, tr.Table.Phase)
	assert.True(t, tr.HandFinished())
}

// randomAction picks a legal action for the seat holding the turn.
func randomAction(rng *rand.Rand, tbl *Table) (string, Action) {
	s := tbl.CurrentSeat()
	legal := LegalActions(tbl, s.UserID)
	switch legal[rng.Intn(len(legal))] {
	case ActionFold:
		return s.UserID, Fold{}
	case ActionCheck:
		return s.UserID, Check{}
	case ActionCall:
		return s.UserID, Call{}
	case ActionRaise:
		lo := MinRaiseAmount(tbl, s)
		return s.UserID, Raise{Amount: lo + rng.Int63n(s.Stack-lo+1)}
	default:
		return s.UserID, AllIn{}
	}
}

func TestChipConservationRandomPlay(t *testing.T) {
	rng := rand.New(rand.NewSource(77))
	for game := 0; game < 30; game++ {
		e := newTestEngine(int64(game))
		n := 2 + rng.Intn(5)
		stacks := make([]int64, n)
		for i := range stacks {
			stacks[i] = 100 + rng.Int63n(900)
		}
		tbl := newTestTable(t, stacks...)
		total := tbl.TotalChips()

		for hand := 0; hand < 20; hand++ {
			tr, err := e.Start(tbl)
			if errors.Is(err, ErrNotEnoughPlayers) {
				break
			}
			require.NoError(t, err)
			tbl = tr.Table
			requireSeatsConsistent(t, tbl)

			for tbl.Status == StatusPlaying {
				require.Equal(t, total, tbl.TotalChips(), spew.Sdump(tbl))
				cur := tbl.CurrentSeat()
				require.NotNil(t, cur, spew.Sdump(tbl))
				require.True(t, cur.CanAct())
				require.Contains(t, []int{0, 3, 4, 5}, len(tbl.CommunityCards))

				user, a := randomAction(rng, tbl)
				tbl = mustApply(t, e, tbl, user, a)
				requireSeatsConsistent(t, tbl)
			}
			require.Equal(t, total, tbl.TotalChips())
			require.Zero(t, tbl.Pot)
			requireSeatsConsistent(t, tbl)
		}
	}
}
