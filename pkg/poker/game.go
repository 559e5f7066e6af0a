package poker

import (
	"fmt"

	"github.com/vctt94/holdem/pkg/statemachine"
)

// Street state functions. Each deals its street and returns nil once betting
// can resume; when at most one seat can still bet the next street follows
// immediately, down to the showdown.

// streetAfter returns the state that follows the given phase.
func streetAfter(p Phase) TableStateFn {
	switch p {
	case PhasePreflop:
		return stateFlop
	case PhaseFlop:
		return stateTurn
	case PhaseTurn:
		return stateRiver
	case PhaseRiver:
		return stateShowdown
	}
	panic(fmt.Sprintf("poker: no street follows phase %q", p))
}

// dealStreet moves n cards from the preserved deck to the board and opens a
// new betting street.
func dealStreet(t *Table, n int, phase Phase) {
	drawn, rest := Draw(t.Engine.RemainingDeck, n)
	t.CommunityCards = append(t.CommunityCards, drawn...)
	t.Engine.RemainingDeck = rest
	t.Phase = phase

	for _, s := range t.Seats {
		if s.IsActive {
			s.CurrentRoundBet = 0
			s.HasActed = false
		}
	}
	t.Engine.LastRaiseSize = 0
	t.Engine.MinBetSize = 0
	t.Engine.CurrentTurnSeat = NoSeat
	if t.countCanAct() > 1 {
		if first := t.nextSeat(t.DealerSeatIndex, (*Seat).CanAct); first != nil {
			t.Engine.CurrentTurnSeat = first.Index
		}
	}
}

func bettingOpen(t *Table) bool {
	return t.Engine.CurrentTurnSeat != NoSeat
}

func stateFlop(t *Table) TableStateFn {
	dealStreet(t, 3, PhaseFlop)
	if bettingOpen(t) {
		return nil
	}
	return stateTurn
}

func stateTurn(t *Table) TableStateFn {
	dealStreet(t, 1, PhaseTurn)
	if bettingOpen(t) {
		return nil
	}
	return stateRiver
}

func stateRiver(t *Table) TableStateFn {
	dealStreet(t, 1, PhaseRiver)
	if bettingOpen(t) {
		return nil
	}
	return stateShowdown
}

// stateShowdown completes the board, evaluates every live hand and pays out
// the pots.
func stateShowdown(t *Table) TableStateFn {
	if missing := 5 - len(t.CommunityCards); missing > 0 {
		drawn, rest := Draw(t.Engine.RemainingDeck, missing)
		t.CommunityCards = append(t.CommunityCards, drawn...)
		t.Engine.RemainingDeck = rest
	}
	t.Phase = PhaseShowdown

	hands := make(map[int]*HandValue)
	for _, s := range t.Seats {
		if !s.IsActive {
			continue
		}
		if len(s.HoleCards) != 2 {
			panic(fmt.Sprintf("poker: seat %d at showdown with %d hole cards", s.Index, len(s.HoleCards)))
		}
		hv := EvaluateHand(s.HoleCards, t.CommunityCards)
		hands[s.Index] = &hv
	}

	pots := BuildPotsFromTotals(t.Seats)
	t.Engine.Winners = distributePots(t, pots, hands)
	finishHand(t)
	return nil
}

// finishHand closes the hand after the pot has been paid out. A seat that
// was all-in and got chips back is no longer all-in.
func finishHand(t *Table) {
	for _, s := range t.Seats {
		if s.IsAllIn && s.Stack > 0 {
			s.IsAllIn = false
		}
	}
	t.Pot = 0
	t.Status = StatusFinished
	t.Engine.CurrentTurnSeat = NoSeat
}

// runStreets drives the street state machine from start and returns the
// number of states executed.
func runStreets(t *Table, start TableStateFn) int {
	return statemachine.NewStateMachine(t, start).Run()
}
