package poker

import (
	"fmt"
	"math/rand"
	"sync"
	"time"

	"github.com/decred/slog"
)

// Engine computes table transitions. Its methods never modify the table they
// are given: each returns a new table and the per-seat deltas. The only
// shared state is the shuffling source.
type Engine struct {
	log slog.Logger

	mu  sync.Mutex // protects rng
	rng *rand.Rand
}

// NewEngine creates an engine. A nil rng is seeded from the clock.
func NewEngine(log slog.Logger, rng *rand.Rand) *Engine {
	if log == nil {
		log = slog.Disabled
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(time.Now().UnixNano()))
	}
	return &Engine{log: log, rng: rng}
}

func (e *Engine) shuffledDeck() []Card {
	e.mu.Lock()
	defer e.mu.Unlock()
	return NewDeck(e.rng)
}

// Start begins a new hand: rotates the button, deals hole cards, posts the
// blinds and hands the turn to the first seat to act.
func (e *Engine) Start(t *Table) (*Transition, error) {
	if t.Status == StatusPlaying {
		return nil, ErrHandInProgress
	}
	funded := 0
	for _, s := range t.Seats {
		if s.Stack > 0 {
			funded++
		}
	}
	if funded < 2 {
		return nil, ErrNotEnoughPlayers
	}

	nt := t.Clone()
	nt.HandNumber++
	nt.Status = StatusPlaying
	nt.Phase = PhasePreflop
	nt.Pot = 0
	nt.CommunityCards = []Card{}
	nt.Engine.Winners = nil
	for _, s := range nt.Seats {
		s.resetForNewHand()
	}

	inHand := (*Seat).CanAct
	dealer := nt.nextSeat(nt.DealerSeatIndex, inHand)
	nt.DealerSeatIndex = dealer.Index

	var sb, bb *Seat
	if funded == 2 {
		sb = dealer
		bb = nt.nextSeat(dealer.Index, inHand)
	} else {
		sb = nt.nextSeat(dealer.Index, inHand)
		bb = nt.nextSeat(sb.Index, inHand)
	}
	dealer.Position = PositionDealer
	if sb != dealer {
		sb.Position = PositionSmallBlind
	}
	bb.Position = PositionBigBlind
	nt.Engine.SmallBlindSeat = sb.Index
	nt.Engine.BigBlindSeat = bb.Index

	deck := e.shuffledDeck()
	for _, s := range nt.Seats {
		if !s.IsActive {
			continue
		}
		var hole []Card
		hole, deck = Draw(deck, 2)
		s.HoleCards = hole
	}
	nt.Engine.RemainingDeck = deck

	nt.Pot += sb.commit(nt.SmallBlind)
	nt.Pot += bb.commit(nt.BigBlind)
	nt.Engine.LastRaiseSize = nt.BigBlind
	nt.Engine.MinBetSize = nt.BigBlind

	// Under the gun is the seat after the big blind; heads-up that is the
	// dealer on the small blind.
	nt.Engine.CurrentTurnSeat = NoSeat
	if next := nt.nextSeat(bb.Index, nt.needsToAct); next != nil {
		nt.Engine.CurrentTurnSeat = next.Index
	}

	e.log.Debugf("table %s: hand %d started, dealer=%d sb=%d bb=%d pot=%d",
		nt.ID, nt.HandNumber, dealer.Index, sb.Index, bb.Index, nt.Pot)

	if nt.Engine.CurrentTurnSeat == NoSeat {
		// Blinds put everyone all-in.
		e.advance(nt)
	}
	return newTransition(t, nt), nil
}

// checkTurn re-validates that userID may act on t.
func checkTurn(t *Table, userID string) (*Seat, error) {
	if t.Status != StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	s := t.Seat(userID)
	if s == nil {
		return nil, ErrPlayerNotFound
	}
	if !s.IsActive {
		return nil, ErrNotActivePlayer
	}
	if s.IsAllIn {
		return nil, actionErrorf(CodeNotActivePlayer, "player is all-in")
	}
	if t.Engine.CurrentTurnSeat != s.Index {
		return nil, ErrNotYourTurn
	}
	return s, nil
}

// ApplyAction applies a player's action. When it closes the betting round the
// next street is dealt, or the hand is run out and settled when no further
// betting is possible.
func (e *Engine) ApplyAction(t *Table, userID string, action Action) (*Transition, error) {
	if _, err := checkTurn(t, userID); err != nil {
		return nil, err
	}

	nt := t.Clone()
	s := nt.Seat(userID)
	toCall := nt.ToCall(s)

	switch a := action.(type) {
	case Fold:
		s.IsActive = false

	case Check:
		if toCall > 0 {
			return nil, ErrMustCallOrFold
		}

	case Call:
		if toCall == 0 {
			return nil, ErrNothingToCall
		}
		nt.Pot += s.commit(toCall)

	case Raise:
		if a.Amount <= 0 {
			return nil, ErrInvalidAmount
		}
		if a.Amount > s.Stack {
			return nil, ErrInsufficientChips
		}
		if a.Amount < toCall+nt.MinRaise() && a.Amount != s.Stack {
			return nil, actionErrorf(CodeRaiseTooSmall, "raise below minimum: need at least %d",
				toCall+nt.MinRaise())
		}
		e.bet(nt, s, a.Amount)

	case AllIn:
		e.bet(nt, s, s.Stack)

	default:
		panic(fmt.Sprintf("poker: unhandled action %T", action))
	}
	s.HasActed = true

	e.log.Tracef("table %s: seat %d %s -> stack=%d bet=%d pot=%d",
		nt.ID, s.Index, action.Type(), s.Stack, s.CurrentRoundBet, nt.Pot)

	if nt.ActiveCount() == 1 {
		e.awardLastStanding(nt)
		return newTransition(t, nt), nil
	}

	if next := nt.nextSeat(s.Index, nt.needsToAct); next != nil {
		nt.Engine.CurrentTurnSeat = next.Index
		return newTransition(t, nt), nil
	}

	nt.Engine.CurrentTurnSeat = NoSeat
	e.advance(nt)
	return newTransition(t, nt), nil
}

// bet moves amount chips from s into the pot. Raising the highest bet by at
// least the minimum raise re-opens the action for every other seat; a short
// all-in only obliges them to call the difference.
func (e *Engine) bet(t *Table, s *Seat, amount int64) {
	prevHigh := t.HighestBet()
	minRaise := t.MinRaise()
	t.Pot += s.commit(amount)

	raise := s.CurrentRoundBet - prevHigh
	if raise < minRaise {
		return
	}
	t.Engine.LastRaiseSize = raise
	t.Engine.MinBetSize = raise
	for _, o := range t.Seats {
		if o != s && o.CanAct() {
			o.HasActed = false
		}
	}
}

// awardLastStanding gives the whole pot to the only seat left in the hand.
func (e *Engine) awardLastStanding(t *Table) {
	var w *Seat
	for _, s := range t.Seats {
		if s.IsActive {
			w = s
			break
		}
	}
	w.Stack += t.Pot
	t.Engine.Winners = []Winner{{SeatIndex: w.Index, UserID: w.UserID, AmountWon: t.Pot}}
	e.log.Debugf("table %s: hand %d won by seat %d uncontested (%d chips)",
		t.ID, t.HandNumber, w.Index, t.Pot)
	finishHand(t)
}

// advance runs the street state machine from the current phase.
func (e *Engine) advance(t *Table) {
	from := t.Phase
	steps := runStreets(t, streetAfter(from))
	if t.Status == StatusFinished {
		e.logWinners(t)
		return
	}
	e.log.Debugf("table %s: %s -> %s in %d steps, board %v", t.ID, from, t.Phase, steps, t.CommunityCards)
}

func (e *Engine) logWinners(t *Table) {
	for _, w := range t.Engine.Winners {
		desc := "uncontested"
		if w.Hand != nil {
			desc = w.Hand.HandDescription
		}
		e.log.Debugf("table %s: hand %d seat %d wins %d (%s)", t.ID, t.HandNumber, w.SeatIndex, w.AmountWon, desc)
	}
}

// NextRound deals the next street once betting on the current one is closed.
// From the river it settles the showdown. Streets on which nobody can bet are
// dealt straight through.
func (e *Engine) NextRound(t *Table) (*Transition, error) {
	if t.Status != StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if !t.RoundComplete() {
		return nil, ErrRoundNotComplete
	}
	nt := t.Clone()
	nt.Engine.CurrentTurnSeat = NoSeat
	e.advance(nt)
	return newTransition(t, nt), nil
}

// Showdown deals any missing board cards, evaluates the remaining hands and
// pays out every pot.
func (e *Engine) Showdown(t *Table) (*Transition, error) {
	if t.Status != StatusPlaying {
		return nil, ErrGameNotInProgress
	}
	if !t.RoundComplete() {
		return nil, ErrRoundNotComplete
	}
	nt := t.Clone()
	runStreets(nt, stateShowdown)
	e.logWinners(nt)
	return newTransition(t, nt), nil
}
