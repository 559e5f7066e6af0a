package poker

import "fmt"

// Position is the blind or button role a seat holds for the current hand.
type Position string

const (
	PositionNone       Position = "none"
	PositionDealer     Position = "dealer"
	PositionSmallBlind Position = "small_blind"
	PositionBigBlind   Position = "big_blind"
)

// Seat is a player sitting at a table. Identity and stack persist across
// hands; every other field is reset when a hand starts.
type Seat struct {
	UserID string `json:"user_id"`
	Index  int    `json:"seat_index"`

	Stack           int64    `json:"stack"`
	HoleCards       []Card   `json:"hole_cards"`
	CurrentRoundBet int64    `json:"current_round_bet"` // wagered this street
	TotalBet        int64    `json:"total_bet"`         // wagered this hand, used to layer side pots
	IsActive        bool     `json:"is_active"`         // still contesting the pot
	IsAllIn         bool     `json:"is_all_in"`
	HasActed        bool     `json:"has_acted"` // acted since the street opened or the last full raise
	Position        Position `json:"position"`
}

// NewSeat creates a seat holding stack chips. The seat sits out until the
// next hand starts.
func NewSeat(userID string, index int, stack int64) *Seat {
	return &Seat{
		UserID:    userID,
		Index:     index,
		Stack:     stack,
		HoleCards: make([]Card, 0, 2),
		Position:  PositionNone,
	}
}

// Clone returns a deep copy of the seat.
func (s *Seat) Clone() *Seat {
	c := *s
	c.HoleCards = append([]Card(nil), s.HoleCards...)
	return &c
}

// CanAct reports whether the seat may still take betting actions this hand.
func (s *Seat) CanAct() bool {
	return s.IsActive && !s.IsAllIn
}

// resetForNewHand clears per-hand state. Seats without chips sit the hand out.
func (s *Seat) resetForNewHand() {
	s.HoleCards = make([]Card, 0, 2)
	s.CurrentRoundBet = 0
	s.TotalBet = 0
	s.IsActive = s.Stack > 0
	s.IsAllIn = false
	s.HasActed = false
	s.Position = PositionNone
}

// commit moves up to amount chips from the stack into the seat's bets and
// returns how much was actually moved. Emptying the stack puts the seat all-in.
func (s *Seat) commit(amount int64) int64 {
	if amount > s.Stack {
		amount = s.Stack
	}
	if amount < 0 {
		panic(fmt.Sprintf("poker: seat %d committing negative amount %d", s.Index, amount))
	}
	s.Stack -= amount
	s.CurrentRoundBet += amount
	s.TotalBet += amount
	if s.Stack == 0 {
		s.IsAllIn = true
	}
	return amount
}

func (s *Seat) String() string {
	state := "active"
	switch {
	case s.IsAllIn:
		state = "all-in"
	case !s.IsActive:
		state = "out"
	}
	return fmt.Sprintf("seat %d (%s) stack=%d bet=%d %s", s.Index, s.UserID, s.Stack, s.CurrentRoundBet, state)
}
