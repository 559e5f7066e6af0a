package poker

import (
	"fmt"
	"sort"

	"github.com/vctt94/holdem/pkg/statemachine"
)

// TableStateFn is a street state function driven by the engine.
type TableStateFn = statemachine.StateFn[Table]

// Status is the lifecycle state of a table.
type Status string

const (
	StatusWaiting  Status = "waiting"
	StatusPlaying  Status = "playing"
	StatusFinished Status = "finished"
)

// Phase is the street of the hand in progress. It is empty before the first
// hand.
type Phase string

const (
	PhaseNone     Phase = ""
	PhasePreflop  Phase = "preflop"
	PhaseFlop     Phase = "flop"
	PhaseTurn     Phase = "turn"
	PhaseRiver    Phase = "river"
	PhaseShowdown Phase = "showdown"
)

// NoSeat marks the absence of a seat index (no turn holder, no dealer yet).
const NoSeat = -1

// MaxSeatsLimit is the largest table the engine deals for.
const MaxSeatsLimit = 10

// Winner records chips awarded to a seat when a hand finishes. Hand is nil
// when the seat won without a showdown.
type Winner struct {
	SeatIndex int        `json:"seat_index"`
	UserID    string     `json:"user_id"`
	Hand      *HandValue `json:"hand,omitempty"`
	AmountWon int64      `json:"amount_won"`
}

// EngineState is the engine bookkeeping persisted alongside the table.
type EngineState struct {
	RemainingDeck   []Card   `json:"remaining_deck"`
	CurrentTurnSeat int      `json:"current_turn_seat"`
	LastRaiseSize   int64    `json:"last_raise_size"`
	MinBetSize      int64    `json:"min_bet_size"`
	SmallBlindSeat  int      `json:"small_blind_seat"`
	BigBlindSeat    int      `json:"big_blind_seat"`
	Winners         []Winner `json:"winners"`
}

// TableConfig holds the immutable settings of a table.
type TableConfig struct {
	ID         string
	MaxSeats   int
	SmallBlind int64
	BigBlind   int64
}

// Table is the authoritative state of one room. The engine never mutates a
// Table it is given; transitions return a modified clone.
type Table struct {
	ID              string      `json:"id"`
	MaxSeats        int         `json:"max_seats"`
	SmallBlind      int64       `json:"small_blind"`
	BigBlind        int64       `json:"big_blind"`
	Status          Status      `json:"status"`
	Phase           Phase       `json:"current_phase"`
	Pot             int64       `json:"pot"`
	DealerSeatIndex int         `json:"dealer_seat_index"`
	CommunityCards  []Card      `json:"community_cards"`
	HandNumber      int64       `json:"hand_number"`
	Version         int64       `json:"version"`
	Engine          EngineState `json:"engine_state"`
	Seats           []*Seat     `json:"seats"` // sorted by Index
}

// NewTable creates an empty table waiting for players.
func NewTable(cfg TableConfig) (*Table, error) {
	if cfg.ID == "" {
		return nil, fmt.Errorf("table id is required")
	}
	if cfg.MaxSeats < 2 || cfg.MaxSeats > MaxSeatsLimit {
		return nil, fmt.Errorf("max seats must be between 2 and %d, got %d", MaxSeatsLimit, cfg.MaxSeats)
	}
	if cfg.SmallBlind <= 0 || cfg.BigBlind <= 0 {
		return nil, fmt.Errorf("blinds must be positive")
	}
	if cfg.SmallBlind > cfg.BigBlind {
		return nil, fmt.Errorf("small blind %d exceeds big blind %d", cfg.SmallBlind, cfg.BigBlind)
	}

	return &Table{
		ID:              cfg.ID,
		MaxSeats:        cfg.MaxSeats,
		SmallBlind:      cfg.SmallBlind,
		BigBlind:        cfg.BigBlind,
		Status:          StatusWaiting,
		Phase:           PhaseNone,
		DealerSeatIndex: NoSeat,
		CommunityCards:  []Card{},
		Engine: EngineState{
			CurrentTurnSeat: NoSeat,
			SmallBlindSeat:  NoSeat,
			BigBlindSeat:    NoSeat,
		},
		Seats: []*Seat{},
	}, nil
}

// Config returns the table's immutable settings.
func (t *Table) Config() TableConfig {
	return TableConfig{ID: t.ID, MaxSeats: t.MaxSeats, SmallBlind: t.SmallBlind, BigBlind: t.BigBlind}
}

// Clone returns a deep copy of the table.
func (t *Table) Clone() *Table {
	c := *t
	c.CommunityCards = append([]Card{}, t.CommunityCards...)
	c.Engine.RemainingDeck = append([]Card(nil), t.Engine.RemainingDeck...)
	if t.Engine.Winners != nil {
		c.Engine.Winners = make([]Winner, len(t.Engine.Winners))
		for i, w := range t.Engine.Winners {
			c.Engine.Winners[i] = w
			if w.Hand != nil {
				h := *w.Hand
				h.BestHand = append([]Card(nil), w.Hand.BestHand...)
				c.Engine.Winners[i].Hand = &h
			}
		}
	}
	c.Seats = make([]*Seat, len(t.Seats))
	for i, s := range t.Seats {
		c.Seats[i] = s.Clone()
	}
	return &c
}

// Seat returns the seat occupied by userID, or nil.
func (t *Table) Seat(userID string) *Seat {
	for _, s := range t.Seats {
		if s.UserID == userID {
			return s
		}
	}
	return nil
}

// SeatAt returns the seat at index, or nil.
func (t *Table) SeatAt(index int) *Seat {
	for _, s := range t.Seats {
		if s.Index == index {
			return s
		}
	}
	return nil
}

// CurrentSeat returns the seat holding the turn, or nil.
func (t *Table) CurrentSeat() *Seat {
	if t.Engine.CurrentTurnSeat == NoSeat {
		return nil
	}
	return t.SeatAt(t.Engine.CurrentTurnSeat)
}

// AddSeat seats userID at index with stack chips. A negative index picks the
// lowest free seat. Seats can only change between hands.
func (t *Table) AddSeat(userID string, index int, stack int64) (*Seat, error) {
	if t.Status == StatusPlaying {
		return nil, ErrHandInProgress
	}
	if userID == "" {
		return nil, actionErrorf(CodePlayerNotFound, "user id is required")
	}
	if stack < 0 {
		return nil, actionErrorf(CodeInvalidAmount, "stack must not be negative")
	}
	if t.Seat(userID) != nil {
		return nil, ErrAlreadySeated
	}
	if len(t.Seats) >= t.MaxSeats {
		return nil, ErrTableFull
	}
	if index < 0 {
		for i := 0; i < t.MaxSeats; i++ {
			if t.SeatAt(i) == nil {
				index = i
				break
			}
		}
	}
	if index >= t.MaxSeats {
		return nil, actionErrorf(CodeSeatTaken, "seat %d does not exist", index)
	}
	if t.SeatAt(index) != nil {
		return nil, ErrSeatTaken
	}

	s := NewSeat(userID, index, stack)
	t.Seats = append(t.Seats, s)
	sort.Slice(t.Seats, func(i, j int) bool { return t.Seats[i].Index < t.Seats[j].Index })
	return s, nil
}

// RemoveSeat removes userID from the table and returns its seat.
func (t *Table) RemoveSeat(userID string) (*Seat, error) {
	if t.Status == StatusPlaying {
		return nil, ErrHandInProgress
	}
	for i, s := range t.Seats {
		if s.UserID == userID {
			t.Seats = append(t.Seats[:i], t.Seats[i+1:]...)
			return s, nil
		}
	}
	return nil, ErrPlayerNotFound
}

// HighestBet returns the largest current round bet among seats still in the
// hand. Folded seats keep their stale bets and are ignored.
func (t *Table) HighestBet() int64 {
	var hi int64
	for _, s := range t.Seats {
		if s.IsActive && s.CurrentRoundBet > hi {
			hi = s.CurrentRoundBet
		}
	}
	return hi
}

// ToCall returns the chips s must add to match the highest bet.
func (t *Table) ToCall(s *Seat) int64 {
	d := t.HighestBet() - s.CurrentRoundBet
	if d < 0 {
		return 0
	}
	return d
}

// MinRaise is the smallest legal raise size over the highest bet. A street
// with no bet yet opens at the big blind.
func (t *Table) MinRaise() int64 {
	if t.Engine.MinBetSize > t.BigBlind {
		return t.Engine.MinBetSize
	}
	return t.BigBlind
}

// TotalChips returns the sum of all stacks and the pot.
func (t *Table) TotalChips() int64 {
	total := t.Pot
	for _, s := range t.Seats {
		total += s.Stack
	}
	return total
}

// ActiveCount returns the number of seats still contesting the pot.
func (t *Table) ActiveCount() int {
	n := 0
	for _, s := range t.Seats {
		if s.IsActive {
			n++
		}
	}
	return n
}

// countCanAct returns the number of seats able to bet.
func (t *Table) countCanAct() int {
	n := 0
	for _, s := range t.Seats {
		if s.CanAct() {
			n++
		}
	}
	return n
}

// seatsAfter returns all seats in clockwise order, starting with the first
// seat whose index is greater than index.
func (t *Table) seatsAfter(index int) []*Seat {
	out := make([]*Seat, 0, len(t.Seats))
	for _, s := range t.Seats {
		if s.Index > index {
			out = append(out, s)
		}
	}
	for _, s := range t.Seats {
		if s.Index <= index {
			out = append(out, s)
		}
	}
	return out
}

// nextSeat returns the first seat clockwise after index matching pred.
func (t *Table) nextSeat(index int, pred func(*Seat) bool) *Seat {
	for _, s := range t.seatsAfter(index) {
		if pred(s) {
			return s
		}
	}
	return nil
}

// needsToAct reports whether s still owes an action this street.
func (t *Table) needsToAct(s *Seat) bool {
	if !s.CanAct() {
		return false
	}
	if s.CurrentRoundBet < t.HighestBet() {
		return true
	}
	if s.HasActed {
		return false
	}
	// Alone against all-in opponents with nothing to call, there is
	// nobody left to bet against.
	return t.countCanAct() > 1
}

// RoundComplete reports whether the current betting street is closed.
func (t *Table) RoundComplete() bool {
	for _, s := range t.Seats {
		if t.needsToAct(s) {
			return false
		}
	}
	return true
}

// clockwiseDistance orders seat indexes starting left of the dealer.
func (t *Table) clockwiseDistance(index int) int {
	n := t.MaxSeats
	return ((index-t.DealerSeatIndex-1)%n + n) % n
}
