package poker

import (
	"reflect"
)

// Delta field names shared by seat and room deltas.
const (
	FieldStack           = "stack"
	FieldCurrentRoundBet = "current_round_bet"
	FieldTotalBet        = "total_bet"
	FieldIsActive        = "is_active"
	FieldIsAllIn         = "is_all_in"
	FieldPosition        = "position"
	FieldHoleCards       = "hole_cards"
	FieldHasActed        = "has_acted"

	FieldStatus          = "status"
	FieldPhase           = "current_phase"
	FieldPot             = "pot"
	FieldDealerSeatIndex = "dealer_seat_index"
	FieldCommunityCards  = "community_cards"
	FieldHandNumber      = "hand_number"
	FieldRemainingDeck   = "remaining_deck"
	FieldCurrentTurnSeat = "current_turn_seat"
	FieldLastRaiseSize   = "last_raise_size"
	FieldMinBetSize      = "min_bet_size"
	FieldSmallBlindSeat  = "small_blind_seat"
	FieldBigBlindSeat    = "big_blind_seat"
	FieldWinners         = "winners"
)

// SeatDelta lists the fields of one seat changed by a transition, suitable
// for a partial write.
type SeatDelta struct {
	UserID    string         `json:"user_id"`
	SeatIndex int            `json:"seat_index"`
	Fields    map[string]any `json:"fields"`
}

// RoomDelta lists the room level fields changed by a transition.
type RoomDelta map[string]any

// Transition is the result of an engine operation: the new table and what
// changed relative to the input.
type Transition struct {
	Table *Table      `json:"table"`
	Seats []SeatDelta `json:"seats"`
	Room  RoomDelta   `json:"room"`
}

// HandFinished reports whether the transition ended a hand.
func (tr *Transition) HandFinished() bool {
	_, changed := tr.Room[FieldStatus]
	return changed && tr.Table.Status == StatusFinished
}

// Diff describes the change from before to after. It is used for table
// edits made outside the engine, such as seating players.
func Diff(before, after *Table) *Transition {
	return newTransition(before, after)
}

func newTransition(before, after *Table) *Transition {
	return &Transition{
		Table: after,
		Seats: diffSeats(before, after),
		Room:  diffRoom(before, after),
	}
}

func diffSeats(before, after *Table) []SeatDelta {
	var out []SeatDelta
	for _, n := range after.Seats {
		o := before.Seat(n.UserID)
		f := make(map[string]any)
		if o == nil || o.Stack != n.Stack {
			f[FieldStack] = n.Stack
		}
		if o == nil || o.CurrentRoundBet != n.CurrentRoundBet {
			f[FieldCurrentRoundBet] = n.CurrentRoundBet
		}
		if o == nil || o.TotalBet != n.TotalBet {
			f[FieldTotalBet] = n.TotalBet
		}
		if o == nil || o.IsActive != n.IsActive {
			f[FieldIsActive] = n.IsActive
		}
		if o == nil || o.IsAllIn != n.IsAllIn {
			f[FieldIsAllIn] = n.IsAllIn
		}
		if o == nil || o.Position != n.Position {
			f[FieldPosition] = n.Position
		}
		if o == nil || !equalCards(o.HoleCards, n.HoleCards) {
			f[FieldHoleCards] = append([]Card{}, n.HoleCards...)
		}
		if o == nil || o.HasActed != n.HasActed {
			f[FieldHasActed] = n.HasActed
		}
		if len(f) > 0 {
			out = append(out, SeatDelta{UserID: n.UserID, SeatIndex: n.Index, Fields: f})
		}
	}
	return out
}

func diffRoom(before, after *Table) RoomDelta {
	d := make(RoomDelta)
	if before.Status != after.Status {
		d[FieldStatus] = after.Status
	}
	if before.Phase != after.Phase {
		d[FieldPhase] = after.Phase
	}
	if before.Pot != after.Pot {
		d[FieldPot] = after.Pot
	}
	if before.DealerSeatIndex != after.DealerSeatIndex {
		d[FieldDealerSeatIndex] = after.DealerSeatIndex
	}
	if !equalCards(before.CommunityCards, after.CommunityCards) {
		d[FieldCommunityCards] = append([]Card{}, after.CommunityCards...)
	}
	if before.HandNumber != after.HandNumber {
		d[FieldHandNumber] = after.HandNumber
	}

	be, ae := before.Engine, after.Engine
	if !equalCards(be.RemainingDeck, ae.RemainingDeck) {
		d[FieldRemainingDeck] = append([]Card{}, ae.RemainingDeck...)
	}
	if be.CurrentTurnSeat != ae.CurrentTurnSeat {
		d[FieldCurrentTurnSeat] = ae.CurrentTurnSeat
	}
	if be.LastRaiseSize != ae.LastRaiseSize {
		d[FieldLastRaiseSize] = ae.LastRaiseSize
	}
	if be.MinBetSize != ae.MinBetSize {
		d[FieldMinBetSize] = ae.MinBetSize
	}
	if be.SmallBlindSeat != ae.SmallBlindSeat {
		d[FieldSmallBlindSeat] = ae.SmallBlindSeat
	}
	if be.BigBlindSeat != ae.BigBlindSeat {
		d[FieldBigBlindSeat] = ae.BigBlindSeat
	}
	if !reflect.DeepEqual(be.Winners, ae.Winners) {
		d[FieldWinners] = ae.Winners
	}
	return d
}

func equalCards(a, b []Card) bool {
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
