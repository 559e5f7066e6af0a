package db

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"

	"github.com/vctt94/holdem/pkg/poker"
)

var (
	// ErrRoomNotFound is returned when no room is stored under an id.
	ErrRoomNotFound = errors.New("room not found")
	// ErrVersionConflict is returned when the stored version is not the one
	// the write was computed from.
	ErrVersionConflict = errors.New("room version conflict")
)

// EncodeRoom serializes the room level state of t. Seats are stored as
// separate rows and left out.
func EncodeRoom(t *poker.Table) ([]byte, error) {
	room := *t
	room.Seats = nil
	b, err := json.Marshal(&room)
	if err != nil {
		return nil, fmt.Errorf("encode room %s: %w", t.ID, err)
	}
	return b, nil
}

// EncodeSeat serializes one seat row.
func EncodeSeat(s *poker.Seat) ([]byte, error) {
	b, err := json.Marshal(s)
	if err != nil {
		return nil, fmt.Errorf("encode seat %s: %w", s.UserID, err)
	}
	return b, nil
}

// DecodeRoom rebuilds a table from its room row and seat rows.
func DecodeRoom(room []byte, seats [][]byte) (*poker.Table, error) {
	var t poker.Table
	if err := json.Unmarshal(room, &t); err != nil {
		return nil, fmt.Errorf("decode room: %w", err)
	}
	t.Seats = make([]*poker.Seat, 0, len(seats))
	for _, raw := range seats {
		var s poker.Seat
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, fmt.Errorf("decode seat of room %s: %w", t.ID, err)
		}
		t.Seats = append(t.Seats, &s)
	}
	sort.Slice(t.Seats, func(i, j int) bool { return t.Seats[i].Index < t.Seats[j].Index })
	if t.CommunityCards == nil {
		t.CommunityCards = []poker.Card{}
	}
	return &t, nil
}

// ChangedSeats returns the seats of t a write must persist: the ones named by
// the transition deltas, or every seat when tr is nil.
func ChangedSeats(t *poker.Table, tr *poker.Transition) []*poker.Seat {
	if tr == nil {
		return t.Seats
	}
	var out []*poker.Seat
	for _, d := range tr.Seats {
		if s := t.Seat(d.UserID); s != nil {
			out = append(out, s)
		}
	}
	return out
}

// SeatUserIDs lists the users seated at t.
func SeatUserIDs(t *poker.Table) []string {
	ids := make([]string, len(t.Seats))
	for i, s := range t.Seats {
		ids[i] = s.UserID
	}
	return ids
}
