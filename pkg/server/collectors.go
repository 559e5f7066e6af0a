package server

import (
	"time"

	"github.com/google/uuid"

	"github.com/vctt94/holdem/pkg/poker"
)

// collectEvent builds the public event for a committed transition.
func collectEvent(typ EventType, userID string, action poker.ActionType, tr *poker.Transition) *RoomEvent {
	t := tr.Table
	ev := &RoomEvent{
		ID:         uuid.New(),
		Type:       typ,
		RoomID:     t.ID,
		UserID:     userID,
		Action:     action,
		Version:    t.Version,
		HandNumber: t.HandNumber,
		Status:     t.Status,
		Phase:      t.Phase,
		Seats:      redactSeats(tr.Seats),
		Room:       redactRoom(tr.Room),
		Timestamp:  time.Now(),
	}
	if tr.HandFinished() {
		ev.HandFinished = true
		ev.Winners = append([]poker.Winner(nil), t.Engine.Winners...)
		ev.ChipChanges = chipChanges(t)
	}
	return ev
}

// redactSeats drops hole cards. Showdown hands are published through the
// winners instead.
func redactSeats(deltas []poker.SeatDelta) []poker.SeatDelta {
	out := make([]poker.SeatDelta, 0, len(deltas))
	for _, d := range deltas {
		f := make(map[string]any, len(d.Fields))
		for k, v := range d.Fields {
			if k == poker.FieldHoleCards {
				continue
			}
			f[k] = v
		}
		if len(f) > 0 {
			out = append(out, poker.SeatDelta{UserID: d.UserID, SeatIndex: d.SeatIndex, Fields: f})
		}
	}
	return out
}

func redactRoom(d poker.RoomDelta) poker.RoomDelta {
	out := make(poker.RoomDelta, len(d))
	for k, v := range d {
		if k == poker.FieldRemainingDeck {
			continue
		}
		out[k] = v
	}
	return out
}

// chipChanges returns each participant's net result for the finished hand:
// chips won minus chips committed.
func chipChanges(t *poker.Table) map[string]int64 {
	out := make(map[string]int64)
	for _, s := range t.Seats {
		if s.TotalBet > 0 {
			out[s.UserID] -= s.TotalBet
		}
	}
	for _, w := range t.Engine.Winners {
		out[w.UserID] += w.AmountWon
	}
	return out
}
