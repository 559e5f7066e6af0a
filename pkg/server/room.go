package server

import (
	"context"
	"errors"
	"time"

	"github.com/vctt94/holdem/pkg/poker"
	"github.com/vctt94/holdem/pkg/validator"
)

var errStaleTimer = errors.New("turn timer is stale")

// mutation is a change to a room computed from its current table.
type mutation struct {
	event  EventType
	userID string
	action poker.ActionType
	fn     func(t *poker.Table) (*poker.Transition, error)
}

type result struct {
	tr    *poker.Transition
	table *poker.Table
	err   error
}

// command asks the actor for a snapshot (mut == nil) or a mutation.
type command struct {
	mut   *mutation
	reply chan result
}

// room is the single writer of one table.
type room struct {
	id    string
	m     *Manager
	inbox chan command
	done  <-chan struct{}

	// Owned by the run goroutine.
	table *poker.Table
	timer *time.Timer
}

func newRoom(m *Manager, t *poker.Table) *room {
	return &room{
		id:    t.ID,
		m:     m,
		inbox: make(chan command, m.mailboxSize),
		done:  m.ctx.Done(),
		table: t,
	}
}

func (r *room) run(ctx context.Context) {
	defer r.m.wg.Done()
	r.resetTimer()
	for {
		select {
		case <-ctx.Done():
			if r.timer != nil {
				r.timer.Stop()
			}
			return
		case c := <-r.inbox:
			c.reply <- r.handle(c.mut)
		}
	}
}

// do sends a command and waits for its result.
func (r *room) do(ctx context.Context, mut *mutation) result {
	c := command{mut: mut, reply: make(chan result, 1)}
	select {
	case r.inbox <- c:
	case <-ctx.Done():
		return result{err: ctx.Err()}
	case <-r.done:
		return result{err: ErrManagerClosed}
	}
	select {
	case res := <-c.reply:
		return res
	case <-ctx.Done():
		return result{err: ctx.Err()}
	case <-r.done:
		return result{err: ErrManagerClosed}
	}
}

// handle computes, persists and publishes one mutation. If the store
// rejects the write the in-memory table is left as it was.
func (r *room) handle(mut *mutation) result {
	if mut == nil {
		return result{table: r.table.Clone()}
	}
	log := r.m.log

	tr, err := mut.fn(r.table)
	if err != nil {
		log.Debugf("Room %s: %s by %s rejected: %v", r.id, mut.event, mut.userID, err)
		return result{err: err}
	}
	next := tr.Table
	next.Version = r.table.Version + 1

	ctx, cancel := context.WithTimeout(context.Background(), r.m.saveTimeout)
	err = r.m.store.SaveRoom(ctx, next, tr)
	cancel()
	if err != nil {
		log.Errorf("Room %s: failed to persist version %d, discarding %s: %v", r.id, next.Version, mut.event, err)
		return result{err: err}
	}
	prev := r.table
	r.table = next

	if conservesChips(mut.event) && next.TotalChips() != prev.TotalChips() {
		log.Criticalf("Room %s: chip total moved from %d to %d at version %d",
			r.id, prev.TotalChips(), next.TotalChips(), next.Version)
	}
	r.m.events.PublishEvent(collectEvent(mut.event, mut.userID, mut.action, tr))
	if tr.HandFinished() {
		for _, w := range next.Engine.Winners {
			log.Infof("Room %s: hand %d seat %d (%s) wins %d", r.id, next.HandNumber, w.SeatIndex, w.UserID, w.AmountWon)
		}
	}
	r.resetTimer()

	return result{
		tr:    &poker.Transition{Table: next.Clone(), Seats: tr.Seats, Room: tr.Room},
		table: next.Clone(),
	}
}

// conservesChips reports whether events of this type must keep the room's
// chip total. Seating changes bring chips in or take them out.
func conservesChips(ev EventType) bool {
	switch ev {
	case EventHandStarted, EventActionApplied, EventTurnTimeout:
		return true
	}
	return false
}

// resetTimer arms the turn timer for whoever holds the turn now.
func (r *room) resetTimer() {
	if r.timer != nil {
		r.timer.Stop()
		r.timer = nil
	}
	if r.m.turnTimeout <= 0 || r.table.Status != poker.StatusPlaying {
		return
	}
	seat := r.table.CurrentSeat()
	if seat == nil {
		return
	}
	version, userID := r.table.Version, seat.UserID
	r.timer = time.AfterFunc(r.m.turnTimeout, func() { r.expire(version, userID) })
}

// expire submits a fold for userID through the same checks as a player
// action, skipping only the rate limit. It does nothing if the room moved on
// since the timer was armed.
func (r *room) expire(version int64, userID string) {
	mut := &mutation{
		event:  EventTurnTimeout,
		userID: userID,
		action: poker.ActionFold,
		fn: func(t *poker.Table) (*poker.Transition, error) {
			if t.Version != version {
				return nil, errStaleTimer
			}
			req := validator.Request{RoomID: t.ID, Action: string(poker.ActionFold)}
			a, err := r.m.validator.Check(t, userID, req)
			if err != nil {
				return nil, err
			}
			return r.m.engine.ApplyAction(t, userID, a)
		},
	}
	c := command{mut: mut, reply: make(chan result, 1)}
	select {
	case r.inbox <- c:
		r.m.log.Debugf("Room %s: %s timed out, folding", r.id, userID)
	case <-r.done:
	}
}
