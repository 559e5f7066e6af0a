package main

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"

	"github.com/decred/slog"

	"github.com/vctt94/holdem/pkg/poker"
	"github.com/vctt94/holdem/pkg/server"
	"github.com/vctt94/holdem/pkg/utils"
	"github.com/vctt94/holdem/pkg/validator"
)

var errChipsNotConserved = errors.New("chips not conserved")

// maxRejects bounds consecutive rejected actions in one hand. Rejections are
// only expected when the turn timer folds a player under us.
const maxRejects = 10

type simConfig struct {
	RoomPrefix    string // rooms are named <prefix>-<n>
	Seats         int
	Hands         int
	SmallBlind    int64
	BigBlind      int64
	StartingStack int64
	RetryDelay    time.Duration // wait after being throttled
}

type roomStats struct {
	RoomID    string
	Hands     int
	Actions   int
	Throttled int
	Rebuys    int
}

type simulator struct {
	log slog.Logger
	mgr *server.Manager
	cfg simConfig
}

// runRoom creates a room, seats cfg.Seats players and plays cfg.Hands hands
// with random legal actions.
func (s *simulator) runRoom(ctx context.Context, idx int, rng *rand.Rand) (roomStats, error) {
	var st roomStats
	tbl, err := s.mgr.CreateRoom(ctx, poker.TableConfig{
		ID:         fmt.Sprintf("%s-%d", s.cfg.RoomPrefix, idx),
		MaxSeats:   s.cfg.Seats,
		SmallBlind: s.cfg.SmallBlind,
		BigBlind:   s.cfg.BigBlind,
	})
	if err != nil {
		return st, err
	}
	st.RoomID = tbl.ID
	for i := 0; i < s.cfg.Seats; i++ {
		if _, err := s.mgr.Join(ctx, tbl.ID, playerID(tbl.ID, i), i, s.cfg.StartingStack); err != nil {
			return st, err
		}
	}

	for st.Hands < s.cfg.Hands {
		if err := ctx.Err(); err != nil {
			return st, err
		}
		n, err := s.rebuy(ctx, tbl.ID)
		if err != nil {
			return st, err
		}
		st.Rebuys += n
		if err := s.playHand(ctx, tbl.ID, rng, &st); err != nil {
			return st, fmt.Errorf("room %s hand %d: %w", tbl.ID, st.Hands+1, err)
		}
		st.Hands++
	}
	return st, nil
}

func playerID(roomID string, seat int) string {
	return fmt.Sprintf("%s-p%d", roomID, seat)
}

// rebuy reseats busted players with a fresh stack.
func (s *simulator) rebuy(ctx context.Context, roomID string) (int, error) {
	tbl, err := s.mgr.Room(ctx, roomID)
	if err != nil {
		return 0, err
	}
	n := 0
	for _, seat := range tbl.Seats {
		if seat.Stack > 0 {
			continue
		}
		if _, err := s.mgr.Leave(ctx, roomID, seat.UserID); err != nil {
			return n, err
		}
		if _, err := s.mgr.Join(ctx, roomID, seat.UserID, seat.Index, s.cfg.StartingStack); err != nil {
			return n, err
		}
		s.log.Debugf("%s rebought at seat %d", seat.UserID, seat.Index)
		n++
	}
	return n, nil
}

func (s *simulator) playHand(ctx context.Context, roomID string, rng *rand.Rand, st *roomStats) error {
	before, err := s.mgr.Room(ctx, roomID)
	if err != nil {
		return err
	}
	want := before.TotalChips()

	tr, err := s.mgr.StartHand(ctx, roomID)
	if err != nil {
		return err
	}
	tbl := tr.Table
	if err := checkChips(tbl, want); err != nil {
		return err
	}

	rejects := 0
	for tbl.Status == poker.StatusPlaying {
		seat := tbl.CurrentSeat()
		if seat == nil {
			return fmt.Errorf("no seat holds the turn in phase %s", tbl.Phase)
		}
		tr, err := s.mgr.Submit(ctx, randomAction(rng, tbl, seat))
		var aerr *poker.ActionError
		switch {
		case errors.Is(err, poker.ErrTooManyRequests):
			st.Throttled++
			if err := sleep(ctx, s.cfg.RetryDelay); err != nil {
				return err
			}
			continue
		case errors.As(err, &aerr):
			if rejects++; rejects > maxRejects {
				return fmt.Errorf("too many rejected actions, last: %w", err)
			}
			s.log.Debugf("%s rejected: %v", seat.UserID, err)
			if tbl, err = s.mgr.Room(ctx, roomID); err != nil {
				return err
			}
			continue
		case err != nil:
			return err
		}
		rejects = 0
		st.Actions++
		tbl = tr.Table
		if err := checkChips(tbl, want); err != nil {
			return err
		}
	}

	if s.log.Level() <= slog.LevelDebug {
		for _, w := range tbl.Engine.Winners {
			hand := "uncontested"
			if w.Hand != nil {
				hand = w.Hand.HandDescription
			}
			s.log.Debugf("%s hand %d: %s won %d (%s) on board %s", roomID,
				tbl.HandNumber, w.UserID, w.AmountWon, hand, utils.FormatCards(tbl.CommunityCards))
		}
	}
	return nil
}

func checkChips(tbl *poker.Table, want int64) error {
	if got := tbl.TotalChips(); got != want {
		return fmt.Errorf("%w: room %s v%d holds %d, want %d", errChipsNotConserved,
			tbl.ID, tbl.Version, got, want)
	}
	return nil
}

// randomAction picks one of the actions legal for seat, mostly checking or
// calling so hands reach showdown regularly.
func randomAction(rng *rand.Rand, tbl *poker.Table, seat *poker.Seat) server.ActionRequest {
	req := server.ActionRequest{UserID: seat.UserID, RoomID: tbl.ID}
	legal, minRaise := validator.Options(tbl, seat.UserID)
	has := func(a poker.ActionType) bool {
		for _, l := range legal {
			if l == a {
				return true
			}
		}
		return false
	}

	r := rng.Intn(100)
	switch {
	case r < 10 && has(poker.ActionCall):
		req.Action = string(poker.ActionFold)
	case r < 25 && has(poker.ActionRaise):
		amount := minRaise + rng.Int63n((seat.Stack-minRaise)/4+1)
		req.Action = string(poker.ActionRaise)
		req.Amount = &amount
	case r < 28:
		req.Action = string(poker.ActionAllIn)
	case has(poker.ActionCheck):
		req.Action = string(poker.ActionCheck)
	default:
		req.Action = string(poker.ActionCall)
	}
	return req
}

func sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
