// Package validator gates player actions before they reach the table engine.
package validator

import (
	"github.com/decred/slog"

	"github.com/vctt94/holdem/pkg/poker"
)

// Limiter throttles callers by key.
type Limiter interface {
	Allow(key string) bool
}

// Request is an action as received from a player.
type Request struct {
	RoomID string `json:"room_id"`
	Action string `json:"action"`
	Amount *int64 `json:"amount,omitempty"`
}

// Validator rejects illegal or throttled actions. It never modifies the
// table it inspects.
type Validator struct {
	log     slog.Logger
	limiter Limiter
}

// New creates a validator. A nil limiter disables throttling.
func New(limiter Limiter, log slog.Logger) *Validator {
	if log == nil {
		log = slog.Disabled
	}
	return &Validator{log: log, limiter: limiter}
}

// Validate applies the per-user rate limit and then the game checks. The rate
// limit runs first and does not look at the table.
func (v *Validator) Validate(t *poker.Table, userID string, req Request) (poker.Action, error) {
	if err := v.Throttle(userID); err != nil {
		v.log.Debugf("throttled %s on room %s", userID, req.RoomID)
		return nil, err
	}
	return v.Check(t, userID, req)
}

// Throttle charges one action to userID's rate budget.
func (v *Validator) Throttle(userID string) error {
	if v.limiter != nil && !v.limiter.Allow(userID) {
		return poker.ErrTooManyRequests
	}
	return nil
}

// Check is the package level Check with rejections logged.
func (v *Validator) Check(t *poker.Table, userID string, req Request) (poker.Action, error) {
	a, err := Check(t, userID, req)
	if err != nil {
		v.log.Tracef("rejected %s %s on room %s: %v", userID, req.Action, req.RoomID, err)
		return nil, err
	}
	return a, nil
}

// Check runs the game checks only, in order: table state, seat, turn, action
// type and finally the bet context.
func Check(t *poker.Table, userID string, req Request) (poker.Action, error) {
	seat, err := guardTurn(t, userID)
	if err != nil {
		return nil, err
	}
	a, err := poker.ParseAction(req.Action, req.Amount)
	if err != nil {
		return nil, err
	}
	if err := validateBet(t, seat, a); err != nil {
		return nil, err
	}
	return a, nil
}

func guardTurn(t *poker.Table, userID string) (*poker.Seat, error) {
	if t == nil || t.Status != poker.StatusPlaying {
		return nil, poker.ErrGameNotInProgress
	}
	seat := t.Seat(userID)
	if seat == nil {
		return nil, poker.ErrPlayerNotFound
	}
	if !seat.IsActive {
		return nil, poker.ErrNotActivePlayer
	}
	if t.Engine.CurrentTurnSeat != seat.Index {
		return nil, poker.ErrNotYourTurn
	}
	return seat, nil
}

func validateBet(t *poker.Table, seat *poker.Seat, a poker.Action) error {
	toCall := t.ToCall(seat)

	switch act := a.(type) {
	case poker.Fold, poker.AllIn:
		return nil

	case poker.Check:
		if toCall > 0 {
			return poker.ErrMustCallOrFold
		}

	case poker.Call:
		if toCall == 0 {
			return poker.ErrNothingToCall
		}

	case poker.Raise:
		if act.Amount <= 0 {
			return poker.ErrInvalidAmount
		}
		if act.Amount > seat.Stack {
			return poker.ErrInsufficientChips
		}
		if act.Amount == seat.Stack {
			return nil
		}
		if act.Amount < poker.MinRaiseAmount(t, seat) {
			return poker.ErrRaiseTooSmall
		}
	}
	return nil
}

// Options lists the actions userID may currently submit and the smallest raise
// amount, for clients that render choices.
func Options(t *poker.Table, userID string) ([]poker.ActionType, int64) {
	legal := poker.LegalActions(t, userID)
	if len(legal) == 0 {
		return nil, 0
	}
	return legal, poker.MinRaiseAmount(t, t.Seat(userID))
}
