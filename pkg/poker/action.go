package poker

import (
	"fmt"
	"strings"
)

// ActionType is the wire name of a player action.
type ActionType string

const (
	ActionFold  ActionType = "fold"
	ActionCheck ActionType = "check"
	ActionCall  ActionType = "call"
	ActionRaise ActionType = "raise"
	ActionAllIn ActionType = "allin"
)

// Action is one of Fold, Check, Call, Raise or AllIn. The set is closed: only
// types in this package implement it.
type Action interface {
	Type() ActionType
	isAction()
}

type (
	Fold  struct{}
	Check struct{}
	Call  struct{}
	// Raise puts Amount chips in with this action. The seat's bet becomes
	// its current round bet plus Amount.
	Raise struct{ Amount int64 }
	AllIn struct{}
)

func (Fold) Type() ActionType  { return ActionFold }
func (Check) Type() ActionType { return ActionCheck }
func (Call) Type() ActionType  { return ActionCall }
func (Raise) Type() ActionType { return ActionRaise }
func (AllIn) Type() ActionType { return ActionAllIn }

func (Fold) isAction()  {}
func (Check) isAction() {}
func (Call) isAction()  {}
func (Raise) isAction() {}
func (AllIn) isAction() {}

func (r Raise) String() string { return fmt.Sprintf("raise %d", r.Amount) }

// LegalActions lists the action types userID may take on t. It is empty
// unless userID holds the turn.
func LegalActions(t *Table, userID string) []ActionType {
	s, err := checkTurn(t, userID)
	if err != nil {
		return nil
	}
	toCall := t.ToCall(s)
	out := []ActionType{ActionFold}
	if toCall == 0 {
		out = append(out, ActionCheck)
	} else {
		out = append(out, ActionCall)
	}
	if s.Stack >= toCall+t.MinRaise() {
		out = append(out, ActionRaise)
	}
	return append(out, ActionAllIn)
}

// MinRaiseAmount is the smallest Raise amount s may put in, unless it goes
// all-in for less.
func MinRaiseAmount(t *Table, s *Seat) int64 {
	return t.ToCall(s) + t.MinRaise()
}

// ParseAction converts a request's action name and optional amount into an
// Action. The amount is only consulted for raises.
func ParseAction(kind string, amount *int64) (Action, error) {
	switch ActionType(strings.ToLower(strings.TrimSpace(kind))) {
	case ActionFold:
		return Fold{}, nil
	case ActionCheck:
		return Check{}, nil
	case ActionCall:
		return Call{}, nil
	case ActionAllIn, "all_in", "all-in":
		return AllIn{}, nil
	case ActionRaise:
		if amount == nil {
			return nil, actionErrorf(CodeInvalidAmount, "raise amount is required")
		}
		if *amount < 0 {
			return nil, actionErrorf(CodeInvalidAmount, "raise amount must not be negative")
		}
		return Raise{Amount: *amount}, nil
	}
	return nil, ErrInvalidAction
}
