package statemachine

import (
	"sync"
)

// StateFn represents a state function following Rob Pike's pattern.
// A nil StateFn is the terminal state.
type StateFn[T any] func(*T) StateFn[T]

// StateMachine drives an entity through state functions. Each state function
// mutates the entity and returns the next state.
type StateMachine[T any] struct {
	entity  *T
	stateFn StateFn[T]
	mutex   sync.RWMutex
}

// NewStateMachine creates a new state machine for the given entity.
func NewStateMachine[T any](entity *T, initialStateFn StateFn[T]) *StateMachine[T] {
	return &StateMachine[T]{
		entity:  entity,
		stateFn: initialStateFn,
	}
}

// Dispatch executes the current state function once and transitions to the
// state it returns. It reports whether a state function was executed.
func (sm *StateMachine[T]) Dispatch() bool {
	sm.mutex.Lock()
	defer sm.mutex.Unlock()

	if sm.stateFn == nil {
		return false
	}
	sm.stateFn = sm.stateFn(sm.entity)
	return true
}

// Run dispatches until the terminal state is reached and returns the number
// of state functions executed.
func (sm *StateMachine[T]) Run() int {
	n := 0
	for sm.Dispatch() {
		n++
	}
	return n
}
