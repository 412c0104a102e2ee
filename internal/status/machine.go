// Package status defines the lifecycle of a committed order. Transitions
// are always triggered by an explicit staff action; the console never
// infers one. The backend order system remains the system of record, so
// the local table is a first line of defense, not the final word.
package status

import (
	"errors"
	"fmt"

	"hotel-backoffice/internal/models"
)

// ErrInvalidTransition means the requested status change is not allowed
// from the order's current state.
var ErrInvalidTransition = errors.New("invalid status transition")

// transitions maps each state to the states reachable from it.
// delivered and cancelled are terminal.
var transitions = map[models.OrderStatus][]models.OrderStatus{
	models.StatusPending:   {models.StatusPickedUp, models.StatusCancelled},
	models.StatusPickedUp:  {models.StatusReady, models.StatusCancelled},
	models.StatusReady:     {models.StatusDelivered, models.StatusCancelled},
	models.StatusDelivered: nil,
	models.StatusCancelled: nil,
}

// CanTransition reports whether from -> to is a legal staff action.
func CanTransition(from, to models.OrderStatus) bool {
	for _, next := range transitions[from] {
		if next == to {
			return true
		}
	}
	return false
}

// IsTerminal reports whether no further transitions exist from the state.
func IsTerminal(state models.OrderStatus) bool {
	next, known := transitions[state]
	return known && len(next) == 0
}

// Validate returns ErrInvalidTransition when from -> to is not legal.
func Validate(from, to models.OrderStatus) error {
	if !CanTransition(from, to) {
		return fmt.Errorf("%w: %s -> %s", ErrInvalidTransition, from, to)
	}
	return nil
}
