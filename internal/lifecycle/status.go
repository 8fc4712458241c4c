package lifecycle

import (
	"context"
	"errors"
	"fmt"

	"homecare/pkg/types"

	"github.com/looplab/fsm"
)

var (
	ErrIllegalTransition = errors.New("illegal status transition")
	ErrNurseRequired     = errors.New("a nurse must be assigned first")
)

const (
	EventAssign   = "assign"
	EventStart    = "start"
	EventComplete = "complete"
	EventCancel   = "cancel"
)

// targetEvents maps a requested status to the machine event reaching it.
var targetEvents = map[types.RequestStatus]string{
	types.RequestStatusAssigned:   EventAssign,
	types.RequestStatusInProgress: EventStart,
	types.RequestStatusCompleted:  EventComplete,
	types.RequestStatusCancelled:  EventCancel,
}

func newMachine(current types.RequestStatus) *fsm.FSM {
	submitted := string(types.RequestStatusSubmitted)
	assigned := string(types.RequestStatusAssigned)
	inProgress := string(types.RequestStatusInProgress)

	return fsm.NewFSM(
		string(current),
		fsm.Events{
			// Reassigning a nurse keeps the request in assigned.
			{Name: EventAssign, Src: []string{submitted, assigned}, Dst: assigned},
			{Name: EventStart, Src: []string{assigned}, Dst: inProgress},
			{Name: EventComplete, Src: []string{inProgress}, Dst: string(types.RequestStatusCompleted)},
			{Name: EventCancel, Src: []string{submitted, assigned, inProgress}, Dst: string(types.RequestStatusCancelled)},
		},
		fsm.Callbacks{},
	)
}

// Transition moves a request from current to target and returns the status
// it lands in. Moves the machine does not define return ErrIllegalTransition.
func Transition(ctx context.Context, current, target types.RequestStatus) (types.RequestStatus, error) {
	event, ok := targetEvents[target]
	if !ok {
		return current, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
	}

	machine := newMachine(current)
	err := machine.Event(ctx, event)

	var noTransition fsm.NoTransitionError
	if err == nil || errors.As(err, &noTransition) {
		return types.RequestStatus(machine.Current()), nil
	}

	var invalid fsm.InvalidEventError
	var unknown fsm.UnknownEventError
	if errors.As(err, &invalid) || errors.As(err, &unknown) {
		return current, fmt.Errorf("%w: %s -> %s", ErrIllegalTransition, current, target)
	}

	return current, fmt.Errorf("failed to transition %s -> %s: %w", current, target, err)
}

// CanTransition reports whether target is reachable from current in one move.
func CanTransition(current, target types.RequestStatus) bool {
	event, ok := targetEvents[target]
	if !ok {
		return false
	}

	return newMachine(current).Can(event)
}
