package timeclock

import (
	"strings"

	errors "github.com/DeependraDeveloper/AMS-BACKEND/internal"
)

// State of a user's attendance for one calendar day.
type State int

const (
	StateNone State = iota
	StateInProgress
	StateComplete
)

func (s State) String() string {
	switch s {
	case StateNone:
		return "none"
	case StateInProgress:
		return "in_progress"
	case StateComplete:
		return "complete"
	}
	return "unknown"
}

type Action int

const (
	ActionClockIn Action = iota + 1
	ActionClockOut
)

// StateOf derives the day state from the stored record fields. exists is false
// when there is no record for the day yet.
func StateOf(exists bool, outTime string) State {
	if !exists {
		return StateNone
	}
	if strings.TrimSpace(outTime) == "" {
		return StateInProgress
	}
	return StateComplete
}

// Next returns the action a clock request performs from state s.
func Next(s State) (Action, error) {
	switch s {
	case StateNone:
		return ActionClockIn, nil
	case StateInProgress:
		return ActionClockOut, nil
	default:
		return 0, errors.ErrAlreadyClockedOut
	}
}
