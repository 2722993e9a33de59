package onboarding

import (
	"slices"

	"github.com/cockroachdb/errors"
)

// ErrInvalidTransition is returned when the policy rejects a status change.
var ErrInvalidTransition = errors.New("invalid status transition")

// TransitionPolicy decides whether a task may move from one status to another.
type TransitionPolicy interface {
	Allowed(from, to Status) bool
}

// AllowAll accepts every transition, including completed back to pending.
type AllowAll struct{}

// Allowed always returns true.
func (AllowAll) Allowed(Status, Status) bool { return true }

// TransitionTable is an explicit set of allowed (from, to) pairs. Setting a
// status to itself is always allowed.
type TransitionTable map[Status][]Status

// Allowed reports whether to is listed for from.
func (t TransitionTable) Allowed(from, to Status) bool {
	return from == to || slices.Contains(t[from], to)
}

// StrictTransitions keeps completed tasks completed. Cancelled tasks may be
// reopened as pending.
var StrictTransitions = TransitionTable{
	StatusPending:    {StatusInProgress, StatusCompleted, StatusCancelled},
	StatusInProgress: {StatusPending, StatusCompleted, StatusCancelled},
	StatusCancelled:  {StatusPending},
}

// PolicyByName maps a configuration value to a policy. Unknown names fall
// back to AllowAll.
func PolicyByName(name string) TransitionPolicy {
	if name == "strict" {
		return StrictTransitions
	}
	return AllowAll{}
}

// Valid reports whether s is one of the known statuses.
func (s Status) Valid() bool {
	return slices.Contains(Statuses, s)
}
