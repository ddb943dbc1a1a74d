// Package workflow holds the approval state machine for project requests.
// It stores nothing; it only decides whether a status change is legal.
package workflow

import (
	"fmt"
	"strings"

	"github.com/SscSPs/org_funding_app/internal/apperrors"
	"github.com/SscSPs/org_funding_app/internal/core/domain"
)

// Event is an action requested on a project request.
type Event string

const (
	EventSubmit       Event = "submit"
	EventApprove      Event = "approve"
	EventReject       Event = "reject"
	EventMarkComplete Event = "markComplete"
	EventVerify       Event = "verify"
)

// AllEvents lists every event the machine understands.
var AllEvents = []Event{EventSubmit, EventApprove, EventReject, EventMarkComplete, EventVerify}

// ParseEvent normalizes an event name as used in routes ("mark-complete", "complete", ...).
func ParseEvent(raw string) (Event, error) {
	switch strings.ToLower(strings.NewReplacer("-", "", "_", "", " ", "").Replace(raw)) {
	case "submit":
		return EventSubmit, nil
	case "approve":
		return EventApprove, nil
	case "reject":
		return EventReject, nil
	case "markcomplete", "complete":
		return EventMarkComplete, nil
	case "verify", "verifycompletion":
		return EventVerify, nil
	}
	return "", fmt.Errorf("%w: unknown event %q", apperrors.ErrValidation, raw)
}

var legal = map[domain.RequestStatus]map[Event]domain.RequestStatus{
	domain.StatusDraft:             {EventSubmit: domain.StatusPending},
	domain.StatusPending:           {EventApprove: domain.StatusActive, EventReject: domain.StatusRejected},
	domain.StatusActive:            {EventMarkComplete: domain.StatusPendingCompletion},
	domain.StatusPendingCompletion: {EventVerify: domain.StatusCompleted},
}

// targets is the status each event leads to, independent of the source status.
var targets = func() map[Event]domain.RequestStatus {
	out := make(map[Event]domain.RequestStatus)
	for _, edges := range legal {
		for ev, to := range edges {
			out[ev] = to
		}
	}
	return out
}()

// InvalidTransitionError reports an event that is not legal from the current status.
type InvalidTransitionError struct {
	From  domain.RequestStatus
	Event Event
	To    domain.RequestStatus
}

func (e *InvalidTransitionError) Error() string {
	if e.To == "" {
		return fmt.Sprintf("invalid status transition: %s from %s", e.Event, e.From)
	}
	return fmt.Sprintf("invalid status transition: %s -> %s (%s)", e.From, e.To, e.Event)
}

func (e *InvalidTransitionError) Unwrap() error {
	return apperrors.ErrInvalidTransition
}

// Transition is the outcome of applying an event.
// Applied is false when the event had already been applied earlier on the request's path.
type Transition struct {
	Event   Event
	From    domain.RequestStatus
	To      domain.RequestStatus
	Applied bool
}

// NextState validates event against the current status.
// A legal event yields Applied=true. An event that was already applied (the
// current status is its target or lies after it) yields Applied=false with
// To == current, so retried deliveries succeed without side effects.
func NextState(current domain.RequestStatus, event Event) (Transition, error) {
	if to, ok := legal[current][event]; ok {
		return Transition{Event: event, From: current, To: to, Applied: true}, nil
	}
	target, known := targets[event]
	if !known {
		return Transition{}, &InvalidTransitionError{From: current, Event: event}
	}
	if reachable(target, current) {
		return Transition{Event: event, From: current, To: current, Applied: false}, nil
	}
	return Transition{}, &InvalidTransitionError{From: current, Event: event, To: target}
}

// ValidateTransition checks that from -> to is a single legal step.
// Used at the repository write boundary.
func ValidateTransition(from, to domain.RequestStatus) error {
	if _, ok := EventFor(from, to); ok {
		return nil
	}
	return &InvalidTransitionError{From: from, To: to}
}

// EventFor returns the event that moves from -> to, if any.
func EventFor(from, to domain.RequestStatus) (Event, bool) {
	for ev, next := range legal[from] {
		if next == to {
			return ev, true
		}
	}
	return "", false
}

// reachable reports whether target can be reached from start (inclusive) by legal steps.
func reachable(start, target domain.RequestStatus) bool {
	seen := map[domain.RequestStatus]bool{start: true}
	queue := []domain.RequestStatus{start}
	for len(queue) > 0 {
		s := queue[0]
		queue = queue[1:]
		if s == target {
			return true
		}
		for _, next := range legal[s] {
			if !seen[next] {
				seen[next] = true
				queue = append(queue, next)
			}
		}
	}
	return false
}
