package admission

import (
	"context"
	"errors"

	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/domain/registration"
	"github.com/geocoder89/admithub/internal/domain/user"
)

// ErrRaceLost means the conditional increment's predicate failed server-side:
// another caller took the last slot between our read and our write.
var ErrRaceLost = errors.New("capacity race lost")

// ErrHeadMoved means a promotion transaction aborted because its
// preconditions no longer held: the waitlist head changed, or a concurrent
// admission took the freed slot first.
var ErrHeadMoved = errors.New("waitlist head changed")

// ErrRetryLimit is returned when the admission loop loses the capacity race
// more times than the configured bound.
var ErrRetryLimit = errors.New("admission retry limit exceeded")

// Store is the single logical store the engines coordinate through. All shared
// mutable state lives behind it; the engines keep no authoritative in-process
// copy of any counter.
//
// ReserveSlot must evaluate "registered_count < capacity" against the current
// persisted value at the instant of the write and return ErrRaceLost when the
// predicate fails. PromoteWaitlistHead must be all-or-nothing across the event
// record and the promoted user's registration: it pops the head, reclaims the
// freed slot (registered count goes back up by one) and flips the promoted
// registration to confirmed, verifying under the transaction that the head
// still equals headUserID and a slot is still free (ErrHeadMoved otherwise).
type Store interface {
	GetUser(ctx context.Context, userID string) (user.User, error)
	GetEvent(ctx context.Context, eventID string) (event.Event, error)

	ReserveSlot(ctx context.Context, eventID string) error
	ReleaseSlot(ctx context.Context, eventID string) error
	AppendWaitlist(ctx context.Context, eventID, userID string) error
	RemoveFromWaitlist(ctx context.Context, eventID, userID string) error
	PromoteWaitlistHead(ctx context.Context, eventID, headUserID string) error

	GetRegistration(ctx context.Context, userID, eventID string) (registration.Registration, error)
	PutRegistration(ctx context.Context, reg registration.Registration) error
	DeleteRegistration(ctx context.Context, userID, eventID string) error
}

// Outcome of a single admission attempt.
type Outcome int

const (
	OutcomeConfirmed Outcome = iota
	OutcomeWaitlisted
	OutcomeRejected
)

func (o Outcome) String() string {
	switch o {
	case OutcomeConfirmed:
		return "confirmed"
	case OutcomeWaitlisted:
		return "waitlisted"
	case OutcomeRejected:
		return "rejected"
	default:
		return "unknown"
	}
}
