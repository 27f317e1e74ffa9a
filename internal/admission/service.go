package admission

import (
	"context"
	"errors"
	"log/slog"

	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/domain/registration"
	"github.com/geocoder89/admithub/internal/observability"
)

const defaultMaxRetries = 5

// Service orchestrates the registration admission and release protocols
// against a Store. It is stateless; any number of Services (or replicas of the
// same one) may run concurrently against the same store.
type Service struct {
	store      Store
	log        *slog.Logger
	prom       *observability.Prom
	maxRetries int
}

func NewService(store Store, log *slog.Logger, prom *observability.Prom, maxRetries int) *Service {
	if maxRetries <= 0 {
		maxRetries = defaultMaxRetries
	}

	return &Service{
		store:      store,
		log:        log,
		prom:       prom,
		maxRetries: maxRetries,
	}
}

// Register runs the full admission flow: validate, admit, write the ledger
// record, compensating the capacity change if the ledger write fails.
func (s *Service) Register(ctx context.Context, userID, eventID string) (registration.Registration, error) {
	snapshot, err := s.Validate(ctx, userID, eventID)

	if err != nil {
		return registration.Registration{}, err
	}

	outcome, err := s.Admit(ctx, eventID, userID, snapshot)

	if err != nil {
		return registration.Registration{}, err
	}

	if s.prom != nil {
		s.prom.AdmissionResults.WithLabelValues(outcome.String()).Inc()
	}

	if outcome == OutcomeRejected {
		return registration.Registration{}, registration.ErrEventFull
	}

	status := registration.StatusConfirmed

	if outcome == OutcomeWaitlisted {
		status = registration.StatusWaitlist
	}

	// eventTitle/eventDate are snapshotted here and never refreshed later.
	reg := registration.New(userID, eventID, status, snapshot.Title, snapshot.Date)

	err = s.store.PutRegistration(ctx, reg)

	if err != nil {
		s.compensate(ctx, eventID, userID, outcome)

		return registration.Registration{}, err
	}

	return reg, nil
}

// compensate undoes the capacity-store side effect after a failed ledger
// write. Best effort: a failure here is logged and swallowed, accepting a
// bounded drift over escalation.
func (s *Service) compensate(ctx context.Context, eventID, userID string, outcome Outcome) {
	var err error

	switch outcome {
	case OutcomeConfirmed:
		err = s.store.ReleaseSlot(ctx, eventID)
	case OutcomeWaitlisted:
		err = s.store.RemoveFromWaitlist(ctx, eventID, userID)
	default:
		return
	}

	if err != nil {
		if s.prom != nil {
			s.prom.CompensationFailures.Inc()
		}

		s.log.ErrorContext(ctx, "admission rollback failed",
			"event_id", eventID,
			"user_id", userID,
			"outcome", outcome.String(),
			"err", err,
		)
	}
}

// Validate checks admission preconditions in order, short-circuiting on the
// first failure. Read-only. The returned event is a point-in-time snapshot:
// good enough for an initial branch decision, never for correctness.
func (s *Service) Validate(ctx context.Context, userID, eventID string) (event.Event, error) {
	_, err := s.store.GetUser(ctx, userID)

	if err != nil {
		return event.Event{}, err
	}

	snapshot, err := s.store.GetEvent(ctx, eventID)

	if err != nil {
		return event.Event{}, err
	}

	_, err = s.store.GetRegistration(ctx, userID, eventID)

	if err == nil {
		return event.Event{}, registration.ErrAlreadyRegistered
	}

	if !errors.Is(err, registration.ErrNotFound) {
		return event.Event{}, err
	}

	for _, id := range snapshot.Waitlist {
		if id == userID {
			return event.Event{}, registration.ErrAlreadyWaitlisted
		}
	}

	return snapshot, nil
}
