package admission

import (
	"context"
	"errors"
	"fmt"

	"github.com/geocoder89/admithub/internal/domain/event"
)

// Admit decides confirmed / waitlisted / rejected for one registration attempt
// and performs the matching capacity-store mutation.
//
// The loop replaces the recursive retry of the original flow: each iteration
// after the first re-fetches fresh event state (including waitlistEnabled)
// instead of reusing the stale snapshot, and the iteration count is bounded.
// Over-admission is prevented solely by the store's conditional increment, so
// the snapshot's counters are advisory.
func (s *Service) Admit(ctx context.Context, eventID, userID string, snapshot event.Event) (Outcome, error) {
	current := snapshot

	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if attempt > 0 {
			if s.prom != nil {
				s.prom.AdmissionRetries.Inc()
			}

			fresh, err := s.store.GetEvent(ctx, eventID)

			if err != nil {
				return OutcomeRejected, err
			}

			current = fresh
		}

		if current.RegisteredCount < current.Capacity {
			err := s.store.ReserveSlot(ctx, eventID)

			if err == nil {
				return OutcomeConfirmed, nil
			}

			if errors.Is(err, ErrRaceLost) {
				// lost to a concurrent admission, go around with fresh state
				continue
			}

			return OutcomeRejected, err
		}

		if current.WaitlistEnabled {
			err := s.store.AppendWaitlist(ctx, eventID, userID)

			if err != nil {
				return OutcomeRejected, err
			}

			return OutcomeWaitlisted, nil
		}

		return OutcomeRejected, nil
	}

	return OutcomeRejected, fmt.Errorf("%w: event %s", ErrRetryLimit, eventID)
}
