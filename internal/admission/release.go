package admission

import (
	"context"
	"errors"

	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/domain/registration"
)

// Release removes a registration and, when it held a confirmed slot, frees the
// slot and promotes the waitlist head exactly once.
//
// Promotion failures are logged, never surfaced: the caller's own
// unregistration already succeeded by that point. The event is then one slot
// under-subscribed with a stale head until a later release goes through.
func (s *Service) Release(ctx context.Context, userID, eventID string) error {
	reg, err := s.store.GetRegistration(ctx, userID, eventID)

	if err != nil {
		return err
	}

	ev, err := s.store.GetEvent(ctx, eventID)

	if err != nil {
		if errors.Is(err, event.ErrNotFound) {
			// orphaned registration: the event is gone, so there is no
			// capacity to return. Drop the record anyway.
			if delErr := s.store.DeleteRegistration(ctx, userID, eventID); delErr != nil {
				s.log.ErrorContext(ctx, "orphaned registration cleanup failed",
					"event_id", eventID, "user_id", userID, "err", delErr)
			}
		}

		return err
	}

	err = s.store.DeleteRegistration(ctx, userID, eventID)

	if err != nil {
		return err
	}

	switch reg.Status {
	case registration.StatusConfirmed:
		err = s.store.ReleaseSlot(ctx, eventID)

		if err != nil {
			return err
		}

		if len(ev.Waitlist) > 0 {
			s.promote(ctx, eventID, ev.Waitlist[0])
		}

	case registration.StatusWaitlist:
		err = s.store.RemoveFromWaitlist(ctx, eventID, userID)

		if err != nil {
			// same best-effort contract as promotion: the primary delete
			// already succeeded
			s.log.ErrorContext(ctx, "waitlist removal failed",
				"event_id", eventID, "user_id", userID, "err", err)
		}
	}

	return nil
}

// promote runs the all-or-nothing head promotion: pop the waitlist head and
// flip that user's registration to confirmed in one store transaction. The
// store re-checks the head under the transaction, so two releases racing on
// the same head cannot both win.
func (s *Service) promote(ctx context.Context, eventID, headUserID string) {
	err := s.store.PromoteWaitlistHead(ctx, eventID, headUserID)

	if err == nil {
		if s.prom != nil {
			s.prom.Promotions.Inc()
		}

		return
	}

	if s.prom != nil {
		s.prom.PromotionFailures.Inc()
	}

	s.log.ErrorContext(ctx, "waitlist promotion failed",
		"event_id", eventID,
		"promoted_user_id", headUserID,
		"err", err,
	)
}
