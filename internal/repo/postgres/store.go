package postgres

import (
	"context"

	"github.com/geocoder89/admithub/internal/admission"
	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/domain/registration"
	"github.com/geocoder89/admithub/internal/domain/user"
	"github.com/geocoder89/admithub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// Store glues the three repos into the single logical store the admission
// engines coordinate through. Everything except the promotion transaction
// delegates straight to a repo.
type Store struct {
	pool   *pgxpool.Pool
	prom   *observability.Prom
	events *EventsRepo
	users  *UsersRepo
	regs   *RegistrationsRepo
}

func NewStore(pool *pgxpool.Pool, prom *observability.Prom, events *EventsRepo, users *UsersRepo, regs *RegistrationsRepo) *Store {
	return &Store{
		pool:   pool,
		prom:   prom,
		events: events,
		users:  users,
		regs:   regs,
	}
}

var _ admission.Store = (*Store)(nil)

func (s *Store) GetUser(ctx context.Context, userID string) (user.User, error) {
	return s.users.GetByID(ctx, userID)
}

func (s *Store) GetEvent(ctx context.Context, eventID string) (event.Event, error) {
	return s.events.GetByID(ctx, eventID)
}

func (s *Store) ReserveSlot(ctx context.Context, eventID string) error {
	return s.events.ReserveSlot(ctx, eventID)
}

func (s *Store) ReleaseSlot(ctx context.Context, eventID string) error {
	return s.events.ReleaseSlot(ctx, eventID)
}

func (s *Store) AppendWaitlist(ctx context.Context, eventID, userID string) error {
	return s.events.AppendWaitlist(ctx, eventID, userID)
}

func (s *Store) RemoveFromWaitlist(ctx context.Context, eventID, userID string) error {
	return s.events.RemoveFromWaitlist(ctx, eventID, userID)
}

func (s *Store) GetRegistration(ctx context.Context, userID, eventID string) (registration.Registration, error) {
	return s.regs.Get(ctx, userID, eventID)
}

func (s *Store) PutRegistration(ctx context.Context, reg registration.Registration) error {
	return s.regs.Put(ctx, reg)
}

func (s *Store) DeleteRegistration(ctx context.Context, userID, eventID string) error {
	return s.regs.Delete(ctx, userID, eventID)
}

// PromoteWaitlistHead pops the waitlist head and flips that user's
// registration to confirmed in one transaction. Both updates carry their own
// precondition; either affecting zero rows aborts the whole thing, so two
// releases racing on the same head cannot both promote it.
func (s *Store) PromoteWaitlistHead(ctx context.Context, eventID, headUserID string) (err error) {
	observe := func(op string, fn func() error) error {
		if s.prom != nil {
			return s.prom.ObserveDB(op, fn)
		}
		return fn()
	}

	var tx pgx.Tx

	tx, err = s.pool.BeginTx(ctx, pgx.TxOptions{})

	if err != nil {
		return
	}

	defer func() {
		_ = tx.Rollback(ctx)
	}()

	var popped int64

	// the pop also claims the just-freed slot back, so the registered count
	// stays net unchanged across release-plus-promotion. The capacity guard
	// covers the window where a concurrent admission grabbed that slot first.
	err = observe("events.promote_pop_head", func() error {
		tag, execErr := tx.Exec(ctx,
			`UPDATE events
			 SET waitlist = waitlist[2:], registered_count = registered_count + 1, updated_at = now()
			 WHERE id = $1 AND waitlist[1] = $2 AND registered_count < capacity`,
			eventID, headUserID,
		)
		popped = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return
	}

	if popped == 0 {
		err = admission.ErrHeadMoved
		return
	}

	var flipped int64

	err = observe("registrations.promote_confirm", func() error {
		tag, execErr := tx.Exec(ctx,
			`UPDATE registrations
			 SET status = $3
			 WHERE user_id = $2 AND event_id = $1 AND status = $4`,
			eventID, headUserID, registration.StatusConfirmed, registration.StatusWaitlist,
		)
		flipped = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return
	}

	if flipped == 0 {
		// the head's ledger record is missing or already confirmed; either
		// way promoting it would lie, so the pop is rolled back too
		err = admission.ErrHeadMoved
		return
	}

	err = tx.Commit(ctx)

	return
}
