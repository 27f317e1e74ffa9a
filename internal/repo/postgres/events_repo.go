package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/admithub/internal/admission"
	"github.com/geocoder89/admithub/internal/domain/event"
	"github.com/geocoder89/admithub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

const eventColumns = `id, title, description, date, location, capacity, organizer, status,
	registered_count, waitlist_enabled, waitlist, created_at, updated_at`

type EventsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

// constructor function

func NewEventsRepo(pool *pgxpool.Pool, prom *observability.Prom) *EventsRepo {
	return &EventsRepo{
		pool: pool,
		prom: prom,
	}
}

func (r *EventsRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

func scanEvent(row pgx.Row) (event.Event, error) {
	var e event.Event

	err := row.Scan(
		&e.ID, &e.Title, &e.Description, &e.Date, &e.Location, &e.Capacity,
		&e.Organizer, &e.Status, &e.RegisteredCount, &e.WaitlistEnabled,
		&e.Waitlist, &e.CreatedAt, &e.UpdatedAt,
	)

	return e, err
}

// Create inserts a new event. A client-supplied id that already exists is a
// conflict, not an overwrite.
func (r *EventsRepo) Create(ctx context.Context, req event.CreateEventRequest) (event.Event, error) {
	e := event.NewFromCreateRequest(req)

	var tag int64

	err := r.observe("events.create", func() error {
		res, execErr := r.pool.Exec(ctx,
			`INSERT INTO events (`+eventColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)
			 ON CONFLICT (id) DO NOTHING`,
			e.ID, e.Title, e.Description, e.Date, e.Location, e.Capacity,
			e.Organizer, e.Status, e.RegisteredCount, e.WaitlistEnabled,
			e.Waitlist, e.CreatedAt, e.UpdatedAt,
		)
		tag = res.RowsAffected()
		return execErr
	})

	if err != nil {
		return event.Event{}, err
	}

	if tag == 0 {
		return event.Event{}, event.ErrAlreadyExists
	}

	return e, nil
}

func (r *EventsRepo) GetByID(ctx context.Context, id string) (found event.Event, err error) {
	err = r.observe("events.get_by_id", func() error {
		var scanErr error
		found, scanErr = scanEvent(r.pool.QueryRow(ctx,
			`SELECT `+eventColumns+` FROM events WHERE id = $1`, id))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = event.ErrNotFound
		}

		return
	}

	return
}

func (r *EventsRepo) List(ctx context.Context, filter event.ListEventsFilter) (out []event.Event, err error) {
	query := `SELECT ` + eventColumns + ` FROM events`

	var args []interface{}

	if filter.Status != nil {
		query += ` WHERE status = $1`
		args = append(args, *filter.Status)
	}

	// stable ordering
	query += ` ORDER BY created_at ASC, id ASC`

	var rows pgx.Rows

	err = r.observe("events.list", func() error {
		var qerr error
		rows, qerr = r.pool.Query(ctx, query, args...)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	out = make([]event.Event, 0)

	for rows.Next() {
		e, scanErr := scanEvent(rows)

		if scanErr != nil {
			err = scanErr
			return
		}

		out = append(out, e)
	}

	err = rows.Err()

	return
}

// Update applies only the fields present in the patch.
func (r *EventsRepo) Update(ctx context.Context, id string, req event.UpdateEventRequest) (event.Event, error) {
	sets := []string{"updated_at = now()"}
	args := []interface{}{id}
	pos := 2

	add := func(col string, val interface{}) {
		sets = append(sets, fmt.Sprintf("%s = $%d", col, pos))
		args = append(args, val)
		pos++
	}

	if req.Title != nil {
		add("title", *req.Title)
	}
	if req.Description != nil {
		add("description", *req.Description)
	}
	if req.Date != nil {
		add("date", *req.Date)
	}
	if req.Location != nil {
		add("location", *req.Location)
	}
	if req.Capacity != nil {
		add("capacity", *req.Capacity)
	}
	if req.Organizer != nil {
		add("organizer", *req.Organizer)
	}
	if req.Status != nil {
		add("status", *req.Status)
	}
	if req.WaitlistEnabled != nil {
		add("waitlist_enabled", *req.WaitlistEnabled)
	}

	query := `UPDATE events SET ` + strings.Join(sets, ", ") +
		` WHERE id = $1 RETURNING ` + eventColumns

	var e event.Event

	err := r.observe("events.update", func() error {
		var scanErr error
		e, scanErr = scanEvent(r.pool.QueryRow(ctx, query, args...))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return event.Event{}, event.ErrNotFound
		}

		return event.Event{}, err
	}

	return e, nil
}

func (r *EventsRepo) Delete(ctx context.Context, id string) error {
	var affected int64

	err := r.observe("events.delete", func() error {
		tag, execErr := r.pool.Exec(ctx, `DELETE FROM events WHERE id = $1`, id)
		affected = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return event.ErrNotFound
	}

	return nil
}

// capacity primitives. These are the serialization points of the admission
// protocol: the predicate runs inside the UPDATE, against the current stored
// value, never against anything the caller read earlier.

func (r *EventsRepo) ReserveSlot(ctx context.Context, eventID string) error {
	var affected int64

	err := r.observe("events.reserve_slot", func() error {
		tag, execErr := r.pool.Exec(ctx,
			`UPDATE events
			 SET registered_count = registered_count + 1, updated_at = now()
			 WHERE id = $1 AND registered_count < capacity`,
			eventID,
		)
		affected = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return admission.ErrRaceLost
	}

	return nil
}

func (r *EventsRepo) ReleaseSlot(ctx context.Context, eventID string) error {
	var affected int64

	err := r.observe("events.release_slot", func() error {
		tag, execErr := r.pool.Exec(ctx,
			`UPDATE events
			 SET registered_count = registered_count - 1, updated_at = now()
			 WHERE id = $1`,
			eventID,
		)
		affected = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return event.ErrNotFound
	}

	return nil
}

func (r *EventsRepo) AppendWaitlist(ctx context.Context, eventID, userID string) error {
	var affected int64

	err := r.observe("events.append_waitlist", func() error {
		tag, execErr := r.pool.Exec(ctx,
			`UPDATE events
			 SET waitlist = array_append(waitlist, $2), updated_at = now()
			 WHERE id = $1`,
			eventID, userID,
		)
		affected = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return event.ErrNotFound
	}

	return nil
}

func (r *EventsRepo) RemoveFromWaitlist(ctx context.Context, eventID, userID string) error {
	var affected int64

	err := r.observe("events.remove_from_waitlist", func() error {
		tag, execErr := r.pool.Exec(ctx,
			`UPDATE events
			 SET waitlist = array_remove(waitlist, $2), updated_at = now()
			 WHERE id = $1`,
			eventID, userID,
		)
		affected = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return err
	}

	if affected == 0 {
		return event.ErrNotFound
	}

	return nil
}
