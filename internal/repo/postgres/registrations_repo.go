package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/geocoder89/admithub/internal/domain/registration"
	"github.com/geocoder89/admithub/internal/observability"
	"github.com/geocoder89/admithub/internal/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

const registrationColumns = `user_id, event_id, status, registered_at, event_title, event_date`

type RegistrationsRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewRegistrationsRepo(pool *pgxpool.Pool, prom *observability.Prom) *RegistrationsRepo {
	return &RegistrationsRepo{
		pool: pool,
		prom: prom,
	}
}

func (repo *RegistrationsRepo) observe(op string, fn func() error) error {
	if repo.prom != nil {
		return repo.prom.ObserveDB(op, fn)
	}
	return fn()
}

// IsUniqueViolation reports whether err is a postgres duplicate-key error.
func IsUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == "23505"
}

func scanRegistration(row pgx.Row) (registration.Registration, error) {
	var r registration.Registration

	err := row.Scan(&r.UserID, &r.EventID, &r.Status, &r.RegisteredAt, &r.EventTitle, &r.EventDate)

	return r, err
}

func (repo *RegistrationsRepo) Get(ctx context.Context, userID, eventID string) (found registration.Registration, err error) {
	err = repo.observe("registrations.get", func() error {
		var scanErr error
		found, scanErr = scanRegistration(repo.pool.QueryRow(ctx,
			`SELECT `+registrationColumns+` FROM registrations WHERE user_id = $1 AND event_id = $2`,
			userID, eventID,
		))
		return scanErr
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = registration.ErrNotFound
		}

		return
	}

	return
}

func (repo *RegistrationsRepo) Put(ctx context.Context, reg registration.Registration) (err error) {
	err = repo.observe("registrations.put", func() error {
		_, execErr := repo.pool.Exec(ctx,
			`INSERT INTO registrations (`+registrationColumns+`)
			 VALUES ($1,$2,$3,$4,$5,$6)`,
			reg.UserID, reg.EventID, reg.Status, reg.RegisteredAt, reg.EventTitle, reg.EventDate,
		)
		return execErr
	})

	if err != nil && IsUniqueViolation(err) {
		// validation runs first, so this only fires on a true double-submit race
		err = registration.ErrAlreadyRegistered
	}

	return
}

func (repo *RegistrationsRepo) Delete(ctx context.Context, userID, eventID string) (err error) {
	var affected int64

	err = repo.observe("registrations.delete", func() error {
		tag, execErr := repo.pool.Exec(ctx,
			`DELETE FROM registrations WHERE user_id = $1 AND event_id = $2`,
			userID, eventID,
		)
		affected = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return
	}

	if affected == 0 {
		err = registration.ErrNotFound
	}

	return
}

func (repo *RegistrationsRepo) ListByUser(ctx context.Context, userID string) (regs []registration.Registration, err error) {
	var rows pgx.Rows

	err = repo.observe("registrations.list_by_user", func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx,
			`SELECT `+registrationColumns+`
			 FROM registrations
			 WHERE user_id = $1
			 ORDER BY registered_at ASC, event_id ASC`,
			userID,
		)
		return qerr
	})

	if err != nil {
		return
	}

	defer rows.Close()

	regs = make([]registration.Registration, 0)

	for rows.Next() {
		r, scanErr := scanRegistration(rows)

		if scanErr != nil {
			err = scanErr
			return
		}

		regs = append(regs, r)
	}

	err = rows.Err()

	return
}

func (repo *RegistrationsRepo) CountForEvent(ctx context.Context, eventID string) (int, error) {
	var total int
	err := repo.observe("registrations.count_for_event", func() error {
		return repo.pool.QueryRow(ctx,
			`SELECT COUNT(*) FROM registrations WHERE event_id = $1`, eventID,
		).Scan(&total)
	})
	return total, err
}

// ListByEventCursor pages through an event's registrations with a
// (registered_at, user_id) keyset, backed by the secondary index on event_id.
func (repo *RegistrationsRepo) ListByEventCursor(
	ctx context.Context,
	eventID string,
	limit int,
	afterRegisteredAt time.Time,
	afterUserID string,
) (items []registration.Registration, nextCursor *string, hasMore bool, err error) {
	op := "registrations.list_by_event_cursor"

	q := `
		SELECT ` + registrationColumns + `
		FROM registrations
		WHERE event_id = $1
		  AND (registered_at, user_id) > ($2, $3)
		ORDER BY registered_at ASC, user_id ASC
		LIMIT $4
	`
	limitPlusOne := limit + 1

	var rows pgx.Rows
	err = repo.observe(op, func() error {
		var qerr error
		rows, qerr = repo.pool.Query(ctx, q, eventID, afterRegisteredAt, afterUserID, limitPlusOne)
		return qerr
	})
	if err != nil {
		return nil, nil, false, err
	}
	defer rows.Close()

	out := make([]registration.Registration, 0, limit)

	for rows.Next() {
		r, scanErr := scanRegistration(rows)
		if scanErr != nil {
			return nil, nil, false, scanErr
		}
		out = append(out, r)
	}
	if rows.Err() != nil {
		return nil, nil, false, rows.Err()
	}

	if len(out) > limit {
		hasMore = true
		out = out[:limit]
		last := out[len(out)-1]
		cur, encErr := utils.EncodeRegistrationCursor(last.RegisteredAt, last.UserID)
		if encErr != nil {
			return nil, nil, false, encErr
		}
		nextCursor = &cur
	}

	return out, nextCursor, hasMore, nil
}
