package postgres

import (
	"context"
	"errors"

	"github.com/geocoder89/admithub/internal/domain/user"
	"github.com/geocoder89/admithub/internal/observability"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

type UsersRepo struct {
	pool *pgxpool.Pool
	prom *observability.Prom
}

func NewUsersRepo(pool *pgxpool.Pool, prom *observability.Prom) *UsersRepo {
	return &UsersRepo{pool: pool, prom: prom}
}

func (r *UsersRepo) observe(op string, fn func() error) error {
	if r.prom != nil {
		return r.prom.ObserveDB(op, fn)
	}
	return fn()
}

// Create is a conditional put: an existing userId is never overwritten.
func (r *UsersRepo) Create(ctx context.Context, req user.CreateUserRequest) (user.User, error) {
	u := user.NewFromCreateRequest(req)

	var affected int64

	err := r.observe("users.create", func() error {
		tag, execErr := r.pool.Exec(ctx,
			`INSERT INTO users (id, name, created_at, updated_at)
			 VALUES ($1,$2,$3,$4)
			 ON CONFLICT (id) DO NOTHING`,
			u.ID, u.Name, u.CreatedAt, u.UpdatedAt,
		)
		affected = tag.RowsAffected()
		return execErr
	})

	if err != nil {
		return user.User{}, err
	}

	if affected == 0 {
		return user.User{}, user.ErrAlreadyExists
	}

	return u, nil
}

func (r *UsersRepo) GetByID(ctx context.Context, id string) (found user.User, err error) {
	err = r.observe("users.get_by_id", func() error {
		return r.pool.QueryRow(ctx,
			`SELECT id, name, created_at, updated_at FROM users WHERE id = $1`, id,
		).Scan(&found.ID, &found.Name, &found.CreatedAt, &found.UpdatedAt)
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			err = user.ErrNotFound
		}

		return
	}

	return
}
