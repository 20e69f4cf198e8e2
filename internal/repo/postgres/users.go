package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/geocoder89/civicchain/internal/domain/user"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"
)

// DBObserver times a logical database operation.
type DBObserver interface {
	ObserveDB(op string, fn func() error) error
}

type passthrough struct{}

func (passthrough) ObserveDB(_ string, fn func() error) error { return fn() }

type UsersRepo struct {
	pool *pgxpool.Pool
	obs  DBObserver
}

func NewUsersRepo(pool *pgxpool.Pool, obs DBObserver) *UsersRepo {
	if obs == nil {
		obs = passthrough{}
	}
	return &UsersRepo{pool: pool, obs: obs}
}

const userColumns = `id, email, password_hash, profile, verified, created_at`

func (r *UsersRepo) FindByEmail(ctx context.Context, email string) (user.User, error) {
	var u user.User

	err := r.obs.ObserveDB("users.find_by_email", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`SELECT `+userColumns+`
			 FROM users
			 WHERE email = $1`,
			email,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

// Insert relies on the users_email_key constraint, so the loser of two
// concurrent registrations gets ErrDuplicateUser.
func (r *UsersRepo) Insert(ctx context.Context, in user.User) (user.User, error) {
	profile, err := encodeProfile(in.Profile)
	if err != nil {
		return user.User{}, err
	}

	var u user.User

	err = r.obs.ObserveDB("users.insert", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`INSERT INTO users (id, email, password_hash, profile, verified, created_at)
			 VALUES ($1, $2, $3, $4, $5, $6)
			 RETURNING `+userColumns,
			in.ID, in.Email, in.PasswordHash, profile, in.Verified, in.CreatedAt,
		))
		return err
	})

	if err != nil {
		var pgErr *pgconn.PgError
		if errors.As(err, &pgErr) && pgErr.Code == "23505" {
			return user.User{}, user.ErrDuplicateUser
		}
		return user.User{}, err
	}

	return u, nil
}

// UpdateVerified only ever sets the flag; a second call is a no-op.
func (r *UsersRepo) UpdateVerified(ctx context.Context, id string) (user.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return user.User{}, user.ErrNotFound
	}

	var u user.User

	err := r.obs.ObserveDB("users.update_verified", func() error {
		var err error
		u, err = scanUser(r.pool.QueryRow(ctx,
			`UPDATE users
			 SET verified = TRUE
			 WHERE id = $1
			 RETURNING `+userColumns,
			id,
		))
		return err
	})

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return user.User{}, user.ErrNotFound
		}
		return user.User{}, err
	}

	return u, nil
}

func (r *UsersRepo) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func scanUser(row pgx.Row) (user.User, error) {
	var (
		u       user.User
		profile []byte
	)

	err := row.Scan(&u.ID, &u.Email, &u.PasswordHash, &profile, &u.Verified, &u.CreatedAt)
	if err != nil {
		return user.User{}, err
	}

	if len(profile) > 0 {
		var p user.Profile
		if err := json.Unmarshal(profile, &p); err != nil {
			return user.User{}, fmt.Errorf("decode profile: %w", err)
		}
		u.Profile = &p
	}

	u.CreatedAt = u.CreatedAt.UTC()

	return u, nil
}

func encodeProfile(p *user.Profile) ([]byte, error) {
	if p == nil {
		return nil, nil
	}

	b, err := json.Marshal(p)
	if err != nil {
		return nil, fmt.Errorf("encode profile: %w", err)
	}

	return b, nil
}
