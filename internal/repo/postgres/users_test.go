package postgres_test

import (
	"context"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/geocoder89/civicchain/internal/db"
	"github.com/geocoder89/civicchain/internal/domain/user"
	"github.com/geocoder89/civicchain/internal/repo/postgres"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/stretchr/testify/require"
)

func setupRepo(t *testing.T) *postgres.UsersRepo {
	t.Helper()

	dsn := os.Getenv("TEST_DB_DSN")
	if dsn == "" {
		t.Skip("TEST_DB_DSN not set")
	}

	ctx := context.Background()

	pool, err := pgxpool.New(ctx, dsn)
	require.NoError(t, err)
	t.Cleanup(pool.Close)

	require.NoError(t, db.Migrate(ctx, pool))

	_, err = pool.Exec(ctx, `TRUNCATE users`)
	require.NoError(t, err)

	return postgres.NewUsersRepo(pool, nil)
}

func newUser(email string) user.User {
	return user.User{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: "$2a$04$hash",
		Profile: &user.Profile{
			FullName: "Asha Rao",
			Address:  &user.Address{City: "Pune", Country: "India"},
		},
		CreatedAt: time.Now().UTC().Truncate(time.Microsecond),
	}
}

func TestUsersRepoInsertFind(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	in := newUser("a@x.com")
	created, err := r.Insert(ctx, in)
	require.NoError(t, err)
	require.Equal(t, in.ID, created.ID)
	require.False(t, created.Verified)

	found, err := r.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Equal(t, in.ID, found.ID)
	require.Equal(t, in.PasswordHash, found.PasswordHash)
	require.Equal(t, in.Profile, found.Profile)
	require.True(t, in.CreatedAt.Equal(found.CreatedAt))

	_, err = r.FindByEmail(ctx, "missing@x.com")
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestUsersRepoNilProfile(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	in := newUser("a@x.com")
	in.Profile = nil

	_, err := r.Insert(ctx, in)
	require.NoError(t, err)

	found, err := r.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.Nil(t, found.Profile)
}

func TestUsersRepoConcurrentDuplicate(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	const n = 8
	errs := make([]error, n)

	var wg sync.WaitGroup
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, errs[i] = r.Insert(ctx, newUser("race@x.com"))
		}(i)
	}
	wg.Wait()

	var ok int
	for _, err := range errs {
		if err == nil {
			ok++
			continue
		}
		require.ErrorIs(t, err, user.ErrDuplicateUser)
	}
	require.Equal(t, 1, ok)
}

func TestUsersRepoUpdateVerified(t *testing.T) {
	r := setupRepo(t)
	ctx := context.Background()

	created, err := r.Insert(ctx, newUser("a@x.com"))
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		updated, err := r.UpdateVerified(ctx, created.ID)
		require.NoError(t, err)
		require.True(t, updated.Verified)
	}

	_, err = r.UpdateVerified(ctx, uuid.NewString())
	require.ErrorIs(t, err, user.ErrNotFound)

	_, err = r.UpdateVerified(ctx, "not-a-uuid")
	require.ErrorIs(t, err, user.ErrNotFound)
}
