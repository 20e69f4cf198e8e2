package proof

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/civicchain/internal/domain/identity"
	"github.com/stretchr/testify/require"
)

func TestProtectedOpensAfterThreshold(t *testing.T) {
	calls := 0
	failing := Func(func(ctx context.Context, p identity.Proof) (bool, error) {
		calls++
		return false, errors.New("down")
	})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewProtected(failing, ProtectedConfig{FailureThreshold: 2, Cooldown: time.Minute})
	p.now = func() time.Time { return now }

	for i := 0; i < 2; i++ {
		_, err := p.Verify(context.Background(), identity.Proof{Nullifier: "1"})
		require.Error(t, err)
	}
	require.Equal(t, "open", p.State())

	_, err := p.Verify(context.Background(), identity.Proof{Nullifier: "1"})
	require.ErrorIs(t, err, ErrCircuitOpen)
	require.Equal(t, 2, calls)
}

func TestProtectedHalfOpenRecovers(t *testing.T) {
	fail := true
	inner := Func(func(ctx context.Context, p identity.Proof) (bool, error) {
		if fail {
			return false, errors.New("down")
		}
		return true, nil
	})

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	p := NewProtected(inner, ProtectedConfig{FailureThreshold: 1, Cooldown: time.Minute})
	p.now = func() time.Time { return now }

	_, err := p.Verify(context.Background(), identity.Proof{Nullifier: "1"})
	require.Error(t, err)
	require.Equal(t, "open", p.State())

	now = now.Add(2 * time.Minute)
	fail = false

	ok, err := p.Verify(context.Background(), identity.Proof{Nullifier: "1"})
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, "closed", p.State())
}

func TestProtectedRejectionDoesNotTrip(t *testing.T) {
	inner := Func(func(ctx context.Context, p identity.Proof) (bool, error) {
		return false, nil
	})

	p := NewProtected(inner, ProtectedConfig{FailureThreshold: 1})

	for i := 0; i < 3; i++ {
		ok, err := p.Verify(context.Background(), identity.Proof{Nullifier: "1"})
		require.NoError(t, err)
		require.False(t, ok)
	}
	require.Equal(t, "closed", p.State())
}
