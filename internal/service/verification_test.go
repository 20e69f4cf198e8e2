package service_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/geocoder89/civicchain/internal/auth"
	"github.com/geocoder89/civicchain/internal/domain/identity"
	"github.com/geocoder89/civicchain/internal/domain/user"
	"github.com/geocoder89/civicchain/internal/service"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type fakeProofs struct {
	calls int
	ok    bool
	err   error
}

func (f *fakeProofs) Verify(ctx context.Context, p identity.Proof) (bool, error) {
	f.calls++
	return f.ok, f.err
}

func validProof() identity.Proof {
	return identity.Proof{
		Nullifier:  "1234567890",
		AgeAbove18: "1",
		Gender:     "F",
		State:      "Maharashtra",
		Pincode:    "411001",
		SignalHash: "0xabc",
		Timestamp:  "1700000000",
	}
}

func TestVerifyIdentityMarksUserVerified(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	proofs := &fakeProofs{ok: true}
	verification := service.NewVerification(fx.tokens, fx.store, proofs)

	reg, err := fx.accounts.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	view, err := verification.VerifyIdentity(ctx, reg.Token, validProof())
	require.NoError(t, err)
	require.True(t, view.Verified)
	require.Equal(t, reg.User.ID, view.ID)
	require.Equal(t, 1, proofs.calls)

	stored, err := fx.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.True(t, stored.Verified)
}

func TestVerifyIdentityIsIdempotent(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	verification := service.NewVerification(fx.tokens, fx.store, &fakeProofs{ok: true})

	reg, err := fx.accounts.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		view, err := verification.VerifyIdentity(ctx, reg.Token, validProof())
		require.NoError(t, err)
		require.True(t, view.Verified)
	}
}

func TestVerifyIdentityUnauthorized(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	proofs := &fakeProofs{ok: true}
	verification := service.NewVerification(fx.tokens, fx.store, proofs)

	reg, err := fx.accounts.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	expired, err := fx.tokens.WithClock(func() time.Time { return time.Now().Add(-48 * time.Hour) }).Issue(reg.User.ID, "a@x.com")
	require.NoError(t, err)

	other, err := auth.NewManager("other-secret", time.Hour)
	require.NoError(t, err)
	forged, err := other.Issue(reg.User.ID, "a@x.com")
	require.NoError(t, err)

	cases := []struct {
		name  string
		token string
		kind  error
	}{
		{"malformed", "garbage", auth.ErrMalformedToken},
		{"bad_signature", forged, auth.ErrBadSignature},
		{"expired", expired, auth.ErrExpired},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := verification.VerifyIdentity(ctx, tc.token, validProof())
			require.ErrorIs(t, err, identity.ErrUnauthorized)
			require.ErrorIs(t, err, tc.kind)
			require.False(t, service.IsInternal(err))
		})
	}

	require.Zero(t, proofs.calls)
}

func TestVerifyIdentityRejectedProof(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	verification := service.NewVerification(fx.tokens, fx.store, &fakeProofs{ok: false})

	reg, err := fx.accounts.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	_, err = verification.VerifyIdentity(ctx, reg.Token, validProof())
	require.ErrorIs(t, err, identity.ErrInvalidProof)

	stored, err := fx.store.FindByEmail(ctx, "a@x.com")
	require.NoError(t, err)
	require.False(t, stored.Verified)
}

func TestVerifyIdentityMissingNullifier(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	proofs := &fakeProofs{ok: true}
	verification := service.NewVerification(fx.tokens, fx.store, proofs)

	reg, err := fx.accounts.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	p := validProof()
	p.Nullifier = ""

	_, err = verification.VerifyIdentity(ctx, reg.Token, p)
	require.ErrorIs(t, err, identity.ErrInvalidProof)
	require.Zero(t, proofs.calls)
}

func TestVerifyIdentityVerifierFailureIsInternal(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	verification := service.NewVerification(fx.tokens, fx.store, &fakeProofs{err: errors.New("verifier unreachable")})

	reg, err := fx.accounts.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "pw123"})
	require.NoError(t, err)

	_, err = verification.VerifyIdentity(ctx, reg.Token, validProof())
	require.Error(t, err)
	require.True(t, service.IsInternal(err))
}

func TestVerifyIdentityUnknownUser(t *testing.T) {
	fx := newFixture(t)
	verification := service.NewVerification(fx.tokens, fx.store, &fakeProofs{ok: true})

	token, err := fx.tokens.Issue(uuid.NewString(), "ghost@x.com")
	require.NoError(t, err)

	_, err = verification.VerifyIdentity(context.Background(), token, validProof())
	require.ErrorIs(t, err, user.ErrNotFound)
}

func TestEndToEndScenario(t *testing.T) {
	ctx := context.Background()
	fx := newFixture(t)
	verification := service.NewVerification(fx.tokens, fx.store, &fakeProofs{ok: true})

	reg, err := fx.accounts.Register(ctx, service.RegisterInput{Email: "a@x.com", Password: "pw123", Profile: &user.Profile{}})
	require.NoError(t, err)
	require.False(t, reg.User.Verified)

	login, err := fx.accounts.Login(ctx, "a@x.com", "pw123")
	require.NoError(t, err)
	require.Equal(t, reg.User.ID, login.User.ID)

	view, err := verification.VerifyIdentity(ctx, login.Token, validProof())
	require.NoError(t, err)
	require.True(t, view.Verified)

	_, err = fx.accounts.Login(ctx, "a@x.com", "wrongpw")
	require.ErrorIs(t, err, user.ErrInvalidCredentials)
}
