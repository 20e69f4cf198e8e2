package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/geocoder89/civicchain/internal/auth"
	"github.com/geocoder89/civicchain/internal/domain/identity"
	"github.com/geocoder89/civicchain/internal/domain/user"
	"go.opentelemetry.io/otel/attribute"
)

type TokenValidator interface {
	Validate(token string) (auth.Claims, error)
}

type VerifiedMarker interface {
	UpdateVerified(ctx context.Context, id string) (user.User, error)
}

// Verification records the outcome of an external identity proof against
// the account named by a session token. The national ID never reaches it.
type Verification struct {
	tokens TokenValidator
	store  VerifiedMarker
	proofs ProofVerifier
}

func NewVerification(tokens TokenValidator, store VerifiedMarker, proofs ProofVerifier) *Verification {
	return &Verification{
		tokens: tokens,
		store:  store,
		proofs: proofs,
	}
}

// VerifyIdentity marks the token's user verified. Repeating it for an
// already verified user succeeds without change.
func (s *Verification) VerifyIdentity(ctx context.Context, token string, p identity.Proof) (view user.PublicView, err error) {
	ctx, span := tracer.Start(ctx, "Verification.VerifyIdentity")
	defer func() { endSpan(span, err) }()

	claims, err := s.tokens.Validate(token)
	if err != nil {
		// keep the sub-kind for logs
		return user.PublicView{}, fmt.Errorf("%w: %w", identity.ErrUnauthorized, err)
	}

	span.SetAttributes(attribute.String("user.id", claims.UserID))

	if strings.TrimSpace(p.Nullifier) == "" {
		return user.PublicView{}, fmt.Errorf("%w: missing nullifier", identity.ErrInvalidProof)
	}

	ok, err := s.proofs.Verify(ctx, p)
	if err != nil {
		return user.PublicView{}, fmt.Errorf("verify proof: %w", err)
	}
	if !ok {
		return user.PublicView{}, identity.ErrInvalidProof
	}

	updated, err := s.store.UpdateVerified(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return user.PublicView{}, user.ErrNotFound
		}
		return user.PublicView{}, fmt.Errorf("mark verified: %w", err)
	}

	return updated.Public(), nil
}
