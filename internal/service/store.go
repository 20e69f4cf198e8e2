package service

import (
	"context"

	"github.com/geocoder89/civicchain/internal/domain/identity"
	"github.com/geocoder89/civicchain/internal/domain/user"
)

// CredentialStore persists users. Implementations must enforce email
// uniqueness atomically and report a conflict as user.ErrDuplicateUser.
type CredentialStore interface {
	FindByEmail(ctx context.Context, email string) (user.User, error)
	Insert(ctx context.Context, u user.User) (user.User, error)
	UpdateVerified(ctx context.Context, id string) (user.User, error)
}

type PasswordHasher interface {
	Hash(plain string) (string, error)
	Verify(plain, digest string) bool
}

type TokenIssuer interface {
	Issue(userID, email string) (string, error)
}

type ProofVerifier interface {
	Verify(ctx context.Context, p identity.Proof) (bool, error)
}
