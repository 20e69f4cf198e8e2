package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/geocoder89/civicchain/internal/domain/user"
	"github.com/geocoder89/civicchain/internal/security"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

var tracer = otel.Tracer("github.com/geocoder89/civicchain/internal/service")

type RegisterInput struct {
	Email    string
	Password string
	Profile  *user.Profile
}

type AuthResult struct {
	User  user.PublicView `json:"user"`
	Token string          `json:"token"`
}

// Accounts registers users and logs them in.
type Accounts struct {
	store  CredentialStore
	hasher PasswordHasher
	tokens TokenIssuer
	now    func() time.Time
	newID  func() string
}

func NewAccounts(store CredentialStore, hasher PasswordHasher, tokens TokenIssuer) *Accounts {
	return &Accounts{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		now:    time.Now,
		newID:  uuid.NewString,
	}
}

func (s *Accounts) Register(ctx context.Context, in RegisterInput) (res AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "Accounts.Register")
	defer func() { endSpan(span, err) }()

	if strings.TrimSpace(in.Email) == "" || strings.TrimSpace(in.Password) == "" {
		return AuthResult{}, user.ErrInvalidInput
	}

	_, err = s.store.FindByEmail(ctx, in.Email)
	switch {
	case err == nil:
		return AuthResult{}, user.ErrDuplicateUser
	case !errors.Is(err, user.ErrNotFound):
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	hash, err := s.hasher.Hash(in.Password)
	if err != nil {
		if errors.Is(err, security.ErrPasswordTooLong) {
			return AuthResult{}, fmt.Errorf("%w: %w", user.ErrInvalidInput, err)
		}
		return AuthResult{}, fmt.Errorf("hash password: %w", err)
	}

	created, err := s.store.Insert(ctx, user.User{
		ID:           s.newID(),
		Email:        in.Email,
		PasswordHash: hash,
		Profile:      in.Profile.Normalize(),
		Verified:     false,
		CreatedAt:    s.now().UTC(),
	})
	if err != nil {
		if errors.Is(err, user.ErrDuplicateUser) {
			return AuthResult{}, user.ErrDuplicateUser
		}
		return AuthResult{}, fmt.Errorf("insert user: %w", err)
	}

	span.SetAttributes(attribute.String("user.id", created.ID))

	return s.issue(created)
}

func (s *Accounts) Login(ctx context.Context, email, password string) (res AuthResult, err error) {
	ctx, span := tracer.Start(ctx, "Accounts.Login")
	defer func() { endSpan(span, err) }()

	found, err := s.store.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, user.ErrNotFound) {
			return AuthResult{}, user.ErrInvalidCredentials
		}
		return AuthResult{}, fmt.Errorf("find user: %w", err)
	}

	if !s.hasher.Verify(password, found.PasswordHash) {
		return AuthResult{}, user.ErrInvalidCredentials
	}

	span.SetAttributes(attribute.String("user.id", found.ID))

	return s.issue(found)
}

func (s *Accounts) issue(u user.User) (AuthResult, error) {
	token, err := s.tokens.Issue(u.ID, u.Email)
	if err != nil {
		return AuthResult{}, fmt.Errorf("issue token: %w", err)
	}

	return AuthResult{User: u.Public(), Token: token}, nil
}

// endSpan marks only unexpected failures as span errors; domain outcomes
// such as a duplicate user are normal results.
func endSpan(span trace.Span, err error) {
	if err != nil && IsInternal(err) {
		span.RecordError(err)
		span.SetStatus(codes.Error, "internal")
	}
	span.End()
}
