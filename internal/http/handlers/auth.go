package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/geocoder89/civicchain/internal/domain/identity"
	"github.com/geocoder89/civicchain/internal/domain/user"
	"github.com/geocoder89/civicchain/internal/http/middlewares"
	"github.com/geocoder89/civicchain/internal/security"
	"github.com/geocoder89/civicchain/internal/service"
	"github.com/gin-gonic/gin"
)

type AccountService interface {
	Register(ctx context.Context, in service.RegisterInput) (service.AuthResult, error)
	Login(ctx context.Context, email, password string) (service.AuthResult, error)
}

type IdentityVerifier interface {
	VerifyIdentity(ctx context.Context, token string, p identity.Proof) (user.PublicView, error)
}

// OutcomeRecorder counts auth results; *observability.Prom satisfies it.
type OutcomeRecorder interface {
	ObserveAuth(op, result string)
}

type nopRecorder struct{}

func (nopRecorder) ObserveAuth(string, string) {}

type AuthHandler struct {
	accounts AccountService
	verifier IdentityVerifier
	log      *slog.Logger
	outcomes OutcomeRecorder
	timeout  time.Duration
}

func NewAuthHandler(accounts AccountService, verifier IdentityVerifier, log *slog.Logger, outcomes OutcomeRecorder) *AuthHandler {
	if outcomes == nil {
		outcomes = nopRecorder{}
	}

	return &AuthHandler{
		accounts: accounts,
		verifier: verifier,
		log:      log,
		outcomes: outcomes,
		// bcrypt at cost 12 plus a store round trip
		timeout: 5 * time.Second,
	}
}

type RegisterRequest struct {
	Email    string        `json:"email" binding:"required,email,max=254"`
	Password string        `json:"password" binding:"required"`
	Profile  *user.Profile `json:"profile"`
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

type VerifyIdentityRequest struct {
	ZKProof *identity.Proof `json:"zkProof" binding:"required"`
}

func (h *AuthHandler) Register(ctx *gin.Context) {
	var req RegisterRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.accounts.Register(cctx, service.RegisterInput{
		Email:    req.Email,
		Password: req.Password,
		Profile:  req.Profile,
	})

	if err != nil {
		h.fail(ctx, "register", err)
		return
	}

	h.outcomes.ObserveAuth("register", "ok")

	ctx.JSON(http.StatusCreated, gin.H{
		"message": "User registered successfully",
		"user":    res.User,
		"token":   res.Token,
	})
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	res, err := h.accounts.Login(cctx, req.Email, req.Password)

	if err != nil {
		h.fail(ctx, "login", err)
		return
	}

	h.outcomes.ObserveAuth("login", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Login successful",
		"user":    res.User,
		"token":   res.Token,
	})
}

// VerifyIdentity runs behind middlewares.RequireBearer.
func (h *AuthHandler) VerifyIdentity(ctx *gin.Context) {
	token, ok := middlewares.BearerTokenFromContext(ctx)
	if !ok {
		RespondUnauthorized(ctx, "Invalid or expired access token")
		return
	}

	var req VerifyIdentityRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := context.WithTimeout(ctx.Request.Context(), h.timeout)
	defer cancel()

	view, err := h.verifier.VerifyIdentity(cctx, token, *req.ZKProof)

	if err != nil {
		h.fail(ctx, "verify_identity", err)
		return
	}

	h.outcomes.ObserveAuth("verify_identity", "ok")

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Identity verification successful",
		"user":    view,
	})
}

// fail maps a service error to a response. Every unauthorized sub-kind gets
// the same body; internal detail only reaches the log.
func (h *AuthHandler) fail(ctx *gin.Context, op string, err error) {
	var (
		status  int
		code    string
		message string
	)

	switch {
	case errors.Is(err, security.ErrPasswordTooLong):
		status, code, message = http.StatusBadRequest, "invalid_input", "Password must be at most 72 bytes"
	case errors.Is(err, user.ErrInvalidInput):
		status, code, message = http.StatusBadRequest, "invalid_input", "Email and password are required"
	case errors.Is(err, user.ErrDuplicateUser):
		status, code, message = http.StatusBadRequest, "user_exists", "User already exists"
	case errors.Is(err, user.ErrInvalidCredentials):
		status, code, message = http.StatusBadRequest, "invalid_credentials", "Invalid credentials"
	case errors.Is(err, identity.ErrUnauthorized):
		status, code, message = http.StatusUnauthorized, "unauthorized", "Invalid or expired access token"
	case errors.Is(err, user.ErrNotFound):
		status, code, message = http.StatusNotFound, "not_found", "User not found"
	case errors.Is(err, identity.ErrInvalidProof):
		status, code, message = http.StatusBadRequest, "invalid_proof", "Identity proof was rejected"
	default:
		h.outcomes.ObserveAuth(op, "error")
		h.log.ErrorContext(ctx.Request.Context(), op+" failed",
			"err", err,
			"request_id", requestIDFrom(ctx),
		)
		RespondInternal(ctx)
		return
	}

	h.outcomes.ObserveAuth(op, code)
	h.log.InfoContext(ctx.Request.Context(), op+" rejected",
		"reason", err.Error(),
		"request_id", requestIDFrom(ctx),
	)

	RespondError(ctx, status, code, message, nil)
}
