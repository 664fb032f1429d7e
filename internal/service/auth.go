package service

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/mailer"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

var (
	ErrUsernameRequired   = errors.New("username is required")
	ErrEmailRequired      = errors.New("email is required")
	ErrPasswordRequired   = errors.New("password is required")
	ErrPasswordTooShort   = errors.New("password must be at least 6 characters")
	ErrEmailTaken         = errors.New("email already taken")
	ErrUsernameTaken      = errors.New("username already taken")
	ErrInvalidCredentials = errors.New("invalid email or password")
	ErrEmailNotConfirmed  = errors.New("email address not confirmed")
	ErrUserNotFound       = errors.New("user not found")
)

const mailTimeout = 30 * time.Second

// TokenTTLs bundles the lifetimes of the four token purposes.
type TokenTTLs struct {
	Access  time.Duration
	Refresh time.Duration
	Verify  time.Duration
	Reset   time.Duration
}

// AuthService orchestrates the authentication lifecycle: registration,
// email confirmation, login, refresh-token rotation, logout, and password
// reset. A user holds at most one active refresh session; issuing a new
// refresh token invalidates the previous one.
type AuthService struct {
	users  repository.UserStore
	cache  cache.UserCache
	issuer *crypto.Issuer
	mail   mailer.Sender
	ttls   TokenTTLs
}

// NewAuthService creates a new AuthService.
func NewAuthService(users repository.UserStore, userCache cache.UserCache, issuer *crypto.Issuer, mail mailer.Sender, ttls TokenTTLs) *AuthService {
	return &AuthService{
		users:  users,
		cache:  userCache,
		issuer: issuer,
		mail:   mail,
		ttls:   ttls,
	}
}

// Register creates a new unconfirmed account and sends a verification
// email in the background. Delivery failure is logged, never fatal.
func (s *AuthService) Register(ctx context.Context, req model.RegisterRequest) (model.UserResponse, error) {
	if req.Username == "" {
		return model.UserResponse{}, ErrUsernameRequired
	}
	if req.Email == "" {
		return model.UserResponse{}, ErrEmailRequired
	}
	if req.Password == "" {
		return model.UserResponse{}, ErrPasswordRequired
	}
	if len(req.Password) < 6 {
		return model.UserResponse{}, ErrPasswordTooShort
	}

	hash, err := crypto.HashPassword(req.Password)
	if err != nil {
		return model.UserResponse{}, err
	}

	user := &model.User{
		Username:     req.Username,
		Email:        req.Email,
		PasswordHash: hash,
		Role:         model.RoleUser,
	}

	if err := s.users.Create(ctx, user); err != nil {
		switch {
		case errors.Is(err, repository.ErrDuplicateEmail):
			return model.UserResponse{}, ErrEmailTaken
		case errors.Is(err, repository.ErrDuplicateUsername):
			return model.UserResponse{}, ErrUsernameTaken
		}
		return model.UserResponse{}, err
	}

	s.sendVerification(user.Email, user.Username)

	return model.NewUserResponse(user), nil
}

// ConfirmEmail verifies the token and marks the account confirmed.
// Confirming an already-confirmed account is a no-op success.
func (s *AuthService) ConfirmEmail(ctx context.Context, token string) error {
	email, err := s.issuer.Verify(token, crypto.PurposeVerifyEmail)
	if err != nil {
		return err
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return crypto.ErrInvalidToken
		}
		return err
	}
	if user.Confirmed {
		return nil
	}

	return s.users.ConfirmEmail(ctx, email)
}

// ResendVerification sends a fresh confirmation email. It reports success
// even when the account does not exist or is already confirmed, so the
// endpoint does not reveal which addresses are registered.
func (s *AuthService) ResendVerification(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}
	if user.Confirmed {
		return nil
	}

	s.sendVerification(user.Email, user.Username)
	return nil
}

// Login verifies credentials and issues an access+refresh pair. The hash
// of the refresh token is persisted on the user row, replacing any
// previously active session.
func (s *AuthService) Login(ctx context.Context, req model.LoginRequest) (model.TokenPairResponse, error) {
	user, err := s.users.GetByEmail(ctx, req.Email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.TokenPairResponse{}, ErrInvalidCredentials
		}
		return model.TokenPairResponse{}, err
	}

	match, err := crypto.VerifyPassword(req.Password, user.PasswordHash)
	if err != nil {
		return model.TokenPairResponse{}, err
	}
	if !match {
		return model.TokenPairResponse{}, ErrInvalidCredentials
	}
	if !user.Confirmed {
		return model.TokenPairResponse{}, ErrEmailNotConfirmed
	}

	access, refresh, err := s.issuePair(user.Email)
	if err != nil {
		return model.TokenPairResponse{}, err
	}

	if err := s.users.SetRefreshTokenHash(ctx, user.ID, crypto.HashToken(refresh)); err != nil {
		return model.TokenPairResponse{}, err
	}

	if err := s.cache.Put(ctx, user); err != nil {
		slog.Warn("caching user after login failed", "email", user.Email, "error", err)
	}

	return model.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// Refresh rotates the session: the presented refresh token must hash to
// the stored value, and the stored value is swapped to the new token's
// hash in a single compare-and-swap. A rotated-out token always fails
// here, which is what detects token reuse.
func (s *AuthService) Refresh(ctx context.Context, token string) (model.TokenPairResponse, error) {
	email, err := s.issuer.Verify(token, crypto.PurposeRefresh)
	if err != nil {
		return model.TokenPairResponse{}, ErrInvalidCredentials
	}

	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.TokenPairResponse{}, ErrInvalidCredentials
		}
		return model.TokenPairResponse{}, err
	}

	access, refresh, err := s.issuePair(user.Email)
	if err != nil {
		return model.TokenPairResponse{}, err
	}

	err = s.users.SwapRefreshTokenHash(ctx, user.ID, crypto.HashToken(token), crypto.HashToken(refresh))
	if err != nil {
		if errors.Is(err, repository.ErrRefreshTokenMismatch) {
			return model.TokenPairResponse{}, ErrInvalidCredentials
		}
		return model.TokenPairResponse{}, err
	}

	return model.TokenPairResponse{
		AccessToken:  access,
		RefreshToken: refresh,
		TokenType:    "bearer",
	}, nil
}

// Logout clears the active refresh session and evicts the cached snapshot.
func (s *AuthService) Logout(ctx context.Context, user *model.User) error {
	if err := s.users.SetRefreshTokenHash(ctx, user.ID, ""); err != nil {
		return err
	}
	return s.cache.Evict(ctx, user.Email)
}

// RequestPasswordReset emails a reset token. The response is identical
// whether or not the email belongs to an account.
func (s *AuthService) RequestPasswordReset(ctx context.Context, email string) error {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return nil
		}
		return err
	}

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		token, err := s.issuer.Issue(user.Email, crypto.PurposeResetPassword, s.ttls.Reset)
		if err != nil {
			slog.Error("issuing reset token failed", "email", user.Email, "error", err)
			return
		}
		if err := s.mail.SendPasswordReset(ctx, user.Email, user.Username, token); err != nil {
			slog.Error("sending reset email failed", "email", user.Email, "error", err)
		}
	}()

	return nil
}

// ResetPassword replaces the password hash, kills any active refresh
// session, and evicts the cache entry before returning so no stale
// snapshot outlives the mutation.
func (s *AuthService) ResetPassword(ctx context.Context, token, newPassword string) error {
	email, err := s.issuer.Verify(token, crypto.PurposeResetPassword)
	if err != nil {
		return err
	}

	if newPassword == "" {
		return ErrPasswordRequired
	}
	if len(newPassword) < 6 {
		return ErrPasswordTooShort
	}

	hash, err := crypto.HashPassword(newPassword)
	if err != nil {
		return err
	}

	if err := s.users.UpdatePassword(ctx, email, hash); err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return ErrUserNotFound
		}
		return err
	}

	return s.cache.Evict(ctx, email)
}

func (s *AuthService) issuePair(email string) (access, refresh string, err error) {
	access, err = s.issuer.Issue(email, crypto.PurposeAccess, s.ttls.Access)
	if err != nil {
		return "", "", err
	}
	refresh, err = s.issuer.Issue(email, crypto.PurposeRefresh, s.ttls.Refresh)
	if err != nil {
		return "", "", err
	}
	return access, refresh, nil
}

// sendVerification issues a verify-email token and mails it off the
// request path. Registration never fails on mail problems.
func (s *AuthService) sendVerification(email, username string) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), mailTimeout)
		defer cancel()

		token, err := s.issuer.Issue(email, crypto.PurposeVerifyEmail, s.ttls.Verify)
		if err != nil {
			slog.Error("issuing verification token failed", "email", email, "error", err)
			return
		}
		if err := s.mail.SendVerification(ctx, email, username, token); err != nil {
			slog.Error("sending verification email failed", "email", email, "error", err)
		}
	}()
}
