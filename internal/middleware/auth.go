package middleware

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/crypto"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

type contextKey string

const userKey contextKey = "user"

// Authenticator resolves the caller's identity from a bearer access token.
// Resolution is cache-first: a hit skips the credential store entirely,
// a miss falls through to the store and writes the snapshot back.
type Authenticator struct {
	issuer *crypto.Issuer
	cache  cache.UserCache
	users  repository.UserStore
}

// NewAuthenticator creates an Authenticator.
func NewAuthenticator(issuer *crypto.Issuer, userCache cache.UserCache, users repository.UserStore) *Authenticator {
	return &Authenticator{issuer: issuer, cache: userCache, users: users}
}

// Authenticate validates the Authorization header and stores the resolved
// user in the request context.
func (a *Authenticator) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		authHeader := r.Header.Get("Authorization")
		if authHeader == "" {
			writeJSONError(w, http.StatusUnauthorized, "missing authorization header")
			return
		}

		token, found := strings.CutPrefix(authHeader, "Bearer ")
		if !found || token == "" {
			writeJSONError(w, http.StatusUnauthorized, "invalid authorization format")
			return
		}

		email, err := a.issuer.Verify(token, crypto.PurposeAccess)
		if err != nil {
			writeJSONError(w, http.StatusUnauthorized, "invalid or expired token")
			return
		}

		user, err := a.resolve(r.Context(), email)
		if err != nil {
			if errors.Is(err, repository.ErrUserNotFound) {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			writeJSONError(w, http.StatusInternalServerError, "internal server error")
			return
		}

		ctx := context.WithValue(r.Context(), userKey, user)
		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects callers whose role does not satisfy the required
// role. It must run after Authenticate.
func (a *Authenticator) RequireRole(required model.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, ok := UserFromContext(r.Context())
			if !ok {
				writeJSONError(w, http.StatusUnauthorized, "unauthorized")
				return
			}
			if !user.Role.Satisfies(required) {
				writeJSONError(w, http.StatusForbidden, "insufficient permissions")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

func (a *Authenticator) resolve(ctx context.Context, email string) (*model.User, error) {
	user, err := a.cache.Get(ctx, email)
	if err == nil {
		return user, nil
	}
	if !errors.Is(err, cache.ErrMiss) {
		// A sick cache must not take authentication down with it.
		slog.Warn("session cache read failed", "email", email, "error", err)
	}

	user, err = a.users.GetByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if err := a.cache.Put(ctx, user); err != nil {
		slog.Warn("session cache write failed", "email", email, "error", err)
	}

	return user, nil
}

// UserFromContext extracts the authenticated user from the request context.
func UserFromContext(ctx context.Context) (*model.User, bool) {
	user, ok := ctx.Value(userKey).(*model.User)
	return user, ok
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
