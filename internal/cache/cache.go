// Package cache provides the session cache that lets authenticated
// requests skip the credential store. Entries are user snapshots keyed by
// email; they expire after a TTL and are evicted explicitly whenever the
// user record mutates.
package cache

import (
	"context"
	"errors"

	"github.com/contactbook/contactbook-go/internal/model"
)

// ErrMiss indicates the subject has no cached snapshot.
var ErrMiss = errors.New("cache miss")

// UserCache is the read-through session cache consumed by the
// authentication middleware and the auth service.
type UserCache interface {
	Get(ctx context.Context, email string) (*model.User, error)
	Put(ctx context.Context, user *model.User) error
	Evict(ctx context.Context, email string) error
}
