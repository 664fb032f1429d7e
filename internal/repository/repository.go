package repository

import (
	"context"
	"errors"

	"github.com/contactbook/contactbook-go/internal/model"
)

var (
	ErrUserNotFound         = errors.New("user not found")
	ErrDuplicateEmail       = errors.New("email already exists")
	ErrDuplicateUsername    = errors.New("username already exists")
	ErrContactNotFound      = errors.New("contact not found")
	ErrRefreshTokenMismatch = errors.New("stored refresh token hash does not match")
)

// UserStore captures user persistence operations consumed by the services.
type UserStore interface {
	Create(ctx context.Context, user *model.User) error
	GetByEmail(ctx context.Context, email string) (*model.User, error)
	GetByID(ctx context.Context, id int64) (*model.User, error)
	ConfirmEmail(ctx context.Context, email string) error
	// UpdatePassword replaces the password hash and clears any stored
	// refresh token hash in the same statement, forcing re-login.
	UpdatePassword(ctx context.Context, email, passwordHash string) error
	SetRefreshTokenHash(ctx context.Context, userID int64, hash string) error
	// SwapRefreshTokenHash replaces the stored hash only when it still
	// equals old. ErrRefreshTokenMismatch signals a rotated-out token.
	SwapRefreshTokenHash(ctx context.Context, userID int64, old, new string) error
	UpdateAvatar(ctx context.Context, email, avatarURL string) error
	UpdateRole(ctx context.Context, userID int64, role model.Role) error
}

// ContactStore captures contact persistence operations. Every method is
// scoped by the owning user's id.
type ContactStore interface {
	Create(ctx context.Context, contact *model.Contact) error
	GetByID(ctx context.Context, userID, contactID int64) (*model.Contact, error)
	List(ctx context.Context, userID int64, skip, limit int) ([]model.Contact, error)
	Update(ctx context.Context, contact *model.Contact) error
	Delete(ctx context.Context, userID, contactID int64) error
	Search(ctx context.Context, userID int64, text string, skip, limit int) ([]model.Contact, error)
	UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]model.Contact, error)
}
