package repository

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/contactbook/contactbook-go/internal/model"
)

// Ensure UserRepository satisfies UserStore at compile time.
var _ UserStore = (*UserRepository)(nil)

// UserRepository handles user persistence on MySQL.
type UserRepository struct {
	db *sql.DB
}

// NewUserRepository creates a new UserRepository.
func NewUserRepository(db *sql.DB) *UserRepository {
	return &UserRepository{db: db}
}

const userColumns = `id, username, email, password_hash, role, confirmed, avatar_url, refresh_token_hash, created_at, updated_at`

// Create inserts a new user and sets the generated ID on the user struct.
func (r *UserRepository) Create(ctx context.Context, user *model.User) error {
	query := `INSERT INTO users (username, email, password_hash, role, confirmed, avatar_url) VALUES (?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		user.Username, user.Email, user.PasswordHash, user.Role, user.Confirmed, user.AvatarURL,
	)
	if err != nil {
		if dup, which := duplicateKey(err); dup {
			if which == "username" {
				return ErrDuplicateUsername
			}
			return ErrDuplicateEmail
		}
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	user.ID = id
	return nil
}

// GetByEmail retrieves a user by email address.
func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE email = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, email))
}

// GetByID retrieves a user by ID.
func (r *UserRepository) GetByID(ctx context.Context, id int64) (*model.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = ?`
	return r.scanUser(r.db.QueryRowContext(ctx, query, id))
}

// ConfirmEmail marks the user's email address as verified.
func (r *UserRepository) ConfirmEmail(ctx context.Context, email string) error {
	return r.exec(ctx, `UPDATE users SET confirmed = TRUE WHERE email = ?`, email)
}

// UpdatePassword replaces the password hash and clears the refresh token
// hash in one statement, so no window exists where the old session
// survives the new password.
func (r *UserRepository) UpdatePassword(ctx context.Context, email, passwordHash string) error {
	return r.exec(ctx, `UPDATE users SET password_hash = ?, refresh_token_hash = '' WHERE email = ?`, passwordHash, email)
}

// SetRefreshTokenHash unconditionally stores the refresh token hash.
// An empty hash clears the active session.
func (r *UserRepository) SetRefreshTokenHash(ctx context.Context, userID int64, hash string) error {
	return r.exec(ctx, `UPDATE users SET refresh_token_hash = ? WHERE id = ?`, hash, userID)
}

// SwapRefreshTokenHash rotates the stored hash with compare-and-swap
// semantics: the single conditional UPDATE is the atomicity guarantee, so
// two concurrent refresh calls cannot both succeed.
func (r *UserRepository) SwapRefreshTokenHash(ctx context.Context, userID int64, old, new string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE users SET refresh_token_hash = ? WHERE id = ? AND refresh_token_hash = ?`,
		new, userID, old,
	)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrRefreshTokenMismatch
	}
	return nil
}

// UpdateAvatar stores the avatar URL for the user.
func (r *UserRepository) UpdateAvatar(ctx context.Context, email, avatarURL string) error {
	return r.exec(ctx, `UPDATE users SET avatar_url = ? WHERE email = ?`, avatarURL, email)
}

// UpdateRole changes the user's role.
func (r *UserRepository) UpdateRole(ctx context.Context, userID int64, role model.Role) error {
	return r.exec(ctx, `UPDATE users SET role = ? WHERE id = ?`, role, userID)
}

func (r *UserRepository) exec(ctx context.Context, query string, args ...any) error {
	result, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return err
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		// The row may exist with the value already set; distinguish by
		// re-checking existence only when MySQL reports no match.
		return r.ensureExists(ctx, query, args)
	}
	return nil
}

// ensureExists maps "zero rows affected" to ErrUserNotFound when the WHERE
// target is genuinely missing. MySQL reports zero affected rows for no-op
// updates too, which must not surface as an error.
func (r *UserRepository) ensureExists(ctx context.Context, query string, args []any) error {
	key := args[len(args)-1]

	var probe string
	if strings.Contains(query, "WHERE email") {
		probe = `SELECT 1 FROM users WHERE email = ?`
	} else {
		probe = `SELECT 1 FROM users WHERE id = ?`
	}

	var one int
	if err := r.db.QueryRowContext(ctx, probe, key).Scan(&one); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return ErrUserNotFound
		}
		return err
	}
	return nil
}

func (r *UserRepository) scanUser(row *sql.Row) (*model.User, error) {
	user := &model.User{}
	err := row.Scan(
		&user.ID, &user.Username, &user.Email, &user.PasswordHash, &user.Role,
		&user.Confirmed, &user.AvatarURL, &user.RefreshTokenHash, &user.CreatedAt, &user.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, err
	}

	return user, nil
}

// duplicateKey reports whether a MySQL error is a duplicate entry error
// (code 1062) and which unique key it hit.
func duplicateKey(err error) (bool, string) {
	if err == nil || !strings.Contains(err.Error(), "Duplicate entry") {
		return false, ""
	}
	if strings.Contains(err.Error(), "username") {
		return true, "username"
	}
	return true, "email"
}
