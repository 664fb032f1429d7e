package model

import "time"

// User represents a registered account. PasswordHash and RefreshTokenHash
// never leave the process: they are excluded from JSON so that cached
// snapshots and API responses cannot carry them.
type User struct {
	ID               int64     `json:"id"`
	Username         string    `json:"username"`
	Email            string    `json:"email"`
	PasswordHash     string    `json:"-"`
	Role             Role      `json:"role"`
	Confirmed        bool      `json:"confirmed"`
	AvatarURL        string    `json:"avatar_url"`
	RefreshTokenHash string    `json:"-"`
	CreatedAt        time.Time `json:"created_at"`
	UpdatedAt        time.Time `json:"-"`
}

// RegisterRequest represents a user registration request.
type RegisterRequest struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginRequest represents a user login request.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RefreshRequest carries the refresh token presented for rotation.
type RefreshRequest struct {
	RefreshToken string `json:"refresh_token"`
}

// TokenPairResponse is returned on login and refresh.
type TokenPairResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
	TokenType    string `json:"token_type"`
}

// PasswordResetRequest starts the forgot-password flow.
type PasswordResetRequest struct {
	Email string `json:"email"`
}

// PasswordResetConfirm carries the new password for a reset token.
type PasswordResetConfirm struct {
	Password string `json:"password"`
}

// ResendVerificationRequest asks for a fresh confirmation email.
type ResendVerificationRequest struct {
	Email string `json:"email"`
}

// RoleUpdateRequest changes a user's role.
type RoleUpdateRequest struct {
	Role Role `json:"role"`
}

// UserResponse represents user data safe for API responses.
type UserResponse struct {
	ID        int64     `json:"id"`
	Username  string    `json:"username"`
	Email     string    `json:"email"`
	Role      Role      `json:"role"`
	Confirmed bool      `json:"confirmed"`
	AvatarURL string    `json:"avatar_url,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// NewUserResponse converts a User into its API representation.
func NewUserResponse(u *User) UserResponse {
	return UserResponse{
		ID:        u.ID,
		Username:  u.Username,
		Email:     u.Email,
		Role:      u.Role,
		Confirmed: u.Confirmed,
		AvatarURL: u.AvatarURL,
		CreatedAt: u.CreatedAt,
	}
}
