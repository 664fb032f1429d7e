package service

import (
	"context"
	"errors"
	"io"

	"github.com/contactbook/contactbook-go/internal/avatar"
	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

var ErrInvalidRole = errors.New("unknown role")

// UserService handles user profile operations. Every mutation evicts the
// session cache entry before returning, bounding staleness to the moment
// of the change rather than the cache TTL.
type UserService struct {
	users    repository.UserStore
	cache    cache.UserCache
	uploader avatar.Uploader
}

// NewUserService creates a new UserService.
func NewUserService(users repository.UserStore, userCache cache.UserCache, uploader avatar.Uploader) *UserService {
	return &UserService{users: users, cache: userCache, uploader: uploader}
}

// UpdateAvatar uploads the image and stores its public URL on the user.
func (s *UserService) UpdateAvatar(ctx context.Context, user *model.User, file io.Reader, contentType string) (model.UserResponse, error) {
	url, err := s.uploader.Upload(ctx, user.Username, file, contentType)
	if err != nil {
		return model.UserResponse{}, err
	}

	if err := s.users.UpdateAvatar(ctx, user.Email, url); err != nil {
		return model.UserResponse{}, err
	}
	if err := s.cache.Evict(ctx, user.Email); err != nil {
		return model.UserResponse{}, err
	}

	updated := *user
	updated.AvatarURL = url
	return model.NewUserResponse(&updated), nil
}

// UpdateRole changes the target user's role and evicts their cached
// snapshot so the next authenticated request sees the new role.
func (s *UserService) UpdateRole(ctx context.Context, targetID int64, role model.Role) (model.UserResponse, error) {
	if !role.Valid() {
		return model.UserResponse{}, ErrInvalidRole
	}

	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		if errors.Is(err, repository.ErrUserNotFound) {
			return model.UserResponse{}, ErrUserNotFound
		}
		return model.UserResponse{}, err
	}

	if err := s.users.UpdateRole(ctx, targetID, role); err != nil {
		return model.UserResponse{}, err
	}
	if err := s.cache.Evict(ctx, target.Email); err != nil {
		return model.UserResponse{}, err
	}

	target.Role = role
	return model.NewUserResponse(target), nil
}
