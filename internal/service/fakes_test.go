package service

import (
	"context"
	"io"
	"sync"

	"github.com/contactbook/contactbook-go/internal/cache"
	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

// fakeUserStore is an in-memory repository.UserStore.
type fakeUserStore struct {
	mu    sync.Mutex
	seq   int64
	users map[string]*model.User // keyed by email
}

func newFakeUserStore() *fakeUserStore {
	return &fakeUserStore{users: make(map[string]*model.User)}
}

func (f *fakeUserStore) Create(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.users[user.Email]; ok {
		return repository.ErrDuplicateEmail
	}
	for _, u := range f.users {
		if u.Username == user.Username {
			return repository.ErrDuplicateUsername
		}
	}

	f.seq++
	user.ID = f.seq
	stored := *user
	f.users[user.Email] = &stored
	return nil
}

func (f *fakeUserStore) GetByEmail(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return nil, repository.ErrUserNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUserStore) GetByID(_ context.Context, id int64) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byID(id)
	if u == nil {
		return nil, repository.ErrUserNotFound
	}
	copy := *u
	return &copy, nil
}

func (f *fakeUserStore) ConfirmEmail(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.Confirmed = true
	return nil
}

func (f *fakeUserStore) UpdatePassword(_ context.Context, email, passwordHash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.PasswordHash = passwordHash
	u.RefreshTokenHash = ""
	return nil
}

func (f *fakeUserStore) SetRefreshTokenHash(_ context.Context, userID int64, hash string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byID(userID)
	if u == nil {
		return repository.ErrUserNotFound
	}
	u.RefreshTokenHash = hash
	return nil
}

func (f *fakeUserStore) SwapRefreshTokenHash(_ context.Context, userID int64, old, new string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byID(userID)
	if u == nil {
		return repository.ErrUserNotFound
	}
	if u.RefreshTokenHash != old {
		return repository.ErrRefreshTokenMismatch
	}
	u.RefreshTokenHash = new
	return nil
}

func (f *fakeUserStore) UpdateAvatar(_ context.Context, email, avatarURL string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.users[email]
	if !ok {
		return repository.ErrUserNotFound
	}
	u.AvatarURL = avatarURL
	return nil
}

func (f *fakeUserStore) UpdateRole(_ context.Context, userID int64, role model.Role) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	u := f.byID(userID)
	if u == nil {
		return repository.ErrUserNotFound
	}
	u.Role = role
	return nil
}

func (f *fakeUserStore) byID(id int64) *model.User {
	for _, u := range f.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

// fakeCache is an in-memory cache.UserCache recording evictions.
type fakeCache struct {
	mu        sync.Mutex
	entries   map[string]*model.User
	evictions []string
}

func newFakeCache() *fakeCache {
	return &fakeCache{entries: make(map[string]*model.User)}
}

func (f *fakeCache) Get(_ context.Context, email string) (*model.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	u, ok := f.entries[email]
	if !ok {
		return nil, cache.ErrMiss
	}
	copy := *u
	return &copy, nil
}

func (f *fakeCache) Put(_ context.Context, user *model.User) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	stored := *user
	f.entries[user.Email] = &stored
	return nil
}

func (f *fakeCache) Evict(_ context.Context, email string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	delete(f.entries, email)
	f.evictions = append(f.evictions, email)
	return nil
}

func (f *fakeCache) evicted(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	for _, e := range f.evictions {
		if e == email {
			return true
		}
	}
	return false
}

func (f *fakeCache) cached(email string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()

	_, ok := f.entries[email]
	return ok
}

// fakeMailer records sent messages instead of delivering them.
type fakeMailer struct {
	mu            sync.Mutex
	verifications []string
	resets        []string
}

func newFakeMailer() *fakeMailer {
	return &fakeMailer{}
}

func (f *fakeMailer) SendVerification(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.verifications = append(f.verifications, to)
	return nil
}

func (f *fakeMailer) SendPasswordReset(_ context.Context, to, _, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.resets = append(f.resets, to)
	return nil
}

func (f *fakeMailer) verificationCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.verifications)
}

func (f *fakeMailer) resetCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.resets)
}

// fakeUploader returns a deterministic URL.
type fakeUploader struct{}

func (fakeUploader) Upload(_ context.Context, username string, _ io.Reader, _ string) (string, error) {
	return "https://cdn.example.com/avatars/" + username, nil
}
