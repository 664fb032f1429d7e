package service

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactbook/contactbook-go/internal/model"
)

func newUserFixture(t *testing.T) (*UserService, *fakeUserStore, *fakeCache, *model.User) {
	t.Helper()

	users := newFakeUserStore()
	userCache := newFakeCache()
	svc := NewUserService(users, userCache, fakeUploader{})

	admin := &model.User{
		Username:     "root",
		Email:        "root@x.com",
		PasswordHash: "irrelevant",
		Role:         model.RoleAdmin,
		Confirmed:    true,
	}
	require.NoError(t, users.Create(context.Background(), admin))
	require.NoError(t, userCache.Put(context.Background(), admin))

	return svc, users, userCache, admin
}

func TestUpdateAvatar(t *testing.T) {
	svc, users, userCache, admin := newUserFixture(t)
	ctx := context.Background()

	resp, err := svc.UpdateAvatar(ctx, admin, strings.NewReader("png-bytes"), "image/png")
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example.com/avatars/root", resp.AvatarURL)

	stored, err := users.GetByEmail(ctx, admin.Email)
	require.NoError(t, err)
	assert.Equal(t, resp.AvatarURL, stored.AvatarURL)

	// The stale snapshot is gone before UpdateAvatar returns.
	assert.True(t, userCache.evicted(admin.Email))
}

// TestUpdateRoleEvictsCache asserts the coherence property: after a role
// change, no resolver can see the pre-change snapshot.
func TestUpdateRoleEvictsCache(t *testing.T) {
	svc, users, userCache, _ := newUserFixture(t)
	ctx := context.Background()

	target := &model.User{Username: "alice", Email: "alice@x.com", Role: model.RoleUser, Confirmed: true}
	require.NoError(t, users.Create(ctx, target))
	require.NoError(t, userCache.Put(ctx, target))

	resp, err := svc.UpdateRole(ctx, target.ID, model.RoleAdmin)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, resp.Role)

	assert.True(t, userCache.evicted(target.Email))
	assert.False(t, userCache.cached(target.Email))

	stored, err := users.GetByID(ctx, target.ID)
	require.NoError(t, err)
	assert.Equal(t, model.RoleAdmin, stored.Role)
}

func TestUpdateRoleValidation(t *testing.T) {
	svc, _, _, _ := newUserFixture(t)
	ctx := context.Background()

	_, err := svc.UpdateRole(ctx, 1, model.Role("superuser"))
	assert.ErrorIs(t, err, ErrInvalidRole)

	_, err = svc.UpdateRole(ctx, 9999, model.RoleAdmin)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
