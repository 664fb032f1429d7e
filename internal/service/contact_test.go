package service

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

// fakeContactStore is an in-memory repository.ContactStore. Birthday
// matching mirrors the SQL month/day window.
type fakeContactStore struct {
	mu       sync.Mutex
	seq      int64
	contacts map[int64]*model.Contact
}

func newFakeContactStore() *fakeContactStore {
	return &fakeContactStore{contacts: make(map[int64]*model.Contact)}
}

func (f *fakeContactStore) Create(_ context.Context, contact *model.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	f.seq++
	contact.ID = f.seq
	stored := *contact
	f.contacts[contact.ID] = &stored
	return nil
}

func (f *fakeContactStore) GetByID(_ context.Context, userID, contactID int64) (*model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.contacts[contactID]
	if !ok || c.UserID != userID {
		return nil, repository.ErrContactNotFound
	}
	copy := *c
	return &copy, nil
}

func (f *fakeContactStore) List(_ context.Context, userID int64, skip, limit int) ([]model.Contact, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var result []model.Contact
	for id := int64(1); id <= f.seq; id++ {
		c, ok := f.contacts[id]
		if !ok || c.UserID != userID {
			continue
		}
		if skip > 0 {
			skip--
			continue
		}
		if len(result) == limit {
			break
		}
		result = append(result, *c)
	}
	return result, nil
}

func (f *fakeContactStore) Update(_ context.Context, contact *model.Contact) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.contacts[contact.ID]
	if !ok || c.UserID != contact.UserID {
		return nil
	}
	stored := *contact
	f.contacts[contact.ID] = &stored
	return nil
}

func (f *fakeContactStore) Delete(_ context.Context, userID, contactID int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	c, ok := f.contacts[contactID]
	if !ok || c.UserID != userID {
		return repository.ErrContactNotFound
	}
	delete(f.contacts, contactID)
	return nil
}

func (f *fakeContactStore) Search(ctx context.Context, userID int64, text string, skip, limit int) ([]model.Contact, error) {
	all, err := f.List(ctx, userID, 0, int(f.seq)+1)
	if err != nil {
		return nil, err
	}

	var result []model.Contact
	for _, c := range all {
		if strings.Contains(c.FirstName, text) || strings.Contains(c.LastName, text) ||
			strings.Contains(c.Email, text) || strings.Contains(c.Phone, text) || strings.Contains(c.Notes, text) {
			result = append(result, c)
		}
	}
	return page(result, skip, limit), nil
}

func (f *fakeContactStore) UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]model.Contact, error) {
	all, err := f.List(ctx, userID, 0, int(f.seq)+1)
	if err != nil {
		return nil, err
	}

	now := time.Now()
	future := now.AddDate(0, 0, days)

	var result []model.Contact
	for _, c := range all {
		sameMonth := c.Birthday.Month() == now.Month() && c.Birthday.Day() >= now.Day()
		futureMonth := c.Birthday.Month() == future.Month() && c.Birthday.Day() <= future.Day()
		if sameMonth || futureMonth {
			result = append(result, c)
		}
	}
	return result, nil
}

func page(contacts []model.Contact, skip, limit int) []model.Contact {
	if skip >= len(contacts) {
		return nil
	}
	contacts = contacts[skip:]
	if len(contacts) > limit {
		contacts = contacts[:limit]
	}
	return contacts
}

func validContact() model.ContactRequest {
	return model.ContactRequest{
		FirstName: "Bob",
		LastName:  "Jones",
		Email:     "bob@x.com",
		Phone:     "0123456789",
		Birthday:  "1990-05-20",
		Notes:     "met at conference",
	}
}

func TestContactValidation(t *testing.T) {
	svc := NewContactService(newFakeContactStore())
	ctx := context.Background()

	cases := []struct {
		name   string
		mutate func(*model.ContactRequest)
		want   error
	}{
		{"missing first name", func(r *model.ContactRequest) { r.FirstName = "" }, ErrFirstNameRequired},
		{"missing last name", func(r *model.ContactRequest) { r.LastName = "" }, ErrLastNameRequired},
		{"missing email", func(r *model.ContactRequest) { r.Email = "" }, ErrContactEmailEmpty},
		{"missing phone", func(r *model.ContactRequest) { r.Phone = "" }, ErrPhoneRequired},
		{"phone with letters", func(r *model.ContactRequest) { r.Phone = "01234abc" }, ErrInvalidPhone},
		{"malformed birthday", func(r *model.ContactRequest) { r.Birthday = "20-05-1990" }, ErrInvalidBirthday},
		{"future birthday", func(r *model.ContactRequest) { r.Birthday = "2999-01-01" }, ErrInvalidBirthday},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := validContact()
			tc.mutate(&req)
			_, err := svc.Create(ctx, 1, req)
			assert.ErrorIs(t, err, tc.want)
		})
	}
}

func TestContactCRUD(t *testing.T) {
	svc := NewContactService(newFakeContactStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, validContact())
	require.NoError(t, err)
	assert.Equal(t, "Bob", created.FirstName)
	assert.Equal(t, "1990-05-20", created.Birthday)

	got, err := svc.Get(ctx, 1, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.ID, got.ID)

	req := validContact()
	req.Phone = "0987654321"
	updated, err := svc.Update(ctx, 1, created.ID, req)
	require.NoError(t, err)
	assert.Equal(t, "0987654321", updated.Phone)

	require.NoError(t, svc.Delete(ctx, 1, created.ID))
	_, err = svc.Get(ctx, 1, created.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)
}

// TestContactOwnerScoping asserts contacts are invisible across users.
func TestContactOwnerScoping(t *testing.T) {
	svc := NewContactService(newFakeContactStore())
	ctx := context.Background()

	created, err := svc.Create(ctx, 1, validContact())
	require.NoError(t, err)

	_, err = svc.Get(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)

	err = svc.Delete(ctx, 2, created.ID)
	assert.ErrorIs(t, err, ErrContactNotFound)

	_, err = svc.Update(ctx, 2, created.ID, validContact())
	assert.ErrorIs(t, err, ErrContactNotFound)

	contacts, err := svc.List(ctx, 2, 0, 0)
	require.NoError(t, err)
	assert.Empty(t, contacts)
}

func TestContactSearch(t *testing.T) {
	svc := NewContactService(newFakeContactStore())
	ctx := context.Background()

	_, err := svc.Create(ctx, 1, validContact())
	require.NoError(t, err)

	other := validContact()
	other.FirstName = "Carol"
	other.Email = "carol@y.org"
	_, err = svc.Create(ctx, 1, other)
	require.NoError(t, err)

	found, err := svc.Search(ctx, 1, "carol@", 0, 0)
	require.NoError(t, err)
	require.Len(t, found, 1)
	assert.Equal(t, "Carol", found[0].FirstName)

	found, err = svc.Search(ctx, 1, "conference", 0, 0)
	require.NoError(t, err)
	assert.Len(t, found, 2)
}

func TestUpcomingBirthdays(t *testing.T) {
	svc := NewContactService(newFakeContactStore())
	ctx := context.Background()

	soon := validContact()
	soon.Birthday = time.Now().AddDate(-30, 0, 3).Format("2006-01-02")
	_, err := svc.Create(ctx, 1, soon)
	require.NoError(t, err)

	farOff := validContact()
	farOff.FirstName = "Dana"
	farOff.Birthday = time.Now().AddDate(-25, 5, 0).Format("2006-01-02")
	_, err = svc.Create(ctx, 1, farOff)
	require.NoError(t, err)

	upcoming, err := svc.UpcomingBirthdays(ctx, 1, 7)
	require.NoError(t, err)
	require.Len(t, upcoming, 1)
	assert.Equal(t, "Bob", upcoming[0].FirstName)

	_, err = svc.UpcomingBirthdays(ctx, 1, 0)
	assert.ErrorIs(t, err, ErrInvalidDays)

	_, err = svc.UpcomingBirthdays(ctx, 1, 60)
	assert.ErrorIs(t, err, ErrInvalidDays)
}
