package service

import (
	"context"
	"errors"
	"time"

	"github.com/contactbook/contactbook-go/internal/model"
	"github.com/contactbook/contactbook-go/internal/repository"
)

var (
	ErrFirstNameRequired = errors.New("first_name is required")
	ErrLastNameRequired  = errors.New("last_name is required")
	ErrContactEmailEmpty = errors.New("email is required")
	ErrPhoneRequired     = errors.New("phone is required")
	ErrInvalidPhone      = errors.New("phone must contain only digits")
	ErrInvalidBirthday   = errors.New("birthday must be a past date in YYYY-MM-DD form")
	ErrContactNotFound   = errors.New("contact not found")
	ErrInvalidDays       = errors.New("days must be between 1 and 31")
)

const (
	defaultListLimit = 100
	maxListLimit     = 500
)

// ContactService handles contact business logic. Every operation is
// scoped to the owning user's id.
type ContactService struct {
	repo repository.ContactStore
}

// NewContactService creates a new ContactService.
func NewContactService(repo repository.ContactStore) *ContactService {
	return &ContactService{repo: repo}
}

// Create adds a contact for the user.
func (s *ContactService) Create(ctx context.Context, userID int64, req model.ContactRequest) (model.ContactResponse, error) {
	contact, err := contactFromRequest(userID, req)
	if err != nil {
		return model.ContactResponse{}, err
	}

	if err := s.repo.Create(ctx, contact); err != nil {
		return model.ContactResponse{}, err
	}
	contact.CreatedAt = time.Now().UTC()
	contact.UpdatedAt = contact.CreatedAt

	return model.NewContactResponse(contact), nil
}

// Get returns a single contact owned by the user.
func (s *ContactService) Get(ctx context.Context, userID, contactID int64) (model.ContactResponse, error) {
	contact, err := s.repo.GetByID(ctx, userID, contactID)
	if err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return model.ContactResponse{}, ErrContactNotFound
		}
		return model.ContactResponse{}, err
	}
	return model.NewContactResponse(contact), nil
}

// List returns the user's contacts with pagination.
func (s *ContactService) List(ctx context.Context, userID int64, skip, limit int) ([]model.ContactResponse, error) {
	skip, limit = clampPage(skip, limit)
	contacts, err := s.repo.List(ctx, userID, skip, limit)
	if err != nil {
		return nil, err
	}
	return contactsToResponse(contacts), nil
}

// Update replaces the contact's fields.
func (s *ContactService) Update(ctx context.Context, userID, contactID int64, req model.ContactRequest) (model.ContactResponse, error) {
	contact, err := contactFromRequest(userID, req)
	if err != nil {
		return model.ContactResponse{}, err
	}
	contact.ID = contactID

	if _, err := s.repo.GetByID(ctx, userID, contactID); err != nil {
		if errors.Is(err, repository.ErrContactNotFound) {
			return model.ContactResponse{}, ErrContactNotFound
		}
		return model.ContactResponse{}, err
	}

	if err := s.repo.Update(ctx, contact); err != nil {
		return model.ContactResponse{}, err
	}
	contact.UpdatedAt = time.Now().UTC()

	return model.NewContactResponse(contact), nil
}

// Delete removes a contact owned by the user.
func (s *ContactService) Delete(ctx context.Context, userID, contactID int64) error {
	err := s.repo.Delete(ctx, userID, contactID)
	if errors.Is(err, repository.ErrContactNotFound) {
		return ErrContactNotFound
	}
	return err
}

// Search matches text against the contact's name, email, phone, and notes.
func (s *ContactService) Search(ctx context.Context, userID int64, text string, skip, limit int) ([]model.ContactResponse, error) {
	skip, limit = clampPage(skip, limit)
	contacts, err := s.repo.Search(ctx, userID, text, skip, limit)
	if err != nil {
		return nil, err
	}
	return contactsToResponse(contacts), nil
}

// UpcomingBirthdays lists contacts with a birthday in the next days,
// matching month and day only.
func (s *ContactService) UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]model.ContactResponse, error) {
	if days < 1 || days > 31 {
		return nil, ErrInvalidDays
	}
	contacts, err := s.repo.UpcomingBirthdays(ctx, userID, days)
	if err != nil {
		return nil, err
	}
	return contactsToResponse(contacts), nil
}

func contactFromRequest(userID int64, req model.ContactRequest) (*model.Contact, error) {
	switch {
	case req.FirstName == "":
		return nil, ErrFirstNameRequired
	case req.LastName == "":
		return nil, ErrLastNameRequired
	case req.Email == "":
		return nil, ErrContactEmailEmpty
	case req.Phone == "":
		return nil, ErrPhoneRequired
	}

	for _, r := range req.Phone {
		if r < '0' || r > '9' {
			return nil, ErrInvalidPhone
		}
	}

	birthday, err := time.Parse("2006-01-02", req.Birthday)
	if err != nil || birthday.After(time.Now()) {
		return nil, ErrInvalidBirthday
	}

	return &model.Contact{
		UserID:    userID,
		FirstName: req.FirstName,
		LastName:  req.LastName,
		Email:     req.Email,
		Phone:     req.Phone,
		Birthday:  birthday,
		Notes:     req.Notes,
	}, nil
}

func clampPage(skip, limit int) (int, int) {
	if skip < 0 {
		skip = 0
	}
	if limit <= 0 {
		limit = defaultListLimit
	}
	if limit > maxListLimit {
		limit = maxListLimit
	}
	return skip, limit
}

func contactsToResponse(contacts []model.Contact) []model.ContactResponse {
	result := make([]model.ContactResponse, len(contacts))
	for i := range contacts {
		result[i] = model.NewContactResponse(&contacts[i])
	}
	return result
}
