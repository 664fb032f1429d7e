package repository

import (
	"context"
	"database/sql"
	"errors"

	"github.com/contactbook/contactbook-go/internal/model"
)

var _ ContactStore = (*ContactRepository)(nil)

// ContactRepository handles contact persistence on MySQL.
type ContactRepository struct {
	db *sql.DB
}

// NewContactRepository creates a new ContactRepository.
func NewContactRepository(db *sql.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

const contactColumns = `id, user_id, first_name, last_name, email, phone, birthday, notes, created_at, updated_at`

// Create inserts a new contact and sets the generated ID on the struct.
func (r *ContactRepository) Create(ctx context.Context, contact *model.Contact) error {
	query := `INSERT INTO contacts (user_id, first_name, last_name, email, phone, birthday, notes)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	result, err := r.db.ExecContext(ctx, query,
		contact.UserID, contact.FirstName, contact.LastName, contact.Email,
		contact.Phone, contact.Birthday.Format("2006-01-02"), contact.Notes,
	)
	if err != nil {
		return err
	}

	id, err := result.LastInsertId()
	if err != nil {
		return err
	}

	contact.ID = id
	return nil
}

// GetByID retrieves a contact by ID, scoped to the owning user.
func (r *ContactRepository) GetByID(ctx context.Context, userID, contactID int64) (*model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE id = ? AND user_id = ?`
	return scanContact(r.db.QueryRowContext(ctx, query, contactID, userID))
}

// List returns the user's contacts with pagination.
func (r *ContactRepository) List(ctx context.Context, userID int64, skip, limit int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts WHERE user_id = ? ORDER BY id LIMIT ? OFFSET ?`
	return r.queryContacts(ctx, query, userID, limit, skip)
}

// Update persists new field values for an existing contact. MySQL reports
// zero affected rows for updates that change nothing, so existence is the
// caller's concern, not inferred from the row count here.
func (r *ContactRepository) Update(ctx context.Context, contact *model.Contact) error {
	query := `UPDATE contacts SET first_name = ?, last_name = ?, email = ?, phone = ?, birthday = ?, notes = ?
		WHERE id = ? AND user_id = ?`

	_, err := r.db.ExecContext(ctx, query,
		contact.FirstName, contact.LastName, contact.Email, contact.Phone,
		contact.Birthday.Format("2006-01-02"), contact.Notes,
		contact.ID, contact.UserID,
	)
	return err
}

// Delete removes a contact owned by the user.
func (r *ContactRepository) Delete(ctx context.Context, userID, contactID int64) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM contacts WHERE id = ? AND user_id = ?`, contactID, userID)
	if err != nil {
		return err
	}
	return requireRow(result)
}

// Search matches the text against name, email, phone, and notes fields.
func (r *ContactRepository) Search(ctx context.Context, userID int64, text string, skip, limit int) ([]model.Contact, error) {
	pattern := "%" + text + "%"
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = ? AND (
			first_name LIKE ? OR last_name LIKE ? OR email LIKE ? OR phone LIKE ? OR notes LIKE ?
		)
		ORDER BY id LIMIT ? OFFSET ?`

	return r.queryContacts(ctx, query, userID, pattern, pattern, pattern, pattern, pattern, limit, skip)
}

// UpcomingBirthdays returns contacts whose birthday falls within the next
// days, matching on month and day only so the birth year is ignored. The
// two-sided month/day window also covers a window crossing the year end.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, userID int64, days int) ([]model.Contact, error) {
	query := `SELECT ` + contactColumns + ` FROM contacts
		WHERE user_id = ? AND (
			(MONTH(birthday) = MONTH(CURDATE()) AND DAY(birthday) >= DAY(CURDATE()))
			OR (MONTH(birthday) = MONTH(DATE_ADD(CURDATE(), INTERVAL ? DAY))
				AND DAY(birthday) <= DAY(DATE_ADD(CURDATE(), INTERVAL ? DAY)))
		)
		ORDER BY MONTH(birthday), DAY(birthday)`

	return r.queryContacts(ctx, query, userID, days, days)
}

func (r *ContactRepository) queryContacts(ctx context.Context, query string, args ...any) ([]model.Contact, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var contacts []model.Contact
	for rows.Next() {
		var c model.Contact
		if err := rows.Scan(
			&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email,
			&c.Phone, &c.Birthday, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
		); err != nil {
			return nil, err
		}
		contacts = append(contacts, c)
	}

	return contacts, rows.Err()
}

func scanContact(row *sql.Row) (*model.Contact, error) {
	c := &model.Contact{}
	err := row.Scan(
		&c.ID, &c.UserID, &c.FirstName, &c.LastName, &c.Email,
		&c.Phone, &c.Birthday, &c.Notes, &c.CreatedAt, &c.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrContactNotFound
		}
		return nil, err
	}

	return c, nil
}

func requireRow(result sql.Result) error {
	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrContactNotFound
	}
	return nil
}
