package repository

import (
	"context"
	"errors"
	"sort"
	"time"

	"github.com/contactdesk/contacts-api/internal/model"
	ctxutil "github.com/contactdesk/contacts-api/pkg/context"
	"github.com/contactdesk/contacts-api/pkg/logger"
	"gorm.io/gorm"
)

// birthdayWindowDays is the forward window for upcoming-birthday queries.
const birthdayWindowDays = 7

// ContactRepository scopes every query and mutation to the owning user.
// A contact that exists but belongs to someone else is indistinguishable
// from one that does not exist.
type ContactRepository struct {
	db *gorm.DB
}

func NewContactRepository(db *gorm.DB) *ContactRepository {
	return &ContactRepository{db: db}
}

func (r *ContactRepository) owned(ctx context.Context, owner *model.User) *gorm.DB {
	return r.db.WithContext(ctx).Where("user_id = ?", owner.ID)
}

// List returns the owner's contacts with pagination. Row order is whatever
// the store yields: stable but unordered.
func (r *ContactRepository) List(ctx context.Context, limit, offset int, owner *model.User) ([]model.Contact, int64, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "List")

	start := time.Now()
	var contacts []model.Contact
	var total int64

	if err := r.owned(ctx, owner).Model(&model.Contact{}).Count(&total).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to count contacts").
			Uint("owner_id", owner.ID).
			Err(err).
			Log()
		return nil, 0, err
	}

	if err := r.owned(ctx, owner).Limit(limit).Offset(offset).Find(&contacts).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to list contacts").
			Uint("owner_id", owner.ID).
			Int("limit", limit).
			Int("offset", offset).
			Err(err).
			Log()
		return nil, 0, err
	}

	logger.DebugWithContext(ctx, "Contacts listed").
		Uint("owner_id", owner.ID).
		Int64("total", total).
		Int("returned_count", len(contacts)).
		Duration(time.Since(start)).
		Log()

	return contacts, total, nil
}

// Get fetches a single contact scoped by both id and owner. Not-found and
// not-owned both yield an empty result.
func (r *ContactRepository) Get(ctx context.Context, contactID uint, owner *model.User) (*model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "Get")

	var contact model.Contact
	err := r.owned(ctx, owner).Where("id = ?", contactID).First(&contact).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		logger.ErrorWithContext(ctx, "Failed to get contact").
			Uint("owner_id", owner.ID).
			Uint("contact_id", contactID).
			Err(err).
			Log()
		return nil, err
	}

	return &contact, nil
}

// Search returns the owner's contacts where firstname OR lastname OR email
// exactly equals the corresponding term. Nil terms are bound as SQL NULL, and
// `col = NULL` never matches: an unset field cannot satisfy the union. This
// is exact matching, not a wildcard search.
func (r *ContactRepository) Search(ctx context.Context, limit, offset int, firstname, lastname, email *string, owner *model.User) ([]model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "Search")

	start := time.Now()
	var contacts []model.Contact

	err := r.owned(ctx, owner).
		Where("(firstname = ? OR lastname = ? OR email = ?)", nullable(firstname), nullable(lastname), nullable(email)).
		Limit(limit).
		Offset(offset).
		Find(&contacts).Error
	if err != nil {
		logger.ErrorWithContext(ctx, "Failed to search contacts").
			Uint("owner_id", owner.ID).
			Err(err).
			Log()
		return nil, err
	}

	logger.DebugWithContext(ctx, "Contacts searched").
		Uint("owner_id", owner.ID).
		Int("returned_count", len(contacts)).
		Duration(time.Since(start)).
		Log()

	return contacts, nil
}

// UpcomingBirthdays returns the owner's contacts whose next birthday falls
// within the coming week, nearest first. The window is a true forward date
// range [today, today+7d]: it matches across month and year boundaries, so a
// late-December query does return early-January birthdays.
func (r *ContactRepository) UpcomingBirthdays(ctx context.Context, skip, limit int, owner *model.User) ([]model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "UpcomingBirthdays")

	var contacts []model.Contact
	if err := r.owned(ctx, owner).Find(&contacts).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to fetch contacts for birthday window").
			Uint("owner_id", owner.ID).
			Err(err).
			Log()
		return nil, err
	}

	today := truncateToDay(time.Now())

	type upcoming struct {
		contact model.Contact
		days    int
	}
	var matched []upcoming
	for i := range contacts {
		birth := time.Time(contacts[i].BirthDate)
		if birth.IsZero() {
			continue
		}
		days := daysUntilBirthday(birth, today)
		if days <= birthdayWindowDays {
			matched = append(matched, upcoming{contact: contacts[i], days: days})
		}
	}

	sort.SliceStable(matched, func(i, j int) bool {
		return matched[i].days < matched[j].days
	})

	if skip >= len(matched) {
		return []model.Contact{}, nil
	}
	matched = matched[skip:]
	if limit > 0 && limit < len(matched) {
		matched = matched[:limit]
	}

	result := make([]model.Contact, 0, len(matched))
	for _, m := range matched {
		result = append(result, m.contact)
	}

	logger.DebugWithContext(ctx, "Upcoming birthdays computed").
		Uint("owner_id", owner.ID).
		Int("returned_count", len(result)).
		Log()

	return result, nil
}

// Create persists a new contact owned by owner and fills the generated id.
func (r *ContactRepository) Create(ctx context.Context, contact *model.Contact, owner *model.User) error {
	ctx = ctxutil.WithScope(ctx, "repository", "Create")

	contact.UserID = owner.ID
	if err := r.db.WithContext(ctx).Create(contact).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to create contact").
			Uint("owner_id", owner.ID).
			Err(err).
			Log()
		return err
	}

	logger.InfoWithContext(ctx, "Contact created").
		Uint("owner_id", owner.ID).
		Uint("contact_id", contact.ID).
		Log()

	return nil
}

// Update replaces every mutable field of the contact (full overwrite, no
// merge) and returns the updated row, or an empty result when the contact is
// absent or not owned.
func (r *ContactRepository) Update(ctx context.Context, contactID uint, fields *model.Contact, owner *model.User) (*model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "Update")

	contact, err := r.Get(ctx, contactID, owner)
	if err != nil || contact == nil {
		return nil, err
	}

	contact.FirstName = fields.FirstName
	contact.LastName = fields.LastName
	contact.Email = fields.Email
	contact.Mobile = fields.Mobile
	contact.BirthDate = fields.BirthDate
	contact.Note = fields.Note

	if err := r.db.WithContext(ctx).Save(contact).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to update contact").
			Uint("owner_id", owner.ID).
			Uint("contact_id", contactID).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Contact updated").
		Uint("owner_id", owner.ID).
		Uint("contact_id", contactID).
		Log()

	return contact, nil
}

// Delete removes the contact and returns its state as it was immediately
// before removal, or an empty result when absent/not owned.
func (r *ContactRepository) Delete(ctx context.Context, contactID uint, owner *model.User) (*model.Contact, error) {
	ctx = ctxutil.WithScope(ctx, "repository", "Delete")

	contact, err := r.Get(ctx, contactID, owner)
	if err != nil || contact == nil {
		return nil, err
	}

	if err := r.db.WithContext(ctx).Unscoped().Delete(contact).Error; err != nil {
		logger.ErrorWithContext(ctx, "Failed to delete contact").
			Uint("owner_id", owner.ID).
			Uint("contact_id", contactID).
			Err(err).
			Log()
		return nil, err
	}

	logger.InfoWithContext(ctx, "Contact deleted").
		Uint("owner_id", owner.ID).
		Uint("contact_id", contactID).
		Log()

	return contact, nil
}

// nullable converts a nil *string into an untyped nil so the driver binds a
// SQL NULL rather than an empty string.
func nullable(s *string) any {
	if s == nil {
		return nil
	}
	return *s
}

func truncateToDay(t time.Time) time.Time {
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.UTC)
}

// daysUntilBirthday projects the birth date's month/day onto the current
// year, rolling into the next year when it already passed.
func daysUntilBirthday(birth, today time.Time) int {
	next := time.Date(today.Year(), birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	if next.Before(today) {
		next = time.Date(today.Year()+1, birth.Month(), birth.Day(), 0, 0, 0, 0, time.UTC)
	}
	return int(next.Sub(today).Hours() / 24)
}
