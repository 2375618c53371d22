package repository

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"

	"github.com/contactdesk/contacts-api/internal/model"
)

func date(year int, month time.Month, day int) time.Time {
	return time.Date(year, month, day, 0, 0, 0, 0, time.UTC)
}

func TestContactListScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	createTestContact(t, db, alice, "Anna", date(1990, time.March, 1))
	createTestContact(t, db, alice, "Aaron", date(1985, time.June, 12))
	createTestContact(t, db, bob, "Bella", date(1992, time.July, 4))

	contacts, total, err := repo.List(ctx, 10, 0, alice)
	require.NoError(t, err)
	assert.EqualValues(t, 2, total)
	assert.Len(t, contacts, 2)
	for _, contact := range contacts {
		assert.Equal(t, alice.ID, contact.UserID)
	}

	contacts, total, err = repo.List(ctx, 10, 0, bob)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)
	require.Len(t, contacts, 1)
	assert.Equal(t, "Bella", contacts[0].FirstName)
}

func TestContactListPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	for _, name := range []string{"One", "Two", "Three", "Four", "Five"} {
		createTestContact(t, db, owner, name, date(1990, time.January, 1))
	}

	page, total, err := repo.List(ctx, 2, 2, owner)
	require.NoError(t, err)
	assert.EqualValues(t, 5, total)
	assert.Len(t, page, 2)
}

func TestContactGetNotOwnedLooksAbsent(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	secret := createTestContact(t, db, alice, "Secret", date(1990, time.March, 1))

	got, err := repo.Get(ctx, secret.ID, alice)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, "Secret", got.FirstName)

	// Bob asking for Alice's contact gets the same answer as for a
	// contact that never existed.
	got, err = repo.Get(ctx, secret.ID, bob)
	require.NoError(t, err)
	assert.Nil(t, got)

	got, err = repo.Get(ctx, 99999, bob)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestContactSearchExactMatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	createTestContact(t, db, owner, "Jo", date(1990, time.March, 1))
	createTestContact(t, db, owner, "Joanna", date(1991, time.April, 2))

	jo := "Jo"
	results, err := repo.Search(ctx, 10, 0, &jo, nil, nil, owner)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.Equal(t, "Jo", results[0].FirstName)

	// Exact equality, not prefix: "Joan" matches neither row.
	joan := "Joan"
	results, err = repo.Search(ctx, 10, 0, &joan, nil, nil, owner)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestContactSearchUnsetFieldsNeverMatch(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	createTestContact(t, db, owner, "Jo", date(1990, time.March, 1))

	// No terms at all: the union of NULL comparisons matches nothing.
	results, err := repo.Search(ctx, 10, 0, nil, nil, nil, owner)
	require.NoError(t, err)
	assert.Empty(t, results)

	// One matching term is enough even when the others are unset.
	lastname := "Tester"
	results, err = repo.Search(ctx, 10, 0, nil, &lastname, nil, owner)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestContactSearchScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	createTestContact(t, db, alice, "Shared", date(1990, time.March, 1))

	name := "Shared"
	results, err := repo.Search(ctx, 10, 0, &name, nil, nil, bob)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestContactUpdateReplacesEveryField(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	original := createTestContact(t, db, owner, "Old", date(1990, time.March, 1))
	original.Note = "keep me?"
	require.NoError(t, db.Save(original).Error)

	updated, err := repo.Update(ctx, original.ID, &model.Contact{
		FirstName: "New",
		LastName:  "Name",
		Email:     "new@example.com",
		Mobile:    "+200000000",
		BirthDate: datatypes.Date(date(1991, time.May, 5)),
		// Note deliberately left empty: full overwrite must clear it.
	}, owner)
	require.NoError(t, err)
	require.NotNil(t, updated)

	var stored model.Contact
	require.NoError(t, db.First(&stored, original.ID).Error)
	assert.Equal(t, "New", stored.FirstName)
	assert.Equal(t, "Name", stored.LastName)
	assert.Equal(t, "new@example.com", stored.Email)
	assert.Equal(t, "+200000000", stored.Mobile)
	assert.Empty(t, stored.Note)
	assert.Equal(t, owner.ID, stored.UserID)
}

func TestContactUpdateNotOwned(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")
	contact := createTestContact(t, db, alice, "Anna", date(1990, time.March, 1))

	updated, err := repo.Update(ctx, contact.ID, &model.Contact{FirstName: "Hacked"}, bob)
	require.NoError(t, err)
	assert.Nil(t, updated)

	var stored model.Contact
	require.NoError(t, db.First(&stored, contact.ID).Error)
	assert.Equal(t, "Anna", stored.FirstName)
}

func TestContactDeleteReturnsPriorState(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	contact := createTestContact(t, db, owner, "Gone", date(1990, time.March, 1))

	deleted, err := repo.Delete(ctx, contact.ID, owner)
	require.NoError(t, err)
	require.NotNil(t, deleted)
	assert.Equal(t, "Gone", deleted.FirstName)
	assert.Equal(t, contact.ID, deleted.ID)

	// The row is really gone, not soft-deleted.
	var count int64
	require.NoError(t, db.Unscoped().Model(&model.Contact{}).Where("id = ?", contact.ID).Count(&count).Error)
	assert.EqualValues(t, 0, count)

	// Deleting again yields the empty result.
	deleted, err = repo.Delete(ctx, contact.ID, owner)
	require.NoError(t, err)
	assert.Nil(t, deleted)
}

func TestUpcomingBirthdaysWindow(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	today := truncateToDay(time.Now())

	// Birth year 2000 is a leap year, so a window day landing on Feb 29
	// still projects onto a real date.
	birthdayIn := func(days int) time.Time {
		d := today.AddDate(0, 0, days)
		return date(2000, d.Month(), d.Day())
	}

	createTestContact(t, db, owner, "Today", birthdayIn(0))
	createTestContact(t, db, owner, "InThree", birthdayIn(3))
	createTestContact(t, db, owner, "InSeven", birthdayIn(7))
	createTestContact(t, db, owner, "InNine", birthdayIn(9))

	results, err := repo.UpcomingBirthdays(ctx, 0, 50, owner)
	require.NoError(t, err)

	names := make([]string, 0, len(results))
	for _, c := range results {
		names = append(names, c.FirstName)
	}
	assert.Equal(t, []string{"Today", "InThree", "InSeven"}, names)
}

func TestUpcomingBirthdaysPagination(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	today := truncateToDay(time.Now())

	for i := 0; i < 5; i++ {
		d := today.AddDate(0, 0, i)
		createTestContact(t, db, owner, "C"+string(rune('A'+i)), date(2000, d.Month(), d.Day()))
	}

	results, err := repo.UpcomingBirthdays(ctx, 2, 2, owner)
	require.NoError(t, err)
	assert.Len(t, results, 2)

	results, err = repo.UpcomingBirthdays(ctx, 10, 2, owner)
	require.NoError(t, err)
	assert.Empty(t, results)
}

// The window is a true date range, so a birthday early next month (or next
// year) still matches when it falls within the next seven days. A same-month
// comparison would miss these.
func TestUpcomingBirthdaysCrossesBoundaries(t *testing.T) {
	today := date(2026, time.December, 29)

	assert.Equal(t, 4, daysUntilBirthday(date(1990, time.January, 2), today))
	assert.Equal(t, 0, daysUntilBirthday(date(1990, time.December, 29), today))
	assert.Equal(t, 7, daysUntilBirthday(date(1990, time.January, 5), today))

	// Already passed this year: projected onto next year, outside the window.
	assert.Greater(t, daysUntilBirthday(date(1990, time.December, 20), today), birthdayWindowDays)
}

func TestUpcomingBirthdaysScopedToOwner(t *testing.T) {
	db := newTestDB(t)
	repo := NewContactRepository(db)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	today := truncateToDay(time.Now())
	createTestContact(t, db, alice, "AliceFriend", date(2000, today.Month(), today.Day()))

	results, err := repo.UpcomingBirthdays(ctx, 0, 10, bob)
	require.NoError(t, err)
	assert.Empty(t, results)
}
