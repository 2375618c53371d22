package repository

import (
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"

	"github.com/contactdesk/contacts-api/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(&model.User{}, &model.Contact{}))
	return db
}

func createTestUser(t *testing.T, db *gorm.DB, email string) *model.User {
	t.Helper()

	user := &model.User{
		Username:  "user-" + email,
		Email:     email,
		Password:  "hashed",
		Confirmed: true,
		Role:      model.RoleUser,
	}
	require.NoError(t, db.Create(user).Error)
	return user
}

func createTestContact(t *testing.T, db *gorm.DB, owner *model.User, firstname string, birth time.Time) *model.Contact {
	t.Helper()

	contact := &model.Contact{
		FirstName: firstname,
		LastName:  "Tester",
		Email:     firstname + "@example.com",
		Mobile:    "+100000000",
		BirthDate: datatypes.Date(birth),
		UserID:    owner.ID,
	}
	require.NoError(t, db.Create(contact).Error)
	return contact
}
