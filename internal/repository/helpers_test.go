package repository

import (
	"testing"

	"bugbook/internal/cache"
	"bugbook/internal/models"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupMockDB creates a GORM *gorm.DB backed by sqlmock for query-shape tests.
func setupMockDB(t *testing.T) (*gorm.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)

	gormDB, err := gorm.Open(postgres.New(postgres.Config{
		Conn: db,
	}), &gorm.Config{})
	require.NoError(t, err)

	cache.SetClient(nil)
	return gormDB, mock
}

// setupSQLiteDB creates an in-memory database with the full schema for
// behavioral tests.
func setupSQLiteDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Post{},
		&models.Like{},
	))

	cache.SetClient(nil)
	return db
}

func mustCreateUser(t *testing.T, db *gorm.DB, id, username string) *models.User {
	t.Helper()
	user := &models.User{
		ID:           id,
		Username:     username,
		DisplayName:  username,
		Email:        username + "@example.com",
		PasswordHash: "hash",
	}
	require.NoError(t, db.Create(user).Error)
	return user
}
