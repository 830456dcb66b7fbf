package seed

import (
	"testing"

	"bugbook/internal/auth"
	"bugbook/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupSeedTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.User{},
		&models.Session{},
		&models.Post{},
		&models.Like{},
	))
	return db
}

func TestSeedCreatesUsersAndPosts(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 3, NumPosts: 7}))

	var userCount, postCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	require.NoError(t, db.Model(&models.Post{}).Count(&postCount).Error)
	assert.Equal(t, int64(3), userCount)
	assert.Equal(t, int64(7), postCount)

	// Every seeded account can log in with the default password
	var user models.User
	require.NoError(t, db.First(&user).Error)
	ok, err := auth.VerifyPassword(user.PasswordHash, DefaultPassword)
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Len(t, user.ID, 16)
}

func TestSeedCleans(t *testing.T) {
	db := setupSeedTestDB(t)

	require.NoError(t, Seed(db, Options{NumUsers: 2, NumPosts: 2}))
	require.NoError(t, Seed(db, Options{NumUsers: 1, NumPosts: 1, ShouldClean: true}))

	var userCount int64
	require.NoError(t, db.Model(&models.User{}).Count(&userCount).Error)
	assert.Equal(t, int64(1), userCount)
}

func TestFactoryCreateLikeIdempotent(t *testing.T) {
	db := setupSeedTestDB(t)
	factory, err := NewFactory(db)
	require.NoError(t, err)

	user, err := factory.CreateUser()
	require.NoError(t, err)
	post, err := factory.BuildPost(user)
	require.NoError(t, err)
	require.NoError(t, factory.CreatePostsBatch([]*models.Post{post}))

	require.NoError(t, factory.CreateLike(user.ID, post.ID))
	require.NoError(t, factory.CreateLike(user.ID, post.ID))

	var count int64
	require.NoError(t, db.Model(&models.Like{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)
}
