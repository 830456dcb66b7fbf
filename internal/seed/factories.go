// Package seed provides helpers to create test and demo data for the
// application database. These helpers are intended for development and
// testing only.
package seed

import (
	"fmt"
	"math/rand"
	"strings"
	"time"

	"bugbook/internal/auth"
	"bugbook/internal/models"

	"github.com/brianvoe/gofakeit/v6"
	"gorm.io/gorm"
)

// DefaultPassword is the password every seeded account gets, so demo logins
// are predictable.
const DefaultPassword = "password123"

// Factory builds domain entities and persists them to the database.
type Factory struct {
	db  *gorm.DB
	rng *rand.Rand
	// seeded accounts share one hash; hashing per user makes large seeds slow
	passwordHash string
}

// NewFactory creates a new Factory bound to the provided Gorm DB.
func NewFactory(db *gorm.DB) (*Factory, error) {
	gofakeit.Seed(time.Now().UnixNano())

	hash, err := auth.HashPassword(DefaultPassword)
	if err != nil {
		return nil, err
	}
	return &Factory{
		db:           db,
		rng:          rand.New(rand.NewSource(time.Now().UnixNano())),
		passwordHash: hash,
	}, nil
}

// CreateUser constructs and persists a sample account. Optional override
// functions may modify the generated user before saving.
func (f *Factory) CreateUser(overrides ...func(*models.User)) (*models.User, error) {
	id, err := auth.NewUserID()
	if err != nil {
		return nil, err
	}

	username := strings.ToLower(gofakeit.Username())
	if len(username) > 24 {
		username = username[:24]
	}
	username = fmt.Sprintf("%s%d", username, gofakeit.Number(100, 999))

	user := &models.User{
		ID:           id,
		Username:     username,
		DisplayName:  gofakeit.Name(),
		Email:        fmt.Sprintf("%s@%s", username, gofakeit.DomainName()),
		PasswordHash: f.passwordHash,
	}

	for _, override := range overrides {
		override(user)
	}
	return user, f.db.Create(user).Error
}

// BuildPost constructs a post without persisting it, with a created_at spread
// over the past weeks so feeds paginate realistically.
func (f *Factory) BuildPost(user *models.User, overrides ...func(*models.Post)) (*models.Post, error) {
	id, err := auth.NewPostID()
	if err != nil {
		return nil, err
	}

	post := &models.Post{
		ID:        id,
		UserID:    user.ID,
		Content:   gofakeit.Paragraph(1, 3, 8, "\n"),
		CreatedAt: time.Now().Add(-time.Duration(f.rng.Intn(45*24*60)) * time.Minute),
	}

	for _, override := range overrides {
		override(post)
	}
	return post, nil
}

// CreatePostsBatch persists multiple posts in a single DB call.
func (f *Factory) CreatePostsBatch(posts []*models.Post) error {
	if len(posts) == 0 {
		return nil
	}
	return f.db.Create(&posts).Error
}

// CreateLike records a like, ignoring duplicates.
func (f *Factory) CreateLike(userID, postID string) error {
	like := &models.Like{UserID: userID, PostID: postID}
	err := f.db.Create(like).Error
	if err != nil && strings.Contains(strings.ToLower(err.Error()), "unique") {
		return nil
	}
	return err
}
