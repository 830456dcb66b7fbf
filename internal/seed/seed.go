package seed

import (
	"fmt"
	"log"

	"bugbook/internal/models"

	"gorm.io/gorm"
)

// Options configuration for the seeder
type Options struct {
	NumUsers    int
	NumPosts    int
	ShouldClean bool
}

// Seed populates the database with test data
func Seed(db *gorm.DB, opts Options) error {
	log.Printf("Starting database seeding with %d users and %d posts...", opts.NumUsers, opts.NumPosts)

	if opts.ShouldClean {
		if err := clearData(db); err != nil {
			log.Println("Warning: could not clear all existing data, continuing anyway...")
		}
	}

	factory, err := NewFactory(db)
	if err != nil {
		return fmt.Errorf("failed to initialize seed factory: %w", err)
	}

	users := make([]*models.User, 0, opts.NumUsers)
	for i := 0; i < opts.NumUsers; i++ {
		user, err := factory.CreateUser()
		if err != nil {
			return fmt.Errorf("failed to create users: %w", err)
		}
		users = append(users, user)
	}
	log.Printf("%d test users created", len(users))

	if len(users) == 0 {
		return nil
	}

	posts := make([]*models.Post, 0, opts.NumPosts)
	for i := 0; i < opts.NumPosts; i++ {
		author := users[i%len(users)]
		post, err := factory.BuildPost(author)
		if err != nil {
			return fmt.Errorf("failed to build posts: %w", err)
		}
		posts = append(posts, post)
	}
	if err := factory.CreatePostsBatch(posts); err != nil {
		return fmt.Errorf("failed to create posts: %w", err)
	}
	log.Printf("%d posts created", len(posts))

	// Sprinkle likes so counts and liked flags have something to show
	likes := 0
	for _, post := range posts {
		for _, user := range users {
			if factory.rng.Intn(4) != 0 {
				continue
			}
			if err := factory.CreateLike(user.ID, post.ID); err != nil {
				return fmt.Errorf("failed to create likes: %w", err)
			}
			likes++
		}
	}
	log.Printf("%d likes created", likes)

	log.Printf("Seeding complete. All accounts use the password %q", DefaultPassword)
	return nil
}

func clearData(db *gorm.DB) error {
	for _, model := range []any{
		&models.Like{},
		&models.Post{},
		&models.Session{},
		&models.User{},
	} {
		if err := db.Where("1 = 1").Delete(model).Error; err != nil {
			return err
		}
	}
	return nil
}
