package models

import (
	"time"
)

// Post represents a post in the bugbook feed.
type Post struct {
	ID      string `gorm:"primaryKey;size:32" json:"id"`
	Content string `gorm:"type:text;not null" json:"content"`
	UserID  string `gorm:"size:32;not null;index" json:"userId"`
	User    User   `gorm:"foreignKey:UserID" json:"user"`
	// LikesCount is not persisted; computed at query time
	LikesCount int `gorm:"->" json:"likesCount"`
	// Liked indicates whether the current requesting user liked this post (computed)
	Liked     bool      `gorm:"->" json:"liked"`
	CreatedAt time.Time `gorm:"index" json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Like records a user liking a post. The pair is unique.
type Like struct {
	UserID    string    `gorm:"size:32;primaryKey" json:"userId"`
	PostID    string    `gorm:"size:32;primaryKey" json:"postId"`
	CreatedAt time.Time `json:"createdAt"`
}

// PostsPage is one page of the feed plus the cursor for the next page.
// NextCursor is null once the feed is exhausted.
type PostsPage struct {
	Posts      []*Post `json:"posts"`
	NextCursor *string `json:"nextCursor"`
}
