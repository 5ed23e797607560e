package models

import (
	"time"
)

// Comment represents a collected comment. PostID is the parent post's
// external Reddit ID, not a database row reference, so comment upserts
// never depend on post insertion order.
type Comment struct {
	ID        uint   `gorm:"primaryKey" json:"-"`
	CommentID string `gorm:"uniqueIndex;not null" json:"comment_id"`
	PostID    string `gorm:"index;not null" json:"post_id"`
	City      string `gorm:"index" json:"city"`
	Subreddit string `gorm:"index" json:"subreddit"`
	Author    string `json:"author"`
	Body      string `json:"body"`
	Score     int    `json:"score"`
	Depth     int    `json:"depth"`
	Permalink string `json:"permalink"`

	SentimentFields `json:"sentiment"`

	PostedAt  time.Time `gorm:"index" json:"posted_at"`
	FetchedAt time.Time `json:"fetched_at"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName overrides the table name
func (Comment) TableName() string {
	return "comments"
}
