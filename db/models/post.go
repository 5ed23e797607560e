package models

import (
	"time"
)

// Post represents a collected subreddit post with its sentiment scores.
type Post struct {
	ID          uint   `gorm:"primaryKey" json:"-"`
	PostID      string `gorm:"uniqueIndex;not null" json:"post_id"`
	City        string `gorm:"index;not null" json:"city"`
	Subreddit   string `gorm:"index;not null" json:"subreddit"`
	Title       string `gorm:"not null" json:"title"`
	Selftext    string `json:"selftext"`
	FullText    string `json:"full_text"`
	Author      string `json:"author"`
	URL         string `json:"url"`
	Permalink   string `json:"permalink"`
	Source      string `json:"source"` // feed the post came from: hot, new or top
	Score       int    `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int    `json:"num_comments"`

	SentimentFields `json:"sentiment"`

	PostedAt  time.Time `gorm:"index" json:"posted_at"`
	FetchedAt time.Time `json:"fetched_at"`
	CreatedAt time.Time `json:"-"`
	UpdatedAt time.Time `json:"-"`
}

// TableName overrides the table name
func (Post) TableName() string {
	return "posts"
}
