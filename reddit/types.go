package reddit

import (
	"encoding/json"
	"time"
)

// Post is a raw post record as fetched from the Reddit API, before any
// sentiment scoring or city tagging.
type Post struct {
	ID          string
	Subreddit   string
	Title       string
	Selftext    string
	Author      string
	URL         string
	Permalink   string
	Source      string // feed the post came from: hot, new or top
	Score       int
	UpvoteRatio float64
	NumComments int
	CreatedUTC  time.Time
}

// Comment is a raw comment record for a post.
type Comment struct {
	ID         string
	PostID     string
	Subreddit  string
	Author     string
	Body       string
	Permalink  string
	Score      int
	Depth      int
	CreatedUTC time.Time
}

// listing mirrors Reddit's Listing envelope.
type listing struct {
	Kind string `json:"kind"`
	Data struct {
		After    string  `json:"after"`
		Children []thing `json:"children"`
	} `json:"data"`
}

// thing is one child of a listing; Data is kept raw because posts (t3) and
// comments (t1) carry different payloads.
type thing struct {
	Kind string          `json:"kind"`
	Data json.RawMessage `json:"data"`
}

type postData struct {
	ID          string  `json:"id"`
	Subreddit   string  `json:"subreddit"`
	Title       string  `json:"title"`
	Selftext    string  `json:"selftext"`
	Author      string  `json:"author"`
	URL         string  `json:"url"`
	Permalink   string  `json:"permalink"`
	Score       int     `json:"score"`
	UpvoteRatio float64 `json:"upvote_ratio"`
	NumComments int     `json:"num_comments"`
	CreatedUTC  float64 `json:"created_utc"`
}

type commentData struct {
	ID         string          `json:"id"`
	Author     string          `json:"author"`
	Body       string          `json:"body"`
	Permalink  string          `json:"permalink"`
	Score      int             `json:"score"`
	Depth      int             `json:"depth"`
	CreatedUTC float64         `json:"created_utc"`
	Replies    json.RawMessage `json:"replies"` // "" or a nested listing
}

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int    `json:"expires_in"`
}

type aboutResponse struct {
	Data struct {
		DisplayName string `json:"display_name"`
		Subscribers int    `json:"subscribers"`
	} `json:"data"`
}
