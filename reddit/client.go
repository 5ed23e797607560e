package reddit

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/okonma/citymood/config"
	"github.com/okonma/citymood/logger"
)

const (
	defaultBaseURL  = "https://oauth.reddit.com"
	defaultTokenURL = "https://www.reddit.com/api/v1/access_token"
	maxRetries      = 3
)

// Client talks to the Reddit API with application-only OAuth. A shared
// token bucket keeps it inside the documented 60 requests/minute.
type Client struct {
	httpClient *http.Client
	limiter    *rate.Limiter

	clientID     string
	clientSecret string
	userAgent    string

	maxPostsPerFetch   int
	timeFilter         string
	maxCommentsPerPost int
	commentSort        string
	minCommentLength   int

	baseURL  string
	tokenURL string

	mu          sync.Mutex
	token       string
	tokenExpiry time.Time
}

// NewClient creates a Reddit API client from the application config.
func NewClient(cfg *config.Config) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		limiter:    rate.NewLimiter(rate.Every(time.Second), 2),

		clientID:     cfg.Reddit.ClientID,
		clientSecret: cfg.Reddit.ClientSecret,
		userAgent:    cfg.Reddit.UserAgent,

		maxPostsPerFetch:   cfg.Collection.MaxPostsPerFetch,
		timeFilter:         cfg.Collection.TimeFilter,
		maxCommentsPerPost: cfg.Collection.MaxCommentsPerPost,
		commentSort:        cfg.Collection.CommentSort,
		minCommentLength:   cfg.Collection.MinCommentLength,

		baseURL:  defaultBaseURL,
		tokenURL: defaultTokenURL,
	}
}

// TestConnection verifies credentials and subreddit reachability.
func (c *Client) TestConnection(ctx context.Context, subreddit string) error {
	var about aboutResponse
	endpoint := fmt.Sprintf("%s/r/%s/about?raw_json=1", c.baseURL, subreddit)
	if err := c.getJSON(ctx, endpoint, &about); err != nil {
		return err
	}
	logger.Logger.Printf("Connected to r/%s (%d subscribers)",
		about.Data.DisplayName, about.Data.Subscribers)
	return nil
}

// FetchPosts pulls posts for one subreddit from the hot, new and top feeds,
// a third of the configured limit each, deduplicated by post ID.
func (c *Client) FetchPosts(ctx context.Context, subreddit string) ([]Post, error) {
	perSource := c.maxPostsPerFetch / 3
	if perSource < 1 {
		perSource = 1
	}

	sources := []struct {
		name string
		path string
	}{
		{"hot", fmt.Sprintf("/r/%s/hot?limit=%d&raw_json=1", subreddit, perSource)},
		{"new", fmt.Sprintf("/r/%s/new?limit=%d&raw_json=1", subreddit, perSource)},
		{"top", fmt.Sprintf("/r/%s/top?limit=%d&t=%s&raw_json=1", subreddit, perSource, c.timeFilter)},
	}

	seen := make(map[string]bool)
	var posts []Post

	for _, src := range sources {
		var page listing
		if err := c.getJSON(ctx, c.baseURL+src.path, &page); err != nil {
			return nil, fmt.Errorf("fetching %s feed of r/%s: %w", src.name, subreddit, err)
		}

		for _, child := range page.Data.Children {
			if child.Kind != "t3" {
				continue
			}
			var data postData
			if err := json.Unmarshal(child.Data, &data); err != nil {
				logger.Logger.Printf("Skipping unparseable post in r/%s: %v", subreddit, err)
				continue
			}
			if seen[data.ID] {
				continue
			}
			seen[data.ID] = true

			posts = append(posts, Post{
				ID:          data.ID,
				Subreddit:   subreddit,
				Title:       data.Title,
				Selftext:    data.Selftext,
				Author:      orDeleted(data.Author),
				URL:         data.URL,
				Permalink:   "https://reddit.com" + data.Permalink,
				Source:      src.name,
				Score:       data.Score,
				UpvoteRatio: data.UpvoteRatio,
				NumComments: data.NumComments,
				CreatedUTC:  time.Unix(int64(data.CreatedUTC), 0).UTC(),
			})
		}
	}

	return posts, nil
}

// FetchComments pulls comments for one post, flattens the reply tree, drops
// bodies below the configured minimum length and keeps the highest-scored
// ones up to the per-post cap.
func (c *Client) FetchComments(ctx context.Context, subreddit, postID string) ([]Comment, error) {
	endpoint := fmt.Sprintf("%s/r/%s/comments/%s?sort=%s&limit=%d&raw_json=1",
		c.baseURL, subreddit, postID, c.commentSort, c.maxCommentsPerPost)

	// The comments endpoint answers with a two-element array: the post
	// listing followed by the comment listing.
	var listings []listing
	if err := c.getJSON(ctx, endpoint, &listings); err != nil {
		return nil, fmt.Errorf("fetching comments of %s: %w", postID, err)
	}
	if len(listings) < 2 {
		return nil, nil
	}

	var comments []Comment
	c.flattenComments(listings[1].Data.Children, subreddit, postID, &comments)

	sort.SliceStable(comments, func(i, j int) bool {
		return comments[i].Score > comments[j].Score
	})
	if len(comments) > c.maxCommentsPerPost {
		comments = comments[:c.maxCommentsPerPost]
	}

	return comments, nil
}

func (c *Client) flattenComments(children []thing, subreddit, postID string, out *[]Comment) {
	for _, child := range children {
		if child.Kind != "t1" {
			continue
		}
		var data commentData
		if err := json.Unmarshal(child.Data, &data); err != nil {
			logger.Logger.Printf("Skipping unparseable comment on %s: %v", postID, err)
			continue
		}

		if len(strings.TrimSpace(data.Body)) >= c.minCommentLength {
			*out = append(*out, Comment{
				ID:         data.ID,
				PostID:     postID,
				Subreddit:  subreddit,
				Author:     orDeleted(data.Author),
				Body:       data.Body,
				Permalink:  "https://reddit.com" + data.Permalink,
				Score:      data.Score,
				Depth:      data.Depth,
				CreatedUTC: time.Unix(int64(data.CreatedUTC), 0).UTC(),
			})
		}

		// Replies is the empty string for leaf comments, a listing otherwise.
		if len(data.Replies) > 2 {
			var replies listing
			if err := json.Unmarshal(data.Replies, &replies); err == nil {
				c.flattenComments(replies.Data.Children, subreddit, postID, out)
			}
		}
	}
}

// getJSON performs an authenticated GET with rate limiting and bounded
// retries on 429 responses.
func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	var lastErr error

	for attempt := 0; attempt <= maxRetries; attempt++ {
		if err := c.limiter.Wait(ctx); err != nil {
			return err
		}
		token, err := c.ensureToken(ctx)
		if err != nil {
			return err
		}

		req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return err
		}
		req.Header.Set("Authorization", "Bearer "+token)
		req.Header.Set("User-Agent", c.userAgent)

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return err
		}

		switch resp.StatusCode {
		case http.StatusOK:
			err = json.NewDecoder(resp.Body).Decode(v)
			resp.Body.Close()
			if err != nil {
				return fmt.Errorf("decoding response: %w", err)
			}
			return nil
		case http.StatusTooManyRequests:
			wait := retryAfter(resp, attempt)
			resp.Body.Close()
			lastErr = fmt.Errorf("rate limited (429)")
			logger.Logger.Printf("Rate limited (429) on %s, retrying in %v", endpoint, wait)
			select {
			case <-time.After(wait):
			case <-ctx.Done():
				return ctx.Err()
			}
		case http.StatusUnauthorized:
			// Token likely expired early; drop it and retry.
			resp.Body.Close()
			c.mu.Lock()
			c.token = ""
			c.mu.Unlock()
			lastErr = fmt.Errorf("unauthorized (401)")
		default:
			code := resp.StatusCode
			resp.Body.Close()
			return fmt.Errorf("unexpected status %d from %s", code, endpoint)
		}
	}

	return fmt.Errorf("giving up on %s after %d attempts: %w", endpoint, maxRetries+1, lastErr)
}

// retryAfter honors the Retry-After header, falling back to a doubling wait.
func retryAfter(resp *http.Response, attempt int) time.Duration {
	if header := resp.Header.Get("Retry-After"); header != "" {
		if secs, err := strconv.Atoi(header); err == nil && secs > 0 {
			return time.Duration(secs) * time.Second
		}
	}
	return time.Duration(1<<attempt) * time.Second
}

// ensureToken fetches or refreshes the application-only OAuth token.
func (c *Client) ensureToken(ctx context.Context) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.token != "" && time.Now().Before(c.tokenExpiry.Add(-time.Minute)) {
		return c.token, nil
	}

	form := url.Values{"grant_type": {"client_credentials"}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.tokenURL,
		strings.NewReader(form.Encode()))
	if err != nil {
		return "", err
	}
	req.SetBasicAuth(c.clientID, c.clientSecret)
	req.Header.Set("User-Agent", c.userAgent)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("requesting access token: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("access token request failed with status %d", resp.StatusCode)
	}

	var tr tokenResponse
	if err := json.NewDecoder(resp.Body).Decode(&tr); err != nil {
		return "", fmt.Errorf("decoding token response: %w", err)
	}
	if tr.AccessToken == "" {
		return "", fmt.Errorf("empty access token in response")
	}

	c.token = tr.AccessToken
	c.tokenExpiry = time.Now().Add(time.Duration(tr.ExpiresIn) * time.Second)
	return c.token, nil
}

func orDeleted(author string) string {
	if author == "" {
		return "[deleted]"
	}
	return author
}
