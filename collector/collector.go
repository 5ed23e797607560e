package collector

import (
	"context"
	"sort"
	"time"

	"github.com/okonma/citymood/config"
	"github.com/okonma/citymood/db/models"
	"github.com/okonma/citymood/db/service"
	"github.com/okonma/citymood/logger"
	"github.com/okonma/citymood/reddit"
	"github.com/okonma/citymood/sentiment"
)

// Fetcher is the slice of the Reddit client the pipeline needs.
type Fetcher interface {
	FetchPosts(ctx context.Context, subreddit string) ([]reddit.Post, error)
	FetchComments(ctx context.Context, subreddit, postID string) ([]reddit.Comment, error)
}

// Scorer is the slice of the sentiment analyzer the pipeline needs.
type Scorer interface {
	Eligible(text string) bool
	Analyze(text string) sentiment.Result
}

// CityStats counts what one city contributed to a cycle.
type CityStats struct {
	City     string `json:"city"`
	Posts    int    `json:"posts"`
	Comments int    `json:"comments"`
	Skipped  int    `json:"skipped"`
	Errors   int    `json:"errors"`
	Failed   bool   `json:"failed"` // the city's feed could not be fetched at all
}

// CycleStats summarizes one full pass over all configured cities.
type CycleStats struct {
	Started      time.Time     `json:"started"`
	Duration     time.Duration `json:"duration"`
	Cities       int           `json:"cities"`
	CitiesFailed int           `json:"cities_failed"`
	Posts        int           `json:"posts"`
	Comments     int           `json:"comments"`
	Skipped      int           `json:"skipped"`
	Errors       int           `json:"errors"`
	PerCity      []CityStats   `json:"per_city"`
}

// Collector runs the fetch, score, store pipeline across all configured
// cities. Cities are processed sequentially; failures are isolated per
// city and per item.
type Collector struct {
	fetcher  Fetcher
	scorer   Scorer
	posts    *service.PostService
	comments *service.CommentService
	cfg      *config.Config

	// OnCityDone, when set, fires after each city finishes (progress UI).
	OnCityDone func(stats CityStats)
}

// New wires up a collector.
func New(fetcher Fetcher, scorer Scorer, posts *service.PostService,
	comments *service.CommentService, cfg *config.Config) *Collector {
	return &Collector{
		fetcher:  fetcher,
		scorer:   scorer,
		posts:    posts,
		comments: comments,
		cfg:      cfg,
	}
}

// RunCycle executes one collection cycle over every configured city.
func (c *Collector) RunCycle(ctx context.Context) CycleStats {
	stats := CycleStats{Started: time.Now(), Cities: len(c.cfg.Cities)}

	logger.Logger.Printf("Starting collection cycle across %d cities", len(c.cfg.Cities))

	for _, city := range sortedCities(c.cfg.Cities) {
		cityStats := c.collectCity(ctx, city, c.cfg.Cities[city])

		stats.Posts += cityStats.Posts
		stats.Comments += cityStats.Comments
		stats.Skipped += cityStats.Skipped
		stats.Errors += cityStats.Errors
		if cityStats.Failed {
			stats.CitiesFailed++
		}
		stats.PerCity = append(stats.PerCity, cityStats)

		if c.OnCityDone != nil {
			c.OnCityDone(cityStats)
		}
	}

	stats.Duration = time.Since(stats.Started)
	logger.Logger.Printf("Collection cycle complete: %d posts, %d comments, %d errors in %v",
		stats.Posts, stats.Comments, stats.Errors, stats.Duration.Round(time.Millisecond))

	return stats
}

// collectCity fetches, scores and stores one city's feed. A fetch failure
// marks the city failed but never aborts the cycle.
func (c *Collector) collectCity(ctx context.Context, city, subreddit string) CityStats {
	stats := CityStats{City: city}
	fetchedAt := time.Now()

	rawPosts, err := c.fetcher.FetchPosts(ctx, subreddit)
	if err != nil {
		logger.Logger.Printf("Error fetching r/%s for %s: %v", subreddit, city, err)
		stats.Errors++
		stats.Failed = true
		return stats
	}

	for _, raw := range rawPosts {
		fullText := fullText(raw)
		if !c.scorer.Eligible(fullText) {
			stats.Skipped++
			continue
		}

		result := c.scorer.Analyze(fullText)
		post := buildPost(raw, city, fullText, result, fetchedAt)

		if err := c.posts.SavePost(post); err != nil {
			logger.Logger.Printf("Error storing post %s: %v", raw.ID, err)
			stats.Errors++
			continue
		}
		stats.Posts++

		if c.cfg.Collection.FetchComments {
			saved, errs := c.collectComments(ctx, city, subreddit, raw.ID, fetchedAt)
			stats.Comments += saved
			stats.Errors += errs
		}
	}

	logger.Logger.Printf("%s (r/%s): %d posts, %d comments stored, %d skipped",
		city, subreddit, stats.Posts, stats.Comments, stats.Skipped)

	return stats
}

func (c *Collector) collectComments(ctx context.Context, city, subreddit, postID string, fetchedAt time.Time) (saved, errs int) {
	rawComments, err := c.fetcher.FetchComments(ctx, subreddit, postID)
	if err != nil {
		logger.Logger.Printf("Error fetching comments for %s: %v", postID, err)
		return 0, 1
	}

	for _, raw := range rawComments {
		if !c.scorer.Eligible(raw.Body) {
			continue
		}

		result := c.scorer.Analyze(raw.Body)
		comment := buildComment(raw, city, result, fetchedAt)

		if err := c.comments.SaveComment(comment); err != nil {
			logger.Logger.Printf("Error storing comment %s: %v", raw.ID, err)
			errs++
			continue
		}
		saved++
	}

	return saved, errs
}

// fullText joins title and selftext the way the scorer sees a post.
func fullText(p reddit.Post) string {
	if p.Selftext == "" {
		return p.Title
	}
	return p.Title + ". " + p.Selftext
}

func buildPost(raw reddit.Post, city, fullText string, result sentiment.Result, fetchedAt time.Time) *models.Post {
	return &models.Post{
		PostID:      raw.ID,
		City:        city,
		Subreddit:   raw.Subreddit,
		Title:       raw.Title,
		Selftext:    raw.Selftext,
		FullText:    fullText,
		Author:      raw.Author,
		URL:         raw.URL,
		Permalink:   raw.Permalink,
		Source:      raw.Source,
		Score:       raw.Score,
		UpvoteRatio: raw.UpvoteRatio,
		NumComments: raw.NumComments,
		SentimentFields: models.SentimentFields{
			Positive:   result.Positive,
			Neutral:    result.Neutral,
			Negative:   result.Negative,
			Compound:   result.Compound,
			Label:      string(result.Label),
			Bucket:     string(result.Bucket),
			TextLength: result.TextLength,
		},
		PostedAt:  raw.CreatedUTC,
		FetchedAt: fetchedAt,
	}
}

func buildComment(raw reddit.Comment, city string, result sentiment.Result, fetchedAt time.Time) *models.Comment {
	return &models.Comment{
		CommentID: raw.ID,
		PostID:    raw.PostID,
		City:      city,
		Subreddit: raw.Subreddit,
		Author:    raw.Author,
		Body:      raw.Body,
		Score:     raw.Score,
		Depth:     raw.Depth,
		Permalink: raw.Permalink,
		SentimentFields: models.SentimentFields{
			Positive:   result.Positive,
			Neutral:    result.Neutral,
			Negative:   result.Negative,
			Compound:   result.Compound,
			Label:      string(result.Label),
			Bucket:     string(result.Bucket),
			TextLength: result.TextLength,
		},
		PostedAt:  raw.CreatedUTC,
		FetchedAt: fetchedAt,
	}
}

func sortedCities(cities map[string]string) []string {
	names := make([]string, 0, len(cities))
	for name := range cities {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
