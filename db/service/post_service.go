package service

import (
	"math"
	"time"

	"github.com/okonma/citymood/db/models"
	"github.com/okonma/citymood/db/repository"
	"github.com/okonma/citymood/logger"
)

// SentimentSummary is the aggregate shape the dashboard reads.
type SentimentSummary struct {
	City          string  `json:"city,omitempty"`
	TotalPosts    int64   `json:"total_posts"`
	PositiveCount int64   `json:"positive_count"`
	NegativeCount int64   `json:"negative_count"`
	NeutralCount  int64   `json:"neutral_count"`
	PositivePct   float64 `json:"positive_pct"`
	NegativePct   float64 `json:"negative_pct"`
	NeutralPct    float64 `json:"neutral_pct"`
	AvgCompound   float64 `json:"avg_compound"`
	AvgScore      float64 `json:"avg_score"`
}

// DatabaseStats summarizes both tables.
type DatabaseStats struct {
	TotalPosts    int64     `json:"total_posts"`
	TotalComments int64     `json:"total_comments"`
	EarliestPost  time.Time `json:"earliest_post"`
	LatestPost    time.Time `json:"latest_post"`
	CityCount     int64     `json:"city_count"`
}

// PostService handles post-related operations
type PostService struct {
	repo repository.PostRepository
}

// NewPostService creates a new post service
func NewPostService(repo repository.PostRepository) *PostService {
	return &PostService{repo: repo}
}

// SavePost upserts a scored post keyed by its external ID.
func (s *PostService) SavePost(post *models.Post) error {
	return s.repo.Upsert(post)
}

// PostExists checks if a post has already been collected
func (s *PostService) PostExists(postID string) bool {
	exists, err := s.repo.ExistsByPostID(postID)
	if err != nil {
		logger.Logger.Printf("Error checking if post exists: %v", err)
		return false
	}
	return exists
}

// ListPosts returns posts matching the filter.
func (s *PostService) ListPosts(filter repository.PostFilter) ([]models.Post, error) {
	return s.repo.List(filter)
}

// TopPosts returns the highest-scored posts, optionally for one city.
func (s *PostService) TopPosts(city string, limit int) ([]models.Post, error) {
	return s.repo.TopByScore(city, limit)
}

// Summary aggregates sentiment for one city, or globally when city is empty.
func (s *PostService) Summary(city string) (SentimentSummary, error) {
	counts, err := s.repo.Counts(city)
	if err != nil {
		return SentimentSummary{}, err
	}

	summary := SentimentSummary{
		City:          city,
		TotalPosts:    counts.Total,
		PositiveCount: counts.Positive,
		NegativeCount: counts.Negative,
		NeutralCount:  counts.Neutral,
		AvgCompound:   round3(counts.AvgCompound),
		AvgScore:      round1(counts.AvgScore),
	}
	if counts.Total > 0 {
		summary.PositivePct = pct(counts.Positive, counts.Total)
		summary.NegativePct = pct(counts.Negative, counts.Total)
		summary.NeutralPct = pct(counts.Neutral, counts.Total)
	}
	return summary, nil
}

// Stats returns table-level statistics for the dashboard.
func (s *PostService) Stats(commentCount int64) (DatabaseStats, error) {
	stats, err := s.repo.Stats()
	if err != nil {
		return DatabaseStats{}, err
	}
	return DatabaseStats{
		TotalPosts:    stats.TotalPosts,
		TotalComments: commentCount,
		EarliestPost:  stats.EarliestPost,
		LatestPost:    stats.LatestPost,
		CityCount:     stats.CityCount,
	}, nil
}

func pct(part, total int64) float64 {
	return round1(float64(part) / float64(total) * 100)
}

func round1(v float64) float64 {
	return math.Round(v*10) / 10
}

func round3(v float64) float64 {
	return math.Round(v*1000) / 1000
}
