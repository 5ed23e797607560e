package repository

import (
	"time"

	"github.com/okonma/citymood/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// PostFilter narrows post read queries for the dashboard.
type PostFilter struct {
	City      string
	Sentiment string
	Since     time.Time // zero value means no lower bound
	SortBy    string    // "score" or "time" (default)
	Limit     int
}

// SentimentCounts aggregates label counts for a city (or everything when
// city is empty).
type SentimentCounts struct {
	Total       int64
	Positive    int64
	Negative    int64
	Neutral     int64
	AvgCompound float64
	AvgScore    float64
}

// StoreStats summarizes the whole posts table.
type StoreStats struct {
	TotalPosts   int64
	EarliestPost time.Time
	LatestPost   time.Time
	CityCount    int64
}

// PostRepository defines the interface for post operations
type PostRepository interface {
	Upsert(post *models.Post) error
	ExistsByPostID(postID string) (bool, error)
	FindByPostID(postID string) (*models.Post, error)
	List(filter PostFilter) ([]models.Post, error)
	TopByScore(city string, limit int) ([]models.Post, error)
	Counts(city string) (SentimentCounts, error)
	Stats() (StoreStats, error)
}

// GormPostRepository implements PostRepository using GORM
type GormPostRepository struct {
	db *gorm.DB
}

// NewPostRepository creates a new post repository
func NewPostRepository(db *gorm.DB) PostRepository {
	return &GormPostRepository{db: db}
}

// postUpdateColumns are the columns refreshed when a post is re-collected.
var postUpdateColumns = []string{
	"city", "subreddit", "title", "selftext", "full_text", "author",
	"url", "permalink", "source", "score", "upvote_ratio", "num_comments",
	"positive", "neutral", "negative", "compound", "sentiment",
	"sentiment_bucket", "text_length", "posted_at", "fetched_at", "updated_at",
}

// Upsert inserts a post or updates it in place when the external ID is
// already known.
func (r *GormPostRepository) Upsert(post *models.Post) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "post_id"}},
		DoUpdates: clause.AssignmentColumns(postUpdateColumns),
	}).Create(post).Error
}

// ExistsByPostID checks if a post exists in the database by its external ID
func (r *GormPostRepository) ExistsByPostID(postID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Post{}).Where("post_id = ?", postID).Count(&count).Error
	return count > 0, err
}

// FindByPostID returns a single post by its external ID
func (r *GormPostRepository) FindByPostID(postID string) (*models.Post, error) {
	var post models.Post
	err := r.db.Where("post_id = ?", postID).First(&post).Error
	if err != nil {
		return nil, err
	}
	return &post, nil
}

// List returns posts matching the filter, most relevant first.
func (r *GormPostRepository) List(filter PostFilter) ([]models.Post, error) {
	q := r.db.Model(&models.Post{})

	if filter.City != "" {
		q = q.Where("city = ?", filter.City)
	}
	if filter.Sentiment != "" {
		q = q.Where("sentiment = ?", filter.Sentiment)
	}
	if !filter.Since.IsZero() {
		q = q.Where("posted_at >= ?", filter.Since)
	}

	switch filter.SortBy {
	case "score":
		q = q.Order("score DESC")
	default:
		q = q.Order("posted_at DESC")
	}

	if filter.Limit > 0 {
		q = q.Limit(filter.Limit)
	}

	var posts []models.Post
	err := q.Find(&posts).Error
	return posts, err
}

// TopByScore returns the highest-scored posts, optionally for one city.
func (r *GormPostRepository) TopByScore(city string, limit int) ([]models.Post, error) {
	return r.List(PostFilter{City: city, SortBy: "score", Limit: limit})
}

// Counts aggregates sentiment label counts and averages.
func (r *GormPostRepository) Counts(city string) (SentimentCounts, error) {
	var counts SentimentCounts

	q := r.db.Model(&models.Post{})
	if city != "" {
		q = q.Where("city = ?", city)
	}

	row := q.Select(`COUNT(*),
		COALESCE(SUM(CASE WHEN sentiment = 'Positive' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN sentiment = 'Negative' THEN 1 ELSE 0 END), 0),
		COALESCE(SUM(CASE WHEN sentiment = 'Neutral' THEN 1 ELSE 0 END), 0),
		COALESCE(AVG(compound), 0),
		COALESCE(AVG(score), 0)`).Row()

	err := row.Scan(&counts.Total, &counts.Positive, &counts.Negative,
		&counts.Neutral, &counts.AvgCompound, &counts.AvgScore)
	return counts, err
}

// Stats summarizes the posts table for the dashboard footer.
func (r *GormPostRepository) Stats() (StoreStats, error) {
	var stats StoreStats

	if err := r.db.Model(&models.Post{}).Count(&stats.TotalPosts).Error; err != nil {
		return stats, err
	}
	if err := r.db.Model(&models.Post{}).
		Distinct("city").Count(&stats.CityCount).Error; err != nil {
		return stats, err
	}
	if stats.TotalPosts == 0 {
		return stats, nil
	}

	row := r.db.Model(&models.Post{}).
		Select("MIN(posted_at), MAX(posted_at)").Row()
	if err := row.Scan(&stats.EarliestPost, &stats.LatestPost); err != nil {
		return stats, err
	}
	return stats, nil
}
