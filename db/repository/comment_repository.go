package repository

import (
	"time"

	"github.com/okonma/citymood/db/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// CommentRepository defines the interface for comment operations
type CommentRepository interface {
	Upsert(comment *models.Comment) error
	ExistsByCommentID(commentID string) (bool, error)
	FindByPostID(postID string, limit int) ([]models.Comment, error)
	FindSince(since time.Time, limit int) ([]models.Comment, error)
	Count() (int64, error)
}

// GormCommentRepository implements CommentRepository using GORM
type GormCommentRepository struct {
	db *gorm.DB
}

// NewCommentRepository creates a new comment repository
func NewCommentRepository(db *gorm.DB) CommentRepository {
	return &GormCommentRepository{db: db}
}

var commentUpdateColumns = []string{
	"post_id", "city", "subreddit", "author", "body", "score", "depth",
	"permalink", "positive", "neutral", "negative", "compound", "sentiment",
	"sentiment_bucket", "text_length", "posted_at", "fetched_at", "updated_at",
}

// Upsert inserts a comment or updates it in place by external ID.
func (r *GormCommentRepository) Upsert(comment *models.Comment) error {
	return r.db.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "comment_id"}},
		DoUpdates: clause.AssignmentColumns(commentUpdateColumns),
	}).Create(comment).Error
}

// ExistsByCommentID checks if a comment exists by its external ID
func (r *GormCommentRepository) ExistsByCommentID(commentID string) (bool, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Where("comment_id = ?", commentID).Count(&count).Error
	return count > 0, err
}

// FindByPostID returns comments for a post, highest score first.
func (r *GormCommentRepository) FindByPostID(postID string, limit int) ([]models.Comment, error) {
	q := r.db.Where("post_id = ?", postID).Order("score DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var comments []models.Comment
	err := q.Find(&comments).Error
	return comments, err
}

// FindSince returns comments collected after the given time.
func (r *GormCommentRepository) FindSince(since time.Time, limit int) ([]models.Comment, error) {
	q := r.db.Where("posted_at >= ?", since).Order("posted_at DESC")
	if limit > 0 {
		q = q.Limit(limit)
	}

	var comments []models.Comment
	err := q.Find(&comments).Error
	return comments, err
}

// Count returns the total number of stored comments.
func (r *GormCommentRepository) Count() (int64, error) {
	var count int64
	err := r.db.Model(&models.Comment{}).Count(&count).Error
	return count, err
}
