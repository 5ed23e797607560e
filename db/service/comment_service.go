package service

import (
	"time"

	"github.com/okonma/citymood/db/models"
	"github.com/okonma/citymood/db/repository"
	"github.com/okonma/citymood/logger"
)

// CommentService handles comment-related operations
type CommentService struct {
	repo repository.CommentRepository
}

// NewCommentService creates a new comment service
func NewCommentService(repo repository.CommentRepository) *CommentService {
	return &CommentService{repo: repo}
}

// SaveComment upserts a scored comment keyed by its external ID.
func (s *CommentService) SaveComment(comment *models.Comment) error {
	return s.repo.Upsert(comment)
}

// CommentExists checks if a comment has already been collected
func (s *CommentService) CommentExists(commentID string) bool {
	exists, err := s.repo.ExistsByCommentID(commentID)
	if err != nil {
		logger.Logger.Printf("Error checking if comment exists: %v", err)
		return false
	}
	return exists
}

// CommentsForPost returns stored comments for a post, highest score first.
func (s *CommentService) CommentsForPost(postID string, limit int) ([]models.Comment, error) {
	return s.repo.FindByPostID(postID, limit)
}

// CommentsSince returns comments posted after the given time.
func (s *CommentService) CommentsSince(since time.Time, limit int) ([]models.Comment, error) {
	return s.repo.FindSince(since, limit)
}

// Count returns the total number of stored comments.
func (s *CommentService) Count() (int64, error) {
	return s.repo.Count()
}
