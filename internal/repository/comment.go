package repository

import (
	"context"

	"circles/internal/models"
	"circles/internal/observability"
)

// CommentRepository persists comments on posts.
type CommentRepository interface {
	CreateComment(ctx context.Context, comment *models.Comment) error
	GetComment(ctx context.Context, id uint) (*models.Comment, error)
	ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error)
	UpdateComment(ctx context.Context, comment *models.Comment) error
	DeleteComment(ctx context.Context, id uint) error
}

func (r *postRepository) CreateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Omit("User").Create(comment).Error; err != nil {
		return writeError(err, "Comment already exists")
	}
	r.log.LogCreate(ctx, map[string]interface{}{"post_id": comment.PostID, "comment_id": comment.ID})
	return nil
}

func (r *postRepository) GetComment(ctx context.Context, id uint) (*models.Comment, error) {
	defer observability.TrackQuery("select", "comments")()
	var comment models.Comment
	if err := r.db.WithContext(ctx).Preload("User", publicUser).First(&comment, id).Error; err != nil {
		return nil, readError(err, "Comment", id)
	}
	return &comment, nil
}

// ListComments returns comments on postID, oldest first.
func (r *postRepository) ListComments(ctx context.Context, postID uint, limit, offset int) ([]models.Comment, error) {
	var comments []models.Comment
	if err := r.db.WithContext(ctx).
		Preload("User", publicUser).
		Where("post_id = ?", postID).
		Order("created_at ASC, id ASC").
		Limit(clampLimit(limit)).
		Offset(offset).
		Find(&comments).Error; err != nil {
		return nil, models.NewInternalError(err)
	}
	return comments, nil
}

func (r *postRepository) UpdateComment(ctx context.Context, comment *models.Comment) error {
	if err := r.db.WithContext(ctx).Model(comment).Update("content", comment.Content).Error; err != nil {
		return writeError(err, "Comment could not be updated")
	}
	r.log.LogUpdate(ctx, map[string]interface{}{"comment_id": comment.ID})
	return nil
}

func (r *postRepository) DeleteComment(ctx context.Context, id uint) error {
	res := r.db.WithContext(ctx).Delete(&models.Comment{}, id)
	if res.Error != nil {
		return models.NewInternalError(res.Error)
	}
	if res.RowsAffected == 0 {
		return models.NewNotFoundError("Comment", id)
	}
	r.log.LogDelete(ctx, map[string]interface{}{"comment_id": id})
	return nil
}
