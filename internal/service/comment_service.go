package service

import (
	"context"
	"strings"

	"circles/internal/models"
	"circles/internal/repository"
	"circles/internal/validation"
)

// CreateCommentInput is a new comment on a post.
type CreateCommentInput struct {
	UserID  uint
	PostID  uint
	Content string
}

// UpdateCommentInput replaces a comment's content.
type UpdateCommentInput struct {
	UserID    uint
	PostID    uint
	CommentID uint
	Content   string
}

// CommentService owns comments on posts. Reading and commenting follow the
// post's read rules.
type CommentService struct {
	posts  repository.PostRepository
	access *AccessService
}

// NewCommentService returns a new CommentService.
func NewCommentService(posts repository.PostRepository, access *AccessService) *CommentService {
	return &CommentService{posts: posts, access: access}
}

// commentOn returns the comment only when it belongs to postID.
func (s *CommentService) commentOn(ctx context.Context, postID, commentID uint) (*models.Comment, error) {
	comment, err := s.posts.GetComment(ctx, commentID)
	if err != nil {
		return nil, err
	}
	if comment.PostID != postID {
		return nil, models.NewNotFoundError("Comment", commentID)
	}
	return comment, nil
}

func (s *CommentService) readablePost(ctx context.Context, viewerID, postID uint) (*models.Post, error) {
	post, err := s.posts.GetByID(ctx, postID, viewerID)
	if err != nil {
		return nil, err
	}
	if err := s.access.CanReadPost(ctx, viewerID, post); err != nil {
		return nil, err
	}
	return post, nil
}

func (s *CommentService) CreateComment(ctx context.Context, in CreateCommentInput) (*models.Comment, error) {
	if err := validation.ValidateComment(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	if _, err := s.readablePost(ctx, in.UserID, in.PostID); err != nil {
		return nil, err
	}

	comment := &models.Comment{
		Content: strings.TrimSpace(in.Content),
		UserID:  in.UserID,
		PostID:  in.PostID,
	}
	if err := s.posts.CreateComment(ctx, comment); err != nil {
		return nil, err
	}
	return s.posts.GetComment(ctx, comment.ID)
}

func (s *CommentService) ListComments(ctx context.Context, viewerID, postID uint, limit, offset int) ([]models.Comment, error) {
	if _, err := s.readablePost(ctx, viewerID, postID); err != nil {
		return nil, err
	}
	return s.posts.ListComments(ctx, postID, limit, offset)
}

func (s *CommentService) UpdateComment(ctx context.Context, in UpdateCommentInput) (*models.Comment, error) {
	if err := validation.ValidateComment(in.Content); err != nil {
		return nil, models.NewValidationError(err.Error())
	}
	comment, err := s.commentOn(ctx, in.PostID, in.CommentID)
	if err != nil {
		return nil, err
	}
	if err := deny(in.UserID, "comment", "write", comment.UserID == in.UserID, "You can only update your own comments"); err != nil {
		return nil, err
	}
	comment.Content = strings.TrimSpace(in.Content)
	if err := s.posts.UpdateComment(ctx, comment); err != nil {
		return nil, err
	}
	return comment, nil
}

// DeleteComment lets the comment's author or the post's author remove it.
func (s *CommentService) DeleteComment(ctx context.Context, actorID, postID, commentID uint) error {
	comment, err := s.commentOn(ctx, postID, commentID)
	if err != nil {
		return err
	}
	allowed := comment.UserID == actorID
	if !allowed {
		post, err := s.posts.GetByID(ctx, comment.PostID, actorID)
		if err != nil {
			return err
		}
		allowed = post.UserID == actorID
	}
	if err := deny(actorID, "comment", "delete", allowed, "You can only delete your own comments"); err != nil {
		return err
	}
	return s.posts.DeleteComment(ctx, commentID)
}
