package service

import (
	"context"

	"circles/internal/models"
	"circles/internal/repository"
)

// FollowAction is a target's response to a follow request.
type FollowAction string

const (
	FollowAccept  FollowAction = "accept"
	FollowDecline FollowAction = "decline"
)

// FollowStatusView describes the edges between the caller and another user.
type FollowStatusView struct {
	// Status is "none", "pending" or "following".
	Status     string `json:"status"`
	FollowedBy bool   `json:"followed_by"`
	RequestID  uint   `json:"request_id,omitempty"`
}

// FollowService owns the directed follow graph.
type FollowService struct {
	follows repository.FollowRepository
	users   repository.UserRepository
}

// NewFollowService returns a new FollowService.
func NewFollowService(follows repository.FollowRepository, users repository.UserRepository) *FollowService {
	return &FollowService{follows: follows, users: users}
}

// Follow creates an edge from followerID to targetID. The edge is pending
// when the target requires approval.
func (s *FollowService) Follow(ctx context.Context, followerID, targetID uint) (*models.UserFollower, error) {
	if followerID == targetID {
		return nil, models.NewConflictError("You cannot follow yourself")
	}
	target, err := s.users.GetByID(ctx, targetID)
	if err != nil {
		return nil, err
	}
	existing, err := s.follows.Get(ctx, followerID, targetID)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		if existing.Status == models.FollowStatusPending {
			return nil, models.NewConflictError("Follow request already pending")
		}
		return nil, models.NewConflictError("Already following this user")
	}

	edge := &models.UserFollower{FollowerID: followerID, FollowingID: targetID, Status: models.FollowStatusFollowing}
	if target.RequireFollowApproval {
		edge.Status = models.FollowStatusPending
	}
	if err := s.follows.Create(ctx, edge); err != nil {
		return nil, err
	}
	edge.Following = target
	return edge, nil
}

// Unfollow removes the edge, pending or accepted. It never fails because the
// edge is missing.
func (s *FollowService) Unfollow(ctx context.Context, followerID, targetID uint) error {
	return s.follows.Delete(ctx, followerID, targetID)
}

// Followers lists accepted followers of userID.
func (s *FollowService) Followers(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Followers(ctx, userID)
}

// Following lists users userID follows.
func (s *FollowService) Following(ctx context.Context, userID uint) ([]models.User, error) {
	if _, err := s.users.GetByID(ctx, userID); err != nil {
		return nil, err
	}
	return s.follows.Following(ctx, userID)
}

// Status reports the edges between userID and targetID in both directions.
func (s *FollowService) Status(ctx context.Context, userID, targetID uint) (*FollowStatusView, error) {
	if _, err := s.users.GetByID(ctx, targetID); err != nil {
		return nil, err
	}
	view := &FollowStatusView{Status: "none"}
	out, err := s.follows.Get(ctx, userID, targetID)
	if err != nil {
		return nil, err
	}
	if out != nil {
		view.Status = string(out.Status)
		if out.Status == models.FollowStatusPending {
			view.RequestID = out.ID
		}
	}
	in, err := s.follows.Get(ctx, targetID, userID)
	if err != nil {
		return nil, err
	}
	view.FollowedBy = in != nil && in.Status == models.FollowStatusFollowing
	return view, nil
}

// Suggestions returns users userID does not follow yet, most-followed first.
func (s *FollowService) Suggestions(ctx context.Context, userID uint, limit int) ([]models.User, error) {
	if limit <= 0 || limit > 50 {
		limit = 10
	}
	return s.users.Suggestions(ctx, userID, limit)
}

// PendingRequests lists follow requests awaiting userID.
func (s *FollowService) PendingRequests(ctx context.Context, userID uint) ([]models.UserFollower, error) {
	return s.follows.PendingFor(ctx, userID)
}

// Respond accepts or declines a pending request addressed to userID.
// Declining deletes the edge.
func (s *FollowService) Respond(ctx context.Context, userID, requestID uint, action FollowAction) (*models.UserFollower, error) {
	if action != FollowAccept && action != FollowDecline {
		return nil, models.NewValidationError("action must be accept or decline")
	}
	edge, err := s.follows.GetByID(ctx, requestID)
	if err != nil {
		return nil, err
	}
	if edge.FollowingID != userID {
		return nil, models.NewForbiddenError("You can only respond to requests sent to you")
	}
	if edge.Status != models.FollowStatusPending {
		return nil, models.NewConflictError("Follow request is no longer pending")
	}
	if action == FollowDecline {
		if err := s.follows.DeleteByID(ctx, requestID); err != nil {
			return nil, err
		}
		return edge, nil
	}
	return s.follows.Accept(ctx, requestID)
}
