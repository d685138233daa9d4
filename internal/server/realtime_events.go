package server

import (
	"context"
	"log/slog"

	"circles/internal/models"
	"circles/internal/notifications"
	"circles/internal/service"
)

// publishUserEvent delivers an event to the user's local connections and
// relays it to other instances. Delivery is best effort.
func (s *Server) publishUserEvent(ctx context.Context, userID uint, eventType string, payload any) {
	if userID == 0 {
		return
	}
	message, err := notifications.Event{Type: eventType, Payload: payload}.Encode()
	if err != nil {
		slog.ErrorContext(ctx, "failed to encode event", slog.String("event", eventType), slog.Any("error", err))
		return
	}
	if s.hub != nil {
		s.hub.Broadcast(userID, message)
	}
	if s.notifier != nil {
		if err := s.notifier.PublishUser(context.WithoutCancel(ctx), userID, message); err != nil {
			slog.WarnContext(ctx, "failed to publish event",
				slog.String("event", eventType),
				slog.Uint64("user_id", uint64(userID)),
				slog.Any("error", err),
			)
		}
	}
}

func (s *Server) actorSummary(ctx context.Context, userID uint) *models.UserSummary {
	user, err := s.userRepo.GetByID(ctx, userID)
	if err != nil || user == nil {
		return nil
	}
	summary := user.Summary()
	return &summary
}

func circleSummary(c *models.Circle) map[string]any {
	if c == nil {
		return nil
	}
	return map[string]any{"id": c.ID, "name": c.Name}
}

func (s *Server) notifyInviteReceived(ctx context.Context, actorID uint, result *service.InviteResult) {
	if result == nil || result.Target == nil {
		return
	}
	circle, _ := s.circleRepo.GetByID(ctx, result.Invite.CircleID)
	s.publishUserEvent(ctx, result.Target.ID, notifications.EventCircleInviteReceived, map[string]any{
		"invite_id":  result.Invite.ID,
		"circle":     circleSummary(circle),
		"invited_by": s.actorSummary(ctx, actorID),
	})
}

func (s *Server) notifyJoinRequested(ctx context.Context, requesterID uint, membership *models.CircleMembership, circle *models.Circle) {
	if circle == nil || membership == nil {
		return
	}
	s.publishUserEvent(ctx, circle.OwnerID, notifications.EventCircleJoinRequested, map[string]any{
		"request_id": membership.ID,
		"circle":     circleSummary(circle),
		"user":       s.actorSummary(ctx, requesterID),
	})
}

func (s *Server) notifyMembershipApproved(ctx context.Context, membership *models.CircleMembership) {
	if !membership.IsActive() {
		return
	}
	circle, _ := s.circleRepo.GetByID(ctx, membership.CircleID)
	s.publishUserEvent(ctx, membership.UserID, notifications.EventCircleMembershipApproved, map[string]any{
		"membership_id": membership.ID,
		"circle":        circleSummary(circle),
		"role":          membership.Role,
	})
}

func (s *Server) notifyFollow(ctx context.Context, edge *models.UserFollower) {
	if edge == nil {
		return
	}
	eventType := notifications.EventUserFollowed
	if edge.Status == models.FollowStatusPending {
		eventType = notifications.EventFollowRequested
	}
	s.publishUserEvent(ctx, edge.FollowingID, eventType, map[string]any{
		"request_id": edge.ID,
		"status":     edge.Status,
		"user":       s.actorSummary(ctx, edge.FollowerID),
	})
}

func (s *Server) notifyFollowAccepted(ctx context.Context, edge *models.UserFollower) {
	if edge == nil || edge.Status != models.FollowStatusFollowing {
		return
	}
	s.publishUserEvent(ctx, edge.FollowerID, notifications.EventFollowAccepted, map[string]any{
		"request_id": edge.ID,
		"user":       s.actorSummary(ctx, edge.FollowingID),
	})
}

// notifyListShared tells every active member of the circle except the actor.
func (s *Server) notifyListShared(ctx context.Context, actorID uint, share *models.CircleSharedList) {
	if share == nil {
		return
	}
	members, err := s.membershipRepo.ListMembers(ctx, share.CircleID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load circle members for share event",
			slog.Uint64("circle_id", uint64(share.CircleID)),
			slog.Any("error", err),
		)
		return
	}
	circle, _ := s.circleRepo.GetByID(ctx, share.CircleID)
	payload := map[string]any{
		"list_id":     share.ListID,
		"circle":      circleSummary(circle),
		"shared_by":   s.actorSummary(ctx, actorID),
		"can_edit":    share.CanEdit,
		"can_reshare": share.CanReshare,
	}
	for i := range members {
		m := &members[i]
		if m.UserID == actorID || !m.IsActive() {
			continue
		}
		s.publishUserEvent(ctx, m.UserID, notifications.EventListShared, payload)
	}
}

func (s *Server) notifyPostLiked(ctx context.Context, actorID uint, post *models.Post) {
	if post == nil || post.UserID == actorID {
		return
	}
	s.publishUserEvent(ctx, post.UserID, notifications.EventPostLiked, map[string]any{
		"post_id":     post.ID,
		"likes_count": post.LikesCount,
		"user":        s.actorSummary(ctx, actorID),
	})
}

func (s *Server) notifyPostCommented(ctx context.Context, actorID uint, comment *models.Comment) {
	if comment == nil {
		return
	}
	post, err := s.postRepo.GetByID(ctx, comment.PostID, 0)
	if err != nil || post.UserID == actorID {
		return
	}
	s.publishUserEvent(ctx, post.UserID, notifications.EventPostCommented, map[string]any{
		"post_id":    post.ID,
		"comment_id": comment.ID,
		"user":       s.actorSummary(ctx, actorID),
	})
}

// notifyRecommendation tells every other active member of the circle.
func (s *Server) notifyRecommendation(ctx context.Context, actorID uint, rec *models.Recommendation) {
	if rec == nil {
		return
	}
	members, err := s.membershipRepo.ListMembers(ctx, rec.CircleID)
	if err != nil {
		slog.WarnContext(ctx, "failed to load circle members for recommendation event",
			slog.Uint64("circle_id", uint64(rec.CircleID)),
			slog.Any("error", err),
		)
		return
	}
	circle, _ := s.circleRepo.GetByID(ctx, rec.CircleID)
	payload := map[string]any{
		"recommendation_id": rec.ID,
		"restaurant_id":     rec.RestaurantID,
		"circle":            circleSummary(circle),
		"user":              s.actorSummary(ctx, actorID),
	}
	for i := range members {
		m := &members[i]
		if m.UserID == actorID || !m.IsActive() {
			continue
		}
		s.publishUserEvent(ctx, m.UserID, notifications.EventCircleRecommendation, payload)
	}
}
