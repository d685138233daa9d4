package server

import (
	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// FollowUser handles POST /api/follow/:userId
// @Summary Follow a user
// @Description Creates a following edge (201), or a pending request (202) when the target requires approval.
// @Tags follow
// @Security BearerAuth
// @Produce json
// @Param userId path int true "User ID"
// @Success 201 {object} models.UserFollower
// @Success 202 {object} models.UserFollower
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /follow/{userId} [post]
func (s *Server) FollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	edge, err := s.followService.Follow(ctx, currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	s.notifyFollow(ctx, edge)

	if edge.Status == models.FollowStatusPending {
		return c.Status(fiber.StatusAccepted).JSON(edge)
	}
	return c.Status(fiber.StatusCreated).JSON(edge)
}

// UnfollowUser handles DELETE /api/follow/:userId
// @Summary Unfollow a user
// @Description Removes the edge or cancels a pending request. Succeeds when no edge exists.
// @Tags follow
// @Security BearerAuth
// @Param userId path int true "User ID"
// @Success 204
// @Router /follow/{userId} [delete]
func (s *Server) UnfollowUser(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.followService.Unfollow(c.UserContext(), currentUserID(c), targetID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetFollowers handles GET /api/follow/:userId/followers
// @Summary Followers
// @Tags follow
// @Security BearerAuth
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{userId}/followers [get]
func (s *Server) GetFollowers(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	users, err := s.followService.Followers(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries(users))
}

// GetFollowing handles GET /api/follow/:userId/following
// @Summary Following
// @Tags follow
// @Security BearerAuth
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {array} models.UserSummary
// @Failure 404 {object} models.ErrorResponse
// @Router /follow/{userId}/following [get]
func (s *Server) GetFollowing(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	users, err := s.followService.Following(c.UserContext(), userID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries(users))
}

// GetFollowStatus handles GET /api/follow/:userId/status
// @Summary Follow status
// @Tags follow
// @Security BearerAuth
// @Produce json
// @Param userId path int true "User ID"
// @Success 200 {object} service.FollowStatusView
// @Router /follow/{userId}/status [get]
func (s *Server) GetFollowStatus(c *fiber.Ctx) error {
	targetID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	status, err := s.followService.Status(c.UserContext(), currentUserID(c), targetID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(status)
}

// GetFollowSuggestions handles GET /api/follow/suggestions
// @Summary Who to follow
// @Tags follow
// @Security BearerAuth
// @Produce json
// @Param limit query int false "Max results" default(10)
// @Success 200 {array} models.UserSummary
// @Router /follow/suggestions [get]
func (s *Server) GetFollowSuggestions(c *fiber.Ctx) error {
	users, err := s.followService.Suggestions(c.UserContext(), currentUserID(c), c.QueryInt("limit", 10))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(summaries(users))
}

// GetPendingFollowRequests handles GET /api/follow/requests/pending
// @Summary Pending follow requests
// @Tags follow
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.UserFollower
// @Router /follow/requests/pending [get]
func (s *Server) GetPendingFollowRequests(c *fiber.Ctx) error {
	requests, err := s.followService.PendingRequests(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// RespondToFollowRequest handles POST /api/follow/requests/:requestId/respond
// @Summary Accept or decline a follow request
// @Tags follow
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param requestId path int true "Request ID"
// @Param request body object{action=string} true "accept or decline"
// @Success 200 {object} models.UserFollower
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /follow/requests/{requestId}/respond [post]
func (s *Server) RespondToFollowRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}
	var req struct {
		Action service.FollowAction `json:"action"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	edge, err := s.followService.Respond(ctx, currentUserID(c), requestID, req.Action)
	if err != nil {
		return respondError(c, err)
	}
	if req.Action == service.FollowAccept {
		s.notifyFollowAccepted(ctx, edge)
	}
	return c.JSON(edge)
}

func summaries(users []models.User) []models.UserSummary {
	out := make([]models.UserSummary, 0, len(users))
	for i := range users {
		out = append(out, users[i].Summary())
	}
	return out
}
