package server

import (
	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// InviteResponseBody is returned after responding to an invite. Membership is
// set only on acceptance.
type InviteResponseBody struct {
	Invite     *models.CircleInvite     `json:"invite"`
	Membership *models.CircleMembership `json:"membership,omitempty"`
}

// InviteToCircle handles POST /api/circles/:id/invites
// @Summary Invite to circle
// @Description Invites a username or email address. Owners and admins only.
// @Tags circles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body object{target=string} true "Username or email"
// @Success 201 {object} models.CircleInvite
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /circles/{id}/invites [post]
func (s *Server) InviteToCircle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Target string `json:"target"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	userID := currentUserID(c)
	result, err := s.inviteService.Invite(ctx, userID, id, models.NormalizeInviteTarget(req.Target))
	if err != nil {
		return respondError(c, err)
	}
	s.notifyInviteReceived(ctx, userID, result)
	return c.Status(fiber.StatusCreated).JSON(result.Invite)
}

// GetCircleInvites handles GET /api/circles/:id/invites
// @Summary Circle invites
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {array} models.CircleInvite
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id}/invites [get]
func (s *Server) GetCircleInvites(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	invites, err := s.inviteService.ListForCircle(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invites)
}

// RevokeInvite handles DELETE /api/circles/:id/invites/:inviteId
// @Summary Revoke a pending invite
// @Tags circles
// @Security BearerAuth
// @Param id path int true "Circle ID"
// @Param inviteId path int true "Invite ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /circles/{id}/invites/{inviteId} [delete]
func (s *Server) RevokeInvite(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	inviteID, err := s.parseID(c, "inviteId")
	if err != nil {
		return nil
	}

	if err := s.inviteService.Revoke(c.UserContext(), currentUserID(c), id, inviteID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMyInvites handles GET /api/circles/invites/mine
// @Summary Pending invites addressed to me
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.CircleInvite
// @Router /circles/invites/mine [get]
func (s *Server) GetMyInvites(c *fiber.Ctx) error {
	invites, err := s.inviteService.Mine(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(invites)
}

// RespondToInvite handles POST /api/circles/invites/:inviteId/respond
// @Summary Accept or decline an invite
// @Tags circles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param inviteId path int true "Invite ID"
// @Param request body object{action=string} true "accept or decline"
// @Success 200 {object} InviteResponseBody
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /circles/invites/{inviteId}/respond [post]
func (s *Server) RespondToInvite(c *fiber.Ctx) error {
	inviteID, err := s.parseID(c, "inviteId")
	if err != nil {
		return nil
	}
	var req struct {
		Action service.InviteAction `json:"action"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	invite, membership, err := s.inviteService.Respond(ctx, currentUserID(c), inviteID, req.Action)
	if err != nil {
		return respondError(c, err)
	}
	if membership != nil {
		s.notifyMembershipApproved(ctx, membership)
	}
	return c.JSON(InviteResponseBody{Invite: invite, Membership: membership})
}
