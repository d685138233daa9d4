package server

import (
	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// circleRequest is the JSON body for creating or updating a circle.
type circleRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	AllowPublicJoin *bool     `json:"allow_public_join"`
	Tags            *[]string `json:"tags"`
	PrimaryCuisine  *string   `json:"primary_cuisine"`
	PriceRange      *string   `json:"price_range"`
	Location        *string   `json:"location"`
}

func (r circleRequest) input() service.CircleInput {
	return service.CircleInput{
		Name:            r.Name,
		Description:     r.Description,
		AllowPublicJoin: r.AllowPublicJoin,
		Tags:            r.Tags,
		PrimaryCuisine:  r.PrimaryCuisine,
		PriceRange:      r.PriceRange,
		Location:        r.Location,
	}
}

// JoinResponse reports how a join attempt resolved.
type JoinResponse struct {
	Membership *models.CircleMembership `json:"membership"`
	Circle     *models.Circle           `json:"circle"`
	Pending    bool                     `json:"pending"`
}

func joinResponse(r *service.JoinResult) JoinResponse {
	return JoinResponse{Membership: r.Membership, Circle: r.Circle, Pending: r.Pending}
}

// GetMyCircles handles GET /api/circles
// @Summary My circles
// @Description Circles the caller belongs to
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.Circle
// @Router /circles [get]
func (s *Server) GetMyCircles(c *fiber.Ctx) error {
	circles, err := s.circleService.ListMine(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(circles)
}

// CreateCircle handles POST /api/circles
// @Summary Create circle
// @Tags circles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body circleRequest true "Circle"
// @Success 201 {object} models.Circle
// @Failure 400 {object} models.ErrorResponse
// @Router /circles [post]
func (s *Server) CreateCircle(c *fiber.Ctx) error {
	var req circleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	circle, err := s.circleService.Create(c.UserContext(), currentUserID(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(circle)
}

// GetCircle handles GET /api/circles/:id
// @Summary Get circle
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {object} models.Circle
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /circles/{id} [get]
func (s *Server) GetCircle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	circle, err := s.circleService.Get(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(circle)
}

// UpdateCircle handles PUT /api/circles/:id
// @Summary Update circle
// @Tags circles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body circleRequest true "Circle fields"
// @Success 200 {object} models.Circle
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id} [put]
func (s *Server) UpdateCircle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req circleRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	circle, err := s.circleService.Update(c.UserContext(), currentUserID(c), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(circle)
}

// DeleteCircle handles DELETE /api/circles/:id
// @Summary Delete circle
// @Tags circles
// @Security BearerAuth
// @Param id path int true "Circle ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id} [delete]
func (s *Server) DeleteCircle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.circleService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetCircleMembers handles GET /api/circles/:id/members
// @Summary Circle members
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {array} models.CircleMembership
// @Router /circles/{id}/members [get]
func (s *Server) GetCircleMembers(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	members, err := s.circleService.Members(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(members)
}

// SetCircleMemberRole handles PUT /api/circles/:id/members/:userId/role
// @Summary Change a member's role
// @Description Owner only; promotes or demotes between admin and member.
// @Tags circles
// @Security BearerAuth
// @Accept json
// @Param id path int true "Circle ID"
// @Param userId path int true "User ID"
// @Param request body object{role=string} true "admin or member"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id}/members/{userId}/role [put]
func (s *Server) SetCircleMemberRole(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}
	var req struct {
		Role models.CircleRole `json:"role"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	if err := s.circleService.SetRole(c.UserContext(), currentUserID(c), id, userID, req.Role); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// RemoveCircleMember handles DELETE /api/circles/:id/members/:userId
// @Summary Remove member or leave
// @Tags circles
// @Security BearerAuth
// @Param id path int true "Circle ID"
// @Param userId path int true "User ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id}/members/{userId} [delete]
func (s *Server) RemoveCircleMember(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID, err := s.parseID(c, "userId")
	if err != nil {
		return nil
	}

	if err := s.circleService.RemoveMember(c.UserContext(), currentUserID(c), id, userID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// JoinCircleByCode handles POST /api/circles/join/:code
// @Summary Join by invite code
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param code path string true "Invite code"
// @Success 200 {object} JoinResponse
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /circles/join/{code} [post]
func (s *Server) JoinCircleByCode(c *fiber.Ctx) error {
	code := c.Params("code")
	if code == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invite code is required"))
	}

	ctx := c.UserContext()
	result, err := s.circleService.JoinByCode(ctx, currentUserID(c), code)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(joinResponse(result))
}

// RequestToJoinCircle handles POST /api/circles/:id/request
// @Summary Request to join
// @Description Open circles activate the membership at once (201); others create a pending request (202).
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Circle ID"
// @Success 201 {object} JoinResponse
// @Success 202 {object} JoinResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /circles/{id}/request [post]
func (s *Server) RequestToJoinCircle(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	ctx := c.UserContext()
	userID := currentUserID(c)
	result, err := s.circleService.RequestJoin(ctx, userID, id)
	if err != nil {
		return respondError(c, err)
	}
	if result.Pending {
		s.notifyJoinRequested(ctx, userID, result.Membership, result.Circle)
		return c.Status(fiber.StatusAccepted).JSON(joinResponse(result))
	}
	return c.Status(fiber.StatusCreated).JSON(joinResponse(result))
}

// GetCircleJoinRequests handles GET /api/circles/:id/requests
// @Summary Pending join requests of a circle
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {array} models.CircleMembership
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id}/requests [get]
func (s *Server) GetCircleJoinRequests(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	requests, err := s.circleService.PendingRequests(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// GetPendingJoinRequests handles GET /api/circles/requests/pending
// @Summary Pending join requests across managed circles
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.CircleMembership
// @Router /circles/requests/pending [get]
func (s *Server) GetPendingJoinRequests(c *fiber.Ctx) error {
	requests, err := s.circleService.PendingRequestsForManager(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(requests)
}

// RespondToJoinRequest handles POST /api/circles/requests/:requestId/respond
// @Summary Approve or reject a join request
// @Tags circles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param requestId path int true "Request ID"
// @Param request body object{action=string} true "approve or reject"
// @Success 200 {object} models.CircleMembership
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /circles/requests/{requestId}/respond [post]
func (s *Server) RespondToJoinRequest(c *fiber.Ctx) error {
	requestID, err := s.parseID(c, "requestId")
	if err != nil {
		return nil
	}
	var req struct {
		Action service.RequestAction `json:"action"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	membership, err := s.circleService.RespondToRequest(ctx, currentUserID(c), requestID, req.Action)
	if err != nil {
		return respondError(c, err)
	}
	if req.Action == service.RequestApprove {
		s.notifyMembershipApproved(ctx, membership)
	}
	return c.JSON(membership)
}

// GetCircleLists handles GET /api/circles/:id/lists
// @Summary Lists visible inside a circle
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {array} models.RestaurantList
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id}/lists [get]
func (s *Server) GetCircleLists(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	lists, err := s.listService.CircleLists(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lists)
}
