package server

import (
	"strings"

	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// listRequest is the JSON body for creating or updating a list. Either
// visibility or the two flags may be sent; inconsistent combinations are
// rejected.
type listRequest struct {
	Name            *string   `json:"name"`
	Description     *string   `json:"description"`
	CircleID        *uint     `json:"circle_id"`
	Visibility      *string   `json:"visibility"`
	MakePublic      *bool     `json:"make_public"`
	ShareWithCircle *bool     `json:"share_with_circle"`
	Tags            *[]string `json:"tags"`
	PrimaryLocation *string   `json:"primary_location"`
}

func (r listRequest) input() service.ListInput {
	return service.ListInput{
		Name:        r.Name,
		Description: r.Description,
		CircleID:    r.CircleID,
		Visibility: models.VisibilityInput{
			Visibility:      r.Visibility,
			MakePublic:      r.MakePublic,
			ShareWithCircle: r.ShareWithCircle,
		},
		Tags:            r.Tags,
		PrimaryLocation: r.PrimaryLocation,
	}
}

// itemRequest is the JSON body for adding or updating a list item.
type itemRequest struct {
	RestaurantID    uint      `json:"restaurant_id"`
	Rating          *int      `json:"rating"`
	PriceAssessment *string   `json:"price_assessment"`
	Liked           *string   `json:"liked"`
	Disliked        *string   `json:"disliked"`
	Notes           *string   `json:"notes"`
	MustTryDishes   *[]string `json:"must_try_dishes"`
	Position        *int      `json:"position"`
}

func (r itemRequest) input() service.ItemInput {
	return service.ItemInput{
		RestaurantID:    r.RestaurantID,
		Rating:          r.Rating,
		PriceAssessment: r.PriceAssessment,
		Liked:           r.Liked,
		Disliked:        r.Disliked,
		Notes:           r.Notes,
		MustTryDishes:   r.MustTryDishes,
		Position:        r.Position,
	}
}

// GetAccessibleLists handles GET /api/lists
// @Summary Accessible lists
// @Description Accessible lists with the caller's permissions, newest first. Anonymous callers see public lists only.
// @Tags lists
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} service.ListView
// @Router /lists [get]
func (s *Server) GetAccessibleLists(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	lists, err := s.listService.Accessible(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(lists)
}

// CreateList handles POST /api/lists
// @Summary Create list
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body listRequest true "List"
// @Success 201 {object} models.RestaurantList
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /lists [post]
func (s *Server) CreateList(c *fiber.Ctx) error {
	var req listRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	list, err := s.listService.Create(c.UserContext(), currentUserID(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}

// GetList handles GET /api/lists/:id
// @Summary Get list
// @Description List metadata, items ordered by position, and the caller's permissions.
// @Tags lists
// @Produce json
// @Param id path int true "List ID"
// @Success 200 {object} service.ListView
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /lists/{id} [get]
func (s *Server) GetList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	view, err := s.listService.Get(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}

// UpdateList handles PUT /api/lists/:id
// @Summary Update list
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param request body listRequest true "List fields"
// @Success 200 {object} models.RestaurantList
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id} [put]
func (s *Server) UpdateList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req listRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	list, err := s.listService.Update(c.UserContext(), currentUserID(c), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(list)
}

// DeleteList handles DELETE /api/lists/:id
// @Summary Delete list
// @Tags lists
// @Security BearerAuth
// @Param id path int true "List ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id} [delete]
func (s *Server) DeleteList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	if err := s.listService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// AddListItem handles POST /api/lists/:id/items
// @Summary Add item
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param request body itemRequest true "Item"
// @Success 201 {object} models.RestaurantListItem
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /lists/{id}/items [post]
func (s *Server) AddListItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req itemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	item, err := s.listService.AddItem(c.UserContext(), currentUserID(c), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(item)
}

// UpdateListItem handles PUT /api/lists/:id/items/:itemId
// @Summary Update item
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param itemId path int true "Item ID"
// @Param request body itemRequest true "Item fields"
// @Success 200 {object} models.RestaurantListItem
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/items/{itemId} [put]
func (s *Server) UpdateListItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}
	var req itemRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	item, err := s.listService.UpdateItem(c.UserContext(), currentUserID(c), id, itemID, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(item)
}

// RemoveListItem handles DELETE /api/lists/:id/items/:itemId
// @Summary Remove item
// @Tags lists
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param itemId path int true "Item ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/items/{itemId} [delete]
func (s *Server) RemoveListItem(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}

	if err := s.listService.RemoveItem(c.UserContext(), currentUserID(c), id, itemID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetItemComments handles GET /api/lists/:id/items/:itemId/comments
// @Summary Item comments
// @Tags lists
// @Produce json
// @Param id path int true "List ID"
// @Param itemId path int true "Item ID"
// @Success 200 {array} models.ListItemComment
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/items/{itemId}/comments [get]
func (s *Server) GetItemComments(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}

	comments, err := s.listService.Comments(c.UserContext(), currentUserID(c), id, itemID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(comments)
}

// CreateItemComment handles POST /api/lists/:id/items/:itemId/comments
// @Summary Comment on an item
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param itemId path int true "Item ID"
// @Param request body object{content=string} true "Comment"
// @Success 201 {object} models.ListItemComment
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/items/{itemId}/comments [post]
func (s *Server) CreateItemComment(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	itemID, err := s.parseID(c, "itemId")
	if err != nil {
		return nil
	}
	var req struct {
		Content string `json:"content"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if strings.TrimSpace(req.Content) == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Comment content is required"))
	}

	comment, err := s.listService.AddComment(c.UserContext(), currentUserID(c), id, itemID, req.Content)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(comment)
}

// ShareList handles POST /api/lists/:id/shares
// @Summary Share list into a circle
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param request body object{circle_id=int,can_edit=bool,can_reshare=bool} true "Share"
// @Success 201 {object} models.CircleSharedList
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /lists/{id}/shares [post]
func (s *Server) ShareList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		CircleID   uint `json:"circle_id"`
		CanEdit    bool `json:"can_edit"`
		CanReshare bool `json:"can_reshare"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	ctx := c.UserContext()
	userID := currentUserID(c)
	share, err := s.listService.Share(ctx, userID, id, service.ShareInput{
		CircleID:   req.CircleID,
		CanEdit:    req.CanEdit,
		CanReshare: req.CanReshare,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.notifyListShared(ctx, userID, share)
	return c.Status(fiber.StatusCreated).JSON(share)
}

// GetListShares handles GET /api/lists/:id/shares
// @Summary List shares
// @Tags lists
// @Security BearerAuth
// @Produce json
// @Param id path int true "List ID"
// @Success 200 {array} models.CircleSharedList
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/shares [get]
func (s *Server) GetListShares(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	shares, err := s.listService.Shares(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(shares)
}

// UnshareList handles DELETE /api/lists/:id/shares/:circleId
// @Summary Remove a share
// @Tags lists
// @Security BearerAuth
// @Param id path int true "List ID"
// @Param circleId path int true "Circle ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/shares/{circleId} [delete]
func (s *Server) UnshareList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	circleID, err := s.parseID(c, "circleId")
	if err != nil {
		return nil
	}

	if err := s.listService.Unshare(c.UserContext(), currentUserID(c), id, circleID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// CopyList handles POST /api/lists/:id/copy
// @Summary Copy list
// @Description Copies a public list, or one shared with reshare rights, into a new private list.
// @Tags lists
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "List ID"
// @Param request body object{name=string} false "Name for the copy"
// @Success 201 {object} models.RestaurantList
// @Failure 403 {object} models.ErrorResponse
// @Router /lists/{id}/copy [post]
func (s *Server) CopyList(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req struct {
		Name string `json:"name"`
	}
	if len(c.Body()) > 0 {
		if err := parseBody(c, &req); err != nil {
			return nil
		}
	}

	list, err := s.listService.Copy(c.UserContext(), currentUserID(c), id, req.Name)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(list)
}
