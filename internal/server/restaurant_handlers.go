package server

import (
	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// CreateRestaurant handles POST /api/restaurants
// @Summary Create restaurant
// @Tags restaurants
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.RestaurantInput true "Restaurant"
// @Success 201 {object} models.Restaurant
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /restaurants [post]
func (s *Server) CreateRestaurant(c *fiber.Ctx) error {
	var req service.RestaurantInput
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	restaurant, err := s.restaurantService.Create(c.UserContext(), req)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(restaurant)
}

// ImportRestaurant handles POST /api/restaurants/import
// @Summary Import a places result
// @Description Stores a places lookup result locally. Returns the existing row when the place was already imported.
// @Tags restaurants
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{place_id=string} true "Place"
// @Success 200 {object} models.Restaurant
// @Success 201 {object} models.Restaurant
// @Failure 404 {object} models.ErrorResponse
// @Failure 503 {object} models.ErrorResponse
// @Router /restaurants/import [post]
func (s *Server) ImportRestaurant(c *fiber.Ctx) error {
	var req struct {
		PlaceID string `json:"place_id"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	restaurant, created, err := s.restaurantService.Import(c.UserContext(), req.PlaceID)
	if err != nil {
		return respondError(c, err)
	}
	status := fiber.StatusOK
	if created {
		status = fiber.StatusCreated
	}
	return c.Status(status).JSON(restaurant)
}

// GetRestaurant handles GET /api/restaurants/:id
// @Summary Get restaurant
// @Description Numeric ids read the local catalog; ids prefixed google_ resolve through the places lookup.
// @Tags restaurants
// @Produce json
// @Param id path string true "Restaurant ID"
// @Success 200 {object} service.RestaurantView
// @Failure 404 {object} models.ErrorResponse
// @Router /restaurants/{id} [get]
func (s *Server) GetRestaurant(c *fiber.Ctx) error {
	id := c.Params("id")
	if id == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Invalid ID"))
	}

	view, err := s.restaurantService.Get(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(view)
}
