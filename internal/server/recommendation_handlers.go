package server

import (
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

type saveRestaurantRequest struct {
	RestaurantID uint `json:"restaurant_id"`
}

type recommendationRequest struct {
	RestaurantID uint   `json:"restaurant_id"`
	Note         string `json:"note"`
}

// SaveRestaurant handles POST /api/saved-restaurants
// @Summary Save restaurant
// @Tags saved
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body saveRestaurantRequest true "Restaurant"
// @Success 201 {object} models.SavedRestaurant
// @Failure 404 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /saved-restaurants [post]
func (s *Server) SaveRestaurant(c *fiber.Ctx) error {
	var req saveRestaurantRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	saved, err := s.recommendationService.Save(c.UserContext(), currentUserID(c), req.RestaurantID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(saved)
}

// UnsaveRestaurant handles DELETE /api/saved-restaurants/:restaurantId
// @Summary Unsave restaurant
// @Tags saved
// @Security BearerAuth
// @Param restaurantId path int true "Restaurant ID"
// @Success 204
// @Failure 404 {object} models.ErrorResponse
// @Router /saved-restaurants/{restaurantId} [delete]
func (s *Server) UnsaveRestaurant(c *fiber.Ctx) error {
	restaurantID, err := s.parseID(c, "restaurantId")
	if err != nil {
		return nil
	}
	if err := s.recommendationService.Unsave(c.UserContext(), currentUserID(c), restaurantID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// GetMySavedRestaurants handles GET /api/users/me/saved-restaurants
// @Summary My saved restaurants
// @Tags saved
// @Security BearerAuth
// @Produce json
// @Success 200 {array} models.SavedRestaurant
// @Router /users/me/saved-restaurants [get]
func (s *Server) GetMySavedRestaurants(c *fiber.Ctx) error {
	userID := currentUserID(c)
	return s.respondSaved(c, userID, userID)
}

// GetUserSavedRestaurants handles GET /api/users/:id/saved-restaurants
// @Summary Saved restaurants
// @Description Saved restaurants are visible to their owner only.
// @Tags saved
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {array} models.SavedRestaurant
// @Failure 403 {object} models.ErrorResponse
// @Router /users/{id}/saved-restaurants [get]
func (s *Server) GetUserSavedRestaurants(c *fiber.Ctx) error {
	ownerID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	return s.respondSaved(c, currentUserID(c), ownerID)
}

func (s *Server) respondSaved(c *fiber.Ctx, viewerID, ownerID uint) error {
	page := parsePagination(c, 50)
	saved, err := s.recommendationService.Saved(c.UserContext(), viewerID, ownerID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(saved)
}

// GetCircleRecommendations handles GET /api/circles/:id/recommendations
// @Summary Circle recommendations
// @Tags circles
// @Security BearerAuth
// @Produce json
// @Param id path int true "Circle ID"
// @Success 200 {array} models.Recommendation
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id}/recommendations [get]
func (s *Server) GetCircleRecommendations(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	recs, err := s.recommendationService.ForCircle(c.UserContext(), currentUserID(c), circleID, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(recs)
}

// RecommendToCircle handles POST /api/circles/:id/recommendations
// @Summary Recommend restaurant
// @Description Active members recommend a restaurant to the circle.
// @Tags circles
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Circle ID"
// @Param request body recommendationRequest true "Recommendation"
// @Success 201 {object} models.Recommendation
// @Failure 403 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /circles/{id}/recommendations [post]
func (s *Server) RecommendToCircle(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req recommendationRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	userID := currentUserID(c)
	rec, err := s.recommendationService.Recommend(c.UserContext(), userID, service.RecommendInput{
		CircleID:     circleID,
		RestaurantID: req.RestaurantID,
		Note:         req.Note,
	})
	if err != nil {
		return respondError(c, err)
	}
	s.notifyRecommendation(c.UserContext(), userID, rec)
	return c.Status(fiber.StatusCreated).JSON(rec)
}

// RemoveCircleRecommendation handles DELETE /api/circles/:id/recommendations/:recId
// @Summary Remove recommendation
// @Description The recommender or a circle owner or admin may remove it.
// @Tags circles
// @Security BearerAuth
// @Param id path int true "Circle ID"
// @Param recId path int true "Recommendation ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /circles/{id}/recommendations/{recId} [delete]
func (s *Server) RemoveCircleRecommendation(c *fiber.Ctx) error {
	circleID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	recID, err := s.parseID(c, "recId")
	if err != nil {
		return nil
	}
	if err := s.recommendationService.Remove(c.UserContext(), currentUserID(c), circleID, recID); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}
