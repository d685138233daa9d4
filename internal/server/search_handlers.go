package server

import (
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// Search handles GET /api/search and GET /api/search/unified
// @Summary Hybrid search
// @Description Searches restaurants (local and places), readable lists and users. type=all groups results; a single type returns a flat array.
// @Tags search
// @Produce json
// @Param q query string true "Query (min 2 characters)"
// @Param type query string false "all, restaurants, lists or users"
// @Success 200 {object} service.SearchResults
// @Failure 400 {object} models.ErrorResponse
// @Router /search [get]
func (s *Server) Search(c *fiber.Ctx) error {
	searchType, err := service.ParseSearchType(c.Query("type"))
	if err != nil {
		return respondError(c, err)
	}

	results, err := s.searchService.Search(c.UserContext(), currentUserID(c), c.Query("q"), searchType)
	if err != nil {
		return respondError(c, err)
	}
	if searchType == service.SearchAll {
		return c.JSON(results)
	}
	return c.JSON(results.Flatten(searchType))
}
