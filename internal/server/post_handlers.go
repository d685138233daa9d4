package server

import (
	"circles/internal/repository"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// postRequest is the JSON body for creating or updating a review.
type postRequest struct {
	RestaurantID    uint      `json:"restaurant_id"`
	CircleID        *uint     `json:"circle_id"`
	Visibility      *string   `json:"visibility"`
	Content         *string   `json:"content"`
	Rating          *int      `json:"rating"`
	ServiceRating   *int      `json:"service_rating"`
	PriceAssessment *string   `json:"price_assessment"`
	Atmosphere      *string   `json:"atmosphere"`
	DishesTried     *[]string `json:"dishes_tried"`
	DietaryOptions  *[]string `json:"dietary_options"`
	Images          *[]string `json:"images"`
}

func (r postRequest) input() service.PostInput {
	return service.PostInput{
		RestaurantID:    r.RestaurantID,
		CircleID:        r.CircleID,
		Visibility:      r.Visibility,
		Content:         r.Content,
		Rating:          r.Rating,
		ServiceRating:   r.ServiceRating,
		PriceAssessment: r.PriceAssessment,
		Atmosphere:      r.Atmosphere,
		DishesTried:     r.DishesTried,
		DietaryOptions:  r.DietaryOptions,
		Images:          r.Images,
	}
}

func queryUint(c *fiber.Ctx, key string) uint {
	v := c.QueryInt(key, 0)
	if v < 0 {
		return 0
	}
	return uint(v)
}

// GetFeed handles GET /api/feed
// @Summary Feed
// @Description The caller's posts, public posts by users they follow and posts in their circles, newest first. Anonymous callers get every public post.
// @Tags posts
// @Produce json
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Post
// @Router /feed [get]
func (s *Server) GetFeed(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	posts, err := s.postService.Feed(c.UserContext(), currentUserID(c), page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetPosts handles GET /api/posts
// @Summary List posts
// @Description Readable posts, newest first, optionally filtered by author, restaurant or circle.
// @Tags posts
// @Produce json
// @Param user_id query int false "Author"
// @Param restaurant_id query int false "Restaurant"
// @Param circle_id query int false "Circle"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Router /posts [get]
func (s *Server) GetPosts(c *fiber.Ctx) error {
	page := parsePagination(c, 20)
	filter := repository.PostFilter{
		AuthorID:     queryUint(c, "user_id"),
		RestaurantID: queryUint(c, "restaurant_id"),
		CircleID:     queryUint(c, "circle_id"),
	}
	posts, err := s.postService.List(c.UserContext(), currentUserID(c), filter, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// GetUserPosts handles GET /api/users/:id/posts
// @Summary User posts
// @Tags posts
// @Produce json
// @Param id path int true "User ID"
// @Param limit query int false "Page size" default(20)
// @Param offset query int false "Offset" default(0)
// @Success 200 {array} models.Post
// @Router /users/{id}/posts [get]
func (s *Server) GetUserPosts(c *fiber.Ctx) error {
	userID, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 20)
	posts, err := s.postService.List(c.UserContext(), currentUserID(c), repository.PostFilter{AuthorID: userID}, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(posts)
}

// CreatePost handles POST /api/posts
// @Summary Create post
// @Description Review a restaurant. A circle_id scopes the post to that circle.
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body postRequest true "Post"
// @Success 201 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts [post]
func (s *Server) CreatePost(c *fiber.Ctx) error {
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Create(c.UserContext(), currentUserID(c), req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(post)
}

// GetPost handles GET /api/posts/:id
// @Summary Get post
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Failure 404 {object} models.ErrorResponse
// @Router /posts/{id} [get]
func (s *Server) GetPost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Get(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// UpdatePost handles PUT /api/posts/:id
// @Summary Update post
// @Tags posts
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param id path int true "Post ID"
// @Param request body postRequest true "Post fields"
// @Success 200 {object} models.Post
// @Failure 400 {object} models.ErrorResponse
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [put]
func (s *Server) UpdatePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	var req postRequest
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	post, err := s.postService.Update(c.UserContext(), currentUserID(c), id, req.input())
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// DeletePost handles DELETE /api/posts/:id
// @Summary Delete post
// @Description Authors delete their own posts; circle owners and admins may delete posts in their circle.
// @Tags posts
// @Security BearerAuth
// @Param id path int true "Post ID"
// @Success 204
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id} [delete]
func (s *Server) DeletePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	if err := s.postService.Delete(c.UserContext(), currentUserID(c), id); err != nil {
		return respondError(c, err)
	}
	return c.SendStatus(fiber.StatusNoContent)
}

// LikePost handles POST /api/posts/:id/like
// This endpoint toggles the like status - if already liked, it unlikes; if not liked, it likes
// @Summary Toggle like
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Failure 403 {object} models.ErrorResponse
// @Router /posts/{id}/like [post]
func (s *Server) LikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	userID := currentUserID(c)
	post, err := s.postService.ToggleLike(c.UserContext(), userID, id)
	if err != nil {
		return respondError(c, err)
	}
	if post.Liked {
		s.notifyPostLiked(c.UserContext(), userID, post)
	}
	return c.JSON(post)
}

// UnlikePost handles DELETE /api/posts/:id/like
// @Summary Unlike
// @Tags posts
// @Security BearerAuth
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {object} models.Post
// @Router /posts/{id}/like [delete]
func (s *Server) UnlikePost(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	post, err := s.postService.Unlike(c.UserContext(), currentUserID(c), id)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(post)
}

// GetPostLikes handles GET /api/posts/:id/likes
// @Summary Post likers
// @Tags posts
// @Produce json
// @Param id path int true "Post ID"
// @Success 200 {array} models.UserSummary
// @Router /posts/{id}/likes [get]
func (s *Server) GetPostLikes(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}
	page := parsePagination(c, 50)
	users, err := s.postService.Likers(c.UserContext(), currentUserID(c), id, page.Limit, page.Offset)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(users)
}
