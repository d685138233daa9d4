package server

import (
	"io"

	"circles/internal/models"
	"circles/internal/service"

	"github.com/gofiber/fiber/v2"
)

// PublicProfile is what other users see of an account.
type PublicProfile struct {
	models.UserSummary
	Bio                   string `json:"bio"`
	RequireFollowApproval bool   `json:"require_follow_approval"`
}

// GetMyProfile handles GET /api/users/me
// @Summary Current user
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} models.User
// @Router /users/me [get]
func (s *Server) GetMyProfile(c *fiber.Ctx) error {
	user, err := s.userService.GetUserByID(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// UpdateMyProfile handles PUT /api/users/me
// @Summary Update profile
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body object{name=string,bio=string} true "Profile fields"
// @Success 200 {object} models.User
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me [put]
func (s *Server) UpdateMyProfile(c *fiber.Ctx) error {
	var req struct {
		Name *string `json:"name"`
		Bio  *string `json:"bio"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}

	user, err := s.userService.UpdateProfile(c.UserContext(), service.UpdateProfileInput{
		UserID: currentUserID(c),
		Name:   req.Name,
		Bio:    req.Bio,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(user)
}

// GetUserProfile handles GET /api/users/:id
// @Summary User profile
// @Tags users
// @Security BearerAuth
// @Produce json
// @Param id path int true "User ID"
// @Success 200 {object} PublicProfile
// @Failure 404 {object} models.ErrorResponse
// @Router /users/{id} [get]
func (s *Server) GetUserProfile(c *fiber.Ctx) error {
	id, err := s.parseID(c, "id")
	if err != nil {
		return nil
	}

	user, err := s.userService.GetUserByID(c.UserContext(), id)
	if err != nil {
		return respondError(c, err)
	}
	if user.ID == currentUserID(c) {
		return c.JSON(user)
	}
	return c.JSON(PublicProfile{
		UserSummary:           user.Summary(),
		Bio:                   user.Bio,
		RequireFollowApproval: user.RequireFollowApproval,
	})
}

// GetMyPrivacy handles GET /api/users/me/privacy
// @Summary Privacy settings
// @Tags users
// @Security BearerAuth
// @Produce json
// @Success 200 {object} service.PrivacySettings
// @Router /users/me/privacy [get]
func (s *Server) GetMyPrivacy(c *fiber.Ctx) error {
	settings, err := s.userService.Privacy(c.UserContext(), currentUserID(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

// UpdateMyPrivacy handles PUT /api/users/me/privacy
// @Summary Update privacy settings
// @Tags users
// @Security BearerAuth
// @Accept json
// @Produce json
// @Param request body service.PrivacySettings true "Privacy settings"
// @Success 200 {object} service.PrivacySettings
// @Router /users/me/privacy [put]
func (s *Server) UpdateMyPrivacy(c *fiber.Ctx) error {
	var req struct {
		RequireFollowApproval *bool `json:"require_follow_approval"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if req.RequireFollowApproval == nil {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("require_follow_approval is required"))
	}

	settings, err := s.userService.SetPrivacy(c.UserContext(), currentUserID(c), service.PrivacySettings{
		RequireFollowApproval: *req.RequireFollowApproval,
	})
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(settings)
}

// UploadAvatar handles POST /api/users/me/avatar
// @Summary Upload avatar
// @Description Multipart field "avatar"; stored as a 256px square WebP.
// @Tags users
// @Security BearerAuth
// @Accept multipart/form-data
// @Produce json
// @Param avatar formData file true "Image file"
// @Success 200 {object} object{user=models.User,image=service.StoredImage}
// @Failure 400 {object} models.ErrorResponse
// @Router /users/me/avatar [post]
func (s *Server) UploadAvatar(c *fiber.Ctx) error {
	userID := currentUserID(c)
	file, err := c.FormFile("avatar")
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("No file uploaded"))
	}
	if file.Size > s.imageService.MaxUploadBytes() {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("File too large"))
	}

	src, err := file.Open()
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}
	defer func() { _ = src.Close() }()

	content, err := io.ReadAll(src)
	if err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError("Unable to read uploaded file"))
	}

	stored, err := s.imageService.UploadAvatar(c.UserContext(), service.UploadImageInput{
		UserID:      userID,
		Filename:    file.Filename,
		ContentType: file.Header.Get("Content-Type"),
		Content:     content,
	})
	if err != nil {
		return respondError(c, err)
	}

	user, err := s.userService.SetAvatar(c.UserContext(), userID, stored.URL)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"user": user, "image": stored})
}
