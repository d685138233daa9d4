package server

import (
	"strings"
	"time"

	"circles/internal/cache"
	"circles/internal/middleware"
	"circles/internal/models"
	"circles/internal/validation"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
)

// AuthResponse is returned by signup and login.
type AuthResponse struct {
	Token string       `json:"token"`
	User  *models.User `json:"user"`
}

// Signup handles POST /api/auth/signup
// @Summary User signup
// @Description Register a new user account
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{username=string,email=string,password=string,name=string} true "Signup request"
// @Success 201 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 409 {object} models.ErrorResponse
// @Router /auth/signup [post]
func (s *Server) Signup(c *fiber.Ctx) error {
	var req struct {
		Username string `json:"username"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	req.Username = strings.TrimSpace(req.Username)
	req.Email = strings.ToLower(strings.TrimSpace(req.Email))
	req.Name = strings.TrimSpace(req.Name)

	if req.Username == "" || req.Email == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Username, email, and password are required"))
	}
	if err := validation.ValidateUsername(req.Username); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidateEmail(req.Email); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}
	if err := validation.ValidatePassword(req.Password); err != nil {
		return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
	}
	if req.Name != "" {
		if err := validation.ValidateName("name", req.Name); err != nil {
			return models.RespondWithError(c, fiber.StatusBadRequest, models.NewValidationError(err.Error()))
		}
	}

	ctx := c.UserContext()
	for _, handle := range []string{req.Email, req.Username} {
		existing, err := s.userRepo.FindByHandle(ctx, handle)
		if err != nil {
			return respondError(c, err)
		}
		if existing != nil {
			return models.RespondWithError(c, fiber.StatusConflict,
				models.NewConflictError("Username or email already registered"))
		}
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return respondError(c, models.NewInternalError(err))
	}

	user := &models.User{
		Username: req.Username,
		Email:    req.Email,
		Password: string(hashed),
		Name:     req.Name,
	}
	// The unique indexes still decide concurrent signups; the repository maps them to Conflict.
	if err := s.userRepo.Create(ctx, user); err != nil {
		return respondError(c, err)
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(AuthResponse{Token: token, User: user})
}

// Login handles POST /api/auth/login
// @Summary User login
// @Description Authenticate user and return JWT token
// @Tags auth
// @Accept json
// @Produce json
// @Param request body object{email=string,password=string} true "Login credentials"
// @Success 200 {object} AuthResponse
// @Failure 400 {object} models.ErrorResponse
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/login [post]
func (s *Server) Login(c *fiber.Ctx) error {
	var req struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := parseBody(c, &req); err != nil {
		return nil
	}
	if strings.TrimSpace(req.Email) == "" || req.Password == "" {
		return models.RespondWithError(c, fiber.StatusBadRequest,
			models.NewValidationError("Email and password are required"))
	}

	user, err := s.userRepo.GetByEmail(c.UserContext(), strings.ToLower(strings.TrimSpace(req.Email)))
	if err != nil {
		return respondError(c, err)
	}
	if user == nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}
	if cmpErr := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(req.Password)); cmpErr != nil {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Invalid credentials"))
	}

	token, err := s.issueToken(user.ID)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(AuthResponse{Token: token, User: user})
}

// Logout handles POST /api/auth/logout
// @Summary Logout
// @Description Revoke the presented token until it expires
// @Tags auth
// @Security BearerAuth
// @Success 204
// @Failure 401 {object} models.ErrorResponse
// @Router /auth/logout [post]
func (s *Server) Logout(c *fiber.Ctx) error {
	claims, ok := c.Locals(claimsLocal).(*middleware.TokenClaims)
	if !ok || claims.TokenID == "" {
		return models.RespondWithError(c, fiber.StatusUnauthorized,
			models.NewUnauthorizedError("Authorization required"))
	}
	if s.redis != nil {
		ttl := time.Until(claims.ExpiresAt)
		if ttl > 0 {
			if err := s.redis.Set(c.UserContext(), cache.RevokedTokenKey(claims.TokenID), "1", ttl).Err(); err != nil {
				return respondError(c, models.NewInternalError(err))
			}
		}
	}
	return c.SendStatus(fiber.StatusNoContent)
}

func (s *Server) issueToken(userID uint) (string, error) {
	if s.config.JWTSecret == "" {
		return "", models.NewInternalError(errMissingJWTSecret)
	}
	ttl := time.Duration(s.config.JWTTTLHours) * time.Hour
	if ttl <= 0 {
		ttl = 72 * time.Hour
	}
	token, _, err := middleware.IssueToken(s.config.JWTSecret, userID, ttl)
	if err != nil {
		return "", models.NewInternalError(err)
	}
	return token, nil
}
