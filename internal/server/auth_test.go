package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"
	"time"

	"circles/internal/cache"
	"circles/internal/config"
	"circles/internal/middleware"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret-key-12345678901234567890123456789012"

func TestServer_AuthRequired(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"userID": c.Locals("userID")})
	})

	generateToken := func(sub any, issuer, audience string, exp time.Duration) string {
		claims := jwt.MapClaims{
			"sub": sub,
			"iss": issuer,
			"aud": audience,
			"exp": time.Now().Add(exp).Unix(),
			"jti": "test-jti",
		}
		str, _ := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(testSecret))
		return str
	}
	valid := func(exp time.Duration) string {
		return generateToken("123", middleware.TokenIssuer, middleware.TokenAudience, exp)
	}

	tests := []struct {
		name           string
		authHeader     string
		tokenParam     string
		expectedStatus int
		expectedError  string
	}{
		{
			name:           "Valid Token",
			authHeader:     "Bearer " + valid(time.Hour),
			expectedStatus: http.StatusOK,
		},
		{
			name:           "Token in query param is ignored",
			tokenParam:     valid(time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authorization required",
		},
		{
			name:           "Expired Token",
			authHeader:     "Bearer " + valid(-time.Hour),
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid or expired token",
		},
		{
			name:           "Invalid Issuer",
			authHeader:     "Bearer " + generateToken("123", "wrong-issuer", middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Invalid Audience",
			authHeader:     "Bearer " + generateToken("123", middleware.TokenIssuer, "wrong-audience", time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
		{
			name:           "Missing Header",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Authorization required",
		},
		{
			name:           "Malformed Bearer Format",
			authHeader:     "BearerTokenOnly",
			expectedStatus: http.StatusUnauthorized,
			expectedError:  "Invalid authorization header format",
		},
		{
			name:           "Non-numeric subject",
			authHeader:     "Bearer " + generateToken("abc", middleware.TokenIssuer, middleware.TokenAudience, time.Hour),
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := "/protected"
			if tt.tokenParam != "" {
				path += "?token=" + tt.tokenParam
			}
			req := httptest.NewRequest(http.MethodGet, path, nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}

			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, tt.expectedStatus, resp.StatusCode)

			var body map[string]any
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, float64(123), body["userID"])
			}
			if tt.expectedError != "" {
				assert.Equal(t, tt.expectedError, body["error"])
			}
		})
	}
}

func TestAuthRequired_RevokedToken(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()

	s := &Server{config: &config.Config{JWTSecret: testSecret}, redis: rdb}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token, claims, err := middleware.IssueToken(testSecret, 9, time.Hour)
	require.NoError(t, err)

	send := func() int {
		req := httptest.NewRequest(http.MethodGet, "/protected", nil)
		req.Header.Set("Authorization", "Bearer "+token)
		resp, err := app.Test(req)
		require.NoError(t, err)
		_ = resp.Body.Close()
		return resp.StatusCode
	}

	assert.Equal(t, http.StatusOK, send())
	require.NoError(t, rdb.Set(context.Background(), cache.RevokedTokenKey(claims.TokenID), "1", time.Hour).Err())
	assert.Equal(t, http.StatusUnauthorized, send())
}

func TestAuthRequired_RevocationStoreDownFailsOpen(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	mr.Close()

	s := &Server{config: &config.Config{JWTSecret: testSecret}, redis: rdb}
	app := fiber.New()
	app.Get("/protected", s.AuthRequired(), func(c *fiber.Ctx) error {
		return c.SendStatus(fiber.StatusOK)
	})

	token, _, err := middleware.IssueToken(testSecret, 9, time.Hour)
	require.NoError(t, err)
	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.Header.Set("Authorization", "Bearer "+token)
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()

	assert.Equal(t, http.StatusOK, resp.StatusCode)
}

func TestOptionalAuth(t *testing.T) {
	s := &Server{config: &config.Config{JWTSecret: testSecret}}
	app := fiber.New()
	app.Get("/maybe", s.OptionalAuth(), func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"uid": currentUserID(c)})
	})

	token, _, err := middleware.IssueToken(testSecret, 42, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		header string
		uid    float64
	}{
		{"anonymous", "", 0},
		{"valid token", "Bearer " + token, 42},
		{"garbage token falls back to anonymous", "Bearer not-a-jwt", 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/maybe", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			resp, err := app.Test(req)
			require.NoError(t, err)
			defer func() { _ = resp.Body.Close() }()
			assert.Equal(t, http.StatusOK, resp.StatusCode)

			var body map[string]float64
			require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
			assert.Equal(t, tt.uid, body["uid"])
		})
	}
}

func TestConsumeWSTicket_SingleUse(t *testing.T) {
	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer func() { _ = rdb.Close() }()
	s := &Server{redis: rdb}
	ctx := context.Background()

	require.NoError(t, rdb.Set(ctx, cache.WSTicketKey("t-1"), strconv.Itoa(77), time.Minute).Err())

	uid, err := s.consumeWSTicket(ctx, "t-1")
	require.NoError(t, err)
	assert.Equal(t, uint(77), uid)

	_, err = s.consumeWSTicket(ctx, "t-1")
	assert.ErrorIs(t, err, redis.Nil)

	require.NoError(t, rdb.Set(ctx, cache.WSTicketKey("t-2"), "garbage", time.Minute).Err())
	_, err = s.consumeWSTicket(ctx, "t-2")
	assert.ErrorIs(t, err, redis.Nil)

	_, err = (&Server{}).consumeWSTicket(ctx, "t-3")
	assert.ErrorIs(t, err, redis.Nil)
}
