package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"circles/internal/config"
	"circles/internal/models"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testOrigin = "http://localhost:5173"

func newMiddlewareApp(t *testing.T) *fiber.App {
	t.Helper()
	srv := &Server{config: &config.Config{AllowedOrigins: testOrigin}}
	app := fiber.New()
	srv.SetupMiddleware(app)
	ok := func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusOK) }
	app.Post("/api/lists", ok)
	app.Get("/health/live", ok)
	return app
}

func send(t *testing.T, app *fiber.App, method, path string, headers map[string]string) *http.Response {
	t.Helper()
	req := httptest.NewRequest(method, path, nil)
	req.Header.Set("Origin", testOrigin)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

func exhaustGlobalLimit(t *testing.T, app *fiber.App) {
	t.Helper()
	for i := 0; i < 100; i++ {
		resp := send(t, app, http.MethodPost, "/api/lists", nil)
		require.Equal(t, fiber.StatusOK, resp.StatusCode, "request %d", i)
	}
}

func TestGlobalLimiterResponseKeepsCORSAndEnvelope(t *testing.T) {
	app := newMiddlewareApp(t)
	exhaustGlobalLimit(t, app)

	resp := send(t, app, http.MethodPost, "/api/lists", nil)
	assert.Equal(t, fiber.StatusTooManyRequests, resp.StatusCode)
	assert.Equal(t, testOrigin, resp.Header.Get("Access-Control-Allow-Origin"))

	var body models.ErrorResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))
	assert.Equal(t, models.CodeRateLimited, body.Code)
}

func TestGlobalLimiterExemptions(t *testing.T) {
	app := newMiddlewareApp(t)
	exhaustGlobalLimit(t, app)

	preflight := send(t, app, http.MethodOptions, "/api/lists", map[string]string{
		"Access-Control-Request-Method":  http.MethodPost,
		"Access-Control-Request-Headers": "authorization,content-type",
	})
	assert.Equal(t, fiber.StatusNoContent, preflight.StatusCode)
	assert.Equal(t, testOrigin, preflight.Header.Get("Access-Control-Allow-Origin"))
	assert.Contains(t, preflight.Header.Get("Access-Control-Allow-Methods"), http.MethodPost)

	live := send(t, app, http.MethodGet, "/health/live", nil)
	assert.Equal(t, fiber.StatusOK, live.StatusCode)
}
