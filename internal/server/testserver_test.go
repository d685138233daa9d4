package server

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strconv"
	"testing"

	"circles/internal/config"
	"circles/internal/testutil"

	"github.com/alicebob/miniredis/v2"
	"github.com/gofiber/fiber/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

// testServer is a fully wired server over in-memory sqlite and miniredis.
type testServer struct {
	srv   *Server
	app   *fiber.App
	db    *gorm.DB
	redis *miniredis.Miniredis
}

func newTestServer(t *testing.T) *testServer {
	t.Helper()
	t.Setenv("APP_ENV", "test")

	mr := miniredis.RunT(t)
	rdb := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = rdb.Close() })

	db := testutil.NewTestDB(t)
	cfg := &config.Config{
		Env:            "test",
		JWTSecret:      testSecret,
		JWTTTLHours:    1,
		UploadDir:      t.TempDir(),
		MaxUploadMB:    2,
		AllowedOrigins: "http://localhost:5173",
	}
	srv, err := NewServerWithDeps(cfg, db, rdb)
	require.NoError(t, err)
	t.Cleanup(func() { _ = srv.hub.Shutdown(context.Background()) })

	return &testServer{srv: srv, app: srv.newApp(), db: db, redis: mr}
}

// do sends a JSON request; a non-empty token is sent as a bearer token.
func (ts *testServer) do(t *testing.T, method, path, token string, body any) *http.Response {
	t.Helper()
	var reader io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(b)
	}
	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := ts.app.Test(req, -1)
	require.NoError(t, err)
	t.Cleanup(func() { _ = resp.Body.Close() })
	return resp
}

// signup registers username and returns its token and id.
func (ts *testServer) signup(t *testing.T, username string) (string, uint) {
	t.Helper()
	resp := ts.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"username": username,
		"email":    username + "@example.com",
		"password": "Password123",
		"name":     "Test " + username,
	})
	require.Equal(t, http.StatusCreated, resp.StatusCode)
	out := decode[AuthResponse](t, resp)
	return out.Token, out.User.ID
}

func decode[T any](t *testing.T, resp *http.Response) T {
	t.Helper()
	var out T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	return out
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
