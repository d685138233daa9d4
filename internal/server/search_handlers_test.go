package server

import (
	"net/http"
	"testing"

	"circles/internal/models"
	"circles/internal/service"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSearchValidation(t *testing.T) {
	ts := newTestServer(t)

	tests := []struct {
		name    string
		path    string
		details string
	}{
		{"missing query", "/api/search", service.CodeMissingQuery},
		{"blank query", "/api/search?q=%20%20", service.CodeMissingQuery},
		{"one character", "/api/search?q=a", service.CodeQueryTooShort},
		{"unknown type", "/api/search?q=pho&type=posts", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodGet, tt.path, "", nil)
			require.Equal(t, http.StatusBadRequest, resp.StatusCode)
			body := decode[models.ErrorResponse](t, resp)
			assert.Equal(t, models.CodeValidation, body.Code)
			if tt.details != "" {
				assert.Equal(t, tt.details, body.Details)
			}
		})
	}
}

func TestSearchGroupsAndFlattens(t *testing.T) {
	ts := newTestServer(t)
	aliceToken, _ := ts.signup(t, "alice")
	bobToken, _ := ts.signup(t, "bob")

	ts.createRestaurant(t, aliceToken, "Noodle House")
	ts.createList(t, aliceToken, map[string]any{"name": "Noodle Crawl", "visibility": "public"})
	ts.createList(t, aliceToken, map[string]any{"name": "Noodle Secrets"})

	resp := ts.do(t, http.MethodGet, "/api/search?q=noodle", bobToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	all := decode[service.SearchResults](t, resp)
	require.Len(t, all.Restaurants, 1)
	assert.Equal(t, "Noodle House", all.Restaurants[0].Name)
	assert.Equal(t, models.RestaurantSourceDatabase, all.Restaurants[0].Source)
	// No places key is configured in tests.
	assert.True(t, all.Degraded)

	require.Len(t, all.Lists, 1)
	assert.Equal(t, "Noodle Crawl", all.Lists[0].Name)
	assert.Empty(t, all.Users)

	resp = ts.do(t, http.MethodGet, "/api/search?q=noodle&type=lists", aliceToken, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	lists := decode[[]service.SearchHit](t, resp)
	assert.Len(t, lists, 2)

	resp = ts.do(t, http.MethodGet, "/api/search/unified?q=noodle&type=restaurants", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	restaurants := decode[[]service.SearchHit](t, resp)
	require.Len(t, restaurants, 1)
	assert.Equal(t, "restaurant", restaurants[0].Type)

	resp = ts.do(t, http.MethodGet, "/api/search?q=ali&type=users", "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	users := decode[[]service.SearchHit](t, resp)
	require.Len(t, users, 1)
	assert.Equal(t, "@alice", users[0].Subtitle)
}

func TestRestaurantEndpoints(t *testing.T) {
	ts := newTestServer(t)
	token, _ := ts.signup(t, "alice")

	tests := []struct {
		name string
		body map[string]any
	}{
		{"missing name", map[string]any{"location": "Portland", "category": "Thai"}},
		{"missing location", map[string]any{"name": "Thai Peacock", "category": "Thai"}},
		{"bad price range", map[string]any{"name": "Thai Peacock", "location": "Portland", "category": "Thai", "price_range": "$$$$$"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp := ts.do(t, http.MethodPost, "/api/restaurants", token, tt.body)
			assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
		})
	}

	created := ts.createRestaurant(t, token, "Thai Peacock")

	resp := ts.do(t, http.MethodGet, "/api/restaurants/"+uintString(created.ID), "", nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)
	view := decode[map[string]any](t, resp)
	assert.Equal(t, uintString(created.ID), view["id"])
	assert.Equal(t, models.RestaurantSourceDatabase, view["source"])

	resp = ts.do(t, http.MethodGet, "/api/restaurants/999999", "", nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)

	resp = ts.do(t, http.MethodPost, "/api/restaurants/import", token, map[string]string{"place_id": "abc"})
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode)
}
